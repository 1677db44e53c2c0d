package deck

import "github.com/Naokyoo/Riftbound-manager/internal/riftbound/cards"

// FactionNeutral is the faction of legends without a mapped domain.
const FactionNeutral = "Neutral"

// factions maps a legend's primary domain to the faction the service
// understands.
var factions = map[string]string{
	"Fury":   "Fire",
	"Mind":   "Water",
	"Calm":   "Earth",
	"Spirit": "Air",
	"Chaos":  "Dark",
	"Order":  "Light",
	"Body":   "Neutral",
}

// FactionFor returns the service faction of a legend, from the label of its
// first domain. Unknown, missing or empty domains map to Neutral.
func FactionFor(legend *cards.Card) string {
	if f, ok := factions[legend.PrimaryDomain()]; ok {
		return f
	}
	return FactionNeutral
}
