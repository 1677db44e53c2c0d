package deck

import (
	"github.com/Naokyoo/Riftbound-manager/internal/riftbound/cardid"
	"github.com/Naokyoo/Riftbound-manager/internal/riftbound/cards"
	"github.com/Naokyoo/Riftbound-manager/internal/riftbound/remote"
)

// Line is a resolved deck line.
type Line struct {
	Card     *cards.Card `json:"card"`
	Quantity int         `json:"quantity"`
}

// EnrichedDeck is a deck record joined against the catalog. It is derived on
// every read and never cached.
type EnrichedDeck struct {
	ID          string      `json:"id"`
	Name        string      `json:"name"`
	Legend      *cards.Card `json:"legend,omitempty"`
	MainFaction string      `json:"mainFaction,omitempty"`
	Description string      `json:"description,omitempty"`
	IsValid     bool        `json:"isValid"`
	Wins        int         `json:"wins"`
	Losses      int         `json:"losses"`

	Cards        []Line `json:"cards"`
	Runes        []Line `json:"runes"`
	Battlefields []Line `json:"battlefields"`
}

// Bucket returns the lines of one partition.
func (d *EnrichedDeck) Bucket(b cards.Bucket) []Line {
	switch b {
	case cards.BucketRunes:
		return d.Runes
	case cards.BucketBattlefields:
		return d.Battlefields
	default:
		return d.Cards
	}
}

// Enrich joins a record against src. The legend is resolved from LegendID,
// falling back to an inline legend carried by older records. Each line whose
// card is missing from src is skipped and reported through missing, which may
// be nil.
func Enrich(rec remote.DeckRecord, src cards.Source, missing func(cardID string)) *EnrichedDeck {
	d := &EnrichedDeck{
		ID:           rec.ID,
		Name:         rec.Name,
		MainFaction:  rec.MainFaction,
		Description:  rec.Description,
		IsValid:      rec.IsValid,
		Wins:         rec.Wins,
		Losses:       rec.Losses,
		Cards:        []Line{},
		Runes:        []Line{},
		Battlefields: []Line{},
	}

	if rec.LegendID != "" {
		if legend, ok := src.FindByID(rec.LegendID); ok {
			d.Legend = legend
		}
	} else if rec.Legend != nil {
		d.Legend = rec.Legend
	}

	for _, l := range rec.Cards {
		card, ok := src.FindByID(l.CardID)
		if !ok {
			if missing != nil {
				missing(l.CardID)
			}
			continue
		}

		line := Line{Card: card, Quantity: l.Quantity}
		switch cards.BucketOf(card) {
		case cards.BucketRunes:
			d.Runes = append(d.Runes, line)
		case cards.BucketBattlefields:
			d.Battlefields = append(d.Battlefields, line)
		default:
			d.Cards = append(d.Cards, line)
		}
	}
	return d
}

// Stats are the bucket sums of a deck.
type Stats struct {
	TotalCards        int `json:"totalCards"`
	TotalRunes        int `json:"totalRunes"`
	TotalBattlefields int `json:"totalBattlefields"`
	TotalDeckSize     int `json:"totalDeckSize"`

	// IsValid is the service's verdict, not derived from the sums.
	IsValid bool `json:"isValid"`
}

func sum(lines []Line) int {
	total := 0
	for _, l := range lines {
		total += l.Quantity
	}
	return total
}

// StatsOf computes the bucket sums of d.
func StatsOf(d *EnrichedDeck) Stats {
	s := Stats{
		TotalCards:        sum(d.Cards),
		TotalRunes:        sum(d.Runes),
		TotalBattlefields: sum(d.Battlefields),
		IsValid:           d.IsValid,
	}
	s.TotalDeckSize = s.TotalCards + s.TotalRunes + s.TotalBattlefields
	return s
}

// Targets are the local deck size goals shown while building.
type Targets struct {
	MainSize     int `toml:"main_size" json:"mainSize"`
	Runes        int `toml:"rune_count" json:"runes"`
	Battlefields int `toml:"battlefield_count" json:"battlefields"`
}

// DefaultTargets returns the standard constructed deck sizes.
func DefaultTargets() Targets {
	return Targets{MainSize: 40, Runes: 12, Battlefields: 3}
}

// TargetsReached reports whether every bucket is exactly at its target. It
// is a local hint; the service remains the authority on validity.
func (s Stats) TargetsReached(t Targets) bool {
	return s.TotalCards == t.MainSize && s.TotalRunes == t.Runes && s.TotalBattlefields == t.Battlefields
}

// IsCardAllowed reports whether card may be put in deck under the domain
// rule: a legend without domains allows everything, a card without domains
// is always allowed, otherwise every card domain must be one of the legend's.
// Domains compare case-insensitively, by ID when both sides carry one and by
// label otherwise.
func IsCardAllowed(deck *EnrichedDeck, card *cards.Card) bool {
	if deck == nil || card == nil {
		return false
	}

	if deck.Legend == nil || len(deck.Legend.Domains) == 0 {
		return true
	}
	for _, d := range card.Domains {
		if !deck.Legend.HasDomain(d) {
			return false
		}
	}
	return true
}

// QuantityInDeck returns the copies of cardID across every bucket of d.
func QuantityInDeck(d *EnrichedDeck, cardID string) int {
	if d == nil {
		return 0
	}
	total := 0
	for _, b := range cards.Buckets {
		for _, l := range d.Bucket(b) {
			if cardid.Equal(l.Card.ID, cardID) {
				total += l.Quantity
			}
		}
	}
	return total
}

// Pool returns the catalog cards a deck builder offers for one bucket, in
// catalog order. Main deck cards are filtered by IsCardAllowed; legends are
// never offered.
func Pool(d *EnrichedDeck, src cards.Source, b cards.Bucket) []*cards.Card {
	var out []*cards.Card
	for _, card := range src.All() {
		primary := card.PrimaryType()
		switch b {
		case cards.BucketRunes:
			if primary == cards.TypeRune {
				out = append(out, card)
			}
		case cards.BucketBattlefields:
			if primary == cards.TypeBattlefield {
				out = append(out, card)
			}
		default:
			if cards.IsMainDeckType(primary) && IsCardAllowed(d, card) {
				out = append(out, card)
			}
		}
	}
	return out
}
