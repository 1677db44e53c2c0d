// Package cards provides the Riftbound card catalog: the immutable reference
// set of card definitions loaded once at startup and shared by every view that
// joins against it.
package cards

import "strings"

// Card type labels. The first type tag of a card is its primary type.
const (
	TypeUnit        = "Unit"
	TypeChampion    = "Champion"
	TypeSpell       = "Spell"
	TypeGear        = "Gear"
	TypeRune        = "Rune"
	TypeBattlefield = "Battlefield"
	TypeLegend      = "Legend"
)

// Tag is a labelled reference used for types, rarity and domains.
type Tag struct {
	ID    string `json:"id,omitempty"`
	Label string `json:"label"`
}

// Matches reports whether t and o name the same thing, ignoring case. IDs
// are compared when both tags carry one, labels otherwise.
func (t Tag) Matches(o Tag) bool {
	if t.ID != "" && o.ID != "" {
		return strings.EqualFold(t.ID, o.ID)
	}
	return t.Label != "" && strings.EqualFold(t.Label, o.Label)
}

// Image is the artwork reference of a card.
type Image struct {
	URL string `json:"url"`
}

// Card is a single catalog entry. Cards are never mutated after the catalog
// is built.
type Card struct {
	ID   string `json:"id"`
	Name string `json:"name"`

	// Costs
	Energy int  `json:"energy"`
	Power  *int `json:"power,omitempty"` // recycle cost, absent on most cards

	CardType []Tag `json:"cardType"`
	Rarity   Tag   `json:"rarity"`
	Domains  []Tag `json:"domains,omitempty"`

	// Set and collector metadata
	SetID           string   `json:"setId,omitempty"`
	SetName         string   `json:"setName"`
	CollectorNumber int      `json:"collectorNumber"`
	PublicCode      string   `json:"publicCode,omitempty"`
	Illustrator     []string `json:"illustrator,omitempty"`

	Text      string `json:"text,omitempty"`
	CardImage Image  `json:"cardImage"`
}

// PrimaryType returns the label of the first type tag, or "" if the card
// carries no type.
func (c *Card) PrimaryType() string {
	if c == nil || len(c.CardType) == 0 {
		return ""
	}
	return c.CardType[0].Label
}

// HasType reports whether any of the card's type tags matches label.
func (c *Card) HasType(label string) bool {
	for _, t := range c.CardType {
		if strings.EqualFold(t.Label, label) {
			return true
		}
	}
	return false
}

// RarityLabel returns the rarity label of the card.
func (c *Card) RarityLabel() string {
	return c.Rarity.Label
}

// HasDomain reports whether any domain of the card matches d.
func (c *Card) HasDomain(d Tag) bool {
	if c == nil {
		return false
	}
	for _, own := range c.Domains {
		if own.Matches(d) {
			return true
		}
	}
	return false
}

// PrimaryDomain returns the label of the first domain, or "" for neutral cards.
func (c *Card) PrimaryDomain() string {
	if c == nil || len(c.Domains) == 0 {
		return ""
	}
	return c.Domains[0].Label
}

// Bucket is one of the three deck partitions.
type Bucket string

const (
	BucketCards        Bucket = "cards"
	BucketRunes        Bucket = "runes"
	BucketBattlefields Bucket = "battlefields"
)

// Buckets lists the deck partitions in display order.
var Buckets = []Bucket{BucketCards, BucketRunes, BucketBattlefields}

// BucketOf returns the deck partition for a card. Anything that is neither a
// Rune nor a Battlefield lands in the main cards bucket.
func BucketOf(c *Card) Bucket {
	switch c.PrimaryType() {
	case TypeRune:
		return BucketRunes
	case TypeBattlefield:
		return BucketBattlefields
	default:
		return BucketCards
	}
}

// IsMainDeckType reports whether a primary type belongs to the main deck
// (Unit, Champion, Spell or Gear).
func IsMainDeckType(primary string) bool {
	switch primary {
	case TypeUnit, TypeChampion, TypeSpell, TypeGear:
		return true
	}
	return false
}
