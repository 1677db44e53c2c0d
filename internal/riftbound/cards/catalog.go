package cards

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/Naokyoo/Riftbound-manager/internal/riftbound/cardid"
)

// Source is the read-only view of a catalog consumed by the engine.
type Source interface {
	// FindByID returns the card whose identifier matches id case-insensitively.
	FindByID(id string) (*Card, bool)

	// All returns every card in catalog source order.
	All() []*Card
}

// Catalog is an immutable set of cards stored in source order with an index
// keyed by normalized identifier.
type Catalog struct {
	cards []Card
	refs  []*Card
	index map[string]int
}

// New builds a catalog from cards, keeping their order. Identifiers must be
// non-empty and unique after normalization.
func New(list []Card) (*Catalog, error) {
	c := &Catalog{
		cards: make([]Card, len(list)),
		refs:  make([]*Card, len(list)),
		index: make(map[string]int, len(list)),
	}
	copy(c.cards, list)

	for i := range c.cards {
		id := c.cards[i].ID
		if id == "" {
			return nil, fmt.Errorf("card at position %d has no id", i)
		}
		key := cardid.Normalize(id)
		if prev, ok := c.index[key]; ok {
			return nil, fmt.Errorf("duplicate card id %q (positions %d and %d)", id, prev, i)
		}
		c.index[key] = i
		c.refs[i] = &c.cards[i]
	}

	return c, nil
}

// LoadJSON decodes a JSON array of cards and builds a catalog from it.
func LoadJSON(r io.Reader) (*Catalog, error) {
	var list []Card
	if err := json.NewDecoder(r).Decode(&list); err != nil {
		return nil, fmt.Errorf("decode catalog: %w", err)
	}
	return New(list)
}

// LoadFile loads a JSON catalog from path.
func LoadFile(path string) (*Catalog, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open catalog: %w", err)
	}
	defer func() { _ = f.Close() }()

	return LoadJSON(f)
}

// FindByID returns the card matching id. Both sides are normalized, so any
// casing of an identifier resolves.
func (c *Catalog) FindByID(id string) (*Card, bool) {
	if c == nil {
		return nil, false
	}
	i, ok := c.index[cardid.Normalize(id)]
	if !ok {
		return nil, false
	}
	return c.refs[i], true
}

// All returns the cards in source order. The returned slice must not be modified.
func (c *Catalog) All() []*Card {
	if c == nil {
		return nil
	}
	return c.refs
}

// Len returns the number of cards in the catalog.
func (c *Catalog) Len() int {
	if c == nil {
		return 0
	}
	return len(c.cards)
}
