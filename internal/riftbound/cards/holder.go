package cards

import "sync/atomic"

// Holder publishes the current catalog. Readers always see a complete
// catalog; a reload swaps the whole value and never mutates the old one.
type Holder struct {
	current atomic.Pointer[Catalog]
}

// NewHolder returns a holder serving c.
func NewHolder(c *Catalog) *Holder {
	h := &Holder{}
	h.current.Store(c)
	return h
}

// Catalog returns the catalog currently served.
func (h *Holder) Catalog() *Catalog {
	return h.current.Load()
}

// Swap replaces the served catalog and returns the previous one.
func (h *Holder) Swap(c *Catalog) *Catalog {
	return h.current.Swap(c)
}

// FindByID implements Source.
func (h *Holder) FindByID(id string) (*Card, bool) {
	return h.Catalog().FindByID(id)
}

// All implements Source.
func (h *Holder) All() []*Card {
	return h.Catalog().All()
}
