package deck

import (
	"context"

	"github.com/Naokyoo/Riftbound-manager/internal/events"
	"github.com/Naokyoo/Riftbound-manager/internal/riftbound/cards"
	"github.com/Naokyoo/Riftbound-manager/internal/riftbound/remote"
	"github.com/Naokyoo/Riftbound-manager/internal/session"
)

// Summary is a deck as shown in a list.
type Summary struct {
	ID          string      `json:"id"`
	Name        string      `json:"name"`
	Legend      *cards.Card `json:"legend,omitempty"`
	MainFaction string      `json:"mainFaction,omitempty"`
	IsValid     bool        `json:"isValid"`
	Wins        int         `json:"wins"`
	Losses      int         `json:"losses"`
	Lines       int         `json:"lines"`
}

// records returns a copy of the cached records of sess.
func (c *Coordinator) records(sess session.Session) []remote.DeckRecord {
	c.mu.Lock()
	defer c.mu.Unlock()

	v, ok := c.views[sess.Token]
	if !ok || !sess.Authenticated() {
		return nil
	}
	return append([]remote.DeckRecord(nil), v.records...)
}

func (c *Coordinator) record(sess session.Session, deckID string) (remote.DeckRecord, bool) {
	for _, rec := range c.records(sess) {
		if rec.ID == deckID {
			return rec, true
		}
	}
	return remote.DeckRecord{}, false
}

// Records returns the cached deck records of sess in service order.
func (c *Coordinator) Records(sess session.Session) []remote.DeckRecord {
	return c.records(sess)
}

// ListDecks returns every cached deck of sess with its legend resolved.
func (c *Coordinator) ListDecks(sess session.Session) []Summary {
	recs := c.records(sess)
	out := make([]Summary, 0, len(recs))
	for _, rec := range recs {
		s := Summary{
			ID:          rec.ID,
			Name:        rec.Name,
			MainFaction: rec.MainFaction,
			IsValid:     rec.IsValid,
			Wins:        rec.Wins,
			Losses:      rec.Losses,
			Lines:       len(rec.Cards),
		}
		if rec.LegendID != "" {
			s.Legend, _ = c.catalog.FindByID(rec.LegendID)
		} else {
			s.Legend = rec.Legend
		}
		out = append(out, s)
	}
	return out
}

// GetDeck returns the cached deck joined against the catalog. Lines whose
// card is not in the catalog are dropped and reported as integrity warnings.
func (c *Coordinator) GetDeck(sess session.Session, deckID string) (*EnrichedDeck, bool) {
	rec, ok := c.record(sess, deckID)
	if !ok {
		return nil, false
	}

	return Enrich(rec, c.catalog, func(cardID string) {
		c.logger.Warn("Deck references a card missing from the catalog", "deck_id", rec.ID, "card_id", cardID)
		c.events.Dispatch(events.New(context.Background(), events.TypeIntegrityWarning, events.IntegrityWarning{DeckID: rec.ID, CardID: cardID}))
	}), true
}

// GetDeckStats returns the bucket sums of a cached deck.
func (c *Coordinator) GetDeckStats(sess session.Session, deckID string) (Stats, bool) {
	d, ok := c.GetDeck(sess, deckID)
	if !ok {
		return Stats{}, false
	}
	return StatsOf(d), true
}

// DeckBuilderPool returns the catalog cards offered for one bucket of a
// cached deck.
func (c *Coordinator) DeckBuilderPool(sess session.Session, deckID string, b cards.Bucket) []*cards.Card {
	d, ok := c.GetDeck(sess, deckID)
	if !ok {
		return nil
	}
	return Pool(d, c.catalog, b)
}
