package collection

import (
	"github.com/Naokyoo/Riftbound-manager/internal/riftbound/cards"
	"github.com/Naokyoo/Riftbound-manager/internal/session"
)

// Stats aggregates the cached ownership state.
type Stats struct {
	TotalCards  int            `json:"totalCards"`
	UniqueCards int            `json:"uniqueCards"`
	RarityCount map[string]int `json:"rarityCount"`
	TypeCount   map[string]int `json:"typeCount"`
}

// GetStats computes ownership statistics from the cache. It never calls the
// service; an anonymous or unfetched session yields zero stats.
func (l *Ledger) GetStats(sess session.Session) Stats {
	stats := Stats{
		RarityCount: make(map[string]int),
		TypeCount:   make(map[string]int),
	}

	for _, e := range l.Entries(sess) {
		stats.TotalCards += e.Quantity
		stats.UniqueCards++
		if e.Rarity != "" {
			stats.RarityCount[e.Rarity] += e.Quantity
		}
		if e.Type != "" {
			stats.TypeCount[e.Type] += e.Quantity
		}
	}
	return stats
}

// SetCompletion is the ownership progress of one set.
type SetCompletion struct {
	Set     string  `json:"set"`
	Owned   int     `json:"owned"` // distinct cards owned
	Total   int     `json:"total"`
	Percent float64 `json:"percent"`
}

// Completion is the ownership progress over a catalog.
type Completion struct {
	Sets    []SetCompletion `json:"sets"`
	Owned   int             `json:"owned"`
	Total   int             `json:"total"`
	Percent float64         `json:"percent"`
}

func percent(owned, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(owned) * 100 / float64(total)
}

// Completion reports, per set in catalog order, how many distinct catalog
// cards sess owns.
func (l *Ledger) Completion(sess session.Session, src cards.Source) Completion {
	var out Completion
	if src == nil {
		return out
	}

	bySet := make(map[string]int)
	for _, card := range src.All() {
		i, seen := bySet[card.SetName]
		if !seen {
			i = len(out.Sets)
			bySet[card.SetName] = i
			out.Sets = append(out.Sets, SetCompletion{Set: card.SetName})
		}
		out.Sets[i].Total++
		out.Total++
		if l.HasCard(sess, card.ID) {
			out.Sets[i].Owned++
			out.Owned++
		}
	}

	for i := range out.Sets {
		out.Sets[i].Percent = percent(out.Sets[i].Owned, out.Sets[i].Total)
	}
	out.Percent = percent(out.Owned, out.Total)
	return out
}

// OwnedFilter restricts a card listing by ownership.
type OwnedFilter string

const (
	FilterAll      OwnedFilter = "all"
	FilterOwned    OwnedFilter = "owned"
	FilterNotOwned OwnedFilter = "not-owned"
)

// Filter returns the cards of list matching f, keeping list order.
func (l *Ledger) Filter(sess session.Session, list []*cards.Card, f OwnedFilter) []*cards.Card {
	if f == "" || f == FilterAll {
		return list
	}

	out := make([]*cards.Card, 0, len(list))
	for _, card := range list {
		if l.HasCard(sess, card.ID) == (f == FilterOwned) {
			out = append(out, card)
		}
	}
	return out
}
