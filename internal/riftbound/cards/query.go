package cards

import (
	"strings"

	"github.com/Naokyoo/Riftbound-manager/internal/riftbound/cards/fuzzy"
)

// Filter selects catalog cards. Empty fields match everything.
type Filter struct {
	Type   string // primary type label
	Rarity string // rarity label
	Set    string // set name
	Domain string // domain id or label
	Search string // case-insensitive substring of name or text
}

// Match reports whether card satisfies the filter.
func (f Filter) Match(card *Card) bool {
	if f.Type != "" && !strings.EqualFold(card.PrimaryType(), f.Type) {
		return false
	}
	if f.Rarity != "" && !strings.EqualFold(card.RarityLabel(), f.Rarity) {
		return false
	}
	if f.Set != "" && !strings.EqualFold(card.SetName, f.Set) {
		return false
	}
	if f.Domain != "" && !hasDomain(card, f.Domain) {
		return false
	}
	if f.Search != "" {
		needle := strings.ToLower(f.Search)
		if !strings.Contains(strings.ToLower(card.Name), needle) &&
			!strings.Contains(strings.ToLower(card.Text), needle) {
			return false
		}
	}
	return true
}

func hasDomain(card *Card, domain string) bool {
	for _, d := range card.Domains {
		if strings.EqualFold(d.ID, domain) || strings.EqualFold(d.Label, domain) {
			return true
		}
	}
	return false
}

// Query returns the cards of src matching f, in catalog order.
func Query(src Source, f Filter) []*Card {
	var out []*Card
	for _, card := range src.All() {
		if f.Match(card) {
			out = append(out, card)
		}
	}
	return out
}

// Search ranks catalog cards by name similarity to query.
func Search(src Source, query string, maxResults int) []*Card {
	all := src.All()
	names := make([]string, len(all))
	for i, card := range all {
		names[i] = card.Name
	}

	opts := fuzzy.DefaultOptions()
	if maxResults > 0 {
		opts.MaxResults = maxResults
	}

	matches := fuzzy.Rank(query, names, opts)
	out := make([]*Card, 0, len(matches))
	for _, m := range matches {
		out = append(out, all[m.Index])
	}
	return out
}

// Sets returns the distinct set names in catalog order.
func Sets(src Source) []string {
	return distinct(src, func(c *Card) string { return c.SetName })
}

// Types returns the distinct primary types in catalog order.
func Types(src Source) []string {
	return distinct(src, (*Card).PrimaryType)
}

// Rarities returns the distinct rarity labels in catalog order.
func Rarities(src Source) []string {
	return distinct(src, (*Card).RarityLabel)
}

func distinct(src Source, field func(*Card) string) []string {
	seen := make(map[string]bool)
	var out []string
	for _, card := range src.All() {
		v := field(card)
		if v == "" || seen[v] {
			continue
		}
		seen[v] = true
		out = append(out, v)
	}
	return out
}
