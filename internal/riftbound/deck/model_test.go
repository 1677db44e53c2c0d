package deck

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Naokyoo/Riftbound-manager/internal/riftbound/cards"
	"github.com/Naokyoo/Riftbound-manager/internal/riftbound/remote"
)

func card(id, typ string, domains ...string) cards.Card {
	c := cards.Card{
		ID:       id,
		Name:     "Card " + id,
		CardType: []cards.Tag{{Label: typ}},
		Rarity:   cards.Tag{Label: "Common"},
		SetName:  "Origins",
	}
	for _, d := range domains {
		c.Domains = append(c.Domains, cards.Tag{ID: strings.ToLower(d), Label: d})
	}
	return c
}

func testCatalog(t *testing.T) *cards.Catalog {
	t.Helper()
	cat, err := cards.New([]cards.Card{
		card("leg-fury", cards.TypeLegend, "Fury"),
		card("LEG-MIND", cards.TypeLegend, "Mind"),
		card("leg-none", cards.TypeLegend),
		card("u-fury", cards.TypeUnit, "Fury"),
		card("u-order", cards.TypeUnit, "Order"),
		card("s-fury-order", cards.TypeSpell, "Fury", "Order"),
		card("g-neutral", cards.TypeGear),
		card("c-fury", cards.TypeChampion, "Fury"),
		card("r-fury", cards.TypeRune, "Fury"),
		card("r-order", cards.TypeRune, "Order"),
		card("b-one", cards.TypeBattlefield),
	})
	require.NoError(t, err)
	return cat
}

func mustFind(t *testing.T, src cards.Source, id string) *cards.Card {
	t.Helper()
	c, ok := src.FindByID(id)
	require.True(t, ok, id)
	return c
}

func lineIDs(lines []Line) []string {
	out := make([]string, 0, len(lines))
	for _, l := range lines {
		out = append(out, l.Card.ID)
	}
	return out
}

func TestIsCardAllowed(t *testing.T) {
	legend := func(domains ...cards.Tag) *EnrichedDeck {
		return &EnrichedDeck{Legend: &cards.Card{ID: "L", Domains: domains}}
	}
	withDomains := func(domains ...cards.Tag) *cards.Card {
		return &cards.Card{ID: "C", Domains: domains}
	}
	fury := cards.Tag{ID: "fury", Label: "Fury"}
	order := cards.Tag{ID: "order", Label: "Order"}
	chaos := cards.Tag{ID: "chaos", Label: "Chaos"}

	tests := []struct {
		name string
		deck *EnrichedDeck
		card *cards.Card
		want bool
	}{
		{name: "card domains exceed legend", deck: legend(fury), card: withDomains(fury, order), want: false},
		{name: "card domain within legend", deck: legend(fury), card: withDomains(fury), want: true},
		{name: "neutral card always allowed", deck: legend(fury), card: withDomains(), want: true},
		{name: "disjoint domain", deck: legend(fury), card: withDomains(order), want: false},
		{name: "subset of two-domain legend", deck: legend(fury, chaos), card: withDomains(chaos, fury), want: true},
		{name: "no legend allows everything", deck: &EnrichedDeck{}, card: withDomains(order), want: true},
		{name: "domainless legend allows everything", deck: legend(), card: withDomains(fury, order), want: true},
		{name: "ids compare case-insensitively", deck: legend(cards.Tag{ID: "FURY"}), card: withDomains(cards.Tag{ID: "fury"}), want: true},
		{name: "label used when id is missing", deck: legend(cards.Tag{Label: "Order"}), card: withDomains(cards.Tag{Label: "ORDER"}), want: true},
		{name: "legend id against card label", deck: legend(cards.Tag{ID: "d-fury", Label: "Fury"}), card: withDomains(cards.Tag{Label: "Fury"}), want: true},
		{name: "card id against legend label", deck: legend(cards.Tag{Label: "Fury"}), card: withDomains(cards.Tag{ID: "d-order", Label: "Order"}), want: false},
		{name: "nil card", deck: legend(fury), card: nil, want: false},
		{name: "nil deck", deck: nil, card: withDomains(fury), want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsCardAllowed(tt.deck, tt.card))
		})
	}
}

// Exhaustive check of the subset rule over every pair of domain sets drawn
// from three domains.
func TestIsCardAllowed_SubsetRule(t *testing.T) {
	all := []cards.Tag{{ID: "fury"}, {ID: "order"}, {ID: "chaos"}}
	subsets := func() [][]cards.Tag {
		var out [][]cards.Tag
		for mask := 0; mask < 1<<len(all); mask++ {
			var s []cards.Tag
			for i, tag := range all {
				if mask&(1<<i) != 0 {
					s = append(s, tag)
				}
			}
			out = append(out, s)
		}
		return out
	}()

	contains := func(set []cards.Tag, tag cards.Tag) bool {
		for _, s := range set {
			if s.ID == tag.ID {
				return true
			}
		}
		return false
	}

	for _, legendSet := range subsets {
		for _, cardSet := range subsets {
			want := len(legendSet) == 0 || len(cardSet) == 0
			if !want {
				want = true
				for _, tag := range cardSet {
					if !contains(legendSet, tag) {
						want = false
					}
				}
			}

			deck := &EnrichedDeck{Legend: &cards.Card{Domains: legendSet}}
			got := IsCardAllowed(deck, &cards.Card{Domains: cardSet})
			assert.Equal(t, want, got, "legend=%v card=%v", legendSet, cardSet)
		}
	}
}

func TestEnrich(t *testing.T) {
	cat := testCatalog(t)
	var missing []string

	d := Enrich(remote.DeckRecord{
		ID:       "d1",
		Name:     "Fury",
		LegendID: "LEG-FURY",
		IsValid:  true,
		Cards: []remote.DeckCardLine{
			{CardID: "U-FURY", Quantity: 3},
			{CardID: "R-FURY", Quantity: 6},
			{CardID: "NOPE-404", Quantity: 2},
			{CardID: "b-one", Quantity: 1},
			{CardID: "LEG-MIND", Quantity: 1},
			{CardID: "G-NEUTRAL", Quantity: 2},
		},
	}, cat, func(id string) { missing = append(missing, id) })

	require.NotNil(t, d.Legend)
	assert.Equal(t, "leg-fury", d.Legend.ID)
	assert.Equal(t, []string{"u-fury", "LEG-MIND", "g-neutral"}, lineIDs(d.Cards), "legends and unknown types land in cards")
	assert.Equal(t, []string{"r-fury"}, lineIDs(d.Runes))
	assert.Equal(t, []string{"b-one"}, lineIDs(d.Battlefields))
	assert.Equal(t, []string{"NOPE-404"}, missing)
	assert.True(t, d.IsValid)
}

func TestEnrich_UnknownLineIsNotFatal(t *testing.T) {
	cat := testCatalog(t)

	d := Enrich(remote.DeckRecord{
		ID:    "d1",
		Cards: []remote.DeckCardLine{{CardID: "GHOST", Quantity: 3}},
	}, cat, nil)

	require.NotNil(t, d)
	assert.Empty(t, d.Cards)
	assert.Empty(t, d.Runes)
	assert.Empty(t, d.Battlefields)
}

func TestEnrich_Legend(t *testing.T) {
	cat := testCatalog(t)
	inline := &cards.Card{ID: "old-legend", Name: "Old"}

	d := Enrich(remote.DeckRecord{ID: "d1", Legend: inline}, cat, nil)
	assert.Same(t, inline, d.Legend, "inline legend used when no legend id")

	d = Enrich(remote.DeckRecord{ID: "d1", LegendID: "leg-mind", Legend: inline}, cat, nil)
	assert.Equal(t, "LEG-MIND", d.Legend.ID, "legend id wins over inline legend")

	d = Enrich(remote.DeckRecord{ID: "d1", LegendID: "missing"}, cat, nil)
	assert.Nil(t, d.Legend)
}

func TestStatsOf(t *testing.T) {
	cat := testCatalog(t)
	d := Enrich(remote.DeckRecord{
		ID: "d1",
		Cards: []remote.DeckCardLine{
			{CardID: "u-fury", Quantity: 3},
			{CardID: "u-order", Quantity: 2},
			{CardID: "s-fury-order", Quantity: 1},
			{CardID: "r-fury", Quantity: 2},
			{CardID: "r-order", Quantity: 2},
			{CardID: "b-one", Quantity: 1},
		},
	}, cat, nil)

	assert.Equal(t, Stats{
		TotalCards:        6,
		TotalRunes:        4,
		TotalBattlefields: 1,
		TotalDeckSize:     11,
		IsValid:           false,
	}, StatsOf(d))
}

func TestStats_ValidityIsNotDerived(t *testing.T) {
	s := Stats{TotalCards: 40, TotalRunes: 12, TotalBattlefields: 3, TotalDeckSize: 55, IsValid: false}

	// Local targets reached while the service has not confirmed validity yet.
	assert.True(t, s.TargetsReached(DefaultTargets()))
	assert.False(t, s.IsValid)

	assert.False(t, Stats{TotalCards: 39, TotalRunes: 12, TotalBattlefields: 3}.TargetsReached(DefaultTargets()))
}

func TestQuantityInDeck(t *testing.T) {
	cat := testCatalog(t)
	d := Enrich(remote.DeckRecord{
		ID: "d1",
		Cards: []remote.DeckCardLine{
			{CardID: "U-FURY", Quantity: 2},
			{CardID: "R-FURY", Quantity: 7},
		},
	}, cat, nil)

	assert.Equal(t, 2, QuantityInDeck(d, "u-fury"))
	assert.Equal(t, 7, QuantityInDeck(d, "R-Fury"))
	assert.Zero(t, QuantityInDeck(d, "b-one"))
	assert.Zero(t, QuantityInDeck(nil, "u-fury"))
}

func TestPool(t *testing.T) {
	cat := testCatalog(t)
	d := Enrich(remote.DeckRecord{ID: "d1", LegendID: "leg-fury"}, cat, nil)

	ids := func(list []*cards.Card) []string {
		var out []string
		for _, c := range list {
			out = append(out, c.ID)
		}
		return out
	}

	assert.Equal(t, []string{"u-fury", "g-neutral", "c-fury"}, ids(Pool(d, cat, cards.BucketCards)))
	assert.Equal(t, []string{"r-fury", "r-order"}, ids(Pool(d, cat, cards.BucketRunes)))
	assert.Equal(t, []string{"b-one"}, ids(Pool(d, cat, cards.BucketBattlefields)))

	open := Enrich(remote.DeckRecord{ID: "d2", LegendID: "leg-none"}, cat, nil)
	assert.Equal(t, []string{"u-fury", "u-order", "s-fury-order", "g-neutral", "c-fury"}, ids(Pool(open, cat, cards.BucketCards)))
}

func TestFactionFor(t *testing.T) {
	tests := []struct {
		domains []string
		want    string
	}{
		{[]string{"Fury"}, "Fire"},
		{[]string{"Mind"}, "Water"},
		{[]string{"Calm"}, "Earth"},
		{[]string{"Spirit"}, "Air"},
		{[]string{"Chaos"}, "Dark"},
		{[]string{"Order"}, "Light"},
		{[]string{"Body"}, "Neutral"},
		{[]string{"Mind", "Fury"}, "Water"},
		{[]string{"Void"}, "Neutral"},
		{nil, "Neutral"},
	}

	for _, tt := range tests {
		t.Run(strings.Join(tt.domains, "+"), func(t *testing.T) {
			legend := card("L", cards.TypeLegend, tt.domains...)
			assert.Equal(t, tt.want, FactionFor(&legend))
		})
	}
	assert.Equal(t, FactionNeutral, FactionFor(nil))
}
