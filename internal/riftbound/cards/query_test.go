package cards

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ids(list []*Card) []string {
	out := make([]string, 0, len(list))
	for _, c := range list {
		out = append(out, c.ID)
	}
	return out
}

func TestQuery(t *testing.T) {
	catalog := loadFixture(t)

	tests := []struct {
		name   string
		filter Filter
		want   []string
	}{
		{name: "no filter", filter: Filter{}, want: ids(catalog.All())},
		{name: "by type", filter: Filter{Type: "unit"}, want: []string{"ogn-001", "OGN-042"}},
		{name: "by rarity", filter: Filter{Rarity: "Uncommon"}, want: []string{"OGN-042", "ogn-275"}},
		{name: "by set", filter: Filter{Set: "proving grounds"}, want: []string{"ogn-120"}},
		{name: "by domain label", filter: Filter{Domain: "Order"}, want: []string{"OGN-042", "ogn-077"}},
		{name: "search name", filter: Filter{Search: "PORO"}, want: []string{"OGN-042"}},
		{name: "search text", filter: Filter{Search: "battlefield"}, want: []string{"ogn-077"}},
		{name: "combined", filter: Filter{Type: "Unit", Domain: "fury"}, want: []string{"ogn-001"}},
		{name: "no match", filter: Filter{Type: "Champion"}, want: []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ids(Query(catalog, tt.filter)))
		})
	}
}

func TestSearch(t *testing.T) {
	catalog := loadFixture(t)

	results := Search(catalog, "jinx", 0)
	require.NotEmpty(t, results)
	assert.Equal(t, "ogn-299", results[0].ID)

	assert.Empty(t, Search(catalog, "", 0))
}

func TestDistinctValues(t *testing.T) {
	catalog := loadFixture(t)

	assert.Equal(t, []string{"Origins", "Proving Grounds"}, Sets(catalog))
	assert.Equal(t, []string{"Unit", "Spell", "Gear", "Rune", "Battlefield", "Legend"}, Types(catalog))
	assert.Equal(t, []string{"Common", "Uncommon", "Rare", "Epic"}, Rarities(catalog))
}
