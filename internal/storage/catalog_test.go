package storage

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Naokyoo/Riftbound-manager/internal/riftbound/cards"
)

func loadFixture(t *testing.T) []cards.Card {
	t.Helper()
	cat, err := cards.LoadFile("../riftbound/cards/testdata/cards.json")
	require.NoError(t, err)
	list := make([]cards.Card, 0, cat.Len())
	for _, c := range cat.All() {
		list = append(list, *c)
	}
	return list
}

func TestCatalogRepository_RoundTrip(t *testing.T) {
	db := openTestDB(t)
	repo := db.Catalog()
	ctx := context.Background()

	last, err := repo.LastImport(ctx)
	require.NoError(t, err)
	assert.Nil(t, last)

	list := loadFixture(t)
	require.NoError(t, repo.ReplaceAll(ctx, "cards.json", list))

	got, err := repo.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, list, got, "order and every field survive storage")

	n, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, len(list), n)

	last, err = repo.LastImport(ctx)
	require.NoError(t, err)
	require.NotNil(t, last)
	assert.Equal(t, "cards.json", last.Source)
	assert.Equal(t, len(list), last.CardCount)
	assert.False(t, last.ImportedAt.IsZero())
}

func TestCatalogRepository_ReplaceAll(t *testing.T) {
	db := openTestDB(t)
	repo := db.Catalog()
	ctx := context.Background()

	require.NoError(t, repo.ReplaceAll(ctx, "first", loadFixture(t)))
	require.NoError(t, repo.ReplaceAll(ctx, "second", []cards.Card{
		{ID: "new-1", Name: "Only Card", CardType: []cards.Tag{{Label: cards.TypeUnit}}},
	}))

	got, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "new-1", got[0].ID)

	last, err := repo.LastImport(ctx)
	require.NoError(t, err)
	assert.Equal(t, "second", last.Source)
}

func TestCatalogRepository_RejectsInvalidCatalog(t *testing.T) {
	db := openTestDB(t)
	repo := db.Catalog()
	ctx := context.Background()

	require.NoError(t, repo.ReplaceAll(ctx, "good", loadFixture(t)))

	err := repo.ReplaceAll(ctx, "bad", []cards.Card{{ID: "a"}, {ID: "A"}})
	require.Error(t, err)

	n, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, len(loadFixture(t)), n, "previous catalog kept")
}

func TestLoadCatalog(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	_, err := LoadCatalog(ctx, db)
	assert.Error(t, err, "empty database")

	require.NoError(t, db.Catalog().ReplaceAll(ctx, "cards.json", loadFixture(t)))
	cat, err := LoadCatalog(ctx, db)
	require.NoError(t, err)

	c, ok := cat.FindByID("OGN-299")
	require.True(t, ok)
	assert.Equal(t, "Jinx, Loose Cannon", c.Name)
	assert.Equal(t, "Fury", c.PrimaryDomain())
}

func TestWithTransaction_RollsBack(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	boom := errors.New("boom")

	err := db.WithTransaction(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO cards (id, position, name, data) VALUES ('X', 0, 'X', '{}')`); err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)

	n, err := db.Catalog().Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
}
