package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/Naokyoo/Riftbound-manager/internal/riftbound/cardid"
	"github.com/Naokyoo/Riftbound-manager/internal/riftbound/cards"
)

// ImportRecord describes one catalog import.
type ImportRecord struct {
	Source     string
	CardCount  int
	ImportedAt time.Time
}

// CatalogRepository stores the card catalog.
type CatalogRepository interface {
	// ReplaceAll atomically replaces the stored catalog with list, keeping
	// its order, and records the import under source.
	ReplaceAll(ctx context.Context, source string, list []cards.Card) error

	// List returns every stored card in import order.
	List(ctx context.Context) ([]cards.Card, error)

	// Count returns the number of stored cards.
	Count(ctx context.Context) (int, error)

	// LastImport returns the most recent import, or nil if none happened.
	LastImport(ctx context.Context) (*ImportRecord, error)
}

type catalogRepository struct {
	db *DB
}

// Catalog returns the catalog repository of db.
func (db *DB) Catalog() CatalogRepository {
	return &catalogRepository{db: db}
}

func (r *catalogRepository) ReplaceAll(ctx context.Context, source string, list []cards.Card) error {
	// Reject what cards.New would reject so a bad import never replaces a
	// good catalog.
	if _, err := cards.New(list); err != nil {
		return fmt.Errorf("invalid catalog: %w", err)
	}

	return r.db.WithTransaction(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM cards`); err != nil {
			return fmt.Errorf("failed to clear cards: %w", err)
		}

		stmt, err := tx.PrepareContext(ctx, `
			INSERT INTO cards (id, position, name, set_name, primary_type, rarity, data)
			VALUES (?, ?, ?, ?, ?, ?, ?)
		`)
		if err != nil {
			return fmt.Errorf("failed to prepare insert: %w", err)
		}
		defer stmt.Close()

		for i := range list {
			c := &list[i]
			data, err := json.Marshal(c)
			if err != nil {
				return fmt.Errorf("failed to encode card %s: %w", c.ID, err)
			}
			if _, err := stmt.ExecContext(ctx,
				cardid.Normalize(c.ID), i, c.Name, c.SetName, c.PrimaryType(), c.RarityLabel(), string(data),
			); err != nil {
				return fmt.Errorf("failed to insert card %s: %w", c.ID, err)
			}
		}

		_, err = tx.ExecContext(ctx,
			`INSERT INTO catalog_imports (source, card_count, imported_at) VALUES (?, ?, ?)`,
			source, len(list), time.Now().Unix(),
		)
		if err != nil {
			return fmt.Errorf("failed to record import: %w", err)
		}
		return nil
	})
}

func (r *catalogRepository) List(ctx context.Context) ([]cards.Card, error) {
	rows, err := r.db.conn.QueryContext(ctx, `SELECT data FROM cards ORDER BY position`)
	if err != nil {
		return nil, fmt.Errorf("failed to query cards: %w", err)
	}
	defer rows.Close()

	var out []cards.Card
	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			return nil, fmt.Errorf("failed to scan card: %w", err)
		}
		var c cards.Card
		if err := json.Unmarshal([]byte(data), &c); err != nil {
			return nil, fmt.Errorf("failed to decode card: %w", err)
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate cards: %w", err)
	}
	return out, nil
}

func (r *catalogRepository) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.db.conn.QueryRowContext(ctx, `SELECT COUNT(*) FROM cards`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count cards: %w", err)
	}
	return n, nil
}

func (r *catalogRepository) LastImport(ctx context.Context) (*ImportRecord, error) {
	var (
		rec      ImportRecord
		unixTime int64
	)
	err := r.db.conn.QueryRowContext(ctx, `
		SELECT source, card_count, imported_at FROM catalog_imports
		ORDER BY id DESC LIMIT 1
	`).Scan(&rec.Source, &rec.CardCount, &unixTime)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get last import: %w", err)
	}
	rec.ImportedAt = time.Unix(unixTime, 0)
	return &rec, nil
}

// LoadCatalog builds a catalog from the cards stored in db.
func LoadCatalog(ctx context.Context, db *DB) (*cards.Catalog, error) {
	list, err := db.Catalog().List(ctx)
	if err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return nil, fmt.Errorf("catalog database is empty")
	}
	return cards.New(list)
}
