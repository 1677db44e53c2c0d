package remote

import (
	"encoding/json"

	"github.com/Naokyoo/Riftbound-manager/internal/riftbound/cards"
)

// envelope is the body shape of every service response.
type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data,omitempty"`
	Error   string          `json:"error,omitempty"`
	Message string          `json:"message,omitempty"`

	// Validation results are reported next to data, not inside it.
	IsValid *bool `json:"isValid,omitempty"`

	// /auth/me reports the caller under "user".
	User json.RawMessage `json:"user,omitempty"`
}

// OwnershipEntry is one owned card as reported by the detailed collection
// endpoint. Rarity and Type are joined server-side and may be empty.
type OwnershipEntry struct {
	CardID     string `json:"cardId"`
	Quantity   int    `json:"quantity"`
	IsFavorite bool   `json:"isFavorite"`
	Source     string `json:"source,omitempty"`
	Name       string `json:"name,omitempty"`
	Rarity     string `json:"rarity,omitempty"`
	Type       string `json:"type,omitempty"`
}

// CollectionState is the full ownership state of one user.
type CollectionState struct {
	Cards []OwnershipEntry `json:"cards"`
}

// DeckCardLine is a card reference inside a deck record.
type DeckCardLine struct {
	CardID   string `json:"cardId"`
	Quantity int    `json:"quantity"`
}

// DeckRecord is a deck as stored by the service.
type DeckRecord struct {
	ID          string         `json:"id"`
	Name        string         `json:"name"`
	LegendID    string         `json:"legendId,omitempty"`
	Legend      *cards.Card    `json:"legend,omitempty"` // inline legend on older records
	MainFaction string         `json:"mainFaction,omitempty"`
	Description string         `json:"description,omitempty"`
	Cards       []DeckCardLine `json:"cards"`
	IsValid     bool           `json:"isValid"`
	Wins        int            `json:"wins"`
	Losses      int            `json:"losses"`
}

// UnmarshalJSON accepts either "id" or "_id" as the record identifier.
func (d *DeckRecord) UnmarshalJSON(b []byte) error {
	type plain DeckRecord
	var aux struct {
		plain
		MongoID string `json:"_id"`
	}
	if err := json.Unmarshal(b, &aux); err != nil {
		return err
	}
	*d = DeckRecord(aux.plain)
	if d.ID == "" {
		d.ID = aux.MongoID
	}
	return nil
}

// CreateDeckRequest is the body of POST /decks.
type CreateDeckRequest struct {
	Name        string `json:"name"`
	MainFaction string `json:"mainFaction"`
	LegendID    string `json:"legendId"`
	Description string `json:"description"`
}

// DeckUpdate is a partial deck update; nil fields are left untouched.
type DeckUpdate struct {
	Name        *string `json:"name,omitempty"`
	Description *string `json:"description,omitempty"`
	MainFaction *string `json:"mainFaction,omitempty"`
	LegendID    *string `json:"legendId,omitempty"`
}

// ValidationResult is the outcome of POST /decks/{id}/validate.
type ValidationResult struct {
	IsValid bool   `json:"isValid"`
	Message string `json:"message,omitempty"`
}

// User is the authenticated caller.
type User struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email,omitempty"`
}
