package remote

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"

	"github.com/Naokyoo/Riftbound-manager/internal/riftbound/apperr"
)

func deckPath(id string, rest ...string) string {
	p := "/decks/" + url.PathEscape(id)
	for _, r := range rest {
		p += "/" + r
	}
	return p
}

// ListDecks returns every deck owned by the caller.
func (c *Client) ListDecks(ctx context.Context, token string) ([]DeckRecord, error) {
	const op = "list decks"

	env, err := c.do(ctx, call{op: op, method: http.MethodGet, path: "/decks", token: token})
	if err != nil {
		return nil, err
	}

	var decks []DeckRecord
	if _, err := decodeData(op, env, &decks); err != nil {
		return nil, err
	}
	return decks, nil
}

// GetDeckDetailed returns the raw detailed view of one deck as the service
// renders it, with card details joined server-side.
func (c *Client) GetDeckDetailed(ctx context.Context, token, deckID string) (json.RawMessage, error) {
	env, err := c.do(ctx, call{op: "get deck", method: http.MethodGet, path: deckPath(deckID, "detailed"), token: token})
	if err != nil {
		return nil, err
	}
	return env.Data, nil
}

// CreateDeck creates a deck and returns the stored record.
func (c *Client) CreateDeck(ctx context.Context, token string, req CreateDeckRequest) (*DeckRecord, error) {
	const op = "create deck"

	env, err := c.do(ctx, call{op: op, method: http.MethodPost, path: "/decks", token: token, body: req})
	if err != nil {
		return nil, err
	}
	return decodeDeck(op, env, true)
}

// UpdateDeck applies a partial update to a deck.
func (c *Client) UpdateDeck(ctx context.Context, token, deckID string, update DeckUpdate) (*DeckRecord, error) {
	const op = "update deck"

	env, err := c.do(ctx, call{op: op, method: http.MethodPut, path: deckPath(deckID), token: token, body: update})
	if err != nil {
		return nil, err
	}
	return decodeDeck(op, env, false)
}

// DeleteDeck deletes a deck.
func (c *Client) DeleteDeck(ctx context.Context, token, deckID string) error {
	_, err := c.do(ctx, call{op: "delete deck", method: http.MethodDelete, path: deckPath(deckID), token: token})
	return err
}

// AddDeckCard adds quantity copies of cardID to a deck.
func (c *Client) AddDeckCard(ctx context.Context, token, deckID, cardID string, quantity int) (*DeckRecord, error) {
	const op = "add card to deck"

	body := map[string]any{"cardId": cardID, "quantity": quantity}
	env, err := c.do(ctx, call{op: op, method: http.MethodPost, path: deckPath(deckID, "cards"), token: token, body: body})
	if err != nil {
		return nil, err
	}
	return decodeDeck(op, env, false)
}

// RemoveDeckCard removes up to quantity copies of cardID from a deck.
func (c *Client) RemoveDeckCard(ctx context.Context, token, deckID, cardID string, quantity int) (*DeckRecord, error) {
	const op = "remove card from deck"

	body := map[string]any{"quantity": quantity}
	path := deckPath(deckID, "cards", url.PathEscape(cardID))
	env, err := c.do(ctx, call{op: op, method: http.MethodDelete, path: path, token: token, body: body})
	if err != nil {
		return nil, err
	}
	return decodeDeck(op, env, false)
}

// ValidateDeck asks the service to validate a deck.
func (c *Client) ValidateDeck(ctx context.Context, token, deckID string) (ValidationResult, error) {
	env, err := c.do(ctx, call{op: "validate deck", method: http.MethodPost, path: deckPath(deckID, "validate"), token: token})
	if err != nil {
		return ValidationResult{}, err
	}

	res := ValidationResult{Message: env.Message}
	if env.IsValid != nil {
		res.IsValid = *env.IsValid
	}
	return res, nil
}

// RecordGameResult records a win or a loss for a deck.
func (c *Client) RecordGameResult(ctx context.Context, token, deckID string, won bool) error {
	body := map[string]any{"won": won}
	_, err := c.do(ctx, call{op: "record game result", method: http.MethodPost, path: deckPath(deckID, "game-result"), token: token, body: body})
	return err
}

func decodeDeck(op string, env *envelope, required bool) (*DeckRecord, error) {
	var deck DeckRecord
	ok, err := decodeData(op, env, &deck)
	if err != nil {
		return nil, err
	}
	if !ok {
		if required {
			return nil, apperr.Network(op, errNoData)
		}
		return nil, nil
	}
	return &deck, nil
}
