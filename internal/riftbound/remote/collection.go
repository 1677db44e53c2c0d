package remote

import (
	"context"
	"net/http"
	"net/url"
)

// GetCollection fetches the caller's ownership state with joined card
// metadata.
func (c *Client) GetCollection(ctx context.Context, token string) (*CollectionState, error) {
	const op = "fetch collection"

	env, err := c.do(ctx, call{op: op, method: http.MethodGet, path: "/collections/me/detailed", token: token})
	if err != nil {
		return nil, err
	}

	state := &CollectionState{}
	if _, err := decodeData(op, env, state); err != nil {
		return nil, err
	}
	return state, nil
}

// AddCollectionCard increases ownership of cardID by quantity.
func (c *Client) AddCollectionCard(ctx context.Context, token, cardID string, quantity int, source string) error {
	body := map[string]any{"cardId": cardID, "quantity": quantity, "source": source}
	_, err := c.do(ctx, call{op: "add card", method: http.MethodPost, path: "/collections/cards", token: token, body: body})
	return err
}

// RemoveCollectionCard decreases ownership of cardID by quantity.
func (c *Client) RemoveCollectionCard(ctx context.Context, token, cardID string, quantity int) error {
	body := map[string]any{"quantity": quantity}
	path := "/collections/cards/" + url.PathEscape(cardID)
	_, err := c.do(ctx, call{op: "remove card", method: http.MethodDelete, path: path, token: token, body: body})
	return err
}

// SetFavorite sets or clears the favorite flag of an owned card.
func (c *Client) SetFavorite(ctx context.Context, token, cardID string, isFavorite bool) error {
	body := map[string]any{"isFavorite": isFavorite}
	path := "/collections/cards/" + url.PathEscape(cardID) + "/favorite"
	_, err := c.do(ctx, call{op: "toggle favorite", method: http.MethodPut, path: path, token: token, body: body})
	return err
}
