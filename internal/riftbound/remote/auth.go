package remote

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/Naokyoo/Riftbound-manager/internal/riftbound/apperr"
)

// Me returns the user that owns token.
//
// The endpoint answers {user: {...}} and may omit the success flag, so a 2xx
// response carrying a user is accepted on its own.
func (c *Client) Me(ctx context.Context, token string) (*User, error) {
	const op = "verify session"

	env, status, err := c.roundTrip(ctx, call{op: op, method: http.MethodGet, path: "/auth/me", token: token}, nil)
	if err != nil {
		return nil, apperr.Network(op, err)
	}
	if status < 200 || status > 299 {
		msg := ""
		if env != nil {
			msg = env.Error
		}
		return nil, apperr.Rejection(op, status, msg)
	}
	if env == nil || len(env.User) == 0 || string(env.User) == "null" {
		return nil, apperr.Network(op, errNoData)
	}

	var user User
	if err := json.Unmarshal(env.User, &user); err != nil {
		return nil, apperr.Network(op, fmt.Errorf("failed to parse user: %w", err))
	}
	return &user, nil
}
