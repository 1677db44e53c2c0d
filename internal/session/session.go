// Package session holds the caller identity passed explicitly to every engine
// operation: the bearer credential and, once verified, the user it belongs to.
package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/Naokyoo/Riftbound-manager/internal/riftbound/apperr"
	"github.com/Naokyoo/Riftbound-manager/internal/riftbound/remote"
)

// ErrSessionInvalid is returned when the service rejects the credential.
var ErrSessionInvalid = errors.New("session invalid")

// Session is a caller identity. The zero value is an anonymous caller.
type Session struct {
	Token string
	User  *remote.User
}

// New returns a session for token with no verified user.
func New(token string) Session {
	return Session{Token: token}
}

// Authenticated reports whether the session carries a credential.
func (s Session) Authenticated() bool {
	return s.Token != ""
}

// Expired reports whether the credential is a JWT whose exp claim is before
// now. The signature is not checked; the service stays the authority. Opaque
// tokens never expire locally.
func (s Session) Expired(now time.Time) bool {
	if s.Token == "" {
		return false
	}

	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(s.Token, claims); err != nil {
		return false
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return false
	}
	return exp.Before(now)
}

// Verifier resolves the user owning a credential.
type Verifier interface {
	Me(ctx context.Context, token string) (*remote.User, error)
}

// Verify checks the credential against the service and returns the session
// with its user populated. An empty token yields an anonymous session.
func Verify(ctx context.Context, v Verifier, token string) (Session, error) {
	if token == "" {
		return Session{}, nil
	}

	user, err := v.Me(ctx, token)
	if err != nil {
		if apperr.IsUnauthorized(err) {
			return Session{}, fmt.Errorf("%w: %w", ErrSessionInvalid, err)
		}
		return Session{}, err
	}
	return Session{Token: token, User: user}, nil
}
