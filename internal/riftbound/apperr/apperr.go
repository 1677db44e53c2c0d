// Package apperr classifies engine failures so callers can render a uniform
// failure message without inspecting transport details.
package apperr

import (
	"errors"
	"net/http"
)

// Kind classifies a failure.
type Kind string

const (
	// KindNetwork is a transport failure: connection error, timeout or an
	// undecodable response.
	KindNetwork Kind = "network"
	// KindRejection is a response from the service reporting success:false.
	KindRejection Kind = "rejection"
	// KindPrecondition is a failure detected before any remote call was made.
	KindPrecondition Kind = "precondition"
)

// NetworkMessage is the user-facing text for every network failure.
const NetworkMessage = "Network error"

// Error is a classified engine failure.
type Error struct {
	Kind    Kind   `json:"kind"`
	Op      string `json:"op,omitempty"`     // logical operation, e.g. "add card"
	Status  int    `json:"status,omitempty"` // HTTP status for rejections
	Message string `json:"message"`
	Err     error  `json:"-"`
}

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" && e.Err != nil {
		msg = e.Err.Error()
	}
	if e.Op == "" {
		return msg
	}
	return e.Op + ": " + msg
}

// Unwrap returns the wrapped error for errors.Is/As chain.
func (e *Error) Unwrap() error {
	return e.Err
}

// Network wraps a transport failure.
func Network(op string, err error) *Error {
	return &Error{Kind: KindNetwork, Op: op, Message: NetworkMessage, Err: err}
}

// Rejection builds a service rejection.
func Rejection(op string, status int, message string) *Error {
	if message == "" {
		message = http.StatusText(status)
	}
	if message == "" {
		message = "Request rejected"
	}
	return &Error{Kind: KindRejection, Op: op, Status: status, Message: message}
}

// Precondition builds a failure raised before any remote call.
func Precondition(op, message string) *Error {
	return &Error{Kind: KindPrecondition, Op: op, Message: message}
}

// KindOf returns the kind of err, or "" when err is not classified.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// Is reports whether err is classified as kind.
func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

// IsUnauthorized reports whether the service rejected the credential.
// The surrounding application should treat this as an invalid session.
func IsUnauthorized(err error) bool {
	var e *Error
	return errors.As(err, &e) && e.Kind == KindRejection && e.Status == http.StatusUnauthorized
}

// Message returns the human-readable text to show for err.
func Message(err error) string {
	if err == nil {
		return ""
	}
	var e *Error
	if errors.As(err, &e) {
		if e.Kind == KindNetwork {
			return NetworkMessage
		}
		if e.Message != "" {
			return e.Message
		}
	}
	return err.Error()
}
