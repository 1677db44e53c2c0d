// Package resync implements the mutate-then-resync pipeline shared by the
// collection ledger and the deck coordinator.
//
// Every mutation is a single remote attempt. When it succeeds the cached view
// is refreshed from the service; nothing is merged locally. Refreshes are
// sequenced so that a response belonging to an older refresh never overwrites
// the result of a newer one.
package resync

import (
	"context"
	"log/slog"
)

// State is the client-visible synchronization state of a cached view.
type State string

const (
	StateUnsynced State = "unsynced"
	StateLoading  State = "loading"
	StateReady    State = "ready"
	StateError    State = "error"
)

// CanTransition reports whether a view may move from s to next. Ready and
// Error are only reachable from Loading.
func (s State) CanTransition(next State) bool {
	switch next {
	case StateLoading:
		return s != StateLoading
	case StateReady, StateError:
		return s == StateLoading
	}
	return false
}

// Ticket identifies one issued refresh.
type Ticket uint64

// Sequencer orders refreshes of one cached view. It is not safe for
// concurrent use; callers guard it with the mutex protecting the view.
type Sequencer struct {
	issued  Ticket
	applied Ticket
	closed  bool
}

// Issue returns the ticket of a new refresh.
func (s *Sequencer) Issue() Ticket {
	s.issued++
	return s.issued
}

// Accept reports whether the result of refresh t may be applied, and records
// it as applied. Results older than the last applied one, and any result
// arriving after Close, are rejected.
func (s *Sequencer) Accept(t Ticket) bool {
	if s.closed || t <= s.applied {
		return false
	}
	s.applied = t
	return true
}

// Pending reports whether a refresh newer than t has been issued.
func (s *Sequencer) Pending(t Ticket) bool {
	return s.issued > t
}

// Close makes every later Accept fail.
func (s *Sequencer) Close() {
	s.closed = true
}

// Closed reports whether Close was called.
func (s *Sequencer) Closed() bool {
	return s.closed
}

// Do runs mutate and, if it succeeds, refresh. The mutation outcome is
// returned unchanged. A refresh failure after a successful mutation is logged
// and otherwise left to refresh itself to record; it does not turn the
// mutation into a failure.
func Do[T any](ctx context.Context, logger *slog.Logger, op string, mutate func(context.Context) (T, error), refresh func(context.Context) error) (T, error) {
	res, err := mutate(ctx)
	if err != nil {
		return res, err
	}

	if rerr := refresh(ctx); rerr != nil {
		if logger == nil {
			logger = slog.Default()
		}
		logger.Warn("Resync after mutation failed", "op", op, "error", rerr)
	}
	return res, nil
}
