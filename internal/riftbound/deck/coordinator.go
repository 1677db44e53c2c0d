// Package deck joins remote deck records against the card catalog and
// sequences deck mutations against the persistence service.
//
// The Coordinator caches the deck list of each session. Every successful
// mutation is followed by a full list refresh; nothing is merged locally.
// Enriched views, statistics and legality checks are recomputed from the
// cached records on every read.
package deck

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	"github.com/Naokyoo/Riftbound-manager/internal/events"
	"github.com/Naokyoo/Riftbound-manager/internal/riftbound/apperr"
	"github.com/Naokyoo/Riftbound-manager/internal/riftbound/cardid"
	"github.com/Naokyoo/Riftbound-manager/internal/riftbound/cards"
	"github.com/Naokyoo/Riftbound-manager/internal/riftbound/remote"
	"github.com/Naokyoo/Riftbound-manager/internal/riftbound/resync"
	"github.com/Naokyoo/Riftbound-manager/internal/session"
)

// DefaultMaxCopies is the copy limit removed by DeleteCardFromDeck.
const DefaultMaxCopies = 3

// Backend is the subset of the service the coordinator calls.
type Backend interface {
	ListDecks(ctx context.Context, token string) ([]remote.DeckRecord, error)
	GetDeckDetailed(ctx context.Context, token, deckID string) (json.RawMessage, error)
	CreateDeck(ctx context.Context, token string, req remote.CreateDeckRequest) (*remote.DeckRecord, error)
	UpdateDeck(ctx context.Context, token, deckID string, update remote.DeckUpdate) (*remote.DeckRecord, error)
	DeleteDeck(ctx context.Context, token, deckID string) error
	AddDeckCard(ctx context.Context, token, deckID, cardID string, quantity int) (*remote.DeckRecord, error)
	RemoveDeckCard(ctx context.Context, token, deckID, cardID string, quantity int) (*remote.DeckRecord, error)
	ValidateDeck(ctx context.Context, token, deckID string) (remote.ValidationResult, error)
	RecordGameResult(ctx context.Context, token, deckID string, won bool) error
}

// Options configures a Coordinator.
type Options struct {
	Events    *events.EventDispatcher
	Logger    *slog.Logger
	MaxCopies int
	Targets   Targets
}

// Result is the outcome of a successful mutation. Deck is the record the
// service returned, when it returned one.
type Result struct {
	Message string             `json:"message,omitempty"`
	Deck    *remote.DeckRecord `json:"deck,omitempty"`
}

// view is the cached deck list of one session.
type view struct {
	seq     resync.Sequencer
	state   resync.State
	err     error
	records []remote.DeckRecord
	decks   map[string]resync.State // per-deck sync state

	// mutating counts mutations per deck still awaiting the service. A
	// refresh leaves those decks in Loading; the mutation settles them.
	mutating map[string]int
}

// Coordinator caches deck lists per session credential and runs deck
// mutations.
type Coordinator struct {
	backend   Backend
	catalog   cards.Source
	events    *events.EventDispatcher
	logger    *slog.Logger
	maxCopies int
	targets   Targets

	mu     sync.Mutex
	views  map[string]*view
	closed bool
}

// NewCoordinator creates a coordinator joining records against catalog.
func NewCoordinator(backend Backend, catalog cards.Source, opts Options) *Coordinator {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	maxCopies := opts.MaxCopies
	if maxCopies <= 0 {
		maxCopies = DefaultMaxCopies
	}
	targets := opts.Targets
	if targets == (Targets{}) {
		targets = DefaultTargets()
	}
	return &Coordinator{
		backend:   backend,
		catalog:   catalog,
		events:    opts.Events,
		logger:    logger,
		maxCopies: maxCopies,
		targets:   targets,
		views:     make(map[string]*view),
	}
}

// Targets returns the deck size targets in use.
func (c *Coordinator) Targets() Targets {
	return c.targets
}

// viewFor returns the view of a session, creating it. Callers hold c.mu.
func (c *Coordinator) viewFor(sess session.Session) *view {
	v, ok := c.views[sess.Token]
	if !ok {
		v = &view{
			state:    resync.StateUnsynced,
			decks:    make(map[string]resync.State),
			mutating: make(map[string]int),
		}
		if c.closed {
			v.seq.Close()
		}
		c.views[sess.Token] = v
	}
	return v
}

// transition moves one deck to a new state if the state machine allows it
// and returns the event to dispatch. Callers hold c.mu.
func (v *view) transition(deckID string, to resync.State, err error) (events.DeckState, bool) {
	from, ok := v.decks[deckID]
	if !ok {
		from = resync.StateUnsynced
	}
	if !from.CanTransition(to) {
		return events.DeckState{}, false
	}
	v.decks[deckID] = to

	ev := events.DeckState{DeckID: deckID, From: string(from), To: string(to)}
	if err != nil {
		ev.Error = apperr.Message(err)
	}
	return ev, true
}

func (c *Coordinator) dispatchStates(ctx context.Context, changes []events.DeckState) {
	for _, ch := range changes {
		c.events.Dispatch(events.New(ctx, events.TypeDeckState, ch))
	}
}

// beginMutation marks a deck as mutating and moves it to Loading.
func (c *Coordinator) beginMutation(ctx context.Context, sess session.Session, deckID string) {
	c.mu.Lock()
	v := c.viewFor(sess)
	if v.seq.Closed() {
		c.mu.Unlock()
		return
	}
	v.mutating[deckID]++
	ev, ok := v.transition(deckID, resync.StateLoading, nil)
	c.mu.Unlock()

	if ok {
		c.dispatchStates(ctx, []events.DeckState{ev})
	}
}

// endMutation clears the mark set by beginMutation. A failed mutation moves
// the deck to Error; a successful one is settled by the refresh that follows.
func (c *Coordinator) endMutation(ctx context.Context, sess session.Session, deckID string, err error) {
	c.mu.Lock()
	v, ok := c.views[sess.Token]
	if !ok || v.seq.Closed() {
		c.mu.Unlock()
		return
	}
	if v.mutating[deckID] <= 1 {
		delete(v.mutating, deckID)
	} else {
		v.mutating[deckID]--
	}

	var changes []events.DeckState
	if err != nil {
		// A refresh that no longer lists the deck drops it back to Unsynced.
		if ev, ok := v.transition(deckID, resync.StateLoading, nil); ok {
			changes = append(changes, ev)
		}
		if ev, ok := v.transition(deckID, resync.StateError, err); ok {
			changes = append(changes, ev)
		}
	}
	c.mu.Unlock()

	c.dispatchStates(ctx, changes)
}

// Refresh replaces the cached deck list of sess with the service's. An
// anonymous session has no decks: Refresh returns nil without calling the
// service.
func (c *Coordinator) Refresh(ctx context.Context, sess session.Session) error {
	if !sess.Authenticated() {
		return nil
	}

	var changes []events.DeckState

	c.mu.Lock()
	v := c.viewFor(sess)
	ticket := v.seq.Issue()
	v.state = resync.StateLoading
	for id := range v.decks {
		if ev, ok := v.transition(id, resync.StateLoading, nil); ok {
			changes = append(changes, ev)
		}
	}
	c.mu.Unlock()
	c.dispatchStates(ctx, changes)
	changes = nil

	records, err := c.backend.ListDecks(ctx, sess.Token)

	c.mu.Lock()
	if !v.seq.Accept(ticket) {
		c.mu.Unlock()
		c.logger.Debug("Discarded stale deck list", "ticket", ticket)
		return err
	}
	settle := !v.seq.Pending(ticket)

	if err != nil {
		v.err = err
		if settle {
			v.state = resync.StateError
			for id := range v.decks {
				if v.mutating[id] > 0 {
					continue
				}
				if ev, ok := v.transition(id, resync.StateError, err); ok {
					changes = append(changes, ev)
				}
			}
		}
		c.mu.Unlock()

		c.logger.Warn("Failed to refresh decks", "error", err)
		c.dispatchStates(ctx, changes)
		c.events.Dispatch(events.New(ctx, events.TypeDecksSyncFailed, events.SyncFailed{Op: "list decks", Error: apperr.Message(err)}))
		return err
	}

	v.records = records
	v.err = nil
	present := make(map[string]bool, len(records))
	for _, rec := range records {
		present[rec.ID] = true
		if ev, ok := v.transition(rec.ID, resync.StateLoading, nil); ok {
			changes = append(changes, ev)
		}
		if settle && v.mutating[rec.ID] == 0 {
			if ev, ok := v.transition(rec.ID, resync.StateReady, nil); ok {
				changes = append(changes, ev)
			}
		}
	}
	for id := range v.decks {
		if !present[id] {
			delete(v.decks, id)
		}
	}
	if settle {
		v.state = resync.StateReady
	}
	count := len(records)
	c.mu.Unlock()

	c.dispatchStates(ctx, changes)
	c.events.Dispatch(events.New(ctx, events.TypeDecksSynced, events.DecksSynced{Count: count}))
	return nil
}

func (c *Coordinator) refresher(sess session.Session) func(context.Context) error {
	return func(ctx context.Context) error {
		return c.Refresh(ctx, sess)
	}
}

func requireSession(op string, sess session.Session) error {
	if !sess.Authenticated() {
		return apperr.Precondition(op, "Not signed in")
	}
	return nil
}

// mutateDeck runs a mutation of one existing deck through the resync
// pipeline, moving the deck to Loading first and to Error if the mutation
// fails. Refreshes issued for other decks meanwhile leave it in Loading.
func mutateDeck[T any](ctx context.Context, c *Coordinator, sess session.Session, op, deckID string, fn func(context.Context) (T, error)) (T, error) {
	var zero T
	if err := requireSession(op, sess); err != nil {
		return zero, err
	}
	if deckID == "" {
		return zero, apperr.Precondition(op, "Deck id is required")
	}

	c.beginMutation(ctx, sess, deckID)
	return resync.Do(ctx, c.logger, op, func(ctx context.Context) (T, error) {
		res, err := fn(ctx)
		c.endMutation(ctx, sess, deckID, err)
		return res, err
	}, c.refresher(sess))
}

// CreateDeck creates a deck anchored on legend. The faction is derived from
// the legend's first domain.
func (c *Coordinator) CreateDeck(ctx context.Context, sess session.Session, name string, legend *cards.Card) (*remote.DeckRecord, error) {
	const op = "create deck"

	if err := requireSession(op, sess); err != nil {
		return nil, err
	}
	if legend == nil {
		return nil, apperr.Precondition(op, "A legend is required")
	}
	if name == "" {
		return nil, apperr.Precondition(op, "Deck name is required")
	}

	return resync.Do(ctx, c.logger, op, func(ctx context.Context) (*remote.DeckRecord, error) {
		return c.create(ctx, sess, name, legend)
	}, c.refresher(sess))
}

func (c *Coordinator) create(ctx context.Context, sess session.Session, name string, legend *cards.Card) (*remote.DeckRecord, error) {
	req := remote.CreateDeckRequest{
		Name:        name,
		MainFaction: FactionFor(legend),
		LegendID:    cardid.Normalize(legend.ID),
		Description: fmt.Sprintf("Deck created with %s", legend.Name),
	}
	return c.backend.CreateDeck(ctx, sess.Token, req)
}

// AddCardToDeck adds quantity copies of cardID to a deck.
func (c *Coordinator) AddCardToDeck(ctx context.Context, sess session.Session, deckID, cardID string, quantity int) (Result, error) {
	const op = "add card to deck"

	if cardID == "" {
		return Result{}, apperr.Precondition(op, "Card id is required")
	}
	if quantity <= 0 {
		return Result{}, apperr.Precondition(op, "Quantity must be positive")
	}
	id := cardid.Normalize(cardID)

	return mutateDeck(ctx, c, sess, op, deckID, func(ctx context.Context) (Result, error) {
		rec, err := c.backend.AddDeckCard(ctx, sess.Token, deckID, id, quantity)
		if err != nil {
			return Result{}, err
		}
		return Result{Message: fmt.Sprintf("Added %dx card to deck", quantity), Deck: rec}, nil
	})
}

// RemoveCardFromDeck removes up to quantity copies of cardID from a deck.
func (c *Coordinator) RemoveCardFromDeck(ctx context.Context, sess session.Session, deckID, cardID string, quantity int) (Result, error) {
	const op = "remove card from deck"

	if cardID == "" {
		return Result{}, apperr.Precondition(op, "Card id is required")
	}
	if quantity <= 0 {
		return Result{}, apperr.Precondition(op, "Quantity must be positive")
	}
	id := cardid.Normalize(cardID)

	return mutateDeck(ctx, c, sess, op, deckID, func(ctx context.Context) (Result, error) {
		rec, err := c.backend.RemoveDeckCard(ctx, sess.Token, deckID, id, quantity)
		if err != nil {
			return Result{}, err
		}
		return Result{Message: fmt.Sprintf("Removed %dx card from deck", quantity), Deck: rec}, nil
	})
}

// DeleteCardFromDeck removes every copy of cardID a deck may legally hold.
func (c *Coordinator) DeleteCardFromDeck(ctx context.Context, sess session.Session, deckID, cardID string) (Result, error) {
	return c.RemoveCardFromDeck(ctx, sess, deckID, cardID, c.maxCopies)
}

// UpdateDeck applies a partial update to a deck.
func (c *Coordinator) UpdateDeck(ctx context.Context, sess session.Session, deckID string, update remote.DeckUpdate) (Result, error) {
	const op = "update deck"

	if update.LegendID != nil {
		id := cardid.Normalize(*update.LegendID)
		update.LegendID = &id
	}

	return mutateDeck(ctx, c, sess, op, deckID, func(ctx context.Context) (Result, error) {
		rec, err := c.backend.UpdateDeck(ctx, sess.Token, deckID, update)
		if err != nil {
			return Result{}, err
		}
		return Result{Message: "Deck updated", Deck: rec}, nil
	})
}

// UpdateDeckName renames a deck.
func (c *Coordinator) UpdateDeckName(ctx context.Context, sess session.Session, deckID, name string) (Result, error) {
	if name == "" {
		return Result{}, apperr.Precondition("update deck", "Deck name is required")
	}
	return c.UpdateDeck(ctx, sess, deckID, remote.DeckUpdate{Name: &name})
}

// DeleteDeck deletes a deck.
func (c *Coordinator) DeleteDeck(ctx context.Context, sess session.Session, deckID string) (Result, error) {
	return mutateDeck(ctx, c, sess, "delete deck", deckID, func(ctx context.Context) (Result, error) {
		if err := c.backend.DeleteDeck(ctx, sess.Token, deckID); err != nil {
			return Result{}, err
		}
		return Result{Message: "Deck deleted"}, nil
	})
}

// ValidateDeck asks the service to validate a deck. The refreshed record
// carries the new validity flag.
func (c *Coordinator) ValidateDeck(ctx context.Context, sess session.Session, deckID string) (remote.ValidationResult, error) {
	return mutateDeck(ctx, c, sess, "validate deck", deckID, func(ctx context.Context) (remote.ValidationResult, error) {
		return c.backend.ValidateDeck(ctx, sess.Token, deckID)
	})
}

// RecordGameResult records a win or a loss for a deck.
func (c *Coordinator) RecordGameResult(ctx context.Context, sess session.Session, deckID string, won bool) (Result, error) {
	return mutateDeck(ctx, c, sess, "record game result", deckID, func(ctx context.Context) (Result, error) {
		if err := c.backend.RecordGameResult(ctx, sess.Token, deckID, won); err != nil {
			return Result{}, err
		}
		if won {
			return Result{Message: "Win recorded"}, nil
		}
		return Result{Message: "Loss recorded"}, nil
	})
}

// GetDeckDetailed returns the service's detailed rendering of a deck. The
// cache is not touched.
func (c *Coordinator) GetDeckDetailed(ctx context.Context, sess session.Session, deckID string) (json.RawMessage, error) {
	if err := requireSession("get deck", sess); err != nil {
		return nil, err
	}
	return c.backend.GetDeckDetailed(ctx, sess.Token, deckID)
}

// State returns the sync state of the deck list of sess and the last refresh
// error.
func (c *Coordinator) State(sess session.Session) (resync.State, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	v, ok := c.views[sess.Token]
	if !ok || !sess.Authenticated() {
		return resync.StateUnsynced, nil
	}
	return v.state, v.err
}

// DeckState returns the sync state of one deck.
func (c *Coordinator) DeckState(sess session.Session, deckID string) resync.State {
	c.mu.Lock()
	defer c.mu.Unlock()

	v, ok := c.views[sess.Token]
	if !ok || !sess.Authenticated() {
		return resync.StateUnsynced
	}
	if st, ok := v.decks[deckID]; ok {
		return st
	}
	return resync.StateUnsynced
}

// Forget drops the cached decks of sess, e.g. on logout.
func (c *Coordinator) Forget(sess session.Session) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if v, ok := c.views[sess.Token]; ok {
		v.seq.Close()
		delete(c.views, sess.Token)
	}
}

// Close stops the coordinator from applying any response still in flight.
func (c *Coordinator) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.closed = true
	for _, v := range c.views {
		v.seq.Close()
	}
}
