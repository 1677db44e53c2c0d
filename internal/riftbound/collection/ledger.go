// Package collection is the local cache of a user's card ownership, kept in
// sync with the persistence service.
//
// Reads are served from the cache and never call the service. Every mutation
// is a single remote call followed by a full re-fetch; the cache only ever
// holds server-confirmed state.
package collection

import (
	"context"
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

// DefaultSource is the acquisition source recorded when none is given.
const DefaultSource = "Pack"

// Backend is the subset of the service the ledger calls.
type Backend interface {
	GetCollection(ctx context.Context, token string) (*remote.CollectionState, error)
	AddCollectionCard(ctx context.Context, token, cardID string, quantity int, source string) error
	RemoveCollectionCard(ctx context.Context, token, cardID string, quantity int) error
	SetFavorite(ctx context.Context, token, cardID string, isFavorite bool) error
}

// Options configures a Ledger.
type Options struct {
	// Catalog resolves rarity and type for entries the service did not join.
	Catalog cards.Source
	Events  *events.EventDispatcher
	Logger  *slog.Logger
}

// Entry is one owned card.
type Entry struct {
	CardID     string `json:"cardId"`
	Quantity   int    `json:"quantity"`
	IsFavorite bool   `json:"isFavorite"`
	Rarity     string `json:"rarity,omitempty"`
	Type       string `json:"type,omitempty"`
}

// Result is the outcome of a successful mutation.
type Result struct {
	Message string `json:"message,omitempty"`
}

// view is the cached state of one session.
type view struct {
	seq     resync.Sequencer
	state   resync.State
	err     error
	entries []Entry
	index   map[string]int // normalized card id -> entries position
}

// Ledger caches ownership per session credential.
type Ledger struct {
	backend Backend
	catalog cards.Source
	events  *events.EventDispatcher
	logger  *slog.Logger

	mu     sync.Mutex
	views  map[string]*view
	closed bool
}

// NewLedger creates a ledger backed by the given service.
func NewLedger(backend Backend, opts Options) *Ledger {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Ledger{
		backend: backend,
		catalog: opts.Catalog,
		events:  opts.Events,
		logger:  logger,
		views:   make(map[string]*view),
	}
}

// viewFor returns the view of a session, creating it. Callers hold l.mu.
func (l *Ledger) viewFor(sess session.Session) *view {
	v, ok := l.views[sess.Token]
	if !ok {
		v = &view{state: resync.StateUnsynced}
		if l.closed {
			v.seq.Close()
		}
		l.views[sess.Token] = v
	}
	return v
}

// lookup returns the view of a session without creating it.
func (l *Ledger) lookup(sess session.Session) *view {
	if !sess.Authenticated() {
		return nil
	}
	return l.views[sess.Token]
}

// Fetch replaces the cached state of sess with the service's. An anonymous
// session has no collection: Fetch returns nil without calling the service.
func (l *Ledger) Fetch(ctx context.Context, sess session.Session) error {
	if !sess.Authenticated() {
		return nil
	}

	l.mu.Lock()
	v := l.viewFor(sess)
	ticket := v.seq.Issue()
	v.state = resync.StateLoading
	l.mu.Unlock()

	state, err := l.backend.GetCollection(ctx, sess.Token)

	l.mu.Lock()
	if !v.seq.Accept(ticket) {
		l.mu.Unlock()
		l.logger.Debug("Discarded stale collection response", "ticket", ticket)
		return err
	}

	if err != nil {
		if !v.seq.Pending(ticket) {
			v.state = resync.StateError
		}
		v.err = err
		l.mu.Unlock()

		l.logger.Warn("Failed to fetch collection", "error", err)
		l.events.Dispatch(events.New(ctx, events.TypeCollectionSyncFailed, events.SyncFailed{Op: "fetch collection", Error: apperr.Message(err)}))
		return err
	}

	v.entries, v.index = l.buildEntries(state)
	v.err = nil
	if !v.seq.Pending(ticket) {
		v.state = resync.StateReady
	}
	synced := events.CollectionSynced{UniqueCards: len(v.entries), TotalCards: totalOf(v.entries)}
	l.mu.Unlock()

	l.events.Dispatch(events.New(ctx, events.TypeCollectionSynced, synced))
	return nil
}

func (l *Ledger) buildEntries(state *remote.CollectionState) ([]Entry, map[string]int) {
	if state == nil {
		return nil, map[string]int{}
	}

	entries := make([]Entry, 0, len(state.Cards))
	index := make(map[string]int, len(state.Cards))
	for _, e := range state.Cards {
		id := cardid.Normalize(e.CardID)
		if i, dup := index[id]; dup {
			// The service should not report one card twice; fold it.
			entries[i].Quantity += max(e.Quantity, 0)
			continue
		}

		entry := Entry{
			CardID:     id,
			Quantity:   max(e.Quantity, 0),
			IsFavorite: e.IsFavorite,
			Rarity:     e.Rarity,
			Type:       e.Type,
		}
		if l.catalog != nil && (entry.Rarity == "" || entry.Type == "") {
			if card, ok := l.catalog.FindByID(id); ok {
				if entry.Rarity == "" {
					entry.Rarity = card.RarityLabel()
				}
				if entry.Type == "" {
					entry.Type = card.PrimaryType()
				}
			}
		}
		index[id] = len(entries)
		entries = append(entries, entry)
	}
	return entries, index
}

func totalOf(entries []Entry) int {
	total := 0
	for _, e := range entries {
		total += e.Quantity
	}
	return total
}

func (l *Ledger) refresher(sess session.Session) func(context.Context) error {
	return func(ctx context.Context) error {
		return l.Fetch(ctx, sess)
	}
}

func requireSession(op string, sess session.Session) error {
	if !sess.Authenticated() {
		return apperr.Precondition(op, "Not signed in")
	}
	return nil
}

// AddCard asks the service to add quantity copies of cardID, then re-fetches.
func (l *Ledger) AddCard(ctx context.Context, sess session.Session, cardID string, quantity int, source string) (Result, error) {
	const op = "add card"

	if err := requireSession(op, sess); err != nil {
		return Result{}, err
	}
	if cardID == "" {
		return Result{}, apperr.Precondition(op, "Card id is required")
	}
	if quantity <= 0 {
		return Result{}, apperr.Precondition(op, "Quantity must be positive")
	}
	if source == "" {
		source = DefaultSource
	}
	id := cardid.Normalize(cardID)

	return resync.Do(ctx, l.logger, op, func(ctx context.Context) (Result, error) {
		if err := l.backend.AddCollectionCard(ctx, sess.Token, id, quantity, source); err != nil {
			return Result{}, err
		}
		return Result{Message: fmt.Sprintf("Added %dx card to collection", quantity)}, nil
	}, l.refresher(sess))
}

// RemoveCard asks the service to remove quantity copies of cardID, then
// re-fetches. The service deletes the entry when it reaches zero.
func (l *Ledger) RemoveCard(ctx context.Context, sess session.Session, cardID string, quantity int) (Result, error) {
	const op = "remove card"

	if err := requireSession(op, sess); err != nil {
		return Result{}, err
	}
	if cardID == "" {
		return Result{}, apperr.Precondition(op, "Card id is required")
	}
	if quantity <= 0 {
		return Result{}, apperr.Precondition(op, "Quantity must be positive")
	}
	id := cardid.Normalize(cardID)

	return resync.Do(ctx, l.logger, op, func(ctx context.Context) (Result, error) {
		if err := l.backend.RemoveCollectionCard(ctx, sess.Token, id, quantity); err != nil {
			return Result{}, err
		}
		return Result{Message: fmt.Sprintf("Removed %dx card from collection", quantity)}, nil
	}, l.refresher(sess))
}

// ToggleFavorite sets the favorite flag of an owned card, then re-fetches.
func (l *Ledger) ToggleFavorite(ctx context.Context, sess session.Session, cardID string, isFavorite bool) (Result, error) {
	const op = "toggle favorite"

	if err := requireSession(op, sess); err != nil {
		return Result{}, err
	}
	if cardID == "" {
		return Result{}, apperr.Precondition(op, "Card id is required")
	}
	id := cardid.Normalize(cardID)

	return resync.Do(ctx, l.logger, op, func(ctx context.Context) (Result, error) {
		if err := l.backend.SetFavorite(ctx, sess.Token, id, isFavorite); err != nil {
			return Result{}, err
		}
		if isFavorite {
			return Result{Message: "Added to favorites"}, nil
		}
		return Result{Message: "Removed from favorites"}, nil
	}, l.refresher(sess))
}

// UpdateQuantity moves ownership of cardID to newQuantity by adding or
// removing the difference from the cached quantity. A target of zero or less
// removes every cached copy.
func (l *Ledger) UpdateQuantity(ctx context.Context, sess session.Session, cardID string, newQuantity int) (Result, error) {
	if err := requireSession("update quantity", sess); err != nil {
		return Result{}, err
	}

	current := l.GetQuantity(sess, cardID)
	if newQuantity <= 0 {
		if current == 0 {
			return Result{}, nil
		}
		return l.RemoveCard(ctx, sess, cardID, current)
	}

	switch diff := newQuantity - current; {
	case diff > 0:
		return l.AddCard(ctx, sess, cardID, diff, DefaultSource)
	case diff < 0:
		return l.RemoveCard(ctx, sess, cardID, -diff)
	}
	return Result{}, nil
}

// HasCard reports whether sess owns at least one copy of cardID.
func (l *Ledger) HasCard(sess session.Session, cardID string) bool {
	return l.GetQuantity(sess, cardID) > 0
}

// GetQuantity returns the cached quantity of cardID, or 0.
func (l *Ledger) GetQuantity(sess session.Session, cardID string) int {
	l.mu.Lock()
	defer l.mu.Unlock()

	v := l.lookup(sess)
	if v == nil {
		return 0
	}
	i, ok := v.index[cardid.Normalize(cardID)]
	if !ok {
		return 0
	}
	return v.entries[i].Quantity
}

// IsFavorite reports whether cardID is flagged as a favorite.
func (l *Ledger) IsFavorite(sess session.Session, cardID string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	v := l.lookup(sess)
	if v == nil {
		return false
	}
	i, ok := v.index[cardid.Normalize(cardID)]
	return ok && v.entries[i].IsFavorite
}

// Entries returns a copy of the cached entries in service order.
func (l *Ledger) Entries(sess session.Session) []Entry {
	l.mu.Lock()
	defer l.mu.Unlock()

	v := l.lookup(sess)
	if v == nil {
		return nil
	}
	return append([]Entry(nil), v.entries...)
}

// State returns the sync state of sess and the last fetch error.
func (l *Ledger) State(sess session.Session) (resync.State, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	v := l.lookup(sess)
	if v == nil {
		return resync.StateUnsynced, nil
	}
	return v.state, v.err
}

// Forget drops the cached state of sess, e.g. on logout.
func (l *Ledger) Forget(sess session.Session) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if v, ok := l.views[sess.Token]; ok {
		v.seq.Close()
		delete(l.views, sess.Token)
	}
}

// Close stops the ledger from applying any response still in flight.
func (l *Ledger) Close() {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.closed = true
	for _, v := range l.views {
		v.seq.Close()
	}
}
