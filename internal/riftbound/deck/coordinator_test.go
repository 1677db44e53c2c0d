package deck

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Naokyoo/Riftbound-manager/internal/events"
	"github.com/Naokyoo/Riftbound-manager/internal/riftbound/apperr"
	"github.com/Naokyoo/Riftbound-manager/internal/riftbound/cards"
	"github.com/Naokyoo/Riftbound-manager/internal/riftbound/remote"
	"github.com/Naokyoo/Riftbound-manager/internal/riftbound/resync"
	"github.com/Naokyoo/Riftbound-manager/internal/session"
)

// fakeBackend is an in-memory deck service recording every call.
type fakeBackend struct {
	mu      sync.Mutex
	decks   map[string][]remote.DeckRecord
	nextID  int
	calls   []string
	counts  map[string]int
	created []remote.CreateDeckRequest

	// fail returns the error for the n-th call (1-based) of method, if any.
	fail func(method string, n int) error
	// onList runs after the n-th ListDecks took its snapshot.
	onList func(n int)
	// onAdd runs before AddDeckCard takes the lock; an error fails the call.
	onAdd func(deckID string) error
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{decks: make(map[string][]remote.DeckRecord), counts: make(map[string]int)}
}

// begin records a call and returns the injected error. Callers hold f.mu.
func (f *fakeBackend) begin(method, detail string) error {
	f.counts[method]++
	entry := method
	if detail != "" {
		entry += ":" + detail
	}
	f.calls = append(f.calls, entry)
	if f.fail != nil {
		return f.fail(method, f.counts[method])
	}
	return nil
}

func (f *fakeBackend) callLog() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

func (f *fakeBackend) mutations() []string {
	var out []string
	for _, c := range f.callLog() {
		if c != "list" {
			out = append(out, c)
		}
	}
	return out
}

func (f *fakeBackend) put(token string, rec remote.DeckRecord) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.decks[token] = append(f.decks[token], rec)
}

func (f *fakeBackend) find(token, id string) *remote.DeckRecord {
	for i := range f.decks[token] {
		if f.decks[token][i].ID == id {
			return &f.decks[token][i]
		}
	}
	return nil
}

func notFound(op string) error {
	return apperr.Rejection(op, http.StatusNotFound, "Deck not found")
}

func (f *fakeBackend) ListDecks(ctx context.Context, token string) ([]remote.DeckRecord, error) {
	f.mu.Lock()
	err := f.begin("list", "")
	n := f.counts["list"]
	snapshot := make([]remote.DeckRecord, 0, len(f.decks[token]))
	for _, d := range f.decks[token] {
		d.Cards = append([]remote.DeckCardLine(nil), d.Cards...)
		snapshot = append(snapshot, d)
	}
	hook := f.onList
	f.mu.Unlock()

	if hook != nil {
		hook(n)
	}
	if err != nil {
		return nil, err
	}
	return snapshot, nil
}

func (f *fakeBackend) GetDeckDetailed(ctx context.Context, token, deckID string) (json.RawMessage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.begin("detailed", deckID); err != nil {
		return nil, err
	}
	return json.RawMessage(`{"id":"` + deckID + `"}`), nil
}

func (f *fakeBackend) CreateDeck(ctx context.Context, token string, req remote.CreateDeckRequest) (*remote.DeckRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.begin("create", req.Name); err != nil {
		return nil, err
	}
	f.created = append(f.created, req)
	f.nextID++
	rec := remote.DeckRecord{
		ID:          fmt.Sprintf("new-%d", f.nextID),
		Name:        req.Name,
		LegendID:    req.LegendID,
		MainFaction: req.MainFaction,
		Description: req.Description,
	}
	f.decks[token] = append(f.decks[token], rec)
	return &rec, nil
}

func (f *fakeBackend) UpdateDeck(ctx context.Context, token, deckID string, update remote.DeckUpdate) (*remote.DeckRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.begin("update", deckID); err != nil {
		return nil, err
	}
	d := f.find(token, deckID)
	if d == nil {
		return nil, notFound("update deck")
	}
	if update.Name != nil {
		d.Name = *update.Name
	}
	if update.LegendID != nil {
		d.LegendID = *update.LegendID
	}
	out := *d
	return &out, nil
}

func (f *fakeBackend) DeleteDeck(ctx context.Context, token, deckID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.begin("delete", deckID); err != nil {
		return err
	}
	for i, d := range f.decks[token] {
		if d.ID == deckID {
			f.decks[token] = append(f.decks[token][:i], f.decks[token][i+1:]...)
			return nil
		}
	}
	return notFound("delete deck")
}

func (f *fakeBackend) AddDeckCard(ctx context.Context, token, deckID, cardID string, quantity int) (*remote.DeckRecord, error) {
	f.mu.Lock()
	hook := f.onAdd
	f.mu.Unlock()
	if hook != nil {
		if err := hook(deckID); err != nil {
			return nil, err
		}
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.begin("add", fmt.Sprintf("%s:%s:%d", deckID, cardID, quantity)); err != nil {
		return nil, err
	}
	d := f.find(token, deckID)
	if d == nil {
		return nil, notFound("add card to deck")
	}
	for i := range d.Cards {
		if d.Cards[i].CardID == cardID {
			d.Cards[i].Quantity += quantity
			return nil, nil
		}
	}
	d.Cards = append(d.Cards, remote.DeckCardLine{CardID: cardID, Quantity: quantity})
	return nil, nil
}

func (f *fakeBackend) RemoveDeckCard(ctx context.Context, token, deckID, cardID string, quantity int) (*remote.DeckRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.begin("remove", fmt.Sprintf("%s:%s:%d", deckID, cardID, quantity)); err != nil {
		return nil, err
	}
	d := f.find(token, deckID)
	if d == nil {
		return nil, notFound("remove card from deck")
	}
	for i := range d.Cards {
		if d.Cards[i].CardID == cardID {
			d.Cards[i].Quantity -= quantity
			if d.Cards[i].Quantity <= 0 {
				d.Cards = append(d.Cards[:i], d.Cards[i+1:]...)
			}
			return nil, nil
		}
	}
	return nil, apperr.Rejection("remove card from deck", http.StatusNotFound, "Card not in deck")
}

func (f *fakeBackend) ValidateDeck(ctx context.Context, token, deckID string) (remote.ValidationResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.begin("validate", deckID); err != nil {
		return remote.ValidationResult{}, err
	}
	d := f.find(token, deckID)
	if d == nil {
		return remote.ValidationResult{}, notFound("validate deck")
	}
	d.IsValid = true
	return remote.ValidationResult{IsValid: true, Message: "Deck is valid"}, nil
}

func (f *fakeBackend) RecordGameResult(ctx context.Context, token, deckID string, won bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.begin("result", deckID); err != nil {
		return err
	}
	d := f.find(token, deckID)
	if d == nil {
		return notFound("record game result")
	}
	if won {
		d.Wins++
	} else {
		d.Losses++
	}
	return nil
}

var (
	alice = session.New("alice-token")
	bob   = session.New("bob-token")
)

type stateRecorder struct {
	mu     sync.Mutex
	events []events.Event
}

func (r *stateRecorder) observer() events.Observer {
	return events.NewFuncObserver("recorder", func(e events.Event) error {
		r.mu.Lock()
		defer r.mu.Unlock()
		r.events = append(r.events, e)
		return nil
	})
}

func (r *stateRecorder) transitions(deckID string) []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []string
	for _, e := range r.events {
		if s, ok := events.PayloadAs[events.DeckState](e); ok && s.DeckID == deckID {
			out = append(out, s.From+"->"+s.To)
		}
	}
	return out
}

func (r *stateRecorder) ofType(eventType string) []events.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []events.Event
	for _, e := range r.events {
		if e.Type == eventType {
			out = append(out, e)
		}
	}
	return out
}

func newCoordinator(t *testing.T, backend *fakeBackend) (*Coordinator, *stateRecorder) {
	t.Helper()
	rec := &stateRecorder{}
	dispatcher := events.NewEventDispatcher(nil)
	dispatcher.Register(rec.observer())
	return NewCoordinator(backend, testCatalog(t), Options{Events: dispatcher}), rec
}

func TestAnonymousSession(t *testing.T) {
	backend := newFakeBackend()
	c, _ := newCoordinator(t, backend)
	ctx := context.Background()
	anon := session.Session{}

	require.NoError(t, c.Refresh(ctx, anon))
	assert.Empty(t, c.ListDecks(anon))
	_, ok := c.GetDeck(anon, "d1")
	assert.False(t, ok)
	assert.Equal(t, resync.StateUnsynced, c.DeckState(anon, "d1"))

	_, err := c.CreateDeck(ctx, anon, "Deck", &cards.Card{ID: "leg-fury"})
	assert.True(t, apperr.Is(err, apperr.KindPrecondition))
	_, err = c.AddCardToDeck(ctx, anon, "d1", "u-fury", 1)
	assert.True(t, apperr.Is(err, apperr.KindPrecondition))
	_, err = c.DuplicateDeck(ctx, anon, "d1")
	assert.True(t, apperr.Is(err, apperr.KindPrecondition))

	assert.Empty(t, backend.callLog())
}

func TestCreateDeck(t *testing.T) {
	backend := newFakeBackend()
	c, rec := newCoordinator(t, backend)
	ctx := context.Background()

	legend := mustFind(t, c.catalog, "leg-mind")
	created, err := c.CreateDeck(ctx, alice, "Control", legend)
	require.NoError(t, err)
	require.NotNil(t, created)

	require.Len(t, backend.created, 1)
	assert.Equal(t, remote.CreateDeckRequest{
		Name:        "Control",
		MainFaction: "Water",
		LegendID:    "LEG-MIND",
		Description: "Deck created with Card LEG-MIND",
	}, backend.created[0])

	// Read-after-write: the list was refreshed and the deck is ready.
	assert.Equal(t, []string{"create:Control", "list"}, backend.callLog())
	d, ok := c.GetDeck(alice, created.ID)
	require.True(t, ok)
	assert.Equal(t, "LEG-MIND", d.Legend.ID)
	assert.Equal(t, resync.StateReady, c.DeckState(alice, created.ID))
	assert.Equal(t, []string{"unsynced->loading", "loading->ready"}, rec.transitions(created.ID))
}

func TestCreateDeck_DomainlessLegendIsNeutral(t *testing.T) {
	backend := newFakeBackend()
	c, _ := newCoordinator(t, backend)

	_, err := c.CreateDeck(context.Background(), alice, "Open", mustFind(t, c.catalog, "leg-none"))
	require.NoError(t, err)
	assert.Equal(t, "Neutral", backend.created[0].MainFaction)
}

func TestCreateDeck_Preconditions(t *testing.T) {
	backend := newFakeBackend()
	c, _ := newCoordinator(t, backend)
	ctx := context.Background()

	_, err := c.CreateDeck(ctx, alice, "No legend", nil)
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.KindPrecondition))
	assert.Equal(t, "A legend is required", apperr.Message(err))

	_, err = c.CreateDeck(ctx, alice, "", mustFind(t, c.catalog, "leg-fury"))
	assert.True(t, apperr.Is(err, apperr.KindPrecondition))

	assert.Empty(t, backend.callLog())
}

func TestCardMutations_NormalizeAndRefresh(t *testing.T) {
	backend := newFakeBackend()
	backend.put(alice.Token, remote.DeckRecord{ID: "d1", Name: "Fury", LegendID: "leg-fury"})
	c, _ := newCoordinator(t, backend)
	ctx := context.Background()
	require.NoError(t, c.Refresh(ctx, alice))

	res, err := c.AddCardToDeck(ctx, alice, "d1", "u-fury", 2)
	require.NoError(t, err)
	assert.Equal(t, "Added 2x card to deck", res.Message)

	_, err = c.AddCardToDeck(ctx, alice, "d1", "R-Fury", 12)
	require.NoError(t, err)

	d, ok := c.GetDeck(alice, "d1")
	require.True(t, ok)
	assert.Equal(t, 2, QuantityInDeck(d, "U-FURY"))
	assert.Equal(t, 12, QuantityInDeck(d, "r-fury"))

	_, err = c.RemoveCardFromDeck(ctx, alice, "d1", "u-FURY", 1)
	require.NoError(t, err)
	_, err = c.DeleteCardFromDeck(ctx, alice, "d1", "r-fury")
	require.NoError(t, err)

	assert.Equal(t, []string{
		"add:d1:U-FURY:2",
		"add:d1:R-FURY:12",
		"remove:d1:U-FURY:1",
		"remove:d1:R-FURY:3",
	}, backend.mutations())

	stats, ok := c.GetDeckStats(alice, "d1")
	require.True(t, ok)
	assert.Equal(t, 1, stats.TotalCards)
	assert.Equal(t, 9, stats.TotalRunes)

	// Every mutation was followed by exactly one refresh.
	assert.Len(t, backend.callLog(), 1+4*2)
}

func TestCardMutations_Preconditions(t *testing.T) {
	backend := newFakeBackend()
	c, _ := newCoordinator(t, backend)
	ctx := context.Background()

	_, err := c.AddCardToDeck(ctx, alice, "d1", "u-fury", 0)
	assert.True(t, apperr.Is(err, apperr.KindPrecondition))
	_, err = c.RemoveCardFromDeck(ctx, alice, "d1", "", 1)
	assert.True(t, apperr.Is(err, apperr.KindPrecondition))
	_, err = c.AddCardToDeck(ctx, alice, "", "u-fury", 1)
	assert.True(t, apperr.Is(err, apperr.KindPrecondition))
	_, err = c.UpdateDeckName(ctx, alice, "d1", "")
	assert.True(t, apperr.Is(err, apperr.KindPrecondition))

	assert.Empty(t, backend.callLog())
}

func TestMutationFailure(t *testing.T) {
	backend := newFakeBackend()
	backend.put(alice.Token, remote.DeckRecord{ID: "d1", Name: "Fury", LegendID: "leg-fury",
		Cards: []remote.DeckCardLine{{CardID: "U-FURY", Quantity: 1}}})
	c, rec := newCoordinator(t, backend)
	ctx := context.Background()
	require.NoError(t, c.Refresh(ctx, alice))

	backend.fail = func(method string, n int) error {
		if method == "add" {
			return apperr.Rejection("add card to deck", http.StatusBadRequest, "Maximum 3 copies per card")
		}
		return nil
	}

	_, err := c.AddCardToDeck(ctx, alice, "d1", "u-fury", 3)
	require.Error(t, err)
	assert.Equal(t, "Maximum 3 copies per card", apperr.Message(err))

	assert.Equal(t, []string{"list", "add:d1:U-FURY:3"}, backend.callLog(), "no refresh after a failed mutation")
	d, _ := c.GetDeck(alice, "d1")
	assert.Equal(t, 1, QuantityInDeck(d, "u-fury"), "cache unchanged")
	assert.Equal(t, resync.StateError, c.DeckState(alice, "d1"))

	// The next successful refresh recovers the deck.
	require.NoError(t, c.Refresh(ctx, alice))
	assert.Equal(t, resync.StateReady, c.DeckState(alice, "d1"))
	assert.Equal(t, []string{
		"unsynced->loading", "loading->ready",
		"ready->loading", "loading->error",
		"error->loading", "loading->ready",
	}, rec.transitions("d1"))
}

func TestRefreshFailureAfterMutation(t *testing.T) {
	backend := newFakeBackend()
	backend.put(alice.Token, remote.DeckRecord{ID: "d1", Name: "Fury"})
	c, rec := newCoordinator(t, backend)
	ctx := context.Background()
	require.NoError(t, c.Refresh(ctx, alice))

	backend.fail = func(method string, n int) error {
		if method == "list" {
			return apperr.Network("list decks", errors.New("timeout"))
		}
		return nil
	}

	res, err := c.RecordGameResult(ctx, alice, "d1", true)
	require.NoError(t, err, "the mutation itself succeeded")
	assert.Equal(t, "Win recorded", res.Message)

	assert.Equal(t, resync.StateError, c.DeckState(alice, "d1"))
	state, lastErr := c.State(alice)
	assert.Equal(t, resync.StateError, state)
	assert.Error(t, lastErr)
	assert.Len(t, rec.ofType(events.TypeDecksSyncFailed), 1)

	// The cached record is the last confirmed one.
	d, _ := c.GetDeck(alice, "d1")
	assert.Zero(t, d.Wins)
}

func TestNeverReadyWithoutLoading(t *testing.T) {
	backend := newFakeBackend()
	backend.put(alice.Token, remote.DeckRecord{ID: "d1"})
	backend.put(alice.Token, remote.DeckRecord{ID: "d2"})
	c, rec := newCoordinator(t, backend)
	ctx := context.Background()

	require.NoError(t, c.Refresh(ctx, alice))
	_, err := c.UpdateDeckName(ctx, alice, "d2", "Renamed")
	require.NoError(t, err)
	require.NoError(t, c.Refresh(ctx, alice))

	for _, id := range []string{"d1", "d2"} {
		prev := string(resync.StateUnsynced)
		for _, tr := range rec.transitions(id) {
			from, to, ok := strings.Cut(tr, "->")
			require.True(t, ok)
			assert.Equal(t, prev, from, "transitions chain for %s", id)
			if to == string(resync.StateReady) {
				assert.Equal(t, string(resync.StateLoading), from)
			}
			prev = to
		}
		assert.Equal(t, string(resync.StateReady), prev)
	}
}

func TestMutationFailure_WhileOtherDeckRefreshes(t *testing.T) {
	backend := newFakeBackend()
	backend.put(alice.Token, remote.DeckRecord{ID: "d1"})
	backend.put(alice.Token, remote.DeckRecord{ID: "d2"})

	entered := make(chan struct{})
	release := make(chan struct{})
	backend.onAdd = func(deckID string) error {
		if deckID != "d1" {
			return nil
		}
		close(entered)
		<-release
		return apperr.Rejection("add card to deck", http.StatusBadRequest, "Maximum 3 copies per card")
	}

	c, rec := newCoordinator(t, backend)
	ctx := context.Background()
	require.NoError(t, c.Refresh(ctx, alice))

	done := make(chan error, 1)
	go func() {
		_, err := c.AddCardToDeck(ctx, alice, "d1", "u-fury", 1)
		done <- err
	}()
	<-entered
	assert.Equal(t, resync.StateLoading, c.DeckState(alice, "d1"))

	_, err := c.AddCardToDeck(ctx, alice, "d2", "u-fury", 1)
	require.NoError(t, err)
	assert.Equal(t, resync.StateReady, c.DeckState(alice, "d2"))
	assert.Equal(t, resync.StateLoading, c.DeckState(alice, "d1"), "d1 is still waiting for its own call")

	close(release)
	err = <-done
	require.Error(t, err)
	assert.Equal(t, "Maximum 3 copies per card", apperr.Message(err))

	assert.Equal(t, resync.StateError, c.DeckState(alice, "d1"))
	assert.Equal(t, []string{
		"unsynced->loading",
		"loading->ready",
		"ready->loading",
		"loading->error",
	}, rec.transitions("d1"))

	// A later refresh recovers the deck.
	require.NoError(t, c.Refresh(ctx, alice))
	assert.Equal(t, resync.StateReady, c.DeckState(alice, "d1"))
}

func TestDeleteDeck(t *testing.T) {
	backend := newFakeBackend()
	backend.put(alice.Token, remote.DeckRecord{ID: "d1", Name: "Fury"})
	c, _ := newCoordinator(t, backend)
	ctx := context.Background()
	require.NoError(t, c.Refresh(ctx, alice))

	_, err := c.DeleteDeck(ctx, alice, "d1")
	require.NoError(t, err)

	_, ok := c.GetDeck(alice, "d1")
	assert.False(t, ok)
	assert.Equal(t, resync.StateUnsynced, c.DeckState(alice, "d1"))
}

func TestValidateDeck_UpdatesValidityOnRefresh(t *testing.T) {
	backend := newFakeBackend()
	backend.put(alice.Token, remote.DeckRecord{ID: "d1", Name: "Fury"})
	c, _ := newCoordinator(t, backend)
	ctx := context.Background()
	require.NoError(t, c.Refresh(ctx, alice))

	stats, _ := c.GetDeckStats(alice, "d1")
	assert.False(t, stats.IsValid)

	res, err := c.ValidateDeck(ctx, alice, "d1")
	require.NoError(t, err)
	assert.Equal(t, remote.ValidationResult{IsValid: true, Message: "Deck is valid"}, res)

	stats, _ = c.GetDeckStats(alice, "d1")
	assert.True(t, stats.IsValid)
}

func TestUpdateDeckName(t *testing.T) {
	backend := newFakeBackend()
	backend.put(alice.Token, remote.DeckRecord{ID: "d1", Name: "Old"})
	c, _ := newCoordinator(t, backend)
	ctx := context.Background()
	require.NoError(t, c.Refresh(ctx, alice))

	res, err := c.UpdateDeckName(ctx, alice, "d1", "New")
	require.NoError(t, err)
	assert.Equal(t, "New", res.Deck.Name)

	d, _ := c.GetDeck(alice, "d1")
	assert.Equal(t, "New", d.Name)
}

func TestGetDeckDetailed_DoesNotTouchCache(t *testing.T) {
	backend := newFakeBackend()
	c, _ := newCoordinator(t, backend)

	raw, err := c.GetDeckDetailed(context.Background(), alice, "d1")
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":"d1"}`, string(raw))
	assert.Equal(t, []string{"detailed:d1"}, backend.callLog())
	assert.Equal(t, resync.StateUnsynced, c.DeckState(alice, "d1"))
}

func TestGetDeck_IntegrityWarning(t *testing.T) {
	backend := newFakeBackend()
	backend.put(alice.Token, remote.DeckRecord{ID: "d1", LegendID: "leg-fury", Cards: []remote.DeckCardLine{
		{CardID: "U-FURY", Quantity: 2},
		{CardID: "RETIRED-9", Quantity: 3},
	}})
	c, rec := newCoordinator(t, backend)
	require.NoError(t, c.Refresh(context.Background(), alice))

	d, ok := c.GetDeck(alice, "d1")
	require.True(t, ok)
	assert.Equal(t, []string{"u-fury"}, lineIDs(d.Cards))

	warnings := rec.ofType(events.TypeIntegrityWarning)
	require.Len(t, warnings, 1)
	w, _ := events.PayloadAs[events.IntegrityWarning](warnings[0])
	assert.Equal(t, events.IntegrityWarning{DeckID: "d1", CardID: "RETIRED-9"}, w)
}

func TestListDecks(t *testing.T) {
	backend := newFakeBackend()
	backend.put(alice.Token, remote.DeckRecord{ID: "d1", Name: "Modern", LegendID: "LEG-FURY", Wins: 3})
	backend.put(alice.Token, remote.DeckRecord{ID: "d2", Name: "Legacy", Legend: &cards.Card{ID: "old", Name: "Old Legend"}})
	backend.put(bob.Token, remote.DeckRecord{ID: "d3", Name: "Bob's"})
	c, _ := newCoordinator(t, backend)
	ctx := context.Background()
	require.NoError(t, c.Refresh(ctx, alice))

	list := c.ListDecks(alice)
	require.Len(t, list, 2)
	assert.Equal(t, "leg-fury", list[0].Legend.ID)
	assert.Equal(t, 3, list[0].Wins)
	assert.Equal(t, "Old Legend", list[1].Legend.Name)

	assert.Empty(t, c.ListDecks(bob), "bob has not been refreshed")
	require.NoError(t, c.Refresh(ctx, bob))
	assert.Len(t, c.ListDecks(bob), 1)
	assert.Len(t, c.ListDecks(alice), 2)
}

func TestRefresh_LastRefreshWins(t *testing.T) {
	backend := newFakeBackend()
	backend.put(alice.Token, remote.DeckRecord{ID: "d1", Name: "Before"})

	firstTaken := make(chan struct{})
	releaseFirst := make(chan struct{})
	backend.onList = func(n int) {
		if n == 1 {
			close(firstTaken)
			<-releaseFirst
		}
	}

	c, _ := newCoordinator(t, backend)
	ctx := context.Background()

	done := make(chan error, 1)
	go func() { done <- c.Refresh(ctx, alice) }()
	<-firstTaken

	backend.mu.Lock()
	backend.decks[alice.Token][0].Name = "After"
	backend.mu.Unlock()

	require.NoError(t, c.Refresh(ctx, alice))
	close(releaseFirst)
	require.NoError(t, <-done)

	d, ok := c.GetDeck(alice, "d1")
	require.True(t, ok)
	assert.Equal(t, "After", d.Name, "the older response was discarded")
	assert.Equal(t, resync.StateReady, c.DeckState(alice, "d1"))
}

func TestClose_IgnoresInFlightRefresh(t *testing.T) {
	backend := newFakeBackend()
	backend.put(alice.Token, remote.DeckRecord{ID: "d1"})

	taken := make(chan struct{})
	release := make(chan struct{})
	backend.onList = func(int) {
		close(taken)
		<-release
	}

	c, _ := newCoordinator(t, backend)
	done := make(chan error, 1)
	go func() { done <- c.Refresh(context.Background(), alice) }()

	<-taken
	c.Close()
	close(release)
	require.NoError(t, <-done)

	_, ok := c.GetDeck(alice, "d1")
	assert.False(t, ok)
}

func TestDuplicateDeck(t *testing.T) {
	backend := newFakeBackend()
	backend.put(alice.Token, remote.DeckRecord{ID: "d1", Name: "Fury", LegendID: "leg-fury", Cards: []remote.DeckCardLine{
		{CardID: "B-ONE", Quantity: 1},
		{CardID: "R-FURY", Quantity: 12},
		{CardID: "U-FURY", Quantity: 3},
	}})
	c, _ := newCoordinator(t, backend)
	ctx := context.Background()
	require.NoError(t, c.Refresh(ctx, alice))

	res, err := c.DuplicateDeck(ctx, alice, "d1")
	require.NoError(t, err)
	require.NotNil(t, res.Deck)
	assert.Equal(t, 3, res.Copied)
	assert.Empty(t, res.Failed)

	require.Len(t, backend.created, 1)
	assert.Equal(t, "Fury (Copy)", backend.created[0].Name)
	assert.Equal(t, "LEG-FURY", backend.created[0].LegendID)
	assert.Equal(t, "Fire", backend.created[0].MainFaction)

	// Lines replay one at a time, bucket by bucket, and a single refresh
	// follows.
	id := res.Deck.ID
	assert.Equal(t, []string{
		"list",
		"create:Fury (Copy)",
		"add:" + id + ":U-FURY:3",
		"add:" + id + ":R-FURY:12",
		"add:" + id + ":B-ONE:1",
		"list",
	}, backend.callLog())

	copied, ok := c.GetDeck(alice, id)
	require.True(t, ok)
	orig, _ := c.GetDeckStats(alice, "d1")
	dup, _ := c.GetDeckStats(alice, id)
	assert.Equal(t, orig, dup)
	assert.Equal(t, "leg-fury", copied.Legend.ID)
}

func TestDuplicateDeck_PartialFailure(t *testing.T) {
	backend := newFakeBackend()
	backend.put(alice.Token, remote.DeckRecord{ID: "d1", Name: "Fury", LegendID: "leg-fury", Cards: []remote.DeckCardLine{
		{CardID: "U-FURY", Quantity: 2},
		{CardID: "C-FURY", Quantity: 1},
	}})
	c, _ := newCoordinator(t, backend)
	ctx := context.Background()
	require.NoError(t, c.Refresh(ctx, alice))

	backend.fail = func(method string, n int) error {
		if method == "add" && n == 2 {
			return apperr.Network("add card to deck", errors.New("connection reset"))
		}
		return nil
	}

	res, err := c.DuplicateDeck(ctx, alice, "d1")
	require.NoError(t, err, "the copy exists, so duplication succeeds")
	require.NotNil(t, res.Deck)
	assert.Equal(t, 1, res.Copied)
	assert.Equal(t, []string{"C-FURY"}, res.Failed)

	copied, ok := c.GetDeck(alice, res.Deck.ID)
	require.True(t, ok)
	require.Len(t, copied.Cards, 1)
	assert.Equal(t, "u-fury", copied.Cards[0].Card.ID)
	assert.Equal(t, 2, copied.Cards[0].Quantity)
	assert.Len(t, c.ListDecks(alice), 2)
}

func TestDuplicateDeck_Preconditions(t *testing.T) {
	backend := newFakeBackend()
	backend.put(alice.Token, remote.DeckRecord{ID: "orphan", Name: "No legend", Cards: []remote.DeckCardLine{
		{CardID: "U-FURY", Quantity: 1},
	}})
	c, _ := newCoordinator(t, backend)
	ctx := context.Background()
	require.NoError(t, c.Refresh(ctx, alice))

	_, err := c.DuplicateDeck(ctx, alice, "orphan")
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.KindPrecondition))
	assert.Equal(t, "Cannot duplicate: legend data missing", apperr.Message(err))

	_, err = c.DuplicateDeck(ctx, alice, "missing")
	assert.Equal(t, "Deck not found", apperr.Message(err))

	assert.Equal(t, []string{"list"}, backend.callLog())
}

func TestDuplicateDeck_CreateFails(t *testing.T) {
	backend := newFakeBackend()
	backend.put(alice.Token, remote.DeckRecord{ID: "d1", Name: "Fury", LegendID: "leg-fury"})
	c, _ := newCoordinator(t, backend)
	ctx := context.Background()
	require.NoError(t, c.Refresh(ctx, alice))

	backend.fail = func(method string, n int) error {
		if method == "create" {
			return apperr.Rejection("create deck", http.StatusBadRequest, "Deck limit reached")
		}
		return nil
	}

	_, err := c.DuplicateDeck(ctx, alice, "d1")
	require.Error(t, err)
	assert.Equal(t, "Deck limit reached", apperr.Message(err))
	assert.Equal(t, []string{"list", "create:Fury (Copy)"}, backend.callLog())
}
