// Package remotetest provides an in-memory implementation of the Riftbound
// persistence service. It speaks the same {success, data|error} protocol as
// the real service and supports fault injection, so engine code can be tested
// end to end against a real HTTP transport.
package remotetest

import (
	"net/http"
	"strings"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/Naokyoo/Riftbound-manager/internal/riftbound/cardid"
	"github.com/Naokyoo/Riftbound-manager/internal/riftbound/cards"
	"github.com/Naokyoo/Riftbound-manager/internal/riftbound/remote"
)

// Route names used for fault injection and call recording.
const (
	RouteMe               = "auth.me"
	RouteGetCollection    = "collection.get"
	RouteAddCard          = "collection.add"
	RouteRemoveCard       = "collection.remove"
	RouteFavorite         = "collection.favorite"
	RouteListDecks        = "decks.list"
	RouteCreateDeck       = "decks.create"
	RouteGetDeckDetailed  = "decks.detailed"
	RouteUpdateDeck       = "decks.update"
	RouteDeleteDeck       = "decks.delete"
	RouteAddDeckCard      = "decks.addCard"
	RouteRemoveDeckCard   = "decks.removeCard"
	RouteValidateDeck     = "decks.validate"
	RouteRecordGameResult = "decks.gameResult"
)

// Options configures a Server.
type Options struct {
	// Catalog, when set, is used to reject unknown cards, to join rarity and
	// type onto collection entries and to validate decks.
	Catalog cards.Source

	// MaxCopies caps copies of a main deck card. Zero uses 3.
	MaxCopies int

	// AllowedOrigins enables CORS for browser clients. Patterns such as
	// "http://localhost:*" are accepted. Empty disables CORS.
	AllowedOrigins []string
}

// Fault makes a route fail. The first Skip matching calls succeed, then the
// next Times calls (zero means every call) fail with Status and Error.
type Fault struct {
	Route  string
	Skip   int
	Times  int
	Status int
	Error  string
}

// Call is a recorded request.
type Call struct {
	Route  string
	Token  string
	DeckID string
	CardID string
}

type account struct {
	user       remote.User
	collection []*remote.OwnershipEntry
	decks      []*remote.DeckRecord
}

// Server is the in-memory service. It implements http.Handler; mount it
// under httptest.NewServer and point the client at <url>/api.
type Server struct {
	router    chi.Router
	catalog   cards.Source
	maxCopies int

	mu       sync.Mutex
	accounts map[string]*account // keyed by bearer token
	faults   []*faultState
	calls    []Call
}

type faultState struct {
	Fault
	seen   int
	failed int
}

// NewServer creates an empty service.
func NewServer(opts Options) *Server {
	s := &Server{
		router:    chi.NewRouter(),
		catalog:   opts.Catalog,
		maxCopies: opts.MaxCopies,
		accounts:  make(map[string]*account),
	}
	if s.maxCopies <= 0 {
		s.maxCopies = 3
	}
	s.setupMiddleware(opts.AllowedOrigins)
	s.setupRoutes()
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) setupMiddleware(origins []string) {
	s.router.Use(middleware.Recoverer)
	if len(origins) == 0 {
		return
	}
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
}

func (s *Server) setupRoutes() {
	s.router.Route("/api", func(r chi.Router) {
		r.Get("/auth/me", s.handle(RouteMe, s.me))

		r.Route("/collections", func(r chi.Router) {
			r.Get("/me/detailed", s.handle(RouteGetCollection, s.getCollection))
			r.Post("/cards", s.handle(RouteAddCard, s.addCollectionCard))
			r.Delete("/cards/{cardID}", s.handle(RouteRemoveCard, s.removeCollectionCard))
			r.Put("/cards/{cardID}/favorite", s.handle(RouteFavorite, s.setFavorite))
		})

		r.Route("/decks", func(r chi.Router) {
			r.Get("/", s.handle(RouteListDecks, s.listDecks))
			r.Post("/", s.handle(RouteCreateDeck, s.createDeck))
			r.Get("/{deckID}/detailed", s.handle(RouteGetDeckDetailed, s.getDeckDetailed))
			r.Put("/{deckID}", s.handle(RouteUpdateDeck, s.updateDeck))
			r.Delete("/{deckID}", s.handle(RouteDeleteDeck, s.deleteDeck))
			r.Post("/{deckID}/cards", s.handle(RouteAddDeckCard, s.addDeckCard))
			r.Delete("/{deckID}/cards/{cardID}", s.handle(RouteRemoveDeckCard, s.removeDeckCard))
			r.Post("/{deckID}/validate", s.handle(RouteValidateDeck, s.validateDeck))
			r.Post("/{deckID}/game-result", s.handle(RouteRecordGameResult, s.recordGameResult))
		})
	})
}

type accountHandler func(w http.ResponseWriter, r *http.Request, acc *account)

// handle authenticates the caller, records the call, applies injected faults
// and runs h with the state lock held.
func (s *Server) handle(route string, h accountHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")

		s.mu.Lock()
		defer s.mu.Unlock()

		s.calls = append(s.calls, Call{
			Route:  route,
			Token:  token,
			DeckID: chi.URLParam(r, "deckID"),
			CardID: chi.URLParam(r, "cardID"),
		})

		acc, ok := s.accounts[token]
		if token == "" || !ok {
			fail(w, http.StatusUnauthorized, "Not authorized")
			return
		}

		if f := s.matchFault(route); f != nil {
			status := f.Status
			if status == 0 {
				status = http.StatusInternalServerError
			}
			msg := f.Error
			if msg == "" {
				msg = "Injected failure"
			}
			fail(w, status, msg)
			return
		}

		h(w, r, acc)
	}
}

func (s *Server) matchFault(route string) *faultState {
	for _, f := range s.faults {
		if f.Route != route {
			continue
		}
		f.seen++
		if f.seen <= f.Skip {
			continue
		}
		if f.Times > 0 && f.failed >= f.Times {
			continue
		}
		f.failed++
		return f
	}
	return nil
}

// AddUser registers a user reachable through token.
func (s *Server) AddUser(token string, user remote.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.accounts[token] = &account{user: user}
}

// Inject adds a fault.
func (s *Server) Inject(f Fault) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.faults = append(s.faults, &faultState{Fault: f})
}

// ClearFaults removes every injected fault.
func (s *Server) ClearFaults() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.faults = nil
}

// Calls returns the recorded requests in arrival order.
func (s *Server) Calls() []Call {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Call, len(s.calls))
	copy(out, s.calls)
	return out
}

// CallsTo returns the recorded requests for one route.
func (s *Server) CallsTo(route string) []Call {
	var out []Call
	for _, c := range s.Calls() {
		if c.Route == route {
			out = append(out, c)
		}
	}
	return out
}

// Collection returns a copy of the ownership state stored for token.
func (s *Server) Collection(token string) []remote.OwnershipEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	acc, ok := s.accounts[token]
	if !ok {
		return nil
	}
	out := make([]remote.OwnershipEntry, 0, len(acc.collection))
	for _, e := range acc.collection {
		out = append(out, *e)
	}
	return out
}

// Decks returns a copy of the decks stored for token.
func (s *Server) Decks(token string) []remote.DeckRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	acc, ok := s.accounts[token]
	if !ok {
		return nil
	}
	out := make([]remote.DeckRecord, 0, len(acc.decks))
	for _, d := range acc.decks {
		out = append(out, copyDeck(d))
	}
	return out
}

// PutDeck stores a deck for token as-is, replacing any deck with the same id.
func (s *Server) PutDeck(token string, deck remote.DeckRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	acc, ok := s.accounts[token]
	if !ok {
		return
	}
	d := copyDeck(&deck)
	for i, existing := range acc.decks {
		if existing.ID == deck.ID {
			acc.decks[i] = &d
			return
		}
	}
	acc.decks = append(acc.decks, &d)
}

func copyDeck(d *remote.DeckRecord) remote.DeckRecord {
	out := *d
	out.Cards = append([]remote.DeckCardLine(nil), d.Cards...)
	return out
}

func (s *Server) lookup(id string) (*cards.Card, bool) {
	if s.catalog == nil {
		return nil, false
	}
	return s.catalog.FindByID(cardid.Normalize(id))
}

func (s *Server) knownCard(id string) bool {
	if s.catalog == nil {
		return true
	}
	_, ok := s.lookup(id)
	return ok
}
