package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/Naokyoo/Riftbound-manager/internal/config"
	"github.com/Naokyoo/Riftbound-manager/internal/events"
	"github.com/Naokyoo/Riftbound-manager/internal/metrics"
	"github.com/Naokyoo/Riftbound-manager/internal/riftbound/cards"
	"github.com/Naokyoo/Riftbound-manager/internal/riftbound/collection"
	"github.com/Naokyoo/Riftbound-manager/internal/riftbound/deck"
	"github.com/Naokyoo/Riftbound-manager/internal/riftbound/remote"
	"github.com/Naokyoo/Riftbound-manager/internal/session"
	"github.com/Naokyoo/Riftbound-manager/internal/storage"
	"github.com/Naokyoo/Riftbound-manager/internal/version"
)

// app wires the engine for one CLI invocation.
type app struct {
	cfg    *config.Config
	logger *slog.Logger

	client      *remote.Client
	metrics     *metrics.ClientMetrics
	catalog     *cards.Holder
	events      *events.EventDispatcher
	ledger      *collection.Ledger
	coordinator *deck.Coordinator
	store       *session.FileStore
}

func newApp(cfg *config.Config, logger *slog.Logger) (*app, error) {
	catalog, err := loadCatalog(context.Background(), cfg)
	if err != nil {
		return nil, err
	}
	logger.Debug("catalog loaded", "cards", catalog.Len())

	timeout, err := cfg.APITimeout()
	if err != nil {
		return nil, err
	}
	clientMetrics := metrics.NewClientMetrics()
	client := remote.NewClient(remote.Options{
		BaseURL:           cfg.API.BaseURL,
		Timeout:           timeout,
		RequestsPerSecond: cfg.API.RequestsPerSecond,
		ReadRetries:       cfg.API.ReadRetries,
		Logger:            logger.With("component", "remote"),
		UserAgent:         version.UserAgent(),
		Metrics:           clientMetrics,
	})

	dispatcher := events.NewEventDispatcher(logger)
	dispatcher.Register(events.NewLogObserver(logger.With("component", "events"), cfg.Log.Debug))

	holder := cards.NewHolder(catalog)
	return &app{
		cfg:     cfg,
		logger:  logger,
		client:  client,
		metrics: clientMetrics,
		catalog: holder,
		events:  dispatcher,
		ledger: collection.NewLedger(client, collection.Options{
			Catalog: holder,
			Events:  dispatcher,
			Logger:  logger.With("component", "collection"),
		}),
		coordinator: deck.NewCoordinator(client, holder, deck.Options{
			Events:    dispatcher,
			Logger:    logger.With("component", "deck"),
			MaxCopies: cfg.Deck.MaxCopies,
			Targets: deck.Targets{
				MainSize:     cfg.Deck.MainSize,
				Runes:        cfg.Deck.RuneCount,
				Battlefields: cfg.Deck.BattlefieldCount,
			},
		}),
		store: session.NewFileStore(cfg.Session.File, sessionPassphrase(cfg), session.KDFParams{}),
	}, nil
}

// Close stops the caches from applying late responses.
func (a *app) Close() {
	a.ledger.Close()
	a.coordinator.Close()

	if stats := a.metrics.GetStats(); stats.Requests > 0 {
		a.logger.Debug("remote calls",
			"requests", stats.Requests,
			"retries", stats.Retries,
			"rejections", stats.Rejections,
			"failures", stats.Failures,
			"p50_ms", stats.Latency.P50,
			"p95_ms", stats.Latency.P95)
	}
}

// loadCatalog reads the JSON catalog when one is configured, otherwise the
// catalog database.
func loadCatalog(ctx context.Context, cfg *config.Config) (*cards.Catalog, error) {
	if cfg.Catalog.Path != "" {
		catalog, err := cards.LoadFile(cfg.Catalog.Path)
		if err != nil {
			return nil, fmt.Errorf("load catalog: %w", err)
		}
		return catalog, nil
	}

	if _, err := os.Stat(cfg.Catalog.DBPath); err != nil {
		return nil, fmt.Errorf("no catalog: set catalog.path or run 'riftbound catalog import <cards.json>'")
	}
	db, err := storage.Open(storage.DefaultConfig(cfg.Catalog.DBPath))
	if err != nil {
		return nil, err
	}
	defer db.Close()

	catalog, err := storage.LoadCatalog(ctx, db)
	if err != nil {
		return nil, fmt.Errorf("load catalog: %w", err)
	}
	return catalog, nil
}

// sessionPassphrase returns the passphrase protecting the stored credential.
// Without an explicit one the file is bound to this user and host.
func sessionPassphrase(cfg *config.Config) string {
	if cfg.Session.Passphrase != "" {
		return cfg.Session.Passphrase
	}
	host, _ := os.Hostname()
	home, _ := os.UserHomeDir()
	return "riftbound:" + host + ":" + home
}

// token returns the credential to use: the environment first, then the
// stored one. No credential yields "".
func (a *app) token() (string, error) {
	if a.cfg.Session.Token != "" {
		return a.cfg.Session.Token, nil
	}
	token, err := a.store.Load()
	if errors.Is(err, session.ErrNoCredential) {
		return "", nil
	}
	return token, err
}

// session returns the current caller. Commands reading private data call
// it with required set and fail without a credential.
func (a *app) session(required bool) (session.Session, error) {
	token, err := a.token()
	if err != nil {
		return session.Session{}, err
	}
	sess := session.New(token)
	if required && !sess.Authenticated() {
		return sess, fmt.Errorf("not signed in: run 'riftbound login <token>'")
	}
	if sess.Expired(time.Now()) {
		a.logger.Warn("stored credential has expired; the service will likely reject it")
	}
	return sess, nil
}
