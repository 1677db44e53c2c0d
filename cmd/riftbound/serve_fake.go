package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/Naokyoo/Riftbound-manager/internal/config"
	"github.com/Naokyoo/Riftbound-manager/internal/riftbound/cards"
	"github.com/Naokyoo/Riftbound-manager/internal/riftbound/remote"
	"github.com/Naokyoo/Riftbound-manager/internal/riftbound/remote/remotetest"
)

type userFlags []string

func (u *userFlags) String() string     { return strings.Join(*u, ",") }
func (u *userFlags) Set(v string) error { *u = append(*u, v); return nil }

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// runServeFake serves an in-memory persistence service for local use. With
// catalog.watch set, edits to the catalog file are picked up live.
func runServeFake(ctx context.Context, cfg *config.Config, logger *slog.Logger, args []string) error {
	fs := flag.NewFlagSet("serve-fake", flag.ContinueOnError)
	addr := fs.String("addr", ":5000", "Listen address")
	var users userFlags
	fs.Var(&users, "user", "token:username account (repeatable)")
	origins := fs.String("cors", "http://localhost:*,http://127.0.0.1:*", "Comma-separated allowed browser origins (empty disables CORS)")
	if err := fs.Parse(args); err != nil {
		return errUsage
	}
	if len(users) == 0 {
		users = userFlags{"dev-token:dev"}
	}

	catalog, err := loadCatalog(ctx, cfg)
	if err != nil {
		return err
	}
	holder := cards.NewHolder(catalog)

	srv := remotetest.NewServer(remotetest.Options{
		Catalog:        holder,
		MaxCopies:      cfg.Deck.MaxCopies,
		AllowedOrigins: splitList(*origins),
	})
	for _, u := range users {
		token, name, ok := strings.Cut(u, ":")
		if !ok || token == "" {
			return fmt.Errorf("invalid -user %q, want token:username", u)
		}
		srv.AddUser(token, remote.User{ID: token, Username: name})
	}

	if cfg.Catalog.Watch {
		w := cards.NewWatcher(cfg.Catalog.Path, holder, cards.WatcherOptions{Logger: logger.With("component", "catalog")})
		go func() {
			if err := w.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				logger.Error("catalog watcher stopped", "error", err)
			}
		}()
	}

	httpServer := &http.Server{
		Addr:              *addr,
		Handler:           srv,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		errCh <- httpServer.ListenAndServe()
	}()
	logger.Info("fake service listening", "addr", *addr, "base_url", "http://localhost"+*addr+"/api", "users", len(users))

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	fmt.Println()
	fmt.Println("Shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return httpServer.Shutdown(shutdownCtx)
}
