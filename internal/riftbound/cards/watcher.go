package cards

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// WatcherOptions configures a catalog file watcher.
type WatcherOptions struct {
	Logger *slog.Logger

	// Debounce delays a reload until writes to the file settle.
	// Default: 250ms
	Debounce time.Duration

	// OnReload is called after a successful swap.
	OnReload func(*Catalog)
}

// Watcher reloads a JSON catalog file into a Holder whenever it changes.
// A file that fails to parse leaves the previous catalog in place.
type Watcher struct {
	path     string
	holder   *Holder
	logger   *slog.Logger
	debounce time.Duration
	onReload func(*Catalog)
}

// NewWatcher creates a watcher for path feeding holder.
func NewWatcher(path string, holder *Holder, opts WatcherOptions) *Watcher {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Debounce <= 0 {
		opts.Debounce = 250 * time.Millisecond
	}
	return &Watcher{
		path:     filepath.Clean(path),
		holder:   holder,
		logger:   opts.Logger,
		debounce: opts.Debounce,
		onReload: opts.OnReload,
	}
}

// Reload parses the file and swaps it into the holder.
func (w *Watcher) Reload() error {
	catalog, err := LoadFile(w.path)
	if err != nil {
		return err
	}
	w.holder.Swap(catalog)
	w.logger.Info("catalog reloaded", "path", w.path, "cards", catalog.Len())
	if w.onReload != nil {
		w.onReload(catalog)
	}
	return nil
}

// Run watches the catalog file until ctx is cancelled. The parent directory
// is watched so that editors replacing the file by rename are picked up.
func (w *Watcher) Run(ctx context.Context) (err error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}
	defer func() {
		if closeErr := watcher.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
	}()

	if err := watcher.Add(filepath.Dir(w.path)); err != nil {
		return fmt.Errorf("failed to watch catalog directory: %w", err)
	}

	var pending <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != w.path {
				continue
			}
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) || event.Has(fsnotify.Rename) {
				pending = time.After(w.debounce)
			}
		case werr, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("catalog watcher error", "error", werr)
		case <-pending:
			pending = nil
			if rerr := w.Reload(); rerr != nil {
				w.logger.Warn("catalog reload failed, keeping previous catalog", "path", w.path, "error", rerr)
			}
		}
	}
}
