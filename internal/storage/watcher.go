package storage

import (
	"context"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
)

// Refresher re-reads a store and publishes changes made elsewhere.
type Refresher interface {
	Refresh(ctx context.Context) error
}

// Watcher turns filesystem writes to the database file (and its WAL
// sidecars) into store refreshes, so a panel notices settings saved by a
// separate hookpad process.
type Watcher struct {
	store    Refresher
	path     string
	debounce time.Duration
	log      zerolog.Logger
}

func NewWatcher(store Refresher, dbPath string, debounce time.Duration, log zerolog.Logger) *Watcher {
	if debounce <= 0 {
		debounce = 200 * time.Millisecond
	}
	return &Watcher{
		store:    store,
		path:     filepath.Clean(dbPath),
		debounce: debounce,
		log:      log.With().Str("component", "config-watcher").Logger(),
	}
}

// Run blocks until ctx is cancelled.
func (w *Watcher) Run(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer fw.Close()

	// watch the directory: SQLite replaces and recreates the sidecar files
	if err := fw.Add(filepath.Dir(w.path)); err != nil {
		return err
	}

	w.log.Info().Str("path", w.path).Msg("watching config store")

	timer := time.NewTimer(0)
	if !timer.Stop() {
		<-timer.C
	}
	pending := false

	for {
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil

		case ev, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if !w.relevant(ev) {
				continue
			}
			if !timer.Stop() {
				select {
				case <-timer.C:
				default:
				}
			}
			timer.Reset(w.debounce)
			pending = true

		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			w.log.Error().Err(err).Msg("fsnotify error")

		case <-timer.C:
			if !pending {
				continue
			}
			pending = false
			if err := w.store.Refresh(ctx); err != nil {
				w.log.Error().Err(err).Msg("failed to refresh config")
			}
		}
	}
}

func (w *Watcher) relevant(ev fsnotify.Event) bool {
	if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Rename) {
		return false
	}
	name := filepath.Clean(ev.Name)
	return name == w.path || strings.HasPrefix(name, w.path+"-")
}
