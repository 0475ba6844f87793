// Package worker keeps the served IPO feed fresh.
package worker

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/tartampluch/go-sambat/internal/config"
	"github.com/tartampluch/go-sambat/internal/engine"
)

// Syncer produces a feed. *engine.Generator implements it.
type Syncer interface {
	RunSync(ctx context.Context, cfg engine.SyncConfig) ([]byte, []engine.IPOEntry, int, error)
}

// Publisher receives each freshly rendered feed. *server.CalendarServer implements it.
type Publisher interface {
	Update(data []byte)
}

// Worker regenerates the feed on a ticker.
type Worker struct {
	Syncer    Syncer
	Publisher Publisher

	// Config is read before every sync so settings edits apply on the next run.
	Config func() engine.SyncConfig

	// Interval is re-read whenever Changes fires. Non-positive values mean the default.
	Interval func() time.Duration

	// Changes signals a settings change. May be nil.
	Changes <-chan struct{}

	mu        sync.RWMutex
	entries   []engine.IPOEntry
	openToday int
	lastSync  time.Time
}

// Run syncs immediately, then on every tick, until ctx is cancelled.
func (w *Worker) Run(ctx context.Context) {
	log := slog.With(config.LogKeyComponent, config.CompWorker)

	_ = w.SyncNow(ctx)

	currentDuration := w.interval()
	ticker := time.NewTicker(currentDuration)
	defer ticker.Stop()

	log.Info(config.MsgWorkerStart, config.LogKeyInterval, currentDuration)

	for {
		select {
		case <-ctx.Done():
			log.Info(config.MsgWorkerStop)
			return

		case <-w.Changes:
			newDuration := w.interval()
			if newDuration != currentDuration {
				log.Info(config.MsgUpdateSync, config.LogKeyOld, currentDuration, config.LogKeyNew, newDuration)
				currentDuration = newDuration
				ticker.Reset(currentDuration)
			}

		case <-ticker.C:
			_ = w.SyncNow(ctx)
		}
	}
}

// SyncNow runs one sync and publishes the result.
// A failed sync leaves the previously published feed in place.
func (w *Worker) SyncNow(ctx context.Context) error {
	var cfg engine.SyncConfig
	if w.Config != nil {
		cfg = w.Config()
	}

	icsData, entries, openToday, err := w.Syncer.RunSync(ctx, cfg)
	if err != nil {
		slog.Error(config.MsgSyncFailed,
			config.LogKeyComponent, config.CompWorker,
			config.LogKeyError, err,
		)
		return err
	}

	w.mu.Lock()
	w.entries = entries
	w.openToday = openToday
	w.lastSync = time.Now()
	w.mu.Unlock()

	w.Publisher.Update(icsData)
	return nil
}

// Snapshot returns the listing of the last successful sync.
func (w *Worker) Snapshot() (entries []engine.IPOEntry, openToday int, at time.Time) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.entries, w.openToday, w.lastSync
}

func (w *Worker) interval() time.Duration {
	if w.Interval != nil {
		if d := w.Interval(); d > 0 {
			return d
		}
	}
	return time.Duration(config.DefaultRefreshMin) * time.Minute
}
