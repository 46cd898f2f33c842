package engine

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/openclaw/clawctl/internal/backend"
	"github.com/openclaw/clawctl/internal/baseline"
	"github.com/openclaw/clawctl/internal/history"
	"github.com/openclaw/clawctl/internal/queue"
)

// Engine coordinates preview, apply, and rollback for one instance.
type Engine struct {
	instance string
	backend  backend.Backend
	queue    *queue.Queue
	history  *history.Store
	tracker  *baseline.Tracker
	ids      IDGenerator
	log      *slog.Logger

	// applyMu serializes apply and rollback. The contract requires at
	// most one in-flight commit per instance; TryLock turns a concurrent
	// attempt into a fast, explicit failure.
	applyMu sync.Mutex
}

// New creates an engine for one instance. ids may be nil (UUIDv7).
func New(instance string, b backend.Backend, q *queue.Queue, h *history.Store, t *baseline.Tracker, ids IDGenerator, log *slog.Logger) *Engine {
	if ids == nil {
		ids = UUIDv7Generator{}
	}
	if log == nil {
		log = slog.Default()
	}
	return &Engine{
		instance: instance,
		backend:  b,
		queue:    q,
		history:  h,
		tracker:  t,
		ids:      ids,
		log:      log.With("instance", instance),
	}
}

// Queue returns the engine's command queue.
func (e *Engine) Queue() *queue.Queue {
	return e.queue
}

// Busy reports whether an apply or rollback is currently in flight.
// Poll loops use this as part of their skip guard.
func (e *Engine) Busy() bool {
	if e.applyMu.TryLock() {
		e.applyMu.Unlock()
		return false
	}
	return true
}

// Discard empties the queue and re-establishes the baseline from the
// current configuration. Nothing was ever applied, so this forgets the
// proposed commands rather than reverting anything - no history entry
// is written.
func (e *Engine) Discard(ctx context.Context) error {
	dropped := e.queue.DrainAll()
	e.log.Info("discarded queued commands", "count", len(dropped))

	if err := e.tracker.Save(ctx); err != nil {
		return fmt.Errorf("re-baseline after discard: %w", err)
	}
	return nil
}
