package baseline

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Polling cadences. Remote polls are slower to bound SSH round-trip
// cost; local polls can afford a tighter loop.
const (
	LocalPollInterval  = 2 * time.Second
	RemotePollInterval = 10 * time.Second
)

// Poller periodically runs dirty checks and caches the latest state.
//
// It is a cancellable periodic task owned by the session lifecycle:
// Start launches the loop (with one immediate check), Stop tears it
// down. The guard callback implements the pause-while-mutating rule: a
// tick is skipped entirely while queued commands or an in-flight apply
// exist, so a stale read can never overwrite optimistic UI state.
type Poller struct {
	tracker  *Tracker
	interval time.Duration
	guard    func() bool       // true = skip this tick
	onChange func(DirtyState)  // invoked after every successful check
	log      *slog.Logger

	mu      sync.Mutex
	state   DirtyState
	stop    chan struct{}
	done    chan struct{}
	running bool
}

// NewPoller creates a poller. guard and onChange may be nil.
func NewPoller(tracker *Tracker, interval time.Duration, guard func() bool, onChange func(DirtyState), log *slog.Logger) *Poller {
	if log == nil {
		log = slog.Default()
	}
	return &Poller{
		tracker:  tracker,
		interval: interval,
		guard:    guard,
		onChange: onChange,
		log:      log,
	}
}

// Start launches the polling loop. The first check runs immediately so
// an instance switch reflects real state without waiting one interval.
// Calling Start on a running poller is a no-op.
func (p *Poller) Start(ctx context.Context) {
	p.mu.Lock()
	if p.running {
		p.mu.Unlock()
		return
	}
	p.running = true
	p.stop = make(chan struct{})
	p.done = make(chan struct{})
	stop, done := p.stop, p.done
	p.mu.Unlock()

	go func() {
		defer close(done)

		p.tick(ctx)

		ticker := time.NewTicker(p.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				p.tick(ctx)
			case <-stop:
				return
			case <-ctx.Done():
				return
			}
		}
	}()
}

// Stop cancels the polling loop and waits for it to exit.
// Safe to call on a never-started or already-stopped poller.
func (p *Poller) Stop() {
	p.mu.Lock()
	if !p.running {
		p.mu.Unlock()
		return
	}
	p.running = false
	stop, done := p.stop, p.done
	p.mu.Unlock()

	close(stop)
	<-done
}

// Reset force-clears the cached dirty flag. Called on instance switch
// before the first real check resolves, so stale state from the
// previous instance never flashes through.
func (p *Poller) Reset() {
	p.mu.Lock()
	p.state = DirtyState{}
	p.mu.Unlock()
}

// State returns the most recent dirty state.
func (p *Poller) State() DirtyState {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

func (p *Poller) tick(ctx context.Context) {
	if p.guard != nil && p.guard() {
		// Queued intent or an in-flight apply; this cycle's read would
		// be stale by the time it lands.
		return
	}

	state, err := p.tracker.CheckDirty(ctx)
	if err != nil {
		// One missed poll is invisible; persistent failure shows up as
		// the state never updating.
		p.log.Debug("dirty check failed, skipping cycle", "error", err)
		return
	}

	p.mu.Lock()
	p.state = state
	p.mu.Unlock()

	if p.onChange != nil {
		p.onChange(state)
	}
}
