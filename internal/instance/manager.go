package instance

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"

	"github.com/openclaw/clawctl/internal/backend"
	"github.com/openclaw/clawctl/internal/baseline"
	"github.com/openclaw/clawctl/internal/engine"
	"github.com/openclaw/clawctl/internal/history"
	"github.com/openclaw/clawctl/internal/queue"
)

// Session bundles everything one instance needs: backend, pending
// queue, baseline tracker, engine, and dirty poller. Sessions are
// created lazily and cached by the Manager.
type Session struct {
	Name    string
	Backend backend.Backend
	Queue   *queue.Queue
	Tracker *baseline.Tracker
	Engine  *engine.Engine
	Poller  *baseline.Poller

	remote *backend.Remote // nil for local instances
	guard  func() bool
}

// Remote reports whether this session talks to an SSH-backed instance.
func (s *Session) Remote() bool {
	return s.remote != nil
}

// PollGuard reports whether dirty polling should be skipped right now:
// queued commands or an in-flight apply would make a poll read
// transient state as drift.
func (s *Session) PollGuard() bool {
	return s.guard()
}

// Connect establishes the transport. No-op for local instances.
func (s *Session) Connect() error {
	if s.remote == nil {
		return nil
	}
	return s.remote.Connect()
}

// Close stops the poller and tears down any transport.
func (s *Session) Close() error {
	s.Poller.Stop()
	if s.remote != nil {
		return s.remote.Close()
	}
	return nil
}

// Manager owns the per-instance sessions. All sessions share one
// history store (snapshots are keyed by instance) but nothing else.
type Manager struct {
	cfg      *Config
	history  *history.Store
	stateDir string // baseline persistence; "" = in-memory baselines
	log      *slog.Logger

	mu       sync.Mutex
	sessions map[string]*Session
}

// NewManager creates a manager over the declared instances. stateDir,
// when non-empty, is where per-instance baselines persist between
// processes.
func NewManager(cfg *Config, h *history.Store, stateDir string, log *slog.Logger) *Manager {
	if log == nil {
		log = slog.Default()
	}
	return &Manager{
		cfg:      cfg,
		history:  h,
		stateDir: stateDir,
		log:      log,
		sessions: make(map[string]*Session),
	}
}

// Session returns the session for the named instance, building it on
// first use. Empty name resolves to the configured default.
func (m *Manager) Session(name string) (*Session, error) {
	spec, err := m.cfg.Lookup(name)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if s, ok := m.sessions[spec.Name]; ok {
		return s, nil
	}

	s, err := m.build(spec)
	if err != nil {
		return nil, err
	}
	m.sessions[spec.Name] = s
	return s, nil
}

// Activate prepares a session for use: connects the transport, clears
// any stale poller state, and captures a baseline when none exists yet.
// The poller itself is started only by long-running modes.
func (m *Manager) Activate(ctx context.Context, name string) (*Session, error) {
	s, err := m.Session(name)
	if err != nil {
		return nil, err
	}
	if err := s.Connect(); err != nil {
		return nil, fmt.Errorf("connect instance %s: %w", s.Name, err)
	}

	s.Poller.Reset()

	// A baseline may already exist (persisted by an earlier process);
	// capturing again here would silently bless unapplied drift as the
	// new agreed point. Only the first activation captures.
	if _, captured := s.Tracker.Baseline(); !captured {
		if err := s.Tracker.Save(ctx); err != nil {
			// Non-fatal: dirty checks stay inaccurate until the next capture.
			m.log.Warn("baseline capture on activate failed", "instance", s.Name, "error", err)
		}
	}
	return s, nil
}

// Close tears down every cached session.
func (m *Manager) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	var firstErr error
	for _, s := range m.sessions {
		if err := s.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	m.sessions = make(map[string]*Session)
	return firstErr
}

func (m *Manager) build(spec Spec) (*Session, error) {
	log := m.log.With("instance", spec.Name)

	var (
		b      backend.Backend
		remote *backend.Remote
		err    error
	)
	if spec.Local {
		b = backend.NewLocal(spec.ConfigPath, spec.CLIPath, log)
	} else {
		remote, err = backend.NewRemote(backend.RemoteConfig{
			Host:       spec.Host,
			Port:       spec.Port,
			User:       spec.User,
			KeyPath:    spec.KeyPath,
			Password:   spec.Password,
			ConfigPath: spec.ConfigPath,
			CLIPath:    spec.CLIPath,
		}, log)
		if err != nil {
			return nil, fmt.Errorf("instance %s: %w", spec.Name, err)
		}
		b = remote
	}

	q := queue.New(engine.UUIDv7Generator{})
	tracker := baseline.NewTracker(b, log)
	if m.stateDir != "" {
		if err := q.SetPersistPath(filepath.Join(m.stateDir, "queue-"+spec.Name+".json")); err != nil {
			return nil, fmt.Errorf("instance %s: %w", spec.Name, err)
		}
		tracker.SetPersistPath(filepath.Join(m.stateDir, "baseline-"+spec.Name+".json"))
	}
	eng := engine.New(spec.Name, b, q, m.history, tracker, nil, log)

	interval, err := spec.pollInterval()
	if err != nil {
		return nil, err
	}
	if interval <= 0 {
		if spec.Local {
			interval = baseline.LocalPollInterval
		} else {
			interval = baseline.RemotePollInterval
		}
	}

	// Skip polls while queued intent or an in-flight apply exists; a
	// read landing mid-mutation would report transient state as dirty.
	guard := func() bool {
		return q.Len() > 0 || eng.Busy()
	}
	poller := baseline.NewPoller(tracker, interval, guard, nil, log)

	return &Session{
		Name:    spec.Name,
		Backend: b,
		Queue:   q,
		Tracker: tracker,
		Engine:  eng,
		Poller:  poller,
		remote:  remote,
		guard:   guard,
	}, nil
}
