// Package harness runs end-to-end queue/preview/apply scenarios against
// an in-memory backend and compares their outcomes to golden files.
//
// Scenarios use the real engine, queue, tracker, and history store; only
// the backend is faked. IDs come from fixed generators so runs are fully
// deterministic.
package harness

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/openclaw/clawctl/internal/baseline"
	"github.com/openclaw/clawctl/internal/configdoc"
	"github.com/openclaw/clawctl/internal/engine"
	"github.com/openclaw/clawctl/internal/history"
	"github.com/openclaw/clawctl/internal/queue"
	"github.com/openclaw/clawctl/internal/testutil"
)

// Command is one queued step of a scenario.
type Command struct {
	Label  string
	Tokens []string
}

// Scenario is a deterministic queue/preview/apply run.
type Scenario struct {
	Name          string
	InitialConfig string    // raw config the backend starts with
	Commands      []Command // enqueued in order

	// FailSet injects a backend failure for a dotted path: the command
	// passes preview (which is structural) but fails during apply,
	// exercising the rollback path.
	FailSet map[string]string
}

// Result captures everything a scenario produced.
type Result struct {
	Preview     *engine.PreviewResult
	Apply       *engine.ApplyResult
	FinalConfig string // canonical serialization after apply
	Backend     *testutil.FakeBackend
}

// Run executes a scenario: enqueue all commands, preview, apply, read
// back the final state. Each scenario gets a fresh in-memory history
// store and backend.
func Run(scenario *Scenario) (*Result, error) {
	backend := testutil.NewFakeBackend(scenario.InitialConfig)
	if len(scenario.FailSet) > 0 {
		backend.FailSetPaths = make(map[string]error, len(scenario.FailSet))
		for path, msg := range scenario.FailSet {
			backend.FailSetPaths[path] = errors.New(msg)
		}
	}

	store, err := history.Open(":memory:")
	if err != nil {
		return nil, fmt.Errorf("open in-memory history: %w", err)
	}
	defer store.Close()

	cmdIDs := make([]string, len(scenario.Commands))
	for i := range cmdIDs {
		cmdIDs[i] = fmt.Sprintf("cmd-%d", i+1)
	}

	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	q := queue.New(engine.NewFixedGenerator(cmdIDs...))
	tracker := baseline.NewTracker(backend, log)
	eng := engine.New("golden", backend, q, store, tracker, engine.NewFixedGenerator("snap-1"), log)

	for _, cmd := range scenario.Commands {
		q.Add(cmd.Label, cmd.Tokens)
	}

	ctx := context.Background()

	preview, err := eng.Preview(ctx)
	if err != nil {
		return nil, fmt.Errorf("preview: %w", err)
	}

	apply, err := eng.Apply(ctx, engine.ApplyOptions{Label: scenario.Name})
	if err != nil {
		return nil, fmt.Errorf("apply: %w", err)
	}

	final, err := canonicalize(backend.Raw)
	if err != nil {
		return nil, fmt.Errorf("final config: %w", err)
	}

	return &Result{
		Preview:     preview,
		Apply:       apply,
		FinalConfig: final,
		Backend:     backend,
	}, nil
}

func canonicalize(raw string) (string, error) {
	doc, err := configdoc.ParseString(raw)
	if err != nil {
		return "", err
	}
	return doc.Canonical()
}
