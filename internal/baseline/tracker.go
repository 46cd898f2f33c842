// Package baseline tracks the "before" reference for dirty detection.
//
// A baseline is captured once per instance activation (and re-captured
// after every apply or discard). The dirty check is always current vs.
// baseline, never current vs. previous-current: history of intermediate
// states is irrelevant, only divergence from the last agreed point.
package baseline

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sync"

	"github.com/openclaw/clawctl/internal/backend"
	"github.com/openclaw/clawctl/internal/configdoc"
	"github.com/openclaw/clawctl/internal/diff"
)

// Tracker holds at most one active baseline per instance.
type Tracker struct {
	backend backend.Backend
	log     *slog.Logger

	mu          sync.RWMutex
	baseline    string // canonical serialization; "" until first Save
	captured    bool
	persistPath string // "" = in-memory only
}

// NewTracker creates a tracker bound to one instance's backend.
func NewTracker(b backend.Backend, log *slog.Logger) *Tracker {
	if log == nil {
		log = slog.Default()
	}
	return &Tracker{backend: b, log: log}
}

// Save captures the current configuration as the new baseline.
//
// On capture failure (I/O error, unreachable remote) the previous
// baseline is left intact and the error is returned for the caller to
// log; dirty checks are simply inaccurate until the next successful
// capture. This is deliberately non-fatal.
func (t *Tracker) Save(ctx context.Context) error {
	canonical, err := t.readCanonical(ctx)
	if err != nil {
		t.log.Warn("baseline capture failed, keeping previous baseline", "error", err)
		return err
	}

	t.mu.Lock()
	t.baseline = canonical
	t.captured = true
	path := t.persistPath
	t.mu.Unlock()

	if path != "" {
		// Best-effort: losing the persisted copy only means the next
		// process starts without a comparison point.
		if err := os.WriteFile(path, []byte(canonical), 0644); err != nil {
			t.log.Warn("baseline not persisted", "path", path, "error", err)
		}
	}

	t.log.Debug("baseline saved", "bytes", len(canonical))
	return nil
}

// SetPersistPath enables baseline persistence across processes. If a
// previously persisted baseline exists at path it becomes the current
// baseline; subsequent saves rewrite the file.
func (t *Tracker) SetPersistPath(path string) {
	data, err := os.ReadFile(path)

	t.mu.Lock()
	defer t.mu.Unlock()
	t.persistPath = path
	if err == nil && len(data) > 0 && !t.captured {
		t.baseline = string(data)
		t.captured = true
	}
}

// Baseline returns the current baseline and whether one has been
// captured yet.
func (t *Tracker) Baseline() (string, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.baseline, t.captured
}

// DirtyState is the result of one dirty check.
type DirtyState struct {
	Dirty    bool   `json:"dirty"`
	Baseline string `json:"baseline"`
	Current  string `json:"current"`
	Diff     string `json:"diff,omitempty"`
}

// CheckDirty compares the current configuration against the baseline.
// Returns an error (and no state) when the current config cannot be
// read; a check before any baseline capture reports not-dirty.
func (t *Tracker) CheckDirty(ctx context.Context) (DirtyState, error) {
	current, err := t.readCanonical(ctx)
	if err != nil {
		return DirtyState{}, err
	}

	base, captured := t.Baseline()
	if !captured {
		// No comparison point yet; report clean rather than guessing.
		return DirtyState{Dirty: false, Baseline: current, Current: current}, nil
	}

	state := DirtyState{
		Dirty:    base != current,
		Baseline: base,
		Current:  current,
	}
	if state.Dirty {
		state.Diff = prettyDiff(base, current)
	}
	return state, nil
}

func (t *Tracker) readCanonical(ctx context.Context) (string, error) {
	raw, err := t.backend.ReadRawConfig(ctx)
	if err != nil {
		return "", fmt.Errorf("read config: %w", err)
	}
	doc, err := configdoc.ParseString(raw)
	if err != nil {
		return "", err
	}
	return doc.Canonical()
}

// prettyDiff re-renders two canonical serializations as indented JSON
// and diffs them line by line. Falls back to diffing the canonical text
// if either side fails to parse (should not happen - both came from
// Canonical()).
func prettyDiff(base, current string) string {
	bd, errB := configdoc.ParseString(base)
	cd, errC := configdoc.ParseString(current)
	if errB != nil || errC != nil {
		return diff.Unified(base, current)
	}
	bp, errB := bd.Pretty()
	cp, errC := cd.Pretty()
	if errB != nil || errC != nil {
		return diff.Unified(base, current)
	}
	return diff.Unified(bp, cp)
}
