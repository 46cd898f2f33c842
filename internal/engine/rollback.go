package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/openclaw/clawctl/internal/configdoc"
	"github.com/openclaw/clawctl/internal/diff"
	"github.com/openclaw/clawctl/internal/history"
)

// RollbackPreview is the before/after rendering of reverting to a
// snapshot. Read-only; computing it mutates nothing.
type RollbackPreview struct {
	SnapshotID   string `json:"snapshotId"`
	ConfigBefore string `json:"configBefore"` // current live config
	ConfigAfter  string `json:"configAfter"`  // the snapshot's captured state
	Diff         string `json:"diff"`
}

// PreviewRollback renders the diff between the current configuration
// and a snapshot's captured state.
func (e *Engine) PreviewRollback(ctx context.Context, snapshotID string) (*RollbackPreview, error) {
	item, err := e.history.Get(ctx, snapshotID)
	if err != nil {
		return nil, err
	}

	currentRaw, err := e.backend.ReadRawConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("preview rollback: %w", err)
	}

	before, err := prettyRaw(currentRaw)
	if err != nil {
		return nil, fmt.Errorf("preview rollback: current config: %w", err)
	}
	after, err := prettyRaw(item.Config)
	if err != nil {
		return nil, fmt.Errorf("preview rollback: snapshot config: %w", err)
	}

	return &RollbackPreview{
		SnapshotID:   snapshotID,
		ConfigBefore: before,
		ConfigAfter:  after,
		Diff:         diff.Unified(before, after),
	}, nil
}

// Rollback restores the configuration to a snapshot's captured state.
//
// Appends a new forward history entry with source="rollback" and
// rollbackOf=snapshotID; the target snapshot itself is never modified.
// Rolling back a snapshot whose CanRollback flag is cleared fails fast.
func (e *Engine) Rollback(ctx context.Context, snapshotID string) (*ApplyResult, error) {
	if !e.applyMu.TryLock() {
		return nil, newError(ErrCodeApplyInFlight, e.instance, "another apply or rollback is in flight")
	}
	defer e.applyMu.Unlock()

	item, err := e.history.Get(ctx, snapshotID)
	if err != nil {
		return nil, err
	}
	if !item.CanRollback {
		return nil, newError(ErrCodeNotRollbackable, e.instance,
			fmt.Sprintf("snapshot %s can no longer be rolled back (structural drift since capture)", snapshotID))
	}

	// Sanity-check the captured config before touching the live file.
	if _, err := configdoc.ParseString(item.Config); err != nil {
		return nil, newError(ErrCodeNotRollbackable, e.instance,
			fmt.Sprintf("snapshot %s holds unparseable config: %v", snapshotID, err))
	}

	// The state being replaced becomes the new entry's captured config,
	// so the rollback itself can be rolled back.
	currentRaw, err := e.backend.ReadRawConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("rollback: read current config: %w", err)
	}

	result := &ApplyResult{TotalCount: 1}

	if err := e.backend.WriteRawConfig(ctx, item.Config); err != nil {
		result.Error = fmt.Sprintf("restore failed: %v", err)
		result.RolledBack = false
		e.log.Error("ROLLBACK RESTORE FAILED: configuration state uncertain, inspect manually",
			"snapshot", snapshotID, "error", err)
		return result, nil
	}

	newID := e.ids.Generate()
	entry := history.Item{
		ID:          newID,
		Instance:    e.instance,
		Label:       fmt.Sprintf("Rollback of %s", item.Label),
		Source:      history.SourceRollback,
		CanRollback: true,
		RollbackOf:  snapshotID,
		Config:      currentRaw,
		CreatedAt:   time.Now().UTC(),
	}
	if err := e.history.Append(ctx, entry); err != nil {
		e.log.Error("rollback applied but history entry not persisted", "snapshot", newID, "error", err)
	}

	if err := e.tracker.Save(ctx); err != nil {
		e.log.Warn("re-baseline after rollback failed", "error", err)
	}

	if err := e.backend.RestartGateway(ctx); err != nil {
		result.RestartWarning = fmt.Sprintf("config restored but gateway restart failed: %v", err)
		e.log.Warn("gateway restart failed after rollback", "error", err)
	}

	result.OK = true
	result.AppliedCount = 1
	result.SnapshotID = newID
	e.log.Info("rolled back to snapshot", "target", snapshotID, "newEntry", newID)
	return result, nil
}

func prettyRaw(raw string) (string, error) {
	doc, err := configdoc.ParseString(raw)
	if err != nil {
		return "", err
	}
	return doc.Pretty()
}
