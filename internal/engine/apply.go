package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/openclaw/clawctl/internal/history"
)

// ApplyResult is the outcome of committing the queue.
//
// Invariant: when OK is false, either every already-applied command was
// rolled back (RolledBack=true) or the restore itself failed and the
// document may be half-applied (RolledBack=false). There is no third
// state.
type ApplyResult struct {
	OK             bool   `json:"ok"`
	AppliedCount   int    `json:"appliedCount"`
	TotalCount     int    `json:"totalCount"`
	Error          string `json:"error,omitempty"`
	RolledBack     bool   `json:"rolledBack"`
	SnapshotID     string `json:"snapshotId,omitempty"`
	RestartWarning string `json:"restartWarning,omitempty"`
}

// ApplyOptions annotate the history entry a successful apply creates.
type ApplyOptions struct {
	Source   history.Source // defaults to SourceManual
	RecipeID string         // originating recipe, if any
	Label    string         // human-readable description of the batch
}

// Apply commits the queued commands against the live configuration,
// all-or-nothing.
//
// Commands run strictly in enqueue order. On the first failure every
// already-applied command is undone by restoring the pre-apply file
// byte-identical; partial configuration states are never left live. On
// success the queue is drained, a rollback-capable snapshot of the
// pre-apply state is appended to history, the baseline is re-saved, and
// the gateway is restarted best-effort (a restart failure is a warning,
// not a rollback - the config write already succeeded durably).
//
// Re-running an identical apply is safe: set/unset are idempotent and
// the snapshot insert is keyed on a fresh id.
func (e *Engine) Apply(ctx context.Context, opts ApplyOptions) (*ApplyResult, error) {
	if !e.applyMu.TryLock() {
		return nil, newError(ErrCodeApplyInFlight, e.instance, "another apply or rollback is in flight")
	}
	defer e.applyMu.Unlock()

	commands := e.queue.List()
	if len(commands) == 0 {
		return nil, newError(ErrCodeEmptyQueue, e.instance, "no queued commands to apply")
	}

	if opts.Source == "" {
		opts.Source = history.SourceManual
	}

	// Capture the pre-apply state first; it is both the rollback target
	// for a failed batch and the snapshot a successful batch persists.
	preRaw, err := e.backend.ReadRawConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("apply: read pre-apply config: %w", err)
	}

	result := &ApplyResult{TotalCount: len(commands)}

	for i, cmd := range commands {
		op, err := ParseCommand(cmd.Command)
		if err == nil {
			err = e.execute(ctx, op)
		}
		if err != nil {
			result.AppliedCount = i
			result.Error = fmt.Sprintf("command %q failed: %v", cmd.Label, err)
			e.log.Warn("apply failed, rolling back batch",
				"failedCommand", cmd.Label, "applied", i, "total", len(commands), "error", err)
			e.restoreAfterFailure(ctx, preRaw, result)
			return result, nil
		}
		e.log.Debug("applied command", "label", cmd.Label, "index", i)
	}

	// Commit succeeded; everything from here is bookkeeping.
	snapshotID := e.ids.Generate()
	item := history.Item{
		ID:          snapshotID,
		Instance:    e.instance,
		Label:       opts.Label,
		RecipeID:    opts.RecipeID,
		Source:      opts.Source,
		CanRollback: true,
		RollbackOf:  "",
		Config:      preRaw,
		CreatedAt:   time.Now().UTC(),
	}
	if err := e.history.Append(ctx, item); err != nil {
		// The config change is live; losing the snapshot only loses the
		// ability to roll it back from history.
		e.log.Error("config applied but snapshot not persisted", "snapshot", snapshotID, "error", err)
	}

	e.queue.DrainAll()

	if err := e.tracker.Save(ctx); err != nil {
		e.log.Warn("re-baseline after apply failed", "error", err)
	}

	if err := e.backend.RestartGateway(ctx); err != nil {
		result.RestartWarning = fmt.Sprintf("config applied but gateway restart failed: %v", err)
		e.log.Warn("gateway restart failed after apply", "error", err)
	}

	result.OK = true
	result.AppliedCount = len(commands)
	result.SnapshotID = snapshotID
	e.log.Info("applied queued commands", "count", len(commands), "snapshot", snapshotID)
	return result, nil
}

// execute runs one parsed op against the real backend.
func (e *Engine) execute(ctx context.Context, op Op) error {
	switch op.Kind {
	case OpConfigSet:
		// Token 4 is the raw JSON value, exactly as queued.
		return e.backend.RunConfigSet(ctx, op.Path, op.Tokens[4])
	case OpConfigUnset:
		return e.backend.RunConfigUnset(ctx, op.Path)
	default:
		_, err := e.backend.RunCLI(ctx, op.Tokens)
		return err
	}
}

// restoreAfterFailure rewrites the pre-apply config after a failed
// batch. If the restore itself fails we are in the one unrecoverable
// state this subsystem has; log loudly and tell the operator exactly
// what to do.
func (e *Engine) restoreAfterFailure(ctx context.Context, preRaw string, result *ApplyResult) {
	if err := e.backend.WriteRawConfig(ctx, preRaw); err != nil {
		result.RolledBack = false
		result.Error += fmt.Sprintf("; ROLLBACK FAILED (%v): configuration may be partially applied, inspect it manually before further changes", err)
		e.log.Error("ROLLBACK FAILED: configuration may be partially applied",
			"error", err, "appliedCount", result.AppliedCount)
		return
	}
	result.RolledBack = true
	e.log.Info("batch rolled back", "appliedCount", result.AppliedCount)
}
