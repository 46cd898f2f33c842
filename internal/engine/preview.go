package engine

import (
	"context"
	"fmt"

	"github.com/openclaw/clawctl/internal/configdoc"
	"github.com/openclaw/clawctl/internal/diff"
	"github.com/openclaw/clawctl/internal/queue"
)

// CommandError is one command's failure during a preview replay.
type CommandError struct {
	CommandID string `json:"commandId"`
	Label     string `json:"label"`
	Message   string `json:"message"`
}

// PreviewResult is the materialized effect of the queue, computed on
// demand. Never persisted: the underlying configuration may change
// between previews, so every request recomputes from scratch.
type PreviewResult struct {
	Commands     []queue.PendingCommand `json:"commands"`
	ConfigBefore string                 `json:"configBefore"`
	ConfigAfter  string                 `json:"configAfter"`
	Diff         string                 `json:"diff"`
	Errors       []CommandError         `json:"errors,omitempty"`
}

// Preview replays the queued commands against a scratch copy of the
// current configuration and returns before/after renderings plus every
// per-command failure.
//
// A failing command does not halt the replay: the operator sees the
// full intended result with all problems flagged at once. Calling
// Preview twice without intervening mutation yields identical output.
func (e *Engine) Preview(ctx context.Context) (*PreviewResult, error) {
	raw, err := e.backend.ReadRawConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("preview: %w", err)
	}
	doc, err := configdoc.ParseString(raw)
	if err != nil {
		return nil, fmt.Errorf("preview: %w", err)
	}

	before, err := doc.Pretty()
	if err != nil {
		return nil, fmt.Errorf("preview: %w", err)
	}

	commands := e.queue.List()
	scratch := doc.Clone()

	var cmdErrs []CommandError
	for _, cmd := range commands {
		op, err := ParseCommand(cmd.Command)
		if err != nil {
			cmdErrs = append(cmdErrs, CommandError{CommandID: cmd.ID, Label: cmd.Label, Message: err.Error()})
			continue
		}
		if err := op.replay(scratch); err != nil {
			cmdErrs = append(cmdErrs, CommandError{CommandID: cmd.ID, Label: cmd.Label, Message: err.Error()})
		}
	}

	after, err := scratch.Pretty()
	if err != nil {
		return nil, fmt.Errorf("preview: %w", err)
	}

	return &PreviewResult{
		Commands:     commands,
		ConfigBefore: before,
		ConfigAfter:  after,
		Diff:         diff.Unified(before, after),
		Errors:       cmdErrs,
	}, nil
}
