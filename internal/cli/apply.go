package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/openclaw/clawctl/internal/engine"
	"github.com/openclaw/clawctl/internal/history"
)

// NewApplyCommand creates the apply command.
func NewApplyCommand(rootOpts *RootOptions) *cobra.Command {
	var label string

	cmd := &cobra.Command{
		Use:   "apply",
		Short: "Commit all queued commands, all-or-nothing",
		Long: `Executes the queued commands in order against the live instance. If any
command fails, the pre-apply configuration is restored byte-identical
and the queue is left intact for correction. On success the queue is
drained, a rollback-capable snapshot is recorded, and the gateway is
restarted so the changes take effect.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := openApp(rootOpts)
			if err != nil {
				return err
			}
			defer app.Close()

			s, err := app.session(cmd.Context(), rootOpts)
			if err != nil {
				return err
			}

			result, err := s.Engine.Apply(cmd.Context(), engine.ApplyOptions{
				Source: history.SourceManual,
				Label:  applyLabel(label, s.Queue.Len()),
			})
			if err != nil {
				return WrapExitError(ExitCommandError, "apply refused", err)
			}

			formatter := &OutputFormatter{
				Format:  rootOpts.Format,
				Writer:  cmd.OutOrStdout(),
				Verbose: rootOpts.Verbose,
			}
			if err := formatter.SuccessText(renderApply(result), result); err != nil {
				return err
			}
			if !result.OK {
				code := ExitFailure
				if !result.RolledBack {
					code = ExitCommandError
				}
				return NewExitError(code, "apply failed")
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&label, "label", "", "history label for this batch")
	return cmd
}

func applyLabel(label string, count int) string {
	if label != "" {
		return label
	}
	return fmt.Sprintf("Manual apply of %d command(s)", count)
}

func renderApply(result *engine.ApplyResult) string {
	var b strings.Builder

	if result.OK {
		fmt.Fprintf(&b, "Applied %d command(s). Snapshot %s recorded.", result.AppliedCount, result.SnapshotID)
		if result.RestartWarning != "" {
			fmt.Fprintf(&b, "\nWarning: %s", result.RestartWarning)
		}
		return b.String()
	}

	fmt.Fprintf(&b, "Apply failed after %d of %d command(s): %s", result.AppliedCount, result.TotalCount, result.Error)
	if result.RolledBack {
		b.WriteString("\nAll applied commands were rolled back; the queue is unchanged - fix and retry.")
	} else {
		b.WriteString("\nROLLBACK FAILED: the configuration may be partially applied. Inspect it manually before making further changes.")
	}
	return b.String()
}
