package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/openclaw/clawctl/internal/engine"
)

// NewRollbackCommand creates the rollback command.
func NewRollbackCommand(rootOpts *RootOptions) *cobra.Command {
	var preview bool

	cmd := &cobra.Command{
		Use:   "rollback <snapshot-id>",
		Short: "Restore the configuration captured by a snapshot",
		Long: `Restores the instance's configuration to the state a snapshot captured.
The target snapshot is never modified; a new forward history entry is
appended, so the rollback itself can be rolled back. Use --preview to
see the diff without changing anything.`,
		Args:          cobra.ExactArgs(1),
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

			formatter := &OutputFormatter{
				Format:  rootOpts.Format,
				Writer:  cmd.OutOrStdout(),
				Verbose: rootOpts.Verbose,
			}

			if preview {
				rp, err := s.Engine.PreviewRollback(cmd.Context(), args[0])
				if err != nil {
					return WrapExitError(ExitCommandError, "rollback preview failed", err)
				}
				return formatter.SuccessText(renderRollbackPreview(rp), rp)
			}

			result, err := s.Engine.Rollback(cmd.Context(), args[0])
			if err != nil {
				return WrapExitError(ExitCommandError, "rollback refused", err)
			}

			if err := formatter.SuccessText(renderRollback(result), result); err != nil {
				return err
			}
			if !result.OK {
				return NewExitError(ExitCommandError, "rollback failed")
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&preview, "preview", false, "show the diff without restoring")
	return cmd
}

func renderRollbackPreview(rp *engine.RollbackPreview) string {
	if rp.Diff == "" {
		return fmt.Sprintf("Rolling back to %s would change nothing.", rp.SnapshotID)
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Rolling back to %s would apply:\n\n", rp.SnapshotID)
	b.WriteString(strings.TrimRight(rp.Diff, "\n"))
	return b.String()
}

func renderRollback(result *engine.ApplyResult) string {
	if result.OK {
		msg := fmt.Sprintf("Rolled back. New snapshot %s recorded.", result.SnapshotID)
		if result.RestartWarning != "" {
			msg += "\nWarning: " + result.RestartWarning
		}
		return msg
	}
	return fmt.Sprintf("Rollback failed: %s\nThe configuration state is uncertain; inspect it manually before making further changes.", result.Error)
}
