package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/openclaw/clawctl/internal/engine"
)

// NewPreviewCommand creates the preview command.
func NewPreviewCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "preview",
		Short: "Show the combined effect of queued commands",
		Long: `Replays the queue against a scratch copy of the current configuration
and prints the resulting diff. Nothing is written; preview is read-only
and repeatable. Per-command problems are listed without stopping the
replay, so every issue is visible at once.`,
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

			result, err := s.Engine.Preview(cmd.Context())
			if err != nil {
				return WrapExitError(ExitFailure, "preview failed", err)
			}

			formatter := &OutputFormatter{
				Format:  rootOpts.Format,
				Writer:  cmd.OutOrStdout(),
				Verbose: rootOpts.Verbose,
			}
			return formatter.SuccessText(renderPreview(result), result)
		},
	}
	return cmd
}

func renderPreview(result *engine.PreviewResult) string {
	var b strings.Builder

	if len(result.Commands) == 0 {
		return "Queue is empty; nothing to preview."
	}

	fmt.Fprintf(&b, "Previewing %d queued command(s):\n", len(result.Commands))
	for i, cmd := range result.Commands {
		fmt.Fprintf(&b, "%3d. %s\n", i+1, cmd.Label)
	}

	if len(result.Errors) > 0 {
		fmt.Fprintf(&b, "\n%d command(s) have problems:\n", len(result.Errors))
		for _, e := range result.Errors {
			fmt.Fprintf(&b, "  ! %s: %s\n", e.Label, e.Message)
		}
	}

	b.WriteString("\n")
	if result.Diff == "" {
		b.WriteString("No configuration changes.")
	} else {
		b.WriteString(result.Diff)
	}
	return strings.TrimRight(b.String(), "\n")
}
