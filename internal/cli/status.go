package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/openclaw/clawctl/internal/baseline"
)

// NewStatusCommand creates the status command.
func NewStatusCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Report whether the live config has drifted from the baseline",
		Long: `Compares the instance's current configuration (canonicalized) against
the baseline captured at the last apply, discard, or first activation.
Drift means something changed outside clawctl - the gateway itself, an
editor, another tool.`,
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

			state, err := s.Tracker.CheckDirty(cmd.Context())
			if err != nil {
				return WrapExitError(ExitFailure, "dirty check failed", err)
			}

			formatter := &OutputFormatter{
				Format:  rootOpts.Format,
				Writer:  cmd.OutOrStdout(),
				Verbose: rootOpts.Verbose,
			}
			payload := map[string]any{
				"instance": s.Name,
				"dirty":    state.Dirty,
				"queued":   s.Queue.Len(),
				"diff":     state.Diff,
			}
			return formatter.SuccessText(renderStatus(s.Name, s.Queue.Len(), state), payload)
		},
	}
	return cmd
}

func renderStatus(name string, queued int, state baseline.DirtyState) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Instance: %s\n", name)
	fmt.Fprintf(&b, "Queued commands: %d\n", queued)
	if !state.Dirty {
		b.WriteString("Configuration matches the baseline.")
		return b.String()
	}
	b.WriteString("Configuration has drifted from the baseline:\n\n")
	b.WriteString(strings.TrimRight(state.Diff, "\n"))
	return b.String()
}
