package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/openclaw/clawctl/internal/backend"
	"github.com/openclaw/clawctl/internal/engine"
	"github.com/openclaw/clawctl/internal/queue"
)

// NewQueueCommand creates the queue command group.
func NewQueueCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "queue",
		Short: "Manage the pending-change queue",
		Long: `Queued commands are not executed until "clawctl apply" commits the
whole batch. Use "clawctl preview" to see their combined effect first.`,
	}

	cmd.AddCommand(newQueueAddCommand(rootOpts))
	cmd.AddCommand(newQueueSetCommand(rootOpts))
	cmd.AddCommand(newQueueUnsetCommand(rootOpts))
	cmd.AddCommand(newQueueListCommand(rootOpts))
	cmd.AddCommand(newQueueRemoveCommand(rootOpts))
	cmd.AddCommand(newQueueDiscardCommand(rootOpts))

	return cmd
}

func newQueueAddCommand(rootOpts *RootOptions) *cobra.Command {
	var label string

	cmd := &cobra.Command{
		Use:   "add -- <gateway command tokens...>",
		Short: "Queue a raw gateway CLI command",
		Long: `Queue an arbitrary gateway CLI command, e.g.:

  clawctl queue add -- openclaw agent add helper
  clawctl queue add -- openclaw config set identity.name '"Claw"' --json`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			// Parse up front so a malformed command is rejected at enqueue
			// time rather than surfacing later in preview.
			if _, err := engine.ParseCommand(args); err != nil {
				return WrapExitError(ExitCommandError, "invalid gateway command", err)
			}
			if label == "" {
				label = strings.Join(args, " ")
			}
			return enqueue(cmd, rootOpts, label, args)
		},
	}

	cmd.Flags().StringVar(&label, "label", "", "human-readable description of the change")
	return cmd
}

func newQueueSetCommand(rootOpts *RootOptions) *cobra.Command {
	var label string

	cmd := &cobra.Command{
		Use:   "set <path> <json-value>",
		Short: "Queue a config value change",
		Example: `  clawctl queue set identity.name '"Claw"'
  clawctl queue set agents.defaults.model.primary '"claude-opus"'`,
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			tokens := backend.ConfigSetTokens(args[0], args[1])
			if _, err := engine.ParseCommand(tokens); err != nil {
				return WrapExitError(ExitCommandError, "invalid config set", err)
			}
			if label == "" {
				label = fmt.Sprintf("Set %s", args[0])
			}
			return enqueue(cmd, rootOpts, label, tokens)
		},
	}

	cmd.Flags().StringVar(&label, "label", "", "human-readable description of the change")
	return cmd
}

func newQueueUnsetCommand(rootOpts *RootOptions) *cobra.Command {
	var label string

	cmd := &cobra.Command{
		Use:           "unset <path>",
		Short:         "Queue a config value removal",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			tokens := backend.ConfigUnsetTokens(args[0])
			if _, err := engine.ParseCommand(tokens); err != nil {
				return WrapExitError(ExitCommandError, "invalid config unset", err)
			}
			if label == "" {
				label = fmt.Sprintf("Unset %s", args[0])
			}
			return enqueue(cmd, rootOpts, label, tokens)
		},
	}

	cmd.Flags().StringVar(&label, "label", "", "human-readable description of the change")
	return cmd
}

func enqueue(cmd *cobra.Command, rootOpts *RootOptions, label string, tokens []string) error {
	app, err := openApp(rootOpts)
	if err != nil {
		return err
	}
	defer app.Close()

	s, err := app.session(cmd.Context(), rootOpts)
	if err != nil {
		return err
	}

	pending := s.Queue.Add(label, tokens)

	formatter := &OutputFormatter{
		Format:  rootOpts.Format,
		Writer:  cmd.OutOrStdout(),
		Verbose: rootOpts.Verbose,
	}
	return formatter.SuccessText(
		fmt.Sprintf("Queued [%s] %s", pending.ID, pending.Label),
		pending,
	)
}

func newQueueListCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "list",
		Short:         "List queued commands",
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

			pending := s.Queue.List()
			formatter := &OutputFormatter{
				Format:  rootOpts.Format,
				Writer:  cmd.OutOrStdout(),
				Verbose: rootOpts.Verbose,
			}
			return formatter.SuccessText(renderQueue(pending), pending)
		},
	}
	return cmd
}

func renderQueue(pending []queue.PendingCommand) string {
	if len(pending) == 0 {
		return "Queue is empty."
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%d queued command(s):\n", len(pending))
	for i, cmd := range pending {
		fmt.Fprintf(&b, "%3d. [%s] %s\n     %s", i+1, cmd.ID, cmd.Label, strings.Join(cmd.Command, " "))
		if i < len(pending)-1 {
			b.WriteString("\n")
		}
	}
	return b.String()
}

func newQueueRemoveCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "remove <command-id>",
		Short:         "Remove one queued command",
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

			if !s.Queue.Remove(args[0]) {
				return NewExitError(ExitCommandError, fmt.Sprintf("no queued command with id %s", args[0]))
			}

			formatter := &OutputFormatter{
				Format:  rootOpts.Format,
				Writer:  cmd.OutOrStdout(),
				Verbose: rootOpts.Verbose,
			}
			return formatter.Success(fmt.Sprintf("Removed %s", args[0]))
		},
	}
	return cmd
}

func newQueueDiscardCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "discard",
		Short:         "Discard all queued commands",
		Long:          "Empties the queue and re-captures the baseline. Nothing was applied, so nothing is reverted and no history entry is written.",
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

			count := s.Queue.Len()
			if err := s.Engine.Discard(cmd.Context()); err != nil {
				return WrapExitError(ExitFailure, "discard failed", err)
			}

			formatter := &OutputFormatter{
				Format:  rootOpts.Format,
				Writer:  cmd.OutOrStdout(),
				Verbose: rootOpts.Verbose,
			}
			return formatter.Success(fmt.Sprintf("Discarded %d queued command(s)", count))
		},
	}
	return cmd
}
