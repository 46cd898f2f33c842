package cli

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/openclaw/clawctl/internal/history"
)

// NewHistoryCommand creates the history command group.
func NewHistoryCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Inspect the snapshot history",
	}

	cmd.AddCommand(newHistoryListCommand(rootOpts))
	cmd.AddCommand(newHistoryShowCommand(rootOpts))

	return cmd
}

func newHistoryListCommand(rootOpts *RootOptions) *cobra.Command {
	var (
		limit    int
		offset   int
		source   string
		recipeID string
		since    string
		until    string
	)

	cmd := &cobra.Command{
		Use:           "list",
		Short:         "List snapshots for the instance, newest first",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			filter, err := buildHistoryFilter(source, recipeID, since, until)
			if err != nil {
				return WrapExitError(ExitCommandError, "invalid filter", err)
			}

			app, err := openApp(rootOpts)
			if err != nil {
				return err
			}
			defer app.Close()

			name := rootOpts.Instance
			if name == "" {
				name = app.Config.Default
			}

			items, err := app.History.List(cmd.Context(), name, limit, offset, filter)
			if err != nil {
				return WrapExitError(ExitCommandError, "failed to list history", err)
			}

			formatter := &OutputFormatter{
				Format:  rootOpts.Format,
				Writer:  cmd.OutOrStdout(),
				Verbose: rootOpts.Verbose,
			}
			return formatter.SuccessText(renderHistory(cmd.Context(), app.History, items), items)
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 20, "maximum entries to show (0 = all)")
	cmd.Flags().IntVar(&offset, "offset", 0, "entries to skip")
	cmd.Flags().StringVar(&source, "source", "", "filter by source (recipe|manual|rollback)")
	cmd.Flags().StringVar(&recipeID, "recipe", "", "filter by originating recipe id")
	cmd.Flags().StringVar(&since, "since", "", "only entries at or after this RFC 3339 time")
	cmd.Flags().StringVar(&until, "until", "", "only entries before this RFC 3339 time")

	return cmd
}

func buildHistoryFilter(source, recipeID, since, until string) (*history.Filter, error) {
	if source == "" && recipeID == "" && since == "" && until == "" {
		return nil, nil
	}

	filter := &history.Filter{RecipeID: recipeID}

	if source != "" {
		s := history.Source(source)
		if !s.Valid() {
			return nil, fmt.Errorf("unknown source %q (want recipe, manual, or rollback)", source)
		}
		filter.Source = s
	}
	if since != "" {
		t, err := time.Parse(time.RFC3339, since)
		if err != nil {
			return nil, fmt.Errorf("invalid --since: %w", err)
		}
		filter.Since = t
	}
	if until != "" {
		t, err := time.Parse(time.RFC3339, until)
		if err != nil {
			return nil, fmt.Errorf("invalid --until: %w", err)
		}
		filter.Until = t
	}
	return filter, nil
}

func renderHistory(ctx context.Context, store *history.Store, items []history.Item) string {
	if len(items) == 0 {
		return "No history entries."
	}

	var b strings.Builder
	for i, item := range items {
		flag := " "
		if !item.CanRollback {
			flag = "x"
		}
		fmt.Fprintf(&b, "%s %s  %-8s  %s  %s",
			flag, item.CreatedAt.Local().Format("2006-01-02 15:04:05"), item.Source, item.ID, item.Label)

		if item.RollbackOf != "" {
			target, err := store.ResolveRollbackOf(ctx, item)
			label := "unknown"
			if err == nil && target != nil {
				label = target.Label
			}
			fmt.Fprintf(&b, " (rollback of: %s)", label)
		}
		if i < len(items)-1 {
			b.WriteString("\n")
		}
	}
	return b.String()
}

func newHistoryShowCommand(rootOpts *RootOptions) *cobra.Command {
	var showConfig bool

	cmd := &cobra.Command{
		Use:           "show <snapshot-id>",
		Short:         "Show one snapshot in full",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := openApp(rootOpts)
			if err != nil {
				return err
			}
			defer app.Close()

			item, err := app.History.Get(cmd.Context(), args[0])
			if err != nil {
				return WrapExitError(ExitCommandError, "snapshot not found", err)
			}

			var b strings.Builder
			fmt.Fprintf(&b, "Snapshot %s\n", item.ID)
			fmt.Fprintf(&b, "  Instance:     %s\n", item.Instance)
			fmt.Fprintf(&b, "  Label:        %s\n", item.Label)
			fmt.Fprintf(&b, "  Source:       %s\n", item.Source)
			if item.RecipeID != "" {
				fmt.Fprintf(&b, "  Recipe:       %s\n", item.RecipeID)
			}
			if item.RollbackOf != "" {
				fmt.Fprintf(&b, "  Rollback of:  %s\n", item.RollbackOf)
			}
			fmt.Fprintf(&b, "  Rollbackable: %v\n", item.CanRollback)
			fmt.Fprintf(&b, "  Created:      %s", item.CreatedAt.Local().Format(time.RFC3339))
			if showConfig {
				fmt.Fprintf(&b, "\n\n%s", item.Config)
			}

			formatter := &OutputFormatter{
				Format:  rootOpts.Format,
				Writer:  cmd.OutOrStdout(),
				Verbose: rootOpts.Verbose,
			}
			return formatter.SuccessText(b.String(), item)
		},
	}

	cmd.Flags().BoolVar(&showConfig, "config", false, "include the captured config text")
	return cmd
}
