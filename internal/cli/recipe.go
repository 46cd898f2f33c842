package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/openclaw/clawctl/internal/engine"
	"github.com/openclaw/clawctl/internal/history"
	"github.com/openclaw/clawctl/internal/recipe"
)

// NewRecipeCommand creates the recipe command group.
func NewRecipeCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "recipe",
		Short: "List, inspect, and run recipes",
		Long: `Recipes are parameterized sequences of configuration steps. Running a
recipe queues its commands; nothing touches the instance until you
apply. User recipes in <state-dir>/recipes/*.cue shadow built-ins.`,
	}

	cmd.AddCommand(newRecipeListCommand(rootOpts))
	cmd.AddCommand(newRecipeShowCommand(rootOpts))
	cmd.AddCommand(newRecipeRunCommand(rootOpts))

	return cmd
}

func newRecipeListCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "list",
		Short:         "List available recipes",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := openApp(rootOpts)
			if err != nil {
				return err
			}
			defer app.Close()

			lib, err := app.recipes()
			if err != nil {
				return err
			}

			all := lib.List()
			var b strings.Builder
			for i, r := range all {
				fmt.Fprintf(&b, "%-16s %s", r.ID, r.Name)
				if r.Description != "" {
					fmt.Fprintf(&b, " - %s", r.Description)
				}
				if i < len(all)-1 {
					b.WriteString("\n")
				}
			}

			formatter := &OutputFormatter{
				Format:  rootOpts.Format,
				Writer:  cmd.OutOrStdout(),
				Verbose: rootOpts.Verbose,
			}
			return formatter.SuccessText(b.String(), all)
		},
	}
	return cmd
}

func newRecipeShowCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "show <recipe-id>",
		Short:         "Show a recipe's parameters and steps",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := openApp(rootOpts)
			if err != nil {
				return err
			}
			defer app.Close()

			lib, err := app.recipes()
			if err != nil {
				return err
			}

			r, ok := lib.Get(args[0])
			if !ok {
				return NewExitError(ExitCommandError, fmt.Sprintf("unknown recipe %q", args[0]))
			}

			formatter := &OutputFormatter{
				Format:  rootOpts.Format,
				Writer:  cmd.OutOrStdout(),
				Verbose: rootOpts.Verbose,
			}
			return formatter.SuccessText(renderRecipe(r), r)
		},
	}
	return cmd
}

func renderRecipe(r *recipe.Recipe) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s - %s\n", r.ID, r.Name)
	if r.Description != "" {
		fmt.Fprintf(&b, "%s\n", r.Description)
	}

	if len(r.Params) > 0 {
		b.WriteString("\nParameters:\n")
		for _, p := range r.Params {
			req := "optional"
			if p.Required {
				req = "required"
			}
			fmt.Fprintf(&b, "  %-12s %s", p.Name, req)
			if p.Default != "" {
				fmt.Fprintf(&b, ", default %q", p.Default)
			}
			if p.Description != "" {
				fmt.Fprintf(&b, " - %s", p.Description)
			}
			b.WriteString("\n")
		}
	}

	b.WriteString("\nSteps:\n")
	for i, step := range r.Steps {
		label := step.Label
		if label == "" {
			label = step.Action
		}
		fmt.Fprintf(&b, "%3d. [%s] %s", i+1, step.Action, label)
		if i < len(r.Steps)-1 {
			b.WriteString("\n")
		}
	}
	return b.String()
}

func newRecipeRunCommand(rootOpts *RootOptions) *cobra.Command {
	var (
		params   []string
		applyNow bool
	)

	cmd := &cobra.Command{
		Use:   "run <recipe-id> [--param name=value]...",
		Short: "Resolve a recipe and queue its commands",
		Long: `Resolves a recipe against the given parameters and appends the resulting
commands to the queue. Steps whose parameters were left blank are
skipped whole. Review with "clawctl preview", then commit with
"clawctl apply" - or pass --apply to commit immediately.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			supplied, err := parseParams(params)
			if err != nil {
				return WrapExitError(ExitCommandError, "invalid parameter", err)
			}

			app, err := openApp(rootOpts)
			if err != nil {
				return err
			}
			defer app.Close()

			lib, err := app.recipes()
			if err != nil {
				return err
			}

			r, ok := lib.Get(args[0])
			if !ok {
				return NewExitError(ExitCommandError, fmt.Sprintf("unknown recipe %q", args[0]))
			}

			steps, err := r.Resolve(supplied)
			if err != nil {
				return WrapExitError(ExitCommandError, "recipe resolution failed", err)
			}

			s, err := app.session(cmd.Context(), rootOpts)
			if err != nil {
				return err
			}

			commands, err := recipe.Commands(steps, recipe.ExecContext{
				Instance: s.Name,
				Remote:   s.Remote(),
			})
			if err != nil {
				return WrapExitError(ExitCommandError, "recipe expansion failed", err)
			}
			if len(commands) == 0 {
				return NewExitError(ExitCommandError, "recipe resolved to no commands (all steps skipped?)")
			}

			for _, c := range commands {
				s.Queue.Add(c.Label, c.Tokens)
			}

			skipped := 0
			for _, step := range steps {
				if step.Skippable {
					skipped++
				}
			}

			formatter := &OutputFormatter{
				Format:  rootOpts.Format,
				Writer:  cmd.OutOrStdout(),
				Verbose: rootOpts.Verbose,
			}

			if applyNow {
				result, err := s.Engine.Apply(cmd.Context(), engine.ApplyOptions{
					Source:   history.SourceRecipe,
					RecipeID: r.ID,
					Label:    fmt.Sprintf("Recipe %s", r.Name),
				})
				if err != nil {
					return WrapExitError(ExitCommandError, "apply refused", err)
				}
				if err := formatter.SuccessText(renderApply(result), result); err != nil {
					return err
				}
				if !result.OK {
					return NewExitError(ExitFailure, "recipe apply failed")
				}
				return nil
			}

			msg := fmt.Sprintf("Queued %d command(s) from recipe %s.", len(commands), r.ID)
			if skipped > 0 {
				msg += fmt.Sprintf(" %d step(s) skipped (blank parameters).", skipped)
			}
			msg += "\nRun \"clawctl preview\" to review, then \"clawctl apply\"."

			return formatter.SuccessText(msg, map[string]any{
				"recipeId": r.ID,
				"queued":   len(commands),
				"skipped":  skipped,
			})
		},
	}

	cmd.Flags().StringArrayVar(&params, "param", nil, "recipe parameter as name=value (repeatable)")
	cmd.Flags().BoolVar(&applyNow, "apply", false, "apply the queued commands immediately")
	return cmd
}

func parseParams(pairs []string) (map[string]string, error) {
	params := make(map[string]string, len(pairs))
	for _, pair := range pairs {
		name, value, found := strings.Cut(pair, "=")
		if !found || name == "" {
			return nil, fmt.Errorf("want name=value, got %q", pair)
		}
		params[name] = value
	}
	return params, nil
}
