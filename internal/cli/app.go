package cli

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/openclaw/clawctl/internal/history"
	"github.com/openclaw/clawctl/internal/instance"
	"github.com/openclaw/clawctl/internal/recipe"
)

// App bundles the long-lived state a command needs: the instances
// config, the shared history store, and the session manager. Built
// fresh per invocation; the state directory makes it durable.
type App struct {
	Dir     string
	Config  *instance.Config
	History *history.Store
	Manager *instance.Manager
}

// openApp loads the instances file and opens the history database under
// the state directory, creating the directory on first use.
func openApp(opts *RootOptions) (*App, error) {
	dir := opts.stateDir()
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to create state directory", err)
	}

	cfg, err := instance.LoadConfig(filepath.Join(dir, "instances.yaml"))
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to load instances", err)
	}

	h, err := history.Open(filepath.Join(dir, "history.db"))
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to open history store", err)
	}

	return &App{
		Dir:     dir,
		Config:  cfg,
		History: h,
		Manager: instance.NewManager(cfg, h, dir, slog.Default()),
	}, nil
}

// Close tears down sessions and the history store.
func (a *App) Close() {
	if err := a.Manager.Close(); err != nil {
		slog.Error("error closing sessions", "error", err)
	}
	if err := a.History.Close(); err != nil {
		slog.Error("error closing history store", "error", err)
	}
}

// session activates the target instance (connect + fresh baseline).
func (a *App) session(ctx context.Context, opts *RootOptions) (*instance.Session, error) {
	s, err := a.Manager.Activate(ctx, opts.Instance)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to activate instance", err)
	}
	return s, nil
}

// recipes loads the recipe library: built-ins plus any user recipes
// under <state-dir>/recipes.
func (a *App) recipes() (*recipe.Library, error) {
	lib, errs := recipe.LoadDir(filepath.Join(a.Dir, "recipes"), recipe.LoadModeFailFast)
	if len(errs) > 0 {
		return nil, WrapExitError(ExitCommandError, "failed to load recipes", errs[0])
	}
	return lib, nil
}
