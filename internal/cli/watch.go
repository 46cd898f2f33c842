package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/openclaw/clawctl/internal/baseline"
)

// NewWatchCommand creates the watch command.
func NewWatchCommand(rootOpts *RootOptions) *cobra.Command {
	var interval time.Duration

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Poll the instance for configuration drift until interrupted",
		Long: `Runs the dirty-state poller against the instance and reports every
transition between clean and drifted. Polling pauses automatically
while queued commands or an in-flight apply exist, so a mid-mutation
read never shows up as drift.`,
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

			// Watch mode is an activation in the interactive sense: start
			// from a fresh comparison point.
			if err := s.Tracker.Save(cmd.Context()); err != nil {
				return WrapExitError(ExitFailure, "baseline capture failed", err)
			}

			out := cmd.OutOrStdout()
			var lastDirty bool
			onChange := func(state baseline.DirtyState) {
				if state.Dirty == lastDirty {
					return
				}
				lastDirty = state.Dirty
				ts := time.Now().Format("15:04:05")
				if state.Dirty {
					fmt.Fprintf(out, "[%s] DRIFT detected:\n%s\n", ts, state.Diff)
				} else {
					fmt.Fprintf(out, "[%s] configuration back in sync\n", ts)
				}
			}

			poller := baseline.NewPoller(s.Tracker, pollInterval(interval, s.Remote()),
				s.PollGuard, onChange, nil)

			parentCtx := cmd.Context()
			if parentCtx == nil {
				parentCtx = context.Background()
			}
			ctx, cancel := context.WithCancel(parentCtx)
			defer cancel()

			sigChan := make(chan os.Signal, 1)
			signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
			defer signal.Stop(sigChan)

			go func() {
				select {
				case <-sigChan:
					cancel()
				case <-ctx.Done():
				}
			}()

			fmt.Fprintf(out, "Watching %s for configuration drift. Press Ctrl-C to stop.\n", s.Name)
			poller.Start(ctx)
			<-ctx.Done()
			poller.Stop()

			fmt.Fprintln(out, "Stopped.")
			return nil
		},
	}

	cmd.Flags().DurationVar(&interval, "interval", 0, "poll interval (default 2s local, 10s remote)")
	return cmd
}

func pollInterval(flag time.Duration, remote bool) time.Duration {
	if flag > 0 {
		return flag
	}
	if remote {
		return baseline.RemotePollInterval
	}
	return baseline.LocalPollInterval
}
