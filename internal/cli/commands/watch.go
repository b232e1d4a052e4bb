package commands

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/cursorcult/benchctl/internal/engine"
)

// NewWatchCommand creates the watch command.
func NewWatchCommand() *cobra.Command {
	var debounce time.Duration

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Watch benchmark checkouts and regenerate results on change",
		Long: `Watch every benchmark submodule checkout (and the shared _metrics
submodule) for filesystem changes and regenerate the affected RESULTS.md
files after a quiet period. Changes under _metrics regenerate everything.

Runs until interrupted.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cmdCtx, err := NewCommandContext(cmd)
			if err != nil {
				return err
			}
			defer cmdCtx.Close()
			return runWatch(cmd, cmdCtx, debounce)
		},
	}

	cmd.Flags().DurationVar(&debounce, "debounce", 0, "Quiet period before regenerating (default from config)")

	return cmd
}

func runWatch(cmd *cobra.Command, cmdCtx *CommandContext, debounce time.Duration) error {
	r := cmdCtx.Renderer

	if debounce <= 0 {
		debounce = cmdCtx.Cfg.WatchDebounce
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	r.Println("Watching benchmarks for changes. Press Ctrl+C to stop.")

	err := cmdCtx.Engine.Watch(ctx, engine.WatchOptions{
		Debounce: debounce,
		OnRun: func(result *engine.GenerateResult, err error) {
			if err != nil {
				r.Error(fmt.Sprintf("regeneration failed: %v", err))
				return
			}
			r.Success(fmt.Sprintf("regenerated %d toolchains (run %s)", len(result.Toolchains), shortID(result.RunID)))
		},
	})
	if errors.Is(err, context.Canceled) {
		r.Println("Stopped.")
		return nil
	}
	return err
}
