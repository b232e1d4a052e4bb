// Package commands contains the benchctl subcommand implementations.
package commands

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/cursorcult/benchctl/internal/cli/config"
	"github.com/cursorcult/benchctl/internal/cli/output"
	"github.com/cursorcult/benchctl/internal/engine"
	"github.com/cursorcult/benchctl/internal/runner"
)

// ExitError carries a process exit code through cobra's error return.
type ExitError struct {
	Code int
	Err  error
}

func (e *ExitError) Error() string {
	if e.Err != nil {
		return e.Err.Error()
	}
	return fmt.Sprintf("exit code %d", e.Code)
}

func (e *ExitError) Unwrap() error { return e.Err }

// CommandContext holds the shared dependencies of a subcommand invocation.
type CommandContext struct {
	Cfg      *config.Config
	Logger   *slog.Logger
	Engine   *engine.Engine
	Renderer *output.Renderer
}

// Close releases resources held by the command context.
func (c *CommandContext) Close() error {
	if c.Engine != nil {
		return c.Engine.Close()
	}
	return nil
}

// NewCommandContext builds the full context used by commands that run
// the engine. The caller must Close it.
func NewCommandContext(cmd *cobra.Command) (*CommandContext, error) {
	ctx, err := NewCommandContextWithoutEngine(cmd)
	if err != nil {
		return nil, err
	}

	eng, err := createEngine(ctx.Cfg, ctx.Logger)
	if err != nil {
		return nil, err
	}
	ctx.Engine = eng
	return ctx, nil
}

// NewCommandContextWithoutEngine builds a context for commands that only
// need configuration and output, not the run engine or its ledger.
func NewCommandContextWithoutEngine(cmd *cobra.Command) (*CommandContext, error) {
	cfg, err := getConfig()
	if err != nil {
		return nil, err
	}

	return &CommandContext{
		Cfg:      cfg,
		Logger:   config.GetLogger(cmd.Context()),
		Renderer: output.NewRenderer(cmd.OutOrStdout(), cmd.ErrOrStderr(), output.Mode(cfg.OutputFormat)),
	}, nil
}

func getConfig() (*config.Config, error) {
	if cfg := config.GetCurrentConfig(); cfg != nil {
		return cfg, nil
	}
	// PersistentPreRunE did not run (direct invocation in tests)
	return config.LoadConfig("", nil)
}

func createEngine(cfg *config.Config, logger *slog.Logger) (*engine.Engine, error) {
	return engine.New(engine.Config{
		RepoRoot:    cfg.RepoRoot,
		StatePath:   cfg.StatePath,
		Concurrency: cfg.Concurrency,
		Logger:      logger,
		Runner: runner.Options{
			Iterations:       cfg.Runs,
			IterationTimeout: cfg.IterationTimeout,
			RetryAttempts:    uint(cfg.RetryAttempts),
			RetryDelay:       cfg.RetryDelay,
			Python:           cfg.Python,
		},
	})
}
