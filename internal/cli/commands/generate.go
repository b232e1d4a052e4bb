package commands

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/cursorcult/benchctl/internal/cli/output"
	"github.com/cursorcult/benchctl/internal/engine"
	"github.com/cursorcult/benchctl/internal/state"
)

// NewGenerateCommand creates the generate command.
func NewGenerateCommand() *cobra.Command {
	var (
		all     bool
		benches []string
		base    string
		head    string
		check   bool
		timeout time.Duration
	)

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Regenerate RESULTS.md files for benchmarks",
		Long: `Regenerate RESULTS.md files by running benchmark toolchains.

By default, regenerates benchmarks whose submodule pointer changed
between --base and --head (or BASE_SHA/HEAD_SHA from the environment).
A bump of the shared _metrics submodule regenerates everything.

Use --all to regenerate every benchmark, or --bench to pick specific
ones. With --check, fails when regeneration changed tracked files,
which means committed results were stale.`,
		Example: `  # Regenerate benchmarks changed between two commits
  benchctl generate --base origin/main --head HEAD

  # Regenerate everything with 3 runner iterations
  benchctl generate --all --runs 3

  # Regenerate one benchmark and fail if tracked results changed
  benchctl generate --bench TDD --check`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cmdCtx, err := NewCommandContext(cmd)
			if err != nil {
				return err
			}
			defer cmdCtx.Close()

			return runGenerate(cmd, cmdCtx, generateOptions{
				all:     all,
				benches: benches,
				base:    base,
				head:    head,
				check:   check,
				timeout: timeout,
			})
		},
	}

	cmd.Flags().BoolVar(&all, "all", false, "Regenerate every benchmark")
	cmd.Flags().StringSliceVar(&benches, "bench", nil, "Benchmark rule name to regenerate (repeatable)")
	cmd.Flags().StringVar(&base, "base", "", "Base commit for change detection (env: BASE_SHA)")
	cmd.Flags().StringVar(&head, "head", "", "Head commit for change detection (env: HEAD_SHA)")
	cmd.Flags().BoolVar(&check, "check", false, "Fail if regeneration changed tracked files")
	cmd.Flags().DurationVar(&timeout, "timeout", 0, "Overall generation timeout (0 = none)")
	cmd.MarkFlagsMutuallyExclusive("all", "bench")

	return cmd
}

type generateOptions struct {
	all     bool
	benches []string
	base    string
	head    string
	check   bool
	timeout time.Duration
}

func runGenerate(cmd *cobra.Command, cmdCtx *CommandContext, opts generateOptions) error {
	ctx := cmd.Context()
	if opts.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.timeout)
		defer cancel()
	}

	eng := cmdCtx.Engine
	r := cmdCtx.Renderer

	var (
		sel     *engine.Selection
		trigger string
		err     error
	)
	switch {
	case opts.all:
		trigger = "all"
		sel, err = eng.SelectAll()
	case len(opts.benches) > 0:
		trigger = "selected"
		sel, err = eng.SelectNamed(opts.benches)
	default:
		base, head := opts.base, opts.head
		if base == "" {
			base = os.Getenv("BASE_SHA")
		}
		if head == "" {
			head = os.Getenv("HEAD_SHA")
		}
		if base == "" || head == "" {
			return fmt.Errorf("change detection needs --base and --head (or BASE_SHA and HEAD_SHA); use --all or --bench to select explicitly")
		}
		trigger = "changed"
		sel, err = eng.SelectChanged(ctx, base, head)
	}
	if err != nil {
		return err
	}

	for _, name := range sel.Unknown {
		r.Warning(fmt.Sprintf("no such benchmark: %s", name))
	}
	if len(sel.Benchmarks) == 0 {
		if trigger != "changed" {
			return errors.New("no benchmarks selected")
		}
		r.Println("No benchmark submodule changes detected.")
		// The staleness check still applies when nothing was regenerated.
		if opts.check {
			if err := eng.Check(ctx); err != nil {
				return &ExitError{Code: 1, Err: err}
			}
			r.Success("Tracked results are up to date")
		}
		return nil
	}

	result, runErr := eng.Generate(ctx, trigger, sel.Benchmarks)
	if result == nil {
		return runErr
	}

	if r.EffectiveMode() == output.ModeJSON {
		if err := renderGenerateJSON(r, result); err != nil {
			return err
		}
	} else {
		renderGenerateResult(cmdCtx, result)
	}

	if runErr != nil {
		return fmt.Errorf("generation failed: %w", runErr)
	}
	if opts.check {
		if err := eng.Check(ctx); err != nil {
			return &ExitError{Code: 1, Err: err}
		}
		r.Success("Tracked results are up to date")
	}
	return nil
}

func renderGenerateResult(cmdCtx *CommandContext, result *engine.GenerateResult) {
	r := cmdCtx.Renderer

	for _, tr := range result.Toolchains {
		name := tr.Rule + "/" + tr.Language
		switch tr.Status {
		case state.ToolchainStatusSuccess:
			r.StatusLine(name, "success", tr.Duration.Round(time.Millisecond).String())
		case state.ToolchainStatusSkipped:
			r.StatusLine(name, "skipped", "")
		default:
			note := ""
			if tr.Err != nil {
				note = tr.Err.Error()
			}
			r.StatusLine(name, "failed", note)
		}
	}
	for _, rule := range result.Skipped {
		r.Warning(fmt.Sprintf("%s: no toolchain found, skipped", rule))
	}

	failed := result.Failed()
	summary := fmt.Sprintf("Run %s: %d toolchains, %d failed", result.RunID, len(result.Toolchains), len(failed))
	if len(failed) == 0 {
		r.Success(summary)
	} else {
		r.Error(summary)
	}
}

func renderGenerateJSON(r *output.Renderer, result *engine.GenerateResult) error {
	type toolchainJSON struct {
		Rule       string `json:"rule"`
		Language   string `json:"language"`
		Status     string `json:"status"`
		DurationMS int64  `json:"duration_ms"`
		Error      string `json:"error,omitempty"`
	}
	out := struct {
		RunID      string          `json:"run_id"`
		Status     string          `json:"status"`
		Toolchains []toolchainJSON `json:"toolchains"`
		Skipped    []string        `json:"skipped,omitempty"`
	}{
		RunID:   result.RunID,
		Status:  string(result.Status),
		Skipped: result.Skipped,
	}
	for _, tr := range result.Toolchains {
		tj := toolchainJSON{
			Rule:       tr.Rule,
			Language:   tr.Language,
			Status:     string(tr.Status),
			DurationMS: tr.Duration.Milliseconds(),
		}
		if tr.Err != nil {
			tj.Error = tr.Err.Error()
		}
		out.Toolchains = append(out.Toolchains, tj)
	}
	return r.JSON(out)
}
