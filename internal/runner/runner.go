// Package runner executes a benchmark toolchain: N iterations of the
// runner script collecting output under .runs/, then the aggregator that
// folds those iterations into a RESULTS.md.
package runner

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/avast/retry-go/v4"

	"github.com/cursorcult/benchctl/internal/layout"
)

// Options configures toolchain execution.
type Options struct {
	Iterations       int           // runner invocations per toolchain
	IterationTimeout time.Duration // per-invocation limit, 0 means none
	RetryAttempts    uint          // attempts per iteration, min 1
	RetryDelay       time.Duration
	Python           string // python interpreter for the aggregator
}

// normalized fills in defaults for zero values.
func (o Options) normalized() Options {
	if o.Iterations < 1 {
		o.Iterations = 1
	}
	if o.RetryAttempts < 1 {
		o.RetryAttempts = 1
	}
	if o.RetryDelay <= 0 {
		o.RetryDelay = 2 * time.Second
	}
	if o.Python == "" {
		o.Python = "python3"
	}
	return o
}

// Runner executes toolchains for a single repository.
type Runner struct {
	repo   *layout.Repo
	opts   Options
	logger *slog.Logger
}

// New returns a Runner.
func New(repo *layout.Repo, opts Options, logger *slog.Logger) *Runner {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Runner{repo: repo, opts: opts.normalized(), logger: logger}
}

// Iterations returns the configured iteration count.
func (r *Runner) Iterations() int {
	return r.opts.Iterations
}

// ExecuteRuns invokes the toolchain runner once per iteration, each into a
// fresh .runs/<rule>/<language>/run_<i> directory. Any previous iteration
// output for the toolchain is removed first. Returns the storage dir.
func (r *Runner) ExecuteRuns(ctx context.Context, rule string, tc *layout.Toolchain) (string, error) {
	storage := r.repo.RunsPath(rule, tc.Language)
	if err := os.RemoveAll(storage); err != nil {
		return "", fmt.Errorf("clear runs dir: %w", err)
	}
	if err := os.MkdirAll(storage, 0750); err != nil {
		return "", fmt.Errorf("create runs dir: %w", err)
	}

	r.logger.Info("running benchmark",
		slog.String("rule", rule),
		slog.String("language", tc.Language),
		slog.Int("iterations", r.opts.Iterations))

	for i := 1; i <= r.opts.Iterations; i++ {
		outDir := filepath.Join(storage, fmt.Sprintf("run_%d", i))

		r.logger.Debug("iteration", slog.Int("n", i), slog.Int("of", r.opts.Iterations))

		// Each attempt starts from an empty dir so output left behind by
		// a failed attempt never reaches the aggregator.
		err := retry.Do(
			func() error {
				if err := os.RemoveAll(outDir); err != nil {
					return retry.Unrecoverable(fmt.Errorf("clear iteration dir: %w", err))
				}
				if err := os.Mkdir(outDir, 0750); err != nil {
					return retry.Unrecoverable(fmt.Errorf("create iteration dir: %w", err))
				}
				return r.runIteration(ctx, tc, outDir)
			},
			retry.Attempts(r.opts.RetryAttempts),
			retry.Delay(r.opts.RetryDelay),
			retry.DelayType(retry.FixedDelay),
			retry.LastErrorOnly(true),
			retry.Context(ctx),
		)
		if err != nil {
			return "", fmt.Errorf("%s/%s iteration %d: %w", rule, tc.Language, i, err)
		}
	}

	return storage, nil
}

// runIteration executes the runner script once with the output dir as its
// only argument. cwd is the language dir so the script finds its fixtures.
func (r *Runner) runIteration(ctx context.Context, tc *layout.Toolchain, outDir string) error {
	if r.opts.IterationTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.opts.IterationTimeout)
		defer cancel()
	}
	return runCommand(ctx, tc.Dir, "bash", tc.Runner, outDir)
}

// Aggregate invokes the benchmark's aggregator to fold the collected
// iterations into the results file at outPath.
func (r *Runner) Aggregate(ctx context.Context, tc *layout.Toolchain, runsDir, outPath string) error {
	r.logger.Info("aggregating results",
		slog.String("input", runsDir),
		slog.String("output", outPath))

	return runCommand(ctx, tc.Dir, r.opts.Python, tc.Aggregator,
		"--input-dir", runsDir,
		"--output", outPath)
}

// runCommand runs a command with cwd set, capturing output. On failure the
// error carries the exit status and the command's trailing output.
func runCommand(ctx context.Context, dir, name string, args ...string) error {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = dir

	var buf bytes.Buffer
	cmd.Stdout = &buf
	cmd.Stderr = &buf

	if err := cmd.Run(); err != nil {
		return fmt.Errorf("command failed (%s %s): %w\n%s",
			name, strings.Join(args, " "), err, tail(buf.String(), 2048))
	}
	return nil
}

// tail returns at most n trailing bytes of s, trimmed.
func tail(s string, n int) string {
	s = strings.TrimSpace(s)
	if len(s) <= n {
		return s
	}
	return "..." + s[len(s)-n:]
}
