// Package engine orchestrates benchmark result generation: selecting which
// benchmarks to run, executing their toolchains, and recording every run in
// the state ledger.
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/cursorcult/benchctl/internal/gitx"
	"github.com/cursorcult/benchctl/internal/layout"
	"github.com/cursorcult/benchctl/internal/runner"
	"github.com/cursorcult/benchctl/internal/state"
)

// Config configures an Engine.
type Config struct {
	RepoRoot    string
	StatePath   string // SQLite ledger path, ":memory:" allowed
	Concurrency int    // concurrent benchmarks during generation
	Runner      runner.Options
	Logger      *slog.Logger
}

// Engine ties together layout discovery, git plumbing, toolchain execution,
// and the run ledger.
type Engine struct {
	repo        *layout.Repo
	git         *gitx.Client
	store       state.Store
	runner      *runner.Runner
	logger      *slog.Logger
	concurrency int
}

// New creates an Engine and opens (and migrates) the state ledger.
func New(cfg Config) (*Engine, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	if cfg.StatePath != ":memory:" {
		if dir := filepath.Dir(cfg.StatePath); dir != "." && dir != "" {
			if err := os.MkdirAll(dir, 0750); err != nil {
				return nil, fmt.Errorf("failed to create state directory: %w", err)
			}
		}
	}

	store := state.NewSQLiteStore(logger)
	if err := store.Open(cfg.StatePath); err != nil {
		return nil, err
	}
	if err := store.Migrate(); err != nil {
		store.Close()
		return nil, err
	}

	repo := layout.New(cfg.RepoRoot)
	concurrency := cfg.Concurrency
	if concurrency < 1 {
		concurrency = 1
	}

	return &Engine{
		repo:        repo,
		git:         gitx.NewClient(cfg.RepoRoot),
		store:       store,
		runner:      runner.New(repo, cfg.Runner, logger),
		logger:      logger,
		concurrency: concurrency,
	}, nil
}

// Close releases the state ledger.
func (e *Engine) Close() error {
	return e.store.Close()
}

// Repo exposes the layout for commands that only need discovery.
func (e *Engine) Repo() *layout.Repo {
	return e.repo
}

// Git exposes the git client.
func (e *Engine) Git() *gitx.Client {
	return e.git
}

// Store exposes the run ledger.
func (e *Engine) Store() state.Store {
	return e.store
}

// Selection is the set of benchmarks chosen for a generation run.
type Selection struct {
	Benchmarks []*layout.Benchmark
	Unknown    []string // requested names with no matching benchmark
}

// SelectAll selects every discovered benchmark.
func (e *Engine) SelectAll() (*Selection, error) {
	benchmarks, err := e.repo.Discover()
	if err != nil {
		return nil, fmt.Errorf("failed to discover benchmarks: %w", err)
	}
	return &Selection{Benchmarks: benchmarks}, nil
}

// SelectNamed selects benchmarks by rule name. Unknown names are reported
// in the selection rather than failing the whole run.
func (e *Engine) SelectNamed(names []string) (*Selection, error) {
	benchmarks, err := e.repo.Discover()
	if err != nil {
		return nil, fmt.Errorf("failed to discover benchmarks: %w", err)
	}

	byRule := make(map[string]*layout.Benchmark, len(benchmarks))
	for _, b := range benchmarks {
		byRule[b.Rule] = b
	}

	sel := &Selection{}
	for _, name := range names {
		if b, ok := byRule[name]; ok {
			sel.Benchmarks = append(sel.Benchmarks, b)
		} else {
			sel.Unknown = append(sel.Unknown, name)
		}
	}
	return sel, nil
}

// SelectChanged selects benchmarks whose submodule pointer changed between
// base and head. A bump of the shared _metrics submodule selects every
// benchmark, since all results depend on it.
func (e *Engine) SelectChanged(ctx context.Context, base, head string) (*Selection, error) {
	gitlinks, err := e.git.ChangedGitlinks(ctx, base, head)
	if err != nil {
		return nil, err
	}

	metricsChanged := false
	var rules []string
	for _, gl := range gitlinks {
		if gl.Path == layout.MetricsDir {
			metricsChanged = true
			continue
		}
		if rule, ok := layout.RuleFromSubmodule(gl.Path); ok {
			rules = append(rules, rule)
		}
	}

	if metricsChanged {
		return e.SelectAll()
	}
	if len(rules) == 0 {
		return &Selection{}, nil
	}
	return e.SelectNamed(rules)
}

// Check verifies that generation left the tracked tree unchanged. A dirty
// tree means committed RESULTS.md files are stale.
func (e *Engine) Check(ctx context.Context) error {
	clean, err := e.git.DiffClean(ctx)
	if err != nil {
		return err
	}
	if !clean {
		return fmt.Errorf("regeneration changed tracked files; commit the updated results")
	}
	return nil
}
