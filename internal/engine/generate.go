package engine

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/cursorcult/benchctl/internal/layout"
	"github.com/cursorcult/benchctl/internal/results"
	"github.com/cursorcult/benchctl/internal/state"
)

// ToolchainResult is the outcome of one benchmark/language execution.
type ToolchainResult struct {
	Rule     string
	Language string
	Status   state.ToolchainStatus
	Duration time.Duration
	Err      error
}

// GenerateResult summarizes a generation run.
type GenerateResult struct {
	RunID      string
	Status     state.RunStatus
	Toolchains []ToolchainResult
	Skipped    []string // rules with no runnable toolchain
}

// Failed returns the toolchain results that did not succeed.
func (r *GenerateResult) Failed() []ToolchainResult {
	var failed []ToolchainResult
	for _, tr := range r.Toolchains {
		if tr.Status == state.ToolchainStatusFailed {
			failed = append(failed, tr)
		}
	}
	return failed
}

// preparedBenchmark is a benchmark with its toolchains resolved and its
// ledger rows created, ready for execution.
type preparedBenchmark struct {
	benchmark  *layout.Benchmark
	toolchains []*layout.Toolchain
	ledgerIDs  []string // parallel to toolchains
}

// Generate runs the selected benchmarks using a two-phase approach:
// Phase 1 resolves toolchains for every benchmark and records pending
// ledger rows (fail fast on discovery errors). Phase 2 executes benchmarks
// concurrently, toolchains within a benchmark sequentially.
func (e *Engine) Generate(ctx context.Context, trigger string, benchmarks []*layout.Benchmark) (*GenerateResult, error) {
	e.logger.Info("starting generation", "trigger", trigger, "benchmarks", len(benchmarks))

	run, err := e.store.CreateRun(trigger)
	if err != nil {
		return nil, fmt.Errorf("failed to create run: %w", err)
	}

	result := &GenerateResult{RunID: run.ID}

	// Phase 1: resolve toolchains and create ledger rows.
	var prepared []*preparedBenchmark
	for _, b := range benchmarks {
		toolchains, err := e.repo.Toolchains(b)
		if err != nil {
			_ = e.store.CompleteRun(run.ID, state.RunStatusFailed, err.Error())
			return result, fmt.Errorf("failed to inspect %s: %w", b.Rule, err)
		}
		if len(toolchains) == 0 {
			e.logger.Warn("skipping benchmark, no toolchain found", "rule", b.Rule)
			result.Skipped = append(result.Skipped, b.Rule)
			continue
		}

		p := &preparedBenchmark{benchmark: b, toolchains: toolchains}
		for _, tc := range toolchains {
			tr := &state.ToolchainRun{
				RunID:      run.ID,
				Rule:       b.Rule,
				Language:   tc.Language,
				Status:     state.ToolchainStatusPending,
				Iterations: e.runner.Iterations(),
			}
			if err := e.store.RecordToolchainRun(tr); err != nil {
				_ = e.store.CompleteRun(run.ID, state.RunStatusFailed, err.Error())
				return result, fmt.Errorf("failed to record toolchain run: %w", err)
			}
			p.ledgerIDs = append(p.ledgerIDs, tr.ID)
		}
		prepared = append(prepared, p)
	}

	// Phase 2: execute. A failing benchmark does not cancel the others,
	// so no errgroup context here; ctx still aborts everything.
	var mu sync.Mutex
	var g errgroup.Group
	g.SetLimit(e.concurrency)

	for _, p := range prepared {
		g.Go(func() error {
			for i, tc := range p.toolchains {
				tr := e.runToolchain(ctx, p.benchmark, tc, p.ledgerIDs[i])
				mu.Lock()
				result.Toolchains = append(result.Toolchains, tr)
				mu.Unlock()
				if tr.Err != nil {
					// Remaining toolchains of this benchmark are skipped;
					// other benchmarks keep running.
					for j := i + 1; j < len(p.toolchains); j++ {
						_ = e.store.UpdateToolchainRun(p.ledgerIDs[j], state.ToolchainStatusSkipped, 0,
							fmt.Sprintf("skipped: %s/%s failed", p.benchmark.Rule, tc.Language))
						mu.Lock()
						result.Toolchains = append(result.Toolchains, ToolchainResult{
							Rule:     p.benchmark.Rule,
							Language: p.toolchains[j].Language,
							Status:   state.ToolchainStatusSkipped,
						})
						mu.Unlock()
					}
					return tr.Err
				}
			}
			return nil
		})
	}

	runErr := g.Wait()

	if runErr != nil {
		result.Status = state.RunStatusFailed
		e.logger.Info("generation failed", "run_id", run.ID, "error", runErr.Error())
		_ = e.store.CompleteRun(run.ID, state.RunStatusFailed, runErr.Error())
	} else {
		result.Status = state.RunStatusCompleted
		e.logger.Info("generation completed", "run_id", run.ID)
		_ = e.store.CompleteRun(run.ID, state.RunStatusCompleted, "")
	}

	return result, runErr
}

// runToolchain executes one toolchain end to end: iterations, aggregation,
// and results decoration, updating its ledger row along the way.
func (e *Engine) runToolchain(ctx context.Context, b *layout.Benchmark, tc *layout.Toolchain, ledgerID string) ToolchainResult {
	_ = e.store.UpdateToolchainRun(ledgerID, state.ToolchainStatusRunning, 0, "")

	start := time.Now()
	err := e.executeToolchain(ctx, b, tc)
	duration := time.Since(start)

	tr := ToolchainResult{
		Rule:     b.Rule,
		Language: tc.Language,
		Duration: duration,
	}
	if err != nil {
		tr.Status = state.ToolchainStatusFailed
		tr.Err = err
		e.logger.Error("toolchain failed", "rule", b.Rule, "language", tc.Language, "error", err.Error())
		_ = e.store.UpdateToolchainRun(ledgerID, state.ToolchainStatusFailed, duration.Milliseconds(), err.Error())
		return tr
	}

	tr.Status = state.ToolchainStatusSuccess
	e.logger.Info("toolchain succeeded", "rule", b.Rule, "language", tc.Language,
		"duration_ms", duration.Milliseconds())
	_ = e.store.UpdateToolchainRun(ledgerID, state.ToolchainStatusSuccess, duration.Milliseconds(), "")
	return tr
}

func (e *Engine) executeToolchain(ctx context.Context, b *layout.Benchmark, tc *layout.Toolchain) error {
	runsDir, err := e.runner.ExecuteRuns(ctx, b.Rule, tc)
	if err != nil {
		return err
	}

	outPath, err := e.repo.EnsureResultsDir(b.Rule, tc.Language)
	if err != nil {
		return fmt.Errorf("ensure results dir: %w", err)
	}
	if err := e.runner.Aggregate(ctx, tc, runsDir, outPath); err != nil {
		return err
	}

	return e.decorateResults(b, tc, outPath)
}

// decorateResults fills in the document header the aggregator does not
// know about (repo link, description from the manifest) and validates the
// version-keyed table. The rewrite is atomic.
func (e *Engine) decorateResults(b *layout.Benchmark, tc *layout.Toolchain, path string) error {
	doc, err := results.ParseFile(path)
	if err != nil {
		return fmt.Errorf("aggregator produced unreadable results: %w", err)
	}

	changed := false
	if doc.Title == "" {
		doc.Title = fmt.Sprintf("%s (%s)", b.Rule, tc.Language)
		changed = true
	}
	if doc.RepoURL == "" {
		doc.RepoURL = layout.DefaultRepoURL(b.Rule)
		if b.Manifest != nil && b.Manifest.RepoURL != "" {
			doc.RepoURL = b.Manifest.RepoURL
		}
		changed = true
	}
	if doc.Description == "" && b.Manifest != nil && b.Manifest.Description != "" {
		doc.Description = b.Manifest.Description
		changed = true
	}

	if err := doc.Validate(); err != nil {
		return fmt.Errorf("invalid results table in %s: %w", path, err)
	}
	if doc.SortRows() {
		changed = true
	}
	if !changed {
		return nil
	}
	return doc.WriteFile(path)
}
