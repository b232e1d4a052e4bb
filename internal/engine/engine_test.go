package engine

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cursorcult/benchctl/internal/results"
	"github.com/cursorcult/benchctl/internal/runner"
	"github.com/cursorcult/benchctl/internal/state"
)

// fakeAggregator is a bash script that stands in for generate_results.py.
// It writes a minimal version-keyed table to --output.
const fakeAggregator = `out=""
while [ $# -gt 0 ]; do
  if [ "$1" = "--output" ]; then out="$2"; shift; fi
  shift
done
printf '| Version | Score |\n| --- | --- |\n| v0 | 0.5 |\n| v1 | 0.8 |\n' > "$out"
`

func requireBash(t *testing.T) {
	t.Helper()
	if _, err := exec.LookPath("bash"); err != nil {
		t.Skip("bash not installed")
	}
}

// writeBenchmark scaffolds a fake submodule checkout with one toolchain.
func writeBenchmark(t *testing.T, root, rule string, runnerBody string, manifest string) {
	t.Helper()
	dir := filepath.Join(root, "benchmarks", rule)
	langDir := filepath.Join(dir, "sh")
	require.NoError(t, os.MkdirAll(langDir, 0750))
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".git"), []byte("gitdir: elsewhere\n"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(langDir, "run_all.sh"), []byte(runnerBody), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(langDir, "generate_results.py"), []byte(fakeAggregator), 0755))
	if manifest != "" {
		require.NoError(t, os.WriteFile(filepath.Join(dir, "benchmark.yaml"), []byte(manifest), 0644))
	}
}

func newTestEngine(t *testing.T, root string) *Engine {
	t.Helper()
	eng, err := New(Config{
		RepoRoot:    root,
		StatePath:   ":memory:",
		Concurrency: 2,
		Runner: runner.Options{
			Python:     "bash", // aggregators in tests are bash scripts
			RetryDelay: time.Millisecond,
		},
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = eng.Close() })
	return eng
}

func TestSelectAll(t *testing.T) {
	requireBash(t)
	root := t.TempDir()
	writeBenchmark(t, root, "TDD", "#!/bin/bash\ntrue\n", "")
	writeBenchmark(t, root, "AAA", "#!/bin/bash\ntrue\n", "")

	eng := newTestEngine(t, root)
	sel, err := eng.SelectAll()
	require.NoError(t, err)
	require.Len(t, sel.Benchmarks, 2)
	assert.Equal(t, "AAA", sel.Benchmarks[0].Rule)
}

func TestSelectNamed(t *testing.T) {
	requireBash(t)
	root := t.TempDir()
	writeBenchmark(t, root, "TDD", "#!/bin/bash\ntrue\n", "")

	eng := newTestEngine(t, root)
	sel, err := eng.SelectNamed([]string{"TDD", "missing"})
	require.NoError(t, err)
	require.Len(t, sel.Benchmarks, 1)
	assert.Equal(t, "TDD", sel.Benchmarks[0].Rule)
	assert.Equal(t, []string{"missing"}, sel.Unknown)
}

func requireGit(t *testing.T) {
	t.Helper()
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not installed")
	}
}

// commitGitlinkBump turns root into a git repo with two commits: one holding
// gitlink entries for the given submodule paths and one bumping each pointer.
// Gitlink objects never live in the superproject, so the fake SHAs commit
// fine. Returns the base and head commit SHAs.
func commitGitlinkBump(t *testing.T, root string, paths ...string) (base, head string) {
	t.Helper()
	git := func(args ...string) string {
		t.Helper()
		cmd := exec.Command("git", args...)
		cmd.Dir = root
		cmd.Env = append(os.Environ(),
			"GIT_AUTHOR_NAME=test", "GIT_AUTHOR_EMAIL=test@example.com",
			"GIT_COMMITTER_NAME=test", "GIT_COMMITTER_EMAIL=test@example.com",
		)
		out, err := cmd.CombinedOutput()
		require.NoError(t, err, "git %v: %s", args, out)
		return strings.TrimSpace(string(out))
	}

	git("init", "-q")
	for _, p := range paths {
		git("update-index", "--add", "--cacheinfo", "160000,"+strings.Repeat("a", 40)+","+p)
	}
	git("commit", "-q", "--allow-empty", "-m", "base")
	base = git("rev-parse", "HEAD")

	for _, p := range paths {
		git("update-index", "--add", "--cacheinfo", "160000,"+strings.Repeat("b", 40)+","+p)
	}
	git("commit", "-q", "--allow-empty", "-m", "bump")
	head = git("rev-parse", "HEAD")
	return base, head
}

func TestSelectChangedRuleBump(t *testing.T) {
	requireBash(t)
	requireGit(t)
	root := t.TempDir()
	writeBenchmark(t, root, "TDD", "#!/bin/bash\ntrue\n", "")
	writeBenchmark(t, root, "AAA", "#!/bin/bash\ntrue\n", "")

	base, head := commitGitlinkBump(t, root, "benchmarks/TDD")

	eng := newTestEngine(t, root)
	sel, err := eng.SelectChanged(context.Background(), base, head)
	require.NoError(t, err)
	require.Len(t, sel.Benchmarks, 1)
	assert.Equal(t, "TDD", sel.Benchmarks[0].Rule)
	assert.Empty(t, sel.Unknown)
}

func TestSelectChangedMetricsBumpSelectsAll(t *testing.T) {
	requireBash(t)
	requireGit(t)
	root := t.TempDir()
	writeBenchmark(t, root, "TDD", "#!/bin/bash\ntrue\n", "")
	writeBenchmark(t, root, "AAA", "#!/bin/bash\ntrue\n", "")

	base, head := commitGitlinkBump(t, root, "_metrics")

	eng := newTestEngine(t, root)
	sel, err := eng.SelectChanged(context.Background(), base, head)
	require.NoError(t, err)
	require.Len(t, sel.Benchmarks, 2)
	assert.Equal(t, "AAA", sel.Benchmarks[0].Rule)
	assert.Equal(t, "TDD", sel.Benchmarks[1].Rule)
}

func TestSelectChangedNoGitlinkChanges(t *testing.T) {
	requireBash(t)
	requireGit(t)
	root := t.TempDir()
	writeBenchmark(t, root, "TDD", "#!/bin/bash\ntrue\n", "")

	base, head := commitGitlinkBump(t, root)

	eng := newTestEngine(t, root)
	sel, err := eng.SelectChanged(context.Background(), base, head)
	require.NoError(t, err)
	assert.Empty(t, sel.Benchmarks)
}

func TestGenerate(t *testing.T) {
	requireBash(t)
	root := t.TempDir()
	writeBenchmark(t, root, "TDD", "#!/bin/bash\necho data > \"$1/raw.txt\"\n",
		"name: TDD\ndescription: Enforces writing tests first.\n")

	eng := newTestEngine(t, root)
	sel, err := eng.SelectAll()
	require.NoError(t, err)

	result, err := eng.Generate(context.Background(), "all", sel.Benchmarks)
	require.NoError(t, err)
	assert.Equal(t, state.RunStatusCompleted, result.Status)
	require.Len(t, result.Toolchains, 1)
	assert.Equal(t, state.ToolchainStatusSuccess, result.Toolchains[0].Status)
	assert.Empty(t, result.Failed())

	// The decorated RESULTS.md carries the title, the default repo link,
	// the manifest description, and the aggregator's table.
	doc, err := results.ParseFile(filepath.Join(root, "rules", "TDD", "sh", "RESULTS.md"))
	require.NoError(t, err)
	assert.Equal(t, "TDD (sh)", doc.Title)
	assert.Equal(t, "https://github.com/CursorCult/_benchmark_TDD.git", doc.RepoURL)
	assert.Equal(t, "Enforces writing tests first.", doc.Description)
	require.Len(t, doc.Table.Rows, 2)
	assert.Equal(t, "v1", doc.LatestVersion())

	// The ledger recorded the run and its toolchain.
	run, err := eng.Store().GetRun(result.RunID)
	require.NoError(t, err)
	assert.Equal(t, state.RunStatusCompleted, run.Status)

	toolchains, err := eng.Store().GetToolchainRunsForRun(result.RunID)
	require.NoError(t, err)
	require.Len(t, toolchains, 1)
	assert.Equal(t, state.ToolchainStatusSuccess, toolchains[0].Status)
}

func TestGenerateManifestRepoURLOverride(t *testing.T) {
	requireBash(t)
	root := t.TempDir()
	writeBenchmark(t, root, "TDD", "#!/bin/bash\ntrue\n",
		"repo_url: https://example.com/custom.git\n")

	eng := newTestEngine(t, root)
	sel, err := eng.SelectAll()
	require.NoError(t, err)

	_, err = eng.Generate(context.Background(), "all", sel.Benchmarks)
	require.NoError(t, err)

	doc, err := results.ParseFile(filepath.Join(root, "rules", "TDD", "sh", "RESULTS.md"))
	require.NoError(t, err)
	assert.Equal(t, "https://example.com/custom.git", doc.RepoURL)
}

func TestGenerateSortsCompleteAggregatorOutput(t *testing.T) {
	requireBash(t)
	root := t.TempDir()
	writeBenchmark(t, root, "TDD", "#!/bin/bash\ntrue\n", "")

	// Aggregator emits a fully-decorated document, rows out of order.
	agg := `out=""
while [ $# -gt 0 ]; do
  if [ "$1" = "--output" ]; then out="$2"; shift; fi
  shift
done
printf '# TDD (sh)\n\nhttps://github.com/CursorCult/_benchmark_TDD.git\n\nAll there already.\n\n| Version | Score |\n| --- | --- |\n| v2 | 0.9 |\n| v0 | 0.5 |\n' > "$out"
`
	require.NoError(t, os.WriteFile(
		filepath.Join(root, "benchmarks", "TDD", "sh", "generate_results.py"), []byte(agg), 0755))

	eng := newTestEngine(t, root)
	sel, err := eng.SelectAll()
	require.NoError(t, err)
	_, err = eng.Generate(context.Background(), "all", sel.Benchmarks)
	require.NoError(t, err)

	doc, err := results.ParseFile(filepath.Join(root, "rules", "TDD", "sh", "RESULTS.md"))
	require.NoError(t, err)
	require.Len(t, doc.Table.Rows, 2)
	assert.Equal(t, "v0", doc.Table.Rows[0].Version)
	assert.Equal(t, "v2", doc.Table.Rows[1].Version)
}

func TestGenerateFailure(t *testing.T) {
	requireBash(t)
	root := t.TempDir()
	writeBenchmark(t, root, "BAD", "#!/bin/bash\nexit 1\n", "")
	writeBenchmark(t, root, "GOOD", "#!/bin/bash\ntrue\n", "")

	eng := newTestEngine(t, root)
	sel, err := eng.SelectAll()
	require.NoError(t, err)

	result, err := eng.Generate(context.Background(), "all", sel.Benchmarks)
	require.Error(t, err)
	assert.Equal(t, state.RunStatusFailed, result.Status)
	require.Len(t, result.Failed(), 1)
	assert.Equal(t, "BAD", result.Failed()[0].Rule)

	// The healthy benchmark still produced results.
	_, statErr := os.Stat(filepath.Join(root, "rules", "GOOD", "sh", "RESULTS.md"))
	assert.NoError(t, statErr)
}

func TestGenerateSkipsBenchmarkWithoutToolchain(t *testing.T) {
	requireBash(t)
	root := t.TempDir()
	// Submodule checkout with no language dirs.
	dir := filepath.Join(root, "benchmarks", "EMPTY")
	require.NoError(t, os.MkdirAll(dir, 0750))
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".git"), []byte("gitdir: elsewhere\n"), 0644))

	eng := newTestEngine(t, root)
	sel, err := eng.SelectAll()
	require.NoError(t, err)

	result, err := eng.Generate(context.Background(), "all", sel.Benchmarks)
	require.NoError(t, err)
	assert.Equal(t, []string{"EMPTY"}, result.Skipped)
	assert.Empty(t, result.Toolchains)
}
