package layout

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeBenchmark creates a fake submodule checkout under benchmarks/<rule>
// with the given language toolchains.
func writeBenchmark(t *testing.T, root, rule string, languages ...string) string {
	t.Helper()
	dir := filepath.Join(root, BenchmarksDir, rule)
	require.NoError(t, os.MkdirAll(dir, 0750))
	// Submodule checkouts carry a .git file pointing at the parent gitdir.
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".git"), []byte("gitdir: ../../.git/modules/"+rule+"\n"), 0644))
	for _, lang := range languages {
		langDir := filepath.Join(dir, lang)
		require.NoError(t, os.MkdirAll(langDir, 0750))
		require.NoError(t, os.WriteFile(filepath.Join(langDir, "run_all.sh"), []byte("#!/bin/bash\n"), 0755))
		require.NoError(t, os.WriteFile(filepath.Join(langDir, "generate_results.py"), []byte("# aggregator\n"), 0644))
	}
	return dir
}

func TestDiscover(t *testing.T) {
	root := t.TempDir()
	writeBenchmark(t, root, "TDD", "python")
	writeBenchmark(t, root, "AAA", "go", "python")

	// Not a submodule checkout: no .git entry.
	require.NoError(t, os.MkdirAll(filepath.Join(root, BenchmarksDir, "not-checked-out"), 0750))
	// Plain file, not a directory.
	require.NoError(t, os.WriteFile(filepath.Join(root, BenchmarksDir, "README.md"), []byte("x"), 0644))

	repo := New(root)
	benchmarks, err := repo.Discover()
	require.NoError(t, err)
	require.Len(t, benchmarks, 2)

	// Sorted by rule name.
	assert.Equal(t, "AAA", benchmarks[0].Rule)
	assert.Equal(t, "TDD", benchmarks[1].Rule)
	assert.Equal(t, filepath.Join(root, BenchmarksDir, "TDD"), benchmarks[1].Dir)
}

func TestDiscoverMissingBenchmarksDir(t *testing.T) {
	repo := New(t.TempDir())
	benchmarks, err := repo.Discover()
	require.NoError(t, err)
	assert.Empty(t, benchmarks)
}

func TestFind(t *testing.T) {
	root := t.TempDir()
	writeBenchmark(t, root, "TDD", "python")

	repo := New(root)

	b, err := repo.Find("TDD")
	require.NoError(t, err)
	require.NotNil(t, b)
	assert.Equal(t, "TDD", b.Rule)

	b, err = repo.Find("nope")
	require.NoError(t, err)
	assert.Nil(t, b)
}

func TestToolchains(t *testing.T) {
	root := t.TempDir()
	dir := writeBenchmark(t, root, "TDD", "python", "go")

	// Language dir with a runner but no aggregator does not qualify.
	halfDir := filepath.Join(dir, "rust")
	require.NoError(t, os.MkdirAll(halfDir, 0750))
	require.NoError(t, os.WriteFile(filepath.Join(halfDir, "run_all.sh"), []byte("#!/bin/bash\n"), 0755))

	repo := New(root)
	b, err := repo.Find("TDD")
	require.NoError(t, err)

	toolchains, err := repo.Toolchains(b)
	require.NoError(t, err)
	require.Len(t, toolchains, 2)
	assert.Equal(t, "go", toolchains[0].Language)
	assert.Equal(t, "python", toolchains[1].Language)
	assert.Equal(t, filepath.Join(dir, "python"), toolchains[1].Dir)
	assert.Equal(t, filepath.Join(dir, "python", "run_all.sh"), toolchains[1].Runner)
	assert.Equal(t, filepath.Join(dir, "python", "generate_results.py"), toolchains[1].Aggregator)
}

func TestToolchainsBareRunner(t *testing.T) {
	root := t.TempDir()
	dir := writeBenchmark(t, root, "TDD")

	langDir := filepath.Join(dir, "sh")
	require.NoError(t, os.MkdirAll(langDir, 0750))
	require.NoError(t, os.WriteFile(filepath.Join(langDir, "run_all"), []byte("#!/bin/bash\n"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(langDir, "generate_results.py"), []byte(""), 0644))

	repo := New(root)
	b, err := repo.Find("TDD")
	require.NoError(t, err)

	toolchains, err := repo.Toolchains(b)
	require.NoError(t, err)
	require.Len(t, toolchains, 1)
	assert.Equal(t, filepath.Join(langDir, "run_all"), toolchains[0].Runner)
}

func TestResultsPaths(t *testing.T) {
	repo := New("/repo")

	assert.Equal(t, filepath.Join("/repo", "rules", "TDD", "python", "RESULTS.md"),
		repo.ResultsPath("TDD", "python"))
	assert.Equal(t, filepath.Join("/repo", "rulesets", "core", "python", "RESULTS.md"),
		repo.RulesetResultsPath("core", "python"))
	assert.Equal(t, filepath.Join("/repo", ".runs", "TDD", "python"),
		repo.RunsPath("TDD", "python"))
}

func TestEnsureResultsDir(t *testing.T) {
	root := t.TempDir()
	repo := New(root)

	path, err := repo.EnsureResultsDir("TDD", "python")
	require.NoError(t, err)
	assert.Equal(t, repo.ResultsPath("TDD", "python"), path)

	info, err := os.Stat(filepath.Dir(path))
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestRuleFromSubmodule(t *testing.T) {
	tests := []struct {
		path string
		rule string
		ok   bool
	}{
		{"benchmarks/TDD", "TDD", true},
		{"benchmarks/kebab-rule", "kebab-rule", true},
		{"benchmarks/", "", false},
		{"benchmarks", "", false},
		{"benchmarks/TDD/nested", "", false},
		{"_metrics", "", false},
		{"rules/TDD", "", false},
	}
	for _, tt := range tests {
		rule, ok := RuleFromSubmodule(tt.path)
		assert.Equal(t, tt.ok, ok, tt.path)
		assert.Equal(t, tt.rule, rule, tt.path)
	}
}

func TestSubmodulePath(t *testing.T) {
	assert.Equal(t, "benchmarks/TDD", SubmodulePath("TDD"))
}
