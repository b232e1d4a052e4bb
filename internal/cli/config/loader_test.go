package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestFlags() *pflag.FlagSet {
	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.String("repo-root", "", "")
	flags.String("state-path", "", "")
	flags.Int("runs", DefaultRuns, "")
	flags.Int("concurrency", DefaultConcurrency, "")
	flags.String("python", DefaultPython, "")
	flags.Bool("verbose", false, "")
	flags.StringP("output", "o", "", "")
	return flags
}

func TestLoadConfigDefaults(t *testing.T) {
	t.Cleanup(ResetConfig)
	root := t.TempDir()
	flags := newTestFlags()
	require.NoError(t, flags.Set("repo-root", root))

	cfg, err := LoadConfig("", flags)
	require.NoError(t, err)

	assert.Equal(t, root, cfg.RepoRoot)
	assert.Equal(t, filepath.Join(root, DefaultStateFile), cfg.StatePath)
	assert.Equal(t, DefaultRuns, cfg.Runs)
	assert.Equal(t, DefaultConcurrency, cfg.Concurrency)
	assert.Equal(t, DefaultPython, cfg.Python)
	assert.Equal(t, DefaultRetryAttempts, cfg.RetryAttempts)
	assert.Equal(t, DefaultRetryDelay, cfg.RetryDelay)
	assert.Equal(t, DefaultWatchDebounce, cfg.WatchDebounce)
	assert.Equal(t, DefaultOutput, cfg.OutputFormat)
	assert.False(t, cfg.Verbose)
}

func TestLoadConfigFromFile(t *testing.T) {
	t.Cleanup(ResetConfig)
	root := t.TempDir()
	cfgPath := filepath.Join(root, "benchctl.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte(`
runs: 5
concurrency: 4
python: python3.12
iteration_timeout: 30s
`), 0644))

	flags := newTestFlags()
	require.NoError(t, flags.Set("repo-root", root))

	cfg, err := LoadConfig("", flags)
	require.NoError(t, err)

	assert.Equal(t, cfgPath, GetConfigFileUsed())
	assert.Equal(t, 5, cfg.Runs)
	assert.Equal(t, 4, cfg.Concurrency)
	assert.Equal(t, "python3.12", cfg.Python)
	assert.Equal(t, 30*time.Second, cfg.IterationTimeout)
}

func TestLoadConfigExplicitFileAnchorsRoot(t *testing.T) {
	t.Cleanup(ResetConfig)
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "benchctl.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("runs: 2\n"), 0644))

	cfg, err := LoadConfig(cfgPath, nil)
	require.NoError(t, err)

	resolved, err := filepath.EvalSymlinks(cfg.RepoRoot)
	require.NoError(t, err)
	expected, err := filepath.EvalSymlinks(dir)
	require.NoError(t, err)
	assert.Equal(t, expected, resolved)
	assert.Equal(t, 2, cfg.Runs)
}

func TestLoadConfigEnvOverridesFile(t *testing.T) {
	t.Cleanup(ResetConfig)
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "benchctl.yaml"), []byte("runs: 5\n"), 0644))
	t.Setenv("BENCHCTL_RUNS", "7")

	flags := newTestFlags()
	require.NoError(t, flags.Set("repo-root", root))

	cfg, err := LoadConfig("", flags)
	require.NoError(t, err)
	assert.Equal(t, 7, cfg.Runs)
}

func TestLoadConfigFlagsOverrideEnv(t *testing.T) {
	t.Cleanup(ResetConfig)
	root := t.TempDir()
	t.Setenv("BENCHCTL_RUNS", "7")

	flags := newTestFlags()
	require.NoError(t, flags.Set("repo-root", root))
	require.NoError(t, flags.Set("runs", "9"))

	cfg, err := LoadConfig("", flags)
	require.NoError(t, err)
	assert.Equal(t, 9, cfg.Runs)
}

func TestLoadConfigUnsetFlagsDoNotOverride(t *testing.T) {
	t.Cleanup(ResetConfig)
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "benchctl.yaml"), []byte("runs: 5\n"), 0644))

	// The runs flag exists with its default but was never set.
	flags := newTestFlags()
	require.NoError(t, flags.Set("repo-root", root))

	cfg, err := LoadConfig("", flags)
	require.NoError(t, err)
	assert.Equal(t, 5, cfg.Runs)
}

func TestLoadConfigAbsoluteStatePath(t *testing.T) {
	t.Cleanup(ResetConfig)
	root := t.TempDir()
	statePath := filepath.Join(t.TempDir(), "ledger.db")
	require.NoError(t, os.WriteFile(filepath.Join(root, "benchctl.yaml"),
		[]byte("state_path: "+statePath+"\n"), 0644))

	flags := newTestFlags()
	require.NoError(t, flags.Set("repo-root", root))

	cfg, err := LoadConfig("", flags)
	require.NoError(t, err)
	assert.Equal(t, statePath, cfg.StatePath)
}

func TestLoadConfigInvalid(t *testing.T) {
	t.Cleanup(ResetConfig)
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "benchctl.yaml"), []byte("runs: 0\n"), 0644))

	flags := newTestFlags()
	require.NoError(t, flags.Set("repo-root", root))

	_, err := LoadConfig("", flags)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "runs must be at least 1")
}

func TestFindRepoRootUpward(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, ".gitmodules"), []byte(""), 0644))
	require.NoError(t, os.MkdirAll(filepath.Join(root, "benchmarks"), 0750))

	nested := filepath.Join(root, "rules", "TDD", "python")
	require.NoError(t, os.MkdirAll(nested, 0750))

	assert.Equal(t, root, findRepoRootUpward(nested))
	assert.Equal(t, "", findRepoRootUpward(t.TempDir()))
}

func TestLooksLikeRepoRoot(t *testing.T) {
	// A config file alone marks the root.
	withConfig := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(withConfig, "benchctl.yml"), []byte(""), 0644))
	assert.True(t, looksLikeRepoRoot(withConfig))

	// .gitmodules without benchmarks/ is not enough.
	partial := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(partial, ".gitmodules"), []byte(""), 0644))
	assert.False(t, looksLikeRepoRoot(partial))

	assert.False(t, looksLikeRepoRoot(t.TempDir()))
}
