package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"
)

// maxUpwardSearchLevels limits how far up the directory tree to search for
// the repository root.
const maxUpwardSearchLevels = 10

var configNames = []string{"benchctl.yaml", "benchctl.yml"}

// Package-level config file tracking.
var (
	configFileUsed string
	currentConfig  *Config
)

// configExistsIn checks if a benchctl config file exists in the directory.
func configExistsIn(dir string) (string, bool) {
	for _, name := range configNames {
		candidate := filepath.Join(dir, name)
		if _, err := os.Stat(candidate); err == nil {
			return candidate, true
		}
	}
	return "", false
}

// looksLikeRepoRoot reports whether dir holds a results repository: either
// a benchctl config or the conventional benchmarks/ directory alongside
// .gitmodules.
func looksLikeRepoRoot(dir string) bool {
	if _, ok := configExistsIn(dir); ok {
		return true
	}
	if _, err := os.Stat(filepath.Join(dir, ".gitmodules")); err != nil {
		return false
	}
	info, err := os.Stat(filepath.Join(dir, "benchmarks"))
	return err == nil && info.IsDir()
}

// findRepoRootUpward searches upward from startDir for a repository root.
// Returns empty string if not found within maxUpwardSearchLevels.
func findRepoRootUpward(startDir string) string {
	dir := startDir
	for i := 0; i < maxUpwardSearchLevels; i++ {
		if looksLikeRepoRoot(dir) {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return ""
}

// inferRepoRoot determines the repository root from flags and filesystem.
// Priority: explicit --repo-root, upward search from CWD, CWD.
func inferRepoRoot(flags *pflag.FlagSet) string {
	if flags != nil && flags.Changed("repo-root") {
		if root, _ := flags.GetString("repo-root"); root != "" {
			if abs, err := filepath.Abs(root); err == nil {
				return abs
			}
			return filepath.Clean(root)
		}
	}

	if cwd, err := os.Getwd(); err == nil {
		if root := findRepoRootUpward(cwd); root != "" {
			return root
		}
	}

	cwd, _ := os.Getwd()
	if cwd == "" {
		cwd = "."
	}
	return cwd
}

// ResetConfig clears loader state. Used for testing.
func ResetConfig() {
	configFileUsed = ""
	currentConfig = nil
}

// LoadConfig loads configuration with precedence (highest to lowest):
// flags > env vars > config file > defaults.
func LoadConfig(cfgFile string, flags *pflag.FlagSet) (*Config, error) {
	k := koanf.New(".")

	repoRoot := inferRepoRoot(flags)

	// An explicit config file anchors the repo root at its directory,
	// unless --repo-root was given too.
	if cfgFile != "" && (flags == nil || !flags.Changed("repo-root")) {
		if abs, err := filepath.Abs(cfgFile); err == nil {
			repoRoot = filepath.Dir(abs)
		}
	}

	// 1. Defaults.
	if err := k.Load(confmap.Provider(map[string]interface{}{
		"state_path":     DefaultStateFile,
		"runs":           DefaultRuns,
		"concurrency":    DefaultConcurrency,
		"retry_attempts": DefaultRetryAttempts,
		"retry_delay":    DefaultRetryDelay,
		"python":         DefaultPython,
		"watch_debounce": DefaultWatchDebounce,
		"verbose":        false,
		"output":         DefaultOutput,
	}, "."), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	// 2. Config file, explicit or discovered in the repo root.
	configFileUsed = cfgFile
	if configFileUsed == "" {
		if found, ok := configExistsIn(repoRoot); ok {
			configFileUsed = found
		}
	}
	if configFileUsed != "" {
		if err := k.Load(file.Provider(configFileUsed), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("error reading config file %s: %w", configFileUsed, err)
		}
	}

	// 3. Environment variables: BENCHCTL_RUNS -> runs.
	if err := k.Load(env.Provider("BENCHCTL_", ".", func(s string) string {
		return strings.ToLower(strings.TrimPrefix(s, "BENCHCTL_"))
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load env vars: %w", err)
	}

	// 4. Flags, explicitly set ones only.
	if flags != nil {
		if err := k.Load(posflag.ProviderWithFlag(flags, ".", k, func(f *pflag.Flag) (string, interface{}) {
			if !f.Changed {
				return "", nil
			}
			key := strings.ReplaceAll(f.Name, "-", "_")
			// --repo-root is resolved separately; keep it out of koanf.
			if key == "repo_root" {
				return "", nil
			}
			return key, posflag.FlagVal(flags, f)
		}), nil); err != nil {
			return nil, fmt.Errorf("failed to load flags: %w", err)
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	cfg.RepoRoot = repoRoot
	if !filepath.IsAbs(cfg.StatePath) {
		cfg.StatePath = filepath.Join(repoRoot, cfg.StatePath)
	}

	if err := Validate(&cfg); err != nil {
		return nil, err
	}

	currentConfig = &cfg
	return &cfg, nil
}

// GetConfigFileUsed returns the config file path in effect, if any.
func GetConfigFileUsed() string {
	return configFileUsed
}

// GetCurrentConfig returns the most recently loaded configuration, or nil.
func GetCurrentConfig() *Config {
	return currentConfig
}
