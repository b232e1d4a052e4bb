// Package config loads benchctl configuration from file, environment
// variables, and flags.
package config

import "time"

// Defaults for configuration values.
const (
	DefaultStateFile     = ".benchctl/state.db"
	DefaultRuns          = 1
	DefaultConcurrency   = 2
	DefaultPython        = "python3"
	DefaultOutput        = "auto"
	DefaultRetryAttempts = 1
	DefaultRetryDelay    = 2 * time.Second
	DefaultWatchDebounce = 2 * time.Second
)

// Config is the resolved benchctl configuration.
type Config struct {
	// RepoRoot is the benchmark results repository root. Resolved from
	// --repo-root, the config file location, or an upward search.
	RepoRoot string `koanf:"repo_root"`

	// StatePath is the SQLite run ledger location, relative to RepoRoot
	// unless absolute.
	StatePath string `koanf:"state_path"`

	// Runs is the number of runner iterations per toolchain.
	Runs int `koanf:"runs"`

	// Concurrency bounds how many benchmarks generate at once.
	Concurrency int `koanf:"concurrency"`

	// IterationTimeout limits a single runner invocation. Zero disables.
	IterationTimeout time.Duration `koanf:"iteration_timeout"`

	// RetryAttempts is how many times a failing iteration is attempted.
	RetryAttempts int `koanf:"retry_attempts"`

	// RetryDelay is the pause between iteration attempts.
	RetryDelay time.Duration `koanf:"retry_delay"`

	// Python is the interpreter used for benchmark aggregators.
	Python string `koanf:"python"`

	// WatchDebounce is the quiet period in watch mode.
	WatchDebounce time.Duration `koanf:"watch_debounce"`

	Verbose      bool   `koanf:"verbose"`
	OutputFormat string `koanf:"output"`
}
