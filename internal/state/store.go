// Package state keeps a local ledger of generation runs in SQLite.
// The ledger is informational only: generation never reads it.
package state

import "time"

// RunStatus is the lifecycle state of a generation run.
type RunStatus string

const (
	RunStatusRunning   RunStatus = "running"
	RunStatusCompleted RunStatus = "completed"
	RunStatusFailed    RunStatus = "failed"
)

// ToolchainStatus is the state of one benchmark/language execution within
// a run.
type ToolchainStatus string

const (
	ToolchainStatusPending ToolchainStatus = "pending"
	ToolchainStatusRunning ToolchainStatus = "running"
	ToolchainStatusSuccess ToolchainStatus = "success"
	ToolchainStatusFailed  ToolchainStatus = "failed"
	ToolchainStatusSkipped ToolchainStatus = "skipped"
)

// Run is one invocation of the generation engine.
type Run struct {
	ID          string
	Trigger     string // "all", "selected", "changed", "watch"
	Status      RunStatus
	StartedAt   time.Time
	CompletedAt *time.Time
	Error       string
}

// ToolchainRun records the execution of one toolchain during a run.
type ToolchainRun struct {
	ID         string
	RunID      string
	Rule       string
	Language   string
	Status     ToolchainStatus
	Iterations int
	DurationMS int64
	Error      string
}

// Store is the ledger interface used by the engine and CLI.
type Store interface {
	Open(path string) error
	Close() error
	Migrate() error

	CreateRun(trigger string) (*Run, error)
	CompleteRun(id string, status RunStatus, errMsg string) error
	GetRun(id string) (*Run, error)
	GetLatestRun() (*Run, error)
	ListRuns(limit int) ([]*Run, error)

	RecordToolchainRun(tr *ToolchainRun) error
	UpdateToolchainRun(id string, status ToolchainStatus, durationMS int64, errMsg string) error
	GetToolchainRunsForRun(runID string) ([]*ToolchainRun, error)
}
