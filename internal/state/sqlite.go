package state

import (
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite" // SQLite driver (pure Go)
)

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db     *sql.DB
	path   string
	logger *slog.Logger
}

// NewSQLiteStore creates a new SQLite ledger instance.
func NewSQLiteStore(logger *slog.Logger) *SQLiteStore {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &SQLiteStore{logger: logger}
}

// Open opens a connection to the SQLite database.
// Use ":memory:" for an in-memory database.
func (s *SQLiteStore) Open(path string) error {
	dsn := path
	if path != ":memory:" {
		dsn = fmt.Sprintf("file:%s?_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)", path)
	} else {
		dsn = ":memory:"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return fmt.Errorf("failed to open sqlite database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return fmt.Errorf("failed to ping sqlite database: %w", err)
	}

	s.db = db
	s.path = path
	return nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

func generateID() string {
	return uuid.New().String()
}

// CreateRun inserts a new running ledger entry.
func (s *SQLiteStore) CreateRun(trigger string) (*Run, error) {
	if s.db == nil {
		return nil, fmt.Errorf("database not opened")
	}

	run := &Run{
		ID:        generateID(),
		Trigger:   trigger,
		Status:    RunStatusRunning,
		StartedAt: time.Now().UTC(),
	}

	s.logger.Debug("creating run", slog.String("id", run.ID), slog.String("trigger", trigger))

	_, err := s.db.Exec(
		`INSERT INTO runs (id, trigger_kind, status, started_at) VALUES (?, ?, ?, ?)`,
		run.ID, run.Trigger, run.Status, run.StartedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create run: %w", err)
	}
	return run, nil
}

// CompleteRun marks a run finished with the given status.
func (s *SQLiteStore) CompleteRun(id string, status RunStatus, errMsg string) error {
	if s.db == nil {
		return fmt.Errorf("database not opened")
	}

	now := time.Now().UTC()
	_, err := s.db.Exec(
		`UPDATE runs SET status = ?, completed_at = ?, error = ? WHERE id = ?`,
		status, now, nullable(errMsg), id,
	)
	if err != nil {
		return fmt.Errorf("failed to complete run: %w", err)
	}
	return nil
}

// GetRun retrieves a run by ID.
func (s *SQLiteStore) GetRun(id string) (*Run, error) {
	if s.db == nil {
		return nil, fmt.Errorf("database not opened")
	}

	row := s.db.QueryRow(
		`SELECT id, trigger_kind, status, started_at, completed_at, error FROM runs WHERE id = ?`, id)
	run, err := scanRun(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("run not found: %s", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get run: %w", err)
	}
	return run, nil
}

// GetLatestRun retrieves the most recent run, or nil when none exists.
func (s *SQLiteStore) GetLatestRun() (*Run, error) {
	if s.db == nil {
		return nil, fmt.Errorf("database not opened")
	}

	row := s.db.QueryRow(
		`SELECT id, trigger_kind, status, started_at, completed_at, error FROM runs ORDER BY started_at DESC LIMIT 1`)
	run, err := scanRun(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get latest run: %w", err)
	}
	return run, nil
}

// ListRuns retrieves the most recent runs up to the given limit.
func (s *SQLiteStore) ListRuns(limit int) ([]*Run, error) {
	if s.db == nil {
		return nil, fmt.Errorf("database not opened")
	}

	rows, err := s.db.Query(
		`SELECT id, trigger_kind, status, started_at, completed_at, error FROM runs ORDER BY started_at DESC LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	var runs []*Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// RecordToolchainRun inserts a toolchain run row. The ID is assigned here.
func (s *SQLiteStore) RecordToolchainRun(tr *ToolchainRun) error {
	if s.db == nil {
		return fmt.Errorf("database not opened")
	}

	if tr.ID == "" {
		tr.ID = generateID()
	}
	_, err := s.db.Exec(
		`INSERT INTO toolchain_runs (id, run_id, rule, language, status, iterations, duration_ms, error)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		tr.ID, tr.RunID, tr.Rule, tr.Language, tr.Status, tr.Iterations, tr.DurationMS, nullable(tr.Error),
	)
	if err != nil {
		return fmt.Errorf("failed to record toolchain run: %w", err)
	}
	return nil
}

// UpdateToolchainRun updates the status, duration, and error of a row.
func (s *SQLiteStore) UpdateToolchainRun(id string, status ToolchainStatus, durationMS int64, errMsg string) error {
	if s.db == nil {
		return fmt.Errorf("database not opened")
	}

	_, err := s.db.Exec(
		`UPDATE toolchain_runs SET status = ?, duration_ms = ?, error = ? WHERE id = ?`,
		status, durationMS, nullable(errMsg), id,
	)
	if err != nil {
		return fmt.Errorf("failed to update toolchain run: %w", err)
	}
	return nil
}

// GetToolchainRunsForRun retrieves every toolchain run of a given run.
func (s *SQLiteStore) GetToolchainRunsForRun(runID string) ([]*ToolchainRun, error) {
	if s.db == nil {
		return nil, fmt.Errorf("database not opened")
	}

	rows, err := s.db.Query(
		`SELECT id, run_id, rule, language, status, iterations, duration_ms, error
		 FROM toolchain_runs WHERE run_id = ? ORDER BY rule, language`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to get toolchain runs: %w", err)
	}
	defer rows.Close()

	var result []*ToolchainRun
	for rows.Next() {
		tr := &ToolchainRun{}
		var errMsg sql.NullString
		if err := rows.Scan(&tr.ID, &tr.RunID, &tr.Rule, &tr.Language, &tr.Status,
			&tr.Iterations, &tr.DurationMS, &errMsg); err != nil {
			return nil, fmt.Errorf("failed to scan toolchain run: %w", err)
		}
		tr.Error = errMsg.String
		result = append(result, tr)
	}
	return result, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (*Run, error) {
	run := &Run{}
	var completedAt sql.NullTime
	var errMsg sql.NullString

	err := row.Scan(&run.ID, &run.Trigger, &run.Status, &run.StartedAt, &completedAt, &errMsg)
	if err != nil {
		return nil, err
	}
	if completedAt.Valid {
		t := completedAt.Time
		run.CompletedAt = &t
	}
	run.Error = errMsg.String
	return run, nil
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}
