// Package sqlite persists analysis run history in a local SQLite database.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/FaridSuleymanov/sibyl/internal/store"
	_ "github.com/mattn/go-sqlite3"
)

// Store implements the store.Store interface using SQLite.
type Store struct {
	db *sql.DB
}

// NewStore creates a new SQLite store at the given path.
// Use ":memory:" for in-memory database (useful for testing).
func NewStore(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	s := &Store{db: db}

	if err := s.createSchema(); err != nil {
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	return s, nil
}

// createSchema creates all tables and indexes if they don't exist.
func (s *Store) createSchema() error {
	schema := `
	-- One row per analysis run with its synthesized verdict
	CREATE TABLE IF NOT EXISTS runs (
		run_id TEXT PRIMARY KEY,
		timestamp INTEGER NOT NULL,
		query TEXT NOT NULL,
		location TEXT,
		safety_coefficient INTEGER NOT NULL,
		escalation_risk_24h INTEGER NOT NULL,
		color_band TEXT NOT NULL,
		dominant_threat TEXT,
		executive_summary TEXT,
		final_verdict TEXT,
		error_count INTEGER DEFAULT 0
	);

	-- Accepted or degraded output of each perspective core
	CREATE TABLE IF NOT EXISTS core_outputs (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id TEXT NOT NULL,
		position INTEGER NOT NULL,
		perspective TEXT NOT NULL,
		text TEXT NOT NULL,
		attempts INTEGER NOT NULL,
		error TEXT,
		FOREIGN KEY (run_id) REFERENCES runs(run_id) ON DELETE CASCADE
	);

	CREATE INDEX IF NOT EXISTS idx_core_outputs_run ON core_outputs(run_id);
	CREATE INDEX IF NOT EXISTS idx_runs_timestamp ON runs(timestamp DESC);
	`

	_, err := s.db.Exec(schema)
	return err
}

// CreateRun stores a new analysis run.
func (s *Store) CreateRun(ctx context.Context, run store.Run) error {
	query := `
		INSERT INTO runs (run_id, timestamp, query, location, safety_coefficient,
			escalation_risk_24h, color_band, dominant_threat, executive_summary,
			final_verdict, error_count)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := s.db.ExecContext(ctx, query,
		run.RunID,
		run.Timestamp.Unix(),
		run.Query,
		run.Location,
		run.SafetyCoefficient,
		run.EscalationRisk24h,
		run.ColorBand,
		run.DominantThreat,
		run.ExecutiveSummary,
		run.FinalVerdict,
		run.ErrorCount,
	)

	if err != nil {
		return fmt.Errorf("failed to create run: %w", err)
	}

	return nil
}

// GetRun retrieves a run by ID.
func (s *Store) GetRun(ctx context.Context, runID string) (store.Run, error) {
	query := `
		SELECT run_id, timestamp, query, location, safety_coefficient,
			escalation_risk_24h, color_band, dominant_threat, executive_summary,
			final_verdict, error_count
		FROM runs
		WHERE run_id = ?
	`

	var run store.Run
	var timestamp int64

	err := s.db.QueryRowContext(ctx, query, runID).Scan(
		&run.RunID,
		&timestamp,
		&run.Query,
		&run.Location,
		&run.SafetyCoefficient,
		&run.EscalationRisk24h,
		&run.ColorBand,
		&run.DominantThreat,
		&run.ExecutiveSummary,
		&run.FinalVerdict,
		&run.ErrorCount,
	)

	if err != nil {
		if err == sql.ErrNoRows {
			return store.Run{}, fmt.Errorf("run not found: %s", runID)
		}
		return store.Run{}, fmt.Errorf("failed to get run: %w", err)
	}

	run.Timestamp = time.Unix(timestamp, 0)
	return run, nil
}

// ListRuns retrieves the most recent runs, limited by the given count.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]store.Run, error) {
	query := `
		SELECT run_id, timestamp, query, location, safety_coefficient,
			escalation_risk_24h, color_band, dominant_threat, executive_summary,
			final_verdict, error_count
		FROM runs
		ORDER BY timestamp DESC
		LIMIT ?
	`

	rows, err := s.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	var runs []store.Run
	for rows.Next() {
		var run store.Run
		var timestamp int64

		if err := rows.Scan(
			&run.RunID,
			&timestamp,
			&run.Query,
			&run.Location,
			&run.SafetyCoefficient,
			&run.EscalationRisk24h,
			&run.ColorBand,
			&run.DominantThreat,
			&run.ExecutiveSummary,
			&run.FinalVerdict,
			&run.ErrorCount,
		); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}

		run.Timestamp = time.Unix(timestamp, 0)
		runs = append(runs, run)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating runs: %w", err)
	}

	return runs, nil
}

// SaveCoreOutputs stores the perspective outputs of one run in a single
// transaction.
func (s *Store) SaveCoreOutputs(ctx context.Context, outputs []store.CoreOutputRecord) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO core_outputs (run_id, position, perspective, text, attempts, error)
		VALUES (?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	for _, output := range outputs {
		if _, err := stmt.ExecContext(ctx,
			output.RunID,
			output.Position,
			output.Perspective,
			output.Text,
			output.Attempts,
			output.Error,
		); err != nil {
			return fmt.Errorf("failed to insert core output: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// GetCoreOutputsByRun retrieves all perspective outputs for a given run in
// pipeline order.
func (s *Store) GetCoreOutputsByRun(ctx context.Context, runID string) ([]store.CoreOutputRecord, error) {
	query := `
		SELECT run_id, position, perspective, text, attempts, error
		FROM core_outputs
		WHERE run_id = ?
		ORDER BY position ASC
	`

	rows, err := s.db.QueryContext(ctx, query, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to get core outputs by run: %w", err)
	}
	defer rows.Close()

	var outputs []store.CoreOutputRecord
	for rows.Next() {
		var output store.CoreOutputRecord

		if err := rows.Scan(
			&output.RunID,
			&output.Position,
			&output.Perspective,
			&output.Text,
			&output.Attempts,
			&output.Error,
		); err != nil {
			return nil, fmt.Errorf("failed to scan core output: %w", err)
		}

		outputs = append(outputs, output)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating core outputs: %w", err)
	}

	return outputs, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}
