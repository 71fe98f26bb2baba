// Package journal keeps an optional MySQL history of profile runs. The sheet
// remains the system of record; the journal only exists for audit and
// debugging, so callers degrade gracefully when it is unavailable.
package journal

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/ev28032024/TempoMetamask/pkg/models"

	_ "github.com/go-sql-driver/mysql"
)

// DB represents the journal database connection
type DB struct {
	conn *sql.DB
}

// New creates a new journal connection
func New(dsn string) (*DB, error) {
	conn, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Configure connection pool
	conn.SetMaxOpenConns(25)
	conn.SetMaxIdleConns(5)
	conn.SetConnMaxLifetime(5 * time.Minute)

	// Test connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := conn.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &DB{conn: conn}, nil
}

// Close closes the database connection
func (db *DB) Close() error {
	return db.conn.Close()
}

// EnsureSchema creates the journal tables if they do not exist yet.
func (db *DB) EnsureSchema(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS profile_runs (
			id CHAR(36) PRIMARY KEY,
			serial_number INT NOT NULL,
			status VARCHAR(32) NOT NULL DEFAULT 'running',
			at_step VARCHAR(32) NOT NULL DEFAULT '',
			error_message TEXT,
			started_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
			finished_at TIMESTAMP NULL,
			INDEX idx_profile_runs_serial (serial_number)
		)`,
		`CREATE TABLE IF NOT EXISTS step_results (
			id CHAR(36) PRIMARY KEY,
			run_id CHAR(36) NOT NULL,
			step VARCHAR(32) NOT NULL,
			status VARCHAR(32) NOT NULL,
			duration_ms BIGINT NOT NULL DEFAULT 0,
			executed_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
			INDEX idx_step_results_run (run_id)
		)`,
	}

	for _, stmt := range stmts {
		if _, err := db.conn.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to create journal schema: %w", err)
		}
	}
	return nil
}

// ==================== Profile Runs ====================

// RecordStart inserts a running journal entry and returns its ID.
func (db *DB) RecordStart(ctx context.Context, serial int) (string, error) {
	query := `
		INSERT INTO profile_runs (id, serial_number, status)
		VALUES (?, ?, 'running')
	`

	id := uuid.New().String()
	if _, err := db.conn.ExecContext(ctx, query, id, serial); err != nil {
		return "", fmt.Errorf("failed to insert run: %w", err)
	}
	return id, nil
}

// RecordStep appends one step result to a run.
func (db *DB) RecordStep(ctx context.Context, runID string, step models.StepName, status string, duration time.Duration) error {
	query := `
		INSERT INTO step_results (id, run_id, step, status, duration_ms)
		VALUES (?, ?, ?, ?, ?)
	`

	_, err := db.conn.ExecContext(ctx, query,
		uuid.New().String(),
		runID,
		string(step),
		status,
		duration.Milliseconds(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert step result: %w", err)
	}
	return nil
}

// RecordFinish marks a run terminal.
func (db *DB) RecordFinish(ctx context.Context, runID string, status string, atStep models.StepName, cause string) error {
	query := `
		UPDATE profile_runs
		SET status = ?, at_step = ?, error_message = ?, finished_at = NOW()
		WHERE id = ?
	`

	_, err := db.conn.ExecContext(ctx, query, status, string(atStep), cause, runID)
	if err != nil {
		return fmt.Errorf("failed to finish run: %w", err)
	}
	return nil
}

// ==================== Run History ====================

// Run is one journaled profile run.
type Run struct {
	ID           string
	SerialNumber int
	Status       string
	AtStep       string
	ErrorMessage sql.NullString
	StartedAt    time.Time
	FinishedAt   sql.NullTime
}

// ListRuns retrieves the most recent runs for a serial number.
func (db *DB) ListRuns(ctx context.Context, serial, limit int) ([]Run, error) {
	query := `
		SELECT id, serial_number, status, at_step, error_message, started_at, finished_at
		FROM profile_runs
		WHERE serial_number = ?
		ORDER BY started_at DESC
		LIMIT ?
	`

	rows, err := db.conn.QueryContext(ctx, query, serial, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var run Run
		err := rows.Scan(
			&run.ID,
			&run.SerialNumber,
			&run.Status,
			&run.AtStep,
			&run.ErrorMessage,
			&run.StartedAt,
			&run.FinishedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		runs = append(runs, run)
	}

	return runs, nil
}
