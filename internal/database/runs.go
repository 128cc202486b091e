package database

import (
	"context"
	"database/sql"

	"geonews/internal/flow"
)

// RunStore persists flow state in the flow_runs table. It implements
// flow.Store: Save atomically overwrites the whole row, so a reader always
// sees either the previous state or the new one.
type RunStore struct {
	db *DB
}

// Runs returns the flow state store backed by this database.
func (db *DB) Runs() *RunStore {
	return &RunStore{db: db}
}

// Save durably overwrites the record for the state's run ID.
func (s *RunStore) Save(ctx context.Context, st *flow.State) error {
	_, err := s.db.conn.ExecContext(ctx, `
INSERT INTO flow_runs (run_id, date, content, feedback, status, retry_count, fail_reason)
VALUES (?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(run_id) DO UPDATE SET
    date = excluded.date,
    content = excluded.content,
    feedback = excluded.feedback,
    status = excluded.status,
    retry_count = excluded.retry_count,
    fail_reason = excluded.fail_reason,
    updated_at = datetime('now')`,
		st.RunID, st.Date, st.Content, st.Feedback, string(st.Status), st.RetryCount, st.FailReason,
	)
	return err
}

// Load returns the persisted state for a run ID, or flow.ErrNotFound.
func (s *RunStore) Load(ctx context.Context, runID string) (*flow.State, error) {
	row := s.db.conn.QueryRowContext(ctx,
		`SELECT run_id, date, content, feedback, status, retry_count, fail_reason
		FROM flow_runs WHERE run_id = ?`, runID,
	)

	var st flow.State
	var status string
	if err := row.Scan(&st.RunID, &st.Date, &st.Content, &st.Feedback, &status,
		&st.RetryCount, &st.FailReason); err != nil {
		if err == sql.ErrNoRows {
			return nil, flow.ErrNotFound
		}
		return nil, err
	}
	st.Status = flow.Status(status)
	return &st, nil
}

// GetRecentRuns returns the most recently updated runs, newest first.
func (db *DB) GetRecentRuns(limit int) ([]RunSummary, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := db.conn.Query(
		`SELECT run_id, date, status, retry_count, fail_reason, updated_at
		FROM flow_runs ORDER BY updated_at DESC LIMIT ?`, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []RunSummary
	for rows.Next() {
		var r RunSummary
		if err := rows.Scan(&r.RunID, &r.Date, &r.Status, &r.RetryCount,
			&r.FailReason, &r.UpdatedAt); err != nil {
			return nil, err
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// GetLastRunDate returns the date of the most recent run, or empty string
// if no runs exist.
func (db *DB) GetLastRunDate() (string, error) {
	row := db.conn.QueryRow("SELECT date FROM flow_runs ORDER BY date DESC LIMIT 1")

	var date string
	if err := row.Scan(&date); err != nil {
		if err == sql.ErrNoRows {
			return "", nil
		}
		return "", err
	}
	return date, nil
}
