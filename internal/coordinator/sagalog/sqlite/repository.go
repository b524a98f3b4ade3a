// Package sqlite stores the saga log in the storefront's SQLite database.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jcmexdev/ecommerce-storefront/internal/coordinator/sagalog"
	"github.com/jcmexdev/ecommerce-storefront/internal/pkg/sqltime"
)

// schema is append-only: each row is an immutable event in a saga's lifecycle.
const schema = `
CREATE TABLE IF NOT EXISTS saga_logs (
    id              INTEGER PRIMARY KEY AUTOINCREMENT,
    -- Order number; one row per transition.
    saga_id         TEXT        NOT NULL,
    status          TEXT        NOT NULL,
    current_step    TEXT        NOT NULL DEFAULT '',
    -- Written on STARTED only.
    payload         TEXT,
    error_messages  TEXT        NOT NULL DEFAULT '[]',
    trace_id        TEXT        NOT NULL DEFAULT '',
    span_id         TEXT        NOT NULL DEFAULT '',
    updated_at      TEXT        NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_saga_logs_saga_id ON saga_logs(saga_id, updated_at);
CREATE INDEX IF NOT EXISTS idx_saga_logs_trace_id ON saga_logs(trace_id);
`

// ErrNotFound is returned by GetLatest for an unknown saga id.
var ErrNotFound = errors.New("saga not found")

// Repository is the SQLite implementation of sagalog.Repository.
type Repository struct {
	db *sql.DB
}

var _ sagalog.Repository = (*Repository)(nil)

// New applies the saga_logs schema to db and returns a repository over it.
// db is usually the storefront store's handle so both share one file.
func New(db *sql.DB) (*Repository, error) {
	if _, err := db.Exec(schema); err != nil {
		return nil, fmt.Errorf("sagalog: apply schema: %w", err)
	}
	return &Repository{db: db}, nil
}

// Save inserts a new saga log entry.
func (r *Repository) Save(ctx context.Context, entry *sagalog.SagaLog) error {
	const q = `
		INSERT INTO saga_logs
			(saga_id, status, current_step, payload, error_messages, trace_id, span_id, updated_at)
		VALUES
			(?, ?, ?, ?, ?, ?, ?, ?)`

	_, err := r.db.ExecContext(ctx, q,
		entry.SagaID,
		string(entry.Status),
		entry.CurrentStep,
		nullableString(entry.Payload),
		entry.ErrorMessages,
		entry.TraceID,
		entry.SpanID,
		sqltime.Format(entry.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("sagalog: save entry for %q: %w", entry.SagaID, err)
	}
	return nil
}

// GetLatest returns the most recent log entry for a saga.
func (r *Repository) GetLatest(ctx context.Context, sagaID string) (*sagalog.SagaLog, error) {
	const q = `
		SELECT saga_id, status, current_step, COALESCE(payload,''), error_messages,
		       trace_id, span_id, updated_at
		FROM   saga_logs
		WHERE  saga_id = ?
		ORDER  BY id DESC
		LIMIT  1`

	entries, err := r.query(ctx, q, sagaID)
	if err != nil {
		return nil, fmt.Errorf("sagalog: get latest for %q: %w", sagaID, err)
	}
	if len(entries) == 0 {
		return nil, fmt.Errorf("sagalog: %q: %w", sagaID, ErrNotFound)
	}
	return &entries[0], nil
}

// History returns every entry for a saga, oldest first.
func (r *Repository) History(ctx context.Context, sagaID string) ([]sagalog.SagaLog, error) {
	const q = `
		SELECT saga_id, status, current_step, COALESCE(payload,''), error_messages,
		       trace_id, span_id, updated_at
		FROM   saga_logs
		WHERE  saga_id = ?
		ORDER  BY id`

	entries, err := r.query(ctx, q, sagaID)
	if err != nil {
		return nil, fmt.Errorf("sagalog: history for %q: %w", sagaID, err)
	}
	return entries, nil
}

func (r *Repository) query(ctx context.Context, q string, args ...any) ([]sagalog.SagaLog, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []sagalog.SagaLog
	for rows.Next() {
		var (
			entry     sagalog.SagaLog
			updatedAt string
		)
		if err := rows.Scan(
			&entry.SagaID,
			&entry.Status,
			&entry.CurrentStep,
			&entry.Payload,
			&entry.ErrorMessages,
			&entry.TraceID,
			&entry.SpanID,
			&updatedAt,
		); err != nil {
			return nil, err
		}
		if entry.UpdatedAt, err = sqltime.Parse(updatedAt); err != nil {
			return nil, fmt.Errorf("sagalog: %w", err)
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

// nullableString stores NULL for an empty payload.
func nullableString(s string) any {
	if s == "" {
		return nil
	}
	return s
}
