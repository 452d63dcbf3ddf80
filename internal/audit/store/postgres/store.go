// Package postgres persists the audit trail in PostgreSQL via database/sql.
package postgres

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/lib/pq"

	"bhoomi/internal/audit"
)

// Store implements audit.Store on PostgreSQL.
type Store struct {
	db *sql.DB
}

// Open connects to the audit database.
func Open(dsn string) (*Store, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("audit: open: %w", err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("audit: ping: %w", err)
	}
	return &Store{db: db}, nil
}

// New wraps an existing connection.
func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// Migrate creates the audit schema. Safe to run repeatedly.
func (s *Store) Migrate(ctx context.Context) error {
	const schema = `
CREATE TABLE IF NOT EXISTS audit_trail (
    id        uuid PRIMARY KEY,
    ts        timestamptz NOT NULL,
    actor_id  text NOT NULL,
    role      text NOT NULL,
    action    text NOT NULL,
    record_id text NOT NULL,
    detail    text NOT NULL DEFAULT ''
);
CREATE INDEX IF NOT EXISTS audit_trail_record_idx ON audit_trail (record_id, ts);
`
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("audit: migrate: %w", err)
	}
	return nil
}

func (s *Store) Append(ctx context.Context, entry audit.Entry) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO audit_trail (id, ts, actor_id, role, action, record_id, detail)
         VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		entry.ID, entry.Timestamp, entry.ActorID, entry.Role, entry.Action, entry.RecordID, entry.Detail,
	)
	if err != nil {
		return fmt.Errorf("audit: append: %w", err)
	}
	return nil
}

func (s *Store) ListByRecord(ctx context.Context, recordID string) ([]audit.Entry, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, ts, actor_id, role, action, record_id, detail
         FROM audit_trail WHERE record_id=$1 ORDER BY ts`,
		recordID,
	)
	if err != nil {
		return nil, fmt.Errorf("audit: list by record: %w", err)
	}
	defer rows.Close()

	var entries []audit.Entry
	for rows.Next() {
		var e audit.Entry
		if err := rows.Scan(&e.ID, &e.Timestamp, &e.ActorID, &e.Role, &e.Action, &e.RecordID, &e.Detail); err != nil {
			return nil, fmt.Errorf("audit: scan entry: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("audit: iterate entries: %w", err)
	}
	return entries, nil
}

// Close releases the underlying connection pool.
func (s *Store) Close() error {
	return s.db.Close()
}
