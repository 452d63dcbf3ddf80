package ledger

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"bhoomi/pkg/platform/sentinel"
)

// Postgres persists ledger documents in a single jsonb-backed table with an
// expression index serving the (docType, parentParcelId) predicate query.
// Update transactions run at SERIALIZABLE isolation with per-key row locks,
// so two operations writing the same asset cannot both commit with stale
// reads of each other's effects.
type Postgres struct {
	pool *pgxpool.Pool
}

// NewPostgres constructs a Postgres-backed ledger over an existing pool.
func NewPostgres(pool *pgxpool.Pool) *Postgres {
	return &Postgres{pool: pool}
}

// Migrate creates the ledger schema. Safe to run repeatedly.
func (s *Postgres) Migrate(ctx context.Context) error {
	const schema = `
CREATE TABLE IF NOT EXISTS records (
    key        text PRIMARY KEY,
    doc_type   text NOT NULL,
    body       jsonb NOT NULL,
    version    bigint NOT NULL DEFAULT 1,
    updated_at timestamptz NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS records_parent_idx
    ON records (doc_type, (body->>'parentParcelId'));
`
	if _, err := s.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("ledger: migrate: %w", err)
	}
	return nil
}

type pgTx struct {
	tx pgx.Tx
	// pending keeps writes visible to reads inside the same transaction
	// and defers the actual upserts to commit time.
	pending map[string]Document
	order   []string
	// locking is set for update transactions; FOR UPDATE is not permitted
	// inside read-only transactions.
	locking bool
}

func (t *pgTx) Get(ctx context.Context, key string) (Document, error) {
	if doc, ok := t.pending[key]; ok {
		return doc, nil
	}
	query := `SELECT doc_type, body, version FROM records WHERE key=$1`
	if t.locking {
		query += ` FOR UPDATE`
	}
	doc := Document{Key: key}
	err := t.tx.QueryRow(ctx, query, key).Scan(&doc.DocType, &doc.Body, &doc.Version)
	if errors.Is(err, pgx.ErrNoRows) {
		return Document{}, sentinel.ErrNotFound
	}
	if err != nil {
		return Document{}, fmt.Errorf("ledger: get %s: %w", key, err)
	}
	return doc, nil
}

func (t *pgTx) Exists(ctx context.Context, key string) (bool, error) {
	if _, ok := t.pending[key]; ok {
		return true, nil
	}
	var exists bool
	if err := t.tx.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM records WHERE key=$1)`,
		key,
	).Scan(&exists); err != nil {
		return false, fmt.Errorf("ledger: exists %s: %w", key, err)
	}
	return exists, nil
}

func (t *pgTx) UnitsByParcel(ctx context.Context, parentParcelID string) ([]Document, error) {
	rows, err := t.tx.Query(ctx,
		`SELECT key, doc_type, body, version FROM records
         WHERE doc_type='unit' AND body->>'parentParcelId'=$1
         ORDER BY key`,
		parentParcelID,
	)
	if err != nil {
		return nil, fmt.Errorf("ledger: units by parcel %s: %w", parentParcelID, err)
	}
	defer rows.Close()

	var out []Document
	for rows.Next() {
		var doc Document
		if err := rows.Scan(&doc.Key, &doc.DocType, &doc.Body, &doc.Version); err != nil {
			return nil, fmt.Errorf("ledger: scan unit: %w", err)
		}
		out = append(out, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ledger: iterate units: %w", err)
	}
	return out, nil
}

func (t *pgTx) Put(doc Document) {
	if _, ok := t.pending[doc.Key]; !ok {
		t.order = append(t.order, doc.Key)
	}
	t.pending[doc.Key] = doc
}

func (t *pgTx) flush(ctx context.Context) error {
	for _, key := range t.order {
		doc := t.pending[key]
		if _, err := t.tx.Exec(ctx,
			`INSERT INTO records (key, doc_type, body, version)
             VALUES ($1, $2, $3, 1)
             ON CONFLICT (key) DO UPDATE
             SET body = EXCLUDED.body,
                 version = records.version + 1,
                 updated_at = now()`,
			doc.Key, doc.DocType, doc.Body,
		); err != nil {
			return fmt.Errorf("ledger: put %s: %w", key, err)
		}
	}
	return nil
}

// View runs fn in a read-only transaction.
func (s *Postgres) View(ctx context.Context, fn func(ReadTx) error) error {
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{AccessMode: pgx.ReadOnly})
	if err != nil {
		return fmt.Errorf("ledger: begin view: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := fn(&pgTx{tx: tx, pending: map[string]Document{}}); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("ledger: commit view: %w", err)
	}
	return nil
}

// Update runs fn in one serializable transaction; every buffered Put commits
// atomically or not at all. Conflicting concurrent updates surface
// sentinel.ErrConflict and the caller must resubmit the whole operation.
func (s *Postgres) Update(ctx context.Context, fn func(Tx) error) error {
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.Serializable})
	if err != nil {
		return fmt.Errorf("ledger: begin update: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	ptx := &pgTx{tx: tx, pending: map[string]Document{}, locking: true}
	if err := fn(ptx); err != nil {
		return err
	}
	if err := ptx.flush(ctx); err != nil {
		return translateConflict(err)
	}
	if err := tx.Commit(ctx); err != nil {
		return translateConflict(fmt.Errorf("ledger: commit update: %w", err))
	}
	return nil
}

// Close releases the underlying pool.
func (s *Postgres) Close() {
	s.pool.Close()
}

func translateConflict(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "40001", "40P01": // serialization_failure, deadlock_detected
			return fmt.Errorf("%w: %v", sentinel.ErrConflict, err)
		case "23505": // unique_violation
			return fmt.Errorf("%w: %v", sentinel.ErrAlreadyExists, err)
		}
	}
	return err
}
