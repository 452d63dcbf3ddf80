// Package ledger is the sole persistence boundary of the registry: a
// deterministic key/value document store with point lookups, one predicate
// query, and atomic multi-record commits.
//
// Each registry operation runs inside one Update transaction; every Put
// issued inside it commits together or not at all. The store serializes
// conflicting writers per key (the in-memory store by mutual exclusion, the
// Postgres store by serializable SQL transactions), so the registry logic
// performs no locking of its own. A caller whose transaction loses a
// conflict receives sentinel.ErrConflict and must resubmit the whole
// operation with freshly re-read preconditions.
package ledger

import (
	"context"
	"encoding/json"
	"fmt"
)

// Document is one ledger record: a globally unique key, a docType
// discriminator, the JSON body, and a version incremented on every write.
type Document struct {
	Key     string
	DocType string
	Body    json.RawMessage
	Version int64
}

// Decode unmarshals the document body into v.
func (d Document) Decode(v any) error {
	if err := json.Unmarshal(d.Body, v); err != nil {
		return fmt.Errorf("decode %s %s: %w", d.DocType, d.Key, err)
	}
	return nil
}

// NewDocument marshals v into a document envelope.
func NewDocument(key, docType string, v any) (Document, error) {
	body, err := json.Marshal(v)
	if err != nil {
		return Document{}, fmt.Errorf("encode %s %s: %w", docType, key, err)
	}
	return Document{Key: key, DocType: docType, Body: body}, nil
}

// ReadTx exposes the read operations available inside a transaction.
type ReadTx interface {
	// Get returns the document stored under key, or sentinel.ErrNotFound.
	Get(ctx context.Context, key string) (Document, error)
	// Exists is the boolean existence probe.
	Exists(ctx context.Context, key string) (bool, error)
	// UnitsByParcel is the predicate query over (docType=unit,
	// parentParcelId). It requires the store to maintain a secondary,
	// non-key index.
	UnitsByParcel(ctx context.Context, parentParcelID string) ([]Document, error)
}

// Tx adds buffered writes to a read transaction. Puts become visible to
// subsequent reads in the same transaction and durable only on commit.
type Tx interface {
	ReadTx
	Put(doc Document)
}

// Store is the ledger contract. Update runs fn inside one atomic
// transaction; returning an error from fn aborts every buffered write.
type Store interface {
	View(ctx context.Context, fn func(ReadTx) error) error
	Update(ctx context.Context, fn func(Tx) error) error
	Close()
}
