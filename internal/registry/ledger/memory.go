package ledger

import (
	"context"
	"encoding/json"
	"sort"
	"sync"

	"bhoomi/pkg/platform/sentinel"
)

// InMemory is a mutex-serialized ledger for tests and single-node
// deployments. Update transactions run one at a time, which trivially
// satisfies the per-key serialization the registry requires.
type InMemory struct {
	mu   sync.RWMutex
	docs map[string]Document
}

// NewInMemory constructs an empty in-memory ledger.
func NewInMemory() *InMemory {
	return &InMemory{docs: make(map[string]Document)}
}

type memReadTx struct {
	store   *InMemory
	pending map[string]Document
}

func (t *memReadTx) Get(_ context.Context, key string) (Document, error) {
	if t.pending != nil {
		if doc, ok := t.pending[key]; ok {
			return doc, nil
		}
	}
	doc, ok := t.store.docs[key]
	if !ok {
		return Document{}, sentinel.ErrNotFound
	}
	return doc, nil
}

func (t *memReadTx) Exists(ctx context.Context, key string) (bool, error) {
	_, err := t.Get(ctx, key)
	if err == sentinel.ErrNotFound {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (t *memReadTx) UnitsByParcel(_ context.Context, parentParcelID string) ([]Document, error) {
	var out []Document
	seen := make(map[string]bool)
	match := func(doc Document) bool {
		if doc.DocType != "unit" {
			return false
		}
		var probe struct {
			ParentParcelID string `json:"parentParcelId"`
		}
		if err := json.Unmarshal(doc.Body, &probe); err != nil {
			return false
		}
		return probe.ParentParcelID == parentParcelID
	}
	for key, doc := range t.pending {
		if match(doc) {
			out = append(out, doc)
			seen[key] = true
		}
	}
	for key, doc := range t.store.docs {
		if !seen[key] && match(doc) {
			out = append(out, doc)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out, nil
}

type memTx struct {
	memReadTx
}

func (t *memTx) Put(doc Document) {
	t.pending[doc.Key] = doc
}

// View runs fn with a consistent read-only snapshot.
func (s *InMemory) View(ctx context.Context, fn func(ReadTx) error) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return fn(&memReadTx{store: s})
}

// Update runs fn inside one atomic transaction. Buffered puts are applied
// only when fn returns nil; any error discards the whole write set.
func (s *InMemory) Update(ctx context.Context, fn func(Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	tx := &memTx{memReadTx: memReadTx{store: s, pending: make(map[string]Document)}}
	if err := fn(tx); err != nil {
		return err
	}
	for key, doc := range tx.pending {
		doc.Version = s.docs[key].Version + 1
		s.docs[key] = doc
	}
	return nil
}

// Close is a no-op for the in-memory ledger.
func (s *InMemory) Close() {}
