package memory

import (
	"context"
	"sync"

	"bhoomi/internal/audit"
)

// InMemoryStore keeps the audit trail in process memory, indexed by the
// record the action touched.
type InMemoryStore struct {
	mu      sync.RWMutex
	entries map[string][]audit.Entry
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{entries: make(map[string][]audit.Entry)}
}

func (s *InMemoryStore) Append(_ context.Context, entry audit.Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[entry.RecordID] = append(s.entries[entry.RecordID], entry)
	return nil
}

func (s *InMemoryStore) ListByRecord(_ context.Context, recordID string) ([]audit.Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]audit.Entry{}, s.entries[recordID]...), nil
}

// Clear resets the trail. Test helper.
func (s *InMemoryStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = make(map[string][]audit.Entry)
}
