package audit

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Store persists audit entries. Implementations must be append-only.
type Store interface {
	Append(ctx context.Context, entry Entry) error
	ListByRecord(ctx context.Context, recordID string) ([]Entry, error)
}

// Publisher captures structured audit entries. Writes are synchronous;
// callers decide whether a failed write aborts the privileged operation or
// is logged and tolerated.
type Publisher struct {
	store Store
}

func NewPublisher(store Store) *Publisher {
	return &Publisher{store: store}
}

func (p *Publisher) Emit(ctx context.Context, entry Entry) error {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now().UTC()
	}
	return p.store.Append(ctx, entry)
}

func (p *Publisher) List(ctx context.Context, recordID string) ([]Entry, error) {
	return p.store.ListByRecord(ctx, recordID)
}
