package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bhoomi/internal/audit"
)

func TestAppendAndListByRecord(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store := NewInMemoryStore()

	first := audit.Entry{
		ID: "1", Timestamp: time.Unix(100, 0).UTC(),
		ActorID: "r1", Role: "land_authority",
		Action: audit.ActionStatusOverride, RecordID: "P1", Detail: "status set to RESTRICTED",
	}
	second := audit.Entry{
		ID: "2", Timestamp: time.Unix(200, 0).UTC(),
		ActorID: "r1", Role: "land_authority",
		Action: audit.ActionTransferApproved, RecordID: "P1",
	}
	require.NoError(t, store.Append(ctx, first))
	require.NoError(t, store.Append(ctx, second))
	require.NoError(t, store.Append(ctx, audit.Entry{ID: "3", RecordID: "P2", Action: audit.ActionDisputeFlagged}))

	entries, err := store.ListByRecord(ctx, "P1")
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, first, entries[0])
	assert.Equal(t, second, entries[1])

	none, err := store.ListByRecord(ctx, "unknown")
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestPublisherDefaultsIDAndTimestamp(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store := NewInMemoryStore()
	publisher := audit.NewPublisher(store)

	require.NoError(t, publisher.Emit(ctx, audit.Entry{
		ActorID: "r1", Action: audit.ActionParcelsMerged, RecordID: "M1",
	}))

	entries, err := publisher.List(ctx, "M1")
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.NotEmpty(t, entries[0].ID)
	assert.False(t, entries[0].Timestamp.IsZero())
}
