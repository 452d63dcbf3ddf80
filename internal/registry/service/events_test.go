package service

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"bhoomi/internal/notify"
	"bhoomi/internal/notify/mocks"
	"bhoomi/internal/registry/ledger"
	"bhoomi/internal/registry/models"
	"bhoomi/pkg/requestcontext"
)

// Uses the generated emitter mock to pin down exactly which events the
// approval path produces.
func TestApproveTransferEmitsTransferApproved(t *testing.T) {
	ctrl := gomock.NewController(t)
	emitter := mocks.NewMockEmitter(ctrl)

	svc := New(ledger.NewInMemory(), emitter, slog.New(slog.DiscardHandler),
		Config{RegistrarRole: registrarRole, UnfreezePolicy: UnfreezeStrict})

	now := time.Unix(1700000000, 0).UTC()
	citizen := requestcontext.WithTime(
		requestcontext.WithCaller(context.Background(), requestcontext.Identity{CallerID: "u1", Role: "citizen"}), now)
	registrar := requestcontext.WithTime(
		requestcontext.WithCaller(context.Background(), requestcontext.Identity{CallerID: "r1", Role: registrarRole}), now)

	_, err := svc.CreateParcel(citizen, CreateParcelInput{ID: "P1", Area: 10, OwnerID: "u1"})
	require.NoError(t, err)
	_, err = svc.InitiateTransfer(citizen, "T1", "P1", models.SoleOwner("u2"), nil)
	require.NoError(t, err)

	emitter.EXPECT().Send(gomock.Any(), notify.TransferApproved{RequestID: "T1", AssetID: "P1"})

	_, err = svc.ApproveTransfer(registrar, "T1")
	require.NoError(t, err)
}
