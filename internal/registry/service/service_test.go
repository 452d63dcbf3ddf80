package service

import (
	"context"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"bhoomi/internal/audit"
	auditmem "bhoomi/internal/audit/store/memory"
	"bhoomi/internal/notify"
	"bhoomi/internal/registry/ledger"
	"bhoomi/internal/registry/models"
	dErrors "bhoomi/pkg/domain-errors"
	"bhoomi/pkg/requestcontext"
)

const registrarRole = "land_authority"

// recordingEmitter captures events synchronously for assertions.
type recordingEmitter struct {
	mu     sync.Mutex
	events []notify.Event
}

func (r *recordingEmitter) Send(_ context.Context, event notify.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
}

func (r *recordingEmitter) named(name string) []notify.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []notify.Event
	for _, e := range r.events {
		if e.Name() == name {
			out = append(out, e)
		}
	}
	return out
}

type RegistrySuite struct {
	suite.Suite
	store      *ledger.InMemory
	emitter    *recordingEmitter
	auditStore *auditmem.InMemoryStore
	service    *Service

	citizenCtx   context.Context
	registrarCtx context.Context
}

func TestRegistrySuite(t *testing.T) {
	suite.Run(t, new(RegistrySuite))
}

func (s *RegistrySuite) SetupTest() {
	s.store = ledger.NewInMemory()
	s.emitter = &recordingEmitter{}
	s.auditStore = auditmem.NewInMemoryStore()
	s.service = New(s.store, s.emitter, slog.New(slog.DiscardHandler),
		Config{RegistrarRole: registrarRole, UnfreezePolicy: UnfreezeStrict},
		WithAudit(audit.NewPublisher(s.auditStore)),
	)

	now := time.Unix(1700000000, 0).UTC()
	s.citizenCtx = requestcontext.WithTime(
		requestcontext.WithCaller(context.Background(), requestcontext.Identity{CallerID: "citizen-1", Role: "citizen"}),
		now,
	)
	s.registrarCtx = requestcontext.WithTime(
		requestcontext.WithCaller(context.Background(), requestcontext.Identity{CallerID: "registrar-1", Role: registrarRole}),
		now,
	)
}

func (s *RegistrySuite) createParcel(id string) *models.Parcel {
	parcel, err := s.service.CreateParcel(s.citizenCtx, CreateParcelInput{
		ID:       id,
		Area:     1000,
		Location: "Ward 7",
		OwnerID:  "owner-1",
		DocHash:  "hash-" + id,
	})
	s.Require().NoError(err)
	return parcel
}

func (s *RegistrySuite) TestCreateAndQueryParcel() {
	s.Run("create then exists", func() {
		s.createParcel("P1")
		exists, err := s.service.ParcelExists(s.citizenCtx, "P1")
		s.NoError(err)
		s.True(exists)
	})

	s.Run("duplicate id rejected", func() {
		_, err := s.service.CreateParcel(s.citizenCtx, CreateParcelInput{
			ID: "P1", Area: 5, Location: "x", OwnerID: "other",
		})
		s.True(dErrors.HasCode(err, dErrors.CodeAlreadyExists))
	})

	s.Run("ownership round trip", func() {
		parcel, err := s.service.QueryParcel(s.citizenCtx, "P1")
		s.NoError(err)
		s.Len(parcel.Owners, 1)
		s.Equal("owner-1", parcel.Owners[0].OwnerID)
		s.Equal(models.OwnershipFull, parcel.Owners[0].OwnershipType)
		s.InDelta(100.0, parcel.Owners[0].SharePercentage, 1e-9)
		s.Equal(models.StatusActive, parcel.Status)
		s.Empty(parcel.Disputes)
		s.Empty(parcel.Encumbrances)
	})

	s.Run("query absent parcel", func() {
		_, err := s.service.QueryParcel(s.citizenCtx, "nope")
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})

	s.Run("unauthenticated caller rejected", func() {
		_, err := s.service.CreateParcel(context.Background(), CreateParcelInput{
			ID: "P-anon", Area: 1, OwnerID: "o",
		})
		s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))
	})

	s.Run("invalid area rejected", func() {
		_, err := s.service.CreateParcel(s.citizenCtx, CreateParcelInput{
			ID: "P-bad", Area: -2, OwnerID: "o",
		})
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})
}

func (s *RegistrySuite) TestDisputeFreezeAndResolve() {
	s.createParcel("P2")

	s.Run("raise freezes asset", func() {
		dispute, err := s.service.RaiseDispute(s.citizenCtx, "D1", "P2", "boundary")
		s.Require().NoError(err)
		s.Equal(models.DisputeOpen, dispute.Status)

		parcel, err := s.service.QueryParcel(s.citizenCtx, "P2")
		s.Require().NoError(err)
		s.Equal(models.StatusFrozen, parcel.Status)
		s.Equal([]string{"D1"}, parcel.Disputes)
		s.Len(s.emitter.named("DisputeRaised"), 1)
	})

	s.Run("resolve unfreezes when nothing else holds", func() {
		dispute, err := s.service.ResolveDispute(s.citizenCtx, "D1")
		s.Require().NoError(err)
		s.Equal(models.DisputeResolved, dispute.Status)

		parcel, err := s.service.QueryParcel(s.citizenCtx, "P2")
		s.Require().NoError(err)
		s.Equal(models.StatusActive, parcel.Status)
		s.Empty(parcel.Disputes)
		s.Len(s.emitter.named("DisputeResolved"), 1)
	})

	s.Run("resolving twice rejected", func() {
		_, err := s.service.ResolveDispute(s.citizenCtx, "D1")
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidState))
	})

	s.Run("dispute against absent asset", func() {
		_, err := s.service.RaiseDispute(s.citizenCtx, "D2", "ghost", "x")
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})

	s.Run("duplicate dispute id", func() {
		_, err := s.service.RaiseDispute(s.citizenCtx, "D1", "P2", "again")
		s.True(dErrors.HasCode(err, dErrors.CodeAlreadyExists))
	})
}

func (s *RegistrySuite) TestUnfreezePolicies() {
	// Encumber then dispute; resolving the dispute leaves the encumbrance.
	setup := func(svc *Service, parcelID string) {
		_, err := svc.CreateParcel(s.citizenCtx, CreateParcelInput{
			ID: parcelID, Area: 10, OwnerID: "o1",
		})
		s.Require().NoError(err)
		_, err = svc.AddEncumbrance(s.registrarCtx, "E-"+parcelID, parcelID, models.EncumbranceMortgage, "h")
		s.Require().NoError(err)
		_, err = svc.RaiseDispute(s.citizenCtx, "D-"+parcelID, parcelID, "claim")
		s.Require().NoError(err)
		_, err = svc.ResolveDispute(s.citizenCtx, "D-"+parcelID)
		s.Require().NoError(err)
	}

	s.Run("strict policy keeps encumbered asset frozen", func() {
		setup(s.service, "P3")
		parcel, err := s.service.QueryParcel(s.citizenCtx, "P3")
		s.Require().NoError(err)
		s.Equal(models.StatusFrozen, parcel.Status)
		s.Empty(parcel.Disputes)
		s.Equal([]string{"E-P3"}, parcel.Encumbrances)
	})

	s.Run("dispute-only policy unfreezes despite encumbrance", func() {
		svc := New(s.store, s.emitter, slog.New(slog.DiscardHandler),
			Config{RegistrarRole: registrarRole, UnfreezePolicy: UnfreezeDisputeOnly})
		setup(svc, "P4")
		parcel, err := svc.QueryParcel(s.citizenCtx, "P4")
		s.Require().NoError(err)
		s.Equal(models.StatusActive, parcel.Status)
		s.Equal([]string{"E-P4"}, parcel.Encumbrances)
	})
}

func (s *RegistrySuite) TestEncumbranceLifecycle() {
	s.createParcel("P5")

	s.Run("add requires registrar", func() {
		_, err := s.service.AddEncumbrance(s.citizenCtx, "E1", "P5", models.EncumbranceLien, "h")
		s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))
	})

	s.Run("add freezes asset", func() {
		enc, err := s.service.AddEncumbrance(s.registrarCtx, "E1", "P5", models.EncumbranceLien, "h")
		s.Require().NoError(err)
		s.Equal(models.EncumbranceActive, enc.Status)

		parcel, err := s.service.QueryParcel(s.citizenCtx, "P5")
		s.Require().NoError(err)
		s.Equal(models.StatusFrozen, parcel.Status)
		s.Equal([]string{"E1"}, parcel.Encumbrances)
	})

	s.Run("release unfreezes once nothing else holds", func() {
		enc, err := s.service.ReleaseEncumbrance(s.registrarCtx, "E1")
		s.Require().NoError(err)
		s.Equal(models.EncumbranceReleased, enc.Status)

		parcel, err := s.service.QueryParcel(s.citizenCtx, "P5")
		s.Require().NoError(err)
		s.Equal(models.StatusActive, parcel.Status)
		s.Empty(parcel.Encumbrances)

		entries, err := s.auditStore.ListByRecord(context.Background(), "P5")
		s.Require().NoError(err)
		s.Len(entries, 2) // add + release
	})

	s.Run("release keeps disputed asset frozen", func() {
		s.createParcel("P6")
		_, err := s.service.AddEncumbrance(s.registrarCtx, "E2", "P6", models.EncumbranceLease, "h")
		s.Require().NoError(err)
		_, err = s.service.RaiseDispute(s.citizenCtx, "D6", "P6", "claim")
		s.Require().NoError(err)
		_, err = s.service.ReleaseEncumbrance(s.registrarCtx, "E2")
		s.Require().NoError(err)

		parcel, err := s.service.QueryParcel(s.citizenCtx, "P6")
		s.Require().NoError(err)
		s.Equal(models.StatusFrozen, parcel.Status)
	})

	s.Run("releasing twice rejected", func() {
		_, err := s.service.ReleaseEncumbrance(s.registrarCtx, "E1")
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidState))
	})
}

func (s *RegistrySuite) TestTransferWorkflow() {
	s.createParcel("P7")
	newOwners := []models.OwnershipRecord{{
		OwnerID: "owner-2", OwnershipType: models.OwnershipFull, SharePercentage: 100,
	}}

	s.Run("initiate records requester from context", func() {
		request, err := s.service.InitiateTransfer(s.citizenCtx, "T1", "P7", newOwners, nil)
		s.Require().NoError(err)
		s.Equal("citizen-1", request.RequesterID)
		s.Equal(models.RequestPending, request.Status)
		s.Equal(models.TransferKindTransfer, request.Kind)
	})

	s.Run("approve requires registrar", func() {
		_, err := s.service.ApproveTransfer(s.citizenCtx, "T1")
		s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))
	})

	s.Run("approve mutates ownership", func() {
		request, err := s.service.ApproveTransfer(s.registrarCtx, "T1")
		s.Require().NoError(err)
		s.Equal(models.RequestApproved, request.Status)
		s.Equal("registrar-1", request.DecidedBy)

		parcel, err := s.service.QueryParcel(s.citizenCtx, "P7")
		s.Require().NoError(err)
		s.Len(parcel.Owners, 1)
		s.Equal("owner-2", parcel.Owners[0].OwnerID)
		s.Len(s.emitter.named("TransferApproved"), 1)
	})

	s.Run("re-approving rejected", func() {
		_, err := s.service.ApproveTransfer(s.registrarCtx, "T1")
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidState))
	})

	s.Run("approve re-checks asset status", func() {
		_, err := s.service.InitiateTransfer(s.citizenCtx, "T2", "P7", newOwners, nil)
		s.Require().NoError(err)
		_, err = s.service.RaiseDispute(s.citizenCtx, "D7", "P7", "stay")
		s.Require().NoError(err)

		_, err = s.service.ApproveTransfer(s.registrarCtx, "T2")
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidState))
	})

	s.Run("reject closes request without touching asset", func() {
		request, err := s.service.RejectTransfer(s.registrarCtx, "T2", "asset under dispute")
		s.Require().NoError(err)
		s.Equal(models.RequestRejected, request.Status)

		_, err = s.service.ApproveTransfer(s.registrarCtx, "T2")
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidState))

		entries, err := s.auditStore.ListByRecord(context.Background(), "P7")
		s.Require().NoError(err)
		s.NotEmpty(entries)
	})

	s.Run("invalid share split rejected at initiation", func() {
		bad := []models.OwnershipRecord{{
			OwnerID: "x", OwnershipType: models.OwnershipJoint, SharePercentage: 60,
		}}
		_, err := s.service.InitiateTransfer(s.citizenCtx, "T3", "P7", bad, nil)
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})

	s.Run("absent request", func() {
		_, err := s.service.ApproveTransfer(s.registrarCtx, "ghost")
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})
}

func (s *RegistrySuite) TestInheritance() {
	s.createParcel("P8")
	heirs := []models.OwnershipRecord{
		{OwnerID: "heir-1", OwnershipType: models.OwnershipInherited, SharePercentage: 50},
		{OwnerID: "heir-2", OwnershipType: models.OwnershipInherited, SharePercentage: 50},
	}

	s.Run("missing death certificate rejected", func() {
		_, err := s.service.SubmitInheritanceRequest(s.citizenCtx, "I1", "P8", heirs, "")
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})

	s.Run("submit and approve splits ownership", func() {
		request, err := s.service.SubmitInheritanceRequest(s.citizenCtx, "I1", "P8", heirs, "cert-hash")
		s.Require().NoError(err)
		s.Equal(models.TransferKindInheritance, request.Kind)
		s.Equal([]string{"cert-hash"}, request.SupportingDocs)

		_, err = s.service.ApproveTransfer(s.registrarCtx, "I1")
		s.Require().NoError(err)

		parcel, err := s.service.QueryParcel(s.citizenCtx, "P8")
		s.Require().NoError(err)
		s.Len(parcel.Owners, 2)
	})
}

func (s *RegistrySuite) TestDirectTransfer() {
	s.createParcel("P9")

	s.Run("success emits AssetTransferred", func() {
		asset, err := s.service.TransferAsset(s.citizenCtx, "P9", "owner-3", "deed-hash")
		s.Require().NoError(err)
		s.Len(asset.Core().Owners, 1)
		s.Equal("owner-3", asset.Core().Owners[0].OwnerID)
		s.Equal("deed-hash", asset.Core().DocHash)

		events := s.emitter.named("AssetTransferred")
		s.Require().Len(events, 1)
		transferred := events[0].(notify.AssetTransferred)
		s.Equal("P9", transferred.AssetID)
		s.Equal("owner-3", transferred.NewOwnerID)
	})

	s.Run("frozen asset rejected", func() {
		_, err := s.service.RaiseDispute(s.citizenCtx, "D9", "P9", "claim")
		s.Require().NoError(err)
		_, err = s.service.TransferAsset(s.citizenCtx, "P9", "owner-4", "h")
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidState))
	})

	s.Run("restricted asset rejected", func() {
		s.createParcel("P10")
		_, err := s.service.OverrideStatus(s.registrarCtx, "P10", models.StatusRestricted, "zoning")
		s.Require().NoError(err)
		_, err = s.service.TransferAsset(s.citizenCtx, "P10", "owner-4", "h")
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidState))
	})
}

func (s *RegistrySuite) TestPartitionLand() {
	children := []ChildParcel{
		{ID: "P11a", Area: 400, Location: "north"},
		{ID: "P11b", Area: 600, Location: "south"},
	}

	s.Run("children inherit owners, parent becomes terminal", func() {
		s.createParcel("P11")
		parent, err := s.service.PartitionLand(s.citizenCtx, "P11", children)
		s.Require().NoError(err)
		s.Equal(models.StatusPartitioned, parent.Status)
		s.Equal([]string{"P11a", "P11b"}, parent.ChildParcelIDs)

		child, err := s.service.QueryParcel(s.citizenCtx, "P11a")
		s.Require().NoError(err)
		s.Equal(models.StatusActive, child.Status)
		s.Equal([]string{"P11"}, child.ParentParcelIDs)
		s.Equal("owner-1", child.Owners[0].OwnerID)
	})

	s.Run("partitioned parcel not transferable", func() {
		_, err := s.service.InitiateTransfer(s.citizenCtx, "T11", "P11",
			[]models.OwnershipRecord{{OwnerID: "x", OwnershipType: models.OwnershipFull, SharePercentage: 100}}, nil)
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidState))
	})

	s.Run("re-partitioning rejected", func() {
		_, err := s.service.PartitionLand(s.citizenCtx, "P11", []ChildParcel{{ID: "P11c", Area: 1}})
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidState))
	})

	s.Run("child collision aborts the whole partition", func() {
		s.createParcel("P12")
		s.createParcel("Taken")
		_, err := s.service.PartitionLand(s.citizenCtx, "P12", []ChildParcel{
			{ID: "P12a", Area: 100},
			{ID: "Taken", Area: 100},
		})
		s.True(dErrors.HasCode(err, dErrors.CodeAlreadyExists))

		parent, err := s.service.QueryParcel(s.citizenCtx, "P12")
		s.Require().NoError(err)
		s.Equal(models.StatusActive, parent.Status)
		s.Empty(parent.ChildParcelIDs)

		exists, err := s.service.ParcelExists(s.citizenCtx, "P12a")
		s.Require().NoError(err)
		s.False(exists)
	})

	s.Run("absent parent", func() {
		_, err := s.service.PartitionLand(s.citizenCtx, "ghost", children)
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})

	s.Run("frozen parent rejected", func() {
		s.createParcel("P13")
		_, err := s.service.RaiseDispute(s.citizenCtx, "D13", "P13", "claim")
		s.Require().NoError(err)
		_, err = s.service.PartitionLand(s.citizenCtx, "P13", []ChildParcel{{ID: "P13a", Area: 1}})
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidState))
	})
}

func (s *RegistrySuite) TestMergeParcels() {
	s.Run("merge sums area and terminates sources", func() {
		s.createParcel("M1")
		s.createParcel("M2")
		merged, err := s.service.MergeParcels(s.registrarCtx, MergeInput{
			MergedID:  "M3",
			SourceIDs: []string{"M1", "M2"},
			Location:  "combined",
		})
		s.Require().NoError(err)
		s.InDelta(2000.0, merged.Area, 1e-9)
		s.Equal([]string{"M1", "M2"}, merged.ParentParcelIDs)
		s.Equal(models.StatusActive, merged.Status)

		src, err := s.service.QueryParcel(s.citizenCtx, "M1")
		s.Require().NoError(err)
		s.Equal(models.StatusMerged, src.Status)
		s.Equal([]string{"M3"}, src.ChildParcelIDs)

		entries, err := s.auditStore.ListByRecord(context.Background(), "M3")
		s.Require().NoError(err)
		s.Len(entries, 1)
	})

	s.Run("requires registrar", func() {
		_, err := s.service.MergeParcels(s.citizenCtx, MergeInput{
			MergedID: "M4", SourceIDs: []string{"a", "b"},
		})
		s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))
	})

	s.Run("different owners rejected", func() {
		s.createParcel("M5")
		_, err := s.service.CreateParcel(s.citizenCtx, CreateParcelInput{
			ID: "M6", Area: 10, OwnerID: "someone-else",
		})
		s.Require().NoError(err)
		_, err = s.service.MergeParcels(s.registrarCtx, MergeInput{
			MergedID: "M7", SourceIDs: []string{"M5", "M6"},
		})
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidState))
	})

	s.Run("merged source cannot merge again", func() {
		_, err := s.service.MergeParcels(s.registrarCtx, MergeInput{
			MergedID: "M8", SourceIDs: []string{"M1", "M2"},
		})
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidState))
	})
}

// A retired title must stay retired: if a dispute or encumbrance could attach
// to a PARTITIONED or MERGED parcel, resolving it would revert the parcel to
// ACTIVE while its successors exist, titling the same land twice.
func (s *RegistrySuite) TestTerminalAssetsClosedToClaims() {
	s.createParcel("TP1")
	_, err := s.service.PartitionLand(s.citizenCtx, "TP1", []ChildParcel{
		{ID: "TP1a", Area: 400},
		{ID: "TP1b", Area: 600},
	})
	s.Require().NoError(err)

	s.createParcel("TM1")
	s.createParcel("TM2")
	_, err = s.service.MergeParcels(s.registrarCtx, MergeInput{
		MergedID: "TM3", SourceIDs: []string{"TM1", "TM2"},
	})
	s.Require().NoError(err)

	for _, assetID := range []string{"TP1", "TM1"} {
		s.Run("dispute cannot target "+assetID, func() {
			_, err := s.service.RaiseDispute(s.citizenCtx, "TD-"+assetID, assetID, "claim")
			s.True(dErrors.HasCode(err, dErrors.CodeInvalidState))

			_, err = s.service.FlagDispute(s.registrarCtx, "TF-"+assetID, assetID, "claim")
			s.True(dErrors.HasCode(err, dErrors.CodeInvalidState))

			_, err = s.service.QueryDispute(s.citizenCtx, "TD-"+assetID)
			s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
		})

		s.Run("encumbrance cannot target "+assetID, func() {
			_, err := s.service.AddEncumbrance(s.registrarCtx, "TE-"+assetID, assetID, models.EncumbranceLien, "h")
			s.True(dErrors.HasCode(err, dErrors.CodeInvalidState))

			_, err = s.service.QueryEncumbrance(s.citizenCtx, "TE-"+assetID)
			s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
		})
	}

	s.Run("records unchanged", func() {
		parent, err := s.service.QueryParcel(s.citizenCtx, "TP1")
		s.Require().NoError(err)
		s.Equal(models.StatusPartitioned, parent.Status)
		s.Empty(parent.Disputes)
		s.Empty(parent.Encumbrances)

		src, err := s.service.QueryParcel(s.citizenCtx, "TM1")
		s.Require().NoError(err)
		s.Equal(models.StatusMerged, src.Status)
		s.Empty(src.Disputes)
		s.Empty(src.Encumbrances)
	})
}

func (s *RegistrySuite) TestOverrideStatus() {
	s.createParcel("O1")

	s.Run("requires registrar", func() {
		_, err := s.service.OverrideStatus(s.citizenCtx, "O1", models.StatusGovernment, "acquisition")
		s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))
	})

	s.Run("override bypasses freeze invariant", func() {
		_, err := s.service.AddEncumbrance(s.registrarCtx, "OE1", "O1", models.EncumbranceMortgage, "h")
		s.Require().NoError(err)

		asset, err := s.service.OverrideStatus(s.registrarCtx, "O1", models.StatusActive, "clerical error")
		s.Require().NoError(err)
		s.Equal(models.StatusActive, asset.Core().Status)
		s.Equal([]string{"OE1"}, asset.Core().Encumbrances)

		entries, err := s.auditStore.ListByRecord(context.Background(), "O1")
		s.Require().NoError(err)
		var overrides int
		for _, e := range entries {
			if e.Action == audit.ActionStatusOverride {
				overrides++
				s.Equal("registrar-1", e.ActorID)
			}
		}
		s.Equal(1, overrides)
	})

	s.Run("terminal target unreachable", func() {
		_, err := s.service.OverrideStatus(s.registrarCtx, "O1", models.StatusPartitioned, "nope")
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})

	s.Run("terminal asset untouchable", func() {
		s.createParcel("O2")
		_, err := s.service.PartitionLand(s.citizenCtx, "O2", []ChildParcel{{ID: "O2a", Area: 1}})
		s.Require().NoError(err)
		_, err = s.service.OverrideStatus(s.registrarCtx, "O2", models.StatusActive, "undo")
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidState))
	})

	s.Run("empty reason rejected", func() {
		_, err := s.service.OverrideStatus(s.registrarCtx, "O1", models.StatusRestricted, "")
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})
}

func (s *RegistrySuite) TestUnits() {
	s.createParcel("U-P1")

	s.Run("create under active parent", func() {
		unit, err := s.service.CreateUnit(s.citizenCtx, CreateUnitInput{
			ID: "U1", ParentParcelID: "U-P1", UDS: 25.5, OwnerID: "owner-1", DocHash: "h",
		})
		s.Require().NoError(err)
		s.Equal(models.StatusActive, unit.Status)
	})

	s.Run("absent parent", func() {
		_, err := s.service.CreateUnit(s.citizenCtx, CreateUnitInput{
			ID: "U2", ParentParcelID: "ghost", UDS: 1, OwnerID: "o",
		})
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})

	s.Run("frozen parent rejected", func() {
		s.createParcel("U-P2")
		_, err := s.service.RaiseDispute(s.citizenCtx, "U-D1", "U-P2", "claim")
		s.Require().NoError(err)
		_, err = s.service.CreateUnit(s.citizenCtx, CreateUnitInput{
			ID: "U3", ParentParcelID: "U-P2", UDS: 1, OwnerID: "o",
		})
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidState))
	})

	s.Run("units are disputable assets", func() {
		_, err := s.service.RaiseDispute(s.citizenCtx, "U-D2", "U1", "leak")
		s.Require().NoError(err)
		unit, err := s.service.QueryUnit(s.citizenCtx, "U1")
		s.Require().NoError(err)
		s.Equal(models.StatusFrozen, unit.Status)
	})

	s.Run("query by parcel", func() {
		_, err := s.service.CreateUnit(s.citizenCtx, CreateUnitInput{
			ID: "U4", ParentParcelID: "U-P1", UDS: 10, OwnerID: "owner-1",
		})
		s.Require().NoError(err)

		units, err := s.service.QueryUnitsByParcel(s.citizenCtx, "U-P1")
		s.Require().NoError(err)
		s.Len(units, 2)

		none, err := s.service.QueryUnitsByParcel(s.citizenCtx, "empty-parcel")
		s.Require().NoError(err)
		s.Empty(none)
	})

	s.Run("querying a parcel id as unit fails", func() {
		_, err := s.service.QueryUnit(s.citizenCtx, "U-P1")
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})
}

func (s *RegistrySuite) TestTimestampsFromContext() {
	fixed := time.Unix(1800000000, 0).UTC()
	ctx := requestcontext.WithTime(s.citizenCtx, fixed)
	parcel, err := s.service.CreateParcel(ctx, CreateParcelInput{
		ID: "TS1", Area: 1, OwnerID: "o",
	})
	s.Require().NoError(err)
	s.Equal(fixed.Unix(), parcel.LastUpdated)
}

func TestSameOwners(t *testing.T) {
	t.Parallel()
	rec := func(owner string, ot models.OwnershipType, share float64) models.OwnershipRecord {
		return models.OwnershipRecord{OwnerID: owner, OwnershipType: ot, SharePercentage: share}
	}

	tests := []struct {
		name string
		a, b []models.OwnershipRecord
		want bool
	}{
		{
			name: "same records reordered",
			a:    []models.OwnershipRecord{rec("a", models.OwnershipJoint, 60), rec("b", models.OwnershipJoint, 40)},
			b:    []models.OwnershipRecord{rec("b", models.OwnershipJoint, 40), rec("a", models.OwnershipJoint, 60)},
			want: true,
		},
		{
			name: "one owner holding two records, reordered",
			a:    []models.OwnershipRecord{rec("a", models.OwnershipJoint, 30), rec("a", models.OwnershipInherited, 20), rec("b", models.OwnershipJoint, 50)},
			b:    []models.OwnershipRecord{rec("a", models.OwnershipInherited, 20), rec("b", models.OwnershipJoint, 50), rec("a", models.OwnershipJoint, 30)},
			want: true,
		},
		{
			name: "same owners, different shares",
			a:    []models.OwnershipRecord{rec("a", models.OwnershipJoint, 30), rec("a", models.OwnershipJoint, 70)},
			b:    []models.OwnershipRecord{rec("a", models.OwnershipJoint, 40), rec("a", models.OwnershipJoint, 60)},
			want: false,
		},
		{
			name: "different lengths",
			a:    []models.OwnershipRecord{rec("a", models.OwnershipFull, 100)},
			b:    nil,
			want: false,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := sameOwners(tt.a, tt.b); got != tt.want {
				t.Fatalf("sameOwners = %v, want %v", got, tt.want)
			}
			if got := sameOwners(tt.b, tt.a); got != tt.want {
				t.Fatalf("sameOwners reversed = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestParseUnfreezePolicy(t *testing.T) {
	t.Parallel()
	if _, err := ParseUnfreezePolicy("strict"); err != nil {
		t.Fatalf("strict should parse: %v", err)
	}
	if _, err := ParseUnfreezePolicy("dispute_only"); err != nil {
		t.Fatalf("dispute_only should parse: %v", err)
	}
	if _, err := ParseUnfreezePolicy("lenient"); err == nil {
		t.Fatal("unknown policy should be rejected")
	}
}
