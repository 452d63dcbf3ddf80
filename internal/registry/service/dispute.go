package service

import (
	"context"
	"errors"
	"fmt"

	"bhoomi/internal/audit"
	"bhoomi/internal/notify"
	"bhoomi/internal/registry/ledger"
	"bhoomi/internal/registry/models"
	dErrors "bhoomi/pkg/domain-errors"
	"bhoomi/pkg/platform/sentinel"
	"bhoomi/pkg/requestcontext"
)

// RaiseDispute files a citizen dispute against an asset. The asset is frozen
// whatever its prior status; only terminal assets are out of reach.
func (s *Service) RaiseDispute(ctx context.Context, disputeID, assetID, reason string) (_ *models.Dispute, err error) {
	ctx, done := s.startOp(ctx, "raise_dispute", disputeID)
	defer func() { done(err) }()

	if _, err = s.requireCaller(ctx); err != nil {
		return nil, err
	}
	return s.openDispute(ctx, disputeID, assetID, reason)
}

// FlagDispute is the registrar path onto the same dispute shape. It lands on
// the audit trail; the state transition is identical to RaiseDispute.
func (s *Service) FlagDispute(ctx context.Context, disputeID, assetID, reason string) (_ *models.Dispute, err error) {
	ctx, done := s.startOp(ctx, "flag_dispute", disputeID)
	defer func() { done(err) }()

	caller, err := s.requireRegistrar(ctx)
	if err != nil {
		return nil, err
	}
	dispute, err := s.openDispute(ctx, disputeID, assetID, reason)
	if err != nil {
		return nil, err
	}
	s.record(ctx, caller, audit.ActionDisputeFlagged, assetID,
		fmt.Sprintf("dispute %s: %s", disputeID, reason))
	return dispute, nil
}

func (s *Service) openDispute(ctx context.Context, disputeID, assetID, reason string) (*models.Dispute, error) {
	now := requestcontext.Now(ctx).Unix()
	dispute, err := models.NewDispute(disputeID, assetID, reason, now)
	if err != nil {
		return nil, err
	}

	err = s.store.Update(ctx, func(tx ledger.Tx) error {
		exists, err := tx.Exists(ctx, disputeID)
		if err != nil {
			return dErrors.Wrap(dErrors.CodeInternal, "check dispute existence", err)
		}
		if exists {
			return dErrors.Newf(dErrors.CodeAlreadyExists, "dispute %s already exists", disputeID)
		}
		asset, err := getAsset(ctx, tx, assetID)
		if err != nil {
			return err
		}
		if status := asset.Core().Status; status.IsTerminal() {
			return dErrors.Newf(dErrors.CodeInvalidState, "asset %s is %s and can no longer be disputed", assetID, status)
		}
		asset.Core().AttachDispute(disputeID, now)
		if err := putDoc(tx, asset.Key(), asset.Kind(), asset); err != nil {
			return err
		}
		return putDoc(tx, dispute.ID, models.DocTypeDispute, dispute)
	})
	if err != nil {
		return nil, translateStoreErr(err)
	}

	s.invalidate(ctx, assetID, disputeID)
	if s.metrics != nil {
		s.metrics.DisputesRaised.Inc()
	}
	s.events.Send(ctx, notify.DisputeRaised{AssetID: assetID, DisputeID: disputeID, Reason: reason})
	s.logger.InfoContext(ctx, "dispute opened", "dispute_id", disputeID, "asset_id", assetID)
	return dispute, nil
}

// ResolveDispute resolves a citizen-raised dispute. Whether the asset
// unfreezes afterwards is decided by the configured unfreeze policy.
func (s *Service) ResolveDispute(ctx context.Context, disputeID string) (_ *models.Dispute, err error) {
	ctx, done := s.startOp(ctx, "resolve_dispute", disputeID)
	defer func() { done(err) }()

	if _, err = s.requireCaller(ctx); err != nil {
		return nil, err
	}
	return s.closeDispute(ctx, disputeID, "")
}

// ResolveDisputeWithOrder is the registrar resolution path. It requires the
// hash of the court order directing the resolution and lands on the audit
// trail.
func (s *Service) ResolveDisputeWithOrder(ctx context.Context, disputeID, courtOrderHash string) (_ *models.Dispute, err error) {
	ctx, done := s.startOp(ctx, "resolve_dispute_order", disputeID)
	defer func() { done(err) }()

	caller, err := s.requireRegistrar(ctx)
	if err != nil {
		return nil, err
	}
	if courtOrderHash == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "court order hash cannot be empty")
	}
	dispute, err := s.closeDispute(ctx, disputeID, courtOrderHash)
	if err != nil {
		return nil, err
	}
	s.record(ctx, caller, audit.ActionDisputeResolved, dispute.AssetID,
		fmt.Sprintf("dispute %s resolved by court order %s", disputeID, courtOrderHash))
	return dispute, nil
}

func (s *Service) closeDispute(ctx context.Context, disputeID, courtOrderHash string) (*models.Dispute, error) {
	now := requestcontext.Now(ctx).Unix()

	var dispute models.Dispute
	err := s.store.Update(ctx, func(tx ledger.Tx) error {
		doc, err := tx.Get(ctx, disputeID)
		if errors.Is(err, sentinel.ErrNotFound) {
			return dErrors.Newf(dErrors.CodeNotFound, "dispute %s does not exist", disputeID)
		}
		if err != nil {
			return dErrors.Wrap(dErrors.CodeInternal, "read dispute", err)
		}
		if models.DocType(doc.DocType) != models.DocTypeDispute {
			return dErrors.Newf(dErrors.CodeNotFound, "dispute %s does not exist", disputeID)
		}
		if err := doc.Decode(&dispute); err != nil {
			return dErrors.Wrap(dErrors.CodeInternal, "decode dispute", err)
		}
		if err := dispute.Resolve(courtOrderHash, now); err != nil {
			return err
		}

		asset, err := getAsset(ctx, tx, dispute.AssetID)
		if err != nil {
			return err
		}
		core := asset.Core()
		core.DetachDispute(disputeID, now)
		s.maybeUnfreeze(core)
		if err := putDoc(tx, asset.Key(), asset.Kind(), asset); err != nil {
			return err
		}
		return putDoc(tx, dispute.ID, models.DocTypeDispute, &dispute)
	})
	if err != nil {
		return nil, translateStoreErr(err)
	}

	s.invalidate(ctx, dispute.AssetID, disputeID)
	s.events.Send(ctx, notify.DisputeResolved{AssetID: dispute.AssetID, DisputeID: disputeID})
	s.logger.InfoContext(ctx, "dispute resolved", "dispute_id", disputeID, "asset_id", dispute.AssetID)
	return &dispute, nil
}

// QueryDispute returns a dispute record by ID.
func (s *Service) QueryDispute(ctx context.Context, id string) (*models.Dispute, error) {
	var dispute models.Dispute
	err := s.store.View(ctx, func(tx ledger.ReadTx) error {
		doc, err := tx.Get(ctx, id)
		if err != nil {
			return err
		}
		if models.DocType(doc.DocType) != models.DocTypeDispute {
			return sentinel.ErrNotFound
		}
		return doc.Decode(&dispute)
	})
	if errors.Is(err, sentinel.ErrNotFound) {
		return nil, dErrors.Newf(dErrors.CodeNotFound, "dispute %s does not exist", id)
	}
	if err != nil {
		return nil, dErrors.Wrap(dErrors.CodeInternal, "read dispute", err)
	}
	return &dispute, nil
}
