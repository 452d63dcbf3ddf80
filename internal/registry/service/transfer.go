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

// InitiateTransfer files a citizen transfer request against an asset. The
// asset need not be ACTIVE yet (validity is re-checked at approval), but a
// terminal asset can never become transferable again, so PARTITIONED and
// MERGED are rejected up front.
func (s *Service) InitiateTransfer(ctx context.Context, requestID, assetID string, newOwners []models.OwnershipRecord, supportingDocs []string) (*models.TransferRequest, error) {
	return s.fileRequest(ctx, "initiate_transfer", requestID, assetID, newOwners, models.TransferKindTransfer, supportingDocs)
}

// SubmitInheritanceRequest files an inheritance request naming the heirs and
// carrying the death certificate hash as its single supporting document.
func (s *Service) SubmitInheritanceRequest(ctx context.Context, requestID, assetID string, heirs []models.OwnershipRecord, deathCertHash string) (*models.TransferRequest, error) {
	if deathCertHash == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "death certificate hash cannot be empty")
	}
	return s.fileRequest(ctx, "submit_inheritance", requestID, assetID, heirs, models.TransferKindInheritance, []string{deathCertHash})
}

func (s *Service) fileRequest(ctx context.Context, op, requestID, assetID string, newOwners []models.OwnershipRecord, kind models.TransferKind, supportingDocs []string) (_ *models.TransferRequest, err error) {
	ctx, done := s.startOp(ctx, op, requestID)
	defer func() { done(err) }()

	caller, err := s.requireCaller(ctx)
	if err != nil {
		return nil, err
	}
	now := requestcontext.Now(ctx).Unix()
	request, err := models.NewTransferRequest(requestID, assetID, caller.CallerID, newOwners, kind, supportingDocs, now)
	if err != nil {
		return nil, err
	}

	err = s.store.Update(ctx, func(tx ledger.Tx) error {
		exists, err := tx.Exists(ctx, requestID)
		if err != nil {
			return dErrors.Wrap(dErrors.CodeInternal, "check request existence", err)
		}
		if exists {
			return dErrors.Newf(dErrors.CodeAlreadyExists, "transfer request %s already exists", requestID)
		}
		asset, err := getAsset(ctx, tx, assetID)
		if err != nil {
			return err
		}
		if status := asset.Core().Status; status.IsTerminal() {
			return dErrors.Newf(dErrors.CodeInvalidState, "asset %s is %s and can no longer be transferred", assetID, status)
		}
		return putDoc(tx, request.ID, models.DocTypeTransferRequest, request)
	})
	if err != nil {
		return nil, translateStoreErr(err)
	}

	s.invalidate(ctx, requestID)
	s.logger.InfoContext(ctx, "transfer request filed",
		"request_id", requestID, "asset_id", assetID, "kind", kind, "requester_id", caller.CallerID)
	return request, nil
}

// ApproveTransfer is the registrar decision that mutates ownership. The
// asset's status is re-validated here: a request filed against an asset that
// froze afterwards must not go through.
func (s *Service) ApproveTransfer(ctx context.Context, requestID string) (_ *models.TransferRequest, err error) {
	ctx, done := s.startOp(ctx, "approve_transfer", requestID)
	defer func() { done(err) }()

	caller, err := s.requireRegistrar(ctx)
	if err != nil {
		return nil, err
	}
	now := requestcontext.Now(ctx).Unix()

	var request models.TransferRequest
	err = s.store.Update(ctx, func(tx ledger.Tx) error {
		if err := s.loadPendingRequest(ctx, tx, requestID, &request); err != nil {
			return err
		}
		asset, err := getAsset(ctx, tx, request.AssetID)
		if err != nil {
			return err
		}
		core := asset.Core()
		if core.Status != models.StatusActive {
			return dErrors.Newf(dErrors.CodeInvalidState, "asset %s is %s, transfers require an ACTIVE asset", request.AssetID, core.Status)
		}

		core.SetOwners(request.NewOwners, "", now)
		request.Status = models.RequestApproved
		request.DecidedAt = now
		request.DecidedBy = caller.CallerID
		if err := putDoc(tx, asset.Key(), asset.Kind(), asset); err != nil {
			return err
		}
		return putDoc(tx, request.ID, models.DocTypeTransferRequest, &request)
	})
	if err != nil {
		return nil, translateStoreErr(err)
	}

	s.invalidate(ctx, request.AssetID, requestID)
	if s.metrics != nil {
		s.metrics.TransfersApproved.Inc()
	}
	s.record(ctx, caller, audit.ActionTransferApproved, request.AssetID,
		fmt.Sprintf("request %s approved", requestID))
	s.events.Send(ctx, notify.TransferApproved{RequestID: requestID, AssetID: request.AssetID})
	s.logger.InfoContext(ctx, "transfer approved",
		"request_id", requestID, "asset_id", request.AssetID, "actor_id", caller.CallerID)
	return &request, nil
}

// RejectTransfer is the registrar decision that closes a pending request
// without touching the asset. The stated reason goes to the audit trail.
func (s *Service) RejectTransfer(ctx context.Context, requestID, reason string) (_ *models.TransferRequest, err error) {
	ctx, done := s.startOp(ctx, "reject_transfer", requestID)
	defer func() { done(err) }()

	caller, err := s.requireRegistrar(ctx)
	if err != nil {
		return nil, err
	}
	if reason == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "rejection reason cannot be empty")
	}
	now := requestcontext.Now(ctx).Unix()

	var request models.TransferRequest
	err = s.store.Update(ctx, func(tx ledger.Tx) error {
		if err := s.loadPendingRequest(ctx, tx, requestID, &request); err != nil {
			return err
		}
		request.Status = models.RequestRejected
		request.DecidedAt = now
		request.DecidedBy = caller.CallerID
		return putDoc(tx, request.ID, models.DocTypeTransferRequest, &request)
	})
	if err != nil {
		return nil, translateStoreErr(err)
	}

	s.invalidate(ctx, requestID)
	s.record(ctx, caller, audit.ActionTransferRejected, request.AssetID,
		fmt.Sprintf("request %s rejected: %s", requestID, reason))
	s.logger.InfoContext(ctx, "transfer rejected",
		"request_id", requestID, "asset_id", request.AssetID, "actor_id", caller.CallerID)
	return &request, nil
}

// loadPendingRequest reads a transfer request and enforces that it is still
// PENDING.
func (s *Service) loadPendingRequest(ctx context.Context, tx ledger.ReadTx, requestID string, request *models.TransferRequest) error {
	doc, err := tx.Get(ctx, requestID)
	if errors.Is(err, sentinel.ErrNotFound) {
		return dErrors.Newf(dErrors.CodeNotFound, "transfer request %s does not exist", requestID)
	}
	if err != nil {
		return dErrors.Wrap(dErrors.CodeInternal, "read transfer request", err)
	}
	if models.DocType(doc.DocType) != models.DocTypeTransferRequest {
		return dErrors.Newf(dErrors.CodeNotFound, "transfer request %s does not exist", requestID)
	}
	if err := doc.Decode(request); err != nil {
		return dErrors.Wrap(dErrors.CodeInternal, "decode transfer request", err)
	}
	if request.Status != models.RequestPending {
		return dErrors.Newf(dErrors.CodeInvalidState, "transfer request %s is already %s", requestID, request.Status)
	}
	return nil
}

// TransferAsset is the simplified single-step handover to one full owner,
// without a request/approval cycle. It refuses any asset that is frozen,
// restricted, government-held, terminal, or disputed.
func (s *Service) TransferAsset(ctx context.Context, assetID, newOwnerID, docHash string) (_ models.TitledAsset, err error) {
	ctx, done := s.startOp(ctx, "transfer_asset", assetID)
	defer func() { done(err) }()

	if _, err = s.requireCaller(ctx); err != nil {
		return nil, err
	}
	if newOwnerID == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "new owner id cannot be empty")
	}
	now := requestcontext.Now(ctx).Unix()

	var asset models.TitledAsset
	err = s.store.Update(ctx, func(tx ledger.Tx) error {
		asset, err = getAsset(ctx, tx, assetID)
		if err != nil {
			return err
		}
		core := asset.Core()
		if core.Status != models.StatusActive {
			return dErrors.Newf(dErrors.CodeInvalidState, "asset %s is %s and cannot be transferred directly", assetID, core.Status)
		}
		if len(core.Disputes) > 0 {
			return dErrors.Newf(dErrors.CodeInvalidState, "asset %s has open disputes and cannot be transferred", assetID)
		}
		core.SetOwners(models.SoleOwner(newOwnerID), docHash, now)
		return putDoc(tx, asset.Key(), asset.Kind(), asset)
	})
	if err != nil {
		return nil, translateStoreErr(err)
	}

	s.invalidate(ctx, assetID)
	s.events.Send(ctx, notify.AssetTransferred{
		AssetID:    assetID,
		NewOwnerID: newOwnerID,
		Timestamp:  now,
		DocHash:    docHash,
	})
	s.logger.InfoContext(ctx, "asset transferred", "asset_id", assetID, "new_owner_id", newOwnerID)
	return asset, nil
}

// QueryTransferRequest returns a transfer request by ID.
func (s *Service) QueryTransferRequest(ctx context.Context, id string) (*models.TransferRequest, error) {
	var request models.TransferRequest
	err := s.store.View(ctx, func(tx ledger.ReadTx) error {
		doc, err := tx.Get(ctx, id)
		if err != nil {
			return err
		}
		if models.DocType(doc.DocType) != models.DocTypeTransferRequest {
			return sentinel.ErrNotFound
		}
		return doc.Decode(&request)
	})
	if errors.Is(err, sentinel.ErrNotFound) {
		return nil, dErrors.Newf(dErrors.CodeNotFound, "transfer request %s does not exist", id)
	}
	if err != nil {
		return nil, dErrors.Wrap(dErrors.CodeInternal, "read transfer request", err)
	}
	return &request, nil
}
