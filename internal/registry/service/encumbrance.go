package service

import (
	"context"
	"errors"
	"fmt"

	"bhoomi/internal/audit"
	"bhoomi/internal/registry/ledger"
	"bhoomi/internal/registry/models"
	dErrors "bhoomi/pkg/domain-errors"
	"bhoomi/pkg/platform/sentinel"
	"bhoomi/pkg/requestcontext"
)

// AddEncumbrance registers a third-party claim against an asset and freezes
// it. Registrar only; the claim is recorded on the audit trail.
func (s *Service) AddEncumbrance(ctx context.Context, encID, assetID string, kind models.EncumbranceKind, docHash string) (_ *models.Encumbrance, err error) {
	ctx, done := s.startOp(ctx, "add_encumbrance", encID)
	defer func() { done(err) }()

	caller, err := s.requireRegistrar(ctx)
	if err != nil {
		return nil, err
	}
	now := requestcontext.Now(ctx).Unix()
	enc, err := models.NewEncumbrance(encID, assetID, kind, docHash, now)
	if err != nil {
		return nil, err
	}

	err = s.store.Update(ctx, func(tx ledger.Tx) error {
		exists, err := tx.Exists(ctx, encID)
		if err != nil {
			return dErrors.Wrap(dErrors.CodeInternal, "check encumbrance existence", err)
		}
		if exists {
			return dErrors.Newf(dErrors.CodeAlreadyExists, "encumbrance %s already exists", encID)
		}
		asset, err := getAsset(ctx, tx, assetID)
		if err != nil {
			return err
		}
		if status := asset.Core().Status; status.IsTerminal() {
			return dErrors.Newf(dErrors.CodeInvalidState, "asset %s is %s and can no longer be encumbered", assetID, status)
		}
		asset.Core().AttachEncumbrance(encID, now)
		if err := putDoc(tx, asset.Key(), asset.Kind(), asset); err != nil {
			return err
		}
		return putDoc(tx, enc.ID, models.DocTypeEncumbrance, enc)
	})
	if err != nil {
		return nil, translateStoreErr(err)
	}

	s.invalidate(ctx, assetID, encID)
	s.record(ctx, caller, audit.ActionEncumbranceAdded, assetID,
		fmt.Sprintf("encumbrance %s (%s)", encID, kind))
	s.logger.InfoContext(ctx, "encumbrance added",
		"encumbrance_id", encID, "asset_id", assetID, "kind", kind)
	return enc, nil
}

// ReleaseEncumbrance discharges a registered claim. The asset reverts to
// ACTIVE only once it carries neither encumbrances nor open disputes; this
// release path is always strict regardless of the dispute unfreeze policy.
// Registrar only.
func (s *Service) ReleaseEncumbrance(ctx context.Context, encID string) (_ *models.Encumbrance, err error) {
	ctx, done := s.startOp(ctx, "release_encumbrance", encID)
	defer func() { done(err) }()

	caller, err := s.requireRegistrar(ctx)
	if err != nil {
		return nil, err
	}
	now := requestcontext.Now(ctx).Unix()

	var enc models.Encumbrance
	err = s.store.Update(ctx, func(tx ledger.Tx) error {
		doc, err := tx.Get(ctx, encID)
		if errors.Is(err, sentinel.ErrNotFound) {
			return dErrors.Newf(dErrors.CodeNotFound, "encumbrance %s does not exist", encID)
		}
		if err != nil {
			return dErrors.Wrap(dErrors.CodeInternal, "read encumbrance", err)
		}
		if models.DocType(doc.DocType) != models.DocTypeEncumbrance {
			return dErrors.Newf(dErrors.CodeNotFound, "encumbrance %s does not exist", encID)
		}
		if err := doc.Decode(&enc); err != nil {
			return dErrors.Wrap(dErrors.CodeInternal, "decode encumbrance", err)
		}
		if err := enc.Release(now); err != nil {
			return err
		}

		asset, err := getAsset(ctx, tx, enc.AssetID)
		if err != nil {
			return err
		}
		core := asset.Core()
		core.DetachEncumbrance(encID, now)
		if core.Status == models.StatusFrozen && core.Unfrozen() {
			core.Status = models.StatusActive
		}
		if err := putDoc(tx, asset.Key(), asset.Kind(), asset); err != nil {
			return err
		}
		return putDoc(tx, enc.ID, models.DocTypeEncumbrance, &enc)
	})
	if err != nil {
		return nil, translateStoreErr(err)
	}

	s.invalidate(ctx, enc.AssetID, encID)
	s.record(ctx, caller, audit.ActionEncumbranceRelease, enc.AssetID,
		fmt.Sprintf("encumbrance %s released", encID))
	s.logger.InfoContext(ctx, "encumbrance released",
		"encumbrance_id", encID, "asset_id", enc.AssetID)
	return &enc, nil
}

// QueryEncumbrance returns an encumbrance record by ID.
func (s *Service) QueryEncumbrance(ctx context.Context, id string) (*models.Encumbrance, error) {
	var enc models.Encumbrance
	err := s.store.View(ctx, func(tx ledger.ReadTx) error {
		doc, err := tx.Get(ctx, id)
		if err != nil {
			return err
		}
		if models.DocType(doc.DocType) != models.DocTypeEncumbrance {
			return sentinel.ErrNotFound
		}
		return doc.Decode(&enc)
	})
	if errors.Is(err, sentinel.ErrNotFound) {
		return nil, dErrors.Newf(dErrors.CodeNotFound, "encumbrance %s does not exist", id)
	}
	if err != nil {
		return nil, dErrors.Wrap(dErrors.CodeInternal, "read encumbrance", err)
	}
	return &enc, nil
}
