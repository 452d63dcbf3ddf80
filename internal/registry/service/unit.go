package service

import (
	"context"
	"errors"

	"bhoomi/internal/registry/ledger"
	"bhoomi/internal/registry/models"
	dErrors "bhoomi/pkg/domain-errors"
	"bhoomi/pkg/platform/sentinel"
	"bhoomi/pkg/requestcontext"
)

// CreateUnitInput carries the fields of a new sub-parcel unit registration.
type CreateUnitInput struct {
	ID             string
	ParentParcelID string
	UDS            float64
	OwnerID        string
	DocHash        string
}

// CreateUnit registers a unit under an existing ACTIVE parcel. A frozen or
// partitioned parent cannot sprout new units.
func (s *Service) CreateUnit(ctx context.Context, in CreateUnitInput) (_ *models.Unit, err error) {
	ctx, done := s.startOp(ctx, "create_unit", in.ID)
	defer func() { done(err) }()

	if _, err = s.requireCaller(ctx); err != nil {
		return nil, err
	}
	now := requestcontext.Now(ctx).Unix()
	unit, err := models.NewUnit(in.ID, in.ParentParcelID, in.UDS, in.OwnerID, in.DocHash, now)
	if err != nil {
		return nil, err
	}

	err = s.store.Update(ctx, func(tx ledger.Tx) error {
		doc, err := tx.Get(ctx, in.ParentParcelID)
		if errors.Is(err, sentinel.ErrNotFound) {
			return dErrors.Newf(dErrors.CodeNotFound, "parent parcel %s does not exist", in.ParentParcelID)
		}
		if err != nil {
			return dErrors.Wrap(dErrors.CodeInternal, "read parent parcel", err)
		}
		if models.DocType(doc.DocType) != models.DocTypeParcel {
			return dErrors.Newf(dErrors.CodeNotFound, "parent parcel %s does not exist", in.ParentParcelID)
		}
		var parent models.Parcel
		if err := doc.Decode(&parent); err != nil {
			return dErrors.Wrap(dErrors.CodeInternal, "decode parent parcel", err)
		}
		if parent.Status != models.StatusActive {
			return dErrors.Newf(dErrors.CodeInvalidState, "parent parcel %s is %s, units can only be registered under ACTIVE parcels", in.ParentParcelID, parent.Status)
		}
		exists, err := tx.Exists(ctx, unit.ID)
		if err != nil {
			return dErrors.Wrap(dErrors.CodeInternal, "check unit existence", err)
		}
		if exists {
			return dErrors.Newf(dErrors.CodeAlreadyExists, "unit %s already exists", unit.ID)
		}
		return putDoc(tx, unit.ID, models.DocTypeUnit, unit)
	})
	if err != nil {
		return nil, translateStoreErr(err)
	}

	s.invalidate(ctx, unit.ID)
	if s.metrics != nil {
		s.metrics.UnitsCreated.Inc()
	}
	s.logger.InfoContext(ctx, "unit registered",
		"unit_id", unit.ID, "parent_parcel_id", in.ParentParcelID, "owner_id", in.OwnerID)
	return unit, nil
}

// QueryUnit returns a unit by ID. Reads go through the cache when one is
// configured.
func (s *Service) QueryUnit(ctx context.Context, id string) (*models.Unit, error) {
	doc, err := s.getDocCached(ctx, id)
	if errors.Is(err, sentinel.ErrNotFound) {
		return nil, dErrors.Newf(dErrors.CodeNotFound, "unit %s does not exist", id)
	}
	if err != nil {
		return nil, dErrors.Wrap(dErrors.CodeInternal, "read unit", err)
	}
	if models.DocType(doc.DocType) != models.DocTypeUnit {
		return nil, dErrors.Newf(dErrors.CodeNotFound, "unit %s does not exist", id)
	}
	var unit models.Unit
	if err := doc.Decode(&unit); err != nil {
		return nil, dErrors.Wrap(dErrors.CodeInternal, "decode unit", err)
	}
	return &unit, nil
}

// UnitExists is the boolean existence probe.
func (s *Service) UnitExists(ctx context.Context, id string) (bool, error) {
	var exists bool
	err := s.store.View(ctx, func(tx ledger.ReadTx) error {
		var err error
		exists, err = tx.Exists(ctx, id)
		return err
	})
	if err != nil {
		return false, dErrors.Wrap(dErrors.CodeInternal, "check unit existence", err)
	}
	return exists, nil
}

// QueryUnitsByParcel lists every unit registered under the given parcel.
// An unknown parcel yields an empty list, matching the predicate-query
// semantics rather than the point-lookup ones.
func (s *Service) QueryUnitsByParcel(ctx context.Context, parentParcelID string) ([]*models.Unit, error) {
	if parentParcelID == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "parent parcel id cannot be empty")
	}
	var docs []ledger.Document
	err := s.store.View(ctx, func(tx ledger.ReadTx) error {
		var err error
		docs, err = tx.UnitsByParcel(ctx, parentParcelID)
		return err
	})
	if err != nil {
		return nil, dErrors.Wrap(dErrors.CodeInternal, "list units by parcel", err)
	}
	units := make([]*models.Unit, 0, len(docs))
	for _, doc := range docs {
		var unit models.Unit
		if err := doc.Decode(&unit); err != nil {
			return nil, dErrors.Wrap(dErrors.CodeInternal, "decode unit", err)
		}
		units = append(units, &unit)
	}
	return units, nil
}
