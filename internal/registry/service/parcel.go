package service

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"slices"

	"bhoomi/internal/audit"
	"bhoomi/internal/registry/ledger"
	"bhoomi/internal/registry/models"
	dErrors "bhoomi/pkg/domain-errors"
	"bhoomi/pkg/platform/sentinel"
	"bhoomi/pkg/requestcontext"
)

// CreateParcelInput carries the fields of a new base parcel registration.
type CreateParcelInput struct {
	ID       string
	Area     float64
	Location string
	OwnerID  string
	DocHash  string
}

// CreateParcel registers a new land parcel with a single FULL/100% owner.
func (s *Service) CreateParcel(ctx context.Context, in CreateParcelInput) (_ *models.Parcel, err error) {
	ctx, done := s.startOp(ctx, "create_parcel", in.ID)
	defer func() { done(err) }()

	if _, err = s.requireCaller(ctx); err != nil {
		return nil, err
	}
	now := requestcontext.Now(ctx).Unix()
	parcel, err := models.NewParcel(in.ID, in.Area, in.Location, in.OwnerID, in.DocHash, now)
	if err != nil {
		return nil, err
	}

	err = s.store.Update(ctx, func(tx ledger.Tx) error {
		exists, err := tx.Exists(ctx, parcel.ID)
		if err != nil {
			return dErrors.Wrap(dErrors.CodeInternal, "check parcel existence", err)
		}
		if exists {
			return dErrors.Newf(dErrors.CodeAlreadyExists, "parcel %s already exists", parcel.ID)
		}
		return putDoc(tx, parcel.ID, models.DocTypeParcel, parcel)
	})
	if err != nil {
		return nil, translateStoreErr(err)
	}

	s.invalidate(ctx, parcel.ID)
	if s.metrics != nil {
		s.metrics.ParcelsCreated.Inc()
	}
	s.logger.InfoContext(ctx, "parcel registered", "parcel_id", parcel.ID, "owner_id", in.OwnerID)
	return parcel, nil
}

// QueryParcel returns a parcel by ID. Reads go through the cache when one is
// configured.
func (s *Service) QueryParcel(ctx context.Context, id string) (*models.Parcel, error) {
	doc, err := s.getDocCached(ctx, id)
	if errors.Is(err, sentinel.ErrNotFound) {
		return nil, dErrors.Newf(dErrors.CodeNotFound, "parcel %s does not exist", id)
	}
	if err != nil {
		return nil, dErrors.Wrap(dErrors.CodeInternal, "read parcel", err)
	}
	if models.DocType(doc.DocType) != models.DocTypeParcel {
		return nil, dErrors.Newf(dErrors.CodeNotFound, "parcel %s does not exist", id)
	}
	var parcel models.Parcel
	if err := doc.Decode(&parcel); err != nil {
		return nil, dErrors.Wrap(dErrors.CodeInternal, "decode parcel", err)
	}
	return &parcel, nil
}

// ParcelExists is the boolean existence probe.
func (s *Service) ParcelExists(ctx context.Context, id string) (bool, error) {
	var exists bool
	err := s.store.View(ctx, func(tx ledger.ReadTx) error {
		var err error
		exists, err = tx.Exists(ctx, id)
		return err
	})
	if err != nil {
		return false, dErrors.Wrap(dErrors.CodeInternal, "check parcel existence", err)
	}
	return exists, nil
}

// getDocCached is the read-through lookup behind the point queries.
func (s *Service) getDocCached(ctx context.Context, id string) (ledger.Document, error) {
	if s.cache != nil {
		if doc, err := s.cache.Get(ctx, id); err == nil {
			return doc, nil
		} else if !errors.Is(err, sentinel.ErrNotFound) {
			s.logger.WarnContext(ctx, "cache read failed", "key", id, "error", err)
		}
	}
	var doc ledger.Document
	err := s.store.View(ctx, func(tx ledger.ReadTx) error {
		var err error
		doc, err = tx.Get(ctx, id)
		return err
	})
	if err != nil {
		return ledger.Document{}, err
	}
	if s.cache != nil {
		if err := s.cache.Set(ctx, doc); err != nil {
			s.logger.WarnContext(ctx, "cache fill failed", "key", id, "error", err)
		}
	}
	return doc, nil
}

// ChildParcel describes one child created by a partition.
type ChildParcel struct {
	ID       string
	Area     float64
	Location string
	DocHash  string
}

// PartitionLand splits an ACTIVE parcel into child parcels. Children inherit
// the parent's current owners and back-reference it; the parent becomes
// PARTITIONED. All N+1 records commit as one unit or none at all.
func (s *Service) PartitionLand(ctx context.Context, parentID string, children []ChildParcel) (_ *models.Parcel, err error) {
	ctx, done := s.startOp(ctx, "partition_land", parentID)
	defer func() { done(err) }()

	if _, err = s.requireCaller(ctx); err != nil {
		return nil, err
	}
	if len(children) == 0 {
		return nil, dErrors.New(dErrors.CodeValidation, "partition requires at least one child parcel")
	}
	now := requestcontext.Now(ctx).Unix()

	var parent models.Parcel
	err = s.store.Update(ctx, func(tx ledger.Tx) error {
		doc, err := tx.Get(ctx, parentID)
		if errors.Is(err, sentinel.ErrNotFound) {
			return dErrors.Newf(dErrors.CodeNotFound, "parcel %s does not exist", parentID)
		}
		if err != nil {
			return dErrors.Wrap(dErrors.CodeInternal, "read parent parcel", err)
		}
		if models.DocType(doc.DocType) != models.DocTypeParcel {
			return dErrors.Newf(dErrors.CodeNotFound, "parcel %s does not exist", parentID)
		}
		if err := doc.Decode(&parent); err != nil {
			return dErrors.Wrap(dErrors.CodeInternal, "decode parent parcel", err)
		}
		if parent.Status != models.StatusActive {
			return dErrors.Newf(dErrors.CodeInvalidState, "parcel %s is %s, only ACTIVE parcels can be partitioned", parentID, parent.Status)
		}

		childIDs := make([]string, 0, len(children))
		for _, c := range children {
			if c.ID == "" {
				return dErrors.New(dErrors.CodeValidation, "child parcel id cannot be empty")
			}
			if c.Area <= 0 {
				return dErrors.Newf(dErrors.CodeValidation, "child parcel area must be positive, got %v", c.Area)
			}
			exists, err := tx.Exists(ctx, c.ID)
			if err != nil {
				return dErrors.Wrap(dErrors.CodeInternal, "check child existence", err)
			}
			if exists {
				return dErrors.Newf(dErrors.CodeAlreadyExists, "parcel %s already exists", c.ID)
			}
			child := newDerivedParcel(c.ID, c.Area, c.Location, c.DocHash, parent.Owners, []string{parentID}, now)
			if err := putDoc(tx, child.ID, models.DocTypeParcel, child); err != nil {
				return err
			}
			childIDs = append(childIDs, c.ID)
		}

		parent.Status = models.StatusPartitioned
		parent.ChildParcelIDs = childIDs
		parent.LastUpdated = now
		return putDoc(tx, parent.ID, models.DocTypeParcel, &parent)
	})
	if err != nil {
		return nil, translateStoreErr(err)
	}

	keys := make([]string, 0, len(children)+1)
	keys = append(keys, parentID)
	for _, c := range children {
		keys = append(keys, c.ID)
	}
	s.invalidate(ctx, keys...)
	s.logger.InfoContext(ctx, "parcel partitioned", "parcel_id", parentID, "children", len(children))
	return &parent, nil
}

// MergeInput describes a consolidation of source parcels into one.
type MergeInput struct {
	MergedID  string
	SourceIDs []string
	Location  string
	DocHash   string
}

// MergeParcels consolidates two or more ACTIVE parcels with identical
// ownership into a new parcel whose area is the sum of the sources. Each
// source becomes MERGED with the new parcel recorded as its child. Registrar
// only; the consolidation is recorded on the audit trail.
func (s *Service) MergeParcels(ctx context.Context, in MergeInput) (_ *models.Parcel, err error) {
	ctx, done := s.startOp(ctx, "merge_parcels", in.MergedID)
	defer func() { done(err) }()

	caller, err := s.requireRegistrar(ctx)
	if err != nil {
		return nil, err
	}
	if in.MergedID == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "merged parcel id cannot be empty")
	}
	if len(in.SourceIDs) < 2 {
		return nil, dErrors.New(dErrors.CodeValidation, "merge requires at least two source parcels")
	}
	now := requestcontext.Now(ctx).Unix()

	var merged models.Parcel
	err = s.store.Update(ctx, func(tx ledger.Tx) error {
		exists, err := tx.Exists(ctx, in.MergedID)
		if err != nil {
			return dErrors.Wrap(dErrors.CodeInternal, "check merged existence", err)
		}
		if exists {
			return dErrors.Newf(dErrors.CodeAlreadyExists, "parcel %s already exists", in.MergedID)
		}

		sources := make([]*models.Parcel, 0, len(in.SourceIDs))
		totalArea := 0.0
		for _, id := range in.SourceIDs {
			doc, err := tx.Get(ctx, id)
			if errors.Is(err, sentinel.ErrNotFound) {
				return dErrors.Newf(dErrors.CodeNotFound, "parcel %s does not exist", id)
			}
			if err != nil {
				return dErrors.Wrap(dErrors.CodeInternal, "read source parcel", err)
			}
			if models.DocType(doc.DocType) != models.DocTypeParcel {
				return dErrors.Newf(dErrors.CodeNotFound, "parcel %s does not exist", id)
			}
			var src models.Parcel
			if err := doc.Decode(&src); err != nil {
				return dErrors.Wrap(dErrors.CodeInternal, "decode source parcel", err)
			}
			if src.Status != models.StatusActive {
				return dErrors.Newf(dErrors.CodeInvalidState, "parcel %s is %s, only ACTIVE parcels can be merged", id, src.Status)
			}
			sources = append(sources, &src)
			totalArea += src.Area
		}
		for _, src := range sources[1:] {
			if !sameOwners(sources[0].Owners, src.Owners) {
				return dErrors.Newf(dErrors.CodeInvalidState, "parcels %s and %s have different owners", sources[0].ID, src.ID)
			}
		}

		merged = *newDerivedParcel(in.MergedID, totalArea, in.Location, in.DocHash, sources[0].Owners, slices.Clone(in.SourceIDs), now)
		if err := putDoc(tx, merged.ID, models.DocTypeParcel, &merged); err != nil {
			return err
		}

		for _, src := range sources {
			src.Status = models.StatusMerged
			src.ChildParcelIDs = []string{in.MergedID}
			src.LastUpdated = now
			if err := putDoc(tx, src.ID, models.DocTypeParcel, src); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, translateStoreErr(err)
	}

	s.invalidate(ctx, append(slices.Clone(in.SourceIDs), in.MergedID)...)
	s.record(ctx, caller, audit.ActionParcelsMerged, in.MergedID,
		fmt.Sprintf("merged from %v", in.SourceIDs))
	s.logger.InfoContext(ctx, "parcels merged", "parcel_id", in.MergedID, "sources", in.SourceIDs)
	return &merged, nil
}

// newDerivedParcel builds an ACTIVE parcel that inherits an existing
// ownership list, as partition children and merge results do.
func newDerivedParcel(id string, area float64, location, docHash string, owners []models.OwnershipRecord, parentIDs []string, now int64) *models.Parcel {
	return &models.Parcel{
		DocType:  models.DocTypeParcel,
		ID:       id,
		Area:     area,
		Location: location,
		AssetCore: models.AssetCore{
			Owners:       slices.Clone(owners),
			Status:       models.StatusActive,
			Encumbrances: []string{},
			Disputes:     []string{},
			LastUpdated:  now,
			DocHash:      docHash,
		},
		ParentParcelIDs: parentIDs,
	}
}

// sameOwners compares two ownership lists ignoring order.
func sameOwners(a, b []models.OwnershipRecord) bool {
	if len(a) != len(b) {
		return false
	}
	byRecord := func(x, y models.OwnershipRecord) int {
		if c := cmp.Compare(x.OwnerID, y.OwnerID); c != 0 {
			return c
		}
		if c := cmp.Compare(string(x.OwnershipType), string(y.OwnershipType)); c != 0 {
			return c
		}
		return cmp.Compare(x.SharePercentage, y.SharePercentage)
	}
	as := slices.Clone(a)
	bs := slices.Clone(b)
	slices.SortFunc(as, byRecord)
	slices.SortFunc(bs, byRecord)
	return slices.Equal(as, bs)
}

// OverrideStatus is the audited administrative escape hatch: it sets an
// asset's status without regard to its disputes or encumbrances. Terminal
// statuses are unreachable through it; they come only from partition and
// merge. Registrar only, and every use lands on the audit trail.
func (s *Service) OverrideStatus(ctx context.Context, id string, newStatus models.AssetStatus, reason string) (_ models.TitledAsset, err error) {
	ctx, done := s.startOp(ctx, "override_status", id)
	defer func() { done(err) }()

	caller, err := s.requireRegistrar(ctx)
	if err != nil {
		return nil, err
	}
	if !newStatus.Overridable() {
		return nil, dErrors.Newf(dErrors.CodeValidation, "status %s cannot be set by override", newStatus)
	}
	if reason == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "override reason cannot be empty")
	}
	now := requestcontext.Now(ctx).Unix()

	var asset models.TitledAsset
	err = s.store.Update(ctx, func(tx ledger.Tx) error {
		asset, err = getAsset(ctx, tx, id)
		if err != nil {
			return err
		}
		core := asset.Core()
		if core.Status.IsTerminal() {
			return dErrors.Newf(dErrors.CodeInvalidState, "asset %s is %s, terminal assets cannot be overridden", id, core.Status)
		}
		core.Status = newStatus
		core.LastUpdated = now
		return putDoc(tx, asset.Key(), asset.Kind(), asset)
	})
	if err != nil {
		return nil, translateStoreErr(err)
	}

	s.invalidate(ctx, id)
	s.record(ctx, caller, audit.ActionStatusOverride, id,
		fmt.Sprintf("status set to %s: %s", newStatus, reason))
	s.logger.InfoContext(ctx, "asset status overridden",
		"asset_id", id, "status", newStatus, "actor_id", caller.CallerID)
	return asset, nil
}
