// Package models defines the discriminated records of the land-title
// registry and their construction invariants. All records are keyed by a
// globally unique string ID, tagged with a docType discriminator, and are
// never physically deleted: status transitions are the only lifecycle change
// after creation.
package models

import (
	dErrors "bhoomi/pkg/domain-errors"
)

// Parcel is a base land title keyed by its ULPIN.
//
// Invariants:
//   - Area is positive
//   - Status FROZEN iff disputes or encumbrances are non-empty (outside the
//     audited administrative override path)
//   - Status PARTITIONED/MERGED is terminal; ChildParcelIDs is populated
//     only then
type Parcel struct {
	DocType  DocType `json:"docType"`
	ID       string  `json:"id"`
	Area     float64 `json:"area"`
	Location string  `json:"location"`
	AssetCore
	ParentParcelIDs []string `json:"parentParcelIds,omitempty"`
	ChildParcelIDs  []string `json:"childParcelIds,omitempty"`
}

func (p *Parcel) Key() string      { return p.ID }
func (p *Parcel) Kind() DocType    { return DocTypeParcel }
func (p *Parcel) Core() *AssetCore { return &p.AssetCore }

// NewParcel constructs an ACTIVE parcel with a single FULL/100% owner.
func NewParcel(id string, area float64, location, ownerID, docHash string, now int64) (*Parcel, error) {
	if id == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "parcel id cannot be empty")
	}
	if area <= 0 {
		return nil, dErrors.Newf(dErrors.CodeValidation, "parcel area must be positive, got %v", area)
	}
	if ownerID == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "owner id cannot be empty")
	}
	return &Parcel{
		DocType:   DocTypeParcel,
		ID:        id,
		Area:      area,
		Location:  location,
		AssetCore: newAssetCore(ownerID, docHash, now),
	}, nil
}

// Unit is a sub-parcel title (e.g. an apartment) scoped under one parent
// parcel and carrying its undivided share of land.
type Unit struct {
	DocType        DocType `json:"docType"`
	ID             string  `json:"id"`
	ParentParcelID string  `json:"parentParcelId"`
	UDS            float64 `json:"uds"`
	AssetCore
}

func (u *Unit) Key() string      { return u.ID }
func (u *Unit) Kind() DocType    { return DocTypeUnit }
func (u *Unit) Core() *AssetCore { return &u.AssetCore }

// NewUnit constructs an ACTIVE unit under the given parent parcel.
func NewUnit(id, parentParcelID string, uds float64, ownerID, docHash string, now int64) (*Unit, error) {
	if id == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "unit id cannot be empty")
	}
	if parentParcelID == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "parent parcel id cannot be empty")
	}
	if uds <= 0 {
		return nil, dErrors.Newf(dErrors.CodeValidation, "uds must be positive, got %v", uds)
	}
	if ownerID == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "owner id cannot be empty")
	}
	return &Unit{
		DocType:        DocTypeUnit,
		ID:             id,
		ParentParcelID: parentParcelID,
		UDS:            uds,
		AssetCore:      newAssetCore(ownerID, docHash, now),
	}, nil
}

// TransferRequest is a citizen-filed request to re-assign ownership of an
// asset, terminated by a registrar decision.
type TransferRequest struct {
	DocType        DocType           `json:"docType"`
	ID             string            `json:"id"`
	AssetID        string            `json:"assetId"`
	RequesterID    string            `json:"requesterId"`
	NewOwners      []OwnershipRecord `json:"newOwners"`
	Kind           TransferKind      `json:"kind"`
	Status         RequestStatus     `json:"status"`
	SupportingDocs []string          `json:"supportingDocs"`
	CreatedAt      int64             `json:"createdAt"`
	DecidedAt      int64             `json:"decidedAt,omitempty"`
	DecidedBy      string            `json:"decidedBy,omitempty"`
}

// NewTransferRequest constructs a PENDING request. The new ownership split is
// validated here so malformed requests never reach a registrar.
func NewTransferRequest(id, assetID, requesterID string, newOwners []OwnershipRecord, kind TransferKind, supportingDocs []string, now int64) (*TransferRequest, error) {
	if id == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "request id cannot be empty")
	}
	if assetID == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "asset id cannot be empty")
	}
	if requesterID == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "requester id cannot be empty")
	}
	if err := ValidateOwners(newOwners); err != nil {
		return nil, err
	}
	if supportingDocs == nil {
		supportingDocs = []string{}
	}
	return &TransferRequest{
		DocType:        DocTypeTransferRequest,
		ID:             id,
		AssetID:        assetID,
		RequesterID:    requesterID,
		NewOwners:      newOwners,
		Kind:           kind,
		Status:         RequestPending,
		SupportingDocs: supportingDocs,
		CreatedAt:      now,
	}, nil
}

// Dispute is a claim against an asset that freezes it while OPEN. Both the
// citizen "raise" and registrar "flag" paths converge on this shape.
type Dispute struct {
	DocType        DocType       `json:"docType"`
	ID             string        `json:"id"`
	AssetID        string        `json:"assetId"`
	Reason         string        `json:"reason"`
	Status         DisputeStatus `json:"status"`
	CreatedAt      int64         `json:"createdAt"`
	ResolvedAt     int64         `json:"resolvedAt,omitempty"`
	CourtOrderHash string        `json:"courtOrderHash,omitempty"`
}

// NewDispute constructs an OPEN dispute.
func NewDispute(id, assetID, reason string, now int64) (*Dispute, error) {
	if id == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "dispute id cannot be empty")
	}
	if assetID == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "asset id cannot be empty")
	}
	if reason == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "dispute reason cannot be empty")
	}
	return &Dispute{
		DocType:   DocTypeDispute,
		ID:        id,
		AssetID:   assetID,
		Reason:    reason,
		Status:    DisputeOpen,
		CreatedAt: now,
	}, nil
}

// Resolve transitions the dispute to RESOLVED. Resolution is terminal.
func (d *Dispute) Resolve(courtOrderHash string, now int64) error {
	if d.Status == DisputeResolved {
		return dErrors.Newf(dErrors.CodeInvalidState, "dispute %s is already resolved", d.ID)
	}
	d.Status = DisputeResolved
	d.ResolvedAt = now
	if courtOrderHash != "" {
		d.CourtOrderHash = courtOrderHash
	}
	return nil
}

// Encumbrance is a registered third-party claim (mortgage, lease, lien)
// against an asset.
type Encumbrance struct {
	DocType    DocType           `json:"docType"`
	ID         string            `json:"id"`
	AssetID    string            `json:"assetId"`
	Kind       EncumbranceKind   `json:"kind"`
	Status     EncumbranceStatus `json:"status"`
	DocHash    string            `json:"docHash"`
	CreatedAt  int64             `json:"createdAt"`
	ReleasedAt int64             `json:"releasedAt,omitempty"`
}

// NewEncumbrance constructs an ACTIVE encumbrance.
func NewEncumbrance(id, assetID string, kind EncumbranceKind, docHash string, now int64) (*Encumbrance, error) {
	if id == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "encumbrance id cannot be empty")
	}
	if assetID == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "asset id cannot be empty")
	}
	if !validEncumbranceKinds[kind] {
		return nil, dErrors.Newf(dErrors.CodeValidation, "unknown encumbrance kind %q", string(kind))
	}
	return &Encumbrance{
		DocType:   DocTypeEncumbrance,
		ID:        id,
		AssetID:   assetID,
		Kind:      kind,
		Status:    EncumbranceActive,
		DocHash:   docHash,
		CreatedAt: now,
	}, nil
}

// Release transitions the encumbrance to RELEASED. Release is terminal.
func (e *Encumbrance) Release(now int64) error {
	if e.Status == EncumbranceReleased {
		return dErrors.Newf(dErrors.CodeInvalidState, "encumbrance %s is already released", e.ID)
	}
	e.Status = EncumbranceReleased
	e.ReleasedAt = now
	return nil
}
