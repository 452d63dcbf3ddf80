package handler

import (
	"strings"

	"bhoomi/internal/registry/models"
	"bhoomi/internal/registry/service"
	dErrors "bhoomi/pkg/domain-errors"
)

// OwnerRecord is the wire shape of one ownership stake.
type OwnerRecord struct {
	OwnerID         string  `json:"ownerId"`
	OwnershipType   string  `json:"ownershipType"`
	SharePercentage float64 `json:"sharePercentage"`
}

func parseOwners(in []OwnerRecord) ([]models.OwnershipRecord, error) {
	owners := make([]models.OwnershipRecord, 0, len(in))
	for _, o := range in {
		ot, err := models.ParseOwnershipType(strings.TrimSpace(o.OwnershipType))
		if err != nil {
			return nil, err
		}
		owners = append(owners, models.OwnershipRecord{
			OwnerID:         strings.TrimSpace(o.OwnerID),
			OwnershipType:   ot,
			SharePercentage: o.SharePercentage,
		})
	}
	return owners, nil
}

// CreateParcelRequest is the body for POST /parcels.
type CreateParcelRequest struct {
	ID       string  `json:"id"`
	Area     float64 `json:"area"`
	Location string  `json:"location"`
	OwnerID  string  `json:"ownerId"`
	DocHash  string  `json:"docHash"`
}

// Validate checks required fields. Numeric and invariant checks stay in the
// domain layer.
func (r *CreateParcelRequest) Validate() error {
	r.ID = strings.TrimSpace(r.ID)
	r.OwnerID = strings.TrimSpace(r.OwnerID)
	if r.ID == "" {
		return dErrors.New(dErrors.CodeValidation, "id is required")
	}
	if r.OwnerID == "" {
		return dErrors.New(dErrors.CodeValidation, "ownerId is required")
	}
	return nil
}

// CreateUnitRequest is the body for POST /units.
type CreateUnitRequest struct {
	ID             string  `json:"id"`
	ParentParcelID string  `json:"parentParcelId"`
	UDS            float64 `json:"uds"`
	OwnerID        string  `json:"ownerId"`
	DocHash        string  `json:"docHash"`
}

func (r *CreateUnitRequest) Validate() error {
	r.ID = strings.TrimSpace(r.ID)
	r.ParentParcelID = strings.TrimSpace(r.ParentParcelID)
	r.OwnerID = strings.TrimSpace(r.OwnerID)
	if r.ID == "" {
		return dErrors.New(dErrors.CodeValidation, "id is required")
	}
	if r.ParentParcelID == "" {
		return dErrors.New(dErrors.CodeValidation, "parentParcelId is required")
	}
	if r.OwnerID == "" {
		return dErrors.New(dErrors.CodeValidation, "ownerId is required")
	}
	return nil
}

// PartitionRequest is the body for POST /parcels/{id}/partition.
type PartitionRequest struct {
	Children []PartitionChild `json:"children"`
}

// PartitionChild describes one child parcel in a partition request.
type PartitionChild struct {
	ID       string  `json:"id"`
	Area     float64 `json:"area"`
	Location string  `json:"location"`
	DocHash  string  `json:"docHash"`
}

func (r *PartitionRequest) Validate() error {
	if len(r.Children) == 0 {
		return dErrors.New(dErrors.CodeValidation, "children is required")
	}
	for i := range r.Children {
		r.Children[i].ID = strings.TrimSpace(r.Children[i].ID)
		if r.Children[i].ID == "" {
			return dErrors.New(dErrors.CodeValidation, "every child needs an id")
		}
	}
	return nil
}

// Parsed converts the request into the service input.
func (r *PartitionRequest) Parsed() []service.ChildParcel {
	children := make([]service.ChildParcel, 0, len(r.Children))
	for _, c := range r.Children {
		children = append(children, service.ChildParcel{
			ID:       c.ID,
			Area:     c.Area,
			Location: c.Location,
			DocHash:  c.DocHash,
		})
	}
	return children
}

// MergeRequest is the body for POST /parcels/merge.
type MergeRequest struct {
	MergedID  string   `json:"mergedId"`
	SourceIDs []string `json:"sourceIds"`
	Location  string   `json:"location"`
	DocHash   string   `json:"docHash"`
}

func (r *MergeRequest) Validate() error {
	r.MergedID = strings.TrimSpace(r.MergedID)
	if r.MergedID == "" {
		return dErrors.New(dErrors.CodeValidation, "mergedId is required")
	}
	if len(r.SourceIDs) < 2 {
		return dErrors.New(dErrors.CodeValidation, "sourceIds needs at least two parcels")
	}
	return nil
}

// OverrideStatusRequest is the body for POST /assets/{id}/status.
type OverrideStatusRequest struct {
	Status string `json:"status"`
	Reason string `json:"reason"`

	parsedStatus models.AssetStatus
}

func (r *OverrideStatusRequest) Validate() error {
	st, err := models.ParseAssetStatus(strings.TrimSpace(r.Status))
	if err != nil {
		return err
	}
	r.parsedStatus = st
	r.Reason = strings.TrimSpace(r.Reason)
	if r.Reason == "" {
		return dErrors.New(dErrors.CodeValidation, "reason is required")
	}
	return nil
}

// ParsedStatus returns the validated target status.
func (r *OverrideStatusRequest) ParsedStatus() models.AssetStatus { return r.parsedStatus }

// DisputeRequest is the body for POST /disputes and POST /disputes/flag.
type DisputeRequest struct {
	ID      string `json:"id"`
	AssetID string `json:"assetId"`
	Reason  string `json:"reason"`
}

func (r *DisputeRequest) Validate() error {
	r.ID = strings.TrimSpace(r.ID)
	r.AssetID = strings.TrimSpace(r.AssetID)
	r.Reason = strings.TrimSpace(r.Reason)
	if r.ID == "" {
		return dErrors.New(dErrors.CodeValidation, "id is required")
	}
	if r.AssetID == "" {
		return dErrors.New(dErrors.CodeValidation, "assetId is required")
	}
	if r.Reason == "" {
		return dErrors.New(dErrors.CodeValidation, "reason is required")
	}
	return nil
}

// ResolveDisputeRequest is the body for POST /disputes/{id}/resolve. A
// court order hash routes the resolution through the registrar path.
type ResolveDisputeRequest struct {
	CourtOrderHash string `json:"courtOrderHash"`
}

func (r *ResolveDisputeRequest) Validate() error {
	r.CourtOrderHash = strings.TrimSpace(r.CourtOrderHash)
	return nil
}

// AddEncumbranceRequest is the body for POST /encumbrances.
type AddEncumbranceRequest struct {
	ID      string `json:"id"`
	AssetID string `json:"assetId"`
	Kind    string `json:"kind"`
	DocHash string `json:"docHash"`

	parsedKind models.EncumbranceKind
}

func (r *AddEncumbranceRequest) Validate() error {
	r.ID = strings.TrimSpace(r.ID)
	r.AssetID = strings.TrimSpace(r.AssetID)
	if r.ID == "" {
		return dErrors.New(dErrors.CodeValidation, "id is required")
	}
	if r.AssetID == "" {
		return dErrors.New(dErrors.CodeValidation, "assetId is required")
	}
	kind, err := models.ParseEncumbranceKind(strings.TrimSpace(r.Kind))
	if err != nil {
		return err
	}
	r.parsedKind = kind
	return nil
}

// ParsedKind returns the validated encumbrance kind.
func (r *AddEncumbranceRequest) ParsedKind() models.EncumbranceKind { return r.parsedKind }

// InitiateTransferRequest is the body for POST /transfers.
type InitiateTransferRequest struct {
	ID             string        `json:"id"`
	AssetID        string        `json:"assetId"`
	NewOwners      []OwnerRecord `json:"newOwners"`
	SupportingDocs []string      `json:"supportingDocs"`

	parsedOwners []models.OwnershipRecord
}

func (r *InitiateTransferRequest) Validate() error {
	r.ID = strings.TrimSpace(r.ID)
	r.AssetID = strings.TrimSpace(r.AssetID)
	if r.ID == "" {
		return dErrors.New(dErrors.CodeValidation, "id is required")
	}
	if r.AssetID == "" {
		return dErrors.New(dErrors.CodeValidation, "assetId is required")
	}
	owners, err := parseOwners(r.NewOwners)
	if err != nil {
		return err
	}
	r.parsedOwners = owners
	return nil
}

// ParsedOwners returns the validated new ownership split.
func (r *InitiateTransferRequest) ParsedOwners() []models.OwnershipRecord { return r.parsedOwners }

// InheritanceRequest is the body for POST /transfers/inheritance.
type InheritanceRequest struct {
	ID            string        `json:"id"`
	AssetID       string        `json:"assetId"`
	Heirs         []OwnerRecord `json:"heirs"`
	DeathCertHash string        `json:"deathCertHash"`

	parsedHeirs []models.OwnershipRecord
}

func (r *InheritanceRequest) Validate() error {
	r.ID = strings.TrimSpace(r.ID)
	r.AssetID = strings.TrimSpace(r.AssetID)
	r.DeathCertHash = strings.TrimSpace(r.DeathCertHash)
	if r.ID == "" {
		return dErrors.New(dErrors.CodeValidation, "id is required")
	}
	if r.AssetID == "" {
		return dErrors.New(dErrors.CodeValidation, "assetId is required")
	}
	if r.DeathCertHash == "" {
		return dErrors.New(dErrors.CodeValidation, "deathCertHash is required")
	}
	heirs, err := parseOwners(r.Heirs)
	if err != nil {
		return err
	}
	r.parsedHeirs = heirs
	return nil
}

// ParsedHeirs returns the validated heir split.
func (r *InheritanceRequest) ParsedHeirs() []models.OwnershipRecord { return r.parsedHeirs }

// RejectTransferRequest is the body for POST /transfers/{id}/reject.
type RejectTransferRequest struct {
	Reason string `json:"reason"`
}

func (r *RejectTransferRequest) Validate() error {
	r.Reason = strings.TrimSpace(r.Reason)
	if r.Reason == "" {
		return dErrors.New(dErrors.CodeValidation, "reason is required")
	}
	return nil
}

// DirectTransferRequest is the body for POST /assets/{id}/transfer.
type DirectTransferRequest struct {
	NewOwnerID string `json:"newOwnerId"`
	DocHash    string `json:"docHash"`
}

func (r *DirectTransferRequest) Validate() error {
	r.NewOwnerID = strings.TrimSpace(r.NewOwnerID)
	if r.NewOwnerID == "" {
		return dErrors.New(dErrors.CodeValidation, "newOwnerId is required")
	}
	return nil
}
