package models

import (
	"slices"

	dErrors "bhoomi/pkg/domain-errors"
)

// OwnershipRecord is one owner's stake in a titled asset.
type OwnershipRecord struct {
	OwnerID         string        `json:"ownerId"`
	OwnershipType   OwnershipType `json:"ownershipType"`
	SharePercentage float64       `json:"sharePercentage"`
}

// shareSumTolerance absorbs decimal rounding in joint splits (e.g. three
// heirs at 33.34/33.33/33.33).
const shareSumTolerance = 1e-6

// ValidateOwners enforces the ownership-share invariant: every owner named,
// every type valid, every share in (0, 100], and the shares summing to 100.
func ValidateOwners(owners []OwnershipRecord) error {
	if len(owners) == 0 {
		return dErrors.New(dErrors.CodeValidation, "owners cannot be empty")
	}
	sum := 0.0
	for _, o := range owners {
		if o.OwnerID == "" {
			return dErrors.New(dErrors.CodeValidation, "ownerId cannot be empty")
		}
		if !validOwnershipTypes[o.OwnershipType] {
			return dErrors.Newf(dErrors.CodeValidation, "unknown ownership type %q", string(o.OwnershipType))
		}
		if o.SharePercentage <= 0 || o.SharePercentage > 100 {
			return dErrors.Newf(dErrors.CodeValidation, "share percentage %v for owner %s out of range (0,100]", o.SharePercentage, o.OwnerID)
		}
		sum += o.SharePercentage
	}
	if sum < 100-shareSumTolerance || sum > 100+shareSumTolerance {
		return dErrors.Newf(dErrors.CodeValidation, "ownership shares sum to %v, expected 100", sum)
	}
	return nil
}

// SoleOwner builds the single FULL/100% ownership list used on creation and
// direct transfer.
func SoleOwner(ownerID string) []OwnershipRecord {
	return []OwnershipRecord{{
		OwnerID:         ownerID,
		OwnershipType:   OwnershipFull,
		SharePercentage: 100,
	}}
}

// AssetCore is the freeze/transfer state shared by Parcel and Unit. Dispute,
// encumbrance, and transfer logic is written once against this shape.
type AssetCore struct {
	Owners       []OwnershipRecord `json:"owners"`
	Status       AssetStatus       `json:"status"`
	Encumbrances []string          `json:"encumbrances"`
	Disputes     []string          `json:"disputes"`
	LastUpdated  int64             `json:"lastUpdated"`
	DocHash      string            `json:"docHash"`
}

func newAssetCore(ownerID, docHash string, now int64) AssetCore {
	return AssetCore{
		Owners:       SoleOwner(ownerID),
		Status:       StatusActive,
		Encumbrances: []string{},
		Disputes:     []string{},
		LastUpdated:  now,
		DocHash:      docHash,
	}
}

// AttachDispute records an open dispute and freezes the asset. The freeze is
// a blanket override: even RESTRICTED or GOVERNMENT assets go FROZEN.
func (c *AssetCore) AttachDispute(disputeID string, now int64) {
	c.Disputes = append(c.Disputes, disputeID)
	c.Status = StatusFrozen
	c.LastUpdated = now
}

// DetachDispute removes a resolved dispute from the asset. It does not
// unfreeze; that decision belongs to the configured unfreeze policy.
func (c *AssetCore) DetachDispute(disputeID string, now int64) {
	c.Disputes = slices.DeleteFunc(c.Disputes, func(id string) bool { return id == disputeID })
	c.LastUpdated = now
}

// AttachEncumbrance records an active encumbrance and freezes the asset.
func (c *AssetCore) AttachEncumbrance(encID string, now int64) {
	c.Encumbrances = append(c.Encumbrances, encID)
	c.Status = StatusFrozen
	c.LastUpdated = now
}

// DetachEncumbrance removes a released encumbrance from the asset.
func (c *AssetCore) DetachEncumbrance(encID string, now int64) {
	c.Encumbrances = slices.DeleteFunc(c.Encumbrances, func(id string) bool { return id == encID })
	c.LastUpdated = now
}

// Unfrozen reports whether the asset currently holds no freeze triggers.
func (c *AssetCore) Unfrozen() bool {
	return len(c.Disputes) == 0 && len(c.Encumbrances) == 0
}

// SetOwners replaces the ownership list. Callers validate first.
func (c *AssetCore) SetOwners(owners []OwnershipRecord, docHash string, now int64) {
	c.Owners = owners
	if docHash != "" {
		c.DocHash = docHash
	}
	c.LastUpdated = now
}

// TitledAsset is the sum type over Parcel and Unit: the unit of ownership
// and freeze/transfer state. Operations that apply to either variant work
// through this interface.
type TitledAsset interface {
	Key() string
	Kind() DocType
	Core() *AssetCore
}

var (
	_ TitledAsset = (*Parcel)(nil)
	_ TitledAsset = (*Unit)(nil)
)
