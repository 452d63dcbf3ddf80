package models

import (
	dErrors "bhoomi/pkg/domain-errors"
)

// DocType discriminates the record families stored in the ledger.
type DocType string

const (
	DocTypeParcel          DocType = "parcel"
	DocTypeUnit            DocType = "unit"
	DocTypeTransferRequest DocType = "transferRequest"
	DocTypeDispute         DocType = "dispute"
	DocTypeEncumbrance     DocType = "encumbrance"
)

// AssetStatus is the lifecycle state of a titled asset (parcel or unit).
//
// Invariant: FROZEN iff the asset has open disputes or active encumbrances,
// except immediately after an audited administrative override. PARTITIONED
// and MERGED are terminal; a terminal asset's owners and area are frozen
// historical facts.
type AssetStatus string

const (
	StatusActive      AssetStatus = "ACTIVE"
	StatusFrozen      AssetStatus = "FROZEN"
	StatusRestricted  AssetStatus = "RESTRICTED"
	StatusGovernment  AssetStatus = "GOVERNMENT"
	StatusPartitioned AssetStatus = "PARTITIONED"
	StatusMerged      AssetStatus = "MERGED"
)

var validAssetStatuses = map[AssetStatus]bool{
	StatusActive:      true,
	StatusFrozen:      true,
	StatusRestricted:  true,
	StatusGovernment:  true,
	StatusPartitioned: true,
	StatusMerged:      true,
}

// ParseAssetStatus constructs an AssetStatus from external input. Unknown
// values are rejected rather than silently accepted.
func ParseAssetStatus(s string) (AssetStatus, error) {
	st := AssetStatus(s)
	if !validAssetStatuses[st] {
		return "", dErrors.Newf(dErrors.CodeValidation, "unknown asset status %q", s)
	}
	return st, nil
}

// IsValid checks the status against the closed enum.
func (s AssetStatus) IsValid() bool { return validAssetStatuses[s] }

// IsTerminal reports whether the status ends the asset's lifecycle. Terminal
// assets can no longer be the target of transfer, dispute, or encumbrance
// operations.
func (s AssetStatus) IsTerminal() bool {
	return s == StatusPartitioned || s == StatusMerged
}

// Overridable reports whether an administrative override may set this status.
// PARTITIONED and MERGED are only ever produced by their dedicated
// operations, never by fiat.
func (s AssetStatus) Overridable() bool {
	return s.IsValid() && !s.IsTerminal()
}

func (s AssetStatus) String() string { return string(s) }

// OwnershipType classifies how an owner holds their share.
type OwnershipType string

const (
	OwnershipFull      OwnershipType = "FULL"
	OwnershipJoint     OwnershipType = "JOINT"
	OwnershipInherited OwnershipType = "INHERITED"
)

var validOwnershipTypes = map[OwnershipType]bool{
	OwnershipFull:      true,
	OwnershipJoint:     true,
	OwnershipInherited: true,
}

// ParseOwnershipType constructs an OwnershipType from external input.
func ParseOwnershipType(s string) (OwnershipType, error) {
	ot := OwnershipType(s)
	if !validOwnershipTypes[ot] {
		return "", dErrors.Newf(dErrors.CodeValidation, "unknown ownership type %q", s)
	}
	return ot, nil
}

// TransferKind distinguishes sale-style transfers from inheritance.
type TransferKind string

const (
	TransferKindTransfer    TransferKind = "TRANSFER"
	TransferKindInheritance TransferKind = "INHERITANCE"
)

// RequestStatus is the lifecycle of a transfer request. PENDING is the only
// non-terminal state.
type RequestStatus string

const (
	RequestPending  RequestStatus = "PENDING"
	RequestApproved RequestStatus = "APPROVED"
	RequestRejected RequestStatus = "REJECTED"
)

// DisputeStatus is the lifecycle of a dispute record.
type DisputeStatus string

const (
	DisputeOpen     DisputeStatus = "OPEN"
	DisputeResolved DisputeStatus = "RESOLVED"
)

// EncumbranceKind classifies the registered third-party claim.
type EncumbranceKind string

const (
	EncumbranceMortgage EncumbranceKind = "MORTGAGE"
	EncumbranceLease    EncumbranceKind = "LEASE"
	EncumbranceLien     EncumbranceKind = "LIEN"
)

var validEncumbranceKinds = map[EncumbranceKind]bool{
	EncumbranceMortgage: true,
	EncumbranceLease:    true,
	EncumbranceLien:     true,
}

// ParseEncumbranceKind constructs an EncumbranceKind from external input.
func ParseEncumbranceKind(s string) (EncumbranceKind, error) {
	k := EncumbranceKind(s)
	if !validEncumbranceKinds[k] {
		return "", dErrors.Newf(dErrors.CodeValidation, "unknown encumbrance kind %q", s)
	}
	return k, nil
}

// EncumbranceStatus is the lifecycle of an encumbrance record.
type EncumbranceStatus string

const (
	EncumbranceActive   EncumbranceStatus = "ACTIVE"
	EncumbranceReleased EncumbranceStatus = "RELEASED"
)
