package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "bhoomi/pkg/domain-errors"
)

func TestParseAssetStatus(t *testing.T) {
	t.Parallel()

	for _, valid := range []string{"ACTIVE", "FROZEN", "RESTRICTED", "GOVERNMENT", "PARTITIONED", "MERGED"} {
		st, err := ParseAssetStatus(valid)
		require.NoError(t, err, valid)
		assert.Equal(t, valid, st.String())
	}

	for _, invalid := range []string{"", "active", "DELETED", "frozen "} {
		_, err := ParseAssetStatus(invalid)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation), "%q should be rejected", invalid)
	}
}

func TestAssetStatusTerminal(t *testing.T) {
	t.Parallel()

	assert.True(t, StatusPartitioned.IsTerminal())
	assert.True(t, StatusMerged.IsTerminal())
	assert.False(t, StatusActive.IsTerminal())
	assert.False(t, StatusFrozen.IsTerminal())

	assert.False(t, StatusPartitioned.Overridable())
	assert.False(t, StatusMerged.Overridable())
	assert.True(t, StatusGovernment.Overridable())
	assert.False(t, AssetStatus("BOGUS").Overridable())
}

func TestValidateOwners(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		owners  []OwnershipRecord
		wantErr bool
	}{
		{
			name:   "single full owner",
			owners: SoleOwner("u1"),
		},
		{
			name: "joint split summing to 100",
			owners: []OwnershipRecord{
				{OwnerID: "a", OwnershipType: OwnershipJoint, SharePercentage: 60},
				{OwnerID: "b", OwnershipType: OwnershipJoint, SharePercentage: 40},
			},
		},
		{
			name: "three heirs with rounding",
			owners: []OwnershipRecord{
				{OwnerID: "a", OwnershipType: OwnershipInherited, SharePercentage: 33.34},
				{OwnerID: "b", OwnershipType: OwnershipInherited, SharePercentage: 33.33},
				{OwnerID: "c", OwnershipType: OwnershipInherited, SharePercentage: 33.33},
			},
		},
		{
			name:    "empty list",
			owners:  nil,
			wantErr: true,
		},
		{
			name: "sum below 100",
			owners: []OwnershipRecord{
				{OwnerID: "a", OwnershipType: OwnershipJoint, SharePercentage: 50},
			},
			wantErr: true,
		},
		{
			name: "share above 100",
			owners: []OwnershipRecord{
				{OwnerID: "a", OwnershipType: OwnershipFull, SharePercentage: 150},
			},
			wantErr: true,
		},
		{
			name: "zero share",
			owners: []OwnershipRecord{
				{OwnerID: "a", OwnershipType: OwnershipJoint, SharePercentage: 0},
				{OwnerID: "b", OwnershipType: OwnershipJoint, SharePercentage: 100},
			},
			wantErr: true,
		},
		{
			name: "missing owner id",
			owners: []OwnershipRecord{
				{OwnerID: "", OwnershipType: OwnershipFull, SharePercentage: 100},
			},
			wantErr: true,
		},
		{
			name: "unknown ownership type",
			owners: []OwnershipRecord{
				{OwnerID: "a", OwnershipType: "TIMESHARE", SharePercentage: 100},
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateOwners(tt.owners)
			if tt.wantErr {
				assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestAssetCoreFreezeBookkeeping(t *testing.T) {
	t.Parallel()

	parcel, err := NewParcel("P1", 100, "loc", "u1", "h1", 1000)
	require.NoError(t, err)
	core := parcel.Core()

	core.AttachDispute("D1", 1001)
	assert.Equal(t, StatusFrozen, core.Status)
	assert.Equal(t, []string{"D1"}, core.Disputes)
	assert.EqualValues(t, 1001, core.LastUpdated)
	assert.False(t, core.Unfrozen())

	core.AttachEncumbrance("E1", 1002)
	assert.Equal(t, []string{"E1"}, core.Encumbrances)

	core.DetachDispute("D1", 1003)
	assert.Empty(t, core.Disputes)
	assert.False(t, core.Unfrozen())
	// Detach never unfreezes on its own.
	assert.Equal(t, StatusFrozen, core.Status)

	core.DetachEncumbrance("E1", 1004)
	assert.True(t, core.Unfrozen())
}

func TestDisputeResolveIsTerminal(t *testing.T) {
	t.Parallel()

	d, err := NewDispute("D1", "P1", "boundary", 1000)
	require.NoError(t, err)

	require.NoError(t, d.Resolve("order-hash", 2000))
	assert.Equal(t, DisputeResolved, d.Status)
	assert.EqualValues(t, 2000, d.ResolvedAt)
	assert.Equal(t, "order-hash", d.CourtOrderHash)

	err = d.Resolve("", 3000)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidState))
}

func TestEncumbranceReleaseIsTerminal(t *testing.T) {
	t.Parallel()

	e, err := NewEncumbrance("E1", "P1", EncumbranceMortgage, "h", 1000)
	require.NoError(t, err)

	require.NoError(t, e.Release(2000))
	assert.Equal(t, EncumbranceReleased, e.Status)

	err = e.Release(3000)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidState))
}

func TestNewEncumbranceRejectsUnknownKind(t *testing.T) {
	t.Parallel()

	_, err := NewEncumbrance("E1", "P1", "HANDSHAKE", "h", 1000)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
}

func TestParcelWireFormat(t *testing.T) {
	t.Parallel()

	parcel, err := NewParcel("P1", 250.5, "Ward 3", "u1", "h1", 1700000000)
	require.NoError(t, err)

	raw, err := json.Marshal(parcel)
	require.NoError(t, err)

	var doc map[string]any
	require.NoError(t, json.Unmarshal(raw, &doc))
	assert.Equal(t, "parcel", doc["docType"])
	assert.Equal(t, "ACTIVE", doc["status"])
	assert.EqualValues(t, 1700000000, doc["lastUpdated"])
	assert.NotContains(t, doc, "parentParcelIds")
	assert.NotContains(t, doc, "childParcelIds")

	owners, ok := doc["owners"].([]any)
	require.True(t, ok)
	require.Len(t, owners, 1)
	owner := owners[0].(map[string]any)
	assert.Equal(t, "u1", owner["ownerId"])
	assert.Equal(t, "FULL", owner["ownershipType"])
	assert.EqualValues(t, 100, owner["sharePercentage"])
}

func TestTransferRequestValidatesOwnersUpFront(t *testing.T) {
	t.Parallel()

	_, err := NewTransferRequest("T1", "P1", "u1",
		[]OwnershipRecord{{OwnerID: "x", OwnershipType: OwnershipFull, SharePercentage: 40}},
		TransferKindTransfer, nil, 1000)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))

	req, err := NewTransferRequest("T1", "P1", "u1", SoleOwner("x"), TransferKindTransfer, nil, 1000)
	require.NoError(t, err)
	assert.Equal(t, RequestPending, req.Status)
	assert.NotNil(t, req.SupportingDocs)
}
