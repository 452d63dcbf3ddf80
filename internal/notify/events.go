// Package notify carries the fire-and-forget domain events consumed by the
// external anchoring collaborator. Delivery is best-effort: a lost event
// never fails or rolls back the registry operation that produced it.
package notify

import "context"

// Event is a domain notification. Key returns the asset ID the event is
// about, which doubles as the partition key on the Kafka sink.
type Event interface {
	Name() string
	Key() string
}

// Emitter is the narrow interface services emit through.
//
//go:generate mockgen -destination=mocks/emitter_mock.go -package=mocks bhoomi/internal/notify Emitter
type Emitter interface {
	Send(ctx context.Context, event Event)
}

// DisputeRaised is emitted when a dispute freezes an asset.
type DisputeRaised struct {
	AssetID   string `json:"assetId"`
	DisputeID string `json:"disputeId"`
	Reason    string `json:"reason"`
}

func (DisputeRaised) Name() string  { return "DisputeRaised" }
func (e DisputeRaised) Key() string { return e.AssetID }

// DisputeResolved is emitted when a dispute is resolved, whether or not the
// asset unfroze.
type DisputeResolved struct {
	AssetID   string `json:"assetId"`
	DisputeID string `json:"disputeId"`
}

func (DisputeResolved) Name() string  { return "DisputeResolved" }
func (e DisputeResolved) Key() string { return e.AssetID }

// AssetTransferred is emitted on every committed ownership change so the
// anchoring collaborator can publish the content hash to the public chain.
type AssetTransferred struct {
	AssetID    string `json:"assetId"`
	NewOwnerID string `json:"newOwnerId"`
	Timestamp  int64  `json:"timestamp"`
	DocHash    string `json:"docHash"`
}

func (AssetTransferred) Name() string  { return "AssetTransferred" }
func (e AssetTransferred) Key() string { return e.AssetID }

// TransferApproved is emitted when a registrar approves a pending request.
type TransferApproved struct {
	RequestID string `json:"requestId"`
	AssetID   string `json:"assetId"`
}

func (TransferApproved) Name() string  { return "TransferApproved" }
func (e TransferApproved) Key() string { return e.AssetID }
