// Package audit keeps an append-only trail of privileged registry
// mutations: administrative status overrides, registrar approvals and
// rejections, and registrar-initiated dispute and encumbrance actions. The
// trail is what makes the administrative override an audited exception to
// the freeze invariant instead of a silent bypass.
package audit

import "time"

// Entry is emitted from domain logic to capture one privileged action.
// Keep it transport-agnostic so stores and sinks can fan out.
type Entry struct {
	ID        string
	Timestamp time.Time
	ActorID   string
	Role      string
	Action    string
	RecordID  string
	Detail    string
}

// Actions recorded on the trail.
const (
	ActionStatusOverride     = "status_override"
	ActionTransferApproved   = "transfer_approved"
	ActionTransferRejected   = "transfer_rejected"
	ActionDisputeFlagged     = "dispute_flagged"
	ActionDisputeResolved    = "dispute_resolved"
	ActionEncumbranceAdded   = "encumbrance_added"
	ActionEncumbranceRelease = "encumbrance_released"
	ActionParcelsMerged      = "parcels_merged"
)
