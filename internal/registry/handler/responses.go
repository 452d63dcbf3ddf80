package handler

import (
	"time"

	"bhoomi/internal/audit"
	"bhoomi/internal/registry/models"
)

// ExistsResponse answers the existence probes.
type ExistsResponse struct {
	Exists bool `json:"exists"`
}

// UnitListResponse wraps the units-by-parcel query.
type UnitListResponse struct {
	Units []*models.Unit `json:"units"`
}

// AuditEntryResponse is the wire shape of one audit trail entry.
type AuditEntryResponse struct {
	ID        string    `json:"id"`
	Timestamp time.Time `json:"timestamp"`
	ActorID   string    `json:"actorId"`
	Role      string    `json:"role"`
	Action    string    `json:"action"`
	RecordID  string    `json:"recordId"`
	Detail    string    `json:"detail,omitempty"`
}

// AuditTrailResponse wraps the per-record audit trail.
type AuditTrailResponse struct {
	Entries []AuditEntryResponse `json:"entries"`
}

// FromAuditEntries converts domain audit entries to the wire shape.
func FromAuditEntries(entries []audit.Entry) AuditTrailResponse {
	out := AuditTrailResponse{Entries: make([]AuditEntryResponse, 0, len(entries))}
	for _, e := range entries {
		out.Entries = append(out.Entries, AuditEntryResponse{
			ID:        e.ID,
			Timestamp: e.Timestamp,
			ActorID:   e.ActorID,
			Role:      e.Role,
			Action:    e.Action,
			RecordID:  e.RecordID,
			Detail:    e.Detail,
		})
	}
	return out
}
