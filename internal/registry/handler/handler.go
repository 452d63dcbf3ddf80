// Package handler wires the registry service to its HTTP surface. Handlers
// decode and validate wire input, delegate every decision to the service,
// and translate domain errors through the shared envelope.
package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"bhoomi/internal/audit"
	"bhoomi/internal/registry/models"
	"bhoomi/internal/registry/service"
	"bhoomi/pkg/platform/httputil"
)

// Service is the registry operations surface the handlers depend on.
type Service interface {
	CreateParcel(ctx context.Context, in service.CreateParcelInput) (*models.Parcel, error)
	QueryParcel(ctx context.Context, id string) (*models.Parcel, error)
	ParcelExists(ctx context.Context, id string) (bool, error)
	PartitionLand(ctx context.Context, parentID string, children []service.ChildParcel) (*models.Parcel, error)
	MergeParcels(ctx context.Context, in service.MergeInput) (*models.Parcel, error)
	OverrideStatus(ctx context.Context, id string, newStatus models.AssetStatus, reason string) (models.TitledAsset, error)

	CreateUnit(ctx context.Context, in service.CreateUnitInput) (*models.Unit, error)
	QueryUnit(ctx context.Context, id string) (*models.Unit, error)
	UnitExists(ctx context.Context, id string) (bool, error)
	QueryUnitsByParcel(ctx context.Context, parentParcelID string) ([]*models.Unit, error)

	RaiseDispute(ctx context.Context, disputeID, assetID, reason string) (*models.Dispute, error)
	FlagDispute(ctx context.Context, disputeID, assetID, reason string) (*models.Dispute, error)
	ResolveDispute(ctx context.Context, disputeID string) (*models.Dispute, error)
	ResolveDisputeWithOrder(ctx context.Context, disputeID, courtOrderHash string) (*models.Dispute, error)
	QueryDispute(ctx context.Context, id string) (*models.Dispute, error)

	AddEncumbrance(ctx context.Context, encID, assetID string, kind models.EncumbranceKind, docHash string) (*models.Encumbrance, error)
	ReleaseEncumbrance(ctx context.Context, encID string) (*models.Encumbrance, error)
	QueryEncumbrance(ctx context.Context, id string) (*models.Encumbrance, error)

	InitiateTransfer(ctx context.Context, requestID, assetID string, newOwners []models.OwnershipRecord, supportingDocs []string) (*models.TransferRequest, error)
	SubmitInheritanceRequest(ctx context.Context, requestID, assetID string, heirs []models.OwnershipRecord, deathCertHash string) (*models.TransferRequest, error)
	ApproveTransfer(ctx context.Context, requestID string) (*models.TransferRequest, error)
	RejectTransfer(ctx context.Context, requestID, reason string) (*models.TransferRequest, error)
	TransferAsset(ctx context.Context, assetID, newOwnerID, docHash string) (models.TitledAsset, error)
	QueryTransferRequest(ctx context.Context, id string) (*models.TransferRequest, error)
}

// AuditReader exposes the per-record audit trail.
type AuditReader interface {
	List(ctx context.Context, recordID string) ([]audit.Entry, error)
}

// Handler serves the registry endpoints.
type Handler struct {
	service Service
	audit   AuditReader
	logger  *slog.Logger
}

// New constructs a registry handler. audit may be nil when no trail store is
// configured; the trail endpoint then answers 404.
func New(service Service, audit AuditReader, logger *slog.Logger) *Handler {
	return &Handler{
		service: service,
		audit:   audit,
		logger:  logger,
	}
}

// Register mounts registry endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Route("/parcels", func(r chi.Router) {
		r.Post("/", h.handleCreateParcel)
		r.Post("/merge", h.handleMergeParcels)
		r.Get("/{id}", h.handleQueryParcel)
		r.Get("/{id}/exists", h.handleParcelExists)
		r.Get("/{id}/units", h.handleUnitsByParcel)
		r.Post("/{id}/partition", h.handlePartitionLand)
	})
	r.Route("/units", func(r chi.Router) {
		r.Post("/", h.handleCreateUnit)
		r.Get("/{id}", h.handleQueryUnit)
		r.Get("/{id}/exists", h.handleUnitExists)
	})
	r.Route("/disputes", func(r chi.Router) {
		r.Post("/", h.handleRaiseDispute)
		r.Post("/flag", h.handleFlagDispute)
		r.Get("/{id}", h.handleQueryDispute)
		r.Post("/{id}/resolve", h.handleResolveDispute)
	})
	r.Route("/encumbrances", func(r chi.Router) {
		r.Post("/", h.handleAddEncumbrance)
		r.Get("/{id}", h.handleQueryEncumbrance)
		r.Post("/{id}/release", h.handleReleaseEncumbrance)
	})
	r.Route("/transfers", func(r chi.Router) {
		r.Post("/", h.handleInitiateTransfer)
		r.Post("/inheritance", h.handleSubmitInheritance)
		r.Get("/{id}", h.handleQueryTransfer)
		r.Post("/{id}/approve", h.handleApproveTransfer)
		r.Post("/{id}/reject", h.handleRejectTransfer)
	})
	r.Route("/assets/{id}", func(r chi.Router) {
		r.Post("/status", h.handleOverrideStatus)
		r.Post("/transfer", h.handleDirectTransfer)
		r.Get("/audit", h.handleAuditTrail)
	})
}

func (h *Handler) handleCreateParcel(w http.ResponseWriter, r *http.Request) {
	req, ok := httputil.DecodeAndPrepare[CreateParcelRequest](w, r, h.logger)
	if !ok {
		return
	}
	parcel, err := h.service.CreateParcel(r.Context(), service.CreateParcelInput{
		ID:       req.ID,
		Area:     req.Area,
		Location: req.Location,
		OwnerID:  req.OwnerID,
		DocHash:  req.DocHash,
	})
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, parcel)
}

func (h *Handler) handleQueryParcel(w http.ResponseWriter, r *http.Request) {
	parcel, err := h.service.QueryParcel(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, parcel)
}

func (h *Handler) handleParcelExists(w http.ResponseWriter, r *http.Request) {
	exists, err := h.service.ParcelExists(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, ExistsResponse{Exists: exists})
}

func (h *Handler) handlePartitionLand(w http.ResponseWriter, r *http.Request) {
	req, ok := httputil.DecodeAndPrepare[PartitionRequest](w, r, h.logger)
	if !ok {
		return
	}
	parent, err := h.service.PartitionLand(r.Context(), chi.URLParam(r, "id"), req.Parsed())
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, parent)
}

func (h *Handler) handleMergeParcels(w http.ResponseWriter, r *http.Request) {
	req, ok := httputil.DecodeAndPrepare[MergeRequest](w, r, h.logger)
	if !ok {
		return
	}
	merged, err := h.service.MergeParcels(r.Context(), service.MergeInput{
		MergedID:  req.MergedID,
		SourceIDs: req.SourceIDs,
		Location:  req.Location,
		DocHash:   req.DocHash,
	})
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, merged)
}

func (h *Handler) handleOverrideStatus(w http.ResponseWriter, r *http.Request) {
	req, ok := httputil.DecodeAndPrepare[OverrideStatusRequest](w, r, h.logger)
	if !ok {
		return
	}
	asset, err := h.service.OverrideStatus(r.Context(), chi.URLParam(r, "id"), req.ParsedStatus(), req.Reason)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, asset)
}

func (h *Handler) handleCreateUnit(w http.ResponseWriter, r *http.Request) {
	req, ok := httputil.DecodeAndPrepare[CreateUnitRequest](w, r, h.logger)
	if !ok {
		return
	}
	unit, err := h.service.CreateUnit(r.Context(), service.CreateUnitInput{
		ID:             req.ID,
		ParentParcelID: req.ParentParcelID,
		UDS:            req.UDS,
		OwnerID:        req.OwnerID,
		DocHash:        req.DocHash,
	})
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, unit)
}

func (h *Handler) handleQueryUnit(w http.ResponseWriter, r *http.Request) {
	unit, err := h.service.QueryUnit(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, unit)
}

func (h *Handler) handleUnitExists(w http.ResponseWriter, r *http.Request) {
	exists, err := h.service.UnitExists(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, ExistsResponse{Exists: exists})
}

func (h *Handler) handleUnitsByParcel(w http.ResponseWriter, r *http.Request) {
	units, err := h.service.QueryUnitsByParcel(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, UnitListResponse{Units: units})
}

func (h *Handler) handleRaiseDispute(w http.ResponseWriter, r *http.Request) {
	req, ok := httputil.DecodeAndPrepare[DisputeRequest](w, r, h.logger)
	if !ok {
		return
	}
	dispute, err := h.service.RaiseDispute(r.Context(), req.ID, req.AssetID, req.Reason)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, dispute)
}

func (h *Handler) handleFlagDispute(w http.ResponseWriter, r *http.Request) {
	req, ok := httputil.DecodeAndPrepare[DisputeRequest](w, r, h.logger)
	if !ok {
		return
	}
	dispute, err := h.service.FlagDispute(r.Context(), req.ID, req.AssetID, req.Reason)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, dispute)
}

func (h *Handler) handleQueryDispute(w http.ResponseWriter, r *http.Request) {
	dispute, err := h.service.QueryDispute(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, dispute)
}

func (h *Handler) handleResolveDispute(w http.ResponseWriter, r *http.Request) {
	req, ok := httputil.DecodeAndPrepare[ResolveDisputeRequest](w, r, h.logger)
	if !ok {
		return
	}
	id := chi.URLParam(r, "id")
	var (
		dispute *models.Dispute
		err     error
	)
	if req.CourtOrderHash != "" {
		dispute, err = h.service.ResolveDisputeWithOrder(r.Context(), id, req.CourtOrderHash)
	} else {
		dispute, err = h.service.ResolveDispute(r.Context(), id)
	}
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, dispute)
}

func (h *Handler) handleAddEncumbrance(w http.ResponseWriter, r *http.Request) {
	req, ok := httputil.DecodeAndPrepare[AddEncumbranceRequest](w, r, h.logger)
	if !ok {
		return
	}
	enc, err := h.service.AddEncumbrance(r.Context(), req.ID, req.AssetID, req.ParsedKind(), req.DocHash)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, enc)
}

func (h *Handler) handleQueryEncumbrance(w http.ResponseWriter, r *http.Request) {
	enc, err := h.service.QueryEncumbrance(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, enc)
}

func (h *Handler) handleReleaseEncumbrance(w http.ResponseWriter, r *http.Request) {
	enc, err := h.service.ReleaseEncumbrance(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, enc)
}

func (h *Handler) handleInitiateTransfer(w http.ResponseWriter, r *http.Request) {
	req, ok := httputil.DecodeAndPrepare[InitiateTransferRequest](w, r, h.logger)
	if !ok {
		return
	}
	request, err := h.service.InitiateTransfer(r.Context(), req.ID, req.AssetID, req.ParsedOwners(), req.SupportingDocs)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, request)
}

func (h *Handler) handleSubmitInheritance(w http.ResponseWriter, r *http.Request) {
	req, ok := httputil.DecodeAndPrepare[InheritanceRequest](w, r, h.logger)
	if !ok {
		return
	}
	request, err := h.service.SubmitInheritanceRequest(r.Context(), req.ID, req.AssetID, req.ParsedHeirs(), req.DeathCertHash)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, request)
}

func (h *Handler) handleQueryTransfer(w http.ResponseWriter, r *http.Request) {
	request, err := h.service.QueryTransferRequest(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, request)
}

func (h *Handler) handleApproveTransfer(w http.ResponseWriter, r *http.Request) {
	request, err := h.service.ApproveTransfer(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, request)
}

func (h *Handler) handleRejectTransfer(w http.ResponseWriter, r *http.Request) {
	req, ok := httputil.DecodeAndPrepare[RejectTransferRequest](w, r, h.logger)
	if !ok {
		return
	}
	request, err := h.service.RejectTransfer(r.Context(), chi.URLParam(r, "id"), req.Reason)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, request)
}

func (h *Handler) handleDirectTransfer(w http.ResponseWriter, r *http.Request) {
	req, ok := httputil.DecodeAndPrepare[DirectTransferRequest](w, r, h.logger)
	if !ok {
		return
	}
	asset, err := h.service.TransferAsset(r.Context(), chi.URLParam(r, "id"), req.NewOwnerID, req.DocHash)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, asset)
}

func (h *Handler) handleAuditTrail(w http.ResponseWriter, r *http.Request) {
	if h.audit == nil {
		http.NotFound(w, r)
		return
	}
	entries, err := h.audit.List(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, FromAuditEntries(entries))
}
