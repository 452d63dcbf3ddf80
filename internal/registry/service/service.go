// Package service implements the title state machine: the per-operation
// state-transition logic for parcels, units, disputes, encumbrances, and
// transfer workflows. Each operation runs as one atomic ledger transaction;
// every precondition violation aborts before any write is issued.
package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"bhoomi/internal/audit"
	"bhoomi/internal/notify"
	"bhoomi/internal/registry/ledger"
	"bhoomi/internal/registry/metrics"
	"bhoomi/internal/registry/models"
	dErrors "bhoomi/pkg/domain-errors"
	"bhoomi/pkg/platform/sentinel"
	"bhoomi/pkg/requestcontext"
)

var tracer = otel.Tracer("bhoomi/registry")

// UnfreezePolicy decides when resolving the last dispute unfreezes an asset.
// The two historical code paths disagreed (one checked disputes only, the
// other also required no encumbrances), so the rule is an explicit
// deployment decision rather than an accident of which path ran.
type UnfreezePolicy string

const (
	// UnfreezeStrict reverts to ACTIVE only when both disputes and
	// encumbrances are empty.
	UnfreezeStrict UnfreezePolicy = "strict"
	// UnfreezeDisputeOnly reverts to ACTIVE when disputes are empty,
	// regardless of remaining encumbrances.
	UnfreezeDisputeOnly UnfreezePolicy = "dispute_only"
)

// ParseUnfreezePolicy validates a configured policy value.
func ParseUnfreezePolicy(s string) (UnfreezePolicy, error) {
	switch UnfreezePolicy(s) {
	case UnfreezeStrict, UnfreezeDisputeOnly:
		return UnfreezePolicy(s), nil
	}
	return "", dErrors.Newf(dErrors.CodeValidation, "unknown unfreeze policy %q", s)
}

// Config carries the deployment decisions the service needs.
type Config struct {
	// RegistrarRole is the organizational claim required for land-authority
	// operations.
	RegistrarRole string
	// UnfreezePolicy governs dispute resolution, see UnfreezePolicy.
	UnfreezePolicy UnfreezePolicy
}

// Service is the title registry. All five components (parcels, units,
// disputes, encumbrances, transfers) share one ledger and one rule set over
// the common titled-asset shape.
type Service struct {
	store   ledger.Store
	cache   *ledger.Cache
	events  notify.Emitter
	audit   *audit.Publisher
	metrics *metrics.Metrics
	logger  *slog.Logger
	cfg     Config
}

// Option configures optional service collaborators.
type Option func(*Service)

// WithCache attaches a read-through cache for point queries.
func WithCache(cache *ledger.Cache) Option {
	return func(s *Service) { s.cache = cache }
}

// WithAudit attaches the privileged-action audit trail.
func WithAudit(publisher *audit.Publisher) Option {
	return func(s *Service) { s.audit = publisher }
}

// WithMetrics attaches Prometheus metrics.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

// New constructs the registry service.
func New(store ledger.Store, events notify.Emitter, logger *slog.Logger, cfg Config, opts ...Option) *Service {
	if cfg.UnfreezePolicy == "" {
		cfg.UnfreezePolicy = UnfreezeStrict
	}
	s := &Service{
		store:  store,
		events: events,
		logger: logger,
		cfg:    cfg,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// requireCaller returns the authenticated caller or Unauthorized.
func (s *Service) requireCaller(ctx context.Context) (requestcontext.Identity, error) {
	caller := requestcontext.Caller(ctx)
	if caller.CallerID == "" {
		return requestcontext.Identity{}, dErrors.New(dErrors.CodeUnauthorized, "authentication required")
	}
	return caller, nil
}

// requireRegistrar returns the caller if it holds the land-authority role.
func (s *Service) requireRegistrar(ctx context.Context) (requestcontext.Identity, error) {
	caller, err := s.requireCaller(ctx)
	if err != nil {
		return requestcontext.Identity{}, err
	}
	if caller.Role != s.cfg.RegistrarRole {
		return requestcontext.Identity{}, dErrors.New(dErrors.CodeUnauthorized, "only the land authority can perform this operation")
	}
	return caller, nil
}

// getAsset loads the titled asset stored under id, whichever variant it is.
func getAsset(ctx context.Context, tx ledger.ReadTx, id string) (models.TitledAsset, error) {
	doc, err := tx.Get(ctx, id)
	if errors.Is(err, sentinel.ErrNotFound) {
		return nil, dErrors.Newf(dErrors.CodeNotFound, "asset %s does not exist", id)
	}
	if err != nil {
		return nil, dErrors.Wrap(dErrors.CodeInternal, "read asset", err)
	}
	switch models.DocType(doc.DocType) {
	case models.DocTypeParcel:
		var p models.Parcel
		if err := doc.Decode(&p); err != nil {
			return nil, dErrors.Wrap(dErrors.CodeInternal, "decode parcel", err)
		}
		return &p, nil
	case models.DocTypeUnit:
		var u models.Unit
		if err := doc.Decode(&u); err != nil {
			return nil, dErrors.Wrap(dErrors.CodeInternal, "decode unit", err)
		}
		return &u, nil
	default:
		return nil, dErrors.Newf(dErrors.CodeValidation, "record %s is not a titled asset", id)
	}
}

// putDoc encodes a record into its ledger envelope and buffers the write.
func putDoc(tx ledger.Tx, key string, docType models.DocType, v any) error {
	doc, err := ledger.NewDocument(key, string(docType), v)
	if err != nil {
		return dErrors.Wrap(dErrors.CodeInternal, "encode record", err)
	}
	tx.Put(doc)
	return nil
}

// maybeUnfreeze applies the configured unfreeze rule after a dispute
// resolution. Only FROZEN assets are touched: RESTRICTED and GOVERNMENT
// designations survive resolution.
func (s *Service) maybeUnfreeze(core *models.AssetCore) {
	if core.Status != models.StatusFrozen {
		return
	}
	switch s.cfg.UnfreezePolicy {
	case UnfreezeDisputeOnly:
		if len(core.Disputes) == 0 {
			core.Status = models.StatusActive
		}
	default:
		if core.Unfrozen() {
			core.Status = models.StatusActive
		}
	}
}

// invalidate drops cached entries for the touched keys after a committed
// write. Best-effort: on failure a stale entry survives at most the TTL.
func (s *Service) invalidate(ctx context.Context, keys ...string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx, keys...); err != nil {
		s.logger.WarnContext(ctx, "cache invalidation failed", "error", err)
	}
}

// record writes one audit entry for a privileged action. Best-effort with an
// error log: the ledger commit is the source of truth, the trail is the
// explanation.
func (s *Service) record(ctx context.Context, caller requestcontext.Identity, action, recordID, detail string) {
	if s.audit == nil {
		return
	}
	entry := audit.Entry{
		Timestamp: requestcontext.Now(ctx),
		ActorID:   caller.CallerID,
		Role:      caller.Role,
		Action:    action,
		RecordID:  recordID,
		Detail:    detail,
	}
	if err := s.audit.Emit(ctx, entry); err != nil {
		s.logger.ErrorContext(ctx, "audit append failed",
			"action", action,
			"record_id", recordID,
			"error", err,
		)
	}
}

// startOp opens a span and a latency observation for one operation.
func (s *Service) startOp(ctx context.Context, op, recordID string) (context.Context, func(err error)) {
	start := time.Now()
	ctx, span := tracer.Start(ctx, "registry."+op,
		trace.WithAttributes(attribute.String("record.id", recordID)),
	)
	return ctx, func(err error) {
		if err != nil {
			span.RecordError(err)
			s.metrics.IncError(op, string(dErrors.CodeOf(err)))
		}
		s.metrics.ObserveOperation(op, start)
		span.End()
	}
}

// translateStoreErr maps ledger sentinels that escape a transaction into the
// domain taxonomy.
func translateStoreErr(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, sentinel.ErrConflict):
		return dErrors.Wrap(dErrors.CodeConflict, "concurrent update rejected, resubmit the operation", err)
	case errors.Is(err, sentinel.ErrAlreadyExists):
		return dErrors.Wrap(dErrors.CodeConflict, "concurrent create rejected, resubmit the operation", err)
	default:
		return err
	}
}
