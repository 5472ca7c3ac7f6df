package dashboard

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/cobranca/backend/internal/domain/anticipation"
	"github.com/cobranca/backend/internal/domain/receivable"
	"github.com/cobranca/backend/internal/infrastructure/telemetry"
)

// AnticipationService registers anticipation events and rebuilds the
// reconciliation index the dashboards overlay onto invoices.
type AnticipationService struct {
	store   anticipation.Store
	version *DataVersion
	logger  *zap.Logger
	now     func() time.Time
}

// AnticipationOption configures an AnticipationService
type AnticipationOption func(*AnticipationService)

// RegisterWithDataVersion makes every successful registration bump the
// shared generation counter, invalidating cached dashboard views.
func RegisterWithDataVersion(v *DataVersion) AnticipationOption {
	return func(s *AnticipationService) { s.version = v }
}

// NewAnticipationService creates an AnticipationService
func NewAnticipationService(store anticipation.Store, logger *zap.Logger, opts ...AnticipationOption) *AnticipationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &AnticipationService{store: store, logger: logger, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Register marks the selected invoices as anticipated at the given bank.
// Re-registering an invoice under another bank reassigns it; the upsert
// conflicts on the composite key so no duplicate row appears.
func (s *AnticipationService) Register(ctx context.Context, invoices []receivable.InvoiceRecord, banco, registradoPor string) ([]anticipation.Event, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "anticipation", "register",
		telemetry.WithAttribute(telemetry.SpanAttrBank, banco),
		telemetry.WithAttribute(telemetry.SpanAttrBatchSize, len(invoices)),
	)
	defer span.End()

	events, err := anticipation.NewEvents(invoices, strings.TrimSpace(banco), registradoPor, s.now())
	if err != nil {
		return nil, err
	}
	if err := s.store.Upsert(ctx, events); err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	s.version.Bump()
	s.logger.Info("anticipations registered",
		zap.String("banco", banco),
		zap.Int("count", len(events)),
		zap.String("registrado_por", registradoPor))
	return events, nil
}

// List returns every registered anticipation event, ordered by the store
func (s *AnticipationService) List(ctx context.Context) ([]anticipation.Event, error) {
	return s.store.ListAll(ctx)
}

// Index rebuilds the reconciliation lookup from every registered event
func (s *AnticipationService) Index(ctx context.Context) (*anticipation.Reconciler, error) {
	events, err := s.store.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	return anticipation.NewReconciler(events), nil
}
