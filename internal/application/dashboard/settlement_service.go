package dashboard

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/cobranca/backend/internal/domain/receivable"
	"github.com/cobranca/backend/internal/domain/shared"
	"github.com/cobranca/backend/internal/infrastructure/telemetry"
)

// WriteOffRequest asks the upstream system to settle one invoice
type WriteOffRequest struct {
	Key       receivable.CompositeKey `json:"key"`
	Valor     decimal.Decimal         `json:"valor"`
	DataBaixa time.Time               `json:"data_baixa"`
	Motivo    string                  `json:"motivo"`
}

// WriteOffResult is the per-invoice outcome of a batch submission
type WriteOffResult struct {
	Key   receivable.CompositeKey `json:"key"`
	OK    bool                    `json:"ok"`
	Error string                  `json:"error,omitempty"`
}

// BatchOutcome summarizes a write-off batch. Items fail independently; one
// rejected invoice never voids the rest of the batch.
type BatchOutcome struct {
	Succeeded int              `json:"succeeded"`
	Failed    int              `json:"failed"`
	Results   []WriteOffResult `json:"results"`
}

// SettlementSubmitter is the upstream write-off endpoint
type SettlementSubmitter interface {
	SubmitWriteOff(ctx context.Context, req WriteOffRequest) error
}

// submitConcurrency bounds in-flight write-off calls per batch
const submitConcurrency = 4

// SettlementService submits write-off batches item by item
type SettlementService struct {
	submitter SettlementSubmitter
	version   *DataVersion
	logger    *zap.Logger
}

// SettlementOption configures a SettlementService
type SettlementOption func(*SettlementService)

// SubmitWithDataVersion makes every batch with at least one settled item
// bump the shared generation counter, invalidating cached dashboard views.
func SubmitWithDataVersion(v *DataVersion) SettlementOption {
	return func(s *SettlementService) { s.version = v }
}

// NewSettlementService creates a SettlementService
func NewSettlementService(submitter SettlementSubmitter, logger *zap.Logger, opts ...SettlementOption) *SettlementService {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &SettlementService{submitter: submitter, logger: logger}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Submit sends every requested write-off upstream and reports per-item
// results in input order. The batch itself never errors once validated;
// callers inspect the outcome for partial failure.
func (s *SettlementService) Submit(ctx context.Context, reqs []WriteOffRequest) (*BatchOutcome, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "settlement", "submit",
		telemetry.WithAttribute(telemetry.SpanAttrBatchSize, len(reqs)),
	)
	defer span.End()

	if len(reqs) == 0 {
		return nil, shared.NewValidationError("at least one invoice must be selected for write-off")
	}

	results := make([]WriteOffResult, len(reqs))

	var g errgroup.Group
	g.SetLimit(submitConcurrency)
	for i, req := range reqs {
		g.Go(func() error {
			if err := s.submitter.SubmitWriteOff(ctx, req); err != nil {
				s.logger.Warn("write-off rejected upstream",
					zap.String("key", req.Key.String()),
					zap.Error(err))
				results[i] = WriteOffResult{Key: req.Key, OK: false, Error: err.Error()}
				return nil
			}
			results[i] = WriteOffResult{Key: req.Key, OK: true}
			return nil
		})
	}
	_ = g.Wait()

	outcome := &BatchOutcome{Results: results}
	for _, r := range results {
		if r.OK {
			outcome.Succeeded++
		} else {
			outcome.Failed++
		}
	}
	if outcome.Succeeded > 0 {
		s.version.Bump()
	}
	return outcome, nil
}
