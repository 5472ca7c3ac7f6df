package dashboard

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/cobranca/backend/internal/domain/classification"
	"github.com/cobranca/backend/internal/domain/shared"
	"github.com/cobranca/backend/internal/infrastructure/telemetry"
)

// ClassificationService fronts the classification store with input
// validation. Persistence-level rules (upsert conflict target, the
// observation grace window) live in the domain and the store.
type ClassificationService struct {
	store   classification.Store
	version *DataVersion
	logger  *zap.Logger
}

// ClassificationOption configures a ClassificationService
type ClassificationOption func(*ClassificationService)

// ClassifyWithDataVersion makes every successful write bump the shared
// generation counter, invalidating cached dashboard views.
func ClassifyWithDataVersion(v *DataVersion) ClassificationOption {
	return func(s *ClassificationService) { s.version = v }
}

// NewClassificationService creates a ClassificationService
func NewClassificationService(store classification.Store, logger *zap.Logger, opts ...ClassificationOption) *ClassificationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &ClassificationService{store: store, logger: logger}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Classify merges a partial feeling/status update into the client's
// annotation, creating it on first write.
func (s *ClassificationService) Classify(ctx context.Context, codigoCliente string, patch classification.Patch, author classification.Author) (*classification.Annotation, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "classification", "classify",
		telemetry.WithAttribute(telemetry.SpanAttrClientCode, codigoCliente),
	)
	defer span.End()

	codigoCliente = strings.TrimSpace(codigoCliente)
	if codigoCliente == "" {
		return nil, shared.NewValidationError("client code is required")
	}
	if err := patch.Validate(); err != nil {
		return nil, err
	}

	annotation, err := s.store.UpsertAnnotation(ctx, codigoCliente, patch, author)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	s.version.Bump()
	s.logger.Info("annotation upserted",
		zap.String("codigo_cliente", codigoCliente),
		zap.String("author", author.Name))
	return annotation, nil
}

// AddObservation appends a free-text note to the client's annotation
func (s *ClassificationService) AddObservation(ctx context.Context, codigoCliente, texto string, author classification.Author) (*classification.Observation, error) {
	codigoCliente = strings.TrimSpace(codigoCliente)
	if codigoCliente == "" {
		return nil, shared.NewValidationError("client code is required")
	}
	if strings.TrimSpace(texto) == "" {
		return nil, shared.NewValidationError("observation text must not be empty")
	}
	obs, err := s.store.AppendObservation(ctx, codigoCliente, texto, author)
	if err != nil {
		return nil, err
	}
	s.version.Bump()
	return obs, nil
}

// DeleteObservation removes an observation, subject to the ownership rule
func (s *ClassificationService) DeleteObservation(ctx context.Context, observationID string, caller classification.Author) error {
	if strings.TrimSpace(observationID) == "" {
		return shared.NewValidationError("observation id is required")
	}
	if err := s.store.DeleteObservation(ctx, observationID, caller); err != nil {
		return err
	}
	s.version.Bump()
	return nil
}

// History returns classification writes, newest first, optionally scoped to
// one client.
func (s *ClassificationService) History(ctx context.Context, codigoCliente string) ([]classification.AuditRow, error) {
	return s.store.FetchHistory(ctx, strings.TrimSpace(codigoCliente))
}
