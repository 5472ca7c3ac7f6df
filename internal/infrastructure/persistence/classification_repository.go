package persistence

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/cobranca/backend/internal/domain/classification"
	"github.com/cobranca/backend/internal/domain/shared"
	"github.com/cobranca/backend/internal/infrastructure/persistence/models"
)

// GormClassificationStore implements classification.Store using GORM
type GormClassificationStore struct {
	db  *gorm.DB
	now func() time.Time
}

// NewGormClassificationStore creates a new GormClassificationStore
func NewGormClassificationStore(db *gorm.DB) *GormClassificationStore {
	return &GormClassificationStore{db: db, now: time.Now}
}

// UpsertAnnotation merges the patch into the client's current annotation.
// The read-modify-write runs in one transaction so concurrent partial
// updates to different fields both land.
func (s *GormClassificationStore) UpsertAnnotation(ctx context.Context, codigoCliente string, patch classification.Patch, author classification.Author) (*classification.Annotation, error) {
	if err := patch.Validate(); err != nil {
		return nil, err
	}

	var annotation *classification.Annotation
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var model models.AnnotationModel
		err := tx.First(&model, "codigo_cliente = ?", codigoCliente).Error
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			annotation = &classification.Annotation{CodigoCliente: codigoCliente}
		case err != nil:
			return err
		default:
			annotation = model.ToDomain()
		}

		annotation.Apply(patch, author, s.now())
		model.FromDomain(annotation)
		if model.CreatedAt.IsZero() {
			model.CreatedAt = annotation.UpdatedAt
		}
		if err := tx.Save(&model).Error; err != nil {
			return err
		}

		return s.appendAudit(tx, codigoCliente, classification.AuditActionUpsert, patchDetail(patch), author)
	})
	if err != nil {
		return nil, shared.NewPersistenceError("upsert annotation", err)
	}
	return annotation, nil
}

// ListAnnotations returns every client's current annotation with its
// observations attached, newest observation first.
func (s *GormClassificationStore) ListAnnotations(ctx context.Context) ([]classification.Annotation, error) {
	var annotationModels []models.AnnotationModel
	if err := s.db.WithContext(ctx).Order("codigo_cliente ASC").Find(&annotationModels).Error; err != nil {
		return nil, shared.NewPersistenceError("list annotations", err)
	}

	var observationModels []models.ObservationModel
	if err := s.db.WithContext(ctx).Order("created_at DESC").Find(&observationModels).Error; err != nil {
		return nil, shared.NewPersistenceError("list annotations", err)
	}
	byClient := make(map[string][]classification.Observation, len(annotationModels))
	for i := range observationModels {
		o := observationModels[i].ToDomain()
		byClient[o.CodigoCliente] = append(byClient[o.CodigoCliente], o)
	}

	annotations := make([]classification.Annotation, 0, len(annotationModels))
	for i := range annotationModels {
		a := annotationModels[i].ToDomain()
		a.Observations = byClient[a.CodigoCliente]
		annotations = append(annotations, *a)
	}
	return annotations, nil
}

// AppendObservation adds a free-text note to the client's annotation
func (s *GormClassificationStore) AppendObservation(ctx context.Context, codigoCliente, texto string, author classification.Author) (*classification.Observation, error) {
	obs := classification.Observation{
		ID:            uuid.New(),
		CodigoCliente: codigoCliente,
		Texto:         texto,
		AuthorID:      author.ID,
		AuthorName:    author.Name,
		CreatedAt:     s.now(),
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(models.ObservationModelFromDomain(obs)).Error; err != nil {
			return err
		}
		return s.appendAudit(tx, codigoCliente, classification.AuditActionObservationAdd, truncateDetail(texto), author)
	})
	if err != nil {
		return nil, shared.NewPersistenceError("append observation", err)
	}
	return &obs, nil
}

// DeleteObservation removes an observation after checking the ownership
// rule. Permission failures leave the store unchanged.
func (s *GormClassificationStore) DeleteObservation(ctx context.Context, observationID string, caller classification.Author) error {
	id, err := uuid.Parse(observationID)
	if err != nil {
		return shared.NewValidationError("malformed observation id %q", observationID)
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var model models.ObservationModel
		if err := tx.First(&model, "id = ?", id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return shared.ErrNotFound
			}
			return shared.NewPersistenceError("load observation", err)
		}

		obs := model.ToDomain()
		if err := obs.CanDelete(caller, s.now()); err != nil {
			return err
		}

		if err := tx.Delete(&models.ObservationModel{}, "id = ?", id).Error; err != nil {
			return shared.NewPersistenceError("delete observation", err)
		}
		return s.appendAudit(tx, obs.CodigoCliente, classification.AuditActionObservationDelete, truncateDetail(obs.Texto), caller)
	})
	if err == nil {
		return nil
	}
	// Domain rule failures pass through untouched; anything else is a
	// persistence failure.
	var domainErr *shared.DomainError
	if errors.As(err, &domainErr) {
		return err
	}
	return shared.NewPersistenceError("delete observation", err)
}

// FetchHistory returns classification writes, newest first, optionally
// scoped to one client.
func (s *GormClassificationStore) FetchHistory(ctx context.Context, codigoCliente string) ([]classification.AuditRow, error) {
	query := s.db.WithContext(ctx).Model(&models.ClassificationAuditModel{})
	if codigoCliente != "" {
		query = query.Where("codigo_cliente = ?", codigoCliente)
	}

	var auditModels []models.ClassificationAuditModel
	if err := query.Order("created_at DESC").Find(&auditModels).Error; err != nil {
		return nil, shared.NewPersistenceError("fetch history", err)
	}

	rows := make([]classification.AuditRow, len(auditModels))
	for i := range auditModels {
		rows[i] = auditModels[i].ToDomain()
	}
	return rows, nil
}

func (s *GormClassificationStore) appendAudit(tx *gorm.DB, codigoCliente, action, detail string, author classification.Author) error {
	return tx.Create(&models.ClassificationAuditModel{
		ID:            uuid.New(),
		CodigoCliente: codigoCliente,
		Action:        action,
		Detail:        detail,
		AuthorID:      author.ID,
		AuthorName:    author.Name,
		CreatedAt:     s.now(),
	}).Error
}

func patchDetail(p classification.Patch) string {
	var parts []string
	if p.Feeling != nil {
		parts = append(parts, fmt.Sprintf("feeling=%s", *p.Feeling))
	}
	if p.Status != nil {
		parts = append(parts, fmt.Sprintf("status=%s", *p.Status))
	}
	return strings.Join(parts, " ")
}

// truncateDetail caps audit detail text so bulk-pasted notes don't bloat
// the history table.
func truncateDetail(texto string) string {
	const maxDetail = 200
	runes := []rune(texto)
	if len(runes) <= maxDetail {
		return texto
	}
	return string(runes[:maxDetail]) + "..."
}

// Ensure GormClassificationStore implements classification.Store
var _ classification.Store = (*GormClassificationStore)(nil)
