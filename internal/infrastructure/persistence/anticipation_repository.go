package persistence

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/cobranca/backend/internal/domain/anticipation"
	"github.com/cobranca/backend/internal/domain/shared"
	"github.com/cobranca/backend/internal/infrastructure/persistence/models"
)

// GormAnticipationStore implements anticipation.Store using GORM
type GormAnticipationStore struct {
	db *gorm.DB
}

// NewGormAnticipationStore creates a new GormAnticipationStore
func NewGormAnticipationStore(db *gorm.DB) *GormAnticipationStore {
	return &GormAnticipationStore{db: db}
}

// Upsert writes the events with the composite invoice key as conflict
// target, so registering an already-anticipated invoice under another bank
// reassigns the bank instead of inserting a duplicate.
func (s *GormAnticipationStore) Upsert(ctx context.Context, events []anticipation.Event) error {
	if len(events) == 0 {
		return nil
	}

	rows := make([]*models.AnticipationModel, len(events))
	for i, e := range events {
		rows[i] = models.AnticipationModelFromDomain(e)
	}

	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{
			{Name: "codigo_cliente"},
			{Name: "numero_fatura"},
			{Name: "parcela"},
		},
		DoUpdates: clause.AssignmentColumns([]string{
			"banco", "valor", "data_vencimento", "registrado_por", "registrado_em",
		}),
	}).Create(&rows).Error
	if err != nil {
		return shared.NewPersistenceError("upsert anticipations", err)
	}
	return nil
}

// ListAll returns every registered anticipation event
func (s *GormAnticipationStore) ListAll(ctx context.Context) ([]anticipation.Event, error) {
	var rows []models.AnticipationModel
	if err := s.db.WithContext(ctx).
		Order("codigo_cliente ASC, numero_fatura ASC, parcela ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}

	events := make([]anticipation.Event, len(rows))
	for i := range rows {
		events[i] = rows[i].ToDomain()
	}
	return events, nil
}

// Ensure GormAnticipationStore implements anticipation.Store
var _ anticipation.Store = (*GormAnticipationStore)(nil)
