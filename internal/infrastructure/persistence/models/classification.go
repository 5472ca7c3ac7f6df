package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/cobranca/backend/internal/domain/classification"
)

// AnnotationModel is the persistence model for a client's current
// classification. One row per client; writes are upserts on the client code.
type AnnotationModel struct {
	CodigoCliente string    `gorm:"type:varchar(30);primary_key"`
	Feeling       *string   `gorm:"type:varchar(20)"`
	Status        *string   `gorm:"type:varchar(30)"`
	UpdatedBy     string    `gorm:"type:varchar(100);not null"`
	CreatedAt     time.Time `gorm:"not null"`
	UpdatedAt     time.Time `gorm:"not null"`
}

// TableName returns the table name for GORM
func (AnnotationModel) TableName() string {
	return "client_annotations"
}

// ToDomain converts the persistence model to a domain Annotation. The
// observation list is loaded separately and attached by the repository.
func (m *AnnotationModel) ToDomain() *classification.Annotation {
	a := &classification.Annotation{
		CodigoCliente: m.CodigoCliente,
		UpdatedBy:     m.UpdatedBy,
		UpdatedAt:     m.UpdatedAt,
	}
	if m.Feeling != nil {
		f := classification.Feeling(*m.Feeling)
		a.Feeling = &f
	}
	if m.Status != nil {
		s := classification.Status(*m.Status)
		a.Status = &s
	}
	return a
}

// FromDomain populates the persistence model from a domain Annotation
func (m *AnnotationModel) FromDomain(a *classification.Annotation) {
	m.CodigoCliente = a.CodigoCliente
	m.UpdatedBy = a.UpdatedBy
	m.UpdatedAt = a.UpdatedAt
	m.Feeling = nil
	m.Status = nil
	if a.Feeling != nil {
		f := string(*a.Feeling)
		m.Feeling = &f
	}
	if a.Status != nil {
		s := string(*a.Status)
		m.Status = &s
	}
}

// ObservationModel is the persistence model for one free-text note
type ObservationModel struct {
	ID            uuid.UUID `gorm:"type:uuid;primary_key"`
	CodigoCliente string    `gorm:"type:varchar(30);not null;index"`
	Texto         string    `gorm:"type:text;not null"`
	AuthorID      uuid.UUID `gorm:"type:uuid;not null"`
	AuthorName    string    `gorm:"type:varchar(100);not null"`
	CreatedAt     time.Time `gorm:"not null;index"`
}

// TableName returns the table name for GORM
func (ObservationModel) TableName() string {
	return "client_observations"
}

// ToDomain converts the persistence model to a domain Observation
func (m *ObservationModel) ToDomain() classification.Observation {
	return classification.Observation{
		ID:            m.ID,
		CodigoCliente: m.CodigoCliente,
		Texto:         m.Texto,
		AuthorID:      m.AuthorID,
		AuthorName:    m.AuthorName,
		CreatedAt:     m.CreatedAt,
	}
}

// ObservationModelFromDomain creates a persistence model from a domain Observation
func ObservationModelFromDomain(o classification.Observation) *ObservationModel {
	return &ObservationModel{
		ID:            o.ID,
		CodigoCliente: o.CodigoCliente,
		Texto:         o.Texto,
		AuthorID:      o.AuthorID,
		AuthorName:    o.AuthorName,
		CreatedAt:     o.CreatedAt,
	}
}

// ClassificationAuditModel records one classification write for history queries
type ClassificationAuditModel struct {
	ID            uuid.UUID `gorm:"type:uuid;primary_key"`
	CodigoCliente string    `gorm:"type:varchar(30);not null;index"`
	Action        string    `gorm:"type:varchar(30);not null"`
	Detail        string    `gorm:"type:text"`
	AuthorID      uuid.UUID `gorm:"type:uuid;not null"`
	AuthorName    string    `gorm:"type:varchar(100);not null"`
	CreatedAt     time.Time `gorm:"not null;index"`
}

// TableName returns the table name for GORM
func (ClassificationAuditModel) TableName() string {
	return "classification_audit"
}

// ToDomain converts the persistence model to a domain AuditRow
func (m *ClassificationAuditModel) ToDomain() classification.AuditRow {
	return classification.AuditRow{
		ID:            m.ID,
		CodigoCliente: m.CodigoCliente,
		Action:        m.Action,
		Detail:        m.Detail,
		AuthorID:      m.AuthorID,
		AuthorName:    m.AuthorName,
		CreatedAt:     m.CreatedAt,
	}
}
