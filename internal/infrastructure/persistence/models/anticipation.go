package models

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/cobranca/backend/internal/domain/anticipation"
	"github.com/cobranca/backend/internal/domain/receivable"
)

// AnticipationModel is the persistence model for one anticipation event.
// The composite invoice key is the conflict target: re-registering the same
// invoice under another bank updates the row in place.
type AnticipationModel struct {
	CodigoCliente  string          `gorm:"type:varchar(30);primaryKey"`
	NumeroFatura   string          `gorm:"type:varchar(40);primaryKey"`
	Parcela        string          `gorm:"type:varchar(10);primaryKey"`
	Banco          string          `gorm:"type:varchar(60);not null;index"`
	Valor          decimal.Decimal `gorm:"type:decimal(18,2);not null"`
	DataVencimento *time.Time      `gorm:"index"`
	RegistradoPor  string          `gorm:"type:varchar(100);not null"`
	RegistradoEm   time.Time       `gorm:"not null"`
}

// TableName returns the table name for GORM
func (AnticipationModel) TableName() string {
	return "anticipations"
}

// ToDomain converts the persistence model to a domain Event
func (m *AnticipationModel) ToDomain() anticipation.Event {
	return anticipation.Event{
		Key: receivable.CompositeKey{
			Cliente: m.CodigoCliente,
			Fatura:  m.NumeroFatura,
			Parcela: m.Parcela,
		},
		Banco:          m.Banco,
		Valor:          m.Valor,
		DataVencimento: m.DataVencimento,
		RegistradoPor:  m.RegistradoPor,
		RegistradoEm:   m.RegistradoEm,
	}
}

// AnticipationModelFromDomain creates a persistence model from a domain Event
func AnticipationModelFromDomain(e anticipation.Event) *AnticipationModel {
	return &AnticipationModel{
		CodigoCliente:  e.Key.Cliente,
		NumeroFatura:   e.Key.Fatura,
		Parcela:        e.Key.Parcela,
		Banco:          e.Banco,
		Valor:          e.Valor,
		DataVencimento: e.DataVencimento,
		RegistradoPor:  e.RegistradoPor,
		RegistradoEm:   e.RegistradoEm,
	}
}
