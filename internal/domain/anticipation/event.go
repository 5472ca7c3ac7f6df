package anticipation

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/cobranca/backend/internal/domain/receivable"
	"github.com/cobranca/backend/internal/domain/shared"
)

// Event records that one invoice was anticipated at a bank. The composite
// key (cliente, fatura, parcela) is the upsert conflict target: registering
// the same invoice under another bank replaces the bank assignment, it
// never duplicates the row.
type Event struct {
	Key            receivable.CompositeKey `json:"key"`
	Banco          string                  `json:"banco"`
	Valor          decimal.Decimal         `json:"valor"`
	DataVencimento *time.Time              `json:"data_vencimento"`
	RegistradoPor  string                  `json:"registrado_por"`
	RegistradoEm   time.Time               `json:"registrado_em"`
}

// NewEvents builds the upsert rows for registering a set of selected
// invoices at a chosen bank. Validation happens before any store call:
// no bank or no selection rejects immediately.
func NewEvents(invoices []receivable.InvoiceRecord, banco, registradoPor string, now time.Time) ([]Event, error) {
	if banco == "" {
		return nil, shared.NewValidationError("a bank must be chosen before registering anticipations")
	}
	if len(invoices) == 0 {
		return nil, shared.NewValidationError("at least one invoice must be selected")
	}

	events := make([]Event, 0, len(invoices))
	for i := range invoices {
		inv := &invoices[i]
		events = append(events, Event{
			Key:            inv.Key(),
			Banco:          banco,
			Valor:          inv.ValorFatura,
			DataVencimento: inv.DataVencimento,
			RegistradoPor:  registradoPor,
			RegistradoEm:   now,
		})
	}
	return events, nil
}
