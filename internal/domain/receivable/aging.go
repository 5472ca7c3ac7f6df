package receivable

import "time"

// Situacao is the delinquency bucket derived from days overdue
type Situacao string

const (
	SituacaoAtrasado     Situacao = "ATRASADO"
	SituacaoInadimplente Situacao = "INADIMPLENTE"
)

// StatusPagamento is the payment status derived from the record itself,
// independent of the delinquency bucket
type StatusPagamento string

const (
	StatusPago    StatusPagamento = "Pago"
	StatusVencido StatusPagamento = "Vencido"
	StatusAVencer StatusPagamento = "A Vencer"
)

// DateBasis selects which date drives aging and calendar filtering
type DateBasis string

const (
	BasisVencimento DateBasis = "vencimento" // due date (default)
	BasisEmissao    DateBasis = "emissao"    // issue date ("emissão" dashboards)
)

// AgingConfig parameterizes the classifier. Threshold and basis vary per
// dashboard (31 days due-date based vs. 60 days, vs. emissão) and must never
// be hard-coded.
type AgingConfig struct {
	ThresholdDays int
	Basis         DateBasis
}

// ReferenceDate returns the date the aging computation runs against for a
// record, honoring the configured basis. Nil means the record carries no
// usable date and is classified as not-overdue.
func (c AgingConfig) ReferenceDate(r *InvoiceRecord) *time.Time {
	if c.Basis == BasisEmissao {
		return r.DataEmissao
	}
	return r.DataVencimento
}

// DiasAtraso computes days overdue for a record at the given reference
// "now". Future dates and records without a basis date yield 0.
func (c AgingConfig) DiasAtraso(r *InvoiceRecord, now time.Time) int {
	ref := c.ReferenceDate(r)
	if ref == nil {
		return 0
	}
	days := DaysBetween(*ref, now)
	if days < 0 {
		return 0
	}
	return days
}

// Classify maps days overdue onto a situação bucket. INADIMPLENTE strictly
// above the threshold; the boundary value stays ATRASADO.
func (c AgingConfig) Classify(diasAtraso int) Situacao {
	if diasAtraso > c.ThresholdDays {
		return SituacaoInadimplente
	}
	return SituacaoAtrasado
}

// StatusOf derives the payment status from the record's own data: Pago when
// anything was paid, Vencido when strictly past due at "today" (date-only
// comparison), A Vencer otherwise.
func StatusOf(r *InvoiceRecord, today time.Time) StatusPagamento {
	if r.ValorPago.IsPositive() {
		return StatusPago
	}
	if r.DataVencimento != nil && r.DataVencimento.Before(DateOnly(today)) {
		return StatusVencido
	}
	return StatusAVencer
}
