package receivable

import (
	"time"

	"github.com/shopspring/decimal"
)

// Metrics holds the summary figures of the currently filtered invoice set
type Metrics struct {
	ValorFaturado  decimal.Decimal `json:"valor_faturado"`
	ValorPago      decimal.Decimal `json:"valor_pago"`
	ValorAPagar    decimal.Decimal `json:"valor_a_pagar"`
	ValorCorrigido decimal.Decimal `json:"valor_corrigido"`
	ValorDescontos decimal.Decimal `json:"valor_descontos"`
	PMCR           decimal.Decimal `json:"pmcr"`
}

// ComputeMetrics folds the filtered set into its summary figures. PMCR is
// the weighted average collection period: days from issue to settlement (or
// "now" for unsettled invoices) weighted by face amount. Records without a
// positive face amount or a parseable issue date are excluded from both the
// numerator and the denominator; counting them as zero-weight would bias
// the average. A zero denominator yields PMCR 0, never NaN.
func ComputeMetrics(records []InvoiceRecord, now time.Time) Metrics {
	m := Metrics{
		ValorFaturado:  decimal.Zero,
		ValorPago:      decimal.Zero,
		ValorCorrigido: decimal.Zero,
		ValorDescontos: decimal.Zero,
	}

	weightedDays := decimal.Zero
	totalWeight := decimal.Zero

	for i := range records {
		r := &records[i]
		m.ValorFaturado = m.ValorFaturado.Add(r.ValorFatura)
		m.ValorPago = m.ValorPago.Add(r.ValorPago)
		m.ValorCorrigido = m.ValorCorrigido.Add(r.ValorCorrigido)
		m.ValorDescontos = m.ValorDescontos.Add(r.Desconto)

		if !r.ValorFatura.IsPositive() || r.DataEmissao == nil {
			continue
		}
		settled := now
		if r.DataBaixa != nil {
			settled = *r.DataBaixa
		}
		days := decimal.NewFromInt(int64(DaysBetween(*r.DataEmissao, settled)))
		weightedDays = weightedDays.Add(days.Mul(r.ValorFatura))
		totalWeight = totalWeight.Add(r.ValorFatura)
	}

	m.ValorAPagar = m.ValorFaturado.Sub(m.ValorPago)
	if totalWeight.IsPositive() {
		m.PMCR = weightedDays.Div(totalWeight).Round(2)
	} else {
		m.PMCR = decimal.Zero
	}
	return m
}
