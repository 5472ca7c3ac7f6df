package receivable

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/cobranca/backend/internal/domain/classification"
)

// ClientAggregate is the per-client delinquency view derived from the
// current invoice set. It is never persisted: valorTotal and diasAtrasoMax
// are pure folds over the constituents and must be recomputed whenever the
// filtered set changes.
type ClientAggregate struct {
	CodigoCliente string                         `json:"codigo_cliente"`
	Nome          string                         `json:"nome"`
	NomeFantasia  string                         `json:"nome_fantasia"`
	Estado        string                         `json:"estado"`
	Telefone      string                         `json:"telefone"`
	ValorTotal    decimal.Decimal                `json:"valor_total"`
	ValorAVencer  decimal.Decimal                `json:"valor_a_vencer"`
	DiasAtrasoMax int                            `json:"dias_atraso_max"`
	Situacao      Situacao                       `json:"situacao"`
	Annotation    *classification.Annotation     `json:"annotation,omitempty"`
	Faturas       []InvoiceRecord                `json:"faturas"`
}

// AggregateClients groups invoices by client in order of first appearance
// and folds each group into a ClientAggregate. The function is pure: it is
// re-run on every filter change and must never carry state across runs.
//
// persons enriches name/state fields when loaded; annotations is the
// classification read snapshot; aVencer carries the parallel future-window
// totals per client (both may be nil).
func AggregateClients(
	records []InvoiceRecord,
	cfg AgingConfig,
	now time.Time,
	persons PersonIndex,
	annotations map[string]*classification.Annotation,
	aVencer map[string]decimal.Decimal,
) []ClientAggregate {
	order := make([]string, 0)
	groups := make(map[string]*ClientAggregate)

	for i := range records {
		rec := records[i]
		agg, ok := groups[rec.CodigoCliente]
		if !ok {
			agg = &ClientAggregate{
				CodigoCliente: rec.CodigoCliente,
				ValorTotal:    decimal.Zero,
				ValorAVencer:  decimal.Zero,
			}
			groups[rec.CodigoCliente] = agg
			order = append(order, rec.CodigoCliente)
		}

		agg.ValorTotal = agg.ValorTotal.Add(rec.ValorFatura)
		if dias := cfg.DiasAtraso(&rec, now); dias > agg.DiasAtrasoMax {
			agg.DiasAtrasoMax = dias
		}
		agg.Faturas = append(agg.Faturas, rec)
	}

	result := make([]ClientAggregate, 0, len(order))
	for _, codigo := range order {
		agg := groups[codigo]
		agg.Situacao = cfg.Classify(agg.DiasAtrasoMax)

		if p, ok := persons.Lookup(codigo); ok {
			agg.Nome = p.Nome
			agg.NomeFantasia = p.NomeFantasia
			agg.Estado = p.Estado
			agg.Telefone = p.Telefone
		}
		if annotations != nil {
			agg.Annotation = annotations[codigo]
		}
		if aVencer != nil {
			if v, ok := aVencer[codigo]; ok {
				agg.ValorAVencer = v
			}
		}
		result = append(result, *agg)
	}
	return result
}
