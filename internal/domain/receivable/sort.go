package receivable

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// SortDirection is ascending or descending
type SortDirection string

const (
	SortAsc  SortDirection = "asc"
	SortDesc SortDirection = "desc"
)

// SortSpec is the single active sort: one field, one direction
type SortSpec struct {
	Field     string        `json:"field"`
	Direction SortDirection `json:"direction"`
}

// Toggle implements the UI contract: re-selecting the active field flips
// the direction, selecting a new field resets to ascending.
func (s SortSpec) Toggle(field string) SortSpec {
	if s.Field == field {
		if s.Direction == SortAsc {
			return SortSpec{Field: field, Direction: SortDesc}
		}
		return SortSpec{Field: field, Direction: SortAsc}
	}
	return SortSpec{Field: field, Direction: SortAsc}
}

// fieldKind selects the comparator family for a sortable field
type fieldKind int

const (
	kindString fieldKind = iota
	kindDate
	kindNumber
)

// recordFields maps sortable invoice fields to their comparator family.
// The field's declared kind decides comparison semantics, not whatever the
// runtime representation happens to be.
var recordFields = map[string]fieldKind{
	"codigo_cliente":  kindString,
	"numero_fatura":   kindString,
	"parcela":         kindString,
	"nome_portador":   kindString,
	"tipo_documento":  kindString,
	"tipo_cobranca":   kindString,
	"data_emissao":    kindDate,
	"data_vencimento": kindDate,
	"data_baixa":      kindDate,
	"vl_fatura":       kindNumber,
	"vl_pago":         kindNumber,
	"vl_corrigido":    kindNumber,
	"vl_desconto":     kindNumber,
}

// aggregateFields maps sortable client-aggregate fields to their kind
var aggregateFields = map[string]fieldKind{
	"codigo_cliente":  kindString,
	"nome":            kindString,
	"nome_fantasia":   kindString,
	"estado":          kindString,
	"situacao":        kindString,
	"valor_total":     kindNumber,
	"valor_a_vencer":  kindNumber,
	"dias_atraso_max": kindNumber,
}

// newCollator builds a Portuguese caseless collator. Case-insensitive
// string ordering must match what the users see, accents included.
func newCollator() *collate.Collator {
	return collate.New(language.BrazilianPortuguese, collate.IgnoreCase)
}

// compareDates orders date-only values; absent dates sort as earliest
func compareDates(a, b *time.Time) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return -1
	case b == nil:
		return 1
	case a.Before(*b):
		return -1
	case a.After(*b):
		return 1
	}
	return 0
}

// SortRecords stable-sorts invoices in place by the given spec. Unknown
// fields leave the order untouched; records equal under the comparator keep
// their pre-sort relative order.
func SortRecords(records []InvoiceRecord, spec SortSpec) {
	kind, ok := recordFields[spec.Field]
	if !ok {
		return
	}

	col := newCollator()
	cmp := func(a, b *InvoiceRecord) int {
		switch kind {
		case kindDate:
			return compareDates(recordDate(a, spec.Field), recordDate(b, spec.Field))
		case kindNumber:
			return recordNumber(a, spec.Field).Cmp(recordNumber(b, spec.Field))
		default:
			return col.CompareString(recordString(a, spec.Field), recordString(b, spec.Field))
		}
	}

	sort.SliceStable(records, func(i, j int) bool {
		c := cmp(&records[i], &records[j])
		if spec.Direction == SortDesc {
			return c > 0
		}
		return c < 0
	})
}

// SortAggregates stable-sorts client aggregates in place by the given spec
func SortAggregates(aggs []ClientAggregate, spec SortSpec) {
	kind, ok := aggregateFields[spec.Field]
	if !ok {
		return
	}

	col := newCollator()
	cmp := func(a, b *ClientAggregate) int {
		switch kind {
		case kindNumber:
			return aggregateNumber(a, spec.Field).Cmp(aggregateNumber(b, spec.Field))
		default:
			return col.CompareString(aggregateString(a, spec.Field), aggregateString(b, spec.Field))
		}
	}

	sort.SliceStable(aggs, func(i, j int) bool {
		c := cmp(&aggs[i], &aggs[j])
		if spec.Direction == SortDesc {
			return c > 0
		}
		return c < 0
	})
}

func recordDate(r *InvoiceRecord, field string) *time.Time {
	switch field {
	case "data_emissao":
		return r.DataEmissao
	case "data_vencimento":
		return r.DataVencimento
	case "data_baixa":
		return r.DataBaixa
	}
	return nil
}

func recordNumber(r *InvoiceRecord, field string) decimal.Decimal {
	switch field {
	case "vl_fatura":
		return r.ValorFatura
	case "vl_pago":
		return r.ValorPago
	case "vl_corrigido":
		return r.ValorCorrigido
	case "vl_desconto":
		return r.Desconto
	}
	return decimal.Zero
}

func recordString(r *InvoiceRecord, field string) string {
	switch field {
	case "codigo_cliente":
		return r.CodigoCliente
	case "numero_fatura":
		return r.NumeroFatura
	case "parcela":
		return r.Parcela
	case "nome_portador":
		return r.NomePortador
	case "tipo_documento":
		return r.TipoDocumento
	case "tipo_cobranca":
		return r.TipoCobranca
	}
	return ""
}

func aggregateNumber(a *ClientAggregate, field string) decimal.Decimal {
	switch field {
	case "valor_total":
		return a.ValorTotal
	case "valor_a_vencer":
		return a.ValorAVencer
	case "dias_atraso_max":
		return decimal.NewFromInt(int64(a.DiasAtrasoMax))
	}
	return decimal.Zero
}

func aggregateString(a *ClientAggregate, field string) string {
	switch field {
	case "codigo_cliente":
		return a.CodigoCliente
	case "nome":
		return a.Nome
	case "nome_fantasia":
		return a.NomeFantasia
	case "estado":
		return a.Estado
	case "situacao":
		return string(a.Situacao)
	}
	return ""
}
