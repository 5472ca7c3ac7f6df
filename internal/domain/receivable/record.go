package receivable

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// CompositeKey identifies one invoice line uniquely. It is the conflict
// target for anticipation upserts and the match key for reconciliation.
type CompositeKey struct {
	Cliente string `json:"cliente"`
	Fatura  string `json:"fatura"`
	Parcela string `json:"parcela"`
}

// String renders the key in "cliente/fatura/parcela" form for logs and cache keys
func (k CompositeKey) String() string {
	return k.Cliente + "/" + k.Fatura + "/" + k.Parcela
}

// InvoiceRecord is one accounts-receivable line as delivered by the upstream
// feed. Records are immutable during a session and replaced wholesale on
// re-fetch.
type InvoiceRecord struct {
	CodigoCliente    string          `json:"codigo_cliente"`
	Loja             string          `json:"loja"`
	NumeroFatura     string          `json:"numero_fatura"`
	Parcela          string          `json:"parcela"`
	DataEmissao      *time.Time      `json:"data_emissao"`
	DataVencimento   *time.Time      `json:"data_vencimento"`
	DataCancelamento *time.Time      `json:"data_cancelamento"`
	DataBaixa        *time.Time      `json:"data_baixa"`
	ValorFatura      decimal.Decimal `json:"vl_fatura"`
	ValorPago        decimal.Decimal `json:"vl_pago"`
	ValorCorrigido   decimal.Decimal `json:"vl_corrigido"`
	Desconto         decimal.Decimal `json:"vl_desconto"`
	Juros            decimal.Decimal `json:"vl_juros"`
	Multa            decimal.Decimal `json:"vl_multa"`
	Acrescimo        decimal.Decimal `json:"vl_acrescimo"`
	TipoDocumento    string          `json:"tipo_documento"`
	TipoCobranca     string          `json:"tipo_cobranca"`
	CodigoPortador   string          `json:"codigo_portador"`
	NomePortador     string          `json:"nome_portador"`
}

// Key returns the record's composite identity (cliente, fatura, parcela)
func (r *InvoiceRecord) Key() CompositeKey {
	return CompositeKey{
		Cliente: r.CodigoCliente,
		Fatura:  r.NumeroFatura,
		Parcela: r.Parcela,
	}
}

// IsCancelada reports whether the invoice carries a cancellation date
func (r *InvoiceRecord) IsCancelada() bool {
	return r.DataCancelamento != nil
}

// PersonInfo is the enrichment row for one client, fetched from the person
// feed in bounded batches. The zero value means "not enriched yet".
type PersonInfo struct {
	Codigo       string `json:"codigo"`
	Nome         string `json:"nome"`
	NomeFantasia string `json:"nome_fantasia"`
	Estado       string `json:"estado"`
	Telefone     string `json:"telefone"`
	Tipo         string `json:"tipo"`
}

// IsFranquia reports whether the enrichment row marks the client as a
// franchise ("F" in the person feed).
func (p PersonInfo) IsFranquia() bool {
	return strings.EqualFold(p.Tipo, "F")
}

// PersonIndex is the enrichment side-table keyed by client code. A nil index
// means enrichment has not loaded; filters depending on it must pass
// everything rather than wrongly excluding records.
type PersonIndex map[string]PersonInfo

// Lookup returns the enrichment row for a client code, if present
func (idx PersonIndex) Lookup(codigoCliente string) (PersonInfo, bool) {
	if idx == nil {
		return PersonInfo{}, false
	}
	p, ok := idx[codigoCliente]
	return p, ok
}

// dateLayouts are the formats the upstream feeds are known to emit
var dateLayouts = []string{
	"2006-01-02",
	"02/01/2006",
	time.RFC3339,
	"2006-01-02 15:04:05",
	"20060102",
}

// ParseDate parses a feed date string into a date-only value. Returns nil
// for empty or unparseable input; a missing date is data, not an error.
func ParseDate(s string) *time.Time {
	s = strings.TrimSpace(s)
	if s == "" || s == "0000-00-00" {
		return nil
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			d := DateOnly(t)
			return &d
		}
	}
	return nil
}

// DateOnly truncates a time to midnight UTC so that comparisons between
// dates never drift across timezones.
func DateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// DaysBetween returns the number of whole days from a to b. The result is
// negative when b precedes a.
func DaysBetween(a, b time.Time) int {
	return int(DateOnly(b).Sub(DateOnly(a)).Hours() / 24)
}
