package receivable

import (
	"strings"
	"time"
)

// SituacaoFiltro selects cancelled vs. active invoices
type SituacaoFiltro string

const (
	FiltroTodas      SituacaoFiltro = ""
	FiltroNormais    SituacaoFiltro = "normais"
	FiltroCanceladas SituacaoFiltro = "canceladas"
)

// TipoCliente splits the portfolio into franchises and everyone else
type TipoCliente string

const (
	TipoClienteTodos    TipoCliente = ""
	TipoClienteFranquia TipoCliente = "franquia"
	TipoClienteOutros   TipoCliente = "outros"
)

// CalendarMode is the granularity of the calendar window
type CalendarMode string

const (
	CalendarModeNone CalendarMode = ""
	CalendarModeAno  CalendarMode = "ano"
	CalendarModeMes  CalendarMode = "mes"
)

// CalendarWindow narrows records to a year, a month, or a single day
type CalendarWindow struct {
	Modo CalendarMode `json:"modo"`
	Ano  int          `json:"ano"`
	Mes  time.Month   `json:"mes"`
	Dia  int          `json:"dia"`
}

// YearMode resolves the "ANO" divergence between dashboards: one treats the
// year view as unfiltered, the other restricts it to the current year. Both
// behaviors exist in production and are selected per dashboard profile.
type YearMode string

const (
	YearModeAll     YearMode = "all"
	YearModeCurrent YearMode = "current"
)

// FilterCriteria is the set of independently toggleable predicates. The
// zero value is the identity filter: every record passes.
type FilterCriteria struct {
	Situacao       SituacaoFiltro  `json:"situacao"`
	Status         StatusPagamento `json:"status"`
	Clientes       []string        `json:"clientes"`
	Fatura         string          `json:"fatura"`
	Portador       string          `json:"portador"`
	TiposPagamento []string        `json:"tipos_pagamento"`
	NomesFantasia  []string        `json:"nomes_fantasia"`
	TipoCobranca   string          `json:"tipo_cobranca"`
	TipoCliente    TipoCliente     `json:"tipo_cliente"`
	Antecipada     *bool           `json:"antecipada"`
	BancoAntecip   string          `json:"banco_antecipacao"`
	Janela         CalendarWindow  `json:"janela"`
}

// IsZero reports whether the criteria set is the identity filter
func (c FilterCriteria) IsZero() bool {
	return c.Situacao == FiltroTodas &&
		c.Status == "" &&
		len(c.Clientes) == 0 &&
		c.Fatura == "" &&
		c.Portador == "" &&
		len(c.TiposPagamento) == 0 &&
		len(c.NomesFantasia) == 0 &&
		c.TipoCobranca == "" &&
		c.TipoCliente == TipoClienteTodos &&
		c.Antecipada == nil &&
		c.BancoAntecip == "" &&
		c.Janela.Modo == CalendarModeNone
}

// AnticipationLookup answers anticipation membership queries against a
// prebuilt index; implementations must be O(1) per call.
type AnticipationLookup interface {
	IsAnticipated(key CompositeKey) bool
	BankOf(key CompositeKey) (string, bool)
}

// PipelineConfig carries the per-dashboard behavior switches of the filter
// pipeline.
type PipelineConfig struct {
	CalendarBasis DateBasis // due date in most dashboards, issue date in "emissão"
	YearMode      YearMode
}

// PipelineDeps are the side tables predicates consult. Any of them may be
// nil/absent; predicates that depend on a missing table pass everything
// rather than wrongly excluding records.
type PipelineDeps struct {
	Now           time.Time
	Persons       PersonIndex
	Anticipations AnticipationLookup
}

// predicate is one named filter over invoice records
type predicate struct {
	name string
	fn   func(r *InvoiceRecord) bool
}

// ApplyFilters evaluates the active predicates in a fixed order, cheapest
// and most selective first. All predicates AND together; empty criteria
// return the input unchanged.
func ApplyFilters(records []InvoiceRecord, c FilterCriteria, cfg PipelineConfig, deps PipelineDeps) []InvoiceRecord {
	preds := c.predicates(cfg, deps)
	if len(preds) == 0 {
		return records
	}

	out := make([]InvoiceRecord, 0, len(records))
	for i := range records {
		if matchesAll(&records[i], preds) {
			out = append(out, records[i])
		}
	}
	return out
}

func matchesAll(r *InvoiceRecord, preds []predicate) bool {
	for _, p := range preds {
		if !p.fn(r) {
			return false
		}
	}
	return true
}

// predicates builds the active predicate list in pipeline order
func (c FilterCriteria) predicates(cfg PipelineConfig, deps PipelineDeps) []predicate {
	preds := make([]predicate, 0, 12)

	if c.Situacao != FiltroTodas {
		canceladas := c.Situacao == FiltroCanceladas
		preds = append(preds, predicate{"situacao", func(r *InvoiceRecord) bool {
			return r.IsCancelada() == canceladas
		}})
	}

	if c.Status != "" {
		preds = append(preds, predicate{"status", func(r *InvoiceRecord) bool {
			return StatusOf(r, deps.Now) == c.Status
		}})
	}

	if len(c.Clientes) > 0 {
		allowed := toSet(c.Clientes)
		preds = append(preds, predicate{"clientes", func(r *InvoiceRecord) bool {
			return allowed[r.CodigoCliente]
		}})
	}

	if c.Fatura != "" {
		needle := strings.ToLower(c.Fatura)
		preds = append(preds, predicate{"fatura", func(r *InvoiceRecord) bool {
			return strings.Contains(strings.ToLower(r.NumeroFatura), needle)
		}})
	}

	if c.Portador != "" {
		needle := strings.ToLower(c.Portador)
		preds = append(preds, predicate{"portador", func(r *InvoiceRecord) bool {
			return strings.Contains(strings.ToLower(r.NomePortador), needle) ||
				strings.Contains(strings.ToLower(r.CodigoPortador), needle)
		}})
	}

	if len(c.TiposPagamento) > 0 {
		allowed := toSet(c.TiposPagamento)
		preds = append(preds, predicate{"tipos_pagamento", func(r *InvoiceRecord) bool {
			return allowed[r.TipoDocumento]
		}})
	}

	if len(c.NomesFantasia) > 0 && deps.Persons != nil {
		// Needs the person side-table; while it has not loaded this
		// predicate is skipped entirely so nothing is wrongly excluded.
		allowed := make(map[string]bool, len(c.NomesFantasia))
		for _, nf := range c.NomesFantasia {
			allowed[strings.ToLower(nf)] = true
		}
		preds = append(preds, predicate{"nomes_fantasia", func(r *InvoiceRecord) bool {
			p, ok := deps.Persons.Lookup(r.CodigoCliente)
			if !ok {
				return false
			}
			return allowed[strings.ToLower(p.NomeFantasia)]
		}})
	}

	if c.TipoCobranca != "" {
		preds = append(preds, predicate{"tipo_cobranca", func(r *InvoiceRecord) bool {
			return r.TipoCobranca == c.TipoCobranca
		}})
	}

	if c.TipoCliente != TipoClienteTodos && deps.Persons != nil {
		franquia := c.TipoCliente == TipoClienteFranquia
		preds = append(preds, predicate{"tipo_cliente", func(r *InvoiceRecord) bool {
			p, ok := deps.Persons.Lookup(r.CodigoCliente)
			if !ok {
				return false
			}
			return p.IsFranquia() == franquia
		}})
	}

	if c.Antecipada != nil && deps.Anticipations != nil {
		want := *c.Antecipada
		preds = append(preds, predicate{"antecipada", func(r *InvoiceRecord) bool {
			return deps.Anticipations.IsAnticipated(r.Key()) == want
		}})
	}

	if c.BancoAntecip != "" && deps.Anticipations != nil {
		preds = append(preds, predicate{"banco_antecipacao", func(r *InvoiceRecord) bool {
			bank, ok := deps.Anticipations.BankOf(r.Key())
			return ok && bank == c.BancoAntecip
		}})
	}

	if p, active := c.calendarPredicate(cfg, deps.Now); active {
		preds = append(preds, p)
	}

	return preds
}

// calendarPredicate resolves the calendar window against the configured
// date basis and year mode.
func (c FilterCriteria) calendarPredicate(cfg PipelineConfig, now time.Time) (predicate, bool) {
	basisDate := func(r *InvoiceRecord) *time.Time {
		if cfg.CalendarBasis == BasisEmissao {
			return r.DataEmissao
		}
		return r.DataVencimento
	}

	switch c.Janela.Modo {
	case CalendarModeAno:
		if cfg.YearMode == YearModeAll {
			// This dashboard's year view is explicitly unfiltered.
			return predicate{}, false
		}
		year := c.Janela.Ano
		if year == 0 {
			year = now.Year()
		}
		return predicate{"janela_ano", func(r *InvoiceRecord) bool {
			d := basisDate(r)
			return d != nil && d.Year() == year
		}}, true

	case CalendarModeMes:
		year, mes, dia := c.Janela.Ano, c.Janela.Mes, c.Janela.Dia
		if year == 0 {
			year = now.Year()
		}
		return predicate{"janela_mes", func(r *InvoiceRecord) bool {
			d := basisDate(r)
			if d == nil || d.Year() != year || d.Month() != mes {
				return false
			}
			return dia == 0 || d.Day() == dia
		}}, true
	}
	return predicate{}, false
}

func toSet(vals []string) map[string]bool {
	set := make(map[string]bool, len(vals))
	for _, v := range vals {
		set[v] = true
	}
	return set
}
