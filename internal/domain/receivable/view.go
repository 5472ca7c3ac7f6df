package receivable

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/cobranca/backend/internal/domain/classification"
)

// ViewConfig bundles the per-dashboard knobs of the whole pipeline
type ViewConfig struct {
	Aging    AgingConfig
	Pipeline PipelineConfig
	PageSize int
}

// ViewInput is everything one assembly run consumes. The assembler is a
// pure function of this input: re-running it with equal input yields an
// equal view, which is what lets callers memoize by input hash.
type ViewInput struct {
	Records     []InvoiceRecord
	Criteria    FilterCriteria
	Sort        SortSpec
	Page        int
	Now         time.Time
	Persons     PersonIndex
	Annotations map[string]*classification.Annotation
	Anticip     AnticipationLookup
	AVencer     map[string]decimal.Decimal
}

// ClientView is the per-client dashboard payload
type ClientView struct {
	Clientes Page[ClientAggregate] `json:"clientes"`
	Metrics  Metrics               `json:"metrics"`
}

// InvoiceView is the flat invoice-level payload used by the anticipation
// audit and emissão dashboards
type InvoiceView struct {
	Faturas Page[InvoiceRecord] `json:"faturas"`
	Metrics Metrics             `json:"metrics"`
}

// AssembleClientView runs the full pipeline: filter, metrics over the
// filtered set, group into client aggregates, sort, paginate.
func AssembleClientView(in ViewInput, cfg ViewConfig) ClientView {
	deps := PipelineDeps{Now: in.Now, Persons: in.Persons, Anticipations: in.Anticip}

	filtered := ApplyFilters(in.Records, in.Criteria, cfg.Pipeline, deps)
	metrics := ComputeMetrics(filtered, in.Now)

	aggs := AggregateClients(filtered, cfg.Aging, in.Now, in.Persons, in.Annotations, in.AVencer)
	SortAggregates(aggs, in.Sort)

	return ClientView{
		Clientes: Paginate(aggs, in.Page, cfg.PageSize),
		Metrics:  metrics,
	}
}

// AssembleInvoiceView runs the pipeline without client grouping, keeping
// individual invoice lines.
func AssembleInvoiceView(in ViewInput, cfg ViewConfig) InvoiceView {
	deps := PipelineDeps{Now: in.Now, Persons: in.Persons, Anticipations: in.Anticip}

	filtered := ApplyFilters(in.Records, in.Criteria, cfg.Pipeline, deps)
	metrics := ComputeMetrics(filtered, in.Now)

	// Sort a copy: with empty criteria the filter returns the caller's
	// slice and the assembler must not mutate its input.
	sorted := make([]InvoiceRecord, len(filtered))
	copy(sorted, filtered)
	SortRecords(sorted, in.Sort)

	return InvoiceView{
		Faturas: Paginate(sorted, in.Page, cfg.PageSize),
		Metrics: metrics,
	}
}
