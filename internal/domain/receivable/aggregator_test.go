package receivable

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cobranca/backend/internal/domain/classification"
)

var aggNow = time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
var aggCfg = AgingConfig{ThresholdDays: 31, Basis: BasisVencimento}

func TestAggregateClients_GroupsInFirstAppearanceOrder(t *testing.T) {
	records := []InvoiceRecord{
		{CodigoCliente: "B", NumeroFatura: "1", ValorFatura: decimal.NewFromInt(10)},
		{CodigoCliente: "A", NumeroFatura: "2", ValorFatura: decimal.NewFromInt(20)},
		{CodigoCliente: "B", NumeroFatura: "3", ValorFatura: decimal.NewFromInt(30)},
	}

	aggs := AggregateClients(records, aggCfg, aggNow, nil, nil, nil)
	require.Len(t, aggs, 2)
	assert.Equal(t, "B", aggs[0].CodigoCliente)
	assert.Equal(t, "A", aggs[1].CodigoCliente)
	assert.Len(t, aggs[0].Faturas, 2)
	assert.True(t, aggs[0].ValorTotal.Equal(decimal.NewFromInt(40)))
}

func TestAggregateClients_ValorTotalIsOrderIndependent(t *testing.T) {
	forward := []InvoiceRecord{
		{CodigoCliente: "1", ValorFatura: decimal.NewFromFloat(10.10)},
		{CodigoCliente: "1", ValorFatura: decimal.NewFromFloat(20.20)},
		{CodigoCliente: "1", ValorFatura: decimal.NewFromFloat(30.30)},
	}
	reversed := []InvoiceRecord{forward[2], forward[1], forward[0]}

	a := AggregateClients(forward, aggCfg, aggNow, nil, nil, nil)
	b := AggregateClients(reversed, aggCfg, aggNow, nil, nil, nil)
	require.Len(t, a, 1)
	require.Len(t, b, 1)
	assert.True(t, a[0].ValorTotal.Equal(b[0].ValorTotal))
	assert.True(t, a[0].ValorTotal.Equal(decimal.NewFromFloat(60.60)))
}

func TestAggregateClients_NoEmptyAggregates(t *testing.T) {
	aggs := AggregateClients(nil, aggCfg, aggNow, nil, nil, nil)
	assert.Empty(t, aggs)
}

func TestAggregateClients_AttachesOverlays(t *testing.T) {
	records := []InvoiceRecord{
		{CodigoCliente: "7", ValorFatura: decimal.NewFromInt(100)},
	}

	feeling := classification.FeelingBoa
	annotations := map[string]*classification.Annotation{
		"7": {CodigoCliente: "7", Feeling: &feeling},
	}
	persons := PersonIndex{
		"7": {Codigo: "7", Nome: "Acme Ltda", NomeFantasia: "Acme", Estado: "SP"},
	}
	aVencer := map[string]decimal.Decimal{
		"7": decimal.NewFromInt(500),
	}

	aggs := AggregateClients(records, aggCfg, aggNow, persons, annotations, aVencer)
	require.Len(t, aggs, 1)

	agg := aggs[0]
	assert.Equal(t, "Acme Ltda", agg.Nome)
	assert.Equal(t, "Acme", agg.NomeFantasia)
	assert.Equal(t, "SP", agg.Estado)
	require.NotNil(t, agg.Annotation)
	assert.Equal(t, classification.FeelingBoa, *agg.Annotation.Feeling)
	assert.True(t, agg.ValorAVencer.Equal(decimal.NewFromInt(500)))
}

func TestAggregateClients_IsPure(t *testing.T) {
	records := []InvoiceRecord{
		{CodigoCliente: "1", ValorFatura: decimal.NewFromInt(5), DataVencimento: dateP("2024-01-01")},
		{CodigoCliente: "2", ValorFatura: decimal.NewFromInt(7), DataVencimento: dateP("2024-02-01")},
	}

	first := AggregateClients(records, aggCfg, aggNow, nil, nil, nil)
	second := AggregateClients(records, aggCfg, aggNow, nil, nil, nil)
	assert.Equal(t, first, second, "re-running aggregation must be side-effect free")
}
