package anticipation

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cobranca/backend/internal/domain/receivable"
	"github.com/cobranca/backend/internal/domain/shared"
)

func key(cliente, fatura, parcela string) receivable.CompositeKey {
	return receivable.CompositeKey{Cliente: cliente, Fatura: fatura, Parcela: parcela}
}

func TestReconciler_Lookups(t *testing.T) {
	events := []Event{
		{Key: key("5", "900", "1"), Banco: "Itau"},
		{Key: key("6", "901", "1"), Banco: "Bradesco"},
	}
	r := NewReconciler(events)

	assert.True(t, r.IsAnticipated(key("5", "900", "1")))
	assert.False(t, r.IsAnticipated(key("5", "900", "2")))

	bank, ok := r.BankOf(key("6", "901", "1"))
	require.True(t, ok)
	assert.Equal(t, "Bradesco", bank)

	_, ok = r.BankOf(key("7", "999", "1"))
	assert.False(t, ok)
}

// Re-registering the same invoice under a new bank replaces the assignment.
func TestReconciler_LastRegisteredWins(t *testing.T) {
	events := []Event{
		{Key: key("5", "900", "1"), Banco: "Itau"},
		{Key: key("5", "900", "1"), Banco: "Santander"},
	}
	r := NewReconciler(events)

	assert.Equal(t, 1, r.Len(), "duplicate keys must collapse to one row")
	bank, ok := r.BankOf(key("5", "900", "1"))
	require.True(t, ok)
	assert.Equal(t, "Santander", bank)
}

func TestNewEvents(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	invoices := []receivable.InvoiceRecord{
		{CodigoCliente: "5", NumeroFatura: "900", Parcela: "1", ValorFatura: decimal.NewFromInt(100)},
		{CodigoCliente: "5", NumeroFatura: "900", Parcela: "2", ValorFatura: decimal.NewFromInt(100)},
	}

	events, err := NewEvents(invoices, "Itau", "maria", now)
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, key("5", "900", "1"), events[0].Key)
	assert.Equal(t, "Itau", events[0].Banco)
	assert.Equal(t, "maria", events[0].RegistradoPor)
	assert.Equal(t, now, events[0].RegistradoEm)
}

func TestNewEvents_ValidatesBeforeAnyCall(t *testing.T) {
	invoices := []receivable.InvoiceRecord{{CodigoCliente: "5", NumeroFatura: "900", Parcela: "1"}}

	_, err := NewEvents(invoices, "", "maria", time.Now())
	require.Error(t, err)
	assert.True(t, shared.IsValidationError(err))

	_, err = NewEvents(nil, "Itau", "maria", time.Now())
	require.Error(t, err)
	assert.True(t, shared.IsValidationError(err))
}
