package handler

import (
	"context"
	"net/http"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cobranca/backend/internal/application/dashboard"
	"github.com/cobranca/backend/internal/domain/receivable"
	"github.com/cobranca/backend/internal/domain/shared"
	"github.com/cobranca/backend/internal/interfaces/http/dto"
)

// fakeSubmitter records write-off calls; Submit fans out, so access is locked
type fakeSubmitter struct {
	mu      sync.Mutex
	calls   []dashboard.WriteOffRequest
	failFor map[receivable.CompositeKey]error
}

func (f *fakeSubmitter) SubmitWriteOff(_ context.Context, req dashboard.WriteOffRequest) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, req)
	if err, ok := f.failFor[req.Key]; ok {
		return err
	}
	return nil
}

func newSettlementRouter(t *testing.T, submitter *fakeSubmitter) *gin.Engine {
	t.Helper()
	svc := dashboard.NewSettlementService(submitter, nil)
	return newHandlerRouter(t, NewSettlementHandler(svc), authAs(testAuthorID, "maria.cobranca"))
}

func TestSettlementHandler_Submit(t *testing.T) {
	submitter := &fakeSubmitter{}
	r := newSettlementRouter(t, submitter)

	w := doJSON(t, r, http.MethodPost, "/api/v1/baixas", gin.H{
		"baixas": []gin.H{
			{"codigo_cliente": "C001", "numero_fatura": "F100", "parcela": "1",
				"valor": "1000.50", "data_baixa": "2026-08-28T00:00:00Z", "motivo": "pagamento em carteira"},
			{"codigo_cliente": "C002", "numero_fatura": "F200", "parcela": "1",
				"valor": "250.00", "data_baixa": "2026-08-28T00:00:00Z"},
		},
	})

	require.Equal(t, http.StatusOK, w.Code)
	resp := decodeEnvelope(t, w)
	require.True(t, resp.Success)

	data := resp.Data.(map[string]any)
	assert.EqualValues(t, 2, data["succeeded"])
	assert.EqualValues(t, 0, data["failed"])
	assert.Len(t, submitter.calls, 2)
}

func TestSettlementHandler_Submit_PartialFailure(t *testing.T) {
	badKey := receivable.CompositeKey{Cliente: "C002", Fatura: "F200", Parcela: "1"}
	submitter := &fakeSubmitter{
		failFor: map[receivable.CompositeKey]error{
			badKey: shared.NewPersistenceError("submit write-off", context.DeadlineExceeded),
		},
	}
	r := newSettlementRouter(t, submitter)

	w := doJSON(t, r, http.MethodPost, "/api/v1/baixas", gin.H{
		"baixas": []gin.H{
			{"codigo_cliente": "C001", "numero_fatura": "F100", "parcela": "1",
				"valor": "100.00", "data_baixa": "2026-08-28T00:00:00Z"},
			{"codigo_cliente": "C002", "numero_fatura": "F200", "parcela": "1",
				"valor": "200.00", "data_baixa": "2026-08-28T00:00:00Z"},
		},
	})

	// One rejected item never voids the batch.
	require.Equal(t, http.StatusOK, w.Code)
	data := decodeEnvelope(t, w).Data.(map[string]any)
	assert.EqualValues(t, 1, data["succeeded"])
	assert.EqualValues(t, 1, data["failed"])

	results := data["results"].([]any)
	require.Len(t, results, 2)
	first := results[0].(map[string]any)
	second := results[1].(map[string]any)
	assert.True(t, first["ok"].(bool))
	assert.False(t, second["ok"].(bool))
	assert.NotEmpty(t, second["error"])
}

func TestSettlementHandler_Submit_EmptyBatch(t *testing.T) {
	r := newSettlementRouter(t, &fakeSubmitter{})

	w := doJSON(t, r, http.MethodPost, "/api/v1/baixas", gin.H{"baixas": []gin.H{}})

	requireErrorCode(t, w, http.StatusBadRequest, dto.ErrCodeValidation)
}

func TestSettlementHandler_Submit_MissingFields(t *testing.T) {
	r := newSettlementRouter(t, &fakeSubmitter{})

	w := doJSON(t, r, http.MethodPost, "/api/v1/baixas", gin.H{
		"baixas": []gin.H{{"codigo_cliente": "C001"}},
	})

	requireErrorCode(t, w, http.StatusBadRequest, dto.ErrCodeValidation)
}
