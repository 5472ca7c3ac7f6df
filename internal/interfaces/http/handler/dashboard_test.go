package handler

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cobranca/backend/internal/application/dashboard"
	"github.com/cobranca/backend/internal/interfaces/http/dto"
)

// feedPayload is a minimal upstream response: two overdue installments of
// the same client, due in the current calendar year.
const feedPayload = `{"data": [
	{"codigo_cliente": "C001", "numero_fatura": "F100", "parcela": "1",
	 "data_emissao": "2026-01-05", "data_vencimento": "2026-01-10", "vl_fatura": "1.000,50"},
	{"codigo_cliente": "C001", "numero_fatura": "F100", "parcela": "2",
	 "data_emissao": "2026-01-05", "data_vencimento": "2026-02-10", "vl_fatura": "500,00"}
]}`

func newDashboardRouter(t *testing.T) *gin.Engine {
	t.Helper()
	ingest := dashboard.NewIngestService(&fakeInvoiceFeed{payload: []byte(feedPayload)}, &fakePersonFeed{}, nil)
	svc := dashboard.NewService(ingest, newFakeClassificationStore(), &fakeAnticipationStore{}, nil)
	return newHandlerRouter(t, NewDashboardHandler(svc))
}

func TestDashboardHandler_SearchClients(t *testing.T) {
	r := newDashboardRouter(t)

	w := doJSON(t, r, http.MethodPost, "/api/v1/dashboard/clientes", gin.H{
		"branches": []string{"01"},
	})

	require.Equal(t, http.StatusOK, w.Code)
	resp := decodeEnvelope(t, w)
	require.True(t, resp.Success)

	data, ok := resp.Data.(map[string]any)
	require.True(t, ok)
	clientes, ok := data["clientes"].(map[string]any)
	require.True(t, ok)
	assert.EqualValues(t, 1, clientes["total"])

	items, ok := clientes["items"].([]any)
	require.True(t, ok)
	require.Len(t, items, 1)
	first := items[0].(map[string]any)
	assert.Equal(t, "C001", first["codigo_cliente"])
}

func TestDashboardHandler_SearchInvoices(t *testing.T) {
	r := newDashboardRouter(t)

	w := doJSON(t, r, http.MethodPost, "/api/v1/dashboard/faturas", gin.H{
		"branches": []string{"01"},
		"profile":  "cobranca",
	})

	require.Equal(t, http.StatusOK, w.Code)
	resp := decodeEnvelope(t, w)
	require.True(t, resp.Success)

	data, ok := resp.Data.(map[string]any)
	require.True(t, ok)
	faturas, ok := data["faturas"].(map[string]any)
	require.True(t, ok)
	assert.EqualValues(t, 2, faturas["total"])
}

func TestDashboardHandler_SearchClients_MissingBranches(t *testing.T) {
	r := newDashboardRouter(t)

	w := doJSON(t, r, http.MethodPost, "/api/v1/dashboard/clientes", gin.H{})

	requireErrorCode(t, w, http.StatusBadRequest, dto.ErrCodeValidation)
}

func TestDashboardHandler_SearchClients_UnknownProfile(t *testing.T) {
	r := newDashboardRouter(t)

	w := doJSON(t, r, http.MethodPost, "/api/v1/dashboard/clientes", gin.H{
		"branches": []string{"01"},
		"profile":  "nope",
	})

	requireErrorCode(t, w, http.StatusBadRequest, dto.ErrCodeValidation)
}

func TestDashboardHandler_SearchClients_InvalidJSON(t *testing.T) {
	r := newDashboardRouter(t)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/dashboard/clientes", strings.NewReader("{not json"))
	req.Header.Set("Content-Type", "application/json")
	wr := httptest.NewRecorder()
	r.ServeHTTP(wr, req)

	assert.Equal(t, http.StatusBadRequest, wr.Code)
}
