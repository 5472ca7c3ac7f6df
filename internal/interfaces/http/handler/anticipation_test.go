package handler

import (
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cobranca/backend/internal/application/dashboard"
	"github.com/cobranca/backend/internal/interfaces/http/dto"
)

func newAnticipationRouter(t *testing.T, store *fakeAnticipationStore) *gin.Engine {
	t.Helper()
	svc := dashboard.NewAnticipationService(store, nil)
	return newHandlerRouter(t, NewAnticipationHandler(svc), authAs(testAuthorID, "maria.cobranca"))
}

func TestAnticipationHandler_Register(t *testing.T) {
	store := &fakeAnticipationStore{}
	r := newAnticipationRouter(t, store)

	w := doJSON(t, r, http.MethodPost, "/api/v1/antecipacoes", gin.H{
		"banco": "Itau",
		"faturas": []gin.H{
			{"codigo_cliente": "C001", "numero_fatura": "F100", "parcela": "1", "vl_fatura": "1000.50"},
			{"codigo_cliente": "C002", "numero_fatura": "F200", "parcela": "1", "vl_fatura": "250.00"},
		},
	})

	require.Equal(t, http.StatusCreated, w.Code)
	resp := decodeEnvelope(t, w)
	require.True(t, resp.Success)

	events := resp.Data.([]any)
	require.Len(t, events, 2)
	first := events[0].(map[string]any)
	assert.Equal(t, "Itau", first["banco"])
	assert.Equal(t, "maria.cobranca", first["registrado_por"])

	require.Len(t, store.events, 2)
}

func TestAnticipationHandler_Register_ReassignsBank(t *testing.T) {
	store := &fakeAnticipationStore{}
	r := newAnticipationRouter(t, store)

	body := gin.H{
		"banco": "Itau",
		"faturas": []gin.H{
			{"codigo_cliente": "C001", "numero_fatura": "F100", "parcela": "1"},
		},
	}
	w := doJSON(t, r, http.MethodPost, "/api/v1/antecipacoes", body)
	require.Equal(t, http.StatusCreated, w.Code)

	body["banco"] = "Bradesco"
	w = doJSON(t, r, http.MethodPost, "/api/v1/antecipacoes", body)
	require.Equal(t, http.StatusCreated, w.Code)

	require.Len(t, store.events, 1)
	assert.Equal(t, "Bradesco", store.events[0].Banco)
}

func TestAnticipationHandler_Register_MissingBank(t *testing.T) {
	r := newAnticipationRouter(t, &fakeAnticipationStore{})

	w := doJSON(t, r, http.MethodPost, "/api/v1/antecipacoes", gin.H{
		"faturas": []gin.H{{"codigo_cliente": "C001", "numero_fatura": "F100"}},
	})

	requireErrorCode(t, w, http.StatusBadRequest, dto.ErrCodeValidation)
}

func TestAnticipationHandler_Register_EmptySelection(t *testing.T) {
	r := newAnticipationRouter(t, &fakeAnticipationStore{})

	w := doJSON(t, r, http.MethodPost, "/api/v1/antecipacoes", gin.H{
		"banco":   "Itau",
		"faturas": []gin.H{},
	})

	requireErrorCode(t, w, http.StatusBadRequest, dto.ErrCodeValidation)
}

func TestAnticipationHandler_Register_Unauthenticated(t *testing.T) {
	svc := dashboard.NewAnticipationService(&fakeAnticipationStore{}, nil)
	r := newHandlerRouter(t, NewAnticipationHandler(svc))

	w := doJSON(t, r, http.MethodPost, "/api/v1/antecipacoes", gin.H{
		"banco":   "Itau",
		"faturas": []gin.H{{"codigo_cliente": "C001", "numero_fatura": "F100"}},
	})

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAnticipationHandler_List(t *testing.T) {
	store := &fakeAnticipationStore{}
	r := newAnticipationRouter(t, store)

	doJSON(t, r, http.MethodPost, "/api/v1/antecipacoes", gin.H{
		"banco":   "Itau",
		"faturas": []gin.H{{"codigo_cliente": "C001", "numero_fatura": "F100", "parcela": "1"}},
	})

	w := doJSON(t, r, http.MethodGet, "/api/v1/antecipacoes", nil)

	require.Equal(t, http.StatusOK, w.Code)
	resp := decodeEnvelope(t, w)
	require.True(t, resp.Success)
	assert.Len(t, resp.Data.([]any), 1)
}
