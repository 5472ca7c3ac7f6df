package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/cobranca/backend/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newValidatedRouter() *gin.Engine {
	SetupValidator()

	r := gin.New()
	r.POST("/api/v1/dashboard/clientes", func(c *gin.Context) {
		var req struct {
			Page     int    `json:"page" binding:"min=1"`
			PageSize int    `json:"page_size" binding:"min=1,max=100"`
			Order    string `json:"order" binding:"omitempty,oneof=asc desc"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			HandleValidationError(c, err)
			return
		}
		c.Status(http.StatusOK)
	})
	return r
}

func TestHandleValidationError_ReportsJSONFieldNames(t *testing.T) {
	r := newValidatedRouter()

	req := httptest.NewRequest(http.MethodPost, "/api/v1/dashboard/clientes",
		strings.NewReader(`{"page": 0, "page_size": 500, "order": "sideways"}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusBadRequest, w.Code)

	var resp dto.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotNil(t, resp.Error)
	assert.Equal(t, dto.ErrCodeValidation, resp.Error.Code)

	fields := make(map[string]string, len(resp.Error.Details))
	for _, d := range resp.Error.Details {
		fields[d.Field] = d.Message
	}
	// JSON names, not Go identifiers.
	assert.Contains(t, fields, "page")
	assert.Contains(t, fields, "page_size")
	assert.Equal(t, "Must be one of: asc desc", fields["order"])
}

func TestHandleValidationError_MalformedBody(t *testing.T) {
	r := newValidatedRouter()

	req := httptest.NewRequest(http.MethodPost, "/api/v1/dashboard/clientes",
		strings.NewReader(`{"page": `))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusBadRequest, w.Code)

	var resp dto.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotNil(t, resp.Error)
	// Syntax errors carry no per-field details but still use the envelope.
	assert.Empty(t, resp.Error.Details)
}

func TestHandleValidationError_ValidBodyPasses(t *testing.T) {
	r := newValidatedRouter()

	req := httptest.NewRequest(http.MethodPost, "/api/v1/dashboard/clientes",
		strings.NewReader(`{"page": 1, "page_size": 20, "order": "desc"}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
}
