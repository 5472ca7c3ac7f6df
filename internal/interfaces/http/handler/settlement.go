package handler

import (
	"time"

	"github.com/cobranca/backend/internal/application/dashboard"
	"github.com/cobranca/backend/internal/domain/receivable"
	"github.com/cobranca/backend/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

// SettlementHandler submits write-off batches to the upstream billing system
type SettlementHandler struct {
	BaseHandler
	service *dashboard.SettlementService
}

// NewSettlementHandler creates a new SettlementHandler
func NewSettlementHandler(service *dashboard.SettlementService) *SettlementHandler {
	return &SettlementHandler{service: service}
}

// WriteOffItem is one invoice write-off in a batch submission
type WriteOffItem struct {
	CodigoCliente string          `json:"codigo_cliente" binding:"required"`
	NumeroFatura  string          `json:"numero_fatura" binding:"required"`
	Parcela       string          `json:"parcela"`
	Valor         decimal.Decimal `json:"valor"`
	DataBaixa     time.Time       `json:"data_baixa" binding:"required"`
	Motivo        string          `json:"motivo"`
}

// SubmitWriteOffsRequest carries a batch of write-offs
type SubmitWriteOffsRequest struct {
	Baixas []WriteOffItem `json:"baixas" binding:"required,min=1,dive"`
}

// Submit forwards the batch upstream. Each item succeeds or fails on its
// own; the response always carries the per-invoice outcomes.
func (h *SettlementHandler) Submit(c *gin.Context) {
	var req SubmitWriteOffsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}

	writeOffs := make([]dashboard.WriteOffRequest, 0, len(req.Baixas))
	for _, b := range req.Baixas {
		writeOffs = append(writeOffs, dashboard.WriteOffRequest{
			Key: receivable.CompositeKey{
				Cliente: b.CodigoCliente,
				Fatura:  b.NumeroFatura,
				Parcela: b.Parcela,
			},
			Valor:     b.Valor,
			DataBaixa: b.DataBaixa,
			Motivo:    b.Motivo,
		})
	}

	outcome, err := h.service.Submit(c.Request.Context(), writeOffs)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, outcome)
}

// RegisterRoutes registers settlement routes on the given group
func (h *SettlementHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/baixas", h.Submit)
}
