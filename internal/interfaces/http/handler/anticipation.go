package handler

import (
	"time"

	"github.com/cobranca/backend/internal/application/dashboard"
	"github.com/cobranca/backend/internal/domain/receivable"
	"github.com/cobranca/backend/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

// AnticipationHandler registers invoices as anticipated at a bank and
// lists the registered events for the audit dashboard.
type AnticipationHandler struct {
	BaseHandler
	service *dashboard.AnticipationService
}

// NewAnticipationHandler creates a new AnticipationHandler
func NewAnticipationHandler(service *dashboard.AnticipationService) *AnticipationHandler {
	return &AnticipationHandler{service: service}
}

// AnticipationInvoice identifies one invoice in a registration batch
type AnticipationInvoice struct {
	CodigoCliente  string          `json:"codigo_cliente" binding:"required"`
	NumeroFatura   string          `json:"numero_fatura" binding:"required"`
	Parcela        string          `json:"parcela"`
	ValorFatura    decimal.Decimal `json:"vl_fatura"`
	DataVencimento *time.Time      `json:"data_vencimento"`
}

// RegisterAnticipationRequest registers a batch of invoices at one bank
type RegisterAnticipationRequest struct {
	Banco   string                `json:"banco" binding:"required"`
	Faturas []AnticipationInvoice `json:"faturas" binding:"required,min=1,dive"`
}

// Register marks the selected invoices as anticipated at the chosen bank.
// Re-registering under another bank reassigns the invoice.
func (h *AnticipationHandler) Register(c *gin.Context) {
	var req RegisterAnticipationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}

	author, err := getAuthor(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	invoices := make([]receivable.InvoiceRecord, 0, len(req.Faturas))
	for _, f := range req.Faturas {
		invoices = append(invoices, receivable.InvoiceRecord{
			CodigoCliente:  f.CodigoCliente,
			NumeroFatura:   f.NumeroFatura,
			Parcela:        f.Parcela,
			ValorFatura:    f.ValorFatura,
			DataVencimento: f.DataVencimento,
		})
	}

	events, err := h.service.Register(c.Request.Context(), invoices, req.Banco, author.Name)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, events)
}

// List returns every registered anticipation event
func (h *AnticipationHandler) List(c *gin.Context) {
	events, err := h.service.List(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, events)
}

// RegisterRoutes registers anticipation routes on the given group
func (h *AnticipationHandler) RegisterRoutes(rg *gin.RouterGroup) {
	ant := rg.Group("/antecipacoes")
	{
		ant.POST("", h.Register)
		ant.GET("", h.List)
	}
}
