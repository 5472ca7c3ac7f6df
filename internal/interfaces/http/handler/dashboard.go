package handler

import (
	"github.com/cobranca/backend/internal/application/dashboard"
	"github.com/cobranca/backend/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
)

// DashboardHandler exposes the receivables dashboards. Searches are POSTs:
// the filter criteria are too structured for query strings.
type DashboardHandler struct {
	BaseHandler
	service *dashboard.Service
}

// NewDashboardHandler creates a new DashboardHandler
func NewDashboardHandler(service *dashboard.Service) *DashboardHandler {
	return &DashboardHandler{service: service}
}

// SearchClients returns the client-grouped dashboard view
func (h *DashboardHandler) SearchClients(c *gin.Context) {
	var req dashboard.SearchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}

	view, err := h.service.SearchClients(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, view)
}

// SearchInvoices returns the flat invoice-level dashboard view
func (h *DashboardHandler) SearchInvoices(c *gin.Context) {
	var req dashboard.SearchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}

	view, err := h.service.SearchInvoices(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, view)
}

// RegisterRoutes registers dashboard routes on the given group
func (h *DashboardHandler) RegisterRoutes(rg *gin.RouterGroup) {
	dash := rg.Group("/dashboard")
	{
		dash.POST("/clientes", h.SearchClients)
		dash.POST("/faturas", h.SearchInvoices)
	}
}
