package handler

import (
	"github.com/cobranca/backend/internal/application/dashboard"
	"github.com/cobranca/backend/internal/domain/classification"
	"github.com/cobranca/backend/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
)

// ClassificationHandler exposes the human classification overlay:
// feeling/status annotations, observations and the audit history.
type ClassificationHandler struct {
	BaseHandler
	service *dashboard.ClassificationService
}

// NewClassificationHandler creates a new ClassificationHandler
func NewClassificationHandler(service *dashboard.ClassificationService) *ClassificationHandler {
	return &ClassificationHandler{service: service}
}

// ClassifyRequest is a partial annotation update. Omitted fields are left
// untouched by the upsert.
type ClassifyRequest struct {
	Feeling *string `json:"feeling" binding:"omitempty,oneof=OTIMA BOA NEUTRA RUIM PESSIMA"`
	Status  *string `json:"status" binding:"omitempty,oneof=EM_NEGOCIACAO ACORDO PROTESTO JURIDICO SEM_CONTATO"`
}

// AddObservationRequest carries one free-text note
type AddObservationRequest struct {
	Texto string `json:"texto" binding:"required"`
}

// Classify upserts the feeling/status annotation for a client
func (h *ClassificationHandler) Classify(c *gin.Context) {
	var req ClassifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}

	author, err := getAuthor(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	patch := classification.Patch{}
	if req.Feeling != nil {
		f := classification.Feeling(*req.Feeling)
		patch.Feeling = &f
	}
	if req.Status != nil {
		s := classification.Status(*req.Status)
		patch.Status = &s
	}

	annotation, err := h.service.Classify(c.Request.Context(), c.Param("codigo"), patch, author)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, annotation)
}

// AddObservation appends a note to a client
func (h *ClassificationHandler) AddObservation(c *gin.Context) {
	var req AddObservationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}

	author, err := getAuthor(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	obs, err := h.service.AddObservation(c.Request.Context(), c.Param("codigo"), req.Texto, author)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, obs)
}

// DeleteObservation removes a note. Only the author may delete, and only
// within the grace window; violations come back as 403.
func (h *ClassificationHandler) DeleteObservation(c *gin.Context) {
	author, err := getAuthor(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	if err := h.service.DeleteObservation(c.Request.Context(), c.Param("id"), author); err != nil {
		h.HandleError(c, err)
		return
	}

	h.NoContent(c)
}

// History lists classification audit rows for a client
func (h *ClassificationHandler) History(c *gin.Context) {
	rows, err := h.service.History(c.Request.Context(), c.Param("codigo"))
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, rows)
}

// RegisterRoutes registers classification routes on the given group
func (h *ClassificationHandler) RegisterRoutes(rg *gin.RouterGroup) {
	clientes := rg.Group("/clientes")
	{
		clientes.PUT("/:codigo/classificacao", h.Classify)
		clientes.POST("/:codigo/observacoes", h.AddObservation)
		clientes.GET("/:codigo/historico", h.History)
	}
	rg.DELETE("/observacoes/:id", h.DeleteObservation)
}
