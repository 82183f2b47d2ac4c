package handlers

import (
	"net/http"

	"goyo-backend/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// EscritoHandler handles HTTP requests for document templates
type EscritoHandler struct {
	escritoService *service.EscritoService
	logger         *zap.Logger
}

// NewEscritoHandler creates a new escrito handler
func NewEscritoHandler(escritoService *service.EscritoService, logger *zap.Logger) *EscritoHandler {
	return &EscritoHandler{
		escritoService: escritoService,
		logger:         logger,
	}
}

// CreateTemplateRequest is the request body for a new template
type CreateTemplateRequest struct {
	Nombre            string `json:"nombre" binding:"required"`
	Tipo              string `json:"tipo"`
	ContenidoTemplate string `json:"contenido_template" binding:"required"`
}

// CreateTemplate handles POST /api/v1/escritos
func (h *EscritoHandler) CreateTemplate(c *gin.Context) {
	var req CreateTemplateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
		return
	}

	escrito, err := h.escritoService.CreateTemplate(c.Request.Context(), service.CreateTemplateRequest{
		Nombre:            req.Nombre,
		Tipo:              req.Tipo,
		ContenidoTemplate: req.ContenidoTemplate,
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, http.StatusCreated, escrito)
}

// GetTemplate handles GET /api/v1/escritos/:id
func (h *EscritoHandler) GetTemplate(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		respondError(c, http.StatusBadRequest, "INVALID_REQUEST", "invalid id")
		return
	}

	escrito, err := h.escritoService.GetTemplate(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, http.StatusOK, escrito)
}

// ListTemplates handles GET /api/v1/escritos
func (h *EscritoHandler) ListTemplates(c *gin.Context) {
	escritos, err := h.escritoService.ListTemplates(c.Request.Context(), c.Query("tipo"))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, http.StatusOK, gin.H{
		"escritos": escritos,
		"total":    len(escritos),
	})
}
