package handlers

import (
	"net/http"
	"strconv"

	"goyo-backend/models"
	"goyo-backend/service"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// ExpedienteHandler handles HTTP requests for case files
type ExpedienteHandler struct {
	expedienteService *service.ExpedienteService
	analysisService   *service.AnalysisService
	logger            *zap.Logger
}

// NewExpedienteHandler creates a new expediente handler
func NewExpedienteHandler(expedienteService *service.ExpedienteService, analysisService *service.AnalysisService, logger *zap.Logger) *ExpedienteHandler {
	return &ExpedienteHandler{
		expedienteService: expedienteService,
		analysisService:   analysisService,
		logger:            logger,
	}
}

// CreateExpedienteRequest is the request body for opening a case file
type CreateExpedienteRequest struct {
	Numero   string `json:"numero" binding:"required"`
	Tribunal string `json:"tribunal"`
	Materia  string `json:"materia"`
	Partes   string `json:"partes"`
}

// CreateExpediente handles POST /api/v1/expedientes
func (h *ExpedienteHandler) CreateExpediente(c *gin.Context) {
	var req CreateExpedienteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
		return
	}

	expediente, err := h.expedienteService.Create(c.Request.Context(), service.CreateExpedienteRequest{
		Numero:   req.Numero,
		Tribunal: req.Tribunal,
		Materia:  req.Materia,
		Partes:   req.Partes,
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, http.StatusCreated, expediente)
}

// GetExpediente handles GET /api/v1/expedientes/:id
func (h *ExpedienteHandler) GetExpediente(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	expediente, err := h.expedienteService.Get(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, http.StatusOK, expediente)
}

// ListExpedientes handles GET /api/v1/expedientes
func (h *ExpedienteHandler) ListExpedientes(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	expedientes, err := h.expedienteService.List(c.Request.Context(), limit, offset)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	respondOK(c, http.StatusOK, gin.H{
		"expedientes": expedientes,
		"limit":       limit,
		"offset":      offset,
	})
}

// UpdateExpedienteRequest is the request body for editing a case file
type UpdateExpedienteRequest struct {
	Numero   *string                  `json:"numero"`
	Tribunal *string                  `json:"tribunal"`
	Materia  *string                  `json:"materia"`
	Partes   *string                  `json:"partes"`
	Estado   *models.EstadoExpediente `json:"estado"`
}

// UpdateExpediente handles PUT /api/v1/expedientes/:id
func (h *ExpedienteHandler) UpdateExpediente(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	var req UpdateExpedienteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
		return
	}

	expediente, err := h.expedienteService.Update(c.Request.Context(), id, service.UpdateExpedienteRequest{
		Numero:   req.Numero,
		Tribunal: req.Tribunal,
		Materia:  req.Materia,
		Partes:   req.Partes,
		Estado:   req.Estado,
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, http.StatusOK, expediente)
}

// DeleteExpediente handles DELETE /api/v1/expedientes/:id (soft delete)
func (h *ExpedienteHandler) DeleteExpediente(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	if err := h.expedienteService.Delete(c.Request.Context(), id); err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, http.StatusOK, gin.H{"deleted": id})
}

// AddDocumentoRequest is the request body for attaching a document
type AddDocumentoRequest struct {
	TipoDocumento string       `json:"tipo_documento" binding:"required"`
	Contenido     string       `json:"contenido" binding:"required"`
	FechaCreacion models.Fecha `json:"fecha_creacion"`
}

// AddDocumento handles POST /api/v1/expedientes/:id/documentos
func (h *ExpedienteHandler) AddDocumento(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	var req AddDocumentoRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
		return
	}

	documento, err := h.expedienteService.AddDocumento(c.Request.Context(), id, service.AddDocumentoRequest{
		TipoDocumento: req.TipoDocumento,
		Contenido:     req.Contenido,
		FechaCreacion: req.FechaCreacion,
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, http.StatusCreated, documento)
}

// ListDocumentos handles GET /api/v1/expedientes/:id/documentos
func (h *ExpedienteHandler) ListDocumentos(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	documentos, err := h.expedienteService.ListDocumentos(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, http.StatusOK, gin.H{"documentos": documentos})
}

// UpdateDocumentoRequest is the request body for editing a document
type UpdateDocumentoRequest struct {
	TipoDocumento *string `json:"tipo_documento"`
	Contenido     *string `json:"contenido"`
}

// UpdateDocumento handles PUT /api/v1/documentos/:id
func (h *ExpedienteHandler) UpdateDocumento(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	var req UpdateDocumentoRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
		return
	}

	documento, err := h.expedienteService.UpdateDocumento(c.Request.Context(), id, service.UpdateDocumentoRequest{
		TipoDocumento: req.TipoDocumento,
		Contenido:     req.Contenido,
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, http.StatusOK, documento)
}

// ListPredicciones handles GET /api/v1/expedientes/:id/predicciones
func (h *ExpedienteHandler) ListPredicciones(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	predicciones, err := h.analysisService.ListPredicciones(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, http.StatusOK, gin.H{"predicciones": predicciones})
}
