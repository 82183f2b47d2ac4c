package handlers

import (
	"net/http"
	"strconv"

	"goyo-backend/models"
	"goyo-backend/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// SentenciaHandler handles HTTP requests for the jurisprudence corpus
type SentenciaHandler struct {
	sentenciaService *service.SentenciaService
	importService    *service.ImportService
	logger           *zap.Logger
}

// NewSentenciaHandler creates a new sentencia handler
func NewSentenciaHandler(sentenciaService *service.SentenciaService, importService *service.ImportService, logger *zap.Logger) *SentenciaHandler {
	return &SentenciaHandler{
		sentenciaService: sentenciaService,
		importService:    importService,
		logger:           logger,
	}
}

// CreateSentenciaRequest is the request body for adding a ruling
type CreateSentenciaRequest struct {
	Tribunal   string       `json:"tribunal" binding:"required"`
	Fecha      models.Fecha `json:"fecha" binding:"required"`
	Materia    string       `json:"materia"`
	Partes     string       `json:"partes"`
	Expediente string       `json:"expediente" binding:"required"`
	FullText   string       `json:"full_text" binding:"required"`
	URL        *string      `json:"url"`
	Resultado  string       `json:"resultado"`
}

// CreateSentencia handles POST /api/v1/sentencias
func (h *SentenciaHandler) CreateSentencia(c *gin.Context) {
	var req CreateSentenciaRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
		return
	}

	sentencia, err := h.sentenciaService.Create(c.Request.Context(), service.CreateSentenciaRequest{
		Tribunal:   req.Tribunal,
		Fecha:      req.Fecha,
		Materia:    req.Materia,
		Partes:     req.Partes,
		Expediente: req.Expediente,
		FullText:   req.FullText,
		URL:        req.URL,
		Resultado:  req.Resultado,
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}

	respondOK(c, http.StatusCreated, sentencia)
}

// GetSentencia handles GET /api/v1/sentencias/:id
func (h *SentenciaHandler) GetSentencia(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	sentencia, err := h.sentenciaService.Get(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, http.StatusOK, sentencia)
}

// ListSentencias handles GET /api/v1/sentencias
func (h *SentenciaHandler) ListSentencias(c *gin.Context) {
	filter := models.SentenciaFilter{
		Tribunal: c.Query("tribunal"),
		Materia:  c.Query("materia"),
	}
	fechaDesde, ok := parseFecha(c, "fecha_desde", c.Query("fecha_desde"))
	if !ok {
		return
	}
	fechaHasta, ok := parseFecha(c, "fecha_hasta", c.Query("fecha_hasta"))
	if !ok {
		return
	}
	filter.FechaDesde = fechaDesde
	filter.FechaHasta = fechaHasta

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	sentencias, total, err := h.sentenciaService.List(c.Request.Context(), filter, limit, offset)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	respondOK(c, http.StatusOK, gin.H{
		"sentencias": sentencias,
		"total":      total,
		"limit":      limit,
		"offset":     offset,
	})
}

// UpdateSentenciaRequest is the request body for editing a ruling
type UpdateSentenciaRequest struct {
	Tribunal   *string       `json:"tribunal"`
	Fecha      *models.Fecha `json:"fecha"`
	Materia    *string       `json:"materia"`
	Partes     *string       `json:"partes"`
	Expediente *string       `json:"expediente"`
	FullText   *string       `json:"full_text"`
	URL        *string       `json:"url"`
	Resultado  *string       `json:"resultado"`
}

// UpdateSentencia handles PUT /api/v1/sentencias/:id
func (h *SentenciaHandler) UpdateSentencia(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	var req UpdateSentenciaRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
		return
	}

	sentencia, err := h.sentenciaService.Update(c.Request.Context(), id, service.UpdateSentenciaRequest{
		Tribunal:   req.Tribunal,
		Fecha:      req.Fecha,
		Materia:    req.Materia,
		Partes:     req.Partes,
		Expediente: req.Expediente,
		FullText:   req.FullText,
		URL:        req.URL,
		Resultado:  req.Resultado,
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, http.StatusOK, sentencia)
}

// DeleteSentencia handles DELETE /api/v1/sentencias/:id
func (h *SentenciaHandler) DeleteSentencia(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	if err := h.sentenciaService.Delete(c.Request.Context(), id); err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, http.StatusOK, gin.H{"deleted": id})
}

// GetTribunales handles GET /api/v1/sentencias/tribunales
func (h *SentenciaHandler) GetTribunales(c *gin.Context) {
	tribunales, err := h.sentenciaService.Tribunales(c.Request.Context())
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, http.StatusOK, gin.H{"tribunales": tribunales})
}

// GetMaterias handles GET /api/v1/sentencias/materias
func (h *SentenciaHandler) GetMaterias(c *gin.Context) {
	materias, err := h.sentenciaService.Materias(c.Request.Context())
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, http.StatusOK, gin.H{"materias": materias})
}

// GetStats handles GET /api/v1/sentencias/stats
func (h *SentenciaHandler) GetStats(c *gin.Context) {
	stats, err := h.sentenciaService.Stats(c.Request.Context())
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, http.StatusOK, stats)
}

// BulkImportRequest optionally overrides the corpus file to import
type BulkImportRequest struct {
	Archivo string `json:"archivo"`
}

// BulkImport handles POST /api/v1/sentencias/bulk-import. The import runs
// in the background; the response carries the job to poll.
func (h *SentenciaHandler) BulkImport(c *gin.Context) {
	var req BulkImportRequest
	// Body is optional; an empty one imports the configured corpus file.
	_ = c.ShouldBindJSON(&req)

	job, err := h.importService.StartBulkImport(c.Request.Context(), req.Archivo)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	respondOK(c, http.StatusAccepted, gin.H{
		"job_id": job.ID,
		"status": job.Status,
		"total":  job.Total,
	})
}

// UpdateEmbeddings handles POST /api/v1/sentencias/update-embeddings
func (h *SentenciaHandler) UpdateEmbeddings(c *gin.Context) {
	job, err := h.importService.StartUpdateEmbeddings(c.Request.Context())
	if err != nil {
		respondServiceError(c, err)
		return
	}

	respondOK(c, http.StatusAccepted, gin.H{
		"job_id": job.ID,
		"status": job.Status,
		"total":  job.Total,
	})
}

// parseID parses the :id path parameter, answering 400 itself on failure
func parseID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		respondError(c, http.StatusBadRequest, "INVALID_REQUEST", "invalid id")
		return uuid.Nil, false
	}
	return id, true
}
