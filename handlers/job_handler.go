package handlers

import (
	"net/http"

	"goyo-backend/service"

	"github.com/gin-gonic/gin"
)

// JobHandler handles HTTP requests for background job polling
type JobHandler struct {
	importService *service.ImportService
}

// NewJobHandler creates a new job handler
func NewJobHandler(importService *service.ImportService) *JobHandler {
	return &JobHandler{importService: importService}
}

// GetJob handles GET /api/v1/jobs/:id
func (h *JobHandler) GetJob(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	job, err := h.importService.GetJob(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, http.StatusOK, job)
}
