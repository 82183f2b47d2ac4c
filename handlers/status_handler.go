package handlers

import (
	"net/http"
	"time"

	"goyo-backend/service"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// StatusHandler reports which subsystems are up. Each flag is independent:
// a missing classifier does not hide the corpus count, an unreachable
// generator does not hide the models.
type StatusHandler struct {
	sentenciaService *service.SentenciaService
	embedder         service.Embedder
	generator        service.TextGenerator
	logger           *zap.Logger
	version          string
}

// NewStatusHandler creates a new status handler
func NewStatusHandler(sentenciaService *service.SentenciaService, embedder service.Embedder, generator service.TextGenerator, logger *zap.Logger, version string) *StatusHandler {
	return &StatusHandler{
		sentenciaService: sentenciaService,
		embedder:         embedder,
		generator:        generator,
		logger:           logger,
		version:          version,
	}
}

// GetStatus handles GET /api/v1/status
func (h *StatusHandler) GetStatus(c *gin.Context) {
	var corpus int64
	if stats, err := h.sentenciaService.Stats(c.Request.Context()); err != nil {
		h.logger.Warn("failed to count jurisprudencia for status", zap.Error(err))
	} else {
		corpus = stats.Total
	}

	respondOK(c, http.StatusOK, gin.H{
		"sistema":        "GOYO IA",
		"version":        h.version,
		"vectorizador":   h.embedder != nil && h.embedder.VectorizerReady(),
		"modelo_ml":      h.embedder != nil && h.embedder.ClassifierReady(),
		"groq":           h.generator != nil && h.generator.Available(),
		"jurisprudencia": corpus,
		"timestamp":      time.Now().Format(time.RFC3339),
	})
}
