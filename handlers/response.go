package handlers

import (
	"errors"
	"net/http"

	"goyo-backend/service"

	"github.com/gin-gonic/gin"
)

// respondOK writes the standard success envelope
func respondOK(c *gin.Context, status int, data any) {
	c.JSON(status, gin.H{
		"success": true,
		"data":    data,
	})
}

// respondError writes the standard error envelope
func respondError(c *gin.Context, status int, code, message string) {
	c.JSON(status, gin.H{
		"success": false,
		"error": gin.H{
			"code":    code,
			"message": message,
		},
	})
}

// respondServiceError maps domain sentinels to HTTP statuses. Anything
// unrecognized is a 500 with the error text withheld from the client.
func respondServiceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrValidation):
		respondError(c, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
	case errors.Is(err, service.ErrSentenciaNotFound):
		respondError(c, http.StatusNotFound, "SENTENCIA_NOT_FOUND", err.Error())
	case errors.Is(err, service.ErrExpedienteNotFound):
		respondError(c, http.StatusNotFound, "EXPEDIENTE_NOT_FOUND", err.Error())
	case errors.Is(err, service.ErrDocumentoNotFound):
		respondError(c, http.StatusNotFound, "DOCUMENTO_NOT_FOUND", err.Error())
	case errors.Is(err, service.ErrEscritoNotFound):
		respondError(c, http.StatusNotFound, "ESCRITO_NOT_FOUND", err.Error())
	case errors.Is(err, service.ErrJobNotFound):
		respondError(c, http.StatusNotFound, "JOB_NOT_FOUND", err.Error())
	case errors.Is(err, service.ErrVectorizerUnavailable):
		respondError(c, http.StatusServiceUnavailable, "VECTORIZER_UNAVAILABLE", err.Error())
	case errors.Is(err, service.ErrNoSimilarSentencias):
		respondError(c, http.StatusUnprocessableEntity, "NO_SIMILAR_SENTENCIAS", err.Error())
	default:
		respondError(c, http.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
	}
}
