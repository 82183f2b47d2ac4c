package handlers

import (
	"net/http"
	"time"

	"goyo-backend/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// AIHandler handles HTTP requests for the AI operations
type AIHandler struct {
	analysisService   *service.AnalysisService
	sentenciaService  *service.SentenciaService
	generationService *service.GenerationService
	escritoService    *service.EscritoService
	logger            *zap.Logger
}

// NewAIHandler creates a new AI handler
func NewAIHandler(
	analysisService *service.AnalysisService,
	sentenciaService *service.SentenciaService,
	generationService *service.GenerationService,
	escritoService *service.EscritoService,
	logger *zap.Logger,
) *AIHandler {
	return &AIHandler{
		analysisService:   analysisService,
		sentenciaService:  sentenciaService,
		generationService: generationService,
		escritoService:    escritoService,
		logger:            logger,
	}
}

// PrediccionSentenciaRequest is the request body for outcome prediction
type PrediccionSentenciaRequest struct {
	TextoDemanda string `json:"texto_demanda" binding:"required"`
	TipoDemanda  string `json:"tipo_demanda"`
	Jurisdiccion string `json:"jurisdiccion"`
	ConSentencia bool   `json:"con_sentencia"`
}

// PrediccionSentencia handles POST /api/v1/ai/prediccion-sentencia.
// With no classifier loaded this still answers 200 carrying the
// unavailable sentinel, so clients can distinguish "down" from "wrong".
func (h *AIHandler) PrediccionSentencia(c *gin.Context) {
	var req PrediccionSentenciaRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
		return
	}
	if req.TipoDemanda == "" {
		req.TipoDemanda = "demanda_civil"
	}
	if req.Jurisdiccion == "" {
		req.Jurisdiccion = "federal"
	}

	result, err := h.analysisService.PrediccionSentencia(c.Request.Context(), service.PrediccionSentenciaRequest{
		TextoDemanda: req.TextoDemanda,
		TipoDemanda:  req.TipoDemanda,
		Jurisdiccion: req.Jurisdiccion,
		ConSentencia: req.ConSentencia,
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}

	respondOK(c, http.StatusOK, gin.H{
		"prediccion_sentencia":      result.Prediccion,
		"probabilidad_favorable":    result.ProbabilidadFavorable,
		"probabilidad_desfavorable": result.ProbabilidadDesfavorable,
		"confianza_analisis":        result.Confianza,
		"sentencia_completa":        result.SentenciaCompleta,
		"texto_extraido":            result.TextoExtraido,
		"numero_palabras":           result.NumeroPalabras,
		"tipo_demanda":              req.TipoDemanda,
		"jurisdiccion":              req.Jurisdiccion,
	})
}

// BuscarJurisprudenciaRequest is the request body for corpus search
type BuscarJurisprudenciaRequest struct {
	Consulta   string `json:"consulta" binding:"required"`
	Tribunal   string `json:"tribunal"`
	Materia    string `json:"materia"`
	FechaDesde string `json:"fecha_desde"`
	FechaHasta string `json:"fecha_hasta"`
	Limite     int    `json:"limite"`
}

// BuscarJurisprudencia handles POST /api/v1/ai/buscar-jurisprudencia
func (h *AIHandler) BuscarJurisprudencia(c *gin.Context) {
	var req BuscarJurisprudenciaRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
		return
	}

	fechaDesde, ok := parseFecha(c, "fecha_desde", req.FechaDesde)
	if !ok {
		return
	}
	fechaHasta, ok := parseFecha(c, "fecha_hasta", req.FechaHasta)
	if !ok {
		return
	}

	results, err := h.sentenciaService.Search(c.Request.Context(), service.SearchRequest{
		Consulta:   req.Consulta,
		Tribunal:   req.Tribunal,
		Materia:    req.Materia,
		FechaDesde: fechaDesde,
		FechaHasta: fechaHasta,
		Limite:     req.Limite,
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}

	resultados := make([]gin.H, 0, len(results))
	for _, r := range results {
		resultados = append(resultados, gin.H{
			"id":             r.Sentencia.ID,
			"expediente":     r.Sentencia.Expediente,
			"tribunal":       r.Sentencia.Tribunal,
			"materia":        r.Sentencia.Materia,
			"fecha":          r.Sentencia.Fecha.Format("2006-01-02"),
			"resultado":      r.Sentencia.Resultado,
			"texto":          r.Extracto,
			"similitud":      r.Similitud,
			"palabras_clave": r.PalabrasClave,
		})
	}

	respondOK(c, http.StatusOK, gin.H{
		"resultados": resultados,
		"total":      len(resultados),
	})
}

// AnalisisPredictivoRequest is the request body for grounded case analysis
type AnalisisPredictivoRequest struct {
	ExpedienteID     string `json:"expediente_id" binding:"required"`
	ContenidoDemanda string `json:"contenido_demanda" binding:"required"`
	Tribunal         string `json:"tribunal"`
	Materia          string `json:"materia"`
}

// AnalisisPredictivo handles POST /api/v1/ai/analisis-predictivo
func (h *AIHandler) AnalisisPredictivo(c *gin.Context) {
	var req AnalisisPredictivoRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
		return
	}

	expedienteID, err := uuid.Parse(req.ExpedienteID)
	if err != nil {
		respondError(c, http.StatusBadRequest, "INVALID_REQUEST", "invalid expediente_id")
		return
	}

	result, err := h.analysisService.AnalisisPredictivo(c.Request.Context(), service.AnalisisPredictivoRequest{
		ExpedienteID:     expedienteID,
		ContenidoDemanda: req.ContenidoDemanda,
		Tribunal:         req.Tribunal,
		Materia:          req.Materia,
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}

	fundamento := make([]gin.H, 0, len(result.SentenciasFundamento))
	for _, sent := range result.SentenciasFundamento {
		fundamento = append(fundamento, gin.H{
			"id":         sent.ID,
			"expediente": sent.Expediente,
			"tribunal":   sent.Tribunal,
			"materia":    sent.Materia,
			"fecha":      sent.Fecha.Format("2006-01-02"),
			"resultado":  sent.Resultado,
		})
	}

	respondOK(c, http.StatusOK, gin.H{
		"prediccion_id":         result.Prediccion.ID,
		"probabilidad_fallo":    result.Prediccion.ProbabilidadFallo,
		"fundamento":            result.Prediccion.Fundamento,
		"confianza":             result.Confianza,
		"sentencias_fundamento": fundamento,
	})
}

// GenerarTextoRequest is the request body for free-form generation
type GenerarTextoRequest struct {
	Prompt string `json:"prompt" binding:"required"`
	Tipo   string `json:"tipo"`
}

// GenerarTexto handles POST /api/v1/ai/generar-texto
func (h *AIHandler) GenerarTexto(c *gin.Context) {
	var req GenerarTextoRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
		return
	}
	if req.Tipo == "" {
		req.Tipo = "general"
	}

	texto, err := h.generationService.GenerarTexto(c.Request.Context(), req.Prompt)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	respondOK(c, http.StatusOK, gin.H{
		"texto_generado": texto,
		"tipo":           req.Tipo,
		"timestamp":      time.Now().Format(time.RFC3339),
	})
}

// GenerarLaudoRequest is the request body for arbitration awards
type GenerarLaudoRequest struct {
	TipoDisputa string `json:"tipo_disputa"`
	Materia     string `json:"materia" binding:"required"`
	Detalles    string `json:"detalles"`
}

// GenerarLaudo handles POST /api/v1/ai/generar-laudo
func (h *AIHandler) GenerarLaudo(c *gin.Context) {
	var req GenerarLaudoRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
		return
	}

	result, err := h.generationService.GenerarLaudo(c.Request.Context(), service.LaudoRequest{
		TipoDisputa: req.TipoDisputa,
		Materia:     req.Materia,
		Detalles:    req.Detalles,
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}

	respondOK(c, http.StatusOK, gin.H{
		"laudo_generado":  result.Laudo,
		"fundamento":      result.Fundamento,
		"recomendaciones": result.Recomendaciones,
		"materia":         req.Materia,
		"timestamp":       time.Now().Format(time.RFC3339),
	})
}

// TraducirRequest is the request body for legal translation
type TraducirRequest struct {
	Texto         string `json:"texto" binding:"required"`
	IdiomaOrigen  string `json:"idioma_origen"`
	IdiomaDestino string `json:"idioma_destino"`
}

// Traducir handles POST /api/v1/ai/traducir
func (h *AIHandler) Traducir(c *gin.Context) {
	var req TraducirRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
		return
	}

	traducido, err := h.generationService.Traducir(c.Request.Context(), service.TraduccionRequest{
		Texto:         req.Texto,
		IdiomaOrigen:  req.IdiomaOrigen,
		IdiomaDestino: req.IdiomaDestino,
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}

	respondOK(c, http.StatusOK, gin.H{
		"texto_original":  req.Texto,
		"texto_traducido": traducido,
		"idioma_origen":   defaultStr(req.IdiomaOrigen, "es"),
		"idioma_destino":  defaultStr(req.IdiomaDestino, "en"),
	})
}

// ResumenRequest is the request body for summaries
type ResumenRequest struct {
	Texto         string `json:"texto" binding:"required"`
	TipoDocumento string `json:"tipo_documento"`
	NivelTecnico  string `json:"nivel_tecnico"`
}

// Resumen handles POST /api/v1/ai/resumen
func (h *AIHandler) Resumen(c *gin.Context) {
	var req ResumenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
		return
	}

	result, err := h.generationService.Resumen(c.Request.Context(), service.ResumenRequest{
		Texto:         req.Texto,
		TipoDocumento: req.TipoDocumento,
		NivelTecnico:  req.NivelTecnico,
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}

	respondOK(c, http.StatusOK, gin.H{
		"resumen":       result.Resumen,
		"puntos_clave":  result.PuntosClave,
		"nivel_tecnico": result.NivelTecnico,
	})
}

// ArgumentadorRequest is the request body for argument generation
type ArgumentadorRequest struct {
	Hechos         string   `json:"hechos" binding:"required"`
	Jurisprudencia []string `json:"jurisprudencia"`
	Legislacion    []string `json:"legislacion"`
	TipoArgumento  string   `json:"tipo_argumento" binding:"required"`
}

// Argumentador handles POST /api/v1/ai/argumentador
func (h *AIHandler) Argumentador(c *gin.Context) {
	var req ArgumentadorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
		return
	}

	result, err := h.generationService.Argumentador(c.Request.Context(), service.ArgumentadorRequest{
		Hechos:         req.Hechos,
		Jurisprudencia: req.Jurisprudencia,
		Legislacion:    req.Legislacion,
		TipoArgumento:  req.TipoArgumento,
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}

	respondOK(c, http.StatusOK, gin.H{
		"argumentos": result.Argumentos,
		"fundamento": result.Fundamento,
		"confianza":  result.Confianza,
	})
}

// GenerarEscritoRequest is the request body for template-based documents
type GenerarEscritoRequest struct {
	ExpedienteID         string            `json:"expediente_id" binding:"required"`
	TipoEscrito          string            `json:"tipo_escrito" binding:"required"`
	InformacionAdicional map[string]string `json:"informacion_adicional"`
}

// GenerarEscrito handles POST /api/v1/ai/generar-escrito
func (h *AIHandler) GenerarEscrito(c *gin.Context) {
	var req GenerarEscritoRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
		return
	}

	expedienteID, err := uuid.Parse(req.ExpedienteID)
	if err != nil {
		respondError(c, http.StatusBadRequest, "INVALID_REQUEST", "invalid expediente_id")
		return
	}

	result, err := h.escritoService.GenerarEscrito(c.Request.Context(), service.GenerarEscritoRequest{
		ExpedienteID:         expedienteID,
		TipoEscrito:          req.TipoEscrito,
		InformacionAdicional: req.InformacionAdicional,
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}

	respondOK(c, http.StatusOK, gin.H{
		"contenido":        result.Contenido,
		"tipo_escrito":     result.TipoEscrito,
		"expediente_id":    result.ExpedienteID,
		"documento_id":     result.DocumentoID,
		"fecha_generacion": result.FechaGeneracion.Format(time.RFC3339),
	})
}

// parseFecha answers the 400 itself when the value is malformed
func parseFecha(c *gin.Context, field, value string) (*time.Time, bool) {
	if value == "" {
		return nil, true
	}
	t, err := time.Parse("2006-01-02", value)
	if err != nil {
		respondError(c, http.StatusBadRequest, "INVALID_REQUEST", "invalid "+field)
		return nil, false
	}
	return &t, true
}

func defaultStr(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}
