package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"goyo-backend/ai"
	"goyo-backend/models"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// analysisCandidates is how many similar rulings ground an analysis
const analysisCandidates = 20

// fundamentoFallback is returned when narrative generation is unavailable
const fundamentoFallback = "Fundamento generado automáticamente basado en jurisprudencia similar."

// TextGenerator produces narrative text from prompts
type TextGenerator interface {
	Available() bool
	Generate(ctx context.Context, prompt string, maxTokens int) (string, error)
}

// PrediccionStore persists prediction records
type PrediccionStore interface {
	Create(ctx context.Context, p *models.Prediccion) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Prediccion, error)
	ListByExpediente(ctx context.Context, expedienteID uuid.UUID) ([]*models.Prediccion, error)
}

// JurisprudenceSearcher ranks the corpus against a free-text query
type JurisprudenceSearcher interface {
	Search(ctx context.Context, req SearchRequest) ([]SearchResult, error)
}

// AnalysisService runs the predictive pipeline: retrieve similar rulings,
// estimate the favorable probability and confidence, classify the likely
// outcome and persist the resulting prediction.
type AnalysisService struct {
	searcher       JurisprudenceSearcher
	expedienteRepo ExpedienteStore
	prediccionRepo PrediccionStore
	embedder       Embedder
	generator      TextGenerator
	logger         *zap.Logger
	now            func() time.Time
}

// AnalysisServiceOption is a functional option for AnalysisService
type AnalysisServiceOption func(*AnalysisService)

// AnalysisWithSearcher sets the jurisprudence searcher
func AnalysisWithSearcher(searcher JurisprudenceSearcher) AnalysisServiceOption {
	return func(s *AnalysisService) {
		s.searcher = searcher
	}
}

// AnalysisWithExpedienteStore sets the case file store
func AnalysisWithExpedienteStore(repo ExpedienteStore) AnalysisServiceOption {
	return func(s *AnalysisService) {
		s.expedienteRepo = repo
	}
}

// AnalysisWithPrediccionStore sets the prediction store
func AnalysisWithPrediccionStore(repo PrediccionStore) AnalysisServiceOption {
	return func(s *AnalysisService) {
		s.prediccionRepo = repo
	}
}

// AnalysisWithEmbedder sets the vectorizer/classifier models
func AnalysisWithEmbedder(embedder Embedder) AnalysisServiceOption {
	return func(s *AnalysisService) {
		s.embedder = embedder
	}
}

// AnalysisWithGenerator sets the narrative text generator
func AnalysisWithGenerator(generator TextGenerator) AnalysisServiceOption {
	return func(s *AnalysisService) {
		s.generator = generator
	}
}

// AnalysisWithLogger sets the logger
func AnalysisWithLogger(logger *zap.Logger) AnalysisServiceOption {
	return func(s *AnalysisService) {
		s.logger = logger
	}
}

// AnalysisWithClock overrides the clock, for tests
func AnalysisWithClock(now func() time.Time) AnalysisServiceOption {
	return func(s *AnalysisService) {
		s.now = now
	}
}

// NewAnalysisService creates a new analysis service
func NewAnalysisService(opts ...AnalysisServiceOption) *AnalysisService {
	s := &AnalysisService{
		logger: zap.NewNop(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// PrediccionSentenciaRequest is a standalone outcome classification request
type PrediccionSentenciaRequest struct {
	TextoDemanda string
	TipoDemanda  string
	Jurisdiccion string
	ConSentencia bool // also draft the full ruling text
}

// PrediccionSentenciaResult is the outcome classification answer. When the
// classifier is not loaded Prediccion carries the unavailable label and
// zero confidence; the call still succeeds.
type PrediccionSentenciaResult struct {
	Prediccion               string
	ProbabilidadFavorable    float64 // percentage
	ProbabilidadDesfavorable float64 // percentage
	Confianza                float64 // percentage
	SentenciaCompleta        string
	TextoExtraido            string
	NumeroPalabras           int
}

// PrediccionSentencia classifies a claim text and optionally drafts the
// full ruling a judge would write for the predicted outcome.
func (s *AnalysisService) PrediccionSentencia(ctx context.Context, req PrediccionSentenciaRequest) (*PrediccionSentenciaResult, error) {
	if strings.TrimSpace(req.TextoDemanda) == "" {
		return nil, fmt.Errorf("%w: texto_demanda is required", ErrValidation)
	}

	result := &PrediccionSentenciaResult{
		Prediccion:            ai.LabelUnavailable,
		ProbabilidadFavorable: 50,
		TextoExtraido:         extracto(req.TextoDemanda),
		NumeroPalabras:        len(strings.Fields(req.TextoDemanda)),
	}

	if s.embedder == nil || !s.embedder.VectorizerReady() || !s.embedder.ClassifierReady() {
		result.ProbabilidadDesfavorable = 50
		return result, nil
	}

	vec, err := s.embedder.Vectorize(req.TextoDemanda)
	if err != nil {
		return nil, err
	}

	outcome := s.embedder.Classify(vec)
	result.Prediccion = outcome.Label
	result.ProbabilidadFavorable = round1(outcome.Confidence * 100)
	result.ProbabilidadDesfavorable = round1(100 - result.ProbabilidadFavorable)
	result.Confianza = round1(outcome.Confidence * 100)

	if req.ConSentencia {
		result.SentenciaCompleta = s.draftSentencia(ctx, req, outcome)
	}

	return result, nil
}

// draftSentencia asks the generator to write the full ruling text. Failure
// degrades to an explanatory placeholder, never an error.
func (s *AnalysisService) draftSentencia(ctx context.Context, req PrediccionSentenciaRequest, outcome ai.Outcome) string {
	if s.generator == nil || !s.generator.Available() {
		return "Generador no disponible para redactar la sentencia completa"
	}

	var resultado, decision string
	switch outcome.Label {
	case "favorable", "gana", "acepta":
		resultado = "FAVORABLE"
		decision = "acepta la demanda"
	case "desfavorable", "pierde", "rechaza":
		resultado = "DESFAVORABLE"
		decision = "rechaza la demanda"
	default:
		resultado = "PARCIALMENTE FAVORABLE"
		decision = "acepta parcialmente la demanda"
	}

	tipo := strings.ReplaceAll(req.TipoDemanda, "_", " ")
	prompt := fmt.Sprintf(`Eres un juez experto en derecho %s en jurisdicción %s.
Basándote en la siguiente demanda, escribe una sentencia completa y profesional como la que emitiría un juez real.

DEMANDA:
%s

RESULTADO PREDICHO: %s (Probabilidad: %.1f%%)
DECISIÓN: el tribunal %s

Estructura la sentencia con:
1. ENCABEZADO: "SENTENCIA"
2. VISTOS: Resumen de los hechos y pretensiones
3. CONSIDERANDOS: Análisis jurídico y fundamentos legales
4. RESUELVE: Decisión final clara y específica
5. FIRMA: "Por tanto, se resuelve"

Usa lenguaje jurídico formal, cita artículos relevantes del Código Civil/Comercial según corresponda, y mantén un tono profesional y objetivo.
La sentencia debe ser coherente con el resultado predicho y reflejar un análisis jurídico sólido.`,
		tipo, req.Jurisdiccion, truncate(req.TextoDemanda, 2000), resultado, outcome.Confidence*100, decision)

	texto, err := s.generator.Generate(ctx, prompt, 2000)
	if err != nil {
		s.logger.Error("failed to draft sentencia", zap.Error(err))
		return "Error generando sentencia"
	}
	return texto
}

// AnalisisPredictivoRequest asks for a grounded prediction on a case
type AnalisisPredictivoRequest struct {
	ExpedienteID     uuid.UUID
	ContenidoDemanda string
	Tribunal         string
	Materia          string
}

// AnalisisPredictivoResult is the grounded prediction with its audit record
type AnalisisPredictivoResult struct {
	Prediccion           *models.Prediccion
	SentenciasFundamento []*models.Sentencia
	Confianza            float64
}

// AnalisisPredictivo predicts the outcome of a case from similar rulings.
// The retrieved rulings drive a deterministic probability and confidence
// estimate; the narrative fundamento comes from the generator with a fixed
// fallback. The prediction is persisted before returning.
func (s *AnalysisService) AnalisisPredictivo(ctx context.Context, req AnalisisPredictivoRequest) (*AnalisisPredictivoResult, error) {
	if s.searcher == nil || s.expedienteRepo == nil || s.prediccionRepo == nil {
		return nil, errors.New("analysis service not fully configured")
	}
	if strings.TrimSpace(req.ContenidoDemanda) == "" {
		return nil, fmt.Errorf("%w: contenido_demanda is required", ErrValidation)
	}

	expediente, err := s.expedienteRepo.GetByID(ctx, req.ExpedienteID)
	if err != nil {
		return nil, notFound(err, ErrExpedienteNotFound)
	}

	// Filters default to the case's own court and matter.
	tribunal := req.Tribunal
	if tribunal == "" {
		tribunal = expediente.Tribunal
	}
	materia := req.Materia
	if materia == "" {
		materia = expediente.Materia
	}

	similares, err := s.searcher.Search(ctx, SearchRequest{
		Consulta: req.ContenidoDemanda,
		Tribunal: tribunal,
		Materia:  materia,
		Limite:   analysisCandidates,
	})
	if err != nil {
		return nil, err
	}
	if len(similares) == 0 {
		return nil, ErrNoSimilarSentencias
	}

	similarities := make([]float64, len(similares))
	fechas := make([]time.Time, len(similares))
	for i, r := range similares {
		similarities[i] = r.Similitud / 100
		fechas[i] = r.Sentencia.Fecha
	}

	probabilidad := ai.EstimateProbability(req.ContenidoDemanda, similarities)
	confianza := ai.EstimateConfidence(s.now(), fechas)

	fundamentoRulings := similares
	if len(fundamentoRulings) > 5 {
		fundamentoRulings = fundamentoRulings[:5]
	}

	sentencias := make([]*models.Sentencia, len(fundamentoRulings))
	ids := make([]uuid.UUID, len(fundamentoRulings))
	for i, r := range fundamentoRulings {
		sentencias[i] = r.Sentencia
		ids[i] = r.Sentencia.ID
	}

	fundamento := s.generarFundamento(ctx, sentencias, req.ContenidoDemanda, probabilidad)

	prediccion := &models.Prediccion{
		ExpedienteID:         req.ExpedienteID,
		SentenciasFundamento: ids,
		ProbabilidadFallo:    probabilidad,
		Fundamento:           fundamento,
		Confianza:            confianza,
	}
	if err := s.prediccionRepo.Create(ctx, prediccion); err != nil {
		return nil, err
	}

	s.logger.Info("predictive analysis completed",
		zap.String("expediente_id", req.ExpedienteID.String()),
		zap.Float64("probabilidad", probabilidad),
		zap.Float64("confianza", confianza),
		zap.Int("fundamento", len(ids)))

	return &AnalisisPredictivoResult{
		Prediccion:           prediccion,
		SentenciasFundamento: sentencias,
		Confianza:            confianza,
	}, nil
}

// ListPredicciones returns the stored predictions of an expediente
func (s *AnalysisService) ListPredicciones(ctx context.Context, expedienteID uuid.UUID) ([]*models.Prediccion, error) {
	if _, err := s.expedienteRepo.GetByID(ctx, expedienteID); err != nil {
		return nil, notFound(err, ErrExpedienteNotFound)
	}
	return s.prediccionRepo.ListByExpediente(ctx, expedienteID)
}

func (s *AnalysisService) generarFundamento(ctx context.Context, sentencias []*models.Sentencia, contenido string, probabilidad float64) string {
	if s.generator == nil || !s.generator.Available() {
		return fundamentoFallback
	}

	var refs []string
	for i, sent := range sentencias {
		if i == 3 {
			break
		}
		refs = append(refs, fmt.Sprintf("- %s: %s (%s)", sent.Tribunal, sent.Materia, sent.Fecha.Format("2006-01-02")))
	}

	prompt := fmt.Sprintf(`Basándote en las siguientes sentencias similares, genera un fundamento legal para una demanda:

Contenido de la demanda: %s
Probabilidad de éxito: %.2f%%

Sentencias de referencia:
%s

Genera un fundamento legal claro y fundamentado:`,
		truncate(contenido, 2000), probabilidad*100, strings.Join(refs, "\n"))

	fundamento, err := s.generator.Generate(ctx, prompt, 300)
	if err != nil {
		s.logger.Error("failed to generate fundamento", zap.Error(err))
		return fundamentoFallback
	}
	return strings.TrimSpace(fundamento)
}

func extracto(s string) string {
	if len([]rune(s)) <= excerptLength {
		return s
	}
	return truncate(s, excerptLength) + "..."
}

func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}

func round1(x float64) float64 {
	return math.Round(x*10) / 10
}
