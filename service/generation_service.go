package service

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"
)

// generatorUnavailable is the degraded answer when no generator is configured
const generatorUnavailable = "Generador de texto no disponible"

// GenerationService wraps the narrative generation operations: free-form
// text, arbitration awards, translations, summaries and legal arguments.
// Every operation degrades to an explicit fallback string when the
// generator is unreachable; none of them invent legal content locally.
type GenerationService struct {
	generator TextGenerator
	logger    *zap.Logger
}

// GenerationServiceOption is a functional option for GenerationService
type GenerationServiceOption func(*GenerationService)

// GenerationWithGenerator sets the text generator
func GenerationWithGenerator(generator TextGenerator) GenerationServiceOption {
	return func(s *GenerationService) {
		s.generator = generator
	}
}

// GenerationWithLogger sets the logger
func GenerationWithLogger(logger *zap.Logger) GenerationServiceOption {
	return func(s *GenerationService) {
		s.logger = logger
	}
}

// NewGenerationService creates a new generation service
func NewGenerationService(opts ...GenerationServiceOption) *GenerationService {
	s := &GenerationService{logger: zap.NewNop()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// GenerarTexto generates free-form text for a prompt
func (s *GenerationService) GenerarTexto(ctx context.Context, prompt string) (string, error) {
	if strings.TrimSpace(prompt) == "" {
		return "", fmt.Errorf("%w: prompt is required", ErrValidation)
	}
	return s.generate(ctx, prompt, 1000), nil
}

// LaudoRequest asks for an arbitration award
type LaudoRequest struct {
	TipoDisputa string
	Materia     string
	Detalles    string
}

// LaudoResult is a generated arbitration award
type LaudoResult struct {
	Laudo           string
	Fundamento      string
	Recomendaciones []string
}

// GenerarLaudo generates an arbitration award with its legal grounding and
// recommendations for the parties.
func (s *GenerationService) GenerarLaudo(ctx context.Context, req LaudoRequest) (*LaudoResult, error) {
	if strings.TrimSpace(req.Materia) == "" {
		return nil, fmt.Errorf("%w: materia is required", ErrValidation)
	}
	tipo := req.TipoDisputa
	if tipo == "" {
		tipo = "comercial"
	}

	prompt := fmt.Sprintf(`Actúa como árbitro imparcial y genera un laudo arbitral profesional sobre %s de tipo %s.

Detalles específicos: %s

El laudo debe incluir:
- Encabezado del tribunal arbitral
- Resumen de la disputa
- Análisis de los hechos
- Fundamentos jurídicos
- Decisión arbitral
- Firma del árbitro

Usa lenguaje jurídico formal y técnico apropiado para arbitraje.`, req.Materia, tipo, req.Detalles)

	laudo := s.generate(ctx, prompt, 800)

	fundamento := s.generate(ctx, fmt.Sprintf(`Fundamenta legalmente el laudo generado:

%s

Proporciona el fundamento legal:`, laudo), 400)

	recomendaciones := splitLines(s.generate(ctx, fmt.Sprintf(`Basándote en el laudo, genera recomendaciones para las partes:

%s

Recomendaciones:`, laudo), 300))

	return &LaudoResult{
		Laudo:           strings.TrimSpace(laudo),
		Fundamento:      strings.TrimSpace(fundamento),
		Recomendaciones: recomendaciones,
	}, nil
}

// TraduccionRequest asks for a legal translation
type TraduccionRequest struct {
	Texto         string
	IdiomaOrigen  string
	IdiomaDestino string
}

// Traducir translates legal text preserving its technical register
func (s *GenerationService) Traducir(ctx context.Context, req TraduccionRequest) (string, error) {
	if strings.TrimSpace(req.Texto) == "" {
		return "", fmt.Errorf("%w: texto is required", ErrValidation)
	}
	origen := req.IdiomaOrigen
	if origen == "" {
		origen = "es"
	}
	destino := req.IdiomaDestino
	if destino == "" {
		destino = "en"
	}

	prompt := fmt.Sprintf(`Traduce el siguiente texto legal del %s al %s.
Mantén el lenguaje jurídico formal y técnico.
Preserva el significado legal exacto.

Texto a traducir:
%s`, origen, destino, req.Texto)

	return s.generate(ctx, prompt, 1000), nil
}

// ResumenRequest asks for a summary tuned to the reader's expertise
type ResumenRequest struct {
	Texto         string
	TipoDocumento string
	NivelTecnico  string // cliente, abogado or juez
}

// ResumenResult is a generated summary with its key points
type ResumenResult struct {
	Resumen      string
	PuntosClave  []string
	NivelTecnico string
}

// Resumen summarizes legal text at the requested technical level
func (s *GenerationService) Resumen(ctx context.Context, req ResumenRequest) (*ResumenResult, error) {
	if strings.TrimSpace(req.Texto) == "" {
		return nil, fmt.Errorf("%w: texto is required", ErrValidation)
	}

	instrucciones := map[string]string{
		"cliente": "Genera un resumen simple y comprensible para un cliente sin formación legal",
		"abogado": "Genera un resumen técnico para profesionales del derecho",
		"juez":    "Genera un resumen ejecutivo para magistrados",
	}
	nivel := req.NivelTecnico
	instruccion, ok := instrucciones[nivel]
	if !ok {
		nivel = "cliente"
		instruccion = instrucciones[nivel]
	}

	tipo := req.TipoDocumento
	if tipo == "" {
		tipo = "documento legal"
	}

	resumen := s.generate(ctx, fmt.Sprintf(`%s del siguiente %s:

%s

Resumen:`, instruccion, tipo, req.Texto), 400)

	puntos := splitLines(s.generate(ctx, fmt.Sprintf(`Extrae los puntos clave del siguiente resumen:

%s

Puntos clave:`, resumen), 200))

	return &ResumenResult{
		Resumen:      strings.TrimSpace(resumen),
		PuntosClave:  puntos,
		NivelTecnico: nivel,
	}, nil
}

// ArgumentadorRequest asks for legal arguments around a set of facts
type ArgumentadorRequest struct {
	Hechos         string
	Jurisprudencia []string
	Legislacion    []string
	TipoArgumento  string // defensa or ataque
}

// ArgumentosResult is a generated argument set with its grounding
type ArgumentosResult struct {
	Argumentos []string
	Fundamento string
	Confianza  float64
}

// Argumentador generates defense or attack arguments from facts,
// jurisprudence and legislation. Confidence grows with the number of
// distinct arguments produced, capped at 1.
func (s *GenerationService) Argumentador(ctx context.Context, req ArgumentadorRequest) (*ArgumentosResult, error) {
	if strings.TrimSpace(req.Hechos) == "" {
		return nil, fmt.Errorf("%w: hechos is required", ErrValidation)
	}
	tipo := req.TipoArgumento
	if tipo != "defensa" && tipo != "ataque" {
		return nil, fmt.Errorf("%w: tipo_argumento must be defensa or ataque", ErrValidation)
	}

	prompt := fmt.Sprintf(`Genera argumentos legales de %s basándote en los siguientes elementos:

HECHOS:
%s

JURISPRUDENCIA:
%s

LEGISLACIÓN:
%s

Genera argumentos sólidos, fundamentados y legalmente correctos:`,
		tipo, req.Hechos, strings.Join(req.Jurisprudencia, "\n"), strings.Join(req.Legislacion, "\n"))

	argumentos := splitLines(s.generate(ctx, prompt, 600))

	top := argumentos
	if len(top) > 3 {
		top = top[:3]
	}
	fundamento := s.generate(ctx, fmt.Sprintf(`Basándote en los argumentos generados, proporciona un fundamento legal sólido:

%s

Fundamenta legalmente estos argumentos:`, strings.Join(top, "\n")), 300)

	confianza := float64(len(argumentos)) / 5
	if confianza > 1 {
		confianza = 1
	}

	return &ArgumentosResult{
		Argumentos: argumentos,
		Fundamento: strings.TrimSpace(fundamento),
		Confianza:  float64(int(confianza*1000)) / 1000,
	}, nil
}

// generate calls the generator and degrades to fixed fallback strings,
// mirroring how the rest of the pipeline keeps serving without it.
func (s *GenerationService) generate(ctx context.Context, prompt string, maxTokens int) string {
	if s.generator == nil || !s.generator.Available() {
		return generatorUnavailable
	}

	texto, err := s.generator.Generate(ctx, prompt, maxTokens)
	if err != nil {
		s.logger.Error("text generation failed", zap.Error(err))
		return "Error generando texto"
	}
	return texto
}

// splitLines breaks generated text into trimmed non-empty lines
func splitLines(text string) []string {
	var lines []string
	for _, line := range strings.Split(text, "\n") {
		if trimmed := strings.TrimSpace(line); trimmed != "" {
			lines = append(lines, trimmed)
		}
	}
	return lines
}
