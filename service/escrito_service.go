package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"goyo-backend/models"
	"goyo-backend/storage"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

// enrichThreshold is the minimum substituted length before the generator
// is asked to expand a document.
const enrichThreshold = 500

// EscritoStore is the template persistence surface EscritoService needs
type EscritoStore interface {
	Create(ctx context.Context, e *models.EscritoLegal) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.EscritoLegal, error)
	GetByNombre(ctx context.Context, nombre string) (*models.EscritoLegal, error)
	List(ctx context.Context, tipo string) ([]*models.EscritoLegal, error)
}

// EscritoService generates legal documents from stored templates and
// case data, attaching the result to the expediente.
type EscritoService struct {
	escritoRepo    EscritoStore
	expedienteRepo ExpedienteStore
	embedder       Embedder
	generator      TextGenerator
	archive        storage.Storage
	logger         *zap.Logger
	now            func() time.Time
}

// EscritoServiceOption is a functional option for EscritoService
type EscritoServiceOption func(*EscritoService)

// EscritoWithStore sets the template store
func EscritoWithStore(repo EscritoStore) EscritoServiceOption {
	return func(s *EscritoService) {
		s.escritoRepo = repo
	}
}

// EscritoWithExpedienteStore sets the case file store
func EscritoWithExpedienteStore(repo ExpedienteStore) EscritoServiceOption {
	return func(s *EscritoService) {
		s.expedienteRepo = repo
	}
}

// EscritoWithEmbedder sets the vectorizer models
func EscritoWithEmbedder(embedder Embedder) EscritoServiceOption {
	return func(s *EscritoService) {
		s.embedder = embedder
	}
}

// EscritoWithGenerator sets the text generator
func EscritoWithGenerator(generator TextGenerator) EscritoServiceOption {
	return func(s *EscritoService) {
		s.generator = generator
	}
}

// EscritoWithArchive sets the object store that keeps a copy of every
// generated document
func EscritoWithArchive(archive storage.Storage) EscritoServiceOption {
	return func(s *EscritoService) {
		s.archive = archive
	}
}

// EscritoWithLogger sets the logger
func EscritoWithLogger(logger *zap.Logger) EscritoServiceOption {
	return func(s *EscritoService) {
		s.logger = logger
	}
}

// EscritoWithClock overrides the clock, for tests
func EscritoWithClock(now func() time.Time) EscritoServiceOption {
	return func(s *EscritoService) {
		s.now = now
	}
}

// NewEscritoService creates a new escrito service
func NewEscritoService(opts ...EscritoServiceOption) *EscritoService {
	s := &EscritoService{
		logger: zap.NewNop(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreateTemplateRequest carries a new document template
type CreateTemplateRequest struct {
	Nombre            string
	Tipo              string
	ContenidoTemplate string
}

// CreateTemplate stores a new template, embedding its content when possible
func (s *EscritoService) CreateTemplate(ctx context.Context, req CreateTemplateRequest) (*models.EscritoLegal, error) {
	if s.escritoRepo == nil {
		return nil, errors.New("escrito store not set")
	}
	if strings.TrimSpace(req.Nombre) == "" || strings.TrimSpace(req.ContenidoTemplate) == "" {
		return nil, fmt.Errorf("%w: nombre and contenido_template are required", ErrValidation)
	}

	// Template names are unique; catch the collision before the insert
	// so the caller gets a validation error, not a constraint failure.
	if _, err := s.escritoRepo.GetByNombre(ctx, req.Nombre); err == nil {
		return nil, fmt.Errorf("%w: template %q already exists", ErrValidation, req.Nombre)
	} else if !errors.Is(err, pgx.ErrNoRows) {
		return nil, err
	}

	escrito := &models.EscritoLegal{
		Nombre:            req.Nombre,
		Tipo:              req.Tipo,
		ContenidoTemplate: req.ContenidoTemplate,
	}
	if s.embedder != nil && s.embedder.VectorizerReady() {
		if embedding, err := s.embedder.Vectorize(req.ContenidoTemplate); err == nil {
			escrito.Embedding = embedding
		}
	}

	if err := s.escritoRepo.Create(ctx, escrito); err != nil {
		if uniqueViolation(err) {
			return nil, fmt.Errorf("%w: template %q already exists", ErrValidation, req.Nombre)
		}
		return nil, err
	}
	return escrito, nil
}

// GetTemplate retrieves a single template
func (s *EscritoService) GetTemplate(ctx context.Context, id uuid.UUID) (*models.EscritoLegal, error) {
	escrito, err := s.escritoRepo.GetByID(ctx, id)
	if err != nil {
		return nil, notFound(err, ErrEscritoNotFound)
	}
	return escrito, nil
}

// ListTemplates lists templates, optionally filtered by type
func (s *EscritoService) ListTemplates(ctx context.Context, tipo string) ([]*models.EscritoLegal, error) {
	return s.escritoRepo.List(ctx, tipo)
}

// GenerarEscritoRequest asks for a document generated from a template
type GenerarEscritoRequest struct {
	ExpedienteID         uuid.UUID
	TipoEscrito          string
	InformacionAdicional map[string]string
}

// GenerarEscritoResult is the generated document
type GenerarEscritoResult struct {
	Contenido       string
	TipoEscrito     string
	ExpedienteID    uuid.UUID
	DocumentoID     uuid.UUID
	FechaGeneracion time.Time
}

// GenerarEscrito fills the template for the requested document type with
// case data, expands short results through the generator, and stores the
// document on the expediente.
func (s *EscritoService) GenerarEscrito(ctx context.Context, req GenerarEscritoRequest) (*GenerarEscritoResult, error) {
	if s.escritoRepo == nil || s.expedienteRepo == nil {
		return nil, errors.New("escrito service not fully configured")
	}
	if strings.TrimSpace(req.TipoEscrito) == "" {
		return nil, fmt.Errorf("%w: tipo_escrito is required", ErrValidation)
	}

	expediente, err := s.expedienteRepo.GetByID(ctx, req.ExpedienteID)
	if err != nil {
		return nil, notFound(err, ErrExpedienteNotFound)
	}

	templates, err := s.escritoRepo.List(ctx, req.TipoEscrito)
	if err != nil {
		return nil, err
	}
	if len(templates) == 0 {
		return nil, fmt.Errorf("%w: no template for tipo %q", ErrEscritoNotFound, req.TipoEscrito)
	}
	template := templates[0]

	contenido := s.sustituir(template.ContenidoTemplate, expediente, req.InformacionAdicional)

	// Short results usually mean a sparse template; let the generator
	// flesh them out.
	if len([]rune(contenido)) < enrichThreshold && s.generator != nil && s.generator.Available() {
		prompt := fmt.Sprintf(`Mejora y expande el siguiente escrito legal, manteniendo el formato y estructura:

%s

Asegúrate de que sea profesional, completo y legalmente correcto:`, contenido)

		if mejorado, err := s.generator.Generate(ctx, prompt, 800); err == nil && strings.TrimSpace(mejorado) != "" {
			contenido = mejorado
		} else if err != nil {
			s.logger.Warn("failed to enrich escrito, keeping template output", zap.Error(err))
		}
	}
	contenido = strings.TrimSpace(contenido)

	documento := &models.DocumentoExpediente{
		ExpedienteID:  req.ExpedienteID,
		TipoDocumento: req.TipoEscrito,
		Contenido:     contenido,
		FechaCreacion: s.now(),
	}
	if s.embedder != nil && s.embedder.VectorizerReady() {
		if embedding, err := s.embedder.Vectorize(contenido); err == nil {
			documento.Embedding = embedding
		}
	}

	// Archive a copy before the insert; if the insert fails the archived
	// object is removed again so the store and the database agree.
	var archiveKey string
	if s.archive != nil {
		archiveKey = fmt.Sprintf("escritos/%s/%s.txt", req.ExpedienteID, uuid.New())
		if err := s.archive.Put(ctx, archiveKey, strings.NewReader(contenido)); err != nil {
			s.logger.Warn("failed to archive escrito", zap.String("key", archiveKey), zap.Error(err))
			archiveKey = ""
		}
	}

	if err := s.expedienteRepo.AddDocumento(ctx, documento); err != nil {
		if archiveKey != "" {
			if derr := s.archive.Delete(ctx, archiveKey); derr != nil {
				s.logger.Warn("failed to remove archived escrito", zap.String("key", archiveKey), zap.Error(derr))
			}
		}
		return nil, err
	}

	return &GenerarEscritoResult{
		Contenido:       contenido,
		TipoEscrito:     req.TipoEscrito,
		ExpedienteID:    req.ExpedienteID,
		DocumentoID:     documento.ID,
		FechaGeneracion: documento.FechaCreacion,
	}, nil
}

// sustituir replaces {{PLACEHOLDER}} markers with case data. Additional
// info keys are uppercased, so {"monto": "100"} fills {{MONTO}}.
func (s *EscritoService) sustituir(template string, expediente *models.Expediente, extra map[string]string) string {
	now := s.now()
	replacements := map[string]string{
		"{{EXPEDIENTE_NUMERO}}":   expediente.Numero,
		"{{TRIBUNAL}}":            expediente.Tribunal,
		"{{MATERIA}}":             expediente.Materia,
		"{{PARTES}}":              expediente.Partes,
		"{{FECHA_ACTUAL}}":        now.Format("02/01/2006"),
		"{{FECHA_ACTUAL_LETRAS}}": fechaALetras(now),
	}

	contenido := template
	for placeholder, value := range replacements {
		contenido = strings.ReplaceAll(contenido, placeholder, value)
	}
	for key, value := range extra {
		placeholder := "{{" + strings.ToUpper(key) + "}}"
		contenido = strings.ReplaceAll(contenido, placeholder, value)
	}
	return contenido
}

var meses = []string{
	"enero", "febrero", "marzo", "abril", "mayo", "junio",
	"julio", "agosto", "septiembre", "octubre", "noviembre", "diciembre",
}

// fechaALetras formats a date in Spanish legal style, "12 de mayo de 2026"
func fechaALetras(t time.Time) string {
	return fmt.Sprintf("%d de %s de %d", t.Day(), meses[t.Month()-1], t.Year())
}
