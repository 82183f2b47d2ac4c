package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"goyo-backend/models"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ExpedienteStore is the case file persistence surface ExpedienteService needs
type ExpedienteStore interface {
	Create(ctx context.Context, e *models.Expediente) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Expediente, error)
	List(ctx context.Context, limit, offset int) ([]*models.Expediente, error)
	Update(ctx context.Context, e *models.Expediente) error
	SoftDelete(ctx context.Context, id uuid.UUID) error
	AddDocumento(ctx context.Context, d *models.DocumentoExpediente) error
	GetDocumento(ctx context.Context, id uuid.UUID) (*models.DocumentoExpediente, error)
	ListDocumentos(ctx context.Context, expedienteID uuid.UUID) ([]*models.DocumentoExpediente, error)
	UpdateDocumento(ctx context.Context, d *models.DocumentoExpediente) error
}

// ExpedienteService handles business logic for case files and their documents
type ExpedienteService struct {
	repo     ExpedienteStore
	embedder Embedder
	logger   *zap.Logger
}

// ExpedienteServiceOption is a functional option for ExpedienteService
type ExpedienteServiceOption func(*ExpedienteService)

// WithExpedienteStore sets the case file store
func WithExpedienteStore(repo ExpedienteStore) ExpedienteServiceOption {
	return func(s *ExpedienteService) {
		s.repo = repo
	}
}

// WithExpedienteEmbedder sets the vectorizer models
func WithExpedienteEmbedder(embedder Embedder) ExpedienteServiceOption {
	return func(s *ExpedienteService) {
		s.embedder = embedder
	}
}

// WithExpedienteLogger sets the logger
func WithExpedienteLogger(logger *zap.Logger) ExpedienteServiceOption {
	return func(s *ExpedienteService) {
		s.logger = logger
	}
}

// NewExpedienteService creates a new expediente service
func NewExpedienteService(opts ...ExpedienteServiceOption) *ExpedienteService {
	s := &ExpedienteService{logger: zap.NewNop()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreateExpedienteRequest carries the fields of a new case file
type CreateExpedienteRequest struct {
	Numero   string
	Tribunal string
	Materia  string
	Partes   string
}

// Create opens a new case file in the active state
func (s *ExpedienteService) Create(ctx context.Context, req CreateExpedienteRequest) (*models.Expediente, error) {
	if s.repo == nil {
		return nil, errors.New("expediente store not set")
	}
	if strings.TrimSpace(req.Numero) == "" {
		return nil, fmt.Errorf("%w: numero is required", ErrValidation)
	}

	expediente := &models.Expediente{
		Numero:   req.Numero,
		Tribunal: req.Tribunal,
		Materia:  req.Materia,
		Partes:   req.Partes,
		Estado:   models.EstadoActivo,
	}

	if err := s.repo.Create(ctx, expediente); err != nil {
		if uniqueViolation(err) {
			return nil, fmt.Errorf("%w: expediente %s already exists", ErrValidation, req.Numero)
		}
		return nil, err
	}
	return expediente, nil
}

// Get retrieves a case file
func (s *ExpedienteService) Get(ctx context.Context, id uuid.UUID) (*models.Expediente, error) {
	expediente, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, notFound(err, ErrExpedienteNotFound)
	}
	return expediente, nil
}

// List retrieves case files, newest first
func (s *ExpedienteService) List(ctx context.Context, limit, offset int) ([]*models.Expediente, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	return s.repo.List(ctx, limit, offset)
}

// UpdateExpedienteRequest carries partial updates for a case file
type UpdateExpedienteRequest struct {
	Numero   *string
	Tribunal *string
	Materia  *string
	Partes   *string
	Estado   *models.EstadoExpediente
}

// Update applies changes to a case file. The deleted state can only be
// reached through Delete.
func (s *ExpedienteService) Update(ctx context.Context, id uuid.UUID, req UpdateExpedienteRequest) (*models.Expediente, error) {
	expediente, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, notFound(err, ErrExpedienteNotFound)
	}

	if req.Numero != nil {
		expediente.Numero = *req.Numero
	}
	if req.Tribunal != nil {
		expediente.Tribunal = *req.Tribunal
	}
	if req.Materia != nil {
		expediente.Materia = *req.Materia
	}
	if req.Partes != nil {
		expediente.Partes = *req.Partes
	}
	if req.Estado != nil {
		if *req.Estado != models.EstadoActivo && *req.Estado != models.EstadoCerrado {
			return nil, fmt.Errorf("%w: invalid estado %q", ErrValidation, *req.Estado)
		}
		expediente.Estado = *req.Estado
	}

	if err := s.repo.Update(ctx, expediente); err != nil {
		if uniqueViolation(err) {
			return nil, fmt.Errorf("%w: expediente %s already exists", ErrValidation, expediente.Numero)
		}
		return nil, notFound(err, ErrExpedienteNotFound)
	}
	return expediente, nil
}

// Delete soft-deletes a case file. Its documents and predictions stay in
// place for audit purposes but the expediente no longer lists or loads.
func (s *ExpedienteService) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.repo.SoftDelete(ctx, id); err != nil {
		return notFound(err, ErrExpedienteNotFound)
	}
	return nil
}

// AddDocumentoRequest carries a new case document
type AddDocumentoRequest struct {
	TipoDocumento string
	Contenido     string
	FechaCreacion models.Fecha
}

// AddDocumento attaches a document to a case file, embedding its content
// when the vectorizer is loaded.
func (s *ExpedienteService) AddDocumento(ctx context.Context, expedienteID uuid.UUID, req AddDocumentoRequest) (*models.DocumentoExpediente, error) {
	if strings.TrimSpace(req.Contenido) == "" {
		return nil, fmt.Errorf("%w: contenido is required", ErrValidation)
	}

	// Reject documents for missing or deleted expedientes.
	if _, err := s.repo.GetByID(ctx, expedienteID); err != nil {
		return nil, notFound(err, ErrExpedienteNotFound)
	}

	fecha := req.FechaCreacion.Time()
	if fecha.IsZero() {
		fecha = time.Now()
	}

	documento := &models.DocumentoExpediente{
		ExpedienteID:  expedienteID,
		TipoDocumento: req.TipoDocumento,
		Contenido:     req.Contenido,
		FechaCreacion: fecha,
		Embedding:     s.tryEmbed(req.Contenido),
	}

	if err := s.repo.AddDocumento(ctx, documento); err != nil {
		return nil, err
	}
	return documento, nil
}

// ListDocumentos retrieves the documents of a case file
func (s *ExpedienteService) ListDocumentos(ctx context.Context, expedienteID uuid.UUID) ([]*models.DocumentoExpediente, error) {
	if _, err := s.repo.GetByID(ctx, expedienteID); err != nil {
		return nil, notFound(err, ErrExpedienteNotFound)
	}
	return s.repo.ListDocumentos(ctx, expedienteID)
}

// UpdateDocumentoRequest carries partial updates for a case document
type UpdateDocumentoRequest struct {
	TipoDocumento *string
	Contenido     *string
}

// UpdateDocumento edits a case document. A content change invalidates the
// stored embedding and recomputes it when possible.
func (s *ExpedienteService) UpdateDocumento(ctx context.Context, id uuid.UUID, req UpdateDocumentoRequest) (*models.DocumentoExpediente, error) {
	documento, err := s.repo.GetDocumento(ctx, id)
	if err != nil {
		return nil, notFound(err, ErrDocumentoNotFound)
	}

	if req.TipoDocumento != nil {
		documento.TipoDocumento = *req.TipoDocumento
	}
	if req.Contenido != nil && *req.Contenido != documento.Contenido {
		documento.Contenido = *req.Contenido
		documento.Embedding = s.tryEmbed(documento.Contenido)
	}

	if err := s.repo.UpdateDocumento(ctx, documento); err != nil {
		return nil, notFound(err, ErrDocumentoNotFound)
	}
	return documento, nil
}

// tryEmbed embeds text when the vectorizer is loaded, nil otherwise
func (s *ExpedienteService) tryEmbed(text string) []float64 {
	if s.embedder == nil || !s.embedder.VectorizerReady() {
		return nil
	}
	embedding, err := s.embedder.Vectorize(text)
	if err != nil {
		s.logger.Warn("failed to embed documento", zap.Error(err))
		return nil
	}
	return embedding
}
