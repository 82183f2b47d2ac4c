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
	"goyo-backend/search"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"
	"go.uber.org/zap"
)

const excerptLength = 500

// SentenciaStore is the corpus persistence surface SentenciaService needs
type SentenciaStore interface {
	Create(ctx context.Context, s *models.Sentencia) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Sentencia, error)
	GetByIDs(ctx context.Context, ids []uuid.UUID) ([]*models.Sentencia, error)
	List(ctx context.Context, filter models.SentenciaFilter, limit, offset int) ([]*models.Sentencia, error)
	Count(ctx context.Context, filter models.SentenciaFilter) (int64, error)
	ListEmbedded(ctx context.Context, filter models.SentenciaFilter, version string) ([]*models.Sentencia, error)
	Update(ctx context.Context, s *models.Sentencia) error
	Delete(ctx context.Context, id uuid.UUID) error
	Tribunales(ctx context.Context) ([]string, error)
	Materias(ctx context.Context) ([]string, error)
	Stats(ctx context.Context) (*models.SentenciaStats, error)
}

// Embedder turns text into comparable vectors and classifies outcomes
type Embedder interface {
	VectorizerReady() bool
	ClassifierReady() bool
	Version() string
	Vectorize(text string) ([]float64, error)
	Classify(vec []float64) ai.Outcome
}

// SentenciaService handles business logic for the jurisprudence corpus
type SentenciaService struct {
	repo      SentenciaStore
	embedder  Embedder
	index     search.CorpusIndex
	cache     *cache.Cache
	cacheSize int
	logger    *zap.Logger
	threshold float64
	limit     int
}

// SentenciaServiceOption is a functional option for SentenciaService
type SentenciaServiceOption func(*SentenciaService)

// WithSentenciaStore sets the corpus store
func WithSentenciaStore(repo SentenciaStore) SentenciaServiceOption {
	return func(s *SentenciaService) {
		s.repo = repo
	}
}

// WithEmbedder sets the vectorizer/classifier models
func WithEmbedder(embedder Embedder) SentenciaServiceOption {
	return func(s *SentenciaService) {
		s.embedder = embedder
	}
}

// WithCorpusIndex sets the in-memory index used for unfiltered queries.
// Filtered queries always rank against a database candidate set instead.
func WithCorpusIndex(index search.CorpusIndex) SentenciaServiceOption {
	return func(s *SentenciaService) {
		s.index = index
	}
}

// WithSearchCache sets the query result cache
func WithSearchCache(c *cache.Cache) SentenciaServiceOption {
	return func(s *SentenciaService) {
		s.cache = c
	}
}

// WithSearchCacheSize caps the cached entry count. The cache is flushed
// before a store that would exceed the cap. Zero means unbounded.
func WithSearchCacheSize(n int) SentenciaServiceOption {
	return func(s *SentenciaService) {
		if n > 0 {
			s.cacheSize = n
		}
	}
}

// WithSearchParams overrides the default similarity threshold and limit
func WithSearchParams(threshold float64, limit int) SentenciaServiceOption {
	return func(s *SentenciaService) {
		s.threshold = threshold
		s.limit = limit
	}
}

// WithSentenciaLogger sets the logger
func WithSentenciaLogger(logger *zap.Logger) SentenciaServiceOption {
	return func(s *SentenciaService) {
		s.logger = logger
	}
}

// NewSentenciaService creates a new sentencia service
func NewSentenciaService(opts ...SentenciaServiceOption) *SentenciaService {
	s := &SentenciaService{
		threshold: search.DefaultThreshold,
		limit:     search.DefaultLimit,
		logger:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreateSentenciaRequest carries the fields of a new corpus ruling
type CreateSentenciaRequest struct {
	Tribunal   string
	Fecha      models.Fecha
	Materia    string
	Partes     string
	Expediente string
	FullText   string
	URL        *string
	Resultado  string
}

// Create adds a ruling to the corpus. When the vectorizer is loaded the
// embedding is computed inline; otherwise the ruling is stored without one
// and picked up by the next embedding refresh.
func (s *SentenciaService) Create(ctx context.Context, req CreateSentenciaRequest) (*models.Sentencia, error) {
	if s.repo == nil {
		return nil, errors.New("sentencia store not set")
	}
	if strings.TrimSpace(req.FullText) == "" {
		return nil, fmt.Errorf("%w: full_text is required", ErrValidation)
	}
	if strings.TrimSpace(req.Tribunal) == "" {
		return nil, fmt.Errorf("%w: tribunal is required", ErrValidation)
	}

	sentencia := &models.Sentencia{
		Tribunal:   req.Tribunal,
		Fecha:      req.Fecha.Time(),
		Materia:    req.Materia,
		Partes:     req.Partes,
		Expediente: req.Expediente,
		FullText:   req.FullText,
		URL:        req.URL,
		Resultado:  req.Resultado,
	}

	if s.embedder != nil && s.embedder.VectorizerReady() {
		embedding, err := s.embedder.Vectorize(req.FullText)
		if err != nil {
			return nil, fmt.Errorf("failed to embed sentencia: %w", err)
		}
		version := s.embedder.Version()
		sentencia.Embedding = embedding
		sentencia.VectorizerVersion = &version
	}

	if err := s.repo.Create(ctx, sentencia); err != nil {
		return nil, err
	}

	if mi, ok := s.index.(mutableIndex); ok && len(sentencia.Embedding) > 0 {
		mi.Add(search.Item{ID: sentencia.ID, Embedding: sentencia.Embedding})
	}

	s.flushCache()
	return sentencia, nil
}

// Get retrieves a single ruling
func (s *SentenciaService) Get(ctx context.Context, id uuid.UUID) (*models.Sentencia, error) {
	sentencia, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, notFound(err, ErrSentenciaNotFound)
	}
	return sentencia, nil
}

// List retrieves rulings matching the filter plus the total count
func (s *SentenciaService) List(ctx context.Context, filter models.SentenciaFilter, limit, offset int) ([]*models.Sentencia, int64, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}

	sentencias, err := s.repo.List(ctx, filter, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.repo.Count(ctx, filter)
	if err != nil {
		return nil, 0, err
	}
	return sentencias, total, nil
}

// UpdateSentenciaRequest carries partial updates for a ruling
type UpdateSentenciaRequest struct {
	Tribunal   *string
	Fecha      *models.Fecha
	Materia    *string
	Partes     *string
	Expediente *string
	FullText   *string
	URL        *string
	Resultado  *string
}

// Update applies changes to a ruling. Changing the full text invalidates
// the stored embedding, which is recomputed when possible.
func (s *SentenciaService) Update(ctx context.Context, id uuid.UUID, req UpdateSentenciaRequest) (*models.Sentencia, error) {
	sentencia, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, notFound(err, ErrSentenciaNotFound)
	}

	if req.Tribunal != nil {
		sentencia.Tribunal = *req.Tribunal
	}
	if req.Fecha != nil {
		sentencia.Fecha = req.Fecha.Time()
	}
	if req.Materia != nil {
		sentencia.Materia = *req.Materia
	}
	if req.Partes != nil {
		sentencia.Partes = *req.Partes
	}
	if req.Expediente != nil {
		sentencia.Expediente = *req.Expediente
	}
	if req.URL != nil {
		sentencia.URL = req.URL
	}
	if req.Resultado != nil {
		sentencia.Resultado = *req.Resultado
	}

	if req.FullText != nil && *req.FullText != sentencia.FullText {
		sentencia.FullText = *req.FullText
		sentencia.Embedding = nil
		sentencia.VectorizerVersion = nil

		if s.embedder != nil && s.embedder.VectorizerReady() {
			embedding, err := s.embedder.Vectorize(sentencia.FullText)
			if err != nil {
				return nil, fmt.Errorf("failed to embed sentencia: %w", err)
			}
			version := s.embedder.Version()
			sentencia.Embedding = embedding
			sentencia.VectorizerVersion = &version
		}
	}

	if err := s.repo.Update(ctx, sentencia); err != nil {
		return nil, notFound(err, ErrSentenciaNotFound)
	}

	if err := s.ReloadIndex(ctx); err != nil {
		s.logger.Warn("failed to reload corpus index", zap.Error(err))
	}
	s.flushCache()
	return sentencia, nil
}

// Delete removes a ruling from the corpus
func (s *SentenciaService) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return notFound(err, ErrSentenciaNotFound)
	}
	if err := s.ReloadIndex(ctx); err != nil {
		s.logger.Warn("failed to reload corpus index", zap.Error(err))
	}
	s.flushCache()
	return nil
}

// SearchRequest is a jurisprudence similarity query
type SearchRequest struct {
	Consulta   string
	Tribunal   string
	Materia    string
	FechaDesde *time.Time
	FechaHasta *time.Time
	Limite     int
}

// filtered reports whether any metadata filter is set
func (r SearchRequest) filtered() bool {
	return r.Tribunal != "" || r.Materia != "" || r.FechaDesde != nil || r.FechaHasta != nil
}

// SearchResult is one ranked retrieval hit
type SearchResult struct {
	Sentencia     *models.Sentencia
	Similitud     float64 // percentage, one decimal
	Extracto      string
	PalabrasClave []string
}

// Search ranks the corpus against a free-text query. Metadata filters
// narrow the candidate set before similarity scoring. An empty result is
// a valid answer, not an error.
func (s *SentenciaService) Search(ctx context.Context, req SearchRequest) ([]SearchResult, error) {
	if s.embedder == nil || !s.embedder.VectorizerReady() {
		return nil, ErrVectorizerUnavailable
	}
	if strings.TrimSpace(req.Consulta) == "" {
		return nil, fmt.Errorf("%w: consulta is required", ErrValidation)
	}

	limit := req.Limite
	if limit <= 0 || limit > 50 {
		limit = s.limit
	}

	cacheKey := fmt.Sprintf("search:%s|%s|%s|%s|%s|%d",
		req.Consulta, req.Tribunal, req.Materia,
		fechaKey(req.FechaDesde), fechaKey(req.FechaHasta), limit)
	if s.cache != nil {
		if cached, ok := s.cache.Get(cacheKey); ok {
			return cached.([]SearchResult), nil
		}
	}

	queryVec, err := s.embedder.Vectorize(req.Consulta)
	if err != nil {
		return nil, err
	}

	var matches []search.Match
	byID := make(map[uuid.UUID]*models.Sentencia)

	if s.index != nil && !req.filtered() {
		// Unfiltered query: rank against the resident index, then load
		// only the matched rows.
		matches = s.index.Rank(queryVec, s.threshold, limit)

		ids := make([]uuid.UUID, len(matches))
		for i, m := range matches {
			ids[i] = m.ID
		}
		sentencias, err := s.repo.GetByIDs(ctx, ids)
		if err != nil {
			return nil, err
		}
		for _, sent := range sentencias {
			byID[sent.ID] = sent
		}
	} else {
		filter := models.SentenciaFilter{
			Tribunal:   req.Tribunal,
			Materia:    req.Materia,
			FechaDesde: req.FechaDesde,
			FechaHasta: req.FechaHasta,
		}
		candidates, err := s.repo.ListEmbedded(ctx, filter, s.embedder.Version())
		if err != nil {
			return nil, err
		}

		items := make([]search.Item, 0, len(candidates))
		for _, sent := range candidates {
			byID[sent.ID] = sent
			items = append(items, search.Item{ID: sent.ID, Embedding: sent.Embedding})
		}
		matches = search.Rank(items, queryVec, s.threshold, limit)
	}

	results := make([]SearchResult, 0, len(matches))
	for _, m := range matches {
		sent, ok := byID[m.ID]
		if !ok {
			// Indexed item deleted since the last reload.
			continue
		}
		results = append(results, SearchResult{
			Sentencia:     sent,
			Similitud:     math.Round(m.Similarity*1000) / 10,
			Extracto:      sent.Excerpt(excerptLength),
			PalabrasClave: ai.ExtractKeywords(sent.FullText, req.Consulta, 5),
		})
	}

	s.logger.Info("jurisprudence search completed",
		zap.Int("results", len(results)))

	s.cacheSet(cacheKey, results)
	return results, nil
}

// Tribunales lists the distinct courts in the corpus, cached briefly
func (s *SentenciaService) Tribunales(ctx context.Context) ([]string, error) {
	return s.cachedList(ctx, "tribunales", s.repo.Tribunales)
}

// Materias lists the distinct legal matters in the corpus, cached briefly
func (s *SentenciaService) Materias(ctx context.Context) ([]string, error) {
	return s.cachedList(ctx, "materias", s.repo.Materias)
}

func (s *SentenciaService) cachedList(ctx context.Context, key string, fetch func(context.Context) ([]string, error)) ([]string, error) {
	if s.cache != nil {
		if cached, ok := s.cache.Get(key); ok {
			return cached.([]string), nil
		}
	}
	values, err := fetch(ctx)
	if err != nil {
		return nil, err
	}
	s.cacheSet(key, values)
	return values, nil
}

// cacheSet stores under the configured entry cap. go-cache has no eviction
// policy of its own, so hitting the cap flushes everything.
func (s *SentenciaService) cacheSet(key string, value any) {
	if s.cache == nil {
		return
	}
	if s.cacheSize > 0 && s.cache.ItemCount() >= s.cacheSize {
		s.cache.Flush()
	}
	s.cache.Set(key, value, cache.DefaultExpiration)
}

// Stats summarizes the corpus
func (s *SentenciaService) Stats(ctx context.Context) (*models.SentenciaStats, error) {
	return s.repo.Stats(ctx)
}

func fechaKey(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format("2006-01-02")
}

func (s *SentenciaService) flushCache() {
	if s.cache != nil {
		s.cache.Flush()
	}
}

// mutableIndex is the maintenance surface of in-memory indexes. ANN
// backends that manage their own lifecycle simply won't implement it.
type mutableIndex interface {
	Replace(items []search.Item)
	Add(item search.Item)
}

// ReloadIndex rebuilds the resident index from all embedded rulings.
// Called at startup and after bulk imports and embedding refreshes.
func (s *SentenciaService) ReloadIndex(ctx context.Context) error {
	mi, ok := s.index.(mutableIndex)
	if !ok {
		return nil
	}
	if s.embedder == nil || !s.embedder.VectorizerReady() {
		return nil
	}

	sentencias, err := s.repo.ListEmbedded(ctx, models.SentenciaFilter{}, s.embedder.Version())
	if err != nil {
		return err
	}

	items := make([]search.Item, 0, len(sentencias))
	for _, sent := range sentencias {
		items = append(items, search.Item{ID: sent.ID, Embedding: sent.Embedding})
	}
	mi.Replace(items)

	s.logger.Info("corpus index reloaded", zap.Int("items", len(items)))
	return nil
}
