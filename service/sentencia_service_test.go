package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/patrickmn/go-cache"

	"goyo-backend/ai"
	"goyo-backend/models"
	"goyo-backend/search"
)

type fakeSentenciaStore struct {
	sentencias map[uuid.UUID]*models.Sentencia

	created           []*models.Sentencia
	updated           []*models.Sentencia
	deleted           []uuid.UUID
	listEmbeddedCalls int
	getByIDsCalls     int
	lastFilter        models.SentenciaFilter
}

func newFakeSentenciaStore(sentencias ...*models.Sentencia) *fakeSentenciaStore {
	f := &fakeSentenciaStore{sentencias: make(map[uuid.UUID]*models.Sentencia)}
	for _, s := range sentencias {
		f.sentencias[s.ID] = s
	}
	return f
}

func (f *fakeSentenciaStore) Create(ctx context.Context, s *models.Sentencia) error {
	s.ID = uuid.New()
	f.sentencias[s.ID] = s
	f.created = append(f.created, s)
	return nil
}

func (f *fakeSentenciaStore) GetByID(ctx context.Context, id uuid.UUID) (*models.Sentencia, error) {
	s, ok := f.sentencias[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return s, nil
}

func (f *fakeSentenciaStore) GetByIDs(ctx context.Context, ids []uuid.UUID) ([]*models.Sentencia, error) {
	f.getByIDsCalls++
	var out []*models.Sentencia
	for _, id := range ids {
		if s, ok := f.sentencias[id]; ok {
			out = append(out, s)
		}
	}
	return out, nil
}

func (f *fakeSentenciaStore) List(ctx context.Context, filter models.SentenciaFilter, limit, offset int) ([]*models.Sentencia, error) {
	var out []*models.Sentencia
	for _, s := range f.sentencias {
		out = append(out, s)
	}
	return out, nil
}

func (f *fakeSentenciaStore) Count(ctx context.Context, filter models.SentenciaFilter) (int64, error) {
	return int64(len(f.sentencias)), nil
}

func (f *fakeSentenciaStore) ListEmbedded(ctx context.Context, filter models.SentenciaFilter, version string) ([]*models.Sentencia, error) {
	f.listEmbeddedCalls++
	f.lastFilter = filter
	var out []*models.Sentencia
	for _, s := range f.sentencias {
		if s.HasEmbedding(version) {
			out = append(out, s)
		}
	}
	return out, nil
}

func (f *fakeSentenciaStore) Update(ctx context.Context, s *models.Sentencia) error {
	if _, ok := f.sentencias[s.ID]; !ok {
		return pgx.ErrNoRows
	}
	f.sentencias[s.ID] = s
	f.updated = append(f.updated, s)
	return nil
}

func (f *fakeSentenciaStore) Delete(ctx context.Context, id uuid.UUID) error {
	if _, ok := f.sentencias[id]; !ok {
		return pgx.ErrNoRows
	}
	delete(f.sentencias, id)
	f.deleted = append(f.deleted, id)
	return nil
}

func (f *fakeSentenciaStore) Tribunales(ctx context.Context) ([]string, error) {
	return []string{"Primera Sala"}, nil
}

func (f *fakeSentenciaStore) Materias(ctx context.Context) ([]string, error) {
	return []string{"civil"}, nil
}

func (f *fakeSentenciaStore) Stats(ctx context.Context) (*models.SentenciaStats, error) {
	return &models.SentenciaStats{Total: int64(len(f.sentencias))}, nil
}

// fakeEmbedder returns canned vectors keyed by text, defaulting to (1, 0)
type fakeEmbedder struct {
	ready   bool
	vectors map[string][]float64
}

func (f *fakeEmbedder) VectorizerReady() bool { return f.ready }
func (f *fakeEmbedder) ClassifierReady() bool { return false }
func (f *fakeEmbedder) Version() string       { return "test-v1" }

func (f *fakeEmbedder) Vectorize(text string) ([]float64, error) {
	if v, ok := f.vectors[text]; ok {
		return v, nil
	}
	return []float64{1, 0}, nil
}

func (f *fakeEmbedder) Classify(vec []float64) ai.Outcome {
	return ai.Outcome{Label: ai.LabelUnavailable}
}

func embeddedSentencia(tribunal, fullText string, embedding []float64) *models.Sentencia {
	version := "test-v1"
	return &models.Sentencia{
		ID:                uuid.New(),
		Tribunal:          tribunal,
		Materia:           "civil",
		Expediente:        uuid.NewString(),
		FullText:          fullText,
		Embedding:         embedding,
		VectorizerVersion: &version,
		Fecha:             time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
	}
}

func TestSearch_UnfilteredUsesIndex(t *testing.T) {
	near := embeddedSentencia("Primera Sala", "contrato incumplido", []float64{1, 0})
	far := embeddedSentencia("Segunda Sala", "amparo fiscal", []float64{0, 1})
	store := newFakeSentenciaStore(near, far)

	index := search.NewMemoryIndex()
	index.Replace([]search.Item{
		{ID: near.ID, Embedding: near.Embedding},
		{ID: far.ID, Embedding: far.Embedding},
	})

	svc := NewSentenciaService(
		WithSentenciaStore(store),
		WithEmbedder(&fakeEmbedder{ready: true}),
		WithCorpusIndex(index),
	)

	results, err := svc.Search(context.Background(), SearchRequest{Consulta: "incumplimiento de contrato"})
	if err != nil {
		t.Fatalf("Search returned error: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("got %d results, want 1", len(results))
	}
	if results[0].Sentencia.ID != near.ID {
		t.Errorf("got sentencia %s, want the parallel one", results[0].Sentencia.ID)
	}
	if results[0].Similitud != 100.0 {
		t.Errorf("Similitud = %v, want 100.0", results[0].Similitud)
	}
	if store.listEmbeddedCalls != 0 {
		t.Errorf("ListEmbedded called %d times on an unfiltered query", store.listEmbeddedCalls)
	}
}

func TestSearch_FilterRanksDatabaseCandidates(t *testing.T) {
	match := embeddedSentencia("Primera Sala", "contrato incumplido", []float64{1, 0})
	store := newFakeSentenciaStore(match)

	// A stale index would return nothing; the filtered path must not use it.
	svc := NewSentenciaService(
		WithSentenciaStore(store),
		WithEmbedder(&fakeEmbedder{ready: true}),
		WithCorpusIndex(search.NewMemoryIndex()),
	)

	desde := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	results, err := svc.Search(context.Background(), SearchRequest{
		Consulta:   "contrato",
		Tribunal:   "Primera Sala",
		FechaDesde: &desde,
	})
	if err != nil {
		t.Fatalf("Search returned error: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("got %d results, want 1", len(results))
	}
	if store.listEmbeddedCalls != 1 {
		t.Errorf("ListEmbedded called %d times, want 1", store.listEmbeddedCalls)
	}
	if store.lastFilter.Tribunal != "Primera Sala" {
		t.Errorf("filter tribunal = %q", store.lastFilter.Tribunal)
	}
	if store.lastFilter.FechaDesde == nil || !store.lastFilter.FechaDesde.Equal(desde) {
		t.Errorf("filter fecha_desde not forwarded: %v", store.lastFilter.FechaDesde)
	}
	if store.getByIDsCalls != 0 {
		t.Errorf("GetByIDs called %d times on a filtered query", store.getByIDsCalls)
	}
}

func TestSearch_SimilitudRoundedToOneDecimal(t *testing.T) {
	// cos((1,0),(0.9806,0.196)) ≈ 0.98058, which renders as 98.1%.
	sent := embeddedSentencia("Primera Sala", "contrato", []float64{0.98058067569092, 0.19611613513818})
	store := newFakeSentenciaStore(sent)

	svc := NewSentenciaService(
		WithSentenciaStore(store),
		WithEmbedder(&fakeEmbedder{ready: true}),
	)

	results, err := svc.Search(context.Background(), SearchRequest{Consulta: "contrato"})
	if err != nil {
		t.Fatalf("Search returned error: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("got %d results, want 1", len(results))
	}
	if results[0].Similitud != 98.1 {
		t.Errorf("Similitud = %v, want 98.1", results[0].Similitud)
	}
}

func TestSearch_EmptyConsulta(t *testing.T) {
	svc := NewSentenciaService(
		WithSentenciaStore(newFakeSentenciaStore()),
		WithEmbedder(&fakeEmbedder{ready: true}),
	)
	_, err := svc.Search(context.Background(), SearchRequest{Consulta: "   "})
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("got %v, want ErrValidation", err)
	}
}

func TestSearch_VectorizerUnavailable(t *testing.T) {
	svc := NewSentenciaService(
		WithSentenciaStore(newFakeSentenciaStore()),
		WithEmbedder(&fakeEmbedder{ready: false}),
	)
	_, err := svc.Search(context.Background(), SearchRequest{Consulta: "contrato"})
	if !errors.Is(err, ErrVectorizerUnavailable) {
		t.Fatalf("got %v, want ErrVectorizerUnavailable", err)
	}
}

func TestSearch_CachesResults(t *testing.T) {
	sent := embeddedSentencia("Primera Sala", "contrato", []float64{1, 0})
	store := newFakeSentenciaStore(sent)

	svc := NewSentenciaService(
		WithSentenciaStore(store),
		WithEmbedder(&fakeEmbedder{ready: true}),
		WithSearchCache(cache.New(time.Minute, time.Minute)),
	)

	req := SearchRequest{Consulta: "contrato", Tribunal: "Primera Sala"}
	if _, err := svc.Search(context.Background(), req); err != nil {
		t.Fatalf("first search: %v", err)
	}
	if _, err := svc.Search(context.Background(), req); err != nil {
		t.Fatalf("second search: %v", err)
	}
	if store.listEmbeddedCalls != 1 {
		t.Errorf("ListEmbedded called %d times, want 1 (second hit cached)", store.listEmbeddedCalls)
	}
}

func TestSearch_CacheBoundedBySize(t *testing.T) {
	sent := embeddedSentencia("Primera Sala", "contrato", []float64{1, 0})
	store := newFakeSentenciaStore(sent)
	c := cache.New(time.Minute, time.Minute)

	svc := NewSentenciaService(
		WithSentenciaStore(store),
		WithEmbedder(&fakeEmbedder{ready: true}),
		WithSearchCache(c),
		WithSearchCacheSize(1),
	)

	primera := SearchRequest{Consulta: "contrato", Tribunal: "Primera Sala"}
	segunda := SearchRequest{Consulta: "arrendamiento", Tribunal: "Primera Sala"}

	// The second query evicts the first to stay under the cap.
	for _, req := range []SearchRequest{primera, segunda, primera} {
		if _, err := svc.Search(context.Background(), req); err != nil {
			t.Fatalf("Search returned error: %v", err)
		}
	}
	if c.ItemCount() > 1 {
		t.Errorf("cache holds %d entries, cap is 1", c.ItemCount())
	}
	if store.listEmbeddedCalls != 3 {
		t.Errorf("ListEmbedded called %d times, want 3 (no query survives the cap)", store.listEmbeddedCalls)
	}
}

func TestCreate_EmbedsInline(t *testing.T) {
	store := newFakeSentenciaStore()
	index := search.NewMemoryIndex()
	svc := NewSentenciaService(
		WithSentenciaStore(store),
		WithEmbedder(&fakeEmbedder{ready: true}),
		WithCorpusIndex(index),
	)

	sent, err := svc.Create(context.Background(), CreateSentenciaRequest{
		Tribunal: "Primera Sala",
		FullText: "texto completo de la sentencia",
	})
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}
	if len(sent.Embedding) == 0 {
		t.Error("embedding not computed on create")
	}
	if sent.VectorizerVersion == nil || *sent.VectorizerVersion != "test-v1" {
		t.Errorf("vectorizer version = %v, want test-v1", sent.VectorizerVersion)
	}
	if index.Len() != 1 {
		t.Errorf("index has %d items after create, want 1", index.Len())
	}
}

func TestCreate_RequiresFullText(t *testing.T) {
	svc := NewSentenciaService(
		WithSentenciaStore(newFakeSentenciaStore()),
		WithEmbedder(&fakeEmbedder{ready: true}),
	)
	_, err := svc.Create(context.Background(), CreateSentenciaRequest{Tribunal: "Primera Sala"})
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("got %v, want ErrValidation", err)
	}
}

func TestCreate_WithoutVectorizerStoresUnembedded(t *testing.T) {
	store := newFakeSentenciaStore()
	svc := NewSentenciaService(
		WithSentenciaStore(store),
		WithEmbedder(&fakeEmbedder{ready: false}),
	)

	sent, err := svc.Create(context.Background(), CreateSentenciaRequest{
		Tribunal: "Primera Sala",
		FullText: "texto",
	})
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}
	if len(sent.Embedding) != 0 || sent.VectorizerVersion != nil {
		t.Error("sentencia should be stored without embedding when vectorizer is missing")
	}
}

func TestUpdate_FullTextChangeReembeds(t *testing.T) {
	sent := embeddedSentencia("Primera Sala", "texto original", []float64{1, 0})
	store := newFakeSentenciaStore(sent)
	emb := &fakeEmbedder{ready: true, vectors: map[string][]float64{
		"texto nuevo": {0, 1},
	}}
	svc := NewSentenciaService(WithSentenciaStore(store), WithEmbedder(emb))

	nuevo := "texto nuevo"
	updated, err := svc.Update(context.Background(), sent.ID, UpdateSentenciaRequest{FullText: &nuevo})
	if err != nil {
		t.Fatalf("Update returned error: %v", err)
	}
	if updated.Embedding == nil || updated.Embedding[1] != 1 {
		t.Errorf("embedding not recomputed: %v", updated.Embedding)
	}
}

func TestGet_NotFound(t *testing.T) {
	svc := NewSentenciaService(WithSentenciaStore(newFakeSentenciaStore()))
	_, err := svc.Get(context.Background(), uuid.New())
	if !errors.Is(err, ErrSentenciaNotFound) {
		t.Fatalf("got %v, want ErrSentenciaNotFound", err)
	}
}

func TestDelete_NotFound(t *testing.T) {
	svc := NewSentenciaService(WithSentenciaStore(newFakeSentenciaStore()))
	err := svc.Delete(context.Background(), uuid.New())
	if !errors.Is(err, ErrSentenciaNotFound) {
		t.Fatalf("got %v, want ErrSentenciaNotFound", err)
	}
}

func TestReloadIndex_LoadsEmbeddedRulings(t *testing.T) {
	a := embeddedSentencia("Primera Sala", "uno", []float64{1, 0})
	b := embeddedSentencia("Segunda Sala", "dos", []float64{0, 1})
	unembedded := &models.Sentencia{ID: uuid.New(), Tribunal: "Tercera Sala", FullText: "tres"}
	store := newFakeSentenciaStore(a, b, unembedded)

	index := search.NewMemoryIndex()
	svc := NewSentenciaService(
		WithSentenciaStore(store),
		WithEmbedder(&fakeEmbedder{ready: true}),
		WithCorpusIndex(index),
	)

	if err := svc.ReloadIndex(context.Background()); err != nil {
		t.Fatalf("ReloadIndex returned error: %v", err)
	}
	if index.Len() != 2 {
		t.Errorf("index has %d items, want 2", index.Len())
	}
}
