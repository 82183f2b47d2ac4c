package service

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"goyo-backend/models"
)

// fakeJobStore signals done when the background job completes or fails
type fakeJobStore struct {
	mu          sync.Mutex
	job         *models.ImportJob
	completeMsg string
	failMsg     string
	done        chan struct{}
}

func newFakeJobStore() *fakeJobStore {
	return &fakeJobStore{done: make(chan struct{})}
}

func (f *fakeJobStore) Create(ctx context.Context, job *models.ImportJob) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	job.ID = uuid.New()
	f.job = job
	return nil
}

func (f *fakeJobStore) GetByID(ctx context.Context, id uuid.UUID) (*models.ImportJob, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.job == nil || f.job.ID != id {
		return nil, pgx.ErrNoRows
	}
	return f.job, nil
}

func (f *fakeJobStore) UpdateProgress(ctx context.Context, id uuid.UUID, current, total int, message string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.job.Current = current
	f.job.Message = message
	return nil
}

func (f *fakeJobStore) Complete(ctx context.Context, id uuid.UUID, message string) error {
	f.mu.Lock()
	f.completeMsg = message
	f.job.Status = models.JobStatusCompleted
	f.mu.Unlock()
	close(f.done)
	return nil
}

func (f *fakeJobStore) Fail(ctx context.Context, id uuid.UUID, errorMessage string) error {
	f.mu.Lock()
	f.failMsg = errorMessage
	f.job.Status = models.JobStatusFailed
	f.mu.Unlock()
	close(f.done)
	return nil
}

type fakeBulkStore struct {
	mu          sync.Mutex
	batches     [][]*models.Sentencia
	failAtBatch int // 0-based batch index that errors, -1 for never
	pending     []*models.Sentencia
	updated     []uuid.UUID
	updateErr   map[uuid.UUID]error
	listCalls   int
}

func (f *fakeBulkStore) BulkInsert(ctx context.Context, batch []*models.Sentencia) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failAtBatch == len(f.batches) && f.failAtBatch >= 0 {
		return 0, errors.New("unique constraint violation")
	}
	f.batches = append(f.batches, batch)
	return int64(len(batch)), nil
}

// ListNeedingEmbeddings re-serves rows until UpdateEmbedding succeeds for
// them, the way the real query keeps matching unembedded rows.
func (f *fakeBulkStore) ListNeedingEmbeddings(ctx context.Context, version string, limit int) ([]*models.Sentencia, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listCalls++
	done := make(map[uuid.UUID]bool, len(f.updated))
	for _, id := range f.updated {
		done[id] = true
	}
	var out []*models.Sentencia
	for _, s := range f.pending {
		if done[s.ID] {
			continue
		}
		out = append(out, s)
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

func (f *fakeBulkStore) CountNeedingEmbeddings(ctx context.Context, version string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return int64(len(f.pending) - len(f.updated)), nil
}

func (f *fakeBulkStore) UpdateEmbedding(ctx context.Context, id uuid.UUID, embedding []float64, version string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.updateErr[id]; err != nil {
		return err
	}
	f.updated = append(f.updated, id)
	return nil
}

type fakeReloader struct {
	mu    sync.Mutex
	calls int
}

func (f *fakeReloader) ReloadIndex(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	return nil
}

func (f *fakeReloader) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func writeCorpusFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "corpus.json")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("writing corpus file: %v", err)
	}
	return path
}

func waitForJob(t *testing.T, done chan struct{}) {
	t.Helper()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("background job did not finish in time")
	}
}

const corpusJSON = `[
	{"tribunal": "Primera Sala", "fecha": "2024-01-15", "materia": "civil", "expediente": "EXP-1", "full_text": "texto uno"},
	{"tribunal": "Primera Sala", "fecha": "2024-02-20", "materia": "civil", "expediente": "EXP-2", "full_text": "texto dos"},
	{"tribunal": "Segunda Sala", "fecha": "2024-03-01", "materia": "mercantil", "expediente": "", "full_text": "sin expediente"}
]`

func TestStartBulkImport_CompletesWithSummary(t *testing.T) {
	path := writeCorpusFile(t, corpusJSON)
	jobs := newFakeJobStore()
	store := &fakeBulkStore{failAtBatch: -1}
	reloader := &fakeReloader{}

	svc := NewImportService(
		ImportWithSentenciaStore(store),
		ImportWithJobStore(jobs),
		ImportWithEmbedder(&fakeEmbedder{ready: true}),
		ImportWithIndexReloader(reloader),
	)

	job, err := svc.StartBulkImport(context.Background(), path)
	if err != nil {
		t.Fatalf("StartBulkImport returned error: %v", err)
	}
	if job.Kind != models.JobKindBulkImport || job.Total != 3 {
		t.Errorf("job = %s total %d, want bulk_import total 3", job.Kind, job.Total)
	}

	waitForJob(t, jobs.done)

	// Two valid records inserted; the one without expediente is skipped.
	if len(store.batches) != 1 || len(store.batches[0]) != 2 {
		t.Fatalf("unexpected batches: %v", store.batches)
	}
	if len(store.batches[0][0].Embedding) == 0 {
		t.Error("imported sentencia not embedded")
	}
	if jobs.completeMsg != "imported 2 sentencias (1 duplicates skipped)" {
		t.Errorf("completion message = %q", jobs.completeMsg)
	}
	if reloader.count() != 1 {
		t.Errorf("index reloaded %d times, want 1", reloader.count())
	}
}

func TestStartBulkImport_BatchFailureKeepsEarlierBatches(t *testing.T) {
	corpus := `[
		{"tribunal": "T", "expediente": "A", "full_text": "a"},
		{"tribunal": "T", "expediente": "B", "full_text": "b"},
		{"tribunal": "T", "expediente": "C", "full_text": "c"},
		{"tribunal": "T", "expediente": "D", "full_text": "d"}
	]`
	path := writeCorpusFile(t, corpus)
	jobs := newFakeJobStore()
	store := &fakeBulkStore{failAtBatch: 1}

	svc := NewImportService(
		ImportWithSentenciaStore(store),
		ImportWithJobStore(jobs),
		ImportWithBatchSize(2),
	)

	if _, err := svc.StartBulkImport(context.Background(), path); err != nil {
		t.Fatalf("StartBulkImport returned error: %v", err)
	}
	waitForJob(t, jobs.done)

	if jobs.job.Status != models.JobStatusFailed {
		t.Errorf("job status = %s, want failed", jobs.job.Status)
	}
	if jobs.failMsg == "" {
		t.Error("failed job has no error message")
	}
	if len(store.batches) != 1 {
		t.Errorf("%d batches committed before the failure, want 1", len(store.batches))
	}
}

func TestStartBulkImport_EmptyCorpus(t *testing.T) {
	path := writeCorpusFile(t, "[]")
	svc := NewImportService(
		ImportWithSentenciaStore(&fakeBulkStore{failAtBatch: -1}),
		ImportWithJobStore(newFakeJobStore()),
	)
	if _, err := svc.StartBulkImport(context.Background(), path); err == nil {
		t.Fatal("expected error for empty corpus file")
	}
}

func TestStartUpdateEmbeddings_RequiresVectorizer(t *testing.T) {
	svc := NewImportService(
		ImportWithSentenciaStore(&fakeBulkStore{failAtBatch: -1}),
		ImportWithJobStore(newFakeJobStore()),
		ImportWithEmbedder(&fakeEmbedder{ready: false}),
	)
	_, err := svc.StartUpdateEmbeddings(context.Background())
	if !errors.Is(err, ErrVectorizerUnavailable) {
		t.Fatalf("got %v, want ErrVectorizerUnavailable", err)
	}
}

func TestStartUpdateEmbeddings_EmbedsAllPending(t *testing.T) {
	a := &models.Sentencia{ID: uuid.New(), FullText: "uno"}
	b := &models.Sentencia{ID: uuid.New(), FullText: "dos"}
	c := &models.Sentencia{ID: uuid.New(), FullText: "tres"}
	jobs := newFakeJobStore()
	store := &fakeBulkStore{
		failAtBatch: -1,
		pending:     []*models.Sentencia{a, b, c},
	}
	reloader := &fakeReloader{}

	svc := NewImportService(
		ImportWithSentenciaStore(store),
		ImportWithJobStore(jobs),
		ImportWithEmbedder(&fakeEmbedder{ready: true}),
		ImportWithIndexReloader(reloader),
		ImportWithBatchSize(2),
	)

	job, err := svc.StartUpdateEmbeddings(context.Background())
	if err != nil {
		t.Fatalf("StartUpdateEmbeddings returned error: %v", err)
	}
	if job.Total != 3 {
		t.Errorf("job total = %d, want 3", job.Total)
	}

	waitForJob(t, jobs.done)

	if len(store.updated) != 3 {
		t.Errorf("%d embeddings stored, want 3", len(store.updated))
	}
	if jobs.completeMsg != "embedded 3 sentencias" {
		t.Errorf("completion message = %q", jobs.completeMsg)
	}
	if reloader.count() != 1 {
		t.Errorf("index reloaded %d times, want 1", reloader.count())
	}
}

func TestStartUpdateEmbeddings_SkipsFailingItems(t *testing.T) {
	a := &models.Sentencia{ID: uuid.New(), FullText: "uno"}
	b := &models.Sentencia{ID: uuid.New(), FullText: "dos"}
	c := &models.Sentencia{ID: uuid.New(), FullText: "tres"}
	jobs := newFakeJobStore()
	store := &fakeBulkStore{
		failAtBatch: -1,
		pending:     []*models.Sentencia{a, b, c},
		updateErr:   map[uuid.UUID]error{b.ID: errors.New("disk full")},
	}

	svc := NewImportService(
		ImportWithSentenciaStore(store),
		ImportWithJobStore(jobs),
		ImportWithEmbedder(&fakeEmbedder{ready: true}),
		ImportWithBatchSize(2),
	)

	if _, err := svc.StartUpdateEmbeddings(context.Background()); err != nil {
		t.Fatalf("StartUpdateEmbeddings returned error: %v", err)
	}
	waitForJob(t, jobs.done)

	// The bad item is skipped, everything else still lands.
	if jobs.job.Status != models.JobStatusCompleted {
		t.Errorf("job status = %s, want completed", jobs.job.Status)
	}
	if len(store.updated) != 2 {
		t.Errorf("%d embeddings stored, want 2", len(store.updated))
	}
	for _, id := range store.updated {
		if id == b.ID {
			t.Error("failing sentencia recorded as updated")
		}
	}
	if jobs.completeMsg != "embedded 2 sentencias (1 skipped)" {
		t.Errorf("completion message = %q", jobs.completeMsg)
	}
	if store.listCalls > 10 {
		t.Errorf("ListNeedingEmbeddings called %d times, job looped on the skipped item", store.listCalls)
	}
}

func TestGetJob_NotFound(t *testing.T) {
	svc := NewImportService(
		ImportWithSentenciaStore(&fakeBulkStore{failAtBatch: -1}),
		ImportWithJobStore(newFakeJobStore()),
	)
	_, err := svc.GetJob(context.Background(), uuid.New())
	if !errors.Is(err, ErrJobNotFound) {
		t.Fatalf("got %v, want ErrJobNotFound", err)
	}
}
