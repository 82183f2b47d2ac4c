package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"goyo-backend/models"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// jobTimeout bounds a background job's total runtime
const jobTimeout = 2 * time.Hour

// ImportJobStore persists background job state
type ImportJobStore interface {
	Create(ctx context.Context, job *models.ImportJob) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.ImportJob, error)
	UpdateProgress(ctx context.Context, id uuid.UUID, current, total int, message string) error
	Complete(ctx context.Context, id uuid.UUID, message string) error
	Fail(ctx context.Context, id uuid.UUID, errorMessage string) error
}

// BulkSentenciaStore is the corpus surface the import jobs need
type BulkSentenciaStore interface {
	BulkInsert(ctx context.Context, batch []*models.Sentencia) (int64, error)
	ListNeedingEmbeddings(ctx context.Context, version string, limit int) ([]*models.Sentencia, error)
	CountNeedingEmbeddings(ctx context.Context, version string) (int64, error)
	UpdateEmbedding(ctx context.Context, id uuid.UUID, embedding []float64, version string) error
}

// IndexReloader rebuilds the resident search index after corpus changes
type IndexReloader interface {
	ReloadIndex(ctx context.Context) error
}

// CorpusRecord is one ruling in a corpus JSON file
type CorpusRecord struct {
	Tribunal   string       `json:"tribunal"`
	Fecha      models.Fecha `json:"fecha"`
	Materia    string       `json:"materia"`
	Partes     string       `json:"partes"`
	Expediente string       `json:"expediente"`
	FullText   string       `json:"full_text"`
	URL        *string      `json:"url,omitempty"`
	Resultado  string       `json:"resultado"`
}

// ImportService runs the long corpus jobs in the background: bulk imports
// from a corpus JSON file and embedding refreshes. Each job commits in
// batches, so a failure keeps everything already written; re-running the
// job skips what is already there and picks up the remainder.
type ImportService struct {
	sentenciaRepo BulkSentenciaStore
	jobRepo       ImportJobStore
	embedder      Embedder
	reloader      IndexReloader
	logger        *zap.Logger
	batchSize     int
	corpusFile    string
}

// ImportServiceOption is a functional option for ImportService
type ImportServiceOption func(*ImportService)

// ImportWithSentenciaStore sets the corpus store
func ImportWithSentenciaStore(repo BulkSentenciaStore) ImportServiceOption {
	return func(s *ImportService) {
		s.sentenciaRepo = repo
	}
}

// ImportWithJobStore sets the job store
func ImportWithJobStore(repo ImportJobStore) ImportServiceOption {
	return func(s *ImportService) {
		s.jobRepo = repo
	}
}

// ImportWithEmbedder sets the vectorizer models
func ImportWithEmbedder(embedder Embedder) ImportServiceOption {
	return func(s *ImportService) {
		s.embedder = embedder
	}
}

// ImportWithIndexReloader sets the index to rebuild after jobs finish
func ImportWithIndexReloader(reloader IndexReloader) ImportServiceOption {
	return func(s *ImportService) {
		s.reloader = reloader
	}
}

// ImportWithLogger sets the logger
func ImportWithLogger(logger *zap.Logger) ImportServiceOption {
	return func(s *ImportService) {
		s.logger = logger
	}
}

// ImportWithBatchSize overrides the per-transaction batch size
func ImportWithBatchSize(size int) ImportServiceOption {
	return func(s *ImportService) {
		if size > 0 {
			s.batchSize = size
		}
	}
}

// ImportWithCorpusFile sets the default corpus JSON path
func ImportWithCorpusFile(path string) ImportServiceOption {
	return func(s *ImportService) {
		s.corpusFile = path
	}
}

// NewImportService creates a new import service
func NewImportService(opts ...ImportServiceOption) *ImportService {
	s := &ImportService{
		logger:    zap.NewNop(),
		batchSize: 100,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// GetJob retrieves a background job's state for polling
func (s *ImportService) GetJob(ctx context.Context, id uuid.UUID) (*models.ImportJob, error) {
	job, err := s.jobRepo.GetByID(ctx, id)
	if err != nil {
		return nil, notFound(err, ErrJobNotFound)
	}
	return job, nil
}

// StartBulkImport creates a bulk import job and runs it in the background.
// Records come from the given corpus file, or the configured default when
// path is empty. Returns immediately with the job to poll.
func (s *ImportService) StartBulkImport(ctx context.Context, path string) (*models.ImportJob, error) {
	if s.sentenciaRepo == nil || s.jobRepo == nil {
		return nil, errors.New("import service not fully configured")
	}
	if path == "" {
		path = s.corpusFile
	}

	records, err := readCorpusFile(path)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("corpus file %s contains no records", path)
	}

	job := &models.ImportJob{
		Kind:    models.JobKindBulkImport,
		Status:  models.JobStatusPending,
		Total:   len(records),
		Message: fmt.Sprintf("importing %d sentencias from %s", len(records), path),
	}
	if err := s.jobRepo.Create(ctx, job); err != nil {
		return nil, err
	}

	go s.runBulkImport(job.ID, records)
	return job, nil
}

func (s *ImportService) runBulkImport(jobID uuid.UUID, records []CorpusRecord) {
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()

	var version *string
	if s.embedder != nil && s.embedder.VectorizerReady() {
		v := s.embedder.Version()
		version = &v
	}

	total := len(records)
	var processed, imported int64

	for start := 0; start < total; start += s.batchSize {
		end := start + s.batchSize
		if end > total {
			end = total
		}

		batch := make([]*models.Sentencia, 0, end-start)
		for _, rec := range records[start:end] {
			if rec.Expediente == "" || rec.FullText == "" {
				continue
			}
			sentencia := &models.Sentencia{
				Tribunal:   rec.Tribunal,
				Fecha:      rec.Fecha.Time(),
				Materia:    rec.Materia,
				Partes:     rec.Partes,
				Expediente: rec.Expediente,
				FullText:   rec.FullText,
				URL:        rec.URL,
				Resultado:  rec.Resultado,
			}
			if version != nil {
				if embedding, err := s.embedder.Vectorize(rec.FullText); err == nil {
					sentencia.Embedding = embedding
					sentencia.VectorizerVersion = version
				}
			}
			batch = append(batch, sentencia)
		}

		n, err := s.sentenciaRepo.BulkInsert(ctx, batch)
		if err != nil {
			// Earlier batches are committed; re-running resumes there.
			s.logger.Error("bulk import batch failed",
				zap.String("job_id", jobID.String()),
				zap.Int("batch_start", start),
				zap.Error(err))
			s.failJob(ctx, jobID, fmt.Sprintf("batch starting at record %d failed: %v", start, err))
			return
		}

		processed += int64(end - start)
		imported += n
		if err := s.jobRepo.UpdateProgress(ctx, jobID, int(processed), total,
			fmt.Sprintf("imported %d of %d sentencias", imported, total)); err != nil {
			s.logger.Warn("failed to update job progress", zap.Error(err))
		}
	}

	s.reloadIndex(ctx)

	msg := fmt.Sprintf("imported %d sentencias (%d duplicates skipped)", imported, int64(total)-imported)
	if err := s.jobRepo.Complete(ctx, jobID, msg); err != nil {
		s.logger.Warn("failed to mark job complete", zap.Error(err))
	}
	s.logger.Info("bulk import completed", zap.String("job_id", jobID.String()), zap.Int64("imported", imported))
}

// StartUpdateEmbeddings creates an embedding refresh job and runs it in
// the background. Every ruling whose embedding is missing or was computed
// with an older vectorizer gets re-embedded.
func (s *ImportService) StartUpdateEmbeddings(ctx context.Context) (*models.ImportJob, error) {
	if s.sentenciaRepo == nil || s.jobRepo == nil {
		return nil, errors.New("import service not fully configured")
	}
	if s.embedder == nil || !s.embedder.VectorizerReady() {
		return nil, ErrVectorizerUnavailable
	}

	version := s.embedder.Version()
	pending, err := s.sentenciaRepo.CountNeedingEmbeddings(ctx, version)
	if err != nil {
		return nil, err
	}

	job := &models.ImportJob{
		Kind:    models.JobKindUpdateEmbeddings,
		Status:  models.JobStatusPending,
		Total:   int(pending),
		Message: fmt.Sprintf("%d sentencias need embeddings for vectorizer %s", pending, version),
	}
	if err := s.jobRepo.Create(ctx, job); err != nil {
		return nil, err
	}

	go s.runUpdateEmbeddings(job.ID, version, int(pending))
	return job, nil
}

func (s *ImportService) runUpdateEmbeddings(jobID uuid.UUID, version string, total int) {
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()

	// A single bad item must not abort the whole refresh. Failed items
	// are logged and skipped; the skip set keeps the listing loop from
	// fetching them forever, since they stay unembedded in the store.
	skipped := make(map[uuid.UUID]bool)

	var updated int
	for {
		batch, err := s.sentenciaRepo.ListNeedingEmbeddings(ctx, version, s.batchSize+len(skipped))
		if err != nil {
			s.failJob(ctx, jobID, fmt.Sprintf("listing pending sentencias failed: %v", err))
			return
		}

		advanced := false
		for _, sentencia := range batch {
			if skipped[sentencia.ID] {
				continue
			}
			advanced = true

			embedding, err := s.embedder.Vectorize(sentencia.FullText)
			if err != nil {
				s.logger.Warn("skipping sentencia, embedding failed",
					zap.String("sentencia_id", sentencia.ID.String()),
					zap.Error(err))
				skipped[sentencia.ID] = true
				continue
			}
			if err := s.sentenciaRepo.UpdateEmbedding(ctx, sentencia.ID, embedding, version); err != nil {
				s.logger.Warn("skipping sentencia, storing embedding failed",
					zap.String("sentencia_id", sentencia.ID.String()),
					zap.Error(err))
				skipped[sentencia.ID] = true
				continue
			}
			updated++
		}
		if !advanced {
			break
		}

		if err := s.jobRepo.UpdateProgress(ctx, jobID, updated, total,
			fmt.Sprintf("embedded %d of %d sentencias", updated, total)); err != nil {
			s.logger.Warn("failed to update job progress", zap.Error(err))
		}
	}

	s.reloadIndex(ctx)

	msg := fmt.Sprintf("embedded %d sentencias", updated)
	if len(skipped) > 0 {
		msg = fmt.Sprintf("embedded %d sentencias (%d skipped)", updated, len(skipped))
	}
	if err := s.jobRepo.Complete(ctx, jobID, msg); err != nil {
		s.logger.Warn("failed to mark job complete", zap.Error(err))
	}
	s.logger.Info("embedding refresh completed",
		zap.String("job_id", jobID.String()),
		zap.Int("updated", updated),
		zap.Int("skipped", len(skipped)))
}

func (s *ImportService) failJob(ctx context.Context, jobID uuid.UUID, msg string) {
	if err := s.jobRepo.Fail(ctx, jobID, msg); err != nil {
		s.logger.Error("failed to mark job failed", zap.String("job_id", jobID.String()), zap.Error(err))
	}
}

func (s *ImportService) reloadIndex(ctx context.Context) {
	if s.reloader == nil {
		return
	}
	if err := s.reloader.ReloadIndex(ctx); err != nil {
		s.logger.Warn("failed to reload corpus index after job", zap.Error(err))
	}
}

// readCorpusFile parses a corpus JSON file, an array of ruling records
func readCorpusFile(path string) ([]CorpusRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open corpus file: %w", err)
	}
	defer f.Close()

	var records []CorpusRecord
	if err := json.NewDecoder(f).Decode(&records); err != nil {
		return nil, fmt.Errorf("failed to parse corpus file %s: %w", path, err)
	}
	return records, nil
}
