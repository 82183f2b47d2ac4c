package repository

import (
	"context"
	"time"

	"goyo-backend/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ImportJobRepository handles database operations for background corpus jobs
type ImportJobRepository struct {
	db *pgxpool.Pool
}

// NewImportJobRepository creates a new import job repository
func NewImportJobRepository(db *pgxpool.Pool) *ImportJobRepository {
	return &ImportJobRepository{db: db}
}

// Create creates a new job record. error_message stays NULL until the job
// fails.
func (r *ImportJobRepository) Create(ctx context.Context, job *models.ImportJob) error {
	query := `
		INSERT INTO import_jobs (kind, status, current, total, message)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at, updated_at`

	return r.db.QueryRow(
		ctx, query,
		job.Kind,
		job.Status,
		job.Current,
		job.Total,
		job.Message,
	).Scan(&job.ID, &job.CreatedAt, &job.UpdatedAt)
}

// GetByID retrieves a job by ID
func (r *ImportJobRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.ImportJob, error) {
	query := `
		SELECT id, kind, status, current, total, message, error_message,
			created_at, updated_at, completed_at
		FROM import_jobs
		WHERE id = $1`

	job := &models.ImportJob{}
	err := r.db.QueryRow(ctx, query, id).Scan(
		&job.ID,
		&job.Kind,
		&job.Status,
		&job.Current,
		&job.Total,
		&job.Message,
		&job.ErrorMessage,
		&job.CreatedAt,
		&job.UpdatedAt,
		&job.CompletedAt,
	)
	if err != nil {
		return nil, err
	}
	return job, nil
}

// UpdateProgress records how far a running job has advanced
func (r *ImportJobRepository) UpdateProgress(ctx context.Context, id uuid.UUID, current, total int, message string) error {
	query := `
		UPDATE import_jobs SET
			status = $2,
			current = $3,
			total = $4,
			message = $5,
			updated_at = NOW()
		WHERE id = $1`

	tag, err := r.db.Exec(ctx, query, id, models.JobStatusInProgress, current, total, message)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

// Complete marks a job as finished successfully
func (r *ImportJobRepository) Complete(ctx context.Context, id uuid.UUID, message string) error {
	query := `
		UPDATE import_jobs SET
			status = $2,
			message = $3,
			completed_at = $4,
			updated_at = NOW()
		WHERE id = $1`

	tag, err := r.db.Exec(ctx, query, id, models.JobStatusCompleted, message, time.Now())
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

// Fail marks a job as failed with an error message. Progress made before
// the failure stays recorded.
func (r *ImportJobRepository) Fail(ctx context.Context, id uuid.UUID, errorMessage string) error {
	query := `
		UPDATE import_jobs SET
			status = $2,
			error_message = $3,
			completed_at = $4,
			updated_at = NOW()
		WHERE id = $1`

	tag, err := r.db.Exec(ctx, query, id, models.JobStatusFailed, errorMessage, time.Now())
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}
