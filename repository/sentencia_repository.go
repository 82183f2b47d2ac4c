package repository

import (
	"context"
	"fmt"
	"strings"

	"goyo-backend/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// SentenciaRepository handles database operations for the jurisprudence corpus
type SentenciaRepository struct {
	db *pgxpool.Pool
}

// NewSentenciaRepository creates a new sentencia repository
func NewSentenciaRepository(db *pgxpool.Pool) *SentenciaRepository {
	return &SentenciaRepository{db: db}
}

const sentenciaColumns = `id, tribunal, fecha, materia, partes, expediente,
	full_text, url, resultado, embedding, vectorizer_version,
	created_at, updated_at`

func scanSentencia(row pgx.Row) (*models.Sentencia, error) {
	s := &models.Sentencia{}
	err := row.Scan(
		&s.ID,
		&s.Tribunal,
		&s.Fecha,
		&s.Materia,
		&s.Partes,
		&s.Expediente,
		&s.FullText,
		&s.URL,
		&s.Resultado,
		&s.Embedding,
		&s.VectorizerVersion,
		&s.CreatedAt,
		&s.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return s, nil
}

// Create inserts a new sentencia
func (r *SentenciaRepository) Create(ctx context.Context, s *models.Sentencia) error {
	query := `
		INSERT INTO sentencias (
			tribunal, fecha, materia, partes, expediente,
			full_text, url, resultado, embedding, vectorizer_version
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id, created_at, updated_at`

	err := r.db.QueryRow(
		ctx, query,
		s.Tribunal,
		s.Fecha,
		s.Materia,
		s.Partes,
		s.Expediente,
		s.FullText,
		s.URL,
		s.Resultado,
		s.Embedding,
		s.VectorizerVersion,
	).Scan(&s.ID, &s.CreatedAt, &s.UpdatedAt)

	return err
}

// GetByID retrieves a sentencia by ID
func (r *SentenciaRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Sentencia, error) {
	query := `SELECT ` + sentenciaColumns + ` FROM sentencias WHERE id = $1`
	return scanSentencia(r.db.QueryRow(ctx, query, id))
}

// GetByIDs retrieves sentencias for a set of IDs. Missing IDs are skipped.
func (r *SentenciaRepository) GetByIDs(ctx context.Context, ids []uuid.UUID) ([]*models.Sentencia, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	query := `SELECT ` + sentenciaColumns + ` FROM sentencias WHERE id = ANY($1)`
	rows, err := r.db.Query(ctx, query, ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectSentencias(rows)
}

// filterClause builds WHERE conditions for the optional corpus filters
func filterClause(filter models.SentenciaFilter, args []any) (string, []any) {
	var conditions []string

	if filter.Tribunal != "" {
		args = append(args, filter.Tribunal)
		conditions = append(conditions, fmt.Sprintf("tribunal = $%d", len(args)))
	}
	if filter.Materia != "" {
		args = append(args, filter.Materia)
		conditions = append(conditions, fmt.Sprintf("materia = $%d", len(args)))
	}
	if filter.FechaDesde != nil {
		args = append(args, *filter.FechaDesde)
		conditions = append(conditions, fmt.Sprintf("fecha >= $%d", len(args)))
	}
	if filter.FechaHasta != nil {
		args = append(args, *filter.FechaHasta)
		conditions = append(conditions, fmt.Sprintf("fecha <= $%d", len(args)))
	}

	if len(conditions) == 0 {
		return "", args
	}
	return " WHERE " + strings.Join(conditions, " AND "), args
}

// List retrieves sentencias matching the filter, newest first
func (r *SentenciaRepository) List(ctx context.Context, filter models.SentenciaFilter, limit, offset int) ([]*models.Sentencia, error) {
	where, args := filterClause(filter, nil)
	args = append(args, limit, offset)
	query := fmt.Sprintf(`SELECT %s FROM sentencias%s ORDER BY fecha DESC, id LIMIT $%d OFFSET $%d`,
		sentenciaColumns, where, len(args)-1, len(args))

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectSentencias(rows)
}

// Count returns the number of sentencias matching the filter
func (r *SentenciaRepository) Count(ctx context.Context, filter models.SentenciaFilter) (int64, error) {
	where, args := filterClause(filter, nil)
	var count int64
	err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM sentencias`+where, args...).Scan(&count)
	return count, err
}

// ListEmbedded retrieves sentencias matching the filter that carry an
// embedding for the given vectorizer version. Used to build the in-memory
// search index and to run filtered similarity queries.
func (r *SentenciaRepository) ListEmbedded(ctx context.Context, filter models.SentenciaFilter, version string) ([]*models.Sentencia, error) {
	where, args := filterClause(filter, nil)
	if where == "" {
		where = " WHERE "
	} else {
		where += " AND "
	}
	args = append(args, version)
	query := fmt.Sprintf(
		`SELECT %s FROM sentencias%scardinality(embedding) > 0 AND vectorizer_version = $%d`,
		sentenciaColumns, where, len(args))

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectSentencias(rows)
}

// Update updates a sentencia's metadata and text
func (r *SentenciaRepository) Update(ctx context.Context, s *models.Sentencia) error {
	query := `
		UPDATE sentencias SET
			tribunal = $2,
			fecha = $3,
			materia = $4,
			partes = $5,
			expediente = $6,
			full_text = $7,
			url = $8,
			resultado = $9,
			embedding = $10,
			vectorizer_version = $11,
			updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at`

	return r.db.QueryRow(
		ctx, query,
		s.ID,
		s.Tribunal,
		s.Fecha,
		s.Materia,
		s.Partes,
		s.Expediente,
		s.FullText,
		s.URL,
		s.Resultado,
		s.Embedding,
		s.VectorizerVersion,
	).Scan(&s.UpdatedAt)
}

// UpdateEmbedding stores a freshly computed embedding for a sentencia
func (r *SentenciaRepository) UpdateEmbedding(ctx context.Context, id uuid.UUID, embedding []float64, version string) error {
	query := `
		UPDATE sentencias SET embedding = $2, vectorizer_version = $3, updated_at = NOW()
		WHERE id = $1`

	tag, err := r.db.Exec(ctx, query, id, embedding, version)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

// Delete removes a sentencia from the corpus
func (r *SentenciaRepository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM sentencias WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

// ListNeedingEmbeddings retrieves sentencias whose embedding is missing or
// was computed with a different vectorizer version.
func (r *SentenciaRepository) ListNeedingEmbeddings(ctx context.Context, version string, limit int) ([]*models.Sentencia, error) {
	query := `
		SELECT ` + sentenciaColumns + `
		FROM sentencias
		WHERE embedding IS NULL
			OR cardinality(embedding) = 0
			OR vectorizer_version IS DISTINCT FROM $1
		ORDER BY created_at
		LIMIT $2`

	rows, err := r.db.Query(ctx, query, version, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectSentencias(rows)
}

// CountNeedingEmbeddings counts sentencias without a current embedding
func (r *SentenciaRepository) CountNeedingEmbeddings(ctx context.Context, version string) (int64, error) {
	query := `
		SELECT COUNT(*)
		FROM sentencias
		WHERE embedding IS NULL
			OR cardinality(embedding) = 0
			OR vectorizer_version IS DISTINCT FROM $1`

	var count int64
	err := r.db.QueryRow(ctx, query, version).Scan(&count)
	return count, err
}

// BulkInsert inserts a batch of sentencias in a single transaction.
// Sentencias already present (same tribunal and docket number) are
// skipped, so re-running an interrupted import picks up the remainder.
// Returns the number actually inserted.
func (r *SentenciaRepository) BulkInsert(ctx context.Context, batch []*models.Sentencia) (int64, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback(ctx)

	query := `
		INSERT INTO sentencias (
			tribunal, fecha, materia, partes, expediente,
			full_text, url, resultado, embedding, vectorizer_version
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (tribunal, expediente) DO NOTHING`

	var inserted int64
	for _, s := range batch {
		tag, err := tx.Exec(
			ctx, query,
			s.Tribunal,
			s.Fecha,
			s.Materia,
			s.Partes,
			s.Expediente,
			s.FullText,
			s.URL,
			s.Resultado,
			s.Embedding,
			s.VectorizerVersion,
		)
		if err != nil {
			return 0, err
		}
		inserted += tag.RowsAffected()
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, err
	}
	return inserted, nil
}

// Tribunales returns the distinct court names in the corpus
func (r *SentenciaRepository) Tribunales(ctx context.Context) ([]string, error) {
	return r.distinct(ctx, "tribunal")
}

// Materias returns the distinct legal matters in the corpus
func (r *SentenciaRepository) Materias(ctx context.Context) ([]string, error) {
	return r.distinct(ctx, "materia")
}

func (r *SentenciaRepository) distinct(ctx context.Context, column string) ([]string, error) {
	query := fmt.Sprintf(`SELECT DISTINCT %s FROM sentencias WHERE %s <> '' ORDER BY %s`, column, column, column)

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var values []string
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, err
		}
		values = append(values, v)
	}
	return values, rows.Err()
}

// Stats summarizes the corpus for the stats endpoint
func (r *SentenciaRepository) Stats(ctx context.Context) (*models.SentenciaStats, error) {
	stats := &models.SentenciaStats{
		PorTribunal: make(map[string]int64),
		PorMateria:  make(map[string]int64),
	}

	err := r.db.QueryRow(ctx, `
		SELECT COUNT(*),
			COUNT(*) FILTER (WHERE cardinality(embedding) > 0)
		FROM sentencias`).Scan(&stats.Total, &stats.ConEmbedding)
	if err != nil {
		return nil, err
	}

	if err := r.groupCount(ctx, "tribunal", stats.PorTribunal); err != nil {
		return nil, err
	}
	if err := r.groupCount(ctx, "materia", stats.PorMateria); err != nil {
		return nil, err
	}

	return stats, nil
}

func (r *SentenciaRepository) groupCount(ctx context.Context, column string, out map[string]int64) error {
	query := fmt.Sprintf(`SELECT %s, COUNT(*) FROM sentencias GROUP BY %s`, column, column)

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var key string
		var count int64
		if err := rows.Scan(&key, &count); err != nil {
			return err
		}
		out[key] = count
	}
	return rows.Err()
}

func collectSentencias(rows pgx.Rows) ([]*models.Sentencia, error) {
	var sentencias []*models.Sentencia
	for rows.Next() {
		s, err := scanSentencia(rows)
		if err != nil {
			return nil, err
		}
		sentencias = append(sentencias, s)
	}
	return sentencias, rows.Err()
}
