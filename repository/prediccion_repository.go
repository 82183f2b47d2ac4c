package repository

import (
	"context"

	"goyo-backend/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PrediccionRepository handles database operations for predictions.
// Predictions are an append-only audit trail: they are created and read,
// never updated or deleted.
type PrediccionRepository struct {
	db *pgxpool.Pool
}

// NewPrediccionRepository creates a new prediccion repository
func NewPrediccionRepository(db *pgxpool.Pool) *PrediccionRepository {
	return &PrediccionRepository{db: db}
}

// Create inserts a new prediction
func (r *PrediccionRepository) Create(ctx context.Context, p *models.Prediccion) error {
	query := `
		INSERT INTO predicciones (
			expediente_id, sentencias_fundamento, probabilidad_fallo, fundamento, confianza
		) VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at`

	return r.db.QueryRow(
		ctx, query,
		p.ExpedienteID,
		p.SentenciasFundamento,
		p.ProbabilidadFallo,
		p.Fundamento,
		p.Confianza,
	).Scan(&p.ID, &p.CreatedAt)
}

// GetByID retrieves a prediction by ID
func (r *PrediccionRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Prediccion, error) {
	query := `
		SELECT id, expediente_id, sentencias_fundamento, probabilidad_fallo,
			fundamento, confianza, created_at
		FROM predicciones
		WHERE id = $1`

	p := &models.Prediccion{}
	err := r.db.QueryRow(ctx, query, id).Scan(
		&p.ID,
		&p.ExpedienteID,
		&p.SentenciasFundamento,
		&p.ProbabilidadFallo,
		&p.Fundamento,
		&p.Confianza,
		&p.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return p, nil
}

// ListByExpediente retrieves an expediente's predictions, newest first
func (r *PrediccionRepository) ListByExpediente(ctx context.Context, expedienteID uuid.UUID) ([]*models.Prediccion, error) {
	query := `
		SELECT id, expediente_id, sentencias_fundamento, probabilidad_fallo,
			fundamento, confianza, created_at
		FROM predicciones
		WHERE expediente_id = $1
		ORDER BY created_at DESC, id`

	rows, err := r.db.Query(ctx, query, expedienteID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var predicciones []*models.Prediccion
	for rows.Next() {
		p := &models.Prediccion{}
		err := rows.Scan(
			&p.ID,
			&p.ExpedienteID,
			&p.SentenciasFundamento,
			&p.ProbabilidadFallo,
			&p.Fundamento,
			&p.Confianza,
			&p.CreatedAt,
		)
		if err != nil {
			return nil, err
		}
		predicciones = append(predicciones, p)
	}
	return predicciones, rows.Err()
}
