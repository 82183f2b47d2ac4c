package repository

import (
	"context"

	"goyo-backend/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// EscritoRepository handles database operations for legal document templates
type EscritoRepository struct {
	db *pgxpool.Pool
}

// NewEscritoRepository creates a new escrito repository
func NewEscritoRepository(db *pgxpool.Pool) *EscritoRepository {
	return &EscritoRepository{db: db}
}

// Create inserts a new template
func (r *EscritoRepository) Create(ctx context.Context, e *models.EscritoLegal) error {
	query := `
		INSERT INTO escritos_legales (nombre, tipo, contenido_template, embedding)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at, updated_at`

	return r.db.QueryRow(
		ctx, query,
		e.Nombre,
		e.Tipo,
		e.ContenidoTemplate,
		e.Embedding,
	).Scan(&e.ID, &e.CreatedAt, &e.UpdatedAt)
}

// GetByID retrieves a template by ID
func (r *EscritoRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.EscritoLegal, error) {
	query := `
		SELECT id, nombre, tipo, contenido_template, embedding, created_at, updated_at
		FROM escritos_legales
		WHERE id = $1`

	return r.scanOne(r.db.QueryRow(ctx, query, id))
}

// GetByNombre retrieves a template by its unique name
func (r *EscritoRepository) GetByNombre(ctx context.Context, nombre string) (*models.EscritoLegal, error) {
	query := `
		SELECT id, nombre, tipo, contenido_template, embedding, created_at, updated_at
		FROM escritos_legales
		WHERE nombre = $1`

	return r.scanOne(r.db.QueryRow(ctx, query, nombre))
}

// List retrieves all templates ordered by name, optionally filtered by type
func (r *EscritoRepository) List(ctx context.Context, tipo string) ([]*models.EscritoLegal, error) {
	query := `
		SELECT id, nombre, tipo, contenido_template, embedding, created_at, updated_at
		FROM escritos_legales`
	var args []any
	if tipo != "" {
		query += ` WHERE tipo = $1`
		args = append(args, tipo)
	}
	query += ` ORDER BY nombre`

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var escritos []*models.EscritoLegal
	for rows.Next() {
		e, err := r.scanOne(rows)
		if err != nil {
			return nil, err
		}
		escritos = append(escritos, e)
	}
	return escritos, rows.Err()
}

func (r *EscritoRepository) scanOne(row pgx.Row) (*models.EscritoLegal, error) {
	e := &models.EscritoLegal{}
	err := row.Scan(
		&e.ID,
		&e.Nombre,
		&e.Tipo,
		&e.ContenidoTemplate,
		&e.Embedding,
		&e.CreatedAt,
		&e.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return e, nil
}
