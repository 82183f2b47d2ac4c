package repository

import (
	"context"

	"goyo-backend/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ExpedienteRepository handles database operations for case files
type ExpedienteRepository struct {
	db *pgxpool.Pool
}

// NewExpedienteRepository creates a new expediente repository
func NewExpedienteRepository(db *pgxpool.Pool) *ExpedienteRepository {
	return &ExpedienteRepository{db: db}
}

// Create inserts a new expediente
func (r *ExpedienteRepository) Create(ctx context.Context, e *models.Expediente) error {
	query := `
		INSERT INTO expedientes (numero, tribunal, materia, partes, estado)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at, updated_at`

	return r.db.QueryRow(
		ctx, query,
		e.Numero,
		e.Tribunal,
		e.Materia,
		e.Partes,
		e.Estado,
	).Scan(&e.ID, &e.CreatedAt, &e.UpdatedAt)
}

// GetByID retrieves an expediente by ID. Soft-deleted expedientes are
// not returned.
func (r *ExpedienteRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Expediente, error) {
	query := `
		SELECT id, numero, tribunal, materia, partes, estado, created_at, updated_at
		FROM expedientes
		WHERE id = $1 AND estado <> $2`

	e := &models.Expediente{}
	err := r.db.QueryRow(ctx, query, id, models.EstadoEliminado).Scan(
		&e.ID,
		&e.Numero,
		&e.Tribunal,
		&e.Materia,
		&e.Partes,
		&e.Estado,
		&e.CreatedAt,
		&e.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return e, nil
}

// List retrieves expedientes, newest first, excluding soft-deleted ones
func (r *ExpedienteRepository) List(ctx context.Context, limit, offset int) ([]*models.Expediente, error) {
	query := `
		SELECT id, numero, tribunal, materia, partes, estado, created_at, updated_at
		FROM expedientes
		WHERE estado <> $1
		ORDER BY created_at DESC, id
		LIMIT $2 OFFSET $3`

	rows, err := r.db.Query(ctx, query, models.EstadoEliminado, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var expedientes []*models.Expediente
	for rows.Next() {
		e := &models.Expediente{}
		err := rows.Scan(
			&e.ID,
			&e.Numero,
			&e.Tribunal,
			&e.Materia,
			&e.Partes,
			&e.Estado,
			&e.CreatedAt,
			&e.UpdatedAt,
		)
		if err != nil {
			return nil, err
		}
		expedientes = append(expedientes, e)
	}
	return expedientes, rows.Err()
}

// Update updates an expediente's metadata
func (r *ExpedienteRepository) Update(ctx context.Context, e *models.Expediente) error {
	query := `
		UPDATE expedientes SET
			numero = $2,
			tribunal = $3,
			materia = $4,
			partes = $5,
			estado = $6,
			updated_at = NOW()
		WHERE id = $1 AND estado <> $7
		RETURNING updated_at`

	return r.db.QueryRow(
		ctx, query,
		e.ID,
		e.Numero,
		e.Tribunal,
		e.Materia,
		e.Partes,
		e.Estado,
		models.EstadoEliminado,
	).Scan(&e.UpdatedAt)
}

// SoftDelete marks an expediente as deleted without removing its rows
func (r *ExpedienteRepository) SoftDelete(ctx context.Context, id uuid.UUID) error {
	query := `
		UPDATE expedientes SET estado = $2, updated_at = NOW()
		WHERE id = $1 AND estado <> $2`

	tag, err := r.db.Exec(ctx, query, id, models.EstadoEliminado)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

// AddDocumento attaches a document to an expediente
func (r *ExpedienteRepository) AddDocumento(ctx context.Context, d *models.DocumentoExpediente) error {
	query := `
		INSERT INTO documentos_expediente (
			expediente_id, tipo_documento, contenido, fecha_creacion, embedding
		) VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at`

	return r.db.QueryRow(
		ctx, query,
		d.ExpedienteID,
		d.TipoDocumento,
		d.Contenido,
		d.FechaCreacion,
		d.Embedding,
	).Scan(&d.ID, &d.CreatedAt)
}

// GetDocumento retrieves a single case document
func (r *ExpedienteRepository) GetDocumento(ctx context.Context, id uuid.UUID) (*models.DocumentoExpediente, error) {
	query := `
		SELECT id, expediente_id, tipo_documento, contenido, fecha_creacion, embedding, created_at
		FROM documentos_expediente
		WHERE id = $1`

	d := &models.DocumentoExpediente{}
	err := r.db.QueryRow(ctx, query, id).Scan(
		&d.ID,
		&d.ExpedienteID,
		&d.TipoDocumento,
		&d.Contenido,
		&d.FechaCreacion,
		&d.Embedding,
		&d.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return d, nil
}

// ListDocumentos retrieves the documents of an expediente, oldest first
func (r *ExpedienteRepository) ListDocumentos(ctx context.Context, expedienteID uuid.UUID) ([]*models.DocumentoExpediente, error) {
	query := `
		SELECT id, expediente_id, tipo_documento, contenido, fecha_creacion, embedding, created_at
		FROM documentos_expediente
		WHERE expediente_id = $1
		ORDER BY fecha_creacion, id`

	rows, err := r.db.Query(ctx, query, expedienteID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var documentos []*models.DocumentoExpediente
	for rows.Next() {
		d := &models.DocumentoExpediente{}
		err := rows.Scan(
			&d.ID,
			&d.ExpedienteID,
			&d.TipoDocumento,
			&d.Contenido,
			&d.FechaCreacion,
			&d.Embedding,
			&d.CreatedAt,
		)
		if err != nil {
			return nil, err
		}
		documentos = append(documentos, d)
	}
	return documentos, rows.Err()
}

// UpdateDocumento replaces a document's content and embedding
func (r *ExpedienteRepository) UpdateDocumento(ctx context.Context, d *models.DocumentoExpediente) error {
	query := `
		UPDATE documentos_expediente SET
			tipo_documento = $2,
			contenido = $3,
			embedding = $4
		WHERE id = $1`

	tag, err := r.db.Exec(ctx, query, d.ID, d.TipoDocumento, d.Contenido, d.Embedding)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}
