package models

import (
	"time"

	"github.com/google/uuid"
)

// EstadoExpediente represents the lifecycle state of a case
type EstadoExpediente string

const (
	EstadoActivo    EstadoExpediente = "activo"
	EstadoCerrado   EstadoExpediente = "cerrado"
	EstadoEliminado EstadoExpediente = "eliminado"
)

// Expediente represents a case/docket grouping documents and predictions
type Expediente struct {
	ID        uuid.UUID        `json:"id"`
	Numero    string           `json:"numero"` // unique case number
	Tribunal  string           `json:"tribunal"`
	Materia   string           `json:"materia"`
	Partes    string           `json:"partes"`
	Estado    EstadoExpediente `json:"estado"`
	CreatedAt time.Time        `json:"created_at"`
	UpdatedAt time.Time        `json:"updated_at"`
}

// DocumentoExpediente represents a document owned by an expediente.
// Editing the content invalidates the embedding; the service recomputes it.
type DocumentoExpediente struct {
	ID            uuid.UUID `json:"id"`
	ExpedienteID  uuid.UUID `json:"expediente_id"`
	TipoDocumento string    `json:"tipo_documento"`
	Contenido     string    `json:"contenido"`
	FechaCreacion time.Time `json:"fecha_creacion"`
	Embedding     []float64 `json:"-"`
	CreatedAt     time.Time `json:"created_at"`
}
