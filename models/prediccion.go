package models

import (
	"time"

	"github.com/google/uuid"
)

// Prediccion represents a persisted predictive analysis. Records are
// immutable: a new analysis always creates a new row.
type Prediccion struct {
	ID                   uuid.UUID   `json:"id"`
	ExpedienteID         uuid.UUID   `json:"expediente_id"`
	SentenciasFundamento []uuid.UUID `json:"sentencias_fundamento"`
	ProbabilidadFallo    float64     `json:"probabilidad_fallo"` // in [0,1]
	Fundamento           string      `json:"fundamento"`
	Confianza            float64     `json:"confianza"`
	CreatedAt            time.Time   `json:"created_at"`
}
