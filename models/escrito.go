package models

import (
	"time"

	"github.com/google/uuid"
)

// EscritoLegal represents a legal document template. Placeholders of the
// form {{NOMBRE}} are substituted with case data at generation time.
type EscritoLegal struct {
	ID                uuid.UUID `json:"id"`
	Nombre            string    `json:"nombre"` // unique template name
	Tipo              string    `json:"tipo"`
	ContenidoTemplate string    `json:"contenido_template"`
	Embedding         []float64 `json:"-"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}
