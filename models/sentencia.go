package models

import (
	"time"

	"github.com/google/uuid"
)

// Sentencia represents an archived court ruling in the jurisprudence corpus
type Sentencia struct {
	ID                uuid.UUID `json:"id"`
	Tribunal          string    `json:"tribunal"`
	Fecha             time.Time `json:"fecha"`
	Materia           string    `json:"materia"`
	Partes            string    `json:"partes"`
	Expediente        string    `json:"expediente"` // docket number, unique within the corpus
	FullText          string    `json:"full_text"`
	URL               *string   `json:"url,omitempty"`
	Resultado         string    `json:"resultado"` // outcome tag, e.g. "favorable", "desfavorable"
	Embedding         []float64 `json:"-"`
	VectorizerVersion *string   `json:"-"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

// HasEmbedding reports whether the sentencia has a usable embedding for the
// given vectorizer version. Embeddings produced by a different vectorizer
// are treated exactly like missing ones: comparing them is meaningless.
func (s *Sentencia) HasEmbedding(version string) bool {
	if len(s.Embedding) == 0 {
		return false
	}
	return s.VectorizerVersion != nil && *s.VectorizerVersion == version
}

// Excerpt returns the first n characters of the full text, with an ellipsis
// when truncated.
func (s *Sentencia) Excerpt(n int) string {
	runes := []rune(s.FullText)
	if len(runes) <= n {
		return s.FullText
	}
	return string(runes[:n]) + "..."
}

// SentenciaFilter holds optional metadata filters for corpus queries
type SentenciaFilter struct {
	Tribunal   string
	Materia    string
	FechaDesde *time.Time
	FechaHasta *time.Time
}

// SentenciaStats summarizes the state of the jurisprudence corpus
type SentenciaStats struct {
	Total        int64            `json:"total"`
	ConEmbedding int64            `json:"con_embedding"`
	PorTribunal  map[string]int64 `json:"por_tribunal"`
	PorMateria   map[string]int64 `json:"por_materia"`
}
