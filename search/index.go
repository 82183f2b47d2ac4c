// Package search implements the jurisprudence similarity core: cosine
// scoring and ranked retrieval over a corpus of embedded rulings.
package search

import (
	"sort"
	"sync"

	"github.com/google/uuid"
)

// Default retrieval parameters. Callers may override both per query.
const (
	DefaultThreshold = 0.1
	DefaultLimit     = 5
)

// Item is a corpus entry registered with an index. Entries without an
// embedding are never returned as matches.
type Item struct {
	ID        uuid.UUID
	Embedding []float64
}

// Match pairs a corpus item with its similarity to a query, transient per
// query and discarded after the response is built.
type Match struct {
	ID         uuid.UUID
	Similarity float64
}

// CorpusIndex ranks corpus items against a query vector. The in-memory
// linear scan below and any approximate-nearest-neighbor backend are
// interchangeable behind this contract.
type CorpusIndex interface {
	// Rank returns items with similarity strictly greater than threshold,
	// sorted by descending similarity (ties keep corpus order), truncated to
	// limit. A corpus with no qualifying items yields an empty slice.
	Rank(query []float64, threshold float64, limit int) []Match

	// Len reports the number of indexed items.
	Len() int
}

// MemoryIndex is a linear-scan CorpusIndex. Each query scores every indexed
// item, which holds up to corpora of a few hundred thousand entries; beyond
// that an ANN index should be substituted behind CorpusIndex.
type MemoryIndex struct {
	mu    sync.RWMutex
	items []Item
}

// NewMemoryIndex creates an empty in-memory index.
func NewMemoryIndex() *MemoryIndex {
	return &MemoryIndex{}
}

// Replace swaps the entire indexed corpus. Used after bulk imports and
// embedding refreshes.
func (idx *MemoryIndex) Replace(items []Item) {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	idx.items = items
}

// Add appends a single item to the index.
func (idx *MemoryIndex) Add(item Item) {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	idx.items = append(idx.items, item)
}

// Len reports the number of indexed items.
func (idx *MemoryIndex) Len() int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return len(idx.items)
}

// Rank implements CorpusIndex.
func (idx *MemoryIndex) Rank(query []float64, threshold float64, limit int) []Match {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return Rank(idx.items, query, threshold, limit)
}

// Rank scores an item slice against a query without an index, for callers
// that pre-filter the corpus per query. Same contract as CorpusIndex.Rank.
func Rank(items []Item, query []float64, threshold float64, limit int) []Match {
	if limit <= 0 {
		limit = DefaultLimit
	}

	matches := make([]Match, 0, limit)
	for _, item := range items {
		if len(item.Embedding) == 0 {
			// No embedding yet: skip, never score as a zero-relevance match.
			continue
		}
		sim := Cosine(query, item.Embedding)
		if sim > threshold {
			matches = append(matches, Match{ID: item.ID, Similarity: sim})
		}
	}

	// Stable sort keeps corpus order for equal similarities.
	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Similarity > matches[j].Similarity
	})

	if len(matches) > limit {
		matches = matches[:limit]
	}

	return matches
}
