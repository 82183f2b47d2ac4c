package ai

import (
	"fmt"
	"math"
	"strings"
	"unicode"
)

// Vectorizer turns raw text into TF-IDF vectors over a fitted vocabulary.
// The vocabulary and IDF weights come from a training artifact; the
// vectorizer itself never mutates, so it is safe for concurrent use.
type Vectorizer struct {
	version string
	vocab   map[string]int
	idf     []float64
}

// NewVectorizer builds a vectorizer from a fitted vocabulary and IDF weights.
func NewVectorizer(version string, vocab map[string]int, idf []float64) (*Vectorizer, error) {
	if len(vocab) == 0 {
		return nil, fmt.Errorf("empty vocabulary")
	}
	if len(idf) != len(vocab) {
		return nil, fmt.Errorf("idf length %d does not match vocabulary size %d", len(idf), len(vocab))
	}
	for term, idx := range vocab {
		if idx < 0 || idx >= len(idf) {
			return nil, fmt.Errorf("term %q has out-of-range index %d", term, idx)
		}
	}

	return &Vectorizer{
		version: version,
		vocab:   vocab,
		idf:     idf,
	}, nil
}

// Version identifies the artifact this vectorizer was loaded from.
// Embeddings computed with a different version are not comparable.
func (v *Vectorizer) Version() string {
	return v.version
}

// Dim returns the dimensionality of produced vectors
func (v *Vectorizer) Dim() int {
	return len(v.idf)
}

// Vectorize computes the L2-normalized TF-IDF vector for the given text.
// Out-of-vocabulary terms are ignored. The result is deterministic for
// a given text and vectorizer.
func (v *Vectorizer) Vectorize(text string) []float64 {
	vec := make([]float64, len(v.idf))

	for _, token := range Tokenize(text) {
		idx, ok := v.vocab[token]
		if !ok {
			continue
		}
		vec[idx] += v.idf[idx]
	}

	var norm float64
	for _, x := range vec {
		norm += x * x
	}
	if norm > 0 {
		norm = math.Sqrt(norm)
		for i := range vec {
			vec[i] /= norm
		}
	}

	return vec
}

// Tokenize lowercases text and splits it into word tokens of at least
// two characters. Punctuation and other symbols act as separators.
func Tokenize(text string) []string {
	lower := strings.ToLower(text)

	var tokens []string
	var b strings.Builder
	flush := func() {
		if b.Len() > 0 {
			tok := b.String()
			if len([]rune(tok)) >= 2 {
				tokens = append(tokens, tok)
			}
			b.Reset()
		}
	}

	for _, r := range lower {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		} else {
			flush()
		}
	}
	flush()

	return tokens
}
