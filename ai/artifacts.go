package ai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"goyo-backend/config"
	"goyo-backend/storage"
)

// ErrModelNotLoaded is returned when an operation requires a model
// artifact that failed to load at startup.
var ErrModelNotLoaded = errors.New("model artifact not loaded")

// vectorizerArtifact is the JSON layout of an exported TF-IDF vectorizer.
type vectorizerArtifact struct {
	Version    string         `json:"version"`
	Vocabulary map[string]int `json:"vocabulary"`
	IDF        []float64      `json:"idf"`
}

// classifierArtifact is the JSON layout of an exported outcome classifier.
type classifierArtifact struct {
	Classes    []string    `json:"classes"`
	Weights    [][]float64 `json:"weights"`
	Intercepts []float64   `json:"intercepts"`
}

// Models holds whichever model artifacts loaded successfully. A missing
// artifact leaves the corresponding field nil and the service runs
// degraded: vectorization fails with ErrModelNotLoaded, classification
// returns the unavailable sentinel.
type Models struct {
	vectorizer *Vectorizer
	classifier *Classifier
}

// LoadModels loads the vectorizer and classifier artifacts from storage.
// Load failures are logged and tolerated; they never stop the server.
func LoadModels(ctx context.Context, store storage.Storage, cfg *config.Config, logger *zap.Logger) *Models {
	m := &Models{}

	vec, err := loadVectorizer(ctx, store, cfg.VectorizerArtifact)
	if err != nil {
		logger.Warn("vectorizer artifact unavailable, running degraded",
			zap.String("artifact", cfg.VectorizerArtifact),
			zap.Error(err))
	} else {
		m.vectorizer = vec
		logger.Info("vectorizer loaded",
			zap.String("version", vec.Version()),
			zap.Int("vocabulary_size", vec.Dim()))
	}

	clf, err := loadClassifier(ctx, store, cfg.ClassifierArtifact)
	if err != nil {
		logger.Warn("classifier artifact unavailable, running degraded",
			zap.String("artifact", cfg.ClassifierArtifact),
			zap.Error(err))
	} else {
		m.classifier = clf
		logger.Info("classifier loaded",
			zap.Strings("classes", clf.Classes()),
			zap.Int("dim", clf.Dim()))
	}

	if m.vectorizer != nil && m.classifier != nil && m.vectorizer.Dim() != m.classifier.Dim() {
		logger.Warn("classifier dimensionality does not match vectorizer, discarding classifier",
			zap.Int("vectorizer_dim", m.vectorizer.Dim()),
			zap.Int("classifier_dim", m.classifier.Dim()))
		m.classifier = nil
	}

	return m
}

// NewModels wires already-built models together, mainly for tests.
func NewModels(vec *Vectorizer, clf *Classifier) *Models {
	return &Models{vectorizer: vec, classifier: clf}
}

// VectorizerReady reports whether text can be embedded
func (m *Models) VectorizerReady() bool {
	return m.vectorizer != nil
}

// ClassifierReady reports whether outcomes can be classified
func (m *Models) ClassifierReady() bool {
	return m.classifier != nil
}

// Version returns the loaded vectorizer's artifact version, or "" when
// no vectorizer is loaded.
func (m *Models) Version() string {
	if m.vectorizer == nil {
		return ""
	}
	return m.vectorizer.Version()
}

// Vectorize embeds text with the loaded vectorizer
func (m *Models) Vectorize(text string) ([]float64, error) {
	if m.vectorizer == nil {
		return nil, fmt.Errorf("vectorizer: %w", ErrModelNotLoaded)
	}
	return m.vectorizer.Vectorize(text), nil
}

// Classify predicts the outcome class for an embedded text. Without a
// loaded classifier it returns the unavailable sentinel rather than
// an error, so callers can keep serving partial results.
func (m *Models) Classify(vec []float64) Outcome {
	if m.classifier == nil {
		return Outcome{Label: LabelUnavailable, Confidence: 0}
	}
	return m.classifier.Predict(vec)
}

func loadVectorizer(ctx context.Context, store storage.Storage, key string) (*Vectorizer, error) {
	var artifact vectorizerArtifact
	if err := loadJSON(ctx, store, key, &artifact); err != nil {
		return nil, err
	}
	if artifact.Version == "" {
		return nil, fmt.Errorf("artifact %s has no version", key)
	}
	return NewVectorizer(artifact.Version, artifact.Vocabulary, artifact.IDF)
}

func loadClassifier(ctx context.Context, store storage.Storage, key string) (*Classifier, error) {
	var artifact classifierArtifact
	if err := loadJSON(ctx, store, key, &artifact); err != nil {
		return nil, err
	}
	return NewClassifier(artifact.Classes, artifact.Weights, artifact.Intercepts)
}

func loadJSON(ctx context.Context, store storage.Storage, key string, out any) error {
	rc, err := store.Get(ctx, key)
	if err != nil {
		return err
	}
	defer rc.Close()

	if err := json.NewDecoder(rc).Decode(out); err != nil {
		return fmt.Errorf("failed to decode %s: %w", key, err)
	}
	return nil
}
