package ai

import (
	"fmt"
	"math"
)

// LabelUnavailable is returned when the outcome classifier is not loaded
// or cannot score the input. Callers treat it as "no prediction", never
// as a real class.
const LabelUnavailable = "unavailable"

// Outcome is a classified case outcome with the winning class probability.
type Outcome struct {
	Label      string  `json:"label"`
	Confidence float64 `json:"confidence"`
}

// Classifier scores outcome classes with a linear model over TF-IDF
// vectors. Binary models carry a single weight row and use the sigmoid;
// multiclass models use softmax over one row per class.
type Classifier struct {
	classes    []string
	weights    [][]float64
	intercepts []float64
}

// NewClassifier builds a classifier from trained weights.
func NewClassifier(classes []string, weights [][]float64, intercepts []float64) (*Classifier, error) {
	if len(classes) < 2 {
		return nil, fmt.Errorf("need at least two classes, got %d", len(classes))
	}
	if len(weights) == 0 || len(weights) != len(intercepts) {
		return nil, fmt.Errorf("weights (%d rows) and intercepts (%d) do not agree", len(weights), len(intercepts))
	}
	if len(weights) != len(classes) && !(len(weights) == 1 && len(classes) == 2) {
		return nil, fmt.Errorf("%d weight rows cannot score %d classes", len(weights), len(classes))
	}
	dim := len(weights[0])
	for i, row := range weights {
		if len(row) != dim {
			return nil, fmt.Errorf("weight row %d has length %d, want %d", i, len(row), dim)
		}
	}

	return &Classifier{
		classes:    classes,
		weights:    weights,
		intercepts: intercepts,
	}, nil
}

// Dim returns the expected input vector dimensionality
func (c *Classifier) Dim() int {
	return len(c.weights[0])
}

// Classes returns the outcome labels this model can assign
func (c *Classifier) Classes() []string {
	return c.classes
}

// Predict scores a vector and returns the most probable outcome.
// A vector of the wrong dimensionality yields the unavailable sentinel.
func (c *Classifier) Predict(vec []float64) Outcome {
	if len(vec) != c.Dim() {
		return Outcome{Label: LabelUnavailable, Confidence: 0}
	}

	probs := c.probabilities(vec)

	best := 0
	for i := 1; i < len(probs); i++ {
		if probs[i] > probs[best] {
			best = i
		}
	}

	return Outcome{Label: c.classes[best], Confidence: probs[best]}
}

func (c *Classifier) probabilities(vec []float64) []float64 {
	if len(c.weights) == 1 {
		// Binary model: single decision score through the sigmoid.
		z := c.intercepts[0]
		for i, w := range c.weights[0] {
			z += w * vec[i]
		}
		p := 1.0 / (1.0 + math.Exp(-z))
		return []float64{1 - p, p}
	}

	scores := make([]float64, len(c.weights))
	maxScore := math.Inf(-1)
	for k, row := range c.weights {
		z := c.intercepts[k]
		for i, w := range row {
			z += w * vec[i]
		}
		scores[k] = z
		if z > maxScore {
			maxScore = z
		}
	}

	// Softmax, shifted by the max score for numerical stability.
	var sum float64
	for k, z := range scores {
		scores[k] = math.Exp(z - maxScore)
		sum += scores[k]
	}
	for k := range scores {
		scores[k] /= sum
	}

	return scores
}
