package ai

import (
	"math"
	"strings"
	"time"
)

// Keyword lists used by the favorable-outcome heuristic. Matching is by
// substring, so derived forms that contain the base word count too.
var (
	keywordsPositivos = []string{"aceptar", "admitir", "proceder", "favorable", "acoger"}
	keywordsNegativos = []string{"rechazar", "desestimar", "improcedente", "desfavorable", "denegar"}
)

// EstimateProbability estimates the probability of a favorable ruling for
// a claim, given the similarity scores of the grounding rulings. Starting
// from an even prior, the claim text shifts it by 0.2 toward whichever
// keyword family dominates, and the mean grounding similarity shifts it
// by up to 0.1 in either direction. The result is clamped to [0, 1] and
// rounded to four decimals. Same inputs always give the same output.
func EstimateProbability(claim string, similarities []float64) float64 {
	lower := strings.ToLower(claim)

	var positivos, negativos int
	for _, kw := range keywordsPositivos {
		if strings.Contains(lower, kw) {
			positivos++
		}
	}
	for _, kw := range keywordsNegativos {
		if strings.Contains(lower, kw) {
			negativos++
		}
	}

	prob := 0.5
	if positivos > negativos {
		prob += 0.2
	} else if negativos > positivos {
		prob -= 0.2
	}

	// Strongly similar precedent moves the estimate up, weak precedent
	// moves it down. A mean similarity of 0.5 is neutral.
	if len(similarities) > 0 {
		var sum float64
		for _, s := range similarities {
			sum += s
		}
		mean := sum / float64(len(similarities))
		prob += (mean - 0.5) * 0.2
	}

	prob = math.Max(0.0, math.Min(1.0, prob))
	return round(prob, 4)
}

// EstimateConfidence scores how much to trust a prediction from the
// grounding rulings behind it. Twenty or more rulings give full base
// confidence; each ruling older than five years costs 0.1. Never drops
// below 0.1, rounded to three decimals.
func EstimateConfidence(now time.Time, fechas []time.Time) float64 {
	confidence := math.Min(float64(len(fechas))/20.0, 1.0)

	for _, fecha := range fechas {
		yearsOld := now.Sub(fecha).Hours() / 24 / 365
		if yearsOld > 5 {
			confidence -= 0.1
		}
	}

	confidence = math.Max(0.1, confidence)
	return round(confidence, 3)
}

// round rounds x to the given number of decimal places
func round(x float64, places int) float64 {
	shift := math.Pow(10, float64(places))
	return math.Round(x*shift) / shift
}
