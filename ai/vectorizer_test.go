package ai

import (
	"math"
	"reflect"
	"testing"
)

func testVectorizer(t *testing.T) *Vectorizer {
	t.Helper()
	v, err := NewVectorizer("v1", map[string]int{
		"contrato":       0,
		"incumplimiento": 1,
		"demanda":        2,
	}, []float64{1.0, 2.0, 1.5})
	if err != nil {
		t.Fatalf("failed to build vectorizer: %v", err)
	}
	return v
}

func TestNewVectorizer_Validation(t *testing.T) {
	if _, err := NewVectorizer("v1", nil, nil); err == nil {
		t.Error("expected error for empty vocabulary")
	}
	if _, err := NewVectorizer("v1", map[string]int{"a": 0}, []float64{1, 2}); err == nil {
		t.Error("expected error for idf length mismatch")
	}
	if _, err := NewVectorizer("v1", map[string]int{"a": 5}, []float64{1}); err == nil {
		t.Error("expected error for out-of-range index")
	}
}

func TestVectorize_Normalized(t *testing.T) {
	v := testVectorizer(t)
	vec := v.Vectorize("demanda por incumplimiento de contrato")

	var norm float64
	for _, x := range vec {
		norm += x * x
	}
	if math.Abs(math.Sqrt(norm)-1.0) > 1e-9 {
		t.Errorf("expected unit norm, got %f", math.Sqrt(norm))
	}
}

func TestVectorize_Deterministic(t *testing.T) {
	v := testVectorizer(t)
	a := v.Vectorize("contrato de demanda")
	b := v.Vectorize("contrato de demanda")
	if !reflect.DeepEqual(a, b) {
		t.Error("same text produced different vectors")
	}
}

func TestVectorize_IgnoresUnknownTerms(t *testing.T) {
	v := testVectorizer(t)
	vec := v.Vectorize("palabras completamente desconocidas")
	for i, x := range vec {
		if x != 0 {
			t.Errorf("expected zero vector for out-of-vocabulary text, component %d = %f", i, x)
		}
	}
}

func TestVectorize_RepeatedTermsWeighHigher(t *testing.T) {
	v := testVectorizer(t)
	once := v.Vectorize("contrato demanda")
	twice := v.Vectorize("contrato contrato demanda")

	// After normalization the repeated term carries more of the mass.
	if twice[0] <= once[0] {
		t.Errorf("repeated term should dominate: %f <= %f", twice[0], once[0])
	}
}

func TestTokenize(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want []string
	}{
		{"lowercases", "Contrato DEMANDA", []string{"contrato", "demanda"}},
		{"splits on punctuation", "juicio,oral;escrito", []string{"juicio", "oral", "escrito"}},
		{"drops single chars", "a contrato y demanda", []string{"contrato", "demanda"}},
		{"keeps digits", "articulo 1234", []string{"articulo", "1234"}},
		{"accented words", "resolución judicial", []string{"resolución", "judicial"}},
		{"empty", "", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Tokenize(tt.in)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Tokenize(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}
