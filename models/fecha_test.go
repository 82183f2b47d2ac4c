package models

import (
	"encoding/json"
	"testing"
	"time"
)

func TestFechaUnmarshal(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  time.Time
	}{
		{"date only", `"2024-03-15"`, time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)},
		{"rfc3339", `"2024-03-15T10:30:00Z"`, time.Date(2024, 3, 15, 10, 30, 0, 0, time.UTC)},
		{"empty string", `""`, time.Time{}},
		{"null", `null`, time.Time{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var f Fecha
			if err := json.Unmarshal([]byte(tt.input), &f); err != nil {
				t.Fatalf("Unmarshal(%s) returned error: %v", tt.input, err)
			}
			if !f.Time().Equal(tt.want) {
				t.Errorf("got %v, want %v", f.Time(), tt.want)
			}
		})
	}
}

func TestFechaUnmarshal_Invalid(t *testing.T) {
	var f Fecha
	if err := json.Unmarshal([]byte(`"15/03/2024"`), &f); err == nil {
		t.Fatal("expected error for non ISO date")
	}
}

func TestFechaMarshal(t *testing.T) {
	f := Fecha(time.Date(2024, 3, 15, 10, 30, 0, 0, time.UTC))
	data, err := json.Marshal(f)
	if err != nil {
		t.Fatalf("Marshal returned error: %v", err)
	}
	if string(data) != `"2024-03-15"` {
		t.Errorf("got %s, want \"2024-03-15\"", data)
	}
}
