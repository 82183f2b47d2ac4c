package models

import (
	"fmt"
	"strings"
	"time"
)

const fechaLayout = "2006-01-02"

// Fecha is a calendar date serialized as "YYYY-MM-DD" in JSON, the format
// court rulings carry. Full RFC 3339 timestamps are accepted on input.
type Fecha time.Time

// Time returns the underlying time value
func (f Fecha) Time() time.Time {
	return time.Time(f)
}

// IsZero reports whether the date is unset
func (f Fecha) IsZero() bool {
	return time.Time(f).IsZero()
}

// MarshalJSON implements json.Marshaler
func (f Fecha) MarshalJSON() ([]byte, error) {
	return []byte(`"` + time.Time(f).Format(fechaLayout) + `"`), nil
}

// UnmarshalJSON implements json.Unmarshaler
func (f *Fecha) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	if s == "" || s == "null" {
		*f = Fecha(time.Time{})
		return nil
	}

	if t, err := time.Parse(fechaLayout, s); err == nil {
		*f = Fecha(t)
		return nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		*f = Fecha(t)
		return nil
	}
	return fmt.Errorf("invalid fecha %q, want YYYY-MM-DD", s)
}
