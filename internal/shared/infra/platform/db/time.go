package db

import (
	"fmt"
	"time"
)

// TimeLayout tiene ancho fijo y siempre va en UTC, así el orden lexicográfico
// de la columna TEXT coincide con el cronológico.
const TimeLayout = "2006-01-02T15:04:05.000Z07:00"

// FormatTime serializa una fecha para guardarla.
func FormatTime(t time.Time) string {
	return t.UTC().Format(TimeLayout)
}

// ParseTime lee una fecha guardada con FormatTime. Acepta también RFC3339 por filas antiguas.
func ParseTime(s string) (time.Time, error) {
	t, err := time.Parse(TimeLayout, s)
	if err == nil {
		return t.UTC(), nil
	}
	t, err = time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid stored time %q: %w", s, err)
	}
	return t.UTC(), nil
}
