package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEscapeLike(t *testing.T) {
	tests := map[string]string{
		"informe": "informe",
		"100%":    `100\%`,
		"a_b":     `a\_b`,
		`c:\tmp`:  `c:\\tmp`,
	}
	for in, want := range tests {
		assert.Equal(t, want, EscapeLike(in), in)
	}
}
