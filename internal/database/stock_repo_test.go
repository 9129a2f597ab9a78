package database

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEscapeLike(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"rice", "rice"},
		{"Basmati Rice", "Basmati Rice"},
		{"100%", `100\%`},
		{"a_b", `a\_b`},
		{`back\slash`, `back\\slash`},
		{`%_\`, `\%\_\\`},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, escapeLike(tt.in), "input %q", tt.in)
	}
}
