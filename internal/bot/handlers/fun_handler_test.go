package handlers

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestProbabilityPercent(t *testing.T) {
	// Expected values are md5(seed) taken as one big integer, mod 101.
	tests := []struct {
		seed string
		want int
	}{
		{"что завтра будет дождь2026-09-01-100500", 31},
		{"сдам сессию2026-01-15-1", 12},
		{"a", 69},
		{"", 5},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, probabilityPercent(tt.seed), "seed %q", tt.seed)
	}
}

func TestProbabilityPercentIsStable(t *testing.T) {
	seed := "что пары отменят2026-09-01-100500"
	first := probabilityPercent(seed)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, probabilityPercent(seed))
	}
	assert.GreaterOrEqual(t, first, 0)
	assert.LessOrEqual(t, first, 100)
}
