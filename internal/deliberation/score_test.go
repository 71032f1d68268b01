package deliberation

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConfidenceScore(t *testing.T) {
	tests := []struct {
		name        string
		performance float64
		hasContext  bool
		complexity  int
		want        float64
	}{
		{"no context, mid complexity", 0.8, false, 5, 0.6 + 0.24 + 0.05},
		{"with context hits the cap", 0.8, true, 5, 0.95},
		{"complexity clamped to 10", 0.5, false, 25, 0.6 + 0.15 + 0.1},
		{"floor performance", 0.1, false, 1, 0.6 + 0.03 + 0.01},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := confidenceScore(tt.performance, tt.hasContext, tt.complexity)
			assert.InDelta(t, tt.want, got, 1e-9)
		})
	}
}

func TestFeasibilityScore(t *testing.T) {
	assert.InDelta(t, 0.5+0.32, feasibilityScore(0.8, false), 1e-9)
	assert.InDelta(t, 0.9, feasibilityScore(0.9, true), 1e-9) // capped
	assert.InDelta(t, 0.5+0.04, feasibilityScore(0.1, false), 1e-9)
}

func TestQualityScore(t *testing.T) {
	assert.InDelta(t, 0.56, qualityScore(0.8, false, 0), 1e-9)
	assert.InDelta(t, 0.95, qualityScore(1.0, true, 0.05), 1e-9) // capped
	assert.InDelta(t, 0.7*0.9+0.2+0.01, qualityScore(0.9, true, 0.01), 1e-9)
}

func TestSelectionScore(t *testing.T) {
	assert.InDelta(t, 0.7*0.9+0.02, selectionScore(0.9, 0.02), 1e-9)
}

func TestPickWinnerTieGoesToLowestIndex(t *testing.T) {
	assert.Equal(t, 0, pickWinner([]float64{0.5, 0.5, 0.5}))
	assert.Equal(t, 1, pickWinner([]float64{0.4, 0.6, 0.6}))
	assert.Equal(t, 2, pickWinner([]float64{0.1, 0.2, 0.3}))
}
