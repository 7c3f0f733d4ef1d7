package confidence

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWeighted_EmptyAndZeroWeight(t *testing.T) {
	assert.Equal(t, 0.0, Weighted(nil))
	assert.Equal(t, 0.0, Weighted([]WeightedScore{}))
	assert.Equal(t, 0.0, Weighted([]WeightedScore{{Score: 90, Weight: 0}}))
}

func TestWeighted_SingleEntryClampsScore(t *testing.T) {
	for _, weight := range []float64{0.1, 1, 42} {
		assert.Equal(t, 88.0, Weighted([]WeightedScore{{Score: 88, Weight: weight}}))
		assert.Equal(t, 100.0, Weighted([]WeightedScore{{Score: 150, Weight: weight}}))
		assert.Equal(t, 0.0, Weighted([]WeightedScore{{Score: -5, Weight: weight}}))
	}
}

func TestWeighted_Blend(t *testing.T) {
	// The fuzzy-match tier's fixed blend.
	got := Weighted([]WeightedScore{
		{Score: 80, Weight: 0.6},
		{Score: 72, Weight: 0.4},
	})
	assert.InDelta(t, 76.8, got, 1e-9)
}

func TestWeighted_NormalizesWeights(t *testing.T) {
	// Scaling every weight by the same factor must not change the result.
	a := Weighted([]WeightedScore{{Score: 60, Weight: 1}, {Score: 90, Weight: 3}})
	b := Weighted([]WeightedScore{{Score: 60, Weight: 0.25}, {Score: 90, Weight: 0.75}})
	assert.InDelta(t, a, b, 1e-9)
	assert.InDelta(t, 82.5, a, 1e-9)
}

func TestClamp(t *testing.T) {
	assert.Equal(t, 0.0, Clamp(-1))
	assert.Equal(t, 55.5, Clamp(55.5))
	assert.Equal(t, 100.0, Clamp(100.01))
}
