// Package confidence blends independent 0-100 confidence signals into a
// single weighted score. It backs both the matcher's fuzzy tier and the
// shipment-level confidence computed on every reconciliation pass.
package confidence

// WeightedScore pairs a 0-100 score with its relative weight.
type WeightedScore struct {
	Score  float64
	Weight float64
}

// Clamp bounds a score to the 0-100 range.
func Clamp(value float64) float64 {
	if value < 0 {
		return 0
	}
	if value > 100 {
		return 100
	}
	return value
}

// Weighted returns the weight-normalized blend of the given scores, clamped
// to 0-100. A total weight of zero yields 0.
func Weighted(entries []WeightedScore) float64 {
	totalWeight := 0.0
	for _, entry := range entries {
		totalWeight += entry.Weight
	}
	if totalWeight == 0 {
		return 0
	}

	weightedTotal := 0.0
	for _, entry := range entries {
		weightedTotal += entry.Score * entry.Weight
	}
	return Clamp(weightedTotal / totalWeight)
}
