package optimizer

import (
	"math"
	"sort"
)

// NearestRank returns the value at index floor(q*n) of the ascending-sorted
// copy of values. q is clamped to [0, 1). Returns 0 for an empty slice.
func NearestRank(values []float64, q float64) float64 {
	n := len(values)
	if n == 0 {
		return 0
	}
	sorted := make([]float64, n)
	copy(sorted, values)
	sort.Float64s(sorted)

	idx := int(math.Floor(q * float64(n)))
	if idx < 0 {
		idx = 0
	}
	if idx >= n {
		idx = n - 1
	}
	return sorted[idx]
}
