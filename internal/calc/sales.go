package calc

import "math"

// salesBuckets maps best-seller-rank ranges to monthly unit sales. Bounds are exclusive
// and checked in order; ranks past the last bound sell salesFloor units.
var salesBuckets = []struct {
	below float64
	units int
}{
	{100, 5000},
	{1000, 1500},
	{5000, 800},
	{10000, 300},
	{50000, 50},
}

const salesFloor = 10

// EstimateMonthlySales returns a placeholder monthly unit-sales estimate for a best-seller
// rank. It is a fixed lookup table, not a statistical model. Absent, zero or negative ranks
// yield 0. category is accepted for API compatibility and does not affect the result.
func EstimateMonthlySales(rank float64, category string) int {
	if rank <= 0 || math.IsNaN(rank) {
		return 0
	}
	for _, b := range salesBuckets {
		if rank < b.below {
			return b.units
		}
	}
	return salesFloor
}
