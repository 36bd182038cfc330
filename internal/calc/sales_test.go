package calc

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEstimateMonthlySales(t *testing.T) {
	tests := []struct {
		rank float64
		want int
	}{
		{0, 0},
		{-5, 0},
		{math.NaN(), 0},
		{1, 5000},
		{99, 5000},
		{100, 1500},
		{999, 1500},
		{1000, 800},
		{4999, 800},
		{5000, 300},
		{9999, 300},
		{10000, 50},
		{49999, 50},
		{50000, 10},
		{2_000_000, 10},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, EstimateMonthlySales(tt.rank, "Kitchen & Dining"), "rank %v", tt.rank)
	}
}

func TestEstimateMonthlySalesIsMonotonic(t *testing.T) {
	prev := EstimateMonthlySales(1, "")
	for rank := 2.0; rank <= 60000; rank++ {
		cur := EstimateMonthlySales(rank, "")
		assert.LessOrEqual(t, cur, prev, "rank %v", rank)
		prev = cur
	}
}

func TestEstimateMonthlySalesIgnoresCategory(t *testing.T) {
	assert.Equal(t, EstimateMonthlySales(450, "Toys"), EstimateMonthlySales(450, "Books"))
}
