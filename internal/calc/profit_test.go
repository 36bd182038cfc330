package calc

import (
	"math"
	"testing"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCalculateProfit(t *testing.T) {
	got := CalculateProfit(ProfitInput{
		SellPrice:      Num(30),
		CostPrice:      Num(8),
		Quantity:       Num(100),
		FBAFees:        Num(5.5),
		ReferralFeePct: Num(15),
	})

	assert.Equal(t, ProfitResult{
		RefFee:        4.5,
		TotalFees:     10,
		ProfitPerUnit: 12,
		TotalProfit:   1200,
		Margin:        40,
		ROI:           150,
	}, got)
}

func TestCalculateProfitDefaults(t *testing.T) {
	// quantity defaults to 1 and the referral fee to 15%
	got := CalculateProfit(ProfitInput{SellPrice: Num(20), CostPrice: Num(5)})

	assert.Equal(t, 3.0, got.RefFee)
	assert.Equal(t, 3.0, got.TotalFees)
	assert.Equal(t, 12.0, got.ProfitPerUnit)
	assert.Equal(t, 12.0, got.TotalProfit)
	assert.Equal(t, 60.0, got.Margin)
	assert.Equal(t, 240.0, got.ROI)
}

func TestCalculateProfitZeroPrices(t *testing.T) {
	got := CalculateProfit(ProfitInput{})

	assert.Equal(t, ProfitResult{}, got)
	assert.False(t, math.Signbit(got.Margin))
}

func TestCalculateProfitNegativeCostDisablesROI(t *testing.T) {
	got := CalculateProfit(ProfitInput{SellPrice: Num(10), CostPrice: Num(-4), ReferralFeePct: Num(0)})

	assert.Equal(t, 14.0, got.ProfitPerUnit)
	assert.Equal(t, 0.0, got.ROI)
	assert.Equal(t, 140.0, got.Margin)
}

func TestCalculateProfitRounding(t *testing.T) {
	got := CalculateProfit(ProfitInput{
		SellPrice:      Num(19.99),
		CostPrice:      Num(3.33),
		Quantity:       Num(7),
		FBAFees:        Num(4.75),
		ReferralFeePct: Num(15),
	})

	// refFee = 2.9985, profit per unit = 8.9115
	assert.Equal(t, 3.0, got.RefFee)
	assert.Equal(t, 7.75, got.TotalFees)
	assert.Equal(t, 8.91, got.ProfitPerUnit)
	assert.Equal(t, 62.38, got.TotalProfit)
	assert.Equal(t, 44.58, got.Margin)
	assert.Equal(t, 267.61, got.ROI)
}

func TestCalculateProfitInvariants(t *testing.T) {
	cases := []ProfitInput{
		{SellPrice: Num(24.99), CostPrice: Num(6.1), Quantity: Num(3), FBAFees: Num(3.22)},
		{SellPrice: Num(9.49), CostPrice: Num(7.8), Quantity: Num(250), FBAFees: Num(3.22), ReferralFeePct: Num(8)},
		{SellPrice: Num(149), CostPrice: Num(61.25), Quantity: Num(12), FBAFees: Num(9.5), ReferralFeePct: Num(17)},
		{SellPrice: Num(5), CostPrice: Num(4), Quantity: Num(1000), FBAFees: Num(3.22)},
	}
	for _, in := range cases {
		got := CalculateProfit(in)
		sell, cost, qty := in.SellPrice.Value, in.CostPrice.Value, in.Quantity.Value

		assert.InDelta(t, sell-cost-got.TotalFees, got.ProfitPerUnit, 0.011)
		assert.InDelta(t, got.ProfitPerUnit*qty, got.TotalProfit, 0.005*qty+0.005)
	}
}

func TestProfitInputLenientDecoding(t *testing.T) {
	var in ProfitInput
	body := `{"sellPrice":"25.5","costPrice":"abc","quantity":null,"fbaFees":true,"referralFeePct":"NaN"}`
	require.NoError(t, json.Unmarshal([]byte(body), &in))

	assert.Equal(t, Num(25.5), in.SellPrice)
	assert.False(t, in.CostPrice.Valid)
	assert.False(t, in.Quantity.Valid)
	assert.False(t, in.FBAFees.Valid)
	assert.False(t, in.ReferralFeePct.Valid)

	got := CalculateProfit(in)
	assert.Equal(t, 3.83, got.RefFee) // 15% default of 25.5 = 3.825
	assert.Equal(t, 21.68, got.ProfitPerUnit)
	assert.Equal(t, 21.68, got.TotalProfit)
}
