// Package calc holds the pure product-research formulas: per-unit profitability and a
// rank-based monthly sales estimate.
package calc

import "github.com/shopspring/decimal"

// Defaults applied to absent inputs
const (
	DefaultQuantity       = 1
	DefaultReferralFeePct = 15
)

// ProfitInput is the profitability calculator request
type ProfitInput struct {
	SellPrice      Number `json:"sellPrice"`
	CostPrice      Number `json:"costPrice"`
	Quantity       Number `json:"quantity"`
	FBAFees        Number `json:"fbaFees"`
	ReferralFeePct Number `json:"referralFeePct"`
}

// ProfitResult holds every output rounded to 2 decimals
type ProfitResult struct {
	RefFee        float64 `json:"refFee"`
	TotalFees     float64 `json:"totalFees"`
	ProfitPerUnit float64 `json:"profitPerUnit"`
	TotalProfit   float64 `json:"totalProfit"`
	Margin        float64 `json:"margin"`
	ROI           float64 `json:"roi"`
}

var hundred = decimal.NewFromInt(100)

// CalculateProfit computes fees, profit, margin and ROI. It never fails: absent inputs
// fall back to 0, quantity to 1 and the referral fee to 15%.
func CalculateProfit(in ProfitInput) ProfitResult {
	sell := decimal.NewFromFloat(in.SellPrice.Or(0))
	cost := decimal.NewFromFloat(in.CostPrice.Or(0))
	qty := decimal.NewFromFloat(in.Quantity.Or(DefaultQuantity))
	fba := decimal.NewFromFloat(in.FBAFees.Or(0))
	pct := decimal.NewFromFloat(in.ReferralFeePct.Or(DefaultReferralFeePct))

	refFee := sell.Mul(pct).Div(hundred)
	totalFees := fba.Add(refFee)
	profitPerUnit := sell.Sub(cost).Sub(totalFees)
	totalProfit := profitPerUnit.Mul(qty)

	margin := decimal.Zero
	if sell.IsPositive() {
		margin = profitPerUnit.Div(sell).Mul(hundred)
	}
	roi := decimal.Zero
	if cost.IsPositive() {
		roi = profitPerUnit.Div(cost).Mul(hundred)
	}

	return ProfitResult{
		RefFee:        round2(refFee),
		TotalFees:     round2(totalFees),
		ProfitPerUnit: round2(profitPerUnit),
		TotalProfit:   round2(totalProfit),
		Margin:        round2(margin),
		ROI:           round2(roi),
	}
}

func round2(d decimal.Decimal) float64 {
	return d.Round(2).InexactFloat64()
}
