package api

import (
	"net/http" // HTTP status codes

	"radar_backend/internal/calc" // Product formulas

	"github.com/gin-gonic/gin" // Gin web framework
)

// ProfitCalculatorHandler computes per-unit profitability. Malformed fields fall back to defaults.
func ProfitCalculatorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var in calc.ProfitInput
		if err := c.ShouldBindJSON(&in); err != nil {
			in = calc.ProfitInput{} // A body that is not an object computes from defaults
		}
		c.JSON(http.StatusOK, calc.CalculateProfit(in))
	}
}

// SalesEstimateHandler estimates monthly unit sales from ?bsr=
func SalesEstimateHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		bsr := calc.ParseNumber(c.Query("bsr"))
		category := c.Query("category")
		c.JSON(http.StatusOK, gin.H{
			"bsr":            bsr,
			"category":       category,
			"estimatedSales": calc.EstimateMonthlySales(bsr.Or(0), category),
		})
	}
}
