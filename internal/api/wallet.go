package api

import (
	"net/http" // HTTP status codes

	"radar_backend/internal/service" // Business services

	"github.com/gin-gonic/gin"      // Gin web framework
	"github.com/shopspring/decimal" // Money amounts
)

// WithdrawRequest represents a withdrawal request
type WithdrawRequest struct {
	Amount  decimal.Decimal `json:"amount"`  // Amount to withdraw, number or numeric string
	Account string          `json:"account"` // Payout account
}

// WithdrawHandler debits the caller's wallet
func WithdrawHandler(wallet *service.WalletService) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := requireUser(c)
		if !ok {
			return
		}
		var req WithdrawRequest // Bind JSON request to struct
		if err := c.ShouldBindJSON(&req); err != nil {
			// If binding fails, return bad request
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
			return
		}
		balance, err := wallet.Withdraw(c.Request.Context(), userID, req.Amount, req.Account) // Atomic debit
		if err != nil {
			respondError(c, err) // 400 on insufficient funds
			return
		}
		c.JSON(http.StatusOK, gin.H{"success": true, "newBalance": balance})
	}
}
