package domain

import "github.com/shopspring/decimal" // Exact money arithmetic

// Ledger entry types and statuses
const (
	TxTypeCommission = "Commission" // Referral commission credit
	TxTypeWithdrawal = "Withdrawal" // Payout from the wallet
	StatusCompleted  = "Completed"  // Settled entry
)

// Transaction Model (append-only wallet ledger). The auto-increment ID is the insertion order.
type Transaction struct {
	ID      uint            `gorm:"primaryKey" json:"id"`                      // Primary key
	UserID  uint            `gorm:"not null;index" json:"userId"`              // Owner of the wallet
	Type    string          `gorm:"size:20;not null;index" json:"type"`        // Commission or Withdrawal
	Amount  decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"amount"` // Positive amount
	Status  string          `gorm:"size:20;not null" json:"status"`            // Completed
	Date    string          `gorm:"size:40" json:"date"`                       // Display timestamp (RFC3339)
	Details string          `gorm:"size:255" json:"details,omitempty"`         // Free-form note
}
