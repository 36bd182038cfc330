package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Referral records one completed signup made with a referrer's code. Rows are never updated.
type Referral struct {
	ID         uint            `gorm:"primaryKey" json:"id"`
	ReferrerID uint            `gorm:"not null;index" json:"-"`
	Name       string          `gorm:"size:255;not null" json:"name"`
	Date       string          `gorm:"size:10;not null" json:"date"` // YYYY-MM-DD
	Status     string          `gorm:"size:20;not null" json:"status"`
	Commission decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"commission"`
	CreatedAt  time.Time       `gorm:"index" json:"-"`
}

// AdminLog is the audit trail of back-office actions.
type AdminLog struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	AdminID      uint      `gorm:"not null;index" json:"adminId"`
	Action       string    `gorm:"size:40;not null" json:"action"`
	TargetUserID uint      `gorm:"index" json:"targetUserId"`
	Details      string    `gorm:"size:255" json:"details"`
	CreatedAt    time.Time `json:"createdAt"`
}
