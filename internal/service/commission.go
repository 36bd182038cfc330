package service

import (
	"fmt"
	"time"

	"radar_backend/internal/domain"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

var zeroMoney = decimal.Zero

// creditCommission applies the effects of a completed referral inside tx: the referrer's
// wallet and counter, a Referral row, a Commission ledger entry and a notification.
// The caller's transaction rolls all of them back if any step fails.
func creditCommission(tx *gorm.DB, referrerID uint, referredName string, amount decimal.Decimal, now time.Time) error {
	res := tx.Model(&domain.User{}).Where("id = ?", referrerID).Updates(map[string]any{
		"wallet_balance": gorm.Expr("wallet_balance + ?", amount),
		"referral_count": gorm.Expr("referral_count + ?", 1),
	})
	if res.Error != nil {
		return fmt.Errorf("credit referrer wallet: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("credit referrer %d: %w", referrerID, domain.ErrNotFound)
	}

	referral := domain.Referral{
		ReferrerID: referrerID,
		Name:       referredName,
		Date:       now.UTC().Format(time.DateOnly),
		Status:     domain.StatusCompleted,
		Commission: amount,
	}
	if err := tx.Create(&referral).Error; err != nil {
		return fmt.Errorf("log referral: %w", err)
	}

	entry := domain.Transaction{
		UserID: referrerID,
		Type:   domain.TxTypeCommission,
		Amount: amount,
		Status: domain.StatusCompleted,
		Date:   now.UTC().Format(time.RFC3339),
	}
	if err := tx.Create(&entry).Error; err != nil {
		return fmt.Errorf("log commission transaction: %w", err)
	}

	note := domain.Notification{
		UserID:  referrerID,
		Type:    domain.NotificationCommission,
		Title:   "Commission earned",
		Message: fmt.Sprintf("You earned %s PKR for referring %s", amount.String(), referredName),
	}
	if err := tx.Create(&note).Error; err != nil {
		return fmt.Errorf("notify referrer: %w", err)
	}
	return nil
}
