package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"radar_backend/internal/domain"
	"radar_backend/internal/utils"

	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// WalletService moves money out of commission wallets
type WalletService struct {
	db  *gorm.DB
	rdb *redis.Client
	now func() time.Time
}

// NewWalletService creates a WalletService. rdb may be nil.
func NewWalletService(db *gorm.DB, rdb *redis.Client) *WalletService {
	return &WalletService{db: db, rdb: rdb, now: time.Now}
}

// Withdraw debits amount from the user's wallet and records a Withdrawal entry atomically.
// It returns the new balance.
func (s *WalletService) Withdraw(ctx context.Context, userID uint, amount decimal.Decimal, account string) (decimal.Decimal, error) {
	account = strings.TrimSpace(account)
	if !amount.IsPositive() || account == "" {
		return decimal.Zero, domain.ErrInvalidAmount
	}
	amount = amount.Round(2)

	var balance decimal.Decimal
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// Conditional decrement so concurrent withdrawals cannot overdraw
		res := tx.Model(&domain.User{}).
			Where("id = ? AND wallet_balance >= ?", userID, amount).
			Update("wallet_balance", gorm.Expr("wallet_balance - ?", amount))
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			var n int64
			if err := tx.Model(&domain.User{}).Where("id = ?", userID).Count(&n).Error; err != nil {
				return err
			}
			if n == 0 {
				return domain.ErrUserNotFound
			}
			return domain.ErrInsufficientFunds
		}

		entry := domain.Transaction{
			UserID:  userID,
			Type:    domain.TxTypeWithdrawal,
			Amount:  amount,
			Status:  domain.StatusCompleted,
			Date:    s.now().UTC().Format(time.RFC3339),
			Details: "Withdrawal to " + account,
		}
		if err := tx.Create(&entry).Error; err != nil {
			return err
		}

		var user domain.User
		if err := tx.Select("id", "wallet_balance").First(&user, userID).Error; err != nil {
			return err
		}
		balance = user.WalletBalance
		return nil
	})
	if err != nil {
		var classified *domain.Error
		if errors.As(err, &classified) {
			return decimal.Zero, err
		}
		logrus.WithFields(logrus.Fields{
			"user_id": userID,
			"amount":  amount.String(),
			"error":   err.Error(),
		}).Error("Withdrawal failed")
		return decimal.Zero, domain.Internal(err)
	}

	logrus.WithFields(logrus.Fields{
		"user_id":   userID,
		"amount":    amount.String(),
		"type":      domain.TxTypeWithdrawal,
		"timestamp": s.now().Format(time.RFC3339),
	}).Info("Withdrawal transaction")
	_ = utils.DeleteCache(ctx, s.rdb, utils.DashboardKey(userID))
	return balance, nil
}
