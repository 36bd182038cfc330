package service

import (
	"context"
	"errors"
	"time"

	"radar_backend/internal/domain"
	"radar_backend/internal/utils"

	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// Dashboard list bounds
const (
	dashboardReferralLimit    = 50
	dashboardTransactionLimit = 20
)

// Dashboard is the wallet and referral summary shown to a signed-in user
type Dashboard struct {
	WalletBalance      decimal.Decimal      `json:"walletBalance"`
	ReferralCount      int                  `json:"referralCount"`
	ActiveReferralCode *string              `json:"activeReferralCode"`
	ReferralCodeExpiry *int64               `json:"referralCodeExpiry"`
	Referrals          []domain.Referral    `json:"referrals"`
	Transactions       []domain.Transaction `json:"transactions"`
}

// DashboardService assembles dashboards, caching them in Redis
type DashboardService struct {
	db  *gorm.DB
	rdb *redis.Client
	ttl time.Duration
}

// NewDashboardService creates a DashboardService. rdb may be nil.
func NewDashboardService(db *gorm.DB, rdb *redis.Client, ttl time.Duration) *DashboardService {
	return &DashboardService{db: db, rdb: rdb, ttl: ttl}
}

// Get returns the dashboard of userID, or domain.ErrUserNotFound when the account is gone
func (s *DashboardService) Get(ctx context.Context, userID uint) (*Dashboard, error) {
	key := utils.DashboardKey(userID)
	var cached Dashboard
	found, err := utils.GetCache(ctx, s.rdb, key, &cached)
	if err != nil {
		logrus.WithFields(logrus.Fields{"user_id": userID, "error": err.Error()}).Warn("Dashboard cache read failed")
	}
	if err == nil && found {
		return &cached, nil
	}

	db := s.db.WithContext(ctx)
	var user domain.User
	if err := db.First(&user, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrUserNotFound
		}
		return nil, domain.Internal(err)
	}

	referrals := make([]domain.Referral, 0, dashboardReferralLimit)
	if err := db.Where("referrer_id = ?", userID).
		Order("created_at desc").Order("id desc").
		Limit(dashboardReferralLimit).
		Find(&referrals).Error; err != nil {
		return nil, domain.Internal(err)
	}

	// Database-assigned insertion order, not the display date string
	transactions := make([]domain.Transaction, 0, dashboardTransactionLimit)
	if err := db.Where("user_id = ?", userID).
		Order("id desc").
		Limit(dashboardTransactionLimit).
		Find(&transactions).Error; err != nil {
		return nil, domain.Internal(err)
	}

	d := &Dashboard{
		WalletBalance:      user.WalletBalance,
		ReferralCount:      user.ReferralCount,
		ActiveReferralCode: user.ActiveReferralCode,
		ReferralCodeExpiry: domain.UnixMilli(user.ReferralCodeExpiry),
		Referrals:          referrals,
		Transactions:       transactions,
	}
	if err := utils.SetCache(ctx, s.rdb, key, d, s.ttl); err != nil {
		logrus.WithFields(logrus.Fields{"user_id": userID, "error": err.Error()}).Warn("Dashboard cache write failed")
	}
	return d, nil
}
