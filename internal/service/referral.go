package service

import (
	"context"
	"errors"
	"time"

	"radar_backend/internal/domain"
	"radar_backend/internal/utils"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

var errCodeTaken = errors.New("referral code held by another user")

const (
	referralCodeTTL      = 10 * time.Minute
	referralCodeAttempts = 5
	referralDiscount     = 150
)

// ReferralService manages the short-lived codes users share with new signups
type ReferralService struct {
	db      *gorm.DB
	rdb     *redis.Client
	now     func() time.Time
	newCode func() (string, error)
}

// NewReferralService creates a ReferralService. rdb may be nil.
func NewReferralService(db *gorm.DB, rdb *redis.Client) *ReferralService {
	return &ReferralService{db: db, rdb: rdb, now: time.Now, newCode: utils.NewReferralCode}
}

// GeneratedCode is a freshly issued referral code
type GeneratedCode struct {
	Code   string `json:"code"`
	Expiry int64  `json:"expiry"` // epoch milliseconds
}

// Generate issues a new code for userID, replacing any previous one. A code still live for
// another user is never reissued; expired copies held by other users are released in the
// same transaction so that each code has at most one holder.
func (s *ReferralService) Generate(ctx context.Context, userID uint) (*GeneratedCode, error) {
	now := s.now().UTC()
	expiry := now.Add(referralCodeTTL)
	for attempt := 0; attempt < referralCodeAttempts; attempt++ {
		code, err := s.newCode()
		if err != nil {
			return nil, domain.Internal(err)
		}

		var released []uint
		err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			var live int64
			if err := tx.Model(&domain.User{}).
				Where("active_referral_code = ? AND id <> ?", code, userID).
				Where("referral_code_expiry IS NULL OR referral_code_expiry > ?", now).
				Count(&live).Error; err != nil {
				return err
			}
			if live > 0 {
				return errCodeTaken
			}
			if err := tx.Model(&domain.User{}).
				Where("active_referral_code = ? AND id <> ?", code, userID).
				Pluck("id", &released).Error; err != nil {
				return err
			}
			if len(released) > 0 {
				if err := tx.Model(&domain.User{}).Where("id IN ?", released).Updates(map[string]any{
					"active_referral_code": nil,
					"referral_code_expiry": nil,
				}).Error; err != nil {
					return err
				}
			}
			res := tx.Model(&domain.User{}).Where("id = ?", userID).Updates(map[string]any{
				"active_referral_code": code,
				"referral_code_expiry": expiry,
			})
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected == 0 {
				return domain.ErrUserNotFound
			}
			return nil
		})
		if errors.Is(err, errCodeTaken) {
			continue
		}
		if err != nil {
			var classified *domain.Error
			if errors.As(err, &classified) {
				return nil, err
			}
			return nil, domain.Internal(err)
		}

		keys := []string{utils.DashboardKey(userID)}
		for _, id := range released {
			keys = append(keys, utils.DashboardKey(id))
		}
		_ = utils.DeleteCache(ctx, s.rdb, keys...)
		logrus.WithFields(logrus.Fields{
			"user_id":  userID,
			"code":     code,
			"released": len(released),
		}).Info("Referral code generated")
		return &GeneratedCode{Code: code, Expiry: expiry.UnixMilli()}, nil
	}
	return nil, domain.Internal(errors.New("no free referral code after retries"))
}

// CodeValidation is the result of checking a code before signup
type CodeValidation struct {
	Valid    bool   `json:"valid"`
	Discount int    `json:"discount,omitempty"`
	Message  string `json:"message"`
}

// Validate reports whether code belongs to a user and has not expired
func (s *ReferralService) Validate(ctx context.Context, code string) (*CodeValidation, error) {
	invalid := &CodeValidation{Valid: false, Message: "Invalid or Expired Code"}
	if code == "" {
		return invalid, nil
	}
	var owner domain.User
	err := s.db.WithContext(ctx).Where("active_referral_code = ?", code).
		Order("referral_code_expiry desc"). // The live holder wins over stale copies
		First(&owner).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return invalid, nil
	}
	if err != nil {
		return nil, domain.Internal(err)
	}
	if owner.ReferralCodeExpiry == nil || !owner.ReferralCodeExpiry.After(s.now()) {
		return invalid, nil
	}
	return &CodeValidation{Valid: true, Discount: referralDiscount, Message: "Code Applied! 150 PKR Discount."}, nil
}

// ApprovalStatus reports whether userID is approved. Unknown users are not approved.
func (s *ReferralService) ApprovalStatus(ctx context.Context, userID uint) (bool, error) {
	var user domain.User
	err := s.db.WithContext(ctx).Select("id", "is_approved").First(&user, userID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	}
	if err != nil {
		return false, domain.Internal(err)
	}
	return user.IsApproved, nil
}

// Profile returns the sanitized profile of userID
func (s *ReferralService) Profile(ctx context.Context, userID uint) (*domain.Profile, error) {
	var user domain.User
	err := s.db.WithContext(ctx).First(&user, userID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrUserNotFound
	}
	if err != nil {
		return nil, domain.Internal(err)
	}
	p := user.Profile()
	return &p, nil
}
