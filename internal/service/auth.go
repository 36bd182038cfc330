package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"radar_backend/internal/config"
	"radar_backend/internal/domain"
	"radar_backend/internal/utils"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// AuthService handles login and signup, including referral commission crediting.
type AuthService struct {
	db     *gorm.DB
	rdb    *redis.Client
	hasher utils.PasswordHasher
	cfg    *config.Config
	now    func() time.Time
}

// NewAuthService creates an AuthService. rdb may be nil.
func NewAuthService(db *gorm.DB, rdb *redis.Client, hasher utils.PasswordHasher, cfg *config.Config) *AuthService {
	return &AuthService{db: db, rdb: rdb, hasher: hasher, cfg: cfg, now: time.Now}
}

// LoginResult is returned by a successful login
type LoginResult struct {
	Token string         `json:"token"`
	User  domain.Profile `json:"user"`
}

// Login verifies credentials and issues a session token
func (s *AuthService) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		return nil, domain.ErrInvalidCredentials
	}

	var user domain.User
	err := s.db.WithContext(ctx).Where("email = ?", email).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrInvalidCredentials
	}
	if err != nil {
		return nil, domain.Internal(err)
	}
	if !s.hasher.Verify(user.PasswordHash, password) {
		return nil, domain.ErrInvalidCredentials
	}
	if user.IsBlocked {
		return nil, domain.ErrAccountBlocked
	}
	if !user.IsApproved {
		return nil, domain.ErrPendingApproval
	}

	token, err := utils.GenerateJWT(user.ID, user.Email, user.Role, s.cfg.JWTSecret, s.cfg.JWTTTL)
	if err != nil {
		return nil, domain.Internal(err)
	}
	logrus.WithFields(logrus.Fields{
		"user_id": user.ID,
		"role":    user.Role,
	}).Info("User logged in")
	return &LoginResult{Token: token, User: user.Profile()}, nil
}

// SignupInput is the signup request
type SignupInput struct {
	Name              string `json:"name"`
	Email             string `json:"email"`
	Password          string `json:"password"`
	Role              string `json:"role"`
	ReferralCode      string `json:"referralCode"`
	InstituteName     string `json:"instituteName"`
	InstituteLocation string `json:"instituteLocation"`
}

// SignupResult is the sanitized subset of the new account
type SignupResult struct {
	ID         uint   `json:"id"`
	Email      string `json:"email"`
	Role       string `json:"role"`
	IsApproved bool   `json:"isApproved"`
}

// Signup creates an account. When a valid referral code accompanies a user signup, the new
// account and the referrer's commission are written in one database transaction.
func (s *AuthService) Signup(ctx context.Context, in SignupInput) (*SignupResult, error) {
	name := strings.TrimSpace(in.Name)
	email := normalizeEmail(in.Email)
	if name == "" || email == "" || in.Password == "" {
		return nil, domain.ErrMissingFields
	}
	role := strings.ToLower(strings.TrimSpace(in.Role))
	if role == "" {
		role = domain.RoleUser
	}
	if role != domain.RoleUser && role != domain.RoleTrainer {
		return nil, domain.ErrInvalidRole
	}

	var existing int64
	if err := s.db.WithContext(ctx).Model(&domain.User{}).Where("email = ?", email).Count(&existing).Error; err != nil {
		return nil, domain.Internal(err)
	}
	if existing > 0 {
		return nil, domain.ErrUserExists
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, domain.Internal(err)
	}

	now := s.now()
	expiry := now.AddDate(0, 0, s.cfg.TrialDays)
	user := domain.User{
		Name:               name,
		Email:              email,
		PasswordHash:       hash,
		Role:               role,
		IsApproved:         role == domain.RoleUser,
		WalletBalance:      zeroMoney,
		SubscriptionExpiry: &expiry,
		ReferralLink:       utils.ReferralLink(s.cfg.ReferralBaseURL, email),
	}
	if role == domain.RoleTrainer {
		user.InstituteName = optional(in.InstituteName)
		user.InstituteLocation = optional(in.InstituteLocation)
	}

	var referrer *domain.User
	code := strings.TrimSpace(in.ReferralCode)
	if code != "" && role == domain.RoleUser {
		if referrer, err = s.resolveReferrer(ctx, code, now); err != nil {
			return nil, err
		}
	}
	if referrer != nil {
		user.UsedReferralCode = &code
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&user).Error; err != nil {
			return err
		}
		if referrer == nil {
			return nil
		}
		return creditCommission(tx, referrer.ID, user.Name, s.cfg.CommissionAmount, now)
	})
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return nil, domain.ErrUserExists // Lost a race with a concurrent signup
	}
	if err != nil {
		logrus.WithFields(logrus.Fields{
			"email":    email,
			"referral": referrer != nil,
			"error":    err.Error(),
		}).Error("Signup failed")
		return nil, domain.Internal(err)
	}

	logrus.WithFields(logrus.Fields{
		"user_id": user.ID,
		"role":    user.Role,
	}).Info("User signed up")
	if referrer != nil {
		logrus.WithFields(logrus.Fields{
			"referrer_id": referrer.ID,
			"referred_id": user.ID,
			"amount":      s.cfg.CommissionAmount.String(),
			"type":        domain.TxTypeCommission,
		}).Info("Referral commission credited")
		_ = utils.DeleteCache(ctx, s.rdb, utils.DashboardKey(referrer.ID))
	}

	return &SignupResult{ID: user.ID, Email: user.Email, Role: user.Role, IsApproved: user.IsApproved}, nil
}

// resolveReferrer finds the owner of an active referral code. A missing owner is not an error.
func (s *AuthService) resolveReferrer(ctx context.Context, code string, now time.Time) (*domain.User, error) {
	var referrer domain.User
	err := s.db.WithContext(ctx).Where("active_referral_code = ?", code).
		Order("referral_code_expiry desc"). // The live holder wins over stale copies
		First(&referrer).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, domain.Internal(err)
	}
	if referrer.ReferralCodeExpiry != nil && now.After(*referrer.ReferralCodeExpiry) {
		entry := logrus.WithFields(logrus.Fields{
			"referrer_id": referrer.ID,
			"expired_at":  referrer.ReferralCodeExpiry.UTC().Format(time.RFC3339),
		})
		if s.cfg.EnforceReferralExpiry {
			entry.Info("Ignoring expired referral code")
			return nil, nil
		}
		entry.Warn("Accepting expired referral code (ENFORCE_REFERRAL_EXPIRY is off)")
	}
	return &referrer, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func optional(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}
