package service

import (
	"testing"
	"time"

	"radar_backend/internal/config"
	"radar_backend/internal/db"
	"radar_backend/internal/domain"
	"radar_backend/internal/utils"

	"github.com/alicebob/miniredis/v2"
	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var testHasher = &utils.BcryptHasher{Cost: bcrypt.MinCost}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	conn, err := gorm.Open(sqlite.Open("file:"+uuid.NewString()+"?mode=memory&cache=shared"), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := conn.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, db.Migrate(conn))
	return conn
}

func newTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return mr, rdb
}

func testConfig() *config.Config {
	return &config.Config{
		JWTSecret:         "test-secret",
		JWTTTL:            time.Hour,
		CommissionAmount:  decimal.NewFromInt(300),
		TrialDays:         30,
		ReferralBaseURL:   "https://exzakvibe.com",
		DashboardCacheTTL: time.Minute,
		ExtensionAPIURL:   "http://localhost:3000/api",
		DeviceTokenTTL:    24 * time.Hour,
	}
}

// seedUser inserts an approved account with the given password
func seedUser(t *testing.T, conn *gorm.DB, email, role string, mutate ...func(*domain.User)) *domain.User {
	t.Helper()
	hash, err := testHasher.Hash("secret123")
	require.NoError(t, err)
	u := &domain.User{
		Name:          "User " + email,
		Email:         email,
		PasswordHash:  hash,
		Role:          role,
		IsApproved:    true,
		WalletBalance: decimal.Zero,
		ReferralLink:  utils.ReferralLink("https://exzakvibe.com", email),
	}
	for _, m := range mutate {
		m(u)
	}
	require.NoError(t, conn.Create(u).Error)
	return u
}

func withCode(code string, expiry time.Time) func(*domain.User) {
	return func(u *domain.User) {
		u.ActiveReferralCode = &code
		u.ReferralCodeExpiry = &expiry
	}
}

func reload(t *testing.T, conn *gorm.DB, id uint) domain.User {
	t.Helper()
	var u domain.User
	require.NoError(t, conn.First(&u, id).Error)
	return u
}
