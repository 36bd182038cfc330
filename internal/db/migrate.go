package db

import (
	"radar_backend/internal/config" // Application configuration
	"radar_backend/internal/domain" // Importing domain models

	"github.com/sirupsen/logrus" // Logging library
	"gorm.io/driver/mysql"       // MySQL driver for GORM
	"gorm.io/gorm"               // GORM ORM library
	"gorm.io/gorm/logger"        // GORM logger levels
)

// Open connects to MySQL with the settings every binary shares
func Open(cfg *config.Config) (*gorm.DB, error) {
	level := logger.Warn // Log slow queries and errors
	if cfg.IsProd {
		level = logger.Error // Only errors in production
	}
	return gorm.Open(mysql.Open(cfg.DSN()), &gorm.Config{
		TranslateError: true,                          // Map driver errors to gorm.ErrDuplicatedKey and friends
		Logger:         logger.Default.LogMode(level), // Query logging level
	})
}

// Migrate performs automatic migration for the database schema
func Migrate(db *gorm.DB) error {
	// AutoMigrate will create tables, missing foreign keys, constraints, columns and indexes
	if err := db.AutoMigrate(&domain.User{}, &domain.Referral{}, &domain.Transaction{}, &domain.AdminLog{}, &domain.Notification{}); err != nil {
		return err // Return migration error
	}
	logrus.Info("Migration completed.") // Log successful migration
	return nil
}
