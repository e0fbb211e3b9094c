package db

import (
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"
	"github.com/sirupsen/logrus"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"nnm-backend/internal/models"
)

var DB *gorm.DB

// Init opens the Postgres connection and migrates the index tables.
func Init(dsn string) error {
	if dsn == "" {
		return fmt.Errorf("database DSN is not configured")
	}

	database, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := database.DB()
	if err != nil {
		return fmt.Errorf("failed to access connection pool: %w", err)
	}
	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetMaxIdleConns(5)
	sqlDB.SetConnMaxLifetime(30 * time.Minute)

	if err := database.AutoMigrate(
		&models.MintedAsset{},
		&models.MintAttemptRecord{},
	); err != nil {
		return fmt.Errorf("failed to migrate schema: %w", err)
	}

	DB = database
	logrus.Info("✅ Database initialized")
	return nil
}

// IsUniqueViolation reports whether an error is a Postgres unique
// constraint violation, used by upserts racing the sync loop.
func IsUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505"
	}
	return false
}
