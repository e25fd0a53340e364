package database

import (
	"fmt"
	"strings"

	"tax-harvest-go/internal/config"
	"tax-harvest-go/internal/models"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// NewDatabase creates a new database connection and performs auto-migration.
func NewDatabase(cfg config.Database, log *zap.Logger) (*gorm.DB, error) {
	dialector, err := dialectorFor(cfg)
	if err != nil {
		return nil, err
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := AutoMigrate(db); err != nil {
		return nil, err
	}
	log.Debug("Database schema migrated", zap.String("dialect", db.Dialector.Name()))

	return db, nil
}

func dialectorFor(cfg config.Database) (gorm.Dialector, error) {
	driver := cfg.Driver
	if driver == "" {
		if strings.HasPrefix(cfg.DSN, "postgres://") || strings.HasPrefix(cfg.DSN, "postgresql://") {
			driver = "postgres"
		} else {
			driver = "sqlite"
		}
	}

	switch driver {
	case "sqlite":
		return sqlite.Open(cfg.DSN), nil
	case "postgres":
		// Simple protocol avoids prepared-statement clashes behind poolers.
		return postgres.New(postgres.Config{
			DSN:                  cfg.DSN,
			PreferSimpleProtocol: true,
		}), nil
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}
}

// AutoMigrate creates missing tables and adds missing columns and indexes for
// all engine models. Existing rows and columns are left in place.
func AutoMigrate(db *gorm.DB) error {
	err := db.AutoMigrate(
		&models.Holding{},
		&models.Transaction{},
		&models.Recommendation{},
		&models.TaxConfiguration{},
		&models.CarryForwardRecord{},
	)
	if err != nil {
		return fmt.Errorf("failed to auto-migrate database: %w", err)
	}
	return nil
}
