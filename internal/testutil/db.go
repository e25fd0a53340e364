// Package testutil provides fixtures shared by package tests.
package testutil

import (
	"testing"
	"time"

	"tax-harvest-go/internal/database"
	"tax-harvest-go/internal/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// NewDB opens a migrated, non-shared in-memory database for one test.
// The pool is pinned to a single connection so the in-memory schema survives.
func NewDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, database.AutoMigrate(db))
	return db
}

// D parses a decimal literal and panics on malformed input.
func D(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

// Date returns midnight UTC of the given day.
func Date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// CreateHolding inserts a holding and returns it.
func CreateHolding(t *testing.T, db *gorm.DB, h models.Holding) models.Holding {
	t.Helper()
	require.NoError(t, db.Create(&h).Error)
	return h
}

// CreateTransaction inserts a transaction and returns it.
func CreateTransaction(t *testing.T, db *gorm.DB, tx models.Transaction) models.Transaction {
	t.Helper()
	require.NoError(t, db.Create(&tx).Error)
	return tx
}
