package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Holding is a position owned by a single user.
// Quantity never goes below zero; the row is deleted when it reaches zero.
type Holding struct {
	gorm.Model
	UserID       uint            `gorm:"index;not null" json:"user_id"`
	Symbol       string          `gorm:"index;not null" json:"symbol"`
	Category     AssetCategory   `gorm:"type:varchar(20);not null" json:"category"`
	Quantity     decimal.Decimal `gorm:"type:decimal(24,8);not null" json:"quantity"`
	AveragePrice decimal.Decimal `gorm:"type:decimal(24,8);not null" json:"average_price"`
	CurrentPrice decimal.Decimal `gorm:"type:decimal(24,8)" json:"current_price"`
	AcquiredAt   time.Time       `gorm:"not null" json:"acquired_at"`
	// Version is bumped on every quantity change and used as a compare-and-swap token.
	Version uint `gorm:"not null;default:0" json:"version"`
}

// CostBasis is quantity times average acquisition price.
func (h *Holding) CostBasis() decimal.Decimal {
	return h.Quantity.Mul(h.AveragePrice)
}
