package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// TransactionType is the side of a transaction.
type TransactionType string

const (
	TransactionBuy  TransactionType = "buy"
	TransactionSell TransactionType = "sell"
)

// Opposite returns the other side.
func (t TransactionType) Opposite() TransactionType {
	if t == TransactionBuy {
		return TransactionSell
	}
	return TransactionBuy
}

// Transaction is an append-only trade record. A reversal never deletes the
// original row: it sets Reversed and links both rows to each other.
type Transaction struct {
	gorm.Model
	UserID   uint            `gorm:"index;not null" json:"user_id"`
	Type     TransactionType `gorm:"type:varchar(10);not null" json:"type"`
	Symbol   string          `gorm:"index;not null" json:"symbol"`
	Category AssetCategory   `gorm:"type:varchar(20)" json:"category"`
	Quantity decimal.Decimal `gorm:"type:decimal(24,8);not null" json:"quantity"`
	Price    decimal.Decimal `gorm:"type:decimal(24,8);not null" json:"price"`
	Date     time.Time       `gorm:"index;not null" json:"date"`

	// Snapshot of the holding at sale time, used to recreate it on reversal.
	CostBasisPrice decimal.Decimal `gorm:"type:decimal(24,8)" json:"cost_basis_price"`
	AcquiredAt     *time.Time      `json:"acquired_at,omitempty"`

	HoldingID        *uint  `gorm:"index" json:"holding_id,omitempty"`
	RecommendationID *uint  `gorm:"index" json:"recommendation_id,omitempty"`
	ExecutionRef     string `gorm:"type:varchar(36)" json:"execution_ref,omitempty"`

	Reversed     bool  `gorm:"not null;default:false" json:"reversed"`
	ReversedByID *uint `json:"reversed_by_id,omitempty"`
	ReversalOfID *uint `gorm:"index" json:"reversal_of_id,omitempty"`
}

// Effective reports whether the transaction still counts: neither reversed nor a reversal entry.
func (t *Transaction) Effective() bool {
	return !t.Reversed && t.ReversalOfID == nil
}
