package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// RecommendationType is the kind of action suggested.
type RecommendationType string

// RecommendationHarvestLoss is the only type the engine generates.
const RecommendationHarvestLoss RecommendationType = "harvest_loss"

// RecommendationStatus is the lifecycle state of a recommendation.
type RecommendationStatus string

const (
	StatusPending  RecommendationStatus = "pending"
	StatusAccepted RecommendationStatus = "accepted"
	StatusRejected RecommendationStatus = "rejected"
	StatusExpired  RecommendationStatus = "expired"
)

// Valid reports whether s is a known status.
func (s RecommendationStatus) Valid() bool {
	switch s {
	case StatusPending, StatusAccepted, StatusRejected, StatusExpired:
		return true
	}
	return false
}

// Term is the holding-period classification.
type Term string

const (
	ShortTerm Term = "short_term"
	LongTerm  Term = "long_term"
)

// Recommendation is a candidate tax-loss-harvesting sale.
type Recommendation struct {
	gorm.Model
	UserID              uint                 `gorm:"index;not null" json:"user_id"`
	HoldingID           uint                 `gorm:"index;not null" json:"holding_id"`
	Symbol              string               `gorm:"not null" json:"symbol"`
	Category            AssetCategory        `gorm:"type:varchar(20)" json:"category"`
	Type                RecommendationType   `gorm:"type:varchar(20);not null" json:"type"`
	FiscalYear          string               `gorm:"type:varchar(7);not null" json:"fiscal_year"`
	Term                Term                 `gorm:"type:varchar(10)" json:"term"`
	CurrentPrice        decimal.Decimal      `gorm:"type:decimal(24,8)" json:"current_price"`
	AcquisitionPrice    decimal.Decimal      `gorm:"type:decimal(24,8)" json:"acquisition_price"`
	Quantity            decimal.Decimal      `gorm:"type:decimal(24,8)" json:"quantity"`
	PotentialLoss       decimal.Decimal      `gorm:"type:decimal(24,4)" json:"potential_loss"`
	LossPercent         decimal.Decimal      `gorm:"type:decimal(10,4)" json:"loss_percent"`
	EstimatedTaxSavings decimal.Decimal      `gorm:"type:decimal(24,4)" json:"estimated_tax_savings"`
	PriorityScore       int                  `gorm:"not null;default:0" json:"priority_score"`
	Deadline            time.Time            `json:"deadline"`
	Rationale           string               `json:"rationale"`
	WashSaleRisk        bool                 `gorm:"not null;default:false" json:"wash_sale_risk"`
	Status              RecommendationStatus `gorm:"type:varchar(10);index;not null;default:pending" json:"status"`
	ExecutedAt          *time.Time           `json:"executed_at,omitempty"`
	ExecutionRef        string               `gorm:"type:varchar(36)" json:"execution_ref,omitempty"`
}
