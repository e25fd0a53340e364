package models

import (
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// CarryForwardYears is how many years a loss stays usable after its source year.
const CarryForwardYears = 8

// CarryForwardRecord holds the net unutilized losses of one closed fiscal year.
// FiscalYear is the first year the loss may be applied to (source + 1).
type CarryForwardRecord struct {
	gorm.Model
	UserID           uint            `gorm:"uniqueIndex:idx_carry_forward_user_source;not null" json:"user_id"`
	SourceFiscalYear string          `gorm:"type:varchar(7);uniqueIndex:idx_carry_forward_user_source;not null" json:"source_fiscal_year"`
	FiscalYear       string          `gorm:"type:varchar(7);index;not null" json:"fiscal_year"`
	ShortTermLoss    decimal.Decimal `gorm:"type:decimal(24,4)" json:"short_term_loss"`
	LongTermLoss     decimal.Decimal `gorm:"type:decimal(24,4)" json:"long_term_loss"`
	ExpiresIn        int             `gorm:"not null;default:8" json:"expires_in"`
}
