package models

import (
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// TaxConfiguration is the rate table for one fiscal year. It is read-only
// to the engine; rows are only written by an explicit seed.
type TaxConfiguration struct {
	gorm.Model
	FiscalYear string `gorm:"type:varchar(7);uniqueIndex;not null" yaml:"fiscal_year" json:"fiscal_year"`

	ShortTermEquityRate decimal.Decimal `gorm:"type:decimal(8,4)" yaml:"short_term_equity_rate" json:"short_term_equity_rate"`
	LongTermEquityRate  decimal.Decimal `gorm:"type:decimal(8,4)" yaml:"long_term_equity_rate" json:"long_term_equity_rate"`
	LongTermExemption   decimal.Decimal `gorm:"type:decimal(20,2)" yaml:"long_term_exemption" json:"long_term_exemption"`

	CryptoRate         decimal.Decimal `gorm:"type:decimal(8,4)" yaml:"crypto_rate" json:"crypto_rate"`
	CryptoLongTermRate decimal.Decimal `gorm:"type:decimal(8,4)" yaml:"crypto_long_term_rate" json:"crypto_long_term_rate"`

	DebtShortTermRate decimal.Decimal `gorm:"type:decimal(8,4)" yaml:"debt_short_term_rate" json:"debt_short_term_rate"`
	DebtLongTermRate  decimal.Decimal `gorm:"type:decimal(8,4)" yaml:"debt_long_term_rate" json:"debt_long_term_rate"`

	// DefaultRate applies to categories the table does not know.
	DefaultRate decimal.Decimal `gorm:"type:decimal(8,4)" yaml:"default_rate" json:"default_rate"`

	SurchargeThreshold decimal.Decimal `gorm:"type:decimal(20,2)" yaml:"surcharge_threshold" json:"surcharge_threshold"`
	SurchargeRate      decimal.Decimal `gorm:"type:decimal(8,4)" yaml:"surcharge_rate" json:"surcharge_rate"`
	CessRate           decimal.Decimal `gorm:"type:decimal(8,4)" yaml:"cess_rate" json:"cess_rate"`
}
