package tax

import (
	"tax-harvest-go/internal/models"

	"github.com/shopspring/decimal"
)

// RateFor selects the rate for category and term from cfg. Unknown
// categories fall back to cfg.DefaultRate; the bool is false in that case.
func (c Classifier) RateFor(cfg models.TaxConfiguration, category models.AssetCategory, longTerm bool) (decimal.Decimal, bool) {
	switch category {
	case models.CategoryEquity, models.CategoryEquityFund:
		if longTerm {
			return cfg.LongTermEquityRate, true
		}
		return cfg.ShortTermEquityRate, true
	case models.CategoryDebtFund, models.CategoryGoldETF, models.CategoryBond:
		if longTerm {
			return cfg.DebtLongTermRate, true
		}
		return cfg.DebtShortTermRate, true
	case models.CategoryCrypto:
		if longTerm && c.Rules == LegacyRules {
			return cfg.CryptoLongTermRate, true
		}
		return cfg.CryptoRate, true
	}
	return cfg.DefaultRate, false
}
