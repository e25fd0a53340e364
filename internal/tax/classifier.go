// Package tax classifies holdings and computes capital-gains liability.
package tax

import (
	"time"

	"tax-harvest-go/internal/fiscal"
	"tax-harvest-go/internal/models"
)

const (
	equityThresholdDays = 365
	otherThresholdDays  = 1095
)

// RuleSet selects how crypto holding periods are treated.
type RuleSet int

const (
	// CanonicalRules is the multi-asset categorization: crypto is never long-term.
	CanonicalRules RuleSet = iota
	// LegacyRules grants crypto a long-term rate after 1095 days.
	//
	// Deprecated: kept for comparison with the older single-path calculator.
	LegacyRules
)

// Classification is the holding-period result for one holding.
type Classification struct {
	HoldingDays   int
	ThresholdDays int // 0 when no long-term status exists
	IsLongTerm    bool
}

// Term returns the classification as a models.Term.
func (c Classification) Term() models.Term {
	if c.IsLongTerm {
		return models.LongTerm
	}
	return models.ShortTerm
}

// Classifier determines short/long-term status per asset category.
type Classifier struct {
	Rules RuleSet
}

// ThresholdDays returns the holding period after which category becomes
// long-term, and false when the category can never be long-term.
func (c Classifier) ThresholdDays(category models.AssetCategory) (int, bool) {
	switch category {
	case models.CategoryEquity, models.CategoryEquityFund:
		return equityThresholdDays, true
	case models.CategoryDebtFund, models.CategoryGoldETF, models.CategoryBond:
		return otherThresholdDays, true
	case models.CategoryCrypto:
		if c.Rules == LegacyRules {
			return otherThresholdDays, true
		}
		return 0, false
	default:
		// Unknown categories get the longer threshold.
		return otherThresholdDays, true
	}
}

// Classify computes the holding period of an asset acquired at acquired as of
// asOf. A zero asOf means now.
func (c Classifier) Classify(category models.AssetCategory, acquired, asOf time.Time) Classification {
	if asOf.IsZero() {
		asOf = time.Now()
	}
	days := fiscal.DaysBetween(acquired, asOf)
	if days < 0 {
		days = 0
	}

	threshold, ok := c.ThresholdDays(category)
	if !ok {
		return Classification{HoldingDays: days}
	}
	return Classification{
		HoldingDays:   days,
		ThresholdDays: threshold,
		IsLongTerm:    days > threshold,
	}
}
