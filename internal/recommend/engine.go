// Package recommend generates tax-loss-harvesting recommendations, governs
// their lifecycle and executes accepted ones against portfolio state.
package recommend

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"tax-harvest-go/internal/fiscal"
	"tax-harvest-go/internal/models"
	"tax-harvest-go/internal/tax"
	"tax-harvest-go/internal/washsale"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	maxPriority         = 10
	lossPercentPerPoint = 5
	savingsBonus        = 3
)

// SummaryCalculator computes the current tax summary.
type SummaryCalculator interface {
	Calculate(ctx context.Context, userID uint, fy string) (*tax.Summary, error)
}

// WashSaleChecker reports recent buys that would make a sale a wash sale.
type WashSaleChecker interface {
	CheckReverse(ctx context.Context, userID uint, symbol string, proposedSell time.Time) (*washsale.Check, error)
}

// Engine scans loss-making holdings and persists candidate recommendations.
type Engine struct {
	db     *gorm.DB
	calc   SummaryCalculator
	guard  WashSaleChecker
	logger *zap.Logger
	now    func() time.Time
}

// NewEngine creates a new Engine. guard may be nil.
func NewEngine(db *gorm.DB, calc SummaryCalculator, guard WashSaleChecker, logger *zap.Logger) *Engine {
	return &Engine{
		db:     db,
		calc:   calc,
		guard:  guard,
		logger: logger.Named("recommend"),
		now:    time.Now,
	}
}

// SetClock overrides time.Now.
func (e *Engine) SetClock(now func() time.Time) { e.now = now }

// Generate builds one harvest-loss recommendation per loss-making holding,
// supersedes the user's pending recommendations for fy and returns the new
// batch ordered by priority, then creation order.
//
// Savings of each candidate are estimated independently against the same
// bucket total: gains claimed by one candidate are not deducted before the
// next is scored.
func (e *Engine) Generate(ctx context.Context, userID uint, fy string) ([]models.Recommendation, error) {
	year, err := fiscal.Parse(fy)
	if err != nil {
		return nil, err
	}
	summary, err := e.calc.Calculate(ctx, userID, fy)
	if err != nil {
		return nil, fmt.Errorf("failed to calculate tax summary: %w", err)
	}

	l := e.logger.With(zap.Uint("user_id", userID), zap.String("fiscal_year", fy))
	now := e.now().UTC()

	recs := make([]models.Recommendation, 0)
	for _, calc := range summary.Calculations {
		if !calc.Gain.IsNegative() {
			continue
		}
		rec := e.candidate(summary, calc, year, now)

		if e.guard != nil {
			check, err := e.guard.CheckReverse(ctx, userID, calc.Symbol, now)
			if err != nil {
				l.Warn("Wash-sale check failed", zap.String("symbol", calc.Symbol), zap.Error(err))
			} else if check.IsWashSale {
				rec.WashSaleRisk = true
				rec.Rationale += fmt.Sprintf(" Bought within the last %d days: a sale now falls inside the wash-sale window (%d days remaining).",
					washsale.WindowDays, check.DaysRemaining)
			}
		}
		recs = append(recs, rec)
	}

	err = e.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		superseded := tx.Model(&models.Recommendation{}).
			Where("user_id = ? AND fiscal_year = ? AND status = ?", userID, fy, models.StatusPending).
			Update("status", models.StatusExpired)
		if superseded.Error != nil {
			return superseded.Error
		}
		if superseded.RowsAffected > 0 {
			l.Info("Superseded pending recommendations", zap.Int64("count", superseded.RowsAffected))
		}
		if len(recs) == 0 {
			return nil
		}
		return tx.Create(&recs).Error
	})
	if err != nil {
		return nil, fmt.Errorf("failed to persist recommendations: %w", err)
	}

	sortByPriority(recs)
	l.Info("Generated recommendations", zap.Int("count", len(recs)))
	return recs, nil
}

func (e *Engine) candidate(summary *tax.Summary, calc tax.Calculation, year fiscal.Year, now time.Time) models.Recommendation {
	potentialLoss := calc.Gain.Abs()
	available := summary.NetGain(calc.Term)

	savings := decimal.Zero
	if available.IsPositive() {
		savings = decimal.Min(potentialLoss, available).Mul(calc.Rate).Round(2)
	}
	lossPercent := calc.LossPercent()

	return models.Recommendation{
		UserID:              summary.UserID,
		HoldingID:           calc.HoldingID,
		Symbol:              calc.Symbol,
		Category:            calc.Category,
		Type:                models.RecommendationHarvestLoss,
		FiscalYear:          year.String(),
		Term:                calc.Term,
		CurrentPrice:        calc.CurrentPrice,
		AcquisitionPrice:    calc.AveragePrice,
		Quantity:            calc.Quantity,
		PotentialLoss:       potentialLoss.Round(2),
		LossPercent:         lossPercent.Round(2),
		EstimatedTaxSavings: savings,
		PriorityScore:       PriorityScore(lossPercent, savings),
		Deadline:            year.Deadline(),
		Rationale:           rationale(calc, potentialLoss, lossPercent, savings, available),
		Status:              models.StatusPending,
	}
}

// PriorityScore is min(10, floor(|lossPercent| / 5) + 3 if savings > 0).
func PriorityScore(lossPercent, savings decimal.Decimal) int {
	score := int(lossPercent.Abs().Div(decimal.NewFromInt(lossPercentPerPoint)).Floor().IntPart())
	if savings.IsPositive() {
		score += savingsBonus
	}
	if score > maxPriority {
		score = maxPriority
	}
	return score
}

func rationale(calc tax.Calculation, loss, lossPercent, savings, available decimal.Decimal) string {
	term := strings.ReplaceAll(string(calc.Term), "_", "-")
	var b strings.Builder
	fmt.Fprintf(&b, "%s is down %s%% (unrealized %s loss of %s).",
		calc.Symbol, lossPercent.Abs().StringFixed(1), term, loss.StringFixed(2))
	if savings.IsPositive() {
		fmt.Fprintf(&b, " Selling offsets %s of net %s gains and saves about %s in tax.",
			decimal.Min(loss, available).StringFixed(2), term, savings.StringFixed(2))
	} else {
		fmt.Fprintf(&b, " No %s gains to offset this year; the loss can be carried forward.", term)
	}
	return b.String()
}

// List returns the user's recommendations, optionally filtered by status,
// ordered by priority then creation order.
func (e *Engine) List(ctx context.Context, userID uint, status *models.RecommendationStatus) ([]models.Recommendation, error) {
	q := e.db.WithContext(ctx).Where("user_id = ?", userID)
	if status != nil {
		if !status.Valid() {
			return nil, fmt.Errorf("%w: unknown status %q", models.ErrInvalidState, *status)
		}
		q = q.Where("status = ?", *status)
	}

	var recs []models.Recommendation
	if err := q.Order("priority_score desc").Order("id asc").Find(&recs).Error; err != nil {
		return nil, fmt.Errorf("failed to list recommendations: %w", err)
	}
	return recs, nil
}

// ExpireOverdue moves pending recommendations whose deadline day has passed
// to expired. A recommendation stays pending through its deadline day.
func (e *Engine) ExpireOverdue(ctx context.Context) (int64, error) {
	today := e.now().UTC().Truncate(24 * time.Hour)
	res := e.db.WithContext(ctx).Model(&models.Recommendation{}).
		Where("status = ? AND deadline < ?", models.StatusPending, today).
		Update("status", models.StatusExpired)
	if res.Error != nil {
		return 0, fmt.Errorf("failed to expire recommendations: %w", res.Error)
	}
	if res.RowsAffected > 0 {
		e.logger.Info("Expired overdue recommendations", zap.Int64("count", res.RowsAffected))
	}
	return res.RowsAffected, nil
}

func sortByPriority(recs []models.Recommendation) {
	sort.SliceStable(recs, func(i, j int) bool {
		if recs[i].PriorityScore != recs[j].PriorityScore {
			return recs[i].PriorityScore > recs[j].PriorityScore
		}
		return recs[i].ID < recs[j].ID
	})
}
