// Package harvest is the entry point of the rules engine. Engine wires the
// tax, carry-forward, wash-sale, recommendation and regime components over
// one database handle. Every call is request-scoped.
package harvest

import (
	"context"
	"fmt"
	"time"

	"tax-harvest-go/internal/carryforward"
	"tax-harvest-go/internal/config"
	"tax-harvest-go/internal/fiscal"
	"tax-harvest-go/internal/models"
	"tax-harvest-go/internal/recommend"
	"tax-harvest-go/internal/regime"
	"tax-harvest-go/internal/tax"
	"tax-harvest-go/internal/taxconfig"
	"tax-harvest-go/internal/washsale"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Engine exposes the operations of the rules engine.
type Engine struct {
	logger   *zap.Logger
	db       *gorm.DB
	now      func() time.Time
	configs  *taxconfig.Provider
	calc     *tax.Calculator
	ledger   *carryforward.Ledger
	guard    *washsale.Guard
	recs     *recommend.Engine
	executor *recommend.Executor
}

// Option customizes an Engine.
type Option func(*options)

type options struct {
	prices tax.PriceLookup
	now    func() time.Time
}

// WithPriceLookup prices holdings from p instead of their stored current price.
func WithPriceLookup(p tax.PriceLookup) Option {
	return func(o *options) { o.prices = p }
}

// WithClock overrides time.Now in every component.
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

// NewEngine creates a new Engine.
func NewEngine(logger *zap.Logger, cfg *config.Config, db *gorm.DB, opts ...Option) *Engine {
	o := options{now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}

	calcOpts := []tax.Option{tax.WithClock(o.now)}
	if o.prices != nil {
		calcOpts = append(calcOpts, tax.WithPriceLookup(o.prices))
	}
	if cfg != nil && cfg.Tax.LegacyCryptoRules {
		logger.Warn("Legacy crypto holding-period rules enabled; crypto gains may be classified long-term")
		calcOpts = append(calcOpts, tax.WithRules(tax.LegacyRules))
	}

	configs := taxconfig.NewProvider(db, logger)
	calc := tax.NewCalculator(db, configs, logger, calcOpts...)
	guard := washsale.NewGuard(db, logger)

	recs := recommend.NewEngine(db, calc, guard, logger)
	recs.SetClock(o.now)
	executor := recommend.NewExecutor(db, guard, logger)
	executor.SetClock(o.now)

	return &Engine{
		logger:   logger.Named("harvest"),
		db:       db,
		now:      o.now,
		configs:  configs,
		calc:     calc,
		ledger:   carryforward.NewLedger(db, logger),
		guard:    guard,
		recs:     recs,
		executor: executor,
	}
}

// NewRegimeEngine creates an Engine without storage. Only CompareRegimes and
// QuickEstimate may be called on it.
func NewRegimeEngine(logger *zap.Logger) *Engine {
	return &Engine{logger: logger.Named("harvest"), now: time.Now}
}

// CurrentFiscalYear returns the fiscal year containing today, e.g. "2024-25".
func (e *Engine) CurrentFiscalYear() string {
	return fiscal.Of(e.now().UTC()).String()
}

// resolve defaults an empty fiscal year to the current one.
func (e *Engine) resolve(fy string) string {
	if fy == "" {
		return e.CurrentFiscalYear()
	}
	return fy
}

// CalculateTax computes the user's tax summary for fy.
func (e *Engine) CalculateTax(ctx context.Context, userID uint, fy string) (*tax.Summary, error) {
	return e.calc.Calculate(ctx, userID, e.resolve(fy))
}

// GenerateRecommendations replaces the user's pending recommendations for fy.
func (e *Engine) GenerateRecommendations(ctx context.Context, userID uint, fy string) ([]models.Recommendation, error) {
	return e.recs.Generate(ctx, userID, e.resolve(fy))
}

// Recommendations lists the user's recommendations, optionally by status.
func (e *Engine) Recommendations(ctx context.Context, userID uint, status *models.RecommendationStatus) ([]models.Recommendation, error) {
	return e.recs.List(ctx, userID, status)
}

// UpdateRecommendationStatus accepts or rejects a pending recommendation.
func (e *Engine) UpdateRecommendationStatus(ctx context.Context, id, userID uint, status models.RecommendationStatus) (*models.Recommendation, error) {
	return e.recs.UpdateStatus(ctx, id, userID, status)
}

// ExecuteRecommendation realizes a pending recommendation as a sale.
func (e *Engine) ExecuteRecommendation(ctx context.Context, id, userID uint) (*recommend.Execution, error) {
	return e.executor.Execute(ctx, id, userID)
}

// ReverseTransaction compensates a transaction and marks it reversed.
func (e *Engine) ReverseTransaction(ctx context.Context, transactionID, userID uint) (*recommend.Reversal, error) {
	return e.executor.Reverse(ctx, transactionID, userID)
}

// ExpireRecommendations expires pending recommendations past their deadline.
func (e *Engine) ExpireRecommendations(ctx context.Context) (int64, error) {
	return e.recs.ExpireOverdue(ctx)
}

// CheckWashSale checks a proposed trade on date. Forward checks a buy
// against recent sells; Reverse checks a sell against recent buys.
func (e *Engine) CheckWashSale(ctx context.Context, userID uint, symbol string, dir washsale.Direction, date time.Time) (*washsale.Check, error) {
	if date.IsZero() {
		date = e.now()
	}
	switch dir {
	case washsale.Forward:
		return e.guard.CheckForward(ctx, userID, symbol, date)
	case washsale.Reverse:
		return e.guard.CheckReverse(ctx, userID, symbol, date)
	}
	return nil, fmt.Errorf("unknown wash-sale direction %q", dir)
}

// WashSaleHistory reconstructs the wash-sale pairs of fy.
func (e *Engine) WashSaleHistory(ctx context.Context, userID uint, fy string) ([]washsale.Pair, error) {
	return e.guard.History(ctx, userID, e.resolve(fy))
}

// CarryForwardView is the user's carry-forward position for a year.
type CarryForwardView struct {
	Available *carryforward.Available    `json:"available"`
	Records   []carryforward.RecordStatus `json:"records"`
}

// CarryForward returns the losses usable in fy and every stored record.
func (e *Engine) CarryForward(ctx context.Context, userID uint, fy string) (*CarryForwardView, error) {
	fy = e.resolve(fy)
	records, err := e.ledger.Records(ctx, userID, fy)
	if err != nil {
		return nil, err
	}
	available, err := e.ledger.Available(ctx, userID, fy)
	if err != nil {
		return nil, err
	}
	return &CarryForwardView{Available: available, Records: records}, nil
}

// ApplyCarryForward offsets fy's net gains from the current summary with the
// carry-forward available for fy.
func (e *Engine) ApplyCarryForward(ctx context.Context, userID uint, fy string) (*carryforward.Application, error) {
	fy = e.resolve(fy)
	summary, err := e.calc.Calculate(ctx, userID, fy)
	if err != nil {
		return nil, err
	}
	return e.ledger.Apply(ctx, userID, fy, summary.NetShortTermGain, summary.NetLongTermGain)
}

// YearEnd is the outcome of closing a fiscal year.
type YearEnd struct {
	Summary *tax.Summary               `json:"summary"`
	Record  *models.CarryForwardRecord `json:"carry_forward,omitempty"`
}

// CloseFiscalYear records fy's unabsorbed losses for the following years.
// Record is nil when nothing is left to carry.
func (e *Engine) CloseFiscalYear(ctx context.Context, userID uint, fy string) (*YearEnd, error) {
	fy = e.resolve(fy)
	summary, err := e.calc.Calculate(ctx, userID, fy)
	if err != nil {
		return nil, err
	}
	rec, err := e.ledger.RecordYearEnd(ctx, userID, fy, summary)
	if err != nil {
		return nil, err
	}
	e.logger.Info("Closed fiscal year", zap.Uint("user_id", userID), zap.String("fiscal_year", fy), zap.Bool("carried", rec != nil))
	return &YearEnd{Summary: summary, Record: rec}, nil
}

// CompareRegimes compares total tax under both regimes.
func (e *Engine) CompareRegimes(income, deductions decimal.Decimal, gains regime.CapitalGains) (*regime.Comparison, error) {
	c, err := regime.Compare(income, deductions, gains)
	if err != nil {
		return nil, err
	}
	e.logger.Debug("Compared regimes",
		zap.String("recommendation", string(c.Recommendation)),
		zap.String("savings", c.Savings.String()))
	return c, nil
}

// QuickEstimate compares regimes on income and deductions alone.
func (e *Engine) QuickEstimate(income, deductions decimal.Decimal) (*regime.Comparison, error) {
	return e.CompareRegimes(income, deductions, regime.CapitalGains{})
}

// SeedTaxConfigurations upserts rate tables by fiscal year.
func (e *Engine) SeedTaxConfigurations(ctx context.Context, configs ...models.TaxConfiguration) error {
	return e.configs.Seed(ctx, configs...)
}
