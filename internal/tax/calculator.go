package tax

import (
	"context"
	"errors"
	"fmt"
	"time"

	"tax-harvest-go/internal/fiscal"
	"tax-harvest-go/internal/models"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// ErrComputationSkipped marks a holding excluded from the aggregate because
// its price, quantity or dates failed validation.
var ErrComputationSkipped = errors.New("computation skipped")

// ConfigSource supplies the rate table for a fiscal year.
type ConfigSource interface {
	ForYear(ctx context.Context, fy string) (models.TaxConfiguration, error)
}

// Calculation is the ephemeral per-holding result. It is recomputed on every
// request and never persisted.
type Calculation struct {
	HoldingID    uint                 `json:"holding_id"`
	Symbol       string               `json:"symbol"`
	Category     models.AssetCategory `json:"category"`
	Quantity     decimal.Decimal      `json:"quantity"`
	AveragePrice decimal.Decimal      `json:"average_price"`
	CurrentPrice decimal.Decimal      `json:"current_price"`
	CostBasis    decimal.Decimal      `json:"cost_basis"`
	MarketValue  decimal.Decimal      `json:"market_value"`
	Gain         decimal.Decimal      `json:"gain"`
	HoldingDays  int                  `json:"holding_days"`
	Term         models.Term          `json:"term"`
	Rate         decimal.Decimal      `json:"rate"`
	RateFallback bool                 `json:"rate_fallback"`
	Taxable      decimal.Decimal      `json:"taxable_amount"`
	Liability    decimal.Decimal      `json:"liability"`
}

// LossPercent is the gain relative to cost basis, in percent.
func (c Calculation) LossPercent() decimal.Decimal {
	if c.CostBasis.IsZero() {
		return decimal.Zero
	}
	return c.Gain.Div(c.CostBasis).Mul(decimal.NewFromInt(100))
}

// SkippedHolding records a holding excluded from the aggregate.
type SkippedHolding struct {
	HoldingID uint   `json:"holding_id"`
	Symbol    string `json:"symbol"`
	Reason    string `json:"reason"`
}

// Summary is the aggregate for one user and fiscal year.
type Summary struct {
	UserID     uint      `json:"user_id"`
	FiscalYear string    `json:"fiscal_year"`
	AsOf       time.Time `json:"as_of"`

	ShortTermGains  decimal.Decimal `json:"short_term_gains"`
	ShortTermLosses decimal.Decimal `json:"short_term_losses"`
	LongTermGains   decimal.Decimal `json:"long_term_gains"`
	LongTermLosses  decimal.Decimal `json:"long_term_losses"`

	// Net gains are clipped at zero per bucket; no cross-bucket offset here.
	NetShortTermGain decimal.Decimal `json:"net_short_term_gain"`
	NetLongTermGain  decimal.Decimal `json:"net_long_term_gain"`

	TotalLiability decimal.Decimal `json:"total_liability"`
	Surcharge      decimal.Decimal `json:"surcharge"`
	Cess           decimal.Decimal `json:"cess"`
	TotalPayable   decimal.Decimal `json:"total_payable"`

	Calculations []Calculation    `json:"calculations"`
	Skipped      []SkippedHolding `json:"skipped,omitempty"`
}

// NetGain returns the clipped net gain of the bucket for term.
func (s *Summary) NetGain(term models.Term) decimal.Decimal {
	if term == models.LongTerm {
		return s.NetLongTermGain
	}
	return s.NetShortTermGain
}

// Calculator computes per-holding liability and the fiscal-year summary.
type Calculator struct {
	db         *gorm.DB
	configs    ConfigSource
	classifier Classifier
	prices     PriceLookup
	logger     *zap.Logger
	now        func() time.Time
}

// Option configures a Calculator.
type Option func(*Calculator)

// WithPriceLookup injects a price source that overrides stored prices.
func WithPriceLookup(p PriceLookup) Option {
	return func(c *Calculator) { c.prices = p }
}

// WithRules selects the classification rule set.
func WithRules(r RuleSet) Option {
	return func(c *Calculator) { c.classifier.Rules = r }
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(c *Calculator) { c.now = now }
}

// NewCalculator creates a new Calculator.
func NewCalculator(db *gorm.DB, configs ConfigSource, logger *zap.Logger, opts ...Option) *Calculator {
	c := &Calculator{
		db:      db,
		configs: configs,
		logger:  logger.Named("tax"),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Calculate loads the user's holdings and computes the summary for fy.
func (c *Calculator) Calculate(ctx context.Context, userID uint, fy string) (*Summary, error) {
	year, err := fiscal.Parse(fy)
	if err != nil {
		return nil, err
	}
	cfg, err := c.configs.ForYear(ctx, fy)
	if err != nil {
		return nil, err
	}

	var holdings []models.Holding
	if err := c.db.WithContext(ctx).Where("user_id = ?", userID).Order("id").Find(&holdings).Error; err != nil {
		return nil, fmt.Errorf("failed to load holdings for user %d: %w", userID, err)
	}

	asOf := c.now().UTC()
	if end := year.End(); asOf.After(end) {
		asOf = end
	}

	l := c.logger.With(zap.Uint("user_id", userID), zap.String("fiscal_year", fy))
	summary := newSummary(userID, fy, asOf)
	for i := range holdings {
		h := holdings[i]
		if c.prices != nil {
			price, ok, err := c.prices.CurrentPrice(ctx, h.Symbol, h.Category)
			if err != nil {
				l.Warn("Price lookup failed, skipping holding", zap.String("symbol", h.Symbol), zap.Error(err))
				summary.skip(h, fmt.Sprintf("price lookup failed: %v", err))
				continue
			}
			if ok {
				h.CurrentPrice = price
			}
		}

		calc, err := c.Evaluate(cfg, h, asOf)
		if err != nil {
			l.Warn("Skipping holding", zap.Uint("holding_id", h.ID), zap.String("symbol", h.Symbol), zap.Error(err))
			summary.skip(h, err.Error())
			continue
		}
		if calc.RateFallback {
			l.Warn("Unknown asset category, using default rate",
				zap.String("symbol", h.Symbol), zap.String("category", string(h.Category)))
		}
		summary.add(calc)
	}
	summary.finish(cfg)

	l.Debug("Tax calculated",
		zap.Int("holdings", len(summary.Calculations)),
		zap.Int("skipped", len(summary.Skipped)),
		zap.String("total_payable", summary.TotalPayable.StringFixed(2)))
	return summary, nil
}

// Evaluate computes the liability of a single holding. Losses are recorded
// but never taxed. The long-term equity exemption is subtracted from this
// holding's own taxable amount, not from the aggregate.
func (c *Calculator) Evaluate(cfg models.TaxConfiguration, h models.Holding, asOf time.Time) (Calculation, error) {
	if err := validate(h); err != nil {
		return Calculation{}, err
	}

	class := c.classifier.Classify(h.Category, h.AcquiredAt, asOf)
	rate, known := c.classifier.RateFor(cfg, h.Category, class.IsLongTerm)

	costBasis := h.CostBasis()
	marketValue := h.Quantity.Mul(h.CurrentPrice)
	gain := marketValue.Sub(costBasis)

	calc := Calculation{
		HoldingID:    h.ID,
		Symbol:       h.Symbol,
		Category:     h.Category,
		Quantity:     h.Quantity,
		AveragePrice: h.AveragePrice,
		CurrentPrice: h.CurrentPrice,
		CostBasis:    costBasis,
		MarketValue:  marketValue,
		Gain:         gain,
		HoldingDays:  class.HoldingDays,
		Term:         class.Term(),
		Rate:         rate,
		RateFallback: !known,
		Taxable:      decimal.Zero,
		Liability:    decimal.Zero,
	}
	if !gain.IsPositive() {
		return calc, nil
	}

	taxable := gain
	if class.IsLongTerm && h.Category.EquityLinked() {
		taxable = decimal.Max(decimal.Zero, taxable.Sub(cfg.LongTermExemption))
	}
	calc.Taxable = taxable
	calc.Liability = taxable.Mul(rate)
	return calc, nil
}

// Summarize aggregates already evaluated holdings with cfg's surcharge and cess.
func Summarize(userID uint, fy string, asOf time.Time, cfg models.TaxConfiguration, calcs []Calculation) *Summary {
	s := newSummary(userID, fy, asOf)
	for _, calc := range calcs {
		s.add(calc)
	}
	s.finish(cfg)
	return s
}

func validate(h models.Holding) error {
	switch {
	case !h.Quantity.IsPositive():
		return fmt.Errorf("%w: quantity %s is not positive", ErrComputationSkipped, h.Quantity)
	case !h.CurrentPrice.IsPositive():
		return fmt.Errorf("%w: current price %s is not positive", ErrComputationSkipped, h.CurrentPrice)
	case h.AveragePrice.IsNegative():
		return fmt.Errorf("%w: average price %s is negative", ErrComputationSkipped, h.AveragePrice)
	case h.AcquiredAt.IsZero():
		return fmt.Errorf("%w: missing acquisition date", ErrComputationSkipped)
	}
	return nil
}

func newSummary(userID uint, fy string, asOf time.Time) *Summary {
	return &Summary{
		UserID:           userID,
		FiscalYear:       fy,
		AsOf:             asOf,
		ShortTermGains:   decimal.Zero,
		ShortTermLosses:  decimal.Zero,
		LongTermGains:    decimal.Zero,
		LongTermLosses:   decimal.Zero,
		NetShortTermGain: decimal.Zero,
		NetLongTermGain:  decimal.Zero,
		TotalLiability:   decimal.Zero,
		Surcharge:        decimal.Zero,
		Cess:             decimal.Zero,
		TotalPayable:     decimal.Zero,
		Calculations:     []Calculation{},
	}
}

func (s *Summary) add(calc Calculation) {
	s.Calculations = append(s.Calculations, calc)
	s.TotalLiability = s.TotalLiability.Add(calc.Liability)

	switch {
	case calc.Gain.IsPositive() && calc.Term == models.LongTerm:
		s.LongTermGains = s.LongTermGains.Add(calc.Gain)
	case calc.Gain.IsPositive():
		s.ShortTermGains = s.ShortTermGains.Add(calc.Gain)
	case calc.Gain.IsNegative() && calc.Term == models.LongTerm:
		s.LongTermLosses = s.LongTermLosses.Add(calc.Gain.Abs())
	case calc.Gain.IsNegative():
		s.ShortTermLosses = s.ShortTermLosses.Add(calc.Gain.Abs())
	}
}

func (s *Summary) skip(h models.Holding, reason string) {
	s.Skipped = append(s.Skipped, SkippedHolding{HoldingID: h.ID, Symbol: h.Symbol, Reason: reason})
}

func (s *Summary) finish(cfg models.TaxConfiguration) {
	s.NetShortTermGain = decimal.Max(decimal.Zero, s.ShortTermGains.Sub(s.ShortTermLosses))
	s.NetLongTermGain = decimal.Max(decimal.Zero, s.LongTermGains.Sub(s.LongTermLosses))

	s.Surcharge = decimal.Zero
	if s.ShortTermGains.Add(s.LongTermGains).GreaterThan(cfg.SurchargeThreshold) {
		s.Surcharge = s.TotalLiability.Mul(cfg.SurchargeRate)
	}
	s.Cess = s.TotalLiability.Add(s.Surcharge).Mul(cfg.CessRate)
	s.TotalPayable = s.TotalLiability.Add(s.Surcharge).Add(s.Cess)
}
