// Package carryforward persists unutilized losses and applies them to later years.
package carryforward

import (
	"context"
	"fmt"

	"tax-harvest-go/internal/fiscal"
	"tax-harvest-go/internal/models"
	"tax-harvest-go/internal/tax"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Flat rates for the tax-saved estimate. They approximate, and do not
// re-derive, the effective rate of the holdings that produced the gains.
var (
	IllustrativeShortTermRate = decimal.RequireFromString("0.15")
	IllustrativeLongTermRate  = decimal.RequireFromString("0.10")
)

// Available is the carry-forward usable in a target year.
type Available struct {
	FiscalYear    string                      `json:"fiscal_year"`
	ShortTermLoss decimal.Decimal             `json:"short_term_loss"`
	LongTermLoss  decimal.Decimal             `json:"long_term_loss"`
	Records       []models.CarryForwardRecord `json:"records"`
}

// Application is the result of applying carry-forward to current-year gains.
type Application struct {
	FiscalYear string `json:"fiscal_year"`

	ShortTermGain decimal.Decimal `json:"short_term_gain"`
	LongTermGain  decimal.Decimal `json:"long_term_gain"`

	AdjustedShortTermGain decimal.Decimal `json:"adjusted_short_term_gain"`
	AdjustedLongTermGain  decimal.Decimal `json:"adjusted_long_term_gain"`

	// ShortTermLossUsed covers both the short-term and the long-term offset.
	ShortTermLossUsed      decimal.Decimal `json:"short_term_loss_used"`
	LongTermLossUsed       decimal.Decimal `json:"long_term_loss_used"`
	ShortTermLossRemaining decimal.Decimal `json:"short_term_loss_remaining"`
	LongTermLossRemaining  decimal.Decimal `json:"long_term_loss_remaining"`

	EstimatedTaxSaved decimal.Decimal `json:"estimated_tax_saved"`
}

// RecordStatus is a stored record with its availability for a target year.
type RecordStatus struct {
	models.CarryForwardRecord
	Available bool `json:"available"`
	Expired   bool `json:"expired"`
}

// Ledger reads and writes carry_forward_records.
type Ledger struct {
	db     *gorm.DB
	logger *zap.Logger
}

// NewLedger creates a new Ledger.
func NewLedger(db *gorm.DB, logger *zap.Logger) *Ledger {
	return &Ledger{db: db, logger: logger.Named("carryforward")}
}

// RecordYearEnd stores the net unutilized losses of fy, keyed to the next
// fiscal year. It returns nil when there is nothing to carry.
func (l *Ledger) RecordYearEnd(ctx context.Context, userID uint, fy string, s *tax.Summary) (*models.CarryForwardRecord, error) {
	year, err := fiscal.Parse(fy)
	if err != nil {
		return nil, err
	}

	netST := decimal.Max(decimal.Zero, s.ShortTermLosses.Sub(s.ShortTermGains))
	netLT := decimal.Max(decimal.Zero, s.LongTermLosses.Sub(s.LongTermGains))
	if !netST.IsPositive() && !netLT.IsPositive() {
		l.logger.Debug("No loss to carry forward", zap.Uint("user_id", userID), zap.String("fiscal_year", fy))
		return nil, nil
	}

	rec := models.CarryForwardRecord{
		UserID:           userID,
		SourceFiscalYear: fy,
		FiscalYear:       year.Next().String(),
		ShortTermLoss:    netST,
		LongTermLoss:     netLT,
		ExpiresIn:        models.CarryForwardYears,
	}
	err = l.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "source_fiscal_year"}},
		DoUpdates: clause.AssignmentColumns([]string{"fiscal_year", "short_term_loss", "long_term_loss", "expires_in", "updated_at"}),
	}).Create(&rec).Error
	if err != nil {
		return nil, fmt.Errorf("failed to record carry-forward for %s: %w", fy, err)
	}

	l.logger.Info("Recorded carry-forward",
		zap.Uint("user_id", userID),
		zap.String("source_fiscal_year", fy),
		zap.String("short_term_loss", netST.String()),
		zap.String("long_term_loss", netLT.String()))
	return &rec, nil
}

// Records lists every stored record of the user with its status for target.
func (l *Ledger) Records(ctx context.Context, userID uint, target string) ([]RecordStatus, error) {
	targetYear, err := fiscal.Parse(target)
	if err != nil {
		return nil, err
	}

	var rows []models.CarryForwardRecord
	if err := l.db.WithContext(ctx).Where("user_id = ?", userID).Order("source_fiscal_year").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to load carry-forward records: %w", err)
	}

	out := make([]RecordStatus, 0, len(rows))
	for _, r := range rows {
		st := RecordStatus{CarryForwardRecord: r}
		source, err := fiscal.Parse(r.SourceFiscalYear)
		if err != nil {
			l.logger.Warn("Ignoring carry-forward record with bad fiscal year", zap.Uint("id", r.ID), zap.Error(err))
			continue
		}
		applies, err := fiscal.Parse(r.FiscalYear)
		if err != nil {
			applies = source.Next()
		}
		st.Expired = expired(r, source, targetYear)
		st.Available = !st.Expired && applies <= targetYear
		out = append(out, st)
	}
	return out, nil
}

// Available sums non-expired records applicable up to and including upto.
func (l *Ledger) Available(ctx context.Context, userID uint, upto string) (*Available, error) {
	statuses, err := l.Records(ctx, userID, upto)
	if err != nil {
		return nil, err
	}

	av := &Available{
		FiscalYear:    upto,
		ShortTermLoss: decimal.Zero,
		LongTermLoss:  decimal.Zero,
		Records:       []models.CarryForwardRecord{},
	}
	for _, st := range statuses {
		if !st.Available {
			continue
		}
		av.ShortTermLoss = av.ShortTermLoss.Add(st.ShortTermLoss)
		av.LongTermLoss = av.LongTermLoss.Add(st.LongTermLoss)
		av.Records = append(av.Records, st.CarryForwardRecord)
	}
	return av, nil
}

// Apply offsets current-year gains with the carry-forward available for fy.
// Short-term loss first reduces short-term gain and its remainder reduces
// long-term gain; long-term loss reduces long-term gain only. Stored records
// are not changed.
func (l *Ledger) Apply(ctx context.Context, userID uint, fy string, stGain, ltGain decimal.Decimal) (*Application, error) {
	av, err := l.Available(ctx, userID, fy)
	if err != nil {
		return nil, err
	}
	return Offset(fy, av.ShortTermLoss, av.LongTermLoss, stGain, ltGain), nil
}

// Offset is the pure set-off used by Apply. Negative inputs count as zero.
func Offset(fy string, stLoss, ltLoss, stGain, ltGain decimal.Decimal) *Application {
	stLoss = decimal.Max(decimal.Zero, stLoss)
	ltLoss = decimal.Max(decimal.Zero, ltLoss)
	stGain = decimal.Max(decimal.Zero, stGain)
	ltGain = decimal.Max(decimal.Zero, ltGain)

	stAgainstST := decimal.Min(stLoss, stGain)
	stAgainstLT := decimal.Min(stLoss.Sub(stAgainstST), ltGain)
	ltAgainstLT := decimal.Min(ltLoss, ltGain.Sub(stAgainstLT))

	app := &Application{
		FiscalYear:             fy,
		ShortTermGain:          stGain,
		LongTermGain:           ltGain,
		AdjustedShortTermGain:  stGain.Sub(stAgainstST),
		AdjustedLongTermGain:   ltGain.Sub(stAgainstLT).Sub(ltAgainstLT),
		ShortTermLossUsed:      stAgainstST.Add(stAgainstLT),
		LongTermLossUsed:       ltAgainstLT,
		ShortTermLossRemaining: stLoss.Sub(stAgainstST).Sub(stAgainstLT),
		LongTermLossRemaining:  ltLoss.Sub(ltAgainstLT),
	}
	app.EstimatedTaxSaved = stAgainstST.Mul(IllustrativeShortTermRate).
		Add(stAgainstLT.Add(ltAgainstLT).Mul(IllustrativeLongTermRate))
	return app
}

func expired(r models.CarryForwardRecord, source, target fiscal.Year) bool {
	span := r.ExpiresIn
	if span <= 0 {
		span = models.CarryForwardYears
	}
	return int(target-source) >= span
}
