// Package taxconfig supplies per-fiscal-year rate tables.
package taxconfig

import (
	"context"
	"errors"
	"fmt"

	"tax-harvest-go/internal/fiscal"
	"tax-harvest-go/internal/models"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ErrConfigurationMissing marks a read-miss. ForYear recovers from it by
// returning Default; it is only exposed for logging and tests.
var ErrConfigurationMissing = errors.New("tax configuration missing")

// Provider reads rate tables from the tax_configurations table.
type Provider struct {
	db     *gorm.DB
	logger *zap.Logger
}

// NewProvider creates a new Provider.
func NewProvider(db *gorm.DB, logger *zap.Logger) *Provider {
	return &Provider{db: db, logger: logger.Named("taxconfig")}
}

// ForYear returns the configuration for fy, or the synthesized default when
// no row exists. A miss is never written back.
func (p *Provider) ForYear(ctx context.Context, fy string) (models.TaxConfiguration, error) {
	if _, err := fiscal.Parse(fy); err != nil {
		return models.TaxConfiguration{}, err
	}

	var cfg models.TaxConfiguration
	err := p.db.WithContext(ctx).Where("fiscal_year = ?", fy).First(&cfg).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		p.logger.Debug("Using default tax configuration",
			zap.String("fiscal_year", fy),
			zap.NamedError("reason", ErrConfigurationMissing))
		return Default(fy), nil
	}
	if err != nil {
		return models.TaxConfiguration{}, fmt.Errorf("failed to read tax configuration for %s: %w", fy, err)
	}
	return cfg, nil
}

// Seed upserts the given configurations keyed by fiscal year.
func (p *Provider) Seed(ctx context.Context, configs ...models.TaxConfiguration) error {
	for i := range configs {
		if _, err := fiscal.Parse(configs[i].FiscalYear); err != nil {
			return err
		}
	}
	if len(configs) == 0 {
		return nil
	}

	err := p.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "fiscal_year"}},
		UpdateAll: true,
	}).Create(&configs).Error
	if err != nil {
		return fmt.Errorf("failed to seed tax configurations: %w", err)
	}
	p.logger.Info("Seeded tax configurations", zap.Int("count", len(configs)))
	return nil
}

// Default is the hard-coded table used when a fiscal year has no row.
func Default(fy string) models.TaxConfiguration {
	return models.TaxConfiguration{
		FiscalYear:          fy,
		ShortTermEquityRate: decimal.RequireFromString("0.20"),
		LongTermEquityRate:  decimal.RequireFromString("0.125"),
		LongTermExemption:   decimal.NewFromInt(100000),
		CryptoRate:          decimal.RequireFromString("0.30"),
		CryptoLongTermRate:  decimal.RequireFromString("0.20"),
		DebtShortTermRate:   decimal.RequireFromString("0.30"),
		DebtLongTermRate:    decimal.RequireFromString("0.125"),
		DefaultRate:         decimal.RequireFromString("0.30"),
		SurchargeThreshold:  decimal.NewFromInt(5000000),
		SurchargeRate:       decimal.RequireFromString("0.10"),
		CessRate:            decimal.RequireFromString("0.04"),
	}
}
