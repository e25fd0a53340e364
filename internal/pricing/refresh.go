package pricing

import (
	"context"
	"fmt"

	"tax-harvest-go/internal/models"
	"tax-harvest-go/internal/tax"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// RefreshResult lists what a refresh touched.
type RefreshResult struct {
	Updated  []string `json:"updated"`
	Unpriced []string `json:"unpriced"`
}

// Refresher writes looked-up prices into holdings' stored current price.
// It never changes quantity or version.
type Refresher struct {
	db     *gorm.DB
	lookup tax.PriceLookup
	logger *zap.Logger
}

// NewRefresher creates a new Refresher.
func NewRefresher(db *gorm.DB, lookup tax.PriceLookup, logger *zap.Logger) *Refresher {
	return &Refresher{db: db, lookup: lookup, logger: logger.Named("pricing")}
}

// Refresh updates every holding of userID that the lookup can price.
func (r *Refresher) Refresh(ctx context.Context, userID uint) (*RefreshResult, error) {
	var holdings []models.Holding
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).Order("id").Find(&holdings).Error; err != nil {
		return nil, fmt.Errorf("failed to load holdings: %w", err)
	}

	res := &RefreshResult{Updated: []string{}, Unpriced: []string{}}
	for _, h := range holdings {
		price, ok, err := r.lookup.CurrentPrice(ctx, h.Symbol, h.Category)
		if err != nil {
			return res, fmt.Errorf("failed to price %s: %w", h.Symbol, err)
		}
		if !ok || !price.IsPositive() {
			res.Unpriced = append(res.Unpriced, h.Symbol)
			continue
		}
		err = r.db.WithContext(ctx).Model(&models.Holding{}).
			Where("id = ?", h.ID).
			Update("current_price", price).Error
		if err != nil {
			return res, fmt.Errorf("failed to store price for %s: %w", h.Symbol, err)
		}
		res.Updated = append(res.Updated, h.Symbol)
	}

	r.logger.Info("Refreshed prices",
		zap.Uint("user_id", userID),
		zap.Int("updated", len(res.Updated)),
		zap.Int("unpriced", len(res.Unpriced)))
	return res, nil
}
