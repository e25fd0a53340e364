package tax

import (
	"context"

	"tax-harvest-go/internal/models"

	"github.com/shopspring/decimal"
)

// PriceLookup supplies the current price for a symbol. The engine never
// fetches prices itself; callers inject an implementation or rely on the
// price stored on the holding.
type PriceLookup interface {
	CurrentPrice(ctx context.Context, symbol string, category models.AssetCategory) (decimal.Decimal, bool, error)
}
