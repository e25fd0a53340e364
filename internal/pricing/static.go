package pricing

import (
	"context"
	"strings"

	"tax-harvest-go/internal/models"
	"tax-harvest-go/internal/tax"

	"github.com/shopspring/decimal"
)

// Static is a fixed symbol-to-price table, keyed by upper-case symbol.
type Static map[string]decimal.Decimal

var _ tax.PriceLookup = Static(nil)

// CurrentPrice implements tax.PriceLookup.
func (s Static) CurrentPrice(_ context.Context, symbol string, _ models.AssetCategory) (decimal.Decimal, bool, error) {
	p, ok := s[strings.ToUpper(symbol)]
	return p, ok, nil
}

// Chain asks each lookup in turn and returns the first price found.
type Chain []tax.PriceLookup

var _ tax.PriceLookup = Chain(nil)

// CurrentPrice implements tax.PriceLookup.
func (c Chain) CurrentPrice(ctx context.Context, symbol string, category models.AssetCategory) (decimal.Decimal, bool, error) {
	for _, lookup := range c {
		p, ok, err := lookup.CurrentPrice(ctx, symbol, category)
		if err != nil {
			return decimal.Zero, false, err
		}
		if ok {
			return p, true, nil
		}
	}
	return decimal.Zero, false, nil
}
