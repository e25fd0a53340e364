// Package washsale reports trades that fall inside the wash-sale window.
// It is advisory only and never blocks an action.
package washsale

import (
	"context"
	"fmt"
	"sort"
	"time"

	"tax-harvest-go/internal/fiscal"
	"tax-harvest-go/internal/models"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// WindowDays is the length of the wash-sale window.
const WindowDays = 30

// Direction names which side of a trade a check looked at.
type Direction string

const (
	// Forward checks a proposed buy against recent sells.
	Forward Direction = "forward"
	// Reverse checks a proposed sell against recent buys.
	Reverse Direction = "reverse"
)

// Check is the result of a forward or reverse window check.
type Check struct {
	Direction     Direction           `json:"direction"`
	Symbol        string              `json:"symbol"`
	ProposedDate  time.Time           `json:"proposed_date"`
	IsWashSale    bool                `json:"is_wash_sale"`
	DaysRemaining int                 `json:"days_remaining"`
	Match         *models.Transaction `json:"match,omitempty"`
}

// Pair is a historical sell followed by a repurchase inside the window.
type Pair struct {
	Symbol            string          `json:"symbol"`
	SellTransactionID uint            `json:"sell_transaction_id"`
	BuyTransactionID  uint            `json:"buy_transaction_id"`
	SellDate          time.Time       `json:"sell_date"`
	BuyDate           time.Time       `json:"buy_date"`
	DaysBetween       int             `json:"days_between"`
	SellPrice         decimal.Decimal `json:"sell_price"`
	BuyPrice          decimal.Decimal `json:"buy_price"`
	Quantity          decimal.Decimal `json:"quantity"`
	// DisallowedLoss is (sellPrice - buyPrice) * min(sellQty, buyQty), as
	// reported historically. Its sign is not corrected for loss sales.
	DisallowedLoss decimal.Decimal `json:"disallowed_loss"`
}

// Guard looks up the user's transactions to evaluate the window.
type Guard struct {
	db     *gorm.DB
	logger *zap.Logger
}

// NewGuard creates a new Guard.
func NewGuard(db *gorm.DB, logger *zap.Logger) *Guard {
	return &Guard{db: db, logger: logger.Named("washsale")}
}

// CheckForward looks back WindowDays from a proposed buy for a sell of symbol.
func (g *Guard) CheckForward(ctx context.Context, userID uint, symbol string, proposedBuy time.Time) (*Check, error) {
	return g.check(ctx, userID, symbol, proposedBuy, models.TransactionSell, Forward)
}

// CheckReverse looks back WindowDays from a proposed sell for a buy of symbol.
func (g *Guard) CheckReverse(ctx context.Context, userID uint, symbol string, proposedSell time.Time) (*Check, error) {
	return g.check(ctx, userID, symbol, proposedSell, models.TransactionBuy, Reverse)
}

func (g *Guard) check(ctx context.Context, userID uint, symbol string, proposed time.Time, against models.TransactionType, dir Direction) (*Check, error) {
	txs, err := g.effective(ctx, g.db.WithContext(ctx).Where("user_id = ? AND symbol = ? AND type = ?", userID, symbol, against))
	if err != nil {
		return nil, err
	}

	result := &Check{Direction: dir, Symbol: symbol, ProposedDate: proposed}

	// Most recent opposite trade inside [proposed - window, proposed].
	for i := len(txs) - 1; i >= 0; i-- {
		days := fiscal.DaysBetween(txs[i].Date, proposed)
		if days < 0 {
			continue
		}
		if days > WindowDays {
			break
		}
		match := txs[i]
		result.Match = &match
		result.DaysRemaining = WindowDays - days
		result.IsWashSale = result.DaysRemaining > 0
		break
	}

	if result.IsWashSale {
		g.logger.Debug("Wash-sale window hit",
			zap.Uint("user_id", userID),
			zap.String("symbol", symbol),
			zap.String("direction", string(dir)),
			zap.Int("days_remaining", result.DaysRemaining))
	}
	return result, nil
}

// History reconstructs, for every sell in fy, the first repurchase of the
// same symbol within WindowDays after it.
func (g *Guard) History(ctx context.Context, userID uint, fy string) ([]Pair, error) {
	year, err := fiscal.Parse(fy)
	if err != nil {
		return nil, err
	}

	txs, err := g.effective(ctx, g.db.WithContext(ctx).Where("user_id = ?", userID))
	if err != nil {
		return nil, err
	}

	buys := make(map[string][]models.Transaction)
	for _, tx := range txs {
		if tx.Type == models.TransactionBuy {
			buys[tx.Symbol] = append(buys[tx.Symbol], tx)
		}
	}

	pairs := []Pair{}
	for _, sell := range txs {
		if sell.Type != models.TransactionSell || !year.Contains(sell.Date) {
			continue
		}
		for _, buy := range buys[sell.Symbol] {
			if !buy.Date.After(sell.Date) {
				continue
			}
			days := fiscal.DaysBetween(sell.Date, buy.Date)
			if days > WindowDays {
				break
			}
			qty := decimal.Min(sell.Quantity, buy.Quantity)
			pairs = append(pairs, Pair{
				Symbol:            sell.Symbol,
				SellTransactionID: sell.ID,
				BuyTransactionID:  buy.ID,
				SellDate:          sell.Date,
				BuyDate:           buy.Date,
				DaysBetween:       days,
				SellPrice:         sell.Price,
				BuyPrice:          buy.Price,
				Quantity:          qty,
				DisallowedLoss:    sell.Price.Sub(buy.Price).Mul(qty),
			})
			break
		}
	}
	return pairs, nil
}

// effective loads transactions matching q that are neither reversed nor
// reversal entries, oldest first.
func (g *Guard) effective(ctx context.Context, q *gorm.DB) ([]models.Transaction, error) {
	var txs []models.Transaction
	err := q.Where("reversed = ? AND reversal_of_id IS NULL", false).Find(&txs).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load transactions: %w", err)
	}
	sort.SliceStable(txs, func(i, j int) bool {
		if txs[i].Date.Equal(txs[j].Date) {
			return txs[i].ID < txs[j].ID
		}
		return txs[i].Date.Before(txs[j].Date)
	})
	return txs, nil
}
