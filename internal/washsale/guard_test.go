package washsale

import (
	"context"
	"testing"
	"time"

	"tax-harvest-go/internal/models"
	"tax-harvest-go/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var day0 = testutil.Date(2024, time.June, 1)

func trade(typ models.TransactionType, symbol string, date time.Time, qty, price string) models.Transaction {
	return models.Transaction{
		UserID:   1,
		Type:     typ,
		Symbol:   symbol,
		Category: models.CategoryEquity,
		Quantity: testutil.D(qty),
		Price:    testutil.D(price),
		Date:     date,
	}
}

func setupGuard(t *testing.T) (*Guard, *gorm.DB) {
	db := testutil.NewDB(t)
	return NewGuard(db, zap.NewNop()), db
}

func TestCheckForward(t *testing.T) {
	guard, db := setupGuard(t)
	testutil.CreateTransaction(t, db, trade(models.TransactionSell, "INFY", day0, "10", "1400"))

	testCases := []struct {
		name          string
		buyDay        int
		wantWashSale  bool
		wantRemaining int
	}{
		{name: "same day", buyDay: 0, wantWashSale: true, wantRemaining: 30},
		{name: "day 15", buyDay: 15, wantWashSale: true, wantRemaining: 15},
		{name: "day 30", buyDay: 30, wantWashSale: false, wantRemaining: 0},
		{name: "day 31", buyDay: 31, wantWashSale: false, wantRemaining: 0},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := guard.CheckForward(context.Background(), 1, "INFY", day0.AddDate(0, 0, tc.buyDay))

			require.NoError(t, err)
			assert.Equal(t, Forward, got.Direction)
			assert.Equal(t, tc.wantWashSale, got.IsWashSale)
			assert.Equal(t, tc.wantRemaining, got.DaysRemaining)
		})
	}
}

func TestCheckForward_IgnoresOtherSymbolsUsersAndReversed(t *testing.T) {
	guard, db := setupGuard(t)
	testutil.CreateTransaction(t, db, trade(models.TransactionSell, "TCS", day0, "10", "100"))
	testutil.CreateTransaction(t, db, trade(models.TransactionBuy, "INFY", day0, "10", "100"))
	other := trade(models.TransactionSell, "INFY", day0, "10", "100")
	other.UserID = 2
	testutil.CreateTransaction(t, db, other)
	reversed := trade(models.TransactionSell, "INFY", day0, "10", "100")
	reversed.Reversed = true
	testutil.CreateTransaction(t, db, reversed)

	got, err := guard.CheckForward(context.Background(), 1, "INFY", day0.AddDate(0, 0, 5))

	require.NoError(t, err)
	assert.False(t, got.IsWashSale)
	assert.Nil(t, got.Match)
}

func TestCheckReverse_UsesMostRecentBuy(t *testing.T) {
	guard, db := setupGuard(t)
	testutil.CreateTransaction(t, db, trade(models.TransactionBuy, "BTC", day0, "1", "100"))
	recent := testutil.CreateTransaction(t, db, trade(models.TransactionBuy, "BTC", day0.AddDate(0, 0, 20), "1", "90"))

	got, err := guard.CheckReverse(context.Background(), 1, "BTC", day0.AddDate(0, 0, 25))

	require.NoError(t, err)
	assert.Equal(t, Reverse, got.Direction)
	assert.True(t, got.IsWashSale)
	assert.Equal(t, 25, got.DaysRemaining)
	require.NotNil(t, got.Match)
	assert.Equal(t, recent.ID, got.Match.ID)
}

func TestHistory(t *testing.T) {
	// Arrange
	guard, db := setupGuard(t)
	sell := testutil.CreateTransaction(t, db, trade(models.TransactionSell, "INFY", day0, "10", "1400"))
	buy := testutil.CreateTransaction(t, db, trade(models.TransactionBuy, "INFY", day0.AddDate(0, 0, 12), "4", "1350"))
	testutil.CreateTransaction(t, db, trade(models.TransactionBuy, "INFY", day0.AddDate(0, 0, 20), "10", "1300"))
	testutil.CreateTransaction(t, db, trade(models.TransactionSell, "TCS", day0, "5", "3000"))
	testutil.CreateTransaction(t, db, trade(models.TransactionBuy, "TCS", day0.AddDate(0, 0, 31), "5", "2900"))
	// Sale in the previous fiscal year is out of scope.
	testutil.CreateTransaction(t, db, trade(models.TransactionSell, "INFY", testutil.Date(2024, time.March, 20), "1", "1500"))

	// Act
	pairs, err := guard.History(context.Background(), 1, "2024-25")

	// Assert
	require.NoError(t, err)
	require.Len(t, pairs, 1)
	p := pairs[0]
	assert.Equal(t, sell.ID, p.SellTransactionID)
	assert.Equal(t, buy.ID, p.BuyTransactionID)
	assert.Equal(t, 12, p.DaysBetween)
	assert.True(t, p.Quantity.Equal(testutil.D("4")))
	assert.True(t, p.DisallowedLoss.Equal(testutil.D("200")), "(1400 - 1350) * 4")
}

func TestHistory_InvalidFiscalYear(t *testing.T) {
	guard, _ := setupGuard(t)

	_, err := guard.History(context.Background(), 1, "2024")

	assert.ErrorIs(t, err, models.ErrInvalidFiscalYear)
}
