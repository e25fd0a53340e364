package pricing

import (
	"context"
	"errors"
	"testing"

	"tax-harvest-go/internal/models"
	"tax-harvest-go/internal/testutil"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type failingLookup struct{}

func (failingLookup) CurrentPrice(context.Context, string, models.AssetCategory) (decimal.Decimal, bool, error) {
	return decimal.Zero, false, errors.New("upstream down")
}

func TestChain(t *testing.T) {
	chain := Chain{
		Static{"INFY": testutil.D("1500")},
		Static{"INFY": testutil.D("9999"), "TCS": testutil.D("4000")},
	}

	p, ok, err := chain.CurrentPrice(context.Background(), "infy", models.CategoryEquity)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.True(t, testutil.D("1500").Equal(p))

	p, ok, err = chain.CurrentPrice(context.Background(), "TCS", models.CategoryEquity)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.True(t, testutil.D("4000").Equal(p))

	_, ok, err = chain.CurrentPrice(context.Background(), "WIPRO", models.CategoryEquity)
	require.NoError(t, err)
	assert.False(t, ok)

	_, _, err = Chain{failingLookup{}}.CurrentPrice(context.Background(), "WIPRO", models.CategoryEquity)
	assert.Error(t, err)
}

func TestRefresh(t *testing.T) {
	// Arrange
	db := testutil.NewDB(t)
	infy := testutil.CreateHolding(t, db, models.Holding{
		UserID: 1, Symbol: "INFY", Category: models.CategoryEquity,
		Quantity: testutil.D("10"), AveragePrice: testutil.D("1500"), CurrentPrice: testutil.D("1400"),
		AcquiredAt: testutil.Date(2024, 1, 10),
	})
	testutil.CreateHolding(t, db, models.Holding{
		UserID: 1, Symbol: "WIPRO", Category: models.CategoryEquity,
		Quantity: testutil.D("5"), AveragePrice: testutil.D("500"), CurrentPrice: testutil.D("450"),
		AcquiredAt: testutil.Date(2024, 1, 10),
	})
	r := NewRefresher(db, Static{"INFY": testutil.D("1620.5")}, zap.NewNop())

	// Act
	got, err := r.Refresh(context.Background(), 1)

	// Assert
	require.NoError(t, err)
	assert.Equal(t, []string{"INFY"}, got.Updated)
	assert.Equal(t, []string{"WIPRO"}, got.Unpriced)

	var stored models.Holding
	require.NoError(t, db.First(&stored, infy.ID).Error)
	assert.True(t, testutil.D("1620.5").Equal(stored.CurrentPrice))
	assert.Equal(t, uint(0), stored.Version)
	assert.True(t, testutil.D("10").Equal(stored.Quantity))
}
