package harvest

import (
	"context"
	"testing"
	"time"

	"tax-harvest-go/internal/config"
	"tax-harvest-go/internal/models"
	"tax-harvest-go/internal/pricing"
	"tax-harvest-go/internal/regime"
	"tax-harvest-go/internal/testutil"
	"tax-harvest-go/internal/washsale"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var now = testutil.Date(2024, time.October, 15)

func setupEngine(t *testing.T, cfg *config.Config, opts ...Option) (*Engine, *gorm.DB) {
	db := testutil.NewDB(t)
	opts = append([]Option{WithClock(func() time.Time { return now })}, opts...)
	return NewEngine(zap.NewNop(), cfg, db, opts...), db
}

func holding(symbol string, category models.AssetCategory, qty, avg, cur string, daysHeld int) models.Holding {
	return models.Holding{
		UserID:       1,
		Symbol:       symbol,
		Category:     category,
		Quantity:     testutil.D(qty),
		AveragePrice: testutil.D(avg),
		CurrentPrice: testutil.D(cur),
		AcquiredAt:   now.AddDate(0, 0, -daysHeld),
	}
}

func assertDecimal(t *testing.T, want string, got decimal.Decimal) {
	t.Helper()
	assert.Truef(t, testutil.D(want).Equal(got), "want %s, got %s", want, got)
}

func TestCurrentFiscalYear(t *testing.T) {
	engine, _ := setupEngine(t, nil)

	assert.Equal(t, "2024-25", engine.CurrentFiscalYear())
}

func TestCurrentFiscalYear_UsesUTC(t *testing.T) {
	// 02:00 on April 1 in Kolkata is still March 31 in UTC.
	ist := time.FixedZone("IST", 5*3600+1800)
	local := time.Date(2025, time.April, 1, 2, 0, 0, 0, ist)
	engine, _ := setupEngine(t, nil, WithClock(func() time.Time { return local }))

	assert.Equal(t, "2024-25", engine.CurrentFiscalYear())
}

func TestHarvestLifecycle(t *testing.T) {
	// Arrange
	engine, db := setupEngine(t, &config.Config{})
	ctx := context.Background()
	reliance := testutil.CreateHolding(t, db, holding("RELIANCE", models.CategoryEquity, "10", "2500", "2300", 200))
	testutil.CreateHolding(t, db, holding("TCS", models.CategoryEquity, "10", "3000", "4000", 100))

	// Act: calculate, recommend, execute
	summary, err := engine.CalculateTax(ctx, 1, "")
	require.NoError(t, err)
	recs, err := engine.GenerateRecommendations(ctx, 1, "")
	require.NoError(t, err)
	require.Len(t, recs, 1)
	exec, err := engine.ExecuteRecommendation(ctx, recs[0].ID, 1)
	require.NoError(t, err)

	// Assert
	assert.Equal(t, "2024-25", summary.FiscalYear)
	assertDecimal(t, "8000", summary.NetShortTermGain)
	assertDecimal(t, "2000", recs[0].PotentialLoss)
	assertDecimal(t, "400", recs[0].EstimatedTaxSavings)
	assert.True(t, exec.HoldingDeleted)

	accepted := models.StatusAccepted
	listed, err := engine.Recommendations(ctx, 1, &accepted)
	require.NoError(t, err)
	require.Len(t, listed, 1)
	assert.NotNil(t, listed[0].ExecutedAt)

	_, err = engine.ExecuteRecommendation(ctx, recs[0].ID, 1)
	assert.ErrorIs(t, err, models.ErrInvalidState)

	after, err := engine.CalculateTax(ctx, 1, "")
	require.NoError(t, err)
	assert.Len(t, after.Calculations, 1)

	// Reversal brings the holding back.
	rev, err := engine.ReverseTransaction(ctx, exec.Transaction.ID, 1)
	require.NoError(t, err)
	assert.Equal(t, reliance.ID, rev.Holding.ID)

	restored, err := engine.CalculateTax(ctx, 1, "")
	require.NoError(t, err)
	assert.Len(t, restored.Calculations, 2)
}

func TestUpdateAndExpireRecommendations(t *testing.T) {
	current := now
	engine, db := setupEngine(t, nil, WithClock(func() time.Time { return current }))
	ctx := context.Background()
	testutil.CreateHolding(t, db, holding("RELIANCE", models.CategoryEquity, "10", "2500", "2300", 200))
	testutil.CreateHolding(t, db, holding("WIPRO", models.CategoryEquity, "10", "500", "400", 50))

	recs, err := engine.GenerateRecommendations(ctx, 1, "2024-25")
	require.NoError(t, err)
	require.Len(t, recs, 2)

	rejected, err := engine.UpdateRecommendationStatus(ctx, recs[0].ID, 1, models.StatusRejected)
	require.NoError(t, err)
	assert.Equal(t, models.StatusRejected, rejected.Status)

	// Nothing is overdue on the deadline day itself.
	current = testutil.Date(2025, time.March, 31)
	n, err := engine.ExpireRecommendations(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)

	current = testutil.Date(2025, time.April, 1)
	n, err = engine.ExpireRecommendations(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	expired := models.StatusExpired
	listed, err := engine.Recommendations(ctx, 1, &expired)
	require.NoError(t, err)
	require.Len(t, listed, 1)
	assert.Equal(t, recs[1].ID, listed[0].ID)
}

func TestCheckWashSale(t *testing.T) {
	engine, db := setupEngine(t, nil)
	ctx := context.Background()
	sellDay := now.AddDate(0, 0, -10)
	testutil.CreateTransaction(t, db, models.Transaction{
		UserID: 1, Type: models.TransactionSell, Symbol: "INFY", Category: models.CategoryEquity,
		Quantity: testutil.D("5"), Price: testutil.D("1400"), Date: sellDay,
	})

	forward, err := engine.CheckWashSale(ctx, 1, "INFY", washsale.Forward, time.Time{})
	require.NoError(t, err)
	assert.True(t, forward.IsWashSale)
	assert.Equal(t, 20, forward.DaysRemaining)

	reverse, err := engine.CheckWashSale(ctx, 1, "INFY", washsale.Reverse, now)
	require.NoError(t, err)
	assert.False(t, reverse.IsWashSale)

	_, err = engine.CheckWashSale(ctx, 1, "INFY", washsale.Direction("sideways"), now)
	assert.Error(t, err)

	pairs, err := engine.WashSaleHistory(ctx, 1, "")
	require.NoError(t, err)
	assert.Empty(t, pairs)
}

func TestCloseFiscalYearThenApplyCarryForward(t *testing.T) {
	// Arrange
	engine, db := setupEngine(t, nil)
	ctx := context.Background()
	testutil.CreateHolding(t, db, holding("RELIANCE", models.CategoryEquity, "10", "2500", "2300", 300))

	// Act
	closed, err := engine.CloseFiscalYear(ctx, 1, "2023-24")
	require.NoError(t, err)
	testutil.CreateHolding(t, db, holding("TCS", models.CategoryEquity, "10", "3000", "4000", 100))
	view, err := engine.CarryForward(ctx, 1, "2024-25")
	require.NoError(t, err)
	app, err := engine.ApplyCarryForward(ctx, 1, "2024-25")
	require.NoError(t, err)

	// Assert
	require.NotNil(t, closed.Record)
	assert.Equal(t, "2024-25", closed.Record.FiscalYear)
	assertDecimal(t, "2000", closed.Record.ShortTermLoss)

	assertDecimal(t, "2000", view.Available.ShortTermLoss)
	require.Len(t, view.Records, 1)
	assert.True(t, view.Records[0].Available)

	assertDecimal(t, "8000", app.ShortTermGain)
	assertDecimal(t, "6000", app.AdjustedShortTermGain)
	assertDecimal(t, "300", app.EstimatedTaxSaved)
}

func TestCloseFiscalYear_NothingToCarry(t *testing.T) {
	engine, db := setupEngine(t, nil)
	testutil.CreateHolding(t, db, holding("TCS", models.CategoryEquity, "10", "3000", "4000", 100))

	closed, err := engine.CloseFiscalYear(context.Background(), 1, "2024-25")

	require.NoError(t, err)
	assert.Nil(t, closed.Record)
	assert.NotNil(t, closed.Summary)
}

func TestLegacyCryptoRules(t *testing.T) {
	testCases := []struct {
		name     string
		legacy   bool
		wantTerm models.Term
		wantRate string
	}{
		{name: "canonical", legacy: false, wantTerm: models.ShortTerm, wantRate: "0.30"},
		{name: "legacy", legacy: true, wantTerm: models.LongTerm, wantRate: "0.20"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := &config.Config{Tax: config.Tax{LegacyCryptoRules: tc.legacy}}
			engine, db := setupEngine(t, cfg)
			testutil.CreateHolding(t, db, holding("BTC", models.CategoryCrypto, "1", "1000000", "2000000", 1200))

			summary, err := engine.CalculateTax(context.Background(), 1, "2024-25")

			require.NoError(t, err)
			require.Len(t, summary.Calculations, 1)
			assert.Equal(t, tc.wantTerm, summary.Calculations[0].Term)
			assertDecimal(t, tc.wantRate, summary.Calculations[0].Rate)
		})
	}
}

func TestPriceLookupOverridesStoredPrice(t *testing.T) {
	engine, db := setupEngine(t, nil, WithPriceLookup(pricing.Static{"INFY": testutil.D("1600")}))
	testutil.CreateHolding(t, db, holding("INFY", models.CategoryEquity, "10", "1500", "1400", 100))

	summary, err := engine.CalculateTax(context.Background(), 1, "2024-25")

	require.NoError(t, err)
	assertDecimal(t, "1000", summary.ShortTermGains)
}

func TestCompareRegimes(t *testing.T) {
	engine, _ := setupEngine(t, nil)

	got, err := engine.QuickEstimate(testutil.D("1000000"), testutil.D("175000"))
	require.NoError(t, err)
	assert.Equal(t, regime.ChoiceOld, got.Recommendation)

	withGains, err := engine.CompareRegimes(testutil.D("1000000"), testutil.D("175000"),
		regime.CapitalGains{LongTermEquity: testutil.D("200000")})
	require.NoError(t, err)
	assertDecimal(t, "12500", withGains.Old.CapitalGainsTax)
	assert.True(t, withGains.Old.Total.Sub(got.Old.Total).Equal(testutil.D("12500")))
}

func TestNewRegimeEngine(t *testing.T) {
	engine := NewRegimeEngine(zap.NewNop())

	got, err := engine.QuickEstimate(testutil.D("1000000"), testutil.D("175000"))

	require.NoError(t, err)
	assert.Equal(t, regime.ChoiceOld, got.Recommendation)
	assertDecimal(t, "7800", got.Savings)
}

func TestSeedTaxConfigurations(t *testing.T) {
	engine, db := setupEngine(t, nil)
	cfg := models.TaxConfiguration{FiscalYear: "2024-25", ShortTermEquityRate: testutil.D("0.15")}

	require.NoError(t, engine.SeedTaxConfigurations(context.Background(), cfg))

	var stored models.TaxConfiguration
	require.NoError(t, db.Where("fiscal_year = ?", "2024-25").First(&stored).Error)
	assertDecimal(t, "0.15", stored.ShortTermEquityRate)
}
