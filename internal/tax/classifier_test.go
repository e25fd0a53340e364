package tax

import (
	"testing"
	"time"

	"tax-harvest-go/internal/models"
	"tax-harvest-go/internal/taxconfig"
	"tax-harvest-go/internal/testutil"

	"github.com/stretchr/testify/assert"
)

func TestClassifier_Classify(t *testing.T) {
	asOf := testutil.Date(2025, time.March, 1)

	testCases := []struct {
		name          string
		rules         RuleSet
		category      models.AssetCategory
		daysHeld      int
		wantLongTerm  bool
		wantThreshold int
	}{
		{name: "equity short", category: models.CategoryEquity, daysHeld: 200, wantThreshold: 365},
		{name: "equity at threshold", category: models.CategoryEquity, daysHeld: 365, wantThreshold: 365},
		{name: "equity long", category: models.CategoryEquity, daysHeld: 366, wantLongTerm: true, wantThreshold: 365},
		{name: "equity fund long", category: models.CategoryEquityFund, daysHeld: 400, wantLongTerm: true, wantThreshold: 365},
		{name: "debt fund short", category: models.CategoryDebtFund, daysHeld: 800, wantThreshold: 1095},
		{name: "gold etf long", category: models.CategoryGoldETF, daysHeld: 1100, wantLongTerm: true, wantThreshold: 1095},
		{name: "bond long", category: models.CategoryBond, daysHeld: 2000, wantLongTerm: true, wantThreshold: 1095},
		{name: "crypto never long", category: models.CategoryCrypto, daysHeld: 5000},
		{name: "legacy crypto long", rules: LegacyRules, category: models.CategoryCrypto, daysHeld: 1100, wantLongTerm: true, wantThreshold: 1095},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			c := Classifier{Rules: tc.rules}

			got := c.Classify(tc.category, asOf.AddDate(0, 0, -tc.daysHeld), asOf)

			assert.Equal(t, tc.daysHeld, got.HoldingDays)
			assert.Equal(t, tc.wantLongTerm, got.IsLongTerm)
			assert.Equal(t, tc.wantThreshold, got.ThresholdDays)
		})
	}
}

func TestClassifier_FutureAcquisitionClampsToZero(t *testing.T) {
	asOf := testutil.Date(2025, time.March, 1)

	got := Classifier{}.Classify(models.CategoryEquity, asOf.AddDate(0, 0, 3), asOf)

	assert.Equal(t, 0, got.HoldingDays)
	assert.False(t, got.IsLongTerm)
}

func TestClassifier_RateFor(t *testing.T) {
	cfg := taxconfig.Default("2024-25")

	rate, ok := Classifier{}.RateFor(cfg, models.CategoryEquity, false)
	assert.True(t, ok)
	assert.True(t, rate.Equal(testutil.D("0.20")))

	rate, _ = Classifier{}.RateFor(cfg, models.CategoryCrypto, true)
	assert.True(t, rate.Equal(testutil.D("0.30")), "canonical crypto rate ignores term")

	rate, _ = Classifier{Rules: LegacyRules}.RateFor(cfg, models.CategoryCrypto, true)
	assert.True(t, rate.Equal(testutil.D("0.20")))

	rate, ok = Classifier{}.RateFor(cfg, models.AssetCategory("art"), false)
	assert.False(t, ok)
	assert.True(t, rate.Equal(cfg.DefaultRate))
}
