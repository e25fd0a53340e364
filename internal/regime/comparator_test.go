package regime

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func assertDecimal(t *testing.T, want string, got decimal.Decimal) {
	t.Helper()
	assert.Truef(t, d(want).Equal(got), "want %s, got %s", want, got)
}

func TestCompare_DeductionsFavorOldRegime(t *testing.T) {
	// Act
	got, err := Compare(d("1000000"), d("175000"), CapitalGains{})

	// Assert
	require.NoError(t, err)
	assertDecimal(t, "775000", got.Old.TaxableIncome)
	assertDecimal(t, "67500", got.Old.IncomeTax)
	assertDecimal(t, "70200", got.Old.Total)
	assertDecimal(t, "1000000", got.New.TaxableIncome)
	assertDecimal(t, "75000", got.New.IncomeTax)
	assertDecimal(t, "78000", got.New.Total)
	assert.True(t, got.Old.Total.LessThan(got.New.Total))
	assert.Equal(t, ChoiceOld, got.Recommendation)
	assertDecimal(t, "7800", got.Savings)
}

func TestCompare_NoDeductionsFavorNewRegime(t *testing.T) {
	got, err := Compare(d("2000000"), decimal.Zero, CapitalGains{})

	require.NoError(t, err)
	assertDecimal(t, "397500", got.Old.IncomeTax)
	assertDecimal(t, "350000", got.New.IncomeTax)
	assert.Equal(t, ChoiceNew, got.Recommendation)
	assertDecimal(t, "49400", got.Savings)
}

func TestCompare_TieIsEither(t *testing.T) {
	got, err := QuickEstimate(d("200000"), decimal.Zero)

	require.NoError(t, err)
	assertDecimal(t, "0", got.Old.Total)
	assertDecimal(t, "0", got.New.Total)
	assert.Equal(t, ChoiceEither, got.Recommendation)
	assertDecimal(t, "0", got.Savings)
}

func TestCompare_DeductionsAreCapped(t *testing.T) {
	capped, err := Compare(d("1000000"), d("200000"), CapitalGains{})
	require.NoError(t, err)
	over, err := Compare(d("1000000"), d("900000"), CapitalGains{})
	require.NoError(t, err)

	assertDecimal(t, "750000", over.Old.TaxableIncome)
	assert.True(t, capped.Old.Total.Equal(over.Old.Total))
}

func TestCapitalGainsTax(t *testing.T) {
	testCases := []struct {
		name  string
		gains CapitalGains
		want  string
	}{
		{name: "long-term after aggregate exemption", gains: CapitalGains{LongTermEquity: d("200000")}, want: "12500"},
		{name: "long-term under exemption", gains: CapitalGains{LongTermEquity: d("80000")}, want: "0"},
		{name: "short-term equity", gains: CapitalGains{ShortTermEquity: d("50000")}, want: "10000"},
		{name: "crypto flat", gains: CapitalGains{Crypto: d("10000")}, want: "3000"},
		{
			name:  "mixed",
			gains: CapitalGains{ShortTermEquity: d("50000"), LongTermEquity: d("200000"), Crypto: d("10000")},
			want:  "25500",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assertDecimal(t, tc.want, CapitalGainsTax(tc.gains))
		})
	}
}

func TestCompare_CapitalGainsAddedAfterCess(t *testing.T) {
	got, err := Compare(d("1000000"), d("175000"), CapitalGains{ShortTermEquity: d("100000")})

	require.NoError(t, err)
	assertDecimal(t, "2700", got.Old.Cess)
	assertDecimal(t, "20000", got.Old.CapitalGainsTax)
	assertDecimal(t, "90200", got.Old.Total)
}

func TestCompare_SurchargeOnIncomeTaxOnly(t *testing.T) {
	without, err := Compare(d("6000000"), decimal.Zero, CapitalGains{})
	require.NoError(t, err)
	with, err := Compare(d("6000000"), decimal.Zero, CapitalGains{Crypto: d("100000")})
	require.NoError(t, err)

	assertDecimal(t, "1550000", without.New.IncomeTax)
	assertDecimal(t, "155000", without.New.Surcharge)
	assertDecimal(t, "68200", without.New.Cess)
	assertDecimal(t, "1773200", without.New.Total)

	assert.True(t, with.New.Surcharge.Equal(without.New.Surcharge))
	assertDecimal(t, "1803200", with.New.Total)
}

func TestSurchargeRate(t *testing.T) {
	testCases := []struct {
		taxable string
		want    string
	}{
		{"5000000", "0"},
		{"5000001", "0.10"},
		{"10000000", "0.10"},
		{"10000001", "0.15"},
		{"20000001", "0.25"},
		{"50000001", "0.37"},
	}

	for _, tc := range testCases {
		t.Run(tc.taxable, func(t *testing.T) {
			assertDecimal(t, tc.want, SurchargeRate(d(tc.taxable)))
		})
	}
}

func TestCompare_RejectsNegativeInputs(t *testing.T) {
	_, err := Compare(d("-1"), decimal.Zero, CapitalGains{})
	assert.ErrorIs(t, err, ErrNegativeAmount)

	_, err = Compare(d("100"), decimal.Zero, CapitalGains{Crypto: d("-5")})
	assert.ErrorIs(t, err, ErrNegativeAmount)
}
