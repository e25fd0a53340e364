// Package regime compares total tax under the old and new income-tax regimes.
// Its capital-gains math is independent of the tax package: the long-term
// exemption is applied once to the aggregate, not per holding.
package regime

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// Choice is the regime with the lower total tax.
type Choice string

const (
	ChoiceOld    Choice = "OLD"
	ChoiceNew    Choice = "NEW"
	ChoiceEither Choice = "EITHER"
)

// ErrNegativeAmount is returned for negative income, deductions or gains.
var ErrNegativeAmount = errors.New("amount must not be negative")

var (
	lakh  = decimal.NewFromInt(100_000)
	crore = decimal.NewFromInt(10_000_000)

	shortTermEquityRate = decimal.RequireFromString("0.20")
	longTermEquityRate  = decimal.RequireFromString("0.125")
	cryptoRate          = decimal.RequireFromString("0.30")
	longTermExemption   = lakh
	cessRate            = decimal.RequireFromString("0.04")
)

// Slab is one progressive band. A zero Upto means unbounded.
type Slab struct {
	Upto decimal.Decimal
	Rate decimal.Decimal
}

// Regime is an income-tax scheme.
type Regime struct {
	Name              string
	Slabs             []Slab
	AllowsDeductions  bool
	DeductionCap      decimal.Decimal
	StandardDeduction decimal.Decimal
}

func slab(upto, rate string) Slab {
	return Slab{Upto: decimal.RequireFromString(upto), Rate: decimal.RequireFromString(rate)}
}

func topSlab(rate string) Slab {
	return Slab{Upto: decimal.Zero, Rate: decimal.RequireFromString(rate)}
}

// OldRegime taxes income net of capped deductions and the standard deduction.
var OldRegime = Regime{
	Name: "old",
	Slabs: []Slab{
		slab("250000", "0"),
		slab("500000", "0.05"),
		slab("1000000", "0.20"),
		topSlab("0.30"),
	},
	AllowsDeductions:  true,
	DeductionCap:      decimal.NewFromInt(200_000),
	StandardDeduction: decimal.NewFromInt(50_000),
}

// NewRegime taxes gross income and ignores deductions.
var NewRegime = Regime{
	Name: "new",
	Slabs: []Slab{
		slab("250000", "0"),
		slab("500000", "0.05"),
		slab("750000", "0.10"),
		slab("1000000", "0.15"),
		slab("1250000", "0.20"),
		topSlab("0.30"),
	},
}

// surchargeTiers are checked from the highest threshold down.
var surchargeTiers = []struct {
	Above decimal.Decimal
	Rate  decimal.Decimal
}{
	{Above: crore.Mul(decimal.NewFromInt(5)), Rate: decimal.RequireFromString("0.37")},
	{Above: crore.Mul(decimal.NewFromInt(2)), Rate: decimal.RequireFromString("0.25")},
	{Above: crore, Rate: decimal.RequireFromString("0.15")},
	{Above: lakh.Mul(decimal.NewFromInt(50)), Rate: decimal.RequireFromString("0.10")},
}

// CapitalGains are realized gains for the year.
type CapitalGains struct {
	ShortTermEquity decimal.Decimal `json:"short_term_equity"`
	LongTermEquity  decimal.Decimal `json:"long_term_equity"`
	Crypto          decimal.Decimal `json:"crypto"`
}

// Breakdown is the tax under one regime.
type Breakdown struct {
	Regime          string          `json:"regime"`
	TaxableIncome   decimal.Decimal `json:"taxable_income"`
	IncomeTax       decimal.Decimal `json:"income_tax"`
	Surcharge       decimal.Decimal `json:"surcharge"`
	Cess            decimal.Decimal `json:"cess"`
	CapitalGainsTax decimal.Decimal `json:"capital_gains_tax"`
	Total           decimal.Decimal `json:"total"`
}

// Comparison is the side-by-side result.
type Comparison struct {
	Old            Breakdown       `json:"old_regime"`
	New            Breakdown       `json:"new_regime"`
	Recommendation Choice          `json:"recommendation"`
	Savings        decimal.Decimal `json:"savings"`
}

// Compare computes both regimes and recommends the cheaper one.
func Compare(income, deductions decimal.Decimal, gains CapitalGains) (*Comparison, error) {
	inputs := []struct {
		name  string
		value decimal.Decimal
	}{
		{"income", income},
		{"deductions", deductions},
		{"short-term gains", gains.ShortTermEquity},
		{"long-term gains", gains.LongTermEquity},
		{"crypto gains", gains.Crypto},
	}
	for _, in := range inputs {
		if in.value.IsNegative() {
			return nil, fmt.Errorf("%w: %s %s", ErrNegativeAmount, in.name, in.value)
		}
	}

	cgTax := CapitalGainsTax(gains)
	old := OldRegime.Tax(income, deductions, cgTax)
	nu := NewRegime.Tax(income, deductions, cgTax)

	c := &Comparison{Old: old, New: nu, Recommendation: ChoiceEither, Savings: decimal.Zero}
	switch old.Total.Cmp(nu.Total) {
	case -1:
		c.Recommendation = ChoiceOld
		c.Savings = nu.Total.Sub(old.Total)
	case 1:
		c.Recommendation = ChoiceNew
		c.Savings = old.Total.Sub(nu.Total)
	}
	return c, nil
}

// QuickEstimate compares regimes on salary income alone.
func QuickEstimate(income, deductions decimal.Decimal) (*Comparison, error) {
	return Compare(income, deductions, CapitalGains{})
}

// CapitalGainsTax applies the flat rates, with one aggregate long-term exemption.
func CapitalGainsTax(g CapitalGains) decimal.Decimal {
	st := g.ShortTermEquity.Mul(shortTermEquityRate)
	lt := decimal.Max(decimal.Zero, g.LongTermEquity.Sub(longTermExemption)).Mul(longTermEquityRate)
	crypto := g.Crypto.Mul(cryptoRate)
	return st.Add(lt).Add(crypto)
}

// Tax computes the regime's breakdown. Surcharge applies to income tax only
// and capital-gains tax is added after cess.
func (r Regime) Tax(income, deductions, capitalGainsTax decimal.Decimal) Breakdown {
	taxable := income
	if r.AllowsDeductions {
		taxable = taxable.Sub(decimal.Min(deductions, r.DeductionCap)).Sub(r.StandardDeduction)
	}
	taxable = decimal.Max(decimal.Zero, taxable)

	incomeTax := r.slabTax(taxable)
	surcharge := incomeTax.Mul(SurchargeRate(taxable))
	cess := incomeTax.Add(surcharge).Mul(cessRate)

	return Breakdown{
		Regime:          r.Name,
		TaxableIncome:   taxable,
		IncomeTax:       incomeTax.Round(2),
		Surcharge:       surcharge.Round(2),
		Cess:            cess.Round(2),
		CapitalGainsTax: capitalGainsTax.Round(2),
		Total:           incomeTax.Add(surcharge).Add(cess).Add(capitalGainsTax).Round(2),
	}
}

func (r Regime) slabTax(taxable decimal.Decimal) decimal.Decimal {
	tax := decimal.Zero
	lower := decimal.Zero
	for _, s := range r.Slabs {
		if !taxable.GreaterThan(lower) {
			break
		}
		upper := taxable
		if !s.Upto.IsZero() && s.Upto.LessThan(taxable) {
			upper = s.Upto
		}
		tax = tax.Add(upper.Sub(lower).Mul(s.Rate))
		if s.Upto.IsZero() {
			break
		}
		lower = s.Upto
	}
	return tax
}

// SurchargeRate is the tier rate for taxable income.
func SurchargeRate(taxable decimal.Decimal) decimal.Decimal {
	for _, tier := range surchargeTiers {
		if taxable.GreaterThan(tier.Above) {
			return tier.Rate
		}
	}
	return decimal.Zero
}
