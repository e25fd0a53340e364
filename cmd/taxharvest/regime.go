package main

import (
	"tax-harvest-go/internal/regime"

	"github.com/charmbracelet/lipgloss/table"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
)

func regimeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "regime",
		Short: "Compare the old and new income-tax regimes",
	}
	cmd.AddCommand(regimeCompareCmd())
	cmd.AddCommand(regimeEstimateCmd())
	return cmd
}

type regimeFlags struct {
	income, deductions, shortTerm, longTerm, crypto string
}

func (f *regimeFlags) parse() (income, deductions decimal.Decimal, gains regime.CapitalGains, err error) {
	if income, err = parseAmount("income", f.income); err != nil {
		return
	}
	if deductions, err = parseAmount("deductions", f.deductions); err != nil {
		return
	}
	if gains.ShortTermEquity, err = parseAmount("short-term gains", f.shortTerm); err != nil {
		return
	}
	if gains.LongTermEquity, err = parseAmount("long-term gains", f.longTerm); err != nil {
		return
	}
	gains.Crypto, err = parseAmount("crypto gains", f.crypto)
	return
}

func regimeCompareCmd() *cobra.Command {
	var f regimeFlags
	cmd := &cobra.Command{
		Use:   "compare",
		Short: "Compare total tax including capital gains",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			income, deductions, gains, err := f.parse()
			if err != nil {
				return err
			}
			return withRegimeApp(func(a *app) error {
				c, err := a.engine.CompareRegimes(income, deductions, gains)
				if err != nil {
					return err
				}
				return render(cmd, c, func() *table.Table { return comparisonTable(c) })
			})
		},
	}
	cmd.Flags().StringVar(&f.income, "income", "", "Gross annual income")
	cmd.Flags().StringVar(&f.deductions, "deductions", "", "Claimed deductions (old regime only)")
	cmd.Flags().StringVar(&f.shortTerm, "st", "", "Short-term equity gains")
	cmd.Flags().StringVar(&f.longTerm, "lt", "", "Long-term equity gains")
	cmd.Flags().StringVar(&f.crypto, "crypto", "", "Crypto gains")
	_ = cmd.MarkFlagRequired("income")
	return cmd
}

func regimeEstimateCmd() *cobra.Command {
	var f regimeFlags
	cmd := &cobra.Command{
		Use:   "estimate",
		Short: "Quick comparison on income and deductions alone",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			income, deductions, _, err := f.parse()
			if err != nil {
				return err
			}
			return withRegimeApp(func(a *app) error {
				c, err := a.engine.QuickEstimate(income, deductions)
				if err != nil {
					return err
				}
				return render(cmd, c, func() *table.Table { return comparisonTable(c) })
			})
		},
	}
	cmd.Flags().StringVar(&f.income, "income", "", "Gross annual income")
	cmd.Flags().StringVar(&f.deductions, "deductions", "", "Claimed deductions (old regime only)")
	_ = cmd.MarkFlagRequired("income")
	return cmd
}

func comparisonTable(c *regime.Comparison) *table.Table {
	t := newTable("", "Old regime", "New regime")
	t.Row("Taxable income", inr(c.Old.TaxableIncome), inr(c.New.TaxableIncome))
	t.Row("Income tax", inr(c.Old.IncomeTax), inr(c.New.IncomeTax))
	t.Row("Surcharge", inr(c.Old.Surcharge), inr(c.New.Surcharge))
	t.Row("Cess", inr(c.Old.Cess), inr(c.New.Cess))
	t.Row("Capital gains tax", inr(c.Old.CapitalGainsTax), inr(c.New.CapitalGainsTax))
	t.Row("Total", inr(c.Old.Total), inr(c.New.Total))
	t.Row("Recommendation", string(c.Recommendation), "saves "+inr(c.Savings))
	return t
}
