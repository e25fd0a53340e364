package main

import (
	"tax-harvest-go/internal/tax"

	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"
)

func calculateCmd() *cobra.Command {
	var fy string
	cmd := &cobra.Command{
		Use:   "calculate",
		Short: "Calculate capital-gains tax for a fiscal year",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(func(a *app) error {
				summary, err := a.engine.CalculateTax(cmd.Context(), userID, fy)
				if err != nil {
					return err
				}
				return render(cmd, summary, func() *table.Table { return summaryTable(summary) })
			})
		},
	}
	cmd.Flags().StringVar(&fy, "fy", "", "Fiscal year as YYYY-YY (default: current)")
	return cmd
}

func summaryTable(s *tax.Summary) *table.Table {
	t := newTable("Symbol", "Category", "Term", "Days", "Gain", "Rate", "Taxable", "Liability")
	for _, c := range s.Calculations {
		t.Row(c.Symbol, string(c.Category), string(c.Term), uintString(uint(c.HoldingDays)),
			inr(c.Gain), percent(c.Rate), inr(c.Taxable), inr(c.Liability))
	}
	for _, sk := range s.Skipped {
		t.Row(sk.Symbol, "skipped", sk.Reason, "", "", "", "", "")
	}
	t.Row("", "", "", "", "", "", "Net short-term", inr(s.NetShortTermGain))
	t.Row("", "", "", "", "", "", "Net long-term", inr(s.NetLongTermGain))
	t.Row("", "", "", "", "", "", "Surcharge", inr(s.Surcharge))
	t.Row("", "", "", "", "", "", "Cess", inr(s.Cess))
	t.Row(s.FiscalYear, "", "", "", "", "", "Total payable", inr(s.TotalPayable))
	return t
}
