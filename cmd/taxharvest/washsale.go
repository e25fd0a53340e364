package main

import (
	"tax-harvest-go/internal/washsale"

	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"
)

func washSaleCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "washsale",
		Short: "Check trades against the wash-sale window",
	}
	cmd.AddCommand(washSaleCheckCmd(washsale.Forward, "Check a proposed buy against recent sells"))
	cmd.AddCommand(washSaleCheckCmd(washsale.Reverse, "Check a proposed sell against recent buys"))
	cmd.AddCommand(washSaleHistoryCmd())
	return cmd
}

func washSaleCheckCmd(dir washsale.Direction, short string) *cobra.Command {
	var on string
	cmd := &cobra.Command{
		Use:   string(dir) + " [symbol]",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			when, err := parseDate(on)
			if err != nil {
				return err
			}
			return withApp(func(a *app) error {
				check, err := a.engine.CheckWashSale(cmd.Context(), userID, args[0], dir, when)
				if err != nil {
					return err
				}
				return render(cmd, check, func() *table.Table {
					rows := [][2]string{
						{"Symbol", check.Symbol},
						{"Direction", string(check.Direction)},
						{"Date", date(check.ProposedDate)},
						{"Wash sale", yesNo(check.IsWashSale)},
						{"Days remaining", uintString(uint(check.DaysRemaining))},
					}
					if check.Match != nil {
						rows = append(rows, [2]string{"Conflicting trade",
							uintString(check.Match.ID) + " " + string(check.Match.Type) + " on " + date(check.Match.Date)})
					}
					return keyValue(rows...)
				})
			})
		},
	}
	cmd.Flags().StringVar(&on, "date", "", "Proposed trade date as YYYY-MM-DD (default: today)")
	return cmd
}

func washSaleHistoryCmd() *cobra.Command {
	var fy string
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List sells repurchased inside the window during a fiscal year",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(func(a *app) error {
				pairs, err := a.engine.WashSaleHistory(cmd.Context(), userID, fy)
				if err != nil {
					return err
				}
				return render(cmd, pairs, func() *table.Table {
					t := newTable("Symbol", "Sold", "Bought", "Days", "Quantity", "Disallowed")
					for _, p := range pairs {
						t.Row(p.Symbol, date(p.SellDate), date(p.BuyDate), uintString(uint(p.DaysBetween)),
							p.Quantity.String(), inr(p.DisallowedLoss))
					}
					return t
				})
			})
		},
	}
	cmd.Flags().StringVar(&fy, "fy", "", "Fiscal year as YYYY-YY (default: current)")
	return cmd
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
