package main

import (
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"
)

func carryForwardCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "carryforward",
		Aliases: []string{"cf"},
		Short:   "Inspect, apply and record loss carry-forward",
	}
	cmd.AddCommand(carryForwardShowCmd())
	cmd.AddCommand(carryForwardApplyCmd())
	cmd.AddCommand(carryForwardCloseCmd())
	return cmd
}

func carryForwardShowCmd() *cobra.Command {
	var fy string
	cmd := &cobra.Command{
		Use:   "show",
		Short: "Show losses available in a fiscal year",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(func(a *app) error {
				view, err := a.engine.CarryForward(cmd.Context(), userID, fy)
				if err != nil {
					return err
				}
				return render(cmd, view, func() *table.Table {
					t := newTable("Source", "Applies from", "Short-term", "Long-term", "Status")
					for _, r := range view.Records {
						status := "not yet"
						switch {
						case r.Expired:
							status = "expired"
						case r.Available:
							status = "available"
						}
						t.Row(r.SourceFiscalYear, r.FiscalYear, inr(r.ShortTermLoss), inr(r.LongTermLoss), status)
					}
					t.Row("Available in "+view.Available.FiscalYear, "",
						inr(view.Available.ShortTermLoss), inr(view.Available.LongTermLoss), "")
					return t
				})
			})
		},
	}
	cmd.Flags().StringVar(&fy, "fy", "", "Fiscal year as YYYY-YY (default: current)")
	return cmd
}

func carryForwardApplyCmd() *cobra.Command {
	var fy string
	cmd := &cobra.Command{
		Use:   "apply",
		Short: "Offset a fiscal year's net gains with available carry-forward",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(func(a *app) error {
				res, err := a.engine.ApplyCarryForward(cmd.Context(), userID, fy)
				if err != nil {
					return err
				}
				return render(cmd, res, func() *table.Table {
					return keyValue(
						[2]string{"Fiscal year", res.FiscalYear},
						[2]string{"Short-term gain", inr(res.ShortTermGain) + " -> " + inr(res.AdjustedShortTermGain)},
						[2]string{"Long-term gain", inr(res.LongTermGain) + " -> " + inr(res.AdjustedLongTermGain)},
						[2]string{"Short-term loss used", inr(res.ShortTermLossUsed)},
						[2]string{"Long-term loss used", inr(res.LongTermLossUsed)},
						[2]string{"Estimated tax saved", inr(res.EstimatedTaxSaved)},
					)
				})
			})
		},
	}
	cmd.Flags().StringVar(&fy, "fy", "", "Fiscal year as YYYY-YY (default: current)")
	return cmd
}

func carryForwardCloseCmd() *cobra.Command {
	var fy string
	cmd := &cobra.Command{
		Use:   "close",
		Short: "Record a fiscal year's unabsorbed losses for later years",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(func(a *app) error {
				end, err := a.engine.CloseFiscalYear(cmd.Context(), userID, fy)
				if err != nil {
					return err
				}
				return render(cmd, end, func() *table.Table {
					if end.Record == nil {
						return keyValue([2]string{end.Summary.FiscalYear, "nothing to carry forward"})
					}
					return keyValue(
						[2]string{"Source", end.Record.SourceFiscalYear},
						[2]string{"Applies from", end.Record.FiscalYear},
						[2]string{"Short-term loss", inr(end.Record.ShortTermLoss)},
						[2]string{"Long-term loss", inr(end.Record.LongTermLoss)},
					)
				})
			})
		},
	}
	cmd.Flags().StringVar(&fy, "fy", "", "Fiscal year as YYYY-YY (default: current)")
	return cmd
}
