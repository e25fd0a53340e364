package main

import (
	"tax-harvest-go/internal/models"

	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"
)

func recommendCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "recommend",
		Short: "Generate and manage tax-loss harvesting recommendations",
	}
	cmd.AddCommand(recommendGenerateCmd())
	cmd.AddCommand(recommendListCmd())
	cmd.AddCommand(recommendStatusCmd("accept", models.StatusAccepted))
	cmd.AddCommand(recommendStatusCmd("reject", models.StatusRejected))
	cmd.AddCommand(recommendExecuteCmd())
	cmd.AddCommand(recommendExpireCmd())
	return cmd
}

func recommendGenerateCmd() *cobra.Command {
	var fy string
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Replace pending recommendations with a fresh scan",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(func(a *app) error {
				recs, err := a.engine.GenerateRecommendations(cmd.Context(), userID, fy)
				if err != nil {
					return err
				}
				return render(cmd, recs, func() *table.Table { return recommendationTable(recs) })
			})
		},
	}
	cmd.Flags().StringVar(&fy, "fy", "", "Fiscal year as YYYY-YY (default: current)")
	return cmd
}

func recommendListCmd() *cobra.Command {
	var status string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List recommendations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var filter *models.RecommendationStatus
			if status != "" {
				s := models.RecommendationStatus(status)
				filter = &s
			}
			return withApp(func(a *app) error {
				recs, err := a.engine.Recommendations(cmd.Context(), userID, filter)
				if err != nil {
					return err
				}
				return render(cmd, recs, func() *table.Table { return recommendationTable(recs) })
			})
		},
	}
	cmd.Flags().StringVar(&status, "status", "", "Filter by status (pending, accepted, rejected, expired)")
	return cmd
}

func recommendStatusCmd(use string, status models.RecommendationStatus) *cobra.Command {
	return &cobra.Command{
		Use:   use + " [recommendation-id]",
		Short: "Mark a pending recommendation as " + string(status),
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return withApp(func(a *app) error {
				rec, err := a.engine.UpdateRecommendationStatus(cmd.Context(), id, userID, status)
				if err != nil {
					return err
				}
				return render(cmd, rec, func() *table.Table {
					return recommendationTable([]models.Recommendation{*rec})
				})
			})
		},
	}
}

func recommendExecuteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "execute [recommendation-id]",
		Short: "Realize a pending recommendation as a sale",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return withApp(func(a *app) error {
				exec, err := a.engine.ExecuteRecommendation(cmd.Context(), id, userID)
				if err != nil {
					return err
				}
				return render(cmd, exec, func() *table.Table {
					washSale := "no"
					if exec.WashSale != nil {
						washSale = "yes, " + uintString(uint(exec.WashSale.DaysRemaining)) + " days remaining"
					}
					return keyValue(
						[2]string{"Recommendation", uintString(exec.Recommendation.ID)},
						[2]string{"Transaction", uintString(exec.Transaction.ID)},
						[2]string{"Execution ref", exec.Transaction.ExecutionRef},
						[2]string{"Sold", exec.Transaction.Quantity.String() + " " + exec.Transaction.Symbol},
						[2]string{"Price", inr(exec.Transaction.Price)},
						[2]string{"Remaining", exec.RemainingQuantity.String()},
						[2]string{"Wash sale", washSale},
					)
				})
			})
		},
	}
}

func recommendExpireCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "expire",
		Short: "Expire pending recommendations past their deadline",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(func(a *app) error {
				n, err := a.engine.ExpireRecommendations(cmd.Context())
				if err != nil {
					return err
				}
				result := map[string]int64{"expired": n}
				return render(cmd, result, func() *table.Table {
					return keyValue([2]string{"Expired", uintString(uint(n))})
				})
			})
		},
	}
}

func reverseCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reverse [transaction-id]",
		Short: "Reverse a transaction with a compensating entry",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return withApp(func(a *app) error {
				rev, err := a.engine.ReverseTransaction(cmd.Context(), id, userID)
				if err != nil {
					return err
				}
				return render(cmd, rev, func() *table.Table {
					holding := "-"
					if rev.Holding != nil {
						holding = rev.Holding.Quantity.String() + " " + rev.Holding.Symbol
					}
					return keyValue(
						[2]string{"Reversed", uintString(rev.Original.ID) + " (" + string(rev.Original.Type) + ")"},
						[2]string{"Compensating", uintString(rev.Compensating.ID) + " (" + string(rev.Compensating.Type) + ")"},
						[2]string{"Holding", holding},
					)
				})
			})
		},
	}
}

func recommendationTable(recs []models.Recommendation) *table.Table {
	t := newTable("ID", "Symbol", "Term", "Loss", "Loss %", "Savings", "Priority", "Deadline", "Status", "Wash sale")
	for _, r := range recs {
		washSale := ""
		if r.WashSaleRisk {
			washSale = "risk"
		}
		t.Row(uintString(r.ID), r.Symbol, string(r.Term), inr(r.PotentialLoss), r.LossPercent.StringFixed(2),
			inr(r.EstimatedTaxSavings), uintString(uint(r.PriorityScore)), date(r.Deadline), string(r.Status), washSale)
	}
	return t
}
