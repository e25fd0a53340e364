package main

import (
	"fmt"
	"strings"

	"tax-harvest-go/internal/pricing"

	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"
)

func pricesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "prices",
		Short: "Maintain stored current prices",
	}
	cmd.AddCommand(pricesRefreshCmd())
	return cmd
}

func pricesRefreshCmd() *cobra.Command {
	var (
		set     []string
		offline bool
		batch   bool
	)
	cmd := &cobra.Command{
		Use:   "refresh",
		Short: "Update holdings' current price from --set values and the ticker API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			static, err := parsePrices(set)
			if err != nil {
				return err
			}
			return withApp(func(a *app) error {
				lookup := pricing.Chain{static}
				switch {
				case offline:
				case batch:
					snap, err := pricing.NewTickerClient(a.cfg.Pricing, a.log).Snapshot(cmd.Context())
					if err != nil {
						return err
					}
					lookup = append(lookup, snap)
				default:
					lookup = append(lookup, pricing.NewTickerClient(a.cfg.Pricing, a.log))
				}
				res, err := pricing.NewRefresher(a.db, lookup, a.log).Refresh(cmd.Context(), userID)
				if err != nil {
					return err
				}
				return render(cmd, res, func() *table.Table {
					return keyValue(
						[2]string{"Updated", strings.Join(res.Updated, ", ")},
						[2]string{"Unpriced", strings.Join(res.Unpriced, ", ")},
					)
				})
			})
		},
	}
	cmd.Flags().StringSliceVar(&set, "set", nil, "Manual prices as SYMBOL=PRICE (repeatable)")
	cmd.Flags().BoolVar(&offline, "offline", false, "Skip the ticker API and use --set values only")
	cmd.Flags().BoolVar(&batch, "batch", false, "Fetch all ticker prices in a single request")
	return cmd
}

func parsePrices(pairs []string) (pricing.Static, error) {
	out := pricing.Static{}
	for _, p := range pairs {
		symbol, value, ok := strings.Cut(p, "=")
		if !ok || symbol == "" {
			return nil, fmt.Errorf("invalid price %q, want SYMBOL=PRICE", p)
		}
		price, err := parseAmount("price for "+symbol, value)
		if err != nil {
			return nil, err
		}
		out[strings.ToUpper(strings.TrimSpace(symbol))] = price
	}
	return out, nil
}
