package main

import (
	"tax-harvest-go/internal/taxconfig"

	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func configCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage stored tax configuration",
	}
	cmd.AddCommand(configSeedCmd())
	return cmd
}

func configSeedCmd() *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Upsert per-fiscal-year rate tables from a YAML file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(func(a *app) error {
				path := file
				if path == "" {
					path = a.cfg.Tax.SeedFile
				}
				configs, err := taxconfig.LoadSeedFile(path)
				if err != nil {
					return err
				}
				if err := a.engine.SeedTaxConfigurations(cmd.Context(), configs...); err != nil {
					return err
				}
				a.log.Info("Seeded tax configuration", zap.String("file", path), zap.Int("years", len(configs)))

				return render(cmd, configs, func() *table.Table {
					t := newTable("Fiscal year", "ST equity", "LT equity", "LT exemption", "Crypto", "Cess")
					for _, c := range configs {
						t.Row(c.FiscalYear, percent(c.ShortTermEquityRate), percent(c.LongTermEquityRate),
							inr(c.LongTermExemption), percent(c.CryptoRate), percent(c.CessRate))
					}
					return t
				})
			})
		},
	}
	cmd.Flags().StringVar(&file, "file", "", "Seed file (default: tax.seed_file from config)")
	return cmd
}
