package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var (
	configDir    string
	userID       uint
	outputFormat string
)

var rootCmd = &cobra.Command{
	Use:   "taxharvest",
	Short: "Capital-gains tax and tax-loss harvesting CLI",
	Long: "Computes capital-gains liability per fiscal year, tracks loss carry-forward, " +
		"checks wash-sale windows and generates tax-loss harvesting recommendations.",
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configDir, "config-dir", "./configs", "Directory containing config.yml")
	rootCmd.PersistentFlags().UintVarP(&userID, "user", "u", 1, "User the command acts for")
	rootCmd.PersistentFlags().StringVarP(&outputFormat, "format", "f", "table", "Output format (table, json)")

	rootCmd.AddCommand(calculateCmd())
	rootCmd.AddCommand(recommendCmd())
	rootCmd.AddCommand(reverseCmd())
	rootCmd.AddCommand(washSaleCmd())
	rootCmd.AddCommand(carryForwardCmd())
	rootCmd.AddCommand(regimeCmd())
	rootCmd.AddCommand(configCmd())
	rootCmd.AddCommand(pricesCmd())
}

func main() {
	// Setup context for graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}
