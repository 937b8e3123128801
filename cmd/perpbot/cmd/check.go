package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"perpbot/broker/bybit"
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Validate configuration and reach the exchange",
	Long: `Validate the configuration and perform one ticker read against
the exchange. No order is placed and no Telegram connection is made.

Example:
  perpbot check --config perpbot.yaml`,
	RunE: runCheck,
}

func init() {
	rootCmd.AddCommand(checkCmd)

	checkCmd.Flags().StringVarP(&runConfigPath, "config", "f", "", "path to YAML config file")
}

func runCheck(cmd *cobra.Command, args []string) error {
	_ = godotenv.Load()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	fmt.Println("config: ok")

	env := "mainnet"
	if cfg.Bybit.Testnet {
		env = "testnet"
	}
	fmt.Printf("exchange: bybit %s, symbol %s, qty %s\n", env, cfg.Trading.Symbol, cfg.Trading.Qty)
	fmt.Println("note: one-way position mode assumed; hedge-mode accounts are not supported")

	client := bybit.NewClient(cfg.Bybit.APIKey, cfg.Bybit.APISecret, cfg.Bybit.Testnet)

	ctx, cancel := context.WithTimeout(cmd.Context(), 15*time.Second)
	defer cancel()

	tick, err := client.GetTicker(ctx, cfg.Trading.Symbol)
	if err != nil {
		return fmt.Errorf("ticker read: %w", err)
	}
	fmt.Printf("ticker: %s last price %s\n", tick.Symbol, tick.LastPrice)

	return nil
}
