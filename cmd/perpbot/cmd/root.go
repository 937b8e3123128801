package cmd

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "perpbot",
	Short: "A Telegram-operated trading bot for Bybit USDT perpetuals",
	Long: `Perpbot is a chat-operated control surface for a single Bybit
perpetual-futures account.

One authorized Telegram user issues short commands (price, balance, buy,
sell, close); the bot translates them into authenticated Bybit V5 REST
calls and replies with plain-text confirmations. Every order submission
is journaled to SQLite.

Start it with:
  perpbot run --config perpbot.yaml`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}
