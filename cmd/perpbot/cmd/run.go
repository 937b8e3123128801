package cmd

import (
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"perpbot/broker/bybit"
	"perpbot/config"
	"perpbot/journal"
	"perpbot/telegram"
	"perpbot/trade"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Start the bot",
	Long: `Start the Telegram long-poll loop and serve operator commands.

Configuration comes from a YAML file when --config is given, otherwise
from defaults plus environment variables. A .env file in the working
directory is loaded first if present. Credentials are always taken from
the environment when set: TELEGRAM_BOT_TOKEN, TELEGRAM_USER_ID,
BYBIT_API_KEY, BYBIT_API_SECRET.

Example:
  perpbot run --config perpbot.yaml`,
	RunE: runRun,
}

var runConfigPath string

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringVarP(&runConfigPath, "config", "f", "", "path to YAML config file")
}

func runRun(cmd *cobra.Command, args []string) error {
	_ = godotenv.Load()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	log, closeLog, err := newLogger(cfg.Log)
	if err != nil {
		return fmt.Errorf("open log: %w", err)
	}
	defer closeLog()

	var j journal.Journal = journal.Nop{}
	if cfg.Journal.DBPath != "" {
		sq, err := journal.NewSQLite(cfg.Journal.DBPath)
		if err != nil {
			return fmt.Errorf("open journal: %w", err)
		}
		defer sq.Close()
		j = sq
	}

	if cfg.Metrics.Addr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		go func() {
			log.Info("metrics listener started", "addr", cfg.Metrics.Addr)
			if err := http.ListenAndServe(cfg.Metrics.Addr, mux); err != nil {
				log.Error("metrics listener failed", "err", err)
			}
		}()
	}

	offsets, err := cfg.Offsets()
	if err != nil {
		return err
	}

	client := bybit.NewClient(cfg.Bybit.APIKey, cfg.Bybit.APISecret, cfg.Bybit.Testnet)
	trader := trade.New(client, j, log, offsets)
	gate := trade.NewGate(cfg.Telegram.AllowedUserID, log)

	bot := telegram.NewBot(
		telegram.NewClient(cfg.Telegram.Token),
		gate,
		trader,
		j,
		telegram.Defaults{
			Symbol:      cfg.Trading.Symbol,
			Qty:         cfg.Qty(),
			BalanceCoin: cfg.Trading.BalanceCoin,
		},
		log,
	)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return bot.Run(ctx)
}

func loadConfig() (*config.Config, error) {
	if runConfigPath != "" {
		return config.LoadFromFile(runConfigPath)
	}
	return config.LoadFromEnv()
}

// newLogger builds the process logger: text handler on stdout, copied to
// the configured log file so the /log journal and the on-disk log agree
// on history.
func newLogger(cfg config.LogConfig) (*slog.Logger, func(), error) {
	var w io.Writer = os.Stdout
	closer := func() {}

	if cfg.File != "" {
		f, err := os.OpenFile(cfg.File, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return nil, nil, err
		}
		w = io.MultiWriter(os.Stdout, f)
		closer = func() { _ = f.Close() }
	}

	level := slog.LevelInfo
	switch strings.ToLower(cfg.Level) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}

	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level})), closer, nil
}
