package config

import (
	"fmt"
	"os"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"perpbot/risk"
)

// Config is the complete startup configuration. It is built once at
// process start and passed in; nothing reads configuration ambiently
// after boot.
type Config struct {
	Telegram TelegramConfig `yaml:"telegram"`
	Bybit    BybitConfig    `yaml:"bybit"`
	Trading  TradingConfig  `yaml:"trading"`
	Journal  JournalConfig  `yaml:"journal"`
	Log      LogConfig      `yaml:"log"`
	Metrics  MetricsConfig  `yaml:"metrics"`
}

type TelegramConfig struct {
	Token string `yaml:"token"`
	// AllowedUserID is the one Telegram user id permitted to issue
	// commands. Kept as a string; the gate compares text, not numbers.
	AllowedUserID string `yaml:"allowed_user_id"`
}

type BybitConfig struct {
	APIKey    string `yaml:"api_key"`
	APISecret string `yaml:"api_secret"`
	Testnet   bool   `yaml:"testnet"`
}

type TradingConfig struct {
	Symbol           string `yaml:"symbol"`
	Qty              string `yaml:"qty"`
	TakeProfitOffset string `yaml:"take_profit_offset"`
	StopLossOffset   string `yaml:"stop_loss_offset"`
	BalanceCoin      string `yaml:"balance_coin"`
}

type JournalConfig struct {
	// DBPath is the SQLite order journal. Empty disables journaling.
	DBPath string `yaml:"db_path"`
}

type LogConfig struct {
	// File receives a copy of everything written to stdout.
	// Empty logs to stdout only.
	File  string `yaml:"file"`
	Level string `yaml:"level"`
}

type MetricsConfig struct {
	// Addr serves Prometheus metrics when non-empty, e.g. "localhost:9090".
	Addr string `yaml:"addr"`
}

// LoadFromFile reads a YAML config, applies environment overrides and
// validates the result.
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	cfg.overrideWithEnv()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// LoadFromEnv builds a config purely from defaults plus environment,
// for running without a config file.
func LoadFromEnv() (*Config, error) {
	cfg := Default()
	cfg.overrideWithEnv()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// overrideWithEnv lets environment variables win over file values, so
// secrets can stay out of config files entirely.
func (c *Config) overrideWithEnv() {
	if v := os.Getenv("TELEGRAM_BOT_TOKEN"); v != "" {
		c.Telegram.Token = v
	}
	if v := os.Getenv("TELEGRAM_USER_ID"); v != "" {
		c.Telegram.AllowedUserID = v
	}
	if v := os.Getenv("BYBIT_API_KEY"); v != "" {
		c.Bybit.APIKey = v
	}
	if v := os.Getenv("BYBIT_API_SECRET"); v != "" {
		c.Bybit.APISecret = v
	}
}

// Validate checks the configuration before anything connects.
func (c *Config) Validate() error {
	if c.Telegram.Token == "" {
		return fmt.Errorf("telegram.token is required")
	}
	if c.Telegram.AllowedUserID == "" {
		return fmt.Errorf("telegram.allowed_user_id is required")
	}
	if c.Bybit.APIKey == "" || c.Bybit.APISecret == "" {
		return fmt.Errorf("bybit.api_key and bybit.api_secret are required")
	}
	if c.Trading.Symbol == "" {
		return fmt.Errorf("trading.symbol is required")
	}
	if c.Trading.BalanceCoin == "" {
		return fmt.Errorf("trading.balance_coin is required")
	}

	qty, err := decimal.NewFromString(c.Trading.Qty)
	if err != nil || !qty.IsPositive() {
		return fmt.Errorf("trading.qty must be a positive decimal, got %q", c.Trading.Qty)
	}

	off, err := c.Offsets()
	if err != nil {
		return err
	}
	if err := off.Validate(); err != nil {
		return fmt.Errorf("trading offsets: %w", err)
	}

	return nil
}

// Qty returns the configured order quantity. Call Validate first.
func (c *Config) Qty() decimal.Decimal {
	return decimal.RequireFromString(c.Trading.Qty)
}

// Offsets parses the protective level offsets.
func (c *Config) Offsets() (risk.Offsets, error) {
	tp, err := decimal.NewFromString(c.Trading.TakeProfitOffset)
	if err != nil {
		return risk.Offsets{}, fmt.Errorf("trading.take_profit_offset: %w", err)
	}
	sl, err := decimal.NewFromString(c.Trading.StopLossOffset)
	if err != nil {
		return risk.Offsets{}, fmt.Errorf("trading.stop_loss_offset: %w", err)
	}
	return risk.Offsets{TakeProfit: tp, StopLoss: sl}, nil
}

// Default returns a configuration with sensible defaults. Credentials
// have no default; they come from the file or the environment.
func Default() *Config {
	return &Config{
		Bybit: BybitConfig{Testnet: true},
		Trading: TradingConfig{
			Symbol:           "BTCUSDT",
			Qty:              "0.01",
			TakeProfitOffset: "20",
			StopLossOffset:   "10",
			BalanceCoin:      "USDT",
		},
		Journal: JournalConfig{DBPath: "./perpbot.sqlite"},
		Log:     LogConfig{File: "./perpbot.log", Level: "info"},
	}
}
