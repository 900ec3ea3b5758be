package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Account   AccountConfig   `yaml:"account"`
	Quote     QuoteConfig     `yaml:"quote"`
	AutoTrade AutoTradeConfig `yaml:"autotrade"`
	Telegram  TelegramConfig  `yaml:"telegram"`
	Web       WebConfig       `yaml:"web"`
	Database  DatabaseConfig  `yaml:"database"`
	Logging   LoggingConfig   `yaml:"logging"`
}

type AccountConfig struct {
	InitialCapital float64 `yaml:"initial_capital"`
	CommissionRate float64 `yaml:"commission_rate"`
	MinCommission  float64 `yaml:"min_commission"`
}

type QuoteConfig struct {
	TimeoutSeconds int `yaml:"timeout_seconds"`
}

type AutoTradeConfig struct {
	// Cron spec for the market-hours monitor, independent of the trading
	// poll interval.
	MonitorCron         string `yaml:"monitor_cron"`
	DefaultPollInterval int    `yaml:"default_poll_interval"`
}

type TelegramConfig struct {
	Enabled  bool   `yaml:"enabled"`
	BotToken string `yaml:"bot_token"`
	ChatID   int64  `yaml:"chat_id"`
}

type WebConfig struct {
	Port int `yaml:"port"`
}

type DatabaseConfig struct {
	Path string `yaml:"path"`
}

type LoggingConfig struct {
	Level string `yaml:"level"`
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	setDefaults(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return cfg, nil
}

// Default returns the configuration used when no config file is present.
func Default() *Config {
	cfg := &Config{}
	setDefaults(cfg)
	return cfg
}

func setDefaults(cfg *Config) {
	if cfg.Account.InitialCapital == 0 {
		cfg.Account.InitialCapital = 100000
	}
	if cfg.Account.CommissionRate == 0 {
		cfg.Account.CommissionRate = 0.0003
	}
	if cfg.Account.MinCommission == 0 {
		cfg.Account.MinCommission = 5
	}
	if cfg.Quote.TimeoutSeconds == 0 {
		cfg.Quote.TimeoutSeconds = 10
	}
	if cfg.AutoTrade.MonitorCron == "" {
		cfg.AutoTrade.MonitorCron = "@every 1m"
	}
	if cfg.AutoTrade.DefaultPollInterval == 0 {
		cfg.AutoTrade.DefaultPollInterval = 30
	}
	if cfg.Web.Port == 0 {
		cfg.Web.Port = 8080
	}
	if cfg.Database.Path == "" {
		cfg.Database.Path = "data/papertrader.db"
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
}

func (c *Config) Validate() error {
	if c.Account.InitialCapital <= 0 {
		return fmt.Errorf("account.initial_capital must be positive")
	}
	if c.Account.CommissionRate < 0 {
		return fmt.Errorf("account.commission_rate must not be negative")
	}
	if c.AutoTrade.DefaultPollInterval < 1 {
		return fmt.Errorf("autotrade.default_poll_interval must be at least 1 second")
	}
	if c.Telegram.Enabled {
		if c.Telegram.BotToken == "" {
			return fmt.Errorf("telegram.bot_token is required when telegram is enabled")
		}
		if c.Telegram.ChatID == 0 {
			return fmt.Errorf("telegram.chat_id is required when telegram is enabled")
		}
	}
	return nil
}

func (c *Config) QuoteTimeout() time.Duration {
	return time.Duration(c.Quote.TimeoutSeconds) * time.Second
}

// MarketLocation is the exchange timezone used by the market clock.
func (c *Config) MarketLocation() *time.Location {
	loc, err := time.LoadLocation("Asia/Shanghai")
	if err != nil {
		loc = time.FixedZone("CST", 8*60*60)
	}
	return loc
}
