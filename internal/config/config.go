package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Scoring  ScoringConfig  `yaml:"scoring"`
	Quote    QuoteConfig    `yaml:"quote"`
	Wallet   WalletConfig   `yaml:"wallet"`
	Monitor  MonitorConfig  `yaml:"monitor"`
	Telegram TelegramConfig `yaml:"telegram"`
	Web      WebConfig      `yaml:"web"`
	Logging  LoggingConfig  `yaml:"logging"`
}

type ScoringConfig struct {
	Provider       string `yaml:"provider"` // http or llm
	BaseURL        string `yaml:"base_url"`
	APIKey         string `yaml:"api_key"`
	Model          string `yaml:"model"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
}

type QuoteConfig struct {
	BaseURL        string `yaml:"base_url"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
}

type WalletConfig struct {
	BaseURL        string `yaml:"base_url"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
}

type MonitorConfig struct {
	Interval    string `yaml:"interval"`
	Concurrency int    `yaml:"concurrency"`
}

type TelegramConfig struct {
	Enabled  bool   `yaml:"enabled"`
	BotToken string `yaml:"bot_token"`
	ChatID   int64  `yaml:"chat_id"`
}

type WebConfig struct {
	Port int `yaml:"port"`
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

func setDefaults(cfg *Config) {
	if cfg.Scoring.Provider == "" {
		cfg.Scoring.Provider = "http"
	}
	if cfg.Scoring.Model == "" {
		cfg.Scoring.Model = "deepseek-chat"
	}
	if cfg.Scoring.TimeoutSeconds == 0 {
		cfg.Scoring.TimeoutSeconds = 20
	}
	if cfg.Quote.TimeoutSeconds == 0 {
		cfg.Quote.TimeoutSeconds = 10
	}
	if cfg.Wallet.TimeoutSeconds == 0 {
		cfg.Wallet.TimeoutSeconds = 20
	}
	if cfg.Monitor.Interval == "" {
		cfg.Monitor.Interval = "15s"
	}
	if cfg.Monitor.Concurrency == 0 {
		cfg.Monitor.Concurrency = 10
	}
	if cfg.Web.Port == 0 {
		cfg.Web.Port = 8080
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
}

func (c *Config) Validate() error {
	switch c.Scoring.Provider {
	case "http":
		if c.Scoring.BaseURL == "" {
			return fmt.Errorf("scoring.base_url is required for the http provider")
		}
	case "llm":
		if c.Scoring.APIKey == "" {
			return fmt.Errorf("scoring.api_key is required for the llm provider")
		}
	default:
		return fmt.Errorf("unknown scoring.provider %q", c.Scoring.Provider)
	}
	if c.Quote.BaseURL == "" {
		return fmt.Errorf("quote.base_url is required")
	}
	if c.Wallet.BaseURL == "" {
		return fmt.Errorf("wallet.base_url is required")
	}
	if _, err := time.ParseDuration(c.Monitor.Interval); err != nil {
		return fmt.Errorf("invalid monitor.interval %q: %w", c.Monitor.Interval, err)
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

func (c *Config) MonitorInterval() time.Duration {
	d, _ := time.ParseDuration(c.Monitor.Interval)
	return d
}

func (c *Config) ScoringTimeout() time.Duration {
	return time.Duration(c.Scoring.TimeoutSeconds) * time.Second
}

func (c *Config) QuoteTimeout() time.Duration {
	return time.Duration(c.Quote.TimeoutSeconds) * time.Second
}

func (c *Config) WalletTimeout() time.Duration {
	return time.Duration(c.Wallet.TimeoutSeconds) * time.Second
}
