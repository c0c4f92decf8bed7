package app

import (
	"fmt"
	"os"
	"strings"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"

	coreconfig "github.com/m3rciful/kursbot/core/config"
	coredatabase "github.com/m3rciful/kursbot/core/database"
)

// defaultCurrencies mirror the buttons shown when the config stays silent.
var defaultCurrencies = []string{"USD", "EUR", "CNY", "KZT", "KGS", "BYN"}

// FeedConfig configures the Bank of Russia rate feed client.
type FeedConfig struct {
	// URL overrides the daily feed endpoint; empty uses the default.
	URL string `yaml:"url" envconfig:"CBR_URL"`
}

// BotConfig holds the bot's domain settings.
type BotConfig struct {
	// Currencies listed as keyboard buttons.
	Currencies []string `yaml:"currencies" envconfig:"BOT_CURRENCIES"`
	// StatsAllowedIDs limits /stats access; empty falls back to the admin id.
	StatsAllowedIDs []int64 `yaml:"stats_allowed_ids" envconfig:"STATS_ALLOWED_IDS"`
	// StatsRecentDays bounds the /stats history block.
	StatsRecentDays int `yaml:"stats_recent_days" envconfig:"STATS_RECENT_DAYS"`
}

// MetricsConfig controls the Prometheus HTTP endpoint.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled" envconfig:"METRICS_ENABLED"`
	Addr    string `yaml:"addr" envconfig:"METRICS_ADDR"`
}

// SessionsConfig selects where conversation state lives.
type SessionsConfig struct {
	// Backend is "memory" (default) or "redis".
	Backend  string `yaml:"backend" envconfig:"SESSIONS_BACKEND"`
	Addr     string `yaml:"addr" envconfig:"SESSIONS_REDIS_ADDR"`
	Password string `yaml:"password" envconfig:"SESSIONS_REDIS_PASSWORD"`
	DB       int    `yaml:"db" envconfig:"SESSIONS_REDIS_DB"`
	// TTLMinutes bounds redis session lifetime; 0 keeps sessions forever.
	TTLMinutes int `yaml:"ttl_minutes" envconfig:"SESSIONS_TTL_MINUTES"`
}

// Config aggregates core and bot-specific configuration.
type Config struct {
	Core     coreconfig.Config   `yaml:",inline"`
	Database coredatabase.Config `yaml:"database"`
	Feed     FeedConfig          `yaml:"feed"`
	Bot      BotConfig           `yaml:"bot"`
	Metrics  MetricsConfig       `yaml:"metrics"`
	Sessions SessionsConfig      `yaml:"sessions"`
}

// CoreConfig exposes the embedded core configuration for the shared runner.
func (c *Config) CoreConfig() *coreconfig.Config {
	return &c.Core
}

// LoadConfig reads the YAML config file and applies environment overrides.
func LoadConfig(path string) (*Config, error) {
	var cfg Config

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse YAML config: %w", err)
	}
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process env: %w", err)
	}

	if err := coreconfig.Normalize(&cfg.Core); err != nil {
		return nil, err
	}
	normalize(&cfg)
	return &cfg, nil
}

func normalize(cfg *Config) {
	currencies := make([]string, 0, len(cfg.Bot.Currencies))
	for _, c := range cfg.Bot.Currencies {
		code := strings.ToUpper(strings.TrimSpace(c))
		if code != "" {
			currencies = append(currencies, code)
		}
	}
	if len(currencies) == 0 {
		currencies = append(currencies, defaultCurrencies...)
	}
	cfg.Bot.Currencies = currencies

	if cfg.Bot.StatsRecentDays <= 0 {
		cfg.Bot.StatsRecentDays = 7
	}
	if len(cfg.Bot.StatsAllowedIDs) == 0 && cfg.Core.Telegram.AdminID != 0 {
		cfg.Bot.StatsAllowedIDs = []int64{cfg.Core.Telegram.AdminID}
	}

	if cfg.Metrics.Enabled && strings.TrimSpace(cfg.Metrics.Addr) == "" {
		cfg.Metrics.Addr = ":9090"
	}

	if strings.TrimSpace(cfg.Sessions.Backend) == "" {
		cfg.Sessions.Backend = "memory"
	}
	cfg.Sessions.Backend = strings.ToLower(strings.TrimSpace(cfg.Sessions.Backend))
}
