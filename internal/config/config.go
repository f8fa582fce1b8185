// Package config handles configuration loading for BondTrack.
// It supports YAML config files with environment variable overrides.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Config represents the complete application configuration.
type Config struct {
	Database DatabaseConfig `mapstructure:"database" yaml:"database"`
	Sources  SourcesConfig  `mapstructure:"sources"  yaml:"sources"`
	Engine   EngineConfig   `mapstructure:"engine"   yaml:"engine"`
	API      APIConfig      `mapstructure:"api"      yaml:"api"`
	Logging  LoggingConfig  `mapstructure:"logging"  yaml:"logging"`
}

// DatabaseConfig holds the Postgres connection settings.
type DatabaseConfig struct {
	URL string `mapstructure:"url" yaml:"url"` // pgx connection string; empty selects the in-memory store
}

// SourcesConfig holds the upstream endpoints the ETL downloads from.
type SourcesConfig struct {
	ANBIMACurveURL string   `mapstructure:"anbima_curve_url" yaml:"anbima_curve_url"`
	ANBIMARateURLs []string `mapstructure:"anbima_rate_urls" yaml:"anbima_rate_urls"` // templates with {date} = yymmdd
	SNDTradesURL   string   `mapstructure:"snd_trades_url"   yaml:"snd_trades_url"` // template with {date} = yyyymmdd
	SNDRegistryURL string   `mapstructure:"snd_registry_url" yaml:"snd_registry_url"`
	NewsFeedURL    string   `mapstructure:"news_feed_url"    yaml:"news_feed_url"`
	TimeoutSec     int      `mapstructure:"timeout_sec"      yaml:"timeout_sec"`
	RequestsPerMin int      `mapstructure:"requests_per_min" yaml:"requests_per_min"`
	LookbackDays   int      `mapstructure:"lookback_days"    yaml:"lookback_days"` // business days tried when a file is missing
}

// EngineConfig holds merge-engine settings.
type EngineConfig struct {
	CacheTTL int `mapstructure:"cache_ttl" yaml:"cache_ttl"` // seconds, read cache per reference date
}

// APIConfig holds HTTP API server settings.
type APIConfig struct {
	Host        string   `mapstructure:"host"         yaml:"host"`
	Port        int      `mapstructure:"port"         yaml:"port"`
	CORSOrigins []string `mapstructure:"cors_origins" yaml:"cors_origins"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"  yaml:"level"`  // "debug", "info", "warn", "error"
	Format string `mapstructure:"format" yaml:"format"` // "console" or "json"
}

// Load reads the configuration from file and environment variables.
// Config file search order:
//  1. ./config/config.yaml (project root)
//  2. ~/.bondtrack/config.yaml (home directory)
//  3. /etc/bondtrack/config.yaml (system)
//
// Environment variables override config file values.
// Format: BONDTRACK_<SECTION>_<KEY>, e.g., BONDTRACK_DATABASE_URL
func Load() (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./config")
	v.AddConfigPath(filepath.Join(homeDir(), ".bondtrack"))
	v.AddConfigPath("/etc/bondtrack")

	v.SetEnvPrefix("BONDTRACK")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found: use defaults + env vars
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	overrideFromEnv(&cfg)
	return &cfg, nil
}

// LoadFromFile reads configuration from a specific file path.
func LoadFromFile(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigFile(path)
	v.SetEnvPrefix("BONDTRACK")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("error reading config file %s: %w", path, err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	overrideFromEnv(&cfg)
	return &cfg, nil
}

// setDefaults sets sensible defaults for all config values.
func setDefaults(v *viper.Viper) {
	// Database: empty URL selects the in-memory store (tests, offline demo).
	v.SetDefault("database.url", "")

	// Sources
	v.SetDefault("sources.anbima_curve_url", "https://www.anbima.com.br/informacoes/est-termo/CZ-down.asp")
	v.SetDefault("sources.anbima_rate_urls", []string{
		"https://www.anbima.com.br/informacoes/merc-sec/arqs/md{date}.txt",
		"https://www.anbima.com.br/informacoes/merc-sec-debentures/arqs/d{date}.txt",
	})
	v.SetDefault("sources.snd_trades_url", "https://www.debentures.com.br/exploreosnd/consultaadados/mercadosecundario/precosdenegociacao_e.asp?op_exc=Nada&dt_ini={date}&dt_fim={date}")
	v.SetDefault("sources.snd_registry_url", "https://www.debentures.com.br/exploreosnd/consultaadados/emissoesdedebentures/caracteristicas_e.asp?tip_deb=publicas")
	v.SetDefault("sources.news_feed_url", "https://www.anbima.com.br/feed/")
	v.SetDefault("sources.timeout_sec", 30)
	v.SetDefault("sources.requests_per_min", 30)
	v.SetDefault("sources.lookback_days", 3)

	// Engine
	v.SetDefault("engine.cache_ttl", 60)

	// API
	v.SetDefault("api.host", "0.0.0.0")
	v.SetDefault("api.port", 8080)
	v.SetDefault("api.cors_origins", []string{"http://localhost:3000"})

	// Logging
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")
}

// overrideFromEnv explicitly reads sensitive keys from environment variables.
func overrideFromEnv(cfg *Config) {
	if url := os.Getenv("BONDTRACK_DATABASE_URL"); url != "" {
		cfg.Database.URL = url
	}
	if cfg.Database.URL == "" {
		// Compatibility with plain DATABASE_URL deployments.
		cfg.Database.URL = os.Getenv("DATABASE_URL")
	}
}

// homeDir returns the user's home directory.
func homeDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return home
}
