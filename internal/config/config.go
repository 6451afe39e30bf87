// Package config handles configuration loading for stockinsight.
// It supports YAML config files, a .env file in the working directory and
// environment variable overrides.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/seenimoa/stockinsight/pkg/models"
)

// EnvPrefix is the prefix of environment overrides, e.g. STOCKINSIGHT_LLM_MODEL.
const EnvPrefix = "STOCKINSIGHT"

// Variables read directly from the environment.
const (
	EnvDeepSeekAPIKey  = "DEEPSEEK_API_KEY"
	EnvDeepSeekBaseURL = "DEEPSEEK_BASE_URL"
)

// Config represents the complete application configuration. It is built once
// per process and not mutated afterwards.
type Config struct {
	LLM        LLMConfig        `mapstructure:"llm"        yaml:"llm"`
	Analysis   AnalysisConfig   `mapstructure:"analysis"   yaml:"analysis"`
	DataSource DataSourceConfig `mapstructure:"datasource" yaml:"datasource"`
	Output     OutputConfig     `mapstructure:"output"     yaml:"output"`
	Logging    LoggingConfig    `mapstructure:"logging"    yaml:"logging"`
	Stocks     []models.Stock   `mapstructure:"stocks"     yaml:"stocks"`
}

// LLMConfig holds the narrative service settings.
type LLMConfig struct {
	APIKey            string  `mapstructure:"api_key"             yaml:"api_key"`
	BaseURL           string  `mapstructure:"base_url"            yaml:"base_url"`
	Model             string  `mapstructure:"model"               yaml:"model"`
	Temperature       float64 `mapstructure:"temperature"         yaml:"temperature"`
	RequestsPerMinute int     `mapstructure:"requests_per_minute" yaml:"requests_per_minute"` // 0 = unlimited
}

// AnalysisConfig holds pipeline settings.
type AnalysisConfig struct {
	HistoryDays int `mapstructure:"history_days" yaml:"history_days"`
	Concurrency int `mapstructure:"concurrency"  yaml:"concurrency"`
}

// DataSourceConfig holds market-data endpoint settings.
type DataSourceConfig struct {
	BaseURL    string `mapstructure:"base_url"    yaml:"base_url"`
	TimeoutSec int    `mapstructure:"timeout_sec" yaml:"timeout_sec"`
	CacheTTL   int    `mapstructure:"cache_ttl"   yaml:"cache_ttl"` // seconds, 0 disables
}

// OutputConfig holds report output settings.
type OutputConfig struct {
	Path   string `mapstructure:"path"   yaml:"path"`
	Format string `mapstructure:"format" yaml:"format"` // "json", "text" or "html"
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"  yaml:"level"`  // "debug", "info", "warn", "error"
	Format string `mapstructure:"format" yaml:"format"` // "text" or "json"
}

// Load reads the configuration from file and environment variables.
// Config file search order:
//  1. ./config/config.yaml (project root)
//  2. ~/.stockinsight/config.yaml (home directory)
//  3. /etc/stockinsight/config.yaml (system)
//
// A .env file in the working directory is loaded first without overriding
// variables that are already set. Environment variables override config file
// values. Format: STOCKINSIGHT_<SECTION>_<KEY>, e.g., STOCKINSIGHT_LLM_MODEL
func Load() (*Config, error) {
	loadDotEnv(".env")

	v := newViper()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./config")
	v.AddConfigPath(filepath.Join(homeDir(), ".stockinsight"))
	v.AddConfigPath("/etc/stockinsight")

	// Read config file (not required to exist)
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}
	return build(v)
}

// LoadFromFile reads configuration from a specific file path.
func LoadFromFile(path string) (*Config, error) {
	loadDotEnv(filepath.Join(filepath.Dir(path), ".env"))

	v := newViper()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("error reading config file %s: %w", path, err)
	}
	return build(v)
}

func newViper() *viper.Viper {
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

func build(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	overrideFromEnv(&cfg)
	cfg.Stocks = MergeStocks(cfg.Stocks, StocksFromEnv(os.Environ()))
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// setDefaults sets sensible defaults for all config values.
func setDefaults(v *viper.Viper) {
	// LLM defaults
	v.SetDefault("llm.api_key", "")
	v.SetDefault("llm.base_url", "https://api.deepseek.com")
	v.SetDefault("llm.model", "deepseek-chat")
	v.SetDefault("llm.temperature", 1.0)
	v.SetDefault("llm.requests_per_minute", 0)

	// Analysis defaults
	v.SetDefault("analysis.history_days", 120)
	v.SetDefault("analysis.concurrency", 1)

	// Data source defaults
	v.SetDefault("datasource.base_url", "https://push2his.eastmoney.com")
	v.SetDefault("datasource.timeout_sec", 15)
	v.SetDefault("datasource.cache_ttl", 300) // 5 minutes

	// Output defaults
	v.SetDefault("output.path", "public/report.json")
	v.SetDefault("output.format", "json")

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "text")
}

// overrideFromEnv explicitly reads the narrative service credentials.
func overrideFromEnv(cfg *Config) {
	if key := os.Getenv(EnvDeepSeekAPIKey); key != "" {
		cfg.LLM.APIKey = key
	}
	if url := os.Getenv(EnvDeepSeekBaseURL); url != "" {
		cfg.LLM.BaseURL = url
	}
}

// Validate checks value ranges.
func (c *Config) Validate() error {
	if c.Analysis.HistoryDays < 2 {
		return fmt.Errorf("config: analysis.history_days must be at least 2, got %d", c.Analysis.HistoryDays)
	}
	if c.Analysis.Concurrency < 1 {
		return fmt.Errorf("config: analysis.concurrency must be positive, got %d", c.Analysis.Concurrency)
	}
	if c.LLM.RequestsPerMinute < 0 {
		return fmt.Errorf("config: llm.requests_per_minute must not be negative, got %d", c.LLM.RequestsPerMinute)
	}
	switch c.Output.Format {
	case "json", "text", "html":
	default:
		return fmt.Errorf("config: unknown output.format %q", c.Output.Format)
	}
	return nil
}

// HasAPIKey reports whether a narrative service credential is configured.
func (c *Config) HasAPIKey() bool {
	return strings.TrimSpace(c.LLM.APIKey) != ""
}

// loadDotEnv loads path into the environment; a missing file is ignored.
func loadDotEnv(path string) {
	_ = godotenv.Load(path)
}

// homeDir returns the user's home directory.
func homeDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return home
}
