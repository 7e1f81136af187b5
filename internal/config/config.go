// Package config provides configuration management for the journal client.
package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/spf13/viper"

	apperrors "trade-journal/internal/errors"
	"trade-journal/internal/logging"
)

// Bounds of the heatmap window, in weeks.
const (
	MinHeatmapWeeks = 1
	MaxHeatmapWeeks = 52
)

// Config holds all application configuration.
type Config struct {
	API     APIConfig     `mapstructure:"api"`
	Journal JournalConfig `mapstructure:"journal"`
	UI      UIConfig      `mapstructure:"ui"`
	Logging LoggingConfig `mapstructure:"logging"`

	// Dir is the directory the config was loaded from.
	Dir string `mapstructure:"-"`
}

// APIConfig holds the journal backend connection settings.
type APIConfig struct {
	BaseURL    string        `mapstructure:"base_url"`
	CSRFPath   string        `mapstructure:"csrf_path"`
	CSRFCookie string        `mapstructure:"csrf_cookie"`
	CSRFHeader string        `mapstructure:"csrf_header"`
	Timeout    time.Duration `mapstructure:"timeout"`
}

// JournalConfig holds settings for date bucketing and views.
type JournalConfig struct {
	Timezone     string `mapstructure:"timezone"`
	HeatmapWeeks int    `mapstructure:"heatmap_weeks"`
}

// UIConfig holds UI-related configuration.
type UIConfig struct {
	ColorEnabled   bool   `mapstructure:"color_enabled"`
	DateFormat     string `mapstructure:"date_format"`
	CurrencySymbol string `mapstructure:"currency_symbol"`
}

// LoggingConfig holds log level and sink settings.
type LoggingConfig struct {
	Level string `mapstructure:"level"`
	File  bool   `mapstructure:"file"`
}

// DefaultConfigDir returns the default configuration directory.
func DefaultConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".config/trade-journal"
	}
	return filepath.Join(home, ".config", "trade-journal")
}

// Load loads configuration from the specified directory.
// If configDir is empty, uses the default config directory. A missing
// config.toml is replaced by the template and loading continues.
func Load(configDir string) (*Config, error) {
	if configDir == "" {
		configDir = DefaultConfigDir()
	}

	cfg := &Config{Dir: configDir}

	if err := loadConfigFile(configDir, "config", cfg); err != nil {
		return nil, fmt.Errorf("%w: loading config.toml: %w", apperrors.ErrConfigInvalid, err)
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("api.base_url", "http://localhost:8000")
	v.SetDefault("api.csrf_path", "/sanctum/csrf-cookie")
	v.SetDefault("api.csrf_cookie", "XSRF-TOKEN")
	v.SetDefault("api.csrf_header", "X-XSRF-TOKEN")
	v.SetDefault("api.timeout", "0s")
	v.SetDefault("journal.timezone", "Local")
	v.SetDefault("journal.heatmap_weeks", 6)
	v.SetDefault("ui.color_enabled", true)
	v.SetDefault("ui.date_format", "Mon 02 Jan 2006")
	v.SetDefault("ui.currency_symbol", "$")
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.file", true)
}

func loadConfigFile(configDir, name string, target *Config) error {
	v := viper.New()
	v.SetConfigName(name)
	v.SetConfigType("toml")
	v.AddConfigPath(configDir)
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return err
		}
		if err := createTemplateConfig(configDir, name); err != nil {
			return err
		}
		if err := v.ReadInConfig(); err != nil {
			return err
		}
	}

	return v.Unmarshal(target)
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("TRADEJOURNAL_API_URL"); v != "" {
		cfg.API.BaseURL = v
	}
	if v := os.Getenv("TRADEJOURNAL_TIMEZONE"); v != "" {
		cfg.Journal.Timezone = v
	}
	if v := os.Getenv("TRADEJOURNAL_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("TRADEJOURNAL_HEATMAP_WEEKS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Journal.HeatmapWeeks = n
		}
	}
}

// Validate validates the configuration. Every error wraps
// errors.ErrConfigInvalid.
func (c *Config) Validate() error {
	u, err := url.Parse(c.API.BaseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("%w: api.base_url %q must be an http or https URL", apperrors.ErrConfigInvalid, c.API.BaseURL)
	}
	if c.API.Timeout < 0 {
		return fmt.Errorf("%w: api.timeout must be non-negative", apperrors.ErrConfigInvalid)
	}
	if _, err := c.Location(); err != nil {
		return fmt.Errorf("%w: journal.timezone: %w", apperrors.ErrConfigInvalid, err)
	}
	if c.Journal.HeatmapWeeks < MinHeatmapWeeks || c.Journal.HeatmapWeeks > MaxHeatmapWeeks {
		return fmt.Errorf("%w: journal.heatmap_weeks must be between %d and %d",
			apperrors.ErrConfigInvalid, MinHeatmapWeeks, MaxHeatmapWeeks)
	}
	if !logging.ValidLevel(c.Logging.Level) {
		return fmt.Errorf("%w: logging.level %q is not a level", apperrors.ErrConfigInvalid, c.Logging.Level)
	}
	return nil
}

// Location resolves the configured journal timezone. "Local" and the empty
// string both mean the machine's local zone.
func (c *Config) Location() (*time.Location, error) {
	switch c.Journal.Timezone {
	case "", "Local", "local":
		return time.Local, nil
	}
	return time.LoadLocation(c.Journal.Timezone)
}

// LogConfig builds the logger configuration for this config directory.
func (c *Config) LogConfig() logging.LogConfig {
	lc := logging.DefaultLogConfig()
	lc.Level = c.Logging.Level
	lc.File = c.Logging.File
	if c.Dir != "" {
		lc.FilePath = filepath.Join(c.Dir, "logs", "tradejournal.log")
	}
	return lc
}

// DatabasePath returns the path of the local cache database.
func (c *Config) DatabasePath() string {
	dir := c.Dir
	if dir == "" {
		dir = DefaultConfigDir()
	}
	return filepath.Join(dir, "journal.db")
}
