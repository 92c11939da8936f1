// Package config provides configuration management for the analysis agent.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	"nifty-agent/internal/analysis"
	apperrors "nifty-agent/internal/errors"
)

// Parameter ranges accepted by the settings surface.
const (
	MinPeriod     = 5
	MaxPeriod     = 50
	MinOverbought = 60
	MaxOverbought = 90
	MinOversold   = 10
	MaxOversold   = 40
	MinSmoothing  = 1
	MaxSmoothing  = 10
)

// Source kinds.
const (
	SourceSimulated = "sim"
	SourceCSV       = "csv"
	SourceSQLite    = "sqlite"
)

// EnvPrefix prefixes environment overrides, e.g. NIFTY_AGENT_ANALYSIS_PERIOD.
const EnvPrefix = "NIFTY_AGENT"

// Config holds all application configuration.
type Config struct {
	Analysis AnalysisConfig `mapstructure:"analysis"`
	Source   SourceConfig   `mapstructure:"source"`
	Refresh  RefreshConfig  `mapstructure:"refresh"`
	Logging  LoggingConfig  `mapstructure:"logging"`
	Metrics  MetricsConfig  `mapstructure:"metrics"`
	UI       UIConfig       `mapstructure:"ui"`
}

// AnalysisConfig holds the RSI parameters.
type AnalysisConfig struct {
	Period     int `mapstructure:"period"`
	Overbought int `mapstructure:"overbought"`
	Oversold   int `mapstructure:"oversold"`
	Smoothing  int `mapstructure:"smoothing"`
}

// SourceConfig selects where candles come from.
type SourceConfig struct {
	Kind      string `mapstructure:"kind"` // sim, csv, sqlite
	Path      string `mapstructure:"path"`
	Symbol    string `mapstructure:"symbol"`
	Timeframe string `mapstructure:"timeframe"`
	Seed      int64  `mapstructure:"seed"`    // sim only, 0 = time seeded
	Candles   int    `mapstructure:"candles"` // sim only
}

// RefreshConfig controls the watch loop. Schedule, when set, is a cron
// expression and takes precedence over Interval.
type RefreshConfig struct {
	Interval time.Duration `mapstructure:"interval"`
	Schedule string        `mapstructure:"schedule"`
}

// LoggingConfig holds logger settings.
type LoggingConfig struct {
	Level    string `mapstructure:"level"`
	Console  bool   `mapstructure:"console"`
	File     bool   `mapstructure:"file"`
	FilePath string `mapstructure:"file_path"`
}

// MetricsConfig controls the Prometheus endpoint.
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Addr    string `mapstructure:"addr"`
}

// UIConfig holds UI-related configuration.
type UIConfig struct {
	ColorEnabled bool   `mapstructure:"color_enabled"`
	TimeFormat   string `mapstructure:"time_format"`
}

// DefaultConfigDir returns the default configuration directory.
func DefaultConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".config/nifty-agent"
	}
	return filepath.Join(home, ".config", "nifty-agent")
}

// ConfigPath returns the config file path inside configDir.
func ConfigPath(configDir string) string {
	if configDir == "" {
		configDir = DefaultConfigDir()
	}
	return filepath.Join(configDir, "config.toml")
}

// Default returns the built-in configuration.
func Default() *Config {
	v := viper.New()
	setDefaults(v)
	cfg := &Config{}
	_ = v.Unmarshal(cfg)
	return cfg
}

func setDefaults(v *viper.Viper) {
	d := analysis.DefaultParams()
	v.SetDefault("analysis.period", d.Period)
	v.SetDefault("analysis.overbought", d.Overbought)
	v.SetDefault("analysis.oversold", d.Oversold)
	v.SetDefault("analysis.smoothing", d.Smoothing)

	v.SetDefault("source.kind", SourceSimulated)
	v.SetDefault("source.path", "")
	v.SetDefault("source.symbol", "NIFTY 50")
	v.SetDefault("source.timeframe", "5min")
	v.SetDefault("source.seed", 0)
	v.SetDefault("source.candles", 75)

	v.SetDefault("refresh.interval", "5s")
	v.SetDefault("refresh.schedule", "")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.console", false)
	v.SetDefault("logging.file", true)
	v.SetDefault("logging.file_path", "")

	v.SetDefault("metrics.enabled", false)
	v.SetDefault("metrics.addr", ":9102")

	v.SetDefault("ui.color_enabled", true)
	v.SetDefault("ui.time_format", "15:04")
}

// Load loads configuration from the specified directory.
// If configDir is empty, uses the default config directory. A missing
// config file is replaced by the commented template and loading continues.
func Load(configDir string) (*Config, error) {
	if configDir == "" {
		configDir = DefaultConfigDir()
	}

	v := viper.New()
	setDefaults(v)
	v.SetConfigName("config")
	v.SetConfigType("toml")
	v.AddConfigPath(configDir)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("loading config.toml: %w", err)
		}
		if err := createTemplateConfig(configDir, "config"); err != nil {
			return nil, err
		}
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("loading config.toml: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if err := c.Analysis.Validate(); err != nil {
		return err
	}

	switch c.Source.Kind {
	case SourceSimulated:
	case SourceCSV, SourceSQLite:
		if c.Source.Path == "" {
			return apperrors.NewValidationError("source.path", c.Source.Path, "required for "+c.Source.Kind+" source")
		}
	default:
		return apperrors.NewValidationError("source.kind", c.Source.Kind, "must be one of sim, csv, sqlite")
	}

	if c.Refresh.Schedule == "" && c.Refresh.Interval <= 0 {
		return apperrors.NewValidationError("refresh.interval", c.Refresh.Interval, "must be positive")
	}

	return nil
}

// Validate checks the RSI parameters against the settings ranges.
func (a AnalysisConfig) Validate() error {
	checks := []struct {
		field    string
		value    int
		min, max int
	}{
		{"analysis.period", a.Period, MinPeriod, MaxPeriod},
		{"analysis.overbought", a.Overbought, MinOverbought, MaxOverbought},
		{"analysis.oversold", a.Oversold, MinOversold, MaxOversold},
		{"analysis.smoothing", a.Smoothing, MinSmoothing, MaxSmoothing},
	}
	for _, c := range checks {
		if c.value < c.min || c.value > c.max {
			return apperrors.NewValidationError(c.field, c.value,
				fmt.Sprintf("must be between %d and %d", c.min, c.max))
		}
	}
	return nil
}

// Clamp pins every parameter into its settings range.
func (a AnalysisConfig) Clamp() AnalysisConfig {
	a.Period = clampInt(a.Period, MinPeriod, MaxPeriod)
	a.Overbought = clampInt(a.Overbought, MinOverbought, MaxOverbought)
	a.Oversold = clampInt(a.Oversold, MinOversold, MaxOversold)
	a.Smoothing = clampInt(a.Smoothing, MinSmoothing, MaxSmoothing)
	return a
}

// Params converts the config into analysis parameters.
func (a AnalysisConfig) Params() analysis.Params {
	return analysis.Params{
		Period:     a.Period,
		Overbought: a.Overbought,
		Oversold:   a.Oversold,
		Smoothing:  a.Smoothing,
	}
}

func clampInt(v, min, max int) int {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}
