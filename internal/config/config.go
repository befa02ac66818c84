package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"

	"github.com/papapumpkin/acreage/internal/allocation"
	"github.com/papapumpkin/acreage/internal/crop"
)

// DefaultSolveTimeout bounds a single pair solve unless configured otherwise.
const DefaultSolveTimeout = 5 * time.Second

// Config holds all runtime configuration for an acreage run.
// Values are populated from .acreage.yaml, ACREAGE_* env vars, and CLI flags.
type Config struct {
	TotalAcres    float64       `mapstructure:"total_acres"`
	MaxGrowthTime int           `mapstructure:"max_growth_time"`
	HorizonDays   int           `mapstructure:"horizon_days"`
	TopK          int           `mapstructure:"top_k"`
	MinAllocation float64       `mapstructure:"min_allocation"`
	Catalog       string        `mapstructure:"catalog"` // TOML file; empty selects Preset
	Preset        string        `mapstructure:"preset"`
	Workers       int           `mapstructure:"workers"`
	SolveTimeout  time.Duration `mapstructure:"solve_timeout"`
	TelemetryPath string        `mapstructure:"telemetry_path"`
	HistoryDB     string        `mapstructure:"history_db"`
	Verbose       bool          `mapstructure:"verbose"`
}

// Load reads configuration from viper, applying built-in defaults for any
// values not set by config file, environment, or flags, and validates the
// result.
func Load() (Config, error) {
	def := allocation.DefaultParams()
	viper.SetDefault("total_acres", def.TotalAcres)
	viper.SetDefault("max_growth_time", def.MaxGrowthTime)
	viper.SetDefault("horizon_days", def.HorizonDays)
	viper.SetDefault("top_k", allocation.DefaultTopK)
	viper.SetDefault("min_allocation", def.MinAllocation)
	viper.SetDefault("catalog", "")
	viper.SetDefault("preset", crop.DefaultPreset)
	viper.SetDefault("workers", 0)
	viper.SetDefault("solve_timeout", DefaultSolveTimeout)
	viper.SetDefault("telemetry_path", "")
	viper.SetDefault("history_db", "")
	viper.SetDefault("verbose", false)

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decoding config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Params projects the allocation parameters out of the configuration.
func (c Config) Params() allocation.Params {
	return allocation.Params{
		TotalAcres:    c.TotalAcres,
		MaxGrowthTime: c.MaxGrowthTime,
		HorizonDays:   c.HorizonDays,
		MinAllocation: c.MinAllocation,
	}
}

// Validate checks the allocation parameters and the run options.
func (c Config) Validate() error {
	if err := c.Params().Validate(); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if c.TopK < 0 {
		return fmt.Errorf("config: top_k must not be negative, got %d", c.TopK)
	}
	if c.Workers < 0 {
		return fmt.Errorf("config: workers must not be negative, got %d", c.Workers)
	}
	if c.SolveTimeout < 0 {
		return fmt.Errorf("config: solve_timeout must not be negative, got %s", c.SolveTimeout)
	}
	return nil
}

// LoadCatalog returns the configured catalog: the TOML file when Catalog is
// set, otherwise the named built-in preset.
func (c Config) LoadCatalog() (crop.Catalog, error) {
	if c.Catalog != "" {
		return crop.LoadCatalog(c.Catalog)
	}
	return crop.Preset(c.Preset)
}

// CatalogLabel describes where the catalog came from, for reports and history.
func (c Config) CatalogLabel() string {
	if c.Catalog != "" {
		return c.Catalog
	}
	return "preset:" + c.Preset
}
