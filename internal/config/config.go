// Package config provides configuration management for the scanner application.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/spf13/viper"

	"vcpscan/internal/analysis/vcp"
	apperrors "vcpscan/internal/errors"
	"vcpscan/internal/logging"
)

// Config holds all application configuration.
type Config struct {
	Pattern  PatternConfig     `mapstructure:"pattern"`
	Scan     ScanConfig        `mapstructure:"scan"`
	Data     DataConfig        `mapstructure:"data"`
	Database DatabaseConfig    `mapstructure:"database"`
	Logging  logging.LogConfig `mapstructure:"logging"`
}

// PatternConfig tunes the contraction detector. Fields mirror vcp.Config;
// the engine itself never reads files, so the CLI converts this via
// EngineConfig.
type PatternConfig struct {
	MinContractions           int           `mapstructure:"min_contractions"`
	MaxContractions           int           `mapstructure:"max_contractions"`
	MinDepthPct               float64       `mapstructure:"min_depth_pct"`
	MaxFirstDepthPct          float64       `mapstructure:"max_first_depth_pct"`
	DepthDecreaseRatio        float64       `mapstructure:"depth_decrease_ratio"`
	SwingWindow               int           `mapstructure:"swing_window"`
	MinSwingDistance          int           `mapstructure:"min_swing_distance"`
	VolumeDryUpThreshold      float64       `mapstructure:"volume_dryup_threshold"`
	RangeContractionThreshold float64       `mapstructure:"range_contraction_threshold"`
	PivotDistanceThreshold    float64       `mapstructure:"pivot_distance_threshold"`
	Weights                   WeightsConfig `mapstructure:"weights"`
}

// WeightsConfig splits the 100-point score across the five signals.
type WeightsConfig struct {
	Contractions     float64 `mapstructure:"contractions"`
	DepthProgression float64 `mapstructure:"depth_progression"`
	VolumeDryUp      float64 `mapstructure:"volume_dryup"`
	RangeTightening  float64 `mapstructure:"range_tightening"`
	PivotProximity   float64 `mapstructure:"pivot_proximity"`
}

// ScanConfig holds batch scan configuration.
type ScanConfig struct {
	Workers        int           `mapstructure:"workers"`
	MinScore       float64       `mapstructure:"min_score"`
	Timeout        time.Duration `mapstructure:"timeout"`
	RequireUptrend bool          `mapstructure:"require_uptrend"`
}

// DataConfig holds bar and universe file locations.
type DataConfig struct {
	BarsDir  string `mapstructure:"bars_dir"`
	Universe string `mapstructure:"universe"`
}

// DatabaseConfig holds persistence configuration.
type DatabaseConfig struct {
	Path string `mapstructure:"path"`
}

// EngineConfig converts the file representation into the detector's own
// configuration type.
func (p PatternConfig) EngineConfig() vcp.Config {
	return vcp.Config{
		MinContractions:           p.MinContractions,
		MaxContractions:           p.MaxContractions,
		MinDepthPct:               p.MinDepthPct,
		MaxFirstDepthPct:          p.MaxFirstDepthPct,
		DepthDecreaseRatio:        p.DepthDecreaseRatio,
		SwingWindow:               p.SwingWindow,
		MinSwingDistance:          p.MinSwingDistance,
		VolumeDryUpThreshold:      p.VolumeDryUpThreshold,
		RangeContractionThreshold: p.RangeContractionThreshold,
		PivotDistanceThreshold:    p.PivotDistanceThreshold,
		Weights: vcp.Weights{
			Contractions:     p.Weights.Contractions,
			DepthProgression: p.Weights.DepthProgression,
			VolumeDryUp:      p.Weights.VolumeDryUp,
			RangeTightening:  p.Weights.RangeTightening,
			PivotProximity:   p.Weights.PivotProximity,
		},
	}
}

// DefaultConfigDir returns the default configuration directory.
func DefaultConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".config", "vcpscan")
	}
	return filepath.Join(home, ".config", "vcpscan")
}

// Default returns the configuration used when no file overrides anything.
func Default() *Config {
	dir := DefaultConfigDir()
	engine := vcp.DefaultConfig()
	return &Config{
		Pattern: PatternConfig{
			MinContractions:           engine.MinContractions,
			MaxContractions:           engine.MaxContractions,
			MinDepthPct:               engine.MinDepthPct,
			MaxFirstDepthPct:          engine.MaxFirstDepthPct,
			DepthDecreaseRatio:        engine.DepthDecreaseRatio,
			SwingWindow:               engine.SwingWindow,
			MinSwingDistance:          engine.MinSwingDistance,
			VolumeDryUpThreshold:      engine.VolumeDryUpThreshold,
			RangeContractionThreshold: engine.RangeContractionThreshold,
			PivotDistanceThreshold:    engine.PivotDistanceThreshold,
			Weights: WeightsConfig{
				Contractions:     engine.Weights.Contractions,
				DepthProgression: engine.Weights.DepthProgression,
				VolumeDryUp:      engine.Weights.VolumeDryUp,
				RangeTightening:  engine.Weights.RangeTightening,
				PivotProximity:   engine.Weights.PivotProximity,
			},
		},
		Scan: ScanConfig{
			Workers:        4,
			MinScore:       60,
			Timeout:        5 * time.Minute,
			RequireUptrend: false,
		},
		Data: DataConfig{
			BarsDir:  filepath.Join(dir, "bars"),
			Universe: filepath.Join(dir, "universe.yaml"),
		},
		Database: DatabaseConfig{
			Path: filepath.Join(dir, "vcpscan.db"),
		},
		Logging: logging.DefaultLogConfig(),
	}
}

// Load loads configuration from the specified directory.
// If configDir is empty, uses the default config directory.
func Load(configDir string) (*Config, error) {
	if configDir == "" {
		configDir = DefaultConfigDir()
	}

	cfg := &Config{}
	if err := loadConfigFile(configDir, "config", cfg); err != nil {
		return nil, fmt.Errorf("loading config.toml: %w", err)
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

func loadConfigFile(configDir, name string, target *Config) error {
	v := viper.New()
	v.SetConfigName(name)
	v.SetConfigType("toml")
	v.AddConfigPath(configDir)
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			// Config file not found, create template
			return createTemplateConfig(configDir, name)
		}
		return err
	}

	return v.Unmarshal(target)
}

// setDefaults seeds every key so a partial file still yields a complete
// configuration.
func setDefaults(v *viper.Viper) {
	def := Default()

	v.SetDefault("pattern.min_contractions", def.Pattern.MinContractions)
	v.SetDefault("pattern.max_contractions", def.Pattern.MaxContractions)
	v.SetDefault("pattern.min_depth_pct", def.Pattern.MinDepthPct)
	v.SetDefault("pattern.max_first_depth_pct", def.Pattern.MaxFirstDepthPct)
	v.SetDefault("pattern.depth_decrease_ratio", def.Pattern.DepthDecreaseRatio)
	v.SetDefault("pattern.swing_window", def.Pattern.SwingWindow)
	v.SetDefault("pattern.min_swing_distance", def.Pattern.MinSwingDistance)
	v.SetDefault("pattern.volume_dryup_threshold", def.Pattern.VolumeDryUpThreshold)
	v.SetDefault("pattern.range_contraction_threshold", def.Pattern.RangeContractionThreshold)
	v.SetDefault("pattern.pivot_distance_threshold", def.Pattern.PivotDistanceThreshold)
	v.SetDefault("pattern.weights.contractions", def.Pattern.Weights.Contractions)
	v.SetDefault("pattern.weights.depth_progression", def.Pattern.Weights.DepthProgression)
	v.SetDefault("pattern.weights.volume_dryup", def.Pattern.Weights.VolumeDryUp)
	v.SetDefault("pattern.weights.range_tightening", def.Pattern.Weights.RangeTightening)
	v.SetDefault("pattern.weights.pivot_proximity", def.Pattern.Weights.PivotProximity)

	v.SetDefault("scan.workers", def.Scan.Workers)
	v.SetDefault("scan.min_score", def.Scan.MinScore)
	v.SetDefault("scan.timeout", def.Scan.Timeout.String())
	v.SetDefault("scan.require_uptrend", def.Scan.RequireUptrend)

	v.SetDefault("data.bars_dir", def.Data.BarsDir)
	v.SetDefault("data.universe", def.Data.Universe)

	v.SetDefault("database.path", def.Database.Path)

	v.SetDefault("logging.level", def.Logging.Level)
	v.SetDefault("logging.console", def.Logging.Console)
	v.SetDefault("logging.file", def.Logging.File)
	v.SetDefault("logging.file_path", def.Logging.FilePath)
	v.SetDefault("logging.max_size", def.Logging.MaxSize)
	v.SetDefault("logging.max_backups", def.Logging.MaxBackups)
	v.SetDefault("logging.max_age", def.Logging.MaxAge)
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("VCPSCAN_BARS_DIR"); v != "" {
		cfg.Data.BarsDir = v
	}
	if v := os.Getenv("VCPSCAN_UNIVERSE"); v != "" {
		cfg.Data.Universe = v
	}
	if v := os.Getenv("VCPSCAN_DB_PATH"); v != "" {
		cfg.Database.Path = v
	}
	if v := os.Getenv("VCPSCAN_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("VCPSCAN_MIN_SCORE"); v != "" {
		if score, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.Scan.MinScore = score
		}
	}
	if v := os.Getenv("VCPSCAN_WORKERS"); v != "" {
		if workers, err := strconv.Atoi(v); err == nil {
			cfg.Scan.Workers = workers
		}
	}
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if err := c.Pattern.EngineConfig().Validate(); err != nil {
		return err
	}
	if c.Scan.Workers < 0 {
		return apperrors.Wrapf(apperrors.ErrConfigInvalid, "scan workers must be non-negative, got %d", c.Scan.Workers)
	}
	if c.Scan.MinScore < 0 || c.Scan.MinScore > 100 {
		return apperrors.Wrapf(apperrors.ErrConfigInvalid, "scan min_score must be between 0 and 100, got %.1f", c.Scan.MinScore)
	}
	if c.Scan.Timeout < 0 {
		return apperrors.Wrapf(apperrors.ErrConfigInvalid, "scan timeout must be non-negative, got %s", c.Scan.Timeout)
	}
	if c.Data.BarsDir == "" {
		return apperrors.Wrapf(apperrors.ErrConfigInvalid, "data bars_dir must not be empty")
	}
	return nil
}
