package utils

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	errorsmod "cosmossdk.io/errors"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/oxygene76/exosky/internal/types"
)

// Config represents the application configuration
type Config struct {
	Data   DataConfig   `yaml:"data" mapstructure:"data"`
	Sky    SkyConfig    `yaml:"sky" mapstructure:"sky"`
	Export ExportConfig `yaml:"export" mapstructure:"export"`
	Server ServerConfig `yaml:"server" mapstructure:"server"`
	Log    LogConfig    `yaml:"log" mapstructure:"log"`
}

// DataConfig locates the two input tables and names their columns
type DataConfig struct {
	PlanetsFile string        `yaml:"planets_file" mapstructure:"planets_file"`
	StarsFile   string        `yaml:"stars_file" mapstructure:"stars_file"`
	Planets     PlanetColumns `yaml:"planet_columns" mapstructure:"planet_columns"`
	Stars       StarColumns   `yaml:"star_columns" mapstructure:"star_columns"`
}

// PlanetColumns maps planet fields to CSV header names
type PlanetColumns struct {
	Name     string `yaml:"name" mapstructure:"name"`
	RA       string `yaml:"ra" mapstructure:"ra"`
	Dec      string `yaml:"dec" mapstructure:"dec"`
	Distance string `yaml:"distance" mapstructure:"distance"`
}

// StarColumns maps star fields to CSV header names
type StarColumns struct {
	SourceID  string `yaml:"source_id" mapstructure:"source_id"`
	RA        string `yaml:"ra" mapstructure:"ra"`
	Dec       string `yaml:"dec" mapstructure:"dec"`
	Magnitude string `yaml:"magnitude" mapstructure:"magnitude"`
}

// SkyConfig contains the visibility filter settings
type SkyConfig struct {
	MagnitudeLimit float64 `yaml:"magnitude_limit" mapstructure:"magnitude_limit"`
	Radius         float64 `yaml:"radius" mapstructure:"radius"`
	HistogramBins  int     `yaml:"histogram_bins" mapstructure:"histogram_bins"`
}

// ExportConfig contains the static image settings
type ExportConfig struct {
	Dir          string  `yaml:"dir" mapstructure:"dir"`
	FileName     string  `yaml:"file_name" mapstructure:"file_name"`
	DPI          int     `yaml:"dpi" mapstructure:"dpi"`
	WidthInches  float64 `yaml:"width_in" mapstructure:"width_in"`
	HeightInches float64 `yaml:"height_in" mapstructure:"height_in"`
	PreviewWidth int     `yaml:"preview_width" mapstructure:"preview_width"`
}

// ServerConfig contains the HTTP server settings
type ServerConfig struct {
	Addr string `yaml:"addr" mapstructure:"addr"`
}

// LogConfig contains the logger settings
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"` // text or json
}

// DefaultConfig returns a default configuration
func DefaultConfig() *Config {
	return &Config{
		Data: DataConfig{
			PlanetsFile: filepath.Join("Output", "exoplanetas_procesados.csv"),
			StarsFile:   filepath.Join("Output", "estrellas.csv"),
			Planets: PlanetColumns{
				Name:     "pl_name",
				RA:       "ra",
				Dec:      "dec",
				Distance: "sy_dist",
			},
			Stars: StarColumns{
				SourceID:  "SOURCE_ID",
				RA:        "ra",
				Dec:       "dec",
				Magnitude: "phot_g_mean_mag",
			},
		},
		Sky: SkyConfig{
			MagnitudeLimit: 15,
			Radius:         90,
			HistogramBins:  50,
		},
		Export: ExportConfig{
			Dir:          ".",
			FileName:     "night_sky.png",
			DPI:          300,
			WidthInches:  20,
			HeightInches: 10,
			PreviewWidth: 800,
		},
		Server: ServerConfig{
			Addr: ":8501",
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// LoadConfig loads configuration from cfgFile, or from the default search
// paths when cfgFile is empty. A missing file in the search paths yields the
// defaults; a missing explicit cfgFile is an error.
func LoadConfig(cfgFile string) (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")

	// Seed viper with the defaults so every key is known to AutomaticEnv
	defaults, err := yaml.Marshal(DefaultConfig())
	if err != nil {
		return nil, fmt.Errorf("failed to marshal defaults: %w", err)
	}
	if err := v.ReadConfig(bytes.NewReader(defaults)); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	// Set environment variable prefix
	v.SetEnvPrefix("EXOSKY")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if cfgFile != "" {
		if _, err := os.Stat(cfgFile); err != nil {
			return nil, errorsmod.Wrapf(types.ErrMissingResource, "config file %s: %v", cfgFile, err)
		}
		v.SetConfigFile(cfgFile)
	} else {
		homeDir, _ := os.UserHomeDir()
		v.SetConfigName("config")
		v.AddConfigPath(filepath.Join(homeDir, ".exosky"))
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
	}

	if err := v.MergeInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	config := DefaultConfig()
	if err := v.Unmarshal(config); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	if err := validateConfig(config); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return config, nil
}

// SaveConfig writes the configuration as YAML to path
func SaveConfig(config *Config, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(config)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// GetConfigPath returns the path of the per-user config file
func GetConfigPath() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}

	return filepath.Join(homeDir, ".exosky", "config.yaml"), nil
}

// validateConfig validates the configuration
func validateConfig(config *Config) error {
	if config.Data.PlanetsFile == "" {
		return fmt.Errorf("planets file cannot be empty")
	}
	if config.Data.StarsFile == "" {
		return fmt.Errorf("stars file cannot be empty")
	}

	if config.Sky.Radius <= 0 || config.Sky.Radius > 180 {
		return fmt.Errorf("sky radius must be in (0, 180], got %v", config.Sky.Radius)
	}
	if config.Sky.HistogramBins <= 0 {
		return fmt.Errorf("histogram bins must be positive")
	}

	if config.Export.FileName == "" {
		return fmt.Errorf("export file name cannot be empty")
	}
	if filepath.Base(config.Export.FileName) != config.Export.FileName {
		return fmt.Errorf("export file name must not contain a directory: %s", config.Export.FileName)
	}
	if config.Export.DPI <= 0 {
		return fmt.Errorf("export DPI must be positive")
	}
	if config.Export.WidthInches <= 0 || config.Export.HeightInches <= 0 {
		return fmt.Errorf("export size must be positive")
	}

	switch strings.ToLower(config.Log.Format) {
	case "text", "json":
	default:
		return fmt.Errorf("invalid log format: %s", config.Log.Format)
	}

	return nil
}
