package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/deploymenttheory/go-judim/internal/disk"
)

// Checksum policies for tape archives
const (
	ChecksumWarn   = "warn"
	ChecksumStrict = "strict"
)

// Config holds toolkit configuration
type Config struct {
	// Geometry names the disk preset; GeometryOverride fields replace preset values
	Geometry         string              `mapstructure:"geometry" json:"geometry" yaml:"geometry"`
	GeometryOverride disk.ParamsOverride `mapstructure:"geometry_override" json:"geometry_override" yaml:"geometry_override"`
	// ImageFormat forces a container format: auto, raw, dsk or edsk
	ImageFormat    string `mapstructure:"image_format" json:"image_format" yaml:"image_format"`
	ChecksumPolicy string `mapstructure:"checksum_policy" json:"checksum_policy" yaml:"checksum_policy"`
	Output         string `mapstructure:"output" json:"output" yaml:"output"`
	LogLevel       string `mapstructure:"log_level" json:"log_level" yaml:"log_level"`
	Workers        int    `mapstructure:"workers" json:"workers" yaml:"workers"`
	Creator        string `mapstructure:"creator" json:"creator" yaml:"creator"`
	// Timeout bounds copy and explode runs, e.g. "30s"
	Timeout time.Duration `mapstructure:"timeout" json:"timeout" yaml:"timeout"`
}

// Load loads configuration using Viper.
// An explicit configFile must exist; otherwise the search paths are tried and
// a missing file falls back to defaults.
func Load(configFile string) (*Config, error) {
	v := viper.New()

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("judim-config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
		v.AddConfigPath("$HOME/.judim")
		v.AddConfigPath("/etc/judim")
	}

	// Set defaults
	v.SetDefault("geometry", disk.DefaultPreset)
	v.SetDefault("image_format", "auto")
	v.SetDefault("checksum_policy", ChecksumWarn)
	v.SetDefault("output", "table")
	v.SetDefault("log_level", "warn")
	v.SetDefault("workers", 4)
	v.SetDefault("creator", disk.DefaultCreator)
	v.SetDefault("timeout", 30*time.Second)

	// Allow environment variables, e.g. JUDIM_GEOMETRY
	v.SetEnvPrefix("JUDIM")
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found is OK, we'll use defaults
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &config, nil
}

// Validate checks enumerated settings
func (c *Config) Validate() error {
	switch strings.ToLower(c.ChecksumPolicy) {
	case ChecksumWarn, ChecksumStrict:
	default:
		return fmt.Errorf("invalid checksum policy %q: must be one of: warn, strict", c.ChecksumPolicy)
	}

	switch strings.ToLower(c.ImageFormat) {
	case "", "auto", string(disk.FormatRaw), string(disk.FormatDSK), string(disk.FormatEDSK):
	default:
		return fmt.Errorf("invalid image format %q: must be one of: auto, raw, dsk, edsk", c.ImageFormat)
	}

	if c.Workers < 1 {
		return fmt.Errorf("workers must be at least 1, got %d", c.Workers)
	}
	if c.Timeout < 0 {
		return fmt.Errorf("timeout must not be negative, got %s", c.Timeout)
	}
	return nil
}

// DiskGeometry builds the configured geometry: the preset with any overrides applied
func (c *Config) DiskGeometry() (*disk.Geometry, error) {
	name := c.Geometry
	if name == "" {
		name = disk.DefaultPreset
	}
	params, err := disk.LookupPreset(name)
	if err != nil {
		return nil, err
	}
	return disk.NewGeometry(params.Merge(c.GeometryOverride))
}

// DiskFormat returns the forced container format, or FormatDetected for auto
func (c *Config) DiskFormat() disk.ImageFormat {
	switch f := strings.ToLower(c.ImageFormat); f {
	case "", "auto":
		return disk.FormatDetected
	default:
		return disk.ImageFormat(f)
	}
}

// Strict reports whether checksum mismatches abort opening a tape
func (c *Config) Strict() bool {
	return strings.EqualFold(c.ChecksumPolicy, ChecksumStrict)
}
