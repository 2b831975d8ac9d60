package config

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/stlalpha/gbbsmsg/internal/gbbs"
	"github.com/stlalpha/gbbsmsg/internal/logging"
)

// DefaultFile is looked up in the working directory when --config is not given.
const DefaultFile = "gbbsmsgtool.json"

// Color modes for report output.
const (
	ColorAuto   = "auto"
	ColorAlways = "always"
	ColorNever  = "never"
)

// ToolConfig holds settings for gbbsmsgtool.
type ToolConfig struct {
	// MinMailLength drops mail fragments shorter than this after trimming.
	MinMailLength int `json:"min_mail_length" yaml:"min_mail_length"`
	// MinDataBytes is the non-null byte count a block must exceed to be
	// considered as holding data.
	MinDataBytes int `json:"min_data_bytes" yaml:"min_data_bytes"`
	// DateLayouts are extra Go time layouts for boards whose sysop changed
	// the header date format.
	DateLayouts []string `json:"date_layouts" yaml:"date_layouts"`
	// BlockMapWidth is the number of blocks per block map row.
	BlockMapWidth int `json:"block_map_width" yaml:"block_map_width"`
	// Color is one of auto, always, never.
	Color string `json:"color" yaml:"color"`
	// Log configures rotation for --log files.
	Log logging.Rotation `json:"log" yaml:"log"`
}

// Defaults returns the built-in configuration.
func Defaults() ToolConfig {
	return ToolConfig{
		MinMailLength: gbbs.MinMailLength,
		MinDataBytes:  gbbs.MinDataBytes,
		BlockMapWidth: 20,
		Color:         ColorAuto,
		Log: logging.Rotation{
			MaxSizeMB:  10,
			MaxAgeDays: 30,
			MaxBackups: 3,
		},
	}
}

// Load reads a configuration file. YAML is used for .yaml and .yml files,
// JSON otherwise. A missing file yields the defaults.
func Load(filePath string) (ToolConfig, error) {
	defaultConfig := Defaults()

	data, err := os.ReadFile(filePath)
	if err != nil {
		if os.IsNotExist(err) {
			logging.Debug("config %s not found, using defaults", filePath)
			return defaultConfig, nil
		}
		return defaultConfig, fmt.Errorf("failed to read config file %s: %w", filePath, err)
	}

	// Initialize with defaults before unmarshalling
	config := defaultConfig
	switch strings.ToLower(filepath.Ext(filePath)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &config)
	default:
		err = json.Unmarshal(data, &config)
	}
	if err != nil {
		return defaultConfig, fmt.Errorf("failed to parse config from %s: %w", filePath, err)
	}

	if err := config.Validate(); err != nil {
		return defaultConfig, fmt.Errorf("invalid config %s: %w", filePath, err)
	}

	log.Printf("INFO: Loaded configuration from %s", filePath)
	return config, nil
}

// Validate checks value ranges.
func (c ToolConfig) Validate() error {
	switch c.Color {
	case ColorAuto, ColorAlways, ColorNever:
	default:
		return fmt.Errorf("color must be auto, always or never, got %q", c.Color)
	}
	if c.BlockMapWidth < 1 {
		return fmt.Errorf("block_map_width must be positive, got %d", c.BlockMapWidth)
	}
	if c.MinMailLength < 0 || c.MinDataBytes < 0 {
		return fmt.Errorf("thresholds must not be negative")
	}
	return nil
}

// ScanOptions converts the configuration to recovery options.
func (c ToolConfig) ScanOptions() gbbs.Options {
	return gbbs.Options{
		MinDataBytes:  c.MinDataBytes,
		MinMailLength: c.MinMailLength,
		Dates:         gbbs.DateParser{Layouts: c.DateLayouts},
	}
}
