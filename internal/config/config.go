// Package config loads git-harvest settings from file, environment and
// defaults.
package config

import "errors"

// Config is the top-level configuration struct for git-harvest.
// Field tags use mapstructure for viper unmarshalling.
type Config struct {
	Harvest    HarvestConfig    `mapstructure:"harvest"`
	Report     ReportConfig     `mapstructure:"report"`
	Checkpoint CheckpointConfig `mapstructure:"checkpoint"`
}

// HarvestConfig holds the traversal and pipeline settings.
type HarvestConfig struct {
	Workers     int      `mapstructure:"workers"`
	Order       string   `mapstructure:"order"`
	Strict      bool     `mapstructure:"strict"`
	FirstParent bool     `mapstructure:"first_parent"`
	Limit       int      `mapstructure:"limit"`
	Paths       []string `mapstructure:"paths"`
}

// ReportConfig holds report rendering settings.
type ReportConfig struct {
	Format  string `mapstructure:"format"`
	MaxRows int    `mapstructure:"max_rows"`
}

// CheckpointConfig holds checkpoint settings.
type CheckpointConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Dir     string `mapstructure:"dir"`
}

// Default configuration values.
const (
	DefaultOrder         = "topological"
	DefaultReportFormat  = "text"
	DefaultReportMaxRows = 20
)

// Known report formats.
var reportFormats = map[string]bool{
	"text": true,
	"yaml": true,
	"plot": true,
}

// Sentinel errors for configuration validation.
var (
	// ErrInvalidWorkers indicates the workers value is negative.
	ErrInvalidWorkers = errors.New("harvest.workers must be non-negative")
	// ErrInvalidLimit indicates the commit limit is negative.
	ErrInvalidLimit = errors.New("harvest.limit must be non-negative")
	// ErrInvalidFormat indicates an unknown report format.
	ErrInvalidFormat = errors.New("report.format must be one of text, yaml, plot")
	// ErrInvalidMaxRows indicates the row cap is not positive.
	ErrInvalidMaxRows = errors.New("report.max_rows must be positive")
)

// Validate checks the configuration for invalid values.
func (c *Config) Validate() error {
	if c.Harvest.Workers < 0 {
		return ErrInvalidWorkers
	}

	if c.Harvest.Limit < 0 {
		return ErrInvalidLimit
	}

	if !reportFormats[c.Report.Format] {
		return ErrInvalidFormat
	}

	if c.Report.MaxRows <= 0 {
		return ErrInvalidMaxRows
	}

	return nil
}
