package shared

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
	"github.com/charmbracelet/log"
)

//go:embed config.example.toml
var exampleConf []byte

// Config represents the application configuration loaded from a TOML file.
type Config struct {
	Scan      ScanConfig      `toml:"scan"`
	Selection SelectionConfig `toml:"selection"`
	Output    OutputConfig    `toml:"output"`
	Database  DatabaseConfig  `toml:"database"`
	Log       LogConfig       `toml:"log"`
}

// ScanConfig controls which charts are read and how ratings are bounded.
type ScanConfig struct {
	Root      string   `toml:"root"`
	MinRating int      `toml:"min_rating"`
	MaxRating int      `toml:"max_rating"`
	Style     string   `toml:"style"`
	Encodings []string `toml:"encodings"`
}

// SelectionConfig holds the pack selection thresholds, both fractions in [0, 1].
type SelectionConfig struct {
	Threshold          float64 `toml:"threshold"`
	MaxMistakeFraction float64 `toml:"max_mistake_fraction"`
}

// OutputConfig names the plain-text files written after a scan.
type OutputConfig struct {
	Dir         string `toml:"dir"`
	DebugFile   string `toml:"debug_file"`
	ResultFile  string `toml:"result_file"`
	MistakeFile string `toml:"mistake_file"`
}

// DebugPath returns the debug listing path inside Dir.
func (o OutputConfig) DebugPath() string { return filepath.Join(o.Dir, o.DebugFile) }

// ResultPath returns the selected packs path inside Dir.
func (o OutputConfig) ResultPath() string { return filepath.Join(o.Dir, o.ResultFile) }

// MistakePath returns the potential mistakes path inside Dir.
func (o OutputConfig) MistakePath() string { return filepath.Join(o.Dir, o.MistakeFile) }

// DatabaseConfig contains database connection settings.
type DatabaseConfig struct {
	Path         string `toml:"path"`
	MaxOpenConns int    `toml:"max_open_conns"`
	MaxIdleConns int    `toml:"max_idle_conns"`
}

// LogConfig contains logger settings.
type LogConfig struct {
	Level string `toml:"level"`
}

// LoadConfig reads and parses a TOML configuration file from the specified path.
//
// Keys missing from the file keep the embedded defaults.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := toml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// DefaultConfig returns a Config with sensible defaults loaded from the embedded example config.
func DefaultConfig() *Config {
	var config Config
	if err := toml.Unmarshal(exampleConf, &config); err != nil {
		panic(fmt.Sprintf("failed to parse embedded default config: %v", err))
	}
	return &config
}

// CreateConfigFile creates a config.toml file at the specified path using the embedded example config.
func CreateConfigFile(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}

	if err := os.WriteFile(path, exampleConf, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Validate checks the rating bounds, selection fractions, encodings and log level.
func (c *Config) Validate() error {
	if c.Scan.Root == "" {
		return fmt.Errorf("%w: scan.root is empty", ErrInvalidConfig)
	}
	if c.Scan.MinRating > c.Scan.MaxRating {
		return fmt.Errorf("%w: scan.min_rating (%d) is greater than scan.max_rating (%d)",
			ErrInvalidConfig, c.Scan.MinRating, c.Scan.MaxRating)
	}
	if c.Scan.Style == "" {
		return fmt.Errorf("%w: scan.style is empty", ErrInvalidConfig)
	}
	if _, err := NewDecoder(c.Scan.Encodings); err != nil {
		return fmt.Errorf("%w: scan.encodings: %v", ErrInvalidConfig, err)
	}
	if c.Selection.Threshold < 0 || c.Selection.Threshold > 1 {
		return fmt.Errorf("%w: selection.threshold must be between 0 and 1, got %v", ErrInvalidConfig, c.Selection.Threshold)
	}
	if c.Selection.MaxMistakeFraction < 0 || c.Selection.MaxMistakeFraction > 1 {
		return fmt.Errorf("%w: selection.max_mistake_fraction must be between 0 and 1, got %v",
			ErrInvalidConfig, c.Selection.MaxMistakeFraction)
	}
	if c.Output.DebugFile == "" || c.Output.ResultFile == "" || c.Output.MistakeFile == "" {
		return fmt.Errorf("%w: output file names must not be empty", ErrInvalidConfig)
	}
	if _, err := c.LogLevel(); err != nil {
		return err
	}
	return nil
}

// LogLevel parses Log.Level, defaulting to info when unset.
func (c *Config) LogLevel() (log.Level, error) {
	if c.Log.Level == "" {
		return log.InfoLevel, nil
	}
	lvl, err := log.ParseLevel(c.Log.Level)
	if err != nil {
		return log.InfoLevel, fmt.Errorf("%w: log.level: %v", ErrInvalidConfig, err)
	}
	return lvl, nil
}
