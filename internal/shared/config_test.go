package shared

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/charmbracelet/log"
)

func TestConfig(t *testing.T) {
	t.Run("DefaultConfig", func(t *testing.T) {
		config := DefaultConfig()

		if config.Scan.Root != "./Songs" {
			t.Errorf("expected scan root ./Songs, got %s", config.Scan.Root)
		}
		if config.Scan.MinRating != 7 || config.Scan.MaxRating != 10 {
			t.Errorf("expected rating bounds 7..10, got %d..%d", config.Scan.MinRating, config.Scan.MaxRating)
		}
		if config.Scan.Style != "dance-single" {
			t.Errorf("expected style dance-single, got %s", config.Scan.Style)
		}
		if len(config.Scan.Encodings) != 4 || config.Scan.Encodings[0] != "utf-8" {
			t.Errorf("unexpected encodings %v", config.Scan.Encodings)
		}
		if config.Selection.Threshold != 0.25 {
			t.Errorf("expected threshold 0.25, got %v", config.Selection.Threshold)
		}
		if config.Selection.MaxMistakeFraction != 0.1 {
			t.Errorf("expected max mistake fraction 0.1, got %v", config.Selection.MaxMistakeFraction)
		}
		if config.Output.MistakeFile != "potential-mistake.txt" {
			t.Errorf("expected mistake file potential-mistake.txt, got %s", config.Output.MistakeFile)
		}
		if config.Database.Path != "./packfilter.db" {
			t.Errorf("expected database path ./packfilter.db, got %s", config.Database.Path)
		}
		if err := config.Validate(); err != nil {
			t.Errorf("default config should be valid: %v", err)
		}
	})

	t.Run("CreateConfigFile", func(t *testing.T) {
		configPath := filepath.Join(t.TempDir(), "config.toml")

		if err := CreateConfigFile(configPath); err != nil {
			t.Fatalf("failed to create config file: %v", err)
		}

		if _, err := os.Stat(configPath); err != nil {
			t.Fatalf("config file should exist: %v", err)
		}

		config, err := LoadConfig(configPath)
		if err != nil {
			t.Fatalf("failed to load created config: %v", err)
		}

		if config.Scan.Root != DefaultConfig().Scan.Root {
			t.Errorf("created config scan root doesn't match default")
		}

		if err := CreateConfigFile(configPath); err == nil {
			t.Error("creating config file again should fail")
		}
	})

	t.Run("LoadConfig", func(t *testing.T) {
		configPath := filepath.Join(t.TempDir(), "config.toml")

		testConfig := `[scan]
root = "/games/ITGMania/Songs"
min_rating = 10
max_rating = 13
encodings = ["utf-8", "shift_jis"]

[selection]
threshold = 0.5

[output]
dir = "/tmp/out"
`
		if err := os.WriteFile(configPath, []byte(testConfig), 0644); err != nil {
			t.Fatalf("failed to write test config: %v", err)
		}

		config, err := LoadConfig(configPath)
		if err != nil {
			t.Fatalf("failed to load config: %v", err)
		}

		if config.Scan.Root != "/games/ITGMania/Songs" {
			t.Errorf("expected custom root, got %s", config.Scan.Root)
		}
		if config.Scan.MinRating != 10 || config.Scan.MaxRating != 13 {
			t.Errorf("expected bounds 10..13, got %d..%d", config.Scan.MinRating, config.Scan.MaxRating)
		}
		if len(config.Scan.Encodings) != 2 || config.Scan.Encodings[1] != "shift_jis" {
			t.Errorf("expected encodings to be replaced, got %v", config.Scan.Encodings)
		}
		if config.Selection.Threshold != 0.5 {
			t.Errorf("expected threshold 0.5, got %v", config.Selection.Threshold)
		}
		if config.Selection.MaxMistakeFraction != 0.1 {
			t.Errorf("expected default max mistake fraction to survive, got %v", config.Selection.MaxMistakeFraction)
		}
		if config.Scan.Style != "dance-single" {
			t.Errorf("expected default style to survive, got %s", config.Scan.Style)
		}
		if got := config.Output.ResultPath(); got != filepath.Join("/tmp/out", "result.txt") {
			t.Errorf("unexpected result path %s", got)
		}
	})

	t.Run("LoadConfig missing file", func(t *testing.T) {
		if _, err := LoadConfig(filepath.Join(t.TempDir(), "nope.toml")); err == nil {
			t.Error("expected error for missing config file")
		}
	})

	t.Run("LoadConfig rejects invalid values", func(t *testing.T) {
		configPath := filepath.Join(t.TempDir(), "config.toml")
		if err := os.WriteFile(configPath, []byte("[scan]\nmin_rating = 12\nmax_rating = 3\n"), 0644); err != nil {
			t.Fatalf("failed to write test config: %v", err)
		}

		_, err := LoadConfig(configPath)
		if !errors.Is(err, ErrInvalidConfig) {
			t.Errorf("expected ErrInvalidConfig, got %v", err)
		}
	})
}

func TestConfigValidate(t *testing.T) {
	tc := []struct {
		name   string
		mutate func(*Config)
	}{
		{"empty root", func(c *Config) { c.Scan.Root = "" }},
		{"inverted bounds", func(c *Config) { c.Scan.MinRating, c.Scan.MaxRating = 5, 4 }},
		{"empty style", func(c *Config) { c.Scan.Style = "" }},
		{"unknown encoding", func(c *Config) { c.Scan.Encodings = []string{"utf-8", "klingon"} }},
		{"threshold above one", func(c *Config) { c.Selection.Threshold = 1.5 }},
		{"negative mistake fraction", func(c *Config) { c.Selection.MaxMistakeFraction = -0.1 }},
		{"empty output name", func(c *Config) { c.Output.ResultFile = "" }},
		{"bad log level", func(c *Config) { c.Log.Level = "loud" }},
	}

	for _, tt := range tc {
		t.Run(tt.name, func(t *testing.T) {
			config := DefaultConfig()
			tt.mutate(config)
			if err := config.Validate(); !errors.Is(err, ErrInvalidConfig) {
				t.Errorf("expected ErrInvalidConfig, got %v", err)
			}
		})
	}

	t.Run("equal bounds are valid", func(t *testing.T) {
		config := DefaultConfig()
		config.Scan.MinRating, config.Scan.MaxRating = 9, 9
		if err := config.Validate(); err != nil {
			t.Errorf("expected valid config, got %v", err)
		}
	})

	t.Run("LogLevel", func(t *testing.T) {
		config := DefaultConfig()
		config.Log.Level = "debug"
		lvl, err := config.LogLevel()
		if err != nil || lvl != log.DebugLevel {
			t.Errorf("expected debug level, got %v (%v)", lvl, err)
		}

		config.Log.Level = ""
		if lvl, _ := config.LogLevel(); lvl != log.InfoLevel {
			t.Errorf("expected info level by default, got %v", lvl)
		}
	})
}
