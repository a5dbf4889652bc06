package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/desertthunder/packfilter/internal/shared"
	tu "github.com/desertthunder/packfilter/internal/testing"
	"github.com/urfave/cli/v3"
)

func newTestRunner(output io.Writer) *Runner {
	return NewRunner(RunnerOpts{Logger: shared.NewLogger(io.Discard), Output: output})
}

// writeTestConfig writes a config pointing at root with outputs and the database inside dir.
func writeTestConfig(t *testing.T, dir, root string) string {
	t.Helper()
	content := fmt.Sprintf(`[scan]
root = %q

[output]
dir = %q

[database]
path = %q

[log]
level = "error"
`, root, filepath.Join(dir, "out"), filepath.Join(dir, "history.db"))
	return tu.WriteFile(t, dir, "config.toml", content)
}

// configAction runs loadConfig inside a real command so flags are parsed.
func configAction(t *testing.T, r *Runner, args ...string) (*shared.Config, error) {
	t.Helper()
	var (
		config *shared.Config
		err    error
	)
	cmd := &cli.Command{
		Name:  "probe",
		Flags: []cli.Flag{configFlag()},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			config, err = r.loadConfig(cmd)
			return nil
		},
	}
	if runErr := cmd.Run(context.Background(), append([]string{"probe"}, args...)); runErr != nil {
		t.Fatalf("command failed: %v", runErr)
	}
	return config, err
}

func TestRunner(t *testing.T) {
	t.Run("NewRunner", func(t *testing.T) {
		t.Run("with all dependencies provided", func(t *testing.T) {
			config := shared.DefaultConfig()
			logger := shared.NewLogger(nil)
			output := &bytes.Buffer{}

			runner := NewRunner(RunnerOpts{
				Config: config,
				Logger: logger,
				Output: output,
			})

			if runner.config != config {
				t.Error("expected config to be set")
			}
			if runner.logger != logger {
				t.Error("expected logger to be set")
			}
			if runner.output != output {
				t.Error("expected output to be set")
			}
		})

		t.Run("with nil config uses defaults", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{
				Config: nil,
			})

			if runner.config == nil {
				t.Error("expected default config to be set")
			}
		})

		t.Run("with nil logger uses default", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{
				Logger: nil,
			})

			if runner.logger == nil {
				t.Error("expected default logger to be set")
			}
		})

		t.Run("with nil output uses stdout", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{
				Output: nil,
			})

			if runner.output != os.Stdout {
				t.Error("expected stdout to be used")
			}
		})
	})

	t.Run("loadConfig", func(t *testing.T) {
		t.Run("missing file keeps defaults", func(t *testing.T) {
			runner := newTestRunner(&bytes.Buffer{})

			config, err := configAction(t, runner, "-c", filepath.Join(t.TempDir(), "none.toml"))
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if config != runner.config {
				t.Error("expected the runner's config")
			}
		})

		t.Run("loads file", func(t *testing.T) {
			dir := t.TempDir()
			runner := newTestRunner(&bytes.Buffer{})

			config, err := configAction(t, runner, "--config", writeTestConfig(t, dir, "/library"))
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if config.Scan.Root != "/library" || config.Scan.MinRating != 7 {
				t.Errorf("unexpected config %+v", config.Scan)
			}
			if runner.config != config {
				t.Error("expected runner config to be replaced")
			}
		})

		t.Run("invalid file", func(t *testing.T) {
			path := tu.WriteFile(t, t.TempDir(), "bad.toml", "[scan]\nmin_rating = 11\nmax_rating = 3\n")

			_, err := configAction(t, newTestRunner(&bytes.Buffer{}), "-c", path)
			if !errors.Is(err, shared.ErrInvalidConfig) {
				t.Errorf("expected ErrInvalidConfig, got %v", err)
			}
		})
	})

	t.Run("writeJSON", func(t *testing.T) {
		t.Run("writes formatted JSON successfully", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			data := map[string]string{"key": "value"}
			err := runner.writeJSON(data, true)

			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			result := output.String()
			if !strings.Contains(result, `"key": "value"`) {
				t.Errorf("expected formatted JSON, got %s", result)
			}
			if !strings.HasSuffix(result, "\n") {
				t.Error("expected output to end with newline")
			}
		})

		t.Run("writes compact JSON successfully", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			data := map[string]string{"key": "value"}
			err := runner.writeJSON(data, false)

			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			result := output.String()
			expected := `{"key":"value"}` + "\n"
			if result != expected {
				t.Errorf("expected %q, got %q", expected, result)
			}
		})

		t.Run("handles marshal error with non-serializable data", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			// channels cannot be marshaled to JSON
			data := make(chan int)
			err := runner.writeJSON(data, false)

			if err == nil {
				t.Fatal("expected error for non-serializable data")
			}
			if !strings.Contains(err.Error(), "failed to marshal JSON") {
				t.Errorf("expected marshal error, got %v", err)
			}
		})

		t.Run("handles write failure", func(t *testing.T) {
			failing := &tu.FWriter{}
			runner := NewRunner(RunnerOpts{Output: failing})

			data := map[string]string{"key": "value"}
			err := runner.writeJSON(data, false)

			if err == nil {
				t.Fatal("expected error from failing writer")
			}
			if !strings.Contains(err.Error(), "failed to write output") {
				t.Errorf("expected write error, got %v", err)
			}
		})

		t.Run("handles newline write failure", func(t *testing.T) {
			data := map[string]string{"key": "value"}
			limitedWriter := tu.NewLimitedWriter(1, 0, &bytes.Buffer{})
			runner := NewRunner(RunnerOpts{Output: &limitedWriter})

			err := runner.writeJSON(data, false)

			if err == nil {
				t.Fatal("expected error writing newline")
			}
			if !strings.Contains(err.Error(), "failed to write newline") {
				t.Errorf("expected newline write error, got %v", err)
			}
		})
	})

	t.Run("writePlain", func(t *testing.T) {
		t.Run("writes plain text successfully", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			err := runner.writePlain("hello %s", "world")

			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			result := output.String()
			if result != "hello world" {
				t.Errorf("expected 'hello world', got %q", result)
			}
		})

		t.Run("writes plain text without formatting", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			err := runner.writePlain("simple text")

			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			result := output.String()
			if result != "simple text" {
				t.Errorf("expected 'simple text', got %q", result)
			}
		})

		t.Run("handles write failure", func(t *testing.T) {
			failing := &tu.FWriter{}
			runner := NewRunner(RunnerOpts{Output: failing})

			err := runner.writePlain("test")

			if err == nil {
				t.Fatal("expected error from failing writer")
			}
			if !strings.Contains(err.Error(), "failed to write output") {
				t.Errorf("expected write error, got %v", err)
			}
		})
	})

	t.Run("register", func(t *testing.T) {
		runner := NewRunner(RunnerOpts{})
		commands := runner.register()

		names := map[string]bool{}
		for i, cmd := range commands {
			if cmd == nil {
				t.Fatalf("command at index %d is nil", i)
			}
			names[cmd.Name] = true
		}

		for _, name := range []string{"setup", "scan", "history", "tui"} {
			if !names[name] {
				t.Errorf("expected %s command to be registered", name)
			}
		}
	})

	t.Run("writePlainHeader", func(t *testing.T) {
		output := &bytes.Buffer{}
		runner := NewRunner(RunnerOpts{Output: output})

		runner.writePlainHeader("Title")

		if lines := strings.Split(strings.TrimSpace(output.String()), "\n"); len(lines) != 3 || lines[1] != "Title" {
			t.Errorf("unexpected header %q", output.String())
		}
	})
}
