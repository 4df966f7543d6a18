package main

import (
	"bytes"
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/desertthunder/closet/internal/shared"
	tu "github.com/desertthunder/closet/internal/testing"
)

// tempConfig builds a config whose storage lives under a per-test directory.
func tempConfig(t *testing.T) *shared.Config {
	t.Helper()
	dir := t.TempDir()
	config := shared.DefaultConfig()
	config.Storage.DatabasePath = filepath.Join(dir, "closet.db")
	config.Storage.ImageDir = filepath.Join(dir, "images")
	return config
}

func TestRunner(t *testing.T) {
	t.Run("NewRunner", func(t *testing.T) {
		t.Run("with all dependencies provided", func(t *testing.T) {
			config := shared.DefaultConfig()
			logger := shared.NewLogger(nil)
			output := &bytes.Buffer{}
			httpClient := &http.Client{}

			runner := NewRunner(RunnerOpts{
				Config:     config,
				Logger:     logger,
				Output:     output,
				HTTPClient: httpClient,
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
			if runner.httpClient != httpClient {
				t.Error("expected httpClient to be set")
			}
		})

		t.Run("with nil config uses defaults", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Config: nil})
			if runner.config == nil {
				t.Error("expected default config to be set")
			}
		})

		t.Run("with nil logger uses default", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Logger: nil})
			if runner.logger == nil {
				t.Error("expected default logger to be set")
			}
		})

		t.Run("with nil output uses stdout", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Output: nil})
			if runner.output != os.Stdout {
				t.Error("expected output to default to os.Stdout")
			}
		})

		t.Run("with nil httpClient uses default", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{HTTPClient: nil})
			if runner.httpClient != http.DefaultClient {
				t.Error("expected httpClient to default to http.DefaultClient")
			}
		})
	})

	t.Run("ensureStorage", func(t *testing.T) {
		t.Run("opens store cache and repositories", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Config: tempConfig(t)})

			if err := runner.ensureStorage(); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if runner.store == nil || runner.cache == nil {
				t.Error("expected store and cache to be opened")
			}
			if runner.articles == nil || runner.outfits == nil {
				t.Error("expected repositories to be wired")
			}
			if _, err := os.Stat(runner.config.Storage.ImageDir); err != nil {
				t.Errorf("expected image directory to exist: %v", err)
			}
		})

		t.Run("is idempotent", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Config: tempConfig(t)})

			if err := runner.ensureStorage(); err != nil {
				t.Fatalf("first call failed: %v", err)
			}
			store := runner.store
			if err := runner.ensureStorage(); err != nil {
				t.Fatalf("second call failed: %v", err)
			}
			if runner.store != store {
				t.Error("expected the same store on repeat calls")
			}
		})

		t.Run("wraps open failure", func(t *testing.T) {
			config := tempConfig(t)
			config.Storage.DatabasePath = filepath.Join(config.Storage.DatabasePath, "impossible", "closet.db")
			runner := NewRunner(RunnerOpts{Config: config})

			if err := runner.ensureStorage(); !errors.Is(err, shared.ErrStoreUnavailable) {
				t.Errorf("expected ErrStoreUnavailable, got %v", err)
			}
		})
	})

	t.Run("ensurePipeline", func(t *testing.T) {
		t.Run("builds the configured variant", func(t *testing.T) {
			config := tempConfig(t)
			config.Providers.Vision.APIKey = "k"
			runner := NewRunner(RunnerOpts{Config: config})

			if err := runner.ensurePipeline(); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if runner.pipeline == nil {
				t.Error("expected pipeline to be built")
			}
		})

		t.Run("rejects unknown provider", func(t *testing.T) {
			config := tempConfig(t)
			config.Providers.Detector = "oracle"
			runner := NewRunner(RunnerOpts{Config: config})

			if err := runner.ensurePipeline(); !errors.Is(err, shared.ErrUnknownProvider) {
				t.Errorf("expected ErrUnknownProvider, got %v", err)
			}
		})
	})

	t.Run("writeJSON", func(t *testing.T) {
		t.Run("writes formatted JSON successfully", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			err := runner.writeJSON(map[string]string{"key": "value"}, true)
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

			err := runner.writeJSON(map[string]string{"key": "value"}, false)
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			expected := `{"key":"value"}` + "\n"
			if output.String() != expected {
				t.Errorf("expected %q, got %q", expected, output.String())
			}
		})

		t.Run("handles marshal error with non-serializable data", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Output: &bytes.Buffer{}})

			// channels cannot be marshaled to JSON
			err := runner.writeJSON(make(chan int), false)
			if err == nil {
				t.Fatal("expected error for non-serializable data")
			}
			if !strings.Contains(err.Error(), "failed to marshal JSON") {
				t.Errorf("expected marshal error, got %v", err)
			}
		})

		t.Run("handles write failure", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Output: &tu.FWriter{}})

			err := runner.writeJSON(map[string]string{"key": "value"}, false)
			if err == nil {
				t.Fatal("expected error from failing writer")
			}
			if !strings.Contains(err.Error(), "failed to write output") {
				t.Errorf("expected write error, got %v", err)
			}
		})
	})

	t.Run("writePlain", func(t *testing.T) {
		t.Run("writes plain text successfully", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			if err := runner.writePlain("hello %s", "world"); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if output.String() != "hello world" {
				t.Errorf("expected 'hello world', got %q", output.String())
			}
		})

		t.Run("handles write failure", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Output: &tu.FWriter{}})

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

		if len(commands) == 0 {
			t.Error("expected at least one command to be registered")
		}
		for i, cmd := range commands {
			if cmd == nil {
				t.Errorf("command at index %d is nil", i)
			}
		}
	})
}
