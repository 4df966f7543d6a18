package shared

import (
	"os"
	"path/filepath"
	"testing"
)

func TestConfig(t *testing.T) {
	t.Run("Defaults", func(t *testing.T) {
		config := DefaultConfig()

		if config.Providers.Detector != "generative" {
			t.Errorf("expected generative default detector, got %s", config.Providers.Detector)
		}
		if config.Providers.Classifier.ConfidenceThreshold != 0.3 {
			t.Errorf("expected default threshold 0.3, got %f", config.Providers.Classifier.ConfidenceThreshold)
		}
		if config.Providers.Vision.ImageSize != "512x512" {
			t.Errorf("expected 512x512 image size, got %s", config.Providers.Vision.ImageSize)
		}
		if config.Storage.ImageDir == "" {
			t.Error("expected a default image directory")
		}
	})

	t.Run("LoadConfig", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.toml")
		contents := `
[providers]
detector = "classifier"

[providers.classifier]
api_key = "test-key"
confidence_threshold = 0.5

[storage]
database_path = "test.db"
image_dir = "imgs"
`
		if err := os.WriteFile(path, []byte(contents), 0644); err != nil {
			t.Fatalf("failed to write config: %v", err)
		}

		config, err := LoadConfig(path)
		if err != nil {
			t.Fatalf("failed to load config: %v", err)
		}

		if config.Providers.Detector != "classifier" {
			t.Errorf("expected classifier, got %s", config.Providers.Detector)
		}
		if config.Providers.Classifier.ConfidenceThreshold != 0.5 {
			t.Errorf("expected threshold 0.5, got %f", config.Providers.Classifier.ConfidenceThreshold)
		}
	})

	t.Run("LoadConfig Missing File", func(t *testing.T) {
		if _, err := LoadConfig(filepath.Join(t.TempDir(), "nope.toml")); err == nil {
			t.Error("expected error for missing config file")
		}
	})

	t.Run("Environment Overlay", func(t *testing.T) {
		t.Setenv("CLOSET_VISION_API_KEY", "env-key")

		config := DefaultConfig()
		if config.Providers.Vision.APIKey != "env-key" {
			t.Errorf("expected env credential overlay, got %q", config.Providers.Vision.APIKey)
		}
	})

	t.Run("CreateConfigFile", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.toml")

		if err := CreateConfigFile(path); err != nil {
			t.Fatalf("failed to create config file: %v", err)
		}
		if _, err := os.Stat(path); err != nil {
			t.Fatalf("config file not written: %v", err)
		}
		if err := CreateConfigFile(path); err == nil {
			t.Error("expected error when config file already exists")
		}
	})
}
