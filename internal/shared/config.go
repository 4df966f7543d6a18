package shared

import (
	_ "embed"
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

//go:embed config.example.toml
var exampleConf []byte

// Config represents the application configuration loaded from a TOML file.
type Config struct {
	Providers ProvidersConfig `toml:"providers"`
	Storage   StorageConfig   `toml:"storage"`
	Pipeline  PipelineConfig  `toml:"pipeline"`
}

// ProvidersConfig contains provider selection and credentials.
//
// Credentials may be left empty in the file and supplied via environment
// variables (CLOSET_VISION_API_KEY, CLOSET_CLASSIFIER_API_KEY), optionally
// loaded from a .env file.
type ProvidersConfig struct {
	// Detector selects the detection variant: "classifier" or "generative".
	Detector   string           `toml:"detector"`
	Vision     VisionConfig     `toml:"vision"`
	Classifier ClassifierConfig `toml:"classifier"`
}

// VisionConfig contains credentials and endpoints for the description and
// image generation services.
type VisionConfig struct {
	APIKey      string `toml:"api_key"`
	BaseURL     string `toml:"base_url"`
	ImageSize   string `toml:"image_size"`
	MaxGarments int    `toml:"max_garments"`
}

// ClassifierConfig contains credentials for the label-detection service.
type ClassifierConfig struct {
	APIKey              string  `toml:"api_key"`
	BaseURL             string  `toml:"base_url"`
	ConfidenceThreshold float64 `toml:"confidence_threshold"`
}

// StorageConfig contains local persistence settings.
type StorageConfig struct {
	DatabasePath string `toml:"database_path"`
	ImageDir     string `toml:"image_dir"`
}

// PipelineConfig contains orchestration settings.
type PipelineConfig struct {
	// Concurrent enables the generation/caching fan-out to run candidates in parallel.
	Concurrent bool `toml:"concurrent"`
	// GenerationRPS bounds image generation calls per second.
	GenerationRPS float64 `toml:"generation_rps"`
}

// LoadConfig reads and parses a TOML configuration file from the specified path.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := toml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	config.applyEnv()
	return &config, nil
}

// DefaultConfig returns a Config with sensible defaults loaded from the embedded example config.
func DefaultConfig() *Config {
	var config Config
	if err := toml.Unmarshal(exampleConf, &config); err != nil {
		panic(fmt.Sprintf("failed to parse embedded default config: %v", err))
	}
	config.applyEnv()
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

// LoadEnv loads variables from a .env file if one exists at the given path.
// A missing file is not an error; explicit paths that fail to parse are.
func LoadEnv(path string) error {
	if path == "" {
		path = ".env"
	}
	if _, err := os.Stat(path); err != nil {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("failed to load env file: %w", err)
	}
	return nil
}

// applyEnv overlays credentials from the environment over file values.
func (c *Config) applyEnv() {
	if v := os.Getenv("CLOSET_VISION_API_KEY"); v != "" {
		c.Providers.Vision.APIKey = v
	}
	if v := os.Getenv("CLOSET_CLASSIFIER_API_KEY"); v != "" {
		c.Providers.Classifier.APIKey = v
	}
}
