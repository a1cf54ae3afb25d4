package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/pelletier/go-toml/v2"

	"github.com/jengzang/records-timeline/internal/analysis/segmentation"
	"github.com/jengzang/records-timeline/internal/classifier"
	"github.com/jengzang/records-timeline/internal/timeline"
)

// Config 应用配置
type Config struct {
	Port           string
	DBPath         string
	JWTSecret      string
	LogLevel       string
	ThresholdsFile string

	RateLimit  float64 // Requests per second per client
	RateBurst  int
	Segmenter  segmentation.Config
	Classifier ClassifierConfig
}

// ClassifierConfig holds classifier parameters
type ClassifierConfig struct {
	MaxFilteredAccuracy float64 // Meters
}

// File is the TOML layout of the thresholds file. Durations are in seconds,
// distances in meters. Omitted keys keep their defaults.
type File struct {
	Visit struct {
		MinimumValidDuration  *float64 `toml:"minimum_valid_duration"`
		MinimumKeeperDuration *float64 `toml:"minimum_keeper_duration"`
	} `toml:"visit"`
	Path struct {
		MinimumValidSamples   *int     `toml:"minimum_valid_samples"`
		MinimumValidDuration  *float64 `toml:"minimum_valid_duration"`
		MinimumValidDistance  *float64 `toml:"minimum_valid_distance"`
		MinimumKeeperDuration *float64 `toml:"minimum_keeper_duration"`
		MinimumKeeperDistance *float64 `toml:"minimum_keeper_distance"`
	} `toml:"path"`
	Segmenter struct {
		MaxGap *float64 `toml:"max_gap"`
	} `toml:"segmenter"`
	Classifier struct {
		MaxFilteredAccuracy *float64 `toml:"max_filtered_accuracy"`
	} `toml:"classifier"`
}

// Load 加载配置
func Load() (*Config, error) {
	cfg := &Config{
		Port:           getEnv("PORT", ":8080"),
		DBPath:         getEnv("DB_PATH", "./data/timeline/timeline.db"),
		JWTSecret:      getEnv("JWT_SECRET", "your-secret-key-change-in-production"),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		ThresholdsFile: os.Getenv("THRESHOLDS_FILE"),
		RateLimit:      20,
		RateBurst:      40,
		Segmenter:      segmentation.DefaultConfig(),
		Classifier: ClassifierConfig{
			MaxFilteredAccuracy: classifier.DefaultMaxFilteredAccuracy,
		},
	}

	if cfg.ThresholdsFile != "" {
		if err := cfg.ApplyFile(cfg.ThresholdsFile); err != nil {
			return nil, err
		}
	}

	return cfg, nil
}

// ApplyFile overlays a TOML thresholds file on the config
func (c *Config) ApplyFile(path string) error {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".toml" {
		return fmt.Errorf("thresholds file must have .toml extension, got %q", ext)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return fmt.Errorf("failed to read thresholds file: %w", err)
	}

	var f File
	if err := toml.Unmarshal(data, &f); err != nil {
		return fmt.Errorf("failed to parse thresholds file: %w", err)
	}

	f.apply(c)
	return c.Validate()
}

func (f *File) apply(c *Config) {
	t := &c.Segmenter.Thresholds
	setDuration(&t.Visit.MinimumValidDuration, f.Visit.MinimumValidDuration)
	setDuration(&t.Visit.MinimumKeeperDuration, f.Visit.MinimumKeeperDuration)
	if f.Path.MinimumValidSamples != nil {
		t.Path.MinimumValidSamples = *f.Path.MinimumValidSamples
	}
	setDuration(&t.Path.MinimumValidDuration, f.Path.MinimumValidDuration)
	setFloat(&t.Path.MinimumValidDistance, f.Path.MinimumValidDistance)
	setDuration(&t.Path.MinimumKeeperDuration, f.Path.MinimumKeeperDuration)
	setFloat(&t.Path.MinimumKeeperDistance, f.Path.MinimumKeeperDistance)
	setDuration(&c.Segmenter.MaxGap, f.Segmenter.MaxGap)
	setFloat(&c.Classifier.MaxFilteredAccuracy, f.Classifier.MaxFilteredAccuracy)
}

// Validate checks that thresholds are usable
func (c *Config) Validate() error {
	t := c.Segmenter.Thresholds
	if t.Visit.MinimumValidDuration < 0 || t.Path.MinimumValidDuration < 0 {
		return fmt.Errorf("valid durations must be non-negative")
	}
	if t.Path.MinimumValidSamples < 0 {
		return fmt.Errorf("minimum_valid_samples must be non-negative, got %d", t.Path.MinimumValidSamples)
	}
	if t.Path.MinimumValidDistance < 0 || t.Path.MinimumKeeperDistance < 0 {
		return fmt.Errorf("distances must be non-negative")
	}
	if t.Visit.MinimumKeeperDuration < t.Visit.MinimumValidDuration {
		return fmt.Errorf("visit keeper duration %s is below valid duration %s",
			t.Visit.MinimumKeeperDuration, t.Visit.MinimumValidDuration)
	}
	if t.Path.MinimumKeeperDuration < t.Path.MinimumValidDuration {
		return fmt.Errorf("path keeper duration %s is below valid duration %s",
			t.Path.MinimumKeeperDuration, t.Path.MinimumValidDuration)
	}
	if t.Path.MinimumKeeperDistance < t.Path.MinimumValidDistance {
		return fmt.Errorf("path keeper distance %.1f is below valid distance %.1f",
			t.Path.MinimumKeeperDistance, t.Path.MinimumValidDistance)
	}
	if c.Segmenter.MaxGap <= 0 {
		return fmt.Errorf("max_gap must be positive")
	}
	if c.Classifier.MaxFilteredAccuracy <= 0 {
		return fmt.Errorf("max_filtered_accuracy must be positive")
	}
	return nil
}

// Thresholds returns the segment thresholds in effect
func (c *Config) Thresholds() timeline.Thresholds {
	return c.Segmenter.Thresholds
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func setDuration(dst *time.Duration, seconds *float64) {
	if seconds != nil {
		*dst = time.Duration(*seconds * float64(time.Second))
	}
}

func setFloat(dst *float64, v *float64) {
	if v != nil {
		*dst = *v
	}
}
