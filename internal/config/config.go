package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Exclude          []string      `yaml:"exclude"`
	Workers          int           `yaml:"workers"`
	ProgressInterval time.Duration `yaml:"progress_interval"`
	Manifest         bool          `yaml:"manifest"`
	Report           ReportConfig  `yaml:"report"`
}

type ReportConfig struct {
	DuplicatesOnly bool `yaml:"duplicates_only"`
	PrintDigests   bool `yaml:"print_digests"`
}

func DefaultConfig() *Config {
	return &Config{
		Exclude: []string{
			".git/",
			".svn/",
			".hg/",
			".DS_Store",
			"Thumbs.db",
		},
		Workers:          0,
		ProgressInterval: time.Second,
		Manifest:         true,
		Report: ReportConfig{
			DuplicatesOnly: true,
			PrintDigests:   true,
		},
	}
}

// LoadConfig reads a YAML config file. A missing file yields DefaultConfig;
// keys absent from the file keep their default values.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultConfig(), nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config YAML: %w", err)
	}

	// Initialize Exclude slice if nil (for explicit empty lists)
	if cfg.Exclude == nil {
		cfg.Exclude = []string{}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	if c.Workers < 0 {
		return fmt.Errorf("workers must not be negative, got %d", c.Workers)
	}
	if c.ProgressInterval <= 0 {
		return fmt.Errorf("progress_interval must be positive, got %s", c.ProgressInterval)
	}
	return nil
}
