package cli

import (
	"bytes"
	"fmt"
	"os"

	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"
)

// Config is the optional YAML run configuration (--config).
// Command-line flags override file values.
//
//	database: ./hr.db
//	mapping: ./mappings
//	format: text
//	parallelism: 4
//	row_workers: 2
//	best_effort: false
//	skip_invalid_rows: true
//	max_rows: 100000
type Config struct {
	Database        string `yaml:"database"`
	Mapping         string `yaml:"mapping"`
	Format          string `yaml:"format"`
	Parallelism     int    `yaml:"parallelism"`
	RowWorkers      int    `yaml:"row_workers"`
	BestEffort      bool   `yaml:"best_effort"`
	SkipInvalidRows bool   `yaml:"skip_invalid_rows"`
	MaxRows         int    `yaml:"max_rows"`
}

// LoadConfig reads a YAML run configuration. Unknown keys are rejected.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}

	if cfg.Format != "" && !isValidFormat(cfg.Format) {
		return nil, fmt.Errorf("config %s: invalid format %q: must be one of %v", path, cfg.Format, ValidFormats)
	}
	if cfg.Parallelism < 0 || cfg.RowWorkers < 0 || cfg.MaxRows < 0 {
		return nil, fmt.Errorf("config %s: parallelism, row_workers and max_rows must be non-negative", path)
	}
	return &cfg, nil
}

// applyString sets *dst from the config unless the flag was given.
func applyString(flags *pflag.FlagSet, name string, dst *string, value string) {
	if value != "" && !flags.Changed(name) {
		*dst = value
	}
}

func applyInt(flags *pflag.FlagSet, name string, dst *int, value int) {
	if value != 0 && !flags.Changed(name) {
		*dst = value
	}
}

func applyBool(flags *pflag.FlagSet, name string, dst *bool, value bool) {
	if value && !flags.Changed(name) {
		*dst = value
	}
}
