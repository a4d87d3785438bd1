// Package config loads the formskema CLI configuration.
package config

import (
	"fmt"
	"os"
	"runtime"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	formskema "github.com/reoring/formskema"
	"github.com/reoring/formskema/schema"
)

// Config is the root configuration structure.
type Config struct {
	// Schema is a built-in schema name or a path to a schema YAML file.
	Schema string `yaml:"schema"`
	// Format overrides the schema's document format.
	Format    string `yaml:"format"`
	Mode      string `yaml:"mode"`
	FailFast  bool   `yaml:"fail_fast"`
	BlankRows string `yaml:"blank_rows"`
	Workers   int    `yaml:"workers"`
	Timezone  string `yaml:"timezone"`

	Input   InputConfig   `yaml:"input"`
	Output  OutputConfig  `yaml:"output"`
	Ledger  LedgerConfig  `yaml:"ledger"`
	Metrics MetricsConfig `yaml:"metrics"`
	Logging LoggingConfig `yaml:"logging"`
}

// InputConfig locates source documents.
type InputConfig struct {
	Dir string `yaml:"dir"`
	// Settle is how long a watched file must stay unchanged before it is read.
	Settle time.Duration `yaml:"settle"`
	// IDs is "stem" (file name without extension) or "uuid".
	IDs string `yaml:"ids"`
}

// OutputConfig locates the staging directories.
type OutputConfig struct {
	Dir      string `yaml:"dir"`       // valid records
	ErrorDir string `yaml:"error_dir"` // issue reports and failed sources
	DoneDir  string `yaml:"done_dir"`  // processed sources; empty leaves them in place
	// Check validates every record against the exported JSON Schema before
	// it is written.
	Check bool `yaml:"check"`
}

// LedgerConfig configures the SQLite run ledger.
type LedgerConfig struct {
	Path string `yaml:"path"` // empty disables the ledger
}

// MetricsConfig configures the Prometheus endpoint.
type MetricsConfig struct {
	Addr string `yaml:"addr"` // empty disables the endpoint
}

// LoggingConfig configures the logger.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // json or console
}

// Load reads configuration from a YAML file. An empty path yields the
// defaults with environment overrides applied.
func Load(path string) (*Config, error) {
	var cfg Config
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		data = []byte(os.ExpandEnv(string(data)))
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	applyEnvOverrides(&cfg)
	setDefaults(&cfg)

	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return &cfg, nil
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("FORMSKEMA_SCHEMA"); v != "" {
		cfg.Schema = v
	}
	if v := os.Getenv("FORMSKEMA_FORMAT"); v != "" {
		cfg.Format = v
	}
	if v := os.Getenv("FORMSKEMA_MODE"); v != "" {
		cfg.Mode = v
	}
	if v := os.Getenv("FORMSKEMA_FAIL_FAST"); v != "" {
		cfg.FailFast = parseBool(v)
	}
	if v := os.Getenv("FORMSKEMA_BLANK_ROWS"); v != "" {
		cfg.BlankRows = v
	}
	if v := os.Getenv("FORMSKEMA_WORKERS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Workers = n
		}
	}
	if v := os.Getenv("FORMSKEMA_TIMEZONE"); v != "" {
		cfg.Timezone = v
	}
	if v := os.Getenv("FORMSKEMA_INPUT_DIR"); v != "" {
		cfg.Input.Dir = v
	}
	if v := os.Getenv("FORMSKEMA_OUTPUT_DIR"); v != "" {
		cfg.Output.Dir = v
	}
	if v := os.Getenv("FORMSKEMA_ERROR_DIR"); v != "" {
		cfg.Output.ErrorDir = v
	}
	if v := os.Getenv("FORMSKEMA_DONE_DIR"); v != "" {
		cfg.Output.DoneDir = v
	}
	if v := os.Getenv("FORMSKEMA_LEDGER_PATH"); v != "" {
		cfg.Ledger.Path = v
	}
	if v := os.Getenv("FORMSKEMA_METRICS_ADDR"); v != "" {
		cfg.Metrics.Addr = v
	}
	if v := os.Getenv("FORMSKEMA_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("FORMSKEMA_LOG_FORMAT"); v != "" {
		cfg.Logging.Format = v
	}
}

func parseBool(v string) bool {
	v = strings.ToLower(strings.TrimSpace(v))
	return v == "true" || v == "1" || v == "yes" || v == "on"
}

func setDefaults(cfg *Config) {
	if cfg.Mode == "" {
		cfg.Mode = "strict"
	}
	if cfg.BlankRows == "" {
		cfg.BlankRows = "keep"
	}
	if cfg.Workers == 0 {
		cfg.Workers = runtime.NumCPU()
	}
	if cfg.Timezone == "" {
		cfg.Timezone = "America/New_York"
	}

	if cfg.Input.Dir == "" {
		cfg.Input.Dir = "IN"
	}
	if cfg.Input.Settle == 0 {
		cfg.Input.Settle = 200 * time.Millisecond
	}
	if cfg.Input.IDs == "" {
		cfg.Input.IDs = "stem"
	}
	if cfg.Output.Dir == "" {
		cfg.Output.Dir = "OUT"
	}
	if cfg.Output.ErrorDir == "" {
		cfg.Output.ErrorDir = "ERROR"
	}

	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "console"
	}
}

func validate(cfg *Config) error {
	if _, err := formskema.ParseMode(cfg.Mode); err != nil {
		return fmt.Errorf("mode: %w", err)
	}
	if _, err := schema.ParseBlankRowPolicy(cfg.BlankRows); err != nil {
		return fmt.Errorf("blank_rows: %w", err)
	}
	if cfg.Format != "" && cfg.Format != "html" && cfg.Format != "xml" {
		return fmt.Errorf("format must be 'html' or 'xml', got %q", cfg.Format)
	}
	if cfg.Workers < 0 {
		return fmt.Errorf("workers must be positive, got %d", cfg.Workers)
	}
	if _, err := time.LoadLocation(cfg.Timezone); err != nil {
		return fmt.Errorf("timezone: %w", err)
	}
	if cfg.Input.IDs != "stem" && cfg.Input.IDs != "uuid" {
		return fmt.Errorf("input.ids must be 'stem' or 'uuid', got %q", cfg.Input.IDs)
	}
	validFormats := map[string]bool{"json": true, "console": true}
	if !validFormats[cfg.Logging.Format] {
		return fmt.Errorf("logging.format must be 'json' or 'console', got %q", cfg.Logging.Format)
	}
	validLevels := map[string]bool{"trace": true, "debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[cfg.Logging.Level] {
		return fmt.Errorf("logging.level must be one of: trace, debug, info, warn, error")
	}
	return nil
}

// Location returns the configured zone for datetimes without one.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// ParsedMode returns the strictness mode.
func (c *Config) ParsedMode() formskema.Mode {
	m, _ := formskema.ParseMode(c.Mode)
	return m
}

// BlankRowPolicy returns the engine-wide blank row policy.
func (c *Config) BlankRowPolicy() schema.BlankRowPolicy {
	p, _ := schema.ParseBlankRowPolicy(c.BlankRows)
	return p
}
