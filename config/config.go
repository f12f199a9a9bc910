// Package config loads and validates the runtime configuration for the
// orchestration loop and execution engine. Configuration is supplied as YAML
// (or built programmatically); state never lives here.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/hupe1980/agentloop/code"
)

// Config holds the externally supplied knobs.
type Config struct {
	// SecurityLevel gates which Python imports executed code may use:
	// strict, medium, or permissive.
	SecurityLevel string `yaml:"security_level"`

	// DefaultTimeoutSeconds bounds each code execution when the request
	// carries no explicit timeout.
	DefaultTimeoutSeconds int `yaml:"default_timeout_seconds"`

	// MaxRounds bounds decide/dispatch/integrate iterations per user turn.
	MaxRounds int `yaml:"max_rounds"`

	// MaxOutputChars truncates captured stdout/stderr per execution.
	MaxOutputChars int `yaml:"max_output_chars"`

	// SummaryBudgetChars bounds return-value summaries.
	SummaryBudgetChars int `yaml:"summary_budget_chars"`

	// PythonBin is the interpreter used for execution workers.
	PythonBin string `yaml:"python_bin"`

	// Logging configures the structured logger.
	Logging LoggingConfig `yaml:"logging"`
}

// LoggingConfig selects log level and output format.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // json or text
}

// Default returns the baseline configuration.
func Default() *Config {
	return &Config{
		SecurityLevel:         "medium",
		DefaultTimeoutSeconds: 30,
		MaxRounds:             8,
		MaxOutputChars:        10000,
		SummaryBudgetChars:    2048,
		PythonBin:             "python3",
		Logging:               LoggingConfig{Level: "info", Format: "json"},
	}
}

// Load reads a YAML file on top of the defaults and validates the result.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	return Parse(data)
}

// Parse decodes YAML bytes on top of the defaults and validates the result.
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: parse yaml: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects configurations the engine cannot run with.
func (c *Config) Validate() error {
	if _, err := code.ParseSecurityLevel(c.SecurityLevel); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if c.DefaultTimeoutSeconds <= 0 {
		return fmt.Errorf("config: default_timeout_seconds must be positive, got %d", c.DefaultTimeoutSeconds)
	}
	if c.MaxRounds <= 0 {
		return fmt.Errorf("config: max_rounds must be positive, got %d", c.MaxRounds)
	}
	if c.MaxOutputChars <= 0 {
		return fmt.Errorf("config: max_output_chars must be positive, got %d", c.MaxOutputChars)
	}
	if c.SummaryBudgetChars <= 0 {
		return fmt.Errorf("config: summary_budget_chars must be positive, got %d", c.SummaryBudgetChars)
	}
	if c.PythonBin == "" {
		return fmt.Errorf("config: python_bin must not be empty")
	}
	switch c.Logging.Format {
	case "", "json", "text":
	default:
		return fmt.Errorf("config: logging.format must be json or text, got %q", c.Logging.Format)
	}
	return nil
}

// Level returns the parsed security level. Validate must have passed.
func (c *Config) Level() code.SecurityLevel {
	level, _ := code.ParseSecurityLevel(c.SecurityLevel)
	return level
}

// DefaultTimeout returns the default execution timeout as a duration.
func (c *Config) DefaultTimeout() time.Duration {
	return time.Duration(c.DefaultTimeoutSeconds) * time.Second
}
