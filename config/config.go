package config

import (
	"runtime"
	"time"

	"github.com/kbukum/linepipe/catalog"
	"github.com/kbukum/linepipe/logger"
	"github.com/kbukum/linepipe/observability"
	"github.com/kbukum/linepipe/pipeline"
	"github.com/kbukum/linepipe/util"
	"github.com/kbukum/linepipe/validation"
)

// ServiceName names the config and .env files the loader searches for.
const ServiceName = "linepipe"

// DefaultMaxLineSize bounds a single record when max_line_size is unset or
// unparsable.
const DefaultMaxLineSize = 1024 * 1024

// Config is the complete run configuration.
type Config struct {
	Name             string               `yaml:"name" mapstructure:"name"`
	RunID            string               `yaml:"run_id,omitempty" mapstructure:"run_id"`
	Logging          logger.Config        `yaml:"logging" mapstructure:"logging"`
	Input            string               `yaml:"input" mapstructure:"input"`
	Output           string               `yaml:"output" mapstructure:"output"`
	MaxLineSize      string               `yaml:"max_line_size" mapstructure:"max_line_size"`
	Pipeline         PipelineConfig       `yaml:"pipeline" mapstructure:"pipeline"`
	Stats            StatsConfig          `yaml:"stats" mapstructure:"stats"`
	Telemetry        observability.Config `yaml:"telemetry" mapstructure:"telemetry"`
	ProgressInterval time.Duration        `yaml:"progress_interval" mapstructure:"progress_interval" validate:"gte=0"`
}

// PipelineConfig selects the element type, the operation chain and the
// degree of parallelism.
type PipelineConfig struct {
	Type       string   `yaml:"type" mapstructure:"type"`
	Operations []string `yaml:"operations" mapstructure:"operations"`
	Workers    int      `yaml:"workers" mapstructure:"workers"`
	// RateLimit caps records per second; 0 means unlimited. At most
	// pipeline.MaxRateLimit.
	RateLimit float64 `yaml:"rate_limit" mapstructure:"rate_limit"`
}

// StatsConfig controls what the run statistics count.
type StatsConfig struct {
	Measure  string `yaml:"measure" mapstructure:"measure" validate:"oneof=output input"`
	Distinct string `yaml:"distinct" mapstructure:"distinct" validate:"oneof=exact hashed"`
}

// Default returns the configuration used before any file, environment or
// flag is applied.
func Default() Config {
	return Config{
		Name: ServiceName,
		Logging: logger.Config{
			Level:     "warn",
			Format:    "console",
			Output:    "stderr",
			Timestamp: true,
		},
		MaxLineSize: "1MB",
		Pipeline: PipelineConfig{
			Type:    "text",
			Workers: runtime.NumCPU(),
		},
		Stats: StatsConfig{
			Measure:  "output",
			Distinct: "exact",
		},
		// service name follows Name in ApplyDefaults
		Telemetry:        observability.DefaultConfig(""),
		ProgressInterval: 5 * time.Second,
	}
}

// Load builds the effective configuration: defaults, then the config file,
// .env and environment. Flags are applied by the caller afterwards.
func Load(opts ...LoaderOption) (*Config, error) {
	cfg := Default()
	if err := LoadConfig(ServiceName, &cfg, opts...); err != nil {
		return nil, err
	}
	cfg.ApplyDefaults()
	return &cfg, nil
}

// ApplyDefaults fills fields left empty by the loaded sources. Numeric
// fields are not touched so an explicit zero stays visible to Validate.
func (c *Config) ApplyDefaults() {
	c.Name = util.Coalesce(c.Name, ServiceName)
	c.Logging.ApplyDefaults()
	c.MaxLineSize = util.Coalesce(c.MaxLineSize, "1MB")
	c.Pipeline.Type = util.Coalesce(c.Pipeline.Type, "text")
	c.Stats.Measure = util.Coalesce(c.Stats.Measure, "output")
	c.Stats.Distinct = util.Coalesce(c.Stats.Distinct, "exact")
	c.Telemetry.ServiceName = util.Coalesce(c.Telemetry.ServiceName, c.Name)
	c.Telemetry.ApplyDefaults()
}

// Validate checks struct tags first, then the semantic rules that need other
// packages. Any failure is an INVALID_CONFIG error.
func (c *Config) Validate() error {
	if err := validation.Validate(c); err != nil {
		return err
	}

	v := validation.New().
		Required("name", c.Name).
		Required("pipeline.type", c.Pipeline.Type).
		Min("pipeline.workers", c.Pipeline.Workers, 1).
		Range("pipeline.rate_limit", c.Pipeline.RateLimit, 0, pipeline.MaxRateLimit)
	if c.Pipeline.Type != "" {
		_, err := catalog.ParseElementType(c.Pipeline.Type)
		v.Check("pipeline.type", err)
	}
	v.Check("logging", c.Logging.Validate())
	v.Check("telemetry", c.Telemetry.Validate())
	v.OptionalUUID("run_id", c.RunID)
	v.Custom(util.ParseSize(c.MaxLineSize, -1) > 0, "max_line_size", "must be a positive size such as 64KB or 1MB")
	return v.Validate()
}

// MaxLineBytes returns max_line_size in bytes.
func (c *Config) MaxLineBytes() int {
	return int(util.ParseSize(c.MaxLineSize, DefaultMaxLineSize))
}

// GetName returns the application name.
func (c *Config) GetName() string { return c.Name }

// GetLogging returns the logging section.
func (c *Config) GetLogging() logger.Config { return c.Logging }
