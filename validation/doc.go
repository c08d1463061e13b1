// Package validation validates configuration values.
//
// Struct tags are checked with the go-playground validator and reported under
// their config keys:
//
//	type PipelineConfig struct {
//	    Workers int `mapstructure:"workers" validate:"gte=1"`
//	}
//	err := validation.Validate(cfg)
//
// Checks that tags cannot express are collected programmatically:
//
//	v := validation.New()
//	v.OneOf("stats.measure", cfg.Stats.Measure, []string{"output", "input"})
//	err := v.Validate()
//
// Both forms return an INVALID_CONFIG errors.AppError.
package validation
