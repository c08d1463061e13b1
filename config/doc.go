// Package config loads and validates the linepipe run configuration.
//
// Sources are layered, lowest precedence first: Default(), a YAML file
// (explicit path or found by the Resolver), a .env file loaded with godotenv,
// then environment variables bound by viper. Only known keys are bound, each
// under the LINEPIPE_ prefix with dots as underscores, so
// LINEPIPE_PIPELINE_WORKERS=8 sets pipeline.workers.
//
//	cfg, err := config.Load(config.WithConfigFile("linepipe.yml"))
//	if err == nil {
//	    err = cfg.Validate()
//	}
package config
