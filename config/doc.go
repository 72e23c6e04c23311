// Package config loads service configuration from a YAML file, a .env file,
// the process environment and command-line flags, in increasing order of
// precedence, and decodes the result into a caller-supplied struct.
//
// # Usage
//
//	var cfg AppConfig
//	err := config.LoadConfig("boundq", &cfg,
//	    config.WithDefaults(map[string]any{"pipeline.capacity": 3}),
//	    config.WithFlags(fs, map[string]string{"capacity": "pipeline.capacity"}),
//	)
//
// Environment variables are matched with the upper-cased service name as
// prefix: BOUNDQ_PIPELINE_CAPACITY sets pipeline.capacity.
package config
