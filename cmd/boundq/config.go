package main

import (
	"github.com/spf13/pflag"

	"github.com/kbukum/boundq/config"
	"github.com/kbukum/boundq/observability"
	"github.com/kbukum/boundq/pipeline"
)

const serviceName = "boundq"

// AppConfig is the boundq command configuration.
type AppConfig struct {
	config.ServiceConfig `yaml:",inline" mapstructure:",squash"`

	Pipeline  pipeline.Config      `yaml:"pipeline" mapstructure:"pipeline"`
	Source    SourceConfig         `yaml:"source" mapstructure:"source"`
	Telemetry observability.Config `yaml:"telemetry" mapstructure:"telemetry"`
}

// SourceConfig lists the items fed to the producer. Each must parse as an
// integer; a bad item fails the producer mid-stream.
type SourceConfig struct {
	Items []string `yaml:"items" mapstructure:"items"`
}

// ApplyDefaults fills unset fields.
func (c *AppConfig) ApplyDefaults() {
	c.ServiceConfig.ApplyDefaults()
	if c.Telemetry.ServiceName == "" {
		c.Telemetry.ServiceName = c.Name
	}
	if c.Telemetry.ServiceVersion == "" {
		c.Telemetry.ServiceVersion = c.Version
	}
	if c.Telemetry.Environment == "" {
		c.Telemetry.Environment = c.Environment
	}
	c.Telemetry.ApplyDefaults()
}

// Validate checks every section.
func (c *AppConfig) Validate() error {
	if err := c.ServiceConfig.Validate(); err != nil {
		return err
	}
	if err := c.Pipeline.Validate(); err != nil {
		return err
	}
	return c.Telemetry.Validate()
}

func defaults() map[string]any {
	return map[string]any{
		"name":                   serviceName,
		"pipeline.capacity":      3,
		"pipeline.retry_backoff": pipeline.DefaultRetryBackoff,
		"source.items":           []string{"1", "2", "3", "4", "5"},
		"telemetry.sample_rate":  1.0,
	}
}

// flagKeys maps command-line flags to config keys.
var flagKeys = map[string]string{
	"capacity":    "pipeline.capacity",
	"put-timeout": "pipeline.put_timeout",
	"get-timeout": "pipeline.get_timeout",
	"put-retries": "pipeline.put_retries",
	"rate":        "pipeline.rate",
	"items":       "source.items",
	"debug":       "debug",
	"log-level":   "logging.level",
	"telemetry":   "telemetry.enabled",
	"endpoint":    "telemetry.endpoint",
}

type cliFlags struct {
	fs          *pflag.FlagSet
	configFile  string
	jsonOutput  bool
	showVersion bool
}

func newFlags() *cliFlags {
	f := &cliFlags{fs: pflag.NewFlagSet(serviceName, pflag.ContinueOnError)}
	fs := f.fs
	fs.StringVarP(&f.configFile, "config", "c", "", "config file (default: searched next to the binary)")
	fs.BoolVar(&f.jsonOutput, "json", false, "print a JSON report instead of the summary")
	fs.BoolVar(&f.showVersion, "version", false, "print version and exit")

	fs.IntP("capacity", "n", 0, "queue capacity")
	fs.Duration("put-timeout", 0, "per-put timeout; 0 blocks")
	fs.Duration("get-timeout", 0, "per-get timeout; 0 blocks")
	fs.Int("put-retries", 0, "extra attempts after a put timeout")
	fs.Float64("rate", 0, "producer items per second; 0 is unlimited")
	fs.StringSlice("items", nil, "source items, comma separated integers")
	fs.Bool("debug", false, "debug logging")
	fs.String("log-level", "", "log level")
	fs.Bool("telemetry", false, "export traces and metrics over OTLP")
	fs.String("endpoint", "", "OTLP HTTP endpoint host:port")
	return f
}

func loadConfig(f *cliFlags) (*AppConfig, error) {
	opts := []config.LoaderOption{
		config.WithDefaults(defaults()),
		config.WithFlags(f.fs, flagKeys),
	}
	if f.configFile != "" {
		opts = append(opts, config.WithConfigFile(f.configFile))
	}

	var cfg AppConfig
	if err := config.LoadConfig(serviceName, &cfg, opts...); err != nil {
		return nil, err
	}
	return &cfg, nil
}
