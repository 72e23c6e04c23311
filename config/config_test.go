package config

import (
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/spf13/pflag"

	"github.com/kbukum/boundq/errors"
	"github.com/kbukum/boundq/logger"
)

type pipelineSection struct {
	Capacity   int           `mapstructure:"capacity"`
	PutTimeout time.Duration `mapstructure:"put_timeout"`
	Items      []string      `mapstructure:"items"`
}

type testConfig struct {
	ServiceConfig `yaml:",inline" mapstructure:",squash"`
	Pipeline      pipelineSection `mapstructure:"pipeline"`
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write %s: %v", name, err)
	}
	return path
}

func TestServiceConfigApplyDefaults(t *testing.T) {
	t.Run("empty environment defaults to development", func(t *testing.T) {
		cfg := ServiceConfig{Name: "boundq"}
		cfg.ApplyDefaults()
		if cfg.Environment != "development" {
			t.Errorf("expected 'development', got %q", cfg.Environment)
		}
		if cfg.Logging.ServiceName != "boundq" {
			t.Errorf("expected logging service name to follow Name, got %q", cfg.Logging.ServiceName)
		}
		if cfg.Logging.Level != "info" {
			t.Errorf("expected info level, got %q", cfg.Logging.Level)
		}
	})

	t.Run("debug raises log level", func(t *testing.T) {
		cfg := ServiceConfig{Name: "boundq", Debug: true}
		cfg.ApplyDefaults()
		if cfg.Logging.Level != "debug" {
			t.Errorf("expected debug level, got %q", cfg.Logging.Level)
		}
	})

	t.Run("explicit level wins over debug", func(t *testing.T) {
		cfg := ServiceConfig{Name: "boundq", Debug: true, Logging: logger.Config{Level: "warn"}}
		cfg.ApplyDefaults()
		if cfg.Logging.Level != "warn" {
			t.Errorf("expected warn level, got %q", cfg.Logging.Level)
		}
	})
}

func TestServiceConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     ServiceConfig
		wantErr string
	}{
		{"valid development", ServiceConfig{Name: "svc", Environment: "development"}, ""},
		{"valid production", ServiceConfig{Name: "svc", Environment: "production"}, ""},
		{"missing name", ServiceConfig{Environment: "production"}, "name: is required"},
		{"invalid environment", ServiceConfig{Name: "svc", Environment: "qa"}, "environment: must be one of"},
		{"invalid logging", ServiceConfig{Name: "svc", Environment: "staging", Logging: logger.Config{Level: "loud"}}, "logging.level"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			tc.cfg.Logging.ApplyDefaults()
			err := tc.cfg.Validate()
			if tc.wantErr == "" {
				if err != nil {
					t.Errorf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tc.wantErr) {
				t.Errorf("expected error containing %q, got %v", tc.wantErr, err)
			}
		})
	}
}

func TestLoadConfigWithYAML(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "config.yml", `
name: boundq
environment: staging
pipeline:
  capacity: 7
  put_timeout: 250ms
  items: ["4", "5", "6"]
`)

	var cfg testConfig
	if err := LoadConfig("boundq-yaml", &cfg, WithConfigFile(path)); err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if cfg.Name != "boundq" || cfg.Environment != "staging" {
		t.Errorf("unexpected service config %+v", cfg.ServiceConfig)
	}
	if cfg.Pipeline.Capacity != 7 {
		t.Errorf("capacity = %d, want 7", cfg.Pipeline.Capacity)
	}
	if cfg.Pipeline.PutTimeout != 250*time.Millisecond {
		t.Errorf("put_timeout = %v, want 250ms", cfg.Pipeline.PutTimeout)
	}
	if !reflect.DeepEqual(cfg.Pipeline.Items, []string{"4", "5", "6"}) {
		t.Errorf("items = %v", cfg.Pipeline.Items)
	}
}

func TestLoadConfigDefaults(t *testing.T) {
	var cfg testConfig
	err := LoadConfig("boundq-defaults", &cfg,
		WithFileSystem(&mockFS{}),
		WithDefaults(map[string]any{
			"name":              "boundq",
			"pipeline.capacity": 3,
			"pipeline.items":    []string{"1", "2"},
		}),
	)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Name != "boundq" || cfg.Pipeline.Capacity != 3 {
		t.Errorf("defaults not applied: %+v", cfg)
	}
	if len(cfg.Pipeline.Items) != 2 {
		t.Errorf("items = %v", cfg.Pipeline.Items)
	}
}

func TestLoadConfigEnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "config.yml", "pipeline:\n  capacity: 7\n")
	t.Setenv("BOUNDQ_ENV_PIPELINE_CAPACITY", "9")
	t.Setenv("BOUNDQ_ENV_PIPELINE_PUT_TIMEOUT", "2s")

	var cfg testConfig
	if err := LoadConfig("boundq-env", &cfg, WithConfigFile(path)); err != nil {
		t.Fatal(err)
	}
	if cfg.Pipeline.Capacity != 9 {
		t.Errorf("capacity = %d, want 9 from env", cfg.Pipeline.Capacity)
	}
	if cfg.Pipeline.PutTimeout != 2*time.Second {
		t.Errorf("put_timeout = %v, want 2s from env", cfg.Pipeline.PutTimeout)
	}
}

func TestLoadConfigEnvFile(t *testing.T) {
	dir := t.TempDir()
	envPath := writeFile(t, dir, ".env", "BOUNDQ_DOTENV_PIPELINE_CAPACITY=11\n")
	t.Cleanup(func() { os.Unsetenv("BOUNDQ_DOTENV_PIPELINE_CAPACITY") })

	var cfg testConfig
	if err := LoadConfig("boundq-dotenv", &cfg, WithEnvFile(envPath), WithFileSystem(&RealFileSystem{})); err != nil {
		t.Fatal(err)
	}
	if cfg.Pipeline.Capacity != 11 {
		t.Errorf("capacity = %d, want 11 from .env", cfg.Pipeline.Capacity)
	}
}

func TestLoadConfigFlagsOverrideEnv(t *testing.T) {
	t.Setenv("BOUNDQ_FLAGS_PIPELINE_CAPACITY", "9")

	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	fs.Int("capacity", 0, "queue capacity")
	fs.Duration("put-timeout", 0, "put timeout")
	if err := fs.Parse([]string{"--capacity=4"}); err != nil {
		t.Fatal(err)
	}

	var cfg testConfig
	err := LoadConfig("boundq-flags", &cfg,
		WithFileSystem(&mockFS{}),
		WithDefaults(map[string]any{"pipeline.put_timeout": "1s"}),
		WithFlags(fs, map[string]string{
			"capacity":    "pipeline.capacity",
			"put-timeout": "pipeline.put_timeout",
			"missing":     "pipeline.missing",
		}),
	)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Pipeline.Capacity != 4 {
		t.Errorf("capacity = %d, want 4 from flag", cfg.Pipeline.Capacity)
	}
	if cfg.Pipeline.PutTimeout != time.Second {
		t.Errorf("put_timeout = %v, want default 1s for unset flag", cfg.Pipeline.PutTimeout)
	}
}

func TestLoadConfigMissingExplicitFile(t *testing.T) {
	var cfg testConfig
	err := LoadConfig("boundq", &cfg, WithConfigFile("/nonexistent/path.yml"))
	if !errors.HasCode(err, errors.ErrCodeConfiguration) {
		t.Fatalf("expected CONFIGURATION_ERROR, got %v", err)
	}
}

func TestLoadConfigMalformedFile(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "config.yml", "pipeline: [unclosed\n")

	var cfg testConfig
	err := LoadConfig("boundq", &cfg, WithConfigFile(path))
	if !errors.HasCode(err, errors.ErrCodeConfiguration) {
		t.Fatalf("expected CONFIGURATION_ERROR, got %v", err)
	}
}

type mockFS struct {
	files map[string]bool
}

func (m *mockFS) Exists(path string) bool  { return m.files[path] }
func (m *mockFS) LoadEnv(path string) error { return nil }

func TestResolverFindsServiceConfig(t *testing.T) {
	resolver := &Resolver{FileSystem: &mockFS{files: map[string]bool{
		"./cmd/boundq/config.yml": true,
		"./config.yml":            true,
		"./cmd/boundq/.env":       true,
	}}}

	files := resolver.ResolveFiles("boundq", LoaderConfig{})
	if files.ConfigFile != "./cmd/boundq/config.yml" {
		t.Errorf("config file = %q", files.ConfigFile)
	}
	if files.EnvFile != "./cmd/boundq/.env" {
		t.Errorf("env file = %q", files.EnvFile)
	}
}

func TestResolverPrefersServiceEnvFile(t *testing.T) {
	resolver := &Resolver{FileSystem: &mockFS{files: map[string]bool{
		"./.env":        true,
		"./.env.boundq": true,
	}}}
	files := resolver.ResolveFiles("boundq", LoaderConfig{})
	if files.EnvFile != "./.env.boundq" {
		t.Errorf("env file = %q", files.EnvFile)
	}
	if files.ConfigFile != "" {
		t.Errorf("expected no config file, got %q", files.ConfigFile)
	}
}

func TestResolverExplicitPaths(t *testing.T) {
	resolver := &Resolver{FileSystem: &mockFS{files: map[string]bool{"./config.yml": true}}}
	files := resolver.ResolveFiles("boundq", LoaderConfig{ConfigFile: "/etc/boundq.yml", EnvFile: "/etc/boundq.env"})
	if files.ConfigFile != "/etc/boundq.yml" || files.EnvFile != "/etc/boundq.env" {
		t.Errorf("explicit paths not kept: %+v", files)
	}
}

func TestGenerateEnvKeyVariants(t *testing.T) {
	tests := []struct {
		in   string
		want []string
	}{
		{"NAME", []string{"name"}},
		{"PIPELINE_CAPACITY", []string{"pipeline_capacity", "pipeline.capacity"}},
		{"PIPELINE_PUT_TIMEOUT", []string{"pipeline_put_timeout", "pipeline.put.timeout", "pipeline.put_timeout"}},
	}
	for _, tc := range tests {
		t.Run(tc.in, func(t *testing.T) {
			if got := generateEnvKeyVariants(tc.in); !reflect.DeepEqual(got, tc.want) {
				t.Errorf("got %v, want %v", got, tc.want)
			}
		})
	}
}

func TestEnvPrefix(t *testing.T) {
	if got := envPrefix("boundq-demo"); got != "BOUNDQ_DEMO_" {
		t.Errorf("envPrefix = %q", got)
	}
}
