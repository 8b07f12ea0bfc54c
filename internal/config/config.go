package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"

	"github.com/psantana5/hostbench/internal/report"
)

// Config is the resolved configuration for every command
type Config struct {
	Output    string   `yaml:"output"`
	Labels    bool     `yaml:"labels"`
	Metrics   bool     `yaml:"metrics"`
	LogLevel  string   `yaml:"log_level"`
	LogJSON   bool     `yaml:"log_json"`
	Resource  string   `yaml:"resource"`
	Resources []string `yaml:"resources"`

	Tracing TracingConfig `yaml:"tracing"`
	Serve   ServeConfig   `yaml:"serve"`
	Suite   SuiteConfig   `yaml:"suite"`
}

// TracingConfig controls span export
type TracingConfig struct {
	Enabled     bool   `yaml:"enabled"`
	Endpoint    string `yaml:"endpoint"`
	ServiceName string `yaml:"service_name"`
}

// ServeConfig controls the HTTP surface
type ServeConfig struct {
	Addr           string   `yaml:"addr"`
	RPS            float64  `yaml:"rps"`
	Burst          int      `yaml:"burst"`
	History        int      `yaml:"history"`
	TrustedProxies []string `yaml:"trusted_proxies"`
}

// SuiteConfig controls calibrated runs
type SuiteConfig struct {
	Target      time.Duration `yaml:"target"`
	PayloadSize int           `yaml:"payload_size"`
}

// SetDefaults registers defaults on v
func SetDefaults(v *viper.Viper) {
	v.SetDefault("output", report.FormatPlain)
	v.SetDefault("labels", false)
	v.SetDefault("metrics", false)
	v.SetDefault("log_level", "warn")
	v.SetDefault("log_json", false)
	v.SetDefault("resource", "jsbench")
	v.SetDefault("resources", []string{})

	v.SetDefault("tracing.enabled", false)
	v.SetDefault("tracing.endpoint", "localhost:4318")
	v.SetDefault("tracing.service_name", "hostbench")

	v.SetDefault("serve.addr", ":9464")
	v.SetDefault("serve.rps", 5.0)
	v.SetDefault("serve.burst", 5)
	v.SetDefault("serve.history", 100)
	v.SetDefault("serve.trusted_proxies", []string{})

	v.SetDefault("suite.target", time.Second)
	v.SetDefault("suite.payload_size", 4096)
}

// Load resolves and validates the configuration held by v
func Load(v *viper.Viper) (*Config, error) {
	cfg := &Config{
		Output:    v.GetString("output"),
		Labels:    v.GetBool("labels"),
		Metrics:   v.GetBool("metrics"),
		LogLevel:  v.GetString("log_level"),
		LogJSON:   v.GetBool("log_json"),
		Resource:  v.GetString("resource"),
		Resources: v.GetStringSlice("resources"),
		Tracing: TracingConfig{
			Enabled:     v.GetBool("tracing.enabled"),
			Endpoint:    v.GetString("tracing.endpoint"),
			ServiceName: v.GetString("tracing.service_name"),
		},
		Serve: ServeConfig{
			Addr:           v.GetString("serve.addr"),
			RPS:            v.GetFloat64("serve.rps"),
			Burst:          v.GetInt("serve.burst"),
			History:        v.GetInt("serve.history"),
			TrustedProxies: v.GetStringSlice("serve.trusted_proxies"),
		},
		Suite: SuiteConfig{
			Target:      v.GetDuration("suite.target"),
			PayloadSize: v.GetInt("suite.payload_size"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks values that would otherwise fail late
func (c *Config) Validate() error {
	if !report.ValidFormat(c.Output) {
		return fmt.Errorf("invalid output format %q (plain, json, yaml, table)", c.Output)
	}
	if c.Resource == "" {
		return fmt.Errorf("resource name must not be empty")
	}
	if c.Tracing.Enabled && c.Tracing.Endpoint == "" {
		return fmt.Errorf("tracing.endpoint is required when tracing is enabled")
	}
	if c.Serve.RPS < 0 {
		return fmt.Errorf("serve.rps must be >= 0, got %v", c.Serve.RPS)
	}
	if c.Serve.History < 1 {
		return fmt.Errorf("serve.history must be >= 1, got %d", c.Serve.History)
	}
	if c.Suite.Target <= 0 {
		return fmt.Errorf("suite.target must be positive, got %s", c.Suite.Target)
	}
	if c.Suite.PayloadSize < 0 {
		return fmt.Errorf("suite.payload_size must be >= 0, got %d", c.Suite.PayloadSize)
	}
	return nil
}
