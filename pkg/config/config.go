// Package config loads the shopflow application configuration.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Orchestration modes.
const (
	ModeConcurrent = "concurrent"
	ModeSequential = "sequential"
)

// Classifier selections.
const (
	ClassifierSentinel = "sentinel"
	ClassifierRouter   = "router"
)

// Config represents the application configuration.
type Config struct {
	Provider      ProviderConfig      `yaml:"provider"`
	Orchestration OrchestrationConfig `yaml:"orchestration"`
	Observability ObservabilityConfig `yaml:"observability"`
	Agents        AgentsConfig        `yaml:"agents"`
}

// ProviderConfig configures the LLM backend.
type ProviderConfig struct {
	Name              string  `yaml:"name"`
	APIKey            string  `yaml:"api_key"`
	BaseURL           string  `yaml:"base_url"`
	Model             string  `yaml:"model"`
	Temperature       float64 `yaml:"temperature"`
	RequestTimeout    string  `yaml:"request_timeout"`
	RequestsPerSecond float64 `yaml:"requests_per_second"`
	Burst             int     `yaml:"burst"`
}

// OrchestrationConfig selects the pipeline strategy.
type OrchestrationConfig struct {
	// Mode is "concurrent" or "sequential".
	Mode string `yaml:"mode"`

	// Classifier is "sentinel" or "router". The two are never mixed
	// within a turn.
	Classifier string `yaml:"classifier"`

	// StageTimeout bounds a single stage invocation (e.g. "60s").
	StageTimeout string `yaml:"stage_timeout"`
}

// ObservabilityConfig configures the metrics/health endpoint.
type ObservabilityConfig struct {
	// MetricsPort serves /metrics and /health when > 0.
	MetricsPort int `yaml:"metrics_port"`
}

// AgentsConfig holds per-role overrides.
type AgentsConfig struct {
	Shopping        AgentConfig `yaml:"shopping"`
	Catalog         AgentConfig `yaml:"catalog"`
	CustomerService AgentConfig `yaml:"customer_service"`
	Payment         AgentConfig `yaml:"payment"`
}

// AgentConfig overrides the built-in prompt or model for one agent role.
type AgentConfig struct {
	Prompt string `yaml:"prompt"`
	Model  string `yaml:"model"`
}

// Default returns the built-in configuration.
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

// Load reads and parses a YAML config file, applying defaults and
// environment fallbacks.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path) // #nosec G304 - path comes from the CLI flag
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Provider.Name == "" {
		c.Provider.Name = "openai"
	}
	if c.Provider.APIKey == "" {
		c.Provider.APIKey = os.Getenv("OPENAI_API_KEY")
	}
	if c.Orchestration.Mode == "" {
		c.Orchestration.Mode = ModeConcurrent
	}
	if c.Orchestration.Classifier == "" {
		c.Orchestration.Classifier = ClassifierSentinel
	}
	if c.Orchestration.StageTimeout == "" {
		c.Orchestration.StageTimeout = "60s"
	}
}

// Validate checks enum fields and duration syntax.
func (c *Config) Validate() error {
	switch c.Orchestration.Mode {
	case ModeConcurrent, ModeSequential:
	default:
		return fmt.Errorf("unknown orchestration mode %q", c.Orchestration.Mode)
	}
	switch c.Orchestration.Classifier {
	case ClassifierSentinel, ClassifierRouter:
	default:
		return fmt.Errorf("unknown classifier %q", c.Orchestration.Classifier)
	}
	if _, err := time.ParseDuration(c.Orchestration.StageTimeout); err != nil {
		return fmt.Errorf("invalid stage_timeout: %w", err)
	}
	if c.Provider.RequestTimeout != "" {
		if _, err := time.ParseDuration(c.Provider.RequestTimeout); err != nil {
			return fmt.Errorf("invalid request_timeout: %w", err)
		}
	}
	return nil
}

// StageTimeout returns the parsed per-stage timeout.
func (c *Config) StageTimeout() time.Duration {
	d, err := time.ParseDuration(c.Orchestration.StageTimeout)
	if err != nil {
		return 60 * time.Second
	}
	return d
}

// RequestTimeout returns the parsed provider request timeout (0 = provider
// default).
func (c *Config) RequestTimeout() time.Duration {
	if c.Provider.RequestTimeout == "" {
		return 0
	}
	d, err := time.ParseDuration(c.Provider.RequestTimeout)
	if err != nil {
		return 0
	}
	return d
}
