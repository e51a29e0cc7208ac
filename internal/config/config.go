package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Provider selection for reviews
const (
	ReviewProviderAgent = "agent"
	ReviewProviderAPI   = "api"
	ReviewProviderBoth  = "both"
)

// Config represents the featforge.yaml configuration file
type Config struct {
	Version     string          `yaml:"version"`
	FeaturesDir string          `yaml:"features_dir"`
	Agent       AgentConfig     `yaml:"agent"`
	Review      ReviewConfig    `yaml:"review"`
	Loop        LoopConfig      `yaml:"loop"`
	Prompts     PromptOverrides `yaml:"prompts,omitempty"`
}

// AgentConfig configures the generation agent subprocess
type AgentConfig struct {
	Cmd             []string          `yaml:"cmd"`
	Env             map[string]string `yaml:"env,omitempty"`
	SessionTimeoutS int               `yaml:"session_timeout_s"`
}

// ReviewConfig selects and configures the review provider(s).
// Provider "both" runs the agent reviewer and the API reviewer side by side
// during build phases.
type ReviewConfig struct {
	Provider  string `yaml:"provider"`
	Model     string `yaml:"model,omitempty"`
	APIKeyEnv string `yaml:"api_key_env"`
}

// LoopConfig bounds the generate/review iteration loops
type LoopConfig struct {
	MaxIterations int `yaml:"max_iterations"`
}

// PromptOverrides carries optional replacement prompt templates. The
// overrides travel on the config value passed into each workflow invocation;
// there is no global prompt cache to invalidate.
type PromptOverrides struct {
	Spec  string `yaml:"spec,omitempty"`
	Plan  string `yaml:"plan,omitempty"`
	Build string `yaml:"build,omitempty"`
}

// Default returns a config with working defaults
func Default() *Config {
	return &Config{
		Version:     "1",
		FeaturesDir: ".featforge/features",
		Agent: AgentConfig{
			Cmd:             []string{"claude"},
			SessionTimeoutS: 900,
		},
		Review: ReviewConfig{
			Provider:  ReviewProviderAgent,
			APIKeyEnv: "ANTHROPIC_API_KEY",
		},
		Loop: LoopConfig{
			MaxIterations: 3,
		},
	}
}

// Validate checks the configuration and returns user-friendly errors
func (c *Config) Validate() error {
	if c.Version == "" {
		return fmt.Errorf("configuration error: missing required field 'version'")
	}
	if c.FeaturesDir == "" {
		return fmt.Errorf("configuration error: missing required field 'features_dir'")
	}
	if len(c.Agent.Cmd) == 0 {
		return fmt.Errorf("configuration error: 'agent.cmd' must name the agent command, e.g.\n  agent:\n    cmd: [\"claude\"]")
	}
	if c.Agent.SessionTimeoutS <= 0 {
		return fmt.Errorf("configuration error: 'agent.session_timeout_s' must be positive")
	}

	switch c.Review.Provider {
	case ReviewProviderAgent, ReviewProviderAPI, ReviewProviderBoth:
	default:
		return fmt.Errorf("configuration error: 'review.provider' must be one of agent, api, both (got %q)", c.Review.Provider)
	}

	if c.Loop.MaxIterations < 1 {
		return fmt.Errorf("configuration error: 'loop.max_iterations' must be at least 1")
	}

	return nil
}

// APIKey resolves the review API key from the configured environment
// variable. Empty means the API provider is unavailable.
func (c *Config) APIKey() string {
	if c.Review.APIKeyEnv == "" {
		return ""
	}
	return os.Getenv(c.Review.APIKeyEnv)
}

// LoadFromFile loads a configuration from a YAML file
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file %s: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config file %s: %w", path, err)
	}

	return &cfg, nil
}

// SaveToFile writes the configuration as YAML with 0600 permissions
func (c *Config) SaveToFile(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("write config file %s: %w", path, err)
	}

	return nil
}
