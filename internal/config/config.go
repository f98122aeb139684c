package config

import (
	"fmt"
	"os"

	"github.com/pelletier/go-toml/v2"
)

type LLMConfig struct {
	Provider string `toml:"provider"`
	Model    string `toml:"model"`
	APIKey   string `toml:"api_key"`
	BaseURL  string `toml:"base_url"`
}

type ResolverConfig struct {
	// ConfidenceThreshold is the pipeline-level knob below which a merge set
	// is downgraded to no-merge. Applied at the merge boundary, not inside
	// the resolver.
	ConfidenceThreshold float64 `toml:"confidence_threshold"`
	MaxRetries          uint64  `toml:"max_retries"`
	InitialBackoffMS    int     `toml:"initial_backoff_ms"`
	MaxBackoffMS        int     `toml:"max_backoff_ms"`
	CallTimeoutMS       int     `toml:"call_timeout_ms"`
	// Prompt overrides the built-in instruction template when non-empty.
	Prompt string `toml:"prompt"`
}

type BlockingConfig struct {
	Keys []string `toml:"keys"`
}

type ConcurrencyConfig struct {
	ResolveWorkers int `toml:"resolve_workers"`
}

type Config struct {
	LLM         LLMConfig         `toml:"llm"`
	Resolver    ResolverConfig    `toml:"resolver"`
	Blocking    BlockingConfig    `toml:"blocking"`
	Concurrency ConcurrencyConfig `toml:"concurrency"`
}

// Default returns the conservative baseline configuration: precision over
// recall, three bounded classifier attempts, modest parallelism.
func Default() *Config {
	return &Config{
		LLM: LLMConfig{
			Provider: "gemini",
			Model:    "gemini-2.0-flash-lite",
		},
		Resolver: ResolverConfig{
			ConfidenceThreshold: 0.7,
			MaxRetries:          2,
			InitialBackoffMS:    4000,
			MaxBackoffMS:        60000,
			CallTimeoutMS:       30000,
		},
		Blocking: BlockingConfig{
			Keys: []string{"last_name", "email_domain", "phone_last7"},
		},
		Concurrency: ConcurrencyConfig{
			ResolveWorkers: 4,
		},
	}
}

// Load reads a TOML config file over the defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file '%s': %w", path, err)
	}

	cfg := Default()
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse TOML: %w", err)
	}

	return cfg, nil
}

// ApplyEnv overrides config fields from environment variables when present.
func (c *Config) ApplyEnv() {
	if v := os.Getenv("LLM_PROVIDER"); v != "" {
		c.LLM.Provider = v
	}
	if v := os.Getenv("LLM_MODEL"); v != "" {
		c.LLM.Model = v
	}
	if v := os.Getenv("LLM_API_KEY"); v != "" {
		c.LLM.APIKey = v
	}
	if v := os.Getenv("GEMINI_API_KEY"); v != "" && c.LLM.APIKey == "" {
		c.LLM.APIKey = v
	}
	if v := os.Getenv("LLM_BASE_URL"); v != "" {
		c.LLM.BaseURL = v
	}
}
