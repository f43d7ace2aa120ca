package config

import "time"

// LLMConfig configures the ModelClient used by SchemaPhase and CodePhase.
type LLMConfig struct {
	Provider string `yaml:"provider"` // gemini, fixture
	APIKey   string `yaml:"apiKey"`
	Model    string `yaml:"model"`
	BaseURL  string `yaml:"baseUrl,omitempty"`
	Timeout  string `yaml:"timeout"`
}

// DefaultLLMConfig returns sensible defaults for the Gemini-backed client.
func DefaultLLMConfig() LLMConfig {
	return LLMConfig{
		Provider: "gemini",
		Model:    "gemini-2.5-flash",
		Timeout:  "60s",
	}
}

// TimeoutDuration parses Timeout, defaulting to 60s on empty/invalid input.
func (c LLMConfig) TimeoutDuration() time.Duration {
	if c.Timeout == "" {
		return 60 * time.Second
	}
	d, err := time.ParseDuration(c.Timeout)
	if err != nil {
		return 60 * time.Second
	}
	return d
}
