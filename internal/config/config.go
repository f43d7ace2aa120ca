// Package config holds parseforge's configuration as a single explicit
// value, threaded through constructors rather than read from package-level
// globals (Design Note "Global configuration").
package config

import (
	"bytes"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/theRebelliousNerd/parseforge/internal/errs"
)

// SchemaMode selects how SchemaPhase treats the field name-set.
type SchemaMode string

const (
	SchemaModeAuto       SchemaMode = "auto"
	SchemaModePredefined SchemaMode = "predefined"
)

// Config holds all parseforge configuration (spec.md §6 + ambient stack).
type Config struct {
	IterationRounds   int        `yaml:"iterationRounds"`
	SchemaMode        SchemaMode `yaml:"schemaMode"`
	PredefinedSchema  []string   `yaml:"predefinedSchema,omitempty"`
	EnableSchemaEdit  bool       `yaml:"enableSchemaEdit"`
	ClusterEps        float64    `yaml:"clusterEps"`
	ClusterMinSamples int        `yaml:"clusterMinSamples"`
	BatchWorkers      int        `yaml:"batchWorkers"`
	ExecutorDeadlineMs int       `yaml:"executorDeadlineMs"`

	LLM     LLMConfig     `yaml:"llm"`
	Logging LoggingConfig `yaml:"logging"`
	Browser BrowserConfig `yaml:"browser"`
	Store   StoreConfig   `yaml:"store"`
}

// Default returns sensible defaults, matching the constants named in
// spec.md §4.6-§4.9 (N=3 rounds, R=3 retries live in their own phases;
// here we set the config-level defaults).
func Default() *Config {
	return &Config{
		IterationRounds:    3,
		SchemaMode:         SchemaModeAuto,
		EnableSchemaEdit:   false,
		ClusterEps:         0.3,
		ClusterMinSamples:  2,
		BatchWorkers:       0, // 0 => min(8, NumCPU) at construction
		ExecutorDeadlineMs: 30000,
		LLM:                DefaultLLMConfig(),
		Logging:            DefaultLoggingConfig(),
		Browser:            DefaultBrowserConfig(),
		Store:              DefaultStoreConfig(),
	}
}

// Load reads and validates a YAML config file. Unknown keys at any level
// fail validation, per spec.md §6.
func Load(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, errs.New(errs.KindConfig, path, err)
	}
	cfg := Default()
	dec := yaml.NewDecoder(bytes.NewReader(raw))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil {
		return nil, errs.New(errs.KindConfig, "decode "+path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ApplyEnvOverrides overlays PARSEFORGE_-prefixed environment variables
// onto the config (e.g. PARSEFORGE_LLM_API_KEY -> LLM.APIKey).
func (c *Config) ApplyEnvOverrides(environ []string) {
	for _, kv := range environ {
		k, v, ok := strings.Cut(kv, "=")
		if !ok || !strings.HasPrefix(k, "PARSEFORGE_") {
			continue
		}
		switch strings.TrimPrefix(k, "PARSEFORGE_") {
		case "LLM_API_KEY":
			c.LLM.APIKey = v
		case "LLM_MODEL":
			c.LLM.Model = v
		case "BATCH_WORKERS":
			if n, err := strconv.Atoi(v); err == nil {
				c.BatchWorkers = n
			}
		case "ITERATION_ROUNDS":
			if n, err := strconv.Atoi(v); err == nil {
				c.IterationRounds = n
			}
		}
	}
}

// Validate checks config invariants beyond the YAML decode's field check.
func (c *Config) Validate() error {
	if c.IterationRounds < 1 {
		return errs.New(errs.KindConfig, "iterationRounds", fmt.Errorf("must be >= 1, got %d", c.IterationRounds))
	}
	switch c.SchemaMode {
	case SchemaModeAuto:
	case SchemaModePredefined:
		if len(c.PredefinedSchema) == 0 {
			return errs.New(errs.KindConfig, "predefinedSchema", fmt.Errorf("required when schemaMode=predefined"))
		}
	default:
		return errs.New(errs.KindConfig, "schemaMode", fmt.Errorf("unknown mode %q", c.SchemaMode))
	}
	if c.ExecutorDeadlineMs <= 0 {
		return errs.New(errs.KindConfig, "executorDeadlineMs", fmt.Errorf("must be > 0"))
	}
	if c.BatchWorkers < 0 {
		return errs.New(errs.KindConfig, "batchWorkers", fmt.Errorf("must be >= 0"))
	}
	return nil
}

// ExecutorDeadline returns the per-call Executor wall-clock deadline
// (spec.md §4.8) as a Duration.
func (c *Config) ExecutorDeadline() time.Duration {
	if c.ExecutorDeadlineMs <= 0 {
		return 30 * time.Second
	}
	return time.Duration(c.ExecutorDeadlineMs) * time.Millisecond
}
