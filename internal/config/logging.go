package config

// LoggingConfig configures the category-scoped logger (internal/logging).
type LoggingConfig struct {
	DebugMode  bool            `yaml:"debugMode"`
	Level      string          `yaml:"level"`      // debug, info, warn, error
	Categories map[string]bool `yaml:"categories,omitempty"`
}

// DefaultLoggingConfig returns production defaults: logging disabled.
func DefaultLoggingConfig() LoggingConfig {
	return LoggingConfig{
		DebugMode: false,
		Level:     "info",
	}
}

// IsCategoryEnabled returns whether logging is enabled for a category.
// Mirrors the teacher's debug_mode master-toggle semantics: false when
// DebugMode is off, otherwise true unless explicitly disabled.
func (c LoggingConfig) IsCategoryEnabled(category string) bool {
	if !c.DebugMode {
		return false
	}
	if c.Categories == nil {
		return true
	}
	enabled, exists := c.Categories[category]
	if !exists {
		return true
	}
	return enabled
}
