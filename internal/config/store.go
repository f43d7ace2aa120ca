package config

// StoreConfig configures the optional sqlite-backed RunStore mirror
// (SPEC_FULL.md §6). Disabled by default; the file layout in spec.md §6
// is always the source of truth.
type StoreConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path,omitempty"` // default: <run>/store.db
}

// DefaultStoreConfig returns the store disabled.
func DefaultStoreConfig() StoreConfig {
	return StoreConfig{Enabled: false}
}
