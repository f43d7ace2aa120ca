package config

import "time"

// BrowserConfig configures fetch.BrowserFetcher, adapted from the
// teacher's internal/browser.Config field set.
type BrowserConfig struct {
	Headless            bool `yaml:"headless"`
	ViewportWidth        int  `yaml:"viewportWidth"`
	ViewportHeight       int  `yaml:"viewportHeight"`
	NavigationTimeoutMs  int  `yaml:"navigationTimeoutMs"`
}

// DefaultBrowserConfig returns sensible defaults.
func DefaultBrowserConfig() BrowserConfig {
	return BrowserConfig{
		Headless:            true,
		ViewportWidth:       1366,
		ViewportHeight:      900,
		NavigationTimeoutMs: 30000,
	}
}

// NavigationTimeout returns the navigation deadline as a Duration.
func (c BrowserConfig) NavigationTimeout() time.Duration {
	if c.NavigationTimeoutMs <= 0 {
		return 30 * time.Second
	}
	return time.Duration(c.NavigationTimeoutMs) * time.Millisecond
}
