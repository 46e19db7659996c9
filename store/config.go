package store

import "time"

// Config holds snapshot store configuration.
type Config struct {
	Path          string        `yaml:"path"`
	FlushDebounce time.Duration `yaml:"flush_debounce"`
}

// Defaults applies default values to the config.
func (c *Config) Defaults() {
	if c.Path == "" {
		c.Path = "data/nephalem.db"
	}
	if c.FlushDebounce <= 0 {
		c.FlushDebounce = defaultDebounce
	}
}
