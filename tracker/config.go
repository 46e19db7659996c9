package tracker

import "time"

// Config holds tracker polling configuration.
type Config struct {
	Enabled       bool          `yaml:"enabled"`
	Interval      time.Duration `yaml:"interval"`
	MaxConcurrent int           `yaml:"max_concurrent"`
	Timeout       time.Duration `yaml:"timeout"`
}

// Defaults applies default values to the config.
func (c *Config) Defaults() {
	if c.Interval <= 0 {
		c.Interval = 15 * time.Minute
	}
	if c.MaxConcurrent <= 0 {
		c.MaxConcurrent = 4
	}
	if c.Timeout <= 0 {
		c.Timeout = time.Minute
	}
}
