package battlenet

import (
	"net/http"
	"time"

	"github.com/tnicklin/nephalem/battlenet/repository"
)

// Config holds Battle.net client configuration.
type Config struct {
	Region            string        `yaml:"region"`
	BaseURL           string        `yaml:"base_url"`
	Locale            string        `yaml:"locale"`
	UserAgent         string        `yaml:"user_agent"`
	ClientID          string        `yaml:"client_id"`
	ClientSecret      string        `yaml:"client_secret"`
	TokenURL          string        `yaml:"token_url"`
	Timeout           time.Duration `yaml:"timeout"`
	MaxRetries        int           `yaml:"max_retries"` // negative disables retries
	RetryWaitMin      time.Duration `yaml:"retry_wait_min"`
	RetryWaitMax      time.Duration `yaml:"retry_wait_max"`
	RequestsPerSecond float64       `yaml:"requests_per_second"`
	Burst             int           `yaml:"burst"`
	HTTPClient        *http.Client  `yaml:"-"`
}

// Defaults applies default values to the config.
func (c *Config) Defaults() {
	if c.Region == "" {
		c.Region = "us"
	}
	if c.BaseURL == "" {
		c.BaseURL = repository.DefaultBaseURL
	}
	if c.UserAgent == "" {
		c.UserAgent = "nephalem/1.0"
	}
	if c.TokenURL == "" {
		c.TokenURL = repository.DefaultTokenURL
	}
	if c.Timeout <= 0 {
		c.Timeout = 30 * time.Second
	}
	if c.MaxRetries == 0 {
		c.MaxRetries = 3
	}
	if c.RetryWaitMin <= 0 {
		c.RetryWaitMin = 500 * time.Millisecond
	}
	if c.RetryWaitMax <= 0 {
		c.RetryWaitMax = 5 * time.Second
	}
	if c.RequestsPerSecond <= 0 {
		c.RequestsPerSecond = 100
	}
	if c.Burst <= 0 {
		c.Burst = 20
	}
}

// HasCredentials reports whether OAuth client credentials are configured.
func (c *Config) HasCredentials() bool {
	return c.ClientID != "" && c.ClientSecret != ""
}
