package config

import (
	"os"
	"strings"

	"go.uber.org/config"

	"github.com/tnicklin/nephalem/battlenet"
	"github.com/tnicklin/nephalem/discord"
	"github.com/tnicklin/nephalem/logger"
	"github.com/tnicklin/nephalem/metrics"
	"github.com/tnicklin/nephalem/store"
	"github.com/tnicklin/nephalem/tracker"
)

// AppConfig holds all application configuration.
type AppConfig struct {
	Logger     logger.Config    `yaml:"logger"`
	Discord    discord.Config   `yaml:"discord"`
	BattleNet  battlenet.Config `yaml:"battlenet"`
	Tracker    tracker.Config   `yaml:"tracker"`
	Store      store.Config     `yaml:"store"`
	Metrics    metrics.Config   `yaml:"metrics"`
	BattleTags []string         `yaml:"battle_tags"`
}

// Load reads configuration from the specified YAML files.
// Files are merged in order, with later files overriding earlier ones.
// Missing files are silently ignored.
func Load(files ...string) (*AppConfig, error) {
	opts := make([]config.YAMLOption, 0, len(files))
	for _, f := range files {
		if _, err := os.Stat(f); err == nil {
			opts = append(opts, config.File(f))
		}
	}

	if len(opts) == 0 {
		return nil, os.ErrNotExist
	}

	provider, err := config.NewYAML(opts...)
	if err != nil {
		return nil, err
	}

	var cfg AppConfig
	if err := provider.Get(config.Root).Populate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// LoadWithDefaults loads configuration with sensible defaults.
func LoadWithDefaults(files ...string) (*AppConfig, error) {
	cfg, err := Load(files...)
	if err != nil {
		return nil, err
	}
	cfg.Defaults()
	return cfg, nil
}

// Defaults fills every section that was left empty.
func (c *AppConfig) Defaults() {
	if c.Logger.Level == "" {
		c.Logger.Level = "info"
	}
	if len(c.Logger.OutputPaths) == 0 {
		c.Logger.OutputPaths = []string{"stdout"}
	}
	c.BattleNet.Defaults()
	c.Tracker.Defaults()
	c.Store.Defaults()
}

// ApplyEnv overrides secrets and the region from environment variables when they are set.
func (c *AppConfig) ApplyEnv(getenv func(string) string) {
	override := func(dst *string, key string) {
		if v := strings.TrimSpace(getenv(key)); v != "" {
			*dst = v
		}
	}
	override(&c.Discord.Token, "DISCORD_TOKEN")
	override(&c.Discord.GuildID, "DISCORD_GUILD_ID")
	override(&c.BattleNet.ClientID, "BATTLENET_CLIENT_ID")
	override(&c.BattleNet.ClientSecret, "BATTLENET_CLIENT_SECRET")
	override(&c.BattleNet.Region, "BATTLENET_REGION")
}
