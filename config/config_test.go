package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoad(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "test_config.yaml")

	tests := []struct {
		name    string
		content string
		wantErr bool
	}{
		{
			name: "valid config",
			content: `
logger:
  level: debug
  output_paths:
    - stdout
discord:
  token: "test-token"
  guild_id: "123456"
  listen_channel: "commands"
  report_channel: "reports"
battlenet:
  region: eu
  locale: en_GB
tracker:
  enabled: true
  interval: 10m
store:
  path: "test.db"
battle_tags:
  - Name#1234
`,
			wantErr: false,
		},
		{
			name:    "empty config",
			content: "",
			wantErr: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := os.WriteFile(configPath, []byte(tt.content), 0644); err != nil {
				t.Fatalf("Failed to write config file: %v", err)
			}

			cfg, err := Load(configPath)
			if (err != nil) != tt.wantErr {
				t.Errorf("Load() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if !tt.wantErr && cfg == nil {
				t.Error("Load() returned nil config without error")
			}
		})
	}
}

func TestLoad_Sections(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "config.yaml")
	content := `
discord:
  listen_channel: "commands"
battlenet:
  region: eu
  locale: en_GB
  max_retries: -1
tracker:
  enabled: true
  interval: 10m
metrics:
  addr: ":9090"
battle_tags:
  - Name#1234
  - Other-42
`
	if err := os.WriteFile(configPath, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}

	cfg, err := LoadWithDefaults(configPath)
	if err != nil {
		t.Fatalf("LoadWithDefaults() error = %v", err)
	}

	if cfg.Discord.ListenChannel != "commands" {
		t.Errorf("Discord.ListenChannel = %q", cfg.Discord.ListenChannel)
	}
	if cfg.BattleNet.Region != "eu" || cfg.BattleNet.Locale != "en_GB" {
		t.Errorf("BattleNet = %+v", cfg.BattleNet)
	}
	if cfg.BattleNet.MaxRetries != -1 {
		t.Errorf("BattleNet.MaxRetries = %d, want -1", cfg.BattleNet.MaxRetries)
	}
	if !cfg.Tracker.Enabled || cfg.Tracker.Interval != 10*time.Minute {
		t.Errorf("Tracker = %+v", cfg.Tracker)
	}
	if cfg.Metrics.Addr != ":9090" {
		t.Errorf("Metrics.Addr = %q", cfg.Metrics.Addr)
	}
	if len(cfg.BattleTags) != 2 || cfg.BattleTags[1] != "Other-42" {
		t.Errorf("BattleTags = %v", cfg.BattleTags)
	}
}

func TestLoad_LaterFilesOverride(t *testing.T) {
	tmpDir := t.TempDir()
	base := filepath.Join(tmpDir, "config.yaml")
	secrets := filepath.Join(tmpDir, "secrets.yaml")

	if err := os.WriteFile(base, []byte("battlenet:\n  region: us\n  client_id: placeholder\n"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(secrets, []byte("battlenet:\n  client_id: real-id\n  client_secret: real-secret\n"), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(base, secrets, filepath.Join(tmpDir, "missing.yaml"))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.BattleNet.Region != "us" {
		t.Errorf("BattleNet.Region = %q, want us", cfg.BattleNet.Region)
	}
	if cfg.BattleNet.ClientID != "real-id" || cfg.BattleNet.ClientSecret != "real-secret" {
		t.Errorf("expected secrets file to win, got %+v", cfg.BattleNet)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load("nonexistent.yaml")
	if err == nil {
		t.Error("Load() should return error for missing file")
	}
}

func TestLoadWithDefaults(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "test_config.yaml")

	tests := []struct {
		name          string
		content       string
		wantLogLevel  string
		wantRegion    string
		wantStorePath string
	}{
		{
			name:          "applies defaults when values missing",
			content:       "logger:\n  level: \"\"\n",
			wantLogLevel:  "info",
			wantRegion:    "us",
			wantStorePath: "data/nephalem.db",
		},
		{
			name:          "respects provided values",
			content:       "logger:\n  level: debug\nbattlenet:\n  region: kr\nstore:\n  path: custom.db\n",
			wantLogLevel:  "debug",
			wantRegion:    "kr",
			wantStorePath: "custom.db",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := os.WriteFile(configPath, []byte(tt.content), 0644); err != nil {
				t.Fatalf("Failed to write config file: %v", err)
			}

			cfg, err := LoadWithDefaults(configPath)
			if err != nil {
				t.Fatalf("LoadWithDefaults() error = %v", err)
			}

			if cfg.Logger.Level != tt.wantLogLevel {
				t.Errorf("Logger.Level = %q, want %q", cfg.Logger.Level, tt.wantLogLevel)
			}
			if cfg.BattleNet.Region != tt.wantRegion {
				t.Errorf("BattleNet.Region = %q, want %q", cfg.BattleNet.Region, tt.wantRegion)
			}
			if cfg.Store.Path != tt.wantStorePath {
				t.Errorf("Store.Path = %q, want %q", cfg.Store.Path, tt.wantStorePath)
			}
			if cfg.Tracker.Interval != 15*time.Minute {
				t.Errorf("Tracker.Interval = %v, want 15m", cfg.Tracker.Interval)
			}
		})
	}
}

func TestApplyEnv(t *testing.T) {
	cfg := &AppConfig{}
	cfg.Discord.Token = "from-file"
	cfg.BattleNet.Region = "us"

	env := map[string]string{
		"DISCORD_GUILD_ID":        "42",
		"BATTLENET_CLIENT_ID":     "id",
		"BATTLENET_CLIENT_SECRET": "secret",
		"BATTLENET_REGION":        " eu ",
		"DISCORD_TOKEN":           "   ",
	}
	cfg.ApplyEnv(func(k string) string { return env[k] })

	if cfg.Discord.Token != "from-file" {
		t.Errorf("blank env should not override token, got %q", cfg.Discord.Token)
	}
	if cfg.Discord.GuildID != "42" {
		t.Errorf("Discord.GuildID = %q", cfg.Discord.GuildID)
	}
	if cfg.BattleNet.ClientID != "id" || cfg.BattleNet.ClientSecret != "secret" {
		t.Errorf("credentials not applied: %+v", cfg.BattleNet)
	}
	if cfg.BattleNet.Region != "eu" {
		t.Errorf("BattleNet.Region = %q, want eu", cfg.BattleNet.Region)
	}
}
