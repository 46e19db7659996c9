package discord

// Config holds Discord-specific configuration.
type Config struct {
	Token         string `yaml:"token"`
	GuildID       string `yaml:"guild_id"`
	ListenChannel string `yaml:"listen_channel"`
	// ReportChannel receives tracker events. Defaults to ListenChannel.
	ReportChannel string `yaml:"report_channel"`
}
