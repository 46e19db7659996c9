package logger

// Config holds logger configuration.
type Config struct {
	Level       string     `yaml:"level"`
	OutputPaths []string   `yaml:"output_paths"`
	File        FileConfig `yaml:"file"`
}

// FileConfig enables a size-rotated log file next to the regular outputs.
type FileConfig struct {
	Path       string `yaml:"path"`
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
	MaxAgeDays int    `yaml:"max_age_days"`
}
