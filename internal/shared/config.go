package shared

import (
	_ "embed"
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"
)

//go:embed config.example.toml
var exampleConf []byte

// Config represents the application configuration loaded from a TOML file.
type Config struct {
	Telegram Telegram `toml:"telegram"`
	Source   Source   `toml:"source"`
	Audio    Audio    `toml:"audio"`
	Search   Search   `toml:"search"`
	Limits   Limits   `toml:"limits"`
	Database Database `toml:"database"`
}

// Telegram contains bot transport settings.
type Telegram struct {
	Token string `toml:"token"`
	Debug bool   `toml:"debug"`
}

// Source configures how media is resolved from the platform.
//
// Strategies lists extraction strategies in priority order. Recognized values
// are "ytsearch", "ytmusic" and "ytdlp:<player_client>" (for example
// "ytdlp:android"). The order is static configuration; no strategy is
// promoted or demoted based on past success.
type Source struct {
	Strategies      []string `toml:"strategies"`
	CookiesPath     string   `toml:"cookies_path"`
	ProbeTimeoutSec int      `toml:"probe_timeout_seconds"`
}

// Audio configures the download/transcode pipeline and its fixed output profile.
type Audio struct {
	TempDir             string `toml:"temp_dir"`
	Bitrate             string `toml:"bitrate"`
	Format              string `toml:"format"`
	MaxFileSizeMB       int64  `toml:"max_file_size_mb"`
	TransferTimeoutSec  int    `toml:"transfer_timeout_seconds"`
	TranscodeTimeoutSec int    `toml:"transcode_timeout_seconds"`
}

// Search configures the per-owner search session store.
type Search struct {
	MaxResults int `toml:"max_results"`
	PageSize   int `toml:"page_size"`
	MaxPages   int `toml:"max_pages"`
	TTLMinutes int `toml:"ttl_minutes"`
}

// Limits contains per-user request throttling. A zero interval disables
// throttling entirely.
type Limits struct {
	PerUserSeconds int `toml:"per_user_seconds"`
}

// Database contains history database connection settings. An empty path
// disables delivery history.
type Database struct {
	Path         string `toml:"path"`
	MaxOpenConns int    `toml:"max_open_conns"`
	MaxIdleConns int    `toml:"max_idle_conns"`
}

// LoadConfig reads and parses a TOML configuration file from the specified path.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := toml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	return &config, nil
}

// DefaultConfig returns a Config with sensible defaults loaded from the embedded example config.
func DefaultConfig() *Config {
	var config Config
	if err := toml.Unmarshal(exampleConf, &config); err != nil {
		panic(fmt.Sprintf("failed to parse embedded default config: %v", err))
	}
	return &config
}

// CreateConfigFile creates a config.toml file at the specified path using the embedded example config.
func CreateConfigFile(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s: %w", path, err)
	}

	if err := os.WriteFile(path, exampleConf, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// MaxFileSizeBytes returns the artifact size ceiling in bytes.
func (a Audio) MaxFileSizeBytes() int64 {
	return a.MaxFileSizeMB * 1024 * 1024
}

// TransferTimeout returns the transfer stage timeout as a duration.
func (a Audio) TransferTimeout() time.Duration {
	return time.Duration(a.TransferTimeoutSec) * time.Second
}

// TranscodeTimeout returns the transcode stage timeout as a duration.
func (a Audio) TranscodeTimeout() time.Duration {
	return time.Duration(a.TranscodeTimeoutSec) * time.Second
}

// ProbeTimeout returns the per-strategy resolution timeout as a duration.
func (s Source) ProbeTimeout() time.Duration {
	return time.Duration(s.ProbeTimeoutSec) * time.Second
}

// TTL returns the search session time-to-live as a duration.
func (s Search) TTL() time.Duration {
	return time.Duration(s.TTLMinutes) * time.Minute
}
