package shared

import (
	_ "embed"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

//go:embed config.example.toml
var exampleConf []byte

//go:embed playlists.example.toml
var examplePlaylists []byte

// Config represents the application configuration loaded from a TOML file.
type Config struct {
	Subsonic   SubsonicConfig   `toml:"subsonic"`
	Generation GenerationConfig `toml:"generation"`
	Logging    LoggingConfig    `toml:"logging"`
}

// SubsonicConfig contains the server address and credentials.
type SubsonicConfig struct {
	BaseURL        string `toml:"base_url"`
	Username       string `toml:"username"`
	Password       string `toml:"password"`
	Client         string `toml:"client"`
	APIVersion     string `toml:"api_version"`
	Auth           string `toml:"auth"` // token | password
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// Timeout returns the HTTP timeout for catalog requests.
func (c SubsonicConfig) Timeout() time.Duration {
	if c.TimeoutSeconds <= 0 {
		return 30 * time.Second
	}
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// GenerationConfig controls how the candidate pool is fetched and how specs are processed.
type GenerationConfig struct {
	PlaylistsPath string   `toml:"playlists_path"`
	PoolSize      int      `toml:"pool_size"`
	DiversePool   bool     `toml:"diverse_pool"`
	GenreSeeds    []string `toml:"genre_seeds"`
	PerGenre      int      `toml:"per_genre"`
	Workers       int      `toml:"workers"`
	RateLimit     float64  `toml:"rate_limit"`
	Seed          uint64   `toml:"seed"`
}

// LoggingConfig contains log output settings.
type LoggingConfig struct {
	Level string `toml:"level"`
}

// LoadConfig reads and parses a TOML configuration file from the specified path.
//
// Keys missing from the file keep the values of [DefaultConfig].
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read config file: %v", ErrMissingConfig, err)
	}

	config := DefaultConfig()
	if err := toml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("%w: failed to parse config: %v", ErrInvalidConfig, err)
	}

	return config, nil
}

// DefaultConfig returns a Config with sensible defaults loaded from the embedded example config.
func DefaultConfig() *Config {
	var config Config
	if err := toml.Unmarshal(exampleConf, &config); err != nil {
		panic(fmt.Sprintf("failed to parse embedded default config: %v", err))
	}
	return &config
}

// Validate checks that the settings needed to reach the server are present.
func (c *Config) Validate() error {
	var missing []string
	if c.Subsonic.BaseURL == "" {
		missing = append(missing, "base_url")
	}
	if c.Subsonic.Username == "" {
		missing = append(missing, "username")
	}
	if c.Subsonic.Password == "" {
		missing = append(missing, "password")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: %s", ErrMissingCredentials, strings.Join(missing, ", "))
	}

	switch c.Subsonic.Auth {
	case "", "token", "password":
	default:
		return fmt.Errorf("%w: unknown auth mode %q", ErrInvalidConfig, c.Subsonic.Auth)
	}

	if c.Generation.PoolSize <= 0 {
		return fmt.Errorf("%w: pool_size must be positive", ErrInvalidConfig)
	}
	return nil
}

// CreateConfigFile creates a config.toml file at the specified path using the embedded example config.
func CreateConfigFile(path string, force bool) error {
	return writeTemplate(path, exampleConf, force)
}

// CreatePlaylistsFile writes the embedded example playlist specifications to path.
func CreatePlaylistsFile(path string, force bool) error {
	return writeTemplate(path, examplePlaylists, force)
}

// ExamplePlaylists returns the embedded example playlist specifications.
func ExamplePlaylists() []byte {
	return examplePlaylists
}

func writeTemplate(path string, data []byte, force bool) error {
	if _, err := os.Stat(path); err == nil && !force {
		return fmt.Errorf("%w: file already exists at %s", ErrInvalidArgument, path)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}

	return nil
}
