package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/pelletier/go-toml/v2"
)

// DirName is the directory under the user's home holding the configuration,
// the session file and the catalog database.
const DirName = ".riftbound"

// Config represents the application configuration.
type Config struct {
	API     APIConfig     `toml:"api"`
	Catalog CatalogConfig `toml:"catalog"`
	Session SessionConfig `toml:"session"`
	Deck    DeckConfig    `toml:"deck"`
	Log     LogConfig     `toml:"log"`
}

// APIConfig configures the persistence service client.
type APIConfig struct {
	BaseURL           string  `toml:"base_url" env:"RIFTBOUND_API_URL"`
	Timeout           string  `toml:"timeout" env:"RIFTBOUND_API_TIMEOUT"` // e.g. "30s"
	RequestsPerSecond float64 `toml:"requests_per_second" env:"RIFTBOUND_API_RPS"`
	ReadRetries       int     `toml:"read_retries" env:"RIFTBOUND_API_READ_RETRIES"`
}

// CatalogConfig locates the card catalog.
type CatalogConfig struct {
	Path   string `toml:"path" env:"RIFTBOUND_CATALOG_PATH"`       // JSON catalog file
	DBPath string `toml:"db_path" env:"RIFTBOUND_CATALOG_DB_PATH"` // SQLite catalog, used when Path is empty
	Watch  bool   `toml:"watch" env:"RIFTBOUND_CATALOG_WATCH"`     // reload Path on change
}

// SessionConfig locates the stored credential.
type SessionConfig struct {
	File string `toml:"file" env:"RIFTBOUND_SESSION_FILE"`

	// Never written to disk.
	Token      string `toml:"-" env:"RIFTBOUND_TOKEN"`
	Passphrase string `toml:"-" env:"RIFTBOUND_SESSION_PASSPHRASE"`
}

// DeckConfig holds deck construction limits.
type DeckConfig struct {
	MaxCopies        int `toml:"max_copies" env:"RIFTBOUND_DECK_MAX_COPIES"`
	MainSize         int `toml:"main_size"`
	RuneCount        int `toml:"rune_count"`
	BattlefieldCount int `toml:"battlefield_count"`
}

// LogConfig contains logging settings.
type LogConfig struct {
	Debug bool `toml:"debug" env:"RIFTBOUND_DEBUG"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	dir := defaultDir()
	return &Config{
		API: APIConfig{
			BaseURL:           "http://localhost:5000/api",
			Timeout:           "30s",
			RequestsPerSecond: 10,
			ReadRetries:       0,
		},
		Catalog: CatalogConfig{
			DBPath: filepath.Join(dir, "catalog.db"),
		},
		Session: SessionConfig{
			File: filepath.Join(dir, "session.enc"),
		},
		Deck: DeckConfig{
			MaxCopies:        3,
			MainSize:         40,
			RuneCount:        12,
			BattlefieldCount: 3,
		},
	}
}

func defaultDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return DirName
	}
	return filepath.Join(home, DirName)
}

// Path returns the path of the configuration file.
func Path() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("get home directory: %w", err)
	}
	return filepath.Join(homeDir, DirName, "config.toml"), nil
}

// Load loads the configuration file from its default location, then applies
// environment overrides. A missing file yields the defaults.
func Load() (*Config, error) {
	path, err := Path()
	if err != nil {
		return nil, err
	}
	return LoadFile(path)
}

// LoadFile loads the configuration from path over the defaults, then applies
// environment overrides. A missing file yields the defaults.
func LoadFile(path string) (*Config, error) {
	config := DefaultConfig()

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return nil, fmt.Errorf("read config file: %w", err)
	default:
		if err := toml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("parse config file: %w", err)
		}
	}

	if err := env.Parse(config); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	return config, nil
}

// Save writes the configuration to its default location.
func (c *Config) Save() error {
	path, err := Path()
	if err != nil {
		return err
	}
	return c.SaveFile(path)
}

// SaveFile writes the configuration to path, creating its directory.
func (c *Config) SaveFile(path string) error {
	data, err := toml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}
	return nil
}

// Validate validates the configuration values.
func (c *Config) Validate() error {
	u, err := url.Parse(c.API.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("invalid api base url %q", c.API.BaseURL)
	}
	if _, err := c.APITimeout(); err != nil {
		return fmt.Errorf("invalid api timeout %q: %w", c.API.Timeout, err)
	}
	if c.API.RequestsPerSecond < 0 {
		return fmt.Errorf("requests per second cannot be negative: %v", c.API.RequestsPerSecond)
	}
	if c.API.ReadRetries < 0 {
		return fmt.Errorf("read retries cannot be negative: %d", c.API.ReadRetries)
	}
	if c.Catalog.Path == "" && c.Catalog.DBPath == "" {
		return fmt.Errorf("either catalog.path or catalog.db_path is required")
	}
	if c.Catalog.Watch && c.Catalog.Path == "" {
		return fmt.Errorf("catalog.watch requires catalog.path")
	}
	if c.Deck.MaxCopies <= 0 {
		return fmt.Errorf("max copies must be positive: %d", c.Deck.MaxCopies)
	}
	if c.Deck.MainSize <= 0 || c.Deck.RuneCount < 0 || c.Deck.BattlefieldCount < 0 {
		return fmt.Errorf("invalid deck size targets %d/%d/%d",
			c.Deck.MainSize, c.Deck.RuneCount, c.Deck.BattlefieldCount)
	}
	return nil
}

// APITimeout returns the request timeout as a duration.
func (c *Config) APITimeout() (time.Duration, error) {
	return time.ParseDuration(c.API.Timeout)
}
