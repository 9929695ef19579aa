package config

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

//go:embed default.yaml
var DefaultConfigYAML []byte

type Config struct {
	API      API      `yaml:"api"`
	Defaults Defaults `yaml:"defaults"`
	Storage  Storage  `yaml:"storage"`
	Server   Server   `yaml:"server"`
	Logging  Logging  `yaml:"logging"`
}

// API configures access to the RedRanks endpoints on RapidAPI.
type API struct {
	BaseURL           string        `yaml:"base_url"`
	Host              string        `yaml:"host"`
	APIKeyEnv         string        `yaml:"api_key_env"`
	Timeout           time.Duration `yaml:"timeout"`
	RequestsPerMinute float64       `yaml:"requests_per_minute"`
	Burst             int           `yaml:"burst"`
}

// Defaults are the inputs used when a command flag is not given.
type Defaults struct {
	Brand       string   `yaml:"brand"`
	Competitors []string `yaml:"competitors"`
	MaxThreads  int      `yaml:"max_threads"`
	MaxComments int      `yaml:"max_comments"`
	Freshness   string   `yaml:"freshness"`
	MinTraffic  int      `yaml:"min_traffic"`
}

type Storage struct {
	Enabled bool   `yaml:"enabled"`
	DataDir string `yaml:"data_dir"`
}

type Server struct {
	Port int `yaml:"port"`
}

type Logging struct {
	Level string `yaml:"level"`
	File  string `yaml:"file"`
}

// ConfigDir returns the XDG config directory for redranks.
func ConfigDir() string {
	return filepath.Join(homeDir(), ".config", "redranks")
}

// DataDir returns the XDG data directory for redranks.
func DataDir() string {
	return filepath.Join(homeDir(), ".local", "share", "redranks")
}

// ResolveConfigPath finds the config file following priority:
// explicit path > ~/.config/redranks/config.yaml > ./config.yaml.
// An empty path with a nil error means no file exists and defaults apply.
func ResolveConfigPath(explicit string) (string, error) {
	if explicit != "" {
		if _, err := os.Stat(explicit); err != nil {
			return "", fmt.Errorf("config file not found: %s", explicit)
		}
		return explicit, nil
	}

	xdgConfig := filepath.Join(ConfigDir(), "config.yaml")
	if _, err := os.Stat(xdgConfig); err == nil {
		return xdgConfig, nil
	}

	cwdConfig := "config.yaml"
	if _, err := os.Stat(cwdConfig); err == nil {
		return cwdConfig, nil
	}

	return "", nil
}

// Load reads and parses a config YAML file. An empty path yields the defaults.
func Load(path string) (*Config, error) {
	if path == "" {
		return parse(nil)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	return parse(data)
}

// parse parses YAML bytes into a Config, applying defaults.
func parse(data []byte) (*Config, error) {
	cfg := &Config{
		API: API{
			BaseURL:           "https://reddit-traffic-and-intelligence-api.p.rapidapi.com/api/v2",
			Host:              "reddit-traffic-and-intelligence-api.p.rapidapi.com",
			APIKeyEnv:         "RAPIDAPI_KEY",
			Timeout:           30 * time.Second,
			RequestsPerMinute: 30,
			Burst:             1,
		},
		Defaults: Defaults{
			MaxThreads:  10,
			MaxComments: 5,
			Freshness:   "balanced",
			MinTraffic:  500,
		},
		Storage: Storage{Enabled: true},
		Server:  Server{Port: 8000},
		Logging: Logging{Level: "info"},
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks that numeric settings are within usable ranges.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.API.BaseURL) == "" {
		return fmt.Errorf("api.base_url must not be empty")
	}
	if c.API.Timeout <= 0 {
		return fmt.Errorf("api.timeout must be positive")
	}
	if c.API.RequestsPerMinute < 0 {
		return fmt.Errorf("api.requests_per_minute cannot be negative")
	}
	if c.API.Burst < 0 {
		return fmt.Errorf("api.burst cannot be negative")
	}
	if c.Defaults.MaxThreads < 0 || c.Defaults.MaxThreads > 20 {
		return fmt.Errorf("defaults.max_threads must be between 0 and 20")
	}
	if c.Defaults.MaxComments < 0 || c.Defaults.MaxComments > 20 {
		return fmt.Errorf("defaults.max_comments must be between 0 and 20")
	}
	if len(c.Defaults.Competitors) > 20 {
		return fmt.Errorf("defaults.competitors accepts at most 20 names")
	}
	switch c.Defaults.Freshness {
	case "realtime", "balanced", "custom":
	default:
		return fmt.Errorf("defaults.freshness must be realtime, balanced or custom, got %q", c.Defaults.Freshness)
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port out of range: %d", c.Server.Port)
	}
	return nil
}

// APIKey reads the RapidAPI key from the configured environment variable.
func (c *Config) APIKey() string {
	return strings.TrimSpace(os.Getenv(c.API.APIKeyEnv))
}

// GetDataDir returns the effective data directory from config or XDG default.
// A leading ~ in the configured path is expanded to the home directory.
func (c *Config) GetDataDir() string {
	if c.Storage.DataDir != "" {
		return expandHome(c.Storage.DataDir)
	}
	return DataDir()
}

func expandHome(path string) string {
	if path == "~" {
		return homeDir()
	}
	if strings.HasPrefix(path, "~/") {
		return filepath.Join(homeDir(), path[2:])
	}
	return path
}

func homeDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return home
}
