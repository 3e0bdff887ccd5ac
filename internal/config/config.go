package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

// Environment variables that override the config file.
const (
	EnvAPIURL         = "MAILBOARD_API_URL"
	EnvSessionBackend = "MAILBOARD_SESSION_BACKEND"
)

// Session store backends.
const (
	BackendSQLite  = "sqlite"
	BackendKeyring = "keyring"
	BackendMemory  = "memory"
)

// Config holds all mailboard configuration.
type Config struct {
	API     APIConfig     `toml:"api"`
	Session SessionConfig `toml:"session"`
	Cache   CacheConfig   `toml:"cache"`
	Search  SearchConfig  `toml:"search"`
	List    ListConfig    `toml:"list"`
	Demo    DemoConfig    `toml:"demo"`
}

// APIConfig holds remote email list API settings.
type APIConfig struct {
	BaseURL   string  `toml:"base_url"`
	Timeout   string  `toml:"timeout"`
	RateLimit float64 `toml:"rate_limit"` // requests per second, 0 = unlimited
}

// SessionConfig selects where the signed-in session is kept.
type SessionConfig struct {
	Backend string `toml:"backend"`
}

type CacheConfig struct {
	TTL string `toml:"ttl"`
}

type SearchConfig struct {
	Debounce string `toml:"debounce"`
}

type ListConfig struct {
	PageSize int `toml:"page_size"`
}

// DemoConfig describes the offline identity used when sign-in cannot reach
// the remote service.
type DemoConfig struct {
	DisplayName string `toml:"display_name"`
	Avatar      string `toml:"avatar"`
	MockDelay   string `toml:"mock_delay"`
}

func defaults() Config {
	return Config{
		API: APIConfig{
			BaseURL:   "https://email-list-api-3.onrender.com/api",
			Timeout:   "15s",
			RateLimit: 5,
		},
		Session: SessionConfig{
			Backend: BackendSQLite,
		},
		Cache: CacheConfig{
			TTL: "5m",
		},
		Search: SearchConfig{
			Debounce: "300ms",
		},
		List: ListConfig{
			PageSize: 15,
		},
		Demo: DemoConfig{
			DisplayName: "Sarah Johnson",
			Avatar:      "https://images.unsplash.com/photo-1494790108755-2616b332ad5c?w=64&h=64&fit=crop&crop=face",
			MockDelay:   "800ms",
		},
	}
}

// Load reads config from path. If path is empty, returns defaults.
// Environment overrides are applied last, then the result is validated.
func Load(path string) (*Config, error) {
	cfg := defaults()
	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := toml.Unmarshal(data, &cfg); err != nil {
				return nil, fmt.Errorf("failed to parse config: %w", err)
			}
		case !os.IsNotExist(err):
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}
	cfg.applyEnv()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// LoadDotEnv loads KEY=value pairs from the given files into the process
// environment. Missing files are skipped; variables already set win.
func LoadDotEnv(files ...string) error {
	for _, f := range files {
		if _, err := os.Stat(f); errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err := godotenv.Load(f); err != nil {
			return fmt.Errorf("failed to load %s: %w", f, err)
		}
	}
	return nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv(EnvAPIURL); v != "" {
		c.API.BaseURL = v
	}
	if v := os.Getenv(EnvSessionBackend); v != "" {
		c.Session.Backend = v
	}
}

// Validate checks that every duration parses and that enum fields hold
// known values.
func (c *Config) Validate() error {
	for name, v := range map[string]string{
		"api.timeout":     c.API.Timeout,
		"cache.ttl":       c.Cache.TTL,
		"search.debounce": c.Search.Debounce,
		"demo.mock_delay": c.Demo.MockDelay,
	} {
		if _, err := time.ParseDuration(v); err != nil {
			return fmt.Errorf("invalid %s %q: %w", name, v, err)
		}
	}
	switch c.Session.Backend {
	case BackendSQLite, BackendKeyring, BackendMemory:
	default:
		return fmt.Errorf("invalid session.backend %q: want %s, %s or %s",
			c.Session.Backend, BackendSQLite, BackendKeyring, BackendMemory)
	}
	if c.API.RateLimit < 0 {
		return fmt.Errorf("invalid api.rate_limit %v: must not be negative", c.API.RateLimit)
	}
	if c.List.PageSize < 1 {
		return fmt.Errorf("invalid list.page_size %d: must be at least 1", c.List.PageSize)
	}
	return nil
}

// Durations below are only valid after Validate has succeeded.

func (c APIConfig) TimeoutDuration() time.Duration { return mustDuration(c.Timeout) }
func (c CacheConfig) TTLDuration() time.Duration { return mustDuration(c.TTL) }
func (c SearchConfig) DebounceDuration() time.Duration { return mustDuration(c.Debounce) }
func (c DemoConfig) MockDelayDuration() time.Duration { return mustDuration(c.MockDelay) }

func mustDuration(s string) time.Duration {
	d, _ := time.ParseDuration(s)
	return d
}

// DefaultPath returns the config file location under ConfigDir.
func DefaultPath() string {
	return filepath.Join(ConfigDir(), "config.toml")
}

// ConfigDir returns the mailboard config directory path.
func ConfigDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "mailboard")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "mailboard")
}

// DataDir returns the mailboard data directory path.
func DataDir() string {
	if xdg := os.Getenv("XDG_DATA_HOME"); xdg != "" {
		return filepath.Join(xdg, "mailboard")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".local", "share", "mailboard")
}
