// Package config loads client configuration from the environment and an optional .env file using Viper.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds the client configuration.
type Config struct {
	// APIURL is the backend base URL (e.g. http://localhost:8000).
	APIURL string `mapstructure:"INVESTA_API_URL"`
	// APIPrefix is prepended to every auth path (e.g. /api).
	APIPrefix string `mapstructure:"INVESTA_API_PREFIX"`
	// WebURL is the storefront website, used by `investa open`.
	WebURL string `mapstructure:"INVESTA_WEB_URL"`
	// DataDir holds session.db and investa.log. Defaults to ~/.investa.
	DataDir string `mapstructure:"INVESTA_DATA_DIR"`
	// LogLevel is a slog level name (debug, info, warn, error).
	LogLevel string `mapstructure:"INVESTA_LOG_LEVEL"`
	// HTTPTimeout bounds each API call (e.g. "10s").
	HTTPTimeout string `mapstructure:"INVESTA_HTTP_TIMEOUT"`
}

// Load reads .env (if present), then builds and validates Config from the environment via Viper.
// Missing .env is ignored. Env vars override .env.
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigFile(".env")
	v.SetConfigType("env")
	_ = v.ReadInConfig() // ignore ErrConfigFileNotFound

	v.AutomaticEnv()

	v.SetDefault("INVESTA_API_URL", "http://localhost:8000")
	v.SetDefault("INVESTA_API_PREFIX", "/api")
	v.SetDefault("INVESTA_WEB_URL", "http://localhost:3000")
	v.SetDefault("INVESTA_DATA_DIR", "")
	v.SetDefault("INVESTA_LOG_LEVEL", "info")
	v.SetDefault("INVESTA_HTTP_TIMEOUT", "10s")

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	if err := cfg.normalize(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) normalize() error {
	c.APIURL = strings.TrimRight(strings.TrimSpace(c.APIURL), "/")
	if err := checkHTTPURL("INVESTA_API_URL", c.APIURL); err != nil {
		return err
	}
	c.WebURL = strings.TrimRight(strings.TrimSpace(c.WebURL), "/")
	if err := checkHTTPURL("INVESTA_WEB_URL", c.WebURL); err != nil {
		return err
	}
	c.APIPrefix = NormalizePrefix(c.APIPrefix)

	if c.DataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return fmt.Errorf("config: resolve home dir: %w", err)
		}
		c.DataDir = filepath.Join(home, ".investa")
	}
	return nil
}

// SetAPIURL overrides APIURL (from a flag) and re-validates it.
func (c *Config) SetAPIURL(raw string) error {
	u := strings.TrimRight(strings.TrimSpace(raw), "/")
	if err := checkHTTPURL("api-url", u); err != nil {
		return err
	}
	c.APIURL = u
	return nil
}

// Timeout parses HTTPTimeout as a time.Duration. Returns 10s if unset or invalid.
func (c *Config) Timeout() time.Duration {
	d, err := time.ParseDuration(c.HTTPTimeout)
	if err != nil || d <= 0 {
		return 10 * time.Second
	}
	return d
}

// NormalizePrefix returns prefix with one leading slash and no trailing slash.
// An empty or "/" prefix becomes "".
func NormalizePrefix(prefix string) string {
	p := strings.Trim(strings.TrimSpace(prefix), "/")
	if p == "" {
		return ""
	}
	return "/" + p
}

func checkHTTPURL(key, raw string) error {
	if raw == "" {
		return errors.New("config: " + key + " must be set")
	}
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("config: %s: %w", key, err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("config: %s must be an absolute http(s) URL, got %q", key, raw)
	}
	return nil
}
