// Package config loads giftjourney settings from defaults, an optional YAML
// file, a .env file and GIFTJOURNEY_* environment variables, in increasing
// order of precedence.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/unowned-ai/giftjourney/pkg/utils"
)

// EnvPrefix prefixes every environment override, e.g. GIFTJOURNEY_API_BASE_URL.
const EnvPrefix = "GIFTJOURNEY"

type Config struct {
	API     APIConfig     `mapstructure:"api"`
	Share   ShareConfig   `mapstructure:"share"`
	Payment PaymentConfig `mapstructure:"payment"`
	DB      DBConfig      `mapstructure:"db"`
}

type APIConfig struct {
	BaseURL string        `mapstructure:"base_url"`
	Timeout time.Duration `mapstructure:"timeout"`
	// RateLimit is requests per second; 0 disables client-side limiting.
	RateLimit float64 `mapstructure:"rate_limit"`
	Burst     int     `mapstructure:"burst"`
}

type ShareConfig struct {
	// BaseURL is the web origin reveal links point at.
	BaseURL string `mapstructure:"base_url"`
}

type PaymentConfig struct {
	PollInterval time.Duration `mapstructure:"poll_interval"`
	PollTimeout  time.Duration `mapstructure:"poll_timeout"`
	// CheckoutURL is used when the server returns no checkout url.
	// "{session_id}" is replaced by the session id.
	CheckoutURL string `mapstructure:"checkout_url"`
}

type DBConfig struct {
	Path string `mapstructure:"path"`
	WAL  bool   `mapstructure:"wal"`
	Sync string `mapstructure:"sync"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("api.base_url", "http://localhost:3000/api")
	v.SetDefault("api.timeout", "15s")
	v.SetDefault("api.rate_limit", 0)
	v.SetDefault("api.burst", 1)
	v.SetDefault("share.base_url", "http://localhost:3000")
	v.SetDefault("payment.poll_interval", "2s")
	v.SetDefault("payment.poll_timeout", "30s")
	v.SetDefault("payment.checkout_url", "")
	v.SetDefault("db.path", "")
	v.SetDefault("db.wal", true)
	v.SetDefault("db.sync", "NORMAL")
}

// Load reads the configuration. An empty path means the default config file,
// which may be absent; an explicit path must exist.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	explicit := path != ""
	if !explicit {
		path = utils.GetDefaultConfigPath()
	}
	if path != "" {
		expanded, err := utils.ExpandHome(path)
		if err != nil {
			return nil, err
		}
		if _, err := os.Stat(expanded); err == nil {
			v.SetConfigFile(expanded)
			v.SetConfigType("yaml")
			if err := v.ReadInConfig(); err != nil {
				return nil, fmt.Errorf("failed to read config file '%s': %w", expanded, err)
			}
		} else if explicit {
			return nil, fmt.Errorf("config file '%s': %w", expanded, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode configuration: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// LoadDotEnv loads .env files into the process environment without
// overriding variables that are already set. Missing files are ignored.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, p := range paths {
		if err := godotenv.Load(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("failed to load %s: %w", p, err)
		}
	}
	return nil
}

// Validate checks the settings that would otherwise fail far from their source.
func (c *Config) Validate() error {
	if err := validateBaseURL("api.base_url", c.API.BaseURL); err != nil {
		return err
	}
	if err := validateBaseURL("share.base_url", c.Share.BaseURL); err != nil {
		return err
	}
	if c.API.RateLimit < 0 {
		return fmt.Errorf("api.rate_limit must not be negative, got %v", c.API.RateLimit)
	}
	if c.Payment.PollInterval <= 0 || c.Payment.PollTimeout <= 0 {
		return fmt.Errorf("payment.poll_interval and payment.poll_timeout must be positive")
	}
	if c.Payment.PollInterval > c.Payment.PollTimeout {
		return fmt.Errorf("payment.poll_interval (%s) exceeds payment.poll_timeout (%s)", c.Payment.PollInterval, c.Payment.PollTimeout)
	}
	return nil
}

func validateBaseURL(key, raw string) error {
	u, err := url.Parse(raw)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("%s must be an absolute URL, got %q", key, raw)
	}
	return nil
}

// YAML renders the effective configuration with durations in their string form.
func (c *Config) YAML() ([]byte, error) {
	doc := map[string]any{
		"api": map[string]any{
			"base_url":   c.API.BaseURL,
			"timeout":    c.API.Timeout.String(),
			"rate_limit": c.API.RateLimit,
			"burst":      c.API.Burst,
		},
		"share": map[string]any{
			"base_url": c.Share.BaseURL,
		},
		"payment": map[string]any{
			"poll_interval": c.Payment.PollInterval.String(),
			"poll_timeout":  c.Payment.PollTimeout.String(),
			"checkout_url":  c.Payment.CheckoutURL,
		},
		"db": map[string]any{
			"path": c.DB.Path,
			"wal":  c.DB.WAL,
			"sync": c.DB.Sync,
		},
	}
	return yaml.Marshal(doc)
}
