// Package config loads the process configuration from a YAML file with
// secrets overlaid from the environment (optionally via a .env file).
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/quartzlab/tradedesk/market"
	"github.com/quartzlab/tradedesk/trading"
)

// Environments the desk can run in.
const (
	EnvLive  = "live"
	EnvPaper = "paper"
)

// MissingKeyError names a required setting that was absent. Fatal at
// startup, never retried.
type MissingKeyError struct {
	Key string
}

func (e *MissingKeyError) Error() string {
	return fmt.Sprintf("missing required config %s: set it in the environment or a .env file", e.Key)
}

// ProfileConfig is one broker behavior profile as written in YAML.
// Durations are strings ("1s", "500ms") parsed by time.ParseDuration.
type ProfileConfig struct {
	Name         string `yaml:"name"`
	TimeInForce  string `yaml:"time_in_force"`
	PollInterval string `yaml:"poll_interval"`
	OrderTimeout string `yaml:"order_timeout"`
}

// ToProfile converts the YAML form into a trading.Profile.
func (p ProfileConfig) ToProfile() (trading.Profile, error) {
	out := trading.Profile{Name: p.Name, TimeInForce: p.TimeInForce}

	var err error
	if p.PollInterval != "" {
		if out.PollInterval, err = time.ParseDuration(p.PollInterval); err != nil {
			return trading.Profile{}, fmt.Errorf("profile %s poll_interval: %w", p.Name, err)
		}
	}
	if p.OrderTimeout != "" {
		if out.OrderTimeout, err = time.ParseDuration(p.OrderTimeout); err != nil {
			return trading.Profile{}, fmt.Errorf("profile %s order_timeout: %w", p.Name, err)
		}
	}
	if out.PollInterval > 0 && out.OrderTimeout > 0 && out.PollInterval > out.OrderTimeout {
		return trading.Profile{}, fmt.Errorf("profile %s: poll_interval exceeds order_timeout", p.Name)
	}
	return out, nil
}

// Config is the full process configuration.
type Config struct {
	Env      string `yaml:"env"`       // "live" or "paper"
	Broker   string `yaml:"broker"`    // active broker profile name
	LogLevel string `yaml:"log_level"` // debug, info, warn, error

	Alpaca struct {
		BaseURL   string `yaml:"base_url"`
		APIKey    string `yaml:"api_key"`
		APISecret string `yaml:"api_secret"`
	} `yaml:"alpaca"`

	OrderDB string `yaml:"order_db"` // paper-broker SQLite path

	Market struct {
		Open  string `yaml:"open"`  // offset from midnight UTC, e.g. "13h30m"
		Close string `yaml:"close"` // e.g. "20h"
	} `yaml:"market"`

	Profiles []ProfileConfig `yaml:"profiles"`
}

// Clock builds the market session clock. Hours default to the regular US
// equity session in UTC when the file leaves them unset.
func (c *Config) Clock() (market.Clock, error) {
	open, close := market.DefaultOpen, market.DefaultClose

	var err error
	if c.Market.Open != "" {
		if open, err = time.ParseDuration(c.Market.Open); err != nil {
			return market.Clock{}, fmt.Errorf("market open: %w", err)
		}
	}
	if c.Market.Close != "" {
		if close, err = time.ParseDuration(c.Market.Close); err != nil {
			return market.Clock{}, fmt.Errorf("market close: %w", err)
		}
	}
	if open >= close {
		return market.Clock{}, fmt.Errorf("market open %s is not before close %s", open, close)
	}
	return market.NewClock(open, close, time.UTC), nil
}

// Load reads the YAML file at path (skipped when path is empty), overlays
// environment variables and validates the result. A .env file in the working
// directory is honored if present.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{}
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(b, cfg); err != nil {
			return nil, fmt.Errorf("parse config file: %w", err)
		}
	}
	cfg.overlayEnv()
	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) overlayEnv() {
	setIfPresent := func(dst *string, key string) {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}
	setIfPresent(&c.Env, "TRADEDESK_ENV")
	setIfPresent(&c.Broker, "BROKER_NAME")
	setIfPresent(&c.LogLevel, "LOG_LEVEL")
	setIfPresent(&c.Alpaca.BaseURL, "ALPACA_BASE_URL")
	setIfPresent(&c.Alpaca.APIKey, "ALPACA_API_KEY")
	setIfPresent(&c.Alpaca.APISecret, "ALPACA_API_SECRET")
	setIfPresent(&c.OrderDB, "ORDER_DB")
}

func (c *Config) applyDefaults() {
	if c.Env == "" {
		c.Env = EnvPaper
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if c.OrderDB == "" {
		c.OrderDB = "./orders.db"
	}
}

// Validate checks the configuration. Missing required settings surface as
// MissingKeyError.
func (c *Config) Validate() error {
	if c.Env != EnvLive && c.Env != EnvPaper {
		return fmt.Errorf("invalid env %q: must be %q or %q", c.Env, EnvLive, EnvPaper)
	}
	if c.Broker == "" {
		return &MissingKeyError{Key: "BROKER_NAME"}
	}
	if c.Alpaca.APIKey == "" {
		return &MissingKeyError{Key: "ALPACA_API_KEY"}
	}
	if c.Alpaca.APISecret == "" {
		return &MissingKeyError{Key: "ALPACA_API_SECRET"}
	}
	if _, err := c.Clock(); err != nil {
		return err
	}
	for _, p := range c.Profiles {
		if _, err := p.ToProfile(); err != nil {
			return err
		}
	}
	return nil
}

// Registry builds the broker-profile registry from the configured profiles.
// The active broker always has a profile: if the file doesn't declare one, a
// default with gateway fallbacks is registered under its name.
func (c *Config) Registry() (*trading.Registry, error) {
	profiles := make([]trading.Profile, 0, len(c.Profiles)+1)
	seen := false
	for _, pc := range c.Profiles {
		p, err := pc.ToProfile()
		if err != nil {
			return nil, err
		}
		profiles = append(profiles, p)
		if p.Name == c.Broker {
			seen = true
		}
	}
	if !seen {
		profiles = append(profiles, trading.Profile{Name: c.Broker})
	}
	return trading.NewRegistry(profiles...), nil
}
