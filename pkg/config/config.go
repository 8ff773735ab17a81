package config

import (
	"fmt"
	"os"
	"time"

	"github.com/adhocore/gronx"
	"gopkg.in/yaml.v3"
)

// Defaults applied by ValidateConfig.
const (
	defaultRateRPS   = 50
	defaultRateBurst = 100

	defaultReplyProvider = "canned"
	defaultReplyTimeout  = 30 * time.Second
	defaultHistoryWindow = 3
	defaultTokenBudget   = 2048
	defaultFailureText   = "could not get a reply, please try again"

	defaultSweepCron = "*/5 * * * *"

	defaultMaxTextLen  = 8192
	defaultMaxTitleLen = 256
)

// Addr returns the HTTP server address as host:port.
func (c *Config) Addr() string {
	addr := c.Server.Address
	if addr == "" {
		addr = "0.0.0.0"
	}
	port := c.Server.Port
	if port == 0 {
		port = 8080
	}
	return fmt.Sprintf("%s:%d", addr, port)
}

// LoadConfigFile reads and parses a config file.
func LoadConfigFile(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("config file not found: %s", path)
		}
		return nil, err
	}
	var cfg Config
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// ValidateConfig applies defaults and validates values in the config. It
// mutates the receiver to fill in missing defaults and returns an error
// if any configuration value is invalid.
func (c *Config) ValidateConfig() error {
	// Rate limit defaults
	if c.Security.RateLimit.RPS <= 0 {
		c.Security.RateLimit.RPS = defaultRateRPS
	}
	if c.Security.RateLimit.Burst <= 0 {
		c.Security.RateLimit.Burst = defaultRateBurst
	}

	// Reply defaults
	if c.Reply.Provider == "" {
		c.Reply.Provider = defaultReplyProvider
	}
	switch c.Reply.Provider {
	case "canned", "openai":
	default:
		return fmt.Errorf("unknown reply provider: %s", c.Reply.Provider)
	}
	if c.Reply.Provider == "openai" && c.Reply.BaseURL == "" {
		return fmt.Errorf("reply provider %q requires base_url", c.Reply.Provider)
	}
	if c.Reply.Timeout.Duration() == 0 {
		c.Reply.Timeout = Duration(defaultReplyTimeout)
	}
	if c.Reply.HistoryWindow <= 0 {
		c.Reply.HistoryWindow = defaultHistoryWindow
	}
	if c.Reply.TokenBudget <= 0 {
		c.Reply.TokenBudget = defaultTokenBudget
	}
	if c.Reply.FailureText == "" {
		c.Reply.FailureText = defaultFailureText
	}

	// Sweep cron (if not set, default to every five minutes)
	if c.Sweep.Cron == "" {
		c.Sweep.Cron = defaultSweepCron
	}
	if !gronx.IsValid(c.Sweep.Cron) {
		return fmt.Errorf("invalid sweep cron expression: %s", c.Sweep.Cron)
	}

	// Validation limits
	if c.Limits.MaxTextLen <= 0 {
		c.Limits.MaxTextLen = defaultMaxTextLen
	}
	if c.Limits.MaxTitleLen <= 0 {
		c.Limits.MaxTitleLen = defaultMaxTitleLen
	}

	return nil
}

// ResolveConfigPath returns the config file path, preferring flag, then env.
func ResolveConfigPath(flagPath string, flagSet bool) string {
	if flagSet {
		return flagPath
	}
	if p := os.Getenv("CHATLEDGER_CONFIG"); p != "" {
		return p
	}
	return flagPath
}
