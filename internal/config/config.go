// Package config loads and saves the application's TOML configuration.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// Network selects which relay the client talks to.
type Network string

const (
	NetworkSayIntentions Network = "sayintentions"
	NetworkHoppie        Network = "hoppie"
)

const (
	DefaultPollIntervalSec       = 60
	DefaultActivePollIntervalSec = 20
	DefaultInactivityTimeoutSec  = 300
	DefaultMaxFailures           = 3
)

// Config holds all persistent application settings.
type Config struct {
	Network  NetworkConfig  `toml:"network"`
	SimBrief SimBriefConfig `toml:"simbrief"`
	Polling  PollingConfig  `toml:"polling"`
	Logging  LoggingConfig  `toml:"logging"`
}

// NetworkConfig carries the relay selection and per-network logon codes.
type NetworkConfig struct {
	Network                Network `toml:"network"`
	SayIntentionsLogonCode string  `toml:"sayintentions_logon_code"`
	HoppieLogonCode        string  `toml:"hoppie_logon_code"`
}

// SimBriefConfig identifies the pilot's SimBrief account.
type SimBriefConfig struct {
	UserID string `toml:"simbrief_userid"`
}

// PollingConfig tunes the adaptive poll loop, in seconds.
type PollingConfig struct {
	DefaultIntervalSec   int `toml:"default_interval_sec"`
	ActiveIntervalSec    int `toml:"active_interval_sec"`
	InactivityTimeoutSec int `toml:"inactivity_timeout_sec"`
	MaxFailures          int `toml:"max_failures"`
}

// LoggingConfig defines runtime logging behavior.
type LoggingConfig struct {
	Level     string `toml:"level"`
	LogToFile bool   `toml:"log_to_file"`
}

// Default returns a configuration with every field at its default.
func Default() Config {
	var cfg Config
	cfg.FillMissingDefaults()
	return cfg
}

// FillMissingDefaults populates zero-valued fields so partially written
// config files keep working.
func (c *Config) FillMissingDefaults() {
	if c.Network.Network == "" {
		c.Network.Network = NetworkSayIntentions
	}
	if c.Polling.DefaultIntervalSec <= 0 {
		c.Polling.DefaultIntervalSec = DefaultPollIntervalSec
	}
	if c.Polling.ActiveIntervalSec <= 0 {
		c.Polling.ActiveIntervalSec = DefaultActivePollIntervalSec
	}
	if c.Polling.InactivityTimeoutSec <= 0 {
		c.Polling.InactivityTimeoutSec = DefaultInactivityTimeoutSec
	}
	if c.Polling.MaxFailures <= 0 {
		c.Polling.MaxFailures = DefaultMaxFailures
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
}

// LogonCode returns the logon code for the selected network.
func (c *Config) LogonCode() string {
	if c.Network.Network == NetworkHoppie {
		return c.Network.HoppieLogonCode
	}
	return c.Network.SayIntentionsLogonCode
}

// Dir returns the OS-specific directory for config, log and history files,
// creating it if needed.
func Dir() (string, error) {
	base, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("resolve user config dir: %w", err)
	}
	dir := filepath.Join(base, "simcpdlc")
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return "", fmt.Errorf("create config dir: %w", err)
	}
	return dir, nil
}

// Load reads the configuration file at path. A missing file yields the
// defaults without error.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Default(), nil
		}
		return Config{}, fmt.Errorf("read config file: %w", err)
	}

	var cfg Config
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config file: %w", err)
	}

	cfg.FillMissingDefaults()
	return cfg, nil
}

// Save writes the configuration to path.
func Save(path string, cfg Config) error {
	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(cfg); err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o600); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}
	return nil
}
