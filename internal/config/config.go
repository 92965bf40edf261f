// Package config provides YAML-based configuration loading for Caravan.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config is the top-level Caravan configuration, loaded from config.yaml.
type Config struct {
	Github    GithubConfig    `yaml:"github"`
	Annex     AnnexConfig     `yaml:"annex"`
	Inventory InventoryConfig `yaml:"inventory"`
	Sync      SyncConfig      `yaml:"sync"`
	Notify    NotifyConfig    `yaml:"notify"`
}

// GithubConfig holds settings for creating siblings on GitHub.
type GithubConfig struct {
	User           string   `yaml:"user"`            // username substituted into https URLs
	Organization   string   `yaml:"organization"`    // default organization for new repositories
	Tokens         []string `yaml:"tokens"`          // candidate tokens, tried in order
	AccessProtocol string   `yaml:"access_protocol"` // https or ssh
}

// AnnexConfig holds defaults for annex-enabled datasets.
type AnnexConfig struct {
	Backend string `yaml:"backend"` // default hashing backend for new datasets
}

// InventoryConfig selects the backend for the local dataset inventory.
type InventoryConfig struct {
	Driver   string `yaml:"driver"` // sqlite or mysql
	Path     string `yaml:"path"`   // sqlite database file
	Host     string `yaml:"host"`   // mysql only
	Port     int    `yaml:"port"`   // mysql only
	Database string `yaml:"database"`
}

// SyncConfig controls the sibling sync daemon.
type SyncConfig struct {
	Schedule string   `yaml:"schedule"` // 5-field cron expression
	Siblings []string `yaml:"siblings"` // sibling names to push; empty means all
}

// NotifyConfig configures best-effort notification sinks.
type NotifyConfig struct {
	Command string        `yaml:"command"` // shell template, e.g. "notify-send Caravan '{{.Summary}}'"
	Slack   SlackNotify   `yaml:"slack"`
	Discord DiscordNotify `yaml:"discord"`
}

// SlackNotify holds Slack delivery settings.
type SlackNotify struct {
	Token   string `yaml:"token"`
	Channel string `yaml:"channel"`
}

// DiscordNotify holds Discord delivery settings.
type DiscordNotify struct {
	Token     string `yaml:"token"`
	ChannelID string `yaml:"channel_id"`
}

// DefaultPath returns the per-user config file location.
func DefaultPath() string {
	if dir, err := os.UserConfigDir(); err == nil {
		return filepath.Join(dir, "caravan", "config.yaml")
	}
	return "caravan.yaml"
}

// Load reads a YAML config file from path and returns a validated Config.
// A missing file yields the defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return Parse(nil)
	}
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	return Parse(data)
}

// Parse unmarshals YAML bytes into a validated Config.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("config: parse: %w", err)
	}
	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// applyDefaults fills in derived and default values.
func (c *Config) applyDefaults() {
	if c.Github.AccessProtocol == "" {
		c.Github.AccessProtocol = "https"
	}
	if c.Annex.Backend == "" {
		c.Annex.Backend = "MD5E"
	}
	if c.Inventory.Driver == "" {
		c.Inventory.Driver = "sqlite"
	}
	if c.Inventory.Path == "" {
		if home, err := os.UserHomeDir(); err == nil {
			c.Inventory.Path = filepath.Join(home, ".local", "share", "caravan", "inventory.db")
		} else {
			c.Inventory.Path = "inventory.db"
		}
	}
	if c.Inventory.Host == "" {
		c.Inventory.Host = "127.0.0.1"
	}
	if c.Inventory.Port == 0 {
		c.Inventory.Port = 3306
	}
	if c.Inventory.Database == "" {
		c.Inventory.Database = "caravan"
	}
	if c.Sync.Schedule == "" {
		c.Sync.Schedule = "*/30 * * * *"
	}
}

// validate checks that all fields are consistent.
func (c *Config) validate() error {
	var errs []string
	switch c.Github.AccessProtocol {
	case "https", "ssh":
	default:
		errs = append(errs, fmt.Sprintf("github.access_protocol must be https or ssh, got %q", c.Github.AccessProtocol))
	}
	switch c.Inventory.Driver {
	case "sqlite", "mysql":
	default:
		errs = append(errs, fmt.Sprintf("inventory.driver must be sqlite or mysql, got %q", c.Inventory.Driver))
	}
	if c.Notify.Slack.Token != "" && c.Notify.Slack.Channel == "" {
		errs = append(errs, "notify.slack.channel is required when a slack token is set")
	}
	if c.Notify.Discord.Token != "" && c.Notify.Discord.ChannelID == "" {
		errs = append(errs, "notify.discord.channel_id is required when a discord token is set")
	}
	if len(errs) > 0 {
		return fmt.Errorf("config: validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}
