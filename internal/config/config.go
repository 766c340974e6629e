// Package config provides YAML-based configuration loading for Liftline.
package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config is the top-level Liftline configuration, loaded from liftline.yaml.
type Config struct {
	Shop        string            `yaml:"shop"`
	Database    DatabaseConfig    `yaml:"database"`
	Server      ServerConfig      `yaml:"server"`
	Utilization UtilizationConfig `yaml:"utilization"`
	Lifts       []LiftConfig      `yaml:"lifts"`
	Workers     []WorkerConfig    `yaml:"workers"`
	Notify      NotifyConfig      `yaml:"notify"`
}

// DatabaseConfig holds connection settings for the MySQL server.
type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Database string `yaml:"database"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
}

// ServerConfig holds HTTP API settings.
type ServerConfig struct {
	Port int `yaml:"port"`
}

// UtilizationConfig tunes the utilization projection.
type UtilizationConfig struct {
	TargetMinutes int `yaml:"target_minutes"`
	WindowDays    int `yaml:"window_days"`
}

// LiftConfig seeds one physical lift.
type LiftConfig struct {
	ID   string `yaml:"id"`
	Name string `yaml:"name"`
}

// WorkerConfig seeds one technician.
type WorkerConfig struct {
	ID   string `yaml:"id"`
	Name string `yaml:"name"`
	Type string `yaml:"type"` // repair or paint
}

// NotifyConfig configures outbound chat notifications.
type NotifyConfig struct {
	DigestCron string        `yaml:"digest_cron"`
	Slack      SlackConfig   `yaml:"slack"`
	Discord    DiscordConfig `yaml:"discord"`
}

// SlackConfig holds Slack bot credentials. Empty token disables the adapter.
type SlackConfig struct {
	BotToken  string `yaml:"bot_token"`
	ChannelID string `yaml:"channel_id"`
}

// DiscordConfig holds Discord bot credentials. Empty token disables the adapter.
type DiscordConfig struct {
	BotToken  string `yaml:"bot_token"`
	ChannelID string `yaml:"channel_id"`
}

// Load reads a YAML config file from path and returns a validated Config.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
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
	if c.Database.Host == "" {
		c.Database.Host = "127.0.0.1"
	}
	if c.Database.Port == 0 {
		c.Database.Port = 3306
	}
	if c.Database.User == "" {
		c.Database.User = "root"
	}
	if c.Database.Database == "" && c.Shop != "" {
		c.Database.Database = "liftline_" + c.Shop
	}
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.Utilization.TargetMinutes == 0 {
		c.Utilization.TargetMinutes = 480
	}
	if c.Utilization.WindowDays == 0 {
		c.Utilization.WindowDays = 3
	}
	if c.Notify.DigestCron == "" {
		c.Notify.DigestCron = "0 18 * * *"
	}
}

// validate checks that all required fields are present and consistent.
func (c *Config) validate() error {
	var errs []string
	if c.Shop == "" {
		errs = append(errs, "shop is required")
	}
	for i, l := range c.Lifts {
		if l.ID == "" {
			errs = append(errs, fmt.Sprintf("lifts[%d].id is required", i))
		}
		if l.Name == "" {
			errs = append(errs, fmt.Sprintf("lifts[%d].name is required", i))
		}
	}
	for i, w := range c.Workers {
		if w.ID == "" {
			errs = append(errs, fmt.Sprintf("workers[%d].id is required", i))
		}
		if w.Type != "" && w.Type != "repair" && w.Type != "paint" {
			errs = append(errs, fmt.Sprintf("workers[%d].type must be repair or paint, got %q", i, w.Type))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("config: validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}
