// Package config provides configuration management for telegrambot.
// It uses Viper for flexible configuration loading with support for:
// - Multiple formats (JSON, YAML, TOML)
// - Environment variables
// - Hot-reload
package config

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Config represents the complete telegrambot configuration.
type Config struct {
	// Default is the bot used when no name is given.
	Default string               `mapstructure:"default" json:"default" yaml:"default"`
	Bots    map[string]BotConfig `mapstructure:"bots" json:"bots" yaml:"bots"`

	// Commands are registered on every bot.
	Commands []string `mapstructure:"commands" json:"commands" yaml:"commands"`
	// CommandGroups name lists of commands. Groups may contain groups.
	CommandGroups map[string][]string `mapstructure:"command_groups" json:"command_groups" yaml:"command_groups"`
	// SharedCommands map a command name to a handler type name.
	SharedCommands map[string]string `mapstructure:"shared_commands" json:"shared_commands" yaml:"shared_commands"`

	Polling PollingConfig `mapstructure:"polling" json:"polling" yaml:"polling"`
	Webhook WebhookConfig `mapstructure:"webhook" json:"webhook" yaml:"webhook"`
	Logger  LoggerConfig  `mapstructure:"logger" json:"logger" yaml:"logger"`
	Events  EventsConfig  `mapstructure:"events" json:"events" yaml:"events"`
	State   StateConfig   `mapstructure:"state" json:"state" yaml:"state"`
	Redis   RedisConfig   `mapstructure:"redis" json:"redis" yaml:"redis"`
}

// BotConfig configures one bot.
type BotConfig struct {
	Token      string   `mapstructure:"token" json:"token" yaml:"token"`
	Username   string   `mapstructure:"username" json:"username" yaml:"username"`
	WebhookURL string   `mapstructure:"webhook_url" json:"webhook_url" yaml:"webhook_url"`
	Commands   []string `mapstructure:"commands" json:"commands" yaml:"commands"`
	// APIEndpoint overrides the Bot API URL format, e.g. for a local server.
	APIEndpoint string `mapstructure:"api_endpoint" json:"api_endpoint" yaml:"api_endpoint"`
}

// PollingConfig configures getUpdates long polling.
type PollingConfig struct {
	Timeout int `mapstructure:"timeout" json:"timeout" yaml:"timeout"` // seconds the server holds a request
	Limit   int `mapstructure:"limit" json:"limit" yaml:"limit"`
	// UpdateTimeout bounds the handling of one update, in seconds.
	UpdateTimeout int `mapstructure:"update_timeout" json:"update_timeout" yaml:"update_timeout"`
}

// WebhookConfig configures the webhook receiver.
type WebhookConfig struct {
	Host string `mapstructure:"host" json:"host" yaml:"host"`
	Port int    `mapstructure:"port" json:"port" yaml:"port"`
	Path string `mapstructure:"path" json:"path" yaml:"path"`
}

// LoggerConfig configures logging.
type LoggerConfig struct {
	Level       string `mapstructure:"level" json:"level" yaml:"level"`
	OutputPath  string `mapstructure:"output_path" json:"output_path" yaml:"output_path"`
	MaxSize     int    `mapstructure:"max_size" json:"max_size" yaml:"max_size"`
	MaxBackups  int    `mapstructure:"max_backups" json:"max_backups" yaml:"max_backups"`
	MaxAge      int    `mapstructure:"max_age" json:"max_age" yaml:"max_age"`
	Compress    bool   `mapstructure:"compress" json:"compress" yaml:"compress"`
	Development bool   `mapstructure:"development" json:"development" yaml:"development"`
}

// EventsConfig configures the dispatch event emitter.
type EventsConfig struct {
	Type       string `mapstructure:"type" json:"type" yaml:"type"` // local or redis
	BufferSize int    `mapstructure:"buffer_size" json:"buffer_size" yaml:"buffer_size"`
	Prefix     string `mapstructure:"prefix" json:"prefix" yaml:"prefix"`
}

// StateConfig configures where the polling offset is kept.
type StateConfig struct {
	Backend  string `mapstructure:"backend" json:"backend" yaml:"backend"` // file, memory or redis
	FilePath string `mapstructure:"file_path" json:"file_path" yaml:"file_path"`
	Prefix   string `mapstructure:"prefix" json:"prefix" yaml:"prefix"`
}

// RedisConfig is shared by the redis events and state backends.
type RedisConfig struct {
	Addr     string `mapstructure:"addr" json:"addr" yaml:"addr"`
	Password string `mapstructure:"password" json:"password" yaml:"password"`
	DB       int    `mapstructure:"db" json:"db" yaml:"db"`
}

// ErrBotNotConfigured is returned for a bot name missing from Bots.
var ErrBotNotConfigured = errors.New("bot is not configured")

// DefaultConfig returns a new Config with default values.
func DefaultConfig() *Config {
	return &Config{
		Bots:           map[string]BotConfig{},
		Commands:       []string{},
		CommandGroups:  map[string][]string{},
		SharedCommands: map[string]string{},
		Polling: PollingConfig{
			Timeout:       50,
			Limit:         100,
			UpdateTimeout: 60,
		},
		Webhook: WebhookConfig{
			Host: "0.0.0.0",
			Port: 8443,
			Path: "/telegram",
		},
		Logger: LoggerConfig{
			Level:      "info",
			MaxSize:    100,
			MaxBackups: 3,
			MaxAge:     7,
			Compress:   true,
		},
		Events: EventsConfig{
			Type:       "local",
			BufferSize: 100,
			Prefix:     "telegrambot:events:",
		},
		State: StateConfig{
			Backend: "file",
			Prefix:  "telegrambot:state:",
		},
	}
}

// BotNames returns the configured bot names in sorted order.
func (c *Config) BotNames() []string {
	names := make([]string, 0, len(c.Bots))
	for name := range c.Bots {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// DefaultBotName returns the default bot, or the only bot when there is
// exactly one.
func (c *Config) DefaultBotName() string {
	if c.Default != "" {
		return strings.ToLower(c.Default)
	}
	if len(c.Bots) == 1 {
		return c.BotNames()[0]
	}
	return ""
}

// Bot returns the named bot config. An empty name selects the default bot.
func (c *Config) Bot(name string) (BotConfig, string, error) {
	if name == "" {
		name = c.DefaultBotName()
	}
	if name == "" {
		return BotConfig{}, "", fmt.Errorf("no bot name given and no default bot configured")
	}
	name = strings.ToLower(name)
	bot, ok := c.Bots[name]
	if !ok {
		return BotConfig{}, name, fmt.Errorf("%w: %q", ErrBotNotConfigured, name)
	}
	return bot, name, nil
}
