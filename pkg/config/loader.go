package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// ConfigPathEnv names the environment variable holding an explicit config path.
const ConfigPathEnv = "TELEGRAMBOT_CONFIG_FILE"

// Loader handles configuration loading with Viper.
type Loader struct {
	viper *viper.Viper
	path  string
}

// NewLoader creates a new configuration loader.
func NewLoader() *Loader {
	v := viper.New()

	v.SetConfigName("config")

	if home, err := os.UserHomeDir(); err == nil {
		v.AddConfigPath(filepath.Join(home, ".telegrambot"))
	}
	v.AddConfigPath(".")
	v.AddConfigPath("./config")

	v.SetEnvPrefix("TELEGRAMBOT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	return &Loader{viper: v}
}

// Load reads configuration from configPath, or from the default search
// paths when it is empty. A missing file yields the defaults.
func (l *Loader) Load(configPath string) (*Config, error) {
	cfg := DefaultConfig()

	if strings.TrimSpace(configPath) == "" {
		configPath = strings.TrimSpace(os.Getenv(ConfigPathEnv))
	}
	if configPath == "" && l.path != "" {
		configPath = l.path
	}
	if configPath != "" {
		abs, err := filepath.Abs(configPath)
		if err != nil {
			return nil, fmt.Errorf("resolve config path: %w", err)
		}
		l.path = abs
		l.viper.SetConfigFile(abs)
	}

	if err := l.viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) || os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	if err := l.viper.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}
	normalize(cfg)

	return cfg, nil
}

// LoadFromFile loads configuration from a specific file.
func (l *Loader) LoadFromFile(path string) (*Config, error) {
	return l.Load(path)
}

// normalize lower-cases bot, group and shared command names so lookups
// are case-insensitive.
func normalize(cfg *Config) {
	cfg.Default = strings.ToLower(strings.TrimSpace(cfg.Default))

	bots := make(map[string]BotConfig, len(cfg.Bots))
	for name, bot := range cfg.Bots {
		bots[strings.ToLower(name)] = bot
	}
	cfg.Bots = bots

	groups := make(map[string][]string, len(cfg.CommandGroups))
	for name, items := range cfg.CommandGroups {
		groups[strings.ToLower(name)] = items
	}
	cfg.CommandGroups = groups

	shared := make(map[string]string, len(cfg.SharedCommands))
	for name, typeName := range cfg.SharedCommands {
		shared[strings.ToLower(name)] = typeName
	}
	cfg.SharedCommands = shared
}

// Save writes cfg to path. The format follows the file extension.
func (l *Loader) Save(path string, cfg *Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	format := "json"
	switch filepath.Ext(path) {
	case ".yaml", ".yml":
		format = "yaml"
	case ".toml":
		format = "toml"
	}

	v := viper.New()
	v.SetConfigType(format)

	v.Set("default", cfg.Default)
	v.Set("bots", cfg.Bots)
	v.Set("commands", cfg.Commands)
	v.Set("command_groups", cfg.CommandGroups)
	v.Set("shared_commands", cfg.SharedCommands)
	v.Set("polling", cfg.Polling)
	v.Set("webhook", cfg.Webhook)
	v.Set("logger", cfg.Logger)
	v.Set("events", cfg.Events)
	v.Set("state", cfg.State)
	v.Set("redis", cfg.Redis)

	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}

// GetConfigHome returns the default config directory.
func GetConfigHome() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("getting home directory: %w", err)
	}
	return filepath.Join(home, ".telegrambot"), nil
}

// GetConfigPath returns the path of the loaded config file.
func (l *Loader) GetConfigPath() string {
	return l.viper.ConfigFileUsed()
}
