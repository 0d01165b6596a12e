package config

import (
	"fmt"
	"net/url"
	"strings"
)

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Message string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationErrors is a collection of validation errors.
type ValidationErrors []ValidationError

// Error implements the error interface.
func (e ValidationErrors) Error() string {
	if len(e) == 0 {
		return "no validation errors"
	}
	if len(e) == 1 {
		return e[0].Error()
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%d validation errors:\n", len(e)))
	for _, err := range e {
		sb.WriteString(fmt.Sprintf("  - %s\n", err.Error()))
	}
	return sb.String()
}

// Validator validates configuration.
type Validator struct {
	errors ValidationErrors
}

// NewValidator creates a new configuration validator.
func NewValidator() *Validator {
	return &Validator{
		errors: make(ValidationErrors, 0),
	}
}

// Validate validates the entire configuration.
func (v *Validator) Validate(cfg *Config) error {
	v.errors = make(ValidationErrors, 0)

	v.validateBots(cfg)
	v.validatePolling(&cfg.Polling)
	v.validateWebhook(&cfg.Webhook)
	v.validateEvents(cfg)
	v.validateState(cfg)

	if len(v.errors) > 0 {
		return v.errors
	}
	return nil
}

func (v *Validator) validateBots(cfg *Config) {
	if cfg.Default != "" {
		if _, ok := cfg.Bots[strings.ToLower(cfg.Default)]; !ok {
			v.addError("default", fmt.Sprintf("default bot %q is not configured", cfg.Default))
		}
	}

	for _, name := range cfg.BotNames() {
		bot := cfg.Bots[name]
		prefix := "bots." + name

		if strings.TrimSpace(bot.Token) == "" {
			v.addError(prefix+".token", "token is required")
		} else if !strings.Contains(bot.Token, ":") {
			v.addError(prefix+".token", "token must look like <id>:<secret>")
		}

		if bot.WebhookURL != "" {
			u, err := url.Parse(bot.WebhookURL)
			if err != nil {
				v.addError(prefix+".webhook_url", fmt.Sprintf("invalid URL: %v", err))
			} else if u.Scheme != "https" {
				v.addError(prefix+".webhook_url", "webhook URL must use https")
			}
		}
	}

	for name, typeName := range cfg.SharedCommands {
		if strings.TrimSpace(typeName) == "" {
			v.addError("shared_commands."+name, "handler type is required")
		}
	}
}

func (v *Validator) validatePolling(cfg *PollingConfig) {
	if cfg.Timeout < 0 {
		v.addError("polling.timeout", "timeout must be non-negative")
	}
	if cfg.Limit < 1 || cfg.Limit > 100 {
		v.addError("polling.limit", "limit must be between 1 and 100")
	}
	if cfg.UpdateTimeout < 0 {
		v.addError("polling.update_timeout", "update_timeout must be non-negative")
	}
}

func (v *Validator) validateWebhook(cfg *WebhookConfig) {
	if cfg.Port < 1 || cfg.Port > 65535 {
		v.addError("webhook.port", "port must be between 1 and 65535")
	}
	if cfg.Path != "" && !strings.HasPrefix(cfg.Path, "/") {
		v.addError("webhook.path", "path must start with /")
	}
}

func (v *Validator) validateEvents(cfg *Config) {
	switch strings.ToLower(cfg.Events.Type) {
	case "", "local":
	case "redis":
		if cfg.Redis.Addr == "" {
			v.addError("redis.addr", "redis address is required for redis events")
		}
	default:
		v.addError("events.type", "type must be one of: local, redis")
	}
	if cfg.Events.BufferSize < 0 {
		v.addError("events.buffer_size", "buffer_size must be non-negative")
	}
}

func (v *Validator) validateState(cfg *Config) {
	switch strings.ToLower(cfg.State.Backend) {
	case "", "file", "memory":
	case "redis":
		if cfg.Redis.Addr == "" {
			v.addError("redis.addr", "redis address is required for redis state")
		}
	default:
		v.addError("state.backend", "backend must be one of: file, memory, redis")
	}
}

func (v *Validator) addError(field, message string) {
	v.errors = append(v.errors, ValidationError{
		Field:   field,
		Message: message,
	})
}

// ValidateConfig is a convenience function to validate a configuration.
func ValidateConfig(cfg *Config) error {
	validator := NewValidator()
	return validator.Validate(cfg)
}
