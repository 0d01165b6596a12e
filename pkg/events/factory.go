package events

import (
	"fmt"

	"telegrambot/pkg/logger"
)

// BackendType is the emitter backend.
type BackendType string

const (
	BackendLocal BackendType = "local"
	BackendRedis BackendType = "redis"
)

// Config configures the emitter.
type Config struct {
	Type       BackendType
	BufferSize int

	// Redis config
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	RedisPrefix   string
}

// NewEmitter creates an emitter based on configuration.
func NewEmitter(log *logger.Logger, cfg *Config) (Emitter, error) {
	switch cfg.Type {
	case BackendLocal, "":
		return NewLocalEmitter(log, cfg.BufferSize), nil

	case BackendRedis:
		if cfg.RedisAddr == "" {
			return nil, fmt.Errorf("redis address is required for redis events")
		}
		return NewRedisEmitter(log, &RedisConfig{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
			Prefix:   cfg.RedisPrefix,
		})

	default:
		return nil, fmt.Errorf("unknown events type: %s", cfg.Type)
	}
}
