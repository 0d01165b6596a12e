package events

import (
	"context"

	"go.uber.org/fx"

	"telegrambot/pkg/config"
	"telegrambot/pkg/logger"
)

// Module is the fx module for the event emitter.
var Module = fx.Module("events",
	fx.Provide(ProvideEmitter),
)

// ProvideEmitter creates the emitter for fx and ties it to the app lifecycle.
func ProvideEmitter(lc fx.Lifecycle, log *logger.Logger, cfg *config.Config) (Emitter, error) {
	ecfg := &Config{
		Type:       BackendType(cfg.Events.Type),
		BufferSize: cfg.Events.BufferSize,
	}
	if cfg.Redis.Addr != "" {
		ecfg.RedisAddr = cfg.Redis.Addr
		ecfg.RedisPassword = cfg.Redis.Password
		ecfg.RedisDB = cfg.Redis.DB
		ecfg.RedisPrefix = cfg.Events.Prefix
	}

	emitter, err := NewEmitter(log, ecfg)
	if err != nil {
		return nil, err
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			return emitter.Start()
		},
		OnStop: func(ctx context.Context) error {
			return emitter.Stop()
		},
	})

	return emitter, nil
}
