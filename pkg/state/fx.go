package state

import (
	"context"
	"path/filepath"

	"go.uber.org/fx"
	"go.uber.org/zap"

	"telegrambot/pkg/config"
	"telegrambot/pkg/logger"
)

// Module is the fx module for state management.
var Module = fx.Module("state",
	fx.Provide(NewKVStore),
	fx.Provide(NewOffsets),
)

// NewKVStore creates the KV store for fx.
func NewKVStore(lc fx.Lifecycle, log *logger.Logger, cfg *config.Config) (KV, error) {
	stateConfig := &Config{
		Backend:  BackendType(cfg.State.Backend),
		FilePath: cfg.State.FilePath,
	}
	if stateConfig.FilePath == "" {
		home, err := config.GetConfigHome()
		if err != nil {
			return nil, err
		}
		stateConfig.FilePath = filepath.Join(home, "state.json")
	}
	if cfg.Redis.Addr != "" {
		stateConfig.RedisAddr = cfg.Redis.Addr
		stateConfig.RedisPassword = cfg.Redis.Password
		stateConfig.RedisDB = cfg.Redis.DB
		stateConfig.RedisPrefix = cfg.State.Prefix
	}

	store, err := NewKV(log, stateConfig)
	if err != nil {
		return nil, err
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			log.Debug("State store initialized", zap.String("backend", string(stateConfig.Backend)))
			return nil
		},
		OnStop: func(ctx context.Context) error {
			return store.Close()
		},
	})

	return store, nil
}
