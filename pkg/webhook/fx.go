package webhook

import (
	"context"
	"time"

	"go.uber.org/fx"

	"telegrambot/pkg/config"
	"telegrambot/pkg/logger"
	"telegrambot/pkg/telegram"
)

// Module provides the webhook server and starts it with the app.
var Module = fx.Module("webhook",
	fx.Provide(ProvideServer),
	fx.Invoke(registerLifecycle),
)

// ProvideServer creates the server for the configured bots.
func ProvideServer(log *logger.Logger, cfg *config.Config, manager *telegram.Manager) *Server {
	return NewServer(log, manager, cfg.Webhook.Host, cfg.Webhook.Port, cfg.Webhook.Path)
}

func registerLifecycle(lc fx.Lifecycle, s *Server) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			return s.Start()
		},
		OnStop: func(ctx context.Context) error {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			return s.Stop(shutdownCtx)
		},
	})
}
