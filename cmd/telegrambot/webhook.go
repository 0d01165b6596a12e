package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"telegrambot/pkg/config"
	"telegrambot/pkg/logger"
	"telegrambot/pkg/telegram"
	"telegrambot/pkg/webhook"
)

var setWebhooks bool

var webhookCmd = &cobra.Command{
	Use:   "webhook",
	Short: "Receive updates through a webhook server",
	Long: `Start an HTTP server that accepts updates at POST {webhook.path}/{bot}.

With --set, each bot's webhook_url is registered with Telegram on start.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		app := fx.New(
			coreModules(),
			webhook.Module,
			fx.Invoke(registerWebhooks),
		)
		if err := app.Err(); err != nil {
			return fmt.Errorf("starting webhook server: %w", err)
		}
		app.Run()
		return nil
	},
}

func init() {
	webhookCmd.Flags().BoolVar(&setWebhooks, "set", false, "register webhook_url of every bot with Telegram")
	rootCmd.AddCommand(webhookCmd)
}

func registerWebhooks(lc fx.Lifecycle, log *logger.Logger, cfg *config.Config, m *telegram.Manager, s *webhook.Server) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			log.Info("Bots started",
				zap.String("mode", "webhook"),
				zap.String("addr", s.Addr()),
				zap.Strings("bots", cfg.BotNames()))
			if !setWebhooks {
				return nil
			}
			bots, err := m.Bots()
			if err != nil {
				return err
			}
			for _, bot := range bots {
				if err := bot.SetWebhook(ctx); err != nil {
					log.Warn("Webhook not set", zap.String("bot", bot.Name()), zap.Error(err))
				}
			}
			return nil
		},
	})
}
