package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"telegrambot/pkg/logger"
	"telegrambot/pkg/telegram"
)

var runBots []string

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run bots with long polling",
	Long: `Fetch updates with getUpdates and dispatch their commands until
interrupted. The last processed update is stored so a restart resumes
where it left off.

Examples:
  # Poll every configured bot
  telegrambot run

  # Poll selected bots
  telegrambot run --bot main --bot support`,
	RunE: func(cmd *cobra.Command, args []string) error {
		app := fx.New(
			coreModules(),
			fx.Invoke(registerPoller),
		)
		if err := app.Err(); err != nil {
			return fmt.Errorf("starting bots: %w", err)
		}
		app.Run()
		return nil
	},
}

func init() {
	runCmd.Flags().StringSliceVarP(&runBots, "bot", "b", nil, "bot to run (repeatable, default all)")
	rootCmd.AddCommand(runCmd)
}

func registerPoller(lc fx.Lifecycle, log *logger.Logger, m *telegram.Manager) error {
	bots, err := selectBots(m, runBots)
	if err != nil {
		return err
	}
	if len(bots) == 0 {
		return fmt.Errorf("no bots configured")
	}

	poller := telegram.NewPoller(log, bots...)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			names := make([]string, len(bots))
			for i, b := range bots {
				names[i] = b.Name()
			}
			log.Info("Bots started", zap.String("mode", "polling"), zap.Strings("bots", names))

			go func() {
				defer close(done)
				_ = poller.Run(ctx)
			}()
			return nil
		},
		OnStop: func(stopCtx context.Context) error {
			cancel()
			select {
			case <-done:
			case <-stopCtx.Done():
				return stopCtx.Err()
			}
			log.Info("Bots stopped")
			return nil
		},
	})
	return nil
}
