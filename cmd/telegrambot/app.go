package main

import (
	"os"

	"go.uber.org/fx"
	"golang.org/x/term"

	"telegrambot/pkg/commands"
	"telegrambot/pkg/config"
	"telegrambot/pkg/events"
	"telegrambot/pkg/logger"
	"telegrambot/pkg/state"
	"telegrambot/pkg/telegram"
)

// coreModules wires everything a bot needs except its transport.
func coreModules() fx.Option {
	return fx.Options(
		config.Module,
		logger.Module,
		events.Module,
		state.Module,
		commands.Module,
		telegram.Module,
		fx.Decorate(interactiveLogging),
		fx.NopLogger,
	)
}

// interactiveLogging switches to the colour console encoder when stdout
// is a terminal.
func interactiveLogging(cfg *logger.Config) *logger.Config {
	if term.IsTerminal(int(os.Stdout.Fd())) {
		cfg.Development = true
	}
	return cfg
}

func selectBots(m *telegram.Manager, names []string) ([]*telegram.Bot, error) {
	if len(names) == 0 {
		return m.Bots()
	}
	bots := make([]*telegram.Bot, 0, len(names))
	for _, name := range names {
		bot, err := m.Bot(name)
		if err != nil {
			return nil, err
		}
		bots = append(bots, bot)
	}
	return bots, nil
}
