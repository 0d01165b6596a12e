package telegram

import (
	"go.uber.org/fx"

	"telegrambot/pkg/commands"
	"telegrambot/pkg/config"
	"telegrambot/pkg/events"
	"telegrambot/pkg/logger"
	"telegrambot/pkg/state"
)

// Module provides the bot manager.
var Module = fx.Module("telegram",
	fx.Provide(ProvideManager),
)

// ProvideManager creates the manager and subscribes it to config reloads.
func ProvideManager(
	cfg *config.Config,
	log *logger.Logger,
	catalog *commands.Catalog,
	parser *commands.Parser,
	emitter events.Emitter,
	offsets *state.Offsets,
	watcher *config.Watcher,
) *Manager {
	m := NewManager(cfg, Dependencies{
		Log:     log,
		Catalog: catalog,
		Parser:  parser,
		Emitter: emitter,
		Offsets: offsets,
	})
	watcher.AddHandler(m.Reload)
	return m
}
