package commands

import (
	"go.uber.org/fx"
	"go.uber.org/zap"

	"telegrambot/pkg/logger"
)

// Module provides the command catalog and a shared parser. Registries and
// buses are built per bot.
var Module = fx.Module("commands",
	fx.Provide(
		NewCatalog,
		NewParser,
		provideContainer,
	),
	fx.Invoke(registerBuiltins),
)

func provideContainer(c *Catalog) Container {
	return c
}

func registerBuiltins(catalog *Catalog, log *logger.Logger) {
	RegisterBuiltinCommands(catalog)
	log.Debug("Registered builtin commands", zap.Strings("types", catalog.Names()))
}
