package telegram

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"telegrambot/pkg/commands"
	"telegrambot/pkg/events"
	"telegrambot/pkg/logger"
	"telegrambot/pkg/objects"
	"telegrambot/pkg/state"
)

// Dependencies are the collaborators shared by every bot.
type Dependencies struct {
	Log     *logger.Logger
	Catalog *commands.Catalog
	Parser  *commands.Parser
	Emitter events.Emitter
	Offsets *state.Offsets
	// Client overrides the HTTP client used for the Bot API.
	Client *http.Client
}

// PollingOptions tune CommandsHandler.
type PollingOptions struct {
	Timeout       int // seconds
	Limit         int
	UpdateTimeout time.Duration
}

// Bot is one configured bot: its API client, command registry and bus.
type Bot struct {
	name       string
	webhookURL string
	log        *logger.Logger
	api        *API
	catalog    *commands.Catalog
	registry   *commands.Registry
	bus        *commands.Bus
	offsets    *state.Offsets
	polling    PollingOptions

	mu     sync.Mutex
	offset int
}

// NewBot creates the bot name with an empty command table.
func NewBot(name, token, endpoint, webhookURL string, polling PollingOptions, deps Dependencies) *Bot {
	log := deps.Log
	if log == nil {
		log = logger.NewNop()
	}
	log = log.WithFields(zap.String("bot", name))

	api := NewAPI(log, token, endpoint, deps.Client)

	regOpts := []commands.RegistryOption{
		commands.WithLogger(log),
		commands.WithBotName(name),
	}
	if deps.Catalog != nil {
		regOpts = append(regOpts, commands.WithContainer(deps.Catalog))
	}
	if deps.Emitter != nil {
		regOpts = append(regOpts, commands.WithEmitter(deps.Emitter))
	}
	registry := commands.NewRegistry(regOpts...)

	busOpts := []commands.BusOption{
		commands.WithSender(api),
		commands.WithBusLogger(log),
		commands.WithBusBotName(name),
	}
	if deps.Parser != nil {
		busOpts = append(busOpts, commands.WithParser(deps.Parser))
	}
	if deps.Emitter != nil {
		busOpts = append(busOpts, commands.WithBusEmitter(deps.Emitter))
	}

	if polling.Limit <= 0 || polling.Limit > 100 {
		polling.Limit = 100
	}

	return &Bot{
		name:       name,
		webhookURL: webhookURL,
		log:        log,
		api:        api,
		catalog:    deps.Catalog,
		registry:   registry,
		bus:        commands.NewBus(registry, busOpts...),
		offsets:    deps.Offsets,
		polling:    polling,
	}
}

// Name returns the configured bot name.
func (b *Bot) Name() string { return b.name }

// API returns the Bot API client.
func (b *Bot) API() *API { return b.api }

// Registry returns the command registry.
func (b *Bot) Registry() *commands.Registry { return b.registry }

// Bus returns the command bus.
func (b *Bot) Bus() *commands.Bus { return b.bus }

// ApplyCommands replaces the command table with table, a command name to
// handler type name map. Entries whose name is just the lowercased type
// name are re-keyed under the name the command reports for itself.
func (b *Bot) ApplyCommands(table map[string]string) {
	refs := make(map[string]commands.Ref, len(table))
	for name, typeName := range table {
		if strings.EqualFold(name, typeName) && b.catalog != nil {
			if v, err := b.catalog.Make(typeName); err == nil {
				if cmd, ok := v.(commands.Command); ok && cmd.Name() != "" {
					refs[cmd.Name()] = commands.InstanceRef(cmd)
					continue
				}
			}
		}
		refs[name] = commands.NameRef(typeName)
	}
	b.registry.AddMany(refs)

	b.log.Info("Commands applied", zap.Strings("commands", b.registry.Names()))
}

// ProcessUpdate dispatches the commands in update.
func (b *Bot) ProcessUpdate(ctx context.Context, update *objects.Update) error {
	if b.polling.UpdateTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, b.polling.UpdateTimeout)
		defer cancel()
	}
	return b.bus.HandleUpdate(ctx, update)
}

// CommandsHandler fetches pending updates, dispatches each one and marks
// them read. The processed updates are returned.
func (b *Bot) CommandsHandler(ctx context.Context) ([]objects.Update, error) {
	offset, err := b.loadOffset(ctx)
	if err != nil {
		return nil, err
	}

	updates, err := b.api.GetUpdates(ctx, offset, b.polling.Limit, b.polling.Timeout)
	if err != nil {
		return nil, err
	}

	for i := range updates {
		update := &updates[i]
		if err := b.ProcessUpdate(ctx, update); err != nil {
			b.log.Error("Failed to process update",
				zap.Int("update_id", update.UpdateID),
				zap.Error(err))
		}
		if err := b.saveOffset(ctx, update.UpdateID+1); err != nil {
			return updates[:i+1], err
		}
	}
	return updates, nil
}

func (b *Bot) loadOffset(ctx context.Context) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.offsets == nil {
		return b.offset, nil
	}
	n, err := b.offsets.Load(ctx, b.name)
	if err != nil {
		return 0, fmt.Errorf("loading offset: %w", err)
	}
	b.offset = n
	return n, nil
}

func (b *Bot) saveOffset(ctx context.Context, offset int) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if offset <= b.offset {
		return nil
	}
	b.offset = offset
	if b.offsets == nil {
		return nil
	}
	if err := b.offsets.Save(ctx, b.name, offset); err != nil {
		return fmt.Errorf("saving offset: %w", err)
	}
	return nil
}

// BotCommands returns the command menu entries for the registered
// commands, sorted and without duplicates.
func (b *Bot) BotCommands() []objects.BotCommand {
	seen := make(map[string]struct{})
	var out []objects.BotCommand
	for _, cmd := range b.registry.Commands() {
		name := sanitizeTelegramCommandName(cmd.Name())
		if name == "" {
			b.log.Debug("Skipping command with unsupported name", zap.String("command", cmd.Name()))
			continue
		}
		if _, dup := seen[name]; dup {
			continue
		}
		seen[name] = struct{}{}

		desc := strings.TrimSpace(cmd.Description())
		if desc == "" {
			desc = "Command"
		}
		if len([]rune(desc)) > 256 {
			desc = string([]rune(desc)[:255]) + "…"
		}
		out = append(out, objects.BotCommand{Command: name, Description: desc})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Command < out[j].Command })
	return out
}

// SyncCommands publishes the registered commands with setMyCommands.
func (b *Bot) SyncCommands(ctx context.Context) error {
	cmds := b.BotCommands()
	if err := b.api.SetMyCommands(ctx, cmds); err != nil {
		return err
	}
	b.log.Info("Synced commands", zap.Int("count", len(cmds)))
	return nil
}

// SetWebhook registers the configured webhook URL with Telegram.
func (b *Bot) SetWebhook(ctx context.Context) error {
	if b.webhookURL == "" {
		return errors.New("no webhook_url configured for bot " + b.name)
	}
	return b.api.SetWebhook(ctx, b.webhookURL)
}

// sanitizeTelegramCommandName lowercases name and keeps the characters
// Telegram accepts in a menu entry, up to 32 of them.
func sanitizeTelegramCommandName(name string) string {
	normalized := strings.ToLower(strings.TrimPrefix(strings.TrimSpace(name), "/"))
	if normalized == "" {
		return ""
	}

	var b strings.Builder
	lastUnderscore := false
	for _, r := range normalized {
		if b.Len() >= 32 {
			break
		}
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			lastUnderscore = false
		case r == '-' || r == '_':
			if b.Len() > 0 && !lastUnderscore {
				b.WriteRune('_')
				lastUnderscore = true
			}
		}
	}
	return strings.Trim(b.String(), "_")
}
