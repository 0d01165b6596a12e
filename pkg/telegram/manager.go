package telegram

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"telegrambot/pkg/config"
	"telegrambot/pkg/logger"
	"telegrambot/pkg/objects"
)

// Manager builds bots from configuration on first use and keeps their
// command tables in step with configuration reloads.
type Manager struct {
	log  *logger.Logger
	deps Dependencies

	mu    sync.RWMutex
	cfg   *config.Config
	bots  map[string]*Bot
	built map[string]config.BotConfig
}

// NewManager creates a manager for the bots in cfg.
func NewManager(cfg *config.Config, deps Dependencies) *Manager {
	if deps.Log == nil {
		deps.Log = logger.NewNop()
	}
	return &Manager{
		log:   deps.Log,
		deps:  deps,
		cfg:   cfg,
		bots:  make(map[string]*Bot),
		built: make(map[string]config.BotConfig),
	}
}

// Names returns the configured bot names.
func (m *Manager) Names() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.cfg.BotNames()
}

// DefaultName returns the name of the default bot, or "".
func (m *Manager) DefaultName() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.cfg.DefaultBotName()
}

// Bot returns the named bot, building it on first use. An empty name
// selects the default bot.
func (m *Manager) Bot(name string) (*Bot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	botCfg, key, err := m.cfg.Bot(name)
	if err != nil {
		return nil, err
	}
	if bot, ok := m.bots[key]; ok {
		return bot, nil
	}

	table, err := config.ExpandCommands(m.cfg, key)
	if err != nil {
		return nil, err
	}

	bot := NewBot(key, botCfg.Token, botCfg.APIEndpoint, botCfg.WebhookURL, pollingOptions(m.cfg), m.deps)
	bot.ApplyCommands(table)

	m.bots[key] = bot
	m.built[key] = botCfg
	m.log.Info("Bot ready", zap.String("bot", key), zap.Int("commands", len(table)))
	return bot, nil
}

// Bots returns every configured bot in name order.
func (m *Manager) Bots() ([]*Bot, error) {
	names := m.Names()
	bots := make([]*Bot, 0, len(names))
	for _, name := range names {
		bot, err := m.Bot(name)
		if err != nil {
			return nil, err
		}
		bots = append(bots, bot)
	}
	return bots, nil
}

// ProcessUpdate hands update to the named bot.
func (m *Manager) ProcessUpdate(ctx context.Context, name string, update *objects.Update) error {
	bot, err := m.Bot(name)
	if err != nil {
		return err
	}
	return bot.ProcessUpdate(ctx, update)
}

// Reload switches to cfg and re-applies the command tables of bots that
// were already built. Bots no longer configured are dropped. Token and
// endpoint changes take effect after a restart.
func (m *Manager) Reload(cfg *config.Config) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.cfg = cfg
	for name, bot := range m.bots {
		botCfg, ok := cfg.Bots[name]
		if !ok {
			delete(m.bots, name)
			delete(m.built, name)
			m.log.Info("Bot removed from configuration", zap.String("bot", name))
			continue
		}

		prev := m.built[name]
		if prev.Token != botCfg.Token || prev.APIEndpoint != botCfg.APIEndpoint {
			m.log.Warn("Bot credentials changed, restart to apply", zap.String("bot", name))
		}

		table, err := config.ExpandCommands(cfg, name)
		if err != nil {
			return fmt.Errorf("reloading bot %s: %w", name, err)
		}
		bot.ApplyCommands(table)
	}
	return nil
}

func pollingOptions(cfg *config.Config) PollingOptions {
	return PollingOptions{
		Timeout:       cfg.Polling.Timeout,
		Limit:         cfg.Polling.Limit,
		UpdateTimeout: time.Duration(cfg.Polling.UpdateTimeout) * time.Second,
	}
}
