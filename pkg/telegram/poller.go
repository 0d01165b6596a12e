package telegram

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"telegrambot/pkg/logger"
)

const (
	minRetryDelay = time.Second
	maxRetryDelay = 30 * time.Second
)

// Poller runs CommandsHandler in a loop for each bot until stopped.
type Poller struct {
	log  *logger.Logger
	bots []*Bot

	// RetryDelay is the first wait after a failed poll. It doubles on
	// consecutive failures.
	RetryDelay time.Duration
}

// NewPoller creates a poller for bots.
func NewPoller(log *logger.Logger, bots ...*Bot) *Poller {
	if log == nil {
		log = logger.NewNop()
	}
	return &Poller{log: log, bots: bots, RetryDelay: minRetryDelay}
}

// Run polls every bot until ctx is done.
func (p *Poller) Run(ctx context.Context) error {
	var wg sync.WaitGroup
	for _, bot := range p.bots {
		wg.Add(1)
		go func(bot *Bot) {
			defer wg.Done()
			p.poll(ctx, bot)
		}(bot)
	}
	wg.Wait()
	return ctx.Err()
}

func (p *Poller) poll(ctx context.Context, bot *Bot) {
	log := p.log.WithFields(zap.String("bot", bot.Name()))

	// getUpdates is refused while a webhook is set.
	if err := bot.API().DeleteWebhook(ctx, false); err != nil {
		log.Warn("Failed to delete webhook", zap.Error(err))
	}
	log.Info("Polling for updates")

	delay := p.RetryDelay
	for {
		if ctx.Err() != nil {
			log.Info("Polling stopped")
			return
		}

		updates, err := bot.CommandsHandler(ctx)
		if err == nil {
			delay = p.RetryDelay
			if len(updates) > 0 {
				log.Debug("Processed updates", zap.Int("count", len(updates)))
			}
			continue
		}
		if ctx.Err() != nil {
			log.Info("Polling stopped")
			return
		}

		log.Warn("Polling failed", zap.Error(err), zap.Duration("retry_in", delay))
		select {
		case <-ctx.Done():
			log.Info("Polling stopped")
			return
		case <-time.After(delay):
		}
		delay *= 2
		if delay > maxRetryDelay {
			delay = maxRetryDelay
		}
	}
}
