// Package telegram connects configured bots to the Telegram Bot API and
// feeds their updates into the command bus.
package telegram

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"telegrambot/pkg/logger"
	"telegrambot/pkg/objects"
)

// DefaultAPIEndpoint is the Bot API URL format: token, then method.
const DefaultAPIEndpoint = tgbotapi.APIEndpoint

// API is a Bot API client for one token.
type API struct {
	log *logger.Logger
	bot *tgbotapi.BotAPI
}

// NewAPI creates a client. No request is made until the first call.
func NewAPI(log *logger.Logger, token, endpoint string, client *http.Client) *API {
	if endpoint == "" {
		endpoint = DefaultAPIEndpoint
	}
	if client == nil {
		// Keep HTTP timeout longer than long-poll timeout to avoid periodic forced reconnects.
		client = &http.Client{Timeout: 75 * time.Second}
	}

	bot := &tgbotapi.BotAPI{
		Token:  token,
		Client: client,
		Buffer: 100,
	}
	bot.SetAPIEndpoint(endpoint)

	return &API{log: log, bot: bot}
}

// GetMe returns the bot's own user and remembers it.
func (a *API) GetMe(ctx context.Context) (*objects.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	self, err := a.bot.GetMe()
	if err != nil {
		return nil, fmt.Errorf("getMe: %w", err)
	}
	a.bot.Self = self

	var user objects.User
	if err := convert(self, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// Username returns the username learned by GetMe, or "".
func (a *API) Username() string {
	return a.bot.Self.UserName
}

// SendMessage sends a text message.
func (a *API) SendMessage(ctx context.Context, params objects.SendMessageParams) (*objects.Message, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	msg := tgbotapi.NewMessage(params.ChatID, params.Text)
	msg.ParseMode = params.ParseMode
	msg.ReplyToMessageID = params.ReplyToMessageID
	msg.DisableNotification = params.DisableNotification

	sent, err := a.bot.Send(msg)
	if err != nil {
		return nil, fmt.Errorf("sendMessage: %w", err)
	}

	var out objects.Message
	if err := convert(sent, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetUpdates fetches pending updates starting at offset. timeout is the
// long-poll duration in seconds.
func (a *API) GetUpdates(ctx context.Context, offset, limit, timeout int) ([]objects.Update, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	cfg := tgbotapi.NewUpdate(offset)
	cfg.Limit = limit
	cfg.Timeout = timeout

	resp, err := a.bot.Request(cfg)
	if err != nil {
		return nil, fmt.Errorf("getUpdates: %w", err)
	}

	var updates []objects.Update
	if err := json.Unmarshal(resp.Result, &updates); err != nil {
		return nil, fmt.Errorf("decoding updates: %w", err)
	}
	return updates, nil
}

// SetWebhook points Telegram at url.
func (a *API) SetWebhook(ctx context.Context, url string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	wh, err := tgbotapi.NewWebhook(url)
	if err != nil {
		return fmt.Errorf("parsing webhook url: %w", err)
	}
	if _, err := a.bot.Request(wh); err != nil {
		return fmt.Errorf("setWebhook: %w", err)
	}
	a.log.Info("Webhook set", zap.String("url", url))
	return nil
}

// DeleteWebhook removes the webhook so getUpdates can be used.
func (a *API) DeleteWebhook(ctx context.Context, dropPending bool) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if _, err := a.bot.Request(tgbotapi.DeleteWebhookConfig{DropPendingUpdates: dropPending}); err != nil {
		return fmt.Errorf("deleteWebhook: %w", err)
	}
	return nil
}

// SetMyCommands replaces the command menu shown by clients.
func (a *API) SetMyCommands(ctx context.Context, cmds []objects.BotCommand) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	tgCmds := make([]tgbotapi.BotCommand, 0, len(cmds))
	for _, c := range cmds {
		tgCmds = append(tgCmds, tgbotapi.BotCommand{Command: c.Command, Description: c.Description})
	}
	if _, err := a.bot.Request(tgbotapi.NewSetMyCommands(tgCmds...)); err != nil {
		return fmt.Errorf("setMyCommands: %w", err)
	}
	return nil
}

// convert copies a tgbotapi value into its objects counterpart through
// their shared JSON shape.
func convert(src, dst any) error {
	data, err := json.Marshal(src)
	if err != nil {
		return fmt.Errorf("encoding %T: %w", src, err)
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return fmt.Errorf("decoding %T: %w", dst, err)
	}
	return nil
}
