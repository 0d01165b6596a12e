package telegram

import (
	"context"
	"strings"
	"sync"
	"testing"

	"telegrambot/pkg/commands"
	"telegrambot/pkg/logger"
	"telegrambot/pkg/objects"
	"telegrambot/pkg/state"
)

type echoRecorder struct {
	mu   sync.Mutex
	args []string
}

func (r *echoRecorder) command() *commands.FuncCommand {
	return commands.NewFunc("echo", "Repeat the text back", func(ctx context.Context, c *commands.Context) error {
		r.mu.Lock()
		r.args = append(r.args, c.Arguments.String("text"))
		r.mu.Unlock()
		return c.ReplyWithMessage(ctx, c.Arguments.String("text"))
	}).WithParameters(commands.Param("text"))
}

func (r *echoRecorder) seen() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.args...)
}

func newTestBot(t *testing.T, fake *fakeBotAPI, deps Dependencies) (*Bot, *echoRecorder) {
	t.Helper()
	rec := &echoRecorder{}
	if deps.Catalog == nil {
		deps.Catalog = commands.NewCatalog()
		commands.RegisterBuiltinCommands(deps.Catalog)
	}
	deps.Catalog.ProvideCommand("EchoCommand", func() commands.Command { return rec.command() })
	deps.Log = logger.NewNop()

	bot := NewBot("main", testToken, fake.endpoint(), "", PollingOptions{}, deps)
	bot.ApplyCommands(map[string]string{
		"echo":        "EchoCommand",
		"helpcommand": "HelpCommand",
	})
	return bot, rec
}

func TestApplyCommandsRekeysLiteralTypeNames(t *testing.T) {
	fake := newFakeBotAPI(t)
	bot, _ := newTestBot(t, fake, Dependencies{})

	names := bot.Registry().Names()
	if strings.Join(names, ",") != "echo,help" {
		t.Fatalf("names = %v", names)
	}
	if !bot.Registry().Has("listcommands") {
		t.Fatal("help alias not indexed")
	}
}

func TestCommandsHandlerDispatchesAndAcknowledges(t *testing.T) {
	fake := newFakeBotAPI(t)
	fake.queue(commandUpdate(5, "/echo hello"), commandUpdate(6, "/echo@test_bot world"))

	offsets := state.NewOffsets(state.NewMemoryStore())
	bot, rec := newTestBot(t, fake, Dependencies{Offsets: offsets})
	ctx := context.Background()

	updates, err := bot.CommandsHandler(ctx)
	if err != nil {
		t.Fatalf("CommandsHandler: %v", err)
	}
	if len(updates) != 2 {
		t.Fatalf("processed %d updates", len(updates))
	}
	if got := strings.Join(rec.seen(), ","); got != "hello,world" {
		t.Fatalf("echo args = %q", got)
	}
	if n, _ := offsets.Load(ctx, "main"); n != 7 {
		t.Fatalf("stored offset = %d, want 7", n)
	}

	sent := fake.callsTo("sendMessage")
	if len(sent) != 2 || sent[0].Form.Get("chat_id") != "42" || sent[1].Form.Get("text") != "world" {
		t.Fatalf("unexpected replies: %+v", sent)
	}

	// A second round only asks for newer updates.
	updates, err = bot.CommandsHandler(ctx)
	if err != nil || len(updates) != 0 {
		t.Fatalf("second round = %d updates, %v", len(updates), err)
	}
	calls := fake.callsTo("getUpdates")
	if got := calls[len(calls)-1].Form.Get("offset"); got != "7" {
		t.Fatalf("offset sent = %q", got)
	}
}

func TestCommandsHandlerWithoutStore(t *testing.T) {
	fake := newFakeBotAPI(t)
	fake.queue(commandUpdate(3, "/echo a"))
	bot, _ := newTestBot(t, fake, Dependencies{})

	if _, err := bot.CommandsHandler(context.Background()); err != nil {
		t.Fatalf("CommandsHandler: %v", err)
	}
	if _, err := bot.CommandsHandler(context.Background()); err != nil {
		t.Fatalf("CommandsHandler: %v", err)
	}
	calls := fake.callsTo("getUpdates")
	if got := calls[1].Form.Get("offset"); got != "4" {
		t.Fatalf("in-memory offset = %q, want 4", got)
	}
}

func TestCommandsHandlerPropagatesAPIError(t *testing.T) {
	fake := newFakeBotAPI(t)
	fake.failMethod("getUpdates")
	bot, _ := newTestBot(t, fake, Dependencies{})

	if _, err := bot.CommandsHandler(context.Background()); err == nil {
		t.Fatal("expected getUpdates error")
	}
}

func TestUnknownCommandFallsBackToHelp(t *testing.T) {
	fake := newFakeBotAPI(t)
	bot, _ := newTestBot(t, fake, Dependencies{})

	update := commandUpdate(1, "/nope")
	if err := bot.ProcessUpdate(context.Background(), &update); err != nil {
		t.Fatalf("ProcessUpdate: %v", err)
	}
	sent := fake.callsTo("sendMessage")
	if len(sent) != 1 || !strings.Contains(sent[0].Form.Get("text"), "/echo") {
		t.Fatalf("expected help listing, got %+v", sent)
	}
}

func TestSyncCommands(t *testing.T) {
	fake := newFakeBotAPI(t)
	bot, _ := newTestBot(t, fake, Dependencies{})

	cmds := bot.BotCommands()
	want := []objects.BotCommand{
		{Command: "echo", Description: "Repeat the text back"},
		{Command: "help", Description: "Get a list of available commands"},
	}
	if len(cmds) != len(want) || cmds[0] != want[0] || cmds[1] != want[1] {
		t.Fatalf("BotCommands = %+v", cmds)
	}

	if err := bot.SyncCommands(context.Background()); err != nil {
		t.Fatalf("SyncCommands: %v", err)
	}
	calls := fake.callsTo("setMyCommands")
	if len(calls) != 1 || !strings.Contains(calls[0].Form.Get("commands"), `"command":"echo"`) {
		t.Fatalf("unexpected setMyCommands call: %+v", calls)
	}
}

func TestSetWebhookRequiresURL(t *testing.T) {
	fake := newFakeBotAPI(t)
	bot, _ := newTestBot(t, fake, Dependencies{})
	if err := bot.SetWebhook(context.Background()); err == nil {
		t.Fatal("expected error without webhook url")
	}
}

func TestSanitizeTelegramCommandName(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"/Start", "start"},
		{"list-commands", "list_commands"},
		{"__x--y__", "x_y"},
		{"émoji!", "moji"},
		{"", ""},
		{strings.Repeat("a", 40), strings.Repeat("a", 32)},
	}
	for _, tt := range tests {
		if got := sanitizeTelegramCommandName(tt.in); got != tt.want {
			t.Errorf("sanitizeTelegramCommandName(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
