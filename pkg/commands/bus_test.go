package commands

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"sync"
	"testing"

	"telegrambot/pkg/events"
	"telegrambot/pkg/objects"
)

type failure struct {
	missing []string
	err     error
}

type failureLog struct {
	mu    sync.Mutex
	calls []failure
}

func (f *failureLog) hook(ctx context.Context, c *Context, missing []string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, failure{missing: missing, err: err})
}

func newTestBus(t *testing.T) (*Bus, *Registry, *recordingEmitter, *fakeSender) {
	t.Helper()
	emitter := &recordingEmitter{}
	sender := &fakeSender{}
	registry := NewRegistry(WithEmitter(emitter))
	bus := NewBus(registry, WithSender(sender), WithBusEmitter(emitter))
	return bus, registry, emitter, sender
}

func TestBusDispatchesCommandsInOrder(t *testing.T) {
	bus, registry, _, _ := newTestBus(t)
	var rec recorder
	registry.Add("a", InstanceRef(rec.command("a", Param("x").WithDefault(""))))
	registry.Add("b", InstanceRef(rec.command("b", Param("x").WithDefault(""))))

	text := "/a one /b two"
	if err := bus.HandleUpdate(context.Background(), textUpdate(text, "/a", "/b")); err != nil {
		t.Fatalf("HandleUpdate: %v", err)
	}

	if got := rec.snapshot(); !reflect.DeepEqual(got, []string{"a", "b"}) {
		t.Fatalf("calls = %v", got)
	}
	if rec.args[0].String("x") != "one" || rec.args[1].String("x") != "two" {
		t.Fatalf("unexpected args %q %q", rec.args[0].String("x"), rec.args[1].String("x"))
	}
}

func TestBusIgnoresUpdatesWithoutCommands(t *testing.T) {
	bus, _, emitter, _ := newTestBus(t)
	update := &objects.Update{Message: &objects.Message{Text: "just chatting"}}
	if err := bus.HandleUpdate(context.Background(), update); err != nil {
		t.Fatalf("HandleUpdate: %v", err)
	}
	if len(emitter.events) != 0 {
		t.Fatalf("expected no events, got %d", len(emitter.events))
	}
}

func TestBusCommandNameIsCaseInsensitiveAndStripsBot(t *testing.T) {
	bus, registry, _, _ := newTestBus(t)
	var rec recorder
	registry.Add("start", InstanceRef(rec.command("start", Param("who"))))

	text := "/START@MyBot alice"
	if err := bus.HandleUpdate(context.Background(), textUpdate(text, "/START@MyBot")); err != nil {
		t.Fatalf("HandleUpdate: %v", err)
	}
	if got := rec.snapshot(); len(got) != 1 {
		t.Fatalf("expected one call, got %v", got)
	}
	if rec.args[0].String("who") != "alice" {
		t.Fatalf("who = %q", rec.args[0].String("who"))
	}
}

func TestBusMissingArgumentsGoToFailed(t *testing.T) {
	bus, registry, emitter, _ := newTestBus(t)
	var (
		rec   recorder
		fails failureLog
	)
	registry.Add("greet", InstanceRef(
		rec.command("greet", Param("name"), Param("greeting").WithDefault("hi")).OnFailed(fails.hook),
	))

	if err := bus.HandleUpdate(context.Background(), textUpdate("/greet", "/greet")); err != nil {
		t.Fatalf("HandleUpdate: %v", err)
	}

	if len(rec.snapshot()) != 0 {
		t.Fatal("handler must not run with missing arguments")
	}
	if len(fails.calls) != 1 {
		t.Fatalf("expected one failure, got %d", len(fails.calls))
	}
	got := fails.calls[0]
	if !reflect.DeepEqual(got.missing, []string{"name"}) {
		t.Fatalf("missing = %v", got.missing)
	}
	var missingErr *MissingArgumentsError
	if !errors.As(got.err, &missingErr) {
		t.Fatalf("expected MissingArgumentsError, got %v", got.err)
	}

	failed := emitter.byType(events.TypeCommandFailed)
	if len(failed) != 1 || failed[0].Command != "greet" || !strings.Contains(failed[0].Handler, "FuncCommand") {
		t.Fatalf("unexpected failed events %+v", failed)
	}
}

func TestBusFailureDoesNotStopNextCommand(t *testing.T) {
	bus, registry, _, _ := newTestBus(t)
	var (
		rec   recorder
		fails failureLog
	)
	boom := errors.New("boom")
	registry.Add("bad", InstanceRef(NewFunc("bad", "", func(ctx context.Context, c *Context) error {
		return boom
	}).OnFailed(fails.hook)))
	registry.Add("panics", InstanceRef(NewFunc("panics", "", func(ctx context.Context, c *Context) error {
		panic("kaboom")
	}).OnFailed(fails.hook)))
	registry.Add("good", InstanceRef(rec.command("good")))

	text := "/bad /panics /good"
	if err := bus.HandleUpdate(context.Background(), textUpdate(text, "/bad", "/panics", "/good")); err != nil {
		t.Fatalf("HandleUpdate: %v", err)
	}

	if got := rec.snapshot(); !reflect.DeepEqual(got, []string{"good"}) {
		t.Fatalf("calls = %v", got)
	}
	if len(fails.calls) != 2 {
		t.Fatalf("expected two failures, got %d", len(fails.calls))
	}
	if !errors.Is(fails.calls[0].err, boom) {
		t.Fatalf("first failure = %v", fails.calls[0].err)
	}
	var panicErr *PanicError
	if !errors.As(fails.calls[1].err, &panicErr) || panicErr.Value != "kaboom" {
		t.Fatalf("second failure = %v", fails.calls[1].err)
	}
}

func TestBusFailureWithoutHookIsSwallowed(t *testing.T) {
	bus, registry, emitter, _ := newTestBus(t)
	registry.Add("bad", InstanceRef(&plainCommand{err: errors.New("nope")}))

	if err := bus.HandleUpdate(context.Background(), textUpdate("/bad", "/bad")); err != nil {
		t.Fatalf("HandleUpdate: %v", err)
	}
	if n := len(emitter.byType(events.TypeCommandFailed)); n != 1 {
		t.Fatalf("expected one failed event, got %d", n)
	}
}

type plainCommand struct{ err error }

func (p *plainCommand) Name() string            { return "plain" }
func (p *plainCommand) Description() string     { return "" }
func (p *plainCommand) Parameters() []Parameter { return nil }

func (p *plainCommand) Handle(ctx context.Context, c *Context) error { return p.err }

func TestBusNotFoundFallsBackToHelpOnce(t *testing.T) {
	bus, registry, emitter, _ := newTestBus(t)
	var rec recorder
	registry.Add("help", InstanceRef(rec.command("help")))

	if err := bus.HandleUpdate(context.Background(), textUpdate("/unknown", "/unknown")); err != nil {
		t.Fatalf("HandleUpdate: %v", err)
	}

	if got := rec.snapshot(); !reflect.DeepEqual(got, []string{"help"}) {
		t.Fatalf("calls = %v", got)
	}
	notFound := emitter.byType(events.TypeCommandNotFound)
	if len(notFound) != 1 || notFound[0].Command != "unknown" {
		t.Fatalf("unexpected not-found events %+v", notFound)
	}
	if !errors.Is(notFound[0].Err, ErrCommandNotFound) {
		t.Fatalf("expected ErrCommandNotFound on event, got %v", notFound[0].Err)
	}
}

func TestBusNotFoundWithoutHelpDoesNothing(t *testing.T) {
	bus, _, emitter, sender := newTestBus(t)

	if err := bus.HandleUpdate(context.Background(), textUpdate("/unknown", "/unknown")); err != nil {
		t.Fatalf("HandleUpdate: %v", err)
	}
	if n := len(emitter.byType(events.TypeCommandNotFound)); n != 1 {
		t.Fatalf("expected one not-found event, got %d", n)
	}
	if len(sender.sent) != 0 {
		t.Fatal("nothing should be sent")
	}
}

func TestBusContractViolationAborts(t *testing.T) {
	bus, registry, _, _ := newTestBus(t)
	var rec recorder
	registry.Add("bad", FactoryRef(func() (any, error) { return "not a command", nil }))
	registry.Add("good", InstanceRef(rec.command("good")))

	err := bus.HandleUpdate(context.Background(), textUpdate("/bad /good", "/bad", "/good"))
	var violation *ContractViolationError
	if !errors.As(err, &violation) {
		t.Fatalf("expected ContractViolationError, got %v", err)
	}
	if len(rec.snapshot()) != 0 {
		t.Fatal("dispatch must stop after a contract violation")
	}
}

func TestBusTriggerCommand(t *testing.T) {
	bus, registry, _, _ := newTestBus(t)
	var (
		mu        sync.Mutex
		triggered *Context
	)
	registry.Add("target", InstanceRef(NewFunc("target", "", func(ctx context.Context, c *Context) error {
		mu.Lock()
		defer mu.Unlock()
		triggered = c
		return nil
	}).WithParameters(Param("x"))))
	registry.Add("source", InstanceRef(NewFunc("source", "", func(ctx context.Context, c *Context) error {
		return c.TriggerCommand(ctx, "target", ArgumentsFrom(map[string]string{"x": "given"}))
	})))

	if err := bus.HandleUpdate(context.Background(), textUpdate("/source ignored", "/source")); err != nil {
		t.Fatalf("HandleUpdate: %v", err)
	}

	mu.Lock()
	defer mu.Unlock()
	if triggered == nil {
		t.Fatal("target was not triggered")
	}
	if !triggered.Triggered || triggered.Arguments.String("x") != "given" {
		t.Fatalf("unexpected context triggered=%v x=%q", triggered.Triggered, triggered.Arguments.String("x"))
	}
}

func TestBusReply(t *testing.T) {
	bus, registry, _, sender := newTestBus(t)
	registry.Add("ping", InstanceRef(NewFunc("ping", "", func(ctx context.Context, c *Context) error {
		return c.ReplyWithMessage(ctx, "pong")
	})))

	if err := bus.HandleUpdate(context.Background(), textUpdate("/ping", "/ping")); err != nil {
		t.Fatalf("HandleUpdate: %v", err)
	}
	last := sender.last()
	if last.ChatID != testChatID || last.Text != "pong" {
		t.Fatalf("unexpected reply %+v", last)
	}
}

func TestParseCommand(t *testing.T) {
	bus := NewBus(NewRegistry())

	tests := []struct {
		text   string
		offset int
		length int
		want   string
	}{
		{text: "/start", offset: 0, length: 6, want: "start"},
		{text: "/start@MyBot hi", offset: 0, length: 12, want: "start"},
		{text: "😀 /ping", offset: 3, length: 5, want: "ping"},
	}
	for _, tt := range tests {
		got, err := bus.ParseCommand(tt.text, tt.offset, tt.length)
		if err != nil || got != tt.want {
			t.Fatalf("ParseCommand(%q) = %q, %v", tt.text, got, err)
		}
	}

	if _, err := bus.ParseCommand("   ", 0, 1); !errors.Is(err, ErrMalformedInput) {
		t.Fatalf("expected ErrMalformedInput, got %v", err)
	}
}

func TestBusContextCarriesResolvedName(t *testing.T) {
	bus, registry, _, _ := newTestBus(t)
	type seen struct{ name, invoked string }
	var got []seen
	record := func(ctx context.Context, c *Context) error {
		got = append(got, seen{c.Name, c.Invoked})
		return nil
	}
	if err := registry.AddCommand(NewFunc("start", "", record).WithAliases("begin")); err != nil {
		t.Fatalf("AddCommand: %v", err)
	}
	registry.Add("help", InstanceRef(NewFunc("help", "", record)))

	text := "/Begin /unknown"
	if err := bus.HandleUpdate(context.Background(), textUpdate(text, "/Begin", "/unknown")); err != nil {
		t.Fatalf("HandleUpdate: %v", err)
	}

	want := []seen{{"start", "Begin"}, {"help", "unknown"}}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("contexts = %+v, want %+v", got, want)
	}
}
