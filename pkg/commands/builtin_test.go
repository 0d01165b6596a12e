package commands

import (
	"context"
	"strings"
	"testing"
)

func TestUsage(t *testing.T) {
	cmd := NewFunc("greet", "", nil).WithParameters(
		Inject("bot", "API"),
		Param("name"),
		Param("greeting").WithDefault("hello"),
		Param("times").WithPattern(`\d+`),
	)
	if got := Usage(cmd); got != "/greet <name> [greeting] [times]" {
		t.Fatalf("usage = %q", got)
	}
	if got := Usage(&StatusCommand{}); got != "/status" {
		t.Fatalf("usage = %q", got)
	}
}

func TestHelpListsCommands(t *testing.T) {
	bus, registry, _, sender := newTestBus(t)
	if err := registry.AddCommand(&HelpCommand{}); err != nil {
		t.Fatalf("AddCommand: %v", err)
	}
	if err := registry.AddCommand(&StatusCommand{}); err != nil {
		t.Fatalf("AddCommand: %v", err)
	}

	if err := bus.HandleUpdate(context.Background(), textUpdate("/help", "/help")); err != nil {
		t.Fatalf("HandleUpdate: %v", err)
	}

	text := sender.last().Text
	for _, want := range []string{"/help - Get a list of available commands", "/status - Show bot status"} {
		if !strings.Contains(text, want) {
			t.Fatalf("expected %q in help output:\n%s", want, text)
		}
	}
}

func TestHelpDescribesOneCommand(t *testing.T) {
	bus, registry, _, sender := newTestBus(t)
	_ = registry.AddCommand(&HelpCommand{})
	_ = registry.AddCommand(NewFunc("set_limit", "Sets *the* max_count [per chat]", nil).
		WithParameters(Param("max_count")).
		WithAliases("limit"))

	if err := bus.HandleUpdate(context.Background(), textUpdate("/listcommands set_limit", "/listcommands")); err != nil {
		t.Fatalf("HandleUpdate: %v", err)
	}

	last := sender.last()
	if last.ParseMode != "" {
		t.Fatalf("expected a plain text reply, got parse mode %q", last.ParseMode)
	}
	want := "/set_limit\n\nSets *the* max_count [per chat]\n\nUsage: /set_limit <max_count>\nAliases: /limit"
	if last.Text != want {
		t.Fatalf("detail output = %q, want %q", last.Text, want)
	}
}

func TestStatusText(t *testing.T) {
	text := statusText()
	for _, want := range []string{"Status: online", "Version:", "OS:", "Go:", "Uptime:", "Memory:"} {
		if !strings.Contains(text, want) {
			t.Fatalf("expected status output to contain %q, got:\n%s", want, text)
		}
	}
}

func TestCompactDescription(t *testing.T) {
	if got := compactDescription("  many   spaces  ", 72); got != "many spaces" {
		t.Fatalf("got %q", got)
	}
	if got := compactDescription("", 72); got != "Command" {
		t.Fatalf("got %q", got)
	}
	if got := compactDescription("abcdef", 4); got != "abc…" {
		t.Fatalf("got %q", got)
	}
}
