package commands

import (
	"context"
	"fmt"
	"runtime"
	"strings"
	"time"

	"telegrambot/pkg/version"
)

var processStartTime = time.Now()

// Type names of the built-in commands in a Catalog.
const (
	HelpCommandType   = "HelpCommand"
	StatusCommandType = "StatusCommand"
)

// RegisterBuiltinCommands makes the built-in commands available to catalog
// by type name.
func RegisterBuiltinCommands(catalog *Catalog) {
	catalog.ProvideCommand(HelpCommandType, func() Command { return &HelpCommand{} })
	catalog.ProvideCommand(StatusCommandType, func() Command { return &StatusCommand{} })
}

// Usage renders "/name <required> [optional]" for cmd.
func Usage(cmd Command) string {
	var sb strings.Builder
	sb.WriteString("/")
	sb.WriteString(cmd.Name())
	for _, s := range ParameterSpecs(cmd) {
		if s.Required {
			fmt.Fprintf(&sb, " <%s>", s.Name)
		} else {
			fmt.Fprintf(&sb, " [%s]", s.Name)
		}
	}
	return sb.String()
}

// HelpCommand lists registered commands or describes one of them.
type HelpCommand struct{}

func (h *HelpCommand) Name() string        { return HelpCommandName }
func (h *HelpCommand) Description() string { return "Get a list of available commands" }
func (h *HelpCommand) Aliases() []string   { return []string{"listcommands"} }

func (h *HelpCommand) Parameters() []Parameter {
	return []Parameter{Param("command").WithDefault("")}
}

func (h *HelpCommand) Handle(ctx context.Context, c *Context) error {
	if c.Bus == nil {
		return fmt.Errorf("help: no bus")
	}
	registry := c.Bus.Registry()

	if name, ok := c.Arguments.Lookup("command"); ok && name != "" {
		name = strings.TrimPrefix(name, "/")
		if at := strings.Index(name, "@"); at > 0 {
			name = name[:at]
		}
		if ref, found := registry.Get(name); found {
			if cmd, err := registry.Make(name, ref); err == nil {
				return c.ReplyWithMessage(ctx, describeCommand(cmd))
			}
		}
	}

	cmds := registry.Commands()
	if len(cmds) == 0 {
		return c.ReplyWithMessage(ctx, "No commands available.")
	}

	var sb strings.Builder
	for _, cmd := range cmds {
		fmt.Fprintf(&sb, "/%s - %s\n", cmd.Name(), compactDescription(cmd.Description(), 72))
	}
	return c.ReplyWithMessage(ctx, strings.TrimRight(sb.String(), "\n"))
}

// describeCommand renders plain text. Descriptions are free-form, so no
// parse mode is used.
func describeCommand(cmd Command) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "/%s\n\n%s\n\nUsage: %s", cmd.Name(), cmd.Description(), Usage(cmd))
	if a, ok := cmd.(Aliased); ok && len(a.Aliases()) > 0 {
		fmt.Fprintf(&sb, "\nAliases: /%s", strings.Join(a.Aliases(), ", /"))
	}
	return sb.String()
}

func compactDescription(desc string, limit int) string {
	desc = strings.Join(strings.Fields(strings.TrimSpace(desc)), " ")
	if desc == "" {
		return "Command"
	}
	runes := []rune(desc)
	if len(runes) <= limit {
		return desc
	}
	return string(runes[:limit-1]) + "…"
}

// StatusCommand reports version and runtime information.
type StatusCommand struct{}

func (s *StatusCommand) Name() string            { return "status" }
func (s *StatusCommand) Description() string     { return "Show bot status" }
func (s *StatusCommand) Parameters() []Parameter { return nil }

func (s *StatusCommand) Handle(ctx context.Context, c *Context) error {
	return c.ReplyWithMessage(ctx, statusText())
}

func statusText() string {
	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)

	return fmt.Sprintf(`Status: online
Version: %s
OS: %s/%s
Go: %s
Uptime: %s
Memory: %.2f MB`,
		version.GetVersion(),
		runtime.GOOS,
		runtime.GOARCH,
		runtime.Version(),
		time.Since(processStartTime).Round(time.Second),
		float64(mem.Alloc)/1024.0/1024.0,
	)
}
