// Package commands provides the command bus that routes bot commands found in
// incoming updates to handler code.
package commands

import (
	"context"
	"fmt"
	"sort"

	"telegrambot/pkg/objects"
)

// Command is a unit of bot logic bound to a command name.
type Command interface {
	// Name is the command name without the leading slash.
	Name() string
	// Description is a short, user-facing summary.
	Description() string
	// Parameters declares the positional argument grammar in order.
	Parameters() []Parameter
	// Handle runs the command.
	Handle(ctx context.Context, c *Context) error
}

// FailureHandler is implemented by commands that want to react when
// argument validation or Handle fails.
type FailureHandler interface {
	Failed(ctx context.Context, c *Context, missing []string, err error)
}

// Aliased is implemented by commands reachable under additional names.
type Aliased interface {
	Aliases() []string
}

// Sender is the part of the Bot API commands use to answer.
type Sender interface {
	SendMessage(ctx context.Context, params objects.SendMessageParams) (*objects.Message, error)
}

// Context carries everything a single command invocation needs. A fresh
// Context is built for every invocation so registered command instances can
// be shared between updates.
type Context struct {
	Bus       *Bus
	Bot       Sender
	Update    *objects.Update
	Entity    objects.MessageEntity
	// Name is the name of the resolved command.
	Name      string
	// Invoked is the name as typed, which may be an alias or, when help
	// stands in for an unknown command, that unknown name.
	Invoked   string
	Arguments Arguments
	Triggered bool
}

// ChatID returns the chat the update came from, or 0.
func (c *Context) ChatID() int64 {
	if chat := c.Update.Chat(); chat != nil {
		return chat.ID
	}
	return 0
}

// ReplyWithMessage sends text to the chat the command came from.
func (c *Context) ReplyWithMessage(ctx context.Context, text string) error {
	return c.Reply(ctx, objects.SendMessageParams{Text: text})
}

// Reply sends params to the chat the command came from. ChatID is filled in
// when unset.
func (c *Context) Reply(ctx context.Context, params objects.SendMessageParams) error {
	if c.Bot == nil {
		return fmt.Errorf("command %s: no bot to reply with", c.Name)
	}
	if params.ChatID == 0 {
		params.ChatID = c.ChatID()
	}
	if params.ChatID == 0 {
		return fmt.Errorf("command %s: update has no chat", c.Name)
	}
	_, err := c.Bot.SendMessage(ctx, params)
	return err
}

// TriggerCommand runs another registered command with args as given,
// without re-parsing the message text.
func (c *Context) TriggerCommand(ctx context.Context, name string, args Arguments) error {
	if c.Bus == nil {
		return fmt.Errorf("command %s: no bus to trigger %s on", c.Name, name)
	}
	return c.Bus.Execute(ctx, name, c.Update, c.Entity, args, true)
}

// Arguments maps parameter names to parsed values. A nil value is an
// explicit null: the parameter exists but its input did not match.
type Arguments map[string]*string

// ArgumentsFrom builds Arguments from plain strings.
func ArgumentsFrom(values map[string]string) Arguments {
	args := make(Arguments, len(values))
	for k, v := range values {
		v := v
		args[k] = &v
	}
	return args
}

// Lookup returns the value for name and whether it is present and non-null.
func (a Arguments) Lookup(name string) (string, bool) {
	v, ok := a[name]
	if !ok || v == nil {
		return "", false
	}
	return *v, true
}

// String returns the value for name, or "" when absent or null.
func (a Arguments) String(name string) string {
	v, _ := a.Lookup(name)
	return v
}

// Has reports whether name is present, null or not.
func (a Arguments) Has(name string) bool {
	_, ok := a[name]
	return ok
}

// IsNull reports whether name is present with an explicit null.
func (a Arguments) IsNull(name string) bool {
	v, ok := a[name]
	return ok && v == nil
}

// Names returns the argument names in sorted order.
func (a Arguments) Names() []string {
	names := make([]string, 0, len(a))
	for k := range a {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// Clone returns a copy that shares no pointers with a.
func (a Arguments) Clone() Arguments {
	if a == nil {
		return Arguments{}
	}
	out := make(Arguments, len(a))
	for k, v := range a {
		if v == nil {
			out[k] = nil
			continue
		}
		s := *v
		out[k] = &s
	}
	return out
}
