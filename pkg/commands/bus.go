package commands

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"telegrambot/pkg/events"
	"telegrambot/pkg/logger"
	"telegrambot/pkg/objects"
)

// Bus finds commands in updates and runs them.
type Bus struct {
	registry *Registry
	parser   *Parser
	locator  EntityLocator
	bot      Sender
	emitter  events.Emitter
	log      *logger.Logger
	botName  string
}

// BusOption configures a Bus.
type BusOption func(*Bus)

// WithSender sets the Bot API client handed to commands.
func WithSender(s Sender) BusOption {
	return func(b *Bus) { b.bot = s }
}

// WithBusEmitter sets where failure events go.
func WithBusEmitter(e events.Emitter) BusOption {
	return func(b *Bus) { b.emitter = e }
}

// WithBusLogger sets the bus logger.
func WithBusLogger(l *logger.Logger) BusOption {
	return func(b *Bus) { b.log = l }
}

// WithParser shares a parser, and its grammar cache, between buses.
func WithParser(p *Parser) BusOption {
	return func(b *Bus) { b.parser = p }
}

// WithBusBotName tags emitted events with the owning bot.
func WithBusBotName(name string) BusOption {
	return func(b *Bus) { b.botName = name }
}

// NewBus creates a bus dispatching through registry.
func NewBus(registry *Registry, opts ...BusOption) *Bus {
	b := &Bus{registry: registry}
	for _, opt := range opts {
		opt(b)
	}
	if b.parser == nil {
		b.parser = NewParser()
	}
	if b.log == nil {
		b.log = logger.NewNop()
	}
	return b
}

// Registry returns the registry the bus dispatches through.
func (b *Bus) Registry() *Registry {
	return b.registry
}

// Parser returns the bus parser.
func (b *Bus) Parser() *Parser {
	return b.parser
}

// HandleUpdate runs every command found in update, in message order.
// Handler failures are reported through events and FailureHandler and do
// not stop later commands. Malformed input and contract violations abort
// the update and are returned.
func (b *Bus) HandleUpdate(ctx context.Context, update *objects.Update) error {
	entities := b.locator.CommandEntities(update)
	if len(entities) == 0 {
		return nil
	}

	for _, entity := range entities {
		if err := b.Process(ctx, update, entity); err != nil {
			return err
		}
	}
	return nil
}

// Process runs the command marked by entity.
func (b *Bus) Process(ctx context.Context, update *objects.Update, entity objects.MessageEntity) error {
	text, _ := b.locator.Text(update)
	name, err := b.ParseCommand(text, entity.Offset, entity.Length)
	if err != nil {
		return err
	}
	return b.Execute(ctx, name, update, entity, nil, false)
}

// ParseCommand extracts the command name at offset and length, dropping
// the leading slash and any "@botname" suffix.
func (b *Bus) ParseCommand(text string, offset, length int) (string, error) {
	if strings.TrimSpace(text) == "" {
		return "", ErrMalformedInput
	}
	token := objects.SliceUTF16(text, offset+1, length-1)
	name, _, _ := strings.Cut(token, "@")
	return name, nil
}

// Execute resolves name and runs the command. When triggered is true the
// message text is not parsed and args are used as given.
func (b *Bus) Execute(ctx context.Context, name string, update *objects.Update, entity objects.MessageEntity, args Arguments, triggered bool) error {
	cmd, err := b.registry.Resolve(ctx, name, update)
	if err != nil {
		var violation *ContractViolationError
		if errors.As(err, &violation) {
			b.log.Error("Command does not implement the handler contract",
				zap.String("command", name),
				zap.Error(err))
		}
		return err
	}
	if cmd == nil {
		return nil
	}

	c := &Context{
		Bus:       b,
		Bot:       b.bot,
		Update:    update,
		Entity:    entity,
		Name:      cmd.Name(),
		Invoked:   name,
		Arguments: args,
		Triggered: triggered,
	}
	if c.Arguments == nil {
		c.Arguments = Arguments{}
	}

	missing, err := b.invoke(ctx, cmd, c)
	if err != nil {
		b.fail(ctx, cmd, c, missing, err)
	}
	return nil
}

func (b *Bus) invoke(ctx context.Context, cmd Command, c *Context) (missing []string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &PanicError{Command: c.Name, Value: r}
		}
	}()

	if !c.Triggered {
		args, err := b.parser.Arguments(cmd, c.Update, c.Entity)
		if err != nil {
			return nil, fmt.Errorf("parse arguments: %w", err)
		}
		c.Arguments = args
	}

	if missing = b.parser.RequiredParamsNotProvided(cmd, c.Arguments); len(missing) > 0 {
		return missing, &MissingArgumentsError{Command: c.Name, Missing: missing}
	}

	b.log.Debug("Dispatching command",
		zap.String("command", c.Name),
		zap.Strings("arguments", c.Arguments.Names()),
		zap.Bool("triggered", c.Triggered))

	return nil, cmd.Handle(ctx, c)
}

func (b *Bus) fail(ctx context.Context, cmd Command, c *Context, missing []string, err error) {
	handler := fmt.Sprintf("%T", cmd)

	if b.emitter != nil {
		ev := events.CommandFailed(c.Name, handler, missing, err, c.Update)
		ev.Bot = b.botName
		if emitErr := b.emitter.Emit(ctx, ev); emitErr != nil {
			b.log.Warn("Failed to emit event",
				zap.String("event", string(ev.Type)),
				zap.Error(emitErr))
		}
	}

	fh, ok := cmd.(FailureHandler)
	if !ok {
		b.log.Warn("Command failed",
			zap.String("command", c.Name),
			zap.String("handler", handler),
			zap.Strings("missing", missing),
			zap.Error(err))
		return
	}

	defer func() {
		if r := recover(); r != nil {
			b.log.Error("Failure handler panicked",
				zap.String("command", c.Name),
				zap.Any("panic", r))
		}
	}()
	fh.Failed(ctx, c, missing, err)
}
