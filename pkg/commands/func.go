package commands

import "context"

// HandlerFunc is the body of a command built with NewFunc.
type HandlerFunc func(ctx context.Context, c *Context) error

// FailedFunc is called when a FuncCommand fails.
type FailedFunc func(ctx context.Context, c *Context, missing []string, err error)

// FuncCommand adapts a plain function to Command.
type FuncCommand struct {
	name        string
	description string
	aliases     []string
	params      []Parameter
	handle      HandlerFunc
	failed      FailedFunc
}

// NewFunc creates a command that runs fn.
func NewFunc(name, description string, fn HandlerFunc) *FuncCommand {
	return &FuncCommand{name: name, description: description, handle: fn}
}

// WithParameters sets the argument grammar.
func (f *FuncCommand) WithParameters(params ...Parameter) *FuncCommand {
	f.params = params
	return f
}

// WithAliases sets extra names for the command.
func (f *FuncCommand) WithAliases(aliases ...string) *FuncCommand {
	f.aliases = aliases
	return f
}

// OnFailed sets the failure callback.
func (f *FuncCommand) OnFailed(fn FailedFunc) *FuncCommand {
	f.failed = fn
	return f
}

func (f *FuncCommand) Name() string            { return f.name }
func (f *FuncCommand) Description() string     { return f.description }
func (f *FuncCommand) Aliases() []string       { return f.aliases }
func (f *FuncCommand) Parameters() []Parameter { return f.params }

func (f *FuncCommand) Handle(ctx context.Context, c *Context) error {
	if f.handle == nil {
		return nil
	}
	return f.handle(ctx, c)
}

func (f *FuncCommand) Failed(ctx context.Context, c *Context, missing []string, err error) {
	if f.failed != nil {
		f.failed(ctx, c, missing, err)
	}
}
