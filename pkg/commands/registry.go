package commands

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"go.uber.org/zap"

	"telegrambot/pkg/events"
	"telegrambot/pkg/logger"
	"telegrambot/pkg/objects"
)

// HelpCommandName is the entry used when a command cannot be found.
const HelpCommandName = "help"

type refKind int

const (
	refName refKind = iota
	refFactory
	refInstance
)

// Ref is a registry entry: a type name resolved through the container, a
// factory, or a ready command instance.
type Ref struct {
	kind     refKind
	name     string
	factory  Constructor
	instance Command
}

// NameRef refers to a type name known to the registry's container.
func NameRef(typeName string) Ref {
	return Ref{kind: refName, name: typeName}
}

// FactoryRef builds a fresh value on every resolution.
func FactoryRef(factory Constructor) Ref {
	return Ref{kind: refFactory, factory: factory}
}

// InstanceRef always resolves to cmd.
func InstanceRef(cmd Command) Ref {
	return Ref{kind: refInstance, instance: cmd}
}

// NameRefs converts a name to type name table into refs.
func NameRefs(table map[string]string) map[string]Ref {
	refs := make(map[string]Ref, len(table))
	for name, typeName := range table {
		refs[name] = NameRef(typeName)
	}
	return refs
}

func (r Ref) String() string {
	switch r.kind {
	case refName:
		return r.name
	case refFactory:
		return "factory"
	case refInstance:
		if r.instance == nil {
			return "<nil>"
		}
		return fmt.Sprintf("%T", r.instance)
	}
	return "unknown"
}

// Registry maps command names to handler references. Names are stored
// lower-cased and without the leading slash.
type Registry struct {
	mu      sync.RWMutex
	entries map[string]Ref
	aliases map[string]string

	bot       string
	container Container
	emitter   events.Emitter
	log       *logger.Logger
}

// RegistryOption configures a Registry.
type RegistryOption func(*Registry)

// WithContainer sets the container used for NameRef entries and unknown names.
func WithContainer(c Container) RegistryOption {
	return func(r *Registry) { r.container = c }
}

// WithEmitter sets where not-found events go.
func WithEmitter(e events.Emitter) RegistryOption {
	return func(r *Registry) { r.emitter = e }
}

// WithLogger sets the registry logger.
func WithLogger(l *logger.Logger) RegistryOption {
	return func(r *Registry) { r.log = l }
}

// WithBotName tags emitted events with the owning bot.
func WithBotName(name string) RegistryOption {
	return func(r *Registry) { r.bot = name }
}

// NewRegistry creates an empty registry.
func NewRegistry(opts ...RegistryOption) *Registry {
	r := &Registry{
		entries: make(map[string]Ref),
		aliases: make(map[string]string),
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.log == nil {
		r.log = logger.NewNop()
	}
	return r
}

func normalizeName(name string) string {
	return strings.ToLower(strings.TrimPrefix(strings.TrimSpace(name), "/"))
}

// Add registers ref under name. The last write for a name wins.
func (r *Registry) Add(name string, ref Ref) {
	name = normalizeName(name)
	aliases := r.declaredAliases(name, ref)

	r.mu.Lock()
	defer r.mu.Unlock()

	r.entries[name] = ref
	r.indexAliases(name, aliases)
}

// AddCommand registers cmd under its own name and its aliases. An alias
// that is already a command name is rejected.
func (r *Registry) AddCommand(cmd Command) error {
	if cmd == nil {
		return fmt.Errorf("command cannot be nil")
	}
	name := normalizeName(cmd.Name())
	if name == "" {
		return fmt.Errorf("command name cannot be empty")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if a, ok := cmd.(Aliased); ok {
		for _, alias := range a.Aliases() {
			alias = normalizeName(alias)
			if alias == name {
				continue
			}
			if _, exists := r.entries[alias]; exists {
				return fmt.Errorf("command %s: alias %s conflicts with a command name", name, alias)
			}
		}
	}

	r.entries[name] = InstanceRef(cmd)
	r.indexAliases(name, aliasesOf(cmd))
	return nil
}

// declaredAliases builds ref once to read the aliases its command declares.
// A ref that cannot be built yet is registered without aliases.
func (r *Registry) declaredAliases(name string, ref Ref) []string {
	cmd, err := r.Make(name, ref)
	if err != nil {
		return nil
	}
	return aliasesOf(cmd)
}

func aliasesOf(cmd Command) []string {
	if a, ok := cmd.(Aliased); ok {
		return a.Aliases()
	}
	return nil
}

// indexAliases must be called with r.mu held.
func (r *Registry) indexAliases(name string, aliases []string) {
	for _, alias := range aliases {
		alias = normalizeName(alias)
		if alias == "" || alias == name {
			continue
		}
		if _, isEntry := r.entries[alias]; isEntry {
			continue
		}
		r.aliases[alias] = name
	}
}

// AddMany replaces the whole table with refs.
func (r *Registry) AddMany(refs map[string]Ref) {
	entries := make(map[string]Ref, len(refs))
	aliases := make(map[string][]string, len(refs))
	for name, ref := range refs {
		name = normalizeName(name)
		entries[name] = ref
		aliases[name] = r.declaredAliases(name, ref)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.entries = entries
	r.aliases = make(map[string]string)
	for name, list := range aliases {
		r.indexAliases(name, list)
	}
}

// Remove deletes name and the aliases pointing at it.
func (r *Registry) Remove(name string) {
	name = normalizeName(name)

	r.mu.Lock()
	defer r.mu.Unlock()

	r.removeLocked(name)
}

// RemoveMany deletes every name. Unknown names are ignored.
func (r *Registry) RemoveMany(names []string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, name := range names {
		r.removeLocked(normalizeName(name))
	}
}

func (r *Registry) removeLocked(name string) {
	delete(r.entries, name)
	delete(r.aliases, name)
	for alias, target := range r.aliases {
		if target == name {
			delete(r.aliases, alias)
		}
	}
}

// Get returns the ref registered for name or one of its aliases.
func (r *Registry) Get(name string) (Ref, bool) {
	name = normalizeName(name)

	r.mu.RLock()
	defer r.mu.RUnlock()

	if ref, ok := r.entries[name]; ok {
		return ref, true
	}
	if target, ok := r.aliases[name]; ok {
		ref, ok := r.entries[target]
		return ref, ok
	}
	return Ref{}, false
}

// Has reports whether name or an alias is registered.
func (r *Registry) Has(name string) bool {
	_, ok := r.Get(name)
	return ok
}

// Names returns registered command names in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.entries))
	for name := range r.entries {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// All returns a copy of the table.
func (r *Registry) All() map[string]Ref {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make(map[string]Ref, len(r.entries))
	for name, ref := range r.entries {
		out[name] = ref
	}
	return out
}

// Commands instantiates every entry in name order. Entries that cannot be
// built are logged and skipped.
func (r *Registry) Commands() []Command {
	var cmds []Command
	for _, name := range r.Names() {
		ref, ok := r.Get(name)
		if !ok {
			continue
		}
		cmd, err := r.Make(name, ref)
		if err != nil {
			r.log.Warn("Skipping command", zap.String("command", name), zap.Error(err))
			continue
		}
		cmds = append(cmds, cmd)
	}
	return cmds
}

// Make builds the command behind ref. Failures to build return
// *NotInstantiableError; values that are not commands return
// *ContractViolationError.
func (r *Registry) Make(name string, ref Ref) (Command, error) {
	var (
		v   any
		err error
	)

	switch ref.kind {
	case refInstance:
		if ref.instance == nil {
			return nil, &NotInstantiableError{Name: name, Err: errors.New("nil instance")}
		}
		return ref.instance, nil
	case refFactory:
		if ref.factory == nil {
			return nil, &NotInstantiableError{Name: name, Err: errors.New("nil factory")}
		}
		v, err = ref.factory()
	case refName:
		if r.container == nil {
			return nil, &NotInstantiableError{Name: name, Err: errors.New("no container configured")}
		}
		v, err = r.container.Make(ref.name)
	default:
		return nil, &NotInstantiableError{Name: name, Err: errors.New("empty reference")}
	}

	if err != nil {
		return nil, &NotInstantiableError{Name: name, Err: err}
	}
	if v == nil {
		return nil, &NotInstantiableError{Name: name, Err: errors.New("constructor returned nil")}
	}
	cmd, ok := v.(Command)
	if !ok {
		return nil, &ContractViolationError{Name: name, Type: fmt.Sprintf("%T", v)}
	}
	return cmd, nil
}

// Resolve turns target into a command. target may be a Command, a Ref or a
// name. Names that are not registered are tried as container type names.
//
// When nothing can be built a not-found event is emitted and the help entry
// is returned instead. With no help entry the result is (nil, nil).
func (r *Registry) Resolve(ctx context.Context, target any, update *objects.Update) (Command, error) {
	var (
		name string
		ref  Ref
	)

	switch t := target.(type) {
	case Command:
		return t, nil
	case Ref:
		name, ref = t.String(), t
	case string:
		name = t
		var ok bool
		if ref, ok = r.Get(t); !ok {
			ref = NameRef(t)
		}
	default:
		return nil, &ContractViolationError{Name: fmt.Sprint(target), Type: fmt.Sprintf("%T", target)}
	}

	cmd, err := r.Make(name, ref)
	if err == nil {
		return cmd, nil
	}

	var notInstantiable *NotInstantiableError
	if !errors.As(err, &notInstantiable) {
		return nil, err
	}

	r.log.Debug("Command not found",
		zap.String("command", name),
		zap.Error(err))
	r.emitNotFound(ctx, name, update)

	return r.fallback(name)
}

func (r *Registry) fallback(name string) (Command, error) {
	if normalizeName(name) == HelpCommandName {
		return nil, nil
	}
	ref, ok := r.Get(HelpCommandName)
	if !ok {
		return nil, nil
	}

	cmd, err := r.Make(HelpCommandName, ref)
	if err != nil {
		var notInstantiable *NotInstantiableError
		if errors.As(err, &notInstantiable) {
			return nil, nil
		}
		return nil, err
	}
	return cmd, nil
}

func (r *Registry) emitNotFound(ctx context.Context, name string, update *objects.Update) {
	if r.emitter == nil {
		return
	}
	ev := events.CommandNotFound(name, update)
	ev.Bot = r.bot
	ev.Err = ErrCommandNotFound
	ev.Error = ErrCommandNotFound.Error()
	if err := r.emitter.Emit(ctx, ev); err != nil {
		r.log.Warn("Failed to emit event",
			zap.String("event", string(ev.Type)),
			zap.Error(err))
	}
}
