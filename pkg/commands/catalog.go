package commands

import (
	"fmt"
	"sort"
	"sync"
)

// Constructor builds a fresh command value.
type Constructor func() (any, error)

// Container builds values from type names. It is how configuration refers
// to handlers that live in code.
type Container interface {
	Make(typeName string) (any, error)
}

// Catalog is a Container backed by a name to constructor table.
type Catalog struct {
	mu    sync.RWMutex
	ctors map[string]Constructor
}

// NewCatalog creates an empty catalog.
func NewCatalog() *Catalog {
	return &Catalog{ctors: make(map[string]Constructor)}
}

// Provide registers ctor under typeName, replacing any previous one.
func (c *Catalog) Provide(typeName string, ctor Constructor) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ctors[typeName] = ctor
}

// ProvideCommand registers a constructor that returns a Command.
func (c *Catalog) ProvideCommand(typeName string, ctor func() Command) {
	c.Provide(typeName, func() (any, error) { return ctor(), nil })
}

// Make builds the value registered under typeName.
func (c *Catalog) Make(typeName string) (any, error) {
	c.mu.RLock()
	ctor, ok := c.ctors[typeName]
	c.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("no constructor for %q", typeName)
	}
	return ctor()
}

// Names returns the registered type names in sorted order.
func (c *Catalog) Names() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	names := make([]string, 0, len(c.ctors))
	for name := range c.ctors {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
