// Package events delivers command dispatch signals to subscribers.
package events

import (
	"context"
	"time"

	"github.com/google/uuid"

	"telegrambot/pkg/objects"
)

// Type identifies an event.
type Type string

const (
	// TypeCommandNotFound is emitted when a command name cannot be resolved.
	TypeCommandNotFound Type = "command.not_found"
	// TypeCommandFailed is emitted when a handler or its argument validation fails.
	TypeCommandFailed Type = "command.failed"
)

// Event is a dispatch signal.
type Event struct {
	ID        string          `json:"id"`
	Type      Type            `json:"type"`
	Bot       string          `json:"bot,omitempty"`
	Command   string          `json:"command"`
	Handler   string          `json:"handler,omitempty"`
	Error     string          `json:"error,omitempty"`
	Missing   []string        `json:"missing,omitempty"`
	Update    *objects.Update `json:"update,omitempty"`
	Timestamp time.Time       `json:"timestamp"`

	// Err is the original error. It does not survive a trip through Redis.
	Err error `json:"-"`
}

// New creates an event with a fresh ID.
func New(t Type) *Event {
	return &Event{
		ID:        uuid.NewString(),
		Type:      t,
		Timestamp: time.Now(),
	}
}

// CommandNotFound builds a not-found event for name.
func CommandNotFound(name string, update *objects.Update) *Event {
	ev := New(TypeCommandNotFound)
	ev.Command = name
	ev.Update = update
	return ev
}

// CommandFailed builds a failure event. handler is the Go type of the command.
func CommandFailed(name, handler string, missing []string, err error, update *objects.Update) *Event {
	ev := New(TypeCommandFailed)
	ev.Command = name
	ev.Handler = handler
	ev.Missing = missing
	ev.Update = update
	ev.Err = err
	if err != nil {
		ev.Error = err.Error()
	}
	return ev
}

// Handler processes an event.
type Handler func(ctx context.Context, ev *Event) error

// Emitter is the interface for event delivery.
type Emitter interface {
	// Start starts delivery.
	Start() error

	// Stop stops delivery and waits for in-flight handlers.
	Stop() error

	// Subscribe registers a handler for an event type.
	Subscribe(t Type, handler Handler)

	// Unsubscribe removes all handlers for an event type.
	Unsubscribe(t Type)

	// Emit publishes an event.
	Emit(ctx context.Context, ev *Event) error

	// GetMetrics returns current emitter metrics.
	GetMetrics() map[string]uint64
}
