package events

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"telegrambot/pkg/logger"
)

// LocalEmitter is an in-process emitter backed by a buffered channel.
type LocalEmitter struct {
	log      *logger.Logger
	handlers map[Type][]Handler
	mu       sync.RWMutex

	queue chan *Event

	// Lifecycle
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	// Metrics
	emitted     uint64
	delivered   uint64
	errors      uint64
	metricsLock sync.RWMutex
}

// NewLocalEmitter creates a local emitter.
func NewLocalEmitter(log *logger.Logger, bufferSize int) *LocalEmitter {
	if bufferSize <= 0 {
		bufferSize = 100
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &LocalEmitter{
		log:      log,
		handlers: make(map[Type][]Handler),
		queue:    make(chan *Event, bufferSize),
		ctx:      ctx,
		cancel:   cancel,
	}
}

// Start starts the delivery loop.
func (e *LocalEmitter) Start() error {
	e.log.Info("Starting event emitter")

	e.wg.Add(1)
	go e.process()

	return nil
}

// Stop stops delivery. Events still queued are dropped.
func (e *LocalEmitter) Stop() error {
	e.log.Info("Stopping event emitter")

	e.cancel()
	e.wg.Wait()

	e.log.Info("Event emitter stopped")
	return nil
}

// Subscribe registers a handler for t. Multiple handlers may share a type.
func (e *LocalEmitter) Subscribe(t Type, handler Handler) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.handlers[t] = append(e.handlers[t], handler)
	e.log.Debug("Subscribed handler", zap.String("event", string(t)))
}

// Unsubscribe removes all handlers for t.
func (e *LocalEmitter) Unsubscribe(t Type) {
	e.mu.Lock()
	defer e.mu.Unlock()

	delete(e.handlers, t)
}

// Emit queues ev for delivery.
func (e *LocalEmitter) Emit(ctx context.Context, ev *Event) error {
	select {
	case e.queue <- ev:
		e.incr(&e.emitted)
		return nil
	case <-e.ctx.Done():
		return fmt.Errorf("emitter is shutting down")
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(5 * time.Second):
		return fmt.Errorf("timeout emitting %s event", ev.Type)
	}
}

func (e *LocalEmitter) process() {
	defer e.wg.Done()

	for {
		select {
		case ev := <-e.queue:
			e.deliver(ev)
		case <-e.ctx.Done():
			return
		}
	}
}

func (e *LocalEmitter) deliver(ev *Event) {
	e.mu.RLock()
	handlers := e.handlers[ev.Type]
	e.mu.RUnlock()

	if len(handlers) == 0 {
		e.log.Debug("No subscribers for event",
			zap.String("event", string(ev.Type)),
			zap.String("id", ev.ID))
		return
	}

	for _, handler := range handlers {
		if err := handler(e.ctx, ev); err != nil {
			e.incr(&e.errors)
			e.log.Error("Event handler error",
				zap.String("event", string(ev.Type)),
				zap.String("id", ev.ID),
				zap.Error(err))
			continue
		}
		e.incr(&e.delivered)
	}
}

// GetMetrics returns current emitter metrics.
func (e *LocalEmitter) GetMetrics() map[string]uint64 {
	e.metricsLock.RLock()
	defer e.metricsLock.RUnlock()

	return map[string]uint64{
		"emitted":   e.emitted,
		"delivered": e.delivered,
		"errors":    e.errors,
	}
}

func (e *LocalEmitter) incr(counter *uint64) {
	e.metricsLock.Lock()
	*counter++
	e.metricsLock.Unlock()
}
