package events

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"telegrambot/pkg/logger"
)

// RedisEmitter publishes events over Redis pub/sub so several bot
// processes can share subscribers.
type RedisEmitter struct {
	log    *logger.Logger
	client *redis.Client
	prefix string

	handlers map[Type][]Handler
	mu       sync.RWMutex

	// Lifecycle
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	pubsub *redis.PubSub

	// Metrics
	emitted     uint64
	delivered   uint64
	errors      uint64
	metricsLock sync.RWMutex
}

// RedisConfig configures the Redis emitter.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	Prefix   string
}

// NewRedisEmitter connects to Redis and creates an emitter.
func NewRedisEmitter(log *logger.Logger, cfg *RedisConfig) (*RedisEmitter, error) {
	if cfg.Prefix == "" {
		cfg.Prefix = "telegrambot:events:"
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	if err := client.Ping(context.Background()).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("connecting to Redis: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())

	e := &RedisEmitter{
		log:      log,
		client:   client,
		prefix:   cfg.Prefix,
		handlers: make(map[Type][]Handler),
		ctx:      ctx,
		cancel:   cancel,
	}

	log.Info("Redis event emitter initialized",
		zap.String("addr", cfg.Addr),
		zap.Int("db", cfg.DB),
		zap.String("prefix", cfg.Prefix))

	return e, nil
}

// Start subscribes to every event channel under the prefix.
func (e *RedisEmitter) Start() error {
	e.log.Info("Starting Redis event emitter")

	e.pubsub = e.client.PSubscribe(e.ctx, e.prefix+"*")

	e.wg.Add(1)
	go e.process()

	return nil
}

// Stop closes the subscription and the client.
func (e *RedisEmitter) Stop() error {
	e.log.Info("Stopping Redis event emitter")

	e.cancel()
	if e.pubsub != nil {
		e.pubsub.Close()
	}
	e.wg.Wait()
	e.client.Close()

	e.log.Info("Redis event emitter stopped")
	return nil
}

// Subscribe registers a handler for t.
func (e *RedisEmitter) Subscribe(t Type, handler Handler) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.handlers[t] = append(e.handlers[t], handler)
	e.log.Debug("Subscribed handler", zap.String("event", string(t)))
}

// Unsubscribe removes all handlers for t.
func (e *RedisEmitter) Unsubscribe(t Type) {
	e.mu.Lock()
	defer e.mu.Unlock()

	delete(e.handlers, t)
}

// Emit publishes ev on "<prefix><type>".
func (e *RedisEmitter) Emit(ctx context.Context, ev *Event) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshaling event: %w", err)
	}

	if err := e.client.Publish(ctx, e.channel(ev.Type), data).Err(); err != nil {
		return fmt.Errorf("publishing to Redis: %w", err)
	}

	e.incr(&e.emitted)
	return nil
}

func (e *RedisEmitter) channel(t Type) string {
	return e.prefix + string(t)
}

func (e *RedisEmitter) process() {
	defer e.wg.Done()

	ch := e.pubsub.Channel()
	for {
		select {
		case msg, ok := <-ch:
			if !ok {
				return
			}
			e.handleMessage(msg)
		case <-e.ctx.Done():
			return
		}
	}
}

func (e *RedisEmitter) handleMessage(msg *redis.Message) {
	if !strings.HasPrefix(msg.Channel, e.prefix) {
		e.log.Warn("Unknown channel format", zap.String("channel", msg.Channel))
		return
	}

	var ev Event
	if err := json.Unmarshal([]byte(msg.Payload), &ev); err != nil {
		e.log.Error("Failed to unmarshal event", zap.Error(err))
		e.incr(&e.errors)
		return
	}
	if ev.Type == "" {
		ev.Type = Type(strings.TrimPrefix(msg.Channel, e.prefix))
	}

	e.mu.RLock()
	handlers := e.handlers[ev.Type]
	e.mu.RUnlock()

	for _, handler := range handlers {
		if err := handler(e.ctx, &ev); err != nil {
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
func (e *RedisEmitter) GetMetrics() map[string]uint64 {
	e.metricsLock.RLock()
	defer e.metricsLock.RUnlock()

	return map[string]uint64{
		"emitted":   e.emitted,
		"delivered": e.delivered,
		"errors":    e.errors,
	}
}

func (e *RedisEmitter) incr(counter *uint64) {
	e.metricsLock.Lock()
	*counter++
	e.metricsLock.Unlock()
}
