package config

import (
	"fmt"
	"sync"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"telegrambot/pkg/logger"
)

// ChangeHandler is called with the new configuration after a reload.
type ChangeHandler func(*Config) error

// Watcher monitors the configuration file and reloads it on change.
type Watcher struct {
	loader   *Loader
	config   *Config
	log      *logger.Logger
	handlers []ChangeHandler
	mu       sync.RWMutex
	watching bool
}

// NewWatcher creates a new configuration watcher.
func NewWatcher(loader *Loader, config *Config, log *logger.Logger) *Watcher {
	if log == nil {
		log = logger.NewNop()
	}
	return &Watcher{
		loader: loader,
		config: config,
		log:    log,
	}
}

// AddHandler registers a handler to be called when configuration changes.
func (w *Watcher) AddHandler(handler ChangeHandler) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.handlers = append(w.handlers, handler)
}

// Start begins watching the configuration file for changes.
func (w *Watcher) Start() error {
	w.mu.Lock()
	if w.watching {
		w.mu.Unlock()
		return fmt.Errorf("watcher already started")
	}
	w.watching = true
	w.mu.Unlock()

	if w.loader.GetConfigPath() == "" {
		w.log.Debug("No config file in use, not watching")
		return nil
	}

	w.loader.viper.OnConfigChange(func(e fsnotify.Event) {
		if !e.Has(fsnotify.Write) && !e.Has(fsnotify.Create) {
			return
		}
		w.Reload()
	})
	w.loader.viper.WatchConfig()

	return nil
}

// Reload reads the configuration again and notifies handlers. Invalid
// configurations are logged and ignored.
func (w *Watcher) Reload() {
	w.mu.RLock()
	watching := w.watching
	w.mu.RUnlock()
	if !watching {
		return
	}

	newConfig, err := w.loader.Load("")
	if err != nil {
		w.log.Error("Error reloading config", zap.Error(err))
		return
	}
	if err := ValidateConfig(newConfig); err != nil {
		w.log.Error("Reloaded config is invalid", zap.Error(err))
		return
	}

	w.mu.Lock()
	w.config = newConfig
	w.mu.Unlock()

	w.log.Info("Configuration reloaded", zap.String("path", w.loader.GetConfigPath()))
	w.notifyHandlers(newConfig)
}

// Stop stops delivering changes. Viper offers no way to remove its file
// watch, so events after Stop are dropped.
func (w *Watcher) Stop() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.watching = false
}

// GetConfig returns the current configuration.
func (w *Watcher) GetConfig() *Config {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.config
}

func (w *Watcher) notifyHandlers(config *Config) {
	w.mu.RLock()
	handlers := make([]ChangeHandler, len(w.handlers))
	copy(handlers, w.handlers)
	w.mu.RUnlock()

	for _, handler := range handlers {
		if err := handler(config); err != nil {
			w.log.Error("Error in config change handler", zap.Error(err))
		}
	}
}
