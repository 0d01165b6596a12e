package state

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sync"

	"go.uber.org/zap"

	"telegrambot/pkg/fileutil"
	"telegrambot/pkg/logger"
)

// FileStore is a MemoryStore written through to a JSON file on every change.
type FileStore struct {
	*MemoryStore

	log      *logger.Logger
	filePath string
	saveMu   sync.Mutex
}

// NewFileStore opens the store at path, loading existing state.
func NewFileStore(log *logger.Logger, path string) (*FileStore, error) {
	s := &FileStore{
		MemoryStore: NewMemoryStore(),
		log:         log,
		filePath:    path,
	}

	if err := s.load(); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("loading state: %w", err)
	}
	return s, nil
}

func (s *FileStore) load() error {
	data, err := os.ReadFile(s.filePath)
	if err != nil {
		return err
	}

	var values map[string]json.RawMessage
	if err := json.Unmarshal(data, &values); err != nil {
		return fmt.Errorf("unmarshaling state: %w", err)
	}

	s.mu.Lock()
	for k, v := range values {
		s.data[k] = []byte(v)
	}
	s.mu.Unlock()

	s.log.Debug("Loaded state", zap.String("file", s.filePath), zap.Int("keys", len(values)))
	return nil
}

// Set stores a value and saves the file.
func (s *FileStore) Set(ctx context.Context, key string, value any) error {
	if err := s.MemoryStore.Set(ctx, key, value); err != nil {
		return err
	}
	return s.save()
}

// Delete removes a value and saves the file.
func (s *FileStore) Delete(ctx context.Context, key string) error {
	if err := s.MemoryStore.Delete(ctx, key); err != nil {
		return err
	}
	return s.save()
}

// Close performs a final save.
func (s *FileStore) Close() error {
	return s.save()
}

func (s *FileStore) save() error {
	s.saveMu.Lock()
	defer s.saveMu.Unlock()

	values := make(map[string]json.RawMessage)
	for k, v := range s.snapshot() {
		values[k] = json.RawMessage(v)
	}
	if err := fileutil.WriteJSONAtomic(s.filePath, values, 0o644); err != nil {
		return fmt.Errorf("saving state: %w", err)
	}
	return nil
}
