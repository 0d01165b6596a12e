// Package state persists small pieces of bot state, such as the last
// processed update ID, across restarts.
package state

import (
	"context"
	"encoding/json"
	"fmt"
)

// KV is the interface for key-value storage backends. Values are stored
// as JSON.
type KV interface {
	// Get decodes the value at key into dst.
	Get(ctx context.Context, key string, dst any) (bool, error)

	// GetInt retrieves an integer value.
	GetInt(ctx context.Context, key string) (int, bool, error)

	// Set stores a value.
	Set(ctx context.Context, key string, value any) error

	// Delete removes a value.
	Delete(ctx context.Context, key string) error

	// Keys returns all keys in the store.
	Keys(ctx context.Context) ([]string, error)

	// Close releases the store.
	Close() error
}

// BackendType represents the storage backend type.
type BackendType string

const (
	BackendFile   BackendType = "file"
	BackendMemory BackendType = "memory"
	BackendRedis  BackendType = "redis"
)

// Config configures the state store.
type Config struct {
	Backend BackendType

	// File backend config
	FilePath string

	// Redis backend config
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	RedisPrefix   string
}

func encode(value any) ([]byte, error) {
	data, err := json.Marshal(value)
	if err != nil {
		return nil, fmt.Errorf("marshaling value: %w", err)
	}
	return data, nil
}

func decode(raw []byte, dst any) error {
	if err := json.Unmarshal(raw, dst); err != nil {
		return fmt.Errorf("unmarshaling value: %w", err)
	}
	return nil
}

func decodeInt(raw []byte) (int, error) {
	var n int
	if err := decode(raw, &n); err != nil {
		return 0, err
	}
	return n, nil
}
