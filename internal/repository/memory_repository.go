package repository

import (
	"context"
	"fmt"
	"sync"

	"github.com/nikolayk812/cartstore/internal/port"
)

type memoryRepository struct {
	mu      sync.RWMutex
	entries map[string]string
}

func NewMemory() port.SnapshotRepository {
	return &memoryRepository{entries: map[string]string{}}
}

func (r *memoryRepository) Get(_ context.Context, key string) (string, bool, error) {
	if key == "" {
		return "", false, fmt.Errorf("key is empty")
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	value, ok := r.entries[key]
	return value, ok, nil
}

func (r *memoryRepository) Set(_ context.Context, key string, value string) error {
	if key == "" {
		return fmt.Errorf("key is empty")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.entries[key] = value
	return nil
}
