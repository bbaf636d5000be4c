package store

import (
	"context"
	"sync"
)

type memoryBackend struct {
	mu   sync.Mutex
	data []byte
}

// NewMemoryBackend creates a Backend that holds the serialized mapping in
// memory. Used by tests to substitute the durable layer.
func NewMemoryBackend() Backend {
	return &memoryBackend{}
}

func (b *memoryBackend) Load(_ context.Context) ([]byte, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.data == nil {
		return nil, nil
	}
	copied := make([]byte, len(b.data))
	copy(copied, b.data)
	return copied, nil
}

func (b *memoryBackend) Save(_ context.Context, data []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.data = make([]byte, len(data))
	copy(b.data, data)
	return nil
}
