package store

import (
	"log/slog"
	"sync"
)

type memoryBackend struct {
	mu   sync.Mutex
	data map[string][]byte
}

// NewMemory returns a Store that keeps everything in memory.
func NewMemory(logger *slog.Logger) *Store {
	return newStore(&memoryBackend{data: map[string][]byte{}}, logger)
}

func (b *memoryBackend) get(key string) ([]byte, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	v, ok := b.data[key]
	if !ok {
		return nil, errMissing
	}
	return append([]byte(nil), v...), nil
}

func (b *memoryBackend) set(key string, value []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.data[key] = append([]byte(nil), value...)
	return nil
}

func (b *memoryBackend) delete(key string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.data, key)
	return nil
}

func (b *memoryBackend) close() error {
	return nil
}
