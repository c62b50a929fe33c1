package embedding

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"sync"
)

// Store holds vectors keyed by Key(text). Implementations must be safe for
// concurrent use. Writing the same key twice stores the same vector.
type Store interface {
	Get(ctx context.Context, key string) ([]float32, bool, error)
	Set(ctx context.Context, key string, vec []float32) error
	Len(ctx context.Context) (int, error)
}

// Key returns the SHA-256 hex digest of text.
func Key(text string) string {
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])
}

// MemoryStore is an unbounded in-process Store.
type MemoryStore struct {
	mu   sync.RWMutex
	vecs map[string][]float32
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{vecs: make(map[string][]float32)}
}

func (m *MemoryStore) Get(_ context.Context, key string) ([]float32, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.vecs[key]
	return v, ok, nil
}

func (m *MemoryStore) Set(_ context.Context, key string, vec []float32) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.vecs[key] = vec
	return nil
}

func (m *MemoryStore) Len(context.Context) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.vecs), nil
}
