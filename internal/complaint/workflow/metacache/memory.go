package metacache

import (
	"context"
	"sync"

	"grievance/internal/complaint/ports"
	"grievance/pkg/platform/sentinel"
)

// Memory is the in-process cache used when Redis is not configured. Safe for
// concurrent reads; entries are written at most once per key in practice.
type Memory struct {
	mu      sync.RWMutex
	entries map[string]ports.BusinessServiceMeta
}

// NewMemory constructs an empty in-memory cache.
func NewMemory() *Memory {
	return &Memory{entries: make(map[string]ports.BusinessServiceMeta)}
}

func (m *Memory) Get(ctx context.Context, key string) (*ports.BusinessServiceMeta, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	meta, ok := m.entries[key]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return &meta, nil
}

func (m *Memory) Set(ctx context.Context, key string, meta *ports.BusinessServiceMeta) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[key] = *meta
	return nil
}
