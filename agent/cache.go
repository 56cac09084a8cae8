package agent

import (
	"context"
	"sync"
)

// Cache is the key/value backend sessions are persisted in. Set must
// replace the whole value in one step.
type Cache[S any] interface {
	Set(ctx context.Context, key string, val S) error
	Get(ctx context.Context, key string) (S, bool, error)
	Del(ctx context.Context, key string) error
	Exists(ctx context.Context, key string) (bool, error)
}

// MemoryCache keeps values in process memory. Byte slices are copied on the
// way in and out so callers never share buffers.
type MemoryCache[S any] struct {
	mu sync.RWMutex
	m  map[string]S
}

func NewMemoryCache[S any]() *MemoryCache[S] {
	return &MemoryCache[S]{m: map[string]S{}}
}

func (m *MemoryCache[S]) Set(ctx context.Context, key string, val S) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	m.m[key] = cloneValue(val)
	m.mu.Unlock()
	return nil
}

func (m *MemoryCache[S]) Get(ctx context.Context, key string) (S, bool, error) {
	var zero S
	if err := ctx.Err(); err != nil {
		return zero, false, err
	}
	m.mu.RLock()
	val, ok := m.m[key]
	m.mu.RUnlock()
	if !ok {
		return zero, false, nil
	}
	return cloneValue(val), true, nil
}

func (m *MemoryCache[S]) Del(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	delete(m.m, key)
	m.mu.Unlock()
	return nil
}

func (m *MemoryCache[S]) Exists(ctx context.Context, key string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	m.mu.RLock()
	_, ok := m.m[key]
	m.mu.RUnlock()
	return ok, nil
}

func cloneValue[S any](val S) S {
	if b, ok := any(val).([]byte); ok {
		out := make([]byte, len(b))
		copy(out, b)
		return any(out).(S)
	}
	return val
}
