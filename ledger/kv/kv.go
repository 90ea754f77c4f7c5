// Package kv is the key-value layer the ledger persists into. Values are
// opaque strings; every backend applies a Batch atomically.
package kv

import (
	"context"
	"sort"
	"sync"
)

// Batch is a set of writes applied together
type Batch struct {
	Set    map[string]string
	Delete []string
}

func (b *Batch) Put(key, value string) {
	if b.Set == nil {
		b.Set = make(map[string]string)
	}
	b.Set[key] = value
}

func (b *Batch) Remove(key string) {
	delete(b.Set, key)
	b.Delete = append(b.Delete, key)
}

// Merge copies the writes of o into b. Writes in o win.
func (b *Batch) Merge(o Batch) {
	for _, k := range o.Delete {
		b.Remove(k)
	}
	for k, v := range o.Set {
		b.Put(k, v)
	}
}

func (b Batch) Empty() bool {
	return len(b.Set) == 0 && len(b.Delete) == 0
}

// Reader is the read side of a Store
type Reader interface {
	// Get returns the value stored under key and whether it exists
	Get(ctx context.Context, key string) (string, bool, error)
	// Keys lists the stored keys in ascending order
	Keys(ctx context.Context) ([]string, error)
}

// Store is a durable key-value backend
type Store interface {
	Reader
	Apply(ctx context.Context, b Batch) error
	Clear(ctx context.Context) error
	Close() error
}

// Memory is a Store held in a map. Nothing survives the process.
type Memory struct {
	mu   sync.RWMutex
	data map[string]string
}

func NewMemory() *Memory {
	return &Memory{data: make(map[string]string)}
}

func (m *Memory) Get(_ context.Context, key string) (string, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.data[key]
	return v, ok, nil
}

func (m *Memory) Keys(_ context.Context) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return SortedKeys(m.data), nil
}

func (m *Memory) Apply(ctx context.Context, b Batch) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	ApplyTo(m.data, b)
	return nil
}

func (m *Memory) Clear(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data = make(map[string]string)
	return nil
}

func (m *Memory) Close() error { return nil }

// ApplyTo performs the deletes of b and then its sets on data
func ApplyTo(data map[string]string, b Batch) {
	for _, k := range b.Delete {
		delete(data, k)
	}
	for k, v := range b.Set {
		data[k] = v
	}
}

// SortedKeys returns the keys of data in ascending order
func SortedKeys(data map[string]string) []string {
	keys := make([]string, 0, len(data))
	for k := range data {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
