// file: storage/memory.go
package storage

import (
	"context"
	"sort"
	"strings"
	"sync"
)

// MemoryStore keeps everything in a map. Used by tests and STORAGE_DRIVER=memory.
type MemoryStore struct {
	mu     sync.RWMutex
	data   map[string]string
	closed bool
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: make(map[string]string)}
}

// View runs fn under a read lock.
func (s *MemoryStore) View(ctx context.Context, fn func(tx Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return ErrClosed
	}
	return fn(&memTx{store: s, readOnly: true})
}

// Update runs fn under the write lock and applies its writes if it succeeds.
func (s *MemoryStore) Update(ctx context.Context, fn func(tx Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}

	tx := &memTx{store: s, pending: make(map[string]*string)}
	if err := fn(tx); err != nil {
		return err
	}
	for k, v := range tx.pending {
		if v == nil {
			delete(s.data, k)
		} else {
			s.data[k] = *v
		}
	}
	return nil
}

// Close marks the store closed.
func (s *MemoryStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

// memTx buffers writes in pending; a nil entry is a delete.
type memTx struct {
	store    *MemoryStore
	readOnly bool
	pending  map[string]*string
}

func (tx *memTx) Get(key string) (string, bool, error) {
	if v, ok := tx.pending[key]; ok {
		if v == nil {
			return "", false, nil
		}
		return *v, true, nil
	}
	v, ok := tx.store.data[key]
	return v, ok, nil
}

func (tx *memTx) Set(key, value string) error {
	if tx.readOnly {
		return ErrReadOnly
	}
	tx.pending[key] = &value
	return nil
}

func (tx *memTx) Remove(key string) error {
	if tx.readOnly {
		return ErrReadOnly
	}
	tx.pending[key] = nil
	return nil
}

func (tx *memTx) Keys(prefix string) ([]string, error) {
	seen := make(map[string]bool)
	for k := range tx.store.data {
		if strings.HasPrefix(k, prefix) {
			seen[k] = true
		}
	}
	for k, v := range tx.pending {
		if !strings.HasPrefix(k, prefix) {
			continue
		}
		seen[k] = v != nil
	}

	keys := make([]string, 0, len(seen))
	for k, present := range seen {
		if present {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return keys, nil
}
