// Package storage is the local key-value store: string keys, JSON text values,
// and multi-key transactions so related collections are written together.
// file: storage/store.go
package storage

import (
	"context"
	"errors"
	"fmt"
)

var (
	// ErrClosed is returned by every operation on a closed store.
	ErrClosed = errors.New("storage: store is closed")
	// ErrReadOnly is returned when a View transaction tries to write.
	ErrReadOnly = errors.New("storage: write in read-only transaction")
)

// Tx is one transaction's view of the store.
type Tx interface {
	// Get returns the value under key; ok is false when the key is absent.
	Get(key string) (value string, ok bool, err error)
	Set(key, value string) error
	Remove(key string) error
	// Keys lists the keys starting with prefix, sorted.
	Keys(prefix string) ([]string, error)
}

// Store runs transactions. Update transactions are serialized: a
// read-modify-write inside one can not lose a concurrent writer's change.
// Writes made by fn are applied only if fn returns nil.
type Store interface {
	View(ctx context.Context, fn func(tx Tx) error) error
	Update(ctx context.Context, fn func(tx Tx) error) error
	Close() error
}

// Open returns the backend named by driver: "bolt", "sqlite" or "memory".
// path is ignored by the memory backend.
func Open(driver, path string) (Store, error) {
	switch driver {
	case "bolt":
		return OpenBolt(path)
	case "sqlite":
		return OpenSQLite(path)
	case "memory":
		return NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("storage: unknown driver %q", driver)
	}
}
