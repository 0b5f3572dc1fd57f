// Package storage provides namespaced key/value storage: one namespace per
// browser device, mirroring how local storage is scoped to one origin.
package storage

import (
	"context"
	"errors"
)

// ErrInvalidKey is returned for empty keys.
var ErrInvalidKey = errors.New("storage key is required")

// Storage is the key/value surface the profile store persists through.
type Storage interface {
	// GetItem returns the value for key; ok is false when the key is absent.
	GetItem(ctx context.Context, key string) (value string, ok bool, err error)
	SetItem(ctx context.Context, key, value string) error
	RemoveItem(ctx context.Context, key string) error
	// Keys returns every key in the namespace in lexical order.
	Keys(ctx context.Context) ([]string, error)
	// Apply runs all operations atomically.
	Apply(ctx context.Context, ops ...Op) error
}

// Op is a single write in an Apply batch.
type Op struct {
	Key    string
	Value  string
	Remove bool
}

// Set builds a write operation.
func Set(key, value string) Op {
	return Op{Key: key, Value: value}
}

// Remove builds a delete operation.
func Remove(key string) Op {
	return Op{Key: key, Remove: true}
}

func validate(ops []Op) error {
	for _, op := range ops {
		if op.Key == "" {
			return ErrInvalidKey
		}
	}
	return nil
}
