// Package blob defines the key-value blob store the expense log is persisted
// to. A store holds opaque byte values under string keys and overwrites on
// every Set.
package blob

import (
	"context"
	"errors"
	"strings"
)

var (
	// ErrInvalidKey is returned for empty keys or keys a backend cannot hold.
	ErrInvalidKey = errors.New("invalid blob key")
	// ErrUnreadable marks a value that exists but cannot be decoded by a
	// decorating store, e.g. a tampered or wrongly keyed sealed blob.
	ErrUnreadable = errors.New("blob unreadable")
)

// Store is a string-keyed byte blob store.
type Store interface {
	// Get returns the value under key. ok is false when nothing is stored.
	Get(ctx context.Context, key string) (value []byte, ok bool, err error)
	// Set overwrites the value under key.
	Set(ctx context.Context, key string, value []byte) error
	// Delete removes key. Deleting an absent key is not an error.
	Delete(ctx context.Context, key string) error
}

// ValidateKey rejects empty keys and keys containing path separators.
func ValidateKey(key string) error {
	if strings.TrimSpace(key) == "" || strings.ContainsAny(key, `/\`) || key == "." || key == ".." {
		return ErrInvalidKey
	}
	return nil
}
