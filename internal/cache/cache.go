// Package cache defines the distributed cache tier used in front of
// expensive gateway reads: get / set-with-TTL / delete over string keys
// with JSON-serializable values. A miss and a backend failure are distinct
// conditions — callers route them differently.
package cache

import (
	"context"
	"errors"
	"time"
)

// ErrMiss reports that a key is absent or expired. It is NOT a backend
// failure; callers must distinguish the two with errors.Is.
var ErrMiss = errors.New("cache miss")

// KeyPrefix namespaces all keys written by this process, isolating multiple
// applications sharing one backend.
const KeyPrefix = "clawboard:"

// Store is the distributed cache contract.
type Store interface {
	// Get returns the raw JSON value for key, or ErrMiss.
	Get(ctx context.Context, key string) ([]byte, error)
	// Set writes value under key with the given TTL.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	// Delete removes key. Deleting an absent key is not an error.
	Delete(ctx context.Context, key string) error
}
