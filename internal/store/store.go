// Package store defines the key-value contract that backs refresh-token
// bindings, the access-token blacklist and the user directory, together
// with its Redis implementation and an in-memory variant used in tests.
package store

import (
	"context"
	"time"
)

// Store is the minimal key-value surface the core depends on. Keys are
// UTF-8 strings. A zero TTL means the entry never expires. No transactional
// guarantees are assumed across keys.
type Store interface {
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	// Get returns the value and true when the key exists.
	Get(ctx context.Context, key string) (string, bool, error)
	Del(ctx context.Context, key string) error
	// Scan returns all keys starting with the given prefix.
	Scan(ctx context.Context, prefix string) ([]string, error)
}
