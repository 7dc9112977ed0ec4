package cache

import (
	"context"
	"time"
)

// Cache defines the unified interface for cache operations.
// This abstraction allows switching between different cache implementations
// (Redis, local memory) without changing business logic.
type Cache interface {
	// Get retrieves the value for the given key.
	// A missing key returns an empty string and no error.
	Get(ctx context.Context, key string) (string, error)

	// Set stores a key-value pair with optional TTL
	// If ttl is 0, the key will not expire
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error

	// Del deletes one or more keys
	Del(ctx context.Context, keys ...string) error

	// MGet retrieves values for multiple keys in one round trip.
	// Missing keys yield empty strings at their positions.
	MGet(ctx context.Context, keys ...string) ([]string, error)

	// Ping verifies the cache connection is alive
	Ping(ctx context.Context) error

	// Close closes the cache connection
	Close() error
}
