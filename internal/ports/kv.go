package ports

import (
	"context"
	"time"
)

// KVStore is the durable key/value collaborator with per-key expiry.
// Each write path owns a disjoint key namespace, so no transactions are
// required beyond single-key atomicity.
type KVStore interface {
	// Get returns the value for key, or found=false if absent or expired.
	Get(ctx context.Context, key string) (value []byte, found bool, err error)

	// Set stores value under key with the given TTL. ttl <= 0 means no expiry.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// ScanPrefix returns all live key/value pairs whose key starts with
	// prefix, in key order.
	ScanPrefix(ctx context.Context, prefix string) (map[string][]byte, error)

	// Delete removes key. Deleting an absent key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases the underlying store.
	Close() error
}
