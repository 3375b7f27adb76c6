package repository

import (
	"context"
	"strings"
	"time"
)

// StateStore abstracts ephemeral key-value state with TTL.
// Implementations: Redis (shared across instances) or in-memory (single instance).
// Get returns (nil, nil) for a missing or expired key.
type StateStore interface {
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Get(ctx context.Context, key string) ([]byte, error)
	Delete(ctx context.Context, key string) error
}

// StateKey joins key parts under the portal prefix, e.g. "zoolip:identity:<fp>".
func StateKey(parts ...string) string {
	return "zoolip:" + strings.Join(parts, ":")
}
