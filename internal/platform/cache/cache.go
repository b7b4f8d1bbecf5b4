// Package cache provides the lookup cache used by the WHOIS resolver.
// Two backends exist: an in-process LRU with TTL and a shared Redis store.
package cache

import (
	"context"
	"strings"
	"time"

	"domowner/internal/platform/errors"
)

// Store is a string-valued cache keyed by string.
type Store interface {
	// Get returns the cached value and true on a hit.
	// A miss is not an error.
	Get(ctx context.Context, key string) (string, bool, error)

	// Set stores value under key. A ttl of 0 means no expiry.
	Set(ctx context.Context, key, value string, ttl time.Duration) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases backend resources.
	Close() error
}

// Backend names accepted by New.
const (
	BackendMemory = "memory"
	BackendRedis  = "redis"
	BackendNone   = "none"
)

// Options selects and configures a backend.
type Options struct {
	Backend   string
	Capacity  int
	RedisURL  string
	KeyPrefix string
}

// New builds the Store named by opts.Backend. BackendNone returns a
// store that never hits.
func New(ctx context.Context, opts Options) (Store, error) {
	switch strings.ToLower(strings.TrimSpace(opts.Backend)) {
	case "", BackendMemory:
		return NewMemoryCache(opts.Capacity), nil
	case BackendRedis:
		return NewRedisStoreFromURL(ctx, opts.RedisURL, opts.KeyPrefix)
	case BackendNone:
		return Noop{}, nil
	default:
		return nil, errors.Wrapf(errors.ErrInvalidInput, "unknown cache backend %q", opts.Backend)
	}
}

// Noop never stores anything.
type Noop struct{}

func (Noop) Get(context.Context, string) (string, bool, error)        { return "", false, nil }
func (Noop) Set(context.Context, string, string, time.Duration) error { return nil }
func (Noop) Delete(context.Context, string) error                     { return nil }
func (Noop) Close() error                                             { return nil }
