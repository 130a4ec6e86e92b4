// Package cache stores pipeline results between runs.
//
// A run is keyed by a hash of every input file and the options that affect
// the result, so an unchanged project rebuilds from the cache without
// reloading or re-merging anything. Three backends implement [Cache]:
// [FileCache] for local CLI use, [RedisCache] for a shared cache behind
// `beetree serve`, and [NullCache] when caching is disabled.
package cache

import (
	"context"
	"time"
)

// Cache is a byte-oriented key/value store with optional expiry.
type Cache interface {
	// Get returns the value for key. The boolean is false on a miss.
	Get(ctx context.Context, key string) ([]byte, bool, error)
	// Set stores data under key. A ttl of zero means no expiry.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error
	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
	// Close releases backend resources.
	Close() error
}

// Clearer is implemented by caches that can drop all of their entries.
type Clearer interface {
	// Clear removes every entry and returns how many were removed.
	Clear(ctx context.Context) (int, error)
}

// Backend names accepted by Open.
const (
	BackendFile  = "file"
	BackendRedis = "redis"
	BackendNone  = "none"
)

// Options selects and configures a backend for Open.
type Options struct {
	Backend   string
	Dir       string // file backend
	RedisAddr string // redis backend
	Prefix    string // redis key prefix; defaults to "beetree:"
}

// Open creates the cache described by opts.
func Open(ctx context.Context, opts Options) (Cache, error) {
	switch opts.Backend {
	case BackendNone, "":
		return NewNullCache(), nil
	case BackendFile:
		c, err := NewFileCache(opts.Dir)
		if err != nil {
			return nil, err
		}
		return c, nil
	case BackendRedis:
		c, err := NewRedisCache(ctx, opts.RedisAddr, opts.Prefix)
		if err != nil {
			return nil, err
		}
		return c, nil
	default:
		return nil, ErrUnknownBackend
	}
}
