// Package cache is the volatile snippet tier backed by Redis.
//
// Every read comes back as a tagged result rather than a nil-check
// convention: a miss and an unavailable cache are different outcomes, and
// the resolution cascade treats degradation as a reason to move on, never
// as a request failure.
package cache

import (
	"context"
	"time"
)

// GetResult is the outcome of one cache read.
type GetResult struct {
	Value string
	// Hit is true when the key was present.
	Hit bool
	// Degraded is true when the cache could not be consulted at all.
	// Mutually exclusive with Hit.
	Degraded bool
}

// Cache is the volatile tier consumed by the snippet cascade.
type Cache interface {
	Get(ctx context.Context, key string) GetResult
	// Set stores value under key with the given expiry. A Set failure is
	// non-fatal everywhere it is called; the durable store stays the
	// source of truth.
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	Healthy(ctx context.Context) bool
	Close() error
}

// Unavailable is the typed stand-in used when no cache was configured or
// the connection could not be established at startup. Reads report
// Degraded, writes fail, and the cascade proceeds to the durable tiers.
type Unavailable struct{}

func (Unavailable) Get(context.Context, string) GetResult {
	return GetResult{Degraded: true}
}

func (Unavailable) Set(context.Context, string, string, time.Duration) error {
	return ErrUnavailable
}

func (Unavailable) Healthy(context.Context) bool { return false }

func (Unavailable) Close() error { return nil }
