// Package snippet persists and resolves shared code snippets.
//
// Resolution is a strictly ordered, short-circuiting cascade:
// Redis cache, then Postgres, then a directory of shared files with
// embedded identifier headers. Cache trouble is never fatal; the durable
// store is the source of truth.
package snippet

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"gleam-playground/internal/cache"
	"gleam-playground/internal/monitor"
	"gleam-playground/internal/storage"
)

// ErrNotFound is returned once every tier has been exhausted.
var ErrNotFound = errors.New("snippet not found")

// Resolver owns the three-tier cascade and the write path.
type Resolver struct {
	cache    cache.Cache
	store    storage.SnippetStore
	fallback *FileFallback
	ttl      time.Duration
	metrics  *monitor.Metrics
	tracer   *monitor.Tracer
}

// NewResolver wires the cascade. ttl is the expiry applied to every
// cache entry this resolver writes.
func NewResolver(c cache.Cache, store storage.SnippetStore, fallback *FileFallback, ttl time.Duration, metrics *monitor.Metrics) *Resolver {
	return &Resolver{
		cache:    c,
		store:    store,
		fallback: fallback,
		ttl:      ttl,
		metrics:  metrics,
		tracer:   monitor.NewTracer(),
	}
}

// Resolve returns the code for id, consulting each tier in order and
// stopping at the first hit.
func (r *Resolver) Resolve(ctx context.Context, id string) (string, error) {
	ctx, span := r.tracer.StartSpan(ctx, "resolve", monitor.AttrSnippetID.String(id))
	defer span.End()

	if code, ok := r.fromCache(ctx, id); ok {
		span.SetAttributes(monitor.AttrTier.String("cache"))
		return code, nil
	}

	if code, ok := r.fromStore(ctx, id); ok {
		span.SetAttributes(monitor.AttrTier.String("database"))
		return code, nil
	}

	if code, ok := r.fromFiles(ctx, id); ok {
		span.SetAttributes(monitor.AttrTier.String("filesystem"))
		return code, nil
	}

	log.Debug().Str("snippet_id", id).Msg("snippet not found in any tier")
	return "", ErrNotFound
}

func (r *Resolver) fromCache(ctx context.Context, id string) (string, bool) {
	res := r.cache.Get(ctx, id)
	switch {
	case res.Degraded:
		r.metrics.RecordLookup("cache", "degraded")
		return "", false
	case !res.Hit:
		r.metrics.RecordLookup("cache", "miss")
		return "", false
	}

	var code string
	if err := json.Unmarshal([]byte(res.Value), &code); err != nil {
		// A corrupt entry behaves like a miss; the durable tiers will
		// answer and the entry ages out on its TTL.
		log.Warn().Err(err).Str("snippet_id", id).Msg("corrupt cache entry ignored")
		r.metrics.RecordLookup("cache", "degraded")
		return "", false
	}

	r.metrics.RecordLookup("cache", "hit")
	log.Debug().Str("snippet_id", id).Msg("snippet served from cache")
	return code, true
}

func (r *Resolver) fromStore(ctx context.Context, id string) (string, bool) {
	s, err := r.store.GetSnippet(ctx, id)
	switch {
	case err == nil:
		// Note the asymmetry inherited from the original design: a
		// database hit does not repopulate the cache; only filesystem
		// hits do.
		r.metrics.RecordLookup("database", "hit")
		log.Debug().Str("snippet_id", id).Msg("snippet served from database")
		return s.Code, true
	case errors.Is(err, storage.ErrNotFound):
		r.metrics.RecordLookup("database", "miss")
		return "", false
	default:
		// An unavailable store during a read only becomes "not found"
		// after the filesystem tier also comes up empty.
		log.Warn().Err(err).Str("snippet_id", id).Msg("database read degraded")
		r.metrics.RecordLookup("database", "degraded")
		return "", false
	}
}

func (r *Resolver) fromFiles(ctx context.Context, id string) (string, bool) {
	fs, err := r.fallback.Find(id)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			log.Warn().Err(err).Str("snippet_id", id).Msg("filesystem fallback degraded")
			r.metrics.RecordLookup("filesystem", "degraded")
			return "", false
		}
		r.metrics.RecordLookup("filesystem", "miss")
		return "", false
	}

	r.metrics.RecordLookup("filesystem", "hit")
	log.Debug().Str("snippet_id", id).Str("name", fs.Name).Msg("snippet served from filesystem")
	r.writeBack(ctx, id, fs.Body)
	return fs.Body, true
}

// Create persists code and returns the fresh identifier. The database
// write is fatal on failure; the cache write-through is best-effort.
func (r *Resolver) Create(ctx context.Context, code string) (string, error) {
	ctx, span := r.tracer.StartSpan(ctx, "create")
	defer span.End()

	s := &storage.Snippet{
		ID:   uuid.New().String(),
		Code: code,
	}
	if err := r.store.CreateSnippet(ctx, s); err != nil {
		return "", fmt.Errorf("persisting snippet: %w", err)
	}

	r.metrics.SnippetsCreated.Inc()
	log.Info().Str("snippet_id", s.ID).Msg("snippet created")

	r.writeBack(ctx, s.ID, code)
	return s.ID, nil
}

// writeBack caches code under id with the standard TTL. Never fatal.
func (r *Resolver) writeBack(ctx context.Context, id, code string) {
	value, err := json.Marshal(code)
	if err != nil {
		log.Warn().Err(err).Str("snippet_id", id).Msg("cache encode failed")
		r.metrics.CacheWriteErrors.Inc()
		return
	}
	if err := r.cache.Set(ctx, id, string(value), r.ttl); err != nil {
		log.Warn().Err(err).Str("snippet_id", id).Msg("cache write failed")
		r.metrics.CacheWriteErrors.Inc()
	}
}
