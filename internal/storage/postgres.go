// Package storage is the durable snippet tier backed by PostgreSQL.
package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"
)

// ErrNotFound is returned when no snippet row matches the requested ID.
var ErrNotFound = errors.New("snippet not found")

// SnippetStore is the durable tier consumed by the resolution cascade.
type SnippetStore interface {
	CreateSnippet(ctx context.Context, s *Snippet) error
	GetSnippet(ctx context.Context, id string) (*Snippet, error)
	Healthy(ctx context.Context) bool
	Close()
}

// DB wraps a PostgreSQL connection pool.
type DB struct {
	pool *pgxpool.Pool
}

// New creates a new database connection pool and verifies connectivity.
func New(ctx context.Context, dsn string) (*DB, error) {
	config, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parsing database DSN: %w", err)
	}

	config.MaxConns = 25
	config.MinConns = 2
	config.MaxConnLifetime = 5 * time.Minute
	config.MaxConnIdleTime = 1 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("connecting to database: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	log.Info().Msg("connected to PostgreSQL")
	return &DB{pool: pool}, nil
}

// EnsureSchema creates the snippet table when it does not exist yet.
func (db *DB) EnsureSchema(ctx context.Context) error {
	_, err := db.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS snippet (
			snippet_id TEXT PRIMARY KEY,
			code       TEXT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`)
	if err != nil {
		return fmt.Errorf("ensuring snippet schema: %w", err)
	}
	return nil
}

// Close shuts down the connection pool.
func (db *DB) Close() {
	db.pool.Close()
}

// Healthy checks database connectivity.
func (db *DB) Healthy(ctx context.Context) bool {
	return db.pool.Ping(ctx) == nil
}

// CreateSnippet inserts one snippet row. The single-row insert relies on
// Postgres atomicity; there is no cross-tier transaction with the cache.
func (db *DB) CreateSnippet(ctx context.Context, s *Snippet) error {
	if s.CreatedAt.IsZero() {
		s.CreatedAt = time.Now()
	}

	_, err := db.pool.Exec(ctx,
		`INSERT INTO snippet (snippet_id, code, created_at) VALUES ($1, $2, $3)`,
		s.ID, s.Code, s.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("inserting snippet %s: %w", s.ID, err)
	}
	return nil
}

// GetSnippet retrieves a single snippet by ID.
func (db *DB) GetSnippet(ctx context.Context, id string) (*Snippet, error) {
	var s Snippet
	err := db.pool.QueryRow(ctx,
		`SELECT snippet_id, code, created_at FROM snippet WHERE snippet_id = $1`,
		id,
	).Scan(&s.ID, &s.Code, &s.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying snippet %s: %w", id, err)
	}
	return &s, nil
}
