package storage

import (
	"context"
	"errors"
)

// ErrUnavailable is returned by the Unavailable stand-in for every
// operation.
var ErrUnavailable = errors.New("database not configured")

// Unavailable satisfies SnippetStore when no DSN is configured. Reads
// and writes fail uniformly so the snippet cascade can degrade past
// the database tier.
type Unavailable struct{}

func (Unavailable) CreateSnippet(ctx context.Context, s *Snippet) error {
	return ErrUnavailable
}

func (Unavailable) GetSnippet(ctx context.Context, id string) (*Snippet, error) {
	return nil, ErrUnavailable
}

func (Unavailable) Healthy(ctx context.Context) bool { return false }

func (Unavailable) Close() {}
