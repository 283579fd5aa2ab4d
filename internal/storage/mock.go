package storage

import (
	"context"
	"errors"
	"sync"
)

// Mock is an in-memory SnippetStore for tests.
type Mock struct {
	mu       sync.Mutex
	snippets map[string]*Snippet

	// FailWrites makes CreateSnippet fail, simulating an unavailable
	// database during the write path.
	FailWrites bool
	// FailReads makes GetSnippet fail with a non-NotFound error.
	FailReads bool
}

func NewMock() *Mock {
	return &Mock{snippets: make(map[string]*Snippet)}
}

func (m *Mock) CreateSnippet(_ context.Context, s *Snippet) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailWrites {
		return errors.New("database unavailable")
	}
	cp := *s
	m.snippets[s.ID] = &cp
	return nil
}

func (m *Mock) GetSnippet(_ context.Context, id string) (*Snippet, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailReads {
		return nil, errors.New("database unavailable")
	}
	s, ok := m.snippets[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *s
	return &cp, nil
}

func (m *Mock) Healthy(context.Context) bool { return !m.FailReads }

func (m *Mock) Close() {}
