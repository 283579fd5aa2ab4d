// Package workspace stages per-request copies of the template Gleam project.
//
// Every pipeline invocation gets its own temp directory holding a full copy
// of the template, never shared with another request, and removed on every
// exit path once the owning request ends.
package workspace

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog/log"
)

// ErrStaging marks workspace setup failures: the template could not be
// copied, or the expected project directory was absent after the copy.
// This is an environment fault and maps to a 5xx response, never to a
// user-facing compile error.
var ErrStaging = errors.New("workspace staging failed")

// Manager creates workspaces from a fixed template project directory.
type Manager struct {
	templateDir string
	projectName string
}

// NewManager returns a manager that stages copies of the project named
// projectName found under templateDir.
func NewManager(templateDir, projectName string) *Manager {
	return &Manager{templateDir: templateDir, projectName: projectName}
}

// Workspace is one ephemeral, exclusively-owned staging directory.
type Workspace struct {
	// Root is the temp directory containing the project copy.
	Root        string
	projectName string
	released    bool
}

// Acquire creates a fresh workspace seeded with a full copy of the
// template project. Callers must Release it exactly once.
func (m *Manager) Acquire() (*Workspace, error) {
	root, err := os.MkdirTemp("", "playground-*")
	if err != nil {
		return nil, fmt.Errorf("%w: creating temp dir: %w", ErrStaging, err)
	}

	ws := &Workspace{Root: root, projectName: m.projectName}

	src := filepath.Join(m.templateDir, m.projectName)
	dst := ws.ProjectDir()
	if err := os.CopyFS(dst, os.DirFS(src)); err != nil {
		ws.Release()
		return nil, fmt.Errorf("%w: copying template %s: %w", ErrStaging, src, err)
	}

	// Mirror the original setup check: a copy that reports success but
	// leaves no project directory behind is still a staging failure.
	if _, err := os.Stat(dst); err != nil {
		ws.Release()
		return nil, fmt.Errorf("%w: project dir missing after copy: %w", ErrStaging, err)
	}

	return ws, nil
}

// ProjectDir returns the absolute path of the staged project copy.
func (w *Workspace) ProjectDir() string {
	return filepath.Join(w.Root, w.projectName)
}

// Inject writes content to relPath inside the staged project, overwriting
// the template placeholder.
func (w *Workspace) Inject(relPath, content string) error {
	path := filepath.Join(w.ProjectDir(), relPath)
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		return fmt.Errorf("%w: injecting source at %s: %w", ErrStaging, relPath, err)
	}
	return nil
}

// ReadFile returns the current contents of relPath inside the staged
// project. The format stage uses it to read back rewritten source.
func (w *Workspace) ReadFile(relPath string) (string, error) {
	data, err := os.ReadFile(filepath.Join(w.ProjectDir(), relPath)) // #nosec G304 -- relPath is a fixed config value, not request input
	if err != nil {
		return "", fmt.Errorf("reading %s: %w", relPath, err)
	}
	return string(data), nil
}

// Release removes the workspace and all contents. Safe to call once per
// Acquire; it fires on every pipeline exit path.
func (w *Workspace) Release() {
	if w.released {
		return
	}
	w.released = true
	if err := os.RemoveAll(w.Root); err != nil {
		log.Error().Err(err).Str("root", w.Root).Msg("workspace cleanup failed")
	}
}
