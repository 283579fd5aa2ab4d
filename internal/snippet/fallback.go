package snippet

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog/log"
)

// FileFallback is the last resolution tier: a fixed directory of shared
// .gleam files carrying identifier headers.
type FileFallback struct {
	dir string
}

func NewFileFallback(dir string) *FileFallback {
	return &FileFallback{dir: dir}
}

// Find scans the snippet directory for the first file whose uuid tag
// matches id. Files that fail to parse are skipped, not fatal: one
// malformed file must not shadow the rest of the directory.
func (f *FileFallback) Find(id string) (*FileSnippet, error) {
	entries, err := os.ReadDir(f.dir)
	if err != nil {
		return nil, fmt.Errorf("scanning snippet dir %s: %w", f.dir, err)
	}

	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".gleam" {
			continue
		}

		path := filepath.Join(f.dir, entry.Name())
		fs, err := f.parseOne(path)
		if err != nil {
			if !errors.Is(err, ErrNoHeader) {
				log.Warn().Err(err).Str("file", path).Msg("skipping unreadable snippet file")
			}
			continue
		}
		if fs.UUID == id {
			return fs, nil
		}
	}

	return nil, ErrNotFound
}

func (f *FileFallback) parseOne(path string) (*FileSnippet, error) {
	file, err := os.Open(path) // #nosec G304 -- path is an entry of the configured snippet dir
	if err != nil {
		return nil, err
	}
	defer file.Close()
	return ParseFile(file)
}
