package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog/log"
)

// Secrets reads one value per file from a directory, the layout used by
// OpenFaaS and Docker/Kubernetes secret mounts.
type Secrets struct {
	dir string
}

// NewSecrets returns a provider rooted at dir. The directory does not
// have to exist; every lookup then behaves as unconfigured.
func NewSecrets(dir string) *Secrets {
	return &Secrets{dir: dir}
}

// Get reads the named secret. Missing files are an error.
func (s *Secrets) Get(name string) (string, error) {
	data, err := os.ReadFile(filepath.Join(s.dir, name)) // #nosec G304 -- dir is operator-controlled config
	if err != nil {
		return "", fmt.Errorf("reading secret %s: %w", name, err)
	}
	return strings.TrimSpace(string(data)), nil
}

// GetOptional reads the named secret, returning the empty string when
// the file does not exist.
func (s *Secrets) GetOptional(name string) string {
	value, err := s.Get(name)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			log.Warn().Err(err).Str("secret", name).Msg("secret unreadable, treating as unconfigured")
		}
		return ""
	}
	return value
}

// ApplySecrets overlays secret-file values onto the configuration.
// Every secret is optional; absent files leave the YAML value in place.
func (c *Config) ApplySecrets() {
	s := NewSecrets(c.Security.SecretsDir)

	if v := s.GetOptional("API_KEY"); v != "" {
		c.Security.APIKey = v
	}
	if v := s.GetOptional("VERSION"); v != "" {
		c.Version = v
	}
	if v := s.GetOptional("DATABASE_DSN"); v != "" {
		c.Database.DSN = v
	}
	if v := s.GetOptional("REDIS_PASSWORD"); v != "" {
		c.Cache.Password = v
	}
}
