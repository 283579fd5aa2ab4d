package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"
)

// Config holds all application configuration.
type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Playground PlaygroundConfig `yaml:"playground"`
	Database   DatabaseConfig   `yaml:"database"`
	Cache      CacheConfig      `yaml:"cache"`
	Snippets   SnippetConfig    `yaml:"snippets"`
	Metrics    MetricsConfig    `yaml:"metrics"`
	Security   SecurityConfig   `yaml:"security"`
	TLS        TLSConfig        `yaml:"tls"`

	// Version is the string served by GET /version. Overridable via the
	// VERSION secret file.
	Version string `yaml:"version"`
}

type ServerConfig struct {
	Host            string        `yaml:"host"`
	Port            int           `yaml:"port"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	MaxRequestBody  int64         `yaml:"max_request_body_bytes"`
}

// PlaygroundConfig describes the template project and the per-stage
// subprocess deadlines.
type PlaygroundConfig struct {
	TemplateDir    string        `yaml:"template_dir"`
	ProjectName    string        `yaml:"project_name"`
	SourceFile     string        `yaml:"source_file"`
	CompileTimeout time.Duration `yaml:"compile_timeout"`
	RunTimeout     time.Duration `yaml:"run_timeout"`
	FormatTimeout  time.Duration `yaml:"format_timeout"`
}

type DatabaseConfig struct {
	DSN             string        `yaml:"dsn"`
	MaxOpenConns    int           `yaml:"max_open_conns"`
	MaxIdleConns    int           `yaml:"max_idle_conns"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime"`
}

// CacheConfig controls the Redis snippet tier. An empty Addr disables
// the tier; the cascade degrades to database and filesystem.
type CacheConfig struct {
	Addr     string        `yaml:"addr"`
	Password string        `yaml:"password"`
	DB       int           `yaml:"db"`
	TTL      time.Duration `yaml:"ttl"`
}

// SnippetConfig controls the filesystem fallback tier.
type SnippetConfig struct {
	Dir string `yaml:"dir"`
}

type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

// SecurityConfig holds the shared-secret check. An empty APIKey skips
// the check entirely.
type SecurityConfig struct {
	APIKeyHeader string `yaml:"api_key_header"`
	APIKey       string `yaml:"api_key"`
	SecretsDir   string `yaml:"secrets_dir"`
}

// TLSConfig controls HTTPS/TLS termination.
type TLSConfig struct {
	Enabled  bool   `yaml:"enabled"`
	CertFile string `yaml:"cert_file"`
	KeyFile  string `yaml:"key_file"`
}

// Load reads configuration from a YAML file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(filepath.Clean(path)) // #nosec G304 -- path comes from CLI flag or hardcoded default
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// DefaultConfig returns sensible defaults for all configuration.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            8080,
			ReadTimeout:     30 * time.Second,
			WriteTimeout:    65 * time.Second, // > compile + run + format deadlines with overhead
			ShutdownTimeout: 30 * time.Second,
			MaxRequestBody:  250_000,
		},
		Playground: PlaygroundConfig{
			TemplateDir:    ".",
			ProjectName:    "gleam_project",
			SourceFile:     "src/gleam_project.gleam",
			CompileTimeout: 30 * time.Second,
			RunTimeout:     10 * time.Second,
			FormatTimeout:  10 * time.Second,
		},
		Database: DatabaseConfig{
			DSN:             "",
			MaxOpenConns:    25,
			MaxIdleConns:    5,
			ConnMaxLifetime: 5 * time.Minute,
		},
		Cache: CacheConfig{
			Addr: "",
			TTL:  8600 * time.Second,
		},
		Snippets: SnippetConfig{
			Dir: "./gleam_snippets",
		},
		Metrics: MetricsConfig{
			Enabled: true,
			Path:    "/metrics",
		},
		Security: SecurityConfig{
			APIKeyHeader: "X-Api-Key",
			SecretsDir:   "/var/openfaas/secrets",
		},
		TLS: TLSConfig{
			Enabled: false,
		},
		Version: "dev",
	}
}

// Validate checks that the configuration is valid.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be 1-65535, got %d", c.Server.Port)
	}
	if c.Server.MaxRequestBody < 1 {
		return fmt.Errorf("server.max_request_body_bytes must be >= 1")
	}
	if c.Playground.ProjectName == "" {
		return fmt.Errorf("playground.project_name must not be empty")
	}
	if c.Playground.SourceFile == "" {
		return fmt.Errorf("playground.source_file must not be empty")
	}
	if filepath.IsAbs(c.Playground.SourceFile) {
		return fmt.Errorf("playground.source_file must be relative to the project dir")
	}
	for name, d := range map[string]time.Duration{
		"compile_timeout": c.Playground.CompileTimeout,
		"run_timeout":     c.Playground.RunTimeout,
		"format_timeout":  c.Playground.FormatTimeout,
	} {
		if d < 0 {
			return fmt.Errorf("playground.%s must not be negative", name)
		}
	}
	if c.Cache.TTL < time.Second {
		return fmt.Errorf("cache.ttl must be >= 1s, got %s", c.Cache.TTL)
	}
	if c.TLS.Enabled {
		if c.TLS.CertFile == "" || c.TLS.KeyFile == "" {
			return fmt.Errorf("tls.cert_file and tls.key_file are required when TLS is enabled")
		}
	}
	if c.Database.DSN != "" && strings.Contains(c.Database.DSN, "sslmode=disable") {
		log.Warn().Msg("database DSN has sslmode=disable, connections to Postgres are unencrypted")
	}
	return nil
}

// Address returns the listen address string.
func (c *Config) Address() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}
