package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"gleam-playground/internal/api"
	"gleam-playground/internal/cache"
	"gleam-playground/internal/config"
	"gleam-playground/internal/monitor"
	"gleam-playground/internal/pipeline"
	"gleam-playground/internal/snippet"
	"gleam-playground/internal/storage"
	"gleam-playground/internal/toolchain"
	"gleam-playground/internal/workspace"
)

func main() {
	// Structured logging
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnixMs
	if os.Getenv("ENV") != "production" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	}

	// Load configuration
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "configs/config.yaml"
	}

	var cfg *config.Config
	var err error

	if _, statErr := os.Stat(configPath); statErr == nil {
		cfg, err = config.Load(configPath)
		if err != nil {
			log.Fatal().Err(err).Str("path", configPath).Msg("failed to load config")
		}
	} else {
		log.Info().Msg("no config file found, using defaults")
		cfg = config.DefaultConfig()
	}

	// Secret-file values win over the YAML file.
	cfg.ApplySecrets()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	metrics := monitor.NewMetrics()

	// Durable snippet tier (optional, the cascade degrades without it)
	var store storage.SnippetStore = storage.Unavailable{}
	if cfg.Database.DSN != "" {
		db, err := storage.New(ctx, cfg.Database.DSN)
		if err != nil {
			log.Warn().Err(err).Msg("database unavailable, snippet persistence degraded")
		} else {
			if err := db.EnsureSchema(ctx); err != nil {
				log.Fatal().Err(err).Msg("snippet schema setup failed")
			}
			store = db
			defer db.Close()
		}
	} else {
		log.Warn().Msg("no database DSN configured, snippet persistence disabled")
	}

	// Volatile snippet tier (optional as well)
	var snippetCache cache.Cache = cache.Unavailable{}
	if cfg.Cache.Addr != "" {
		rc, err := cache.NewRedis(cfg.Cache.Addr, cfg.Cache.Password, cfg.Cache.DB)
		if err != nil {
			log.Warn().Err(err).Msg("redis unavailable, snippet cache disabled")
		} else {
			snippetCache = rc
			defer rc.Close()
		}
	} else {
		log.Warn().Msg("no redis address configured, snippet cache disabled")
	}

	// Execution pipeline over the template project
	workspaces := workspace.NewManager(cfg.Playground.TemplateDir, cfg.Playground.ProjectName)
	tools := toolchain.Toolchain{
		ProjectName: cfg.Playground.ProjectName,
		SourceFile:  cfg.Playground.SourceFile,
	}
	runner := pipeline.New(workspaces, tools, pipeline.Timeouts{
		Compile: cfg.Playground.CompileTimeout,
		Run:     cfg.Playground.RunTimeout,
		Format:  cfg.Playground.FormatTimeout,
	}, metrics)

	resolver := snippet.NewResolver(snippetCache, store, snippet.NewFileFallback(cfg.Snippets.Dir), cfg.Cache.TTL, metrics)

	server := api.NewServer(cfg, runner, resolver, store, snippetCache, metrics)

	// Graceful shutdown
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigCh

		log.Info().Str("signal", sig.String()).Msg("shutting down")

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer shutdownCancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("HTTP server shutdown error")
		}

		cancel()
	}()

	log.Info().
		Str("addr", cfg.Address()).
		Str("version", cfg.Version).
		Bool("db_enabled", cfg.Database.DSN != "").
		Bool("cache_enabled", cfg.Cache.Addr != "").
		Msg("server starting")

	if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal().Err(err).Msg("server failed")
	}

	log.Info().Msg("server stopped")
}
