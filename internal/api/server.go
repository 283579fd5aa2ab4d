package api

import (
	"context"
	"crypto/tls"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"

	"gleam-playground/internal/cache"
	"gleam-playground/internal/config"
	"gleam-playground/internal/monitor"
	"gleam-playground/internal/storage"
)

// Server is the playground HTTP server.
type Server struct {
	httpServer *http.Server
	handlers   *Handlers
	cfg        *config.Config
	startTime  time.Time
}

// NewServer wires routes and the middleware chain. The store and cache
// handles are used only for health reporting; the handlers reach them
// through the runner and resolver.
func NewServer(cfg *config.Config, runner Runner, snippets SnippetResolver, store storage.SnippetStore, c cache.Cache, metrics *monitor.Metrics) *Server {
	handlers := NewHandlers(runner, snippets, metrics, cfg.Version)

	s := &Server{
		handlers:  handlers,
		cfg:       cfg,
		startTime: time.Now(),
	}

	if cfg.Security.APIKey == "" {
		log.Warn().Msg("no API key configured, all requests will be accepted")
	}

	// Playground API, wrapped with auth when a key is configured.
	apiMux := http.NewServeMux()
	apiMux.HandleFunc("POST /run", handlers.HandleRun)
	apiMux.HandleFunc("POST /format", handlers.HandleFormat)
	apiMux.HandleFunc("POST /snippet", handlers.HandleCreateSnippet)
	apiMux.HandleFunc("GET /snippet/{id}", handlers.HandleGetSnippet)
	apiMux.HandleFunc("GET /version", handlers.HandleVersion)

	authedAPI := AuthMiddleware(cfg.Security.APIKeyHeader, cfg.Security.APIKey)(apiMux)

	// Top-level mux: health and metrics bypass auth.
	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", s.handleHealth(store, c))
	if cfg.Metrics.Enabled {
		mux.Handle("GET "+cfg.Metrics.Path, promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{}))
	}
	mux.Handle("/", authedAPI)

	// Apply middleware chain (outermost first)
	var handler http.Handler = mux
	handler = MetricsMiddleware(metrics)(handler)
	handler = MaxBodyMiddleware(cfg.Server.MaxRequestBody)(handler)
	handler = SecurityHeadersMiddleware(handler)
	handler = LoggingMiddleware(handler)
	handler = RequestIDMiddleware(handler)
	handler = RecoveryMiddleware(handler)

	s.httpServer = &http.Server{
		Addr:         cfg.Address(),
		Handler:      handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  120 * time.Second,
	}

	return s
}

// Start begins listening for requests. Uses TLS if configured.
func (s *Server) Start() error {
	if s.cfg.TLS.Enabled {
		log.Info().
			Str("addr", s.httpServer.Addr).
			Str("cert", s.cfg.TLS.CertFile).
			Msg("starting HTTPS server with TLS")

		s.httpServer.TLSConfig = &tls.Config{
			MinVersion: tls.VersionTLS12,
		}
		return s.httpServer.ListenAndServeTLS(s.cfg.TLS.CertFile, s.cfg.TLS.KeyFile)
	}

	log.Info().
		Str("addr", s.httpServer.Addr).
		Msg("starting HTTP server")
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	log.Info().Msg("shutting down HTTP server")
	return s.httpServer.Shutdown(ctx)
}

// handleHealth reports per-tier health. Degraded tiers never take the
// service down: execution works with neither database nor cache, so the
// response stays 200 and clients read the tier booleans.
func (s *Server) handleHealth(store storage.SnippetStore, c cache.Cache) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		dbOK := store.Healthy(r.Context())
		cacheOK := c.Healthy(r.Context())

		resp := HealthResponse{
			Status:   "ok",
			Database: dbOK,
			Cache:    cacheOK,
			Uptime:   time.Since(s.startTime).Round(time.Second).String(),
		}
		if !dbOK || !cacheOK {
			resp.Status = "degraded"
		}

		writeJSON(w, http.StatusOK, resp)
	}
}
