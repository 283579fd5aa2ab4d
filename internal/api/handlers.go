package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog/log"

	"gleam-playground/internal/monitor"
	"gleam-playground/internal/pipeline"
	"gleam-playground/internal/snippet"
)

// Runner is the execution pipeline surface the handlers depend on.
type Runner interface {
	Execute(ctx context.Context, code string, format bool) (*pipeline.Result, error)
	Format(ctx context.Context, code string) (*pipeline.Result, error)
}

// SnippetResolver is the snippet cascade surface the handlers depend on.
type SnippetResolver interface {
	Resolve(ctx context.Context, id string) (string, error)
	Create(ctx context.Context, code string) (string, error)
}

type Handlers struct {
	runner   Runner
	snippets SnippetResolver
	metrics  *monitor.Metrics
	version  string
}

func NewHandlers(runner Runner, snippets SnippetResolver, metrics *monitor.Metrics, version string) *Handlers {
	return &Handlers{
		runner:   runner,
		snippets: snippets,
		metrics:  metrics,
		version:  version,
	}
}

// HandleRun compiles and runs submitted code. Compile and run failures
// are ordinary 200 responses carrying diagnostics as events; only
// infrastructure faults produce an error status.
func (h *Handlers) HandleRun(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decodeCode(w, r)
	if !ok {
		return
	}

	format, _ := ParseBool(r.URL.Query().Get("format"))

	h.metrics.CodeSizeBytes.Observe(float64(len(req.Code)))

	result, err := h.runner.Execute(r.Context(), req.Code, format)
	if err != nil {
		log.Error().Err(err).Str("request_id", RequestIDFromContext(r.Context())).Msg("run failed")
		writeError(w, "execution failed", "EXECUTION_FAILED", http.StatusInternalServerError, r)
		return
	}

	h.observeOutput(result.Events)
	writeJSON(w, http.StatusOK, RunResponse{
		Events:    nonNilEvents(result.Events),
		Formatted: result.Formatted,
	})
}

// HandleFormat runs only the formatter over submitted code.
func (h *Handlers) HandleFormat(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decodeCode(w, r)
	if !ok {
		return
	}

	result, err := h.runner.Format(r.Context(), req.Code)
	if err != nil {
		log.Error().Err(err).Str("request_id", RequestIDFromContext(r.Context())).Msg("format failed")
		writeError(w, "formatting failed", "FORMAT_FAILED", http.StatusInternalServerError, r)
		return
	}

	writeJSON(w, http.StatusOK, FormatResponse{
		Formatted: result.Formatted,
		Events:    nonNilEvents(result.Events),
	})
}

// HandleCreateSnippet persists code and returns the new identifier.
func (h *Handlers) HandleCreateSnippet(w http.ResponseWriter, r *http.Request) {
	var req SnippetCreateRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Code == "" {
		writeError(w, "code is required", "INVALID_REQUEST", http.StatusBadRequest, r)
		return
	}

	id, err := h.snippets.Create(r.Context(), req.Code)
	if err != nil {
		log.Error().Err(err).Str("request_id", RequestIDFromContext(r.Context())).Msg("snippet create failed")
		writeError(w, "snippet could not be saved", "SNIPPET_WRITE_FAILED", http.StatusInternalServerError, r)
		return
	}

	writeJSON(w, http.StatusCreated, SnippetCreateResponse{SnippetID: id})
}

// HandleGetSnippet resolves an identifier through the cascade.
func (h *Handlers) HandleGetSnippet(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		writeError(w, "snippet ID required", "INVALID_REQUEST", http.StatusBadRequest, r)
		return
	}

	code, err := h.snippets.Resolve(r.Context(), id)
	if errors.Is(err, snippet.ErrNotFound) {
		writeError(w, "snippet not found", "NOT_FOUND", http.StatusNotFound, r)
		return
	}
	if err != nil {
		log.Error().Err(err).Str("request_id", RequestIDFromContext(r.Context())).Msg("snippet resolve failed")
		writeError(w, "snippet lookup failed", "INTERNAL", http.StatusInternalServerError, r)
		return
	}

	writeJSON(w, http.StatusOK, SnippetGetResponse{FileName: nil, Code: code})
}

// HandleVersion serves the deployed version as plain text.
func (h *Handlers) HandleVersion(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte(h.version))
}

// decodeCode reads the common {"code": ...} request body and rejects
// empty submissions.
func (h *Handlers) decodeCode(w http.ResponseWriter, r *http.Request) (*RunRequest, bool) {
	var req RunRequest
	if !decodeJSON(w, r, &req) {
		return nil, false
	}
	if req.Code == "" {
		writeError(w, "code is required", "INVALID_REQUEST", http.StatusBadRequest, r)
		return nil, false
	}
	return &req, true
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, "request body too large", "REQUEST_TOO_LARGE", http.StatusRequestEntityTooLarge, r)
			return false
		}
		writeError(w, "invalid JSON: "+err.Error(), "INVALID_REQUEST", http.StatusBadRequest, r)
		return false
	}
	return true
}

func (h *Handlers) observeOutput(events []pipeline.Event) {
	total := 0
	for _, e := range events {
		total += len(e.Message)
	}
	h.metrics.OutputSizeBytes.Observe(float64(total))
}

// nonNilEvents keeps the events key a JSON array even when no stage
// produced output.
func nonNilEvents(events []pipeline.Event) []pipeline.Event {
	if events == nil {
		return []pipeline.Event{}
	}
	return events
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("failed to encode response")
	}
}

func writeError(w http.ResponseWriter, msg, code string, status int, r *http.Request) {
	resp := ErrorResponse{
		Error:     msg,
		Code:      code,
		RequestID: RequestIDFromContext(r.Context()),
	}
	writeJSON(w, status, resp)
}
