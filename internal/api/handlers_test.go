package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gleam-playground/internal/cache"
	"gleam-playground/internal/config"
	"gleam-playground/internal/monitor"
	"gleam-playground/internal/pipeline"
	"gleam-playground/internal/snippet"
	"gleam-playground/internal/storage"
)

type fakeRunner struct {
	result     *pipeline.Result
	err        error
	lastCode   string
	lastFormat bool
	formatted  bool
}

func (f *fakeRunner) Execute(_ context.Context, code string, format bool) (*pipeline.Result, error) {
	f.lastCode = code
	f.lastFormat = format
	return f.result, f.err
}

func (f *fakeRunner) Format(_ context.Context, code string) (*pipeline.Result, error) {
	f.lastCode = code
	f.formatted = true
	return f.result, f.err
}

type fakeResolver struct {
	snippets map[string]string
	createID string
	err      error
}

func (f *fakeResolver) Resolve(_ context.Context, id string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	code, ok := f.snippets[id]
	if !ok {
		return "", snippet.ErrNotFound
	}
	return code, nil
}

func (f *fakeResolver) Create(_ context.Context, code string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	return f.createID, nil
}

func newTestServer(t *testing.T, runner Runner, resolver SnippetResolver) http.Handler {
	t.Helper()
	cfg := config.DefaultConfig()
	s := NewServer(cfg, runner, resolver, storage.NewMock(), cache.NewMock(), monitor.NewMetrics())
	return s.httpServer.Handler
}

func strPtr(s string) *string { return &s }

func TestHandleRun_Success(t *testing.T) {
	runner := &fakeRunner{result: &pipeline.Result{
		Events: []pipeline.Event{{Message: "Hello!", Kind: pipeline.KindStdout}},
	}}
	h := newTestServer(t, runner, &fakeResolver{})

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest("POST", "/run", strings.NewReader(`{"code":"pub fn main() { Nil }"}`)))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "pub fn main() { Nil }", runner.lastCode)
	assert.False(t, runner.lastFormat, "format must default to off")

	var resp RunResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Events, 1)
	assert.Equal(t, "Hello!", resp.Events[0].Message)
	assert.Nil(t, resp.Formatted)
	// The wire format capitalizes event keys.
	assert.Contains(t, rec.Body.String(), `"Message":"Hello!"`)
	assert.Contains(t, rec.Body.String(), `"Kind":"stdout"`)
}

func TestHandleRun_FormatQueryParam(t *testing.T) {
	tests := []struct {
		query string
		want  bool
	}{
		{"?format=yes", true},
		{"?format=TRUE", true},
		{"?format=1", true},
		{"?format=no", false},
		{"?format=banana", false},
		{"", false},
	}
	for _, tt := range tests {
		runner := &fakeRunner{result: &pipeline.Result{}}
		h := newTestServer(t, runner, &fakeResolver{})

		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest("POST", "/run"+tt.query, strings.NewReader(`{"code":"x"}`)))

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, tt.want, runner.lastFormat, "query %q", tt.query)
	}
}

func TestHandleRun_CompileFailureIsStill200(t *testing.T) {
	// User-code failure: diagnostics travel as events, not as an error
	// status.
	runner := &fakeRunner{result: &pipeline.Result{
		Events: []pipeline.Event{{Message: "error: Unknown variable", Kind: pipeline.KindStdout}},
	}}
	h := newTestServer(t, runner, &fakeResolver{})

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest("POST", "/run", strings.NewReader(`{"code":"bad"}`)))

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestHandleRun_PipelineErrorIs500(t *testing.T) {
	runner := &fakeRunner{err: &pipeline.PipelineError{RunID: "r1", Stage: pipeline.StageStaging, Err: errors.New("copy failed")}}
	h := newTestServer(t, runner, &fakeResolver{})

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest("POST", "/run", strings.NewReader(`{"code":"x"}`)))

	require.Equal(t, http.StatusInternalServerError, rec.Code)
	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "EXECUTION_FAILED", resp.Code)
	assert.NotEmpty(t, resp.RequestID)
}

func TestHandleRun_EmptyCode(t *testing.T) {
	h := newTestServer(t, &fakeRunner{}, &fakeResolver{})

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest("POST", "/run", strings.NewReader(`{"code":""}`)))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleRun_InvalidJSON(t *testing.T) {
	h := newTestServer(t, &fakeRunner{}, &fakeResolver{})

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest("POST", "/run", strings.NewReader(`{not json`)))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleRun_BodyTooLarge(t *testing.T) {
	h := newTestServer(t, &fakeRunner{result: &pipeline.Result{}}, &fakeResolver{})

	big := strings.Repeat("a", 250_001)
	body, err := json.Marshal(RunRequest{Code: big})
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest("POST", "/run", strings.NewReader(string(body))))

	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
}

func TestHandleRun_EventsNeverNull(t *testing.T) {
	h := newTestServer(t, &fakeRunner{result: &pipeline.Result{}}, &fakeResolver{})

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest("POST", "/run", strings.NewReader(`{"code":"x"}`)))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"events":[]`)
}

func TestHandleFormat_FormattedAlwaysPresent(t *testing.T) {
	tests := []struct {
		name      string
		formatted *string
		wantJSON  string
	}{
		{"rewritten source", strPtr("pub fn main() {\n  Nil\n}\n"), `"formatted":"pub fn main()`},
		{"unreadable source", nil, `"formatted":null`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			runner := &fakeRunner{result: &pipeline.Result{Formatted: tt.formatted}}
			h := newTestServer(t, runner, &fakeResolver{})

			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, httptest.NewRequest("POST", "/format", strings.NewReader(`{"code":"x"}`)))

			require.Equal(t, http.StatusOK, rec.Code)
			assert.True(t, runner.formatted, "must invoke the format pipeline, not execute")
			assert.Contains(t, rec.Body.String(), tt.wantJSON)
		})
	}
}

func TestHandleCreateSnippet(t *testing.T) {
	h := newTestServer(t, &fakeRunner{}, &fakeResolver{createID: "id-123"})

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest("POST", "/snippet", strings.NewReader(`{"code":"shared"}`)))

	require.Equal(t, http.StatusCreated, rec.Code)
	var resp SnippetCreateResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "id-123", resp.SnippetID)
}

func TestHandleCreateSnippet_StoreDown(t *testing.T) {
	h := newTestServer(t, &fakeRunner{}, &fakeResolver{err: errors.New("db down")})

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest("POST", "/snippet", strings.NewReader(`{"code":"shared"}`)))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestHandleGetSnippet(t *testing.T) {
	h := newTestServer(t, &fakeRunner{}, &fakeResolver{snippets: map[string]string{"id-1": "the code"}})

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest("GET", "/snippet/id-1", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"fileName":null`)
	assert.Contains(t, rec.Body.String(), `"code":"the code"`)
}

func TestHandleGetSnippet_NotFound(t *testing.T) {
	h := newTestServer(t, &fakeRunner{}, &fakeResolver{})

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest("GET", "/snippet/nope", nil))

	require.Equal(t, http.StatusNotFound, rec.Code)
	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "NOT_FOUND", resp.Code)
}

func TestHandleVersion(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Version = "3.1.4"
	s := NewServer(cfg, &fakeRunner{}, &fakeResolver{}, storage.NewMock(), cache.NewMock(), monitor.NewMetrics())

	rec := httptest.NewRecorder()
	s.httpServer.Handler.ServeHTTP(rec, httptest.NewRequest("GET", "/version", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "3.1.4", rec.Body.String())
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/plain")
}

func TestHandleHealth(t *testing.T) {
	store := storage.NewMock()
	c := cache.NewMock()
	cfg := config.DefaultConfig()
	s := NewServer(cfg, &fakeRunner{}, &fakeResolver{}, store, c, monitor.NewMetrics())

	rec := httptest.NewRecorder()
	s.httpServer.Handler.ServeHTTP(rec, httptest.NewRequest("GET", "/health", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var resp HealthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Status)

	// A down cache degrades the report but never the status code.
	c.Fail = true
	rec = httptest.NewRecorder()
	s.httpServer.Handler.ServeHTTP(rec, httptest.NewRequest("GET", "/health", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "degraded", resp.Status)
	assert.False(t, resp.Cache)
}
