package api

import (
	"strings"

	"gleam-playground/internal/pipeline"
)

// RunRequest carries source code submitted for compilation, execution
// or formatting.
type RunRequest struct {
	Code string `json:"code"`
}

// RunResponse is the envelope for POST /run. Event objects keep their
// capitalized keys; the envelope keys are lowercase. Both match the
// frontend wire format.
type RunResponse struct {
	Events    []pipeline.Event `json:"events"`
	Formatted *string          `json:"formatted,omitempty"`
}

// FormatResponse is the envelope for POST /format. The formatted key is
// always present and null when the source could not be read back.
type FormatResponse struct {
	Formatted *string          `json:"formatted"`
	Events    []pipeline.Event `json:"events"`
}

// SnippetCreateRequest carries the code to persist.
type SnippetCreateRequest struct {
	Code string `json:"code"`
}

// SnippetCreateResponse returns the freshly minted identifier.
type SnippetCreateResponse struct {
	SnippetID string `json:"snippetID"`
}

// SnippetGetResponse returns a resolved snippet. FileName is part of the
// wire format but never populated by resolution; clients tolerate null.
type SnippetGetResponse struct {
	FileName *string `json:"fileName"`
	Code     string  `json:"code"`
}

// ErrorResponse is returned for API errors.
type ErrorResponse struct {
	Error     string `json:"error"`
	Code      string `json:"code"`
	RequestID string `json:"request_id"`
}

// HealthResponse is returned by the health check endpoint.
type HealthResponse struct {
	Status   string `json:"status"`
	Database bool   `json:"database"`
	Cache    bool   `json:"cache"`
	Uptime   string `json:"uptime"`
}

// ParseBool interprets the lenient boolean vocabulary accepted on query
// parameters. Unrecognized or empty input reports ok false, which
// callers treat as "parameter unset".
func ParseBool(s string) (value, ok bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "yes", "true", "t", "y", "1":
		return true, true
	case "no", "false", "f", "n", "0":
		return false, true
	default:
		return false, false
	}
}
