// Package backend talks to the document question-answering service over
// HTTP. The service is opaque: it ingests uploads, answers questions and
// wipes its index; this package only speaks the wire contract.
package backend

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
)

const (
	// DefaultBaseURL matches the port the reference service listens on.
	DefaultBaseURL     = "http://localhost:8000"
	defaultHTTPTimeout = 5 * time.Minute
	requestIDHeader    = "X-Request-ID"
)

// Config describes how to build a Client.
type Config struct {
	BaseURL    string
	Timeout    time.Duration
	HTTPClient *http.Client
	Logger     *zap.Logger
}

// Service is the set of remote operations the client UI depends on.
type Service interface {
	Upload(ctx context.Context, path string) (UploadResult, error)
	Clear(ctx context.Context) error
	Ask(ctx context.Context, req AskRequest) (Answer, error)
	Health(ctx context.Context) (Health, error)
}

// HistoryEntry is one prior exchange sent as conversational context.
type HistoryEntry struct {
	Human string `json:"human"`
	AI    string `json:"ai"`
}

// AskRequest is the payload of POST /ask.
type AskRequest struct {
	Question    string         `json:"question"`
	ChatHistory []HistoryEntry `json:"chat_history"`
}

// Answer is the success body of POST /ask.
type Answer struct {
	Answer  string   `json:"answer"`
	Sources []string `json:"sources,omitempty"`
}

// UploadResult is the success body of POST /upload.
type UploadResult struct {
	Chunks   int    `json:"chunks"`
	Filename string `json:"filename,omitempty"`
	Message  string `json:"message,omitempty"`
}

// Health is the body of GET /health.
type Health struct {
	Status string `json:"status"`
}

// APIError is returned for any non-2xx response. Detail carries the
// service's "detail" field when it was a plain string.
type APIError struct {
	Op     string
	Status int
	Detail string
}

func (e *APIError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("%s: backend returned %d: %s", e.Op, e.Status, e.Detail)
	}
	return fmt.Sprintf("%s: backend returned %d", e.Op, e.Status)
}

// DetailOr returns the backend-provided detail carried by err, or fallback
// when there is none (transport failures, empty or non-string details).
func DetailOr(err error, fallback string) string {
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Detail != "" {
		return apiErr.Detail
	}
	return fallback
}

// New builds a Client for the service rooted at cfg.BaseURL.
func New(cfg Config) *Client {
	base := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if base == "" {
		base = DefaultBaseURL
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		base:   base,
		client: pickHTTPClient(cfg.HTTPClient, cfg.Timeout),
		logger: logger.Named("backend"),
	}
}

func pickHTTPClient(custom *http.Client, timeout time.Duration) *http.Client {
	if custom != nil {
		return custom
	}
	if timeout <= 0 {
		timeout = defaultHTTPTimeout
	}
	// Ingesting a large document can take minutes on the service side.
	return &http.Client{Timeout: timeout}
}
