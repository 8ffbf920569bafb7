package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Client is the HTTP implementation of Service.
type Client struct {
	base   string
	client *http.Client
	logger *zap.Logger
}

var _ Service = (*Client)(nil)

// BaseURL reports the service root the client talks to.
func (c *Client) BaseURL() string {
	return c.base
}

// Upload sends the file at path as the multipart field "file".
func (c *Client) Upload(ctx context.Context, path string) (UploadResult, error) {
	file, err := os.Open(path)
	if err != nil {
		return UploadResult{}, fmt.Errorf("upload: open %s: %w", path, err)
	}
	defer file.Close()
	return c.UploadReader(ctx, filepath.Base(path), file)
}

// UploadReader streams content under the given file name.
func (c *Client) UploadReader(ctx context.Context, name string, content io.Reader) (UploadResult, error) {
	pr, pw := io.Pipe()
	form := multipart.NewWriter(pw)
	go func() {
		part, err := form.CreateFormFile("file", name)
		if err == nil {
			_, err = io.Copy(part, content)
		}
		if err == nil {
			err = form.Close()
		}
		pw.CloseWithError(err)
	}()

	var result UploadResult
	if err := c.do(ctx, "upload", http.MethodPost, "/upload", form.FormDataContentType(), pr, &result); err != nil {
		pr.CloseWithError(err)
		return UploadResult{}, err
	}
	return result, nil
}

// Clear asks the service to drop every ingested document.
func (c *Client) Clear(ctx context.Context) error {
	return c.do(ctx, "clear", http.MethodDelete, "/clear", "", nil, nil)
}

// Ask submits a question together with the prior turns.
func (c *Client) Ask(ctx context.Context, req AskRequest) (Answer, error) {
	if req.ChatHistory == nil {
		req.ChatHistory = []HistoryEntry{}
	}
	buf, err := json.Marshal(req)
	if err != nil {
		return Answer{}, fmt.Errorf("ask: encode request: %w", err)
	}
	var answer Answer
	if err := c.do(ctx, "ask", http.MethodPost, "/ask", "application/json", bytes.NewReader(buf), &answer); err != nil {
		return Answer{}, err
	}
	return answer, nil
}

// Health probes GET /health.
func (c *Client) Health(ctx context.Context) (Health, error) {
	var health Health
	if err := c.do(ctx, "health", http.MethodGet, "/health", "", nil, &health); err != nil {
		return Health{}, err
	}
	return health, nil
}

func (c *Client) do(ctx context.Context, op, method, path, contentType string, body io.Reader, out any) error {
	req, err := http.NewRequestWithContext(ctx, method, c.base+path, body)
	if err != nil {
		return fmt.Errorf("%s: build request: %w", op, err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	req.Header.Set("Accept", "application/json")
	requestID := uuid.NewString()
	req.Header.Set(requestIDHeader, requestID)

	started := time.Now()
	resp, err := c.client.Do(req)
	if err != nil {
		c.logger.Warn("request failed",
			zap.String("op", op),
			zap.String("request_id", requestID),
			zap.Error(err),
		)
		return fmt.Errorf("%s: %w", op, err)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%s: read response: %w", op, err)
	}
	c.logger.Debug("request completed",
		zap.String("op", op),
		zap.String("request_id", requestID),
		zap.Int("status", resp.StatusCode),
		zap.Duration("duration", time.Since(started)),
	)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &APIError{Op: op, Status: resp.StatusCode, Detail: parseDetail(payload)}
	}
	if out == nil || len(bytes.TrimSpace(payload)) == 0 {
		return nil
	}
	if err := json.Unmarshal(payload, out); err != nil {
		return fmt.Errorf("%s: decode response: %w", op, err)
	}
	return nil
}

// parseDetail extracts {"detail": "..."}; FastAPI validation errors put a
// list under detail, which is not user-facing text and is ignored.
func parseDetail(payload []byte) string {
	var envelope struct {
		Detail json.RawMessage `json:"detail"`
	}
	if err := json.Unmarshal(payload, &envelope); err != nil || len(envelope.Detail) == 0 {
		return ""
	}
	var detail string
	if err := json.Unmarshal(envelope.Detail, &detail); err != nil {
		return ""
	}
	return strings.TrimSpace(detail)
}
