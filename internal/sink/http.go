package sink

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/hyperjump/crmsheet/internal/httputil"
	"github.com/hyperjump/crmsheet/internal/models"
)

// HTTPSink posts tables as JSON to the data platform's ingestion endpoint.
type HTTPSink struct {
	url        string
	token      string
	maxRetries int
	client     *http.Client
}

// HTTPOption configures an HTTPSink.
type HTTPOption func(*HTTPSink)

// WithHTTPClient replaces the default client.
func WithHTTPClient(c *http.Client) HTTPOption {
	return func(s *HTTPSink) { s.client = c }
}

// WithToken sets the bearer token sent with every request.
func WithToken(token string) HTTPOption {
	return func(s *HTTPSink) { s.token = token }
}

// WithMaxRetries sets how often a 429 response is retried.
func WithMaxRetries(n int) HTTPOption {
	return func(s *HTTPSink) { s.maxRetries = n }
}

// NewHTTPSink returns a sink posting to url.
func NewHTTPSink(url string, timeout time.Duration, opts ...HTTPOption) *HTTPSink {
	s := &HTTPSink{url: url, client: &http.Client{Timeout: timeout}}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Accept posts table. Any non-2xx response is an error.
func (s *HTTPSink) Accept(ctx context.Context, table *models.ExtractedTable) error {
	body, err := json.Marshal(table)
	if err != nil {
		return fmt.Errorf("marshal table: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if s.token != "" {
		req.Header.Set("Authorization", "Bearer "+s.token)
	}
	resp, err := httputil.DoWithRetry(ctx, s.client, req, s.maxRetries)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("data platform returned %d: %s", resp.StatusCode, strings.TrimSpace(string(b)))
	}
	return nil
}
