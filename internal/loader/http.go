package loader

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/hyperjump/crmsheet/internal/httputil"
)

// HTTPLoader downloads record documents from a CRM REST API at
// GET <baseURL>/records/<id>/file.
type HTTPLoader struct {
	baseURL    string
	token      string
	maxRetries int
	client     *http.Client
}

// HTTPOption configures an HTTPLoader.
type HTTPOption func(*HTTPLoader)

// WithHTTPClient replaces the default client.
func WithHTTPClient(c *http.Client) HTTPOption {
	return func(l *HTTPLoader) { l.client = c }
}

// WithToken sets the bearer token sent with every request.
func WithToken(token string) HTTPOption {
	return func(l *HTTPLoader) { l.token = token }
}

// WithMaxRetries sets how often a 429 response is retried.
func WithMaxRetries(n int) HTTPOption {
	return func(l *HTTPLoader) { l.maxRetries = n }
}

// NewHTTPLoader returns a loader for the API rooted at baseURL.
func NewHTTPLoader(baseURL string, timeout time.Duration, opts ...HTTPOption) *HTTPLoader {
	l := &HTTPLoader{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Fetch downloads the record's file. 404 and 204 responses, and empty bodies,
// mean the record has no document.
func (l *HTTPLoader) Fetch(ctx context.Context, id string) ([]byte, error) {
	endpoint := l.baseURL + "/records/" + url.PathEscape(id) + "/file"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/octet-stream")
	if l.token != "" {
		req.Header.Set("Authorization", "Bearer "+l.token)
	}

	resp, err := httputil.DoWithRetry(ctx, l.client, req, l.maxRetries)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound, resp.StatusCode == http.StatusNoContent:
		return nil, nil
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("crm returned %d: %s", resp.StatusCode, strings.TrimSpace(string(b)))
	}
	content, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if len(content) == 0 {
		return nil, nil
	}
	return content, nil
}
