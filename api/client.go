// Package api is the REST client for the remote clinic authority. The
// authority owns every entity; this client holds no state beyond the
// connection itself. All decoded copies are disposable and re-fetchable.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// TokenSource supplies the bearer credential attached to authenticated
// requests. An empty token means anonymous.
type TokenSource interface {
	Token() string
}

// Client talks to the clinic authority over HTTP.
type Client struct {
	baseURL string
	http    *http.Client
	tokens  TokenSource
	limiter *rate.Limiter
	logger  *zap.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithTimeout caps each request's total duration. A hung authority otherwise
// leaves the caller waiting indefinitely.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.http.Timeout = d }
}

// WithRateLimit throttles outgoing requests to n per minute.
func WithRateLimit(perMin int) Option {
	return func(c *Client) {
		if perMin > 0 {
			c.limiter = rate.NewLimiter(rate.Every(time.Minute/time.Duration(perMin)), perMin)
		}
	}
}

// WithHTTPClient substitutes the underlying HTTP client (used by tests).
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.http = h }
}

// NewClient builds a Client against the given base URL. tokens may be nil for
// a purely anonymous client.
func NewClient(baseURL string, tokens TokenSource, logger *zap.Logger, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 15 * time.Second},
		tokens:  tokens,
		logger:  logger,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// errorBody is the authority's error envelope. Some endpoints use "message",
// others "error".
type errorBody struct {
	Message string `json:"message"`
	Err     string `json:"error"`
}

func (b errorBody) text() string {
	if b.Message != "" {
		return b.Message
	}
	return b.Err
}

// do issues one request and decodes a 2xx response into out (when non-nil).
// Non-2xx responses are mapped onto the error taxonomy, preferring the
// server-provided message over a generic fallback.
func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return &NetworkError{Op: method + " " + path, Err: err}
		}
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request body: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", uuid.New().String())
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.tokens != nil {
		if token := c.tokens.Token(); token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}

	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Warn("request failed", zap.String("method", method), zap.String("path", path), zap.Error(err))
		return &NetworkError{Op: method + " " + path, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		if out == nil {
			return nil
		}
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("decode response for %s %s: %w", method, path, err)
		}
		return nil
	}

	var envelope errorBody
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<16))
	_ = json.Unmarshal(raw, &envelope)
	msg := envelope.text()

	c.logger.Debug("authority rejected request",
		zap.String("method", method), zap.String("path", path),
		zap.Int("status", resp.StatusCode), zap.String("message", msg))

	switch resp.StatusCode {
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		if msg == "" {
			msg = "invalid request"
		}
		return &ValidationError{Message: msg}
	case http.StatusUnauthorized, http.StatusForbidden:
		if msg == "" {
			msg = "not authorized"
		}
		return &AuthError{Status: resp.StatusCode, Message: msg}
	case http.StatusNotFound:
		if msg == "" {
			msg = "not found"
		}
		return &NotFoundError{Message: msg}
	case http.StatusConflict:
		if msg == "" {
			msg = "conflicting request"
		}
		return &ConflictError{Message: msg}
	default:
		if msg == "" {
			msg = fmt.Sprintf("request failed with status %d", resp.StatusCode)
		}
		return &APIError{Status: resp.StatusCode, Message: msg}
	}
}
