// Package completion talks to the completion boundary: one request, one
// classified result.
package completion

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

const maxResponseSize = 1 << 20

// Completer produces assistant text for a system and user prompt.
type Completer interface {
	Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

// Request is the boundary request body.
type Request struct {
	SystemPrompt string `json:"systemPrompt"`
	UserPrompt   string `json:"userPrompt"`
}

// Response is the boundary response body.
type Response struct {
	Text  string `json:"text,omitempty"`
	Error string `json:"error,omitempty"`
}

// Client posts prompts to the boundary endpoint.
type Client struct {
	endpoint   string
	httpClient *http.Client
	logger     *slog.Logger
}

// Option customizes a Client.
type Option func(*Client)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithTimeout bounds each request.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.httpClient = &http.Client{Timeout: d} }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// NewClient creates a client for the boundary at endpoint.
func NewClient(endpoint string, opts ...Option) *Client {
	c := &Client{
		endpoint:   endpoint,
		httpClient: &http.Client{Timeout: 90 * time.Second},
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = c.logger.With("component", "completion")
	return c
}

// Complete sends one request. Errors are always *Failure.
func (c *Client) Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	body, err := json.Marshal(Request{SystemPrompt: systemPrompt, UserPrompt: userPrompt})
	if err != nil {
		return "", &Failure{Kind: ErrService, Err: fmt.Errorf("encode request: %w", err)}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return "", &Failure{Kind: ErrNetwork, Err: fmt.Errorf("build request: %w", err)}
	}
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(ctx.Err(), context.Canceled) {
			c.logger.Debug("completion_aborted")
			return "", cancelled(err)
		}
		c.logger.Warn("completion_transport_failed", "error", err)
		return "", &Failure{Kind: ErrNetwork, Err: err}
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		if errors.Is(ctx.Err(), context.Canceled) {
			return "", cancelled(err)
		}
		return "", &Failure{Kind: ErrNetwork, StatusCode: resp.StatusCode, Err: fmt.Errorf("read response: %w", err)}
	}

	c.logger.Debug("completion_response",
		"status", resp.StatusCode,
		"duration_ms", time.Since(start).Milliseconds(),
	)

	var decoded Response
	decodeErr := json.Unmarshal(payload, &decoded)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", statusFailure(resp.StatusCode, decoded.Error)
	}

	if decodeErr != nil || strings.TrimSpace(decoded.Text) == "" {
		return "", &Failure{
			Kind:       ErrService,
			StatusCode: resp.StatusCode,
			Message:    "No text content received from API",
			Err:        decodeErr,
		}
	}
	return decoded.Text, nil
}

func statusFailure(status int, message string) *Failure {
	if message == "" {
		message = fmt.Sprintf("API Error: Status %d", status)
	}

	kind := ErrService
	switch status {
	case http.StatusUnauthorized:
		kind = ErrUnauthorized
	case http.StatusTooManyRequests:
		kind = ErrRateLimited
	}
	return &Failure{Kind: kind, StatusCode: status, Message: message}
}
