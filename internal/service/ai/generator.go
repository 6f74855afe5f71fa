// Package ai adapts upstream text generation providers to a single
// system-prompt plus user-turn call.
package ai

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/zaviye/zaviye/internal/config"
)

// Upstream failure classes the boundary maps onto HTTP statuses.
var (
	ErrUpstreamUnauthorized = errors.New("upstream rejected credentials")
	ErrUpstreamRateLimited  = errors.New("upstream rate limited")
)

const (
	defaultBlockReason = "safety settings"
	emptyResponseText  = "No response generated."
)

// Generation is the outcome of one upstream call. A blocked generation is
// still a successful call.
type Generation struct {
	Text        string
	Blocked     bool
	BlockReason string
}

// Reply returns the text shown to the user, explaining blocked answers.
func (g Generation) Reply() string {
	if g.Blocked {
		reason := g.BlockReason
		if reason == "" {
			reason = defaultBlockReason
		}
		return fmt.Sprintf("My apologies, but the response was blocked due to %s. Please try rephrasing your message.", reason)
	}
	if g.Text == "" {
		return emptyResponseText
	}
	return g.Text
}

// Generator produces text for a system instruction and one user turn.
type Generator interface {
	Generate(ctx context.Context, systemPrompt, userPrompt string) (Generation, error)
}

// NewGenerator builds the generator for the configured provider.
func NewGenerator(ctx context.Context, cfg config.AIConfig) (Generator, error) {
	switch cfg.Provider {
	case config.ProviderArk:
		svc, err := NewService(ctx, cfg)
		if err != nil {
			return nil, err
		}
		return svc, nil
	case config.ProviderGemini, "":
		gen, err := NewGeminiGenerator(ctx, cfg)
		if err != nil {
			return nil, err
		}
		return gen, nil
	default:
		return nil, fmt.Errorf("unsupported AI provider %q", cfg.Provider)
	}
}

// classifyStatus tags err with the upstream class of an HTTP status code.
func classifyStatus(code int, err error) error {
	switch code {
	case http.StatusUnauthorized, http.StatusForbidden:
		return fmt.Errorf("%w: %w", ErrUpstreamUnauthorized, err)
	case http.StatusTooManyRequests:
		return fmt.Errorf("%w: %w", ErrUpstreamRateLimited, err)
	default:
		return err
	}
}
