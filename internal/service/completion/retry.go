package completion

import (
	"context"
	"errors"
	"log/slog"
	"time"
)

const (
	DefaultAttempts  = 3
	DefaultBaseDelay = time.Second
)

// Retrier wraps a Completer with bounded retries and exponential backoff.
type Retrier struct {
	next      Completer
	attempts  int
	baseDelay time.Duration
	sleep     func(ctx context.Context, d time.Duration) error
	logger    *slog.Logger
}

// RetryOption customizes a Retrier.
type RetryOption func(*Retrier)

// WithAttempts sets the maximum number of attempts. Values below 1 mean 1.
func WithAttempts(n int) RetryOption {
	return func(r *Retrier) {
		if n < 1 {
			n = 1
		}
		r.attempts = n
	}
}

// WithBaseDelay sets the delay before the second attempt; later delays double.
func WithBaseDelay(d time.Duration) RetryOption {
	return func(r *Retrier) { r.baseDelay = d }
}

// WithSleep replaces the backoff wait, mainly for tests.
func WithSleep(sleep func(ctx context.Context, d time.Duration) error) RetryOption {
	return func(r *Retrier) { r.sleep = sleep }
}

// WithRetryLogger sets the logger.
func WithRetryLogger(l *slog.Logger) RetryOption {
	return func(r *Retrier) { r.logger = l }
}

// WithRetry wraps next.
func WithRetry(next Completer, opts ...RetryOption) *Retrier {
	r := &Retrier{
		next:      next,
		attempts:  DefaultAttempts,
		baseDelay: DefaultBaseDelay,
		sleep:     sleepContext,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Complete returns the first success or the last failure.
func (r *Retrier) Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	var lastErr error
	for attempt := 1; attempt <= r.attempts; attempt++ {
		text, err := r.next.Complete(ctx, systemPrompt, userPrompt)
		if err == nil {
			return text, nil
		}
		lastErr = err

		r.logger.Warn("completion_attempt_failed", "attempt", attempt, "max_attempts", r.attempts, "error", err)
		if !Retryable(err) || attempt == r.attempts {
			break
		}

		delay := r.baseDelay << (attempt - 1)
		if err := r.sleep(ctx, delay); err != nil {
			if errors.Is(err, context.Canceled) {
				return "", cancelled(err)
			}
			break
		}
	}
	return "", lastErr
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
