package completion

import (
	"errors"
	"fmt"
)

// Failure kinds. Match with errors.Is.
var (
	ErrCancelled    = errors.New("request cancelled")
	ErrRateLimited  = errors.New("rate limited")
	ErrUnauthorized = errors.New("unauthorized")
	ErrService      = errors.New("service error")
	ErrNetwork      = errors.New("network error")
)

// Failure is a classified completion error.
type Failure struct {
	Kind       error
	StatusCode int
	Message    string
	Err        error
}

func (f *Failure) Error() string {
	if f.Message != "" {
		return f.Message
	}
	if f.Err != nil {
		return fmt.Sprintf("%v: %v", f.Kind, f.Err)
	}
	return f.Kind.Error()
}

func (f *Failure) Unwrap() []error {
	if f.Err == nil {
		return []error{f.Kind}
	}
	return []error{f.Kind, f.Err}
}

// Retryable reports whether another attempt may succeed.
func Retryable(err error) bool {
	return !errors.Is(err, ErrCancelled) && !errors.Is(err, ErrUnauthorized)
}

func cancelled(err error) *Failure {
	return &Failure{Kind: ErrCancelled, Err: err}
}
