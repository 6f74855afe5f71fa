// Package ratelimit implements a fixed-window request limiter keyed by
// client identifier. State is process-local and resets on restart.
package ratelimit

import (
	"context"
	"sync"
	"time"
)

const (
	DefaultWindow      = time.Minute
	DefaultMaxRequests = 4
)

type record struct {
	count       int
	windowStart time.Time
}

// Limiter allows at most max requests per identifier in each window.
// Bursts of up to 2*max straddling a window boundary are accepted.
type Limiter struct {
	mu      sync.Mutex
	window  time.Duration
	max     int
	records map[string]record
}

// New creates a Limiter. Non-positive arguments fall back to the defaults.
func New(window time.Duration, max int) *Limiter {
	if window <= 0 {
		window = DefaultWindow
	}
	if max <= 0 {
		max = DefaultMaxRequests
	}
	return &Limiter{
		window:  window,
		max:     max,
		records: make(map[string]record),
	}
}

// Allow records a request from id at now and reports whether it may proceed.
func (l *Limiter) Allow(id string, now time.Time) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	rec, ok := l.records[id]
	if !ok || now.Sub(rec.windowStart) >= l.window {
		l.records[id] = record{count: 1, windowStart: now}
		return true
	}
	if rec.count < l.max {
		rec.count++
		l.records[id] = rec
		return true
	}
	return false
}

// Window returns the window length.
func (l *Limiter) Window() time.Duration { return l.window }

// Sweep drops records whose window has expired and returns how many were removed.
func (l *Limiter) Sweep(now time.Time) int {
	l.mu.Lock()
	defer l.mu.Unlock()

	removed := 0
	for id, rec := range l.records {
		if now.Sub(rec.windowStart) >= l.window {
			delete(l.records, id)
			removed++
		}
	}
	return removed
}

// Len returns the number of tracked identifiers.
func (l *Limiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.records)
}

// Run sweeps expired records every interval until ctx is done.
func (l *Limiter) Run(ctx context.Context, interval time.Duration, now func() time.Time) {
	if interval <= 0 {
		interval = l.window
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			l.Sweep(now())
		}
	}
}
