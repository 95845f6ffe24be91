// Package ratelimit implements per-client fixed-window admission control.
package ratelimit

import (
	"fmt"
	"sync"
	"time"
)

const (
	// Window is the fixed admission window.
	Window = 60 * time.Second
	// RetryAfterSeconds is returned with every rejection.
	RetryAfterSeconds = 60
)

// Config controls a Limiter.
type Config struct {
	MaxRequests  int              // admitted calls per client per window
	MaxBatchSize int              // largest batch accepted by CheckBatch (0 = no batch limit)
	MaxEntries   int              // sweep expired windows when the map reaches this size (0 = never)
	Now          func() time.Time // defaults to time.Now
}

// Decision is the outcome of one admission check.
type Decision struct {
	Allowed    bool
	Limit      int
	Remaining  int
	RetryAfter int // seconds, 0 when allowed
	ResetAt    time.Time
}

// LimitError is returned when a client has exhausted its window.
type LimitError struct {
	RetryAfter int
}

func (e *LimitError) Error() string {
	return fmt.Sprintf("rate limit exceeded, retry after %ds", e.RetryAfter)
}

// BatchSizeError is returned when a batch is larger than allowed. It is
// raised before any window slot is consumed.
type BatchSizeError struct {
	Size int
	Max  int
}

func (e *BatchSizeError) Error() string {
	return fmt.Sprintf("batch of %d items exceeds maximum of %d", e.Size, e.Max)
}

type window struct {
	count   int
	resetAt time.Time
}

// Limiter owns the client -> window map. All access goes through its methods.
type Limiter struct {
	cfg     Config
	mu      sync.Mutex
	windows map[string]*window
}

// New returns an empty limiter.
func New(cfg Config) *Limiter {
	if cfg.MaxRequests < 1 {
		cfg.MaxRequests = 1
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Limiter{
		cfg:     cfg,
		windows: make(map[string]*window, 256),
	}
}

// Limit returns the configured per-window maximum.
func (l *Limiter) Limit() int {
	return l.cfg.MaxRequests
}

// CanProceed consumes one slot for clientID and reports whether it was admitted.
func (l *Limiter) CanProceed(clientID string) bool {
	return l.Check(clientID).Allowed
}

// Check consumes one slot for clientID. A rejected call leaves the window untouched.
func (l *Limiter) Check(clientID string) Decision {
	now := l.cfg.Now()

	l.mu.Lock()
	defer l.mu.Unlock()

	w := l.windows[clientID]
	if w == nil || !now.Before(w.resetAt) {
		if w == nil && l.cfg.MaxEntries > 0 && len(l.windows) >= l.cfg.MaxEntries {
			l.sweepLocked(now)
		}
		w = &window{count: 1, resetAt: now.Add(Window)}
		l.windows[clientID] = w
		return l.allowed(w)
	}

	if w.count >= l.cfg.MaxRequests {
		return Decision{
			Allowed:    false,
			Limit:      l.cfg.MaxRequests,
			Remaining:  0,
			RetryAfter: RetryAfterSeconds,
			ResetAt:    w.resetAt,
		}
	}

	w.count++
	return l.allowed(w)
}

func (l *Limiter) allowed(w *window) Decision {
	return Decision{
		Allowed:   true,
		Limit:     l.cfg.MaxRequests,
		Remaining: l.cfg.MaxRequests - w.count,
		ResetAt:   w.resetAt,
	}
}

// CheckBatch rejects batches over MaxBatchSize before consuming a slot, then
// charges a single slot for the whole batch.
func (l *Limiter) CheckBatch(clientID string, size int) (Decision, error) {
	if l.cfg.MaxBatchSize > 0 && size > l.cfg.MaxBatchSize {
		return Decision{Limit: l.cfg.MaxRequests}, &BatchSizeError{Size: size, Max: l.cfg.MaxBatchSize}
	}
	d := l.Check(clientID)
	if !d.Allowed {
		return d, &LimitError{RetryAfter: d.RetryAfter}
	}
	return d, nil
}

// Sweep drops windows that have expired at now and returns how many were removed.
func (l *Limiter) Sweep(now time.Time) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.sweepLocked(now)
}

func (l *Limiter) sweepLocked(now time.Time) int {
	removed := 0
	for id, w := range l.windows {
		if !now.Before(w.resetAt) {
			delete(l.windows, id)
			removed++
		}
	}
	return removed
}

// Reset forgets clientID's window.
func (l *Limiter) Reset(clientID string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.windows, clientID)
}

// Len returns the number of tracked clients.
func (l *Limiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.windows)
}
