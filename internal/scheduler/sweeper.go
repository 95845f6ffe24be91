package scheduler

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/MrSnakeDoc/profileqr/internal/logger"
)

const (
	// DefaultSweepInterval is used when the configured interval is not positive
	DefaultSweepInterval = 5 * time.Minute
)

// Target is anything holding time-bounded entries that can be dropped in bulk.
// Both *cache.Cache (PurgeExpired) and *ratelimit.Limiter (Sweep) are adapted
// through TargetFunc.
type Target interface {
	Sweep(now time.Time) int
}

// TargetFunc adapts a plain function to Target.
type TargetFunc func(now time.Time) int

func (f TargetFunc) Sweep(now time.Time) int { return f(now) }

// Sweeper periodically drops expired cache entries and idle rate-limit windows
type Sweeper struct {
	targets  map[string]Target
	logger   logger.Logger
	interval time.Duration
	now      func() time.Time

	started  atomic.Bool
	stopOnce sync.Once
	stopCh   chan struct{}
	doneCh   chan struct{}
}

// NewSweeper creates a new sweeper over the named targets
func NewSweeper(targets map[string]Target, log logger.Logger, interval time.Duration) *Sweeper {
	if interval <= 0 {
		interval = DefaultSweepInterval
	}
	if log == nil {
		log = logger.NewNop()
	}

	return &Sweeper{
		targets:  targets,
		logger:   log,
		interval: interval,
		now:      time.Now,
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}
}

// Start begins the periodic sweep. It returns immediately.
func (s *Sweeper) Start(ctx context.Context) {
	if !s.started.CompareAndSwap(false, true) {
		return
	}
	ticker := time.NewTicker(s.interval)
	go func() {
		defer close(s.doneCh)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				s.Collect()
			case <-s.stopCh:
				return
			case <-ctx.Done():
				return
			}
		}
	}()
}

// Stop stops the sweeper and waits for its goroutine to exit. Safe to call more than once.
func (s *Sweeper) Stop() {
	s.stopOnce.Do(func() { close(s.stopCh) })
	if s.started.Load() {
		<-s.doneCh
	}
}

// Collect runs one sweep over every target and returns the total removed
func (s *Sweeper) Collect() int {
	now := s.now()
	total := 0

	for name, t := range s.targets {
		removed := t.Sweep(now)
		if removed > 0 {
			s.logger.Debug("swept expired entries",
				logger.String("target", name),
				logger.Int("removed", removed))
		}
		total += removed
	}

	if total > 0 {
		s.logger.Info("sweep completed", logger.Int("total_removed", total))
	}

	return total
}
