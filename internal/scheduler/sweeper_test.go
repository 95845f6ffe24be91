package scheduler

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/goleak"

	"github.com/MrSnakeDoc/profileqr/internal/cache"
	"github.com/MrSnakeDoc/profileqr/internal/domain"
	"github.com/MrSnakeDoc/profileqr/internal/logger"
	"github.com/MrSnakeDoc/profileqr/internal/ratelimit"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestSweeper_Collect(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }

	c := cache.New(cache.Options{Now: clock})
	c.Put("old", domain.Artifact{Data: []byte("x"), Format: domain.FormatPNG}, time.Minute)
	c.Put("fresh", domain.Artifact{Data: []byte("y"), Format: domain.FormatPNG}, 2*time.Hour)

	l := ratelimit.New(ratelimit.Config{MaxRequests: 5, Now: clock})
	l.Check("idle")

	s := NewSweeper(map[string]Target{
		"cache":   TargetFunc(c.PurgeExpired),
		"limiter": l,
	}, logger.NewNop(), time.Hour)
	now = now.Add(time.Hour)
	s.now = clock

	if removed := s.Collect(); removed != 2 {
		t.Errorf("Collect() removed %d, want 2", removed)
	}
	if c.Len() != 1 {
		t.Errorf("cache Len() = %d, want 1", c.Len())
	}
	if l.Len() != 0 {
		t.Errorf("limiter Len() = %d, want 0", l.Len())
	}
}

func TestSweeper_StartStop(t *testing.T) {
	defer goleak.VerifyNone(t)

	var calls atomic.Int32
	target := TargetFunc(func(time.Time) int {
		calls.Add(1)
		return 0
	})

	s := NewSweeper(map[string]Target{"count": target}, nil, 5*time.Millisecond)
	s.Start(context.Background())

	deadline := time.After(time.Second)
	for calls.Load() < 2 {
		select {
		case <-deadline:
			t.Fatal("sweeper did not tick")
		case <-time.After(time.Millisecond):
		}
	}

	s.Stop()
	s.Stop()
}

func TestSweeper_ContextCancel(t *testing.T) {
	defer goleak.VerifyNone(t)

	ctx, cancel := context.WithCancel(context.Background())
	s := NewSweeper(nil, nil, time.Hour)
	s.Start(ctx)
	cancel()
	s.Stop()
}
