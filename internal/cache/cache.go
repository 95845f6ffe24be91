// Package cache is an in-process, content-addressed artifact cache.
//
// Entries are keyed by a hash of the generation inputs, so two requests for
// the same content and render settings always share one entry.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"math"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/MrSnakeDoc/profileqr/internal/domain"
	"github.com/MrSnakeDoc/profileqr/internal/logger"
)

const (
	// DefaultCapacity is the maximum number of entries kept in memory.
	DefaultCapacity = 500
	// DefaultTTL is applied when Put is called with ttl <= 0.
	DefaultTTL = time.Hour
	// EvictFraction of entries (least recently accessed first) is dropped when full.
	EvictFraction = 0.2
)

// Entry is one cached artifact.
type Entry struct {
	Key            string
	Artifact       domain.Artifact
	ExpiresAt      time.Time
	AccessCount    int
	LastAccessedAt time.Time
}

// Stats is a snapshot of cache counters.
type Stats struct {
	Entries   int   `json:"entries"`
	Capacity  int   `json:"capacity"`
	Hits      int64 `json:"hits"`
	Misses    int64 `json:"misses"`
	Evictions int64 `json:"evictions"`
	Expired   int64 `json:"expired"`
}

// Mirror is an optional shared second tier. Errors are logged and treated
// as misses; the in-memory cache stays authoritative for this process.
type Mirror interface {
	Load(ctx context.Context, key string) (domain.Artifact, bool, error)
	Store(ctx context.Context, key string, a domain.Artifact, ttl time.Duration) error
}

// RenderFunc produces an artifact for content rendered with cfg.
type RenderFunc func(ctx context.Context, content string, cfg domain.RendererConfig, format domain.Format) (domain.Artifact, error)

// GenerationError wraps a renderer failure. Failures are never cached and
// the caller may retry.
type GenerationError struct {
	Key string
	Err error
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("artifact generation failed: %v", e.Err)
}

func (e *GenerationError) Unwrap() error { return e.Err }

// ErrEmptyArtifact is returned (wrapped in GenerationError) when the renderer
// reports success but produces no bytes.
var ErrEmptyArtifact = errors.New("renderer returned an empty artifact")

// Options configures a Cache.
type Options struct {
	Capacity   int
	DefaultTTL time.Duration
	Mirror     Mirror
	Logger     logger.Logger
	Now        func() time.Time
}

// Cache owns the key -> entry map. All access goes through its methods.
type Cache struct {
	mu      sync.Mutex
	entries map[string]*Entry

	capacity   int
	defaultTTL time.Duration
	mirror     Mirror
	logger     logger.Logger
	now        func() time.Time

	hits, misses, evictions, expired int64
}

// New returns an empty cache.
func New(opts Options) *Cache {
	if opts.Capacity <= 0 {
		opts.Capacity = DefaultCapacity
	}
	if opts.DefaultTTL <= 0 {
		opts.DefaultTTL = DefaultTTL
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Logger == nil {
		opts.Logger = logger.NewNop()
	}
	return &Cache{
		entries:    make(map[string]*Entry, opts.Capacity),
		capacity:   opts.Capacity,
		defaultTTL: opts.DefaultTTL,
		mirror:     opts.Mirror,
		logger:     opts.Logger,
		now:        opts.Now,
	}
}

// Key hashes content together with every config field that changes the output.
func Key(content string, cfg domain.RendererConfig, format domain.Format) string {
	if format == "" {
		format = domain.FormatPNG
	}
	h := sha256.New()
	// length-prefix content so no content can collide with the config suffix
	h.Write([]byte(strconv.Itoa(len(content))))
	h.Write([]byte{':'})
	h.Write([]byte(content))
	fmt.Fprintf(h, "|size=%d|ecl=%s|margin=%d|dark=%s|light=%s|format=%s",
		cfg.Size, cfg.ErrorCorrectionLevel, cfg.Margin, cfg.Colors.Dark, cfg.Colors.Light, format)
	return hex.EncodeToString(h.Sum(nil))
}

// Get returns the artifact stored under key if present and unexpired. An
// expired entry is removed on access. A hit refreshes access metadata.
func (c *Cache) Get(key string) (domain.Artifact, bool) {
	now := c.now()

	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		c.misses++
		return domain.Artifact{}, false
	}
	if !now.Before(e.ExpiresAt) {
		delete(c.entries, key)
		c.expired++
		c.misses++
		return domain.Artifact{}, false
	}
	e.AccessCount++
	e.LastAccessedAt = now
	c.hits++
	return e.Artifact, true
}

// Put stores a under key. ttl <= 0 selects the default TTL.
func (c *Cache) Put(key string, a domain.Artifact, ttl time.Duration) {
	if ttl <= 0 {
		ttl = c.defaultTTL
	}
	now := c.now()

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.entries[key]; !exists && len(c.entries) >= c.capacity {
		c.makeRoomLocked(now)
	}
	c.entries[key] = &Entry{
		Key:            key,
		Artifact:       a,
		ExpiresAt:      now.Add(ttl),
		AccessCount:    0,
		LastAccessedAt: now,
	}
}

// makeRoomLocked purges expired entries, then evicts the least recently
// accessed EvictFraction of entries if the cache is still full.
func (c *Cache) makeRoomLocked(now time.Time) {
	c.purgeLocked(now)
	if len(c.entries) < c.capacity {
		return
	}

	n := int(math.Ceil(float64(len(c.entries)) * EvictFraction))
	if n < 1 {
		n = 1
	}
	victims := make([]*Entry, 0, len(c.entries))
	for _, e := range c.entries {
		victims = append(victims, e)
	}
	sort.Slice(victims, func(i, j int) bool {
		return victims[i].LastAccessedAt.Before(victims[j].LastAccessedAt)
	})
	for _, e := range victims[:n] {
		delete(c.entries, e.Key)
	}
	c.evictions += int64(n)
	c.logger.Debug("cache full, evicted least recently accessed entries",
		logger.Int("evicted", n),
		logger.Int("remaining", len(c.entries)))
}

func (c *Cache) purgeLocked(now time.Time) int {
	removed := 0
	for k, e := range c.entries {
		if !now.Before(e.ExpiresAt) {
			delete(c.entries, k)
			removed++
		}
	}
	c.expired += int64(removed)
	return removed
}

// PurgeExpired removes every entry expired at now.
func (c *Cache) PurgeExpired(now time.Time) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.purgeLocked(now)
}

// Delete removes key.
func (c *Cache) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, key)
}

// Clear removes every entry and keeps the counters.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]*Entry, c.capacity)
}

// Len returns the number of entries, expired ones included until purged.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Stats returns a snapshot of the cache counters.
func (c *Cache) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Stats{
		Entries:   len(c.entries),
		Capacity:  c.capacity,
		Hits:      c.hits,
		Misses:    c.misses,
		Evictions: c.evictions,
		Expired:   c.expired,
	}
}
