package cache

import (
	"context"
	"fmt"

	"github.com/MrSnakeDoc/profileqr/internal/domain"
	"github.com/MrSnakeDoc/profileqr/internal/logger"
)

// Result is the outcome of GetOrGenerate.
type Result struct {
	Key       string
	Artifact  domain.Artifact
	FromCache bool
}

// GetOrGenerate returns the cached artifact for (content, cfg, format) or
// renders, stores and returns a new one.
//
// The lock is not held while rendering: two concurrent misses on the same key
// may both render and the last successful write wins. Only successful,
// non-empty artifacts are stored, so a failed or abandoned render leaves the
// cache unchanged.
func (c *Cache) GetOrGenerate(ctx context.Context, content string, cfg domain.RendererConfig, format domain.Format, render RenderFunc) (Result, error) {
	if format == "" {
		format = domain.FormatPNG
	}
	key := Key(content, cfg, format)

	if a, ok := c.Get(key); ok {
		return Result{Key: key, Artifact: a, FromCache: true}, nil
	}

	if a, ok := c.loadMirror(ctx, key); ok {
		c.Put(key, a, 0)
		return Result{Key: key, Artifact: a, FromCache: true}, nil
	}

	if err := ctx.Err(); err != nil {
		return Result{Key: key}, fmt.Errorf("generation abandoned: %w", err)
	}

	a, err := render(ctx, content, cfg, format)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return Result{Key: key}, fmt.Errorf("generation abandoned: %w", ctxErr)
		}
		return Result{Key: key}, &GenerationError{Key: key, Err: err}
	}
	if len(a.Data) == 0 {
		return Result{Key: key}, &GenerationError{Key: key, Err: ErrEmptyArtifact}
	}
	if err := ctx.Err(); err != nil {
		return Result{Key: key}, fmt.Errorf("generation abandoned: %w", err)
	}

	c.Put(key, a, 0)
	c.storeMirror(ctx, key, a)

	return Result{Key: key, Artifact: a, FromCache: false}, nil
}

func (c *Cache) loadMirror(ctx context.Context, key string) (domain.Artifact, bool) {
	if c.mirror == nil {
		return domain.Artifact{}, false
	}
	a, ok, err := c.mirror.Load(ctx, key)
	if err != nil {
		c.logger.Warn("artifact mirror load failed, rendering locally",
			logger.String("key", key),
			logger.Error(err))
		return domain.Artifact{}, false
	}
	if !ok || len(a.Data) == 0 {
		return domain.Artifact{}, false
	}
	return a, true
}

func (c *Cache) storeMirror(ctx context.Context, key string, a domain.Artifact) {
	if c.mirror == nil {
		return
	}
	if err := c.mirror.Store(ctx, key, a, c.defaultTTL); err != nil {
		c.logger.Warn("artifact mirror store failed",
			logger.String("key", key),
			logger.Error(err))
	}
}
