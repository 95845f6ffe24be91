// Package generate validates generation requests and serves them through the
// artifact cache.
package generate

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/MrSnakeDoc/profileqr/internal/cache"
	"github.com/MrSnakeDoc/profileqr/internal/domain"
	"github.com/MrSnakeDoc/profileqr/internal/logger"
	"github.com/MrSnakeDoc/profileqr/internal/render"
	"github.com/MrSnakeDoc/profileqr/internal/validation"
)

// DefaultConcurrency bounds renders running at once inside one batch.
const DefaultConcurrency = 4

// Error codes reported per batch item
const (
	CodeValidation = "validation_failed"
	CodeGeneration = "generation_failed"
	CodeCancelled  = "cancelled"
)

// Request is one generation request. Config is merged over the defaults.
type Request struct {
	Content string                      `json:"content"`
	Config  *domain.RendererConfigPatch `json:"config,omitempty"`
	Format  domain.Format               `json:"format,omitempty"`
}

type Dimensions struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Response is a generated (or cached) artifact.
type Response struct {
	Content     string                `json:"content"`
	Config      domain.RendererConfig `json:"config"`
	Artifact    string                `json:"artifact"`
	Dimensions  Dimensions            `json:"dimensions"`
	GeneratedAt time.Time             `json:"generatedAt"`
	Format      domain.Format         `json:"format"`
	FromCache   bool                  `json:"fromCache"`
	Key         string                `json:"key"`

	// Raw is the undecorated artifact, for endpoints that stream the image.
	Raw domain.Artifact `json:"-"`
}

// ItemError describes why one batch item failed.
type ItemError struct {
	Message   string            `json:"message"`
	Code      string            `json:"code"`
	Retryable bool              `json:"retryable"`
	Details   validation.Errors `json:"details,omitempty"`
}

// BatchItem is the outcome of one request in a batch. Exactly one of
// Response and Error is set.
type BatchItem struct {
	Index    int        `json:"index"`
	Response *Response  `json:"response,omitempty"`
	Error    *ItemError `json:"error,omitempty"`
}

type Options struct {
	Cache       *cache.Cache
	Render      cache.RenderFunc
	Logger      logger.Logger
	Concurrency int
}

type Service struct {
	cache       *cache.Cache
	render      cache.RenderFunc
	logger      logger.Logger
	concurrency int
}

func New(opts Options) *Service {
	if opts.Cache == nil {
		opts.Cache = cache.New(cache.Options{})
	}
	if opts.Logger == nil {
		opts.Logger = logger.NewNop()
	}
	if opts.Concurrency < 1 {
		opts.Concurrency = DefaultConcurrency
	}
	return &Service{
		cache:       opts.Cache,
		render:      opts.Render,
		logger:      opts.Logger,
		concurrency: opts.Concurrency,
	}
}

// Cache returns the underlying artifact cache.
func (s *Service) Cache() *cache.Cache { return s.cache }

// Generate validates req, resolves its config over the defaults and returns
// the cached artifact or renders a new one. Validation failures, including a
// size below the symbol's module count, are returned as validation.Errors.
// Other render failures are returned as *cache.GenerationError.
func (s *Service) Generate(ctx context.Context, req Request) (*Response, error) {
	if errs := validation.GenerationRequest(req.Content, req.Config, req.Format); len(errs) > 0 {
		return nil, errs
	}

	cfg := domain.ResolveRendererConfig(req.Config)
	format := req.Format
	if format == "" {
		format = domain.FormatPNG
	}

	res, err := s.cache.GetOrGenerate(ctx, req.Content, cfg, format, s.render)
	if err != nil {
		// the symbol only turns out too dense for the size once encoded
		var sizeErr *render.SizeError
		if errors.As(err, &sizeErr) {
			return nil, validation.Errors{{
				Message: fmt.Sprintf("must be at least %d for this content", sizeErr.Modules),
				Path:    "config.size",
				Code:    validation.CodeTooSmall,
			}}
		}
		var genErr *cache.GenerationError
		if errors.As(err, &genErr) {
			s.logger.Warn("artifact generation failed",
				logger.String("key", genErr.Key),
				logger.Error(genErr.Err))
		}
		return nil, err
	}

	return &Response{
		Content:     req.Content,
		Config:      cfg,
		Artifact:    res.Artifact.DataURL(),
		Dimensions:  Dimensions{Width: res.Artifact.Width, Height: res.Artifact.Height},
		GeneratedAt: res.Artifact.GeneratedAt,
		Format:      res.Artifact.Format,
		FromCache:   res.FromCache,
		Key:         res.Key,
		Raw:         res.Artifact,
	}, nil
}

// GenerateBatch runs every request with bounded concurrency. A failing item
// never fails the batch; results keep the input order.
func (s *Service) GenerateBatch(ctx context.Context, reqs []Request) []BatchItem {
	items := make([]BatchItem, len(reqs))

	var g errgroup.Group
	g.SetLimit(s.concurrency)
	for i, req := range reqs {
		i, req := i, req
		g.Go(func() error {
			items[i] = BatchItem{Index: i}
			resp, err := s.Generate(ctx, req)
			if err != nil {
				items[i].Error = NewItemError(err)
				return nil
			}
			items[i].Response = resp
			return nil
		})
	}
	_ = g.Wait()

	failed := 0
	for _, it := range items {
		if it.Error != nil {
			failed++
		}
	}
	s.logger.Debug("batch generated",
		logger.Int("items", len(items)),
		logger.Int("failed", failed))

	return items
}

// NewItemError classifies err for per-item reporting.
func NewItemError(err error) *ItemError {
	if errs, ok := validation.As(err); ok {
		return &ItemError{Message: "invalid generation request", Code: CodeValidation, Details: errs}
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return &ItemError{Message: "generation abandoned", Code: CodeCancelled, Retryable: true}
	}
	return &ItemError{Message: err.Error(), Code: CodeGeneration, Retryable: true}
}
