package app

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/MrSnakeDoc/profileqr/internal/cache"
	"github.com/MrSnakeDoc/profileqr/internal/config"
	"github.com/MrSnakeDoc/profileqr/internal/generate"
	"github.com/MrSnakeDoc/profileqr/internal/httpserver"
	"github.com/MrSnakeDoc/profileqr/internal/httpserver/deps"
	"github.com/MrSnakeDoc/profileqr/internal/identifier"
	"github.com/MrSnakeDoc/profileqr/internal/logger"
	"github.com/MrSnakeDoc/profileqr/internal/ratelimit"
	"github.com/MrSnakeDoc/profileqr/internal/redis"
	"github.com/MrSnakeDoc/profileqr/internal/render"
	"github.com/MrSnakeDoc/profileqr/internal/scheduler"
	"github.com/MrSnakeDoc/profileqr/internal/state"
	redisstore "github.com/MrSnakeDoc/profileqr/internal/store/redis"
	"github.com/MrSnakeDoc/profileqr/internal/version"
)

type App struct {
	cfg         *config.Config
	logger      logger.Logger
	server      *httpserver.Server
	redisClient *goredis.Client
	sweeper     *scheduler.Sweeper
}

// NewPipeline builds the identifier pipeline, loading the risk policy file
// when one is configured.
func NewPipeline(cfg *config.Config) (*identifier.Pipeline, error) {
	if cfg.RiskPolicyFile == "" {
		return identifier.NewPipeline(nil), nil
	}
	policy, err := identifier.LoadPolicy(cfg.RiskPolicyFile)
	if err != nil {
		return nil, err
	}
	return identifier.NewPipeline(identifier.NewAnalyzer(policy)), nil
}

// New wires every component. A configured Redis mirror must answer within
// its connect timeout; without PROFILEQR_REDIS_ADDR the cache is per process.
func New(ctx context.Context, cfg *config.Config, loggerClient logger.Logger) (*App, error) {
	pipeline, err := NewPipeline(cfg)
	if err != nil {
		return nil, err
	}
	if cfg.RiskPolicyFile != "" {
		loggerClient.Info("risk policy loaded", logger.String("file", cfg.RiskPolicyFile))
	}

	var (
		redisClient *goredis.Client
		mirror      *redisstore.Store
		cacheMirror cache.Mirror
	)
	if cfg.RedisEnabled() {
		redisClient, err = redis.Connect(ctx, redis.OptionsFromConfig(cfg), loggerClient)
		if err != nil {
			return nil, fmt.Errorf("artifact mirror: %w", err)
		}
		mirror = redisstore.NewStore(redisClient)
		cacheMirror = mirror
	} else {
		loggerClient.Info("redis not configured, artifact cache is per process")
	}

	artifacts := cache.New(cache.Options{
		Capacity:   cfg.CacheCapacity,
		DefaultTTL: cfg.CacheTTL,
		Mirror:     cacheMirror,
		Logger:     loggerClient,
	})

	generator := generate.New(generate.Options{
		Cache:       artifacts,
		Render:      render.New(time.Now).Render,
		Logger:      loggerClient,
		Concurrency: cfg.BatchConcurrency,
	})

	normalizeLimiter := ratelimit.New(ratelimit.Config{
		MaxRequests: cfg.NormalizeLimit,
		MaxEntries:  cfg.LimiterMaxKeys,
	})
	generateLimiter := ratelimit.New(ratelimit.Config{
		MaxRequests:  cfg.GenerateLimit,
		MaxBatchSize: cfg.MaxBatchSize,
		MaxEntries:   cfg.LimiterMaxKeys,
	})

	states := state.New(state.Options{
		MaxBytes: cfg.StateMaxBytes,
		Cookie: state.CookieOptions{
			Name:   cfg.StateCookieName,
			Secure: cfg.StateCookieSecure,
			MaxAge: cfg.StateCookieMaxAge,
		},
	})

	sweeper := scheduler.NewSweeper(map[string]scheduler.Target{
		"cache":             scheduler.TargetFunc(artifacts.PurgeExpired),
		"normalize_limiter": normalizeLimiter,
		"generate_limiter":  generateLimiter,
	}, loggerClient, cfg.SweepInterval)

	// Dependencies passed to routes.
	d := deps.Deps{
		Logger:           loggerClient,
		StartTime:        time.Now(),
		Version:          version.Version,
		Commit:           version.Commit,
		BuildDate:        version.BuildDate,
		GoVersion:        version.GoVersion,
		TimeNow:          time.Now,
		AllowedHosts:     cfg.AllowedHosts,
		AllowedCIDRS:     cfg.AllowedCIDRS,
		AllowedOrigins:   cfg.AllowedOrigins,
		TrustProxy:       cfg.TrustProxy,
		Pipeline:         pipeline,
		States:           states,
		Generator:        generator,
		NormalizeLimiter: normalizeLimiter,
		GenerateLimiter:  generateLimiter,
		Mirror:           mirror,
	}

	return &App{
		cfg:         cfg,
		logger:      loggerClient,
		server:      httpserver.New(cfg, loggerClient, d),
		redisClient: redisClient,
		sweeper:     sweeper,
	}, nil
}

// Run serves until ctx is cancelled, SIGINT or SIGTERM, then shuts down
// within ShutdownTimeout.
func (a *App) Run(ctx context.Context) error {
	a.logger.Infof("🚀 Starting profileqr %s on %s", version.String(), a.cfg.ListenPort)

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	a.sweeper.Start(ctx)
	a.logger.Info("sweeper started", logger.Duration("interval", a.cfg.SweepInterval))

	errCh := make(chan error, 1)
	go func() {
		if err := a.server.Start(); err != nil {
			errCh <- fmt.Errorf("http server error: %w", err)
		}
	}()

	var runErr error
	select {
	case <-ctx.Done():
		a.logger.Info("⏳ Shutting down gracefully...")
	case runErr = <-errCh:
	}

	a.sweeper.Stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
	defer cancel()
	if err := a.server.Stop(shutdownCtx); err != nil && runErr == nil {
		runErr = fmt.Errorf("failed to stop server: %w", err)
	}

	if a.redisClient != nil {
		if err := a.redisClient.Close(); err != nil {
			a.logger.Warnf("failed to close redis: %v", err)
		} else {
			a.logger.Info("✅ Redis closed cleanly")
		}
	}

	if runErr != nil {
		return runErr
	}
	a.logger.Info("✅ profileqr stopped cleanly")
	return nil
}
