package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"
)

// maxStateBytes is the hard ceiling on the state cookie payload.
const maxStateBytes = 3900

type Config struct {
	ListenPort      string        // ex: ":8080"
	ShutdownTimeout time.Duration // ex: 5s
	RequestTimeout  time.Duration // chi middleware.Timeout applied to every request

	LogLevel  string // "debug" | "info" | "warn" | "error"
	PrettyLog bool   // true => zap dev (color), false => zap prod (JSON)

	// Identifier analysis
	RiskPolicyFile string // optional YAML override of the suspicion weights

	// State cookie
	StateCookieName   string        // cookie holding the persisted state blob
	StateCookieSecure bool          // set the Secure attribute
	StateCookieMaxAge time.Duration // cookie lifetime
	StateMaxBytes     int           // ceiling on the encoded blob

	// Artifact cache
	CacheCapacity int           // max in-memory entries
	CacheTTL      time.Duration // default entry lifetime
	SweepInterval time.Duration // interval between expired-entry sweeps

	// Rate limiting
	NormalizeLimit   int // admitted normalize calls per client per minute
	GenerateLimit    int // admitted generate calls per client per minute
	MaxBatchSize     int // largest accepted batch
	BatchConcurrency int // concurrent renders inside one batch
	LimiterMaxKeys   int // sweep idle windows once this many clients are tracked

	// Redis (optional shared artifact mirror, enabled when RedisAddr is set)
	RedisAddr             string        // ex: "localhost:6379"
	RedisUser             string        // optional
	RedisPassword         string        // optional
	RedisPasswordRequired bool          // true => require password, false => allow empty password
	RedisDB               int           // Redis DB number
	RedisDT               time.Duration // Redis dial timeout (ex: 5s)
	RedisRT               time.Duration // Redis read timeout (ex: 3s)
	RedisWT               time.Duration // Redis write timeout (ex: 3s)
	RedisMaxWait          time.Duration // max wait between retries (ex: 10s)
	RedisPingTimeout      time.Duration // timeout for each ping attempt (ex: 5s)
	RedisPoolSize         int           // Redis connection pool size
	RedisConnectTimeout   time.Duration // Total time to retry connecting (ex: 30s)
	RedisRetryInterval    time.Duration // Initial wait between retries (ex: 2s, grows exponentially)
	RedisWarnThreshold    int           // warn after this many attempts

	AllowedHosts   []string // optional, restrict access to specific Host headers
	AllowedCIDRS   []string // optional, restrict /healthz, /readyz and /infra to these networks
	AllowedOrigins []string // CORS origins for the API (empty = same-origin only)
	TrustProxy     bool     // true => trust X-Forwarded-For headers (e.g. cloudflared)
}

// RedisEnabled reports whether the shared artifact mirror is configured.
func (c *Config) RedisEnabled() bool {
	return c.RedisAddr != ""
}

func Load() *Config {
	cfg := &Config{
		// Server settings
		ListenPort:      getenv("PROFILEQR_LISTEN_PORT", ":8080"),
		ShutdownTimeout: mustDuration("PROFILEQR_SHUTDOWN_TIMEOUT", 5*time.Second),
		RequestTimeout:  mustDuration("PROFILEQR_REQUEST_TIMEOUT", 15*time.Second),

		// Logging
		LogLevel:  getenv("PROFILEQR_LOG_LEVEL", "info"),
		PrettyLog: mustBool("PROFILEQR_PRETTY_LOG", true),

		RiskPolicyFile: getenv("PROFILEQR_RISK_POLICY_FILE", ""),

		// State cookie
		StateCookieName:   getenv("PROFILEQR_STATE_COOKIE", "profileqr_state"),
		StateCookieSecure: mustBool("PROFILEQR_STATE_COOKIE_SECURE", true),
		StateCookieMaxAge: mustDuration("PROFILEQR_STATE_COOKIE_MAX_AGE", 90*24*time.Hour),
		StateMaxBytes:     getenvInt("PROFILEQR_STATE_MAX_BYTES", 3900),

		// Cache
		CacheCapacity: getenvInt("PROFILEQR_CACHE_CAPACITY", 500),
		CacheTTL:      mustDuration("PROFILEQR_CACHE_TTL", time.Hour),
		SweepInterval: mustDuration("PROFILEQR_SWEEP_INTERVAL", 5*time.Minute),

		// Rate limiting
		NormalizeLimit:   getenvInt("PROFILEQR_NORMALIZE_LIMIT", 30),
		GenerateLimit:    getenvInt("PROFILEQR_GENERATE_LIMIT", 10),
		MaxBatchSize:     getenvInt("PROFILEQR_MAX_BATCH_SIZE", 10),
		BatchConcurrency: getenvInt("PROFILEQR_BATCH_CONCURRENCY", 4),
		LimiterMaxKeys:   getenvInt("PROFILEQR_LIMITER_MAX_KEYS", 10000),

		// Redis settings
		RedisAddr:             getenv("PROFILEQR_REDIS_ADDR", ""), // Optional, empty = mirror disabled
		RedisUser:             getenv("PROFILEQR_REDIS_USERNAME", "default"),
		RedisPasswordRequired: mustBool("PROFILEQR_REDIS_PASSWORD_REQUIRED", false),
		RedisPassword:         getenv("PROFILEQR_REDIS_PASSWORD", ""),
		RedisDB:               getenvInt("PROFILEQR_REDIS_DB", 0),
		RedisDT:               mustDuration("REDIS_DIAL_TIMEOUT", 5*time.Second),
		RedisRT:               mustDuration("REDIS_READ_TIMEOUT", 3*time.Second),
		RedisWT:               mustDuration("REDIS_WRITE_TIMEOUT", 3*time.Second),
		RedisMaxWait:          mustDuration("REDIS_MAX_WAIT", 10*time.Second),
		RedisPingTimeout:      mustDuration("REDIS_PING_TIMEOUT", 5*time.Second),
		RedisPoolSize:         getenvInt("REDIS_POOL_SIZE", 10),
		RedisConnectTimeout:   mustDuration("REDIS_CONNECT_TIMEOUT", 30*time.Second),
		RedisRetryInterval:    mustDuration("REDIS_RETRY_INTERVAL", 2*time.Second),
		RedisWarnThreshold:    getenvInt("REDIS_WARN_THRESHOLD", 3),

		// Access restrictions
		AllowedHosts:   splitAndTrim(getenv("PROFILEQR_ALLOWED_HOSTS", "")),
		AllowedCIDRS:   parseAllowedIPs(getenv("PROFILEQR_ALLOWED_CIDRS", "")),
		AllowedOrigins: splitAndTrim(getenv("PROFILEQR_ALLOWED_ORIGINS", "")),
		TrustProxy:     mustBool("PROFILEQR_TRUST_PROXY", false),
	}

	cfg.validate()

	// Log config only in debug mode with redacted sensitive fields
	if cfg.LogLevel == "debug" {
		cfgCopy := *cfg
		cfgCopy.RedisPassword = "***REDACTED***"
		if cfg.RedisUser != "" {
			cfgCopy.RedisUser = "***REDACTED***"
		}
		log.Printf("[DEBUG] cfg: %+v\n", cfgCopy)
	}

	return cfg
}

func (c *Config) validate() {
	if c.RedisEnabled() && c.RedisPasswordRequired && c.RedisPassword == "" {
		panic("❌ FATAL: PROFILEQR_REDIS_PASSWORD is required when PROFILEQR_REDIS_PASSWORD_REQUIRED=true")
	}
	if c.StateMaxBytes <= 0 || c.StateMaxBytes > maxStateBytes {
		panic(fmt.Sprintf("❌ FATAL: PROFILEQR_STATE_MAX_BYTES must be in 1..%d, got %d", maxStateBytes, c.StateMaxBytes))
	}
	if c.NormalizeLimit < 1 || c.GenerateLimit < 1 {
		panic("❌ FATAL: PROFILEQR_NORMALIZE_LIMIT and PROFILEQR_GENERATE_LIMIT must be >= 1")
	}
	if c.MaxBatchSize < 1 {
		panic(fmt.Sprintf("❌ FATAL: PROFILEQR_MAX_BATCH_SIZE must be >= 1, got %d", c.MaxBatchSize))
	}
	if c.BatchConcurrency < 1 {
		c.BatchConcurrency = 1
	}
}

// helpers
func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return def
}

func mustBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(v)
		if err == nil {
			return b
		}
	}
	return def
}

func mustDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

func parseAllowedIPs(allowed string) []string {
	if allowed == "" {
		return nil
	}
	ips := make([]string, 0, 4)
	for _, ip := range splitAndTrim(allowed) {
		if ip != "" {
			ips = append(ips, ip)
		}
	}
	return ips
}

func splitAndTrim(s string) []string {
	if s == "" {
		return nil
	}
	raw := strings.Split(s, ",")
	parts := make([]string, 0, len(raw))
	for _, part := range raw {
		trimmed := strings.TrimSpace(part)
		// Remove surrounding quotes if present
		trimmed = strings.Trim(trimmed, `"'`)
		if trimmed != "" {
			parts = append(parts, trimmed)
		}
	}
	return parts
}
