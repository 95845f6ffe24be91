package deps

import (
	"time"

	"github.com/MrSnakeDoc/profileqr/internal/generate"
	"github.com/MrSnakeDoc/profileqr/internal/identifier"
	"github.com/MrSnakeDoc/profileqr/internal/logger"
	"github.com/MrSnakeDoc/profileqr/internal/ratelimit"
	"github.com/MrSnakeDoc/profileqr/internal/state"
	redisstore "github.com/MrSnakeDoc/profileqr/internal/store/redis"
)

type Deps struct {
	Logger           logger.Logger
	StartTime        time.Time
	Version          string
	Commit           string
	BuildDate        string
	GoVersion        string
	TimeNow          func() time.Time     // for testing, defaults to time.Now
	AllowedHosts     []string             // Host headers allowed to access the API
	AllowedCIDRS     []string             // IPs allowed to access healthz/readyz/infra endpoints
	AllowedOrigins   []string             // CORS origins allowed to call the API
	TrustProxy       bool                 // true if running behind a trusted reverse proxy (e.g., cloudflared)
	Pipeline         *identifier.Pipeline // normalize + suspicion analysis
	States           *state.Store         // client-held state cookie codec
	Generator        *generate.Service    // validation + cache + renderer
	NormalizeLimiter *ratelimit.Limiter   // gates POST /api/profile
	GenerateLimiter  *ratelimit.Limiter   // gates QR generation and batches
	Mirror           *redisstore.Store    // shared artifact mirror, nil when disabled
}

// Now returns d.TimeNow() or time.Now() when unset.
func (d Deps) Now() time.Time {
	if d.TimeNow != nil {
		return d.TimeNow()
	}
	return time.Now()
}
