package handlers

import (
	"context"
	"net/http"

	"github.com/MrSnakeDoc/profileqr/internal/cache"
	"github.com/MrSnakeDoc/profileqr/internal/httpserver/deps"
)

type componentStatus struct {
	OK      bool         `json:"ok"`
	Mode    string       `json:"mode,omitempty"`
	Impact  string       `json:"impact,omitempty"`
	Error   string       `json:"error,omitempty"`
	Entries *int         `json:"entries,omitempty"`
	Cache   *cache.Stats `json:"cache,omitempty"`
	Limit   *int         `json:"limit,omitempty"`
	Clients *int         `json:"clients,omitempty"`
}

type infraResponse struct {
	Mode       string                     `json:"mode"`
	Components map[string]componentStatus `json:"components"`
}

func Infra(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		stats := d.Generator.Cache().Stats()

		components := map[string]componentStatus{
			"cache":             {OK: true, Mode: "memory", Cache: &stats},
			"redis":             checkMirror(r.Context(), d),
			"normalize_limiter": limiterStatus(d.NormalizeLimiter.Limit(), d.NormalizeLimiter.Len()),
			"generate_limiter":  limiterStatus(d.GenerateLimiter.Limit(), d.GenerateLimiter.Len()),
			"state":             {OK: true, Mode: "cookie", Limit: intPtr(d.States.MaxBytes())},
		}

		writeJSON(w, http.StatusOK, infraResponse{
			Mode:       determineMode(components),
			Components: components,
		})
	}
}

// determineMode is "degraded" when a configured mirror is down and
// "optimal" otherwise. A disabled mirror is not a fault.
func determineMode(components map[string]componentStatus) string {
	if redis, exists := components["redis"]; exists && !redis.OK && redis.Mode != "disabled" {
		return "degraded"
	}
	return "optimal"
}

func checkMirror(ctx context.Context, d deps.Deps) componentStatus {
	if d.Mirror == nil {
		return componentStatus{
			OK:     true,
			Mode:   "disabled",
			Impact: "artifacts-cached-per-process",
		}
	}

	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()

	if err := d.Mirror.Ping(ctx); err != nil {
		return componentStatus{
			OK:     false,
			Mode:   "degraded",
			Impact: "artifacts-cached-per-process",
			Error:  "unreachable",
		}
	}

	status := componentStatus{OK: true, Mode: "optimal", Impact: "artifacts-shared"}
	if n, err := d.Mirror.Count(ctx); err == nil {
		status.Entries = &n
	}
	return status
}

func limiterStatus(limit, clients int) componentStatus {
	return componentStatus{OK: true, Mode: "fixed-window", Limit: &limit, Clients: &clients}
}

func intPtr(v int) *int { return &v }
