package routes

import (
	"github.com/MrSnakeDoc/profileqr/internal/httpserver/deps"
	"github.com/MrSnakeDoc/profileqr/internal/httpserver/mw"
)

// opsOnly restricts operational endpoints to AllowedCIDRS.
func opsOnly(d deps.Deps) Middleware {
	return mw.AllowOnlyCIDRS(d.AllowedCIDRS, d.TrustProxy, d.Logger)
}

// hostOnly applies the Host allow-list to public endpoints.
func hostOnly(d deps.Deps) Middleware {
	return mw.EnforceHost(d.AllowedHosts, d.Logger)
}

func normalizeLimited(d deps.Deps) Middleware {
	return mw.RateLimit(d.NormalizeLimiter, d.TrustProxy, d.Logger)
}

func generateLimited(d deps.Deps) Middleware {
	return mw.RateLimit(d.GenerateLimiter, d.TrustProxy, d.Logger)
}
