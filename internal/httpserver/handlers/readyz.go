package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/MrSnakeDoc/profileqr/internal/httpserver/deps"
	"github.com/MrSnakeDoc/profileqr/internal/logger"
)

const pingTimeout = 2 * time.Second

type readyzResponse struct {
	Ready  bool   `json:"ready"`
	Reason string `json:"reason,omitempty"`
}

// Readyz reports 503 until the generator is wired. A configured mirror that
// does not answer keeps the service ready: generation falls back to the
// in-process cache.
func Readyz(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if d.Generator == nil || d.Pipeline == nil || d.States == nil {
			writeJSON(w, http.StatusServiceUnavailable, readyzResponse{Reason: "not initialized"})
			return
		}

		if d.Mirror != nil {
			ctx, cancel := context.WithTimeout(r.Context(), pingTimeout)
			defer cancel()
			if err := d.Mirror.Ping(ctx); err != nil {
				d.Logger.Warn("artifact mirror not reachable", logger.Error(err))
			}
		}

		writeJSON(w, http.StatusOK, readyzResponse{Ready: true})
	}
}
