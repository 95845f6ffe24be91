package handlers

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/profileqr/internal/httpserver/deps"
	"github.com/MrSnakeDoc/profileqr/internal/logger"
)

type cacheEvictResponse struct {
	Evicted  int  `json:"evicted"`
	Mirrored bool `json:"mirrored"`
}

// ClearCache drops every local artifact and flushes the shared mirror.
func ClearCache(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c := d.Generator.Cache()
		n := c.Len()
		c.Clear()

		resp := cacheEvictResponse{Evicted: n}
		if d.Mirror != nil {
			ctx, cancel := context.WithTimeout(r.Context(), pingTimeout)
			defer cancel()
			if err := d.Mirror.Flush(ctx); err != nil {
				d.Logger.Error("mirror flush failed", logger.Error(err))
				writeError(w, http.StatusBadGateway, codeMirrorFailed, "artifact mirror unavailable")
				return
			}
			resp.Mirrored = true
		}

		d.Logger.Info("artifact cache cleared",
			logger.Int("evicted", n),
			logger.Bool("mirrored", resp.Mirrored))
		writeJSON(w, http.StatusOK, resp)
	}
}

// EvictArtifact removes one artifact key locally and from the mirror.
func EvictArtifact(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		key := chi.URLParam(r, "key")
		c := d.Generator.Cache()
		before := c.Len()
		c.Delete(key)

		resp := cacheEvictResponse{Evicted: before - c.Len()}
		if d.Mirror != nil {
			ctx, cancel := context.WithTimeout(r.Context(), pingTimeout)
			defer cancel()
			if err := d.Mirror.Delete(ctx, key); err != nil {
				d.Logger.Error("mirror delete failed", logger.String("key", key), logger.Error(err))
				writeError(w, http.StatusBadGateway, codeMirrorFailed, "artifact mirror unavailable")
				return
			}
			resp.Mirrored = true
		}
		writeJSON(w, http.StatusOK, resp)
	}
}
