package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/profileqr/internal/httpserver/deps"
	"github.com/MrSnakeDoc/profileqr/internal/httpserver/handlers"
)

func init() { Register(registerCache, opsOnly) }

func registerCache(r chi.Router, d deps.Deps) {
	r.Delete("/cache", handlers.ClearCache(d))
	r.Delete("/cache/{key}", handlers.EvictArtifact(d))
}
