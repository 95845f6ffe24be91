package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/profileqr/internal/httpserver/deps"
	"github.com/MrSnakeDoc/profileqr/internal/httpserver/handlers"
)

func init() { Register(registerProfile, hostOnly, normalizeLimited) }

func registerProfile(r chi.Router, d deps.Deps) {
	r.Post("/api/profile", handlers.Profile(d))
}
