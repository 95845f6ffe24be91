package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/profileqr/internal/httpserver/deps"
	"github.com/MrSnakeDoc/profileqr/internal/httpserver/handlers"
)

func init() { Register(registerHealthz, opsOnly) }

func registerHealthz(r chi.Router, d deps.Deps) {
	r.Get("/healthz", handlers.Healthz(d))
}
