package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/profileqr/internal/httpserver/deps"
	"github.com/MrSnakeDoc/profileqr/internal/httpserver/handlers"
)

func init() { Register(registerInfra, opsOnly) }

func registerInfra(r chi.Router, d deps.Deps) {
	r.Get("/infra", handlers.Infra(d))
}
