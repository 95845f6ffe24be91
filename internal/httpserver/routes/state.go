package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/profileqr/internal/httpserver/deps"
	"github.com/MrSnakeDoc/profileqr/internal/httpserver/handlers"
)

func init() { Register(registerState, hostOnly) }

func registerState(r chi.Router, d deps.Deps) {
	r.Get("/api/state", handlers.GetState(d))
	r.Patch("/api/state", handlers.PatchState(d))
	r.Delete("/api/state", handlers.DeleteState(d))
}
