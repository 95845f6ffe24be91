package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/profileqr/internal/httpserver/deps"
	"github.com/MrSnakeDoc/profileqr/internal/httpserver/handlers"
)

func init() {
	Register(registerQR, hostOnly, generateLimited)
	// batches are charged inside the handler, after the size check
	Register(registerBatch, hostOnly)
}

func registerQR(r chi.Router, d deps.Deps) {
	r.Post("/api/qr", handlers.GenerateQR(d))
	r.Get("/api/qr.{format:png|svg}", handlers.QRImage(d))
}

func registerBatch(r chi.Router, d deps.Deps) {
	r.Post("/api/qr/batch", handlers.GenerateBatch(d))
}
