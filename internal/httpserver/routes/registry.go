package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/profileqr/internal/httpserver/deps"
)

type (
	Registrar  func(r chi.Router, d deps.Deps)
	Middleware = func(http.Handler) http.Handler
	// Layer builds a middleware once the dependencies are known.
	Layer func(d deps.Deps) Middleware
)

type entry struct {
	reg    Registrar
	layers []Layer
}

var registry []entry

// Register queues reg. Its routes run behind layers, outermost first.
func Register(reg Registrar, layers ...Layer) {
	registry = append(registry, entry{reg: reg, layers: layers})
}

// RegisterAll mounts every queued registrar. Called once from NewHandler.
func RegisterAll(r chi.Router, d deps.Deps) {
	mountAll(r, d, registry)
}

func mountAll(r chi.Router, d deps.Deps, entries []entry) {
	for _, e := range entries {
		if len(e.layers) == 0 {
			e.reg(r, d)
			continue
		}
		mws := make([]Middleware, 0, len(e.layers))
		for _, l := range e.layers {
			mws = append(mws, l(d))
		}
		e.reg(r.With(mws...), d)
	}
}
