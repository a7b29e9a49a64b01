package api

import (
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// NewRouter wires the catalog endpoints under /api/v1. The request timeout
// sits above the bridge's own crawl budget so the bridge, not the router,
// decides when a crawl has taken too long.
func NewRouter(h *Handlers, requestTimeout time.Duration) chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(requestTimeout))

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/health", h.Health)

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/plasmids", func(r chi.Router) {
			r.Get("/search", h.SearchPlasmids)
			r.Get("/popular", h.PopularPlasmids)
			r.Get("/{plasmidID}/sequence-info", h.GetSequenceInfo)
			r.Post("/{plasmidID}/download", h.DownloadSequence)
		})
	})

	return r
}
