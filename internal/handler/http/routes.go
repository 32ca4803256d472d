package http

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

func (h *Handler) Init() *chi.Mux {
	router := chi.NewRouter()
	router.Use(middleware.Recoverer)
	router.Use(h.withTraceID)
	router.Use(h.withLogging)
	router.Use(withGZip)

	// routes without authorization
	router.Group(func(r chi.Router) {
		r.Post("/api/auth/register", h.register)
		r.Post("/api/auth/login", h.login)
		r.Get("/api/health", h.health)
		r.Get("/api/version", h.getServerVersion)
	})

	// routes with authorization
	router.Group(func(r chi.Router) {
		r.Use(h.auth)

		r.Route("/api/entities", func(r chi.Router) {
			r.Post("/", h.createEntity)
			r.Get("/", h.listEntities)
			r.Get("/{id}", h.getEntity)
			r.Put("/{id}", h.updateEntity)
			r.Delete("/{id}", h.deleteEntity)
			r.Post("/bulk/complete", h.bulkComplete)
			r.Post("/bulk/delete", h.bulkDelete)
			r.Post("/reorder", h.reorder)
		})

		r.Get("/api/icons", h.icons)
	})

	router.MethodNotAllowed(CheckHTTPMethod(router))

	return router
}
