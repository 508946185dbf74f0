/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Configures the HTTP router (chi), middleware stack, and route definitions.
  This is the wiring layer that connects URLs to handlers.

ROUTER: chi
  Chi was chosen for:
  - Lightweight and fast
  - Context-based
  - Middleware support
  - RESTful route patterns

MIDDLEWARE STACK:
  1. Logger:     Request logging
  2. Recoverer:  Panic recovery (500 instead of crash)
  3. RequestID:  Unique ID per request for tracing
  4. CORS:       Cross-origin requests for frontend

ROUTE GROUPS:
  /api/resources/*      Price catalog
  /api/templates/*      Template management and materialization
  /api/line-items/*     Line items and recalculation
  /api/funds/*          Funds, categories, items
  /api/scenarios/*      Demo scenarios
  /api/reset            Database reset (dev only)

SECURITY NOTE:
  No authentication middleware currently. All endpoints are public.

SEE ALSO:
  - handlers.go: Handler implementations
  - cmd/server/main.go: Server startup
*/
package api

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// NewRouter creates a new router with all routes configured.
func NewRouter(h *Handler) *chi.Mux {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:5173", "http://localhost:8080"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
	}))

	// API routes
	r.Route("/api", func(r chi.Router) {
		// Catalog routes
		r.Route("/resources", func(r chi.Router) {
			r.Get("/", h.ListResources)
			r.Post("/", h.SaveResource)
		})

		// Template routes
		r.Route("/templates", func(r chi.Router) {
			r.Get("/", h.ListTemplates)
			r.Post("/", h.CreateTemplate)
			r.Get("/{id}", h.GetTemplate)
			r.Post("/{id}/materialize", h.MaterializeTemplate)
		})

		// Line item routes
		r.Route("/line-items", func(r chi.Router) {
			r.Get("/", h.ListLineItems)
			r.Get("/{id}", h.GetLineItem)
			r.Post("/{id}/recalculate", h.RecalculateLineItem)
			r.Delete("/{id}", h.DeleteLineItem)
		})

		// Fund routes
		r.Route("/funds", func(r chi.Router) {
			r.Get("/", h.ListFunds)
			r.Post("/", h.CreateFund)
			r.Get("/{id}", h.GetFund)
			r.Delete("/{id}", h.DeleteFund)

			r.Route("/{id}/categories", func(r chi.Router) {
				r.Post("/", h.AddCategory)
				r.Put("/{categoryID}", h.UpdateCategory)
				r.Delete("/{categoryID}", h.DeleteCategory)
				r.Post("/{categoryID}/items", h.AddItem)
				r.Delete("/{categoryID}/items/{itemID}", h.DeleteItem)
			})
		})

		// Scenario routes
		r.Route("/scenarios", func(r chi.Router) {
			r.Get("/", h.ListScenarios)
			r.Post("/load", h.LoadScenario)
		})
	})

	return r
}
