/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Configures the HTTP router (chi), middleware stack, and route
  definitions. This is the wiring layer that connects URLs to handlers.

ROUTER: chi
  - Lightweight and fast
  - Context-based
  - Middleware support
  - RESTful route patterns

MIDDLEWARE STACK:
  1. RequestID:  Unique ID per request for tracing
  2. Recoverer:  Panic recovery (500 instead of crash)
  3. requestLogger: zerolog request logging
  4. CORS:       Cross-origin requests for frontend

ROUTE GROUPS:
  /api/v1/genres/*                Genre CRUD
  /api/v1/books/*                 Book CRUD + transaction history
  /api/v1/inventory/              Paginated stock listing
  /api/v1/arrivals/               Stock arrivals
  /api/v1/inventory-adjustments/  Loss/theft adjustments
  /api/v1/sales/*                 Sales + top-selling reports
  /api/v1/admin/*                 Seed / reset (dev only)

SECURITY NOTE:
  No authentication middleware currently. All endpoints are public.

SEE ALSO:
  - handlers.go: Handler implementations
  - cmd/server/main.go: Server startup
*/
package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog/log"
)

// NewRouter creates a new router with all routes configured.
func NewRouter(h *Handler) *chi.Mux {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(requestLogger)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:5173", "http://localhost:8080"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
	}))

	// API routes
	r.Route("/api/v1", func(r chi.Router) {
		// Genre routes
		r.Route("/genres", func(r chi.Router) {
			r.Get("/", h.ListGenres)
			r.Post("/", h.CreateGenre)
			r.Get("/{id}", h.GetGenre)
			r.Put("/{id}", h.UpdateGenre)
			r.Delete("/{id}", h.DeleteGenre)
		})

		// Book routes
		r.Route("/books", func(r chi.Router) {
			r.Get("/", h.ListBooks)
			r.Post("/", h.CreateBook)
			r.Get("/{id}", h.GetBook)
			r.Put("/{id}", h.UpdateBook)
			r.Delete("/{id}", h.DeleteBook)
		})

		// Inventory routes (read-only; mutation goes through the ledger)
		r.Route("/inventory", func(r chi.Router) {
			r.Get("/", h.ListInventory)
			r.Get("/{book_id}/transactions", h.ListBookTransactions)
		})

		// Ledger mutation routes
		r.Post("/arrivals/", h.RecordArrival)
		r.Post("/inventory-adjustments/", h.RecordAdjustment)

		// Sales routes
		r.Route("/sales", func(r chi.Router) {
			r.Post("/", h.RecordSale)
			r.Get("/top/", h.TopSales)
			r.Get("/top/by-genre/", h.TopSalesByGenre)
		})

		// Admin routes (dev only)
		r.Route("/admin", func(r chi.Router) {
			r.Post("/seed", h.SeedDemoData)
			r.Post("/reset", h.ResetDatabase)
		})
	})

	return r
}

// requestLogger logs one line per request with method, path, status
// and latency.
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		log.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Dur("elapsed", time.Since(start)).
			Str("request_id", middleware.GetReqID(r.Context())).
			Msg("request")
	})
}
