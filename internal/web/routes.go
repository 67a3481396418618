package web

import (
	"github.com/go-chi/chi/v5"
)

func (s *Server) setupRoutes(h *Handlers) {
	s.router.Get("/api/v1/health", healthCheck)

	s.router.Route("/api/v1", func(r chi.Router) {
		// Scan control
		r.Post("/scan", h.StartScan)
		r.Delete("/scan", h.CancelScan)
		r.Get("/scan", h.ScanStatus)
		r.Get("/scan/events", h.ScanEvents)

		// Categories
		r.Get("/categories/{name}", h.ListCategory)
		r.Get("/duplicates", h.ListDuplicates)

		// Similarity
		r.Post("/photos/similar", h.FindSimilar)

		// Statistics
		r.Get("/stats", h.Stats)
	})
}
