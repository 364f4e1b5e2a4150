package labor

import (
	"github.com/go-chi/chi/v5"
)

// MountRoutes registers the labor cost and reconciliation endpoints.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/quotations/{id}/labor-records", h.recordCost)
	r.Get("/quotations/{id}/labor-records", h.listCosts)
	r.Put("/labor-records/{recordID}", h.updateCost)
	r.Delete("/labor-records/{recordID}", h.deleteCost)
	r.Get("/quotations/{id}/reconciliation", h.reconciliation)
	r.Get("/reconciliation/summary", h.companySummary)
}
