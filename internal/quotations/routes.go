package quotations

import (
	"github.com/go-chi/chi/v5"
)

// MountRoutes registers the quotation endpoints.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/quotations", h.list)
	r.Post("/quotations", h.create)
	r.Get("/quotations/{id}", h.show)
	r.Put("/quotations/{id}", h.update)
	r.Post("/quotations/{id}/accept", h.accept)
	r.Post("/quotations/{id}/reject", h.reject)
	r.Post("/quotations/{id}/reopen", h.reopen)
	r.Post("/quotations/{id}/payments", h.registerPayment)
	r.Get("/quotations/{id}/history", h.history)
	r.Get("/quotations/{id}/job", h.job)
}
