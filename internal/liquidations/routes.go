package liquidations

import (
	"github.com/go-chi/chi/v5"
)

// MountRoutes registers the liquidation endpoints.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/liquidations", h.create)
	r.Get("/liquidations", h.list)
	r.Get("/liquidations/balance", h.balance)
	r.Get("/people/{id}/balance", h.personBalance)
}
