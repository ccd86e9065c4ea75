package orders

import (
	"github.com/go-chi/chi/v5"

	"github.com/odyssey-erp/odyssey-commerce/internal/shared"
)

// MountRoutes registers order routes relative to /orders.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.RequireRole(shared.RoleAdmin, shared.RoleCustomer))
		r.Get("/", h.List)
		r.Post("/", h.Create)
		r.Get("/user/{id}", h.ListByUser)
		r.Get("/order/{id}", h.Show)
		r.Put("/{id}", h.UpdateStatus)
		r.Delete("/{id}", h.Delete)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.RequireRole(shared.RoleAdmin))
		r.Delete("/admin/{id}", h.Delete)
	})
}
