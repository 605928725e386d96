package variations

import (
	"github.com/go-chi/chi/v5"

	"github.com/meridian-esw/meridian-esw/internal/shared"
)

func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.RequireAny(shared.PermVariationView))
		r.Get("/project-variations", h.list)
		r.Get("/project-variations/{id}", h.show)
		r.Get("/project-variations/{id}/document", h.document)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.RequireAll(shared.PermVariationEdit))
		r.Post("/project-variations", h.create)
		r.Put("/project-variations/{id}", h.update)
		r.Post("/project-variations/{id}/send-approval", h.sendApproval)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.RequireAll(shared.PermVariationApprove))
		r.Patch("/project-variations/{id}/approve", h.decide)
	})
}
