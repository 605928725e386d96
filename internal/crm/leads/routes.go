package leads

import (
	"github.com/go-chi/chi/v5"

	"github.com/meridian-esw/meridian-esw/internal/shared"
)

func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.RequireAny(shared.PermLeadView))
		r.Get("/leads", h.list)
		r.Get("/leads/{id}", h.show)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.RequireAll(shared.PermLeadEdit))
		r.Post("/leads", h.create)
		r.Put("/leads/{id}", h.update)
		r.Post("/leads/{id}/attachments", h.attach)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.RequireAll(shared.PermLeadConvert))
		r.Post("/leads/{id}/convert", h.convert)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.RequireAll(shared.PermLeadDelete))
		r.Delete("/leads/{id}", h.remove)
	})
}
