package projects

import (
	"github.com/go-chi/chi/v5"

	"github.com/meridian-esw/meridian-esw/internal/shared"
)

func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.RequireAny(shared.PermProjectView))
		r.Get("/projects", h.list)
		r.Get("/projects/by-quotation/{id}", h.showByQuotation)
		r.Get("/projects/by-revision/{id}", h.showByRevision)
		r.Get("/projects/{id}", h.show)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.RequireAll(shared.PermProjectEdit))
		r.Post("/projects/from-quotation/{quotationId}", h.createFromQuotation)
		r.Post("/projects/from-revision/{revisionId}", h.createFromRevision)
		r.Put("/projects/{id}", h.update)
		r.Post("/projects/{id}/attachments", h.attach)
	})
}
