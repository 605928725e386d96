package revisions

import (
	"github.com/go-chi/chi/v5"

	"github.com/meridian-esw/meridian-esw/internal/shared"
)

func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.RequireAny(shared.PermRevisionView))
		r.Get("/revisions", h.list)
		r.Get("/revisions/{id}", h.show)
		r.Get("/revisions/{id}/document", h.document)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.RequireAll(shared.PermRevisionEdit))
		r.Post("/revisions", h.create)
		r.Put("/revisions/{id}", h.update)
		r.Post("/revisions/{id}/send-approval", h.sendApproval)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.RequireAll(shared.PermRevisionApprove))
		r.Patch("/revisions/{id}/approve", h.decide)
	})
}
