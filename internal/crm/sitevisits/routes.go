package sitevisits

import (
	"github.com/go-chi/chi/v5"

	"github.com/meridian-esw/meridian-esw/internal/shared"
)

func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.RequireAny(shared.PermSiteVisitView))
		r.Get("/leads/{id}/site-visits", h.listForLead)
		r.Get("/projects/{id}/site-visits", h.listForProject)
		r.Get("/site-visits/{visitId}", h.show)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.RequireAll(shared.PermSiteVisitEdit))
		r.Post("/leads/{id}/site-visits", h.createForLead)
		r.Post("/projects/{id}/site-visits", h.createForProject)
		r.Put("/projects/{id}/site-visits/{visitId}", h.update)
		r.Put("/leads/{id}/site-visits/{visitId}", h.update)
		r.Post("/site-visits/{visitId}/attachments", h.attach)
		r.Delete("/site-visits/{visitId}", h.remove)
	})
}
