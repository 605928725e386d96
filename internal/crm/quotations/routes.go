package quotations

import (
	"github.com/go-chi/chi/v5"

	"github.com/meridian-esw/meridian-esw/internal/shared"
)

func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.RequireAny(shared.PermQuotationView))
		r.Get("/quotations", h.list)
		r.Get("/quotations/export", h.export)
		r.Get("/quotations/{id}", h.show)
		r.Get("/quotations/{id}/document", h.document)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.RequireAll(shared.PermQuotationEdit))
		r.Post("/quotations", h.create)
		r.Put("/quotations/{id}", h.update)
		r.Post("/quotations/{id}/send-approval", h.sendApproval)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.RequireAll(shared.PermQuotationApprove))
		r.Patch("/quotations/{id}/approve", h.decide)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.RequireAll(shared.PermQuotationDelete))
		r.Delete("/quotations/{id}", h.remove)
	})
}
