package sitevisits

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/meridian-esw/meridian-esw/internal/crm/attachments"
	"github.com/meridian-esw/meridian-esw/internal/platform/httpx"
	"github.com/meridian-esw/meridian-esw/internal/rbac"
	"github.com/meridian-esw/meridian-esw/internal/shared"
)

const maxUploadBytes = 64 << 20

// Handler manages site visit endpoints, nested under leads and projects.
type Handler struct {
	logger   *slog.Logger
	service  *Service
	files    *attachments.Store
	validate *validator.Validate
	rbac     rbac.Middleware
}

// NewHandler builds a site visit handler.
func NewHandler(logger *slog.Logger, service *Service, files *attachments.Store, rbac rbac.Middleware) *Handler {
	return &Handler{
		logger:   logger,
		service:  service,
		files:    files,
		validate: validator.New(),
		rbac:     rbac,
	}
}

func (h *Handler) createForLead(w http.ResponseWriter, r *http.Request) {
	actor := shared.ActorFromContext(r.Context())
	leadID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Request", "invalid lead id")
		return
	}
	req, ok := h.decodeVisit(w, r)
	if !ok {
		return
	}
	v, err := h.service.CreateForLead(r.Context(), actor, leadID, req)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, v)
}

func (h *Handler) createForProject(w http.ResponseWriter, r *http.Request) {
	actor := shared.ActorFromContext(r.Context())
	projectID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Request", "invalid project id")
		return
	}
	req, ok := h.decodeVisit(w, r)
	if !ok {
		return
	}
	v, err := h.service.CreateForProject(r.Context(), actor, projectID, req)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, v)
}

func (h *Handler) decodeVisit(w http.ResponseWriter, r *http.Request) (VisitRequest, bool) {
	var req VisitRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Request", "malformed JSON body")
		return req, false
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return req, false
	}
	return req, true
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	actor := shared.ActorFromContext(r.Context())
	visitID, err := uuid.Parse(chi.URLParam(r, "visitId"))
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Request", "invalid visit id")
		return
	}
	req, ok := h.decodeVisit(w, r)
	if !ok {
		return
	}
	v, err := h.service.Update(r.Context(), actor, visitID, req)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, v)
}

func (h *Handler) attach(w http.ResponseWriter, r *http.Request) {
	actor := shared.ActorFromContext(r.Context())
	visitID, err := uuid.Parse(chi.URLParam(r, "visitId"))
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Request", "invalid visit id")
		return
	}
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Request", "malformed multipart form")
		return
	}
	var atts []attachments.Attachment
	for _, fh := range r.MultipartForm.File["files"] {
		att, err := h.files.Save(r.Context(), fh)
		if err != nil {
			h.logger.Error("store visit attachment", slog.String("visit_id", visitID.String()), slog.Any("error", err))
			httpx.Problem(w, http.StatusInternalServerError, "Upload Failed", "could not store attachment")
			return
		}
		atts = append(atts, att)
	}
	if len(atts) == 0 {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "no files provided")
		return
	}
	v, err := h.service.AttachFiles(r.Context(), actor, visitID, atts)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, v)
}

func (h *Handler) remove(w http.ResponseWriter, r *http.Request) {
	actor := shared.ActorFromContext(r.Context())
	visitID, err := uuid.Parse(chi.URLParam(r, "visitId"))
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Request", "invalid visit id")
		return
	}
	if err := h.service.Delete(r.Context(), actor, visitID); err != nil {
		httpx.RespondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) show(w http.ResponseWriter, r *http.Request) {
	visitID, err := uuid.Parse(chi.URLParam(r, "visitId"))
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Request", "invalid visit id")
		return
	}
	v, err := h.service.Get(r.Context(), visitID)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, v)
}

func (h *Handler) listForLead(w http.ResponseWriter, r *http.Request) {
	leadID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Request", "invalid lead id")
		return
	}
	h.list(w, r, ListVisitsRequest{LeadID: &leadID})
}

func (h *Handler) listForProject(w http.ResponseWriter, r *http.Request) {
	projectID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Request", "invalid project id")
		return
	}
	h.list(w, r, ListVisitsRequest{ProjectID: &projectID})
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request, req ListVisitsRequest) {
	req.Page, _ = strconv.Atoi(r.URL.Query().Get("page"))
	req.PerPage, _ = strconv.Atoi(r.URL.Query().Get("perPage"))

	items, pagination, err := h.service.List(r.Context(), req)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"items":      items,
		"pagination": pagination,
	})
}
