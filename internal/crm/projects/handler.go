package projects

import (
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/meridian-esw/meridian-esw/internal/crm/attachments"
	"github.com/meridian-esw/meridian-esw/internal/platform/httpx"
	"github.com/meridian-esw/meridian-esw/internal/rbac"
	"github.com/meridian-esw/meridian-esw/internal/shared"
)

const maxUploadBytes = 64 << 20

// Handler manages project endpoints.
type Handler struct {
	logger   *slog.Logger
	service  *Service
	files    *attachments.Store
	validate *validator.Validate
	rbac     rbac.Middleware
}

// NewHandler builds a project handler.
func NewHandler(logger *slog.Logger, service *Service, files *attachments.Store, rbac rbac.Middleware) *Handler {
	return &Handler{
		logger:   logger,
		service:  service,
		files:    files,
		validate: validator.New(),
		rbac:     rbac,
	}
}

func (h *Handler) createFromQuotation(w http.ResponseWriter, r *http.Request) {
	actor := shared.ActorFromContext(r.Context())
	quotationID, err := uuid.Parse(chi.URLParam(r, "quotationId"))
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Request", "invalid quotation id")
		return
	}
	req, ok := h.decodeCreate(w, r)
	if !ok {
		return
	}
	p, err := h.service.CreateFromQuotation(r.Context(), actor, quotationID, req)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, p)
}

func (h *Handler) createFromRevision(w http.ResponseWriter, r *http.Request) {
	actor := shared.ActorFromContext(r.Context())
	revisionID, err := uuid.Parse(chi.URLParam(r, "revisionId"))
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Request", "invalid revision id")
		return
	}
	req, ok := h.decodeCreate(w, r)
	if !ok {
		return
	}
	p, err := h.service.CreateFromRevision(r.Context(), actor, revisionID, req)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, p)
}

func (h *Handler) decodeCreate(w http.ResponseWriter, r *http.Request) (CreateProjectRequest, bool) {
	var req CreateProjectRequest
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
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Request", "invalid project id")
		return
	}
	var req UpdateProjectRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Request", "malformed JSON body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	p, err := h.service.Update(r.Context(), actor, id, req)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, p)
}

func (h *Handler) attach(w http.ResponseWriter, r *http.Request) {
	actor := shared.ActorFromContext(r.Context())
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Request", "invalid project id")
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
			h.logger.Error("store project attachment", slog.String("project_id", id.String()), slog.Any("error", err))
			httpx.Problem(w, http.StatusInternalServerError, "Upload Failed", "could not store attachment")
			return
		}
		atts = append(atts, att)
	}
	if len(atts) == 0 {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "no files provided")
		return
	}
	p, err := h.service.AttachFiles(r.Context(), actor, id, atts)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, p)
}

func (h *Handler) show(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Request", "invalid project id")
		return
	}
	p, err := h.service.Get(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, p)
}

func (h *Handler) showByQuotation(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Request", "invalid quotation id")
		return
	}
	p, err := h.service.GetByQuotation(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, p)
}

func (h *Handler) showByRevision(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Request", "invalid revision id")
		return
	}
	p, err := h.service.GetByRevision(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, p)
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	req := ListProjectsRequest{
		Search: strings.TrimSpace(r.URL.Query().Get("search")),
	}
	if v := r.URL.Query().Get("status"); v != "" {
		s := Status(v)
		req.Status = &s
	}
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
