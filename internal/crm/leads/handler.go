package leads

import (
	"log/slog"
	"mime"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/meridian-esw/meridian-esw/internal/crm/attachments"
	"github.com/meridian-esw/meridian-esw/internal/platform/httpx"
	"github.com/meridian-esw/meridian-esw/internal/rbac"
	"github.com/meridian-esw/meridian-esw/internal/shared"
)

const maxUploadBytes = 64 << 20

// Handler manages lead endpoints.
type Handler struct {
	logger   *slog.Logger
	service  *Service
	files    *attachments.Store
	validate *validator.Validate
	rbac     rbac.Middleware
}

// NewHandler builds a lead handler.
func NewHandler(logger *slog.Logger, service *Service, files *attachments.Store, rbac rbac.Middleware) *Handler {
	return &Handler{
		logger:   logger,
		service:  service,
		files:    files,
		validate: validator.New(),
		rbac:     rbac,
	}
}

// create accepts either a JSON body or a multipart form with an optional
// set of files alongside the lead fields.
func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	actor := shared.ActorFromContext(r.Context())

	ct, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if ct == "multipart/form-data" {
		h.createMultipart(w, r, actor)
		return
	}

	var req CreateLeadRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Request", "malformed JSON body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}

	lead, err := h.service.Create(r.Context(), actor, req)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, lead)
}

func (h *Handler) createMultipart(w http.ResponseWriter, r *http.Request, actor shared.Actor) {
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Request", "malformed multipart form")
		return
	}

	req := CreateLeadRequest{
		CustomerName:  strings.TrimSpace(r.FormValue("customerName")),
		ProjectTitle:  strings.TrimSpace(r.FormValue("projectTitle")),
		EnquiryNumber: strings.TrimSpace(r.FormValue("enquiryNumber")),
		ScopeSummary:  r.FormValue("scopeSummary"),
	}
	var err error
	if req.EnquiryDate, err = parseDateField(r.FormValue("enquiryDate")); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "enquiryDate must be YYYY-MM-DD")
		return
	}
	if req.SubmissionDueDate, err = parseDateField(r.FormValue("submissionDueDate")); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "submissionDueDate must be YYYY-MM-DD")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}

	lead, err := h.service.Create(r.Context(), actor, req)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}

	var atts []attachments.Attachment
	if r.MultipartForm != nil {
		for _, fh := range r.MultipartForm.File["files"] {
			att, err := h.files.Save(r.Context(), fh)
			if err != nil {
				h.logger.Error("store lead attachment", slog.String("lead_id", lead.ID.String()), slog.Any("error", err))
				httpx.Problem(w, http.StatusInternalServerError, "Upload Failed", "could not store attachment")
				return
			}
			atts = append(atts, att)
		}
	}
	if len(atts) > 0 {
		if lead, err = h.service.AttachFiles(r.Context(), actor, lead.ID, atts); err != nil {
			httpx.RespondError(w, err)
			return
		}
	}
	httpx.JSON(w, http.StatusCreated, lead)
}

func (h *Handler) attach(w http.ResponseWriter, r *http.Request) {
	actor := shared.ActorFromContext(r.Context())
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Request", "invalid lead id")
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
			h.logger.Error("store lead attachment", slog.String("lead_id", id.String()), slog.Any("error", err))
			httpx.Problem(w, http.StatusInternalServerError, "Upload Failed", "could not store attachment")
			return
		}
		atts = append(atts, att)
	}
	if len(atts) == 0 {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "no files provided")
		return
	}

	lead, err := h.service.AttachFiles(r.Context(), actor, id, atts)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, lead)
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	actor := shared.ActorFromContext(r.Context())
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Request", "invalid lead id")
		return
	}
	var req UpdateLeadRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Request", "malformed JSON body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	lead, err := h.service.Update(r.Context(), actor, id, req)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, lead)
}

func (h *Handler) convert(w http.ResponseWriter, r *http.Request) {
	actor := shared.ActorFromContext(r.Context())
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Request", "invalid lead id")
		return
	}
	lead, err := h.service.Convert(r.Context(), actor, id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, lead)
}

func (h *Handler) remove(w http.ResponseWriter, r *http.Request) {
	actor := shared.ActorFromContext(r.Context())
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Request", "invalid lead id")
		return
	}
	if err := h.service.Delete(r.Context(), actor, id); err != nil {
		httpx.RespondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) show(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Request", "invalid lead id")
		return
	}
	lead, err := h.service.Get(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, lead)
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	req := ListLeadsRequest{
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

func parseDateField(v string) (*time.Time, error) {
	v = strings.TrimSpace(v)
	if v == "" {
		return nil, nil
	}
	t, err := time.Parse("2006-01-02", v)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
