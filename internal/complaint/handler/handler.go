// Package handler exposes the grievance operations over HTTP. It decodes
// requests, pulls the caller from the auth middleware, delegates to the
// service and maps domain error codes onto HTTP statuses.
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"grievance/internal/complaint/models"
	"grievance/internal/complaint/store"
	"grievance/internal/platform/middleware"
	dErrors "grievance/pkg/domain-errors"
)

// ComplaintService is the operation surface the handler fronts.
type ComplaintService interface {
	Create(ctx context.Context, caller models.Caller, envelope *models.Envelope) (*models.Envelope, error)
	Update(ctx context.Context, caller models.Caller, envelope *models.Envelope) (*models.Envelope, error)
	Search(ctx context.Context, caller models.Caller, criteria models.SearchCriteria) ([]*models.Envelope, error)
	Count(ctx context.Context, caller models.Caller, criteria models.SearchCriteria) (int, error)
	Stats(ctx context.Context, tenantID string) (store.Stats, error)
}

// Handler serves the complaint routes.
type Handler struct {
	service ComplaintService
	logger  *slog.Logger
}

// New builds a Handler over the complaint service.
func New(service ComplaintService, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Routes mounts the complaint endpoints on a fresh router.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Post("/complaints", h.create)
	r.Put("/complaints", h.update)
	r.Post("/complaints/search", h.search)
	r.Post("/complaints/count", h.count)
	r.Get("/stats", h.stats)
	return r
}

type searchResponse struct {
	Complaints []*models.Envelope `json:"complaints"`
}

type countResponse struct {
	Count int `json:"count"`
}

type statsResponse struct {
	TenantID                    string `json:"tenantId"`
	ComplaintsResolved          int64  `json:"complaintsResolved"`
	AverageResolutionTimeMillis int64  `json:"averageResolutionTimeMillis"`
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var envelope models.Envelope
	if err := decode(r, &envelope); err != nil {
		h.writeError(r.Context(), w, err)
		return
	}

	result, err := h.service.Create(r.Context(), middleware.CallerFrom(r.Context()), &envelope)
	if err != nil {
		h.writeError(r.Context(), w, err)
		return
	}
	h.writeJSON(w, http.StatusCreated, result)
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	var envelope models.Envelope
	if err := decode(r, &envelope); err != nil {
		h.writeError(r.Context(), w, err)
		return
	}

	result, err := h.service.Update(r.Context(), middleware.CallerFrom(r.Context()), &envelope)
	if err != nil {
		h.writeError(r.Context(), w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, result)
}

func (h *Handler) search(w http.ResponseWriter, r *http.Request) {
	var criteria models.SearchCriteria
	if err := decode(r, &criteria); err != nil {
		h.writeError(r.Context(), w, err)
		return
	}

	results, err := h.service.Search(r.Context(), middleware.CallerFrom(r.Context()), criteria)
	if err != nil {
		h.writeError(r.Context(), w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, searchResponse{Complaints: results})
}

func (h *Handler) count(w http.ResponseWriter, r *http.Request) {
	var criteria models.SearchCriteria
	if err := decode(r, &criteria); err != nil {
		h.writeError(r.Context(), w, err)
		return
	}

	count, err := h.service.Count(r.Context(), middleware.CallerFrom(r.Context()), criteria)
	if err != nil {
		h.writeError(r.Context(), w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, countResponse{Count: count})
}

func (h *Handler) stats(w http.ResponseWriter, r *http.Request) {
	tenantID := r.URL.Query().Get("tenantId")

	stats, err := h.service.Stats(r.Context(), tenantID)
	if err != nil {
		h.writeError(r.Context(), w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, statsResponse{
		TenantID:                    tenantID,
		ComplaintsResolved:          stats.ComplaintsResolved,
		AverageResolutionTimeMillis: stats.AverageResolutionTimeMillis,
	})
}

func decode(r *http.Request, out any) error {
	if err := json.NewDecoder(r.Body).Decode(out); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInvalidRequest, "failed to parse request body")
	}
	if envelope, ok := out.(*models.Envelope); ok && envelope.Complaint == nil {
		return dErrors.New(dErrors.CodeInvalidRequest, "the request body must carry a service object")
	}
	return nil
}

type errorBody struct {
	Code    string            `json:"code"`
	Message string            `json:"message,omitempty"`
	Fields  map[string]string `json:"fields,omitempty"`
}

func (h *Handler) writeError(ctx context.Context, w http.ResponseWriter, err error) {
	code := dErrors.CodeOf(err)
	status := dErrors.ToHTTPStatus(code)

	body := errorBody{Code: string(code), Message: err.Error()}
	var de *dErrors.Error
	if errors.As(err, &de) {
		body.Message = de.Message
		body.Fields = de.Fields
	}

	if status >= http.StatusInternalServerError {
		h.logger.ErrorContext(ctx, "request failed", "code", code, "error", err)
	} else {
		h.logger.WarnContext(ctx, "request rejected", "code", code, "error", err)
	}
	h.writeJSON(w, status, map[string][]errorBody{"errors": {body}})
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		h.logger.Error("encode response", "error", err)
	}
}
