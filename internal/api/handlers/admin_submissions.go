package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/citybeat-app/server/internal/api/middleware"
	"github.com/citybeat-app/server/internal/api/problem"
	"github.com/citybeat-app/server/internal/domain/moderation"
	"github.com/citybeat-app/server/internal/metrics"
)

// AdminSubmissionsHandler is the moderation queue: listing by status,
// editing pending submissions, and the approve/reject decisions.
type AdminSubmissionsHandler struct {
	Service *moderation.Service
	Env     string
}

func NewAdminSubmissionsHandler(service *moderation.Service, env string) *AdminSubmissionsHandler {
	return &AdminSubmissionsHandler{Service: service, Env: env}
}

func (h *AdminSubmissionsHandler) List(w http.ResponseWriter, r *http.Request) {
	status := moderation.Status(r.URL.Query().Get("status"))
	if status == "" {
		status = moderation.StatusPending
	}

	items, err := h.Service.ListByStatus(r.Context(), status)
	if err != nil {
		writeServiceError(w, r, err, h.Env)
		return
	}

	responses := make([]submissionResponse, 0, len(items))
	for i := range items {
		responses = append(responses, renderSubmission(&items[i]))
	}
	writeJSON(w, http.StatusOK, listResponse{Items: responses})
}

func (h *AdminSubmissionsHandler) Get(w http.ResponseWriter, r *http.Request) {
	ulidValue, ok := ValidateAndExtractULID(w, r, "id", h.Env)
	if !ok {
		return
	}

	submission, err := h.Service.Get(r.Context(), ulidValue)
	if err != nil {
		h.writeModerationError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, renderSubmission(submission))
}

type submissionPatchRequest struct {
	Name        *string    `json:"name"`
	City        *string    `json:"city"`
	Category    *string    `json:"category"`
	Address     *string    `json:"address"`
	Description *string    `json:"description"`
	Moods       []string   `json:"moods"`
	PriceTier   *int       `json:"price_tier"`
	ImagePaths  []string   `json:"image_paths"`
	StartsAt    *time.Time `json:"starts_at"`
	EndsAt      *time.Time `json:"ends_at"`
	Capacity    *int       `json:"capacity"`
	PriceCents  *int64     `json:"price_cents"`
}

func (h *AdminSubmissionsHandler) Edit(w http.ResponseWriter, r *http.Request) {
	ulidValue, ok := ValidateAndExtractULID(w, r, "id", h.Env)
	if !ok {
		return
	}

	var req submissionPatchRequest
	if !decodeJSON(w, r, &req, h.Env) {
		return
	}

	submission, err := h.Service.Edit(r.Context(), ulidValue, moderation.Patch{
		Name:        req.Name,
		City:        req.City,
		Category:    req.Category,
		Address:     req.Address,
		Description: req.Description,
		Moods:       req.Moods,
		PriceTier:   req.PriceTier,
		ImagePaths:  req.ImagePaths,
		StartsAt:    req.StartsAt,
		EndsAt:      req.EndsAt,
		Capacity:    req.Capacity,
		PriceCents:  req.PriceCents,
	})
	if err != nil {
		h.writeModerationError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, renderSubmission(submission))
}

func (h *AdminSubmissionsHandler) Approve(w http.ResponseWriter, r *http.Request) {
	ulidValue, ok := ValidateAndExtractULID(w, r, "id", h.Env)
	if !ok {
		return
	}

	submission, err := h.Service.Approve(r.Context(), ulidValue, middleware.AccountULID(r.Context()))
	if err != nil {
		h.writeModerationError(w, r, err)
		return
	}

	metrics.SubmissionsReviewed.WithLabelValues("approved").Inc()
	writeJSON(w, http.StatusOK, renderSubmission(submission))
}

type rejectRequest struct {
	Reason string `json:"reason"`
}

func (h *AdminSubmissionsHandler) Reject(w http.ResponseWriter, r *http.Request) {
	ulidValue, ok := ValidateAndExtractULID(w, r, "id", h.Env)
	if !ok {
		return
	}

	var req rejectRequest
	if !decodeJSON(w, r, &req, h.Env) {
		return
	}

	submission, err := h.Service.Reject(r.Context(), ulidValue, middleware.AccountULID(r.Context()), req.Reason)
	if err != nil {
		h.writeModerationError(w, r, err)
		return
	}

	metrics.SubmissionsReviewed.WithLabelValues("rejected").Inc()
	writeJSON(w, http.StatusOK, renderSubmission(submission))
}

func (h *AdminSubmissionsHandler) writeModerationError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, moderation.ErrNotFound):
		problem.Write(w, r, http.StatusNotFound, problem.TypeNotFound, "Not found", err, h.Env)
	case errors.Is(err, moderation.ErrNotPending):
		problem.Write(w, r, http.StatusConflict, problem.TypeConflict, "Submission already reviewed", err, h.Env)
	default:
		writeServiceError(w, r, err, h.Env)
	}
}
