package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/citybeat-app/server/internal/api/middleware"
	"github.com/citybeat-app/server/internal/api/problem"
	"github.com/citybeat-app/server/internal/domain/moderation"
)

type SubmissionsHandler struct {
	Service *moderation.Service
	Env     string
}

func NewSubmissionsHandler(service *moderation.Service, env string) *SubmissionsHandler {
	return &SubmissionsHandler{Service: service, Env: env}
}

type submissionRequest struct {
	Kind        string     `json:"kind"`
	Name        string     `json:"name"`
	City        string     `json:"city"`
	Category    string     `json:"category"`
	Address     string     `json:"address"`
	Description string     `json:"description"`
	Moods       []string   `json:"moods"`
	PriceTier   int        `json:"price_tier"`
	ImagePaths  []string   `json:"image_paths"`
	StartsAt    *time.Time `json:"starts_at"`
	EndsAt      *time.Time `json:"ends_at"`
	Capacity    int        `json:"capacity"`
	PriceCents  int64      `json:"price_cents"`
	Currency    string     `json:"currency"`
}

type submissionResponse struct {
	ULID              string     `json:"ulid"`
	Kind              string     `json:"kind"`
	Status            string     `json:"status"`
	SubmitterULID     string     `json:"submitter_ulid"`
	Name              string     `json:"name"`
	City              string     `json:"city"`
	Category          string     `json:"category,omitempty"`
	Address           string     `json:"address,omitempty"`
	Description       string     `json:"description,omitempty"`
	Moods             []string   `json:"moods"`
	PriceTier         int        `json:"price_tier"`
	ImagePaths        []string   `json:"image_paths"`
	StartsAt          *string    `json:"starts_at,omitempty"`
	EndsAt            *string    `json:"ends_at,omitempty"`
	Capacity          int        `json:"capacity"`
	PriceCents        int64      `json:"price_cents"`
	Currency          string     `json:"currency,omitempty"`
	ReviewedBy        *string    `json:"reviewed_by,omitempty"`
	ReviewedAt        *string    `json:"reviewed_at,omitempty"`
	RejectionReason   string     `json:"rejection_reason,omitempty"`
	PromotedVenueULID *string    `json:"promoted_venue_ulid,omitempty"`
	PromotedEventULID *string    `json:"promoted_event_ulid,omitempty"`
	CreatedAt         string     `json:"created_at"`
	UpdatedAt         string     `json:"updated_at"`
}

func renderSubmission(submission *moderation.Submission) submissionResponse {
	return submissionResponse{
		ULID:              submission.ULID,
		Kind:              string(submission.Kind),
		Status:            string(submission.Status),
		SubmitterULID:     submission.SubmitterID,
		Name:              submission.Name,
		City:              submission.City,
		Category:          submission.Category,
		Address:           submission.Address,
		Description:       submission.Description,
		Moods:             emptySlice(submission.Moods),
		PriceTier:         submission.PriceTier,
		ImagePaths:        emptySlice(submission.ImagePaths),
		StartsAt:          formatTimePtr(submission.StartsAt),
		EndsAt:            formatTimePtr(submission.EndsAt),
		Capacity:          submission.Capacity,
		PriceCents:        submission.PriceCents,
		Currency:          submission.Currency,
		ReviewedBy:        submission.ReviewedBy,
		ReviewedAt:        formatTimePtr(submission.ReviewedAt),
		RejectionReason:   submission.RejectionReason,
		PromotedVenueULID: submission.PromotedVenueULID,
		PromotedEventULID: submission.PromotedEventULID,
		CreatedAt:         formatTime(submission.CreatedAt),
		UpdatedAt:         formatTime(submission.UpdatedAt),
	}
}

func (h *SubmissionsHandler) Submit(w http.ResponseWriter, r *http.Request) {
	var req submissionRequest
	if !decodeJSON(w, r, &req, h.Env) {
		return
	}

	submission, err := h.Service.Submit(r.Context(), moderation.SubmitInput{
		Kind:        moderation.Kind(req.Kind),
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
		Currency:    req.Currency,
	}, middleware.AccountULID(r.Context()))
	if err != nil {
		if errors.Is(err, moderation.ErrDuplicatePending) {
			problem.Write(w, r, http.StatusConflict, problem.TypeConflict, "Duplicate pending submission", err, h.Env)
			return
		}
		writeServiceError(w, r, err, h.Env)
		return
	}

	writeJSON(w, http.StatusCreated, renderSubmission(submission))
}

func (h *SubmissionsHandler) ListMine(w http.ResponseWriter, r *http.Request) {
	items, err := h.Service.ListMine(r.Context(), middleware.AccountULID(r.Context()))
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
