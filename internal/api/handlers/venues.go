package handlers

import (
	"net/http"

	"github.com/citybeat-app/server/internal/api/middleware"
	"github.com/citybeat-app/server/internal/api/problem"
	"github.com/citybeat-app/server/internal/domain/catalog"
)

type VenuesHandler struct {
	Service *catalog.Service
	Env     string
}

func NewVenuesHandler(service *catalog.Service, env string) *VenuesHandler {
	return &VenuesHandler{Service: service, Env: env}
}

type venueResponse struct {
	ULID            string   `json:"ulid"`
	Name            string   `json:"name"`
	City            string   `json:"city"`
	Category        string   `json:"category,omitempty"`
	Address         string   `json:"address,omitempty"`
	Rating          float64  `json:"rating"`
	ImagePaths      []string `json:"image_paths"`
	Moods           []string `json:"moods"`
	PriceTier       int      `json:"price_tier"`
	Description     string   `json:"description,omitempty"`
	Published       bool     `json:"published"`
	UnpublishedAt   *string  `json:"unpublished_at,omitempty"`
	UnpublishReason string   `json:"unpublish_reason,omitempty"`
	CreatedAt       string   `json:"created_at"`
	UpdatedAt       string   `json:"updated_at"`
}

func renderVenue(venue *catalog.Venue) venueResponse {
	return venueResponse{
		ULID:            venue.ULID,
		Name:            venue.Name,
		City:            venue.City,
		Category:        venue.Category,
		Address:         venue.Address,
		Rating:          venue.Rating,
		ImagePaths:      emptySlice(venue.ImagePaths),
		Moods:           emptySlice(venue.Moods),
		PriceTier:       venue.PriceTier,
		Description:     venue.Description,
		Published:       venue.Published,
		UnpublishedAt:   formatTimePtr(venue.UnpublishedAt),
		UnpublishReason: venue.UnpublishReason,
		CreatedAt:       formatTime(venue.CreatedAt),
		UpdatedAt:       formatTime(venue.UpdatedAt),
	}
}

func emptySlice(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}

type listResponse struct {
	Items      any    `json:"items"`
	NextCursor string `json:"next_cursor,omitempty"`
}

func (h *VenuesHandler) List(w http.ResponseWriter, r *http.Request) {
	filters, pagination, err := catalog.ParseVenueFilters(r.URL.Query())
	if err != nil {
		problem.Write(w, r, http.StatusBadRequest, problem.TypeValidation, "Invalid request", err, h.Env)
		return
	}
	filters.IncludeUnpublished = middleware.IsAdmin(r.Context()) && r.URL.Query().Get("include_unpublished") == "true"

	result, err := h.Service.ListVenues(r.Context(), filters, pagination)
	if err != nil {
		writeServiceError(w, r, err, h.Env)
		return
	}

	items := make([]venueResponse, 0, len(result.Venues))
	for i := range result.Venues {
		items = append(items, renderVenue(&result.Venues[i]))
	}
	writeJSON(w, http.StatusOK, listResponse{Items: items, NextCursor: result.NextCursor})
}

func (h *VenuesHandler) Get(w http.ResponseWriter, r *http.Request) {
	ulidValue, ok := ValidateAndExtractULID(w, r, "id", h.Env)
	if !ok {
		return
	}

	venue, err := h.Service.GetVenue(r.Context(), ulidValue, middleware.IsAdmin(r.Context()))
	if err != nil {
		writeServiceError(w, r, err, h.Env)
		return
	}
	writeJSON(w, http.StatusOK, renderVenue(venue))
}
