package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/citybeat-app/server/internal/api/middleware"
	"github.com/citybeat-app/server/internal/api/problem"
	"github.com/citybeat-app/server/internal/domain/catalog"
)

// AdminCatalogHandler covers the curated side of the catalog: creating and
// editing venues and events, publish state changes, and importing venues
// from place search results. All routes are admin-gated by the router.
type AdminCatalogHandler struct {
	Service *catalog.Service
	Env     string
}

func NewAdminCatalogHandler(service *catalog.Service, env string) *AdminCatalogHandler {
	return &AdminCatalogHandler{Service: service, Env: env}
}

type venueRequest struct {
	Name            string   `json:"name"`
	City            string   `json:"city"`
	Category        string   `json:"category"`
	Address         string   `json:"address"`
	Rating          float64  `json:"rating"`
	ImagePaths      []string `json:"image_paths"`
	Moods           []string `json:"moods"`
	PriceTier       int      `json:"price_tier"`
	Description     string   `json:"description"`
	ExternalPlaceID *string  `json:"external_place_id"`
}

func (h *AdminCatalogHandler) CreateVenue(w http.ResponseWriter, r *http.Request) {
	var req venueRequest
	if !decodeJSON(w, r, &req, h.Env) {
		return
	}

	venue, err := h.Service.CreateVenue(r.Context(), catalog.VenueInput{
		Name:            req.Name,
		City:            req.City,
		Category:        req.Category,
		Address:         req.Address,
		Rating:          req.Rating,
		ImagePaths:      req.ImagePaths,
		Moods:           req.Moods,
		PriceTier:       req.PriceTier,
		Description:     req.Description,
		ExternalPlaceID: req.ExternalPlaceID,
	})
	if err != nil {
		writeServiceError(w, r, err, h.Env)
		return
	}
	writeJSON(w, http.StatusCreated, renderVenue(venue))
}

type venuePatchRequest struct {
	Name        *string  `json:"name"`
	City        *string  `json:"city"`
	Category    *string  `json:"category"`
	Address     *string  `json:"address"`
	Rating      *float64 `json:"rating"`
	ImagePaths  []string `json:"image_paths"`
	Moods       []string `json:"moods"`
	PriceTier   *int     `json:"price_tier"`
	Description *string  `json:"description"`
}

func (h *AdminCatalogHandler) UpdateVenue(w http.ResponseWriter, r *http.Request) {
	ulidValue, ok := ValidateAndExtractULID(w, r, "id", h.Env)
	if !ok {
		return
	}

	var req venuePatchRequest
	if !decodeJSON(w, r, &req, h.Env) {
		return
	}

	venue, err := h.Service.UpdateVenue(r.Context(), ulidValue, catalog.VenuePatch{
		Name:        req.Name,
		City:        req.City,
		Category:    req.Category,
		Address:     req.Address,
		Rating:      req.Rating,
		ImagePaths:  req.ImagePaths,
		Moods:       req.Moods,
		PriceTier:   req.PriceTier,
		Description: req.Description,
	})
	if err != nil {
		writeServiceError(w, r, err, h.Env)
		return
	}
	writeJSON(w, http.StatusOK, renderVenue(venue))
}

type eventRequest struct {
	Title       string     `json:"title"`
	City        string     `json:"city"`
	VenueName   string     `json:"venue_name"`
	StartsAt    time.Time  `json:"starts_at"`
	EndsAt      *time.Time `json:"ends_at"`
	Capacity    int        `json:"capacity"`
	PriceCents  int64      `json:"price_cents"`
	Currency    string     `json:"currency"`
	Curated     bool       `json:"curated"`
	HasTickets  bool       `json:"has_tickets"`
	ImagePaths  []string   `json:"image_paths"`
	Description string     `json:"description"`
}

func (h *AdminCatalogHandler) CreateEvent(w http.ResponseWriter, r *http.Request) {
	var req eventRequest
	if !decodeJSON(w, r, &req, h.Env) {
		return
	}

	event, err := h.Service.CreateEvent(r.Context(), catalog.EventInput{
		Title:       req.Title,
		City:        req.City,
		VenueName:   req.VenueName,
		StartsAt:    req.StartsAt,
		EndsAt:      req.EndsAt,
		Capacity:    req.Capacity,
		PriceCents:  req.PriceCents,
		Currency:    req.Currency,
		Curated:     req.Curated,
		HasTickets:  req.HasTickets,
		ImagePaths:  req.ImagePaths,
		Description: req.Description,
	})
	if err != nil {
		writeServiceError(w, r, err, h.Env)
		return
	}
	writeJSON(w, http.StatusCreated, renderEvent(event))
}

type eventPatchRequest struct {
	Title       *string    `json:"title"`
	City        *string    `json:"city"`
	VenueName   *string    `json:"venue_name"`
	StartsAt    *time.Time `json:"starts_at"`
	EndsAt      *time.Time `json:"ends_at"`
	ClearEndsAt bool       `json:"clear_ends_at"`
	Capacity    *int       `json:"capacity"`
	PriceCents  *int64     `json:"price_cents"`
	Currency    *string    `json:"currency"`
	Curated     *bool      `json:"curated"`
	HasTickets  *bool      `json:"has_tickets"`
	ImagePaths  []string   `json:"image_paths"`
	Description *string    `json:"description"`
}

func (h *AdminCatalogHandler) UpdateEvent(w http.ResponseWriter, r *http.Request) {
	ulidValue, ok := ValidateAndExtractULID(w, r, "id", h.Env)
	if !ok {
		return
	}

	var req eventPatchRequest
	if !decodeJSON(w, r, &req, h.Env) {
		return
	}

	event, err := h.Service.UpdateEvent(r.Context(), ulidValue, catalog.EventPatch{
		Title:       req.Title,
		City:        req.City,
		VenueName:   req.VenueName,
		StartsAt:    req.StartsAt,
		EndsAt:      req.EndsAt,
		ClearEndsAt: req.ClearEndsAt,
		Capacity:    req.Capacity,
		PriceCents:  req.PriceCents,
		Currency:    req.Currency,
		Curated:     req.Curated,
		HasTickets:  req.HasTickets,
		ImagePaths:  req.ImagePaths,
		Description: req.Description,
	})
	if err != nil {
		writeServiceError(w, r, err, h.Env)
		return
	}
	writeJSON(w, http.StatusOK, renderEvent(event))
}

type unpublishRequest struct {
	Reason string `json:"reason"`
}

func (h *AdminCatalogHandler) UnpublishVenue(w http.ResponseWriter, r *http.Request) {
	h.unpublish(w, r, h.Service.UnpublishVenue)
}

func (h *AdminCatalogHandler) RepublishVenue(w http.ResponseWriter, r *http.Request) {
	h.republish(w, r, h.Service.RepublishVenue)
}

func (h *AdminCatalogHandler) UnpublishEvent(w http.ResponseWriter, r *http.Request) {
	h.unpublish(w, r, h.Service.UnpublishEvent)
}

func (h *AdminCatalogHandler) RepublishEvent(w http.ResponseWriter, r *http.Request) {
	h.republish(w, r, h.Service.RepublishEvent)
}

func (h *AdminCatalogHandler) unpublish(w http.ResponseWriter, r *http.Request, apply func(ctx context.Context, ulid, adminULID, reason string) error) {
	ulidValue, ok := ValidateAndExtractULID(w, r, "id", h.Env)
	if !ok {
		return
	}

	var req unpublishRequest
	if !decodeJSON(w, r, &req, h.Env) {
		return
	}

	if err := apply(r.Context(), ulidValue, middleware.AccountULID(r.Context()), req.Reason); err != nil {
		writeServiceError(w, r, err, h.Env)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *AdminCatalogHandler) republish(w http.ResponseWriter, r *http.Request, apply func(ctx context.Context, ulid string) error) {
	ulidValue, ok := ValidateAndExtractULID(w, r, "id", h.Env)
	if !ok {
		return
	}

	if err := apply(r.Context(), ulidValue); err != nil {
		writeServiceError(w, r, err, h.Env)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type importVenueRequest struct {
	ExternalPlaceID string   `json:"external_place_id"`
	Name            string   `json:"name"`
	City            string   `json:"city"`
	Category        string   `json:"category"`
	Address         string   `json:"address"`
	Rating          float64  `json:"rating"`
	ImagePaths      []string `json:"image_paths"`
}

// ImportVenue upserts a venue from a place search card. Existing venues only
// gain values for fields they are missing; curated edits are never clobbered.
func (h *AdminCatalogHandler) ImportVenue(w http.ResponseWriter, r *http.Request) {
	var req importVenueRequest
	if !decodeJSON(w, r, &req, h.Env) {
		return
	}
	if req.ExternalPlaceID == "" {
		problem.Write(w, r, http.StatusBadRequest, problem.TypeValidation, "Invalid request", catalog.FieldError{Field: "external_place_id", Message: "is required"}, h.Env)
		return
	}

	venue, created, err := h.Service.ImportVenue(r.Context(), catalog.ExternalVenue{
		ExternalPlaceID: req.ExternalPlaceID,
		Name:            req.Name,
		City:            req.City,
		Category:        req.Category,
		Address:         req.Address,
		Rating:          req.Rating,
		ImagePaths:      req.ImagePaths,
	})
	if err != nil {
		writeServiceError(w, r, err, h.Env)
		return
	}

	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	writeJSON(w, status, renderVenue(venue))
}
