package handlers

import (
	"net/http"

	"github.com/citybeat-app/server/internal/api/middleware"
	"github.com/citybeat-app/server/internal/api/problem"
	"github.com/citybeat-app/server/internal/domain/catalog"
)

type EventsHandler struct {
	Service *catalog.Service
	Env     string
}

func NewEventsHandler(service *catalog.Service, env string) *EventsHandler {
	return &EventsHandler{Service: service, Env: env}
}

type eventResponse struct {
	ULID            string   `json:"ulid"`
	Title           string   `json:"title"`
	City            string   `json:"city"`
	VenueName       string   `json:"venue_name,omitempty"`
	StartsAt        string   `json:"starts_at"`
	EndsAt          *string  `json:"ends_at,omitempty"`
	Capacity        int      `json:"capacity"`
	TicketsSold     int      `json:"tickets_sold"`
	PriceCents      int64    `json:"price_cents"`
	Currency        string   `json:"currency"`
	Curated         bool     `json:"curated"`
	HasTickets      bool     `json:"has_tickets"`
	ImagePaths      []string `json:"image_paths"`
	Description     string   `json:"description,omitempty"`
	Published       bool     `json:"published"`
	UnpublishedAt   *string  `json:"unpublished_at,omitempty"`
	UnpublishReason string   `json:"unpublish_reason,omitempty"`
	CreatedAt       string   `json:"created_at"`
	UpdatedAt       string   `json:"updated_at"`
}

func renderEvent(event *catalog.Event) eventResponse {
	return eventResponse{
		ULID:            event.ULID,
		Title:           event.Title,
		City:            event.City,
		VenueName:       event.VenueName,
		StartsAt:        formatTime(event.StartsAt),
		EndsAt:          formatTimePtr(event.EndsAt),
		Capacity:        event.Capacity,
		TicketsSold:     event.TicketsSold,
		PriceCents:      event.PriceCents,
		Currency:        event.Currency,
		Curated:         event.Curated,
		HasTickets:      event.HasTickets,
		ImagePaths:      emptySlice(event.ImagePaths),
		Description:     event.Description,
		Published:       event.Published,
		UnpublishedAt:   formatTimePtr(event.UnpublishedAt),
		UnpublishReason: event.UnpublishReason,
		CreatedAt:       formatTime(event.CreatedAt),
		UpdatedAt:       formatTime(event.UpdatedAt),
	}
}

func (h *EventsHandler) List(w http.ResponseWriter, r *http.Request) {
	filters, pagination, err := catalog.ParseEventFilters(r.URL.Query())
	if err != nil {
		problem.Write(w, r, http.StatusBadRequest, problem.TypeValidation, "Invalid request", err, h.Env)
		return
	}
	filters.IncludeUnpublished = middleware.IsAdmin(r.Context()) && r.URL.Query().Get("include_unpublished") == "true"

	result, err := h.Service.ListEvents(r.Context(), filters, pagination)
	if err != nil {
		writeServiceError(w, r, err, h.Env)
		return
	}

	items := make([]eventResponse, 0, len(result.Events))
	for i := range result.Events {
		items = append(items, renderEvent(&result.Events[i]))
	}
	writeJSON(w, http.StatusOK, listResponse{Items: items, NextCursor: result.NextCursor})
}

func (h *EventsHandler) Get(w http.ResponseWriter, r *http.Request) {
	ulidValue, ok := ValidateAndExtractULID(w, r, "id", h.Env)
	if !ok {
		return
	}

	event, err := h.Service.GetEvent(r.Context(), ulidValue, middleware.IsAdmin(r.Context()))
	if err != nil {
		writeServiceError(w, r, err, h.Env)
		return
	}
	writeJSON(w, http.StatusOK, renderEvent(event))
}
