package handlers

import (
	"errors"
	"net/http"

	"github.com/citybeat-app/server/internal/api/middleware"
	"github.com/citybeat-app/server/internal/api/problem"
	"github.com/citybeat-app/server/internal/domain/tickets"
	"github.com/citybeat-app/server/internal/metrics"
)

type TicketsHandler struct {
	Service *tickets.Service
	Env     string
}

func NewTicketsHandler(service *tickets.Service, env string) *TicketsHandler {
	return &TicketsHandler{Service: service, Env: env}
}

type bookRequest struct {
	EventULID string `json:"event_ulid"`
}

type ticketResponse struct {
	ULID          string  `json:"ulid"`
	EventULID     string  `json:"event_ulid"`
	Serial        string  `json:"serial"`
	AmountCents   int64   `json:"amount_cents"`
	Currency      string  `json:"currency"`
	Status        string  `json:"status"`
	ValidatedAt   *string `json:"validated_at,omitempty"`
	CreatedAt     string  `json:"created_at"`
	EventTitle    string  `json:"event_title"`
	EventCity     string  `json:"event_city"`
	EventStartsAt string  `json:"event_starts_at"`
	QRURL         string  `json:"qr_url"`
}

func renderTicket(ticket *tickets.Ticket) ticketResponse {
	return ticketResponse{
		ULID:          ticket.ULID,
		EventULID:     ticket.EventULID,
		Serial:        ticket.Serial,
		AmountCents:   ticket.AmountCents,
		Currency:      ticket.Currency,
		Status:        string(ticket.Status),
		ValidatedAt:   formatTimePtr(ticket.ValidatedAt),
		CreatedAt:     formatTime(ticket.CreatedAt),
		EventTitle:    ticket.EventTitle,
		EventCity:     ticket.EventCity,
		EventStartsAt: formatTime(ticket.EventStartsAt),
		QRURL:         "/api/v1/tickets/" + ticket.ULID + "/qr",
	}
}

func (h *TicketsHandler) Book(w http.ResponseWriter, r *http.Request) {
	var req bookRequest
	if !decodeJSON(w, r, &req, h.Env) {
		return
	}

	ticket, err := h.Service.Book(r.Context(), req.EventULID, middleware.AccountULID(r.Context()))
	if err != nil {
		metrics.TicketsBooked.WithLabelValues("error").Inc()
		h.writeTicketError(w, r, err)
		return
	}

	metrics.TicketsBooked.WithLabelValues("booked").Inc()
	writeJSON(w, http.StatusCreated, renderTicket(ticket))
}

func (h *TicketsHandler) ListMine(w http.ResponseWriter, r *http.Request) {
	items, err := h.Service.ListMine(r.Context(), middleware.AccountULID(r.Context()))
	if err != nil {
		writeServiceError(w, r, err, h.Env)
		return
	}

	responses := make([]ticketResponse, 0, len(items))
	for i := range items {
		responses = append(responses, renderTicket(&items[i]))
	}
	writeJSON(w, http.StatusOK, listResponse{Items: responses})
}

func (h *TicketsHandler) Get(w http.ResponseWriter, r *http.Request) {
	ulidValue, ok := ValidateAndExtractULID(w, r, "id", h.Env)
	if !ok {
		return
	}

	ticket, err := h.Service.Get(r.Context(), ulidValue, middleware.AccountULID(r.Context()), middleware.IsAdmin(r.Context()))
	if err != nil {
		h.writeTicketError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, renderTicket(ticket))
}

// QR serves the stored QR PNG for a ticket, owner or admin only.
func (h *TicketsHandler) QR(w http.ResponseWriter, r *http.Request) {
	ulidValue, ok := ValidateAndExtractULID(w, r, "id", h.Env)
	if !ok {
		return
	}

	ticket, err := h.Service.Get(r.Context(), ulidValue, middleware.AccountULID(r.Context()), middleware.IsAdmin(r.Context()))
	if err != nil {
		h.writeTicketError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "private, no-store")
	_, _ = w.Write(ticket.QRPNG)
}

type validationResponse struct {
	Ticket          ticketResponse `json:"ticket"`
	AlreadyVerified bool           `json:"already_verified"`
	ValidatedAt     string         `json:"validated_at"`
}

// Validate redeems a ticket at the door. A replayed scan is reported as
// already_verified rather than an error so scanner UIs can show both states.
func (h *TicketsHandler) Validate(w http.ResponseWriter, r *http.Request) {
	ulidValue, ok := ValidateAndExtractULID(w, r, "id", h.Env)
	if !ok {
		return
	}

	result, err := h.Service.Validate(r.Context(), ulidValue, middleware.AccountULID(r.Context()))
	if err != nil {
		metrics.TicketValidations.WithLabelValues("error").Inc()
		h.writeTicketError(w, r, err)
		return
	}

	outcome := "validated"
	if result.AlreadyVerified {
		outcome = "already_verified"
	}
	metrics.TicketValidations.WithLabelValues(outcome).Inc()

	writeJSON(w, http.StatusOK, validationResponse{
		Ticket:          renderTicket(result.Ticket),
		AlreadyVerified: result.AlreadyVerified,
		ValidatedAt:     formatTime(result.ValidatedAt),
	})
}

func (h *TicketsHandler) writeTicketError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, tickets.ErrNotFound), errors.Is(err, tickets.ErrEventNotFound):
		problem.Write(w, r, http.StatusNotFound, problem.TypeNotFound, "Not found", err, h.Env)
	case errors.Is(err, tickets.ErrNotEligible):
		problem.Write(w, r, http.StatusUnprocessableEntity, problem.TypeNotEligible, "Event is not eligible for ticketing", err, h.Env)
	case errors.Is(err, tickets.ErrSoldOut):
		problem.Write(w, r, http.StatusConflict, problem.TypeConflict, "Event is sold out", err, h.Env)
	case errors.Is(err, tickets.ErrForbidden):
		problem.Write(w, r, http.StatusForbidden, problem.TypeForbidden, "Forbidden", err, h.Env)
	default:
		writeServiceError(w, r, err, h.Env)
	}
}
