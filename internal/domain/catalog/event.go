package catalog

import (
	"context"
	"errors"
	"time"
)

var (
	ErrEventNotFound   = errors.New("event not found")
	ErrEventSoldOut    = errors.New("event sold out")
	ErrEndsBeforeStart = errors.New("event end time precedes start time")
)

// Event is a published (or unpublished) event record in the catalog.
type Event struct {
	ID              string
	ULID            string
	Title           string
	City            string
	VenueName       string
	StartsAt        time.Time
	EndsAt          *time.Time
	Capacity        int
	TicketsSold     int
	PriceCents      int64
	Currency        string
	Curated         bool
	HasTickets      bool
	ImagePaths      []string
	Description     string
	Published       bool
	UnpublishedAt   *time.Time
	UnpublishedBy   *string
	UnpublishReason string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

type EventInput struct {
	Title       string    `validate:"required,min=1,max=200"`
	City        string    `validate:"required,min=1,max=100"`
	VenueName   string    `validate:"max=200"`
	StartsAt    time.Time `validate:"required"`
	EndsAt      *time.Time
	Capacity    int   `validate:"min=0"`
	PriceCents  int64 `validate:"min=0"`
	Currency    string
	Curated     bool
	HasTickets  bool
	ImagePaths  []string
	Description string
}

type EventPatch struct {
	Title       *string
	City        *string
	VenueName   *string
	StartsAt    *time.Time
	EndsAt      *time.Time
	ClearEndsAt bool
	Capacity    *int
	PriceCents  *int64
	Currency    *string
	Curated     *bool
	HasTickets  *bool
	ImagePaths  []string
	Description *string
}

type EventFilters struct {
	City               string
	Query              string
	IncludeUnpublished bool
}

type EventListResult struct {
	Events     []Event
	NextCursor string
}

type EventRepository interface {
	List(ctx context.Context, filters EventFilters, pagination Pagination) (EventListResult, error)
	GetByULID(ctx context.Context, ulid string, includeUnpublished bool) (*Event, error)
	Create(ctx context.Context, event *Event) error
	Update(ctx context.Context, ulid string, patch EventPatch) (*Event, error)
	Unpublish(ctx context.Context, ulid, adminULID, reason string) error
	Republish(ctx context.Context, ulid string) error
}

// ValidateEventWindow enforces ends_at >= starts_at at create and edit.
func ValidateEventWindow(startsAt time.Time, endsAt *time.Time) error {
	if startsAt.IsZero() {
		return FieldError{Field: "starts_at", Message: "start time is required"}
	}
	if endsAt != nil && endsAt.Before(startsAt) {
		return ErrEndsBeforeStart
	}
	return nil
}
