package catalog

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/citybeat-app/server/internal/domain/ids"
	"github.com/citybeat-app/server/internal/sanitize"
	"github.com/go-playground/validator/v10"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// FieldError is a user-visible validation failure on a single field.
type FieldError struct {
	Field   string
	Message string
}

func (e FieldError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

type Service struct {
	venues VenueRepository
	events EventRepository
}

func NewService(venues VenueRepository, events EventRepository) *Service {
	return &Service{venues: venues, events: events}
}

func (s *Service) ListVenues(ctx context.Context, filters VenueFilters, pagination Pagination) (VenueListResult, error) {
	return s.venues.List(ctx, filters, pagination)
}

func (s *Service) GetVenue(ctx context.Context, ulid string, includeUnpublished bool) (*Venue, error) {
	return s.venues.GetByULID(ctx, ulid, includeUnpublished)
}

func (s *Service) ListEvents(ctx context.Context, filters EventFilters, pagination Pagination) (EventListResult, error) {
	return s.events.List(ctx, filters, pagination)
}

func (s *Service) GetEvent(ctx context.Context, ulid string, includeUnpublished bool) (*Event, error) {
	return s.events.GetByULID(ctx, ulid, includeUnpublished)
}

// CreateVenue validates input and inserts a published venue.
func (s *Service) CreateVenue(ctx context.Context, input VenueInput) (*Venue, error) {
	input.Name = sanitize.Text(input.Name)
	input.City = normalizeCity(input.City)
	input.Description = sanitize.HTML(input.Description)
	input.Moods = sanitize.TextSlice(input.Moods)
	if err := validate.Struct(input); err != nil {
		return nil, validationError(err)
	}

	venue := &Venue{
		ULID:            ids.MustNewULID(),
		Name:            input.Name,
		City:            input.City,
		Category:        input.Category,
		Address:         input.Address,
		Rating:          input.Rating,
		ImagePaths:      input.ImagePaths,
		Moods:           input.Moods,
		PriceTier:       input.PriceTier,
		Description:     input.Description,
		ExternalPlaceID: input.ExternalPlaceID,
		Published:       true,
	}
	if err := s.venues.Create(ctx, venue); err != nil {
		return nil, err
	}
	return venue, nil
}

func (s *Service) UpdateVenue(ctx context.Context, ulid string, patch VenuePatch) (*Venue, error) {
	if patch.Name != nil {
		name := sanitize.Text(*patch.Name)
		if name == "" {
			return nil, FieldError{Field: "name", Message: "must not be empty"}
		}
		patch.Name = &name
	}
	if patch.City != nil {
		city := normalizeCity(*patch.City)
		if city == "" {
			return nil, FieldError{Field: "city", Message: "must not be empty"}
		}
		patch.City = &city
	}
	if patch.Description != nil {
		desc := sanitize.HTML(*patch.Description)
		patch.Description = &desc
	}
	patch.Moods = sanitize.TextSlice(patch.Moods)
	return s.venues.Update(ctx, ulid, patch)
}

// CreateEvent validates input, enforces the time-window invariant, and
// inserts a published event.
func (s *Service) CreateEvent(ctx context.Context, input EventInput) (*Event, error) {
	input.Title = sanitize.Text(input.Title)
	input.City = normalizeCity(input.City)
	input.Description = sanitize.HTML(input.Description)
	if err := validate.Struct(input); err != nil {
		return nil, validationError(err)
	}
	if err := ValidateEventWindow(input.StartsAt, input.EndsAt); err != nil {
		return nil, err
	}
	currency := strings.ToUpper(strings.TrimSpace(input.Currency))
	if currency == "" {
		currency = "USD"
	}

	event := &Event{
		ULID:        ids.MustNewULID(),
		Title:       input.Title,
		City:        input.City,
		VenueName:   input.VenueName,
		StartsAt:    input.StartsAt,
		EndsAt:      input.EndsAt,
		Capacity:    input.Capacity,
		PriceCents:  input.PriceCents,
		Currency:    currency,
		Curated:     input.Curated,
		HasTickets:  input.HasTickets,
		ImagePaths:  input.ImagePaths,
		Description: input.Description,
		Published:   true,
	}
	if err := s.events.Create(ctx, event); err != nil {
		return nil, err
	}
	return event, nil
}

func (s *Service) UpdateEvent(ctx context.Context, ulid string, patch EventPatch) (*Event, error) {
	if patch.Title != nil {
		title := sanitize.Text(*patch.Title)
		if title == "" {
			return nil, FieldError{Field: "title", Message: "must not be empty"}
		}
		patch.Title = &title
	}
	if patch.City != nil {
		city := normalizeCity(*patch.City)
		if city == "" {
			return nil, FieldError{Field: "city", Message: "must not be empty"}
		}
		patch.City = &city
	}
	if patch.Description != nil {
		desc := sanitize.HTML(*patch.Description)
		patch.Description = &desc
	}

	// The window invariant has to hold against the stored values when only
	// one side of the window changes.
	if patch.StartsAt != nil || patch.EndsAt != nil || patch.ClearEndsAt {
		existing, err := s.events.GetByULID(ctx, ulid, true)
		if err != nil {
			return nil, err
		}
		startsAt := existing.StartsAt
		endsAt := existing.EndsAt
		if patch.StartsAt != nil {
			startsAt = *patch.StartsAt
		}
		if patch.ClearEndsAt {
			endsAt = nil
		} else if patch.EndsAt != nil {
			endsAt = patch.EndsAt
		}
		if err := ValidateEventWindow(startsAt, endsAt); err != nil {
			return nil, err
		}
	}

	return s.events.Update(ctx, ulid, patch)
}

func (s *Service) UnpublishVenue(ctx context.Context, ulid, adminULID, reason string) error {
	return s.venues.Unpublish(ctx, ulid, adminULID, sanitize.Text(reason))
}

func (s *Service) RepublishVenue(ctx context.Context, ulid string) error {
	return s.venues.Republish(ctx, ulid)
}

func (s *Service) UnpublishEvent(ctx context.Context, ulid, adminULID, reason string) error {
	return s.events.Unpublish(ctx, ulid, adminULID, sanitize.Text(reason))
}

func (s *Service) RepublishEvent(ctx context.Context, ulid string) error {
	return s.events.Republish(ctx, ulid)
}

func validationError(err error) error {
	var invalid validator.ValidationErrors
	if errors.As(err, &invalid) && len(invalid) > 0 {
		first := invalid[0]
		return FieldError{
			Field:   strings.ToLower(first.Field()),
			Message: fmt.Sprintf("failed %q validation", first.Tag()),
		}
	}
	return FieldError{Message: err.Error()}
}

func normalizeCity(city string) string {
	return strings.ToLower(sanitize.Text(city))
}

func ParseVenueFilters(values url.Values) (VenueFilters, Pagination, error) {
	filters := VenueFilters{
		City:  normalizeCity(values.Get("city")),
		Query: strings.TrimSpace(values.Get("q")),
		Mood:  strings.ToLower(strings.TrimSpace(values.Get("mood"))),
	}
	pagination, err := parsePagination(values)
	return filters, pagination, err
}

func ParseEventFilters(values url.Values) (EventFilters, Pagination, error) {
	filters := EventFilters{
		City:  normalizeCity(values.Get("city")),
		Query: strings.TrimSpace(values.Get("q")),
	}
	pagination, err := parsePagination(values)
	return filters, pagination, err
}

func parsePagination(values url.Values) (Pagination, error) {
	pagination := Pagination{Limit: 50, After: strings.TrimSpace(values.Get("after"))}
	rawLimit := strings.TrimSpace(values.Get("limit"))
	if rawLimit == "" {
		return pagination, nil
	}
	parsed, err := strconv.Atoi(rawLimit)
	if err != nil {
		return pagination, FieldError{Field: "limit", Message: "must be a number"}
	}
	if parsed < 1 || parsed > 200 {
		return pagination, FieldError{Field: "limit", Message: "must be between 1 and 200"}
	}
	pagination.Limit = parsed
	return pagination, nil
}

func ValidateULID(ulid string) error {
	return ids.ValidateULID(ulid)
}
