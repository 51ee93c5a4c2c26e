package catalog

import (
	"context"
	"errors"
	"net/url"
	"strings"
	"testing"
	"time"
)

type fakeVenueRepo struct {
	venues  map[string]*Venue
	updated []VenuePatch
}

func newFakeVenueRepo() *fakeVenueRepo {
	return &fakeVenueRepo{venues: make(map[string]*Venue)}
}

func (r *fakeVenueRepo) List(_ context.Context, _ VenueFilters, _ Pagination) (VenueListResult, error) {
	result := VenueListResult{}
	for _, v := range r.venues {
		result.Venues = append(result.Venues, *v)
	}
	return result, nil
}

func (r *fakeVenueRepo) GetByULID(_ context.Context, ulid string, includeUnpublished bool) (*Venue, error) {
	v, ok := r.venues[ulid]
	if !ok || (!v.Published && !includeUnpublished) {
		return nil, ErrVenueNotFound
	}
	copied := *v
	return &copied, nil
}

func (r *fakeVenueRepo) GetByExternalID(_ context.Context, externalID string) (*Venue, error) {
	for _, v := range r.venues {
		if v.ExternalPlaceID != nil && *v.ExternalPlaceID == externalID {
			copied := *v
			return &copied, nil
		}
	}
	return nil, ErrVenueNotFound
}

func (r *fakeVenueRepo) Create(_ context.Context, venue *Venue) error {
	if venue.ExternalPlaceID != nil {
		for _, v := range r.venues {
			if v.ExternalPlaceID != nil && *v.ExternalPlaceID == *venue.ExternalPlaceID {
				return ErrDuplicateExternalID
			}
		}
	}
	venue.CreatedAt = time.Now()
	copied := *venue
	r.venues[venue.ULID] = &copied
	return nil
}

func (r *fakeVenueRepo) Update(_ context.Context, ulid string, patch VenuePatch) (*Venue, error) {
	v, ok := r.venues[ulid]
	if !ok {
		return nil, ErrVenueNotFound
	}
	r.updated = append(r.updated, patch)
	if patch.Name != nil {
		v.Name = *patch.Name
	}
	if patch.Category != nil {
		v.Category = *patch.Category
	}
	if patch.Address != nil {
		v.Address = *patch.Address
	}
	if patch.Rating != nil {
		v.Rating = *patch.Rating
	}
	if patch.ImagePaths != nil {
		v.ImagePaths = patch.ImagePaths
	}
	copied := *v
	return &copied, nil
}

func (r *fakeVenueRepo) Unpublish(_ context.Context, ulid, adminULID, reason string) error {
	v, ok := r.venues[ulid]
	if !ok {
		return ErrVenueNotFound
	}
	now := time.Now()
	v.Published = false
	v.UnpublishedAt = &now
	v.UnpublishedBy = &adminULID
	v.UnpublishReason = reason
	return nil
}

func (r *fakeVenueRepo) Republish(_ context.Context, ulid string) error {
	v, ok := r.venues[ulid]
	if !ok {
		return ErrVenueNotFound
	}
	v.Published = true
	v.UnpublishedAt = nil
	v.UnpublishedBy = nil
	v.UnpublishReason = ""
	return nil
}

type fakeEventRepo struct {
	events map[string]*Event
}

func newFakeEventRepo() *fakeEventRepo {
	return &fakeEventRepo{events: make(map[string]*Event)}
}

func (r *fakeEventRepo) List(_ context.Context, _ EventFilters, _ Pagination) (EventListResult, error) {
	return EventListResult{}, nil
}

func (r *fakeEventRepo) GetByULID(_ context.Context, ulid string, includeUnpublished bool) (*Event, error) {
	e, ok := r.events[ulid]
	if !ok || (!e.Published && !includeUnpublished) {
		return nil, ErrEventNotFound
	}
	copied := *e
	return &copied, nil
}

func (r *fakeEventRepo) Create(_ context.Context, event *Event) error {
	copied := *event
	r.events[event.ULID] = &copied
	return nil
}

func (r *fakeEventRepo) Update(_ context.Context, ulid string, patch EventPatch) (*Event, error) {
	e, ok := r.events[ulid]
	if !ok {
		return nil, ErrEventNotFound
	}
	if patch.Title != nil {
		e.Title = *patch.Title
	}
	if patch.StartsAt != nil {
		e.StartsAt = *patch.StartsAt
	}
	if patch.ClearEndsAt {
		e.EndsAt = nil
	} else if patch.EndsAt != nil {
		e.EndsAt = patch.EndsAt
	}
	copied := *e
	return &copied, nil
}

func (r *fakeEventRepo) Unpublish(_ context.Context, ulid, _, reason string) error {
	e, ok := r.events[ulid]
	if !ok {
		return ErrEventNotFound
	}
	e.Published = false
	e.UnpublishReason = reason
	return nil
}

func (r *fakeEventRepo) Republish(_ context.Context, ulid string) error {
	e, ok := r.events[ulid]
	if !ok {
		return ErrEventNotFound
	}
	e.Published = true
	return nil
}

func newTestService() (*Service, *fakeVenueRepo, *fakeEventRepo) {
	venues := newFakeVenueRepo()
	events := newFakeEventRepo()
	return NewService(venues, events), venues, events
}

func TestCreateVenue(t *testing.T) {
	svc, _, _ := newTestService()

	venue, err := svc.CreateVenue(context.Background(), VenueInput{
		Name: "  The Blue Note  ",
		City: "Austin",
	})
	if err != nil {
		t.Fatalf("CreateVenue: %v", err)
	}
	if venue.ULID == "" {
		t.Error("expected a ULID to be assigned")
	}
	if venue.Name != "The Blue Note" {
		t.Errorf("Name = %q, want trimmed", venue.Name)
	}
	if venue.City != "austin" {
		t.Errorf("City = %q, want lower-cased", venue.City)
	}
	if !venue.Published {
		t.Error("new venues must be published")
	}
}

func TestCreateVenueValidation(t *testing.T) {
	svc, _, _ := newTestService()

	_, err := svc.CreateVenue(context.Background(), VenueInput{City: "Austin"})
	var fieldErr FieldError
	if !errors.As(err, &fieldErr) {
		t.Fatalf("error = %v, want FieldError", err)
	}
	if fieldErr.Field != "name" {
		t.Errorf("Field = %q, want %q", fieldErr.Field, "name")
	}
}

func TestCreateVenueStripsHTML(t *testing.T) {
	svc, _, _ := newTestService()

	venue, err := svc.CreateVenue(context.Background(), VenueInput{
		Name:        "Bar",
		City:        "Austin",
		Description: `<script>alert(1)</script>cozy <b>spot</b>`,
	})
	if err != nil {
		t.Fatalf("CreateVenue: %v", err)
	}
	if venue.Description == "" {
		t.Fatal("description should survive sanitization")
	}
	for _, forbidden := range []string{"<script>", "alert(1)"} {
		if strings.Contains(venue.Description, forbidden) {
			t.Errorf("description %q still contains %q", venue.Description, forbidden)
		}
	}
}

func TestCreateEventWindowInvariant(t *testing.T) {
	svc, _, _ := newTestService()
	starts := time.Date(2026, 3, 1, 20, 0, 0, 0, time.UTC)
	ends := starts.Add(-time.Hour)

	_, err := svc.CreateEvent(context.Background(), EventInput{
		Title:    "Late Show",
		City:     "Austin",
		StartsAt: starts,
		EndsAt:   &ends,
	})
	if !errors.Is(err, ErrEndsBeforeStart) {
		t.Fatalf("error = %v, want ErrEndsBeforeStart", err)
	}
}

func TestCreateEventDefaultsCurrency(t *testing.T) {
	svc, _, _ := newTestService()

	event, err := svc.CreateEvent(context.Background(), EventInput{
		Title:    "Jazz Night",
		City:     "Austin",
		StartsAt: time.Date(2026, 3, 1, 20, 0, 0, 0, time.UTC),
		Currency: "eur",
	})
	if err != nil {
		t.Fatalf("CreateEvent: %v", err)
	}
	if event.Currency != "EUR" {
		t.Errorf("Currency = %q, want %q", event.Currency, "EUR")
	}

	event, err = svc.CreateEvent(context.Background(), EventInput{
		Title:    "Open Mic",
		City:     "Austin",
		StartsAt: time.Date(2026, 3, 2, 20, 0, 0, 0, time.UTC),
	})
	if err != nil {
		t.Fatalf("CreateEvent: %v", err)
	}
	if event.Currency != "USD" {
		t.Errorf("Currency = %q, want default %q", event.Currency, "USD")
	}
}

func TestUpdateEventWindowAgainstStoredValues(t *testing.T) {
	svc, _, events := newTestService()
	starts := time.Date(2026, 3, 1, 20, 0, 0, 0, time.UTC)
	ends := starts.Add(2 * time.Hour)
	events.events["01ARZ3NDEKTSV4RRFFQ69G5FAV"] = &Event{
		ULID:      "01ARZ3NDEKTSV4RRFFQ69G5FAV",
		Title:     "Jazz Night",
		City:      "austin",
		StartsAt:  starts,
		EndsAt:    &ends,
		Published: true,
	}

	// Moving the start past the stored end must fail even though the patch
	// does not touch ends_at.
	badStart := ends.Add(time.Hour)
	_, err := svc.UpdateEvent(context.Background(), "01ARZ3NDEKTSV4RRFFQ69G5FAV", EventPatch{StartsAt: &badStart})
	if !errors.Is(err, ErrEndsBeforeStart) {
		t.Fatalf("error = %v, want ErrEndsBeforeStart", err)
	}

	// Clearing ends_at makes the same start legal.
	updated, err := svc.UpdateEvent(context.Background(), "01ARZ3NDEKTSV4RRFFQ69G5FAV", EventPatch{StartsAt: &badStart, ClearEndsAt: true})
	if err != nil {
		t.Fatalf("UpdateEvent: %v", err)
	}
	if updated.EndsAt != nil {
		t.Error("EndsAt should be cleared")
	}
}

func TestUpdateVenueRejectsEmptyName(t *testing.T) {
	svc, venues, _ := newTestService()
	venues.venues["01ARZ3NDEKTSV4RRFFQ69G5FAV"] = &Venue{ULID: "01ARZ3NDEKTSV4RRFFQ69G5FAV", Name: "Bar", City: "austin", Published: true}

	empty := "   "
	_, err := svc.UpdateVenue(context.Background(), "01ARZ3NDEKTSV4RRFFQ69G5FAV", VenuePatch{Name: &empty})
	var fieldErr FieldError
	if !errors.As(err, &fieldErr) || fieldErr.Field != "name" {
		t.Fatalf("error = %v, want FieldError on name", err)
	}
}

func TestParseVenueFilters(t *testing.T) {
	values := url.Values{}
	values.Set("city", "  Austin ")
	values.Set("q", " jazz ")
	values.Set("mood", "Chill")
	values.Set("limit", "25")
	values.Set("after", "abc")

	filters, pagination, err := ParseVenueFilters(values)
	if err != nil {
		t.Fatalf("ParseVenueFilters: %v", err)
	}
	if filters.City != "austin" {
		t.Errorf("City = %q", filters.City)
	}
	if filters.Query != "jazz" {
		t.Errorf("Query = %q", filters.Query)
	}
	if filters.Mood != "chill" {
		t.Errorf("Mood = %q", filters.Mood)
	}
	if pagination.Limit != 25 || pagination.After != "abc" {
		t.Errorf("pagination = %+v", pagination)
	}
}

func TestParsePaginationBounds(t *testing.T) {
	cases := []struct {
		limit   string
		wantErr bool
		want    int
	}{
		{"", false, 50},
		{"1", false, 1},
		{"200", false, 200},
		{"0", true, 0},
		{"201", true, 0},
		{"abc", true, 0},
	}
	for _, tc := range cases {
		values := url.Values{}
		if tc.limit != "" {
			values.Set("limit", tc.limit)
		}
		_, pagination, err := ParseEventFilters(values)
		if tc.wantErr {
			var fieldErr FieldError
			if !errors.As(err, &fieldErr) || fieldErr.Field != "limit" {
				t.Errorf("limit=%q: error = %v, want FieldError on limit", tc.limit, err)
			}
			continue
		}
		if err != nil {
			t.Errorf("limit=%q: unexpected error %v", tc.limit, err)
			continue
		}
		if pagination.Limit != tc.want {
			t.Errorf("limit=%q: Limit = %d, want %d", tc.limit, pagination.Limit, tc.want)
		}
	}
}
