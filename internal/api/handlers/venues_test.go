package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/citybeat-app/server/internal/api/middleware"
	"github.com/citybeat-app/server/internal/api/pagination"
	"github.com/citybeat-app/server/internal/auth"
	"github.com/citybeat-app/server/internal/domain/catalog"
)

type stubVenueRepo struct {
	venues []catalog.Venue
}

func (r *stubVenueRepo) List(_ context.Context, filters catalog.VenueFilters, page catalog.Pagination) (catalog.VenueListResult, error) {
	result := catalog.VenueListResult{}
	if page.After != "" {
		if _, err := pagination.Decode(page.After); err != nil {
			return result, err
		}
	}
	for _, v := range r.venues {
		if !v.Published && !filters.IncludeUnpublished {
			continue
		}
		result.Venues = append(result.Venues, v)
	}
	return result, nil
}

func (r *stubVenueRepo) GetByULID(_ context.Context, ulid string, includeUnpublished bool) (*catalog.Venue, error) {
	for i := range r.venues {
		v := &r.venues[i]
		if v.ULID == ulid && (v.Published || includeUnpublished) {
			copied := *v
			return &copied, nil
		}
	}
	return nil, catalog.ErrVenueNotFound
}

func (r *stubVenueRepo) GetByExternalID(_ context.Context, _ string) (*catalog.Venue, error) {
	return nil, catalog.ErrVenueNotFound
}

func (r *stubVenueRepo) Create(_ context.Context, venue *catalog.Venue) error {
	r.venues = append(r.venues, *venue)
	return nil
}

func (r *stubVenueRepo) Update(_ context.Context, _ string, _ catalog.VenuePatch) (*catalog.Venue, error) {
	return nil, catalog.ErrVenueNotFound
}

func (r *stubVenueRepo) Unpublish(_ context.Context, _, _, _ string) error { return nil }
func (r *stubVenueRepo) Republish(_ context.Context, _ string) error       { return nil }

type stubEventRepo struct{}

func (stubEventRepo) List(_ context.Context, _ catalog.EventFilters, _ catalog.Pagination) (catalog.EventListResult, error) {
	return catalog.EventListResult{}, nil
}

func (stubEventRepo) GetByULID(_ context.Context, _ string, _ bool) (*catalog.Event, error) {
	return nil, catalog.ErrEventNotFound
}

func (stubEventRepo) Create(_ context.Context, _ *catalog.Event) error { return nil }

func (stubEventRepo) Update(_ context.Context, _ string, _ catalog.EventPatch) (*catalog.Event, error) {
	return nil, catalog.ErrEventNotFound
}

func (stubEventRepo) Unpublish(_ context.Context, _, _, _ string) error { return nil }
func (stubEventRepo) Republish(_ context.Context, _ string) error       { return nil }

const (
	publishedULID   = "01HQZX3V0EJ4R8K2M5N7P9T0AB"
	unpublishedULID = "01HQZX3V0EJ4R8K2M5N7P9T0CD"
)

func venuesTestMux(t *testing.T) (*http.ServeMux, *auth.JWTManager) {
	t.Helper()
	repo := &stubVenueRepo{venues: []catalog.Venue{
		{ULID: publishedULID, Name: "Open Bar", City: "austin", Published: true, CreatedAt: time.Now()},
		{ULID: unpublishedULID, Name: "Closed Bar", City: "austin", Published: false, CreatedAt: time.Now()},
	}}
	service := catalog.NewService(repo, stubEventRepo{})
	handler := NewVenuesHandler(service, "test")

	manager := auth.NewJWTManager("test-secret-with-enough-length", time.Hour, "citybeat-test")
	requireAdmin := middleware.RequireAdmin(manager, "test")

	mux := http.NewServeMux()
	mux.Handle("GET /api/v1/venues", http.HandlerFunc(handler.List))
	mux.Handle("GET /api/v1/venues/{id}", http.HandlerFunc(handler.Get))
	mux.Handle("GET /api/v1/admin/venues", requireAdmin(http.HandlerFunc(handler.List)))
	mux.Handle("GET /api/v1/admin/venues/{id}", requireAdmin(http.HandlerFunc(handler.Get)))
	return mux, manager
}

func listVenues(t *testing.T, mux *http.ServeMux, path, token string) (int, listResponse) {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	var body struct {
		Items      []venueResponse `json:"items"`
		NextCursor string          `json:"next_cursor"`
	}
	if rec.Code == http.StatusOK {
		if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
			t.Fatalf("decode list: %v", err)
		}
	}
	return rec.Code, listResponse{Items: body.Items, NextCursor: body.NextCursor}
}

func TestListVenuesPublic(t *testing.T) {
	mux, _ := venuesTestMux(t)

	code, result := listVenues(t, mux, "/api/v1/venues", "")
	if code != http.StatusOK {
		t.Fatalf("status = %d", code)
	}
	items := result.Items.([]venueResponse)
	if len(items) != 1 || items[0].ULID != publishedULID {
		t.Errorf("items = %+v, want only the published venue", items)
	}
}

func TestListVenuesIgnoresIncludeUnpublishedForPublic(t *testing.T) {
	mux, _ := venuesTestMux(t)

	code, result := listVenues(t, mux, "/api/v1/venues?include_unpublished=true", "")
	if code != http.StatusOK {
		t.Fatalf("status = %d", code)
	}
	if items := result.Items.([]venueResponse); len(items) != 1 {
		t.Errorf("items = %d, public callers must never see unpublished venues", len(items))
	}
}

func TestListVenuesAdminIncludesUnpublished(t *testing.T) {
	mux, manager := venuesTestMux(t)
	token, err := manager.Generate("01ADMIN000000000000000000A", true)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}

	code, result := listVenues(t, mux, "/api/v1/admin/venues?include_unpublished=true", token)
	if code != http.StatusOK {
		t.Fatalf("status = %d", code)
	}
	if items := result.Items.([]venueResponse); len(items) != 2 {
		t.Errorf("items = %d, admin with include_unpublished should see both", len(items))
	}
}

func TestListVenuesMalformedCursor(t *testing.T) {
	mux, _ := venuesTestMux(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/venues?after=not-a-cursor!!", nil)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	if got := rec.Header().Get("Content-Type"); got != "application/problem+json" {
		t.Errorf("Content-Type = %q", got)
	}
	var body struct {
		Errors map[string]string `json:"errors"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode problem: %v", err)
	}
	if body.Errors["after"] == "" {
		t.Errorf("errors = %+v, want an entry for the after parameter", body.Errors)
	}
}

func TestGetVenue(t *testing.T) {
	mux, _ := venuesTestMux(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/venues/"+publishedULID, nil)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var venue venueResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &venue); err != nil {
		t.Fatalf("decode venue: %v", err)
	}
	if venue.ULID != publishedULID || venue.Name != "Open Bar" {
		t.Errorf("venue = %+v", venue)
	}
	if venue.ImagePaths == nil || venue.Moods == nil {
		t.Error("slice fields must render as [] rather than null")
	}
}

func TestGetVenueNotFoundCases(t *testing.T) {
	mux, _ := venuesTestMux(t)

	cases := []struct {
		name string
		path string
		want int
	}{
		{"unpublished hidden from public", "/api/v1/venues/" + unpublishedULID, http.StatusNotFound},
		{"unknown ulid", "/api/v1/venues/01HQZX3V0EJ4R8K2M5N7P9T0ZZ", http.StatusNotFound},
		{"malformed ulid", "/api/v1/venues/not-a-ulid", http.StatusBadRequest},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tc.path, nil)
			rec := httptest.NewRecorder()
			mux.ServeHTTP(rec, req)
			if rec.Code != tc.want {
				t.Errorf("status = %d, want %d", rec.Code, tc.want)
			}
			if got := rec.Header().Get("Content-Type"); got != "application/problem+json" {
				t.Errorf("Content-Type = %q", got)
			}
		})
	}
}

func TestGetVenueAdminSeesUnpublished(t *testing.T) {
	mux, manager := venuesTestMux(t)
	token, err := manager.Generate("01ADMIN000000000000000000A", true)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/admin/venues/"+unpublishedULID, nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
}
