package catalog

import (
	"context"
	"errors"
	"testing"
)

func TestImportVenueCreatesWhenUnknown(t *testing.T) {
	svc, venues, _ := newTestService()

	venue, created, err := svc.ImportVenue(context.Background(), ExternalVenue{
		ExternalPlaceID: "place-123",
		Name:            "Corner Cafe",
		City:            "Portland",
		Category:        "cafe",
		Rating:          4.5,
	})
	if err != nil {
		t.Fatalf("ImportVenue: %v", err)
	}
	if !created {
		t.Error("expected a new venue")
	}
	if venue.ExternalPlaceID == nil || *venue.ExternalPlaceID != "place-123" {
		t.Error("external place id not stored")
	}
	if len(venues.venues) != 1 {
		t.Errorf("venue count = %d", len(venues.venues))
	}
}

func TestImportVenueFillsOnlyEmptyFields(t *testing.T) {
	svc, venues, _ := newTestService()
	extID := "place-123"
	venues.venues["01ARZ3NDEKTSV4RRFFQ69G5FAV"] = &Venue{
		ULID:            "01ARZ3NDEKTSV4RRFFQ69G5FAV",
		Name:            "Corner Cafe",
		City:            "portland",
		Category:        "bakery", // populated, must not be overwritten
		ExternalPlaceID: &extID,
		Published:       true,
	}

	venue, created, err := svc.ImportVenue(context.Background(), ExternalVenue{
		ExternalPlaceID: "place-123",
		Name:            "Corner Cafe",
		City:            "Portland",
		Category:        "cafe",
		Address:         "123 Main St",
		Rating:          4.5,
	})
	if err != nil {
		t.Fatalf("ImportVenue: %v", err)
	}
	if created {
		t.Error("expected an update, not a create")
	}
	if venue.Category != "bakery" {
		t.Errorf("Category = %q, populated field was overwritten", venue.Category)
	}
	if venue.Address != "123 Main St" {
		t.Errorf("Address = %q, empty field was not filled", venue.Address)
	}
	if venue.Rating != 4.5 {
		t.Errorf("Rating = %v, empty field was not filled", venue.Rating)
	}
}

func TestImportVenueNoChanges(t *testing.T) {
	svc, venues, _ := newTestService()
	extID := "place-123"
	venues.venues["01ARZ3NDEKTSV4RRFFQ69G5FAV"] = &Venue{
		ULID:            "01ARZ3NDEKTSV4RRFFQ69G5FAV",
		Name:            "Corner Cafe",
		City:            "portland",
		Category:        "cafe",
		Address:         "123 Main St",
		Rating:          4.0,
		ImagePaths:      []string{"/uploads/a.jpg"},
		ExternalPlaceID: &extID,
		Published:       true,
	}

	_, created, err := svc.ImportVenue(context.Background(), ExternalVenue{
		ExternalPlaceID: "place-123",
		Name:            "Corner Cafe",
		City:            "Portland",
		Category:        "restaurant",
		Rating:          4.9,
	})
	if err != nil {
		t.Fatalf("ImportVenue: %v", err)
	}
	if created {
		t.Error("expected no create")
	}
	if len(venues.updated) != 0 {
		t.Errorf("Update called %d times for a fully-populated venue", len(venues.updated))
	}
}

func TestImportVenueRequiresExternalID(t *testing.T) {
	svc, _, _ := newTestService()

	_, _, err := svc.ImportVenue(context.Background(), ExternalVenue{Name: "Nameless"})
	var fieldErr FieldError
	if !errors.As(err, &fieldErr) || fieldErr.Field != "external_place_id" {
		t.Fatalf("error = %v, want FieldError on external_place_id", err)
	}
}
