package catalog

import (
	"context"
	"errors"
)

// ExternalVenue is a venue record sourced from the third-party place search,
// reshaped into catalog terms by the caller.
type ExternalVenue struct {
	ExternalPlaceID string
	Name            string
	City            string
	Category        string
	Address         string
	Rating          float64
	ImagePaths      []string
}

// mergeRule fills a single venue field from an external record, but only
// when the stored value is empty. Populated fields are never overwritten.
type mergeRule struct {
	field string
	apply func(existing *Venue, ext ExternalVenue, patch *VenuePatch) bool
}

var venueMergeRules = []mergeRule{
	{"category", func(existing *Venue, ext ExternalVenue, patch *VenuePatch) bool {
		if existing.Category != "" || ext.Category == "" {
			return false
		}
		patch.Category = &ext.Category
		return true
	}},
	{"address", func(existing *Venue, ext ExternalVenue, patch *VenuePatch) bool {
		if existing.Address != "" || ext.Address == "" {
			return false
		}
		patch.Address = &ext.Address
		return true
	}},
	{"rating", func(existing *Venue, ext ExternalVenue, patch *VenuePatch) bool {
		if existing.Rating != 0 || ext.Rating == 0 {
			return false
		}
		patch.Rating = &ext.Rating
		return true
	}},
	{"image_paths", func(existing *Venue, ext ExternalVenue, patch *VenuePatch) bool {
		if len(existing.ImagePaths) > 0 || len(ext.ImagePaths) == 0 {
			return false
		}
		patch.ImagePaths = ext.ImagePaths
		return true
	}},
}

// ImportVenue merges an external search result into the catalog. A venue
// matched by external place id is enriched field-by-field under the
// fill-only-if-empty policy; with no match a new published venue is created.
// The second return reports whether a venue was created.
func (s *Service) ImportVenue(ctx context.Context, ext ExternalVenue) (*Venue, bool, error) {
	if ext.ExternalPlaceID == "" {
		return nil, false, FieldError{Field: "external_place_id", Message: "is required for import"}
	}

	existing, err := s.venues.GetByExternalID(ctx, ext.ExternalPlaceID)
	if err != nil && !errors.Is(err, ErrVenueNotFound) {
		return nil, false, err
	}

	if existing == nil {
		externalID := ext.ExternalPlaceID
		venue, err := s.CreateVenue(ctx, VenueInput{
			Name:            ext.Name,
			City:            ext.City,
			Category:        ext.Category,
			Address:         ext.Address,
			Rating:          ext.Rating,
			ImagePaths:      ext.ImagePaths,
			ExternalPlaceID: &externalID,
		})
		if err != nil {
			return nil, false, err
		}
		return venue, true, nil
	}

	patch := VenuePatch{}
	changed := false
	for _, rule := range venueMergeRules {
		if rule.apply(existing, ext, &patch) {
			changed = true
		}
	}
	if !changed {
		return existing, false, nil
	}

	updated, err := s.venues.Update(ctx, existing.ULID, patch)
	if err != nil {
		return nil, false, err
	}
	return updated, false, nil
}
