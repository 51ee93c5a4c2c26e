package catalog

import (
	"context"
	"errors"
	"time"
)

var (
	ErrVenueNotFound       = errors.New("venue not found")
	ErrDuplicateExternalID = errors.New("external place id already in use")
)

// Venue is a published (or unpublished) place record in the catalog.
// Unpublishing retains the row and stamps the audit trio; venues are never
// hard-deleted.
type Venue struct {
	ID              string
	ULID            string
	Name            string
	City            string
	Category        string
	Address         string
	Rating          float64
	ImagePaths      []string
	Moods           []string
	PriceTier       int
	Description     string
	ExternalPlaceID *string
	Published       bool
	UnpublishedAt   *time.Time
	UnpublishedBy   *string
	UnpublishReason string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// VenueInput carries the editable fields for creating a venue.
type VenueInput struct {
	Name            string `validate:"required,min=1,max=200"`
	City            string `validate:"required,min=1,max=100"`
	Category        string `validate:"max=100"`
	Address         string `validate:"max=300"`
	Rating          float64
	ImagePaths      []string
	Moods           []string
	PriceTier       int `validate:"min=0,max=4"`
	Description     string
	ExternalPlaceID *string
}

// VenuePatch carries optional updates; nil fields are left untouched.
type VenuePatch struct {
	Name        *string
	City        *string
	Category    *string
	Address     *string
	Rating      *float64
	ImagePaths  []string
	Moods       []string
	PriceTier   *int
	Description *string
}

type VenueFilters struct {
	City               string
	Query              string
	Mood               string
	IncludeUnpublished bool
}

type Pagination struct {
	Limit int
	After string
}

type VenueListResult struct {
	Venues     []Venue
	NextCursor string
}

type VenueRepository interface {
	List(ctx context.Context, filters VenueFilters, pagination Pagination) (VenueListResult, error)
	GetByULID(ctx context.Context, ulid string, includeUnpublished bool) (*Venue, error)
	GetByExternalID(ctx context.Context, externalID string) (*Venue, error)
	Create(ctx context.Context, venue *Venue) error
	Update(ctx context.Context, ulid string, patch VenuePatch) (*Venue, error)
	Unpublish(ctx context.Context, ulid, adminULID, reason string) error
	Republish(ctx context.Context, ulid string) error
}
