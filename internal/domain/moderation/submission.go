package moderation

import (
	"context"
	"errors"
	"time"

	"github.com/citybeat-app/server/internal/domain/catalog"
)

type Kind string

const (
	KindPlace Kind = "place"
	KindEvent Kind = "event"
)

type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
)

var (
	ErrNotFound         = errors.New("submission not found")
	ErrNotPending       = errors.New("submission is not pending")
	ErrDuplicatePending = errors.New("duplicate pending submission")
)

// Submission is a staged user-contributed place or event awaiting review.
// Status moves pending -> approved|rejected exactly once; the record is kept
// as an audit trail either way, never deleted.
type Submission struct {
	ID          string
	ULID        string
	Kind        Kind
	Status      Status
	SubmitterID string

	// Shared payload fields. Name doubles as the event title.
	Name        string
	City        string
	Category    string
	Address     string
	Description string
	Moods       []string
	PriceTier   int
	ImagePaths  []string

	// Event-only payload fields.
	StartsAt   *time.Time
	EndsAt     *time.Time
	Capacity   int
	PriceCents int64
	Currency   string

	ReviewedBy      *string
	ReviewedAt      *time.Time
	RejectionReason string

	// Set on approval; keying the promoted entity on the submission makes a
	// retried approval unable to double-create.
	PromotedVenueULID *string
	PromotedEventULID *string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Patch carries the admin-editable fields of a pending submission. Status is
// deliberately absent: approval and rejection have their own paths.
type Patch struct {
	Name        *string
	City        *string
	Category    *string
	Address     *string
	Description *string
	Moods       []string
	PriceTier   *int
	ImagePaths  []string
	StartsAt    *time.Time
	EndsAt      *time.Time
	Capacity    *int
	PriceCents  *int64
}

type Repository interface {
	Create(ctx context.Context, submission *Submission) error
	GetByULID(ctx context.Context, ulid string) (*Submission, error)
	ListBySubmitter(ctx context.Context, submitterULID string, limit int) ([]Submission, error)
	ListByStatus(ctx context.Context, status Status, limit int) ([]Submission, error)
	HasPendingDuplicate(ctx context.Context, submitterULID, city, name string) (bool, error)

	// UpdatePending applies a patch only while status is pending.
	UpdatePending(ctx context.Context, ulid string, patch Patch) (*Submission, error)

	// PromoteToVenue atomically creates the venue and marks the submission
	// approved in one transaction. Returns ErrNotPending when the status
	// already moved.
	PromoteToVenue(ctx context.Context, ulid, reviewerULID string, venue *catalog.Venue) (*Submission, error)

	// PromoteToEvent is the event counterpart of PromoteToVenue.
	PromoteToEvent(ctx context.Context, ulid, reviewerULID string, event *catalog.Event) (*Submission, error)

	// Reject marks a pending submission rejected with an optional reason.
	Reject(ctx context.Context, ulid, reviewerULID, reason string) (*Submission, error)
}
