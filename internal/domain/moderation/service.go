package moderation

import (
	"context"
	"strings"
	"time"

	"github.com/citybeat-app/server/internal/domain/catalog"
	"github.com/citybeat-app/server/internal/domain/ids"
	"github.com/citybeat-app/server/internal/sanitize"
)

// PageSize caps every moderation listing.
const PageSize = 50

// Notifier tells a submitter about a review outcome. Failures are logged and
// never fail the review request.
type Notifier interface {
	SubmissionApproved(ctx context.Context, submitterULID, name string)
	SubmissionRejected(ctx context.Context, submitterULID, name, reason string)
}

type SubmitInput struct {
	Kind        Kind
	Name        string
	City        string
	Category    string
	Address     string
	Description string
	Moods       []string
	PriceTier   int
	ImagePaths  []string
	StartsAt    *time.Time
	EndsAt      *time.Time
	Capacity    int
	PriceCents  int64
	Currency    string
}

type Service struct {
	repo     Repository
	notifier Notifier
}

func NewService(repo Repository, notifier Notifier) *Service {
	return &Service{repo: repo, notifier: notifier}
}

// Submit validates and stages a user-contributed place or event.
func (s *Service) Submit(ctx context.Context, input SubmitInput, submitterULID string) (*Submission, error) {
	input.Name = sanitize.Text(input.Name)
	input.City = strings.ToLower(sanitize.Text(input.City))
	input.Description = sanitize.HTML(input.Description)
	input.Moods = sanitize.TextSlice(input.Moods)

	if input.Kind != KindPlace && input.Kind != KindEvent {
		return nil, catalog.FieldError{Field: "kind", Message: "must be place or event"}
	}
	if input.Name == "" {
		return nil, catalog.FieldError{Field: "name", Message: "is required"}
	}
	if input.City == "" {
		return nil, catalog.FieldError{Field: "city", Message: "is required"}
	}
	if input.Kind == KindEvent {
		if input.StartsAt == nil {
			return nil, catalog.FieldError{Field: "starts_at", Message: "is required for events"}
		}
		if err := catalog.ValidateEventWindow(*input.StartsAt, input.EndsAt); err != nil {
			return nil, err
		}
	}

	duplicate, err := s.repo.HasPendingDuplicate(ctx, submitterULID, input.City, input.Name)
	if err != nil {
		return nil, err
	}
	if duplicate {
		return nil, ErrDuplicatePending
	}

	currency := strings.ToUpper(strings.TrimSpace(input.Currency))
	if currency == "" {
		currency = "USD"
	}

	submission := &Submission{
		ULID:        ids.MustNewULID(),
		Kind:        input.Kind,
		Status:      StatusPending,
		SubmitterID: submitterULID,
		Name:        input.Name,
		City:        input.City,
		Category:    input.Category,
		Address:     input.Address,
		Description: input.Description,
		Moods:       input.Moods,
		PriceTier:   input.PriceTier,
		ImagePaths:  input.ImagePaths,
		StartsAt:    input.StartsAt,
		EndsAt:      input.EndsAt,
		Capacity:    input.Capacity,
		PriceCents:  input.PriceCents,
		Currency:    currency,
	}
	if err := s.repo.Create(ctx, submission); err != nil {
		return nil, err
	}
	return submission, nil
}

func (s *Service) ListMine(ctx context.Context, submitterULID string) ([]Submission, error) {
	return s.repo.ListBySubmitter(ctx, submitterULID, PageSize)
}

func (s *Service) ListByStatus(ctx context.Context, status Status) ([]Submission, error) {
	switch status {
	case StatusPending, StatusApproved, StatusRejected:
	default:
		return nil, catalog.FieldError{Field: "status", Message: "must be pending, approved, or rejected"}
	}
	return s.repo.ListByStatus(ctx, status, PageSize)
}

func (s *Service) Get(ctx context.Context, ulid string) (*Submission, error) {
	return s.repo.GetByULID(ctx, ulid)
}

// Edit patches a pending submission. The repository enforces the pending
// guard so a concurrent approval cannot be overwritten.
func (s *Service) Edit(ctx context.Context, ulid string, patch Patch) (*Submission, error) {
	if patch.Name != nil {
		name := sanitize.Text(*patch.Name)
		if name == "" {
			return nil, catalog.FieldError{Field: "name", Message: "must not be empty"}
		}
		patch.Name = &name
	}
	if patch.City != nil {
		city := strings.ToLower(sanitize.Text(*patch.City))
		if city == "" {
			return nil, catalog.FieldError{Field: "city", Message: "must not be empty"}
		}
		patch.City = &city
	}
	if patch.Description != nil {
		desc := sanitize.HTML(*patch.Description)
		patch.Description = &desc
	}
	patch.Moods = sanitize.TextSlice(patch.Moods)

	// The window invariant has to hold against the stored values when only
	// one side of the window changes. Catching it here keeps a bad window
	// from surviving until approval fails at the catalog insert.
	if patch.StartsAt != nil || patch.EndsAt != nil {
		existing, err := s.repo.GetByULID(ctx, ulid)
		if err != nil {
			return nil, err
		}
		if existing.Kind == KindEvent {
			startsAt := existing.StartsAt
			endsAt := existing.EndsAt
			if patch.StartsAt != nil {
				startsAt = patch.StartsAt
			}
			if patch.EndsAt != nil {
				endsAt = patch.EndsAt
			}
			if startsAt == nil {
				return nil, catalog.FieldError{Field: "starts_at", Message: "is required for events"}
			}
			if err := catalog.ValidateEventWindow(*startsAt, endsAt); err != nil {
				return nil, err
			}
		}
	}

	return s.repo.UpdatePending(ctx, ulid, patch)
}

// Approve promotes a pending submission into the catalog. Entity creation
// and the status flip happen in one transaction inside the repository, so a
// crash cannot leave an approved submission without its catalog record.
func (s *Service) Approve(ctx context.Context, ulid, reviewerULID string) (*Submission, error) {
	submission, err := s.repo.GetByULID(ctx, ulid)
	if err != nil {
		return nil, err
	}
	if submission.Status != StatusPending {
		return nil, ErrNotPending
	}

	var approved *Submission
	switch submission.Kind {
	case KindEvent:
		approved, err = s.repo.PromoteToEvent(ctx, ulid, reviewerULID, buildEvent(submission))
	default:
		approved, err = s.repo.PromoteToVenue(ctx, ulid, reviewerULID, buildVenue(submission))
	}
	if err != nil {
		return nil, err
	}

	if s.notifier != nil {
		s.notifier.SubmissionApproved(ctx, approved.SubmitterID, approved.Name)
	}
	return approved, nil
}

// Reject marks a pending submission rejected. No catalog side effect.
func (s *Service) Reject(ctx context.Context, ulid, reviewerULID, reason string) (*Submission, error) {
	rejected, err := s.repo.Reject(ctx, ulid, reviewerULID, sanitize.Text(reason))
	if err != nil {
		return nil, err
	}

	if s.notifier != nil {
		s.notifier.SubmissionRejected(ctx, rejected.SubmitterID, rejected.Name, rejected.RejectionReason)
	}
	return rejected, nil
}

// buildVenue copies a submission's payload into a new published venue.
func buildVenue(submission *Submission) *catalog.Venue {
	return &catalog.Venue{
		ULID:        ids.MustNewULID(),
		Name:        submission.Name,
		City:        submission.City,
		Category:    submission.Category,
		Address:     submission.Address,
		Description: submission.Description,
		Moods:       submission.Moods,
		PriceTier:   submission.PriceTier,
		ImagePaths:  submission.ImagePaths,
		Published:   true,
	}
}

// buildEvent copies a submission's payload into a new published event.
// Community-submitted events start uncurated and without ticketing; both are
// flipped by an admin edit once vetted.
func buildEvent(submission *Submission) *catalog.Event {
	event := &catalog.Event{
		ULID:        ids.MustNewULID(),
		Title:       submission.Name,
		City:        submission.City,
		VenueName:   submission.Address,
		Capacity:    submission.Capacity,
		PriceCents:  submission.PriceCents,
		Currency:    submission.Currency,
		ImagePaths:  submission.ImagePaths,
		Description: submission.Description,
		Published:   true,
	}
	if submission.StartsAt != nil {
		event.StartsAt = *submission.StartsAt
	}
	event.EndsAt = submission.EndsAt
	return event
}
