package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/citybeat-app/server/internal/domain/catalog"
	"github.com/citybeat-app/server/internal/domain/moderation"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
)

var _ moderation.Repository = (*SubmissionRepository)(nil)

type SubmissionRepository struct {
	pool *pgxpool.Pool
}

const submissionColumns = `id, ulid, kind, status, submitter_ulid, name, city, category, address,
       description, moods, price_tier, image_paths, starts_at, ends_at, capacity,
       price_cents, currency, reviewed_by, reviewed_at, rejection_reason,
       promoted_venue_ulid, promoted_event_ulid, created_at, updated_at`

func (r *SubmissionRepository) Create(ctx context.Context, submission *moderation.Submission) error {
	row := r.pool.QueryRow(ctx, `
INSERT INTO submissions (ulid, kind, status, submitter_ulid, name, city, category,
                         address, description, moods, price_tier, image_paths,
                         starts_at, ends_at, capacity, price_cents, currency)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
RETURNING id, created_at, updated_at
`,
		submission.ULID,
		submission.Kind,
		submission.Status,
		submission.SubmitterID,
		submission.Name,
		submission.City,
		submission.Category,
		submission.Address,
		submission.Description,
		submission.Moods,
		submission.PriceTier,
		submission.ImagePaths,
		submission.StartsAt,
		submission.EndsAt,
		submission.Capacity,
		submission.PriceCents,
		submission.Currency,
	)

	var createdAt, updatedAt pgtype.Timestamptz
	if err := row.Scan(&submission.ID, &createdAt, &updatedAt); err != nil {
		return fmt.Errorf("create submission: %w", err)
	}
	submission.CreatedAt = createdAt.Time
	submission.UpdatedAt = updatedAt.Time
	return nil
}

func (r *SubmissionRepository) GetByULID(ctx context.Context, ulid string) (*moderation.Submission, error) {
	return getSubmission(ctx, r.pool, ulid)
}

func getSubmission(ctx context.Context, q queryer, ulid string) (*moderation.Submission, error) {
	row := q.QueryRow(ctx, `
SELECT `+submissionColumns+`
  FROM submissions
 WHERE ulid = $1
`, ulid)

	submission, err := scanSubmission(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, moderation.ErrNotFound
		}
		return nil, fmt.Errorf("get submission: %w", err)
	}
	return submission, nil
}

func (r *SubmissionRepository) ListBySubmitter(ctx context.Context, submitterULID string, limit int) ([]moderation.Submission, error) {
	return r.list(ctx, `
SELECT `+submissionColumns+`
  FROM submissions
 WHERE submitter_ulid = $1
 ORDER BY created_at DESC, ulid DESC
 LIMIT $2
`, submitterULID, limit)
}

func (r *SubmissionRepository) ListByStatus(ctx context.Context, status moderation.Status, limit int) ([]moderation.Submission, error) {
	return r.list(ctx, `
SELECT `+submissionColumns+`
  FROM submissions
 WHERE status = $1
 ORDER BY created_at DESC, ulid DESC
 LIMIT $2
`, string(status), limit)
}

func (r *SubmissionRepository) list(ctx context.Context, sql string, args ...any) ([]moderation.Submission, error) {
	rows, err := r.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("list submissions: %w", err)
	}
	defer rows.Close()

	var items []moderation.Submission
	for rows.Next() {
		submission, err := scanSubmission(rows)
		if err != nil {
			return nil, fmt.Errorf("scan submission: %w", err)
		}
		items = append(items, *submission)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate submissions: %w", err)
	}
	return items, nil
}

func (r *SubmissionRepository) HasPendingDuplicate(ctx context.Context, submitterULID, city, name string) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx, `
SELECT EXISTS (
  SELECT 1
    FROM submissions
   WHERE submitter_ulid = $1
     AND status = 'pending'
     AND lower(city) = lower($2)
     AND lower(name) = lower($3)
)
`, submitterULID, city, name).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check duplicate submission: %w", err)
	}
	return exists, nil
}

func (r *SubmissionRepository) UpdatePending(ctx context.Context, ulid string, patch moderation.Patch) (*moderation.Submission, error) {
	row := r.pool.QueryRow(ctx, `
UPDATE submissions
   SET name = COALESCE($2, name),
       city = COALESCE($3, city),
       category = COALESCE($4, category),
       address = COALESCE($5, address),
       description = COALESCE($6, description),
       moods = COALESCE($7::text[], moods),
       price_tier = COALESCE($8, price_tier),
       image_paths = COALESCE($9::text[], image_paths),
       starts_at = COALESCE($10, starts_at),
       ends_at = COALESCE($11, ends_at),
       capacity = COALESCE($12, capacity),
       price_cents = COALESCE($13, price_cents),
       updated_at = now()
 WHERE ulid = $1 AND status = 'pending'
RETURNING `+submissionColumns+`
`,
		ulid,
		patch.Name,
		patch.City,
		patch.Category,
		patch.Address,
		patch.Description,
		patch.Moods,
		patch.PriceTier,
		patch.ImagePaths,
		patch.StartsAt,
		patch.EndsAt,
		patch.Capacity,
		patch.PriceCents,
	)

	submission, err := scanSubmission(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, r.pendingError(ctx, ulid)
		}
		return nil, fmt.Errorf("update submission: %w", err)
	}
	return submission, nil
}

// PromoteToVenue creates the venue and flips the submission to approved in a
// single transaction. The status guard in the UPDATE makes promotion apply
// at most once even under concurrent approvals.
func (r *SubmissionRepository) PromoteToVenue(ctx context.Context, ulid, reviewerULID string, venue *catalog.Venue) (*moderation.Submission, error) {
	return r.promote(ctx, ulid, func(tx pgx.Tx) (string, string, error) {
		if err := createVenue(ctx, tx, venue); err != nil {
			return "", "", err
		}
		return venue.ULID, "", nil
	}, reviewerULID)
}

// PromoteToEvent is the event counterpart of PromoteToVenue.
func (r *SubmissionRepository) PromoteToEvent(ctx context.Context, ulid, reviewerULID string, event *catalog.Event) (*moderation.Submission, error) {
	return r.promote(ctx, ulid, func(tx pgx.Tx) (string, string, error) {
		if err := createEvent(ctx, tx, event); err != nil {
			return "", "", err
		}
		return "", event.ULID, nil
	}, reviewerULID)
}

func (r *SubmissionRepository) promote(ctx context.Context, ulid string, create func(pgx.Tx) (venueULID, eventULID string, err error), reviewerULID string) (*moderation.Submission, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin promotion: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	// Lock the row first so the catalog insert never happens for a
	// submission that already left pending.
	var status string
	err = tx.QueryRow(ctx, `SELECT status FROM submissions WHERE ulid = $1 FOR UPDATE`, ulid).Scan(&status)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, moderation.ErrNotFound
		}
		return nil, fmt.Errorf("lock submission: %w", err)
	}
	if status != string(moderation.StatusPending) {
		return nil, moderation.ErrNotPending
	}

	venueULID, eventULID, err := create(tx)
	if err != nil {
		return nil, err
	}

	row := tx.QueryRow(ctx, `
UPDATE submissions
   SET status = 'approved',
       reviewed_by = $2,
       reviewed_at = now(),
       promoted_venue_ulid = $3,
       promoted_event_ulid = $4,
       updated_at = now()
 WHERE ulid = $1 AND status = 'pending'
RETURNING `+submissionColumns+`
`, ulid, reviewerULID, textOrNil(venueULID), textOrNil(eventULID))

	submission, err := scanSubmission(row)
	if err != nil {
		return nil, fmt.Errorf("approve submission: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit promotion: %w", err)
	}
	return submission, nil
}

func (r *SubmissionRepository) Reject(ctx context.Context, ulid, reviewerULID, reason string) (*moderation.Submission, error) {
	row := r.pool.QueryRow(ctx, `
UPDATE submissions
   SET status = 'rejected',
       reviewed_by = $2,
       reviewed_at = now(),
       rejection_reason = $3,
       updated_at = now()
 WHERE ulid = $1 AND status = 'pending'
RETURNING `+submissionColumns+`
`, ulid, reviewerULID, reason)

	submission, err := scanSubmission(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, r.pendingError(ctx, ulid)
		}
		return nil, fmt.Errorf("reject submission: %w", err)
	}
	return submission, nil
}

// pendingError distinguishes a missing submission from one that already left
// pending after a conditional update applied to no row.
func (r *SubmissionRepository) pendingError(ctx context.Context, ulid string) error {
	if _, err := getSubmission(ctx, r.pool, ulid); err != nil {
		return err
	}
	return moderation.ErrNotPending
}

func scanSubmission(row pgx.Row) (*moderation.Submission, error) {
	var submission moderation.Submission
	var startsAt, endsAt, reviewedAt, createdAt, updatedAt pgtype.Timestamptz
	var reviewedBy, promotedVenue, promotedEvent pgtype.Text
	err := row.Scan(
		&submission.ID,
		&submission.ULID,
		&submission.Kind,
		&submission.Status,
		&submission.SubmitterID,
		&submission.Name,
		&submission.City,
		&submission.Category,
		&submission.Address,
		&submission.Description,
		&submission.Moods,
		&submission.PriceTier,
		&submission.ImagePaths,
		&startsAt,
		&endsAt,
		&submission.Capacity,
		&submission.PriceCents,
		&submission.Currency,
		&reviewedBy,
		&reviewedAt,
		&submission.RejectionReason,
		&promotedVenue,
		&promotedEvent,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return nil, err
	}
	submission.StartsAt = timeOrNil(startsAt)
	submission.EndsAt = timeOrNil(endsAt)
	submission.ReviewedBy = textPtr(reviewedBy)
	submission.ReviewedAt = timeOrNil(reviewedAt)
	submission.PromotedVenueULID = textPtr(promotedVenue)
	submission.PromotedEventULID = textPtr(promotedEvent)
	submission.CreatedAt = createdAt.Time
	submission.UpdatedAt = updatedAt.Time
	return &submission, nil
}
