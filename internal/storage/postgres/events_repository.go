package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/citybeat-app/server/internal/api/pagination"
	"github.com/citybeat-app/server/internal/domain/catalog"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
)

var _ catalog.EventRepository = (*EventRepository)(nil)

type EventRepository struct {
	pool *pgxpool.Pool
}

const eventColumns = `id, ulid, title, city, venue_name, starts_at, ends_at, capacity,
       tickets_sold, price_cents, currency, curated, has_tickets, image_paths,
       description, published, unpublished_at, unpublished_by, unpublish_reason,
       created_at, updated_at`

func (r *EventRepository) List(ctx context.Context, filters catalog.EventFilters, paginationArgs catalog.Pagination) (catalog.EventListResult, error) {
	cursorTimestamp, cursorULID, err := decodeCursor(paginationArgs.After)
	if err != nil {
		return catalog.EventListResult{}, err
	}

	limit := paginationArgs.Limit
	if limit <= 0 {
		limit = 50
	}
	limitPlusOne := limit + 1

	rows, err := r.pool.Query(ctx, `
SELECT `+eventColumns+`
  FROM events
 WHERE ($1 = '' OR city = $1)
   AND ($2 = '' OR title ILIKE '%' || $2 || '%' OR description ILIKE '%' || $2 || '%')
   AND ($3 OR published)
   AND (
     $4::timestamptz IS NULL OR
     created_at < $4::timestamptz OR
     (created_at = $4::timestamptz AND ulid < $5)
   )
 ORDER BY created_at DESC, ulid DESC
 LIMIT $6
`,
		filters.City,
		filters.Query,
		filters.IncludeUnpublished,
		cursorTimestamp,
		cursorULID,
		limitPlusOne,
	)
	if err != nil {
		return catalog.EventListResult{}, fmt.Errorf("list events: %w", err)
	}
	defer rows.Close()

	items := make([]catalog.Event, 0, limitPlusOne)
	for rows.Next() {
		event, err := scanEvent(rows)
		if err != nil {
			return catalog.EventListResult{}, fmt.Errorf("scan event: %w", err)
		}
		items = append(items, *event)
	}
	if err := rows.Err(); err != nil {
		return catalog.EventListResult{}, fmt.Errorf("iterate events: %w", err)
	}

	result := catalog.EventListResult{}
	if len(items) > limit {
		items = items[:limit]
		last := items[len(items)-1]
		result.NextCursor = pagination.Encode(last.CreatedAt, last.ULID)
	}
	result.Events = items
	return result, nil
}

func (r *EventRepository) GetByULID(ctx context.Context, ulid string, includeUnpublished bool) (*catalog.Event, error) {
	row := r.pool.QueryRow(ctx, `
SELECT `+eventColumns+`
  FROM events
 WHERE ulid = $1 AND ($2 OR published)
`, ulid, includeUnpublished)

	event, err := scanEvent(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, catalog.ErrEventNotFound
		}
		return nil, fmt.Errorf("get event: %w", err)
	}
	return event, nil
}

func (r *EventRepository) Create(ctx context.Context, event *catalog.Event) error {
	return createEvent(ctx, r.pool, event)
}

// createEvent inserts an event using any pgx queryer so promotion can reuse
// it inside a transaction.
func createEvent(ctx context.Context, q queryer, event *catalog.Event) error {
	row := q.QueryRow(ctx, `
INSERT INTO events (ulid, title, city, venue_name, starts_at, ends_at, capacity,
                    price_cents, currency, curated, has_tickets, image_paths,
                    description, published)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
RETURNING id, created_at, updated_at
`,
		event.ULID,
		event.Title,
		event.City,
		event.VenueName,
		event.StartsAt,
		event.EndsAt,
		event.Capacity,
		event.PriceCents,
		event.Currency,
		event.Curated,
		event.HasTickets,
		event.ImagePaths,
		event.Description,
		event.Published,
	)

	var createdAt, updatedAt pgtype.Timestamptz
	if err := row.Scan(&event.ID, &createdAt, &updatedAt); err != nil {
		return fmt.Errorf("create event: %w", err)
	}
	event.CreatedAt = createdAt.Time
	event.UpdatedAt = updatedAt.Time
	return nil
}

func (r *EventRepository) Update(ctx context.Context, ulid string, patch catalog.EventPatch) (*catalog.Event, error) {
	row := r.pool.QueryRow(ctx, `
UPDATE events
   SET title = COALESCE($2, title),
       city = COALESCE($3, city),
       venue_name = COALESCE($4, venue_name),
       starts_at = COALESCE($5, starts_at),
       ends_at = CASE WHEN $6 THEN NULL ELSE COALESCE($7, ends_at) END,
       capacity = COALESCE($8, capacity),
       price_cents = COALESCE($9, price_cents),
       currency = COALESCE($10, currency),
       curated = COALESCE($11, curated),
       has_tickets = COALESCE($12, has_tickets),
       image_paths = COALESCE($13::text[], image_paths),
       description = COALESCE($14, description),
       updated_at = now()
 WHERE ulid = $1
RETURNING `+eventColumns+`
`,
		ulid,
		patch.Title,
		patch.City,
		patch.VenueName,
		patch.StartsAt,
		patch.ClearEndsAt,
		patch.EndsAt,
		patch.Capacity,
		patch.PriceCents,
		patch.Currency,
		patch.Curated,
		patch.HasTickets,
		patch.ImagePaths,
		patch.Description,
	)

	event, err := scanEvent(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, catalog.ErrEventNotFound
		}
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.ConstraintName == "events_window_check" {
			return nil, catalog.ErrEndsBeforeStart
		}
		return nil, fmt.Errorf("update event: %w", err)
	}
	return event, nil
}

func (r *EventRepository) Unpublish(ctx context.Context, ulid, adminULID, reason string) error {
	tag, err := r.pool.Exec(ctx, `
UPDATE events
   SET published = false,
       unpublished_at = now(),
       unpublished_by = $2,
       unpublish_reason = $3,
       updated_at = now()
 WHERE ulid = $1
`, ulid, adminULID, reason)
	if err != nil {
		return fmt.Errorf("unpublish event: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return catalog.ErrEventNotFound
	}
	return nil
}

func (r *EventRepository) Republish(ctx context.Context, ulid string) error {
	tag, err := r.pool.Exec(ctx, `
UPDATE events
   SET published = true,
       unpublished_at = NULL,
       unpublished_by = NULL,
       unpublish_reason = '',
       updated_at = now()
 WHERE ulid = $1
`, ulid)
	if err != nil {
		return fmt.Errorf("republish event: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return catalog.ErrEventNotFound
	}
	return nil
}

func scanEvent(row pgx.Row) (*catalog.Event, error) {
	var event catalog.Event
	var startsAt, endsAt, unpublishedAt, createdAt, updatedAt pgtype.Timestamptz
	var unpublishedBy pgtype.Text
	err := row.Scan(
		&event.ID,
		&event.ULID,
		&event.Title,
		&event.City,
		&event.VenueName,
		&startsAt,
		&endsAt,
		&event.Capacity,
		&event.TicketsSold,
		&event.PriceCents,
		&event.Currency,
		&event.Curated,
		&event.HasTickets,
		&event.ImagePaths,
		&event.Description,
		&event.Published,
		&unpublishedAt,
		&unpublishedBy,
		&event.UnpublishReason,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return nil, err
	}
	event.StartsAt = startsAt.Time
	event.EndsAt = timeOrNil(endsAt)
	event.UnpublishedAt = timeOrNil(unpublishedAt)
	event.UnpublishedBy = textPtr(unpublishedBy)
	event.CreatedAt = createdAt.Time
	event.UpdatedAt = updatedAt.Time
	return &event, nil
}
