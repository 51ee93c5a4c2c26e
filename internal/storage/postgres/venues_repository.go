package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/citybeat-app/server/internal/api/pagination"
	"github.com/citybeat-app/server/internal/domain/catalog"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
)

var _ catalog.VenueRepository = (*VenueRepository)(nil)

type VenueRepository struct {
	pool *pgxpool.Pool
}

const venueColumns = `id, ulid, name, city, category, address, rating, image_paths, moods,
       price_tier, description, external_place_id, published,
       unpublished_at, unpublished_by, unpublish_reason, created_at, updated_at`

func venueColumnsPrefixed(alias string) string {
	parts := strings.Split(venueColumns, ",")
	for i, part := range parts {
		parts[i] = alias + "." + strings.TrimSpace(part)
	}
	return strings.Join(parts, ", ")
}

func (r *VenueRepository) List(ctx context.Context, filters catalog.VenueFilters, paginationArgs catalog.Pagination) (catalog.VenueListResult, error) {
	cursorTimestamp, cursorULID, err := decodeCursor(paginationArgs.After)
	if err != nil {
		return catalog.VenueListResult{}, err
	}

	limit := paginationArgs.Limit
	if limit <= 0 {
		limit = 50
	}
	limitPlusOne := limit + 1

	rows, err := r.pool.Query(ctx, `
SELECT `+venueColumns+`
  FROM venues
 WHERE ($1 = '' OR city = $1)
   AND ($2 = '' OR name ILIKE '%' || $2 || '%' OR description ILIKE '%' || $2 || '%')
   AND ($3 = '' OR $3 = ANY (moods))
   AND ($4 OR published)
   AND (
     $5::timestamptz IS NULL OR
     created_at < $5::timestamptz OR
     (created_at = $5::timestamptz AND ulid < $6)
   )
 ORDER BY created_at DESC, ulid DESC
 LIMIT $7
`,
		filters.City,
		filters.Query,
		filters.Mood,
		filters.IncludeUnpublished,
		cursorTimestamp,
		cursorULID,
		limitPlusOne,
	)
	if err != nil {
		return catalog.VenueListResult{}, fmt.Errorf("list venues: %w", err)
	}
	defer rows.Close()

	items := make([]catalog.Venue, 0, limitPlusOne)
	for rows.Next() {
		venue, err := scanVenueFromRows(rows)
		if err != nil {
			return catalog.VenueListResult{}, fmt.Errorf("scan venue: %w", err)
		}
		items = append(items, *venue)
	}
	if err := rows.Err(); err != nil {
		return catalog.VenueListResult{}, fmt.Errorf("iterate venues: %w", err)
	}

	result := catalog.VenueListResult{}
	if len(items) > limit {
		items = items[:limit]
		last := items[len(items)-1]
		result.NextCursor = pagination.Encode(last.CreatedAt, last.ULID)
	}
	result.Venues = items
	return result, nil
}

func (r *VenueRepository) GetByULID(ctx context.Context, ulid string, includeUnpublished bool) (*catalog.Venue, error) {
	row := r.pool.QueryRow(ctx, `
SELECT `+venueColumns+`
  FROM venues
 WHERE ulid = $1 AND ($2 OR published)
`, ulid, includeUnpublished)

	venue, err := scanVenue(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, catalog.ErrVenueNotFound
		}
		return nil, fmt.Errorf("get venue: %w", err)
	}
	return venue, nil
}

func (r *VenueRepository) GetByExternalID(ctx context.Context, externalID string) (*catalog.Venue, error) {
	row := r.pool.QueryRow(ctx, `
SELECT `+venueColumns+`
  FROM venues
 WHERE external_place_id = $1
`, externalID)

	venue, err := scanVenue(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, catalog.ErrVenueNotFound
		}
		return nil, fmt.Errorf("get venue by external id: %w", err)
	}
	return venue, nil
}

func (r *VenueRepository) Create(ctx context.Context, venue *catalog.Venue) error {
	return createVenue(ctx, r.pool, venue)
}

// createVenue inserts a venue using any pgx queryer so promotion can reuse
// it inside a transaction.
func createVenue(ctx context.Context, q queryer, venue *catalog.Venue) error {
	row := q.QueryRow(ctx, `
INSERT INTO venues (ulid, name, city, category, address, rating, image_paths, moods,
                    price_tier, description, external_place_id, published)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
RETURNING id, created_at, updated_at
`,
		venue.ULID,
		venue.Name,
		venue.City,
		venue.Category,
		venue.Address,
		venue.Rating,
		venue.ImagePaths,
		venue.Moods,
		venue.PriceTier,
		venue.Description,
		venue.ExternalPlaceID,
		venue.Published,
	)

	var createdAt, updatedAt pgtype.Timestamptz
	if err := row.Scan(&venue.ID, &createdAt, &updatedAt); err != nil {
		if uniqueViolation(err, "venues_external_place_id_key") {
			return catalog.ErrDuplicateExternalID
		}
		return fmt.Errorf("create venue: %w", err)
	}
	venue.CreatedAt = createdAt.Time
	venue.UpdatedAt = updatedAt.Time
	return nil
}

func (r *VenueRepository) Update(ctx context.Context, ulid string, patch catalog.VenuePatch) (*catalog.Venue, error) {
	row := r.pool.QueryRow(ctx, `
UPDATE venues
   SET name = COALESCE($2, name),
       city = COALESCE($3, city),
       category = COALESCE($4, category),
       address = COALESCE($5, address),
       rating = COALESCE($6, rating),
       image_paths = COALESCE($7::text[], image_paths),
       moods = COALESCE($8::text[], moods),
       price_tier = COALESCE($9, price_tier),
       description = COALESCE($10, description),
       updated_at = now()
 WHERE ulid = $1
RETURNING `+venueColumns+`
`,
		ulid,
		patch.Name,
		patch.City,
		patch.Category,
		patch.Address,
		patch.Rating,
		patch.ImagePaths,
		patch.Moods,
		patch.PriceTier,
		patch.Description,
	)

	venue, err := scanVenue(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, catalog.ErrVenueNotFound
		}
		return nil, fmt.Errorf("update venue: %w", err)
	}
	return venue, nil
}

func (r *VenueRepository) Unpublish(ctx context.Context, ulid, adminULID, reason string) error {
	tag, err := r.pool.Exec(ctx, `
UPDATE venues
   SET published = false,
       unpublished_at = now(),
       unpublished_by = $2,
       unpublish_reason = $3,
       updated_at = now()
 WHERE ulid = $1
`, ulid, adminULID, reason)
	if err != nil {
		return fmt.Errorf("unpublish venue: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return catalog.ErrVenueNotFound
	}
	return nil
}

func (r *VenueRepository) Republish(ctx context.Context, ulid string) error {
	tag, err := r.pool.Exec(ctx, `
UPDATE venues
   SET published = true,
       unpublished_at = NULL,
       unpublished_by = NULL,
       unpublish_reason = '',
       updated_at = now()
 WHERE ulid = $1
`, ulid)
	if err != nil {
		return fmt.Errorf("republish venue: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return catalog.ErrVenueNotFound
	}
	return nil
}

func decodeCursor(after string) (*time.Time, *string, error) {
	if strings.TrimSpace(after) == "" {
		return nil, nil, nil
	}
	cursor, err := pagination.Decode(after)
	if err != nil {
		return nil, nil, err
	}
	timestamp := cursor.Timestamp.UTC()
	ulid := cursor.ULID
	return &timestamp, &ulid, nil
}

func scanVenue(row pgx.Row) (*catalog.Venue, error) {
	var venue catalog.Venue
	var unpublishedAt, createdAt, updatedAt pgtype.Timestamptz
	var unpublishedBy, externalID pgtype.Text
	err := row.Scan(
		&venue.ID,
		&venue.ULID,
		&venue.Name,
		&venue.City,
		&venue.Category,
		&venue.Address,
		&venue.Rating,
		&venue.ImagePaths,
		&venue.Moods,
		&venue.PriceTier,
		&venue.Description,
		&externalID,
		&venue.Published,
		&unpublishedAt,
		&unpublishedBy,
		&venue.UnpublishReason,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return nil, err
	}
	venue.ExternalPlaceID = textPtr(externalID)
	venue.UnpublishedAt = timeOrNil(unpublishedAt)
	venue.UnpublishedBy = textPtr(unpublishedBy)
	venue.CreatedAt = createdAt.Time
	venue.UpdatedAt = updatedAt.Time
	return &venue, nil
}

func scanVenueFromRows(rows pgx.Rows) (*catalog.Venue, error) {
	return scanVenue(rows)
}
