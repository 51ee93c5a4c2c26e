package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/citybeat-app/server/internal/domain/accounts"
	"github.com/citybeat-app/server/internal/domain/catalog"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
)

var _ accounts.Repository = (*AccountRepository)(nil)

type AccountRepository struct {
	pool *pgxpool.Pool
}

const accountColumns = `id, ulid, name, email, password_hash, is_admin, avatar_path, created_at, updated_at`

func (r *AccountRepository) Create(ctx context.Context, account *accounts.Account) error {
	row := r.pool.QueryRow(ctx, `
INSERT INTO accounts (ulid, name, email, password_hash, is_admin, avatar_path)
VALUES ($1, $2, $3, $4, $5, $6)
RETURNING id, created_at, updated_at
`,
		account.ULID,
		account.Name,
		account.Email,
		account.PasswordHash,
		account.Admin,
		account.AvatarPath,
	)

	var createdAt, updatedAt pgtype.Timestamptz
	if err := row.Scan(&account.ID, &createdAt, &updatedAt); err != nil {
		if uniqueViolation(err, "accounts_email_key") {
			return accounts.ErrEmailTaken
		}
		return fmt.Errorf("create account: %w", err)
	}
	account.CreatedAt = createdAt.Time
	account.UpdatedAt = updatedAt.Time
	return nil
}

func (r *AccountRepository) GetByEmail(ctx context.Context, email string) (*accounts.Account, error) {
	row := r.pool.QueryRow(ctx, `
SELECT `+accountColumns+`
  FROM accounts
 WHERE lower(email) = lower($1)
`, email)
	return scanAccount(row)
}

func (r *AccountRepository) GetByULID(ctx context.Context, ulid string) (*accounts.Account, error) {
	row := r.pool.QueryRow(ctx, `
SELECT `+accountColumns+`
  FROM accounts
 WHERE ulid = $1
`, ulid)
	return scanAccount(row)
}

func (r *AccountRepository) Update(ctx context.Context, ulid string, params accounts.UpdateParams) (*accounts.Account, error) {
	row := r.pool.QueryRow(ctx, `
UPDATE accounts
   SET name = COALESCE($2, name),
       avatar_path = COALESCE($3, avatar_path),
       updated_at = now()
 WHERE ulid = $1
RETURNING `+accountColumns+`
`, ulid, params.Name, params.AvatarPath)
	return scanAccount(row)
}

func (r *AccountRepository) AddFavorite(ctx context.Context, accountULID, venueULID string) error {
	tag, err := r.pool.Exec(ctx, `
INSERT INTO account_favorites (account_id, venue_id)
SELECT a.id, v.id
  FROM accounts a, venues v
 WHERE a.ulid = $1 AND v.ulid = $2
ON CONFLICT DO NOTHING
`, accountULID, venueULID)
	if err != nil {
		return fmt.Errorf("add favorite: %w", err)
	}
	if tag.RowsAffected() == 0 {
		// Either the venue does not exist or the favorite was already set.
		// Distinguish by probing the venue.
		var exists bool
		if err := r.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM venues WHERE ulid = $1)`, venueULID).Scan(&exists); err != nil {
			return fmt.Errorf("check venue: %w", err)
		}
		if !exists {
			return catalog.ErrVenueNotFound
		}
	}
	return nil
}

func (r *AccountRepository) RemoveFavorite(ctx context.Context, accountULID, venueULID string) error {
	_, err := r.pool.Exec(ctx, `
DELETE FROM account_favorites
 WHERE account_id = (SELECT id FROM accounts WHERE ulid = $1)
   AND venue_id = (SELECT id FROM venues WHERE ulid = $2)
`, accountULID, venueULID)
	if err != nil {
		return fmt.Errorf("remove favorite: %w", err)
	}
	return nil
}

func (r *AccountRepository) ListFavorites(ctx context.Context, accountULID string) ([]catalog.Venue, error) {
	rows, err := r.pool.Query(ctx, `
SELECT `+venueColumnsPrefixed("v")+`
  FROM account_favorites f
  JOIN accounts a ON a.id = f.account_id
  JOIN venues v ON v.id = f.venue_id
 WHERE a.ulid = $1
 ORDER BY f.created_at DESC
`, accountULID)
	if err != nil {
		return nil, fmt.Errorf("list favorites: %w", err)
	}
	defer rows.Close()

	var venues []catalog.Venue
	for rows.Next() {
		venue, err := scanVenueFromRows(rows)
		if err != nil {
			return nil, fmt.Errorf("scan favorite: %w", err)
		}
		venues = append(venues, *venue)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate favorites: %w", err)
	}
	return venues, nil
}

func scanAccount(row pgx.Row) (*accounts.Account, error) {
	var account accounts.Account
	var createdAt, updatedAt pgtype.Timestamptz
	err := row.Scan(
		&account.ID,
		&account.ULID,
		&account.Name,
		&account.Email,
		&account.PasswordHash,
		&account.Admin,
		&account.AvatarPath,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, accounts.ErrNotFound
		}
		return nil, fmt.Errorf("scan account: %w", err)
	}
	account.CreatedAt = createdAt.Time
	account.UpdatedAt = updatedAt.Time
	return &account, nil
}
