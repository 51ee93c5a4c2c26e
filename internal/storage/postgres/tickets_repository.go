package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/citybeat-app/server/internal/domain/tickets"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
)

var _ tickets.Repository = (*TicketRepository)(nil)

type TicketRepository struct {
	pool *pgxpool.Pool
}

const ticketColumns = `t.id, t.ulid, t.event_ulid, t.account_ulid, t.serial, t.amount_cents,
       t.currency, t.status, t.validated_at, t.validated_by, t.qr_png, t.created_at,
       e.title, e.city, e.starts_at`

// Book reserves one unit of event capacity and inserts the ticket in the same
// transaction. The capacity reservation is a conditional update so two
// concurrent bookings can never oversell the last seat.
func (r *TicketRepository) Book(ctx context.Context, ticket *tickets.Ticket) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin booking: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	tag, err := tx.Exec(ctx, `
UPDATE events
   SET tickets_sold = tickets_sold + 1, updated_at = now()
 WHERE ulid = $1
   AND curated AND has_tickets AND published
   AND (capacity = 0 OR tickets_sold < capacity)
`, ticket.EventULID)
	if err != nil {
		return fmt.Errorf("reserve capacity: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return r.bookingError(ctx, ticket.EventULID)
	}

	row := tx.QueryRow(ctx, `
INSERT INTO tickets (ulid, event_ulid, account_ulid, serial, amount_cents, currency, qr_png)
VALUES ($1, $2, $3, $4, $5, $6, $7)
RETURNING id, status, created_at
`,
		ticket.ULID,
		ticket.EventULID,
		ticket.AccountULID,
		ticket.Serial,
		ticket.AmountCents,
		ticket.Currency,
		ticket.QRPNG,
	)
	var createdAt pgtype.Timestamptz
	if err := row.Scan(&ticket.ID, &ticket.Status, &createdAt); err != nil {
		return fmt.Errorf("insert ticket: %w", err)
	}
	ticket.CreatedAt = createdAt.Time

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit booking: %w", err)
	}
	return nil
}

// bookingError explains why the capacity update applied to no row.
func (r *TicketRepository) bookingError(ctx context.Context, eventULID string) error {
	var curated, hasTickets, published bool
	err := r.pool.QueryRow(ctx,
		`SELECT curated, has_tickets, published FROM events WHERE ulid = $1`,
		eventULID,
	).Scan(&curated, &hasTickets, &published)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return tickets.ErrEventNotFound
		}
		return fmt.Errorf("inspect event: %w", err)
	}
	if !curated || !hasTickets || !published {
		return tickets.ErrNotEligible
	}
	return tickets.ErrSoldOut
}

func (r *TicketRepository) GetByULID(ctx context.Context, ulid string) (*tickets.Ticket, error) {
	row := r.pool.QueryRow(ctx, `
SELECT `+ticketColumns+`
  FROM tickets t
  JOIN events e ON e.ulid = t.event_ulid
 WHERE t.ulid = $1
`, ulid)

	ticket, err := scanTicket(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, tickets.ErrNotFound
		}
		return nil, fmt.Errorf("get ticket: %w", err)
	}
	return ticket, nil
}

func (r *TicketRepository) ListByAccount(ctx context.Context, accountULID string, limit int) ([]tickets.Ticket, error) {
	rows, err := r.pool.Query(ctx, `
SELECT `+ticketColumns+`
  FROM tickets t
  JOIN events e ON e.ulid = t.event_ulid
 WHERE t.account_ulid = $1
 ORDER BY t.created_at DESC, t.ulid DESC
 LIMIT $2
`, accountULID, limit)
	if err != nil {
		return nil, fmt.Errorf("list tickets: %w", err)
	}
	defer rows.Close()

	var items []tickets.Ticket
	for rows.Next() {
		ticket, err := scanTicket(rows)
		if err != nil {
			return nil, fmt.Errorf("scan ticket: %w", err)
		}
		items = append(items, *ticket)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate tickets: %w", err)
	}
	return items, nil
}

// Validate flips unused -> validated as one conditional update. Zero rows
// affected on an existing ticket means a prior scan already won; the caller
// gets the stored validation details either way.
func (r *TicketRepository) Validate(ctx context.Context, ulid, scannerULID string) (bool, *tickets.Ticket, error) {
	tag, err := r.pool.Exec(ctx, `
UPDATE tickets
   SET status = 'validated', validated_at = now(), validated_by = $2
 WHERE ulid = $1 AND status = 'unused'
`, ulid, scannerULID)
	if err != nil {
		return false, nil, fmt.Errorf("validate ticket: %w", err)
	}

	ticket, err := r.GetByULID(ctx, ulid)
	if err != nil {
		return false, nil, err
	}
	return tag.RowsAffected() == 1, ticket, nil
}

func scanTicket(row pgx.Row) (*tickets.Ticket, error) {
	var ticket tickets.Ticket
	var validatedAt, createdAt, startsAt pgtype.Timestamptz
	var validatedBy pgtype.Text
	err := row.Scan(
		&ticket.ID,
		&ticket.ULID,
		&ticket.EventULID,
		&ticket.AccountULID,
		&ticket.Serial,
		&ticket.AmountCents,
		&ticket.Currency,
		&ticket.Status,
		&validatedAt,
		&validatedBy,
		&ticket.QRPNG,
		&createdAt,
		&ticket.EventTitle,
		&ticket.EventCity,
		&startsAt,
	)
	if err != nil {
		return nil, err
	}
	ticket.ValidatedAt = timeOrNil(validatedAt)
	ticket.ValidatedBy = textPtr(validatedBy)
	ticket.CreatedAt = createdAt.Time
	ticket.EventStartsAt = startsAt.Time
	return &ticket, nil
}
