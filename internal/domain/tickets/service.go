package tickets

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/citybeat-app/server/internal/domain/catalog"
	"github.com/citybeat-app/server/internal/domain/ids"
	qrcode "github.com/skip2/go-qrcode"
)

// PageSize caps the "my tickets" listing.
const PageSize = 50

// QRSize is the pixel width of generated ticket QR codes.
const QRSize = 256

type Service struct {
	repo   Repository
	events catalog.EventRepository
}

func NewService(repo Repository, events catalog.EventRepository) *Service {
	return &Service{repo: repo, events: events}
}

// Book issues a ticket for an event. The event must be curated and
// ticket-enabled; the amount is copied from the event's price at booking
// time and never re-read. Capacity is enforced atomically in the repository.
func (s *Service) Book(ctx context.Context, eventULID, accountULID string) (*Ticket, error) {
	event, err := s.events.GetByULID(ctx, eventULID, false)
	if err != nil {
		if errors.Is(err, catalog.ErrEventNotFound) {
			return nil, ErrEventNotFound
		}
		return nil, err
	}
	if !event.Curated || !event.HasTickets {
		return nil, ErrNotEligible
	}

	serial, err := NewSerial()
	if err != nil {
		return nil, err
	}
	png, err := qrcode.Encode(serial, qrcode.Medium, QRSize)
	if err != nil {
		return nil, fmt.Errorf("encode ticket qr: %w", err)
	}

	ticket := &Ticket{
		ULID:        ids.MustNewULID(),
		EventULID:   event.ULID,
		AccountULID: accountULID,
		Serial:      serial,
		AmountCents: event.PriceCents,
		Currency:    event.Currency,
		Status:      StatusUnused,
		QRPNG:       png,
	}
	if err := s.repo.Book(ctx, ticket); err != nil {
		return nil, err
	}
	return ticket, nil
}

func (s *Service) ListMine(ctx context.Context, accountULID string) ([]Ticket, error) {
	return s.repo.ListByAccount(ctx, accountULID, PageSize)
}

// Get returns a ticket for its owner or an admin; anyone else is refused.
func (s *Service) Get(ctx context.Context, ulid, callerULID string, callerIsAdmin bool) (*Ticket, error) {
	if err := ids.ValidateULID(ulid); err != nil {
		return nil, ErrNotFound
	}
	ticket, err := s.repo.GetByULID(ctx, ulid)
	if err != nil {
		return nil, err
	}
	if !callerIsAdmin && ticket.AccountULID != callerULID {
		return nil, ErrForbidden
	}
	return ticket, nil
}

// ValidationResult reports the outcome of a scan. AlreadyVerified carries
// the original validation time so the scanning UI can distinguish a fresh
// redemption from a replay.
type ValidationResult struct {
	Ticket          *Ticket
	AlreadyVerified bool
	ValidatedAt     time.Time
}

// Validate redeems a ticket exactly once. A second scan is not an error: it
// returns AlreadyVerified with the first scan's timestamp, and the stored
// state is untouched. Two concurrent first scans race on a single
// conditional update, so exactly one of them wins.
func (s *Service) Validate(ctx context.Context, ulid, scannerULID string) (*ValidationResult, error) {
	applied, ticket, err := s.repo.Validate(ctx, ulid, scannerULID)
	if err != nil {
		return nil, err
	}

	result := &ValidationResult{Ticket: ticket, AlreadyVerified: !applied}
	if ticket.ValidatedAt != nil {
		result.ValidatedAt = *ticket.ValidatedAt
	}
	return result, nil
}
