package tickets

import (
	"context"
	"crypto/rand"
	"encoding/base32"
	"errors"
	"fmt"
	"strings"
	"time"
)

type Status string

const (
	StatusUnused    Status = "unused"
	StatusValidated Status = "validated"
)

var (
	ErrNotFound      = errors.New("ticket not found")
	ErrEventNotFound = errors.New("event not found")
	ErrNotEligible   = errors.New("event is not eligible for ticketing")
	ErrSoldOut       = errors.New("event is sold out")
	ErrForbidden     = errors.New("ticket belongs to another account")
)

// Ticket is a single-use entry credential for one event booking. It is
// mutated exactly once, unused -> validated, and never deleted.
type Ticket struct {
	ID          string
	ULID        string
	EventULID   string
	AccountULID string
	Serial      string
	AmountCents int64
	Currency    string
	Status      Status
	ValidatedAt *time.Time
	ValidatedBy *string
	QRPNG       []byte
	CreatedAt   time.Time

	// Denormalized event fields for listings.
	EventTitle    string
	EventCity     string
	EventStartsAt time.Time
}

type Repository interface {
	// Book reserves event capacity and inserts the ticket in one
	// transaction. Returns ErrSoldOut when the capacity conditional update
	// applies to no row.
	Book(ctx context.Context, ticket *Ticket) error

	GetByULID(ctx context.Context, ulid string) (*Ticket, error)
	ListByAccount(ctx context.Context, accountULID string, limit int) ([]Ticket, error)

	// Validate is a single conditional update: status moves from unused to
	// validated only if it is still unused. applied=false means the ticket
	// was already validated; the returned ticket then carries the original
	// validation timestamp and scanner.
	Validate(ctx context.Context, ulid, scannerULID string) (applied bool, ticket *Ticket, err error)
}

var serialEncoding = base32.NewEncoding("0123456789ABCDEFGHJKMNPQRSTVWXYZ").WithPadding(base32.NoPadding)

// NewSerial returns a display-form ticket serial backed by 128 random bits,
// e.g. CB-4R9X-M2KD-....  Collision probability is negligible; the column is
// unique anyway.
func NewSerial() (string, error) {
	var raw [16]byte
	if _, err := rand.Read(raw[:]); err != nil {
		return "", fmt.Errorf("serial entropy: %w", err)
	}
	encoded := serialEncoding.EncodeToString(raw[:])
	groups := make([]string, 0, len(encoded)/4+1)
	for len(encoded) > 4 {
		groups = append(groups, encoded[:4])
		encoded = encoded[4:]
	}
	groups = append(groups, encoded)
	return "CB-" + strings.Join(groups, "-"), nil
}
