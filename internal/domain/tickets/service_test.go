package tickets

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/citybeat-app/server/internal/domain/catalog"
)

type fakeEventRepo struct {
	events map[string]*catalog.Event
}

func (r *fakeEventRepo) List(_ context.Context, _ catalog.EventFilters, _ catalog.Pagination) (catalog.EventListResult, error) {
	return catalog.EventListResult{}, nil
}

func (r *fakeEventRepo) GetByULID(_ context.Context, ulid string, includeUnpublished bool) (*catalog.Event, error) {
	e, ok := r.events[ulid]
	if !ok || (!e.Published && !includeUnpublished) {
		return nil, catalog.ErrEventNotFound
	}
	copied := *e
	return &copied, nil
}

func (r *fakeEventRepo) Create(_ context.Context, event *catalog.Event) error {
	copied := *event
	r.events[event.ULID] = &copied
	return nil
}

func (r *fakeEventRepo) Update(_ context.Context, _ string, _ catalog.EventPatch) (*catalog.Event, error) {
	return nil, catalog.ErrEventNotFound
}

func (r *fakeEventRepo) Unpublish(_ context.Context, _, _, _ string) error { return nil }
func (r *fakeEventRepo) Republish(_ context.Context, _ string) error       { return nil }

type fakeTicketRepo struct {
	events  *fakeEventRepo
	tickets map[string]*Ticket
}

func (r *fakeTicketRepo) Book(_ context.Context, ticket *Ticket) error {
	event, ok := r.events.events[ticket.EventULID]
	if !ok {
		return ErrEventNotFound
	}
	if event.Capacity > 0 && event.TicketsSold >= event.Capacity {
		return ErrSoldOut
	}
	event.TicketsSold++
	ticket.CreatedAt = time.Now()
	copied := *ticket
	r.tickets[ticket.ULID] = &copied
	return nil
}

func (r *fakeTicketRepo) GetByULID(_ context.Context, ulid string) (*Ticket, error) {
	t, ok := r.tickets[ulid]
	if !ok {
		return nil, ErrNotFound
	}
	copied := *t
	return &copied, nil
}

func (r *fakeTicketRepo) ListByAccount(_ context.Context, accountULID string, _ int) ([]Ticket, error) {
	var out []Ticket
	for _, t := range r.tickets {
		if t.AccountULID == accountULID {
			out = append(out, *t)
		}
	}
	return out, nil
}

func (r *fakeTicketRepo) Validate(_ context.Context, ulid, scannerULID string) (bool, *Ticket, error) {
	t, ok := r.tickets[ulid]
	if !ok {
		return false, nil, ErrNotFound
	}
	if t.Status == StatusUnused {
		now := time.Now()
		t.Status = StatusValidated
		t.ValidatedAt = &now
		t.ValidatedBy = &scannerULID
		copied := *t
		return true, &copied, nil
	}
	copied := *t
	return false, &copied, nil
}

func newTicketService(events map[string]*catalog.Event) (*Service, *fakeTicketRepo) {
	eventRepo := &fakeEventRepo{events: events}
	ticketRepo := &fakeTicketRepo{events: eventRepo, tickets: make(map[string]*Ticket)}
	return NewService(ticketRepo, eventRepo), ticketRepo
}

func ticketableEvent(ulid string, capacity int) *catalog.Event {
	return &catalog.Event{
		ULID:       ulid,
		Title:      "Jazz Night",
		City:       "austin",
		StartsAt:   time.Date(2026, 5, 1, 20, 0, 0, 0, time.UTC),
		Capacity:   capacity,
		PriceCents: 2500,
		Currency:   "USD",
		Curated:    true,
		HasTickets: true,
		Published:  true,
	}
}

const eventULID = "01EVENT0000000000000000000"

func TestBook(t *testing.T) {
	svc, _ := newTicketService(map[string]*catalog.Event{eventULID: ticketableEvent(eventULID, 100)})

	ticket, err := svc.Book(context.Background(), eventULID, "01ACCOUNT00000000000000000")
	if err != nil {
		t.Fatalf("Book: %v", err)
	}
	if ticket.Status != StatusUnused {
		t.Errorf("Status = %q, want unused", ticket.Status)
	}
	if ticket.AmountCents != 2500 || ticket.Currency != "USD" {
		t.Errorf("price not copied from event: %d %s", ticket.AmountCents, ticket.Currency)
	}
	if len(ticket.QRPNG) == 0 {
		t.Error("QR image not generated")
	}
	if !strings.HasPrefix(ticket.Serial, "CB-") {
		t.Errorf("Serial = %q, want CB- prefix", ticket.Serial)
	}
}

func TestBookIneligibleEvent(t *testing.T) {
	uncurated := ticketableEvent(eventULID, 100)
	uncurated.Curated = false
	svc, _ := newTicketService(map[string]*catalog.Event{eventULID: uncurated})

	if _, err := svc.Book(context.Background(), eventULID, "01ACCOUNT00000000000000000"); !errors.Is(err, ErrNotEligible) {
		t.Fatalf("uncurated: error = %v, want ErrNotEligible", err)
	}

	noTickets := ticketableEvent(eventULID, 100)
	noTickets.HasTickets = false
	svc, _ = newTicketService(map[string]*catalog.Event{eventULID: noTickets})

	if _, err := svc.Book(context.Background(), eventULID, "01ACCOUNT00000000000000000"); !errors.Is(err, ErrNotEligible) {
		t.Fatalf("no tickets: error = %v, want ErrNotEligible", err)
	}
}

func TestBookUnknownEvent(t *testing.T) {
	svc, _ := newTicketService(map[string]*catalog.Event{})

	if _, err := svc.Book(context.Background(), eventULID, "01ACCOUNT00000000000000000"); !errors.Is(err, ErrEventNotFound) {
		t.Fatalf("error = %v, want ErrEventNotFound", err)
	}
}

func TestBookSoldOut(t *testing.T) {
	svc, _ := newTicketService(map[string]*catalog.Event{eventULID: ticketableEvent(eventULID, 1)})
	ctx := context.Background()

	if _, err := svc.Book(ctx, eventULID, "01ACCOUNT00000000000000000"); err != nil {
		t.Fatalf("first booking: %v", err)
	}
	if _, err := svc.Book(ctx, eventULID, "01ACCOUNT0000000000000000B"); !errors.Is(err, ErrSoldOut) {
		t.Fatalf("error = %v, want ErrSoldOut", err)
	}
}

func TestBookUnlimitedCapacity(t *testing.T) {
	svc, _ := newTicketService(map[string]*catalog.Event{eventULID: ticketableEvent(eventULID, 0)})
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		if _, err := svc.Book(ctx, eventULID, "01ACCOUNT00000000000000000"); err != nil {
			t.Fatalf("booking %d: %v", i, err)
		}
	}
}

func TestGetOwnership(t *testing.T) {
	svc, _ := newTicketService(map[string]*catalog.Event{eventULID: ticketableEvent(eventULID, 100)})
	ctx := context.Background()

	ticket, err := svc.Book(ctx, eventULID, "01ACCOUNT00000000000000000")
	if err != nil {
		t.Fatalf("Book: %v", err)
	}

	if _, err := svc.Get(ctx, ticket.ULID, "01ACCOUNT00000000000000000", false); err != nil {
		t.Errorf("owner access: %v", err)
	}
	if _, err := svc.Get(ctx, ticket.ULID, "01ACCOUNT0000000000000000B", false); !errors.Is(err, ErrForbidden) {
		t.Errorf("stranger access: error = %v, want ErrForbidden", err)
	}
	if _, err := svc.Get(ctx, ticket.ULID, "01ACCOUNT0000000000000000B", true); err != nil {
		t.Errorf("admin access: %v", err)
	}
	if _, err := svc.Get(ctx, "not-a-ulid", "01ACCOUNT00000000000000000", false); !errors.Is(err, ErrNotFound) {
		t.Errorf("malformed ulid: error = %v, want ErrNotFound", err)
	}
}

func TestValidateOnce(t *testing.T) {
	svc, _ := newTicketService(map[string]*catalog.Event{eventULID: ticketableEvent(eventULID, 100)})
	ctx := context.Background()

	ticket, err := svc.Book(ctx, eventULID, "01ACCOUNT00000000000000000")
	if err != nil {
		t.Fatalf("Book: %v", err)
	}

	first, err := svc.Validate(ctx, ticket.ULID, "01SCANNER00000000000000000")
	if err != nil {
		t.Fatalf("first Validate: %v", err)
	}
	if first.AlreadyVerified {
		t.Error("first scan reported as already verified")
	}
	if first.Ticket.Status != StatusValidated {
		t.Errorf("Status = %q", first.Ticket.Status)
	}

	second, err := svc.Validate(ctx, ticket.ULID, "01SCANNER0000000000000000B")
	if err != nil {
		t.Fatalf("second Validate: %v", err)
	}
	if !second.AlreadyVerified {
		t.Error("second scan not reported as already verified")
	}
	if !second.ValidatedAt.Equal(first.ValidatedAt) {
		t.Error("second scan must carry the original validation time")
	}
	if second.Ticket.ValidatedBy == nil || *second.Ticket.ValidatedBy != "01SCANNER00000000000000000" {
		t.Error("original scanner must be preserved")
	}
}

func TestNewSerialFormat(t *testing.T) {
	pattern := regexp.MustCompile(`^CB(-[0-9A-HJKMNP-TV-Z]{1,4})+$`)

	seen := make(map[string]bool)
	for i := 0; i < 50; i++ {
		serial, err := NewSerial()
		if err != nil {
			t.Fatalf("NewSerial: %v", err)
		}
		if !pattern.MatchString(serial) {
			t.Fatalf("serial %q does not match display format", serial)
		}
		if seen[serial] {
			t.Fatalf("duplicate serial %q", serial)
		}
		seen[serial] = true
	}
}
