package postgres

import (
	"fmt"

	"github.com/citybeat-app/server/internal/domain/accounts"
	"github.com/citybeat-app/server/internal/domain/catalog"
	"github.com/citybeat-app/server/internal/domain/moderation"
	"github.com/citybeat-app/server/internal/domain/tickets"
	"github.com/citybeat-app/server/internal/storage"
	"github.com/citybeat-app/server/internal/uploads"
	"github.com/jackc/pgx/v5/pgxpool"
)

var _ storage.Repository = (*Repository)(nil)

// Repository implements storage.Repository with a PostgreSQL backend.
type Repository struct {
	pool *pgxpool.Pool

	accounts    *AccountRepository
	venues      *VenueRepository
	events      *EventRepository
	submissions *SubmissionRepository
	tickets     *TicketRepository
	uploads     *UploadRepository
}

func NewRepository(pool *pgxpool.Pool) (*Repository, error) {
	if pool == nil {
		return nil, fmt.Errorf("postgres repository: pool is nil")
	}
	return &Repository{
		pool:        pool,
		accounts:    &AccountRepository{pool: pool},
		venues:      &VenueRepository{pool: pool},
		events:      &EventRepository{pool: pool},
		submissions: &SubmissionRepository{pool: pool},
		tickets:     &TicketRepository{pool: pool},
		uploads:     &UploadRepository{pool: pool},
	}, nil
}

func (r *Repository) Accounts() accounts.Repository {
	return r.accounts
}

func (r *Repository) Venues() catalog.VenueRepository {
	return r.venues
}

func (r *Repository) Events() catalog.EventRepository {
	return r.events
}

func (r *Repository) Submissions() moderation.Repository {
	return r.submissions
}

func (r *Repository) Tickets() tickets.Repository {
	return r.tickets
}

func (r *Repository) Uploads() uploads.Repository {
	return r.uploads
}
