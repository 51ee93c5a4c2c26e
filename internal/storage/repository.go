package storage

import (
	"github.com/citybeat-app/server/internal/domain/accounts"
	"github.com/citybeat-app/server/internal/domain/catalog"
	"github.com/citybeat-app/server/internal/domain/moderation"
	"github.com/citybeat-app/server/internal/domain/tickets"
	"github.com/citybeat-app/server/internal/uploads"
)

// Repository groups data access by domain. Multi-write sequences (submission
// promotion, ticket booking) are transactional inside the individual
// repositories rather than composed by callers.
type Repository interface {
	Accounts() accounts.Repository
	Venues() catalog.VenueRepository
	Events() catalog.EventRepository
	Submissions() moderation.Repository
	Tickets() tickets.Repository
	Uploads() uploads.Repository
}
