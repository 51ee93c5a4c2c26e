package api

import (
	"net/http"
	"sort"
	"strings"

	"github.com/citybeat-app/server/internal/api/handlers"
	"github.com/citybeat-app/server/internal/api/middleware"
	"github.com/citybeat-app/server/internal/auth"
	"github.com/citybeat-app/server/internal/config"
	"github.com/citybeat-app/server/internal/domain/accounts"
	"github.com/citybeat-app/server/internal/domain/catalog"
	"github.com/citybeat-app/server/internal/domain/moderation"
	"github.com/citybeat-app/server/internal/domain/tickets"
	"github.com/citybeat-app/server/internal/email"
	"github.com/citybeat-app/server/internal/metrics"
	"github.com/citybeat-app/server/internal/placesearch"
	"github.com/citybeat-app/server/internal/storage"
	"github.com/citybeat-app/server/internal/uploads"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

// Router bundles the HTTP handler with the pieces the serve command manages
// separately (the upload store feeds the background sweep job).
type Router struct {
	Handler     http.Handler
	UploadStore *uploads.Store
}

// NewRouter wires repositories, services, and handlers into the full API
// surface. The pool must already be connected.
func NewRouter(cfg config.Config, logger zerolog.Logger, pool *pgxpool.Pool, repo storage.Repository, version string) (*Router, error) {
	jwtManager := auth.NewJWTManager(cfg.Auth.JWTSecret, cfg.Auth.JWTExpiry, cfg.Auth.Issuer)

	uploadStore, err := uploads.NewStore(cfg.Uploads.Dir, cfg.Uploads.MaxBytes, repo.Uploads())
	if err != nil {
		return nil, err
	}

	emailService := email.NewService(cfg.Email, repo.Accounts(), logger)

	accountsService := accounts.NewService(repo.Accounts(), jwtManager)
	catalogService := catalog.NewService(repo.Venues(), repo.Events())
	moderationService := moderation.NewService(repo.Submissions(), emailService)
	ticketsService := tickets.NewService(repo.Tickets(), repo.Events())
	placesClient := placesearch.NewClient(cfg.Places)

	env := cfg.Environment
	authHandler := handlers.NewAuthHandler(accountsService, env)
	meHandler := handlers.NewMeHandler(accountsService, env)
	venuesHandler := handlers.NewVenuesHandler(catalogService, env)
	eventsHandler := handlers.NewEventsHandler(catalogService, env)
	adminCatalog := handlers.NewAdminCatalogHandler(catalogService, env)
	submissionsHandler := handlers.NewSubmissionsHandler(moderationService, env)
	adminSubmissions := handlers.NewAdminSubmissionsHandler(moderationService, env)
	ticketsHandler := handlers.NewTicketsHandler(ticketsService, env)
	discoverHandler := handlers.NewDiscoverHandler(placesClient, env)
	uploadsHandler := handlers.NewUploadsHandler(uploadStore, env)
	health := handlers.NewHealthChecker(pool, version)

	requireAuth := middleware.RequireAuth(jwtManager, env)
	requireAdmin := middleware.RequireAdmin(jwtManager, env)

	// Each route chain carries its own limiter tier; health and metrics stay
	// unlimited so probes and scrapes never trip it.
	limiter := middleware.NewRateLimiter(cfg.RateLimit)
	tierLogin := limiter.Tier(middleware.TierLogin)
	public := func(h http.HandlerFunc) http.Handler { return limiter.Tier(middleware.TierPublic)(h) }
	user := func(h http.HandlerFunc) http.Handler { return limiter.Tier(middleware.TierUser)(requireAuth(h)) }
	admin := func(h http.HandlerFunc) http.Handler { return limiter.Tier(middleware.TierAdmin)(requireAdmin(h)) }

	mux := http.NewServeMux()

	mux.Handle("/healthz", http.HandlerFunc(health.Live))
	mux.Handle("/readyz", http.HandlerFunc(health.Ready))
	mux.Handle("/metrics", metrics.Handler())
	mux.Handle("/uploads/", limiter.Tier(middleware.TierPublic)(
		http.StripPrefix("/uploads/", http.FileServer(http.Dir(uploadStore.Dir())))))

	// Accounts and sessions.
	mux.Handle("POST /api/v1/auth/register", tierLogin(http.HandlerFunc(authHandler.Register)))
	mux.Handle("POST /api/v1/auth/login", tierLogin(http.HandlerFunc(authHandler.Login)))
	mux.Handle("/api/v1/me", methodMux(map[string]http.Handler{
		http.MethodGet:   user(meHandler.Get),
		http.MethodPatch: user(meHandler.Update),
	}))
	mux.Handle("GET /api/v1/me/favorites", user(meHandler.ListFavorites))
	mux.Handle("/api/v1/me/favorites/{id}", methodMux(map[string]http.Handler{
		http.MethodPut:    user(meHandler.AddFavorite),
		http.MethodDelete: user(meHandler.RemoveFavorite),
	}))

	// Public catalog.
	mux.Handle("GET /api/v1/venues", public(venuesHandler.List))
	mux.Handle("GET /api/v1/venues/{id}", public(venuesHandler.Get))
	mux.Handle("GET /api/v1/events", public(eventsHandler.List))
	mux.Handle("GET /api/v1/events/{id}", public(eventsHandler.Get))

	// Admin catalog. List and Get honor include_unpublished for admins, so
	// the same handlers serve both surfaces.
	mux.Handle("/api/v1/admin/venues", methodMux(map[string]http.Handler{
		http.MethodGet:  admin(venuesHandler.List),
		http.MethodPost: admin(adminCatalog.CreateVenue),
	}))
	mux.Handle("/api/v1/admin/venues/{id}", methodMux(map[string]http.Handler{
		http.MethodGet:   admin(venuesHandler.Get),
		http.MethodPatch: admin(adminCatalog.UpdateVenue),
	}))
	mux.Handle("POST /api/v1/admin/venues/{id}/unpublish", admin(adminCatalog.UnpublishVenue))
	mux.Handle("POST /api/v1/admin/venues/{id}/republish", admin(adminCatalog.RepublishVenue))
	mux.Handle("POST /api/v1/admin/venues/import", admin(adminCatalog.ImportVenue))
	mux.Handle("/api/v1/admin/events", methodMux(map[string]http.Handler{
		http.MethodGet:  admin(eventsHandler.List),
		http.MethodPost: admin(adminCatalog.CreateEvent),
	}))
	mux.Handle("/api/v1/admin/events/{id}", methodMux(map[string]http.Handler{
		http.MethodGet:   admin(eventsHandler.Get),
		http.MethodPatch: admin(adminCatalog.UpdateEvent),
	}))
	mux.Handle("POST /api/v1/admin/events/{id}/unpublish", admin(adminCatalog.UnpublishEvent))
	mux.Handle("POST /api/v1/admin/events/{id}/republish", admin(adminCatalog.RepublishEvent))

	// Submissions.
	mux.Handle("/api/v1/submissions", methodMux(map[string]http.Handler{
		http.MethodGet:  user(submissionsHandler.ListMine),
		http.MethodPost: user(submissionsHandler.Submit),
	}))
	mux.Handle("GET /api/v1/admin/submissions", admin(adminSubmissions.List))
	mux.Handle("/api/v1/admin/submissions/{id}", methodMux(map[string]http.Handler{
		http.MethodGet:   admin(adminSubmissions.Get),
		http.MethodPatch: admin(adminSubmissions.Edit),
	}))
	mux.Handle("POST /api/v1/admin/submissions/{id}/approve", admin(adminSubmissions.Approve))
	mux.Handle("POST /api/v1/admin/submissions/{id}/reject", admin(adminSubmissions.Reject))

	// Tickets.
	mux.Handle("/api/v1/tickets", methodMux(map[string]http.Handler{
		http.MethodGet:  user(ticketsHandler.ListMine),
		http.MethodPost: user(ticketsHandler.Book),
	}))
	mux.Handle("GET /api/v1/tickets/{id}", user(ticketsHandler.Get))
	mux.Handle("GET /api/v1/tickets/{id}/qr", user(ticketsHandler.QR))
	mux.Handle("POST /api/v1/admin/tickets/{id}/validate", admin(ticketsHandler.Validate))

	// Place discovery proxy. Search is for any signed-in user; the photo
	// passthrough is unauthenticated so result images render inline.
	mux.Handle("GET /api/v1/discover/search", user(discoverHandler.Search))
	mux.Handle("GET /api/v1/discover/photo", public(discoverHandler.Photo))

	// Uploads.
	mux.Handle("POST /api/v1/uploads", user(uploadsHandler.Upload))

	// Multipart uploads get a larger body cap than JSON endpoints.
	limited := middleware.PublicRequestSize()(mux)
	uploadLimited := middleware.UploadRequestSize()(mux)
	var handler http.Handler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/api/v1/uploads" {
			uploadLimited.ServeHTTP(w, r)
			return
		}
		limited.ServeHTTP(w, r)
	})
	handler = metrics.HTTPMiddleware(handler)
	handler = middleware.RequestLogging()(handler)
	handler = middleware.CORS(cfg.CORS, logger)(handler)
	handler = middleware.CorrelationID(logger)(handler)

	return &Router{Handler: handler, UploadStore: uploadStore}, nil
}

func methodMux(handlers map[string]http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if handler, ok := handlers[r.Method]; ok {
			handler.ServeHTTP(w, r)
			return
		}
		w.Header().Set("Allow", allowedMethods(handlers))
		w.WriteHeader(http.StatusMethodNotAllowed)
	})
}

func allowedMethods(handlers map[string]http.Handler) string {
	methods := make([]string, 0, len(handlers))
	for method := range handlers {
		methods = append(methods, method)
	}
	sort.Strings(methods)
	return strings.Join(methods, ", ")
}
