package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/davidcarrera/tradebinder-backend/api/controllers"
	"github.com/davidcarrera/tradebinder-backend/api/middleware"
	"github.com/davidcarrera/tradebinder-backend/internal/auth"
	"github.com/davidcarrera/tradebinder-backend/internal/collection"
	"github.com/davidcarrera/tradebinder-backend/internal/decks"
	"github.com/davidcarrera/tradebinder-backend/internal/listings"
	"github.com/davidcarrera/tradebinder-backend/internal/matches"
	"github.com/davidcarrera/tradebinder-backend/internal/notifications"
	"github.com/davidcarrera/tradebinder-backend/internal/preferences"
	"github.com/davidcarrera/tradebinder-backend/pkg/auth/session"
	"github.com/davidcarrera/tradebinder-backend/pkg/config"
	"github.com/davidcarrera/tradebinder-backend/pkg/db"
	"github.com/davidcarrera/tradebinder-backend/pkg/logger"
	"github.com/davidcarrera/tradebinder-backend/pkg/redis"
)

// Services groups the domain services the router exposes over HTTP.
type Services struct {
	Auth          auth.Service
	Register      auth.RegisterService
	Collection    collection.Service
	Decks         decks.Service
	Preferences   preferences.Service
	Listings      listings.Service
	Matches       matches.Service
	Notifications notifications.Service
}

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	database db.Pinger,
	redisClient *redis.Client,
	sessions session.AccessSessionChecker,
	svcs Services,
) http.Handler {
	r := chi.NewRouter()

	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(),
	)

	loginPolicy := middleware.NewAuthRateLimitPolicy(
		"login",
		cfg.AuthRateLimit.LoginWindow,
		cfg.AuthRateLimit.LoginIPLimit,
		cfg.AuthRateLimit.LoginEmailLimit,
	)
	registerPolicy := middleware.NewAuthRateLimitPolicy(
		"register",
		cfg.AuthRateLimit.RegisterWindow,
		cfg.AuthRateLimit.RegisterIPLimit,
		cfg.AuthRateLimit.RegisterEmailLimit,
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, database, redisClient))
	})

	r.Route("/api/v1/auth", func(r chi.Router) {
		r.With(middleware.AuthRateLimit(loginPolicy, redisClient, logg)).Post("/login", controllers.AuthLogin(svcs.Auth, logg))
		r.With(middleware.AuthRateLimit(registerPolicy, redisClient, logg)).Post("/register", controllers.AuthRegister(svcs.Register, svcs.Auth, logg))
		r.Post("/refresh", controllers.AuthRefresh(svcs.Auth, logg))
		r.Post("/logout", controllers.AuthLogout(svcs.Auth, cfg.JWT, logg))
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, sessions, logg))

		r.Route("/collection", func(r chi.Router) {
			r.Get("/", controllers.CollectionList(svcs.Collection, logg))
			r.Post("/", controllers.CollectionCreate(svcs.Collection, logg))
			r.Get("/totals", controllers.CollectionTotals(svcs.Collection, logg))
			r.Post("/resync-listings", controllers.CollectionResync(svcs.Collection, logg))
			r.Patch("/{cardId}", controllers.CollectionUpdate(svcs.Collection, logg))
			r.Delete("/{cardId}", controllers.CollectionDelete(svcs.Collection, logg))
			r.Get("/{cardId}/allocations", controllers.CollectionAllocationSummary(svcs.Collection, logg))
			r.Get("/{cardId}/check-reduction", controllers.CollectionCheckReduction(svcs.Collection, logg))
		})

		r.Route("/decks", func(r chi.Router) {
			r.Get("/", controllers.DeckList(svcs.Decks, logg))
			r.Post("/", controllers.DeckCreate(svcs.Decks, logg))
			r.Post("/import", controllers.DeckImport(svcs.Decks, logg))
			r.Get("/{deckId}", controllers.DeckDetail(svcs.Decks, logg))
			r.Delete("/{deckId}", controllers.DeckDelete(svcs.Decks, logg))
			r.Post("/{deckId}/cards", controllers.DeckAddCard(svcs.Decks, logg))
			r.Delete("/{deckId}/cards/{deckCardId}", controllers.DeckRemoveCard(svcs.Decks, logg))
		})

		r.Route("/preferences", func(r chi.Router) {
			r.Get("/", controllers.PreferenceList(svcs.Preferences, logg))
			r.Post("/", controllers.PreferenceCreate(svcs.Preferences, logg))
			r.Patch("/{preferenceId}", controllers.PreferenceUpdate(svcs.Preferences, logg))
			r.Delete("/{preferenceId}", controllers.PreferenceDelete(svcs.Preferences, logg))
		})

		r.Get("/listings/mine", controllers.MyListings(svcs.Listings, logg))

		r.Route("/matches", func(r chi.Router) {
			r.Get("/discover", controllers.MatchDiscover(svcs.Matches, logg))
			r.Get("/saved", controllers.MatchListSaved(svcs.Matches, logg))
			r.Post("/saved", controllers.MatchSave(svcs.Matches, logg))
			r.Delete("/saved/{matchId}", controllers.MatchDeleteSaved(svcs.Matches, logg))
		})

		r.Route("/notifications", func(r chi.Router) {
			r.Get("/", controllers.ListNotifications(svcs.Notifications, logg))
			r.Post("/match", controllers.NotifyMatch(svcs.Notifications, logg))
			r.Get("/unread-count", controllers.UnreadNotificationCount(svcs.Notifications, logg))
			r.Post("/read-all", controllers.MarkAllNotificationsRead(svcs.Notifications, logg))
			r.Post("/{notificationId}/read", controllers.MarkNotificationRead(svcs.Notifications, logg))
			r.Delete("/{notificationId}", controllers.DeleteNotification(svcs.Notifications, logg))
		})
	})

	return r
}
