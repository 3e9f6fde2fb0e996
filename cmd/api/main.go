package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/davidcarrera/tradebinder-backend/api/routes"
	"github.com/davidcarrera/tradebinder-backend/internal/auth"
	"github.com/davidcarrera/tradebinder-backend/internal/collection"
	"github.com/davidcarrera/tradebinder-backend/internal/decks"
	"github.com/davidcarrera/tradebinder-backend/internal/listings"
	"github.com/davidcarrera/tradebinder-backend/internal/matches"
	"github.com/davidcarrera/tradebinder-backend/internal/notifications"
	"github.com/davidcarrera/tradebinder-backend/internal/preferences"
	"github.com/davidcarrera/tradebinder-backend/internal/prices"
	"github.com/davidcarrera/tradebinder-backend/internal/users"
	"github.com/davidcarrera/tradebinder-backend/pkg/auth/session"
	"github.com/davidcarrera/tradebinder-backend/pkg/cardprices"
	"github.com/davidcarrera/tradebinder-backend/pkg/config"
	"github.com/davidcarrera/tradebinder-backend/pkg/db"
	"github.com/davidcarrera/tradebinder-backend/pkg/logger"
	"github.com/davidcarrera/tradebinder-backend/pkg/metrics"
	"github.com/davidcarrera/tradebinder-backend/pkg/migrate"
	"github.com/davidcarrera/tradebinder-backend/pkg/moxfield"
	"github.com/davidcarrera/tradebinder-backend/pkg/redis"
	"github.com/davidcarrera/tradebinder-backend/pkg/scryfall"
)

const shutdownGrace = 15 * time.Second

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	sessionManager, err := session.NewManager(redisClient, cfg.JWT)
	if err != nil {
		logg.Error(context.Background(), "failed to create session manager", err)
		os.Exit(1)
	}

	svcs, err := buildServices(cfg, logg, dbClient, redisClient, sessionManager)
	if err != nil {
		logg.Error(context.Background(), "failed to build services", err)
		os.Exit(1)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port

	server := &http.Server{
		Addr:    addr,
		Handler: routes.NewRouter(cfg, logg, dbClient, redisClient, sessionManager, svcs),
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	ctx = logg.WithFields(ctx, map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(ctx, "starting api server")

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logg.Error(ctx, "api server stopped unexpectedly", err)
			os.Exit(1)
		}
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logg.Error(ctx, "api server shutdown failed", err)
			os.Exit(1)
		}
		logg.Info(ctx, "api server shut down gracefully")
	}
}

func buildServices(
	cfg *config.Config,
	logg *logger.Logger,
	dbClient *db.Client,
	redisClient *redis.Client,
	sessionManager *session.Manager,
) (routes.Services, error) {
	gdb := dbClient.DB()

	userRepo := users.NewRepository(gdb)
	collectionRepo := collection.NewRepository(gdb)
	deckRepo := decks.NewRepository(gdb)
	preferenceRepo := preferences.NewRepository(gdb)
	listingRepo := listings.NewRepository(gdb)
	matchRepo := matches.NewRepository(gdb)
	notificationRepo := notifications.NewRepository(gdb)

	providerMetrics := metrics.NewProviderMetrics(prometheus.DefaultRegisterer)

	scryfallClient, err := scryfall.NewClient(cfg.Scryfall, scryfall.WithMetrics(providerMetrics))
	if err != nil {
		return routes.Services{}, err
	}
	moxfieldClient, err := moxfield.NewClient(cfg.Moxfield, moxfield.WithMetrics(providerMetrics))
	if err != nil {
		return routes.Services{}, err
	}

	authService, err := auth.NewService(auth.ServiceParams{
		UserRepo:       userRepo,
		SessionManager: sessionManager,
		JWTConfig:      cfg.JWT,
	})
	if err != nil {
		return routes.Services{}, err
	}

	registerService, err := auth.NewRegisterService(auth.RegisterServiceParams{
		DB:             dbClient,
		PasswordConfig: cfg.Password,
	})
	if err != nil {
		return routes.Services{}, err
	}

	listingService, err := listings.NewService(listings.ServiceParams{
		Repo:      listingRepo,
		Logger:    logg,
		BatchSize: cfg.Listings.ResyncBatchSize,
	})
	if err != nil {
		return routes.Services{}, err
	}

	// Secondary prices are optional: without an API key the totals
	// endpoint reports primary values only.
	var fetcher *prices.Fetcher
	if cfg.CardPrices.APIKey != "" {
		pricesClient, err := cardprices.NewClient(cfg.CardPrices,
			cardprices.WithCache(redisClient, cfg.CardPrices.CacheTTL),
			cardprices.WithMetrics(providerMetrics),
		)
		if err != nil {
			return routes.Services{}, err
		}
		fetcher, err = prices.NewFetcher(prices.FetcherParams{
			Provider: pricesClient,
			Catalog:  scryfallClient,
			Logger:   logg,
			Config:   cfg.CardPrices,
		})
		if err != nil {
			return routes.Services{}, err
		}
	}

	collectionParams := collection.ServiceParams{
		Repo:        collectionRepo,
		Users:       userRepo,
		Decks:       deckRepo,
		Preferences: preferenceRepo,
		Listings:    listingService,
		Logger:      logg,
	}
	if fetcher != nil {
		collectionParams.Fetcher = fetcher
	}
	collectionService, err := collection.NewService(collectionParams)
	if err != nil {
		return routes.Services{}, err
	}

	deckService, err := decks.NewService(decks.ServiceParams{
		Repo:     deckRepo,
		Cards:    collectionRepo,
		Importer: moxfieldClient,
		Logger:   logg,
	})
	if err != nil {
		return routes.Services{}, err
	}

	preferenceService, err := preferences.NewService(preferences.ServiceParams{
		Repo:     preferenceRepo,
		Users:    userRepo,
		Listings: listingService,
	})
	if err != nil {
		return routes.Services{}, err
	}

	finder, err := matches.NewFinder(listingRepo, cfg.Matching.NameQueryChunk)
	if err != nil {
		return routes.Services{}, err
	}
	matchService, err := matches.NewService(matches.ServiceParams{
		Repo:        matchRepo,
		Finder:      finder,
		Cards:       collectionRepo,
		Preferences: preferenceRepo,
		Logger:      logg,
	})
	if err != nil {
		return routes.Services{}, err
	}

	notificationService, err := notifications.NewService(notifications.ServiceParams{
		Repo:   notificationRepo,
		Users:  userRepo,
		Store:  redisClient,
		Logger: logg,
	})
	if err != nil {
		return routes.Services{}, err
	}

	return routes.Services{
		Auth:          authService,
		Register:      registerService,
		Collection:    collectionService,
		Decks:         deckService,
		Preferences:   preferenceService,
		Listings:      listingService,
		Matches:       matchService,
		Notifications: notificationService,
	}, nil
}
