package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/reelscout/reelscout/src/internal/adapters/badgerdb"
	"github.com/reelscout/reelscout/src/internal/adapters/memory"
	"github.com/reelscout/reelscout/src/internal/adapters/metadata/tmdb"
	"github.com/reelscout/reelscout/src/internal/adapters/postgres"
	"github.com/reelscout/reelscout/src/internal/auth"
	"github.com/reelscout/reelscout/src/internal/config"
	"github.com/reelscout/reelscout/src/internal/logging"
	"github.com/reelscout/reelscout/src/internal/ports"
	"github.com/reelscout/reelscout/src/internal/querycache"
	"github.com/reelscout/reelscout/src/internal/services"
	"github.com/reelscout/reelscout/src/internal/session"
	"github.com/reelscout/reelscout/src/internal/supervisor"
	"github.com/reelscout/reelscout/src/internal/web"
)

func main() {
	if err := godotenv.Load(); err == nil {
		logging.Info().Msg("Loaded .env")
	}

	cfg, err := config.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}
	logging.Init(cfg.Log)
	logging.Info().Str("port", cfg.Server.Port).Str("store", cfg.Store.Backend).Msg("Starting reelscout Web Frontend...")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 1. Initialize Adapters
	store, err := openStore(cfg.Store)
	if err != nil {
		logging.Fatal().Err(err).Str("backend", cfg.Store.Backend).Msg("Failed to open store")
	}
	defer func() {
		if err := store.Close(); err != nil {
			logging.Error().Err(err).Msg("Failed to close store")
		}
	}()

	catalog := tmdb.NewCircuitBreakerClient(tmdb.NewTMDBClient(tmdb.Options{
		BaseURL:     cfg.Catalog.BaseURL,
		APIKey:      cfg.Catalog.APIKey,
		AccessToken: cfg.Catalog.AccessToken,
		Language:    cfg.Catalog.Language,
		Page:        cfg.Catalog.Page,
		Timeout:     cfg.Catalog.Timeout,
	}), tmdb.BreakerSettings{})

	// 2. Query cache and services
	cache := querycache.New(querycache.WithGCTime(cfg.Cache.GCTime))
	catalogSvc := services.NewCatalogService(catalog, cache, services.CatalogOptions{
		StaleTime:        cfg.Cache.StaleTime,
		PopularStaleTime: cfg.Cache.PopularStaleTime,
		Debounce:         cfg.Cache.SearchDebounce,
	})
	defer catalogSvc.Close()

	userOpts := services.UserStateOptions{StaleTime: cfg.Cache.StaleTime}

	// 3. Identity and sessions
	provider := auth.NewProvider(store.Accounts, auth.Options{
		MinPasswordLength: cfg.Auth.MinPasswordLength,
		SessionTimeout:    cfg.Auth.SessionTimeout,
	})
	observer := session.NewObserver(provider)
	defer observer.Close()
	defer services.ForgetOnSignOut(observer, cache)()

	tokens, err := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.SessionTimeout)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to init session tokens")
	}
	oidcSvc := auth.NewOIDCService(ctx, cfg.OIDC, provider)
	oidcSvc.Secure = cfg.Server.CookieSecure

	// 4. HTTP
	server, err := web.NewServer(web.Deps{
		Catalog:   catalogSvc,
		Favorites: services.NewFavoriteService(store.Favorites, cache, userOpts),
		Ratings:   services.NewRatingService(store.Ratings, cache, userOpts),
		Profiles:  services.NewProfileService(store.Profiles, cache, userOpts),
		Auth:      provider,
		Sessions:  observer,
		Tokens:    tokens,
		OIDC:      oidcSvc,
	}, web.Options{
		CookieSecure:   cfg.Server.CookieSecure,
		CORSOrigins:    cfg.Server.CORSOrigins,
		AuthRateLimit:  cfg.RateLimit.AuthRequests,
		AuthRateWindow: cfg.RateLimit.Window,
	})
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to init web server")
	}

	httpServer := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           server.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	// 5. Supervise
	tree := supervisor.NewTree(supervisor.TreeConfig{ShutdownTimeout: cfg.Server.ShutdownTimeout})
	tree.AddBackgroundService(cache)
	tree.AddBackgroundService(services.NewSessionReaper(provider, time.Minute))
	tree.AddAPIService(supervisor.NewHTTPService(httpServer, cfg.Server.ShutdownTimeout))

	logging.Info().Msgf("Web Frontend listening on http://0.0.0.0:%s", cfg.Server.Port)
	if err := tree.Serve(ctx); err != nil && ctx.Err() == nil {
		logging.Error().Err(err).Msg("Supervisor stopped")
	}
	if report, err := tree.UnstoppedServiceReport(); err == nil && len(report) > 0 {
		logging.Warn().Int("services", len(report)).Msg("Some services did not stop in time")
	}
	logging.Info().Msg("Shutdown complete")
}

func openStore(cfg config.StoreConfig) (*ports.Store, error) {
	switch cfg.Backend {
	case config.BackendPostgres:
		store, err := postgres.Open(cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		logging.Info().Msg("Connected to Postgres")
		return store, nil
	case config.BackendBadger:
		db, err := badgerdb.Open(cfg.BadgerDir)
		if err != nil {
			return nil, err
		}
		logging.Info().Str("dir", cfg.BadgerDir).Msg("Opened Badger store")
		return badgerdb.NewStore(db), nil
	case config.BackendMemory, "":
		logging.Warn().Msg("Using in-memory store. Data is lost on restart.")
		return memory.NewStore(), nil
	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.Backend)
	}
}
