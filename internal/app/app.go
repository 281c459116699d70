// Package app assembles the service: connections, schema, stores, services
// and the HTTP server, plus the run loop with graceful shutdown.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/Maheshi13/UNIVISTA-Project/internal/auth"
	"github.com/Maheshi13/UNIVISTA-Project/internal/config"
	"github.com/Maheshi13/UNIVISTA-Project/internal/postgres"
	"github.com/Maheshi13/UNIVISTA-Project/internal/repository"
	redisx "github.com/Maheshi13/UNIVISTA-Project/internal/redis"
	postgresrepo "github.com/Maheshi13/UNIVISTA-Project/internal/repository/postgres"
	redisrepo "github.com/Maheshi13/UNIVISTA-Project/internal/repository/redis"
	"github.com/Maheshi13/UNIVISTA-Project/internal/service"
	"github.com/Maheshi13/UNIVISTA-Project/internal/store/pg"
	httpgin "github.com/Maheshi13/UNIVISTA-Project/internal/transport/http/gin"
)

type App struct {
	cfg        *config.Config
	logger     *slog.Logger
	httpServer *http.Server
}

func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	pool, err := postgres.New(ctx, postgres.Config{DSN: cfg.Postgres.DSN()})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize postgres: %w", err)
	}

	rdb, err := redisx.New(ctx, redisx.Config{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize redis: %w", err)
	}

	pgStore := postgresrepo.NewStore(pool)
	if err := pgStore.Migrate(ctx); err != nil {
		return nil, fmt.Errorf("failed to migrate schema: %w", err)
	}

	if err := seedCrewUsernames(ctx, pgStore, string(cfg.CrewSeed), logger); err != nil {
		return nil, fmt.Errorf("failed to seed crew allowlist: %w", err)
	}

	stores := pg.New(pgStore)

	cache := redisrepo.New(rdb)
	pubsub := redisx.NewEventsPubSub(rdb)
	limiter := redisrepo.NewSlidingWindowLimiter(rdb, "booking", cfg.Booking.RateLimit, cfg.Booking.RateWindow)
	idem := redisrepo.NewIdempotencyStore(rdb, cfg.Booking.IdempotencyTTL)

	tokens := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.SessionTTL, cfg.Auth.ResetTTL)

	services := service.NewServices(
		stores.Events,
		stores.Bookings,
		stores.Identities,
		tokens,
		cache,
		pubsub,
		limiter,
		service.Config{},
	)

	router := httpgin.NewRouter(services, tokens, idem, logger)

	return &App{
		cfg:    cfg,
		logger: logger,
		httpServer: &http.Server{
			Addr:              fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
			Handler:           router,
			ReadHeaderTimeout: 10 * time.Second,
		},
	}, nil
}

// seedCrewUsernames provisions allowlist entries from comma-separated
// username:faculty pairs. Entries that already exist are left untouched, so
// re-running with the same seed never resets a claimed username.
func seedCrewUsernames(ctx context.Context, s *postgresrepo.Store, seed string, logger *slog.Logger) error {
	if seed == "" {
		return nil
	}

	repo := s.CrewUsernames()
	for _, pair := range strings.Split(seed, ",") {
		username, faculty, ok := strings.Cut(strings.TrimSpace(pair), ":")
		if !ok || username == "" || faculty == "" {
			return fmt.Errorf("malformed crew seed entry %q", pair)
		}

		err := repo.Provision(ctx, username, faculty)
		if errors.Is(err, repository.ErrConflict) {
			continue
		}
		if err != nil {
			return err
		}
		logger.Info("provisioned crew username", "username", username, "faculty", faculty)
	}

	return nil
}

func (a *App) Run(ctx context.Context) error {
	ctx, cancel := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		a.logger.Info("HTTP server listening", "host", a.cfg.Server.Host, "port", a.cfg.Server.Port)
		if err := a.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("failed to start HTTP server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gCtx.Done()
		a.logger.Info("shutting down HTTP server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return a.httpServer.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
