package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/curbline/curbline/internal/config"
	"github.com/curbline/curbline/internal/domain"
	"github.com/curbline/curbline/internal/feed"
	"github.com/curbline/curbline/internal/geocode"
	"github.com/curbline/curbline/internal/postgres"
	redisx "github.com/curbline/curbline/internal/redis"
	postgresrepo "github.com/curbline/curbline/internal/repository/postgres"
	redisrepo "github.com/curbline/curbline/internal/repository/redis"
	"github.com/curbline/curbline/internal/service"
	"github.com/curbline/curbline/internal/service/lifecycle"
	"github.com/curbline/curbline/internal/sweeper"
	httpgin "github.com/curbline/curbline/internal/transport/http/gin"
	"github.com/curbline/curbline/internal/verify"

	"github.com/google/uuid"
)

type App struct {
	cfg        *config.Config
	logger     *slog.Logger
	httpServer *http.Server
	sweeper    *sweeper.Sweeper
	pubsub     *redisx.SpotsPubSub
	store      *postgresrepo.Store
	hub        *feed.Hub
}

func New(cfg *config.Config, logger *slog.Logger) (*App, error) {
	// Initialize dependencies
	dsn := fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		cfg.Postgres.User,
		cfg.Postgres.Password,
		cfg.Postgres.Host,
		cfg.Postgres.Port,
		cfg.Postgres.Name,
		cfg.Postgres.SSLMode,
	)

	pgxPool, err := postgres.New(context.Background(), postgres.Config{DSN: dsn})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize postgres: %w", err)
	}

	rdb, err := redisx.New(context.Background(), redisx.Config{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize redis: %w", err)
	}

	// Initialize repositories
	store := postgresrepo.NewStore(pgxPool)
	cache := redisrepo.New(rdb)
	pubsub := redisx.NewSpotsPubSub(rdb)
	limiter := redisrepo.NewSlidingWindowLimiter(rdb, "rl", 10, 1*time.Minute)
	idempotencyStore := redisrepo.NewIdempotencyStore(rdb, 2*time.Hour)

	// Initialize location verification
	geocoder := geocode.New(geocode.Config{
		BaseURL: cfg.Geocoder.BaseURL,
		Timeout: cfg.Geocoder.Timeout,
	})
	verifier := verify.New(geocoder, verify.Config{
		ToleranceMeters: cfg.Spots.ToleranceMeters,
		Timeout:         cfg.Geocoder.Timeout,
	})

	// Initialize services
	services := service.NewServices(store, cache, pubsub, limiter, service.Config{
		Lifecycle: lifecycle.Config{
			MinPriceCents:  cfg.Spots.MinPriceCents,
			MaxPriceCents:  cfg.Spots.MaxPriceCents,
			MinLeadTime:    cfg.Spots.MinLeadTime,
			MaxLeadTime:    cfg.Spots.MaxLeadTime,
			MaxDurationMin: cfg.Spots.MaxDurationMin,
			FeePercent:     cfg.Spots.FeePercent,
		},
	})

	// Initialize change feed
	hub := feed.NewHub()

	// Initialize Gin router
	router := httpgin.NewRouter(services, verifier, hub, idempotencyStore, logger)

	return &App{
		cfg:     cfg,
		logger:  logger,
		sweeper: sweeper.New(services.Lifecycle, cfg.Spots.SweepInterval, logger),
		pubsub:  pubsub,
		store:   store,
		hub:     hub,
		httpServer: &http.Server{
			Addr:    fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
			Handler: router,
		},
	}, nil
}

func (a *App) Run(ctx context.Context) error {
	ctx, cancel := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	g, gCtx := errgroup.WithContext(ctx)

	// Start HTTP server
	g.Go(func() error {
		a.logger.Info("HTTP server listening", "host", a.cfg.Server.Host, "port", a.cfg.Server.Port)
		if err := a.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("failed to start HTTP server: %w", err)
		}
		return nil
	})

	// Expiration sweep
	g.Go(func() error {
		return a.sweeper.Run(gCtx)
	})

	// Relay cross-instance spot changes into the local feed hub. The
	// message carries only the spot id; the current row is re-read so
	// subscribers always see committed state.
	g.Go(func() error {
		err := a.pubsub.Subscribe(gCtx, func(ctx context.Context, spotID uuid.UUID, change domain.ChangeKind) {
			spot, err := a.store.GetSpot(ctx, spotID)
			if err != nil {
				a.logger.Warn("feed relay lookup failed", "spot_id", spotID, "error", err)
				return
			}
			a.hub.Publish(*spot)
		})
		if err != nil && gCtx.Err() == nil {
			return fmt.Errorf("feed relay stopped: %w", err)
		}
		return nil
	})

	// Graceful shutdown
	g.Go(func() error {
		<-gCtx.Done()
		a.logger.Info("shutting down HTTP server")
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return a.httpServer.Shutdown(ctx)
	})

	return g.Wait()
}
