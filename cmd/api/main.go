package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/comitanigiacomo/kanso-growth-engine/internal/adapters/cache"
	adapterHTTP "github.com/comitanigiacomo/kanso-growth-engine/internal/adapters/handler/http"
	"github.com/comitanigiacomo/kanso-growth-engine/internal/adapters/repository"
	"github.com/comitanigiacomo/kanso-growth-engine/internal/catalog"
	"github.com/comitanigiacomo/kanso-growth-engine/internal/config"
	"github.com/comitanigiacomo/kanso-growth-engine/internal/core/domain"
	"github.com/comitanigiacomo/kanso-growth-engine/internal/core/services"
	"github.com/comitanigiacomo/kanso-growth-engine/internal/core/workers"
	"github.com/comitanigiacomo/kanso-growth-engine/internal/logger"
	"github.com/comitanigiacomo/kanso-growth-engine/internal/metrics"
)

// storage is what the selected driver provides to the rest of the wiring.
type storage struct {
	documents domain.DocumentStore
	users     domain.UserRepository
	health    map[string]adapterHTTP.HealthCheck
	close     func()
}

func openStorage(ctx context.Context, cfg *config.Config, log logrus.FieldLogger) (*storage, error) {
	switch cfg.StorageDriver {
	case config.StorageMemory:
		log.Warn("Using in-memory storage, data is lost on restart")
		return &storage{
			documents: repository.NewInMemoryDocumentStore(),
			users:     repository.NewInMemoryUserRepository(),
			health:    map[string]adapterHTTP.HealthCheck{},
			close:     func() {},
		}, nil

	case config.StorageGorm:
		db, err := repository.OpenGorm(cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		sqlDB, err := db.DB()
		if err != nil {
			return nil, fmt.Errorf("gorm handle: %w", err)
		}
		return &storage{
			documents: repository.NewGormDocumentStore(db),
			users:     repository.NewGormUserRepository(db),
			health:    map[string]adapterHTTP.HealthCheck{"database": sqlDB.PingContext},
			close:     func() { sqlDB.Close() },
		}, nil

	case config.StoragePostgres:
		db, err := sqlx.Connect("pgx", cfg.PostgresDSN())
		if err != nil {
			return nil, fmt.Errorf("connect to postgres: %w", err)
		}
		db.SetMaxOpenConns(25)
		db.SetMaxIdleConns(25)
		db.SetConnMaxLifetime(5 * time.Minute)

		documents := repository.NewPostgresDocumentStore(db)
		users := repository.NewPostgresUserRepository(db.DB)
		if err := documents.EnsureSchema(ctx); err != nil {
			db.Close()
			return nil, err
		}
		if err := users.EnsureSchema(ctx); err != nil {
			db.Close()
			return nil, err
		}
		return &storage{
			documents: documents,
			users:     users,
			health:    map[string]adapterHTTP.HealthCheck{"database": db.PingContext},
			close:     func() { db.Close() },
		}, nil
	}

	return nil, fmt.Errorf("unknown storage driver %q", cfg.StorageDriver)
}

func main() {
	startTime := time.Now()
	cfg := config.Load()
	log := logger.New("kanso-growth-engine", cfg.LogLevel)

	if err := cfg.Validate(); err != nil {
		log.WithError(err).Fatal("Critical: invalid configuration")
	}

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	log.WithField("driver", cfg.StorageDriver).Info("Opening storage...")
	store, err := openStorage(ctx, cfg, log)
	if err != nil {
		log.WithError(err).Fatal("Critical: failed to open storage")
	}
	defer store.close()

	documents := store.documents

	var rdb *redis.Client
	if cfg.Redis.Enabled() {
		rdb, err = cache.NewRedisClient(cfg.Redis)
		if err != nil {
			log.WithError(err).Warn("Redis unavailable, running without cache and rate limiting")
		} else {
			defer rdb.Close()
			documents = repository.NewCachedDocumentStore(documents, rdb, log)
			store.health["redis"] = func(ctx context.Context) error { return rdb.Ping(ctx).Err() }
			log.Info("Redis connected, document cache enabled")
		}
	}

	m := metrics.New(prometheus.DefaultRegisterer)
	plan := catalog.Default()

	progressService := services.NewProgressService(repository.NewProgressRepository(documents), plan, m)
	goalService := services.NewGoalService(repository.NewGoalRepository(documents), cfg.AdminEmail)
	dashboardService := services.NewDashboardService(progressService, goalService)
	tokenService := services.NewTokenService(cfg.JWTSecret, cfg.JWTIssuer, cfg.JWTTTL, store.users)

	snapshotWorker := workers.NewSnapshotWorker(documents, m, log)
	snapshotWorker.Start(ctx)

	authService := services.NewAuthService(store.users, tokenService, progressService, goalService, log).
		WithAdminGoals(goalService).
		WithSnapshots(snapshotWorker)

	if cfg.SeedDemo {
		if err := authService.SeedDemoAccount(ctx); err != nil {
			log.WithError(err).Warn("Could not seed demo account")
		}
	}

	router := adapterHTTP.NewRouter(adapterHTTP.RouterDependencies{
		AuthHandler:      adapterHTTP.NewAuthHandler(authService),
		CatalogHandler:   adapterHTTP.NewCatalogHandler(plan),
		ProgressHandler:  adapterHTTP.NewProgressHandler(progressService),
		GoalHandler:      adapterHTTP.NewGoalHandler(goalService),
		DashboardHandler: adapterHTTP.NewDashboardHandler(dashboardService),
		TokenService:     tokenService,
		Redis:            rdb,
		RateLimit:        cfg.RateLimit,
		RateWindow:       cfg.RateWindow,
		Metrics:          m,
		Gatherer:         prometheus.DefaultGatherer,
		Logger:           log,
		HealthChecks:     store.health,
		StartTime:        startTime,
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		log.Infof("Kanso Growth Engine running on http://localhost:%s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Fatal("Critical server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Stop signal received. Shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("Forced shutdown")
	}

	stop()
	select {
	case <-snapshotWorker.Done():
	case <-shutdownCtx.Done():
		log.Warn("Snapshot worker did not drain in time")
	}

	log.Info("Server stopped gracefully.")
}
