package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"routeflow/internal/adapters/cache"
	"routeflow/internal/adapters/geocode"
	"routeflow/internal/adapters/repositories"
	"routeflow/internal/api"
	"routeflow/internal/config"
	"routeflow/internal/optimizer"
	"routeflow/internal/platform/db"
	"routeflow/internal/platform/logger"
	"routeflow/internal/ports"
	"routeflow/internal/services"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// main is the application composition root.
// It wires concrete adapters (SQL, Redis, ORS) behind ports and starts the HTTP server.
func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found (using environment variables)")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	logr, err := logger.New(cfg.Env, cfg.LogLevel)
	if err != nil {
		log.Fatal(err)
	}
	defer func() { _ = logr.Sync() }()
	zap.ReplaceGlobals(logr)

	if err := run(cfg, logr); err != nil {
		logr.Fatal("server stopped", zap.Error(err))
	}
}

func run(cfg *config.Config, logr *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	dialect, err := db.ParseDialect(cfg.Database.Driver)
	if err != nil {
		return err
	}
	conn, err := db.Open(dialect, cfg.Database.URL)
	if err != nil {
		return err
	}
	defer conn.Close()

	repo := repositories.NewSQLRouteRepository(conn, dialect, logr.Named("routes"))

	// Initialize schema and seed demo data on startup for local runs.
	if err := initAndSeed(ctx, conn, dialect, repo, cfg.SeedPath, logr); err != nil {
		return err
	}

	// Both collaborators are optional; keep the interfaces nil when disabled.
	var geocoder ports.Geocoder
	if cfg.ORS.APIKey != "" {
		geocodeCache := cache.NewSQLGeocodeCache(conn, dialect, logr.Named("geocode_cache"))
		ors, err := geocode.NewORSGeocoder(cfg.ORS.APIKey, geocodeCache, logr.Named("ors"),
			geocode.WithBaseURL(cfg.ORS.BaseURL),
			geocode.WithCountry(cfg.ORS.Country),
		)
		if err != nil {
			return err
		}
		geocoder = ors
	} else {
		logr.Warn("ORS api key not set; stops must carry coordinates")
	}

	var resultCache ports.OptimizationCache
	if cfg.Redis.Addr != "" {
		client := redis.NewClient(&redis.Options{Addr: cfg.Redis.Addr})
		defer client.Close()

		pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
		err := client.Ping(pingCtx).Err()
		cancel()
		if err != nil {
			return fmt.Errorf("redis ping %s: %w", cfg.Redis.Addr, err)
		}
		resultCache = cache.NewRedisOptimizationCache(client, cfg.Redis.TTL, logr.Named("optimization_cache"))
	}

	opt := optimizer.New(cfg.Optimizer.Options(), logr.Named("optimizer"))
	planner := services.NewRoutePlanner(repo, geocoder, resultCache, opt, logr)
	router := api.NewRouter(planner, conn, logr)

	// Timeouts are tuned for cold-cache geocoding (external API latency).
	srv := &http.Server{
		Addr:              cfg.Server.Addr(),
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       cfg.Server.ReadTimeout,
		WriteTimeout:      cfg.Server.WriteTimeout,
		IdleTimeout:       cfg.Server.IdleTimeout,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logr.Info("server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logr.Info("shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

// initAndSeed creates the schema and seeds an empty database.
func initAndSeed(
	ctx context.Context,
	conn *sql.DB,
	dialect db.Dialect,
	repo *repositories.SQLRouteRepository,
	seedPath string,
	logr *zap.Logger,
) error {
	if err := repositories.InitSchema(ctx, conn, dialect); err != nil {
		return fmt.Errorf("init and seed: %w", err)
	}

	existing, err := repo.List(ctx)
	if err != nil {
		return fmt.Errorf("init and seed: %w", err)
	}
	if len(existing) > 0 || seedPath == "" {
		return nil
	}
	if _, err := os.Stat(seedPath); errors.Is(err, os.ErrNotExist) {
		logr.Warn("seed file not found; starting empty", zap.String("path", seedPath))
		return nil
	}

	n, err := repositories.SeedFromJSON(ctx, repo, seedPath, time.Now())
	if err != nil {
		return fmt.Errorf("init and seed: %w", err)
	}
	logr.Info("seeded routes", zap.Int("routes", n), zap.String("path", seedPath))

	return nil
}
