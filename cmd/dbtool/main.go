package main

import (
	"context"
	"flag"
	"log"
	"routeflow/internal/adapters/repositories"
	"routeflow/internal/config"
	"routeflow/internal/platform/db"
	"routeflow/internal/platform/logger"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found (using environment variables)")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	seedPath := flag.String("seed", cfg.SeedPath, "routes JSON file to load; empty skips seeding")
	flag.Parse()

	logr, err := logger.New(cfg.Env, cfg.LogLevel)
	if err != nil {
		log.Fatal(err)
	}
	defer func() { _ = logr.Sync() }()

	dialect, err := db.ParseDialect(cfg.Database.Driver)
	if err != nil {
		logr.Fatal("bad database driver", zap.Error(err))
	}

	conn, err := db.Open(dialect, cfg.Database.URL)
	if err != nil {
		logr.Fatal("open database", zap.Error(err))
	}
	defer conn.Close()

	ctx := context.Background()

	logr.Info("initializing database schema", zap.String("driver", string(dialect)))
	if err := repositories.InitSchema(ctx, conn, dialect); err != nil {
		logr.Fatal("schema initialization failed", zap.Error(err))
	}
	logr.Info("schema ready")

	if *seedPath == "" {
		return
	}

	logr.Info("seeding database", zap.String("path", *seedPath))
	repo := repositories.NewSQLRouteRepository(conn, dialect, logr)
	n, err := repositories.SeedFromJSON(ctx, repo, *seedPath, time.Now())
	if err != nil {
		logr.Fatal("seeding failed", zap.Error(err))
	}
	logr.Info("seeding complete", zap.Int("routes", n))
}
