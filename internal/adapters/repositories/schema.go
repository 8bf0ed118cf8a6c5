package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"routeflow/internal/platform/db"
)

// Initialize the database schema. Statements are idempotent and portable
// between SQLite and Postgres; timestamps are stored as RFC 3339 text.
func InitSchema(ctx context.Context, conn *sql.DB, dialect db.Dialect) error {
	if conn == nil {
		return errors.New("init schema: DB is nil")
	}

	tx, err := conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("init schema: begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	createRoutesQuery := `
	CREATE TABLE IF NOT EXISTS routes (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		is_optimized INTEGER NOT NULL DEFAULT 0,
		total_distance_meters DOUBLE PRECISION NOT NULL DEFAULT 0,
		estimated_duration_seconds DOUBLE PRECISION NOT NULL DEFAULT 0,
		start_lat DOUBLE PRECISION,
		start_lon DOUBLE PRECISION,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);
	`

	createStopsQuery := `
	CREATE TABLE IF NOT EXISTS stops (
		route_id TEXT NOT NULL REFERENCES routes(id) ON DELETE CASCADE,
		id TEXT NOT NULL,
		position INTEGER NOT NULL,
		address TEXT NOT NULL DEFAULT '',
		lat DOUBLE PRECISION NOT NULL,
		lon DOUBLE PRECISION NOT NULL,
		notes TEXT NOT NULL DEFAULT '',
		status TEXT NOT NULL,
		sequence_number INTEGER NOT NULL DEFAULT 0,
		estimated_arrival TEXT,
		actual_arrival TEXT,
		completed_at TEXT,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL,
		PRIMARY KEY (route_id, id)
	);
	`

	createStopsIndexQuery := `
	CREATE INDEX IF NOT EXISTS idx_stops_route_position
	ON stops(route_id, position);
	`

	createGeocodeCacheQuery := `
	CREATE TABLE IF NOT EXISTS geocode_cache (
		address TEXT PRIMARY KEY,
		lon DOUBLE PRECISION NOT NULL,
		lat DOUBLE PRECISION NOT NULL
	);
	`

	statements := []string{
		createRoutesQuery,
		createStopsQuery,
		createStopsIndexQuery,
		createGeocodeCacheQuery,
	}

	for i, stmt := range statements {
		if _, err := tx.ExecContext(ctx, dialect.Rebind(stmt)); err != nil {
			return fmt.Errorf("init schema: exec statement #%d: %w", i+1, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("init schema: commit tx: %w", err)
	}

	return nil
}
