package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"routeflow/internal/domain"
	"routeflow/internal/platform/db"
	"routeflow/internal/platform/obs"
	"routeflow/internal/ports"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// SQL-backed implementation of the RouteRepository port.
// A route and its stops are always written together in one transaction.
type SQLRouteRepository struct {
	DB      *sql.DB
	Dialect db.Dialect
	log     *zap.Logger
}

func NewSQLRouteRepository(conn *sql.DB, dialect db.Dialect, log *zap.Logger) *SQLRouteRepository {
	if log == nil {
		log = zap.NewNop()
	}
	return &SQLRouteRepository{DB: conn, Dialect: dialect, log: log}
}

// Insert or replace the route row and its full stop list.
func (s *SQLRouteRepository) Save(ctx context.Context, r *domain.Route) (err error) {
	defer obs.Time(ctx, s.log, "routes.Save")(&err)

	if s.DB == nil {
		return errors.New("sql route repository: DB is nil")
	}
	if r == nil {
		return errors.New("save route: route is nil")
	}

	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("save route %s: begin tx: %w", r.ID, err)
	}
	defer func() { _ = tx.Rollback() }()

	var startLat, startLon sql.NullFloat64
	if r.Start != nil {
		startLat = sql.NullFloat64{Float64: r.Start.Lat, Valid: true}
		startLon = sql.NullFloat64{Float64: r.Start.Lon, Valid: true}
	}

	upsertRoute := s.Dialect.Rebind(`
	INSERT INTO routes (
		id,
		name,
		is_optimized,
		total_distance_meters,
		estimated_duration_seconds,
		start_lat,
		start_lon,
		created_at,
		updated_at
	)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT (id) DO UPDATE
	SET name = excluded.name,
		is_optimized = excluded.is_optimized,
		total_distance_meters = excluded.total_distance_meters,
		estimated_duration_seconds = excluded.estimated_duration_seconds,
		start_lat = excluded.start_lat,
		start_lon = excluded.start_lon,
		updated_at = excluded.updated_at;
	`)
	if _, err := tx.ExecContext(ctx, upsertRoute,
		r.ID.String(),
		r.Name,
		boolToInt(r.IsOptimized),
		r.TotalDistanceMeters,
		r.EstimatedDurationSeconds,
		startLat,
		startLon,
		formatTime(r.CreatedAt),
		formatTime(r.UpdatedAt),
	); err != nil {
		return fmt.Errorf("save route %s: upsert route: %w", r.ID, err)
	}

	if _, err := tx.ExecContext(ctx, s.Dialect.Rebind(`DELETE FROM stops WHERE route_id = ?;`), r.ID.String()); err != nil {
		return fmt.Errorf("save route %s: clear stops: %w", r.ID, err)
	}

	stmt, err := tx.PrepareContext(ctx, s.Dialect.Rebind(`
	INSERT INTO stops (
		route_id,
		id,
		position,
		address,
		lat,
		lon,
		notes,
		status,
		sequence_number,
		estimated_arrival,
		actual_arrival,
		completed_at,
		created_at,
		updated_at
	)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?);
	`))
	if err != nil {
		return fmt.Errorf("save route %s: prepare stop insert: %w", r.ID, err)
	}
	defer stmt.Close()

	for i, st := range r.Stops {
		if _, err := stmt.ExecContext(ctx,
			r.ID.String(),
			st.ID.String(),
			i,
			st.Address,
			st.Location.Lat,
			st.Location.Lon,
			st.Notes,
			string(st.Status),
			st.SequenceNumber,
			formatTimePtr(st.EstimatedArrival),
			formatTimePtr(st.ActualArrival),
			formatTimePtr(st.CompletedAt),
			formatTime(st.CreatedAt),
			formatTime(st.UpdatedAt),
		); err != nil {
			return fmt.Errorf("save route %s: insert stop %s: %w", r.ID, st.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("save route %s: commit tx: %w", r.ID, err)
	}

	return nil
}

// Return the route with its stops in stored order, or ports.ErrNotFound.
func (s *SQLRouteRepository) Get(ctx context.Context, id uuid.UUID) (_ *domain.Route, err error) {
	defer obs.Time(ctx, s.log, "routes.Get")(&err)

	if s.DB == nil {
		return nil, errors.New("sql route repository: DB is nil")
	}

	row := s.DB.QueryRowContext(ctx, s.Dialect.Rebind(routeSelect+` WHERE id = ?;`), id.String())
	r, err := scanRoute(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get route %s: %w", id, ports.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get route %s: %w", id, err)
	}

	byRoute, err := s.loadStops(ctx, `WHERE route_id = ?`, id.String())
	if err != nil {
		return nil, fmt.Errorf("get route %s: %w", id, err)
	}
	if stops, ok := byRoute[r.ID]; ok {
		r.Stops = stops
	}

	return r, nil
}

// Return all routes, oldest first.
func (s *SQLRouteRepository) List(ctx context.Context) (_ []*domain.Route, err error) {
	defer obs.Time(ctx, s.log, "routes.List")(&err)

	if s.DB == nil {
		return nil, errors.New("sql route repository: DB is nil")
	}

	rows, err := s.DB.QueryContext(ctx, routeSelect+` ORDER BY created_at, id;`)
	if err != nil {
		return nil, fmt.Errorf("list routes: query routes table: %w", err)
	}
	defer rows.Close()

	routes := make([]*domain.Route, 0, 16)
	for rows.Next() {
		r, err := scanRoute(rows)
		if err != nil {
			return nil, fmt.Errorf("list routes: scan row: %w", err)
		}
		routes = append(routes, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list routes: row iteration: %w", err)
	}

	if len(routes) == 0 {
		return routes, nil
	}

	byRoute, err := s.loadStops(ctx, "")
	if err != nil {
		return nil, fmt.Errorf("list routes: %w", err)
	}
	for _, r := range routes {
		if stops, ok := byRoute[r.ID]; ok {
			r.Stops = stops
		}
	}

	return routes, nil
}

// Remove the route and its stops. Missing routes report ports.ErrNotFound.
func (s *SQLRouteRepository) Delete(ctx context.Context, id uuid.UUID) (err error) {
	defer obs.Time(ctx, s.log, "routes.Delete")(&err)

	if s.DB == nil {
		return errors.New("sql route repository: DB is nil")
	}

	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("delete route %s: begin tx: %w", id, err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, s.Dialect.Rebind(`DELETE FROM stops WHERE route_id = ?;`), id.String()); err != nil {
		return fmt.Errorf("delete route %s: delete stops: %w", id, err)
	}

	res, err := tx.ExecContext(ctx, s.Dialect.Rebind(`DELETE FROM routes WHERE id = ?;`), id.String())
	if err != nil {
		return fmt.Errorf("delete route %s: delete route: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete route %s: rows affected: %w", id, err)
	}
	if n == 0 {
		return fmt.Errorf("delete route %s: %w", id, ports.ErrNotFound)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("delete route %s: commit tx: %w", id, err)
	}

	return nil
}

const routeSelect = `
	SELECT
		id,
		name,
		is_optimized,
		total_distance_meters,
		estimated_duration_seconds,
		start_lat,
		start_lon,
		created_at,
		updated_at
	FROM routes`

type scanner interface {
	Scan(dest ...any) error
}

func scanRoute(sc scanner) (*domain.Route, error) {
	var (
		id, name             string
		optimized            int
		dist, dur            float64
		startLat, startLon   sql.NullFloat64
		createdAt, updatedAt string
	)
	if err := sc.Scan(&id, &name, &optimized, &dist, &dur, &startLat, &startLon, &createdAt, &updatedAt); err != nil {
		return nil, err
	}

	r := &domain.Route{
		Name:                     name,
		Stops:                    []domain.Stop{},
		IsOptimized:              optimized != 0,
		TotalDistanceMeters:      dist,
		EstimatedDurationSeconds: dur,
	}

	var err error
	if r.ID, err = uuid.Parse(id); err != nil {
		return nil, fmt.Errorf("parse route id %q: %w", id, err)
	}
	if startLat.Valid && startLon.Valid {
		r.Start = &domain.Coordinates{Lat: startLat.Float64, Lon: startLon.Float64}
	}
	if r.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	if r.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, err
	}

	return r, nil
}

// Load stops grouped by route id, each group in position order.
func (s *SQLRouteRepository) loadStops(ctx context.Context, where string, args ...any) (map[uuid.UUID][]domain.Stop, error) {
	q := s.Dialect.Rebind(`
	SELECT
		route_id,
		id,
		address,
		lat,
		lon,
		notes,
		status,
		sequence_number,
		estimated_arrival,
		actual_arrival,
		completed_at,
		created_at,
		updated_at
	FROM stops ` + where + `
	ORDER BY route_id, position;
	`)

	rows, err := s.DB.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("query stops table: %w", err)
	}
	defer rows.Close()

	out := map[uuid.UUID][]domain.Stop{}
	for rows.Next() {
		var (
			routeID, id, address, notes, status string
			lat, lon                            float64
			seq                                 int
			eta, arrived, completed             sql.NullString
			createdAt, updatedAt                string
		)
		if err := rows.Scan(&routeID, &id, &address, &lat, &lon, &notes, &status, &seq,
			&eta, &arrived, &completed, &createdAt, &updatedAt); err != nil {
			return nil, fmt.Errorf("scan stop row: %w", err)
		}

		rid, err := uuid.Parse(routeID)
		if err != nil {
			return nil, fmt.Errorf("parse stop route id %q: %w", routeID, err)
		}
		st := domain.Stop{
			Address:        address,
			Location:       domain.Coordinates{Lat: lat, Lon: lon},
			Notes:          notes,
			SequenceNumber: seq,
		}
		if st.ID, err = uuid.Parse(id); err != nil {
			return nil, fmt.Errorf("parse stop id %q: %w", id, err)
		}
		if st.Status, err = domain.ParseDeliveryStatus(status); err != nil {
			return nil, err
		}
		if st.EstimatedArrival, err = parseTimePtr(eta); err != nil {
			return nil, err
		}
		if st.ActualArrival, err = parseTimePtr(arrived); err != nil {
			return nil, err
		}
		if st.CompletedAt, err = parseTimePtr(completed); err != nil {
			return nil, err
		}
		if st.CreatedAt, err = parseTime(createdAt); err != nil {
			return nil, err
		}
		if st.UpdatedAt, err = parseTime(updatedAt); err != nil {
			return nil, err
		}

		out[rid] = append(out[rid], st)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("stop row iteration: %w", err)
	}

	return out, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// Fixed-width fractional seconds keep the text columns sortable.
const timestampLayout = "2006-01-02T15:04:05.000000000Z07:00"

func formatTime(t time.Time) string {
	return t.UTC().Format(timestampLayout)
}

func formatTimePtr(t *time.Time) sql.NullString {
	if t == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: formatTime(*t), Valid: true}
}

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse timestamp %q: %w", s, err)
	}
	return t, nil
}

func parseTimePtr(ns sql.NullString) (*time.Time, error) {
	if !ns.Valid {
		return nil, nil
	}
	t, err := parseTime(ns.String)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
