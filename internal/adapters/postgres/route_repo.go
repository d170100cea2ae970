package postgres

import (
	"context"
	"encoding/json"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/samirrijal/wandelroutes/internal/core/domain"
)

// RouteRepo implements ports.RouteRepository with pgx.
//
// The canonical GeoJSON is kept verbatim in a jsonb column. When it is a
// LineString, PostGIS derives a geography column from it for spatial queries.
type RouteRepo struct {
	db *DB
}

// NewRouteRepo creates a new RouteRepo.
func NewRouteRepo(db *DB) *RouteRepo { return &RouteRepo{db: db} }

const routeColumns = `
	id, name, description, distance_km, duration, difficulty, muddy,
	gehuchten, highlights, COALESCE(geometry, 'null'::jsonb), COALESCE(start_geohash, ''),
	created_at, updated_at`

// Create inserts a route and returns its generated UUID.
func (r *RouteRepo) Create(ctx context.Context, route *domain.Route) (string, error) {
	var id string
	err := r.db.Pool.QueryRow(ctx, `
		INSERT INTO routes (name, description, distance_km, duration, difficulty, muddy,
		                    gehuchten, highlights, geometry, path, start_geohash, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9::jsonb,
		        CASE WHEN $9::jsonb->>'type' = 'LineString'
		             THEN ST_GeomFromGeoJSON($10::text)::geography END,
		        NULLIF($11, ''), $12, $13)
		RETURNING id
	`, route.Name, route.Description, route.DistanceKm, route.Duration, string(route.Difficulty),
		route.Muddy, domain.NonNil(route.Gehuchten), domain.NonNil(route.Highlights),
		geometryText(route.Geometry), geometryText(route.Geometry), route.StartGeohash, timestamp(route.CreatedAt), timestamp(route.UpdatedAt),
	).Scan(&id)
	if err != nil {
		return "", mapErr("insert route", err)
	}
	return id, nil
}

// GetByID returns a route by UUID.
func (r *RouteRepo) GetByID(ctx context.Context, id string) (*domain.Route, error) {
	row := r.db.Pool.QueryRow(ctx, `SELECT `+routeColumns+` FROM routes WHERE id = $1`, id)
	route, err := scanRoute(row)
	if err != nil {
		return nil, mapErr("get route", err)
	}
	return route, nil
}

// List returns all routes, most recently updated first.
func (r *RouteRepo) List(ctx context.Context) ([]domain.Route, error) {
	rows, err := r.db.Pool.Query(ctx, `SELECT `+routeColumns+` FROM routes ORDER BY updated_at DESC, name`)
	if err != nil {
		return nil, mapErr("list routes", err)
	}
	defer rows.Close()

	routes := make([]domain.Route, 0)
	for rows.Next() {
		route, err := scanRoute(rows)
		if err != nil {
			return nil, mapErr("scan route", err)
		}
		routes = append(routes, *route)
	}
	if err := rows.Err(); err != nil {
		return nil, mapErr("list routes", err)
	}
	return routes, nil
}

// Update overwrites every stored field of route.ID.
func (r *RouteRepo) Update(ctx context.Context, route *domain.Route) error {
	tag, err := r.db.Pool.Exec(ctx, `
		UPDATE routes
		SET name = $2, description = $3, distance_km = $4, duration = $5, difficulty = $6,
		    muddy = $7, gehuchten = $8, highlights = $9, geometry = $10::jsonb,
		    path = CASE WHEN $10::jsonb->>'type' = 'LineString'
		                THEN ST_GeomFromGeoJSON($11::text)::geography END,
		    start_geohash = NULLIF($12, ''), updated_at = $13
		WHERE id = $1
	`, route.ID, route.Name, route.Description, route.DistanceKm, route.Duration,
		string(route.Difficulty), route.Muddy, domain.NonNil(route.Gehuchten), domain.NonNil(route.Highlights),
		geometryText(route.Geometry), geometryText(route.Geometry), route.StartGeohash, timestamp(route.UpdatedAt))
	if err != nil {
		return mapErr("update route", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// Delete removes a route.
func (r *RouteRepo) Delete(ctx context.Context, id string) error {
	tag, err := r.db.Pool.Exec(ctx, `DELETE FROM routes WHERE id = $1`, id)
	if err != nil {
		return mapErr("delete route", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func scanRoute(row pgx.Row) (*domain.Route, error) {
	var (
		rt         domain.Route
		difficulty string
		geom       []byte
	)
	err := row.Scan(
		&rt.ID, &rt.Name, &rt.Description, &rt.DistanceKm, &rt.Duration, &difficulty, &rt.Muddy,
		&rt.Gehuchten, &rt.Highlights, &geom, &rt.StartGeohash,
		&rt.CreatedAt, &rt.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	rt.Difficulty = domain.Difficulty(difficulty)
	rt.Geometry = json.RawMessage(geom)
	rt.Gehuchten = domain.NonNil(rt.Gehuchten)
	rt.Highlights = domain.NonNil(rt.Highlights)
	return &rt, nil
}

func geometryText(raw json.RawMessage) string {
	if len(raw) == 0 {
		return "null"
	}
	return string(raw)
}

func timestamp(t time.Time) time.Time {
	if t.IsZero() {
		return time.Now().UTC()
	}
	return t
}
