package usecases

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/mmcloughlin/geohash"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/samirrijal/wandelroutes/internal/core/domain"
	"github.com/samirrijal/wandelroutes/internal/core/geometry"
	"github.com/samirrijal/wandelroutes/internal/core/ports"
	"github.com/samirrijal/wandelroutes/internal/pkg/logging"
	"github.com/samirrijal/wandelroutes/internal/pkg/metrics"
	"github.com/samirrijal/wandelroutes/internal/pkg/telemetry"
)

const (
	// StartGeohashPrecision gives cells of roughly 150 m.
	StartGeohashPrecision = 7

	// DistanceToleranceKm is how far a stored distance may drift from its geometry.
	DistanceToleranceKm = 0.001

	routeCacheTTL = 600
	listCacheTTL  = 300
	listCacheKey  = "routes:list"
)

func routeCacheKey(id string) string { return "routes:id:" + id }

// RouteService handles route-related business logic.
type RouteService struct {
	routes    ports.RouteRepository
	cache     ports.CacheService
	publisher ports.EventPublisher
	validate  *validator.Validate
	tracer    trace.Tracer
	now       func() time.Time
}

// NewRouteService creates a new RouteService. cache and publisher may be nil.
func NewRouteService(routes ports.RouteRepository, cache ports.CacheService, publisher ports.EventPublisher) *RouteService {
	return &RouteService{
		routes:    routes,
		cache:     cache,
		publisher: publisher,
		validate:  validator.New(validator.WithRequiredStructEnabled()),
		tracer:    telemetry.Tracer(),
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// Create validates draft, encodes path and stores a new route.
func (s *RouteService) Create(ctx context.Context, draft domain.RouteDraft, path *domain.Path) (route *domain.Route, err error) {
	ctx, span := s.tracer.Start(ctx, telemetry.SpanRouteCreate)
	defer func() { endSpan(span, err) }()
	defer func() { metrics.RouteWrites.WithLabelValues("create", metrics.Outcome(err)).Inc() }()

	if err := s.validate.Struct(draft); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidRoute, err)
	}
	if path == nil || !path.Complete() {
		return nil, domain.ErrIncompletePath
	}

	route = &domain.Route{
		Name:        draft.Name,
		Description: draft.Description,
		Duration:    draft.Duration,
		Difficulty:  draft.Difficulty,
		Muddy:       draft.Muddy,
		Gehuchten:   domain.NonNil(draft.Gehuchten),
		Highlights:  domain.NonNil(draft.Highlights),
	}
	if err := setGeometry(route, path); err != nil {
		return nil, err
	}
	route.CreatedAt = s.now()
	route.UpdatedAt = route.CreatedAt

	id, err := s.routes.Create(ctx, route)
	if err != nil {
		return nil, fmt.Errorf("create route: %w", err)
	}
	route.ID = id
	span.SetAttributes(
		attribute.String(telemetry.AttrRouteID, id),
		attribute.Int(telemetry.AttrPointCount, path.Len()),
		attribute.Float64(telemetry.AttrDistanceKm, route.DistanceKm),
	)
	metrics.RouteDistanceKm.Observe(route.DistanceKm)

	s.Invalidate(ctx, id)
	s.publish(ctx, domain.RouteSaved, route)
	return route, nil
}

// GetByID returns a route. The returned distance is recomputed from the geometry.
func (s *RouteService) GetByID(ctx context.Context, id string) (route *domain.Route, err error) {
	ctx, span := s.tracer.Start(ctx, telemetry.SpanRouteGet, trace.WithAttributes(attribute.String(telemetry.AttrRouteID, id)))
	defer func() { endSpan(span, err) }()

	cacheKey := routeCacheKey(id)
	if s.cache != nil {
		if data, err := s.cache.Get(ctx, cacheKey); err == nil {
			var cached domain.Route
			if err := json.Unmarshal(data, &cached); err == nil {
				metrics.CacheHits.WithLabelValues("route").Inc()
				span.SetAttributes(attribute.Bool(telemetry.AttrCacheHit, true))
				return &cached, nil
			}
		}
		metrics.CacheMisses.WithLabelValues("route").Inc()
	}

	route, err = s.routes.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	s.refreshDistance(ctx, route)

	if s.cache != nil {
		if data, err := json.Marshal(route); err == nil {
			_ = s.cache.Set(ctx, cacheKey, data, routeCacheTTL)
		}
	}
	return route, nil
}

// LoadPath returns a route together with its decoded path.
// A route whose geometry cannot be decoded fails with ErrMalformedGeometry.
func (s *RouteService) LoadPath(ctx context.Context, id string) (*domain.Route, *domain.Path, error) {
	route, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	path, err := geometry.Decode(route.Geometry)
	if err != nil {
		metrics.GeometryDecodeErrors.WithLabelValues("stored").Inc()
		return nil, nil, fmt.Errorf("route %s: %w", id, err)
	}
	return route, path, nil
}

// List returns every route, newest first as stored by the repository.
func (s *RouteService) List(ctx context.Context) (routes []domain.Route, err error) {
	ctx, span := s.tracer.Start(ctx, telemetry.SpanRouteList)
	defer func() { endSpan(span, err) }()

	if s.cache != nil {
		if data, err := s.cache.Get(ctx, listCacheKey); err == nil {
			var cached []domain.Route
			if err := json.Unmarshal(data, &cached); err == nil {
				metrics.CacheHits.WithLabelValues("list").Inc()
				return cached, nil
			}
		}
		metrics.CacheMisses.WithLabelValues("list").Inc()
	}

	routes, err = s.routes.List(ctx)
	if err != nil {
		return nil, err
	}
	for i := range routes {
		s.refreshDistance(ctx, &routes[i])
	}

	if s.cache != nil {
		if data, err := json.Marshal(routes); err == nil {
			_ = s.cache.Set(ctx, listCacheKey, data, listCacheTTL)
		}
	}
	return routes, nil
}

// ListNear returns the routes starting in the geohash cell prefix or one of its neighbours.
func (s *RouteService) ListNear(ctx context.Context, prefix string) ([]domain.Route, error) {
	prefix = strings.ToLower(strings.TrimSpace(prefix))
	if prefix == "" || len(prefix) > 12 {
		return nil, fmt.Errorf("%w: %q", domain.ErrInvalidGeohash, prefix)
	}
	if err := geohash.Validate(prefix); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidGeohash, err)
	}

	cells := append([]string{prefix}, geohash.Neighbors(prefix)...)

	all, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	near := make([]domain.Route, 0)
	for _, r := range all {
		for _, cell := range cells {
			if strings.HasPrefix(r.StartGeohash, cell) {
				near = append(near, r)
				break
			}
		}
	}
	return near, nil
}

// Update applies patch to route id. A patch carrying a path replaces the geometry.
func (s *RouteService) Update(ctx context.Context, id string, patch domain.RoutePatch) (route *domain.Route, err error) {
	ctx, span := s.tracer.Start(ctx, telemetry.SpanRouteUpdate, trace.WithAttributes(attribute.String(telemetry.AttrRouteID, id)))
	defer func() { endSpan(span, err) }()
	defer func() { metrics.RouteWrites.WithLabelValues("update", metrics.Outcome(err)).Inc() }()

	if err := s.validate.Struct(patch); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidRoute, err)
	}
	if patch.Path != nil && !patch.Path.Complete() {
		return nil, domain.ErrIncompletePath
	}

	route, err = s.routes.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	patch.Apply(route)
	if patch.Path != nil {
		if err := setGeometry(route, patch.Path); err != nil {
			return nil, err
		}
		metrics.RouteDistanceKm.Observe(route.DistanceKm)
	}
	route.UpdatedAt = s.now()

	if err := s.routes.Update(ctx, route); err != nil {
		return nil, fmt.Errorf("update route %s: %w", id, err)
	}

	s.Invalidate(ctx, id)
	s.publish(ctx, domain.RouteSaved, route)
	return route, nil
}

// Delete removes route id.
func (s *RouteService) Delete(ctx context.Context, id string) (err error) {
	ctx, span := s.tracer.Start(ctx, telemetry.SpanRouteDelete, trace.WithAttributes(attribute.String(telemetry.AttrRouteID, id)))
	defer func() { endSpan(span, err) }()
	defer func() { metrics.RouteWrites.WithLabelValues("delete", metrics.Outcome(err)).Inc() }()

	if err := s.routes.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete route %s: %w", id, err)
	}
	s.Invalidate(ctx, id)
	s.publish(ctx, domain.RouteDeleted, &domain.Route{ID: id})
	return nil
}

// Reconciliation reports what ReconcileDistance found for one route.
type Reconciliation struct {
	RouteID    string  `json:"route_id"`
	StoredKm   float64 `json:"stored_km"`
	ComputedKm float64 `json:"computed_km"`
	Rewritten  bool    `json:"rewritten"`
}

// ReconcileDistance rewrites the stored distance of route id when it drifted
// from the distance of its geometry.
func (s *RouteService) ReconcileDistance(ctx context.Context, id string) (rec Reconciliation, err error) {
	ctx, span := s.tracer.Start(ctx, telemetry.SpanRouteReconcile, trace.WithAttributes(attribute.String(telemetry.AttrRouteID, id)))
	defer func() { endSpan(span, err) }()

	route, err := s.routes.GetByID(ctx, id)
	if err != nil {
		return rec, err
	}
	path, err := geometry.Decode(route.Geometry)
	if err != nil {
		metrics.GeometryDecodeErrors.WithLabelValues("stored").Inc()
		return rec, fmt.Errorf("route %s: %w", id, err)
	}

	rec = Reconciliation{RouteID: id, StoredKm: route.DistanceKm, ComputedKm: path.DistanceKm()}
	if math.Abs(rec.StoredKm-rec.ComputedKm) <= DistanceToleranceKm {
		return rec, nil
	}

	route.DistanceKm = rec.ComputedKm
	route.UpdatedAt = s.now()
	if err := s.routes.Update(ctx, route); err != nil {
		return rec, fmt.Errorf("reconcile route %s: %w", id, err)
	}
	rec.Rewritten = true
	metrics.DistanceReconciled.Inc()
	logging.FromContext(ctx).Info("route distance reconciled",
		"route_id", id, "stored_km", rec.StoredKm, "computed_km", rec.ComputedKm)

	s.Invalidate(ctx, id)
	return rec, nil
}

// Invalidate drops the cached copies of route id and of the route list.
func (s *RouteService) Invalidate(ctx context.Context, id string) {
	if s.cache == nil {
		return
	}
	if id != "" {
		_ = s.cache.Delete(ctx, routeCacheKey(id))
	}
	_ = s.cache.Delete(ctx, listCacheKey)
}

// refreshDistance replaces the stored distance with the one of the geometry,
// the same rule ReconcileDistance writes back. Undecodable geometry keeps the
// stored value.
func (s *RouteService) refreshDistance(ctx context.Context, route *domain.Route) {
	path, err := geometry.Decode(route.Geometry)
	if err != nil {
		metrics.GeometryDecodeErrors.WithLabelValues("stored").Inc()
		logging.FromContext(ctx).Warn("stored geometry does not decode",
			"route_id", route.ID, "error", err)
		return
	}
	route.DistanceKm = path.DistanceKm()
}

func (s *RouteService) publish(ctx context.Context, kind domain.RouteEventKind, route *domain.Route) {
	if s.publisher == nil {
		return
	}
	ev := &domain.RouteEvent{Kind: kind, RouteID: route.ID, DistanceKm: route.DistanceKm, At: s.now()}
	if err := s.publisher.PublishRouteEvent(ctx, ev); err != nil {
		logging.FromContext(ctx).Warn("publish route event failed",
			"route_id", route.ID, "kind", kind, "error", err)
	}
}

// setGeometry stores the canonical encoding of path on route with its distance and start cell.
func setGeometry(route *domain.Route, path *domain.Path) error {
	raw, err := geometry.Encode(path)
	if err != nil {
		return err
	}
	route.Geometry = raw
	route.DistanceKm = path.DistanceKm()
	route.StartGeohash = ""
	if start, err := path.At(0); err == nil {
		route.StartGeohash = geohash.EncodeWithPrecision(start.Lat, start.Lon, StartGeohashPrecision)
	}
	return nil
}

func endSpan(span trace.Span, err error) {
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}
