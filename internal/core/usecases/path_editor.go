package usecases

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/samirrijal/wandelroutes/internal/core/domain"
	"github.com/samirrijal/wandelroutes/internal/core/geometry"
	"github.com/samirrijal/wandelroutes/internal/core/ports"
	"github.com/samirrijal/wandelroutes/internal/core/viewsync"
	"github.com/samirrijal/wandelroutes/internal/pkg/logging"
	"github.com/samirrijal/wandelroutes/internal/pkg/metrics"
	"github.com/samirrijal/wandelroutes/internal/pkg/telemetry"
)

// PathEditor turns map interactions of one authoring session into path edits.
//
// Edits are serialised by a mutex. Save may run concurrently with edits; it
// persists a copy of the path taken when it starts, and only one save can be
// in flight at a time. Observers are called one at a time, each with a
// snapshot taken after every earlier notification, so the last one they see
// always matches the editor.
type PathEditor struct {
	routes    *RouteService
	session   domain.Session
	observers []ports.PathObserver
	tracer    trace.Tracer

	notifyMu sync.Mutex

	mu      sync.Mutex
	path    *domain.Path
	routeID string
	size    viewsync.MapSize

	saving atomic.Bool
}

// NewPathEditor creates an editor with an empty path.
func NewPathEditor(routes *RouteService, session domain.Session, observers ...ports.PathObserver) *PathEditor {
	return &PathEditor{
		routes:    routes,
		session:   session,
		observers: observers,
		tracer:    telemetry.Tracer(),
		path:      &domain.Path{},
		size:      viewsync.DefaultMapSize,
	}
}

// SetMapSize sets the pixel size the viewport is fitted to.
func (e *PathEditor) SetMapSize(size viewsync.MapSize) {
	e.mu.Lock()
	e.size = size
	e.mu.Unlock()
}

// RouteID returns the ID of the route being edited, or "" for a new route.
func (e *PathEditor) RouteID() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.routeID
}

// Snapshot returns the current state without notifying observers.
func (e *PathEditor) Snapshot() domain.PathSnapshot {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.snapshotLocked()
}

// OnMapClick appends pt to the path.
func (e *PathEditor) OnMapClick(pt domain.GeoPoint) (domain.PathSnapshot, error) {
	return e.edit(func(p *domain.Path) error {
		_, err := p.Append(pt)
		return err
	})
}

// OnPointInserted inserts pt before index i.
func (e *PathEditor) OnPointInserted(i int, pt domain.GeoPoint) (domain.PathSnapshot, error) {
	return e.edit(func(p *domain.Path) error {
		_, err := p.InsertAt(i, pt)
		return err
	})
}

// OnPointMoved moves the point at index i to pt.
func (e *PathEditor) OnPointMoved(i int, pt domain.GeoPoint) (domain.PathSnapshot, error) {
	return e.edit(func(p *domain.Path) error {
		_, err := p.MoveAt(i, pt)
		return err
	})
}

// OnPointRemoved deletes the point at index i.
func (e *PathEditor) OnPointRemoved(i int) (domain.PathSnapshot, error) {
	return e.edit(func(p *domain.Path) error {
		_, err := p.RemoveAt(i)
		return err
	})
}

// OnLayerCreated replaces the path with a drawn shape.
func (e *PathEditor) OnLayerCreated(geom json.RawMessage) (domain.PathSnapshot, error) {
	return e.replaceFrom(geom)
}

// OnLayerEdited replaces the path with the edited shape.
func (e *PathEditor) OnLayerEdited(geom json.RawMessage) (domain.PathSnapshot, error) {
	return e.replaceFrom(geom)
}

// OnLayerDeleted clears the path.
func (e *PathEditor) OnLayerDeleted() (domain.PathSnapshot, error) {
	return e.edit(func(p *domain.Path) error {
		p.Clear()
		return nil
	})
}

// Apply dispatches a map event to the matching handler.
func (e *PathEditor) Apply(ev domain.MapEvent) (snap domain.PathSnapshot, err error) {
	defer func() {
		kind := string(ev.Kind)
		if errors.Is(err, domain.ErrUnknownEvent) {
			kind = "unknown" // client-chosen strings must not become label values
		}
		metrics.EditorEvents.WithLabelValues(kind, metrics.Outcome(err)).Inc()
	}()

	switch ev.Kind {
	case domain.PointAdded:
		if ev.Point == nil {
			return e.Snapshot(), missingPoint(ev.Kind)
		}
		return e.OnMapClick(*ev.Point)
	case domain.PointInserted:
		if ev.Point == nil {
			return e.Snapshot(), missingPoint(ev.Kind)
		}
		return e.OnPointInserted(ev.Index, *ev.Point)
	case domain.PointMoved:
		if ev.Point == nil {
			return e.Snapshot(), missingPoint(ev.Kind)
		}
		return e.OnPointMoved(ev.Index, *ev.Point)
	case domain.PointRemoved:
		return e.OnPointRemoved(ev.Index)
	case domain.ShapeCreated:
		return e.OnLayerCreated(ev.Geometry)
	case domain.ShapeEdited:
		return e.OnLayerEdited(ev.Geometry)
	case domain.ShapeDeleted:
		return e.OnLayerDeleted()
	default:
		return e.Snapshot(), fmt.Errorf("%w: %q", domain.ErrUnknownEvent, ev.Kind)
	}
}

// Load replaces the path with the stored geometry of route id and switches
// the editor to updating that route. On failure the current path is kept.
func (e *PathEditor) Load(ctx context.Context, id string) (domain.PathSnapshot, error) {
	ctx, span := e.tracer.Start(ctx, telemetry.SpanEditorLoad, trace.WithAttributes(attribute.String(telemetry.AttrRouteID, id)))
	defer span.End()

	_, path, err := e.routes.LoadPath(ctx, id)
	if err != nil {
		span.RecordError(err)
		return e.Snapshot(), err
	}

	e.mu.Lock()
	e.path = path
	e.routeID = id
	snap := e.snapshotLocked()
	e.mu.Unlock()

	e.publish()
	return snap, nil
}

// Save persists the current path with the metadata in draft. The first save of
// a new route creates it; later saves update it.
func (e *PathEditor) Save(ctx context.Context, draft domain.RouteDraft) (route *domain.Route, err error) {
	if !e.session.CanEdit() {
		return nil, domain.ErrReadOnly
	}

	e.mu.Lock()
	path := e.path.Clone()
	id := e.routeID
	e.mu.Unlock()

	if !path.Complete() {
		return nil, domain.ErrIncompletePath
	}
	if !e.saving.CompareAndSwap(false, true) {
		return nil, domain.ErrSaveInProgress
	}

	ctx, span := e.tracer.Start(ctx, telemetry.SpanEditorSave, trace.WithAttributes(
		attribute.String(telemetry.AttrRouteID, id),
		attribute.Int(telemetry.AttrPointCount, path.Len()),
	))
	defer span.End()

	e.publish()
	defer func() {
		e.saving.Store(false)
		e.publish()
	}()

	if id == "" {
		route, err = e.routes.Create(ctx, draft, path)
	} else {
		route, err = e.routes.Update(ctx, id, draft.Patch(path))
	}
	if err != nil {
		span.RecordError(err)
		logging.FromContext(ctx).Warn("route save failed", "route_id", id, "error", err)
		return nil, err
	}

	e.mu.Lock()
	if e.routeID == "" {
		e.routeID = route.ID
	}
	e.mu.Unlock()
	return route, nil
}

func (e *PathEditor) edit(op func(p *domain.Path) error) (domain.PathSnapshot, error) {
	if !e.session.CanEdit() {
		return e.Snapshot(), domain.ErrReadOnly
	}

	e.mu.Lock()
	if err := op(e.path); err != nil {
		snap := e.snapshotLocked()
		e.mu.Unlock()
		return snap, err
	}
	snap := e.snapshotLocked()
	e.mu.Unlock()

	e.publish()
	return snap, nil
}

func (e *PathEditor) replaceFrom(geom json.RawMessage) (domain.PathSnapshot, error) {
	if !e.session.CanEdit() {
		return e.Snapshot(), domain.ErrReadOnly
	}
	drawn, err := geometry.Decode(geom)
	if err != nil {
		metrics.GeometryDecodeErrors.WithLabelValues("editor").Inc()
		return e.Snapshot(), err
	}
	return e.edit(func(p *domain.Path) error {
		_, err := p.Replace(drawn.Points())
		return err
	})
}

func (e *PathEditor) snapshotLocked() domain.PathSnapshot {
	points := e.path.Points()
	return domain.PathSnapshot{
		RouteID:    e.routeID,
		Points:     points,
		DistanceKm: e.path.DistanceKm(),
		Complete:   e.path.Complete(),
		Saving:     e.saving.Load(),
		Viewport:   viewsync.DeriveFor(points, e.size),
	}
}

// publish sends observers the state as of now. The snapshot is taken under
// notifyMu so a slow delivery can never land after a newer one.
func (e *PathEditor) publish() {
	if len(e.observers) == 0 {
		return
	}
	e.notifyMu.Lock()
	defer e.notifyMu.Unlock()
	snap := e.Snapshot()
	for _, o := range e.observers {
		o.OnPathChanged(snap)
	}
}

func missingPoint(kind domain.MapEventKind) error {
	return fmt.Errorf("%w: %s event without a point", domain.ErrInvalidPoint, kind)
}
