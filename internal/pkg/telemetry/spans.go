package telemetry

// Span names used when tracing route operations.
const (
	SpanRouteCreate    = "routes.create"
	SpanRouteGet       = "routes.get"
	SpanRouteList      = "routes.list"
	SpanRouteUpdate    = "routes.update"
	SpanRouteDelete    = "routes.delete"
	SpanRouteReconcile = "routes.reconcile_distance"
	SpanEditorSave     = "editor.save"
	SpanEditorLoad     = "editor.load"
)

// Span attribute keys.
const (
	AttrRouteID    = "route.id"
	AttrPointCount = "route.points"
	AttrDistanceKm = "route.distance_km"
	AttrCacheHit   = "cache.hit"
)

// TracerName is the instrumentation scope for this service.
const TracerName = "github.com/samirrijal/wandelroutes"
