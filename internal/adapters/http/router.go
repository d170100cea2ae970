package http

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/gofiber/fiber/v2/middleware/timeout"
	"github.com/gofiber/websocket/v2"

	"github.com/samirrijal/wandelroutes/internal/pkg/metrics"
)

// coordinatesSunset is when the legacy pairs endpoint goes away.
var coordinatesSunset = time.Date(2027, time.June, 30, 0, 0, 0, 0, time.UTC)

// SetupRoutes registers all REST, GraphQL, and WebSocket routes.
func SetupRoutes(app *fiber.App, deps *Dependencies) {
	// Prometheus metrics
	app.Use(metrics.Middleware())
	app.Get("/metrics", metrics.Handler())

	// Response compression (gzip)
	app.Use(compress.New(compress.Config{
		Level: compress.LevelBestSpeed, // Balance speed vs compression ratio
	}))

	// Request ID
	app.Use(requestid.New())

	// Propagate request ID into slog context
	app.Use(RequestIDLogMiddleware())

	// Access logs (structured HTTP request logging)
	app.Use(AccessLogMiddleware())

	// Rate limiting: 120 requests per minute per IP
	app.Use(limiter.New(limiter.Config{
		Max:        120,
		Expiration: 1 * time.Minute,
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		Next: func(c *fiber.Ctx) bool {
			return websocket.IsWebSocketUpgrade(c)
		},
		LimitReached: func(c *fiber.Ctx) error {
			return newError(c, 429, "rate_limited", "too many requests, please try again later")
		},
	}))

	// Security headers + API version
	app.Use(func(c *fiber.Ctx) error {
		c.Set("X-Content-Type-Options", "nosniff")
		c.Set("X-Frame-Options", "DENY")
		c.Set("Referrer-Policy", "strict-origin-when-cross-origin")
		c.Set("X-API-Version", "1.0.0")
		return c.Next()
	})

	// Operator or read-only session for every request
	app.Use(SessionMiddleware(deps.OperatorToken))

	// ETag for conditional caching
	app.Use(ETagMiddleware())

	// Default Cache-Control headers
	app.Use(CachingMiddleware())

	app.Use(DeprecationMiddleware([]DeprecatedRoute{
		{Path: "/v1/routes/:id/coordinates", SunsetDate: coordinatesSunset, Alternative: "/v1/routes/:id/geometry"},
	}))

	// Health & readiness, no timeout
	app.Get("/v1/health", HealthHandler(deps))
	app.Get("/v1/ready", ReadyHandler(deps))

	// REST API v1, 15s per-request timeout
	v1 := app.Group("/v1")
	v1.Get("/routes", timeout.NewWithContext(ListRoutesHandler(deps), 15*time.Second))
	v1.Get("/routes/:id", timeout.NewWithContext(GetRouteHandler(deps), 15*time.Second))
	v1.Get("/routes/:id/geometry", timeout.NewWithContext(GetRouteGeometryHandler(deps), 15*time.Second))
	v1.Get("/routes/:id/coordinates", timeout.NewWithContext(GetRouteCoordinatesHandler(deps), 15*time.Second))
	v1.Post("/geometry/measure", timeout.NewWithContext(MeasureHandler(deps), 5*time.Second))

	// Writes need an operator session
	v1.Post("/routes", RequireOperator(), timeout.NewWithContext(CreateRouteHandler(deps), 15*time.Second))
	v1.Patch("/routes/:id", RequireOperator(), timeout.NewWithContext(UpdateRouteHandler(deps), 15*time.Second))
	v1.Delete("/routes/:id", RequireOperator(), timeout.NewWithContext(DeleteRouteHandler(deps), 15*time.Second))

	// GraphQL
	app.Post("/graphql", GraphQLHandler(deps))

	// API documentation (Swagger UI)
	SetupDocs(app)

	// WebSocket
	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	app.Get("/ws/editor", websocket.New(EditorSocketHandler(deps)))
	app.Get("/ws/routes/:id", websocket.New(RouteViewerHandler(deps.NATS)))
}
