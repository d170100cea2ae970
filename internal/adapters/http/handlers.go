package http

import (
	"encoding/json"
	"fmt"

	"github.com/gofiber/fiber/v2"

	"github.com/samirrijal/wandelroutes/internal/core/domain"
	"github.com/samirrijal/wandelroutes/internal/core/geometry"
	"github.com/samirrijal/wandelroutes/internal/core/viewsync"
	"github.com/samirrijal/wandelroutes/internal/pkg/metrics"
)

// routeRequest is the body of POST /v1/routes.
type routeRequest struct {
	domain.RouteDraft
	Geometry json.RawMessage `json:"geometry"`
}

// patchRequest is the body of PATCH /v1/routes/:id. A geometry replaces the path.
type patchRequest struct {
	domain.RoutePatch
	Geometry json.RawMessage `json:"geometry,omitempty"`
}

// measureRequest is the body of POST /v1/geometry/measure.
type measureRequest struct {
	Geometry json.RawMessage `json:"geometry"`
	Width    int             `json:"width,omitempty"`
	Height   int             `json:"height,omitempty"`
}

// RouteDetail is a route with its decoded points and the viewport that frames them.
type RouteDetail struct {
	*domain.Route
	Points   []domain.GeoPoint `json:"points"`
	Viewport domain.Viewport   `json:"viewport"`
}

// Measurement describes a geometry without storing it.
type Measurement struct {
	Format     string            `json:"format"`
	Points     []domain.GeoPoint `json:"points"`
	DistanceKm float64           `json:"distance_km"`
	Complete   bool              `json:"complete"`
	Viewport   domain.Viewport   `json:"viewport"`
}

// ListRoutesHandler returns all routes, optionally those starting near a geohash cell.
func ListRoutesHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var (
			routes []domain.Route
			err    error
		)
		if near := c.Query("near"); near != "" {
			routes, err = deps.Routes.ListNear(c.UserContext(), near)
		} else {
			routes, err = deps.Routes.List(c.UserContext())
		}
		if err != nil {
			return writeDomainError(c, err)
		}

		// Apply offset/limit pagination on the full list
		offset := c.QueryInt("offset", 0)
		limit := c.QueryInt("limit", 50)
		if offset < 0 {
			offset = 0
		}
		if limit <= 0 || limit > 200 {
			limit = 50
		}

		total := len(routes)
		if offset >= total {
			routes = []domain.Route{}
		} else {
			end := offset + limit
			if end > total {
				end = total
			}
			routes = routes[offset:end]
		}

		pg := Pagination{Offset: offset, Limit: limit, Total: total}
		SetLinkHeaders(c, pg)
		return c.JSON(PaginatedResponse{Data: routes, Pagination: pg})
	}
}

// GetRouteHandler returns a route with its points and viewport.
func GetRouteHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		route, path, err := deps.Routes.LoadPath(c.UserContext(), c.Params("id"))
		if err != nil {
			return writeDomainError(c, err)
		}

		points := path.Points()
		return c.JSON(RouteDetail{
			Route:    route,
			Points:   points,
			Viewport: viewsync.DeriveFor(points, mapSize(c, deps.MapSize)),
		})
	}
}

// GetRouteGeometryHandler returns the route geometry as a GeoJSON LineString,
// whichever shape it is stored in.
func GetRouteGeometryHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		_, path, err := deps.Routes.LoadPath(c.UserContext(), c.Params("id"))
		if err != nil {
			return writeDomainError(c, err)
		}
		raw, err := geometry.Encode(path)
		if err != nil {
			return errInternal(c, err.Error())
		}
		c.Set(fiber.HeaderContentType, "application/geo+json")
		return c.Send(raw)
	}
}

// GetRouteCoordinatesHandler returns the legacy [[lat, lng], ...] form.
func GetRouteCoordinatesHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		_, path, err := deps.Routes.LoadPath(c.UserContext(), c.Params("id"))
		if err != nil {
			return writeDomainError(c, err)
		}
		raw, err := geometry.EncodePairs(path)
		if err != nil {
			return errInternal(c, err.Error())
		}
		c.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
		return c.Send(raw)
	}
}

// CreateRouteHandler stores a new route.
func CreateRouteHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req routeRequest
		if err := c.BodyParser(&req); err != nil {
			return errBadRequest(c, "invalid request body")
		}
		path, err := geometry.Decode(req.Geometry)
		if err != nil {
			metrics.GeometryDecodeErrors.WithLabelValues("request").Inc()
			return writeDomainError(c, err)
		}

		route, err := deps.Routes.Create(c.UserContext(), req.RouteDraft, path)
		if err != nil {
			return writeDomainError(c, err)
		}

		c.Location(fmt.Sprintf("/v1/routes/%s", route.ID))
		return c.Status(fiber.StatusCreated).JSON(route)
	}
}

// UpdateRouteHandler applies a partial update to a route.
func UpdateRouteHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req patchRequest
		if err := c.BodyParser(&req); err != nil {
			return errBadRequest(c, "invalid request body")
		}
		if len(req.Geometry) > 0 {
			path, err := geometry.Decode(req.Geometry)
			if err != nil {
				metrics.GeometryDecodeErrors.WithLabelValues("request").Inc()
				return writeDomainError(c, err)
			}
			req.RoutePatch.Path = path
		}

		route, err := deps.Routes.Update(c.UserContext(), c.Params("id"), req.RoutePatch)
		if err != nil {
			return writeDomainError(c, err)
		}
		return c.JSON(route)
	}
}

// DeleteRouteHandler removes a route.
func DeleteRouteHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if err := deps.Routes.Delete(c.UserContext(), c.Params("id")); err != nil {
			return writeDomainError(c, err)
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}

// MeasureHandler reports distance and viewport for a geometry in either stored shape.
func MeasureHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req measureRequest
		if err := c.BodyParser(&req); err != nil {
			return errBadRequest(c, "invalid request body")
		}
		format, err := geometry.Detect(req.Geometry)
		if err != nil {
			return writeDomainError(c, err)
		}
		path, err := geometry.Decode(req.Geometry)
		if err != nil {
			metrics.GeometryDecodeErrors.WithLabelValues("request").Inc()
			return writeDomainError(c, err)
		}

		size := deps.MapSize
		if req.Width > 0 && req.Height > 0 {
			size = viewsync.MapSize{Width: req.Width, Height: req.Height}
		}
		points := path.Points()
		c.Set("Cache-Control", "no-store")
		return c.JSON(Measurement{
			Format:     format.String(),
			Points:     points,
			DistanceKm: path.DistanceKm(),
			Complete:   path.Complete(),
			Viewport:   viewsync.DeriveFor(points, size),
		})
	}
}

// mapSize reads ?w= and ?h= and falls back to def.
func mapSize(c *fiber.Ctx, def viewsync.MapSize) viewsync.MapSize {
	w, h := c.QueryInt("w", 0), c.QueryInt("h", 0)
	if w <= 0 || h <= 0 || w > 10000 || h > 10000 {
		return def
	}
	return viewsync.MapSize{Width: w, Height: h}
}
