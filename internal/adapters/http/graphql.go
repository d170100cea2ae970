package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/graphql-go/graphql"

	"github.com/samirrijal/wandelroutes/internal/core/domain"
	"github.com/samirrijal/wandelroutes/internal/core/geometry"
	"github.com/samirrijal/wandelroutes/internal/core/viewsync"
)

// buildSchema creates the read-only GraphQL schema over the route service.
func buildSchema(deps *Dependencies) (graphql.Schema, error) {
	geoPointType := graphql.NewObject(graphql.ObjectConfig{
		Name: "GeoPoint",
		Fields: graphql.Fields{
			"lat": &graphql.Field{Type: graphql.Float},
			"lon": &graphql.Field{Type: graphql.Float},
		},
	})

	viewportType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Viewport",
		Fields: graphql.Fields{
			"center": &graphql.Field{Type: geoPointType},
			"zoom":   &graphql.Field{Type: graphql.Int},
		},
	})

	routeType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Route",
		Fields: graphql.Fields{
			"id":            &graphql.Field{Type: graphql.String},
			"name":          &graphql.Field{Type: graphql.String},
			"description":   &graphql.Field{Type: graphql.String},
			"distance_km":   &graphql.Field{Type: graphql.Float},
			"duration":      &graphql.Field{Type: graphql.String},
			"muddy":         &graphql.Field{Type: graphql.Boolean},
			"gehuchten":     &graphql.Field{Type: graphql.NewList(graphql.String)},
			"highlights":    &graphql.Field{Type: graphql.NewList(graphql.String)},
			"start_geohash": &graphql.Field{Type: graphql.String},
			"difficulty": &graphql.Field{
				Type: graphql.String,
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return string(p.Source.(domain.Route).Difficulty), nil
				},
			},
			"geometry": &graphql.Field{
				Type:        graphql.String,
				Description: "GeoJSON LineString, [lng, lat] positions",
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					path, err := geometry.Decode(p.Source.(domain.Route).Geometry)
					if err != nil {
						return nil, err
					}
					raw, err := geometry.Encode(path)
					return string(raw), err
				},
			},
			"points": &graphql.Field{
				Type: graphql.NewList(geoPointType),
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					path, err := geometry.Decode(p.Source.(domain.Route).Geometry)
					if err != nil {
						return nil, err
					}
					return path.Points(), nil
				},
			},
			"viewport": &graphql.Field{
				Type: viewportType,
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					path, err := geometry.Decode(p.Source.(domain.Route).Geometry)
					if err != nil {
						return nil, err
					}
					return viewsync.DeriveFor(path.Points(), deps.MapSize), nil
				},
			},
		},
	})

	queryType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Query",
		Fields: graphql.Fields{
			"routes": &graphql.Field{
				Type:        graphql.NewList(routeType),
				Description: "List walking routes, optionally only those starting near a geohash cell",
				Args: graphql.FieldConfigArgument{
					"near": &graphql.ArgumentConfig{Type: graphql.String},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					if near, ok := p.Args["near"].(string); ok && near != "" {
						return deps.Routes.ListNear(p.Context, near)
					}
					return deps.Routes.List(p.Context)
				},
			},
			"route": &graphql.Field{
				Type:        routeType,
				Description: "Get a route by ID",
				Args: graphql.FieldConfigArgument{
					"id": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					route, err := deps.Routes.GetByID(p.Context, p.Args["id"].(string))
					if err != nil {
						return nil, err
					}
					return *route, nil
				},
			},
		},
	})

	return graphql.NewSchema(graphql.SchemaConfig{
		Query: queryType,
	})
}

// GraphQLHandler serves the GraphQL endpoint.
func GraphQLHandler(deps *Dependencies) fiber.Handler {
	schema, err := buildSchema(deps)
	if err != nil {
		// This would be a programming error in the schema definition
		panic("graphql schema build: " + err.Error())
	}

	type gqlRequest struct {
		Query         string                 `json:"query"`
		OperationName string                 `json:"operationName"`
		Variables     map[string]interface{} `json:"variables"`
	}

	return func(c *fiber.Ctx) error {
		var req gqlRequest
		if err := c.BodyParser(&req); err != nil {
			return errBadRequest(c, "invalid request body")
		}

		result := graphql.Do(graphql.Params{
			Schema:         schema,
			RequestString:  req.Query,
			VariableValues: req.Variables,
			OperationName:  req.OperationName,
			Context:        c.UserContext(),
		})

		c.Set(fiber.HeaderCacheControl, "private, max-age=0")
		return c.JSON(result)
	}
}
