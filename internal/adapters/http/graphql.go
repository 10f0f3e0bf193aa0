package http

import (
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/graphql-go/graphql"

	"github.com/samirrijal/pinpoint/internal/core/domain"
	"github.com/samirrijal/pinpoint/internal/core/usecases"
)

// buildSchema creates the GraphQL schema wired to the locate service.
func buildSchema(deps *Dependencies) (graphql.Schema, error) {
	geoPointType := graphql.NewObject(graphql.ObjectConfig{
		Name: "GeoPoint",
		Fields: graphql.Fields{
			"lat": &graphql.Field{Type: graphql.Float},
			"lon": &graphql.Field{Type: graphql.Float},
		},
	})

	geoPointInput := graphql.NewInputObject(graphql.InputObjectConfig{
		Name: "GeoPointInput",
		Fields: graphql.InputObjectConfigFieldMap{
			"lat": &graphql.InputObjectFieldConfig{Type: graphql.NewNonNull(graphql.Float)},
			"lon": &graphql.InputObjectFieldConfig{Type: graphql.NewNonNull(graphql.Float)},
		},
	})

	locationType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Location",
		Fields: graphql.Fields{
			"id":         &graphql.Field{Type: graphql.String},
			"result":     &graphql.Field{Type: geoPointType},
			"origin":     &graphql.Field{Type: geoPointType},
			"references": &graphql.Field{Type: graphql.NewList(geoPointType)},
			"amenities":  &graphql.Field{Type: graphql.NewList(graphql.String)},
			"area":       &graphql.Field{Type: graphql.String},
			"distances":  &graphql.Field{Type: graphql.NewList(graphql.Float)},
			"unit":       &graphql.Field{Type: graphql.String},
			"residuals":  &graphql.Field{Type: graphql.NewList(graphql.Float)},
			"created_at": &graphql.Field{Type: graphql.String},
		},
	})

	referenceType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Reference",
		Fields: graphql.Fields{
			"area":       &graphql.Field{Type: graphql.String},
			"amenity":    &graphql.Field{Type: graphql.String},
			"point":      &graphql.Field{Type: geoPointType},
			"candidates": &graphql.Field{Type: graphql.Int},
		},
	})

	queryType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Query",
		Fields: graphql.Fields{
			"location": &graphql.Field{
				Type:        locationType,
				Description: "Get a stored location by ID",
				Args: graphql.FieldConfigArgument{
					"id": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					loc, err := deps.Locator.GetByID(p.Context, p.Args["id"].(string))
					if err != nil {
						return nil, err
					}
					return locationMap(loc), nil
				},
			},
			"recentLocations": &graphql.Field{
				Type:        graphql.NewList(locationType),
				Description: "Most recent locations, newest first",
				Args: graphql.FieldConfigArgument{
					"limit": &graphql.ArgumentConfig{Type: graphql.Int, DefaultValue: 20},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					locs, err := deps.Locator.ListRecent(p.Context, p.Args["limit"].(int))
					if err != nil {
						return nil, err
					}
					out := make([]map[string]interface{}, 0, len(locs))
					for k := range locs {
						out = append(out, locationMap(&locs[k]))
					}
					return out, nil
				},
			},
			"reference": &graphql.Field{
				Type:        referenceType,
				Description: "Mean centre of an amenity category inside a named area",
				Args: graphql.FieldConfigArgument{
					"area":    &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
					"amenity": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					area := domain.Area{Name: p.Args["area"].(string)}
					ref, err := deps.Locator.ResolveReference(p.Context, area, p.Args["amenity"].(string))
					if err != nil {
						return nil, err
					}
					return map[string]interface{}{
						"area":       ref.Area,
						"amenity":    ref.Amenity,
						"point":      pointMap(ref.Point),
						"candidates": ref.Candidates,
					}, nil
				},
			},
		},
	})

	mutationType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Mutation",
		Fields: graphql.Fields{
			"locate": &graphql.Field{
				Type:        locationType,
				Description: "Trilaterate from three reference points",
				Args: graphql.FieldConfigArgument{
					"references": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.NewList(graphql.NewNonNull(geoPointInput)))},
					"distances":  &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.NewList(graphql.NewNonNull(graphql.Float)))},
					"unit":       &graphql.ArgumentConfig{Type: graphql.String, DefaultValue: "m"},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					var req usecases.LocateRequest
					refs, _ := p.Args["references"].([]interface{})
					if len(refs) != 3 {
						return nil, fmt.Errorf("%w: exactly 3 references required", domain.ErrInvalidCoordinates)
					}
					for k, r := range refs {
						m, _ := r.(map[string]interface{})
						req.References[k] = domain.GeoPoint{Lat: toFloat(m["lat"]), Lon: toFloat(m["lon"])}
					}
					dists, err := threeFloats(p.Args["distances"])
					if err != nil {
						return nil, err
					}
					req.Distances = dists
					req.Unit, _ = p.Args["unit"].(string)

					loc, err := deps.Locator.Locate(p.Context, req)
					if err != nil {
						return nil, err
					}
					return locationMap(loc), nil
				},
			},
			"locateByAmenities": &graphql.Field{
				Type:        locationType,
				Description: "Trilaterate from three amenity categories in a named area",
				Args: graphql.FieldConfigArgument{
					"area":      &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
					"amenities": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.NewList(graphql.NewNonNull(graphql.String)))},
					"distances": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.NewList(graphql.NewNonNull(graphql.Float)))},
					"unit":      &graphql.ArgumentConfig{Type: graphql.String, DefaultValue: "m"},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					req := usecases.AmenityRequest{Area: domain.Area{Name: p.Args["area"].(string)}}
					names, _ := p.Args["amenities"].([]interface{})
					if len(names) != 3 {
						return nil, fmt.Errorf("%w: exactly 3 amenities required", domain.ErrInvalidArea)
					}
					for k, n := range names {
						req.Amenities[k], _ = n.(string)
					}
					dists, err := threeFloats(p.Args["distances"])
					if err != nil {
						return nil, err
					}
					req.Distances = dists
					req.Unit, _ = p.Args["unit"].(string)

					loc, err := deps.Locator.LocateByAmenities(p.Context, req)
					if err != nil {
						return nil, err
					}
					return locationMap(loc), nil
				},
			},
		},
	})

	return graphql.NewSchema(graphql.SchemaConfig{
		Query:    queryType,
		Mutation: mutationType,
	})
}

func pointMap(p domain.GeoPoint) map[string]interface{} {
	return map[string]interface{}{"lat": p.Lat, "lon": p.Lon}
}

func locationMap(loc *domain.Location) map[string]interface{} {
	refs := make([]interface{}, 0, len(loc.References))
	for _, r := range loc.References {
		refs = append(refs, pointMap(r))
	}
	return map[string]interface{}{
		"id":         loc.ID,
		"result":     pointMap(loc.Result),
		"origin":     pointMap(loc.Origin),
		"references": refs,
		"amenities":  loc.Amenities,
		"area":       loc.Area,
		"distances":  loc.Distances[:],
		"unit":       loc.Unit,
		"residuals":  loc.Residuals[:],
		"created_at": loc.CreatedAt.Format(time.RFC3339),
	}
}

func threeFloats(v interface{}) ([3]float64, error) {
	var out [3]float64
	list, _ := v.([]interface{})
	if len(list) != 3 {
		return out, fmt.Errorf("%w: exactly 3 distances required", domain.ErrInvalidDistance)
	}
	for k, f := range list {
		out[k] = toFloat(f)
	}
	return out, nil
}

// toFloat accepts the numeric types graphql-go produces for Float arguments.
func toFloat(v interface{}) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case float32:
		return float64(n)
	case int:
		return float64(n)
	}
	return 0
}

// GraphQLHandler serves the GraphQL endpoint.
func GraphQLHandler(deps *Dependencies) fiber.Handler {
	schema, err := buildSchema(deps)
	if err != nil {
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

		return c.JSON(result)
	}
}
