// Package googlemaps implements the RoutePlanner port on top of the
// Google Maps Directions API. Responses are cached per origin/destination
// pair so repeated planning for nearby dispatch attempts does not burn
// API quota.
package googlemaps

import (
	"context"
	"fmt"
	"time"

	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/core/domain/model/route"
	"dispatch/internal/pkg/cache"
	"dispatch/internal/pkg/errs"

	"googlemaps.github.io/maps"
)

const (
	serviceName = "google maps"

	cacheCapacity = 512
	cacheTTL      = 5 * time.Minute
)

// directionsClient is the slice of the Google Maps client the planner uses.
type directionsClient interface {
	Directions(ctx context.Context, r *maps.DirectionsRequest) ([]maps.Route, []maps.GeocodedWaypoint, error)
}

// RoutePlanner builds driving routes between two points via the Google
// Maps Directions API.
type RoutePlanner struct {
	client directionsClient
	cache  *cache.Cache[[]kernel.GeoPoint]
}

// NewRoutePlanner creates a planner backed by the Google Maps API.
func NewRoutePlanner(apiKey string) (*RoutePlanner, error) {
	if apiKey == "" {
		return nil, errs.NewValueIsRequiredError("apiKey")
	}

	client, err := maps.NewClient(maps.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create maps client: %w", err)
	}

	return newRoutePlanner(client), nil
}

func newRoutePlanner(client directionsClient) *RoutePlanner {
	return &RoutePlanner{
		client: client,
		cache:  cache.New[[]kernel.GeoPoint](cacheCapacity, cacheTTL, time.Now),
	}
}

// BuildRoute requests a driving route from origin to destination and
// flattens it into an ordered polyline. The polyline is cached by
// coordinate pair; the returned Route always carries the given orderID.
func (p *RoutePlanner) BuildRoute(
	ctx context.Context,
	orderID kernel.UUID,
	origin kernel.GeoPoint,
	destination kernel.GeoPoint,
) (*route.Route, error) {
	if err := orderID.Validate(); err != nil {
		return nil, err
	}
	if err := origin.Validate(); err != nil {
		return nil, err
	}
	if err := destination.Validate(); err != nil {
		return nil, err
	}

	key := cacheKey(origin, destination)
	if points, ok := p.cache.Get(key); ok {
		return route.NewRoute(kernel.NewUUID(), orderID, points)
	}

	points, err := p.fetchPolyline(ctx, origin, destination)
	if err != nil {
		return nil, err
	}

	p.cache.Set(key, points)
	return route.NewRoute(kernel.NewUUID(), orderID, points)
}

func (p *RoutePlanner) fetchPolyline(
	ctx context.Context, origin, destination kernel.GeoPoint,
) ([]kernel.GeoPoint, error) {
	request := &maps.DirectionsRequest{
		Origin:      formatLatLng(origin),
		Destination: formatLatLng(destination),
		Mode:        maps.TravelModeDriving,
	}

	routes, _, err := p.client.Directions(ctx, request)
	if err != nil {
		return nil, errs.NewExternalServiceError(serviceName, err)
	}

	if len(routes) == 0 || len(routes[0].Legs) == 0 {
		return nil, errs.NewExternalServiceError(
			serviceName, fmt.Errorf("no route between %s and %s", origin, destination),
		)
	}

	legs, err := toDomainLegs(routes[0].Legs)
	if err != nil {
		return nil, err
	}

	return route.Flatten(legs), nil
}

// toDomainLegs converts the Directions legs into the domain leg/step shape,
// decoding each step's polyline.
func toDomainLegs(apiLegs []*maps.Leg) ([]route.Leg, error) {
	legs := make([]route.Leg, 0, len(apiLegs))

	for _, apiLeg := range apiLegs {
		steps := make([]route.Step, 0, len(apiLeg.Steps))

		for _, apiStep := range apiLeg.Steps {
			latLngs, err := apiStep.Polyline.Decode()
			if err != nil {
				return nil, errs.NewExternalServiceError(serviceName, err)
			}

			points := make([]kernel.GeoPoint, 0, len(latLngs))
			for _, ll := range latLngs {
				point, pointErr := kernel.NewGeoPoint(ll.Lat, ll.Lng)
				if pointErr != nil {
					return nil, errs.NewExternalServiceError(serviceName, pointErr)
				}
				points = append(points, point)
			}

			steps = append(steps, route.Step{Points: points})
		}

		legs = append(legs, route.Leg{Steps: steps})
	}

	return legs, nil
}

func formatLatLng(p kernel.GeoPoint) string {
	return fmt.Sprintf("%f,%f", p.Lat(), p.Lng())
}

// cacheKey rounds to ~1e-6 degrees, which is well under a metre; fixes
// closer than that share a planned polyline.
func cacheKey(origin, destination kernel.GeoPoint) string {
	return fmt.Sprintf(
		"%.6f,%.6f|%.6f,%.6f",
		origin.Lat(), origin.Lng(), destination.Lat(), destination.Lng(),
	)
}
