package ports

import (
	"context"

	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/core/domain/model/route"
)

// RoutePlanner is the external directions provider: origin and destination
// in, an ordered waypoint list out. Implementations wrap a black-box
// routing service; failures surface as ExternalServiceError.
type RoutePlanner interface {
	// BuildRoute requests a road path for an order from origin to
	// destination and returns it as a constructed Route.
	BuildRoute(ctx context.Context, orderID kernel.UUID, origin, destination kernel.GeoPoint) (*route.Route, error)
}
