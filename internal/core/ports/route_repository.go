package ports

import (
	"context"

	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/core/domain/model/route"
)

// RouteRepository defines the persistence contract for routes. An order has
// at most one current route; re-routing replaces it.
type RouteRepository interface {
	// Add persists a new route.
	Add(ctx context.Context, aggregate *route.Route) error

	// Replace persists a replacement route for the order it serves and
	// removes the previous one.
	Replace(ctx context.Context, aggregate *route.Route) error

	// GetByOrder retrieves the current route for an order.
	GetByOrder(ctx context.Context, orderID kernel.UUID) (*route.Route, error)
}
