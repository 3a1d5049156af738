package ports

import (
	"context"

	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/core/domain/model/zone"
)

// ZoneRepository defines the read-only lookup contract for service zones.
// Zone management itself lives outside dispatch.
type ZoneRepository interface {
	// Get retrieves a zone by its unique identifier.
	Get(ctx context.Context, id kernel.UUID) (*zone.Zone, error)

	// GetByRestaurant retrieves the active zone explicitly bound to a
	// restaurant. No inference or fuzzy matching: absence of a binding,
	// like an inactive one, returns (nil, nil), not an error.
	GetByRestaurant(ctx context.Context, restaurantID kernel.UUID) (*zone.Zone, error)
}
