package ports

import (
	"context"

	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/core/domain/model/tracking"
)

// LocationStore keeps the latest raw fix per courier in a fast shared
// store, so assignment and operator views read fresh positions without
// touching the primary database.
type LocationStore interface {
	// SetFix stores the latest raw fix for a courier, displacing the
	// previous one.
	SetFix(ctx context.Context, fix tracking.Fix) error

	// GetFix retrieves the latest raw fix for a courier.
	// Returns (nil, nil) when no fix has been reported yet or the stored
	// one has expired.
	GetFix(ctx context.Context, courierID kernel.UUID) (*tracking.Fix, error)
}
