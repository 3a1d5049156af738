// Package ports defines the contracts between the domain layer and
// infrastructure: repositories, the unit of work, the external routing
// provider and the outbound tracking channels. These interfaces enable
// dependency inversion and testability.
package ports

import (
	"context"

	"dispatch/internal/core/domain/model/courier"
	"dispatch/internal/core/domain/model/kernel"
)

// CourierRepository defines the persistence contract for courier aggregates.
type CourierRepository interface {
	// Add persists a new courier aggregate to storage.
	// The courier must be valid and not already exist in the repository.
	Add(ctx context.Context, courier *courier.Courier) error

	// Update persists changes to an existing courier aggregate.
	// The courier must exist in the repository and be valid.
	Update(ctx context.Context, courier *courier.Courier) error

	// Get retrieves a courier aggregate by its unique identifier,
	// including its explicit zone bindings.
	Get(ctx context.Context, id kernel.UUID) (*courier.Courier, error)

	// GetAllAvailable retrieves every courier that could take an order:
	// online, approved and not actively working one. The geographic and
	// zone eligibility checks are applied by the domain, not the query.
	GetAllAvailable(ctx context.Context) ([]*courier.Courier, error)
}
