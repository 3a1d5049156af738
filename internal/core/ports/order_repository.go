package ports

import (
	"context"

	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/core/domain/model/order"
)

// OrderRepository defines the persistence contract for order aggregates and
// their assignment records.
type OrderRepository interface {
	// Add persists a new order aggregate to storage.
	// The order must be valid and not already exist in the repository.
	Add(ctx context.Context, aggregate *order.Order) error

	// Update persists changes to an existing order aggregate.
	// The order must exist in the repository and be valid.
	Update(ctx context.Context, aggregate *order.Order) error

	// Get retrieves an order aggregate by its unique identifier.
	Get(ctx context.Context, id kernel.UUID) (*order.Order, error)

	// GetAllInReadyStatus retrieves the orders waiting for a courier,
	// oldest readiness first, so dispatch serves the longest-waiting
	// orders before fresher ones.
	GetAllInReadyStatus(ctx context.Context) ([]*order.Order, error)

	// GetAllActive retrieves orders that are assigned, picked up or on the
	// way. Used by tracking and the operator views.
	GetAllActive(ctx context.Context) ([]*order.Order, error)

	// Assign persists a courier match with a conditional write: it succeeds
	// only if the stored order still has no courier and is still in ready
	// status at write time, and stores the assignment record in the same
	// transaction. When the condition fails, meaning another attempt won the
	// race, it returns a ConflictError and writes nothing.
	Assign(ctx context.Context, aggregate *order.Order, record order.AssignmentRecord) error
}
