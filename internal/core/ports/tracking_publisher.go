package ports

import (
	"context"

	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/core/domain/model/order"
	"dispatch/internal/core/domain/model/tracking"
)

// TrackingPublisher pushes rendered tracking frames to everyone watching an
// order. Delivery is best-effort: a failed push is logged by the caller and
// never interrupts the tracking pipeline.
type TrackingPublisher interface {
	// Publish emits one frame on the order's tracking stream.
	Publish(ctx context.Context, orderID kernel.UUID, snapshot tracking.Snapshot) error
}

// CourierNotifier tells a courier about assignment decisions. Notification
// failures are logged and swallowed; they never roll back a committed
// assignment.
type CourierNotifier interface {
	// NotifyAssigned informs the courier they won an order.
	NotifyAssigned(ctx context.Context, courierID kernel.UUID, aggregate *order.Order) error
}
