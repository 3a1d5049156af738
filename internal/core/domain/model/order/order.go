package order

import (
	"time"

	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/pkg/errs"
	"dispatch/internal/pkg/guard"
)

// Order is an aggregate root representing a delivery order moving through
// dispatch: from ready at the restaurant through assignment, pickup and
// delivery to the customer.
//
// Orders must be created via NewOrder (or RestoreOrder when loading from
// persistence) to ensure all invariants are maintained.
type Order struct {
	guard guard.ConstructorGuard

	id           kernel.UUID
	restaurantID kernel.UUID
	pickup       kernel.GeoPoint
	dropoff      kernel.GeoPoint
	readyAt      time.Time
	status       Status
	courierID    *kernel.UUID
}

// NewOrder creates an order in Ready status, waiting for a courier.
//
// Parameters:
//   - id: unique identifier of the order
//   - restaurantID: the restaurant that prepared the order
//   - pickup: restaurant location where the courier collects the order
//   - dropoff: customer location where the order is delivered
//   - readyAt: the moment the restaurant finished packing the order;
//     used to prioritize longest-waiting orders during dispatch
//
// Returns:
//   - *Order: a new order in Ready status with no courier
//   - error: ValidationError if any parameter is invalid
func NewOrder(
	id kernel.UUID,
	restaurantID kernel.UUID,
	pickup kernel.GeoPoint,
	dropoff kernel.GeoPoint,
	readyAt time.Time,
) (*Order, error) {
	if err := id.Validate(); err != nil {
		return nil, errs.NewValueIsRequiredErrorWithCause("id", err)
	}
	if err := restaurantID.Validate(); err != nil {
		return nil, errs.NewValueIsRequiredErrorWithCause("restaurantID", err)
	}
	if err := pickup.Validate(); err != nil {
		return nil, errs.NewValueIsRequiredErrorWithCause("pickup", err)
	}
	if err := dropoff.Validate(); err != nil {
		return nil, errs.NewValueIsRequiredErrorWithCause("dropoff", err)
	}
	if readyAt.IsZero() {
		return nil, errs.NewValueIsRequiredError("readyAt")
	}

	return &Order{
		guard:        guard.NewConstructorGuard(),
		id:           id,
		restaurantID: restaurantID,
		pickup:       pickup,
		dropoff:      dropoff,
		readyAt:      readyAt,
		status:       Ready,
	}, nil
}

// RestoreOrder reconstructs an order from persistence without enforcing
// creation-time transitions. The stored status and courier are taken as-is.
func RestoreOrder(
	id kernel.UUID,
	restaurantID kernel.UUID,
	pickup kernel.GeoPoint,
	dropoff kernel.GeoPoint,
	readyAt time.Time,
	status Status,
	courierID *kernel.UUID,
) (*Order, error) {
	order, err := NewOrder(id, restaurantID, pickup, dropoff, readyAt)
	if err != nil {
		return nil, err
	}
	if err := status.Validate(); err != nil {
		return nil, err
	}
	if courierID != nil {
		if err := courierID.Validate(); err != nil {
			return nil, errs.NewValueIsRequiredErrorWithCause("courierID", err)
		}
	}

	order.status = status
	order.courierID = courierID
	return order, nil
}

// ID returns the unique identifier of the order.
func (o *Order) ID() kernel.UUID {
	return o.id
}

// RestaurantID returns the restaurant the order originates from.
func (o *Order) RestaurantID() kernel.UUID {
	return o.restaurantID
}

// Pickup returns the restaurant location.
func (o *Order) Pickup() kernel.GeoPoint {
	return o.pickup
}

// Dropoff returns the customer location.
func (o *Order) Dropoff() kernel.GeoPoint {
	return o.dropoff
}

// ReadyAt returns the moment the order became ready for pickup.
func (o *Order) ReadyAt() time.Time {
	return o.readyAt
}

// Status returns the current lifecycle status of the order.
func (o *Order) Status() Status {
	return o.status
}

// CourierID returns the assigned courier's ID, or nil if unassigned.
func (o *Order) CourierID() *kernel.UUID {
	return o.courierID
}

// IsAssigned reports whether a courier has been matched to the order.
func (o *Order) IsAssigned() bool {
	return o.courierID != nil
}

// Assign matches a courier to the order and transitions it to Assigned.
//
// Preconditions:
//   - the order is in Ready status
//   - no courier is assigned yet
//
// Returns a ConflictError when either precondition fails. The persistence
// layer additionally enforces this with a conditional write so that under
// concurrent dispatch exactly one assignment wins.
func (o *Order) Assign(courierID kernel.UUID) error {
	if err := courierID.Validate(); err != nil {
		return errs.NewValueIsRequiredErrorWithCause("courierID", err)
	}
	if o.courierID != nil {
		return errs.NewConflictError("order", o.id.String(), "courier already assigned")
	}

	status, err := o.status.Assign()
	if err != nil {
		return err
	}

	o.status = status
	o.courierID = &courierID
	return nil
}

// PickUp marks the order as collected by the courier at the restaurant.
func (o *Order) PickUp() error {
	status, err := o.status.PickUp()
	if err != nil {
		return err
	}
	o.status = status
	return nil
}

// StartDelivery marks the order as en route to the customer.
// Live tracking starts at this point.
func (o *Order) StartDelivery() error {
	status, err := o.status.StartDelivery()
	if err != nil {
		return err
	}
	o.status = status
	return nil
}

// Complete marks the order as delivered to the customer.
func (o *Order) Complete() error {
	status, err := o.status.Complete()
	if err != nil {
		return err
	}
	o.status = status
	return nil
}

// Cancel withdraws the order. Allowed from any non-terminal status;
// any live tracking for the order is discarded by the tracking layer.
func (o *Order) Cancel() error {
	status, err := o.status.Cancel()
	if err != nil {
		return err
	}
	o.status = status
	return nil
}

// Validate checks that the order was properly constructed.
func (o *Order) Validate() error {
	return o.guard.Validate(errs.NewValueIsInvalidError("order"))
}
