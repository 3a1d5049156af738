package commands

import (
	"errors"

	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/core/domain/services"
	"dispatch/internal/pkg/guard"
)

var ErrAssignOrderCommandIsNotConstructed = errors.New(
	"AssignOrderCommand must be created via NewAssignOrderCommand constructor",
)

// AssignOrderCommand triggers one courier assignment attempt for a ready
// order. It is issued by the order-status transition hook when an order
// becomes ready, by the retry loop, or by an operator's manual action.
//
// Example:
//
//	cmd, err := NewAssignOrderCommand(orderID, restaurantLocation,
//	    &restaurantID, services.ModeAutomatic, nil)
//	if err != nil {
//	    return err
//	}
//	result, err := handler.Handle(ctx, cmd)
//	if errors.Is(err, errs.ErrConflict) {
//	    // Lost the race: another attempt already assigned this order.
//	    return nil
//	}
//	if result == nil {
//	    // No courier available right now; the retry loop will try again.
//	}
type AssignOrderCommand struct { //nolint:recvcheck //using for validation
	orderID            kernel.UUID
	restaurantLocation kernel.GeoPoint
	restaurantID       *kernel.UUID
	mode               services.AssignmentMode
	excludedIDs        []kernel.UUID

	guard guard.ConstructorGuard
}

// NewAssignOrderCommand creates a command for one assignment attempt.
//
// Parameters:
//   - orderID: the ready order to assign
//   - restaurantLocation: origin for distance ranking
//   - restaurantID: optional; when set, the restaurant's zone scopes the
//     candidate pool
//   - mode: automatic or manual zone scoping
//   - excludedIDs: couriers to skip, such as ones that declined the order
func NewAssignOrderCommand(
	orderID kernel.UUID,
	restaurantLocation kernel.GeoPoint,
	restaurantID *kernel.UUID,
	mode services.AssignmentMode,
	excludedIDs []kernel.UUID,
) (AssignOrderCommand, error) {
	cmd := AssignOrderCommand{
		guard: guard.NewConstructorGuard(),
	}

	if err := errors.Join(
		cmd.setOrderID(orderID),
		cmd.setRestaurantLocation(restaurantLocation),
		cmd.setRestaurantID(restaurantID),
		cmd.setMode(mode),
	); err != nil {
		return AssignOrderCommand{}, err
	}

	cmd.excludedIDs = make([]kernel.UUID, len(excludedIDs))
	copy(cmd.excludedIDs, excludedIDs)

	return cmd, nil
}

// Validate ensures the command was created through the constructor.
func (c AssignOrderCommand) Validate() error {
	return c.guard.Validate(ErrAssignOrderCommandIsNotConstructed)
}

// OrderID returns the order to assign.
func (c AssignOrderCommand) OrderID() kernel.UUID {
	return c.orderID
}

// RestaurantLocation returns the origin for distance ranking.
func (c AssignOrderCommand) RestaurantLocation() kernel.GeoPoint {
	return c.restaurantLocation
}

// RestaurantID returns the restaurant for zone resolution, or nil when no
// zone scoping was requested.
func (c AssignOrderCommand) RestaurantID() *kernel.UUID {
	return c.restaurantID
}

// Mode returns the zone scoping mode.
func (c AssignOrderCommand) Mode() services.AssignmentMode {
	return c.mode
}

// ExcludedIDs returns the couriers to skip for this attempt.
func (c AssignOrderCommand) ExcludedIDs() []kernel.UUID {
	return c.excludedIDs
}

func (c *AssignOrderCommand) setOrderID(orderID kernel.UUID) error {
	if err := orderID.Validate(); err != nil {
		return err
	}

	c.orderID = orderID
	return nil
}

func (c *AssignOrderCommand) setRestaurantLocation(location kernel.GeoPoint) error {
	if err := location.Validate(); err != nil {
		return err
	}

	c.restaurantLocation = location
	return nil
}

func (c *AssignOrderCommand) setRestaurantID(restaurantID *kernel.UUID) error {
	if restaurantID == nil {
		return nil
	}
	if err := restaurantID.Validate(); err != nil {
		return err
	}

	id := *restaurantID
	c.restaurantID = &id
	return nil
}

func (c *AssignOrderCommand) setMode(mode services.AssignmentMode) error {
	if err := mode.Validate(); err != nil {
		return err
	}

	c.mode = mode
	return nil
}
