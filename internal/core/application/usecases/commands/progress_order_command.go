package commands

import (
	"errors"
	"fmt"

	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/pkg/errs"
	"dispatch/internal/pkg/guard"
)

var ErrProgressOrderCommandIsNotConstructed = errors.New(
	"ProgressOrderCommand must be created via NewProgressOrderCommand constructor",
)

// ProgressAction selects the lifecycle transition to apply to an order.
type ProgressAction int

const (
	// ActionUnknown represents an invalid or undefined action.
	ActionUnknown ProgressAction = iota

	// ActionPickUp marks the order as collected at the restaurant.
	ActionPickUp

	// ActionStartDelivery marks the order as en route to the customer and
	// swaps tracking onto the delivery leg.
	ActionStartDelivery

	// ActionComplete marks the order as delivered.
	ActionComplete

	// ActionCancel withdraws the order.
	ActionCancel
)

func getActionStrings() map[ProgressAction]string {
	return map[ProgressAction]string{
		ActionUnknown:       "unknown",
		ActionPickUp:        "pick_up",
		ActionStartDelivery: "start_delivery",
		ActionComplete:      "complete",
		ActionCancel:        "cancel",
	}
}

// ParseProgressAction parses the wire form of an action.
func ParseProgressAction(s string) (ProgressAction, error) {
	for action, str := range getActionStrings() {
		if action != ActionUnknown && str == s {
			return action, nil
		}
	}
	return ActionUnknown, errs.NewValueIsInvalidErrorWithCause("action",
		fmt.Errorf("%q is not a valid progress action", s))
}

// String implements fmt.Stringer.
func (a ProgressAction) String() string {
	if str, ok := getActionStrings()[a]; ok {
		return str
	}
	return getActionStrings()[ActionUnknown]
}

// Validate checks if the ProgressAction value is valid.
func (a ProgressAction) Validate() error {
	if a <= ActionUnknown || a > ActionCancel {
		return errs.NewValueIsInvalidError("action")
	}
	return nil
}

// ProgressOrderCommand applies one lifecycle transition to an order:
// pick-up, delivery start, completion or cancellation.
type ProgressOrderCommand struct { //nolint:recvcheck //using for validation
	orderID kernel.UUID
	action  ProgressAction

	guard guard.ConstructorGuard
}

// NewProgressOrderCommand creates a command for one lifecycle transition.
func NewProgressOrderCommand(orderID kernel.UUID, action ProgressAction) (ProgressOrderCommand, error) {
	cmd := ProgressOrderCommand{
		guard: guard.NewConstructorGuard(),
	}

	if err := errors.Join(
		cmd.setOrderID(orderID),
		cmd.setAction(action),
	); err != nil {
		return ProgressOrderCommand{}, err
	}

	return cmd, nil
}

// Validate ensures the command was created through the constructor.
func (c ProgressOrderCommand) Validate() error {
	return c.guard.Validate(ErrProgressOrderCommandIsNotConstructed)
}

// OrderID returns the order to transition.
func (c ProgressOrderCommand) OrderID() kernel.UUID {
	return c.orderID
}

// Action returns the transition to apply.
func (c ProgressOrderCommand) Action() ProgressAction {
	return c.action
}

func (c *ProgressOrderCommand) setOrderID(orderID kernel.UUID) error {
	if err := orderID.Validate(); err != nil {
		return err
	}

	c.orderID = orderID
	return nil
}

func (c *ProgressOrderCommand) setAction(action ProgressAction) error {
	if err := action.Validate(); err != nil {
		return err
	}

	c.action = action
	return nil
}
