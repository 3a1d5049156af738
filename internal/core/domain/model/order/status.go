package order

import (
	"fmt"

	"dispatch/internal/pkg/errs"
)

// Status represents the lifecycle state of an order.
// It implements a state machine with defined transitions to ensure
// orders follow the correct delivery workflow.
//
// State transitions:
//
//	Ready ──> Assigned ──> PickedUp ──> OnTheWay ──> Delivered
//	  │           │            │            │
//	  └───────────┴────────────┴────────────┴──> Cancelled
//
// Delivered and Cancelled are terminal; no further transitions are allowed
// and any live tracking for the order is discarded.
type Status int

const (
	// Unknown represents an invalid or undefined status.
	// This value (0) helps catch uninitialized Status values.
	Unknown Status = iota

	// Ready means the restaurant has the order packed and waiting for a
	// courier. Orders enter dispatch in this status.
	Ready

	// Assigned means a courier has been matched to the order.
	Assigned

	// PickedUp means the courier collected the order at the restaurant.
	PickedUp

	// OnTheWay means the courier is moving toward the customer and live
	// tracking is active.
	OnTheWay

	// Delivered means the order reached the customer. Terminal.
	Delivered

	// Cancelled means the order was withdrawn before delivery. Terminal.
	Cancelled
)

func getStatusStrings() map[Status]string {
	return map[Status]string{
		Unknown:   "unknown",
		Ready:     "ready",
		Assigned:  "assigned",
		PickedUp:  "picked_up",
		OnTheWay:  "on_the_way",
		Delivered: "delivered",
		Cancelled: "cancelled",
	}
}

func getValidStatusStrings() map[Status]string {
	//nolint:exhaustive // Unknown is intentionally excluded as it's invalid
	return map[Status]string{
		Ready:     "ready",
		Assigned:  "assigned",
		PickedUp:  "picked_up",
		OnTheWay:  "on_the_way",
		Delivered: "delivered",
		Cancelled: "cancelled",
	}
}

// StatusFromString parses the persisted string representation of a status.
func StatusFromString(s string) (Status, error) {
	for status, str := range getValidStatusStrings() {
		if str == s {
			return status, nil
		}
	}
	return Unknown, errs.NewValueIsInvalidErrorWithCause("status",
		fmt.Errorf("%q is not a valid status", s))
}

// Validate checks if the Status value is valid.
// Unknown (0) and any other values are invalid.
func (s Status) Validate() error {
	if _, ok := getValidStatusStrings()[s]; !ok {
		return errs.NewValueIsInvalidErrorWithCause("status",
			fmt.Errorf("%d is not a valid status", s))
	}
	return nil
}

// String returns the persisted string form of the status.
// Implements fmt.Stringer.
func (s Status) String() string {
	if str, ok := getStatusStrings()[s]; ok {
		return str
	}
	return getStatusStrings()[Unknown]
}

// IsTerminal reports whether the status ends the order lifecycle.
func (s Status) IsTerminal() bool {
	return s == Delivered || s == Cancelled
}

// ValidateAssign checks whether assignment is allowed from the current status.
// Only Ready orders may be assigned; there is no reassignment, which is the
// single-assignment invariant of dispatch.
func (s Status) ValidateAssign() error {
	if s != Ready {
		return errs.NewConflictError("order status", s.String(), "only ready orders can be assigned")
	}
	return nil
}

// Assign transitions the status to Assigned.
//
// Valid transitions:
//   - Ready -> Assigned
//
// Returns a ConflictError if assignment is not allowed from the current status.
func (s Status) Assign() (Status, error) {
	if err := s.ValidateAssign(); err != nil {
		return 0, err
	}

	return Assigned, nil
}

// PickUp transitions the status to PickedUp.
//
// Valid transitions:
//   - Assigned -> PickedUp
func (s Status) PickUp() (Status, error) {
	if s != Assigned {
		return 0, errs.NewConflictError("order status", s.String(), "only assigned orders can be picked up")
	}
	return PickedUp, nil
}

// StartDelivery transitions the status to OnTheWay.
//
// Valid transitions:
//   - PickedUp -> OnTheWay
func (s Status) StartDelivery() (Status, error) {
	if s != PickedUp {
		return 0, errs.NewConflictError("order status", s.String(), "only picked up orders can start delivery")
	}
	return OnTheWay, nil
}

// Complete transitions the status to Delivered.
//
// Valid transitions:
//   - OnTheWay -> Delivered
func (s Status) Complete() (Status, error) {
	if s != OnTheWay {
		return 0, errs.NewConflictError("order status", s.String(), "only orders on the way can be delivered")
	}
	return Delivered, nil
}

// Cancel transitions the status to Cancelled.
// Any non-terminal status can be cancelled.
func (s Status) Cancel() (Status, error) {
	if s.IsTerminal() {
		return 0, errs.NewConflictError("order status", s.String(), "terminal orders cannot be cancelled")
	}
	if err := s.Validate(); err != nil {
		return 0, err
	}
	return Cancelled, nil
}
