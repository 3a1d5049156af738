package order

import (
	"fmt"
	"time"

	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/pkg/errs"
	"dispatch/internal/pkg/guard"
)

// Method describes how a courier was matched to an order.
type Method int

const (
	// MethodUnknown represents an invalid or undefined method.
	MethodUnknown Method = iota

	// MethodNearest means dispatch picked the closest eligible courier.
	MethodNearest

	// MethodManual means an operator picked the courier explicitly.
	MethodManual
)

func getMethodStrings() map[Method]string {
	return map[Method]string{
		MethodUnknown: "unknown",
		MethodNearest: "nearest",
		MethodManual:  "manual",
	}
}

// MethodFromString parses the persisted string representation of a method.
func MethodFromString(s string) (Method, error) {
	for method, str := range getMethodStrings() {
		if method != MethodUnknown && str == s {
			return method, nil
		}
	}
	return MethodUnknown, errs.NewValueIsInvalidErrorWithCause("method",
		fmt.Errorf("%q is not a valid assignment method", s))
}

// String returns the persisted string form of the method.
// Implements fmt.Stringer.
func (m Method) String() string {
	if str, ok := getMethodStrings()[m]; ok {
		return str
	}
	return getMethodStrings()[MethodUnknown]
}

// Validate checks if the Method value is valid.
func (m Method) Validate() error {
	if m != MethodNearest && m != MethodManual {
		return errs.NewValueIsInvalidErrorWithCause("method",
			fmt.Errorf("%d is not a valid assignment method", m))
	}
	return nil
}

// AssignmentRecord is an immutable audit entry created when a courier is
// matched to an order. It captures the facts of the match at the moment it
// happened and never changes afterwards.
type AssignmentRecord struct {
	guard guard.ConstructorGuard

	orderID    kernel.UUID
	courierID  kernel.UUID
	distanceKm float64
	assignedAt time.Time
	method     Method
}

// NewAssignmentRecord creates the audit record for a completed match.
//
// Parameters:
//   - orderID: the assigned order
//   - courierID: the winning courier
//   - distanceKm: straight-line distance from the courier to the restaurant
//     at assessment time, in kilometers
//   - assignedAt: the moment the assignment was committed
//   - method: how the match was made (nearest or manual)
func NewAssignmentRecord(
	orderID kernel.UUID,
	courierID kernel.UUID,
	distanceKm float64,
	assignedAt time.Time,
	method Method,
) (AssignmentRecord, error) {
	if err := orderID.Validate(); err != nil {
		return AssignmentRecord{}, errs.NewValueIsRequiredErrorWithCause("orderID", err)
	}
	if err := courierID.Validate(); err != nil {
		return AssignmentRecord{}, errs.NewValueIsRequiredErrorWithCause("courierID", err)
	}
	if distanceKm < 0 {
		return AssignmentRecord{}, errs.NewValueIsInvalidError("distanceKm")
	}
	if assignedAt.IsZero() {
		return AssignmentRecord{}, errs.NewValueIsRequiredError("assignedAt")
	}
	if err := method.Validate(); err != nil {
		return AssignmentRecord{}, err
	}

	return AssignmentRecord{
		guard:      guard.NewConstructorGuard(),
		orderID:    orderID,
		courierID:  courierID,
		distanceKm: distanceKm,
		assignedAt: assignedAt,
		method:     method,
	}, nil
}

// OrderID returns the assigned order's ID.
func (r AssignmentRecord) OrderID() kernel.UUID {
	return r.orderID
}

// CourierID returns the winning courier's ID.
func (r AssignmentRecord) CourierID() kernel.UUID {
	return r.courierID
}

// DistanceKm returns the courier-to-restaurant distance at assessment time.
func (r AssignmentRecord) DistanceKm() float64 {
	return r.distanceKm
}

// AssignedAt returns the moment the assignment was committed.
func (r AssignmentRecord) AssignedAt() time.Time {
	return r.assignedAt
}

// Method returns how the match was made.
func (r AssignmentRecord) Method() Method {
	return r.method
}

// Validate checks that the record was properly constructed.
func (r AssignmentRecord) Validate() error {
	return r.guard.Validate(errs.NewValueIsInvalidError("assignment record"))
}
