package tracking

import (
	"math"

	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/pkg/errs"
	"dispatch/internal/pkg/guard"
)

// State is the per-(order, courier) map-matching memory: the last matched
// segment index, the last progress fraction and the last bearing, plus the
// pending re-route flag.
//
// State is created when an order's route is first built, reset whenever the
// route is replaced, and discarded when the order reaches a terminal status.
// Only the map matcher mutates it.
type State struct {
	guard guard.ConstructorGuard

	orderID   kernel.UUID
	courierID kernel.UUID
	routeID   kernel.UUID

	lastSegmentIndex int
	lastProgress     float64
	lastBearing      float64
	reroutePending   bool
}

// NewState creates tracking state for a freshly built route, with segment
// index and progress zeroed.
func NewState(orderID, courierID, routeID kernel.UUID) (*State, error) {
	if err := orderID.Validate(); err != nil {
		return nil, errs.NewValueIsRequiredErrorWithCause("orderID", err)
	}
	if err := courierID.Validate(); err != nil {
		return nil, errs.NewValueIsRequiredErrorWithCause("courierID", err)
	}
	if err := routeID.Validate(); err != nil {
		return nil, errs.NewValueIsRequiredErrorWithCause("routeID", err)
	}

	return &State{
		guard:     guard.NewConstructorGuard(),
		orderID:   orderID,
		courierID: courierID,
		routeID:   routeID,
	}, nil
}

// OrderID returns the tracked order's ID.
func (s *State) OrderID() kernel.UUID {
	return s.orderID
}

// CourierID returns the tracked courier's ID.
func (s *State) CourierID() kernel.UUID {
	return s.courierID
}

// RouteID returns the route the state currently matches against.
func (s *State) RouteID() kernel.UUID {
	return s.routeID
}

// LastSegmentIndex returns the segment index of the last match.
func (s *State) LastSegmentIndex() int {
	return s.lastSegmentIndex
}

// LastProgress returns the last progress fraction. It never decreases
// between route swaps.
func (s *State) LastProgress() float64 {
	return s.lastProgress
}

// LastBearing returns the bearing of the last match in degrees.
func (s *State) LastBearing() float64 {
	return s.lastBearing
}

// ReroutePending reports whether a re-route request is in flight.
func (s *State) ReroutePending() bool {
	return s.reroutePending
}

// Advance records a new match and returns the final progress fraction.
// Progress is monotonic: the candidate is clamped to at least the last
// recorded value, so out-of-order or duplicate fixes never move the
// marker backwards.
func (s *State) Advance(segmentIndex int, candidateProgress, bearing float64) float64 {
	final := math.Max(candidateProgress, s.lastProgress)

	s.lastSegmentIndex = segmentIndex
	s.lastProgress = final
	s.lastBearing = bearing
	return final
}

// MarkReroutePending sets the pending flag and reports whether it was newly
// set. A false return means a request is already in flight and no duplicate
// must be issued.
func (s *State) MarkReroutePending() bool {
	if s.reroutePending {
		return false
	}
	s.reroutePending = true
	return true
}

// ClearReroutePending clears the pending flag after a re-route attempt
// failed, so the next trigger-level deviation issues a fresh request.
func (s *State) ClearReroutePending() {
	s.reroutePending = false
}

// SwapRoute points the state at a replacement route, zeroing the segment
// index and progress and clearing the pending re-route flag. Matching
// resumes from the start of the new route.
func (s *State) SwapRoute(routeID kernel.UUID) error {
	if err := routeID.Validate(); err != nil {
		return errs.NewValueIsRequiredErrorWithCause("routeID", err)
	}

	s.routeID = routeID
	s.lastSegmentIndex = 0
	s.lastProgress = 0
	s.reroutePending = false
	return nil
}

// Validate checks that the state was properly constructed.
func (s *State) Validate() error {
	return s.guard.Validate(errs.NewValueIsInvalidError("tracking state"))
}
