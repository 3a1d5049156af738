package services

import (
	"dispatch/internal/core/domain/model/courier"
	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/core/domain/model/zone"
	"dispatch/internal/pkg/errs"
)

// AssignmentMode selects how candidate couriers are scoped to a zone.
type AssignmentMode int

const (
	// ModeUnknown represents an invalid or undefined mode.
	ModeUnknown AssignmentMode = iota

	// ModeAutomatic scopes candidates by zone membership when a zone is
	// resolved; couriers without an explicit zone binding fall back to a
	// geometric containment test of their current position.
	ModeAutomatic

	// ModeManual requires zone context: without a resolved zone the
	// candidate pool is empty, and only couriers explicitly bound to the
	// zone survive.
	ModeManual
)

// String implements fmt.Stringer.
func (m AssignmentMode) String() string {
	switch m {
	case ModeAutomatic:
		return "automatic"
	case ModeManual:
		return "manual"
	default:
		return "unknown"
	}
}

// Validate checks if the AssignmentMode value is valid.
func (m AssignmentMode) Validate() error {
	if m != ModeAutomatic && m != ModeManual {
		return errs.NewValueIsInvalidError("assignment mode")
	}
	return nil
}

// CandidateFilter is a domain service that narrows the courier roster down
// to the candidate pool for one assignment attempt.
//
// Base eligibility, applied in every mode: the courier is online, approved,
// has a usable (non-origin) position and is not explicitly excluded.
// Zone scoping then depends on the mode; see AssignmentMode.
//
// The filter gives no ordering guarantee; DistanceRanker ranks separately.
// The filter is pure and reentrant, so assignment attempts for different
// orders may run it in parallel.
type CandidateFilter struct{}

// NewCandidateFilter creates a new CandidateFilter instance.
func NewCandidateFilter() CandidateFilter {
	return CandidateFilter{}
}

// Filter returns the candidate pool for one assignment attempt.
//
// Parameters:
//   - couriers: the roster to evaluate
//   - z: the zone resolved for the restaurant, or nil when no binding exists
//   - mode: automatic or manual zone scoping
//   - excludedIDs: couriers to skip regardless of eligibility, such as ones
//     that already declined this order
//
// Returns:
//   - []*courier.Courier: eligible candidates in roster order; an empty pool
//     is a valid outcome, not an error
//   - error: ValidationError for an invalid mode or courier, or a geometry
//     failure during containment testing
func (f CandidateFilter) Filter(
	couriers []*courier.Courier,
	z *zone.Zone,
	mode AssignmentMode,
	excludedIDs []kernel.UUID,
) ([]*courier.Courier, error) {
	if err := mode.Validate(); err != nil {
		return nil, err
	}

	// An inactive zone does not participate in dispatch; treat it exactly
	// like an unresolved one.
	if z != nil && !z.IsActive() {
		z = nil
	}

	// Manual assignment without zone context has nothing to scope against.
	if mode == ModeManual && z == nil {
		return []*courier.Courier{}, nil
	}

	candidates := make([]*courier.Courier, 0, len(couriers))
	for _, c := range couriers {
		if err := c.Validate(); err != nil {
			return nil, err
		}
		if !f.isEligible(c, excludedIDs) {
			continue
		}

		ok, err := f.matchesZone(c, z, mode)
		if err != nil {
			return nil, err
		}
		if ok {
			candidates = append(candidates, c)
		}
	}

	return candidates, nil
}

func (f CandidateFilter) isEligible(c *courier.Courier, excludedIDs []kernel.UUID) bool {
	if !c.IsOnline() || !c.IsApproved() || !c.HasUsablePosition() {
		return false
	}
	for _, id := range excludedIDs {
		if c.ID().IsEqual(id) {
			return false
		}
	}
	return true
}

func (f CandidateFilter) matchesZone(c *courier.Courier, z *zone.Zone, mode AssignmentMode) (bool, error) {
	if z == nil {
		// Only reachable in automatic mode: no zone, no scoping.
		return true, nil
	}

	if mode == ModeManual {
		return c.IsBoundToZone(z.ID()), nil
	}

	// Automatic mode uses explicit bindings when the courier has them and
	// falls back to geometric containment of the current position when not.
	// The two tests are not reconciled when they would disagree.
	if c.HasExplicitZones() {
		return c.IsBoundToZone(z.ID()), nil
	}

	return z.Contains(*c.Position())
}
