package route

import (
	"dispatch/internal/core/domain/model/kernel"
)

// Step is one maneuver of an externally supplied routing result, carrying
// the decoded polyline points for that maneuver.
type Step struct {
	Points []kernel.GeoPoint
}

// Leg is one origin-to-destination section of an externally supplied
// routing result.
type Leg struct {
	Steps []Step
}

// Flatten collapses the legs and steps of a routing result into one ordered
// waypoint list. Consecutive duplicate points at step and leg boundaries are
// preserved: providers repeat the joining point on both sides, and dropping
// it would shift the cumulative-distance math off the provider's geometry.
// Pure transformation, no state.
func Flatten(legs []Leg) []kernel.GeoPoint {
	total := 0
	for _, leg := range legs {
		for _, step := range leg.Steps {
			total += len(step.Points)
		}
	}

	points := make([]kernel.GeoPoint, 0, total)
	for _, leg := range legs {
		for _, step := range leg.Steps {
			points = append(points, step.Points...)
		}
	}
	return points
}
