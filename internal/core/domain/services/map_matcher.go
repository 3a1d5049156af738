package services

import (
	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/core/domain/model/route"
	"dispatch/internal/core/domain/model/tracking"
	"dispatch/internal/pkg/errs"
)

// MatcherConfig tunes the map-matching search window and thresholds.
// The window sizes and the backward bias are empirically tuned values;
// callers should rely on the relative behavior (forward segments preferred)
// rather than the exact magnitudes.
type MatcherConfig struct {
	// BackwardWindow is how many segments behind the last match are
	// searched.
	BackwardWindow int
	// ForwardWindow is how many segments ahead of the last match are
	// searched. The search never scans the whole path.
	ForwardWindow int
	// BackwardBiasKm is added to the projection distance of segments behind
	// the last match, discouraging backward snaps without forbidding them.
	BackwardBiasKm float64
	// OffRouteThresholdKm is the raw fix-to-path distance above which a
	// match is flagged off-route.
	OffRouteThresholdKm float64
	// RerouteTriggerKm is the raw fix-to-path distance above which a
	// re-route request is signalled, once per pending request.
	RerouteTriggerKm float64
}

// DefaultMatcherConfig returns the tuning used in production: a 2-back /
// 15-forward segment window, a 15 m backward bias, a 50 m off-route
// threshold and a 100 m re-route trigger.
func DefaultMatcherConfig() MatcherConfig {
	return MatcherConfig{
		BackwardWindow:      2,
		ForwardWindow:       15,
		BackwardBiasKm:      0.015,
		OffRouteThresholdKm: 0.05,
		RerouteTriggerKm:    0.10,
	}
}

// Match is the outcome of snapping one raw fix onto a route.
type Match struct {
	// Point is the matched point, always exactly on the route.
	Point kernel.GeoPoint
	// SegmentIndex is the segment the fix was matched to.
	SegmentIndex int
	// Progress is the along-path fraction in [0, 1] after the monotonicity
	// rule; it never decreases across matches for one tracking pair.
	Progress float64
	// Bearing is the matched segment's bearing in degrees.
	Bearing float64
	// DeviationKm is the raw, unpenalized fix-to-path distance.
	DeviationKm float64
	// OffRoute reports that the deviation exceeds the off-route threshold.
	// It is a monitored condition, not an error; tracking continues.
	OffRoute bool
	// RerouteRequested reports that this match newly signalled a re-route.
	// At most one request is in flight per tracking pair; subsequent
	// trigger-level deviations stay false until the route is swapped.
	RerouteRequested bool
}

// MapMatcher is a domain service that snaps noisy position fixes onto an
// order's route, maintaining per-(order, courier) state with forward bias
// and monotonic progress.
//
// The matcher is the only writer of tracking.State. Processing for one
// tracking pair must be serialized by the caller; the matcher itself holds
// no locks.
type MapMatcher struct {
	cfg MatcherConfig
}

// NewMapMatcher creates a MapMatcher with the given tuning.
func NewMapMatcher(cfg MatcherConfig) MapMatcher {
	return MapMatcher{cfg: cfg}
}

// Match snaps one raw fix onto the route and advances the tracking state.
//
// The search covers segments in the window [last-BackwardWindow,
// last+ForwardWindow), clamped to the route. Each segment's perpendicular
// projection distance is penalized by BackwardBiasKm when the segment lies
// behind the last match; the minimum penalized distance wins. Progress is
// then clamped to never decrease, so duplicate or out-of-order fixes cannot
// move the marker backwards.
//
// State is updated only after the result is fully computed.
//
// Returns:
//   - Match: the matched point, segment, progress, bearing and flags
//   - error: ValidationError for invalid inputs, or a ConflictError when the
//     state references a different route than the one supplied
func (m MapMatcher) Match(r *route.Route, state *tracking.State, fix kernel.GeoPoint) (Match, error) {
	if err := r.Validate(); err != nil {
		return Match{}, err
	}
	if err := state.Validate(); err != nil {
		return Match{}, err
	}
	if err := fix.Validate(); err != nil {
		return Match{}, errs.NewValueIsRequiredErrorWithCause("fix", err)
	}
	if !state.RouteID().IsEqual(r.ID()) {
		return Match{}, errs.NewConflictError("tracking state", state.OrderID().String(),
			"state references a different route")
	}

	best, err := m.findBestProjection(r, state.LastSegmentIndex(), fix)
	if err != nil {
		return Match{}, err
	}

	candidateProgress := r.ProgressAt(best.SegmentIndex, best.T)
	bearing := r.SegmentBearing(best.SegmentIndex)

	result := Match{
		Point:        best.Point,
		SegmentIndex: best.SegmentIndex,
		Bearing:      bearing,
		DeviationKm:  best.DistanceKm,
		OffRoute:     best.DistanceKm > m.cfg.OffRouteThresholdKm,
	}
	if best.DistanceKm > m.cfg.RerouteTriggerKm {
		result.RerouteRequested = state.MarkReroutePending()
	}

	result.Progress = state.Advance(best.SegmentIndex, candidateProgress, bearing)
	return result, nil
}

// findBestProjection scans the bounded segment window around the last match
// and returns the projection with the minimum penalized distance.
func (m MapMatcher) findBestProjection(r *route.Route, lastSegment int, fix kernel.GeoPoint) (route.Projection, error) {
	start := lastSegment - m.cfg.BackwardWindow
	if start < 0 {
		start = 0
	}
	end := lastSegment + m.cfg.ForwardWindow
	if end > r.SegmentCount() {
		end = r.SegmentCount()
	}

	var best route.Projection
	bestPenalized := -1.0
	for i := start; i < end; i++ {
		proj, err := r.ProjectOntoSegment(fix, i)
		if err != nil {
			return route.Projection{}, err
		}

		penalized := proj.DistanceKm
		if i < lastSegment {
			penalized += m.cfg.BackwardBiasKm
		}

		// Ties resolve to the later segment, so a fix exactly on a shared
		// waypoint matches the segment it is about to enter.
		if bestPenalized < 0 || penalized <= bestPenalized {
			best = proj
			bestPenalized = penalized
		}
	}

	return best, nil
}
