package route

import (
	"fmt"
	"math"

	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/pkg/errs"
	"dispatch/internal/pkg/guard"
)

// minWaypoints is the smallest waypoint list that forms a usable path.
const minWaypoints = 2

// Route is an ordered waypoint list approximating the road path a courier
// follows for one order. Cumulative along-path distances and per-segment
// bearings are precomputed at construction, so progress and projection
// queries never recompute geometry.
//
// A Route is immutable; re-routing replaces the whole Route rather than
// mutating it.
type Route struct {
	guard guard.ConstructorGuard

	id      kernel.UUID
	orderID kernel.UUID
	points  []kernel.GeoPoint

	// cumulativeKm[i] is the along-path distance from points[0] to points[i].
	cumulativeKm []float64
	// bearings[i] is the bearing of the segment points[i] -> points[i+1].
	bearings []float64
	totalKm  float64
}

// NewRoute creates a route for an order from an ordered waypoint list.
//
// Parameters:
//   - id: unique identifier of the route
//   - orderID: the order this route serves
//   - points: at least two properly constructed waypoints; consecutive
//     duplicates are allowed and contribute zero-length segments
//
// Returns:
//   - *Route: an immutable route with precomputed distances and bearings
//   - error: ValidationError if identifiers or waypoints are invalid
func NewRoute(id kernel.UUID, orderID kernel.UUID, points []kernel.GeoPoint) (*Route, error) {
	if err := id.Validate(); err != nil {
		return nil, errs.NewValueIsRequiredErrorWithCause("id", err)
	}
	if err := orderID.Validate(); err != nil {
		return nil, errs.NewValueIsRequiredErrorWithCause("orderID", err)
	}
	if len(points) < minWaypoints {
		return nil, errs.NewValueIsOutOfRangeError("points", len(points), minWaypoints, math.MaxInt)
	}
	for i, p := range points {
		if err := p.Validate(); err != nil {
			return nil, errs.NewValueIsRequiredErrorWithCause(fmt.Sprintf("points[%d]", i), err)
		}
	}

	waypoints := make([]kernel.GeoPoint, len(points))
	copy(waypoints, points)

	cumulative := make([]float64, len(waypoints))
	bearings := make([]float64, len(waypoints)-1)
	for i := 1; i < len(waypoints); i++ {
		prev, cur := waypoints[i-1], waypoints[i]
		cumulative[i] = cumulative[i-1] +
			kernel.HaversineKm(prev.Lat(), prev.Lng(), cur.Lat(), cur.Lng())

		bearing, err := prev.BearingTo(cur)
		if err != nil {
			return nil, err
		}
		bearings[i-1] = bearing
	}

	return &Route{
		guard:        guard.NewConstructorGuard(),
		id:           id,
		orderID:      orderID,
		points:       waypoints,
		cumulativeKm: cumulative,
		bearings:     bearings,
		totalKm:      cumulative[len(cumulative)-1],
	}, nil
}

// ID returns the unique identifier of the route.
func (r *Route) ID() kernel.UUID {
	return r.id
}

// OrderID returns the order this route serves.
func (r *Route) OrderID() kernel.UUID {
	return r.orderID
}

// Points returns a copy of the ordered waypoint list.
func (r *Route) Points() []kernel.GeoPoint {
	points := make([]kernel.GeoPoint, len(r.points))
	copy(points, r.points)
	return points
}

// TotalKm returns the total along-path length in kilometres.
func (r *Route) TotalKm() float64 {
	return r.totalKm
}

// SegmentCount returns the number of segments, one less than the number
// of waypoints.
func (r *Route) SegmentCount() int {
	return len(r.points) - 1
}

// SegmentBearing returns the bearing of segment i in degrees clockwise
// from true north. A zero-length segment has bearing 0.
func (r *Route) SegmentBearing(i int) float64 {
	if i < 0 {
		i = 0
	}
	if i >= len(r.bearings) {
		i = len(r.bearings) - 1
	}
	return r.bearings[i]
}

// ProgressAt converts a match position, expressed as a segment index and a
// parametric offset t within that segment, into a progress fraction in [0, 1]
// of the total path length. A zero-length route always reports progress 0.
func (r *Route) ProgressAt(segment int, t float64) float64 {
	if r.totalKm == 0 {
		return 0
	}

	segment = r.clampSegment(segment)
	t = math.Max(0, math.Min(1, t))
	segmentKm := r.cumulativeKm[segment+1] - r.cumulativeKm[segment]

	return (r.cumulativeKm[segment] + t*segmentKm) / r.totalKm
}

// PointAtProgress resolves the exact on-path point at the given progress
// fraction by linear interpolation within the enclosing segment. Progress is
// clamped to [0, 1]: 0 yields the first waypoint and 1 yields the last one
// exactly.
func (r *Route) PointAtProgress(progress float64) kernel.GeoPoint {
	segment, t := r.locate(progress)
	point, _ := kernel.Interpolate(r.points[segment], r.points[segment+1], t)
	return point
}

// BearingAtProgress returns the bearing of the segment enclosing the given
// progress fraction.
func (r *Route) BearingAtProgress(progress float64) float64 {
	segment, _ := r.locate(progress)
	return r.bearings[segment]
}

// Projection is the result of perpendicularly projecting a raw position fix
// onto one segment of the route.
type Projection struct {
	// SegmentIndex is the segment the fix was projected onto.
	SegmentIndex int
	// T is the parametric offset of the projected point within the segment,
	// clamped to [0, 1].
	T float64
	// Point is the projected point, always exactly on the segment.
	Point kernel.GeoPoint
	// DistanceKm is the great-circle distance from the fix to Point.
	DistanceKm float64
}

// ProjectOntoSegment projects a raw fix perpendicularly onto segment i.
// The projection uses a local equirectangular plane anchored at the segment,
// which is accurate at the street scale map matching operates on; the
// fix-to-path distance is then measured with the haversine formula.
//
// The parametric offset is clamped to [0, 1], so fixes beyond either segment
// endpoint project onto that endpoint.
func (r *Route) ProjectOntoSegment(fix kernel.GeoPoint, i int) (Projection, error) {
	if err := fix.Validate(); err != nil {
		return Projection{}, errs.NewValueIsRequiredErrorWithCause("fix", err)
	}
	if i < 0 || i >= r.SegmentCount() {
		return Projection{}, errs.NewValueIsOutOfRangeError("segment", i, 0, r.SegmentCount()-1)
	}

	a, b := r.points[i], r.points[i+1]

	// Local plane: longitude compressed by cos(latitude) so both axes are
	// in comparable degree units.
	latScale := math.Cos((a.Lat() + b.Lat()) / 2 * math.Pi / 180)
	ax, ay := a.Lng()*latScale, a.Lat()
	bx, by := b.Lng()*latScale, b.Lat()
	px, py := fix.Lng()*latScale, fix.Lat()

	dx, dy := bx-ax, by-ay
	lengthSq := dx*dx + dy*dy

	t := 0.0
	if lengthSq > 0 {
		t = ((px-ax)*dx + (py-ay)*dy) / lengthSq
		t = math.Max(0, math.Min(1, t))
	}

	point, err := kernel.Interpolate(a, b, t)
	if err != nil {
		return Projection{}, err
	}

	distanceKm, err := fix.DistanceKm(point)
	if err != nil {
		return Projection{}, err
	}

	return Projection{
		SegmentIndex: i,
		T:            t,
		Point:        point,
		DistanceKm:   distanceKm,
	}, nil
}

// Validate checks that the route was properly constructed.
func (r *Route) Validate() error {
	return r.guard.Validate(errs.NewValueIsInvalidError("route"))
}

// locate finds the segment enclosing the given progress fraction and the
// parametric offset within it. The boundary between two segments resolves to
// the later segment, except at progress 1 which stays on the final segment.
func (r *Route) locate(progress float64) (int, float64) {
	progress = math.Max(0, math.Min(1, progress))

	if r.totalKm == 0 {
		return 0, 0
	}
	if progress == 1 {
		return len(r.points) - 2, 1
	}

	target := progress * r.totalKm
	for i := 0; i < len(r.points)-1; i++ {
		if target < r.cumulativeKm[i+1] {
			segmentKm := r.cumulativeKm[i+1] - r.cumulativeKm[i]
			if segmentKm == 0 {
				continue
			}
			return i, (target - r.cumulativeKm[i]) / segmentKm
		}
	}

	return len(r.points) - 2, 1
}

func (r *Route) clampSegment(segment int) int {
	if segment < 0 {
		return 0
	}
	if segment >= r.SegmentCount() {
		return r.SegmentCount() - 1
	}
	return segment
}
