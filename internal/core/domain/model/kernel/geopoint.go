package kernel

import (
	"errors"
	"fmt"
	"math"

	"dispatch/internal/pkg/errs"
	"dispatch/internal/pkg/guard"
)

const (
	// MinLatitude is the minimum valid latitude in decimal degrees.
	MinLatitude = -90.0
	// MaxLatitude is the maximum valid latitude in decimal degrees.
	MaxLatitude = 90.0
	// MinLongitude is the minimum valid longitude in decimal degrees.
	MinLongitude = -180.0
	// MaxLongitude is the maximum valid longitude in decimal degrees.
	MaxLongitude = 180.0

	// earthRadiusKm is the mean Earth radius used by the haversine formula.
	earthRadiusKm = 6371.0
)

// ErrGeoPointIsNotConstructed is returned when attempting to use an improperly
// initialized GeoPoint. GeoPoints must be created via NewGeoPoint.
var ErrGeoPointIsNotConstructed = errs.NewValueIsRequiredError(
	"geo point must be created via NewGeoPoint constructor")

// GeoPoint represents a WGS84 coordinate in decimal degrees.
// GeoPoint is an immutable value object; the zero value is invalid and
// fails validation; use NewGeoPoint to create instances.
//
// Example:
//
//	p, err := kernel.NewGeoPoint(12.9716, 77.5946)
//	if err != nil {
//	    // Handle validation error
//	}
//	fmt.Println(p) // GeoPoint(12.971600,77.594600)
type GeoPoint struct { //nolint:recvcheck //using for validation
	lat   float64
	lng   float64
	guard guard.ConstructorGuard
}

// NewGeoPoint creates a new GeoPoint with the specified coordinates.
// Latitude must be within [-90, 90] and longitude within [-180, 180];
// NaN coordinates are rejected. Returns an aggregated error if either
// coordinate is invalid.
func NewGeoPoint(lat, lng float64) (GeoPoint, error) {
	p := GeoPoint{
		guard: guard.NewConstructorGuard(),
	}

	if err := errors.Join(p.setLat(lat), p.setLng(lng)); err != nil {
		return GeoPoint{}, err
	}

	return p, nil
}

// Validate checks if the GeoPoint was properly constructed using NewGeoPoint.
// The zero value of GeoPoint is invalid and fails this validation.
func (p GeoPoint) Validate() error {
	return p.guard.Validate(ErrGeoPointIsNotConstructed)
}

// Lat returns the latitude in decimal degrees.
func (p GeoPoint) Lat() float64 {
	return p.lat
}

// Lng returns the longitude in decimal degrees.
func (p GeoPoint) Lng() float64 {
	return p.lng
}

// IsOrigin reports whether the point is exactly (0, 0). Device trackers emit
// the origin before they obtain a GPS fix, so the origin is treated as an
// unusable position by candidate filtering.
func (p GeoPoint) IsOrigin() bool {
	return p.lat == 0 && p.lng == 0
}

// String implements fmt.Stringer.
func (p GeoPoint) String() string {
	return fmt.Sprintf("GeoPoint(%f,%f)", p.lat, p.lng)
}

// IsEqual compares two points for exact coordinate equality.
// Both points must be properly constructed.
func (p GeoPoint) IsEqual(other GeoPoint) (bool, error) {
	if err := errors.Join(p.Validate(), other.Validate()); err != nil {
		return false, err
	}

	return p.lat == other.lat && p.lng == other.lng, nil
}

// DistanceKm returns the great-circle distance in kilometres between two
// points, computed with the haversine formula over a spherical Earth of
// radius 6371 km.
//
// The distance is symmetric and DistanceKm(p, p) == 0.
func (p GeoPoint) DistanceKm(other GeoPoint) (float64, error) {
	if err := errors.Join(p.Validate(), other.Validate()); err != nil {
		return 0, err
	}

	return HaversineKm(p.lat, p.lng, other.lat, other.lng), nil
}

// BearingTo returns the initial great-circle bearing from p to other in
// degrees clockwise from true north, in [0, 360).
func (p GeoPoint) BearingTo(other GeoPoint) (float64, error) {
	if err := errors.Join(p.Validate(), other.Validate()); err != nil {
		return 0, err
	}

	phi1 := degreesToRadians(p.lat)
	phi2 := degreesToRadians(other.lat)
	dLng := degreesToRadians(other.lng - p.lng)

	y := math.Sin(dLng) * math.Cos(phi2)
	x := math.Cos(phi1)*math.Sin(phi2) - math.Sin(phi1)*math.Cos(phi2)*math.Cos(dLng)

	bearing := math.Atan2(y, x) * 180.0 / math.Pi
	return math.Mod(bearing+360.0, 360.0), nil
}

// Interpolate returns the point a fraction t of the way from a to b, using
// linear interpolation in coordinate space. t is clamped to [0, 1], so the
// result always lies on the segment between the two points.
// Both points must be properly constructed.
func Interpolate(a, b GeoPoint, t float64) (GeoPoint, error) {
	if err := errors.Join(a.Validate(), b.Validate()); err != nil {
		return GeoPoint{}, err
	}

	t = math.Max(0, math.Min(1, t))

	// Return the endpoints verbatim so interpolation at the extremes is
	// exact rather than subject to floating-point rounding.
	if t == 0 {
		return a, nil
	}
	if t == 1 {
		return b, nil
	}

	return GeoPoint{
		lat:   a.lat + (b.lat-a.lat)*t,
		lng:   a.lng + (b.lng-a.lng)*t,
		guard: guard.NewConstructorGuard(),
	}, nil
}

// HaversineKm returns the great-circle distance in kilometres between two
// coordinates specified in decimal degrees. Exposed as a plain function for
// callers that work with raw coordinates rather than constructed GeoPoints.
func HaversineKm(lat1, lng1, lat2, lng2 float64) float64 {
	dLat := degreesToRadians(lat2 - lat1)
	dLng := degreesToRadians(lng2 - lng1)

	rLat1 := degreesToRadians(lat1)
	rLat2 := degreesToRadians(lat2)

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(rLat1)*math.Cos(rLat2)*math.Sin(dLng/2)*math.Sin(dLng/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return earthRadiusKm * c
}

func degreesToRadians(deg float64) float64 {
	return deg * math.Pi / 180.0
}

func (p *GeoPoint) setLat(lat float64) error {
	if math.IsNaN(lat) {
		return errs.NewValueIsInvalidError("latitude")
	}
	if lat < MinLatitude || lat > MaxLatitude {
		return errs.NewValueIsOutOfRangeError("latitude", lat, MinLatitude, MaxLatitude)
	}

	p.lat = lat
	return nil
}

func (p *GeoPoint) setLng(lng float64) error {
	if math.IsNaN(lng) {
		return errs.NewValueIsInvalidError("longitude")
	}
	if lng < MinLongitude || lng > MaxLongitude {
		return errs.NewValueIsOutOfRangeError("longitude", lng, MinLongitude, MaxLongitude)
	}

	p.lng = lng
	return nil
}
