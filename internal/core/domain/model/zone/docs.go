// Package zone contains the service-area aggregate.
//
// A Zone is a named polygon bound to a restaurant. Dispatch uses zones in
// two ways: couriers may be explicitly bound to a zone (roster membership),
// or their live position may be tested geometrically against the zone
// polygon. The geometric test is a ray-casting even-odd test; zones that
// expose precomputed geometry (the Geometry capability interface) delegate
// to it instead.
package zone
