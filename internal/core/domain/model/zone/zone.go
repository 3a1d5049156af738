package zone

import (
	"errors"

	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/pkg/errs"
	"dispatch/internal/pkg/guard"
)

// minContainmentVertices is the minimum ring size for a meaningful
// point-in-polygon test. Zones with fewer vertices never contain any point.
const minContainmentVertices = 3

var (
	// ErrZoneIsNotConstructed is returned when using an improperly initialized Zone.
	ErrZoneIsNotConstructed = errors.New("Zone must be created via NewZone constructor")
	// ErrNameIsRequired is returned when attempting to create a zone without a name.
	ErrNameIsRequired = errs.NewValueIsRequiredError("name")
)

// Geometry is the capability interface for zones that carry a precomputed
// containment structure (for example an R-tree or a prepared polygon from a
// geometry library). When a zone exposes one, Contains delegates to it;
// otherwise the zone falls back to its own ray-casting test. The capability
// is resolved once at construction, not probed per call.
type Geometry interface {
	Contains(p kernel.GeoPoint) bool
}

// Zone is a named polygonal service area bound to a restaurant.
// Couriers are matched against zones either by explicit binding or by
// geometric containment of their current position.
//
// The vertex ring is ordered; rings with fewer than 3 vertices are legal to
// store but never pass containment. Zone is an aggregate root and must be
// created via NewZone or RestoreZone.
type Zone struct {
	id           kernel.UUID
	name         string
	restaurantID kernel.UUID
	vertices     []kernel.GeoPoint
	active       bool
	geometry     Geometry

	guard guard.ConstructorGuard
}

// NewZone creates a new Zone bound to a restaurant.
//
// Parameters:
//   - id: Unique identifier for the zone
//   - name: Human-readable zone name (must be non-empty)
//   - restaurantID: The restaurant this service area belongs to
//   - vertices: Ordered polygon ring (each vertex must be constructed);
//     fewer than 3 vertices is allowed but disables containment
//   - active: Whether the zone currently participates in dispatch
//
// Returns a validation error if any parameter is invalid.
func NewZone(
	id kernel.UUID,
	name string,
	restaurantID kernel.UUID,
	vertices []kernel.GeoPoint,
	active bool,
) (*Zone, error) {
	z := &Zone{
		active: active,
		guard:  guard.NewConstructorGuard(),
	}

	if err := errors.Join(
		z.setID(id),
		z.setName(name),
		z.setRestaurantID(restaurantID),
		z.setVertices(vertices),
	); err != nil {
		return nil, err
	}

	return z, nil
}

// NewZoneWithGeometry creates a Zone that delegates containment to a
// precomputed Geometry implementation instead of the built-in ray-casting
// test. Used when richer zone geometry is available from the zone source.
func NewZoneWithGeometry(
	id kernel.UUID,
	name string,
	restaurantID kernel.UUID,
	vertices []kernel.GeoPoint,
	active bool,
	geometry Geometry,
) (*Zone, error) {
	z, err := NewZone(id, name, restaurantID, vertices, active)
	if err != nil {
		return nil, err
	}

	z.geometry = geometry
	return z, nil
}

// RestoreZone reconstructs a Zone from persistent storage.
func RestoreZone(
	id kernel.UUID,
	name string,
	restaurantID kernel.UUID,
	vertices []kernel.GeoPoint,
	active bool,
) (*Zone, error) {
	return NewZone(id, name, restaurantID, vertices, active)
}

// Validate ensures the Zone was created through a constructor.
func (z *Zone) Validate() error {
	if z == nil {
		return ErrZoneIsNotConstructed
	}
	return z.guard.Validate(ErrZoneIsNotConstructed)
}

// ID returns the zone's unique identifier.
func (z *Zone) ID() kernel.UUID {
	return z.id
}

// Name returns the zone's human-readable name.
func (z *Zone) Name() string {
	return z.name
}

// RestaurantID returns the restaurant this zone is bound to.
func (z *Zone) RestaurantID() kernel.UUID {
	return z.restaurantID
}

// IsActive reports whether the zone participates in dispatch.
func (z *Zone) IsActive() bool {
	return z.active
}

// Vertices returns a copy of the polygon ring.
func (z *Zone) Vertices() []kernel.GeoPoint {
	out := make([]kernel.GeoPoint, len(z.vertices))
	copy(out, z.vertices)
	return out
}

// Contains reports whether the point lies inside the zone polygon.
//
// If the zone carries precomputed geometry, the test is delegated to it.
// Otherwise a ray-casting even-odd test runs over the vertex ring: for each
// edge whose latitude span straddles the point's latitude, the "inside" flag
// toggles when the point's longitude is left of the edge at that latitude.
// Rings with fewer than 3 vertices never contain any point.
func (z *Zone) Contains(p kernel.GeoPoint) (bool, error) {
	if err := errors.Join(z.Validate(), p.Validate()); err != nil {
		return false, err
	}

	if z.geometry != nil {
		return z.geometry.Contains(p), nil
	}

	if len(z.vertices) < minContainmentVertices {
		return false, nil
	}

	inside := false
	j := len(z.vertices) - 1
	for i := range z.vertices {
		vi := z.vertices[i]
		vj := z.vertices[j]

		straddles := (vi.Lat() > p.Lat()) != (vj.Lat() > p.Lat())
		if straddles {
			edgeLngAtLat := (vj.Lng()-vi.Lng())*(p.Lat()-vi.Lat())/(vj.Lat()-vi.Lat()) + vi.Lng()
			if p.Lng() < edgeLngAtLat {
				inside = !inside
			}
		}
		j = i
	}

	return inside, nil
}

func (z *Zone) setID(id kernel.UUID) error {
	if err := id.Validate(); err != nil {
		return err
	}
	z.id = id
	return nil
}

func (z *Zone) setName(name string) error {
	if name == "" {
		return ErrNameIsRequired
	}
	z.name = name
	return nil
}

func (z *Zone) setRestaurantID(restaurantID kernel.UUID) error {
	if err := restaurantID.Validate(); err != nil {
		return err
	}
	z.restaurantID = restaurantID
	return nil
}

func (z *Zone) setVertices(vertices []kernel.GeoPoint) error {
	for _, v := range vertices {
		if err := v.Validate(); err != nil {
			return errs.NewValueIsInvalidErrorWithCause("vertices", err)
		}
	}

	z.vertices = make([]kernel.GeoPoint, len(vertices))
	copy(z.vertices, vertices)
	return nil
}
