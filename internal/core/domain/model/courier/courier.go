package courier

import (
	"errors"

	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/pkg/errs"
	"dispatch/internal/pkg/guard"
)

// Domain errors for courier operations.
var (
	// ErrNameIsRequired is returned when attempting to create a courier without a name.
	ErrNameIsRequired = errs.NewValueIsRequiredError("name")
	// ErrCourierIsNotConstructed is returned when using an improperly initialized Courier.
	ErrCourierIsNotConstructed = errors.New("Courier must be created via NewCourier constructor")
)

// Courier represents a delivery partner in the dispatch system.
// It is an aggregate root that manages courier identity, availability and
// live position.
//
// Key responsibilities:
//   - Managing courier identity (ID, name)
//   - Tracking availability (online flag, approval)
//   - Holding the last reported position (may be absent before the first fix)
//   - Holding explicit zone bindings used by candidate filtering
//
// Business rules:
//   - Courier must have a valid UUID and non-empty name
//   - A courier with no position, or with the device-default origin position,
//     is never eligible for assignment
//   - Zone bindings are optional; couriers without bindings are matched
//     geometrically in automatic mode
type Courier struct {
	id       kernel.UUID
	name     string
	online   bool
	approved bool
	position *kernel.GeoPoint
	zoneIDs  []kernel.UUID

	guard guard.ConstructorGuard
}

// NewCourier creates a new Courier with the specified identity.
// New couriers start offline and unapproved, with no position and no
// zone bindings.
func NewCourier(id kernel.UUID, name string) (*Courier, error) {
	c := &Courier{
		guard: guard.NewConstructorGuard(),
	}

	if err := errors.Join(
		c.setID(id),
		c.setName(name),
	); err != nil {
		return nil, err
	}

	return c, nil
}

// RestoreCourier reconstructs a Courier aggregate from persistent storage.
// Unlike NewCourier, it restores the full availability and position state.
func RestoreCourier(
	id kernel.UUID,
	name string,
	online bool,
	approved bool,
	position *kernel.GeoPoint,
	zoneIDs []kernel.UUID,
) (*Courier, error) {
	c, err := NewCourier(id, name)
	if err != nil {
		return nil, err
	}

	c.online = online
	c.approved = approved

	if position != nil {
		if err := position.Validate(); err != nil {
			return nil, err
		}
		p := *position
		c.position = &p
	}

	if err := c.setZoneIDs(zoneIDs); err != nil {
		return nil, err
	}

	return c, nil
}

// Validate ensures the Courier was created through a constructor.
func (c *Courier) Validate() error {
	if c == nil {
		return ErrCourierIsNotConstructed
	}
	return c.guard.Validate(ErrCourierIsNotConstructed)
}

// IsEqual compares two couriers by their unique identifiers.
func (c *Courier) IsEqual(other *Courier) bool {
	return other != nil && c.id.IsEqual(other.id)
}

// ID returns the courier's unique identifier.
func (c *Courier) ID() kernel.UUID {
	return c.id
}

// Name returns the courier's human-readable name.
func (c *Courier) Name() string {
	return c.name
}

// IsOnline reports whether the courier is currently accepting work.
func (c *Courier) IsOnline() bool {
	return c.online
}

// IsApproved reports whether the courier has passed onboarding approval.
func (c *Courier) IsApproved() bool {
	return c.approved
}

// Position returns the courier's last reported position, or nil if the
// courier has not reported one yet.
func (c *Courier) Position() *kernel.GeoPoint {
	if c.position == nil {
		return nil
	}
	p := *c.position
	return &p
}

// ZoneIDs returns a copy of the courier's explicit zone bindings.
func (c *Courier) ZoneIDs() []kernel.UUID {
	out := make([]kernel.UUID, len(c.zoneIDs))
	copy(out, c.zoneIDs)
	return out
}

// HasExplicitZones reports whether the courier carries any explicit zone
// binding. Couriers without bindings fall back to geometric containment in
// automatic assignment mode.
func (c *Courier) HasExplicitZones() bool {
	return len(c.zoneIDs) > 0
}

// IsBoundToZone reports whether the courier's explicit binding set contains
// the given zone.
func (c *Courier) IsBoundToZone(zoneID kernel.UUID) bool {
	for _, id := range c.zoneIDs {
		if id.IsEqual(zoneID) {
			return true
		}
	}
	return false
}

// HasUsablePosition reports whether the courier has a position that can be
// used for distance ranking: present and not the device-default origin.
func (c *Courier) HasUsablePosition() bool {
	return c.position != nil && !c.position.IsOrigin()
}

// UpdatePosition records a new live position for the courier.
func (c *Courier) UpdatePosition(p kernel.GeoPoint) error {
	if err := p.Validate(); err != nil {
		return err
	}

	c.position = &p
	return nil
}

// GoOnline marks the courier as accepting work.
func (c *Courier) GoOnline() {
	c.online = true
}

// GoOffline marks the courier as unavailable for new assignments.
func (c *Courier) GoOffline() {
	c.online = false
}

// Approve marks the courier as having passed onboarding approval.
func (c *Courier) Approve() {
	c.approved = true
}

// Suspend revokes the courier's approval.
func (c *Courier) Suspend() {
	c.approved = false
}

// BindZone adds an explicit zone binding. Binding the same zone twice is a
// no-op.
func (c *Courier) BindZone(zoneID kernel.UUID) error {
	if err := zoneID.Validate(); err != nil {
		return err
	}
	if c.IsBoundToZone(zoneID) {
		return nil
	}

	c.zoneIDs = append(c.zoneIDs, zoneID)
	return nil
}

func (c *Courier) setID(id kernel.UUID) error {
	if err := id.Validate(); err != nil {
		return err
	}
	c.id = id
	return nil
}

func (c *Courier) setName(name string) error {
	if name == "" {
		return ErrNameIsRequired
	}
	c.name = name
	return nil
}

func (c *Courier) setZoneIDs(zoneIDs []kernel.UUID) error {
	for _, id := range zoneIDs {
		if err := id.Validate(); err != nil {
			return err
		}
	}

	c.zoneIDs = make([]kernel.UUID, len(zoneIDs))
	copy(c.zoneIDs, zoneIDs)
	return nil
}
