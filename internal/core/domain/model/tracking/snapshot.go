package tracking

import (
	"time"

	"dispatch/internal/core/domain/model/kernel"
)

// Snapshot is one rendered tracking frame: the on-path position and bearing
// of the courier's marker at a moment in time. Frames are produced by the
// animator and pushed to the order's watchers.
type Snapshot struct {
	Position kernel.GeoPoint
	Bearing  float64
	At       time.Time
}

// Fix is one raw location report from a courier's client. The heading is
// optional; most devices only report it while moving.
type Fix struct {
	CourierID kernel.UUID
	Position  kernel.GeoPoint
	Heading   *float64
	At        time.Time
}
