package zone_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/core/domain/model/zone"
)

func mustPoint(t *testing.T, lat, lng float64) kernel.GeoPoint {
	t.Helper()
	p, err := kernel.NewGeoPoint(lat, lng)
	require.NoError(t, err)
	return p
}

// squareRing returns a simple square polygon around the given center.
func squareRing(t *testing.T, centerLat, centerLng, half float64) []kernel.GeoPoint {
	t.Helper()
	return []kernel.GeoPoint{
		mustPoint(t, centerLat-half, centerLng-half),
		mustPoint(t, centerLat-half, centerLng+half),
		mustPoint(t, centerLat+half, centerLng+half),
		mustPoint(t, centerLat+half, centerLng-half),
	}
}

func TestNewZone(t *testing.T) {
	t.Run("valid zone", func(t *testing.T) {
		z, err := zone.NewZone(kernel.NewUUID(), "Koramangala", kernel.NewUUID(),
			squareRing(t, 12.93, 77.62, 0.02), true)

		require.NoError(t, err)
		require.NoError(t, z.Validate())
		assert.Equal(t, "Koramangala", z.Name())
		assert.True(t, z.IsActive())
		assert.Len(t, z.Vertices(), 4)
	})

	t.Run("empty name is rejected", func(t *testing.T) {
		_, err := zone.NewZone(kernel.NewUUID(), "", kernel.NewUUID(),
			squareRing(t, 12.93, 77.62, 0.02), true)

		require.Error(t, err)
		assert.ErrorIs(t, err, zone.ErrNameIsRequired)
	})

	t.Run("invalid id is rejected", func(t *testing.T) {
		var badID kernel.UUID
		_, err := zone.NewZone(badID, "Indiranagar", kernel.NewUUID(), nil, true)

		require.Error(t, err)
	})

	t.Run("unconstructed vertex is rejected", func(t *testing.T) {
		var badVertex kernel.GeoPoint
		_, err := zone.NewZone(kernel.NewUUID(), "Indiranagar", kernel.NewUUID(),
			[]kernel.GeoPoint{badVertex}, true)

		require.Error(t, err)
	})

	t.Run("degenerate ring is storable", func(t *testing.T) {
		z, err := zone.NewZone(kernel.NewUUID(), "Stub", kernel.NewUUID(),
			[]kernel.GeoPoint{mustPoint(t, 12.9, 77.6)}, true)

		require.NoError(t, err)
		require.NoError(t, z.Validate())
	})
}

func TestZone_Validate(t *testing.T) {
	t.Run("nil zone fails", func(t *testing.T) {
		var z *zone.Zone
		require.ErrorIs(t, z.Validate(), zone.ErrZoneIsNotConstructed)
	})

	t.Run("zero value fails", func(t *testing.T) {
		z := &zone.Zone{}
		require.ErrorIs(t, z.Validate(), zone.ErrZoneIsNotConstructed)
	})
}

func TestZone_Contains(t *testing.T) {
	ring := squareRing(t, 12.93, 77.62, 0.02)

	z, err := zone.NewZone(kernel.NewUUID(), "Koramangala", kernel.NewUUID(), ring, true)
	require.NoError(t, err)

	t.Run("point strictly inside", func(t *testing.T) {
		inside, err := z.Contains(mustPoint(t, 12.93, 77.62))
		require.NoError(t, err)
		assert.True(t, inside)
	})

	t.Run("point strictly outside", func(t *testing.T) {
		inside, err := z.Contains(mustPoint(t, 12.99, 77.62))
		require.NoError(t, err)
		assert.False(t, inside)

		inside, err = z.Contains(mustPoint(t, 12.93, 77.70))
		require.NoError(t, err)
		assert.False(t, inside)
	})

	t.Run("point near a corner but inside", func(t *testing.T) {
		inside, err := z.Contains(mustPoint(t, 12.9101, 77.6001))
		require.NoError(t, err)
		assert.True(t, inside)
	})

	t.Run("non-convex polygon", func(t *testing.T) {
		// L-shaped ring: the notch at the upper right is outside.
		lShape := []kernel.GeoPoint{
			mustPoint(t, 12.90, 77.60),
			mustPoint(t, 12.90, 77.66),
			mustPoint(t, 12.93, 77.66),
			mustPoint(t, 12.93, 77.63),
			mustPoint(t, 12.96, 77.63),
			mustPoint(t, 12.96, 77.60),
		}
		lz, err := zone.NewZone(kernel.NewUUID(), "LShape", kernel.NewUUID(), lShape, true)
		require.NoError(t, err)

		inside, err := lz.Contains(mustPoint(t, 12.91, 77.61))
		require.NoError(t, err)
		assert.True(t, inside)

		// Inside the notch.
		inside, err = lz.Contains(mustPoint(t, 12.95, 77.65))
		require.NoError(t, err)
		assert.False(t, inside)
	})

	t.Run("ring with fewer than 3 vertices never contains", func(t *testing.T) {
		degenerate, err := zone.NewZone(kernel.NewUUID(), "Line", kernel.NewUUID(),
			[]kernel.GeoPoint{mustPoint(t, 12.90, 77.60), mustPoint(t, 12.96, 77.66)}, true)
		require.NoError(t, err)

		inside, err := degenerate.Contains(mustPoint(t, 12.93, 77.63))
		require.NoError(t, err)
		assert.False(t, inside)
	})

	t.Run("unconstructed point fails", func(t *testing.T) {
		var p kernel.GeoPoint
		_, err := z.Contains(p)
		require.Error(t, err)
	})
}

type stubGeometry struct {
	result bool
	calls  int
}

func (s *stubGeometry) Contains(kernel.GeoPoint) bool {
	s.calls++
	return s.result
}

func TestZone_ContainsWithGeometry(t *testing.T) {
	// With precomputed geometry the ray-casting test is bypassed entirely,
	// even for a ring that would say otherwise.
	geo := &stubGeometry{result: true}
	z, err := zone.NewZoneWithGeometry(kernel.NewUUID(), "Prepared", kernel.NewUUID(),
		nil, true, geo)
	require.NoError(t, err)

	inside, err := z.Contains(mustPoint(t, 0.0001, 0.0001))
	require.NoError(t, err)
	assert.True(t, inside)
	assert.Equal(t, 1, geo.calls)
}
