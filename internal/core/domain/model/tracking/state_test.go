package tracking

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dispatch/internal/core/domain/model/kernel"
)

func newState(t *testing.T) *State {
	t.Helper()
	s, err := NewState(kernel.NewUUID(), kernel.NewUUID(), kernel.NewUUID())
	require.NoError(t, err)
	return s
}

func TestNewState(t *testing.T) {
	t.Run("starts zeroed", func(t *testing.T) {
		s := newState(t)

		assert.Equal(t, 0, s.LastSegmentIndex())
		assert.Equal(t, 0.0, s.LastProgress())
		assert.Equal(t, 0.0, s.LastBearing())
		assert.False(t, s.ReroutePending())
		assert.NoError(t, s.Validate())
	})

	t.Run("rejects empty identifiers", func(t *testing.T) {
		_, err := NewState(kernel.UUID{}, kernel.NewUUID(), kernel.NewUUID())
		assert.Error(t, err)

		_, err = NewState(kernel.NewUUID(), kernel.UUID{}, kernel.NewUUID())
		assert.Error(t, err)

		_, err = NewState(kernel.NewUUID(), kernel.NewUUID(), kernel.UUID{})
		assert.Error(t, err)
	})
}

func TestStateAdvance(t *testing.T) {
	t.Run("records forward matches", func(t *testing.T) {
		s := newState(t)

		final := s.Advance(3, 0.4, 90)

		assert.Equal(t, 0.4, final)
		assert.Equal(t, 3, s.LastSegmentIndex())
		assert.Equal(t, 0.4, s.LastProgress())
		assert.Equal(t, 90.0, s.LastBearing())
	})

	t.Run("progress never decreases", func(t *testing.T) {
		s := newState(t)
		s.Advance(5, 0.6, 45)

		final := s.Advance(3, 0.2, 180)

		assert.Equal(t, 0.6, final)
		assert.Equal(t, 0.6, s.LastProgress())
		// The segment and bearing still follow the latest match.
		assert.Equal(t, 3, s.LastSegmentIndex())
		assert.Equal(t, 180.0, s.LastBearing())
	})

	t.Run("progress is non-decreasing across any fix order", func(t *testing.T) {
		s := newState(t)
		last := 0.0

		for _, p := range []float64{0.1, 0.5, 0.3, 0.5, 0.9, 0.2, 1.0} {
			final := s.Advance(0, p, 0)
			assert.GreaterOrEqual(t, final, last)
			last = final
		}
		assert.Equal(t, 1.0, s.LastProgress())
	})
}

func TestStateReroute(t *testing.T) {
	t.Run("first mark wins, duplicates are suppressed", func(t *testing.T) {
		s := newState(t)

		assert.True(t, s.MarkReroutePending())
		assert.False(t, s.MarkReroutePending())
		assert.True(t, s.ReroutePending())
	})

	t.Run("clearing the flag after a failed attempt allows a fresh mark", func(t *testing.T) {
		s := newState(t)

		require.True(t, s.MarkReroutePending())
		s.ClearReroutePending()

		assert.False(t, s.ReroutePending())
		assert.True(t, s.MarkReroutePending(), "the next deviation issues a new request")
	})

	t.Run("route swap resets matching and clears the pending flag", func(t *testing.T) {
		s := newState(t)
		s.Advance(7, 0.8, 270)
		s.MarkReroutePending()

		newRouteID := kernel.NewUUID()
		require.NoError(t, s.SwapRoute(newRouteID))

		assert.True(t, s.RouteID().IsEqual(newRouteID))
		assert.Equal(t, 0, s.LastSegmentIndex())
		assert.Equal(t, 0.0, s.LastProgress())
		assert.False(t, s.ReroutePending())
		assert.True(t, s.MarkReroutePending())
	})

	t.Run("swap rejects an empty route id", func(t *testing.T) {
		s := newState(t)
		assert.Error(t, s.SwapRoute(kernel.UUID{}))
	})
}
