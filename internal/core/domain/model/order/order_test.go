package order

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/pkg/errs"
)

func validOrder(t *testing.T) *Order {
	t.Helper()

	pickup, err := kernel.NewGeoPoint(12.9716, 77.5946)
	require.NoError(t, err)
	dropoff, err := kernel.NewGeoPoint(12.9352, 77.6245)
	require.NoError(t, err)

	o, err := NewOrder(kernel.NewUUID(), kernel.NewUUID(), pickup, dropoff, time.Now())
	require.NoError(t, err)
	return o
}

func TestNewOrder(t *testing.T) {
	pickup, _ := kernel.NewGeoPoint(12.9716, 77.5946)
	dropoff, _ := kernel.NewGeoPoint(12.9352, 77.6245)
	readyAt := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	t.Run("creates order in ready status without courier", func(t *testing.T) {
		id := kernel.NewUUID()
		restaurantID := kernel.NewUUID()

		o, err := NewOrder(id, restaurantID, pickup, dropoff, readyAt)

		require.NoError(t, err)
		assert.Equal(t, id, o.ID())
		assert.Equal(t, restaurantID, o.RestaurantID())
		assert.Equal(t, pickup, o.Pickup())
		assert.Equal(t, dropoff, o.Dropoff())
		assert.Equal(t, readyAt, o.ReadyAt())
		assert.Equal(t, Ready, o.Status())
		assert.Nil(t, o.CourierID())
		assert.False(t, o.IsAssigned())
		assert.NoError(t, o.Validate())
	})

	t.Run("rejects empty identifiers and locations", func(t *testing.T) {
		tests := []struct {
			name string
			fn   func() (*Order, error)
		}{
			{"empty id", func() (*Order, error) {
				return NewOrder(kernel.UUID{}, kernel.NewUUID(), pickup, dropoff, readyAt)
			}},
			{"empty restaurant id", func() (*Order, error) {
				return NewOrder(kernel.NewUUID(), kernel.UUID{}, pickup, dropoff, readyAt)
			}},
			{"empty pickup", func() (*Order, error) {
				return NewOrder(kernel.NewUUID(), kernel.NewUUID(), kernel.GeoPoint{}, dropoff, readyAt)
			}},
			{"empty dropoff", func() (*Order, error) {
				return NewOrder(kernel.NewUUID(), kernel.NewUUID(), pickup, kernel.GeoPoint{}, readyAt)
			}},
			{"zero readyAt", func() (*Order, error) {
				return NewOrder(kernel.NewUUID(), kernel.NewUUID(), pickup, dropoff, time.Time{})
			}},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				o, err := tt.fn()
				assert.Nil(t, o)
				assert.True(t, errors.Is(err, errs.ErrValueIsRequired))
			})
		}
	})
}

func TestRestoreOrder(t *testing.T) {
	pickup, _ := kernel.NewGeoPoint(12.9716, 77.5946)
	dropoff, _ := kernel.NewGeoPoint(12.9352, 77.6245)
	readyAt := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	t.Run("restores status and courier as stored", func(t *testing.T) {
		courierID := kernel.NewUUID()

		o, err := RestoreOrder(kernel.NewUUID(), kernel.NewUUID(), pickup, dropoff, readyAt, OnTheWay, &courierID)

		require.NoError(t, err)
		assert.Equal(t, OnTheWay, o.Status())
		require.NotNil(t, o.CourierID())
		assert.True(t, o.CourierID().IsEqual(courierID))
	})

	t.Run("rejects invalid stored status", func(t *testing.T) {
		_, err := RestoreOrder(kernel.NewUUID(), kernel.NewUUID(), pickup, dropoff, readyAt, Unknown, nil)
		assert.Error(t, err)
	})
}

func TestOrderAssign(t *testing.T) {
	t.Run("assigns courier to ready order", func(t *testing.T) {
		o := validOrder(t)
		courierID := kernel.NewUUID()

		err := o.Assign(courierID)

		require.NoError(t, err)
		assert.Equal(t, Assigned, o.Status())
		require.NotNil(t, o.CourierID())
		assert.True(t, o.CourierID().IsEqual(courierID))
		assert.True(t, o.IsAssigned())
	})

	t.Run("second assignment conflicts", func(t *testing.T) {
		o := validOrder(t)
		require.NoError(t, o.Assign(kernel.NewUUID()))

		err := o.Assign(kernel.NewUUID())

		assert.True(t, errors.Is(err, errs.ErrConflict))
		assert.Equal(t, Assigned, o.Status())
	})

	t.Run("cancelled order cannot be assigned", func(t *testing.T) {
		o := validOrder(t)
		require.NoError(t, o.Cancel())

		err := o.Assign(kernel.NewUUID())

		assert.True(t, errors.Is(err, errs.ErrConflict))
	})

	t.Run("rejects empty courier id", func(t *testing.T) {
		o := validOrder(t)

		err := o.Assign(kernel.UUID{})

		assert.True(t, errors.Is(err, errs.ErrValueIsRequired))
		assert.False(t, o.IsAssigned())
	})
}

func TestOrderLifecycle(t *testing.T) {
	t.Run("full delivery flow", func(t *testing.T) {
		o := validOrder(t)

		require.NoError(t, o.Assign(kernel.NewUUID()))
		require.NoError(t, o.PickUp())
		require.NoError(t, o.StartDelivery())
		require.NoError(t, o.Complete())

		assert.Equal(t, Delivered, o.Status())
	})

	t.Run("cancel mid delivery", func(t *testing.T) {
		o := validOrder(t)
		require.NoError(t, o.Assign(kernel.NewUUID()))
		require.NoError(t, o.PickUp())

		require.NoError(t, o.Cancel())

		assert.Equal(t, Cancelled, o.Status())
		assert.Error(t, o.StartDelivery())
	})

	t.Run("delivered order is frozen", func(t *testing.T) {
		o := validOrder(t)
		require.NoError(t, o.Assign(kernel.NewUUID()))
		require.NoError(t, o.PickUp())
		require.NoError(t, o.StartDelivery())
		require.NoError(t, o.Complete())

		assert.Error(t, o.Cancel())
		assert.Error(t, o.PickUp())
	})
}

func TestNewAssignmentRecord(t *testing.T) {
	assignedAt := time.Date(2025, 6, 1, 12, 30, 0, 0, time.UTC)

	t.Run("creates immutable record", func(t *testing.T) {
		orderID := kernel.NewUUID()
		courierID := kernel.NewUUID()

		r, err := NewAssignmentRecord(orderID, courierID, 1.2, assignedAt, MethodNearest)

		require.NoError(t, err)
		assert.True(t, r.OrderID().IsEqual(orderID))
		assert.True(t, r.CourierID().IsEqual(courierID))
		assert.InDelta(t, 1.2, r.DistanceKm(), 1e-9)
		assert.Equal(t, assignedAt, r.AssignedAt())
		assert.Equal(t, MethodNearest, r.Method())
		assert.NoError(t, r.Validate())
	})

	t.Run("rejects negative distance", func(t *testing.T) {
		_, err := NewAssignmentRecord(kernel.NewUUID(), kernel.NewUUID(), -0.1, assignedAt, MethodNearest)
		assert.True(t, errors.Is(err, errs.ErrValueIsInvalid))
	})

	t.Run("rejects unknown method", func(t *testing.T) {
		_, err := NewAssignmentRecord(kernel.NewUUID(), kernel.NewUUID(), 1.0, assignedAt, MethodUnknown)
		assert.Error(t, err)
	})

	t.Run("zero value fails validation", func(t *testing.T) {
		var r AssignmentRecord
		assert.Error(t, r.Validate())
	})
}

func TestMethodFromString(t *testing.T) {
	tests := []struct {
		input    string
		expected Method
		wantErr  bool
	}{
		{"nearest", MethodNearest, false},
		{"manual", MethodManual, false},
		{"unknown", MethodUnknown, true},
		{"random", MethodUnknown, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			m, err := MethodFromString(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tt.expected, m)
		})
	}
}
