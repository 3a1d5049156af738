package queries

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"dispatch/internal/core/domain/model/kernel"
)

// GetActiveOrdersQueryHandler retrieves in-flight orders from the database.
// Uses direct SQL queries for optimal read performance in the CQRS pattern.
type GetActiveOrdersQueryHandler struct {
	db *gorm.DB
}

// NewGetActiveOrdersQueryHandler creates a handler for active order
// retrieval queries. Requires a GORM database connection for query
// execution.
func NewGetActiveOrdersQueryHandler(db *gorm.DB) GetActiveOrdersQueryHandler {
	return GetActiveOrdersQueryHandler{db: db}
}

// Handle executes the query to retrieve orders that have not reached a
// terminal status. Returns a slice of order read models sorted by
// readiness time for stable output.
func (h GetActiveOrdersQueryHandler) Handle(
	ctx context.Context,
	query GetActiveOrdersQuery,
) ([]GetActiveOrdersQueryResponse, error) {
	if err := query.Validate(); err != nil {
		return nil, err
	}

	orders := make([]GetActiveOrdersQueryResponse, 0)

	rows, err := h.db.WithContext(ctx).Raw(`
		SELECT
			id,
			status,
			courier_id,
			pickup_latitude,
			pickup_longitude,
			dropoff_latitude,
			dropoff_longitude,
			ready_at
		FROM orders
		WHERE status IN ('ready', 'assigned', 'picked_up', 'on_the_way')
		ORDER BY ready_at
	`).Rows()
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var response GetActiveOrdersQueryResponse
		var id uuid.UUID
		var courierID uuid.NullUUID
		var pickupLat, pickupLng, dropoffLat, dropoffLng float64

		err = rows.Scan(
			&id,
			&response.Status,
			&courierID,
			&pickupLat,
			&pickupLng,
			&dropoffLat,
			&dropoffLng,
			&response.ReadyAt,
		)
		if err != nil {
			return nil, err
		}

		orderID, idErr := kernel.UUIDFromBytes(id[:])
		if idErr != nil {
			return nil, idErr
		}
		response.ID = orderID

		pickup, pickupErr := kernel.NewGeoPoint(pickupLat, pickupLng)
		if pickupErr != nil {
			return nil, pickupErr
		}
		response.Pickup = pickup

		dropoff, dropoffErr := kernel.NewGeoPoint(dropoffLat, dropoffLng)
		if dropoffErr != nil {
			return nil, dropoffErr
		}
		response.Dropoff = dropoff

		if courierID.Valid {
			assignee, assigneeErr := kernel.UUIDFromBytes(courierID.UUID[:])
			if assigneeErr != nil {
				return nil, assigneeErr
			}
			response.CourierID = &assignee
		}

		orders = append(orders, response)
	}

	if err = rows.Err(); err != nil {
		return nil, err
	}

	return orders, nil
}
