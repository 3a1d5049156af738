// Package orderrepo provides data transfer objects and mapping functions for order persistence.
// This package implements the repository pattern for the order domain aggregate, handling
// the conversion between domain entities and database representations.
package orderrepo

import (
	"time"

	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/core/domain/model/order"

	"github.com/google/uuid"
)

// OrderDTO represents the database structure for persisting order aggregates.
// Status is stored as its string form so the read side and ad-hoc queries
// stay legible without decoding enum values.
type OrderDTO struct {
	ID           uuid.UUID   `gorm:"type:uuid;primaryKey"`
	RestaurantID uuid.UUID   `gorm:"type:uuid;not null;index"`
	CourierID    *uuid.UUID  `gorm:"type:uuid;index"`
	Pickup       GeoPointDTO `gorm:"embedded;embeddedPrefix:pickup_"`
	Dropoff      GeoPointDTO `gorm:"embedded;embeddedPrefix:dropoff_"`
	ReadyAt      time.Time   `gorm:"not null;index"`
	Status       string      `gorm:"type:varchar(32);not null;index"`
}

// TableName specifies the database table name for order entities.
// Overrides GORM's default naming convention to use "orders".
func (OrderDTO) TableName() string {
	return "orders"
}

// GeoPointDTO represents embedded geographic coordinates within a table.
type GeoPointDTO struct {
	Latitude  float64 `gorm:"type:double precision;not null"`
	Longitude float64 `gorm:"type:double precision;not null"`
}

// AssignmentDTO represents the persisted record of a dispatch decision.
// One row per order; the conditional assignment write creates it in the
// same transaction that claims the order.
type AssignmentDTO struct {
	OrderID    uuid.UUID `gorm:"type:uuid;primaryKey"`
	CourierID  uuid.UUID `gorm:"type:uuid;not null;index"`
	DistanceKm float64   `gorm:"type:double precision;not null"`
	AssignedAt time.Time `gorm:"not null"`
	Method     string    `gorm:"type:varchar(32);not null"`
}

// TableName specifies the database table name for assignment records.
func (AssignmentDTO) TableName() string {
	return "assignments"
}

// fromDomain converts an order domain aggregate to its database representation.
// Maps all order attributes including optional courier assignment.
func fromDomain(order *order.Order) OrderDTO {
	var courierID *uuid.UUID
	if id := order.CourierID(); id != nil {
		raw := id.Bytes()
		courierID = &raw
	}

	return OrderDTO{
		ID:           order.ID().Bytes(),
		RestaurantID: order.RestaurantID().Bytes(),
		CourierID:    courierID,
		Pickup: GeoPointDTO{
			Latitude:  order.Pickup().Lat(),
			Longitude: order.Pickup().Lng(),
		},
		Dropoff: GeoPointDTO{
			Latitude:  order.Dropoff().Lat(),
			Longitude: order.Dropoff().Lng(),
		},
		ReadyAt: order.ReadyAt(),
		Status:  order.Status().String(),
	}
}

// recordFromDomain converts an assignment record to its database representation.
func recordFromDomain(record order.AssignmentRecord) AssignmentDTO {
	return AssignmentDTO{
		OrderID:    record.OrderID().Bytes(),
		CourierID:  record.CourierID().Bytes(),
		DistanceKm: record.DistanceKm(),
		AssignedAt: record.AssignedAt(),
		Method:     record.Method().String(),
	}
}

// toDomain converts a database DTO to an order domain aggregate.
// Reconstructs the complete aggregate including status and courier assignment using RestoreOrder.
func toDomain(dto OrderDTO) (*order.Order, error) {
	id, err := kernel.UUIDFromBytes(dto.ID[:])
	if err != nil {
		return nil, err
	}

	restaurantID, err := kernel.UUIDFromBytes(dto.RestaurantID[:])
	if err != nil {
		return nil, err
	}

	var courierID *kernel.UUID
	if dto.CourierID != nil {
		cID, courierErr := kernel.UUIDFromBytes((*dto.CourierID)[:])
		if courierErr != nil {
			return nil, courierErr
		}

		courierID = &cID
	}

	pickup, err := kernel.NewGeoPoint(dto.Pickup.Latitude, dto.Pickup.Longitude)
	if err != nil {
		return nil, err
	}

	dropoff, err := kernel.NewGeoPoint(dto.Dropoff.Latitude, dto.Dropoff.Longitude)
	if err != nil {
		return nil, err
	}

	status, err := order.StatusFromString(dto.Status)
	if err != nil {
		return nil, err
	}

	return order.RestoreOrder(id, restaurantID, pickup, dropoff, dto.ReadyAt, status, courierID)
}
