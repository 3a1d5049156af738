// Package courierrepo provides data transfer objects and mapping functions for courier persistence.
// This package implements the repository pattern for the courier domain aggregate, handling
// the conversion between domain entities and database representations.
package courierrepo

import (
	"dispatch/internal/core/domain/model/courier"
	"dispatch/internal/core/domain/model/kernel"

	"github.com/google/uuid"
)

// CourierDTO represents the database structure for persisting courier aggregates.
// Position is stored as a nullable coordinate pair because a courier may not
// have reported a location yet.
type CourierDTO struct {
	ID           uuid.UUID        `gorm:"type:uuid;primaryKey"`
	Name         string           `gorm:"type:varchar(255);not null"`
	Online       bool             `gorm:"not null;index"`
	Approved     bool             `gorm:"not null;index"`
	Latitude     *float64         `gorm:"type:double precision"`
	Longitude    *float64         `gorm:"type:double precision"`
	ZoneBindings []ZoneBindingDTO `gorm:"foreignKey:CourierID;constraint:OnDelete:CASCADE"`
}

// TableName specifies the database table name for courier entities.
// Overrides GORM's default naming convention to use "couriers".
func (CourierDTO) TableName() string {
	return "couriers"
}

// ZoneBindingDTO represents an explicit courier-to-zone binding.
// A courier with no bindings is eligible for any zone by geometry.
type ZoneBindingDTO struct {
	CourierID uuid.UUID `gorm:"type:uuid;primaryKey"`
	ZoneID    uuid.UUID `gorm:"type:uuid;primaryKey"`
}

// TableName specifies the database table name for zone binding entities.
func (ZoneBindingDTO) TableName() string {
	return "courier_zones"
}

// fromDomain converts a courier domain aggregate to its database representation.
// Maps all aggregate attributes including the optional position and zone bindings.
func fromDomain(courier *courier.Courier) CourierDTO {
	courierID := courier.ID().Bytes()

	var latitude, longitude *float64
	if p := courier.Position(); p != nil {
		lat, lng := p.Lat(), p.Lng()
		latitude, longitude = &lat, &lng
	}

	zoneIDs := courier.ZoneIDs()
	bindings := make([]ZoneBindingDTO, 0, len(zoneIDs))
	for _, zoneID := range zoneIDs {
		bindings = append(bindings, ZoneBindingDTO{
			CourierID: courierID,
			ZoneID:    zoneID.Bytes(),
		})
	}

	return CourierDTO{
		ID:           courierID,
		Name:         courier.Name(),
		Online:       courier.IsOnline(),
		Approved:     courier.IsApproved(),
		Latitude:     latitude,
		Longitude:    longitude,
		ZoneBindings: bindings,
	}
}

// toDomain converts a database DTO to a courier domain aggregate.
// Reconstructs the complete aggregate including zone bindings using RestoreCourier.
func toDomain(dto CourierDTO) (*courier.Courier, error) {
	id, err := kernel.UUIDFromBytes(dto.ID[:])
	if err != nil {
		return nil, err
	}

	var position *kernel.GeoPoint
	if dto.Latitude != nil && dto.Longitude != nil {
		p, posErr := kernel.NewGeoPoint(*dto.Latitude, *dto.Longitude)
		if posErr != nil {
			return nil, posErr
		}
		position = &p
	}

	zoneIDs := make([]kernel.UUID, 0, len(dto.ZoneBindings))
	for _, binding := range dto.ZoneBindings {
		zoneID, zoneErr := kernel.UUIDFromBytes(binding.ZoneID[:])
		if zoneErr != nil {
			return nil, zoneErr
		}
		zoneIDs = append(zoneIDs, zoneID)
	}

	return courier.RestoreCourier(id, dto.Name, dto.Online, dto.Approved, position, zoneIDs)
}
