// Package zonerepo provides data transfer objects and mapping functions for zone lookups.
// Zones are managed outside dispatch; this package only reads them, plus a
// seeding helper for tooling and tests.
package zonerepo

import (
	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/core/domain/model/zone"

	"github.com/google/uuid"
)

// ZoneDTO represents the database structure for persisting service zones.
type ZoneDTO struct {
	ID           uuid.UUID   `gorm:"type:uuid;primaryKey"`
	Name         string      `gorm:"type:varchar(255);not null"`
	RestaurantID uuid.UUID   `gorm:"type:uuid;not null;uniqueIndex"`
	Active       bool        `gorm:"not null"`
	Vertices     []VertexDTO `gorm:"foreignKey:ZoneID;constraint:OnDelete:CASCADE"`
}

// TableName specifies the database table name for zone entities.
func (ZoneDTO) TableName() string {
	return "zones"
}

// VertexDTO represents one vertex of a zone's polygon ring.
// Seq preserves the ring ordering the containment test depends on.
type VertexDTO struct {
	ZoneID    uuid.UUID `gorm:"type:uuid;primaryKey"`
	Seq       int       `gorm:"primaryKey"`
	Latitude  float64   `gorm:"type:double precision;not null"`
	Longitude float64   `gorm:"type:double precision;not null"`
}

// TableName specifies the database table name for zone vertices.
func (VertexDTO) TableName() string {
	return "zone_vertices"
}

// fromDomain converts a zone domain aggregate to its database representation.
func fromDomain(zone *zone.Zone) ZoneDTO {
	zoneID := zone.ID().Bytes()

	points := zone.Vertices()
	vertices := make([]VertexDTO, 0, len(points))
	for i, p := range points {
		vertices = append(vertices, VertexDTO{
			ZoneID:    zoneID,
			Seq:       i,
			Latitude:  p.Lat(),
			Longitude: p.Lng(),
		})
	}

	return ZoneDTO{
		ID:           zoneID,
		Name:         zone.Name(),
		RestaurantID: zone.RestaurantID().Bytes(),
		Active:       zone.IsActive(),
		Vertices:     vertices,
	}
}

// toDomain converts a database DTO to a zone domain aggregate.
// Vertices must arrive in Seq order for the polygon ring to be valid.
func toDomain(dto ZoneDTO) (*zone.Zone, error) {
	id, err := kernel.UUIDFromBytes(dto.ID[:])
	if err != nil {
		return nil, err
	}

	restaurantID, err := kernel.UUIDFromBytes(dto.RestaurantID[:])
	if err != nil {
		return nil, err
	}

	vertices := make([]kernel.GeoPoint, 0, len(dto.Vertices))
	for _, v := range dto.Vertices {
		p, pErr := kernel.NewGeoPoint(v.Latitude, v.Longitude)
		if pErr != nil {
			return nil, pErr
		}
		vertices = append(vertices, p)
	}

	return zone.RestoreZone(id, dto.Name, restaurantID, vertices, dto.Active)
}
