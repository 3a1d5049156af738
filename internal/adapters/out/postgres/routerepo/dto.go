// Package routerepo provides data transfer objects and mapping functions for route persistence.
// A route is stored as an ordered list of waypoints; the derived geometry
// (cumulative distances and bearings) is rebuilt on load.
package routerepo

import (
	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/core/domain/model/route"

	"github.com/google/uuid"
)

// RouteDTO represents the database structure for persisting routes.
// OrderID is unique: an order has at most one current route.
type RouteDTO struct {
	ID        uuid.UUID     `gorm:"type:uuid;primaryKey"`
	OrderID   uuid.UUID     `gorm:"type:uuid;not null;uniqueIndex"`
	Waypoints []WaypointDTO `gorm:"foreignKey:RouteID;constraint:OnDelete:CASCADE"`
}

// TableName specifies the database table name for route entities.
func (RouteDTO) TableName() string {
	return "routes"
}

// WaypointDTO represents one waypoint of a route polyline.
type WaypointDTO struct {
	RouteID   uuid.UUID `gorm:"type:uuid;primaryKey"`
	Seq       int       `gorm:"primaryKey"`
	Latitude  float64   `gorm:"type:double precision;not null"`
	Longitude float64   `gorm:"type:double precision;not null"`
}

// TableName specifies the database table name for route waypoints.
func (WaypointDTO) TableName() string {
	return "route_waypoints"
}

// fromDomain converts a route domain aggregate to its database representation.
func fromDomain(route *route.Route) RouteDTO {
	routeID := route.ID().Bytes()

	points := route.Points()
	waypoints := make([]WaypointDTO, 0, len(points))
	for i, p := range points {
		waypoints = append(waypoints, WaypointDTO{
			RouteID:   routeID,
			Seq:       i,
			Latitude:  p.Lat(),
			Longitude: p.Lng(),
		})
	}

	return RouteDTO{
		ID:        routeID,
		OrderID:   route.OrderID().Bytes(),
		Waypoints: waypoints,
	}
}

// toDomain converts a database DTO to a route domain aggregate.
// NewRoute recomputes segment distances and bearings from the waypoints.
func toDomain(dto RouteDTO) (*route.Route, error) {
	id, err := kernel.UUIDFromBytes(dto.ID[:])
	if err != nil {
		return nil, err
	}

	orderID, err := kernel.UUIDFromBytes(dto.OrderID[:])
	if err != nil {
		return nil, err
	}

	points := make([]kernel.GeoPoint, 0, len(dto.Waypoints))
	for _, w := range dto.Waypoints {
		p, pErr := kernel.NewGeoPoint(w.Latitude, w.Longitude)
		if pErr != nil {
			return nil, pErr
		}
		points = append(points, p)
	}

	return route.NewRoute(id, orderID, points)
}
