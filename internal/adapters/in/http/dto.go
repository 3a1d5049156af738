package http

import "time"

// GeoPointDTO is the wire form of a coordinate pair.
type GeoPointDTO struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// CreateOrderRequest is the body of POST /api/v1/orders.
// ID is optional; the server generates one when it is absent.
type CreateOrderRequest struct {
	ID           *string     `json:"id,omitempty"`
	RestaurantID string      `json:"restaurant_id"`
	Pickup       GeoPointDTO `json:"pickup"`
	Dropoff      GeoPointDTO `json:"dropoff"`
	ReadyAt      time.Time   `json:"ready_at"`
}

// CreateOrderResponse returns the identifier of the created order.
type CreateOrderResponse struct {
	ID string `json:"id"`
}

// AssignOrderRequest is the body of POST /api/v1/orders/:id/assign.
type AssignOrderRequest struct {
	Mode               string      `json:"mode"`
	RestaurantLocation GeoPointDTO `json:"restaurant_location"`
	RestaurantID       *string     `json:"restaurant_id,omitempty"`
	ExcludedCourierIDs []string    `json:"excluded_courier_ids,omitempty"`
}

// AssignOrderResponse reports the winning courier of an assignment.
type AssignOrderResponse struct {
	CourierID  string  `json:"courier_id"`
	DistanceKm float64 `json:"distance_km"`
}

// ReportLocationRequest is the body of POST /api/v1/couriers/:id/location.
type ReportLocationRequest struct {
	Position  GeoPointDTO `json:"position"`
	Heading   *float64    `json:"heading,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
}

// ProgressOrderRequest is the body of POST /api/v1/orders/:id/progress.
type ProgressOrderRequest struct {
	Action string `json:"action"`
}

// CourierResponse is one courier in the operator roster view.
type CourierResponse struct {
	ID       string       `json:"id"`
	Name     string       `json:"name"`
	Online   bool         `json:"online"`
	Approved bool         `json:"approved"`
	Position *GeoPointDTO `json:"position,omitempty"`
}

// OrderResponse is one in-flight order in the operator view.
type OrderResponse struct {
	ID        string      `json:"id"`
	Status    string      `json:"status"`
	CourierID *string     `json:"courier_id,omitempty"`
	Pickup    GeoPointDTO `json:"pickup"`
	Dropoff   GeoPointDTO `json:"dropoff"`
	ReadyAt   time.Time   `json:"ready_at"`
}

// ErrorResponse is the uniform error body.
type ErrorResponse struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}
