// Package ws exposes the live channels over websockets: a per-order
// tracking stream for watchers and a per-courier channel for assignment
// notifications. The hub implements the outbound tracking ports, so the
// core publishes frames without knowing about connections.
package ws

import (
	"encoding/json"
	"time"
)

// MessageType discriminates the envelope payload.
type MessageType string

const (
	TypeTrackingFrame MessageType = "tracking_frame"
	TypeOrderAssigned MessageType = "order_assigned"
)

// Envelope is the wire form of every message the hub sends.
type Envelope struct {
	Type      MessageType     `json:"type"`
	Timestamp time.Time       `json:"timestamp"`
	Data      json.RawMessage `json:"data"`
}

// TrackingFrame is one animated marker position on an order's stream.
type TrackingFrame struct {
	OrderID string    `json:"order_id"`
	Lat     float64   `json:"lat"`
	Lng     float64   `json:"lng"`
	Bearing float64   `json:"bearing"`
	At      time.Time `json:"at"`
}

// OrderAssigned tells a courier they won an order.
type OrderAssigned struct {
	OrderID    string    `json:"order_id"`
	PickupLat  float64   `json:"pickup_lat"`
	PickupLng  float64   `json:"pickup_lng"`
	DropoffLat float64   `json:"dropoff_lat"`
	DropoffLng float64   `json:"dropoff_lng"`
	ReadyAt    time.Time `json:"ready_at"`
}

func newEnvelope(messageType MessageType, data any) ([]byte, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}

	return json.Marshal(Envelope{
		Type:      messageType,
		Timestamp: time.Now(),
		Data:      raw,
	})
}
