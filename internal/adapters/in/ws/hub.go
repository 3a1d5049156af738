package ws

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/core/domain/model/order"
	"dispatch/internal/core/domain/model/tracking"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10

	maxMessageSize = 512
	sendBuffer     = 32
)

// Hub fans messages out to websocket subscribers grouped by topic: one
// topic per watched order, one per connected courier. It implements
// ports.TrackingPublisher and ports.CourierNotifier.
//
// Delivery is best-effort by design: a topic with no subscribers swallows
// the message, and a subscriber that cannot keep up is disconnected rather
// than allowed to stall the pipeline.
type Hub struct {
	logger   *slog.Logger
	upgrader websocket.Upgrader

	mu     sync.RWMutex
	topics map[string]map[*client]struct{}
}

// NewHub creates a websocket hub.
func NewHub(logger *slog.Logger) *Hub {
	return &Hub{
		logger: logger.With("component", "ws"),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
		topics: make(map[string]map[*client]struct{}),
	}
}

// RegisterRoutes attaches the websocket endpoints to the echo instance.
func (h *Hub) RegisterRoutes(e *echo.Echo) {
	e.GET("/ws/orders/:id/tracking", h.HandleOrderStream)
	e.GET("/ws/couriers/:id", h.HandleCourierStream)
}

// HandleOrderStream subscribes the caller to an order's tracking frames.
func (h *Hub) HandleOrderStream(ctx echo.Context) error {
	orderID, err := kernel.UUIDFromString(ctx.Param("id"))
	if err != nil {
		return ctx.NoContent(http.StatusBadRequest)
	}

	return h.subscribe(ctx, orderTopic(orderID))
}

// HandleCourierStream subscribes a courier device to its notifications.
func (h *Hub) HandleCourierStream(ctx echo.Context) error {
	courierID, err := kernel.UUIDFromString(ctx.Param("id"))
	if err != nil {
		return ctx.NoContent(http.StatusBadRequest)
	}

	return h.subscribe(ctx, courierTopic(courierID))
}

// Publish emits one frame on the order's tracking stream.
func (h *Hub) Publish(_ context.Context, orderID kernel.UUID, snapshot tracking.Snapshot) error {
	payload, err := newEnvelope(TypeTrackingFrame, TrackingFrame{
		OrderID: orderID.String(),
		Lat:     snapshot.Position.Lat(),
		Lng:     snapshot.Position.Lng(),
		Bearing: snapshot.Bearing,
		At:      snapshot.At,
	})
	if err != nil {
		return err
	}

	h.broadcast(orderTopic(orderID), payload)
	return nil
}

// NotifyAssigned informs the courier they won an order. A courier without
// an open connection simply misses the push; the assignment itself is
// already committed.
func (h *Hub) NotifyAssigned(
	_ context.Context, courierID kernel.UUID, aggregate *order.Order,
) error {
	payload, err := newEnvelope(TypeOrderAssigned, OrderAssigned{
		OrderID:    aggregate.ID().String(),
		PickupLat:  aggregate.Pickup().Lat(),
		PickupLng:  aggregate.Pickup().Lng(),
		DropoffLat: aggregate.Dropoff().Lat(),
		DropoffLng: aggregate.Dropoff().Lng(),
		ReadyAt:    aggregate.ReadyAt(),
	})
	if err != nil {
		return err
	}

	h.broadcast(courierTopic(courierID), payload)
	return nil
}

// Subscribers reports how many connections watch a topic. Used by tests
// and the health endpoint.
func (h *Hub) Subscribers(topic string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.topics[topic])
}

func (h *Hub) subscribe(ctx echo.Context, topic string) error {
	conn, err := h.upgrader.Upgrade(ctx.Response(), ctx.Request(), nil)
	if err != nil {
		return err
	}

	c := &client{
		hub:   h,
		conn:  conn,
		topic: topic,
		send:  make(chan []byte, sendBuffer),
	}

	h.register(c)

	go c.writePump()
	go c.readPump()

	return nil
}

func (h *Hub) register(c *client) {
	h.mu.Lock()
	subscribers, ok := h.topics[c.topic]
	if !ok {
		subscribers = make(map[*client]struct{})
		h.topics[c.topic] = subscribers
	}
	subscribers[c] = struct{}{}
	h.mu.Unlock()

	h.logger.Debug("subscriber joined", "topic", c.topic)
}

func (h *Hub) unregister(c *client) {
	h.mu.Lock()
	if subscribers, ok := h.topics[c.topic]; ok {
		if _, present := subscribers[c]; present {
			delete(subscribers, c)
			close(c.send)
			if len(subscribers) == 0 {
				delete(h.topics, c.topic)
			}
		}
	}
	h.mu.Unlock()
}

// broadcast delivers a payload to every subscriber of a topic. A full send
// buffer marks the client as too slow; it is dropped so one stuck reader
// cannot block the rest.
func (h *Hub) broadcast(topic string, payload []byte) {
	h.mu.RLock()
	stalled := make([]*client, 0)
	for c := range h.topics[topic] {
		select {
		case c.send <- payload:
		default:
			stalled = append(stalled, c)
		}
	}
	h.mu.RUnlock()

	for _, c := range stalled {
		h.logger.Warn("dropping slow subscriber", "topic", topic)
		h.unregister(c)
		_ = c.conn.Close()
	}
}

func orderTopic(orderID kernel.UUID) string {
	return "order:" + orderID.String()
}

func courierTopic(courierID kernel.UUID) string {
	return "courier:" + courierID.String()
}
