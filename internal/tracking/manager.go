// Package tracking runs the live-tracking pipeline: one worker per tracked
// order consumes the courier's raw fixes, snaps them onto the route,
// requests re-planning when the courier leaves it, and animates the
// rendered marker between matches for everyone watching.
package tracking

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/core/domain/model/route"
	"dispatch/internal/core/domain/model/tracking"
	"dispatch/internal/core/domain/services"
	"dispatch/internal/core/ports"
	"dispatch/internal/pkg/errs"
)

// RouteSaver persists replacement routes produced by re-planning.
type RouteSaver interface {
	Replace(ctx context.Context, r *route.Route) error
}

// Config tunes the tracking pipeline. Zero values fall back to the
// production defaults.
type Config struct {
	// QueueSize bounds the per-order fix queue. When the queue is full
	// new fixes are dropped; a fresher one is always right behind.
	QueueSize int

	// MinFixInterval and MinFixDistanceKm throttle fix processing: a fix
	// is skipped when it arrives sooner than MinFixInterval after the
	// last processed one and moved less than MinFixDistanceKm.
	MinFixInterval   time.Duration
	MinFixDistanceKm float64

	// AnimationDuration is how long the rendered marker takes to glide
	// from one matched position to the next.
	AnimationDuration time.Duration

	// FrameInterval is the spacing between emitted animation frames.
	FrameInterval time.Duration

	// Matcher tunes the map-matching window and thresholds.
	Matcher services.MatcherConfig
}

// DefaultConfig returns the production tuning.
func DefaultConfig() Config {
	return Config{
		QueueSize:         16,
		MinFixInterval:    5 * time.Second,
		MinFixDistanceKm:  0.010,
		AnimationDuration: 2 * time.Second,
		FrameInterval:     50 * time.Millisecond,
		Matcher:           services.DefaultMatcherConfig(),
	}
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.QueueSize <= 0 {
		c.QueueSize = d.QueueSize
	}
	if c.MinFixInterval <= 0 {
		c.MinFixInterval = d.MinFixInterval
	}
	if c.MinFixDistanceKm <= 0 {
		c.MinFixDistanceKm = d.MinFixDistanceKm
	}
	if c.AnimationDuration <= 0 {
		c.AnimationDuration = d.AnimationDuration
	}
	if c.FrameInterval <= 0 {
		c.FrameInterval = d.FrameInterval
	}
	if c.Matcher == (services.MatcherConfig{}) {
		c.Matcher = d.Matcher
	}
	return c
}

// Manager owns the set of tracked orders. It implements the tracking hooks
// the command handlers use: starting a pair after assignment, feeding it
// fixes, swapping its route and tearing it down on terminal transitions.
type Manager struct {
	cfg       Config
	planner   ports.RoutePlanner
	routes    RouteSaver
	publisher ports.TrackingPublisher
	logger    *slog.Logger

	mu        sync.Mutex
	byOrder   map[string]*tracker
	byCourier map[string]*tracker
}

// NewManager creates a tracking manager.
func NewManager(
	planner ports.RoutePlanner,
	routes RouteSaver,
	publisher ports.TrackingPublisher,
	logger *slog.Logger,
	cfg Config,
) (*Manager, error) {
	if planner == nil {
		return nil, errs.NewValueIsRequiredError("planner")
	}
	if routes == nil {
		return nil, errs.NewValueIsRequiredError("routes")
	}
	if publisher == nil {
		return nil, errs.NewValueIsRequiredError("publisher")
	}
	if logger == nil {
		return nil, errs.NewValueIsRequiredError("logger")
	}

	return &Manager{
		cfg:       cfg.withDefaults(),
		planner:   planner,
		routes:    routes,
		publisher: publisher,
		logger:    logger.With("component", "tracking"),
		byOrder:   make(map[string]*tracker),
		byCourier: make(map[string]*tracker),
	}, nil
}

// StartTracking creates the tracking pair for a fresh assignment and starts
// consuming the courier's fixes. An existing pair for the same order is
// torn down first.
func (m *Manager) StartTracking(
	_ context.Context, orderID, courierID kernel.UUID, r *route.Route,
) error {
	state, err := tracking.NewState(orderID, courierID, r.ID())
	if err != nil {
		return err
	}

	t := newTracker(m, state, r)

	m.mu.Lock()
	if prev, ok := m.byOrder[orderID.String()]; ok {
		prev.shutdown()
		delete(m.byCourier, prev.state.CourierID().String())
	}
	m.byOrder[orderID.String()] = t
	m.byCourier[courierID.String()] = t
	m.mu.Unlock()

	go t.run()

	m.logger.Info("tracking started",
		"order_id", orderID.String(),
		"courier_id", courierID.String(),
	)
	return nil
}

// Offer hands a raw fix to the pipeline. Fixes for couriers that are not
// being tracked are dropped, as are fixes arriving faster than the worker
// drains its queue. Offer never blocks.
func (m *Manager) Offer(fix tracking.Fix) {
	m.mu.Lock()
	t, ok := m.byCourier[fix.CourierID.String()]
	m.mu.Unlock()
	if !ok {
		return
	}

	select {
	case t.fixes <- fix:
	default:
		m.logger.Debug("fix queue full, dropping fix",
			"courier_id", fix.CourierID.String())
	}
}

// SwapRoute points a tracked order at a replacement route and resets its
// matching state. Used when the delivery leg starts and after re-planning.
func (m *Manager) SwapRoute(_ context.Context, orderID kernel.UUID, r *route.Route) error {
	if err := r.Validate(); err != nil {
		return err
	}

	m.mu.Lock()
	t, ok := m.byOrder[orderID.String()]
	m.mu.Unlock()
	if !ok {
		return errs.NewObjectNotFoundError("tracking pair", orderID.String())
	}

	t.requestSwap(r)
	return nil
}

// StopTracking tears down the tracking pair for an order, if any.
func (m *Manager) StopTracking(orderID kernel.UUID) {
	m.mu.Lock()
	t, ok := m.byOrder[orderID.String()]
	if ok {
		delete(m.byOrder, orderID.String())
		delete(m.byCourier, t.state.CourierID().String())
	}
	m.mu.Unlock()

	if !ok {
		return
	}

	t.shutdown()
	m.logger.Info("tracking stopped", "order_id", orderID.String())
}

// TrackedOrders reports how many orders are currently tracked.
func (m *Manager) TrackedOrders() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.byOrder)
}

// IsTracking reports whether a pair exists for the order.
func (m *Manager) IsTracking(orderID kernel.UUID) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.byOrder[orderID.String()]
	return ok
}

// TrackedOrderIDs returns the orders currently being tracked.
func (m *Manager) TrackedOrderIDs() []kernel.UUID {
	m.mu.Lock()
	defer m.mu.Unlock()

	ids := make([]kernel.UUID, 0, len(m.byOrder))
	for _, t := range m.byOrder {
		ids = append(ids, t.state.OrderID())
	}
	return ids
}
