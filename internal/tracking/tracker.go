package tracking

import (
	"context"
	"sync"
	"time"

	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/core/domain/model/route"
	"dispatch/internal/core/domain/model/tracking"
	"dispatch/internal/core/domain/services"
)

// tracker is the worker for one (order, courier) pair. All matching and
// state mutation happens on its goroutine; the matcher requires exactly
// that serialization.
type tracker struct {
	manager *Manager
	state   *tracking.State
	matcher services.MapMatcher
	anim    *animator

	route *route.Route

	fixes    chan tracking.Fix
	swaps    chan *route.Route
	failures chan struct{}
	stop     chan struct{}
	once     sync.Once

	lastAcceptedAt  time.Time
	lastAcceptedFix *kernel.GeoPoint
}

func newTracker(m *Manager, state *tracking.State, r *route.Route) *tracker {
	t := &tracker{
		manager:  m,
		state:    state,
		matcher:  services.NewMapMatcher(m.cfg.Matcher),
		route:    r,
		fixes:    make(chan tracking.Fix, m.cfg.QueueSize),
		swaps:    make(chan *route.Route, 2),
		failures: make(chan struct{}, 2),
		stop:     make(chan struct{}),
	}
	t.anim = newAnimator(m, state.OrderID())
	return t
}

func (t *tracker) run() {
	for {
		select {
		case <-t.stop:
			t.anim.cancel()
			return
		case r := <-t.swaps:
			t.handleSwap(r)
		case <-t.failures:
			t.state.ClearReroutePending()
		case fix := <-t.fixes:
			t.handleFix(fix)
		}
	}
}

func (t *tracker) shutdown() {
	t.once.Do(func() { close(t.stop) })
}

func (t *tracker) requestSwap(r *route.Route) {
	select {
	case t.swaps <- r:
	case <-t.stop:
	}
}

// handleFix throttles, matches and animates one raw fix.
func (t *tracker) handleFix(fix tracking.Fix) {
	if t.shouldSkip(fix) {
		return
	}

	match, err := t.matcher.Match(t.route, t.state, fix.Position)
	if err != nil {
		t.manager.logger.Warn("failed to match fix",
			"order_id", t.state.OrderID().String(),
			"error", err,
		)
		return
	}

	t.lastAcceptedAt = fix.At
	pos := fix.Position
	t.lastAcceptedFix = &pos

	if match.OffRoute {
		t.manager.logger.Info("courier off route",
			"order_id", t.state.OrderID().String(),
			"deviation_km", match.DeviationKm,
		)
	}

	if match.RerouteRequested {
		go t.replan(fix.Position)
	}

	t.anim.glide(t.route, match.Progress)
}

// shouldSkip drops fixes that are both fresh and near-stationary relative
// to the last processed one.
func (t *tracker) shouldSkip(fix tracking.Fix) bool {
	if t.lastAcceptedFix == nil {
		return false
	}
	if fix.At.Sub(t.lastAcceptedAt) >= t.manager.cfg.MinFixInterval {
		return false
	}

	moved, err := t.lastAcceptedFix.DistanceKm(fix.Position)
	if err != nil {
		return true
	}
	return moved < t.manager.cfg.MinFixDistanceKm
}

// replan asks the planner for a fresh route from the courier's position to
// the current route's destination, persists it and swaps the pair onto it.
// Every step is best-effort: on failure the pair keeps matching against
// the old route, the pending flag is cleared on the tracker goroutine and
// the next trigger-level deviation retries.
func (t *tracker) replan(from kernel.GeoPoint) {
	ctx := context.Background()

	points := t.route.Points()
	destination := points[len(points)-1]

	fresh, err := t.manager.planner.BuildRoute(ctx, t.state.OrderID(), from, destination)
	if err != nil {
		t.manager.logger.Warn("failed to re-plan route",
			"order_id", t.state.OrderID().String(),
			"error", err,
		)
		t.reportReplanFailure()
		return
	}

	if err := t.manager.routes.Replace(ctx, fresh); err != nil {
		t.manager.logger.Warn("failed to store replacement route",
			"order_id", t.state.OrderID().String(),
			"error", err,
		)
		t.reportReplanFailure()
		return
	}

	t.requestSwap(fresh)
}

// reportReplanFailure hands the failed attempt back to the run loop, which
// owns all state mutation.
func (t *tracker) reportReplanFailure() {
	select {
	case t.failures <- struct{}{}:
	case <-t.stop:
	}
}

// handleSwap moves the pair onto a replacement route. Matching state and
// the rendered marker restart from the beginning of the new route.
func (t *tracker) handleSwap(r *route.Route) {
	if err := t.state.SwapRoute(r.ID()); err != nil {
		t.manager.logger.Warn("failed to swap route",
			"order_id", t.state.OrderID().String(),
			"error", err,
		)
		return
	}

	t.route = r
	t.anim.reset(r)

	t.manager.logger.Info("route swapped",
		"order_id", t.state.OrderID().String(),
		"route_id", r.ID().String(),
	)
}
