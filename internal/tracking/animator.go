package tracking

import (
	"context"
	"math"
	"sync"
	"time"

	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/core/domain/model/route"
	"dispatch/internal/core/domain/model/tracking"
)

// animator glides the rendered marker along the route between matched
// positions, so watchers see smooth movement instead of a marker jumping
// every few seconds. Frames are eased cubic-out: fast at first, settling
// into the target.
//
// One animation runs at a time; a fresh match cancels the current one and
// the new glide starts from wherever the marker is actually displayed.
type animator struct {
	manager *Manager
	orderID kernel.UUID

	mu        sync.Mutex
	displayed float64
	running   chan struct{}
}

func newAnimator(m *Manager, orderID kernel.UUID) *animator {
	return &animator{
		manager: m,
		orderID: orderID,
	}
}

// glide animates the marker from its displayed progress to target.
func (a *animator) glide(r *route.Route, target float64) {
	a.mu.Lock()
	a.stopLocked()

	start := a.displayed
	if math.Abs(target-start) < 1e-9 {
		a.mu.Unlock()
		a.emit(r, target)
		return
	}

	cancel := make(chan struct{})
	a.running = cancel
	a.mu.Unlock()

	go a.animate(r, start, target, cancel)
}

// reset cancels any animation and snaps the marker to the start of a new
// route.
func (a *animator) reset(r *route.Route) {
	a.mu.Lock()
	a.stopLocked()
	a.displayed = 0
	a.mu.Unlock()

	a.emit(r, 0)
}

// cancel stops the in-flight animation, if any.
func (a *animator) cancel() {
	a.mu.Lock()
	a.stopLocked()
	a.mu.Unlock()
}

func (a *animator) stopLocked() {
	if a.running != nil {
		close(a.running)
		a.running = nil
	}
}

func (a *animator) animate(r *route.Route, start, target float64, cancel <-chan struct{}) {
	duration := a.manager.cfg.AnimationDuration
	ticker := time.NewTicker(a.manager.cfg.FrameInterval)
	defer ticker.Stop()

	begun := time.Now()
	for {
		select {
		case <-cancel:
			return
		case now := <-ticker.C:
			u := float64(now.Sub(begun)) / float64(duration)
			if u >= 1 {
				a.setDisplayed(target)
				a.emit(r, target)
				a.finish(cancel)
				return
			}

			p := start + (target-start)*easeOutCubic(u)
			a.setDisplayed(p)
			a.emit(r, p)
		}
	}
}

// finish clears the running handle, unless a newer animation already took
// it over.
func (a *animator) finish(cancel <-chan struct{}) {
	a.mu.Lock()
	if a.running != nil && (<-chan struct{})(a.running) == cancel {
		a.running = nil
	}
	a.mu.Unlock()
}

func (a *animator) setDisplayed(p float64) {
	a.mu.Lock()
	a.displayed = p
	a.mu.Unlock()
}

// emit publishes one frame. Publishing is best-effort: failures are logged
// and the animation continues.
func (a *animator) emit(r *route.Route, progress float64) {
	snapshot := tracking.Snapshot{
		Position: r.PointAtProgress(progress),
		Bearing:  r.BearingAtProgress(progress),
		At:       time.Now(),
	}

	if err := a.manager.publisher.Publish(context.Background(), a.orderID, snapshot); err != nil {
		a.manager.logger.Warn("failed to publish tracking frame",
			"order_id", a.orderID.String(),
			"error", err,
		)
	}
}

func easeOutCubic(u float64) float64 {
	inv := 1 - u
	return 1 - inv*inv*inv
}
