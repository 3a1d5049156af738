package commands

import (
	"context"
	"log/slog"
	"time"

	"dispatch/internal/core/domain/model/courier"
	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/core/domain/model/order"
	"dispatch/internal/core/domain/model/route"
	"dispatch/internal/core/domain/model/zone"
	"dispatch/internal/core/domain/services"
	"dispatch/internal/core/ports"
)

// TrackingStarter boots the live-tracking pipeline for a fresh assignment:
// it creates the tracking state for the route and starts consuming the
// courier's fixes.
type TrackingStarter interface {
	StartTracking(ctx context.Context, orderID, courierID kernel.UUID, r *route.Route) error
}

// AssignmentResult reports a successful match.
type AssignmentResult struct {
	CourierID  kernel.UUID
	DistanceKm float64
}

// AssignOrderCommandHandler orchestrates one courier assignment attempt:
// precondition checks, zone resolution, candidate filtering, distance
// ranking and the atomic conditional write that makes exactly one
// concurrent attempt win.
//
// Downstream effects (building the route, starting tracking, notifying the
// courier) run after the commit and are best-effort: their failure is
// logged but never rolls back the assignment.
type AssignOrderCommandHandler struct {
	uowFactory      DispatchUoWFactory
	routeUowFactory RouteUoWFactory
	planner         ports.RoutePlanner
	locations       ports.LocationStore
	notifier        ports.CourierNotifier
	tracker         TrackingStarter
	logger          *slog.Logger

	filter services.CandidateFilter
	ranker services.DistanceRanker
}

// NewAssignOrderCommandHandler creates a handler for assignment attempts.
func NewAssignOrderCommandHandler(
	uowFactory DispatchUoWFactory,
	routeUowFactory RouteUoWFactory,
	planner ports.RoutePlanner,
	locations ports.LocationStore,
	notifier ports.CourierNotifier,
	tracker TrackingStarter,
	logger *slog.Logger,
) AssignOrderCommandHandler {
	return AssignOrderCommandHandler{
		uowFactory:      uowFactory,
		routeUowFactory: routeUowFactory,
		planner:         planner,
		locations:       locations,
		notifier:        notifier,
		tracker:         tracker,
		logger:          logger.With("component", "assign_order"),
		filter:          services.NewCandidateFilter(),
		ranker:          services.NewDistanceRanker(),
	}
}

// Handle processes one assignment attempt.
//
// Returns:
//   - (*AssignmentResult, nil) on a committed match
//   - (nil, nil) when no eligible courier is available; not an error,
//     callers retry or surface "no courier available"
//   - (nil, ConflictError) when the order is not assignable or another
//     concurrent attempt won; a non-retryable no-op for this attempt
func (h AssignOrderCommandHandler) Handle(
	ctx context.Context,
	cmd AssignOrderCommand,
) (*AssignmentResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	uow := h.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, err
	}

	defer func() {
		_ = uow.Rollback(ctx)
	}()

	aggregate, err := uow.OrderRepository().Get(ctx, cmd.OrderID())
	if err != nil {
		return nil, err
	}

	// Precondition check before any side effect: a violation is a
	// ConflictError and nothing is mutated.
	if err = aggregate.Status().ValidateAssign(); err != nil {
		return nil, err
	}

	winner, err := h.pickWinner(ctx, uow, cmd)
	if err != nil {
		return nil, err
	}
	if winner == nil {
		return nil, nil
	}

	if err = aggregate.Assign(winner.Courier.ID()); err != nil {
		return nil, err
	}

	record, err := order.NewAssignmentRecord(
		aggregate.ID(), winner.Courier.ID(), winner.DistanceKm, time.Now(), methodFor(cmd.Mode()))
	if err != nil {
		return nil, err
	}

	// The conditional write is the single mutual-exclusion point: it only
	// succeeds when the stored order is still unassigned, so the losing
	// side of a race gets a ConflictError here.
	if err = uow.OrderRepository().Assign(ctx, aggregate, record); err != nil {
		return nil, err
	}

	if err = uow.Commit(ctx); err != nil {
		return nil, err
	}

	h.runDownstream(ctx, aggregate, winner.Courier)

	return &AssignmentResult{
		CourierID:  winner.Courier.ID(),
		DistanceKm: winner.DistanceKm,
	}, nil
}

// pickWinner resolves the zone, filters the roster and ranks by distance.
// A nil result means no eligible courier.
func (h AssignOrderCommandHandler) pickWinner(
	ctx context.Context,
	uow DispatchUoW,
	cmd AssignOrderCommand,
) (*services.RankedCourier, error) {
	z, err := h.resolveZone(ctx, uow, cmd.RestaurantID())
	if err != nil {
		return nil, err
	}

	couriers, err := uow.CourierRepository().GetAllAvailable(ctx)
	if err != nil {
		return nil, err
	}
	h.refreshPositions(ctx, couriers)

	candidates, err := h.filter.Filter(couriers, z, cmd.Mode(), cmd.ExcludedIDs())
	if err != nil {
		return nil, err
	}

	return h.ranker.Nearest(candidates, cmd.RestaurantLocation(), services.DefaultMaxDistanceKm)
}

// refreshPositions overlays each courier's persisted position with the
// latest fix from the live store, when one exists. Best-effort: a store
// failure leaves the persisted position in place.
func (h AssignOrderCommandHandler) refreshPositions(ctx context.Context, couriers []*courier.Courier) {
	for _, c := range couriers {
		fix, err := h.locations.GetFix(ctx, c.ID())
		if err != nil {
			h.logger.Warn("failed to read live position",
				"courier_id", c.ID().String(), "error", err)
			continue
		}
		if fix == nil {
			continue
		}
		if err := c.UpdatePosition(fix.Position); err != nil {
			h.logger.Warn("failed to apply live position",
				"courier_id", c.ID().String(), "error", err)
		}
	}
}

func (h AssignOrderCommandHandler) resolveZone(
	ctx context.Context,
	uow DispatchUoW,
	restaurantID *kernel.UUID,
) (*zone.Zone, error) {
	if restaurantID == nil {
		return nil, nil
	}
	return uow.ZoneRepository().GetByRestaurant(ctx, *restaurantID)
}

// runDownstream performs the best-effort post-commit effects. Every failure
// is logged and swallowed; the committed assignment stands.
func (h AssignOrderCommandHandler) runDownstream(
	ctx context.Context,
	aggregate *order.Order,
	winner *courier.Courier,
) {
	log := h.logger.With("order_id", aggregate.ID().String(), "courier_id", winner.ID().String())

	r := h.buildAndStoreRoute(ctx, aggregate, winner, log)
	if r != nil {
		if err := h.tracker.StartTracking(ctx, aggregate.ID(), winner.ID(), r); err != nil {
			log.Warn("failed to start tracking", "error", err)
		}
	}

	if err := h.notifier.NotifyAssigned(ctx, winner.ID(), aggregate); err != nil {
		log.Warn("failed to notify courier", "error", err)
	}
}

// buildAndStoreRoute fetches the courier-to-restaurant path and persists it.
// Returns nil when either step fails; tracking then starts later, on the
// first re-route.
func (h AssignOrderCommandHandler) buildAndStoreRoute(
	ctx context.Context,
	aggregate *order.Order,
	winner *courier.Courier,
	log *slog.Logger,
) *route.Route {
	position := winner.Position()
	if position == nil {
		log.Warn("courier has no position for route building")
		return nil
	}

	r, err := h.planner.BuildRoute(ctx, aggregate.ID(), *position, aggregate.Pickup())
	if err != nil {
		log.Warn("failed to build route", "error", err)
		return nil
	}

	uow := h.routeUowFactory.Create()
	if err = uow.Begin(ctx); err != nil {
		log.Warn("failed to open route transaction", "error", err)
		return r
	}
	defer func() {
		_ = uow.Rollback(ctx)
	}()

	if err = uow.RouteRepository().Add(ctx, r); err != nil {
		log.Warn("failed to persist route", "error", err)
		return r
	}
	if err = uow.Commit(ctx); err != nil {
		log.Warn("failed to commit route", "error", err)
	}
	return r
}

func methodFor(mode services.AssignmentMode) order.Method {
	if mode == services.ModeManual {
		return order.MethodManual
	}
	return order.MethodNearest
}
