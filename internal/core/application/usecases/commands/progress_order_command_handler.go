package commands

import (
	"context"
	"log/slog"

	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/core/domain/model/order"
	"dispatch/internal/core/domain/model/route"
	"dispatch/internal/core/ports"
)

// TrackingLifecycle lets order progress drive the tracking pipeline: the
// delivery leg swaps the tracked route, and terminal transitions discard
// the tracking pair.
type TrackingLifecycle interface {
	// SwapRoute points a tracked order at a replacement route and resets
	// its matching state.
	SwapRoute(ctx context.Context, orderID kernel.UUID, r *route.Route) error

	// StopTracking tears down the tracking pair for an order, if any.
	StopTracking(orderID kernel.UUID)
}

// ProgressOrderCommandHandler applies order lifecycle transitions and keeps
// the tracking pipeline in step: starting the delivery leg builds the
// restaurant-to-customer route, and terminal transitions stop tracking.
//
// Route building for the delivery leg is best-effort; when it fails the
// courier keeps being tracked against the pickup-leg route and the next
// off-route re-route recovers.
type ProgressOrderCommandHandler struct {
	uowFactory      OrderUoWFactory
	routeUowFactory RouteUoWFactory
	planner         ports.RoutePlanner
	tracker         TrackingLifecycle
	logger          *slog.Logger
}

// NewProgressOrderCommandHandler creates a handler for order lifecycle
// transitions.
func NewProgressOrderCommandHandler(
	uowFactory OrderUoWFactory,
	routeUowFactory RouteUoWFactory,
	planner ports.RoutePlanner,
	tracker TrackingLifecycle,
	logger *slog.Logger,
) ProgressOrderCommandHandler {
	return ProgressOrderCommandHandler{
		uowFactory:      uowFactory,
		routeUowFactory: routeUowFactory,
		planner:         planner,
		tracker:         tracker,
		logger:          logger.With("component", "progress_order"),
	}
}

// Handle applies the requested transition. Invalid transitions surface as
// ConflictError and mutate nothing.
func (h ProgressOrderCommandHandler) Handle(ctx context.Context, cmd ProgressOrderCommand) error {
	if err := cmd.Validate(); err != nil {
		return err
	}

	uow := h.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return err
	}

	defer func() {
		_ = uow.Rollback(ctx)
	}()

	orderRepo := uow.OrderRepository()

	aggregate, err := orderRepo.Get(ctx, cmd.OrderID())
	if err != nil {
		return err
	}

	if err = h.applyTransition(aggregate, cmd.Action()); err != nil {
		return err
	}

	if err = orderRepo.Update(ctx, aggregate); err != nil {
		return err
	}

	if err = uow.Commit(ctx); err != nil {
		return err
	}

	h.syncTracking(ctx, aggregate, cmd.Action())
	return nil
}

func (h ProgressOrderCommandHandler) applyTransition(aggregate *order.Order, action ProgressAction) error {
	switch action {
	case ActionPickUp:
		return aggregate.PickUp()
	case ActionStartDelivery:
		return aggregate.StartDelivery()
	case ActionComplete:
		return aggregate.Complete()
	case ActionCancel:
		return aggregate.Cancel()
	default:
		return ErrProgressOrderCommandIsNotConstructed
	}
}

// syncTracking runs the best-effort post-commit tracking effects.
func (h ProgressOrderCommandHandler) syncTracking(
	ctx context.Context,
	aggregate *order.Order,
	action ProgressAction,
) {
	switch action {
	case ActionStartDelivery:
		h.swapToDeliveryLeg(ctx, aggregate)
	case ActionComplete, ActionCancel:
		h.tracker.StopTracking(aggregate.ID())
	case ActionPickUp:
		// Tracking keeps matching against the pickup-leg route until the
		// courier actually departs.
	}
}

// swapToDeliveryLeg builds and persists the restaurant-to-customer route
// and points tracking at it.
func (h ProgressOrderCommandHandler) swapToDeliveryLeg(ctx context.Context, aggregate *order.Order) {
	log := h.logger.With("order_id", aggregate.ID().String())

	r, err := h.planner.BuildRoute(ctx, aggregate.ID(), aggregate.Pickup(), aggregate.Dropoff())
	if err != nil {
		log.Warn("failed to build delivery leg route", "error", err)
		return
	}

	uow := h.routeUowFactory.Create()
	if err = uow.Begin(ctx); err != nil {
		log.Warn("failed to open route transaction", "error", err)
		return
	}
	defer func() {
		_ = uow.Rollback(ctx)
	}()

	if err = uow.RouteRepository().Replace(ctx, r); err != nil {
		log.Warn("failed to persist delivery leg route", "error", err)
		return
	}
	if err = uow.Commit(ctx); err != nil {
		log.Warn("failed to commit delivery leg route", "error", err)
		return
	}

	if err = h.tracker.SwapRoute(ctx, aggregate.ID(), r); err != nil {
		log.Warn("failed to swap tracked route", "error", err)
	}
}
