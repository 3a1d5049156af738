package jobs

import (
	"context"
	"errors"
	"log/slog"

	"dispatch/internal/core/application/usecases/commands"
	"dispatch/internal/core/domain/model/order"
	"dispatch/internal/core/domain/services"
	"dispatch/internal/pkg/errs"

	"github.com/robfig/cron/v3"
)

// OrderAssignmentJob retries dispatch for orders still waiting on a
// courier. Runs every second so an order skipped earlier, because no courier
// was in range or all were busy, is picked up as soon as the situation
// changes.
type OrderAssignmentJob struct {
	uowFactory commands.OrderUoWFactory
	handler    commands.AssignOrderCommandHandler
	cron       *cron.Cron
	logger     *slog.Logger
}

// NewOrderAssignmentJob creates a job that sweeps ready orders through the
// assignment handler.
func NewOrderAssignmentJob(
	uowFactory commands.OrderUoWFactory,
	handler commands.AssignOrderCommandHandler,
	logger *slog.Logger,
) *OrderAssignmentJob {
	return &OrderAssignmentJob{
		uowFactory: uowFactory,
		handler:    handler,
		cron:       cron.New(cron.WithSeconds()),
		logger:     logger.With("component", "order_assignment_job"),
	}
}

// Start begins the assignment job to run every second.
func (j *OrderAssignmentJob) Start() error {
	_, err := j.cron.AddFunc("* * * * * *", j.sweep)
	if err != nil {
		return err
	}

	j.cron.Start()
	j.logger.InfoContext(context.Background(), "Order assignment job started (running every second)")
	return nil
}

// Stop stops the assignment job.
func (j *OrderAssignmentJob) Stop() {
	j.cron.Stop()
	j.logger.InfoContext(context.Background(), "Order assignment job stopped")
}

// sweep runs one assignment attempt per ready order. Finding no courier
// and losing a race to a concurrent attempt are expected outcomes, not
// failures.
func (j *OrderAssignmentJob) sweep() {
	ctx := context.Background()

	ready, err := j.readyOrders(ctx)
	if err != nil {
		j.logger.ErrorContext(ctx, "Failed to load ready orders", "error", err)
		return
	}

	for _, aggregate := range ready {
		restaurantID := aggregate.RestaurantID()
		cmd, err := commands.NewAssignOrderCommand(
			aggregate.ID(),
			aggregate.Pickup(),
			&restaurantID,
			services.ModeAutomatic,
			nil,
		)
		if err != nil {
			j.logger.ErrorContext(ctx, "Failed to build assignment command",
				"order_id", aggregate.ID().String(), "error", err)
			continue
		}

		result, err := j.handler.Handle(ctx, cmd)
		switch {
		case errors.Is(err, errs.ErrConflict):
			// Another attempt claimed the order first.
		case err != nil:
			j.logger.ErrorContext(ctx, "Assignment attempt failed",
				"order_id", aggregate.ID().String(), "error", err)
		case result != nil:
			j.logger.InfoContext(ctx, "Order assigned by retry sweep",
				"order_id", aggregate.ID().String(),
				"courier_id", result.CourierID.String(),
			)
		}
	}
}

func (j *OrderAssignmentJob) readyOrders(ctx context.Context) ([]*order.Order, error) {
	uow := j.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, err
	}
	defer func() { _ = uow.Rollback(ctx) }()

	return uow.OrderRepository().GetAllInReadyStatus(ctx)
}
