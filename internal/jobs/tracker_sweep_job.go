package jobs

import (
	"context"
	"errors"
	"log/slog"

	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/core/domain/model/route"
	"dispatch/internal/core/ports"
	"dispatch/internal/pkg/errs"

	"github.com/robfig/cron/v3"
)

// TrackingSupervisor is the subset of the tracking manager the sweep job
// drives to reconcile live trackers with persisted order state.
type TrackingSupervisor interface {
	StartTracking(ctx context.Context, orderID kernel.UUID, courierID kernel.UUID, r *route.Route) error
	StopTracking(orderID kernel.UUID)
	IsTracking(orderID kernel.UUID) bool
	TrackedOrderIDs() []kernel.UUID
}

// TrackerSweepJob reconciles the in-memory tracking set with the orders
// table once a minute. It revives trackers lost to a restart and tears
// down trackers whose orders finished outside the normal flow.
type TrackerSweepJob struct {
	uowFactory ports.UnitOfWorkFactory
	supervisor TrackingSupervisor
	cron       *cron.Cron
	logger     *slog.Logger
}

// NewTrackerSweepJob creates a job that keeps trackers aligned with
// active orders.
func NewTrackerSweepJob(
	uowFactory ports.UnitOfWorkFactory,
	supervisor TrackingSupervisor,
	logger *slog.Logger,
) *TrackerSweepJob {
	return &TrackerSweepJob{
		uowFactory: uowFactory,
		supervisor: supervisor,
		cron:       cron.New(cron.WithSeconds()),
		logger:     logger.With("component", "tracker_sweep_job"),
	}
}

// Start begins the sweep job to run every minute.
func (j *TrackerSweepJob) Start() error {
	_, err := j.cron.AddFunc("0 * * * * *", j.sweep)
	if err != nil {
		return err
	}

	j.cron.Start()
	j.logger.InfoContext(context.Background(), "Tracker sweep job started (running every minute)")
	return nil
}

// Stop stops the sweep job.
func (j *TrackerSweepJob) Stop() {
	j.cron.Stop()
	j.logger.InfoContext(context.Background(), "Tracker sweep job stopped")
}

func (j *TrackerSweepJob) sweep() {
	ctx := context.Background()

	uow := j.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		j.logger.ErrorContext(ctx, "Failed to open unit of work", "error", err)
		return
	}
	defer func() { _ = uow.Rollback(ctx) }()

	active, err := uow.OrderRepository().GetAllActive(ctx)
	if err != nil {
		j.logger.ErrorContext(ctx, "Failed to load active orders", "error", err)
		return
	}

	activeIDs := make(map[string]struct{}, len(active))
	for _, aggregate := range active {
		activeIDs[aggregate.ID().String()] = struct{}{}

		courierID := aggregate.CourierID()
		if courierID == nil || j.supervisor.IsTracking(aggregate.ID()) {
			continue
		}

		r, err := uow.RouteRepository().GetByOrder(ctx, aggregate.ID())
		if err != nil {
			var notFound *errs.ObjectNotFoundError
			if !errors.As(err, &notFound) {
				j.logger.ErrorContext(ctx, "Failed to load route for active order",
					"order_id", aggregate.ID().String(), "error", err)
			}
			continue
		}

		if err := j.supervisor.StartTracking(ctx, aggregate.ID(), *courierID, r); err != nil {
			j.logger.ErrorContext(ctx, "Failed to revive tracker",
				"order_id", aggregate.ID().String(), "error", err)
			continue
		}
		j.logger.InfoContext(ctx, "Tracker revived for active order",
			"order_id", aggregate.ID().String())
	}

	for _, orderID := range j.supervisor.TrackedOrderIDs() {
		if _, ok := activeIDs[orderID.String()]; ok {
			continue
		}
		j.supervisor.StopTracking(orderID)
		j.logger.InfoContext(ctx, "Tracker stopped for inactive order",
			"order_id", orderID.String())
	}
}
