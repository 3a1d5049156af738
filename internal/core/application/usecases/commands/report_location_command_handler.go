package commands

import (
	"context"
	"log/slog"

	"dispatch/internal/core/domain/model/tracking"
	"dispatch/internal/core/ports"
)

// FixSink receives raw fixes for the tracking pipeline. Offer must not
// block: fixes for pairs that are not being tracked are simply dropped.
type FixSink interface {
	Offer(fix tracking.Fix)
}

// ReportLocationCommandHandler ingests one raw location fix: it updates the
// courier aggregate, refreshes the live position store and hands the fix to
// the tracking pipeline.
//
// The live store refresh is best-effort; a failure there is logged and the
// fix still reaches tracking.
type ReportLocationCommandHandler struct {
	uowFactory CourierUoWFactory
	locations  ports.LocationStore
	sink       FixSink
	logger     *slog.Logger
}

// NewReportLocationCommandHandler creates a handler for location ingestion.
func NewReportLocationCommandHandler(
	uowFactory CourierUoWFactory,
	locations ports.LocationStore,
	sink FixSink,
	logger *slog.Logger,
) ReportLocationCommandHandler {
	return ReportLocationCommandHandler{
		uowFactory: uowFactory,
		locations:  locations,
		sink:       sink,
		logger:     logger.With("component", "report_location"),
	}
}

// Handle processes one fix. The courier's persisted position is updated
// transactionally; the live store and the tracking pipeline see the fix
// afterwards.
func (h ReportLocationCommandHandler) Handle(ctx context.Context, cmd ReportLocationCommand) error {
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

	courierRepo := uow.CourierRepository()

	aggregate, err := courierRepo.Get(ctx, cmd.CourierID())
	if err != nil {
		return err
	}

	if err = aggregate.UpdatePosition(cmd.Position()); err != nil {
		return err
	}

	if err = courierRepo.Update(ctx, aggregate); err != nil {
		return err
	}

	if err = uow.Commit(ctx); err != nil {
		return err
	}

	fix := tracking.Fix{
		CourierID: cmd.CourierID(),
		Position:  cmd.Position(),
		Heading:   cmd.Heading(),
		At:        cmd.Timestamp(),
	}

	if err = h.locations.SetFix(ctx, fix); err != nil {
		h.logger.Warn("failed to refresh live position",
			"courier_id", cmd.CourierID().String(), "error", err)
	}

	h.sink.Offer(fix)
	return nil
}
