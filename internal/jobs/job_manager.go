package jobs

import (
	"fmt"
	"log/slog"

	"dispatch/internal/core/application/usecases/commands"
	"dispatch/internal/core/ports"
)

// JobManager coordinates all scheduled jobs in the application.
// Provides a unified interface to start and stop all background jobs.
type JobManager struct {
	orderAssignmentJob *OrderAssignmentJob
	trackerSweepJob    *TrackerSweepJob
}

// NewJobManager creates a new job manager with all required jobs.
func NewJobManager(
	orderUoWFactory commands.OrderUoWFactory,
	assignHandler commands.AssignOrderCommandHandler,
	uowFactory ports.UnitOfWorkFactory,
	supervisor TrackingSupervisor,
	logger *slog.Logger,
) *JobManager {
	return &JobManager{
		orderAssignmentJob: NewOrderAssignmentJob(orderUoWFactory, assignHandler, logger),
		trackerSweepJob:    NewTrackerSweepJob(uowFactory, supervisor, logger),
	}
}

// StartAll starts all scheduled jobs.
// Returns an error if any job fails to start.
func (jm *JobManager) StartAll() error {
	if err := jm.orderAssignmentJob.Start(); err != nil {
		return fmt.Errorf("failed to start order assignment job: %w", err)
	}

	if err := jm.trackerSweepJob.Start(); err != nil {
		// Stop already started jobs if this one fails
		jm.orderAssignmentJob.Stop()
		return fmt.Errorf("failed to start tracker sweep job: %w", err)
	}

	return nil
}

// StopAll stops all scheduled jobs gracefully.
func (jm *JobManager) StopAll() {
	jm.trackerSweepJob.Stop()
	jm.orderAssignmentJob.Stop()
}
