// Package jobs provides scheduled background tasks for the dispatch system.
//
// This package implements cron-based jobs using github.com/robfig/cron/v3
// to handle periodic operations required for the dispatch service.
//
// # Available Jobs
//
// 1. OrderAssignmentJob - Runs every second to assign waiting orders to available couriers
// 2. TrackerSweepJob - Runs every minute to reconcile live trackers with persisted order state
//
// # Usage
//
// Jobs are managed through JobManager which provides a unified interface:
//
//	// Create job manager with required dependencies
//	jobManager := jobs.NewJobManager(orderUoWFactory, assignHandler, uowFactory, trackingManager, logger)
//
//	// Start all jobs
//	if err := jobManager.StartAll(); err != nil {
//		log.Fatal("Failed to start jobs:", err)
//	}
//
//	// Stop all jobs when shutting down
//	defer jobManager.StopAll()
//
// # Error Handling
//
// - Assignment job ignores expected business outcomes (no eligible courier, lost race)
// - Sweep job logs all errors as they indicate system issues
// - Failed job starts will stop any already running jobs
package jobs
