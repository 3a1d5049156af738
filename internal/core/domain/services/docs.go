// Package services provides domain services that orchestrate business
// operations across multiple domain entities in the dispatch system. It
// implements logic that spans aggregates and doesn't naturally belong to a
// single aggregate root.
//
// The package includes:
//   - CandidateFilter: narrows the courier roster to the candidate pool for
//     one assignment attempt, applying mode-dependent zone scoping
//   - DistanceRanker: orders candidates by haversine distance and answers
//     nearest / within-radius queries
//   - MapMatcher: snaps noisy courier fixes onto an order's route with
//     forward bias, monotonic progress and off-route detection
//
// CandidateFilter and DistanceRanker are pure and reentrant; MapMatcher owns
// all mutation of tracking state and relies on the caller to serialize fixes
// per tracking pair.
package services
