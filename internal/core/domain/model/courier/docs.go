// Package courier contains the delivery-partner aggregate.
//
// A Courier carries identity, availability (online/approved), the last
// reported live position and optional explicit zone bindings. Candidate
// filtering reads this state to build the eligible pool for one assignment
// attempt; the live-position stream itself flows through the tracking
// pipeline, not through this aggregate.
package courier
