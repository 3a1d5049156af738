// Package tracking contains the per-(order, courier) map-matching state:
// last matched segment, monotonic progress fraction, bearing and the
// pending re-route flag.
package tracking
