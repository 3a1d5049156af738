// Package route contains the Route aggregate: an immutable ordered waypoint
// list with precomputed along-path distances, plus the projection and
// progress queries map matching and animation are built on.
package route
