package services

import (
	"sort"

	"dispatch/internal/core/domain/model/courier"
	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/pkg/errs"
)

const (
	// DefaultMaxDistanceKm is the farthest a courier may be from the
	// restaurant and still win a nearest-courier assignment.
	DefaultMaxDistanceKm = 50.0

	// DefaultBroadcastRadiusKm bounds the pool when an order is offered to
	// several nearby couriers at once.
	DefaultBroadcastRadiusKm = 5.0
)

// RankedCourier pairs a candidate with its great-circle distance from the
// assignment origin.
type RankedCourier struct {
	Courier    *courier.Courier
	DistanceKm float64
}

// DistanceRanker is a domain service that orders candidate couriers by
// great-circle distance from an origin, computed with the haversine formula.
//
// The ranker is pure and reentrant. It assumes CandidateFilter has already
// run, so every candidate carries a usable position.
type DistanceRanker struct{}

// NewDistanceRanker creates a new DistanceRanker instance.
func NewDistanceRanker() DistanceRanker {
	return DistanceRanker{}
}

// Nearest returns the closest candidate within maxDistanceKm of the origin.
//
// Parameters:
//   - candidates: the pool produced by CandidateFilter
//   - origin: the restaurant location
//   - maxDistanceKm: distance cutoff; pass DefaultMaxDistanceKm unless the
//     deployment tunes it
//
// Returns:
//   - *RankedCourier: the winner with its distance, or nil when no candidate
//     is within the cutoff; an empty result is not an error
//   - error: ValidationError if the origin or a candidate position is invalid
func (r DistanceRanker) Nearest(
	candidates []*courier.Courier,
	origin kernel.GeoPoint,
	maxDistanceKm float64,
) (*RankedCourier, error) {
	ranked, err := r.rank(candidates, origin)
	if err != nil {
		return nil, err
	}

	if len(ranked) == 0 || ranked[0].DistanceKm > maxDistanceKm {
		return nil, nil
	}
	return &ranked[0], nil
}

// WithinRadius returns all candidates within radiusKm of the origin, in
// ascending distance order, for broadcast-style offering to several couriers
// at once.
func (r DistanceRanker) WithinRadius(
	candidates []*courier.Courier,
	origin kernel.GeoPoint,
	radiusKm float64,
) ([]RankedCourier, error) {
	ranked, err := r.rank(candidates, origin)
	if err != nil {
		return nil, err
	}

	within := make([]RankedCourier, 0, len(ranked))
	for _, rc := range ranked {
		if rc.DistanceKm > radiusKm {
			break
		}
		within = append(within, rc)
	}
	return within, nil
}

func (r DistanceRanker) rank(candidates []*courier.Courier, origin kernel.GeoPoint) ([]RankedCourier, error) {
	if err := origin.Validate(); err != nil {
		return nil, errs.NewValueIsRequiredErrorWithCause("origin", err)
	}

	ranked := make([]RankedCourier, 0, len(candidates))
	for _, c := range candidates {
		position := c.Position()
		if position == nil {
			return nil, errs.NewValueIsRequiredError("courier position")
		}

		distance, err := position.DistanceKm(origin)
		if err != nil {
			return nil, err
		}
		ranked = append(ranked, RankedCourier{Courier: c, DistanceKm: distance})
	}

	// Ties break on courier ID so equal-distance ranking is reproducible
	// across runs.
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].DistanceKm != ranked[j].DistanceKm {
			return ranked[i].DistanceKm < ranked[j].DistanceKm
		}
		return ranked[i].Courier.ID().String() < ranked[j].Courier.ID().String()
	})
	return ranked, nil
}
