// Package redisstore implements the LocationStore port on Redis. The
// latest raw fix per courier lives under a short TTL, so a courier that
// stops reporting naturally drops out of position reads.
package redisstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/core/domain/model/tracking"
	"dispatch/internal/pkg/errs"
)

const (
	serviceName = "redis"

	fixKeyPrefix = "courier:fix:"

	// fixTTL bounds how long a stale fix keeps answering position reads.
	fixTTL = 2 * time.Minute
)

// fixDTO is the wire form of a stored fix.
type fixDTO struct {
	CourierID string    `json:"courier_id"`
	Latitude  float64   `json:"lat"`
	Longitude float64   `json:"lng"`
	Heading   *float64  `json:"heading,omitempty"`
	At        time.Time `json:"at"`
}

// LocationStore keeps the latest raw fix per courier in Redis.
type LocationStore struct {
	client *redis.Client
}

// NewLocationStore creates a store backed by the given Redis client.
func NewLocationStore(client *redis.Client) *LocationStore {
	return &LocationStore{client: client}
}

// SetFix stores the latest raw fix for a courier, displacing the previous
// one and refreshing the TTL.
func (s *LocationStore) SetFix(ctx context.Context, fix tracking.Fix) error {
	if err := fix.CourierID.Validate(); err != nil {
		return err
	}
	if err := fix.Position.Validate(); err != nil {
		return err
	}

	dto := fixDTO{
		CourierID: fix.CourierID.String(),
		Latitude:  fix.Position.Lat(),
		Longitude: fix.Position.Lng(),
		Heading:   fix.Heading,
		At:        fix.At,
	}

	payload, err := json.Marshal(dto)
	if err != nil {
		return err
	}

	if err := s.client.Set(ctx, fixKey(fix.CourierID), payload, fixTTL).Err(); err != nil {
		return errs.NewExternalServiceError(serviceName, err)
	}

	return nil
}

// GetFix retrieves the latest raw fix for a courier. A missing or expired
// key is an expected case and returns (nil, nil).
func (s *LocationStore) GetFix(ctx context.Context, courierID kernel.UUID) (*tracking.Fix, error) {
	if err := courierID.Validate(); err != nil {
		return nil, err
	}

	payload, err := s.client.Get(ctx, fixKey(courierID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, errs.NewExternalServiceError(serviceName, err)
	}

	var dto fixDTO
	if err := json.Unmarshal(payload, &dto); err != nil {
		return nil, err
	}

	id, err := kernel.UUIDFromString(dto.CourierID)
	if err != nil {
		return nil, err
	}

	position, err := kernel.NewGeoPoint(dto.Latitude, dto.Longitude)
	if err != nil {
		return nil, err
	}

	return &tracking.Fix{
		CourierID: id,
		Position:  position,
		Heading:   dto.Heading,
		At:        dto.At,
	}, nil
}

func fixKey(courierID kernel.UUID) string {
	return fmt.Sprintf("%s%s", fixKeyPrefix, courierID)
}
