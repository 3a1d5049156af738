package commands

import (
	"errors"
	"time"

	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/pkg/errs"
	"dispatch/internal/pkg/guard"
)

var (
	ErrReportLocationCommandIsNotConstructed = errors.New(
		"ReportLocationCommand must be created via NewReportLocationCommand constructor",
	)
	ErrTimestampIsRequired = errors.New("timestamp is required")
)

// ReportLocationCommand carries one raw location fix from a courier's
// client: position, optional heading and the client-side timestamp.
// Fixes stream in continuously while the courier works an order.
type ReportLocationCommand struct { //nolint:recvcheck //using for validation
	courierID kernel.UUID
	position  kernel.GeoPoint
	heading   *float64
	timestamp time.Time

	guard guard.ConstructorGuard
}

// NewReportLocationCommand creates a command for one location fix.
// The heading is optional; when present it must be in [0, 360).
func NewReportLocationCommand(
	courierID kernel.UUID,
	position kernel.GeoPoint,
	heading *float64,
	timestamp time.Time,
) (ReportLocationCommand, error) {
	cmd := ReportLocationCommand{
		guard: guard.NewConstructorGuard(),
	}

	if err := errors.Join(
		cmd.setCourierID(courierID),
		cmd.setPosition(position),
		cmd.setHeading(heading),
		cmd.setTimestamp(timestamp),
	); err != nil {
		return ReportLocationCommand{}, err
	}

	return cmd, nil
}

// Validate ensures the command was created through the constructor.
func (c ReportLocationCommand) Validate() error {
	return c.guard.Validate(ErrReportLocationCommandIsNotConstructed)
}

// CourierID returns the reporting courier.
func (c ReportLocationCommand) CourierID() kernel.UUID {
	return c.courierID
}

// Position returns the reported position.
func (c ReportLocationCommand) Position() kernel.GeoPoint {
	return c.position
}

// Heading returns the reported heading in degrees, or nil when the device
// did not report one.
func (c ReportLocationCommand) Heading() *float64 {
	return c.heading
}

// Timestamp returns the client-side time of the fix.
func (c ReportLocationCommand) Timestamp() time.Time {
	return c.timestamp
}

func (c *ReportLocationCommand) setCourierID(courierID kernel.UUID) error {
	if err := courierID.Validate(); err != nil {
		return err
	}

	c.courierID = courierID
	return nil
}

func (c *ReportLocationCommand) setPosition(position kernel.GeoPoint) error {
	if err := position.Validate(); err != nil {
		return err
	}

	c.position = position
	return nil
}

func (c *ReportLocationCommand) setHeading(heading *float64) error {
	if heading == nil {
		return nil
	}
	if *heading < 0 || *heading >= 360 {
		return errs.NewValueIsOutOfRangeError("heading", *heading, 0, 360)
	}

	h := *heading
	c.heading = &h
	return nil
}

func (c *ReportLocationCommand) setTimestamp(timestamp time.Time) error {
	if timestamp.IsZero() {
		return ErrTimestampIsRequired
	}

	c.timestamp = timestamp
	return nil
}
