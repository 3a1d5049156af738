package commands_test

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"dispatch/internal/core/application/usecases/commands"
	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/core/domain/model/tracking"
	"dispatch/internal/pkg/errs"
)

func TestReportLocationCommandHandler_Handle_Success(t *testing.T) {
	ctx := t.Context()

	testCourier := availableCourier(t, "Asha", 12.90, 77.60)
	position := testPoint(t, 12.905, 77.605)
	reportedAt := time.Now()
	cmd, err := commands.NewReportLocationCommand(testCourier.ID(), position, nil, reportedAt)
	require.NoError(t, err)

	courierRepo := new(MockCourierRepository)
	uow := new(MockCourierUoW)
	locations := new(MockLocationStore)
	sink := new(MockFixSink)

	fixMatcher := mock.MatchedBy(func(fix tracking.Fix) bool {
		return fix.CourierID.IsEqual(testCourier.ID()) &&
			fix.Position.Lat() == position.Lat() &&
			fix.At.Equal(reportedAt)
	})

	mock.InOrder(
		uow.On("Begin", ctx).Return(nil).Once(),
		uow.On("CourierRepository").Return(courierRepo).Once(),
		courierRepo.On("Get", ctx, testCourier.ID()).Return(testCourier, nil).Once(),
		courierRepo.On("Update", ctx, testCourier).Return(nil).Once(),
		uow.On("Commit", ctx).Return(nil).Once(),
		locations.On("SetFix", ctx, fixMatcher).Return(nil).Once(),
		sink.On("Offer", fixMatcher).Once(),
		uow.On("Rollback", ctx).Return(nil).Once(),
	)

	factory := new(MockCourierUoWFactory)
	factory.On("Create").Return(uow).Once()

	handler := commands.NewReportLocationCommandHandler(factory, locations, sink, discardLogger())
	err = handler.Handle(ctx, cmd)

	require.NoError(t, err)
	require.NotNil(t, testCourier.Position())
	require.Equal(t, position.Lat(), testCourier.Position().Lat())
	courierRepo.AssertExpectations(t)
	locations.AssertExpectations(t)
	sink.AssertExpectations(t)
}

func TestReportLocationCommandHandler_Handle_CourierNotFound(t *testing.T) {
	ctx := t.Context()

	courierID := kernel.NewUUID()
	cmd, err := commands.NewReportLocationCommand(
		courierID, testPoint(t, 12.90, 77.60), nil, time.Now())
	require.NoError(t, err)

	courierRepo := new(MockCourierRepository)
	uow := new(MockCourierUoW)

	mock.InOrder(
		uow.On("Begin", ctx).Return(nil).Once(),
		uow.On("CourierRepository").Return(courierRepo).Once(),
		courierRepo.On("Get", ctx, courierID).
			Return(nil, errs.NewObjectNotFoundError("courier", courierID)).Once(),
		uow.On("Rollback", ctx).Return(nil).Once(),
	)

	factory := new(MockCourierUoWFactory)
	factory.On("Create").Return(uow).Once()
	sink := new(MockFixSink)

	handler := commands.NewReportLocationCommandHandler(
		factory, new(MockLocationStore), sink, discardLogger())
	err = handler.Handle(ctx, cmd)

	require.ErrorIs(t, err, errs.ErrObjectNotFound)
	sink.AssertNotCalled(t, "Offer")
}

func TestReportLocationCommandHandler_Handle_LiveStoreFailureIsSwallowed(t *testing.T) {
	ctx := t.Context()

	testCourier := availableCourier(t, "Asha", 12.90, 77.60)
	cmd, err := commands.NewReportLocationCommand(
		testCourier.ID(), testPoint(t, 12.905, 77.605), nil, time.Now())
	require.NoError(t, err)

	courierRepo := new(MockCourierRepository)
	uow := new(MockCourierUoW)
	locations := new(MockLocationStore)
	sink := new(MockFixSink)

	mock.InOrder(
		uow.On("Begin", ctx).Return(nil).Once(),
		uow.On("CourierRepository").Return(courierRepo).Once(),
		courierRepo.On("Get", ctx, testCourier.ID()).Return(testCourier, nil).Once(),
		courierRepo.On("Update", ctx, testCourier).Return(nil).Once(),
		uow.On("Commit", ctx).Return(nil).Once(),
		locations.On("SetFix", ctx, mock.AnythingOfType("tracking.Fix")).
			Return(errors.New("redis down")).Once(),
		sink.On("Offer", mock.AnythingOfType("tracking.Fix")).Once(),
		uow.On("Rollback", ctx).Return(nil).Once(),
	)

	factory := new(MockCourierUoWFactory)
	factory.On("Create").Return(uow).Once()

	handler := commands.NewReportLocationCommandHandler(factory, locations, sink, discardLogger())
	err = handler.Handle(ctx, cmd)

	require.NoError(t, err, "a live-store outage must not drop the fix")
	sink.AssertExpectations(t)
}
