package commands_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"dispatch/internal/core/application/usecases/commands"
	"dispatch/internal/core/domain/model/courier"
	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/core/domain/model/order"
	"dispatch/internal/core/domain/model/route"
	"dispatch/internal/core/domain/model/tracking"
	"dispatch/internal/core/domain/services"
	"dispatch/internal/core/ports"
	"dispatch/internal/pkg/errs"
)

func newAssignHandler(
	factory *MockDispatchUoWFactory,
	routeFactory *MockRouteUoWFactory,
	planner *MockRoutePlanner,
	notifier *MockCourierNotifier,
	tracker *MockTracker,
) commands.AssignOrderCommandHandler {
	// No live fixes by default; couriers rank on their persisted position.
	locations := new(MockLocationStore)
	locations.On("GetFix", mock.Anything, mock.Anything).Return(nil, nil)

	return commands.NewAssignOrderCommandHandler(
		factory, routeFactory, planner, locations, notifier, tracker, discardLogger())
}

func TestAssignOrderCommandHandler_Handle_Success(t *testing.T) {
	ctx := t.Context()

	testOrder := readyOrder(t)
	testCourier := availableCourier(t, "Asha", 12.91, 77.60)
	cmd, err := commands.NewAssignOrderCommand(
		testOrder.ID(), testOrder.Pickup(), nil, services.ModeAutomatic, nil)
	require.NoError(t, err)

	r := pickupRoute(t, testOrder.ID())

	orderRepo := new(MockOrderRepository)
	courierRepo := new(MockCourierRepository)
	uow := new(MockDispatchUoW)
	routeRepo := new(MockRouteRepository)
	routeUow := new(MockRouteUoW)
	routeFactory := new(MockRouteUoWFactory)
	planner := new(MockRoutePlanner)
	notifier := new(MockCourierNotifier)
	tracker := new(MockTracker)

	mock.InOrder(
		uow.On("Begin", ctx).Return(nil).Once(),
		uow.On("OrderRepository").Return(orderRepo).Once(),
		orderRepo.On("Get", ctx, testOrder.ID()).Return(testOrder, nil).Once(),
		uow.On("CourierRepository").Return(courierRepo).Once(),
		courierRepo.On("GetAllAvailable", ctx).Return([]*courier.Courier{testCourier}, nil).Once(),
		uow.On("OrderRepository").Return(orderRepo).Once(),
		orderRepo.On("Assign", ctx, testOrder,
			mock.AnythingOfType("order.AssignmentRecord")).Return(nil).Once(),
		uow.On("Commit", ctx).Return(nil).Once(),
		planner.On("BuildRoute", ctx, testOrder.ID(),
			*testCourier.Position(), testOrder.Pickup()).Return(r, nil).Once(),
		routeUow.On("Begin", ctx).Return(nil).Once(),
		routeUow.On("RouteRepository").Return(routeRepo).Once(),
		routeRepo.On("Add", ctx, r).Return(nil).Once(),
		routeUow.On("Commit", ctx).Return(nil).Once(),
		routeUow.On("Rollback", ctx).Return(nil).Once(),
		tracker.On("StartTracking", ctx, testOrder.ID(), testCourier.ID(), r).Return(nil).Once(),
		notifier.On("NotifyAssigned", ctx, testCourier.ID(), testOrder).Return(nil).Once(),
		uow.On("Rollback", ctx).Return(nil).Once(),
	)

	factory := new(MockDispatchUoWFactory)
	factory.On("Create").Return(uow).Once()
	routeFactory.On("Create").Return(routeUow).Once()

	handler := newAssignHandler(factory, routeFactory, planner, notifier, tracker)
	result, err := handler.Handle(ctx, cmd)

	require.NoError(t, err)
	require.NotNil(t, result)
	assert.True(t, result.CourierID.IsEqual(testCourier.ID()))
	assert.InDelta(t, 1.11, result.DistanceKm, 0.05)
	assert.Equal(t, order.Assigned, testOrder.Status())

	orderRepo.AssertExpectations(t)
	courierRepo.AssertExpectations(t)
	uow.AssertExpectations(t)
	planner.AssertExpectations(t)
	tracker.AssertExpectations(t)
	notifier.AssertExpectations(t)
}

func TestAssignOrderCommandHandler_Handle_LiveFixOverridesStalePosition(t *testing.T) {
	ctx := t.Context()

	testOrder := readyOrder(t)
	// Persisted positions favor Binu, but Asha's live fix puts her right
	// next to the restaurant; ranking must use the fresher coordinates.
	asha := availableCourier(t, "Asha", 12.99, 77.60)
	binu := availableCourier(t, "Binu", 12.95, 77.60)
	liveFix := &tracking.Fix{
		CourierID: asha.ID(),
		Position:  testPoint(t, 12.905, 77.60),
		At:        time.Now(),
	}

	orderRepo := new(MockOrderRepository)
	courierRepo := new(MockCourierRepository)
	uow := new(MockDispatchUoW)
	locations := new(MockLocationStore)

	mock.InOrder(
		uow.On("Begin", ctx).Return(nil).Once(),
		uow.On("OrderRepository").Return(orderRepo).Once(),
		orderRepo.On("Get", ctx, testOrder.ID()).Return(testOrder, nil).Once(),
		uow.On("CourierRepository").Return(courierRepo).Once(),
		courierRepo.On("GetAllAvailable", ctx).
			Return([]*courier.Courier{asha, binu}, nil).Once(),
		uow.On("OrderRepository").Return(orderRepo).Once(),
		orderRepo.On("Assign", ctx, testOrder,
			mock.AnythingOfType("order.AssignmentRecord")).Return(nil).Once(),
		uow.On("Commit", ctx).Return(nil).Once(),
		uow.On("Rollback", ctx).Return(nil).Once(),
	)
	locations.On("GetFix", ctx, asha.ID()).Return(liveFix, nil).Once()
	locations.On("GetFix", ctx, binu.ID()).Return(nil, nil).Once()

	factory := new(MockDispatchUoWFactory)
	factory.On("Create").Return(uow).Once()
	routeFactory := new(MockRouteUoWFactory)
	routeUow := new(MockRouteUoW)
	routeRepo := new(MockRouteRepository)
	routeFactory.On("Create").Return(routeUow).Once()
	routeUow.On("Begin", ctx).Return(nil).Once()
	routeUow.On("RouteRepository").Return(routeRepo).Once()
	routeRepo.On("Add", ctx, mock.Anything).Return(nil).Once()
	routeUow.On("Commit", ctx).Return(nil).Once()
	routeUow.On("Rollback", ctx).Return(nil).Once()

	r := pickupRoute(t, testOrder.ID())
	planner := new(MockRoutePlanner)
	planner.On("BuildRoute", ctx, testOrder.ID(), liveFix.Position, testOrder.Pickup()).
		Return(r, nil).Once()
	notifier := new(MockCourierNotifier)
	notifier.On("NotifyAssigned", ctx, asha.ID(), testOrder).Return(nil).Once()
	tracker := new(MockTracker)
	tracker.On("StartTracking", ctx, testOrder.ID(), asha.ID(), r).Return(nil).Once()

	cmd, err := commands.NewAssignOrderCommand(
		testOrder.ID(), testOrder.Pickup(), nil, services.ModeAutomatic, nil)
	require.NoError(t, err)

	handler := commands.NewAssignOrderCommandHandler(
		factory, routeFactory, planner, locations, notifier, tracker, discardLogger())
	result, err := handler.Handle(ctx, cmd)

	require.NoError(t, err)
	require.NotNil(t, result)
	assert.True(t, result.CourierID.IsEqual(asha.ID()), "the live fix decides the ranking")
	assert.InDelta(t, 0.56, result.DistanceKm, 0.05)

	locations.AssertExpectations(t)
	planner.AssertExpectations(t)
}

func TestAssignOrderCommandHandler_Handle_ValidationError(t *testing.T) {
	factory := new(MockDispatchUoWFactory)
	handler := newAssignHandler(factory, new(MockRouteUoWFactory),
		new(MockRoutePlanner), new(MockCourierNotifier), new(MockTracker))

	_, err := handler.Handle(t.Context(), commands.AssignOrderCommand{})

	require.ErrorIs(t, err, commands.ErrAssignOrderCommandIsNotConstructed)
	factory.AssertNotCalled(t, "Create")
}

func TestAssignOrderCommandHandler_Handle_NoCandidates(t *testing.T) {
	ctx := t.Context()

	testOrder := readyOrder(t)
	cmd, err := commands.NewAssignOrderCommand(
		testOrder.ID(), testOrder.Pickup(), nil, services.ModeAutomatic, nil)
	require.NoError(t, err)

	orderRepo := new(MockOrderRepository)
	courierRepo := new(MockCourierRepository)
	uow := new(MockDispatchUoW)

	mock.InOrder(
		uow.On("Begin", ctx).Return(nil).Once(),
		uow.On("OrderRepository").Return(orderRepo).Once(),
		orderRepo.On("Get", ctx, testOrder.ID()).Return(testOrder, nil).Once(),
		uow.On("CourierRepository").Return(courierRepo).Once(),
		courierRepo.On("GetAllAvailable", ctx).Return([]*courier.Courier{}, nil).Once(),
		uow.On("Rollback", ctx).Return(nil).Once(),
	)

	factory := new(MockDispatchUoWFactory)
	factory.On("Create").Return(uow).Once()
	tracker := new(MockTracker)

	handler := newAssignHandler(factory, new(MockRouteUoWFactory),
		new(MockRoutePlanner), new(MockCourierNotifier), tracker)
	result, err := handler.Handle(ctx, cmd)

	require.NoError(t, err, "an empty candidate pool is not an error")
	assert.Nil(t, result)
	assert.Equal(t, order.Ready, testOrder.Status(), "no mutation without a winner")
	tracker.AssertNotCalled(t, "StartTracking")
}

func TestAssignOrderCommandHandler_Handle_OrderNotAssignable(t *testing.T) {
	ctx := t.Context()

	testOrder := readyOrder(t)
	require.NoError(t, testOrder.Assign(kernel.NewUUID()))
	cmd, err := commands.NewAssignOrderCommand(
		testOrder.ID(), testOrder.Pickup(), nil, services.ModeAutomatic, nil)
	require.NoError(t, err)

	orderRepo := new(MockOrderRepository)
	uow := new(MockDispatchUoW)

	mock.InOrder(
		uow.On("Begin", ctx).Return(nil).Once(),
		uow.On("OrderRepository").Return(orderRepo).Once(),
		orderRepo.On("Get", ctx, testOrder.ID()).Return(testOrder, nil).Once(),
		uow.On("Rollback", ctx).Return(nil).Once(),
	)

	factory := new(MockDispatchUoWFactory)
	factory.On("Create").Return(uow).Once()

	handler := newAssignHandler(factory, new(MockRouteUoWFactory),
		new(MockRoutePlanner), new(MockCourierNotifier), new(MockTracker))
	_, err = handler.Handle(ctx, cmd)

	require.ErrorIs(t, err, errs.ErrConflict)
	uow.AssertNotCalled(t, "Commit", ctx)
	uow.AssertNotCalled(t, "CourierRepository")
}

func TestAssignOrderCommandHandler_Handle_LostRace(t *testing.T) {
	ctx := t.Context()

	testOrder := readyOrder(t)
	testCourier := availableCourier(t, "Asha", 12.91, 77.60)
	cmd, err := commands.NewAssignOrderCommand(
		testOrder.ID(), testOrder.Pickup(), nil, services.ModeAutomatic, nil)
	require.NoError(t, err)

	orderRepo := new(MockOrderRepository)
	courierRepo := new(MockCourierRepository)
	uow := new(MockDispatchUoW)
	conflict := errs.NewConflictError("order", testOrder.ID().String(), "courier already assigned")

	mock.InOrder(
		uow.On("Begin", ctx).Return(nil).Once(),
		uow.On("OrderRepository").Return(orderRepo).Once(),
		orderRepo.On("Get", ctx, testOrder.ID()).Return(testOrder, nil).Once(),
		uow.On("CourierRepository").Return(courierRepo).Once(),
		courierRepo.On("GetAllAvailable", ctx).Return([]*courier.Courier{testCourier}, nil).Once(),
		uow.On("OrderRepository").Return(orderRepo).Once(),
		orderRepo.On("Assign", ctx, testOrder,
			mock.AnythingOfType("order.AssignmentRecord")).Return(conflict).Once(),
		uow.On("Rollback", ctx).Return(nil).Once(),
	)

	factory := new(MockDispatchUoWFactory)
	factory.On("Create").Return(uow).Once()
	tracker := new(MockTracker)
	notifier := new(MockCourierNotifier)

	handler := newAssignHandler(factory, new(MockRouteUoWFactory),
		new(MockRoutePlanner), notifier, tracker)
	result, err := handler.Handle(ctx, cmd)

	require.ErrorIs(t, err, errs.ErrConflict)
	assert.Nil(t, result, "the losing attempt must not report success")
	uow.AssertNotCalled(t, "Commit", ctx)
	tracker.AssertNotCalled(t, "StartTracking")
	notifier.AssertNotCalled(t, "NotifyAssigned")
}

func TestAssignOrderCommandHandler_Handle_DownstreamFailureKeepsAssignment(t *testing.T) {
	ctx := t.Context()

	testOrder := readyOrder(t)
	testCourier := availableCourier(t, "Asha", 12.91, 77.60)
	cmd, err := commands.NewAssignOrderCommand(
		testOrder.ID(), testOrder.Pickup(), nil, services.ModeAutomatic, nil)
	require.NoError(t, err)

	orderRepo := new(MockOrderRepository)
	courierRepo := new(MockCourierRepository)
	uow := new(MockDispatchUoW)
	planner := new(MockRoutePlanner)
	notifier := new(MockCourierNotifier)

	mock.InOrder(
		uow.On("Begin", ctx).Return(nil).Once(),
		uow.On("OrderRepository").Return(orderRepo).Once(),
		orderRepo.On("Get", ctx, testOrder.ID()).Return(testOrder, nil).Once(),
		uow.On("CourierRepository").Return(courierRepo).Once(),
		courierRepo.On("GetAllAvailable", ctx).Return([]*courier.Courier{testCourier}, nil).Once(),
		uow.On("OrderRepository").Return(orderRepo).Once(),
		orderRepo.On("Assign", ctx, testOrder,
			mock.AnythingOfType("order.AssignmentRecord")).Return(nil).Once(),
		uow.On("Commit", ctx).Return(nil).Once(),
		planner.On("BuildRoute", ctx, testOrder.ID(),
			*testCourier.Position(), testOrder.Pickup()).
			Return(nil, errs.NewExternalServiceError("routing", errors.New("timeout"))).Once(),
		notifier.On("NotifyAssigned", ctx, testCourier.ID(), testOrder).
			Return(errors.New("socket closed")).Once(),
		uow.On("Rollback", ctx).Return(nil).Once(),
	)

	factory := new(MockDispatchUoWFactory)
	factory.On("Create").Return(uow).Once()
	tracker := new(MockTracker)

	handler := newAssignHandler(factory, new(MockRouteUoWFactory), planner, notifier, tracker)
	result, err := handler.Handle(ctx, cmd)

	require.NoError(t, err, "downstream failures never undo a committed assignment")
	require.NotNil(t, result)
	tracker.AssertNotCalled(t, "StartTracking")
}

// In-memory fakes with a real conditional write, used to race two handlers
// against the same order.
type memOrderRepo struct {
	mu       sync.Mutex
	template *memOrderTemplate
	assigned bool
}

type memOrderTemplate struct {
	id           kernel.UUID
	restaurantID kernel.UUID
	pickup       kernel.GeoPoint
	dropoff      kernel.GeoPoint
	readyAt      time.Time
}

func (r *memOrderRepo) Add(context.Context, *order.Order) error    { return nil }
func (r *memOrderRepo) Update(context.Context, *order.Order) error { return nil }

func (r *memOrderRepo) Get(_ context.Context, _ kernel.UUID) (*order.Order, error) {
	// Each caller sees its own snapshot of the still-ready order, the way
	// two transactions would before either commits.
	t := r.template
	return order.NewOrder(t.id, t.restaurantID, t.pickup, t.dropoff, t.readyAt)
}

func (r *memOrderRepo) GetAllInReadyStatus(context.Context) ([]*order.Order, error) {
	return nil, nil
}

func (r *memOrderRepo) GetAllActive(context.Context) ([]*order.Order, error) {
	return nil, nil
}

func (r *memOrderRepo) Assign(_ context.Context, o *order.Order, _ order.AssignmentRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.assigned {
		return errs.NewConflictError("order", o.ID().String(), "courier already assigned")
	}
	r.assigned = true
	return nil
}

type memCourierRepo struct {
	couriers []*courier.Courier
}

func (r *memCourierRepo) Add(context.Context, *courier.Courier) error    { return nil }
func (r *memCourierRepo) Update(context.Context, *courier.Courier) error { return nil }

func (r *memCourierRepo) Get(context.Context, kernel.UUID) (*courier.Courier, error) {
	return nil, errs.NewObjectNotFoundError("courier", nil)
}

func (r *memCourierRepo) GetAllAvailable(context.Context) ([]*courier.Courier, error) {
	return r.couriers, nil
}

type memDispatchUoW struct {
	orders   ports.OrderRepository
	couriers ports.CourierRepository
}

func (u *memDispatchUoW) Begin(context.Context) error               { return nil }
func (u *memDispatchUoW) Commit(context.Context) error              { return nil }
func (u *memDispatchUoW) Rollback(context.Context) error            { return nil }
func (u *memDispatchUoW) OrderRepository() ports.OrderRepository    { return u.orders }
func (u *memDispatchUoW) CourierRepository() ports.CourierRepository {
	return u.couriers
}
func (u *memDispatchUoW) ZoneRepository() ports.ZoneRepository { return nil }

type memDispatchUoWFactory struct{ uow *memDispatchUoW }

func (f *memDispatchUoWFactory) Create() commands.DispatchUoW { return f.uow }

type memRouteUoWFactory struct{}

func (f *memRouteUoWFactory) Create() commands.RouteUoW { return nil }

type failingPlanner struct{}

func (failingPlanner) BuildRoute(context.Context, kernel.UUID, kernel.GeoPoint, kernel.GeoPoint) (*route.Route, error) {
	return nil, errs.NewExternalServiceError("routing", errors.New("unavailable"))
}

type quietLocations struct{}

func (quietLocations) SetFix(context.Context, tracking.Fix) error { return nil }

func (quietLocations) GetFix(context.Context, kernel.UUID) (*tracking.Fix, error) {
	return nil, nil
}

type quietNotifier struct{}

func (quietNotifier) NotifyAssigned(context.Context, kernel.UUID, *order.Order) error { return nil }

type quietTracker struct{}

func (quietTracker) StartTracking(context.Context, kernel.UUID, kernel.UUID, *route.Route) error {
	return nil
}

func TestAssignOrderCommandHandler_ConcurrentAttemptsSingleWinner(t *testing.T) {
	ctx := t.Context()

	pickup := testPoint(t, 12.90, 77.60)
	template := &memOrderTemplate{
		id:           kernel.NewUUID(),
		restaurantID: kernel.NewUUID(),
		pickup:       pickup,
		dropoff:      testPoint(t, 12.94, 77.62),
		readyAt:      time.Now(),
	}

	orders := &memOrderRepo{template: template}
	couriers := &memCourierRepo{
		couriers: []*courier.Courier{availableCourier(t, "Solo", 12.905, 77.60)},
	}
	factory := &memDispatchUoWFactory{uow: &memDispatchUoW{orders: orders, couriers: couriers}}

	handler := commands.NewAssignOrderCommandHandler(
		factory, &memRouteUoWFactory{}, failingPlanner{}, quietLocations{}, quietNotifier{},
		quietTracker{}, discardLogger())

	cmd, err := commands.NewAssignOrderCommand(
		template.id, pickup, nil, services.ModeAutomatic, nil)
	require.NoError(t, err)

	type outcome struct {
		result *commands.AssignmentResult
		err    error
	}
	outcomes := make(chan outcome, 2)

	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			result, handleErr := handler.Handle(ctx, cmd)
			outcomes <- outcome{result: result, err: handleErr}
		}()
	}
	wg.Wait()
	close(outcomes)

	var wins, conflicts int
	for o := range outcomes {
		switch {
		case o.err == nil && o.result != nil:
			wins++
		case errors.Is(o.err, errs.ErrConflict):
			conflicts++
		default:
			t.Fatalf("unexpected outcome: result=%v err=%v", o.result, o.err)
		}
	}

	assert.Equal(t, 1, wins, "exactly one attempt wins")
	assert.Equal(t, 1, conflicts, "the other attempt observes a conflict")
}
