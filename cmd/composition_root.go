package cmd

import (
	"context"
	"fmt"
	"log/slog"

	"dispatch/internal/adapters/in/http"
	"dispatch/internal/adapters/in/ws"
	"dispatch/internal/adapters/out/googlemaps"
	"dispatch/internal/adapters/out/postgres"
	"dispatch/internal/adapters/out/redisstore"
	"dispatch/internal/core/application/usecases/commands"
	"dispatch/internal/core/application/usecases/queries"
	"dispatch/internal/core/domain/model/route"
	"dispatch/internal/jobs"
	"dispatch/internal/tracking"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// CompositionRoot wires every adapter, handler and job of the service.
// Long-lived pieces (the tracking manager, the websocket hub) are created
// once here; handlers are created per request for symmetry with the unit
// of work factories they hold.
type CompositionRoot struct {
	gormDB     *gorm.DB
	uowFactory *postgres.GormUnitOfWorkFactory
	locations  *redisstore.LocationStore
	planner    *googlemaps.RoutePlanner
	hub        *ws.Hub
	tracker    *tracking.Manager
	logger     *slog.Logger
}

func NewCompositionRoot(cfg Config, gormDB *gorm.DB, redisClient *redis.Client, logger *slog.Logger) (*CompositionRoot, error) {
	uowFactory := postgres.NewGormUnitOfWorkFactory(gormDB)

	planner, err := googlemaps.NewRoutePlanner(cfg.GoogleMapsAPIKey)
	if err != nil {
		return nil, fmt.Errorf("failed to create route planner: %w", err)
	}

	hub := ws.NewHub(logger)

	routeSaver := transactionalRouteSaver{factory: routeUoWFactory(uowFactory)}
	tracker, err := tracking.NewManager(planner, routeSaver, hub, logger, tracking.DefaultConfig())
	if err != nil {
		return nil, fmt.Errorf("failed to create tracking manager: %w", err)
	}

	return &CompositionRoot{
		gormDB:     gormDB,
		uowFactory: uowFactory,
		locations:  redisstore.NewLocationStore(redisClient),
		planner:    planner,
		hub:        hub,
		tracker:    tracker,
		logger:     logger,
	}, nil
}

func (c *CompositionRoot) Hub() *ws.Hub {
	return c.hub
}

func (c *CompositionRoot) CreateCreateOrderCommandHandler() commands.CreateOrderCommandHandler {
	return commands.NewCreateOrderCommandHandler(orderUoWFactory(c.uowFactory))
}

func (c *CompositionRoot) CreateAssignOrderCommandHandler() commands.AssignOrderCommandHandler {
	return commands.NewAssignOrderCommandHandler(
		dispatchUoWFactory(c.uowFactory),
		routeUoWFactory(c.uowFactory),
		c.planner,
		c.locations,
		c.hub,
		c.tracker,
		c.logger,
	)
}

func (c *CompositionRoot) CreateProgressOrderCommandHandler() commands.ProgressOrderCommandHandler {
	return commands.NewProgressOrderCommandHandler(
		orderUoWFactory(c.uowFactory),
		routeUoWFactory(c.uowFactory),
		c.planner,
		c.tracker,
		c.logger,
	)
}

func (c *CompositionRoot) CreateReportLocationCommandHandler() commands.ReportLocationCommandHandler {
	return commands.NewReportLocationCommandHandler(
		courierUoWFactory(c.uowFactory),
		c.locations,
		c.tracker,
		c.logger,
	)
}

func (c *CompositionRoot) CreateGetAllCouriersQueryHandler() queries.GetAllCouriersQueryHandler {
	return queries.NewGetAllCouriersQueryHandler(c.gormDB)
}

func (c *CompositionRoot) CreateGetActiveOrdersQueryHandler() queries.GetActiveOrdersQueryHandler {
	return queries.NewGetActiveOrdersQueryHandler(c.gormDB)
}

func (c *CompositionRoot) CreateHTTPServer() *http.Server {
	return http.NewServer(
		c.CreateCreateOrderCommandHandler(),
		c.CreateAssignOrderCommandHandler(),
		c.CreateProgressOrderCommandHandler(),
		c.CreateReportLocationCommandHandler(),
		c.CreateGetAllCouriersQueryHandler(),
		c.CreateGetActiveOrdersQueryHandler(),
	)
}

func (c *CompositionRoot) CreateJobManager() *jobs.JobManager {
	return jobs.NewJobManager(
		orderUoWFactory(c.uowFactory),
		c.CreateAssignOrderCommandHandler(),
		c.uowFactory,
		c.tracker,
		c.logger,
	)
}

// transactionalRouteSaver gives the tracking pipeline a way to persist a
// replanned route in its own short transaction.
type transactionalRouteSaver struct {
	factory commands.RouteUoWFactory
}

func (s transactionalRouteSaver) Replace(ctx context.Context, aggregate *route.Route) error {
	uow := s.factory.Create()
	if err := uow.Begin(ctx); err != nil {
		return err
	}

	defer func() {
		_ = uow.Rollback(ctx)
	}()

	if err := uow.RouteRepository().Replace(ctx, aggregate); err != nil {
		return err
	}

	return uow.Commit(ctx)
}

func orderUoWFactory(f *postgres.GormUnitOfWorkFactory) commands.OrderUoWFactory {
	return FuncOrderUoWFactory(func() commands.OrderUoW {
		return f.Create()
	})
}

func courierUoWFactory(f *postgres.GormUnitOfWorkFactory) commands.CourierUoWFactory {
	return FuncCourierUoWFactory(func() commands.CourierUoW {
		return f.Create()
	})
}

func routeUoWFactory(f *postgres.GormUnitOfWorkFactory) commands.RouteUoWFactory {
	return FuncRouteUoWFactory(func() commands.RouteUoW {
		return f.Create()
	})
}

func dispatchUoWFactory(f *postgres.GormUnitOfWorkFactory) commands.DispatchUoWFactory {
	return FuncDispatchUoWFactory(func() commands.DispatchUoW {
		return f.Create()
	})
}

type FuncOrderUoWFactory func() commands.OrderUoW

func (f FuncOrderUoWFactory) Create() commands.OrderUoW {
	return f()
}

type FuncCourierUoWFactory func() commands.CourierUoW

func (f FuncCourierUoWFactory) Create() commands.CourierUoW {
	return f()
}

type FuncRouteUoWFactory func() commands.RouteUoW

func (f FuncRouteUoWFactory) Create() commands.RouteUoW {
	return f()
}

type FuncDispatchUoWFactory func() commands.DispatchUoW

func (f FuncDispatchUoWFactory) Create() commands.DispatchUoW {
	return f()
}
