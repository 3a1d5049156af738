// Package http exposes the dispatch operations over a REST API.
// It translates between wire DTOs and application commands/queries;
// business rules live entirely in the core.
package http

import (
	"errors"
	"net/http"

	"dispatch/internal/core/application/usecases/commands"
	"dispatch/internal/core/application/usecases/queries"
	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/core/domain/services"
	"dispatch/internal/pkg/errs"

	"github.com/labstack/echo/v4"
)

// Server coordinates between HTTP handlers and application use cases.
type Server struct {
	createOrderHandler    commands.CreateOrderCommandHandler
	assignOrderHandler    commands.AssignOrderCommandHandler
	progressOrderHandler  commands.ProgressOrderCommandHandler
	reportLocationHandler commands.ReportLocationCommandHandler

	getAllCouriersHandler  queries.GetAllCouriersQueryHandler
	getActiveOrdersHandler queries.GetActiveOrdersQueryHandler
}

// NewServer creates a new HTTP server with the required command and query handlers.
func NewServer(
	createOrderHandler commands.CreateOrderCommandHandler,
	assignOrderHandler commands.AssignOrderCommandHandler,
	progressOrderHandler commands.ProgressOrderCommandHandler,
	reportLocationHandler commands.ReportLocationCommandHandler,
	getAllCouriersHandler queries.GetAllCouriersQueryHandler,
	getActiveOrdersHandler queries.GetActiveOrdersQueryHandler,
) *Server {
	return &Server{
		createOrderHandler:     createOrderHandler,
		assignOrderHandler:     assignOrderHandler,
		progressOrderHandler:   progressOrderHandler,
		reportLocationHandler:  reportLocationHandler,
		getAllCouriersHandler:  getAllCouriersHandler,
		getActiveOrdersHandler: getActiveOrdersHandler,
	}
}

// RegisterRoutes attaches all REST endpoints to the echo instance.
func (s *Server) RegisterRoutes(e *echo.Echo) {
	api := e.Group("/api/v1")

	api.POST("/orders", s.CreateOrder)
	api.POST("/orders/:id/assign", s.AssignOrder)
	api.POST("/orders/:id/progress", s.ProgressOrder)
	api.GET("/orders/active", s.GetActiveOrders)

	api.POST("/couriers/:id/location", s.ReportLocation)
	api.GET("/couriers", s.GetCouriers)
}

// CreateOrder handles POST /api/v1/orders - registers an order ready for dispatch.
func (s *Server) CreateOrder(ctx echo.Context) error {
	var request CreateOrderRequest
	if err := ctx.Bind(&request); err != nil {
		return badRequest(ctx, "Invalid request body")
	}

	orderID := kernel.NewUUID()
	if request.ID != nil {
		parsed, err := kernel.UUIDFromString(*request.ID)
		if err != nil {
			return badRequest(ctx, "Invalid order id")
		}
		orderID = parsed
	}

	restaurantID, err := kernel.UUIDFromString(request.RestaurantID)
	if err != nil {
		return badRequest(ctx, "Invalid restaurant id")
	}

	pickup, err := kernel.NewGeoPoint(request.Pickup.Lat, request.Pickup.Lng)
	if err != nil {
		return badRequest(ctx, "Invalid pickup location")
	}

	dropoff, err := kernel.NewGeoPoint(request.Dropoff.Lat, request.Dropoff.Lng)
	if err != nil {
		return badRequest(ctx, "Invalid dropoff location")
	}

	cmd, err := commands.NewCreateOrderCommand(orderID, restaurantID, pickup, dropoff, request.ReadyAt)
	if err != nil {
		return badRequest(ctx, "Invalid order data: "+err.Error())
	}

	if handleErr := s.createOrderHandler.Handle(ctx.Request().Context(), cmd); handleErr != nil {
		return writeError(ctx, handleErr)
	}

	return ctx.JSON(http.StatusCreated, CreateOrderResponse{ID: orderID.String()})
}

// AssignOrder handles POST /api/v1/orders/:id/assign - runs one assignment
// attempt. Responds 200 with the winner, 404 when no eligible courier is
// in range, and 409 when the order is already claimed.
func (s *Server) AssignOrder(ctx echo.Context) error {
	orderID, err := kernel.UUIDFromString(ctx.Param("id"))
	if err != nil {
		return badRequest(ctx, "Invalid order id")
	}

	var request AssignOrderRequest
	if err := ctx.Bind(&request); err != nil {
		return badRequest(ctx, "Invalid request body")
	}

	mode, err := parseAssignmentMode(request.Mode)
	if err != nil {
		return badRequest(ctx, "Invalid assignment mode")
	}

	restaurantLocation, err := kernel.NewGeoPoint(
		request.RestaurantLocation.Lat, request.RestaurantLocation.Lng,
	)
	if err != nil {
		return badRequest(ctx, "Invalid restaurant location")
	}

	var restaurantID *kernel.UUID
	if request.RestaurantID != nil {
		parsed, idErr := kernel.UUIDFromString(*request.RestaurantID)
		if idErr != nil {
			return badRequest(ctx, "Invalid restaurant id")
		}
		restaurantID = &parsed
	}

	excluded := make([]kernel.UUID, 0, len(request.ExcludedCourierIDs))
	for _, raw := range request.ExcludedCourierIDs {
		id, idErr := kernel.UUIDFromString(raw)
		if idErr != nil {
			return badRequest(ctx, "Invalid excluded courier id")
		}
		excluded = append(excluded, id)
	}

	cmd, err := commands.NewAssignOrderCommand(orderID, restaurantLocation, restaurantID, mode, excluded)
	if err != nil {
		return badRequest(ctx, "Invalid assignment data: "+err.Error())
	}

	result, err := s.assignOrderHandler.Handle(ctx.Request().Context(), cmd)
	if err != nil {
		return writeError(ctx, err)
	}

	if result == nil {
		return ctx.JSON(http.StatusNotFound, ErrorResponse{
			Code:    http.StatusNotFound,
			Message: "No eligible courier in range",
		})
	}

	return ctx.JSON(http.StatusOK, AssignOrderResponse{
		CourierID:  result.CourierID.String(),
		DistanceKm: result.DistanceKm,
	})
}

// ProgressOrder handles POST /api/v1/orders/:id/progress - moves an order
// through its lifecycle.
func (s *Server) ProgressOrder(ctx echo.Context) error {
	orderID, err := kernel.UUIDFromString(ctx.Param("id"))
	if err != nil {
		return badRequest(ctx, "Invalid order id")
	}

	var request ProgressOrderRequest
	if err := ctx.Bind(&request); err != nil {
		return badRequest(ctx, "Invalid request body")
	}

	action, err := commands.ParseProgressAction(request.Action)
	if err != nil {
		return badRequest(ctx, "Invalid progress action")
	}

	cmd, err := commands.NewProgressOrderCommand(orderID, action)
	if err != nil {
		return badRequest(ctx, "Invalid progress data: "+err.Error())
	}

	if handleErr := s.progressOrderHandler.Handle(ctx.Request().Context(), cmd); handleErr != nil {
		return writeError(ctx, handleErr)
	}

	return ctx.NoContent(http.StatusNoContent)
}

// ReportLocation handles POST /api/v1/couriers/:id/location - ingests one
// raw position fix from a courier device.
func (s *Server) ReportLocation(ctx echo.Context) error {
	courierID, err := kernel.UUIDFromString(ctx.Param("id"))
	if err != nil {
		return badRequest(ctx, "Invalid courier id")
	}

	var request ReportLocationRequest
	if err := ctx.Bind(&request); err != nil {
		return badRequest(ctx, "Invalid request body")
	}

	position, err := kernel.NewGeoPoint(request.Position.Lat, request.Position.Lng)
	if err != nil {
		return badRequest(ctx, "Invalid position")
	}

	cmd, err := commands.NewReportLocationCommand(courierID, position, request.Heading, request.Timestamp)
	if err != nil {
		return badRequest(ctx, "Invalid location data: "+err.Error())
	}

	if handleErr := s.reportLocationHandler.Handle(ctx.Request().Context(), cmd); handleErr != nil {
		return writeError(ctx, handleErr)
	}

	return ctx.NoContent(http.StatusAccepted)
}

// GetCouriers handles GET /api/v1/couriers - retrieves the courier roster.
func (s *Server) GetCouriers(ctx echo.Context) error {
	query := queries.NewGetAllCouriersQuery()

	couriers, err := s.getAllCouriersHandler.Handle(ctx.Request().Context(), query)
	if err != nil {
		return writeError(ctx, err)
	}

	response := make([]CourierResponse, len(couriers))
	for i, courier := range couriers {
		item := CourierResponse{
			ID:       courier.ID.String(),
			Name:     courier.Name,
			Online:   courier.Online,
			Approved: courier.Approved,
		}
		if courier.Position != nil {
			item.Position = &GeoPointDTO{
				Lat: courier.Position.Lat(),
				Lng: courier.Position.Lng(),
			}
		}
		response[i] = item
	}

	return ctx.JSON(http.StatusOK, response)
}

// GetActiveOrders handles GET /api/v1/orders/active - retrieves in-flight orders.
func (s *Server) GetActiveOrders(ctx echo.Context) error {
	query := queries.NewGetActiveOrdersQuery()

	orders, err := s.getActiveOrdersHandler.Handle(ctx.Request().Context(), query)
	if err != nil {
		return writeError(ctx, err)
	}

	response := make([]OrderResponse, len(orders))
	for i, order := range orders {
		item := OrderResponse{
			ID:     order.ID.String(),
			Status: order.Status,
			Pickup: GeoPointDTO{
				Lat: order.Pickup.Lat(),
				Lng: order.Pickup.Lng(),
			},
			Dropoff: GeoPointDTO{
				Lat: order.Dropoff.Lat(),
				Lng: order.Dropoff.Lng(),
			},
			ReadyAt: order.ReadyAt,
		}
		if order.CourierID != nil {
			id := order.CourierID.String()
			item.CourierID = &id
		}
		response[i] = item
	}

	return ctx.JSON(http.StatusOK, response)
}

func parseAssignmentMode(raw string) (services.AssignmentMode, error) {
	switch raw {
	case "automatic", "":
		return services.ModeAutomatic, nil
	case "manual":
		return services.ModeManual, nil
	default:
		return services.ModeUnknown, errs.NewValueIsInvalidError("mode")
	}
}

func badRequest(ctx echo.Context, message string) error {
	return ctx.JSON(http.StatusBadRequest, ErrorResponse{
		Code:    http.StatusBadRequest,
		Message: message,
	})
}

// writeError maps core errors onto HTTP statuses: validation problems are
// the caller's fault, not-found and conflict keep their semantics, and
// everything else is a server error.
func writeError(ctx echo.Context, err error) error {
	var notFound *errs.ObjectNotFoundError

	status := http.StatusInternalServerError
	switch {
	case errors.As(err, &notFound):
		status = http.StatusNotFound
	case errors.Is(err, errs.ErrConflict):
		status = http.StatusConflict
	case isValidation(err):
		status = http.StatusBadRequest
	}

	return ctx.JSON(status, ErrorResponse{
		Code:    status,
		Message: err.Error(),
	})
}

func isValidation(err error) bool {
	var required *errs.ValueIsRequiredError
	var invalid *errs.ValueIsInvalidError
	var outOfRange *errs.ValueIsOutOfRangeError

	return errors.As(err, &required) || errors.As(err, &invalid) || errors.As(err, &outOfRange)
}
