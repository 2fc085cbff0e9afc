package order

import (
	"errors"
	"net/http"
	"strconv"

	"marketdash/internal/middleware"
	"marketdash/internal/models"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
)

// Handler handles HTTP requests for orders.
type Handler struct {
	svc      ServiceInterface
	validate *validator.Validate // For request body validation
}

// NewHandler creates a new order handler.
func NewHandler(svc ServiceInterface) *Handler {
	return &Handler{
		svc:      svc,
		validate: validator.New(),
	}
}

// RegisterRoutes mounts the order routes on an authenticated group.
func (h *Handler) RegisterRoutes(g *echo.Group) {
	g.POST("/orders", h.CreateOrder, middleware.RequireRoles(models.RoleCustomer))
	g.GET("/orders", h.ListMyOrders, middleware.RequireRoles(models.RoleCustomer))
	g.GET("/orders/:orderId", h.GetOrderDetails)
	g.PUT("/orders/:orderId/status", h.UpdateStatus,
		middleware.RequireRoles(models.RoleStoreManager, models.RoleDelivery, models.RoleAdmin))
	g.PUT("/orders/:orderId/assign", h.AssignDelivery,
		middleware.RequireRoles(models.RoleStoreManager, models.RoleAdmin))
	g.POST("/orders/:orderId/rate", h.RateOrder, middleware.RequireRoles(models.RoleCustomer))
	g.POST("/orders/:orderId/return", h.RequestReturn, middleware.RequireRoles(models.RoleCustomer))
	g.PUT("/orders/:orderId/return", h.UpdateReturnStatus,
		middleware.RequireRoles(models.RoleStoreManager, models.RoleAdmin))

	g.GET("/stores/:storeId/orders", h.ListStoreOrders,
		middleware.RequireRoles(models.RoleStoreManager, models.RoleAdmin))
	g.GET("/admin/orders", h.ListAllOrders, middleware.RequireRoles(models.RoleAdmin))
}

// respondError maps domain errors onto the HTTP surface. Validation-class
// failures come back as structured 4xx bodies; anything else is a 500 with a
// generic message.
func respondError(c echo.Context, err error, op string) error {
	switch {
	case errors.Is(err, models.ErrNotFound):
		return c.JSON(http.StatusNotFound, models.ErrorResponse{Message: "Order not found"})
	case errors.Is(err, models.ErrForbidden):
		return c.JSON(http.StatusForbidden, models.ErrorResponse{Message: "Access denied"})
	case errors.Is(err, models.ErrInvalidTransition),
		errors.Is(err, models.ErrAlreadyRated),
		errors.Is(err, models.ErrAlreadyRequested),
		errors.Is(err, models.ErrOrderNotDelivered),
		errors.Is(err, models.ErrNoDeliveryAssigned),
		models.IsInsufficientStock(err):
		return c.JSON(http.StatusBadRequest, models.ErrorResponse{Message: err.Error()})
	}
	c.Logger().Error(op+": ", err)
	return c.JSON(http.StatusInternalServerError, models.ErrorResponse{Message: "Something went wrong"})
}

func (h *Handler) CreateOrder(c echo.Context) error {
	userID := c.Get("userID").(string)

	var req models.CreateOrderRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, models.ErrorResponse{Message: "Invalid request body"})
	}
	if err := h.validate.Struct(req); err != nil {
		return c.JSON(http.StatusBadRequest, models.ErrorResponse{Message: "Validation failed: " + err.Error()})
	}

	order, err := h.svc.CreateOrder(c.Request().Context(), userID, req)
	if err != nil {
		return respondError(c, err, "Handler.CreateOrder")
	}
	return c.JSON(http.StatusCreated, order)
}

func (h *Handler) GetOrderDetails(c echo.Context) error {
	order, err := h.svc.GetOrderDetails(c.Request().Context(), c.Param("orderId"), middleware.ActorFrom(c))
	if err != nil {
		return respondError(c, err, "Handler.GetOrderDetails")
	}
	return c.JSON(http.StatusOK, order)
}

func (h *Handler) UpdateStatus(c echo.Context) error {
	var req models.UpdateStatusRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, models.ErrorResponse{Message: "Invalid request body"})
	}
	if err := h.validate.Struct(req); err != nil {
		return c.JSON(http.StatusBadRequest, models.ErrorResponse{Message: "Validation failed: " + err.Error()})
	}

	order, err := h.svc.UpdateStatus(c.Request().Context(), c.Param("orderId"), req.Status, middleware.ActorFrom(c))
	if err != nil {
		return respondError(c, err, "Handler.UpdateStatus")
	}
	return c.JSON(http.StatusOK, order)
}

func (h *Handler) AssignDelivery(c echo.Context) error {
	var req models.AssignDeliveryRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, models.ErrorResponse{Message: "Invalid request body"})
	}
	if err := h.validate.Struct(req); err != nil {
		return c.JSON(http.StatusBadRequest, models.ErrorResponse{Message: "Validation failed: " + err.Error()})
	}

	if err := h.svc.AssignDelivery(c.Request().Context(), c.Param("orderId"), req.DeliveryPersonID, middleware.ActorFrom(c)); err != nil {
		return respondError(c, err, "Handler.AssignDelivery")
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) RateOrder(c echo.Context) error {
	var req models.RateOrderRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, models.ErrorResponse{Message: "Invalid request body"})
	}
	if err := h.validate.Struct(req); err != nil {
		return c.JSON(http.StatusBadRequest, models.ErrorResponse{Message: "Validation failed: " + err.Error()})
	}
	if req.StoreRating == nil && req.DeliveryRating == nil {
		return c.JSON(http.StatusBadRequest, models.ErrorResponse{Message: "At least one rating is required"})
	}

	if err := h.svc.RateOrder(c.Request().Context(), c.Param("orderId"), middleware.ActorFrom(c), req); err != nil {
		return respondError(c, err, "Handler.RateOrder")
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) RequestReturn(c echo.Context) error {
	var req models.ReturnOrderRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, models.ErrorResponse{Message: "Invalid request body"})
	}
	if err := h.validate.Struct(req); err != nil {
		return c.JSON(http.StatusBadRequest, models.ErrorResponse{Message: "Validation failed: " + err.Error()})
	}

	if err := h.svc.RequestReturn(c.Request().Context(), c.Param("orderId"), middleware.ActorFrom(c), req); err != nil {
		return respondError(c, err, "Handler.RequestReturn")
	}
	return c.NoContent(http.StatusAccepted)
}

func (h *Handler) UpdateReturnStatus(c echo.Context) error {
	var req struct {
		Status string `json:"status" validate:"required,oneof=approved rejected processing completed"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, models.ErrorResponse{Message: "Invalid request body"})
	}
	if err := h.validate.Struct(req); err != nil {
		return c.JSON(http.StatusBadRequest, models.ErrorResponse{Message: "Validation failed: " + err.Error()})
	}

	if err := h.svc.UpdateReturnStatus(c.Request().Context(), c.Param("orderId"), req.Status, middleware.ActorFrom(c)); err != nil {
		return respondError(c, err, "Handler.UpdateReturnStatus")
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) ListMyOrders(c echo.Context) error {
	userID := c.Get("userID").(string)
	page, limit := pagination(c)

	orders, total, err := h.svc.ListUserOrders(c.Request().Context(), userID, page, limit)
	if err != nil {
		return respondError(c, err, "Handler.ListMyOrders")
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"orders": orders, "total": total})
}

func (h *Handler) ListStoreOrders(c echo.Context) error {
	page, limit := pagination(c)

	orders, total, err := h.svc.ListStoreOrders(c.Request().Context(), c.Param("storeId"), middleware.ActorFrom(c), page, limit)
	if err != nil {
		return respondError(c, err, "Handler.ListStoreOrders")
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"orders": orders, "total": total})
}

func (h *Handler) ListAllOrders(c echo.Context) error {
	// Role check is done in middleware
	page, limit := pagination(c)

	orders, total, err := h.svc.ListAllOrders(c.Request().Context(), page, limit)
	if err != nil {
		return respondError(c, err, "Handler.ListAllOrders")
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"orders": orders, "total": total})
}

func pagination(c echo.Context) (int, int) {
	page := 1
	limit := 10
	if pageStr := c.QueryParam("page"); pageStr != "" {
		if p, err := strconv.Atoi(pageStr); err == nil && p > 0 {
			page = p
		}
	}
	if limitStr := c.QueryParam("limit"); limitStr != "" {
		if l, err := strconv.Atoi(limitStr); err == nil && l > 0 && l <= 100 {
			limit = l
		}
	}
	return page, limit
}
