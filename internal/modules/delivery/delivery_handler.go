package delivery

import (
	"errors"
	"net/http"
	"strconv"

	"marketdash/internal/middleware"
	"marketdash/internal/models"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
)

// Handler handles the courier-facing HTTP surface.
type Handler struct {
	svc      ServiceInterface
	validate *validator.Validate
}

// NewHandler creates a new delivery handler.
func NewHandler(svc ServiceInterface) *Handler {
	return &Handler{
		svc:      svc,
		validate: validator.New(),
	}
}

// RegisterRoutes mounts the courier routes on an authenticated group. Every
// route is delivery-role only.
func (h *Handler) RegisterRoutes(g *echo.Group) {
	courier := middleware.RequireRoles(models.RoleDelivery)
	g.PUT("/delivery/location", h.UpdateLocation, courier)
	g.PUT("/delivery/orders/:orderId/status", h.UpdateStatus, courier)
	g.GET("/delivery/orders", h.ListAssigned, courier)
}

func (h *Handler) UpdateLocation(c echo.Context) error {
	var req models.LocationUpdateRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, models.ErrorResponse{Message: "Invalid request body"})
	}
	if err := h.validate.Struct(req); err != nil {
		return c.JSON(http.StatusBadRequest, models.ErrorResponse{Message: "Validation failed: " + err.Error()})
	}

	if err := h.svc.UpdateLocation(c.Request().Context(), middleware.ActorFrom(c), req); err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return c.JSON(http.StatusNotFound, models.ErrorResponse{Message: "Order not found"})
		}
		if errors.Is(err, models.ErrForbidden) {
			return c.JSON(http.StatusForbidden, models.ErrorResponse{Message: "Not your delivery"})
		}
		c.Logger().Error("Handler.UpdateLocation: ", err)
		return c.JSON(http.StatusInternalServerError, models.ErrorResponse{Message: "Failed to update location"})
	}
	return c.NoContent(http.StatusNoContent)
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
		switch {
		case errors.Is(err, models.ErrNotFound):
			return c.JSON(http.StatusNotFound, models.ErrorResponse{Message: "Order not found"})
		case errors.Is(err, models.ErrForbidden):
			return c.JSON(http.StatusForbidden, models.ErrorResponse{Message: "Access denied"})
		case errors.Is(err, models.ErrInvalidTransition):
			return c.JSON(http.StatusBadRequest, models.ErrorResponse{Message: err.Error()})
		}
		c.Logger().Error("Handler.UpdateStatus: ", err)
		return c.JSON(http.StatusInternalServerError, models.ErrorResponse{Message: "Failed to update status"})
	}
	return c.JSON(http.StatusOK, order)
}

func (h *Handler) ListAssigned(c echo.Context) error {
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

	orders, total, err := h.svc.ListAssignedOrders(c.Request().Context(), middleware.ActorFrom(c), page, limit)
	if err != nil {
		c.Logger().Error("Handler.ListAssigned: ", err)
		return c.JSON(http.StatusInternalServerError, models.ErrorResponse{Message: "Failed to list orders"})
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"orders": orders, "total": total})
}
