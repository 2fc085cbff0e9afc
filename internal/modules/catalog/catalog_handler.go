package catalog

import (
	"errors"
	"net/http"
	"strconv"

	"marketdash/internal/middleware"
	"marketdash/internal/models"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
)

// Handler handles HTTP requests for stores, products and inventory.
type Handler struct {
	svc      ServiceInterface
	validate *validator.Validate
}

// NewHandler creates a new catalog handler.
func NewHandler(svc ServiceInterface) *Handler {
	return &Handler{
		svc:      svc,
		validate: validator.New(),
	}
}

// RegisterRoutes mounts the catalog routes on an authenticated group.
func (h *Handler) RegisterRoutes(g *echo.Group) {
	g.GET("/stores", h.ListStores)
	g.GET("/stores/:storeId", h.GetStore)
	g.GET("/stores/:storeId/products", h.ListStoreProducts)
	g.POST("/stores", h.CreateStore,
		middleware.RequireRoles(models.RoleStoreManager, models.RoleAdmin))
	g.POST("/stores/:storeId/products", h.AddProduct,
		middleware.RequireRoles(models.RoleStoreManager, models.RoleAdmin))
	g.PUT("/products/:productId/inventory", h.SetInventory,
		middleware.RequireRoles(models.RoleStoreManager, models.RoleAdmin))
}

func (h *Handler) CreateStore(c echo.Context) error {
	userID := c.Get("userID").(string)

	var req models.CreateStoreRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, models.ErrorResponse{Message: "Invalid request body"})
	}
	if err := h.validate.Struct(req); err != nil {
		return c.JSON(http.StatusBadRequest, models.ErrorResponse{Message: "Validation failed: " + err.Error()})
	}

	store, err := h.svc.CreateStore(c.Request().Context(), userID, req)
	if err != nil {
		if errors.Is(err, models.ErrConflict) {
			return c.JSON(http.StatusConflict, models.ErrorResponse{Message: "Store already exists"})
		}
		c.Logger().Error("Handler.CreateStore: ", err)
		return c.JSON(http.StatusInternalServerError, models.ErrorResponse{Message: "Failed to create store"})
	}
	return c.JSON(http.StatusCreated, store)
}

func (h *Handler) GetStore(c echo.Context) error {
	store, err := h.svc.GetStore(c.Request().Context(), c.Param("storeId"))
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return c.JSON(http.StatusNotFound, models.ErrorResponse{Message: "Store not found"})
		}
		c.Logger().Error("Handler.GetStore: ", err)
		return c.JSON(http.StatusInternalServerError, models.ErrorResponse{Message: "Failed to retrieve store"})
	}
	return c.JSON(http.StatusOK, store)
}

func (h *Handler) ListStores(c echo.Context) error {
	page := 1
	limit := 20
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

	stores, total, err := h.svc.ListStores(c.Request().Context(), page, limit)
	if err != nil {
		c.Logger().Error("Handler.ListStores: ", err)
		return c.JSON(http.StatusInternalServerError, models.ErrorResponse{Message: "Failed to list stores"})
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"stores": stores, "total": total})
}

func (h *Handler) AddProduct(c echo.Context) error {
	var req models.CreateProductRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, models.ErrorResponse{Message: "Invalid request body"})
	}
	if err := h.validate.Struct(req); err != nil {
		return c.JSON(http.StatusBadRequest, models.ErrorResponse{Message: "Validation failed: " + err.Error()})
	}

	product, err := h.svc.AddProduct(c.Request().Context(), c.Param("storeId"), middleware.ActorFrom(c), req)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return c.JSON(http.StatusNotFound, models.ErrorResponse{Message: "Store not found"})
		}
		if errors.Is(err, models.ErrForbidden) {
			return c.JSON(http.StatusForbidden, models.ErrorResponse{Message: "Access denied"})
		}
		c.Logger().Error("Handler.AddProduct: ", err)
		return c.JSON(http.StatusInternalServerError, models.ErrorResponse{Message: "Failed to add product"})
	}
	return c.JSON(http.StatusCreated, product)
}

func (h *Handler) ListStoreProducts(c echo.Context) error {
	products, err := h.svc.ListStoreProducts(c.Request().Context(), c.Param("storeId"))
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return c.JSON(http.StatusNotFound, models.ErrorResponse{Message: "Store not found"})
		}
		c.Logger().Error("Handler.ListStoreProducts: ", err)
		return c.JSON(http.StatusInternalServerError, models.ErrorResponse{Message: "Failed to list products"})
	}
	return c.JSON(http.StatusOK, products)
}

func (h *Handler) SetInventory(c echo.Context) error {
	var req models.SetInventoryRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, models.ErrorResponse{Message: "Invalid request body"})
	}
	if err := h.validate.Struct(req); err != nil {
		return c.JSON(http.StatusBadRequest, models.ErrorResponse{Message: "Validation failed: " + err.Error()})
	}

	if err := h.svc.SetInventory(c.Request().Context(), c.Param("productId"), middleware.ActorFrom(c), req); err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return c.JSON(http.StatusNotFound, models.ErrorResponse{Message: "Store or product not found"})
		}
		if errors.Is(err, models.ErrForbidden) {
			return c.JSON(http.StatusForbidden, models.ErrorResponse{Message: "Access denied"})
		}
		c.Logger().Error("Handler.SetInventory: ", err)
		return c.JSON(http.StatusInternalServerError, models.ErrorResponse{Message: "Failed to set inventory"})
	}
	return c.NoContent(http.StatusNoContent)
}
