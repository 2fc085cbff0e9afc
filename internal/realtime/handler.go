package realtime

import (
	"net/http"
	"strings"

	"marketdash/internal/middleware"
	"marketdash/internal/models"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
)

// Handler upgrades authenticated HTTP requests to websocket connections.
// A connection without a valid token is never established.
type Handler struct {
	hub       *Hub
	access    AccessChecker
	jwtSecret string
	upgrader  websocket.Upgrader
	logger    zerolog.Logger
}

// NewHandler creates the websocket gateway.
func NewHandler(hub *Hub, access AccessChecker, jwtSecret, clientOrigin string, logger zerolog.Logger) *Handler {
	return &Handler{
		hub:       hub,
		access:    access,
		jwtSecret: jwtSecret,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				if clientOrigin == "" {
					return true
				}
				origin := r.Header.Get("Origin")
				return origin == "" || origin == clientOrigin
			},
		},
		logger: logger,
	}
}

// RegisterRoutes mounts the websocket endpoint. The route sits outside the
// echo-jwt chain because browsers cannot set headers on websocket dials; the
// token travels as a query parameter instead and is verified here.
func (h *Handler) RegisterRoutes(e *echo.Echo) {
	e.GET("/ws", h.Serve)
}

// Serve authenticates, upgrades, and services the connection until it drops.
func (h *Handler) Serve(c echo.Context) error {
	raw := c.QueryParam("token")
	if raw == "" {
		// Non-browser clients may still use the header.
		raw = strings.TrimPrefix(c.Request().Header.Get("Authorization"), "Bearer ")
	}
	claims, err := middleware.ParseToken(h.jwtSecret, raw)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, models.ErrorResponse{Message: "Invalid or missing token"})
	}

	conn, err := h.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		// Upgrade already wrote the HTTP error response.
		return nil
	}

	actor := models.Actor{UserID: claims.UserID, Role: claims.Role}
	client := NewClient(conn, actor, h.hub, h.access, h.logger)
	client.Run(c.Request().Context())
	return nil
}
