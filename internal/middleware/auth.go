package middleware

import (
	"net/http"
	"time"

	"marketdash/internal/models"

	echojwt "github.com/labstack/echo-jwt/v4"
	"github.com/labstack/echo/v4"

	"github.com/golang-jwt/jwt/v5"
)

// Claims is the JWT payload minted at login and verified on every request and
// realtime connect.
type Claims struct {
	UserID string `json:"user_id"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

// NewToken mints a signed JWT for the given user.
func NewToken(secret, userID, role string, ttl time.Duration) (string, error) {
	claims := &Claims{
		UserID: userID,
		Role:   role,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

// ParseToken verifies a raw token string and returns its claims. Used by the
// realtime gateway, which authenticates at connect time outside the echo
// middleware chain.
func ParseToken(secret, raw string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(raw, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		return []byte(secret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil || !token.Valid {
		return nil, models.ErrInvalidToken
	}
	claims, ok := token.Claims.(*Claims)
	if !ok {
		return nil, models.ErrInvalidToken
	}
	return claims, nil
}

// Auth returns the echo-jwt middleware configured for our claims. On success
// it copies userID and userRole into the echo context for handlers.
func Auth(secret string) echo.MiddlewareFunc {
	jwtMiddleware := echojwt.WithConfig(echojwt.Config{
		SigningKey: []byte(secret),
		NewClaimsFunc: func(c echo.Context) jwt.Claims {
			return &Claims{}
		},
		SuccessHandler: func(c echo.Context) {
			token := c.Get("user").(*jwt.Token)
			claims := token.Claims.(*Claims)
			c.Set("userID", claims.UserID)
			c.Set("userRole", claims.Role)
		},
	})
	return jwtMiddleware
}

// RequireRoles rejects requests whose authenticated role is not in the allow
// list. Must run after Auth.
func RequireRoles(roles ...string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			role, _ := c.Get("userRole").(string)
			for _, r := range roles {
				if role == r {
					return next(c)
				}
			}
			return c.JSON(http.StatusForbidden, models.ErrorResponse{Message: "Access denied"})
		}
	}
}

// ActorFrom extracts the authenticated actor from the echo context.
func ActorFrom(c echo.Context) models.Actor {
	userID, _ := c.Get("userID").(string)
	role, _ := c.Get("userRole").(string)
	return models.Actor{UserID: userID, Role: role}
}
