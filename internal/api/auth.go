package api

import (
	"net/http"

	"github.com/golang-jwt/jwt/v5"
	echojwt "github.com/labstack/echo-jwt/v4"
	"github.com/labstack/echo/v4"
)

const RoleAdmin = "admin"

// Claims is the token payload issued by the identity service.
type Claims struct {
	UserID string `json:"user_id"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

// JWT verifies the bearer token and stores it under "user".
func JWT(secret string) echo.MiddlewareFunc {
	return echojwt.WithConfig(echojwt.Config{
		SigningKey: []byte(secret),
		NewClaimsFunc: func(c echo.Context) jwt.Claims {
			return new(Claims)
		},
		ErrorHandler: func(c echo.Context, err error) error {
			return c.JSON(http.StatusUnauthorized, map[string]string{"message": "Unauthorized - Invalid token"})
		},
	})
}

func claimsOf(c echo.Context) *Claims {
	token, ok := c.Get("user").(*jwt.Token)
	if !ok {
		return nil
	}
	claims, _ := token.Claims.(*Claims)
	return claims
}

// userID returns the authenticated user, or "" before JWT has run.
func userID(c echo.Context) string {
	if claims := claimsOf(c); claims != nil {
		return claims.UserID
	}
	return ""
}

// AdminOnly must be chained after JWT.
func AdminOnly(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		claims := claimsOf(c)
		if claims == nil || claims.Role != RoleAdmin {
			return c.JSON(http.StatusForbidden, map[string]string{"message": "Access denied - Admin only"})
		}
		return next(c)
	}
}

// requireUser rejects valid tokens that carry no user id.
func requireUser(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if userID(c) == "" {
			return c.JSON(http.StatusUnauthorized, map[string]string{"message": "Unauthorized - No user in token"})
		}
		return next(c)
	}
}
