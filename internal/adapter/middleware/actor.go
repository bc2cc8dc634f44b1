package middleware

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
)

// HeaderActorRole carries the acting user's role claim. The auth layer in
// front of this service verifies the caller and injects the header; here it
// is trusted as-is.
const HeaderActorRole = "X-Actor-Role"

// Echo context keys populated by ActorClaims.
const (
	ContextActorID   = "actor_id"
	ContextActorRole = "actor_role"
)

// ActorClaims requires the actor identity/role headers on decision routes
// and exposes them through the echo context.
func ActorClaims() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			actorID := strings.TrimSpace(c.Request().Header.Get(HeaderActorID))
			if actorID == "" {
				return c.JSON(http.StatusBadRequest, map[string]string{"error": "missing " + HeaderActorID})
			}
			role := strings.TrimSpace(c.Request().Header.Get(HeaderActorRole))
			if role == "" {
				return c.JSON(http.StatusBadRequest, map[string]string{"error": "missing " + HeaderActorRole})
			}
			c.Set(ContextActorID, actorID)
			c.Set(ContextActorRole, role)
			return next(c)
		}
	}
}

// ActorID reads the actor id stored by ActorClaims.
func ActorID(c echo.Context) string {
	if v, ok := c.Get(ContextActorID).(string); ok {
		return v
	}
	return ""
}

// ActorRole reads the role claim stored by ActorClaims.
func ActorRole(c echo.Context) string {
	if v, ok := c.Get(ContextActorRole).(string); ok {
		return v
	}
	return ""
}
