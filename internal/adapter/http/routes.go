package http

import (
	"github.com/labstack/echo/v4"

	"github.com/Iyonsi/LoanWorkflow/internal/adapter/middleware"
)

// Register wires all routes. decisionGuards run only on the approve/reject
// endpoints, after the actor-claims middleware (typically the redis
// idempotency guard).
func Register(e *echo.Echo, h *Handler, rh *RequestHandler, ah *ApprovalHandler, decisionGuards ...echo.MiddlewareFunc) {
	e.GET("/health", h.Health)

	api := e.Group("/api")
	api.GET("/roles", h.Roles)

	api.POST("/loan-requests", rh.Create)
	api.GET("/loan-requests", rh.Search)
	api.GET("/loan-requests/:id", rh.Get)
	api.GET("/loan-requests/:id/logs", rh.Logs)

	guards := append([]echo.MiddlewareFunc{middleware.ActorClaims()}, decisionGuards...)
	decisions := api.Group("/loan-requests/:id/approvals", guards...)
	decisions.POST("/approve", ah.Approve)
	decisions.POST("/reject", ah.Reject)
}
