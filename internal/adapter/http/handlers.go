package http

import (
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/Iyonsi/LoanWorkflow/internal/domain/decision"
	"github.com/Iyonsi/LoanWorkflow/internal/domain/flow"
	domainRequest "github.com/Iyonsi/LoanWorkflow/internal/domain/request"
)

type Handler struct{ flows flow.Config }

func NewHandler(flows flow.Config) *Handler { return &Handler{flows: flows} }

func (h *Handler) Health(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]any{
		"status": "ok",
		"time":   time.Now().UTC().Format(time.RFC3339Nano),
	})
}

// Roles lists the distinct approval roles across all configured flows. Local
// tooling uses it to pick an acting role without a user directory.
func (h *Handler) Roles(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]any{"roles": h.flows.Roles()})
}

// mapDomainErr translates the domain error taxonomy to HTTP status codes.
func mapDomainErr(c echo.Context, err error) error {
	switch {
	case errors.Is(err, domainRequest.ErrNotFound):
		return c.JSON(http.StatusNotFound, ErrorResponse{Error: "loan request not found"})
	case errors.Is(err, domainRequest.ErrUnauthorizedRole):
		return c.JSON(http.StatusForbidden, ErrorResponse{Error: "acting role does not match current stage"})
	case errors.Is(err, decision.ErrAlreadyDecided):
		return c.JSON(http.StatusConflict, ErrorResponse{Error: "stage already decided"})
	case errors.Is(err, flow.ErrRejectionNotAllowed):
		return c.JSON(http.StatusConflict, ErrorResponse{Error: "rejection not allowed for this loan type"})
	case errors.Is(err, flow.ErrUnknownLoanType):
		return c.JSON(http.StatusUnprocessableEntity, ErrorResponse{Error: "unknown loan type"})
	default:
		return c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal error"})
	}
}
