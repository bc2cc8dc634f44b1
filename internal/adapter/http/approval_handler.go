package http

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Iyonsi/LoanWorkflow/internal/adapter/middleware"
	approvaluc "github.com/Iyonsi/LoanWorkflow/internal/usecase/approval"
)

type ApprovalHandler struct{ uc *approvaluc.Usecase }

func NewApprovalHandler(uc *approvaluc.Usecase) *ApprovalHandler { return &ApprovalHandler{uc: uc} }

type decisionReq struct {
	Comments string `json:"comments" validate:"max=500"`
}

// Approve records an APPROVED decision for the request's current stage. The
// acting role comes from the verified actor claims, not the body.
func (h *ApprovalHandler) Approve(c echo.Context) error {
	requestID := c.Param("id")
	if requestID == "" {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "missing request id path param"})
	}
	var req decisionReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusUnprocessableEntity, ErrorResponse{
			Error:   "validation failed",
			Details: ToFieldErrors(err),
		})
	}

	dto, err := h.uc.Approve(c.Request().Context(), approvaluc.ApproveInput{
		RequestID:  requestID,
		ActorID:    middleware.ActorID(c),
		ActingRole: middleware.ActorRole(c),
		Comments:   req.Comments,
	})
	if err != nil {
		return mapDomainErr(c, err)
	}
	return c.JSON(http.StatusOK, map[string]any{
		"request_id": requestID,
		"approved":   dto.Approved,
		"stage":      dto.Stage,
		"full_name":  dto.FullName,
	})
}

func (h *ApprovalHandler) Reject(c echo.Context) error {
	requestID := c.Param("id")
	if requestID == "" {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "missing request id path param"})
	}
	var req decisionReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusUnprocessableEntity, ErrorResponse{
			Error:   "validation failed",
			Details: ToFieldErrors(err),
		})
	}

	dto, err := h.uc.Reject(c.Request().Context(), approvaluc.RejectInput{
		RequestID: requestID,
		ActorID:   middleware.ActorID(c),
		Comments:  req.Comments,
	})
	if err != nil {
		return mapDomainErr(c, err)
	}
	return c.JSON(http.StatusOK, map[string]any{
		"request_id": requestID,
		"approved":   dto.Approved,
		"stage":      dto.Stage,
		"full_name":  dto.FullName,
	})
}
