package http

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	domainRequest "github.com/Iyonsi/LoanWorkflow/internal/domain/request"
	requestuc "github.com/Iyonsi/LoanWorkflow/internal/usecase/request"
)

type RequestHandler struct{ uc *requestuc.Usecase }

func NewRequestHandler(uc *requestuc.Usecase) *RequestHandler { return &RequestHandler{uc: uc} }

type createRequestReq struct {
	LoanType   string  `json:"loan_type"   validate:"required,loantype"`
	Amount     float64 `json:"amount"      validate:"required,gt=0,dec2"`
	BorrowerID string  `json:"borrower_id" validate:"required,hex32"`
	FullName   string  `json:"full_name"   validate:"required,max=120"`
	IsEligible bool    `json:"is_eligible"`
}

func (h *RequestHandler) Create(c echo.Context) error {
	var req createRequestReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusUnprocessableEntity, ErrorResponse{
			Error:   "validation failed",
			Details: ToFieldErrors(err),
		})
	}

	dto, wfID, err := h.uc.Create(c.Request().Context(), requestuc.CreateInput{
		LoanType:   req.LoanType,
		Amount:     req.Amount,
		BorrowerID: req.BorrowerID,
		FullName:   req.FullName,
		IsEligible: req.IsEligible,
	})
	if err != nil {
		return mapDomainErr(c, err)
	}
	return c.JSON(http.StatusCreated, map[string]any{
		"request_id":  dto.RequestID,
		"workflow_id": wfID,
		"request":     dto,
	})
}

func (h *RequestHandler) Get(c echo.Context) error {
	dto, err := h.uc.Get(c.Request().Context(), c.Param("id"))
	if err != nil {
		return mapDomainErr(c, err)
	}
	return c.JSON(http.StatusOK, dto)
}

func (h *RequestHandler) Logs(c echo.Context) error {
	logs, err := h.uc.Logs(c.Request().Context(), c.Param("id"))
	if err != nil {
		return mapDomainErr(c, err)
	}
	return c.JSON(http.StatusOK, map[string]any{"items": logs})
}

// Search filters: request_id, stages (CSV), loan_type, statuses (CSV),
// created_from / created_to (RFC3339), or date (YYYY-MM-DD shortcut for a
// whole-day range). Paging via page / page_size.
func (h *RequestHandler) Search(c echo.Context) error {
	q := domainRequest.SearchQuery{
		RequestID: strings.TrimSpace(c.QueryParam("request_id")),
		LoanType:  strings.TrimSpace(c.QueryParam("loan_type")),
	}

	if raw := c.QueryParam("stages"); raw != "" {
		for _, s := range strings.Split(raw, ",") {
			if s = strings.TrimSpace(s); s != "" {
				q.Stages = append(q.Stages, s)
			}
		}
	}
	if raw := c.QueryParam("statuses"); raw != "" {
		q.Statuses = domainRequest.ParseStatuses(raw)
	}

	if raw := c.QueryParam("date"); raw != "" {
		day, err := time.Parse("2006-01-02", raw)
		if err != nil {
			return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "date must be YYYY-MM-DD"})
		}
		from := day.UTC()
		to := from.Add(24*time.Hour - time.Nanosecond)
		q.CreatedFrom, q.CreatedTo = &from, &to
	} else {
		if raw := c.QueryParam("created_from"); raw != "" {
			ts, err := time.Parse(time.RFC3339, raw)
			if err != nil {
				return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "created_from must be RFC3339"})
			}
			ts = ts.UTC()
			q.CreatedFrom = &ts
		}
		if raw := c.QueryParam("created_to"); raw != "" {
			ts, err := time.Parse(time.RFC3339, raw)
			if err != nil {
				return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "created_to must be RFC3339"})
			}
			ts = ts.UTC()
			q.CreatedTo = &ts
		}
	}

	q.Page, _ = strconv.Atoi(c.QueryParam("page"))
	q.PageSize, _ = strconv.Atoi(c.QueryParam("page_size"))

	items, total, err := h.uc.Search(c.Request().Context(), q)
	if err != nil {
		return mapDomainErr(c, err)
	}
	return c.JSON(http.StatusOK, map[string]any{
		"items": items,
		"total": total,
		"page":  max(q.Page, 1),
	})
}
