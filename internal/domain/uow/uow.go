package uow

import (
	"context"

	"github.com/Iyonsi/LoanWorkflow/internal/domain/decision"
	"github.com/Iyonsi/LoanWorkflow/internal/domain/loan"
	"github.com/Iyonsi/LoanWorkflow/internal/domain/request"
)

type Repos struct {
	Requests  request.Repository
	Decisions decision.Repository
	Loans     loan.Repository
}

type UnitOfWork interface {
	WithinTx(ctx context.Context, fn func(r Repos) error) error
}
