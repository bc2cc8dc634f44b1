package loanmock

import (
	"context"

	"gorm.io/gorm"

	domain "github.com/Iyonsi/LoanWorkflow/internal/domain/loan"
)

// Repo is a function-backed mock that satisfies loan.Repository.
type Repo struct {
	InsertFn         func(ctx context.Context, l *domain.Loan) error
	GetByRequestIDFn func(ctx context.Context, requestID string) (*domain.Loan, error)
}

var _ domain.Repository = (*Repo)(nil)

func (m *Repo) Insert(ctx context.Context, l *domain.Loan) error {
	if m.InsertFn != nil {
		return m.InsertFn(ctx, l)
	}
	return nil
}

func (m *Repo) GetByRequestID(ctx context.Context, requestID string) (*domain.Loan, error) {
	if m.GetByRequestIDFn != nil {
		return m.GetByRequestIDFn(ctx, requestID)
	}
	return nil, gorm.ErrRecordNotFound
}
