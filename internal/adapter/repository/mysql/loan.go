package mysql

import (
	"context"

	"gorm.io/gorm"

	domain "github.com/Iyonsi/LoanWorkflow/internal/domain/loan"
)

type LoanRepository struct{ db *gorm.DB }

func NewLoanRepository(db *gorm.DB) *LoanRepository { return &LoanRepository{db: db} }

func (r *LoanRepository) Insert(ctx context.Context, l *domain.Loan) error {
	return r.db.WithContext(ctx).Create(l).Error
}

func (r *LoanRepository) GetByRequestID(ctx context.Context, requestID string) (*domain.Loan, error) {
	var out domain.Loan
	res := r.db.WithContext(ctx).Where("loan_request_id = ?", requestID).First(&out)
	if res.Error != nil {
		return nil, res.Error
	}
	return &out, nil
}
