package requestmock

import (
	"context"

	"gorm.io/gorm"

	domain "github.com/Iyonsi/LoanWorkflow/internal/domain/request"
)

// Repo is a function-backed mock that satisfies request.Repository.
// Fill in only the function fields a test needs.
type Repo struct {
	InsertFn  func(ctx context.Context, r *domain.LoanRequest) error
	GetByIDFn func(ctx context.Context, id string) (*domain.LoanRequest, error)
	SaveFn    func(ctx context.Context, r *domain.LoanRequest) error
	SearchFn  func(ctx context.Context, q domain.SearchQuery) ([]domain.LoanRequest, int64, error)
}

var _ domain.Repository = (*Repo)(nil)

func (m *Repo) Insert(ctx context.Context, r *domain.LoanRequest) error {
	if m.InsertFn != nil {
		return m.InsertFn(ctx, r)
	}
	return nil
}

func (m *Repo) GetByID(ctx context.Context, id string) (*domain.LoanRequest, error) {
	if m.GetByIDFn != nil {
		return m.GetByIDFn(ctx, id)
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *Repo) Save(ctx context.Context, r *domain.LoanRequest) error {
	if m.SaveFn != nil {
		return m.SaveFn(ctx, r)
	}
	return nil
}

func (m *Repo) Search(ctx context.Context, q domain.SearchQuery) ([]domain.LoanRequest, int64, error) {
	if m.SearchFn != nil {
		return m.SearchFn(ctx, q)
	}
	return nil, 0, nil
}
