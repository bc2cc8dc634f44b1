package request

import (
	"context"
	"time"
)

// SearchQuery filters the loan-request listing. Zero/nil fields are ignored.
type SearchQuery struct {
	RequestID   string
	Stages      []string
	LoanType    string
	CreatedFrom *time.Time
	CreatedTo   *time.Time
	Statuses    []Status
	Page        int
	PageSize    int
}

type Repository interface {
	Insert(ctx context.Context, r *LoanRequest) error
	GetByID(ctx context.Context, id string) (*LoanRequest, error)
	Save(ctx context.Context, r *LoanRequest) error
	// Search returns one page ordered by created_at descending plus the
	// total match count.
	Search(ctx context.Context, q SearchQuery) ([]LoanRequest, int64, error)
}
