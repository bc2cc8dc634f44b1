package loan

import "context"

type Repository interface {
	Insert(ctx context.Context, l *Loan) error
	GetByRequestID(ctx context.Context, requestID string) (*Loan, error)
}
