package decisionmock

import (
	"context"

	domain "github.com/Iyonsi/LoanWorkflow/internal/domain/decision"
)

// Repo is a function-backed mock that satisfies decision.Repository.
type Repo struct {
	InsertFn         func(ctx context.Context, e *domain.Entry) error
	ListByRequestFn  func(ctx context.Context, requestID string) ([]domain.Entry, error)
	LatestDecisionFn func(ctx context.Context, requestID, stage string) (*domain.Entry, error)
}

var _ domain.Repository = (*Repo)(nil)

func (m *Repo) Insert(ctx context.Context, e *domain.Entry) error {
	if m.InsertFn != nil {
		return m.InsertFn(ctx, e)
	}
	return nil
}

func (m *Repo) ListByRequest(ctx context.Context, requestID string) ([]domain.Entry, error) {
	if m.ListByRequestFn != nil {
		return m.ListByRequestFn(ctx, requestID)
	}
	return nil, nil
}

func (m *Repo) LatestDecision(ctx context.Context, requestID, stage string) (*domain.Entry, error) {
	if m.LatestDecisionFn != nil {
		return m.LatestDecisionFn(ctx, requestID, stage)
	}
	return nil, nil
}
