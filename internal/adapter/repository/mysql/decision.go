package mysql

import (
	"context"
	"errors"

	"gorm.io/gorm"

	domain "github.com/Iyonsi/LoanWorkflow/internal/domain/decision"
)

type DecisionRepository struct{ db *gorm.DB }

func NewDecisionRepository(db *gorm.DB) *DecisionRepository { return &DecisionRepository{db: db} }

// Insert appends a ledger entry. The unique index on decision_key turns a
// concurrent double-decision into a duplicate-key error, which is the
// ErrAlreadyDecided conflict — no read-then-write window.
func (r *DecisionRepository) Insert(ctx context.Context, e *domain.Entry) error {
	err := r.db.WithContext(ctx).Create(e).Error
	if err != nil && errors.Is(err, gorm.ErrDuplicatedKey) {
		return domain.ErrAlreadyDecided
	}
	return err
}

func (r *DecisionRepository) ListByRequest(ctx context.Context, requestID string) ([]domain.Entry, error) {
	var out []domain.Entry
	err := r.db.WithContext(ctx).
		Where("loan_request_id = ?", requestID).
		Order("created_at ASC, id ASC").
		Find(&out).Error
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (r *DecisionRepository) LatestDecision(ctx context.Context, requestID, stage string) (*domain.Entry, error) {
	var out domain.Entry
	res := r.db.WithContext(ctx).
		Where("loan_request_id = ? AND stage = ? AND action IN ?", requestID, stage,
			[]string{domain.ActionApproved, domain.ActionRejected}).
		Order("created_at DESC, id DESC").
		First(&out)
	if res.Error != nil {
		if errors.Is(res.Error, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, res.Error
	}
	return &out, nil
}
