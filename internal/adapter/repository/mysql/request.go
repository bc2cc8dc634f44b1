package mysql

import (
	"context"

	"gorm.io/gorm"

	domain "github.com/Iyonsi/LoanWorkflow/internal/domain/request"
)

type RequestRepository struct{ db *gorm.DB }

func NewRequestRepository(db *gorm.DB) *RequestRepository { return &RequestRepository{db: db} }

func (r *RequestRepository) Insert(ctx context.Context, req *domain.LoanRequest) error {
	return r.db.WithContext(ctx).Create(req).Error
}

func (r *RequestRepository) GetByID(ctx context.Context, id string) (*domain.LoanRequest, error) {
	var out domain.LoanRequest
	res := r.db.WithContext(ctx).
		Clauses(forUpdate(r.db)).
		Where("id = ?", id).
		First(&out)
	if res.Error != nil {
		return nil, res.Error
	}
	return &out, nil
}

func (r *RequestRepository) Save(ctx context.Context, req *domain.LoanRequest) error {
	return r.db.WithContext(ctx).Save(req).Error
}

func (r *RequestRepository) Search(ctx context.Context, q domain.SearchQuery) ([]domain.LoanRequest, int64, error) {
	tx := r.db.WithContext(ctx).Model(&domain.LoanRequest{})

	if q.RequestID != "" {
		tx = tx.Where("id = ?", q.RequestID)
	}
	if len(q.Stages) > 0 {
		tx = tx.Where("current_stage IN ?", q.Stages)
	}
	if q.LoanType != "" {
		tx = tx.Where("loan_type = ?", q.LoanType)
	}
	if q.CreatedFrom != nil {
		tx = tx.Where("created_at >= ?", *q.CreatedFrom)
	}
	if q.CreatedTo != nil {
		tx = tx.Where("created_at <= ?", *q.CreatedTo)
	}
	if len(q.Statuses) > 0 {
		tx = tx.Where("status IN ?", q.Statuses)
	}

	var total int64
	if err := tx.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var items []domain.LoanRequest
	err := tx.
		Order("created_at DESC, id DESC").
		Offset((q.Page - 1) * q.PageSize).
		Limit(q.PageSize).
		Find(&items).Error
	if err != nil {
		return nil, 0, err
	}
	return items, total, nil
}
