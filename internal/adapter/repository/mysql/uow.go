package mysql

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Iyonsi/LoanWorkflow/internal/domain/uow"
)

type GormUoW struct{ db *gorm.DB }

func NewGormUoW(db *gorm.DB) *GormUoW { return &GormUoW{db: db} }

func (u *GormUoW) WithinTx(ctx context.Context, fn func(r uow.Repos) error) error {
	return u.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		r := uow.Repos{
			Requests:  &RequestRepository{db: tx},
			Decisions: &DecisionRepository{db: tx},
			Loans:     &LoanRepository{db: tx},
		}
		return fn(r)
	})
}

// forUpdate returns a row lock on dialects that support it. The sqlite test
// database chokes on FOR UPDATE, so it gets a no-op there.
func forUpdate(db *gorm.DB) clause.Expression {
	if db.Dialector.Name() == "mysql" {
		return clause.Locking{Strength: "UPDATE"}
	}
	return clause.Expr{SQL: ""}
}
