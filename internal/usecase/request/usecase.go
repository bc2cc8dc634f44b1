package request

import (
	"context"
	"errors"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/Iyonsi/LoanWorkflow/internal/domain/decision"
	"github.com/Iyonsi/LoanWorkflow/internal/domain/flow"
	domainRequest "github.com/Iyonsi/LoanWorkflow/internal/domain/request"
	"github.com/Iyonsi/LoanWorkflow/internal/domain/uow"
	"github.com/Iyonsi/LoanWorkflow/pkg/id"
)

const workflowName = "loan_dynamic_workflow"

// WorkflowStarter launches the orchestrator workflow for a new request.
// The client degrades to a no-op when the orchestrator is not configured.
type WorkflowStarter interface {
	StartWorkflow(ctx context.Context, name string, version int, input map[string]any) (string, error)
}

type Usecase struct {
	flows   flow.Config
	uow     uow.UnitOfWork
	starter WorkflowStarter
	log     *zap.Logger
}

func NewUsecase(flows flow.Config, tx uow.UnitOfWork, starter WorkflowStarter, log *zap.Logger) *Usecase {
	return &Usecase{flows: flows, uow: tx, starter: starter, log: log}
}

// Create persists a new request at stage 0 together with its SUBMITTED log
// entry, then asks the orchestrator to start a workflow instance. A failed or
// absent orchestrator leaves the workflow id empty; the request itself is
// already committed.
func (u *Usecase) Create(ctx context.Context, in CreateInput) (*RequestDTO, string, error) {
	stages, err := u.flows.Stages(in.LoanType)
	if err != nil {
		return nil, "", err
	}

	req := &domainRequest.LoanRequest{
		ID:           id.NewID32(),
		LoanType:     in.LoanType,
		Amount:       in.Amount,
		BorrowerID:   in.BorrowerID,
		FullName:     in.FullName,
		IsEligible:   in.IsEligible,
		Status:       domainRequest.StatusInProgress,
		CurrentStage: stages[0],
		StageIndex:   0,
	}

	err = u.uow.WithinTx(ctx, func(r uow.Repos) error {
		if err := r.Requests.Insert(ctx, req); err != nil {
			return err
		}
		return r.Decisions.Insert(ctx, &decision.Entry{
			LoanRequestID: req.ID,
			Stage:         stages[0],
			Action:        decision.ActionSubmitted,
			ActorID:       in.BorrowerID,
		})
	})
	if err != nil {
		return nil, "", err
	}

	wfID, err := u.starter.StartWorkflow(ctx, workflowName, 1, map[string]any{
		"requestId": req.ID,
		"loanType":  req.LoanType,
	})
	if err != nil {
		u.log.Warn("workflow start failed, request stays offline",
			zap.String("request_id", req.ID), zap.Error(err))
		wfID = ""
	}

	return toDTO(req), wfID, nil
}

func (u *Usecase) Get(ctx context.Context, requestID string) (*RequestDTO, error) {
	var dto *RequestDTO
	err := u.uow.WithinTx(ctx, func(r uow.Repos) error {
		req, err := r.Requests.GetByID(ctx, requestID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return domainRequest.ErrNotFound
			}
			return err
		}
		dto = toDTO(req)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return dto, nil
}

// Logs returns the decision ledger for a request, oldest first.
func (u *Usecase) Logs(ctx context.Context, requestID string) ([]decision.Entry, error) {
	var out []decision.Entry
	err := u.uow.WithinTx(ctx, func(r uow.Repos) error {
		entries, err := r.Decisions.ListByRequest(ctx, requestID)
		if err != nil {
			return err
		}
		out = entries
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Search lists requests newest first. Equal-created-at ordering is broken by
// id descending so pages stay stable.
func (u *Usecase) Search(ctx context.Context, q domainRequest.SearchQuery) ([]RequestDTO, int64, error) {
	if q.Page < 1 {
		q.Page = 1
	}
	if q.PageSize < 1 || q.PageSize > 200 {
		q.PageSize = 20
	}
	var (
		items []domainRequest.LoanRequest
		total int64
	)
	err := u.uow.WithinTx(ctx, func(r uow.Repos) error {
		var err error
		items, total, err = r.Requests.Search(ctx, q)
		return err
	})
	if err != nil {
		return nil, 0, err
	}
	dtos := make([]RequestDTO, 0, len(items))
	for i := range items {
		dtos = append(dtos, *toDTO(&items[i]))
	}
	return dtos, total, nil
}

func toDTO(r *domainRequest.LoanRequest) *RequestDTO {
	return &RequestDTO{
		RequestID:    r.ID,
		LoanType:     r.LoanType,
		Amount:       r.Amount,
		BorrowerID:   r.BorrowerID,
		FullName:     r.FullName,
		IsEligible:   r.IsEligible,
		Status:       string(r.Status),
		CurrentStage: r.CurrentStage,
		StageIndex:   r.StageIndex,
		CreatedAt:    r.CreatedAt,
	}
}
