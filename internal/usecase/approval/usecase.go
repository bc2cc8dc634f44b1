package approval

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/Iyonsi/LoanWorkflow/internal/domain/decision"
	"github.com/Iyonsi/LoanWorkflow/internal/domain/flow"
	domainLoan "github.com/Iyonsi/LoanWorkflow/internal/domain/loan"
	domainRequest "github.com/Iyonsi/LoanWorkflow/internal/domain/request"
	"github.com/Iyonsi/LoanWorkflow/internal/domain/uow"
)

// Usecase applies APPROVE/REJECT decisions to a request. All transition
// arithmetic lives in flow.Config.Decide; this type only loads state, calls
// it, and persists the result.
type Usecase struct {
	flows flow.Config
	uow   uow.UnitOfWork
	// orchestrated mirrors the conductor client's enabled state. When the
	// orchestrator drives the workflow, stage regression on rejection is the
	// handle_rejection task's job; the synchronous path only writes the log
	// entry. Final-stage approval advances and books in either mode.
	orchestrated bool
	log          *zap.Logger
}

func NewUsecase(flows flow.Config, tx uow.UnitOfWork, orchestrated bool, log *zap.Logger) *Usecase {
	return &Usecase{flows: flows, uow: tx, orchestrated: orchestrated, log: log}
}

type ApproveInput struct {
	RequestID  string
	ActorID    string
	ActingRole string
	Comments   string
}

type RejectInput struct {
	RequestID string
	ActorID   string
	Comments  string
}

type DecisionDTO struct {
	Approved bool   `json:"approved"`
	Stage    string `json:"stage"`
	FullName string `json:"full_name"`
}

// Approve records an APPROVED decision for the request's current stage. The
// acting role must match the current stage name (case-insensitive). At a
// non-final stage the request advances one stage; at the final stage the
// request becomes Approved and a loan is booked. Booking failure is logged
// and swallowed: the approval itself still succeeds.
func (u *Usecase) Approve(ctx context.Context, in ApproveInput) (*DecisionDTO, error) {
	var dto *DecisionDTO

	err := u.uow.WithinTx(ctx, func(r uow.Repos) error {
		req, err := r.Requests.GetByID(ctx, in.RequestID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return domainRequest.ErrNotFound
			}
			return err
		}

		if !strings.EqualFold(in.ActingRole, req.CurrentStage) {
			u.log.Warn("approve rejected: role does not own stage",
				zap.String("request_id", req.ID),
				zap.String("stage", req.CurrentStage),
				zap.String("acting_role", in.ActingRole))
			return domainRequest.ErrUnauthorizedRole
		}

		out, err := u.flows.Decide(req.LoanType, req.StageIndex, flow.Approve)
		if err != nil {
			return err
		}

		stage := req.CurrentStage
		if err := r.Decisions.Insert(ctx, &decision.Entry{
			LoanRequestID: req.ID,
			Stage:         stage,
			Action:        decision.ActionApproved,
			ActorID:       in.ActorID,
			Comments:      in.Comments,
			DecisionKey:   decision.Key(req.ID, stage),
		}); err != nil {
			return err
		}

		if out.Final {
			req.Status = domainRequest.StatusApproved
			u.bookLoan(ctx, r, req)
		} else {
			req.StageIndex = out.StageIndex
			req.CurrentStage = out.Stage
		}
		if err := r.Requests.Save(ctx, req); err != nil {
			return err
		}

		dto = &DecisionDTO{Approved: true, Stage: stage, FullName: req.FullName}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return dto, nil
}

// Reject records a REJECTED decision. Loan types whose policy forbids
// rejection fail before anything is written. The log entry is always written
// for permitted rejections; the stage regression itself is applied here only
// when the orchestrator is disabled, otherwise the handle_rejection task
// performs it.
func (u *Usecase) Reject(ctx context.Context, in RejectInput) (*DecisionDTO, error) {
	var dto *DecisionDTO

	err := u.uow.WithinTx(ctx, func(r uow.Repos) error {
		req, err := r.Requests.GetByID(ctx, in.RequestID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return domainRequest.ErrNotFound
			}
			return err
		}

		out, err := u.flows.Decide(req.LoanType, req.StageIndex, flow.Reject)
		if err != nil {
			return err
		}

		stage := req.CurrentStage
		if err := r.Decisions.Insert(ctx, &decision.Entry{
			LoanRequestID: req.ID,
			Stage:         stage,
			Action:        decision.ActionRejected,
			ActorID:       in.ActorID,
			Comments:      in.Comments,
			DecisionKey:   decision.Key(req.ID, stage),
		}); err != nil {
			return err
		}

		if !u.orchestrated {
			req.StageIndex = out.StageIndex
			req.CurrentStage = out.Stage
			if err := r.Requests.Save(ctx, req); err != nil {
				return err
			}
		}

		dto = &DecisionDTO{Approved: false, Stage: stage, FullName: req.FullName}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return dto, nil
}

// bookLoan creates the loan record for a finally-approved request. At most
// one loan per request: an existing row short-circuits, and the unique index
// on loan_request_id backstops concurrent booking. Errors are swallowed so a
// booking hiccup never fails the approval.
func (u *Usecase) bookLoan(ctx context.Context, r uow.Repos, req *domainRequest.LoanRequest) {
	if _, err := r.Loans.GetByRequestID(ctx, req.ID); err == nil {
		return
	} else if !errors.Is(err, gorm.ErrRecordNotFound) && !errors.Is(err, domainLoan.ErrNotFound) {
		u.log.Error("loan lookup failed, booking skipped",
			zap.String("request_id", req.ID), zap.Error(err))
		return
	}

	l := &domainLoan.Loan{
		LoanRequestID: req.ID,
		LoanNumber:    domainLoan.Number(req.ID),
		FullName:      req.FullName,
		Principal:     req.Amount,
		StartDate:     time.Now().UTC().Truncate(24 * time.Hour),
		Status:        domainLoan.StatusActive,
	}
	if err := r.Loans.Insert(ctx, l); err != nil {
		u.log.Error("loan booking failed, approval stands",
			zap.String("request_id", req.ID), zap.Error(err))
	}
}
