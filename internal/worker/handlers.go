package worker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/Iyonsi/LoanWorkflow/internal/conductor"
	"github.com/Iyonsi/LoanWorkflow/internal/domain/decision"
	"github.com/Iyonsi/LoanWorkflow/internal/domain/flow"
	"github.com/Iyonsi/LoanWorkflow/internal/domain/loan"
	"github.com/Iyonsi/LoanWorkflow/internal/domain/request"
	"github.com/Iyonsi/LoanWorkflow/internal/domain/uow"
)

// fetchDecisionRetrySecs is the callback delay reported while a stage is
// still waiting for its decision.
const fetchDecisionRetrySecs = 5

// handleInitVariables seeds the workflow variables: the stage list for the
// request's loan type and a zero stage pointer.
func (p *Poller) handleInitVariables(_ context.Context, task *conductor.Task) (*conductor.TaskResult, error) {
	loanType, err := stringInput(task, "loanType")
	if err != nil {
		return nil, err
	}
	stages, err := p.flows.Stages(loanType)
	if err != nil {
		return nil, err
	}
	return &conductor.TaskResult{
		TaskID:             task.TaskID,
		WorkflowInstanceID: task.WorkflowInstanceID,
		Status:             conductor.StatusCompleted,
		OutputData: map[string]any{
			"stages":     stages,
			"stageIndex": 0,
		},
	}, nil
}

// handleFetchDecision looks for the decision recorded at the workflow's
// current stage. While none exists the task stays IN_PROGRESS with a short
// callback so the orchestrator re-delivers it.
func (p *Poller) handleFetchDecision(ctx context.Context, task *conductor.Task) (*conductor.TaskResult, error) {
	requestID, err := stringInput(task, "requestId")
	if err != nil {
		return nil, err
	}
	stageIndex, err := intInput(task, "stageIndex")
	if err != nil {
		return nil, err
	}
	stages, err := stagesInput(task)
	if err != nil {
		return nil, err
	}
	if stageIndex < 0 || stageIndex >= len(stages) {
		return nil, fmt.Errorf("task %s: stage index %d out of range", task.TaskID, stageIndex)
	}
	currentStage := stages[stageIndex]

	var entry *decision.Entry
	err = p.uow.WithinTx(ctx, func(r uow.Repos) error {
		var txErr error
		entry, txErr = r.Decisions.LatestDecision(ctx, requestID, currentStage)
		return txErr
	})
	if err != nil {
		return nil, err
	}

	if entry == nil {
		return &conductor.TaskResult{
			TaskID:               task.TaskID,
			WorkflowInstanceID:   task.WorkflowInstanceID,
			Status:               conductor.StatusInProgress,
			CallbackAfterSeconds: fetchDecisionRetrySecs,
		}, nil
	}
	return &conductor.TaskResult{
		TaskID:             task.TaskID,
		WorkflowInstanceID: task.WorkflowInstanceID,
		Status:             conductor.StatusCompleted,
		OutputData: map[string]any{
			"approved": entry.Action == decision.ActionApproved,
		},
	}, nil
}

// handleAdvancePointer applies an approval at the carried stage pointer:
// the request row moves to the next stage, or is marked Approved when the
// decided stage was the last one.
func (p *Poller) handleAdvancePointer(ctx context.Context, task *conductor.Task) (*conductor.TaskResult, error) {
	requestID, err := stringInput(task, "requestId")
	if err != nil {
		return nil, err
	}
	loanType, err := stringInput(task, "loanType")
	if err != nil {
		return nil, err
	}
	stageIndex, err := intInput(task, "stageIndex")
	if err != nil {
		return nil, err
	}
	stages, err := stagesInput(task)
	if err != nil {
		return nil, err
	}

	out, err := p.flows.Decide(loanType, stageIndex, flow.Approve)
	if err != nil {
		return nil, err
	}

	err = p.uow.WithinTx(ctx, func(r uow.Repos) error {
		req, txErr := r.Requests.GetByID(ctx, requestID)
		if txErr != nil {
			return txErr
		}
		if out.Final {
			req.Status = request.StatusApproved
		} else {
			req.StageIndex = out.StageIndex
			req.CurrentStage = out.Stage
		}
		return r.Requests.Save(ctx, req)
	})
	if err != nil {
		return nil, err
	}

	// the workflow's loop condition needs the pointer past the end once the
	// final stage is approved
	nextIndex := out.StageIndex
	if out.Final {
		nextIndex = stageIndex + 1
	}
	return &conductor.TaskResult{
		TaskID:             task.TaskID,
		WorkflowInstanceID: task.WorkflowInstanceID,
		Status:             conductor.StatusCompleted,
		OutputData: map[string]any{
			"stageIndex": nextIndex,
			"stages":     stages,
		},
	}, nil
}

// handleRejection applies the loan type's rejection policy to the request
// row. A type that forbids rejection fails the task instead of mutating
// anything.
func (p *Poller) handleRejection(ctx context.Context, task *conductor.Task) (*conductor.TaskResult, error) {
	requestID, err := stringInput(task, "requestId")
	if err != nil {
		return nil, err
	}
	loanType, err := stringInput(task, "loanType")
	if err != nil {
		return nil, err
	}
	stageIndex, err := intInput(task, "stageIndex")
	if err != nil {
		return nil, err
	}
	stages, err := stagesInput(task)
	if err != nil {
		return nil, err
	}

	out, err := p.flows.Decide(loanType, stageIndex, flow.Reject)
	if errors.Is(err, flow.ErrRejectionNotAllowed) {
		return &conductor.TaskResult{
			TaskID:                task.TaskID,
			WorkflowInstanceID:    task.WorkflowInstanceID,
			Status:                conductor.StatusFailed,
			ReasonForIncompletion: "Rejection not allowed",
		}, nil
	}
	if err != nil {
		return nil, err
	}

	err = p.uow.WithinTx(ctx, func(r uow.Repos) error {
		req, txErr := r.Requests.GetByID(ctx, requestID)
		if txErr != nil {
			return txErr
		}
		req.StageIndex = out.StageIndex
		req.CurrentStage = out.Stage
		return r.Requests.Save(ctx, req)
	})
	if err != nil {
		return nil, err
	}

	return &conductor.TaskResult{
		TaskID:             task.TaskID,
		WorkflowInstanceID: task.WorkflowInstanceID,
		Status:             conductor.StatusCompleted,
		OutputData: map[string]any{
			"stageIndex": out.StageIndex,
			"stages":     stages,
		},
	}, nil
}

// handleCreateLoan books the loan for an approved request, once. Requests
// not (yet) approved are skipped; re-delivery after a booked loan reports
// CREATED again without inserting a second row.
func (p *Poller) handleCreateLoan(ctx context.Context, task *conductor.Task) (*conductor.TaskResult, error) {
	requestID, err := stringInput(task, "requestId")
	if err != nil {
		return nil, err
	}

	skipped := false
	err = p.uow.WithinTx(ctx, func(r uow.Repos) error {
		req, txErr := r.Requests.GetByID(ctx, requestID)
		if txErr != nil {
			return txErr
		}
		if req.Status != request.StatusApproved {
			skipped = true
			return nil
		}
		_, txErr = r.Loans.GetByRequestID(ctx, requestID)
		if txErr == nil {
			return nil
		}
		if !errors.Is(txErr, gorm.ErrRecordNotFound) && !errors.Is(txErr, loan.ErrNotFound) {
			return txErr
		}
		return r.Loans.Insert(ctx, &loan.Loan{
			LoanRequestID: requestID,
			LoanNumber:    loan.Number(requestID),
			FullName:      req.FullName,
			Principal:     req.Amount,
			StartDate:     time.Now().UTC().Truncate(24 * time.Hour),
			Status:        loan.StatusActive,
		})
	})
	if err != nil {
		return nil, err
	}

	status := "CREATED"
	if skipped {
		status = "SKIPPED"
	}
	return &conductor.TaskResult{
		TaskID:             task.TaskID,
		WorkflowInstanceID: task.WorkflowInstanceID,
		Status:             conductor.StatusCompleted,
		OutputData:         map[string]any{"status": status},
	}, nil
}

// Input accessors. Task input travels as JSON, so numbers arrive as float64
// and lists as []any.

func stringInput(task *conductor.Task, key string) (string, error) {
	v, ok := task.InputData[key]
	if !ok {
		return "", fmt.Errorf("task %s: missing input %q", task.TaskID, key)
	}
	s, ok := v.(string)
	if !ok || s == "" {
		return "", fmt.Errorf("task %s: input %q is not a string", task.TaskID, key)
	}
	return s, nil
}

func intInput(task *conductor.Task, key string) (int, error) {
	v, ok := task.InputData[key]
	if !ok {
		return 0, fmt.Errorf("task %s: missing input %q", task.TaskID, key)
	}
	switch n := v.(type) {
	case float64:
		return int(n), nil
	case int:
		return n, nil
	default:
		return 0, fmt.Errorf("task %s: input %q is not a number", task.TaskID, key)
	}
}

func stagesInput(task *conductor.Task) ([]string, error) {
	v, ok := task.InputData["stages"]
	if !ok {
		return nil, fmt.Errorf("task %s: missing input %q", task.TaskID, "stages")
	}
	switch list := v.(type) {
	case []string:
		return list, nil
	case []any:
		out := make([]string, 0, len(list))
		for _, item := range list {
			s, ok := item.(string)
			if !ok {
				return nil, fmt.Errorf("task %s: non-string stage entry", task.TaskID)
			}
			out = append(out, s)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("task %s: input %q is not a list", task.TaskID, "stages")
	}
}
