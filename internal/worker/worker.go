package worker

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/Iyonsi/LoanWorkflow/internal/conductor"
	"github.com/Iyonsi/LoanWorkflow/internal/domain/flow"
	"github.com/Iyonsi/LoanWorkflow/internal/domain/uow"
)

// Task types handled by the poller, one loop each.
const (
	TaskInitVariables   = "init_variables"
	TaskFetchDecision   = "fetch_decision"
	TaskAdvancePointer  = "advance_pointer"
	TaskHandleRejection = "handle_rejection"
	TaskCreateLoan      = "create_loan"
)

// TaskClient is the slice of the orchestrator client the poller needs.
type TaskClient interface {
	Poll(ctx context.Context, taskType, workerID string) (*conductor.Task, error)
	Ack(ctx context.Context, taskID, workerID string) error
	UpdateTask(ctx context.Context, result *conductor.TaskResult) error
}

// handler executes one task and returns the result to report. A nil result
// with nil error means nothing to report.
type handler func(ctx context.Context, task *conductor.Task) (*conductor.TaskResult, error)

type Poller struct {
	client       TaskClient
	flows        flow.Config
	uow          uow.UnitOfWork
	workerID     string
	pollInterval time.Duration
	errorBackoff time.Duration
	log          *zap.Logger
}

func NewPoller(client TaskClient, flows flow.Config, u uow.UnitOfWork, workerID string, pollInterval, errorBackoff time.Duration, log *zap.Logger) *Poller {
	if pollInterval <= 0 {
		pollInterval = time.Second
	}
	if errorBackoff <= 0 {
		errorBackoff = 2 * time.Second
	}
	return &Poller{
		client:       client,
		flows:        flows,
		uow:          u,
		workerID:     workerID,
		pollInterval: pollInterval,
		errorBackoff: errorBackoff,
		log:          log,
	}
}

// Run starts one poll loop per task type and blocks until ctx is cancelled
// and every loop has exited.
func (p *Poller) Run(ctx context.Context) {
	loops := map[string]handler{
		TaskInitVariables:   p.handleInitVariables,
		TaskFetchDecision:   p.handleFetchDecision,
		TaskAdvancePointer:  p.handleAdvancePointer,
		TaskHandleRejection: p.handleRejection,
		TaskCreateLoan:      p.handleCreateLoan,
	}

	var wg sync.WaitGroup
	for taskType, h := range loops {
		wg.Add(1)
		go func(taskType string, h handler) {
			defer wg.Done()
			p.loop(ctx, taskType, h)
		}(taskType, h)
	}
	wg.Wait()
}

// loop polls for one task at a time. A failure anywhere in the iteration is
// logged and followed by a backoff; the loop itself only stops on ctx
// cancellation.
func (p *Poller) loop(ctx context.Context, taskType string, h handler) {
	p.log.Info("poll loop started", zap.String("taskType", taskType), zap.String("workerId", p.workerID))
	for {
		if ctx.Err() != nil {
			p.log.Info("poll loop stopped", zap.String("taskType", taskType))
			return
		}

		task, err := p.client.Poll(ctx, taskType, p.workerID)
		if err != nil {
			p.log.Error("poll failed", zap.String("taskType", taskType), zap.Error(err))
			if !sleep(ctx, p.errorBackoff) {
				return
			}
			continue
		}
		if task == nil {
			if !sleep(ctx, p.pollInterval) {
				return
			}
			continue
		}

		if err := p.client.Ack(ctx, task.TaskID, p.workerID); err != nil {
			p.log.Error("ack failed", zap.String("taskType", taskType), zap.String("taskId", task.TaskID), zap.Error(err))
			if !sleep(ctx, p.errorBackoff) {
				return
			}
			continue
		}

		result, err := p.runHandler(ctx, h, task)
		if err != nil {
			p.log.Error("task handler failed",
				zap.String("taskType", taskType),
				zap.String("taskId", task.TaskID),
				zap.Error(err))
			if !sleep(ctx, p.errorBackoff) {
				return
			}
			continue
		}
		if result == nil {
			continue
		}
		if err := p.client.UpdateTask(ctx, result); err != nil {
			p.log.Error("task update failed", zap.String("taskType", taskType), zap.String("taskId", task.TaskID), zap.Error(err))
			if !sleep(ctx, p.errorBackoff) {
				return
			}
		}
	}
}

// runHandler converts a handler panic into an error so a broken task can
// never take its loop down.
func (p *Poller) runHandler(ctx context.Context, h handler, task *conductor.Task) (result *conductor.TaskResult, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("handler panic: %v", r)
		}
	}()
	return h(ctx, task)
}

// sleep waits for d or until ctx is cancelled, reporting whether the loop
// should keep running.
func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
