package flow

import "fmt"

type Decision int

const (
	Approve Decision = iota
	Reject
)

// Outcome is the next state computed for a request after one decision.
type Outcome struct {
	StageIndex int
	Stage      string
	// Final is true when the last stage was approved; the request is done
	// and a loan must be booked.
	Final bool
}

// Decide computes the next stage position for a request at stageIndex of
// loanType's flow. It is the single implementation of the transition rules:
// the synchronous approval path and the orchestration task handlers both go
// through it.
//
// APPROVE at a non-final stage moves one step forward. APPROVE at the final
// stage terminates the flow. REJECT depends on the loan type: "standard"
// restarts at the first stage, "flex_review" steps back one stage (clamped
// at the first), and "multi_stage" does not permit rejection at all.
func (c Config) Decide(loanType string, stageIndex int, d Decision) (Outcome, error) {
	stages, err := c.Stages(loanType)
	if err != nil {
		return Outcome{}, err
	}
	if stageIndex < 0 || stageIndex >= len(stages) {
		return Outcome{}, fmt.Errorf("stage index %d out of range for %s", stageIndex, loanType)
	}

	switch d {
	case Approve:
		if stageIndex < len(stages)-1 {
			next := stageIndex + 1
			return Outcome{StageIndex: next, Stage: stages[next]}, nil
		}
		return Outcome{StageIndex: stageIndex, Stage: stages[stageIndex], Final: true}, nil

	case Reject:
		if !c.RejectionAllowed(loanType) {
			return Outcome{}, ErrRejectionNotAllowed
		}
		next := 0
		if loanType == "flex_review" {
			next = stageIndex - 1
			if next < 0 {
				next = 0
			}
		}
		return Outcome{StageIndex: next, Stage: stages[next]}, nil

	default:
		return Outcome{}, fmt.Errorf("unknown decision %d", d)
	}
}
