package request

import (
	"errors"
	"strings"
	"time"
)

var (
	ErrNotFound = errors.New("loan request not found")
	// ErrUnauthorizedRole is returned when the acting role does not match the
	// request's current stage.
	ErrUnauthorizedRole = errors.New("acting role does not match current stage")
)

type Status string

const (
	StatusPending    Status = "Pending"
	StatusInProgress Status = "InProgress"
	StatusApproved   Status = "Approved"
	// Rejected and Cancelled are part of the status vocabulary but no
	// transition assigns them today: a rejected request regresses (or
	// stalls) and stays InProgress. Terminal rejection handling is an open
	// item with the process owner.
	StatusRejected  Status = "Rejected"
	StatusCancelled Status = "Cancelled"
)

// ParseStatuses maps a comma-separated status list to known Status values,
// ignoring unknown entries. Returns nil when nothing matched.
func ParseStatuses(csv string) []Status {
	var out []Status
	for _, p := range strings.Split(csv, ",") {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		for _, s := range []Status{StatusPending, StatusInProgress, StatusApproved, StatusRejected, StatusCancelled} {
			if strings.EqualFold(p, string(s)) {
				out = append(out, s)
				break
			}
		}
	}
	return out
}

type LoanRequest struct {
	ID           string    `gorm:"primaryKey;size:36;column:id" json:"request_id"`
	LoanType     string    `gorm:"size:32;index;column:loan_type" json:"loan_type"`
	Amount       float64   `gorm:"type:decimal(18,2);column:amount" json:"amount"`
	BorrowerID   string    `gorm:"size:36;index;column:borrower_id" json:"borrower_id"`
	FullName     string    `gorm:"size:120;column:full_name" json:"full_name"`
	IsEligible   bool      `gorm:"column:is_eligible" json:"is_eligible"`
	Status       Status    `gorm:"size:16;index;column:status" json:"status"`
	CurrentStage string    `gorm:"size:32;column:current_stage" json:"current_stage"`
	StageIndex   int       `gorm:"column:stage_index" json:"stage_index"`
	CreatedAt    time.Time `gorm:"autoCreateTime;index;column:created_at" json:"created_at"`
	UpdatedAt    time.Time `gorm:"autoUpdateTime;column:updated_at" json:"updated_at"`
}

func (LoanRequest) TableName() string { return "loan_requests" }
