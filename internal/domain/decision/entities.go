package decision

import (
	"errors"
	"time"
)

// ErrAlreadyDecided is surfaced when a second APPROVED/REJECTED entry is
// attempted for the same (request, stage) pair. The uniqueness lives in the
// storage layer, so concurrent deciders cannot both win.
var ErrAlreadyDecided = errors.New("stage already decided")

const (
	ActionSubmitted = "SUBMITTED"
	ActionApproved  = "APPROVED"
	ActionRejected  = "REJECTED"
)

// Entry is one accepted row of the append-only decision ledger.
type Entry struct {
	ID            uint64 `gorm:"primaryKey;autoIncrement;column:id" json:"-"`
	LoanRequestID string `gorm:"size:36;index;column:loan_request_id" json:"loan_request_id"`
	Stage         string `gorm:"size:32;column:stage" json:"stage"`
	Action        string `gorm:"size:16;column:action" json:"action"`
	ActorID       string `gorm:"size:36;column:actor_id" json:"actor_id"`
	Comments      string `gorm:"size:500;column:comments" json:"comments,omitempty"`
	// DecisionKey is "<request id>:<stage>" for APPROVED/REJECTED rows and
	// NULL for SUBMITTED rows. The unique index on it is the idempotency
	// boundary: the second decision for a stage fails with a duplicate-key
	// error instead of double-writing.
	DecisionKey *string   `gorm:"size:80;uniqueIndex:ux_decisions_once;column:decision_key" json:"-"`
	CreatedAt   time.Time `gorm:"autoCreateTime;column:created_at" json:"created_at"`
	UpdatedAt   time.Time `gorm:"autoUpdateTime;column:updated_at" json:"updated_at"`
}

func (Entry) TableName() string { return "loan_request_logs" }

// Key builds the decision key for an APPROVED/REJECTED entry.
func Key(requestID, stage string) *string {
	k := requestID + ":" + stage
	return &k
}
