package loan

import (
	"errors"
	"strings"
	"time"
)

var ErrNotFound = errors.New("loan not found")

const StatusActive = "ACTIVE"

// Loan is the booked loan created exactly once when a request's final stage
// is approved. Rate and term stay zero until a later pricing process fills
// them in.
type Loan struct {
	ID            uint64    `gorm:"primaryKey;autoIncrement;column:id" json:"-"`
	LoanRequestID string    `gorm:"size:36;uniqueIndex:ux_loans_request;column:loan_request_id" json:"loan_request_id"`
	LoanNumber    string    `gorm:"size:16;column:loan_number" json:"loan_number"`
	FullName      string    `gorm:"size:120;column:full_name" json:"full_name"`
	Principal     float64   `gorm:"type:decimal(18,2);column:principal" json:"principal"`
	InterestRate  float64   `gorm:"type:decimal(6,4);column:interest_rate" json:"interest_rate"`
	TermMonths    int       `gorm:"column:term_months" json:"term_months"`
	StartDate     time.Time `gorm:"column:start_date" json:"start_date"`
	Status        string    `gorm:"size:16;column:status" json:"status"`
	CreatedAt     time.Time `gorm:"autoCreateTime;column:created_at" json:"created_at"`
	UpdatedAt     time.Time `gorm:"autoUpdateTime;column:updated_at" json:"updated_at"`
}

func (Loan) TableName() string { return "loans" }

// Number derives the loan number from the request id: "LN-" plus the first
// eight characters, upper-cased.
func Number(requestID string) string {
	n := requestID
	if len(n) > 8 {
		n = n[:8]
	}
	return "LN-" + strings.ToUpper(n)
}
