package request

import "time"

type CreateInput struct {
	LoanType   string  `json:"loan_type"`
	Amount     float64 `json:"amount"`
	BorrowerID string  `json:"borrower_id"`
	FullName   string  `json:"full_name"`
	IsEligible bool    `json:"is_eligible"`
}

type RequestDTO struct {
	RequestID    string    `json:"request_id"`
	LoanType     string    `json:"loan_type"`
	Amount       float64   `json:"amount"`
	BorrowerID   string    `json:"borrower_id"`
	FullName     string    `json:"full_name"`
	IsEligible   bool      `json:"is_eligible"`
	Status       string    `json:"status"`
	CurrentStage string    `json:"current_stage"`
	StageIndex   int       `json:"stage_index"`
	CreatedAt    time.Time `json:"created_at"`
}
