package decision

import "context"

type Repository interface {
	// Insert appends an entry. For APPROVED/REJECTED entries a duplicate
	// (request, stage) pair fails with ErrAlreadyDecided.
	Insert(ctx context.Context, e *Entry) error
	ListByRequest(ctx context.Context, requestID string) ([]Entry, error)
	// LatestDecision returns the most recent APPROVED/REJECTED entry for the
	// stage, or nil when the stage is still undecided.
	LatestDecision(ctx context.Context, requestID, stage string) (*Entry, error)
}
