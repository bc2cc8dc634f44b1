package request

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/Iyonsi/LoanWorkflow/internal/domain/decision"
	"github.com/Iyonsi/LoanWorkflow/internal/domain/flow"
	domainRequest "github.com/Iyonsi/LoanWorkflow/internal/domain/request"
	"github.com/Iyonsi/LoanWorkflow/internal/domain/uow"
	"github.com/Iyonsi/LoanWorkflow/internal/testutil/decisionmock"
	"github.com/Iyonsi/LoanWorkflow/internal/testutil/requestmock"
	"github.com/Iyonsi/LoanWorkflow/internal/testutil/uowmock"
)

type starterFunc func(ctx context.Context, name string, version int, input map[string]any) (string, error)

func (f starterFunc) StartWorkflow(ctx context.Context, name string, version int, input map[string]any) (string, error) {
	return f(ctx, name, version, input)
}

var offlineStarter = starterFunc(func(context.Context, string, int, map[string]any) (string, error) {
	return "", nil
})

func TestCreate(t *testing.T) {
	flows := flow.Default()

	t.Run("persists request and submitted entry", func(t *testing.T) {
		var inserted *domainRequest.LoanRequest
		var logged *decision.Entry
		reqs := &requestmock.Repo{
			InsertFn: func(_ context.Context, r *domainRequest.LoanRequest) error {
				inserted = r
				return nil
			},
		}
		decs := &decisionmock.Repo{
			InsertFn: func(_ context.Context, e *decision.Entry) error {
				logged = e
				return nil
			},
		}
		tx := uowmock.Pass(uow.Repos{Requests: reqs, Decisions: decs})

		var startedInput map[string]any
		starter := starterFunc(func(_ context.Context, name string, version int, input map[string]any) (string, error) {
			if name != "loan_dynamic_workflow" || version != 1 {
				t.Fatalf("workflow start %s v%d", name, version)
			}
			startedInput = input
			return "wf-42", nil
		})

		uc := NewUsecase(flows, tx, starter, zap.NewNop())
		dto, wfID, err := uc.Create(context.Background(), CreateInput{
			LoanType: "standard", Amount: 90_000, BorrowerID: "b-1", FullName: "Ada Obi", IsEligible: true,
		})
		if err != nil {
			t.Fatalf("Create: %v", err)
		}
		if wfID != "wf-42" {
			t.Fatalf("workflow id = %q", wfID)
		}
		if inserted == nil || inserted.StageIndex != 0 || inserted.CurrentStage != "FT" {
			t.Fatalf("inserted = %+v", inserted)
		}
		if inserted.Status != domainRequest.StatusInProgress {
			t.Fatalf("status = %s", inserted.Status)
		}
		if len(inserted.ID) != 32 {
			t.Fatalf("id = %q, want 32-char id", inserted.ID)
		}
		if logged == nil || logged.Action != decision.ActionSubmitted || logged.Stage != "FT" || logged.LoanRequestID != inserted.ID {
			t.Fatalf("log entry = %+v", logged)
		}
		if logged.DecisionKey != nil {
			t.Fatalf("submitted entries must not carry a decision key")
		}
		if startedInput["requestId"] != inserted.ID || startedInput["loanType"] != "standard" {
			t.Fatalf("workflow input = %+v", startedInput)
		}
		if dto.RequestID != inserted.ID || dto.CurrentStage != "FT" {
			t.Fatalf("dto = %+v", dto)
		}
	})

	t.Run("unknown loan type", func(t *testing.T) {
		uc := NewUsecase(flows, uowmock.Pass(uow.Repos{}), offlineStarter, zap.NewNop())
		_, _, err := uc.Create(context.Background(), CreateInput{LoanType: "payday", Amount: 1, BorrowerID: "b", FullName: "x"})
		if !errors.Is(err, flow.ErrUnknownLoanType) {
			t.Fatalf("want ErrUnknownLoanType, got %v", err)
		}
	})

	t.Run("workflow start failure is tolerated", func(t *testing.T) {
		reqs := &requestmock.Repo{}
		decs := &decisionmock.Repo{}
		tx := uowmock.Pass(uow.Repos{Requests: reqs, Decisions: decs})
		starter := starterFunc(func(context.Context, string, int, map[string]any) (string, error) {
			return "", errors.New("conductor down")
		})

		uc := NewUsecase(flows, tx, starter, zap.NewNop())
		dto, wfID, err := uc.Create(context.Background(), CreateInput{LoanType: "flex_review", Amount: 5, BorrowerID: "b", FullName: "x"})
		if err != nil {
			t.Fatalf("Create must tolerate workflow start failure, got %v", err)
		}
		if wfID != "" || dto == nil {
			t.Fatalf("wfID = %q, dto = %v", wfID, dto)
		}
	})

	t.Run("persist failure aborts", func(t *testing.T) {
		boom := errors.New("insert failed")
		reqs := &requestmock.Repo{
			InsertFn: func(context.Context, *domainRequest.LoanRequest) error { return boom },
		}
		tx := uowmock.Pass(uow.Repos{Requests: reqs, Decisions: &decisionmock.Repo{}})
		started := false
		starter := starterFunc(func(context.Context, string, int, map[string]any) (string, error) {
			started = true
			return "", nil
		})

		uc := NewUsecase(flows, tx, starter, zap.NewNop())
		if _, _, err := uc.Create(context.Background(), CreateInput{LoanType: "standard", Amount: 1, BorrowerID: "b", FullName: "x"}); !errors.Is(err, boom) {
			t.Fatalf("want insert error, got %v", err)
		}
		if started {
			t.Fatal("workflow started despite failed persist")
		}
	})
}

func TestGet(t *testing.T) {
	flows := flow.Default()

	t.Run("found", func(t *testing.T) {
		reqs := &requestmock.Repo{
			GetByIDFn: func(_ context.Context, id string) (*domainRequest.LoanRequest, error) {
				return &domainRequest.LoanRequest{ID: id, LoanType: "standard", CurrentStage: "HOP", StageIndex: 1}, nil
			},
		}
		uc := NewUsecase(flows, uowmock.Pass(uow.Repos{Requests: reqs}), offlineStarter, zap.NewNop())
		dto, err := uc.Get(context.Background(), "r-1")
		if err != nil {
			t.Fatalf("Get: %v", err)
		}
		if dto.RequestID != "r-1" || dto.CurrentStage != "HOP" {
			t.Fatalf("dto = %+v", dto)
		}
	})

	t.Run("not found", func(t *testing.T) {
		reqs := &requestmock.Repo{
			GetByIDFn: func(context.Context, string) (*domainRequest.LoanRequest, error) {
				return nil, gorm.ErrRecordNotFound
			},
		}
		uc := NewUsecase(flows, uowmock.Pass(uow.Repos{Requests: reqs}), offlineStarter, zap.NewNop())
		if _, err := uc.Get(context.Background(), "nope"); !errors.Is(err, domainRequest.ErrNotFound) {
			t.Fatalf("want ErrNotFound, got %v", err)
		}
	})
}

func TestSearch_Defaults(t *testing.T) {
	flows := flow.Default()
	var got domainRequest.SearchQuery
	reqs := &requestmock.Repo{
		SearchFn: func(_ context.Context, q domainRequest.SearchQuery) ([]domainRequest.LoanRequest, int64, error) {
			got = q
			return []domainRequest.LoanRequest{{ID: "r-1"}}, 1, nil
		},
	}
	uc := NewUsecase(flows, uowmock.Pass(uow.Repos{Requests: reqs}), offlineStarter, zap.NewNop())

	items, total, err := uc.Search(context.Background(), domainRequest.SearchQuery{Page: 0, PageSize: 0})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if got.Page != 1 || got.PageSize != 20 {
		t.Fatalf("defaults not applied: %+v", got)
	}
	if total != 1 || len(items) != 1 || items[0].RequestID != "r-1" {
		t.Fatalf("items=%v total=%d", items, total)
	}
}
