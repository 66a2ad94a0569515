package events

import (
	"context"
	"errors"
	"log/slog"
	"math/big"
	"testing"

	"github.com/koperasichain/backend/internal/blockchain"
	"github.com/koperasichain/backend/internal/fault"
	"github.com/koperasichain/backend/internal/ledger"
)

const coopAddr = "0x9999999999999999999999999999999999999999"

type fakeQuerier struct {
	logs      map[string][]blockchain.LogEntry
	failTopic string
}

func (q *fakeQuerier) BlockNumber(_ context.Context) (uint64, error) {
	return 1000, nil
}

func (q *fakeQuerier) GetLogs(_ context.Context, filter blockchain.LogFilter) ([]blockchain.LogEntry, error) {
	if len(filter.Topics) == 0 {
		return nil, errors.New("missing topic filter")
	}
	if filter.Topics[0] == q.failTopic {
		return nil, errors.New("node unavailable")
	}
	return q.logs[filter.Topics[0]], nil
}

type fakeStateReader struct {
	loans       map[uint64]ledger.Loan
	savings     map[string]*big.Int
	failLoanIDs map[uint64]bool
}

func (r *fakeStateReader) LoanByID(_ context.Context, loanID uint64) (ledger.Loan, error) {
	if r.failLoanIDs[loanID] {
		return ledger.Loan{}, errors.New("node unavailable")
	}
	loan, ok := r.loans[loanID]
	if !ok {
		return ledger.Loan{}, errors.New("unknown loan")
	}
	return loan, nil
}

func (r *fakeStateReader) TotalSavingsOf(_ context.Context, addr string) (*big.Int, error) {
	if s, ok := r.savings[addr]; ok {
		return s, nil
	}
	return new(big.Int), nil
}

func newTestEngine(t *testing.T, q *fakeQuerier, r *fakeStateReader) *Engine {
	t.Helper()
	engine, err := NewEngine(q, r, coopAddr, slog.Default())
	if err != nil {
		t.Fatalf("new engine: %v", err)
	}
	return engine
}

func TestFetchHistoryMergesDedupesAndOrders(t *testing.T) {
	dup := depositLog(memberAddr, 100, "wajib", 200, "0xt1", 0)
	q := &fakeQuerier{logs: map[string][]blockchain.LogEntry{
		TopicDepositReceived:     {dup, dup},
		TopicWithdrawalSucceeded: {withdrawalLog(memberAddr, 50, 300, "0xt2", 0)},
		TopicLoanRequested:       {loanRequestedLog(1, memberAddr, 500, 100, "0xt3", 0)},
	}}
	engine := newTestEngine(t, q, &fakeStateReader{})

	history, err := engine.FetchHistory(context.Background(), memberAddr)
	if err != nil {
		t.Fatalf("fetch history: %v", err)
	}
	if len(history) != 3 {
		t.Fatalf("expected 3 events after dedup, got %d", len(history))
	}
	if history[0].Kind != KindWithdrawalSucceeded || history[1].Kind != KindDepositReceived || history[2].Kind != KindLoanRequested {
		t.Fatalf("unexpected order: %s, %s, %s", history[0].Kind, history[1].Kind, history[2].Kind)
	}
}

func TestFetchHistoryTieBreakIsDeterministic(t *testing.T) {
	q := &fakeQuerier{logs: map[string][]blockchain.LogEntry{
		TopicDepositReceived: {
			depositLog(memberAddr, 100, "wajib", 500, "0xbb", 0),
			depositLog(memberAddr, 200, "pokok", 500, "0xaa", 2),
			depositLog(memberAddr, 300, "pokok", 500, "0xaa", 1),
		},
	}}
	engine := newTestEngine(t, q, &fakeStateReader{})

	history, err := engine.FetchHistory(context.Background(), memberAddr)
	if err != nil {
		t.Fatalf("fetch history: %v", err)
	}
	if len(history) != 3 {
		t.Fatalf("expected 3 events, got %d", len(history))
	}
	if history[0].TxHash != "0xaa" || history[0].LogIndex != 1 {
		t.Fatalf("unexpected first: %s/%d", history[0].TxHash, history[0].LogIndex)
	}
	if history[1].TxHash != "0xaa" || history[1].LogIndex != 2 {
		t.Fatalf("unexpected second: %s/%d", history[1].TxHash, history[1].LogIndex)
	}
	if history[2].TxHash != "0xbb" {
		t.Fatalf("unexpected third: %s", history[2].TxHash)
	}
}

func TestFetchHistorySkipsRemovedLogs(t *testing.T) {
	removed := depositLog(memberAddr, 100, "wajib", 200, "0xt1", 0)
	removed.Removed = true
	q := &fakeQuerier{logs: map[string][]blockchain.LogEntry{
		TopicDepositReceived: {removed},
	}}
	engine := newTestEngine(t, q, &fakeStateReader{})

	history, err := engine.FetchHistory(context.Background(), memberAddr)
	if err != nil {
		t.Fatalf("fetch history: %v", err)
	}
	if len(history) != 0 {
		t.Fatalf("expected removed log to be skipped, got %d events", len(history))
	}
}

func TestFetchHistoryRejectsMalformedAddress(t *testing.T) {
	engine := newTestEngine(t, &fakeQuerier{}, &fakeStateReader{})

	_, err := engine.FetchHistory(context.Background(), "not-an-address")
	var validationErr *fault.ValidationError
	if !errors.As(err, &validationErr) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestFetchHistorySingleStreamFailureFailsCall(t *testing.T) {
	q := &fakeQuerier{
		logs: map[string][]blockchain.LogEntry{
			TopicDepositReceived: {depositLog(memberAddr, 100, "wajib", 200, "0xt1", 0)},
		},
		failTopic: TopicLoanApproved,
	}
	engine := newTestEngine(t, q, &fakeStateReader{})

	_, err := engine.FetchHistory(context.Background(), memberAddr)
	var queryErr *fault.QueryError
	if !errors.As(err, &queryErr) {
		t.Fatalf("expected query error, got %v", err)
	}
}

func TestFetchPendingLoansExcludesClosed(t *testing.T) {
	q := &fakeQuerier{logs: map[string][]blockchain.LogEntry{
		TopicLoanRequested: {
			loanRequestedLog(7, borrowerAddr, 100, 100, "0xt7", 0),
			loanRequestedLog(8, borrowerAddr, 200, 200, "0xt8", 0),
			loanRequestedLog(9, borrowerAddr, 300, 300, "0xt9", 0),
		},
		TopicLoanApproved: {loanApprovedLog(7, borrowerAddr, 150, "0xta", 0)},
		TopicLoanSettled:  {loanSettledLog(9, borrowerAddr, 350, "0xtb", 0)},
	}}
	r := &fakeStateReader{
		loans:   map[uint64]ledger.Loan{8: {ID: 8, Borrower: borrowerAddr, Owed: big.NewInt(210)}},
		savings: map[string]*big.Int{borrowerAddr: big.NewInt(5000)},
	}
	engine := newTestEngine(t, q, r)

	pending, err := engine.FetchPendingLoans(context.Background())
	if err != nil {
		t.Fatalf("fetch pending: %v", err)
	}
	if len(pending) != 1 {
		t.Fatalf("expected 1 pending loan, got %d", len(pending))
	}
	if pending[0].LoanID != 8 {
		t.Fatalf("expected loan 8, got %d", pending[0].LoanID)
	}
	if pending[0].Owed.Cmp(big.NewInt(210)) != 0 {
		t.Fatalf("unexpected owed: %s", pending[0].Owed)
	}
	if pending[0].BorrowerSavings.Cmp(big.NewInt(5000)) != 0 {
		t.Fatalf("unexpected savings: %s", pending[0].BorrowerSavings)
	}
}

func TestFetchPendingLoansCollapsesDuplicateRequests(t *testing.T) {
	q := &fakeQuerier{logs: map[string][]blockchain.LogEntry{
		TopicLoanRequested: {
			loanRequestedLog(5, borrowerAddr, 100, 100, "0xt1", 0),
			loanRequestedLog(5, borrowerAddr, 100, 120, "0xt2", 0),
		},
	}}
	r := &fakeStateReader{
		loans:   map[uint64]ledger.Loan{5: {ID: 5, Borrower: borrowerAddr, Owed: big.NewInt(110)}},
		savings: map[string]*big.Int{},
	}
	engine := newTestEngine(t, q, r)

	pending, err := engine.FetchPendingLoans(context.Background())
	if err != nil {
		t.Fatalf("fetch pending: %v", err)
	}
	if len(pending) != 1 {
		t.Fatalf("expected duplicate requests to collapse, got %d entries", len(pending))
	}
}

func TestFetchPendingLoansEnrichmentFailureDropsEntryOnly(t *testing.T) {
	q := &fakeQuerier{logs: map[string][]blockchain.LogEntry{
		TopicLoanRequested: {
			loanRequestedLog(7, borrowerAddr, 100, 100, "0xt7", 0),
			loanRequestedLog(8, borrowerAddr, 200, 200, "0xt8", 0),
		},
	}}
	r := &fakeStateReader{
		loans:       map[uint64]ledger.Loan{8: {ID: 8, Borrower: borrowerAddr, Owed: big.NewInt(210)}},
		savings:     map[string]*big.Int{},
		failLoanIDs: map[uint64]bool{7: true},
	}
	engine := newTestEngine(t, q, r)

	pending, err := engine.FetchPendingLoans(context.Background())
	if err != nil {
		t.Fatalf("fetch pending: %v", err)
	}
	if len(pending) != 1 || pending[0].LoanID != 8 {
		t.Fatalf("expected only loan 8 to survive, got %+v", pending)
	}
}

func TestFetchPendingLoansOrdersNewestFirst(t *testing.T) {
	q := &fakeQuerier{logs: map[string][]blockchain.LogEntry{
		TopicLoanRequested: {
			loanRequestedLog(7, borrowerAddr, 100, 100, "0xt7", 0),
			loanRequestedLog(8, borrowerAddr, 200, 200, "0xt8", 0),
		},
	}}
	r := &fakeStateReader{
		loans: map[uint64]ledger.Loan{
			7: {ID: 7, Owed: big.NewInt(110)},
			8: {ID: 8, Owed: big.NewInt(210)},
		},
		savings: map[string]*big.Int{},
	}
	engine := newTestEngine(t, q, r)

	pending, err := engine.FetchPendingLoans(context.Background())
	if err != nil {
		t.Fatalf("fetch pending: %v", err)
	}
	if len(pending) != 2 || pending[0].LoanID != 8 || pending[1].LoanID != 7 {
		t.Fatalf("unexpected order: %+v", pending)
	}
}
