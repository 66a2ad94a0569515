package events

import (
	"context"
	"fmt"
	"log/slog"
	"math/big"
	"sort"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/koperasichain/backend/internal/blockchain"
	"github.com/koperasichain/backend/internal/fault"
	"github.com/koperasichain/backend/internal/ledger"
)

const enrichmentConcurrency = 8

type LogQuerier interface {
	BlockNumber(ctx context.Context) (uint64, error)
	GetLogs(ctx context.Context, filter blockchain.LogFilter) ([]blockchain.LogEntry, error)
}

type StateReader interface {
	LoanByID(ctx context.Context, loanID uint64) (ledger.Loan, error)
	TotalSavingsOf(ctx context.Context, addr string) (*big.Int, error)
}

// Engine reconciles the cooperative contract's event streams into derived
// views. It holds no state between calls; every fetch rebuilds its result
// from the ledger.
type Engine struct {
	rpc      LogQuerier
	reader   StateReader
	coopAddr string
	logger   *slog.Logger
}

func NewEngine(rpc LogQuerier, reader StateReader, coopAddr string, logger *slog.Logger) (*Engine, error) {
	if !ledger.ValidAddress(coopAddr) {
		return nil, fmt.Errorf("invalid COOPERATIVE_CONTRACT")
	}
	return &Engine{
		rpc:      rpc,
		reader:   reader,
		coopAddr: ledger.NormalizeAddress(coopAddr),
		logger:   logger,
	}, nil
}

// FetchHistory returns every event involving the member, deduplicated by
// (txHash, logIndex) and sorted newest first. A single failed stream fails
// the whole call; an empty result is a valid outcome for a new member.
func (e *Engine) FetchHistory(ctx context.Context, account string) ([]Event, error) {
	if !ledger.ValidAddress(account) {
		return nil, &fault.ValidationError{Field: "address", Reason: "malformed ledger address"}
	}
	latest, err := e.rpc.BlockNumber(ctx)
	if err != nil {
		return nil, &fault.QueryError{Op: "block_number", Err: err}
	}

	memberTopic := blockchain.AddressTopic(account)
	filters := []blockchain.LogFilter{
		// Member is topic 1 on savings events.
		{FromBlock: 0, ToBlock: latest, Address: e.coopAddr, Topics: []string{TopicMemberRegistered, memberTopic}},
		{FromBlock: 0, ToBlock: latest, Address: e.coopAddr, Topics: []string{TopicDepositReceived, memberTopic}},
		{FromBlock: 0, ToBlock: latest, Address: e.coopAddr, Topics: []string{TopicWithdrawalSucceeded, memberTopic}},
		// Borrower is topic 2 on loan events, after the loan id.
		{FromBlock: 0, ToBlock: latest, Address: e.coopAddr, Topics: []string{TopicLoanRequested, "", memberTopic}},
		{FromBlock: 0, ToBlock: latest, Address: e.coopAddr, Topics: []string{TopicLoanApproved, "", memberTopic}},
		{FromBlock: 0, ToBlock: latest, Address: e.coopAddr, Topics: []string{TopicInstallmentPaid, "", memberTopic}},
		{FromBlock: 0, ToBlock: latest, Address: e.coopAddr, Topics: []string{TopicLoanSettled, "", memberTopic}},
	}

	batches := make([][]blockchain.LogEntry, len(filters))
	g, gctx := errgroup.WithContext(ctx)
	for i, filter := range filters {
		i, filter := i, filter
		g.Go(func() error {
			logs, err := e.rpc.GetLogs(gctx, filter)
			if err != nil {
				return err
			}
			batches[i] = logs
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, &fault.QueryError{Op: "fetch_history", Err: err}
	}

	merged, err := mergeBatches(batches)
	if err != nil {
		return nil, &fault.QueryError{Op: "decode_history", Err: err}
	}
	return merged, nil
}

// FetchPendingLoans derives the administrator queue: loans requested but
// neither approved nor settled, enriched with current loan state and the
// borrower's savings. A failed enrichment drops only that entry.
func (e *Engine) FetchPendingLoans(ctx context.Context) ([]PendingLoan, error) {
	latest, err := e.rpc.BlockNumber(ctx)
	if err != nil {
		return nil, &fault.QueryError{Op: "block_number", Err: err}
	}

	kinds := []string{TopicLoanRequested, TopicLoanApproved, TopicLoanSettled}
	batches := make([][]blockchain.LogEntry, len(kinds))
	g, gctx := errgroup.WithContext(ctx)
	for i, topic := range kinds {
		i, topic := i, topic
		g.Go(func() error {
			logs, err := e.rpc.GetLogs(gctx, blockchain.LogFilter{
				FromBlock: 0,
				ToBlock:   latest,
				Address:   e.coopAddr,
				Topics:    []string{topic},
			})
			if err != nil {
				return err
			}
			batches[i] = logs
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, &fault.QueryError{Op: "fetch_pending_loans", Err: err}
	}

	requested, err := decodeBatch(batches[0])
	if err != nil {
		return nil, &fault.QueryError{Op: "decode_pending_loans", Err: err}
	}
	approved, err := decodeBatch(batches[1])
	if err != nil {
		return nil, &fault.QueryError{Op: "decode_pending_loans", Err: err}
	}
	settled, err := decodeBatch(batches[2])
	if err != nil {
		return nil, &fault.QueryError{Op: "decode_pending_loans", Err: err}
	}

	closedIDs := map[uint64]struct{}{}
	for _, ev := range approved {
		closedIDs[ev.LoanID] = struct{}{}
	}
	for _, ev := range settled {
		closedIDs[ev.LoanID] = struct{}{}
	}

	seen := map[uint64]struct{}{}
	pendingEvents := make([]Event, 0, len(requested))
	for _, ev := range requested {
		if _, closed := closedIDs[ev.LoanID]; closed {
			continue
		}
		// A loan requested twice under the same id is one entry.
		if _, dup := seen[ev.LoanID]; dup {
			continue
		}
		seen[ev.LoanID] = struct{}{}
		pendingEvents = append(pendingEvents, ev)
	}

	entries := make([]*PendingLoan, len(pendingEvents))
	var eg errgroup.Group
	eg.SetLimit(enrichmentConcurrency)
	for i, ev := range pendingEvents {
		i, ev := i, ev
		eg.Go(func() error {
			loan, err := e.reader.LoanByID(ctx, ev.LoanID)
			if err != nil {
				e.logger.Warn("pending loan enrichment failed", "loan_id", ev.LoanID, "err", err)
				return nil
			}
			savings, err := e.reader.TotalSavingsOf(ctx, ev.Member)
			if err != nil {
				e.logger.Warn("pending loan enrichment failed", "loan_id", ev.LoanID, "err", err)
				return nil
			}
			entries[i] = &PendingLoan{
				LoanID:          ev.LoanID,
				Borrower:        ev.Member,
				Requested:       ev.Amount,
				Owed:            loan.Owed,
				BorrowerSavings: savings,
				RequestedAt:     ev.Timestamp,
				TxHash:          ev.TxHash,
			}
			return nil
		})
	}
	_ = eg.Wait()

	out := make([]PendingLoan, 0, len(entries))
	for _, entry := range entries {
		if entry != nil {
			out = append(out, *entry)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].RequestedAt != out[j].RequestedAt {
			return out[i].RequestedAt > out[j].RequestedAt
		}
		return out[i].LoanID > out[j].LoanID
	})
	return out, nil
}

func mergeBatches(batches [][]blockchain.LogEntry) ([]Event, error) {
	seen := map[string]struct{}{}
	merged := make([]Event, 0)
	for _, batch := range batches {
		for _, log := range batch {
			if log.Removed {
				continue
			}
			key := fmt.Sprintf("%s#%d", strings.ToLower(log.TransactionHash), log.LogIndex)
			if _, dup := seen[key]; dup {
				continue
			}
			ev, ok, err := DecodeLog(log)
			if err != nil {
				return nil, err
			}
			if !ok {
				continue
			}
			seen[key] = struct{}{}
			merged = append(merged, ev)
		}
	}

	// Newest first; equal or unknown timestamps fall back to tx hash then
	// log index so the order is reproducible for identical inputs.
	sort.Slice(merged, func(i, j int) bool {
		if merged[i].Timestamp != merged[j].Timestamp {
			return merged[i].Timestamp > merged[j].Timestamp
		}
		if merged[i].TxHash != merged[j].TxHash {
			return merged[i].TxHash < merged[j].TxHash
		}
		return merged[i].LogIndex < merged[j].LogIndex
	})
	return merged, nil
}

func decodeBatch(batch []blockchain.LogEntry) ([]Event, error) {
	out := make([]Event, 0, len(batch))
	for _, log := range batch {
		if log.Removed {
			continue
		}
		ev, ok, err := DecodeLog(log)
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}
		out = append(out, ev)
	}
	return out, nil
}
