package member

import (
	"context"
	"log/slog"
	"math/big"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/koperasichain/backend/internal/events"
	"github.com/koperasichain/backend/internal/fault"
	"github.com/koperasichain/backend/internal/ledger"
)

type StateReader interface {
	TokenBalance(ctx context.Context, addr string) (*big.Int, error)
	IsOfficer(ctx context.Context, addr string) (bool, error)
	MemberOf(ctx context.Context, addr string) (ledger.MemberRecord, error)
	TotalSavingsOf(ctx context.Context, addr string) (*big.Int, error)
	ActiveLoanID(ctx context.Context, addr string) (uint64, error)
	LoanByID(ctx context.Context, loanID uint64) (ledger.Loan, error)
}

type EventEngine interface {
	FetchHistory(ctx context.Context, account string) ([]events.Event, error)
	FetchPendingLoans(ctx context.Context) ([]events.PendingLoan, error)
}

// Snapshot is the full current-state view for one member, built in a single
// pass. All fields come from the same refresh; callers replace the previous
// snapshot atomically or not at all.
type Snapshot struct {
	Address      string
	TokenBalance *big.Int
	Officer      bool
	Registered   bool
	Name         string
	TotalSavings *big.Int
	ActiveLoan   *ledger.Loan
	History      []events.Event
	PendingLoans []events.PendingLoan
	LoadedAt     time.Time
}

type Service struct {
	reader StateReader
	engine EventEngine
	now    func() time.Time
	logger *slog.Logger
}

func NewService(reader StateReader, engine EventEngine, logger *slog.Logger) *Service {
	return &Service{
		reader: reader,
		engine: engine,
		now:    func() time.Time { return time.Now().UTC() },
		logger: logger,
	}
}

// LoadAccount builds a fresh snapshot for the given identity. Reads run
// concurrently where they are independent; registration-gated reads follow
// the membership read. Any failure fails the whole load and the caller keeps
// its previous snapshot.
func (s *Service) LoadAccount(ctx context.Context, account string) (*Snapshot, error) {
	if !ledger.ValidAddress(account) {
		return nil, &fault.ValidationError{Field: "address", Reason: "malformed ledger address"}
	}
	account = ledger.NormalizeAddress(account)

	snap := &Snapshot{
		Address:      account,
		TokenBalance: new(big.Int),
		TotalSavings: new(big.Int),
		History:      []events.Event{},
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		balance, err := s.reader.TokenBalance(gctx, account)
		if err != nil {
			return err
		}
		snap.TokenBalance = balance
		return nil
	})
	g.Go(func() error {
		officer, err := s.reader.IsOfficer(gctx, account)
		if err != nil {
			return err
		}
		snap.Officer = officer
		return nil
	})
	record := ledger.MemberRecord{}
	g.Go(func() error {
		rec, err := s.reader.MemberOf(gctx, account)
		if err != nil {
			return err
		}
		record = rec
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, &fault.QueryError{Op: "load_account", Err: err}
	}

	snap.Registered = record.Registered
	snap.Name = record.Name

	g, gctx = errgroup.WithContext(ctx)
	if snap.Registered {
		g.Go(func() error {
			savings, err := s.reader.TotalSavingsOf(gctx, account)
			if err != nil {
				return err
			}
			snap.TotalSavings = savings
			return nil
		})
		g.Go(func() error {
			loan, err := s.loadActiveLoan(gctx, account)
			if err != nil {
				return err
			}
			snap.ActiveLoan = loan
			return nil
		})
		g.Go(func() error {
			history, err := s.engine.FetchHistory(gctx, account)
			if err != nil {
				return err
			}
			snap.History = history
			return nil
		})
	}
	if snap.Officer {
		g.Go(func() error {
			pending, err := s.engine.FetchPendingLoans(gctx)
			if err != nil {
				return err
			}
			snap.PendingLoans = pending
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, &fault.QueryError{Op: "load_account", Err: err}
	}

	snap.LoadedAt = s.now()
	s.logger.Debug("account snapshot loaded",
		"address", account,
		"registered", snap.Registered,
		"officer", snap.Officer,
		"history_events", len(snap.History),
	)
	return snap, nil
}

// loadActiveLoan resolves the member's active-loan pointer. A loan counts as
// closed only when the ledger says Settled; a fully paid but unsettled loan
// stays active.
func (s *Service) loadActiveLoan(ctx context.Context, account string) (*ledger.Loan, error) {
	loanID, err := s.reader.ActiveLoanID(ctx, account)
	if err != nil {
		return nil, err
	}
	if loanID == 0 {
		return nil, nil
	}
	loan, err := s.reader.LoanByID(ctx, loanID)
	if err != nil {
		return nil, err
	}
	if loan.Settled {
		return nil, nil
	}
	return &loan, nil
}
