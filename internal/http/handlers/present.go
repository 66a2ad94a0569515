package handlers

import (
	"math/big"
	"time"

	"github.com/koperasichain/backend/internal/domain/member"
	"github.com/koperasichain/backend/internal/events"
	"github.com/koperasichain/backend/internal/ledger"
	"github.com/koperasichain/backend/internal/money"
)

// Response shapes carry amounts as human-decimal strings; everything behind
// this file works in base units.

type loanView struct {
	ID        uint64 `json:"id"`
	Borrower  string `json:"borrower"`
	Principal string `json:"principal"`
	Owed      string `json:"owed"`
	Paid      string `json:"paid"`
	Remaining string `json:"remaining"`
	Approved  bool   `json:"approved"`
}

type historyView struct {
	Kind        string `json:"kind"`
	Timestamp   int64  `json:"timestamp"`
	TxHash      string `json:"tx_hash"`
	LogIndex    uint64 `json:"log_index"`
	Member      string `json:"member"`
	Name        string `json:"name,omitempty"`
	Amount      string `json:"amount,omitempty"`
	SavingsKind string `json:"savings_kind,omitempty"`
	LoanID      uint64 `json:"loan_id,omitempty"`
}

type pendingLoanView struct {
	LoanID          uint64 `json:"loan_id"`
	Borrower        string `json:"borrower"`
	Requested       string `json:"requested"`
	Owed            string `json:"owed"`
	BorrowerSavings string `json:"borrower_savings"`
	RequestedAt     int64  `json:"requested_at"`
	TxHash          string `json:"tx_hash"`
}

type accountView struct {
	Address      string            `json:"address"`
	Registered   bool              `json:"registered"`
	Name         string            `json:"name,omitempty"`
	Officer      bool              `json:"officer"`
	TokenBalance string            `json:"token_balance"`
	TotalSavings string            `json:"total_savings"`
	ActiveLoan   *loanView         `json:"active_loan,omitempty"`
	History      []historyView     `json:"history"`
	PendingLoans []pendingLoanView `json:"pending_loans,omitempty"`
	LoadedAt     time.Time         `json:"loaded_at"`
}

func presentAccount(snap *member.Snapshot, decimals int32) accountView {
	view := accountView{
		Address:      snap.Address,
		Registered:   snap.Registered,
		Name:         snap.Name,
		Officer:      snap.Officer,
		TokenBalance: money.Format(snap.TokenBalance, decimals),
		TotalSavings: money.Format(snap.TotalSavings, decimals),
		History:      presentHistory(snap.History, decimals),
		LoadedAt:     snap.LoadedAt,
	}
	if snap.ActiveLoan != nil {
		lv := presentLoan(*snap.ActiveLoan, decimals)
		view.ActiveLoan = &lv
	}
	if snap.Officer {
		view.PendingLoans = presentPendingLoans(snap.PendingLoans, decimals)
	}
	return view
}

func presentLoan(loan ledger.Loan, decimals int32) loanView {
	remaining := new(big.Int)
	if loan.Owed != nil && loan.Paid != nil && loan.Owed.Cmp(loan.Paid) > 0 {
		remaining.Sub(loan.Owed, loan.Paid)
	}
	return loanView{
		ID:        loan.ID,
		Borrower:  loan.Borrower,
		Principal: money.Format(loan.Principal, decimals),
		Owed:      money.Format(loan.Owed, decimals),
		Paid:      money.Format(loan.Paid, decimals),
		Remaining: money.Format(remaining, decimals),
		Approved:  loan.Approved,
	}
}

func presentHistory(items []events.Event, decimals int32) []historyView {
	out := make([]historyView, 0, len(items))
	for _, ev := range items {
		view := historyView{
			Kind:      string(ev.Kind),
			Timestamp: ev.Timestamp,
			TxHash:    ev.TxHash,
			LogIndex:  ev.LogIndex,
			Member:    ev.Member,
		}
		switch ev.Kind {
		case events.KindMemberRegistered:
			view.Name = ev.Name
		case events.KindDepositReceived:
			view.Amount = money.Format(ev.Amount, decimals)
			view.SavingsKind = ev.SavingsKind
		case events.KindWithdrawalSucceeded:
			view.Amount = money.Format(ev.Amount, decimals)
		case events.KindLoanRequested, events.KindInstallmentPaid:
			view.Amount = money.Format(ev.Amount, decimals)
			view.LoanID = ev.LoanID
		case events.KindLoanApproved, events.KindLoanSettled:
			view.LoanID = ev.LoanID
		}
		out = append(out, view)
	}
	return out
}

func presentPendingLoans(items []events.PendingLoan, decimals int32) []pendingLoanView {
	out := make([]pendingLoanView, 0, len(items))
	for _, item := range items {
		out = append(out, pendingLoanView{
			LoanID:          item.LoanID,
			Borrower:        item.Borrower,
			Requested:       money.Format(item.Requested, decimals),
			Owed:            money.Format(item.Owed, decimals),
			BorrowerSavings: money.Format(item.BorrowerSavings, decimals),
			RequestedAt:     item.RequestedAt,
			TxHash:          item.TxHash,
		})
	}
	return out
}
