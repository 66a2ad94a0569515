package events

import "math/big"

// Kind tags the domain event variants emitted by the cooperative contract.
type Kind string

const (
	KindMemberRegistered    Kind = "MemberRegistered"
	KindDepositReceived     Kind = "DepositReceived"
	KindWithdrawalSucceeded Kind = "WithdrawalSucceeded"
	KindLoanRequested       Kind = "LoanRequested"
	KindLoanApproved        Kind = "LoanApproved"
	KindInstallmentPaid     Kind = "InstallmentPaid"
	KindLoanSettled         Kind = "LoanSettled"
)

// Event is one ledger event. (TxHash, LogIndex) uniquely identifies it;
// Timestamp is ledger-assigned seconds and zero when unknown. Fields beyond
// the common set are populated per Kind.
type Event struct {
	Kind      Kind
	Timestamp int64
	TxHash    string
	LogIndex  uint64

	// Member is the acting member for savings events and the borrower for
	// loan events.
	Member string

	// Name is set for MemberRegistered.
	Name string

	// Amount is set for DepositReceived, WithdrawalSucceeded, LoanRequested
	// and InstallmentPaid.
	Amount *big.Int

	// SavingsKind is set for DepositReceived.
	SavingsKind string

	// LoanID is set for loan events.
	LoanID uint64
}

// PendingLoan is a projection entry: a requested loan with neither an
// approval nor a settlement on the ledger, enriched with current state.
type PendingLoan struct {
	LoanID          uint64
	Borrower        string
	Requested       *big.Int
	Owed            *big.Int
	BorrowerSavings *big.Int
	RequestedAt     int64
	TxHash          string
}
