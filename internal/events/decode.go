package events

import (
	"fmt"
	"strings"

	"github.com/koperasichain/backend/internal/blockchain"
)

var (
	TopicMemberRegistered    = blockchain.EventTopic("MemberRegistered(address,string,uint256)")
	TopicDepositReceived     = blockchain.EventTopic("DepositReceived(address,uint256,string,uint256)")
	TopicWithdrawalSucceeded = blockchain.EventTopic("WithdrawalSucceeded(address,uint256,uint256)")
	TopicLoanRequested       = blockchain.EventTopic("LoanRequested(uint256,address,uint256,uint256)")
	TopicLoanApproved        = blockchain.EventTopic("LoanApproved(uint256,address,uint256)")
	TopicInstallmentPaid     = blockchain.EventTopic("InstallmentPaid(uint256,address,uint256,uint256)")
	TopicLoanSettled         = blockchain.EventTopic("LoanSettled(uint256,address,uint256)")
)

// DecodeLog turns a raw log into a typed Event. Unknown topics return
// ok=false; logs that match a known topic but are malformed return an error.
func DecodeLog(log blockchain.LogEntry) (Event, bool, error) {
	if len(log.Topics) == 0 {
		return Event{}, false, nil
	}
	ev := Event{
		TxHash:   strings.ToLower(log.TransactionHash),
		LogIndex: log.LogIndex,
	}
	words := blockchain.Words(log.Data)

	switch strings.ToLower(log.Topics[0]) {
	case strings.ToLower(TopicMemberRegistered):
		if len(log.Topics) < 2 || len(words) < 2 {
			return Event{}, false, fmt.Errorf("MemberRegistered malformed log")
		}
		name, err := blockchain.DecodeStringAt(log.Data, 0)
		if err != nil {
			return Event{}, false, fmt.Errorf("MemberRegistered name: %w", err)
		}
		ev.Kind = KindMemberRegistered
		ev.Member = blockchain.TopicAddress(log.Topics[1])
		ev.Name = name
		ev.Timestamp = timestampWord(words[1])

	case strings.ToLower(TopicDepositReceived):
		if len(log.Topics) < 2 || len(words) < 3 {
			return Event{}, false, fmt.Errorf("DepositReceived malformed log")
		}
		savingsKind, err := blockchain.DecodeStringAt(log.Data, 1)
		if err != nil {
			return Event{}, false, fmt.Errorf("DepositReceived savings kind: %w", err)
		}
		ev.Kind = KindDepositReceived
		ev.Member = blockchain.TopicAddress(log.Topics[1])
		ev.Amount = blockchain.WordBig(words[0])
		ev.SavingsKind = savingsKind
		ev.Timestamp = timestampWord(words[2])

	case strings.ToLower(TopicWithdrawalSucceeded):
		if len(log.Topics) < 2 || len(words) < 2 {
			return Event{}, false, fmt.Errorf("WithdrawalSucceeded malformed log")
		}
		ev.Kind = KindWithdrawalSucceeded
		ev.Member = blockchain.TopicAddress(log.Topics[1])
		ev.Amount = blockchain.WordBig(words[0])
		ev.Timestamp = timestampWord(words[1])

	case strings.ToLower(TopicLoanRequested):
		if len(log.Topics) < 3 || len(words) < 2 {
			return Event{}, false, fmt.Errorf("LoanRequested malformed log")
		}
		loanID, err := blockchain.TopicUint64(log.Topics[1])
		if err != nil {
			return Event{}, false, fmt.Errorf("LoanRequested loan id: %w", err)
		}
		ev.Kind = KindLoanRequested
		ev.LoanID = loanID
		ev.Member = blockchain.TopicAddress(log.Topics[2])
		ev.Amount = blockchain.WordBig(words[0])
		ev.Timestamp = timestampWord(words[1])

	case strings.ToLower(TopicLoanApproved):
		if len(log.Topics) < 3 || len(words) < 1 {
			return Event{}, false, fmt.Errorf("LoanApproved malformed log")
		}
		loanID, err := blockchain.TopicUint64(log.Topics[1])
		if err != nil {
			return Event{}, false, fmt.Errorf("LoanApproved loan id: %w", err)
		}
		ev.Kind = KindLoanApproved
		ev.LoanID = loanID
		ev.Member = blockchain.TopicAddress(log.Topics[2])
		ev.Timestamp = timestampWord(words[0])

	case strings.ToLower(TopicInstallmentPaid):
		if len(log.Topics) < 3 || len(words) < 2 {
			return Event{}, false, fmt.Errorf("InstallmentPaid malformed log")
		}
		loanID, err := blockchain.TopicUint64(log.Topics[1])
		if err != nil {
			return Event{}, false, fmt.Errorf("InstallmentPaid loan id: %w", err)
		}
		ev.Kind = KindInstallmentPaid
		ev.LoanID = loanID
		ev.Member = blockchain.TopicAddress(log.Topics[2])
		ev.Amount = blockchain.WordBig(words[0])
		ev.Timestamp = timestampWord(words[1])

	case strings.ToLower(TopicLoanSettled):
		if len(log.Topics) < 3 || len(words) < 1 {
			return Event{}, false, fmt.Errorf("LoanSettled malformed log")
		}
		loanID, err := blockchain.TopicUint64(log.Topics[1])
		if err != nil {
			return Event{}, false, fmt.Errorf("LoanSettled loan id: %w", err)
		}
		ev.Kind = KindLoanSettled
		ev.LoanID = loanID
		ev.Member = blockchain.TopicAddress(log.Topics[2])
		ev.Timestamp = timestampWord(words[0])

	default:
		return Event{}, false, nil
	}

	return ev, true, nil
}

func timestampWord(word string) int64 {
	n := blockchain.WordBig(word)
	if !n.IsInt64() {
		return 0
	}
	return n.Int64()
}
