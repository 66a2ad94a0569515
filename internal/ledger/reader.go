package ledger

import (
	"context"
	"fmt"
	"math/big"
	"strings"

	"github.com/koperasichain/backend/internal/blockchain"
)

var (
	selBalanceOf       = blockchain.MethodSelector("balanceOf(address)")
	selAllowance       = blockchain.MethodSelector("allowance(address,address)")
	selIsOfficer       = blockchain.MethodSelector("isOfficer(address)")
	selMemberOf        = blockchain.MethodSelector("memberOf(address)")
	selTotalSavingsOf  = blockchain.MethodSelector("totalSavingsOf(address)")
	selActiveLoanIDOf  = blockchain.MethodSelector("activeLoanIdOf(address)")
	selLoanByID        = blockchain.MethodSelector("loanById(uint256)")
	selRegistrationFee = blockchain.MethodSelector("registrationFee()")
)

type CallClient interface {
	Call(ctx context.Context, contractAddr, data string) (string, error)
}

// Reader exposes the typed read surface of the cooperative and token
// contracts. Every call hits the ledger; nothing is cached.
type Reader struct {
	rpc       CallClient
	coopAddr  string
	tokenAddr string
}

func NewReader(rpc CallClient, coopAddr, tokenAddr string) (*Reader, error) {
	if !ValidAddress(coopAddr) {
		return nil, fmt.Errorf("invalid COOPERATIVE_CONTRACT")
	}
	if !ValidAddress(tokenAddr) {
		return nil, fmt.Errorf("invalid TOKEN_CONTRACT")
	}
	return &Reader{
		rpc:       rpc,
		coopAddr:  NormalizeAddress(coopAddr),
		tokenAddr: NormalizeAddress(tokenAddr),
	}, nil
}

func (r *Reader) CooperativeAddress() string {
	return r.coopAddr
}

func (r *Reader) TokenBalance(ctx context.Context, addr string) (*big.Int, error) {
	out, err := r.rpc.Call(ctx, r.tokenAddr, selBalanceOf+blockchain.PadAddress(addr))
	if err != nil {
		return nil, err
	}
	return firstWordBig(out)
}

func (r *Reader) Allowance(ctx context.Context, owner, spender string) (*big.Int, error) {
	data := selAllowance + blockchain.PadAddress(owner) + blockchain.PadAddress(spender)
	out, err := r.rpc.Call(ctx, r.tokenAddr, data)
	if err != nil {
		return nil, err
	}
	return firstWordBig(out)
}

func (r *Reader) IsOfficer(ctx context.Context, addr string) (bool, error) {
	out, err := r.rpc.Call(ctx, r.coopAddr, selIsOfficer+blockchain.PadAddress(addr))
	if err != nil {
		return false, err
	}
	words := blockchain.Words(out)
	if len(words) < 1 {
		return false, fmt.Errorf("malformed isOfficer result")
	}
	return blockchain.WordBool(words[0]), nil
}

func (r *Reader) MemberOf(ctx context.Context, addr string) (MemberRecord, error) {
	out, err := r.rpc.Call(ctx, r.coopAddr, selMemberOf+blockchain.PadAddress(addr))
	if err != nil {
		return MemberRecord{}, err
	}
	words := blockchain.Words(out)
	if len(words) < 2 {
		return MemberRecord{}, fmt.Errorf("malformed memberOf result")
	}
	record := MemberRecord{Registered: blockchain.WordBool(words[0])}
	name, err := blockchain.DecodeStringAt(out, 1)
	if err != nil {
		return MemberRecord{}, fmt.Errorf("malformed member name: %w", err)
	}
	record.Name = name
	return record, nil
}

func (r *Reader) TotalSavingsOf(ctx context.Context, addr string) (*big.Int, error) {
	out, err := r.rpc.Call(ctx, r.coopAddr, selTotalSavingsOf+blockchain.PadAddress(addr))
	if err != nil {
		return nil, err
	}
	return firstWordBig(out)
}

func (r *Reader) ActiveLoanID(ctx context.Context, addr string) (uint64, error) {
	out, err := r.rpc.Call(ctx, r.coopAddr, selActiveLoanIDOf+blockchain.PadAddress(addr))
	if err != nil {
		return 0, err
	}
	n, err := firstWordBig(out)
	if err != nil {
		return 0, err
	}
	if !n.IsUint64() {
		return 0, fmt.Errorf("active loan id out of range")
	}
	return n.Uint64(), nil
}

func (r *Reader) LoanByID(ctx context.Context, loanID uint64) (Loan, error) {
	out, err := r.rpc.Call(ctx, r.coopAddr, selLoanByID+blockchain.PadUint64(loanID))
	if err != nil {
		return Loan{}, err
	}
	words := blockchain.Words(out)
	if len(words) < 7 {
		return Loan{}, fmt.Errorf("malformed loanById result")
	}
	return Loan{
		ID:        blockchain.WordUint64(words[0]),
		Borrower:  blockchain.WordAddress(words[1]),
		Principal: blockchain.WordBig(words[2]),
		Owed:      blockchain.WordBig(words[3]),
		Paid:      blockchain.WordBig(words[4]),
		Approved:  blockchain.WordBool(words[5]),
		Settled:   blockchain.WordBool(words[6]),
	}, nil
}

func (r *Reader) RegistrationFee(ctx context.Context) (*big.Int, error) {
	out, err := r.rpc.Call(ctx, r.coopAddr, selRegistrationFee)
	if err != nil {
		return nil, err
	}
	return firstWordBig(out)
}

func firstWordBig(resultHex string) (*big.Int, error) {
	words := blockchain.Words(resultHex)
	if len(words) < 1 {
		return nil, fmt.Errorf("malformed call result %q", strings.TrimSpace(resultHex))
	}
	return blockchain.WordBig(words[0]), nil
}
