package ledger

import (
	"context"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/koperasichain/backend/internal/blockchain"
)

var (
	selApprove        = blockchain.MethodSelector("approve(address,uint256)")
	selMint           = blockchain.MethodSelector("mint(address,uint256)")
	selRegisterMember = blockchain.MethodSelector("registerMember(string)")
	selDeposit        = blockchain.MethodSelector("deposit(uint256)")
	selWithdraw       = blockchain.MethodSelector("withdraw(uint256)")
	selRequestLoan    = blockchain.MethodSelector("requestLoan(uint256)")
	selPayInstallment = blockchain.MethodSelector("payInstallment(uint256,uint256)")
	selApproveLoan    = blockchain.MethodSelector("approveLoan(uint256)")
)

// Writer submits state-changing transactions. Each call returns the pending
// transaction hash; confirmation is the Confirmer's job.
type Writer interface {
	Approve(ctx context.Context, from string, amount *big.Int) (string, error)
	Mint(ctx context.Context, from, to string, amount *big.Int) (string, error)
	RegisterMember(ctx context.Context, from, name string) (string, error)
	Deposit(ctx context.Context, from string, amount *big.Int) (string, error)
	Withdraw(ctx context.Context, from string, amount *big.Int) (string, error)
	RequestLoan(ctx context.Context, from string, amount *big.Int) (string, error)
	PayInstallment(ctx context.Context, from string, loanID uint64, amount *big.Int) (string, error)
	ApproveLoan(ctx context.Context, from string, loanID uint64) (string, error)
}

type SendClient interface {
	SendTransaction(ctx context.Context, from, to, data string, gasLimit uint64) (string, error)
}

type RPCWriter struct {
	rpc       SendClient
	coopAddr  string
	tokenAddr string
	gasLimit  uint64
}

func NewRPCWriter(rpc SendClient, coopAddr, tokenAddr string, gasLimit uint64) (*RPCWriter, error) {
	if !ValidAddress(coopAddr) {
		return nil, fmt.Errorf("invalid COOPERATIVE_CONTRACT")
	}
	if !ValidAddress(tokenAddr) {
		return nil, fmt.Errorf("invalid TOKEN_CONTRACT")
	}
	if gasLimit == 0 {
		gasLimit = 300000
	}
	return &RPCWriter{
		rpc:       rpc,
		coopAddr:  NormalizeAddress(coopAddr),
		tokenAddr: NormalizeAddress(tokenAddr),
		gasLimit:  gasLimit,
	}, nil
}

func (w *RPCWriter) Approve(ctx context.Context, from string, amount *big.Int) (string, error) {
	data := selApprove + blockchain.PadAddress(w.coopAddr) + blockchain.PadBig(amount)
	return w.send(ctx, from, w.tokenAddr, data)
}

func (w *RPCWriter) Mint(ctx context.Context, from, to string, amount *big.Int) (string, error) {
	if !ValidAddress(to) {
		return "", fmt.Errorf("invalid mint recipient")
	}
	data := selMint + blockchain.PadAddress(to) + blockchain.PadBig(amount)
	return w.send(ctx, from, w.tokenAddr, data)
}

func (w *RPCWriter) RegisterMember(ctx context.Context, from, name string) (string, error) {
	if strings.TrimSpace(name) == "" {
		return "", fmt.Errorf("missing member name")
	}
	data := selRegisterMember + blockchain.EncodeStringArg(strings.TrimSpace(name))
	return w.send(ctx, from, w.coopAddr, data)
}

func (w *RPCWriter) Deposit(ctx context.Context, from string, amount *big.Int) (string, error) {
	return w.send(ctx, from, w.coopAddr, selDeposit+blockchain.PadBig(amount))
}

func (w *RPCWriter) Withdraw(ctx context.Context, from string, amount *big.Int) (string, error) {
	return w.send(ctx, from, w.coopAddr, selWithdraw+blockchain.PadBig(amount))
}

func (w *RPCWriter) RequestLoan(ctx context.Context, from string, amount *big.Int) (string, error) {
	return w.send(ctx, from, w.coopAddr, selRequestLoan+blockchain.PadBig(amount))
}

func (w *RPCWriter) PayInstallment(ctx context.Context, from string, loanID uint64, amount *big.Int) (string, error) {
	data := selPayInstallment + blockchain.PadUint64(loanID) + blockchain.PadBig(amount)
	return w.send(ctx, from, w.coopAddr, data)
}

func (w *RPCWriter) ApproveLoan(ctx context.Context, from string, loanID uint64) (string, error) {
	return w.send(ctx, from, w.coopAddr, selApproveLoan+blockchain.PadUint64(loanID))
}

func (w *RPCWriter) send(ctx context.Context, from, to, data string) (string, error) {
	if !ValidAddress(from) {
		return "", fmt.Errorf("invalid from address")
	}
	return w.rpc.SendTransaction(ctx, NormalizeAddress(from), to, data, w.gasLimit)
}

// StubWriter fakes transaction submission for local development without a
// node.
type StubWriter struct{}

func NewStubWriter() *StubWriter {
	return &StubWriter{}
}

func (w *StubWriter) stubHash(tag string) (string, error) {
	return fmt.Sprintf("0xstub%s%x", tag, time.Now().UTC().UnixNano()), nil
}

func (w *StubWriter) Approve(_ context.Context, _ string, _ *big.Int) (string, error) {
	return w.stubHash("approve")
}

func (w *StubWriter) Mint(_ context.Context, _, _ string, _ *big.Int) (string, error) {
	return w.stubHash("mint")
}

func (w *StubWriter) RegisterMember(_ context.Context, _, name string) (string, error) {
	if strings.TrimSpace(name) == "" {
		return "", fmt.Errorf("missing member name")
	}
	return w.stubHash("register")
}

func (w *StubWriter) Deposit(_ context.Context, _ string, _ *big.Int) (string, error) {
	return w.stubHash("deposit")
}

func (w *StubWriter) Withdraw(_ context.Context, _ string, _ *big.Int) (string, error) {
	return w.stubHash("withdraw")
}

func (w *StubWriter) RequestLoan(_ context.Context, _ string, _ *big.Int) (string, error) {
	return w.stubHash("requestloan")
}

func (w *StubWriter) PayInstallment(_ context.Context, _ string, _ uint64, _ *big.Int) (string, error) {
	return w.stubHash("installment")
}

func (w *StubWriter) ApproveLoan(_ context.Context, _ string, _ uint64) (string, error) {
	return w.stubHash("approveloan")
}
